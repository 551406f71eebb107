package ws

import (
	"encoding/json"
	"sync"

	"battleship_server/internal/logger"
)

// Hub owns the presence registry (user → live connection, last write wins)
// and named-room membership, and exposes the transport primitives the game
// layer sends through: direct sends, room broadcasts, and global broadcasts.
type Hub struct {
	mu       sync.RWMutex
	clients  map[int64]*Client
	rooms    map[string]map[int64]*Client
	userRoom map[int64]string
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(map[int64]*Client),
		rooms:    make(map[string]map[int64]*Client),
		userRoom: make(map[int64]string),
	}
}

// Bind registers the connection as the user's live handle, replacing any
// previous one. A reconnecting user simply overwrites the stale handle.
func (h *Hub) Bind(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.UserID] = c
	connectionsActive.Set(float64(len(h.clients)))
}

// Unbind removes the user's handle, but only if this connection still is the
// live one — a drop of a superseded connection must not evict its successor.
func (h *Hub) Unbind(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[c.UserID]; !ok || current != c {
		return false
	}
	delete(h.clients, c.UserID)
	connectionsActive.Set(float64(len(h.clients)))
	return true
}

func (h *Hub) Resolve(userID int64) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[userID]
	return c, ok
}

// JoinRoom puts the user's current connection into the named room.
func (h *Hub) JoinRoom(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[int64]*Client)
		h.rooms[roomID] = room
	}
	room[c.UserID] = c
	h.userRoom[c.UserID] = roomID
}

func (h *Hub) LeaveRoom(roomID string, userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[roomID]; ok {
		delete(room, userID)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if h.userRoom[userID] == roomID {
		delete(h.userRoom, userID)
	}
}

// DropRoom tears down the room and every member's room mapping.
func (h *Hub) DropRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for uid := range h.rooms[roomID] {
		if h.userRoom[uid] == roomID {
			delete(h.userRoom, uid)
		}
	}
	delete(h.rooms, roomID)
}

// RoomOf returns the room the user's connection currently sits in.
func (h *Hub) RoomOf(userID int64) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	roomID, ok := h.userRoom[userID]
	return roomID, ok
}

// SendTo addresses the user's live connection. Returns false when the user
// has no handle; the event is silently dropped per the not-found policy.
func (h *Hub) SendTo(userID int64, eventType string, payload any) bool {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	h.push(c, eventType, payload)
	return true
}

func (h *Hub) BroadcastRoom(roomID, eventType string, payload any) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[roomID]))
	for _, c := range h.rooms[roomID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		h.push(c, eventType, payload)
	}
}

func (h *Hub) BroadcastAll(eventType string, payload any) {
	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.push(c, eventType, payload)
	}
}

// push marshals once and hands the frame to the client's write pump without
// blocking; a consumer whose buffer is full loses the frame and is left to
// the ping/pong deadline to reap.
func (h *Hub) push(c *Client, eventType string, payload any) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		logger.Error("marshal outbound event", "type", eventType, "error", err)
		return
	}
	select {
	case c.Send <- data:
	default:
		logger.Warn("dropping frame for slow client", "user_id", c.UserID, "type", eventType)
	}
}
