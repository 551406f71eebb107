package ws

import (
	"time"

	"github.com/gorilla/websocket"

	"battleship_server/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	maxMessageSize = 8192
	sendBuffer     = 256
)

// Client is one authenticated websocket connection. The read pump feeds
// events to the GameServer; the write pump drains Send and keeps the
// connection alive with pings. Send is never closed — the done channel stops
// the write pump — so the hub can push to a dying client without racing.
type Client struct {
	UserID int64
	Conn   *websocket.Conn
	Send   chan []byte

	server *GameServer
	done   chan struct{}
}

func NewClient(userID int64, conn *websocket.Conn, server *GameServer) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		server: server,
		done:   make(chan struct{}),
	}
}

// Run registers the connection and pumps it until it drops.
func (c *Client) Run() {
	c.server.OnConnect(c)
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.server.OnDisconnect(c)
		close(c.done)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("unexpected close", "user_id", c.UserID, "error", err)
			}
			return
		}
		c.server.HandleMessage(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("write failed", "user_id", c.UserID, "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
