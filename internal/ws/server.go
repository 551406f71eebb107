package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"battleship_server/internal/domain"
	"battleship_server/internal/game"
	"battleship_server/internal/logger"
)

const lookupTimeout = 2 * time.Second

// UserFinder resolves a user id to a profile. Lookups are cosmetic here:
// a failure costs a display name, never a game action.
type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// MatchRecorder persists finished matches. Optional; nil disables history.
type MatchRecorder interface {
	Create(ctx context.Context, rec *domain.MatchRecord) error
}

// GameServer routes inbound events to the lobby, the challenge handshake,
// and the match sessions. Ordering discipline: every handler finishes its
// state mutation (behind the lobby or match lock) before it resolves
// usernames or sends anything, so duplicate events always observe the
// already-updated state.
type GameServer struct {
	hub     *Hub
	lobby   *Lobby
	matches *game.Registry
	users   UserFinder
	history MatchRecorder
}

func NewGameServer(users UserFinder, history MatchRecorder) *GameServer {
	return &GameServer{
		hub:     NewHub(),
		lobby:   NewLobby(),
		matches: game.NewRegistry(),
		users:   users,
		history: history,
	}
}

func (s *GameServer) Hub() *Hub { return s.hub }

// OnConnect binds the connection as the user's live handle.
func (s *GameServer) OnConnect(c *Client) {
	s.hub.Bind(c)
	logger.Info("connected", "user_id", c.UserID)
}

// OnDisconnect is the only cancellation signal: presence unbind, lobby
// leave, and departure from any match the user sits in. A connection that
// was already superseded by a reconnect is ignored entirely.
func (s *GameServer) OnDisconnect(c *Client) {
	if !s.hub.Unbind(c) {
		return
	}
	logger.Info("disconnected", "user_id", c.UserID)

	if s.lobby.Leave(c.UserID) {
		s.broadcastLobby()
	}
	if roomID, ok := s.hub.RoomOf(c.UserID); ok {
		s.departMatch(roomID, c.UserID)
	}
}

// HandleMessage decodes the envelope and dispatches. Malformed payloads and
// unknown types are dropped, not answered.
func (s *GameServer) HandleMessage(c *Client, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Debug("bad frame", "user_id", c.UserID, "error", err)
		return
	}

	switch msg.Type {
	case EvJoinLobby:
		var p JoinLobbyPayload
		if decode(msg.Payload, &p, msg.Type) {
			s.handleJoinLobby(p.UserID)
		}
	case EvLeaveLobby:
		var p LeaveLobbyPayload
		if decode(msg.Payload, &p, msg.Type) {
			s.handleLeaveLobby(p.UserID)
		}
	case EvRequestLobbyUpdate:
		s.broadcastLobby()
	case EvRequestChallenge:
		var p ChallengePayload
		if decode(msg.Payload, &p, msg.Type) {
			s.handleRequestChallenge(p.ChallengerUserID, p.ChallengedUserID)
		}
	case EvAcceptChallenge:
		var p ChallengePayload
		if decode(msg.Payload, &p, msg.Type) {
			s.handleAcceptChallenge(p.ChallengerUserID, p.ChallengedUserID)
		}
	case EvCancelChallenge:
		var p ChallengePayload
		if decode(msg.Payload, &p, msg.Type) {
			s.handleCancelChallenge(p.ChallengerUserID, p.ChallengedUserID)
		}
	case EvRejectChallenge:
		var p ChallengePayload
		if decode(msg.Payload, &p, msg.Type) {
			s.handleRejectChallenge(p.ChallengerUserID, p.ChallengedUserID)
		}
	case EvPlayerReady:
		var p PlayerReadyPayload
		if decode(msg.Payload, &p, msg.Type) {
			s.handlePlayerReady(p)
		}
	case EvResetShips:
		var p ResetShipsPayload
		if decode(msg.Payload, &p, msg.Type) {
			s.handleResetShips(p)
		}
	case EvShotCalled:
		var p ShotCalledPayload
		if decode(msg.Payload, &p, msg.Type) {
			s.handleShot(p)
		}
	case EvRejoinGameRoom:
		var p RejoinGameRoomPayload
		if decode(msg.Payload, &p, msg.Type) {
			s.handleRejoin(c, p)
		}
	case EvGetOwnBoard:
		var p BoardQueryPayload
		if decode(msg.Payload, &p, msg.Type) {
			s.handleBoardQuery(p, false)
		}
	case EvGetOpponentsBoard:
		var p BoardQueryPayload
		if decode(msg.Payload, &p, msg.Type) {
			s.handleBoardQuery(p, true)
		}
	case EvLeaveGame:
		var p LeaveGamePayload
		if decode(msg.Payload, &p, msg.Type) {
			s.handleLeaveGame(p)
		}
	default:
		logger.Debug("unknown event", "user_id", c.UserID, "type", msg.Type)
	}
}

func decode(raw json.RawMessage, dst any, eventType string) bool {
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Debug("bad payload", "type", eventType, "error", err)
		return false
	}
	return true
}

// --- lobby & challenge handshake ---

func (s *GameServer) handleJoinLobby(userID int64) {
	// lookup failure costs the display name only
	username := s.lookupUsername(userID)
	s.lobby.Join(userID, username)
	s.broadcastLobby()
}

func (s *GameServer) handleLeaveLobby(userID int64) {
	s.lobby.Leave(userID)
	s.broadcastLobby()
}

func (s *GameServer) handleRequestChallenge(challengerID, challengedID int64) {
	status, challengerName := s.lobby.BeginChallenge(challengerID, challengedID)
	switch status {
	case ChallengeTargetMissing, ChallengeSourceMissing:
		logger.Info("challenge dropped, user not in lobby",
			"challenger", challengerID, "challenged", challengedID, "status", status)
	case ChallengeUnavailable:
		s.hub.SendTo(challengerID, EvChallengeUnavailable, ChallengeUnavailablePayload{
			Message: "User is currently unavailable for challenges.",
		})
	case ChallengeOpened:
		s.hub.SendTo(challengedID, EvChallengeReceived, ChallengeReceivedPayload{
			ChallengerUserID:   challengerID,
			ChallengerUsername: challengerName,
		})
		s.broadcastLobby()
	}
}

func (s *GameServer) handleAcceptChallenge(challengerID, challengedID int64) {
	if !s.lobby.Contains(challengerID) || !s.lobby.Contains(challengedID) {
		logger.Info("accept dropped, user left lobby",
			"challenger", challengerID, "challenged", challengedID)
		return
	}
	challengerConn, okA := s.hub.Resolve(challengerID)
	challengedConn, okB := s.hub.Resolve(challengedID)
	if !okA || !okB {
		logger.Info("accept dropped, missing connection",
			"challenger", challengerID, "challenged", challengedID)
		return
	}

	roomID := uuid.NewString()
	if _, err := s.matches.Create(roomID, challengerID, challengedID); err != nil {
		logger.Error("create match", "room_id", roomID, "error", err)
		return
	}
	matchesActive.Set(float64(s.matches.Len()))

	s.hub.JoinRoom(roomID, challengerConn)
	s.hub.JoinRoom(roomID, challengedConn)
	s.lobby.Leave(challengerID)
	s.lobby.Leave(challengedID)

	logger.Info("match created", "room_id", roomID,
		"challenger", challengerID, "challenged", challengedID)

	s.hub.BroadcastRoom(roomID, EvRoomReady, RoomReadyPayload{RoomID: roomID})
	s.hub.BroadcastRoom(roomID, EvChallengeAccepted, nil)
	s.broadcastLobby()
}

func (s *GameServer) handleCancelChallenge(challengerID, challengedID int64) {
	s.lobby.ClearPending(challengerID, challengedID)
	s.broadcastLobby()
	s.hub.SendTo(challengedID, EvChallengeCanceled, ChallengeCanceledPayload{
		ChallengerUserID: challengerID,
		Message:          "Challenger has canceled the challenge request",
	})
}

func (s *GameServer) handleRejectChallenge(challengerID, challengedID int64) {
	s.lobby.ClearPending(challengerID, challengedID)
	s.broadcastLobby()
	s.hub.SendTo(challengerID, EvChallengeRejected, ChallengeRejectedPayload{
		ChallengedUserID: challengedID,
		Message:          "Challenge rejected",
	})
}

func (s *GameServer) broadcastLobby() {
	entries := s.lobby.Snapshot()
	lobbySize.Set(float64(len(entries)))
	s.hub.BroadcastAll(EvUpdateLobby, UpdateLobbyPayload{Entries: entries})
}

// --- match events ---

func (s *GameServer) handlePlayerReady(p PlayerReadyPayload) {
	m, ok := s.matches.Get(p.RoomID)
	if !ok {
		return
	}
	res := m.MarkReady(p.PlayerID, p.Ships)
	if !res.OK {
		return
	}

	if opponent, ok := m.Opponent(p.PlayerID); ok {
		s.hub.SendTo(opponent, EvOpponentReady, OpponentReadyPayload{
			Username: s.lookupUsername(p.PlayerID),
		})
	}
	if res.AllReady {
		s.hub.BroadcastRoom(p.RoomID, EvAllPlayersReady, AllPlayersReadyPayload{
			RoomID:            p.RoomID,
			CurrentPlayerTurn: res.CurrentTurn,
		})
	}
}

func (s *GameServer) handleResetShips(p ResetShipsPayload) {
	m, ok := s.matches.Get(p.RoomID)
	if !ok {
		return
	}
	if !m.ResetBoard(p.PlayerID) {
		return
	}
	if opponent, ok := m.Opponent(p.PlayerID); ok {
		s.hub.SendTo(opponent, EvOpponentReset, OpponentResetPayload{PlayerID: p.PlayerID})
	}
}

func (s *GameServer) handleShot(p ShotCalledPayload) {
	m, ok := s.matches.Get(p.RoomID)
	if !ok || p.Square == "" {
		return
	}

	// the dedup mark and board mutation land inside ResolveShot's critical
	// section; everything past this line is notification
	out := m.ResolveShot(p.CurrentPlayerID, p.Square)
	if !out.OK {
		return
	}

	switch out.Result.Outcome {
	case game.OutcomeMiss:
		shotsResolved.WithLabelValues("miss").Inc()
		s.hub.BroadcastRoom(p.RoomID, EvShotMiss, ShotResultPayload{
			Square: p.Square, CurrentPlayerTurn: out.NextTurn,
		})
	case game.OutcomeHit:
		shotsResolved.WithLabelValues("hit").Inc()
		s.hub.BroadcastRoom(p.RoomID, EvShotHit, ShotResultPayload{
			Square: p.Square, CurrentPlayerTurn: out.NextTurn,
		})
	case game.OutcomeSunk, game.OutcomeAllSunk:
		shotsResolved.WithLabelValues("sunk").Inc()
		s.hub.BroadcastRoom(p.RoomID, EvShipSunk, ShipSunkPayload{
			Square: p.Square, CurrentPlayerTurn: out.NextTurn, Ship: *out.Result.Ship,
		})
	}

	if out.GameOver {
		loser, _ := m.Opponent(out.Winner)
		s.finishMatch(p.RoomID, out.Winner, loser, "")
	}
}

func (s *GameServer) handleRejoin(c *Client, p RejoinGameRoomPayload) {
	m, ok := s.matches.Get(p.RoomID)
	if !ok || !m.HasPlayer(p.UserID) {
		return
	}
	s.hub.JoinRoom(p.RoomID, c)
	logger.Info("rejoined", "user_id", p.UserID, "room_id", p.RoomID)
	s.hub.SendTo(p.UserID, EvRejoinedGameRoom, RejoinedGameRoomPayload{
		CurrentTurn: m.CurrentTurn(),
	})
}

func (s *GameServer) handleBoardQuery(p BoardQueryPayload, opponents bool) {
	m, ok := s.matches.Get(p.RoomID)
	if !ok {
		return
	}

	target := p.PlayerID
	eventType := EvOwnBoard
	if opponents {
		opponent, ok := m.Opponent(p.PlayerID)
		if !ok {
			return
		}
		target = opponent
		eventType = EvOpponentsBoard
	}

	hits, misses, ok := m.BoardSnapshot(target)
	if !ok {
		return
	}
	s.hub.SendTo(p.PlayerID, eventType, BoardPayload{Hits: hits, Misses: misses})
}

func (s *GameServer) handleLeaveGame(p LeaveGamePayload) {
	s.departMatch(p.RoomID, p.PlayerID)
}

// departMatch handles an explicit leave or a connection drop: forfeit if the
// game was running, a cancellation notice if it never started.
func (s *GameServer) departMatch(roomID string, playerID int64) {
	m, ok := s.matches.Get(roomID)
	if !ok {
		return
	}

	dep := m.RemovePlayer(playerID)
	s.hub.LeaveRoom(roomID, playerID)

	switch {
	case dep.Forfeit:
		s.finishMatch(roomID, dep.Winner, playerID, "Opponent left - ")
	case dep.Cancelled:
		s.hub.SendTo(dep.Opponent, EvGameCancelled, GameCancelledPayload{
			Message: "Opponent left before the game started - No winner",
		})
		matchesFinished.WithLabelValues("cancelled").Inc()
	case dep.Empty:
		s.matches.Destroy(roomID)
		s.hub.DropRoom(roomID)
		matchesActive.Set(float64(s.matches.Len()))
	}
}

// finishMatch emits game_over, records history, and destroys the session.
func (s *GameServer) finishMatch(roomID string, winnerID, loserID int64, messagePrefix string) {
	forfeit := messagePrefix != ""
	s.hub.BroadcastRoom(roomID, EvGameOver, GameOverPayload{
		Winner:   s.lookupUsername(winnerID),
		WinnerID: winnerID,
		Message:  messagePrefix,
	})

	s.matches.Destroy(roomID)
	s.hub.DropRoom(roomID)
	matchesActive.Set(float64(s.matches.Len()))
	if forfeit {
		matchesFinished.WithLabelValues("forfeit").Inc()
	} else {
		matchesFinished.WithLabelValues("win").Inc()
	}
	logger.Info("match finished", "room_id", roomID, "winner", winnerID, "forfeit", forfeit)

	if s.history == nil {
		return
	}
	rec := &domain.MatchRecord{
		RoomID:   roomID,
		WinnerID: winnerID,
		LoserID:  loserID,
		Forfeit:  forfeit,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.history.Create(ctx, rec); err != nil {
			logger.Error("record match", "room_id", roomID, "error", err)
		}
	}()
}

func (s *GameServer) lookupUsername(userID int64) string {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("user lookup failed", "user_id", userID, "error", err)
		return ""
	}
	return u.Username
}
