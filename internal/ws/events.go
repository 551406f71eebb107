package ws

import (
	"encoding/json"

	"battleship_server/internal/game"
)

// Message is the inbound envelope: a type for routing plus the raw payload,
// decoded by the handler that knows its shape.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is the outbound envelope.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// client → server
const (
	EvJoinLobby          = "join_pvp_lobby"
	EvLeaveLobby         = "leave_pvp_lobby"
	EvRequestLobbyUpdate = "request_lobby_update"
	EvRequestChallenge   = "request_challenge"
	EvAcceptChallenge    = "accept_challenge"
	EvCancelChallenge    = "cancel_challenge"
	EvRejectChallenge    = "reject_challenge"
	EvPlayerReady        = "player_ready"
	EvResetShips         = "reset_ships"
	EvShotCalled         = "shot_called"
	EvRejoinGameRoom     = "rejoin_game_room"
	EvGetOwnBoard        = "get_current_users_board"
	EvGetOpponentsBoard  = "get_opponents_board"
	EvLeaveGame          = "leave_game"
)

// server → client
const (
	EvUpdateLobby          = "update_lobby"
	EvChallengeReceived    = "challenge_received"
	EvChallengeUnavailable = "challenge_unavailable"
	EvChallengeCanceled    = "challenge_canceled"
	EvChallengeRejected    = "challenge_rejected"
	EvRoomReady            = "room_ready"
	EvChallengeAccepted    = "challenge_accepted"
	EvOpponentReady        = "opponent_ready"
	EvAllPlayersReady      = "all_players_ready"
	EvOpponentReset        = "opponent_reset"
	EvShotHit              = "shot_hit"
	EvShotMiss             = "shot_miss"
	EvShipSunk             = "ship_sunk"
	EvGameOver             = "game_over"
	EvGameCancelled        = "game_cancelled"
	EvRejoinedGameRoom     = "rejoined_game_room"
	EvOwnBoard             = "current_users_board"
	EvOpponentsBoard       = "opponents_board"
)

type JoinLobbyPayload struct {
	UserID int64 `json:"userId"`
}

type LeaveLobbyPayload struct {
	UserID int64 `json:"userId"`
}

type ChallengePayload struct {
	ChallengerUserID int64 `json:"challengerUserId"`
	ChallengedUserID int64 `json:"challengedUserId"`
}

type PlayerReadyPayload struct {
	PlayerID int64       `json:"playerId"`
	RoomID   string      `json:"roomId"`
	Ships    []game.Ship `json:"ships"`
}

type ResetShipsPayload struct {
	PlayerID int64  `json:"playerId"`
	RoomID   string `json:"roomId"`
}

type ShotCalledPayload struct {
	Square          game.Square `json:"square"`
	RoomID          string      `json:"roomId"`
	CurrentPlayerID int64       `json:"currentPlayerId"`
}

type RejoinGameRoomPayload struct {
	UserID int64  `json:"userId"`
	RoomID string `json:"roomId"`
}

type BoardQueryPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID int64  `json:"playerId"`
}

type LeaveGamePayload struct {
	RoomID      string `json:"roomId"`
	PlayerID    int64  `json:"playerId"`
	CurrentRoom string `json:"currentRoom"`
}

// LobbyEntry is one user's row in the lobby broadcast.
type LobbyEntry struct {
	UserID           int64  `json:"userId"`
	Username         string `json:"username"`
	PendingChallenge bool   `json:"pendingChallenge"`
}

type UpdateLobbyPayload struct {
	Entries []LobbyEntry `json:"entries"`
}

type ChallengeReceivedPayload struct {
	ChallengerUserID   int64  `json:"challengerUserId"`
	ChallengerUsername string `json:"challengerUsername"`
}

type ChallengeUnavailablePayload struct {
	Message string `json:"message"`
}

type ChallengeCanceledPayload struct {
	ChallengerUserID int64  `json:"challengerUserId"`
	Message          string `json:"message"`
}

type ChallengeRejectedPayload struct {
	ChallengedUserID int64  `json:"challengedUserId"`
	Message          string `json:"message"`
}

type RoomReadyPayload struct {
	RoomID string `json:"roomId"`
}

type OpponentReadyPayload struct {
	Username string `json:"username"`
}

type AllPlayersReadyPayload struct {
	RoomID            string `json:"roomId"`
	CurrentPlayerTurn int64  `json:"currentPlayerTurn"`
}

type OpponentResetPayload struct {
	PlayerID int64 `json:"playerId"`
}

type ShotResultPayload struct {
	Square            game.Square `json:"square"`
	CurrentPlayerTurn int64       `json:"currentPlayerTurn"`
}

type ShipSunkPayload struct {
	Square            game.Square `json:"square"`
	CurrentPlayerTurn int64       `json:"currentPlayerTurn"`
	Ship              game.Ship   `json:"ship"`
}

type GameOverPayload struct {
	Winner   string `json:"winner"`
	WinnerID int64  `json:"winnerId"`
	Message  string `json:"message"`
}

type GameCancelledPayload struct {
	Message string `json:"message"`
}

type RejoinedGameRoomPayload struct {
	CurrentTurn int64 `json:"currentTurn"`
}

type BoardPayload struct {
	Hits   []game.Square `json:"hits"`
	Misses []game.Square `json:"misses"`
}
