package domain

import "time"

// MatchRecord is the persisted result of a finished match. Only terminal
// outcomes are written; in-flight game state never touches the database.
type MatchRecord struct {
	ID        int64     `db:"id" json:"id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	WinnerID  int64     `db:"winner_id" json:"winner_id"`
	LoserID   int64     `db:"loser_id" json:"loser_id"`
	Forfeit   bool      `db:"forfeit" json:"forfeit"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
