package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"battleship_server/internal/domain"
)

type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Create(ctx context.Context, m *domain.MatchRecord) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO matches (room_id, winner_id, loser_id, forfeit)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		m.RoomID,
		m.WinnerID,
		m.LoserID,
		m.Forfeit,
	).Scan(&m.ID, &m.CreatedAt)
}

func (r *MatchRepository) GetByUser(ctx context.Context, userID int64) ([]*domain.MatchRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, room_id, winner_id, loser_id, forfeit, created_at
		 FROM matches
		 WHERE winner_id = $1 OR loser_id = $1
		 ORDER BY created_at DESC
		 LIMIT 100`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.MatchRecord
	for rows.Next() {
		var m domain.MatchRecord
		if err := rows.Scan(&m.ID, &m.RoomID, &m.WinnerID, &m.LoserID, &m.Forfeit, &m.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &m)
	}
	return res, rows.Err()
}
