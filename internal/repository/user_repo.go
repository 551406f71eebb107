package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"battleship_server/internal/domain"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, COALESCE(username, ''), created_at
		 FROM users
		 WHERE id = $1`,
		id,
	)

	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO users (username)
		 VALUES ($1)
		 RETURNING id, created_at`,
		u.Username,
	).Scan(&u.ID, &u.CreatedAt)
}

// LeaderboardRow pairs a user with their match win count.
type LeaderboardRow struct {
	User domain.User `json:"user"`
	Wins int64       `json:"wins"`
}

// GetTopByWins returns users ordered by finished-match wins.
func (r *UserRepository) GetTopByWins(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id, COALESCE(u.username, ''), u.created_at, COALESCE(wc.wins, 0) AS wins
		FROM users u
		LEFT JOIN (
			SELECT winner_id, COUNT(*) AS wins FROM matches GROUP BY winner_id
		) wc ON wc.winner_id = u.id
		ORDER BY wins DESC, u.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.User.ID, &row.User.Username, &row.User.CreatedAt, &row.Wins); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}
