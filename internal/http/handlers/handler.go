package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"battleship_server/internal/repository"
)

type Handler struct {
	DB        *pgxpool.Pool
	Users     *repository.UserRepository
	Matches   *repository.MatchRepository
	AppSecret string
}

func NewHandler(db *pgxpool.Pool, appSecret string) *Handler {
	return &Handler{
		DB:        db,
		Users:     repository.NewUserRepository(db),
		Matches:   repository.NewMatchRepository(db),
		AppSecret: appSecret,
	}
}

// getUserID pulls the authenticated user id set by the JWT middleware.
func getUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch id := v.(type) {
	case int64:
		return id, true
	case float64:
		return int64(id), true
	default:
		return 0, false
	}
}
