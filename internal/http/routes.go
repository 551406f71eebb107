package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"battleship_server/internal/config"
	"battleship_server/internal/http/handlers"
	"battleship_server/internal/http/middleware"
	"battleship_server/internal/repository"
	"battleship_server/internal/ws"
)

// RegisterRoutes wires the HTTP surface and returns the game server so the
// caller (and tests) can reach it.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cfg *config.Config, version string) *ws.GameServer {
	h := handlers.NewHandler(db, cfg.AppSecret)
	healthHandler := handlers.NewHealthHandler(db, version)

	// health probes, unthrottled
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))

	v1.POST("/auth", middleware.RedisRateLimit(cfg.AuthRateLimit, cfg.AuthRateWindow), h.Auth)
	v1.GET("/me", middleware.JWT(), h.Me)
	v1.GET("/me/matches", middleware.JWT(), h.MyMatches)
	v1.GET("/profile/:id", h.Profile)
	v1.GET("/leaderboard", h.Leaderboard)

	// the game itself lives on the websocket
	server := ws.NewGameServer(
		repository.NewUserRepository(db),
		repository.NewMatchRepository(db),
	)
	r.GET("/ws", handlers.WS(server, cfg.AllowedOrigin))

	return server
}
