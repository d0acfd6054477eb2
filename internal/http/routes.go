package http

import (
	"context"

	"game_lounge/internal/config"
	"game_lounge/internal/game"
	"game_lounge/internal/http/handlers"
	"game_lounge/internal/http/middleware"
	"game_lounge/internal/repository"
	"game_lounge/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, version string) *ws.Hub {
	roomRepo := repository.NewRoomRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	actionRepo := repository.NewActionLogRepository(db)

	var cache ws.StateCache
	if rdb != nil {
		cache = repository.NewRoomCache(rdb, cfg.StateCacheTTL)
	}

	hub := ws.NewHub(game.NewRegistry(), roomRepo, matchRepo, actionRepo, cache, cfg.RoomIdleTTL)
	hub.Rehydrate(context.Background())
	hub.StartCleanup(context.Background())

	h := handlers.NewHandler(db, hub)
	healthHandler := handlers.NewHealthHandler(db, rdb, version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	registerAPIRoutes(v1, h, cfg)

	// WebSocket for room sync
	r.GET("/ws", h.WS)

	return hub
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, cfg *config.Config) {
	// Auth
	api.POST("/auth", middleware.RedisRateLimit(cfg.AuthRateLimit, cfg.AuthRateWindow), h.Auth)

	// Action rate limiter middleware (per user, not per IP)
	actionRL := middleware.ActionRateLimit(cfg.APIRateLimit, cfg.APIRateWindow)

	// Rooms
	api.GET("/rooms", h.ListRooms)
	api.POST("/rooms", middleware.JWT(), h.CreateRoom)
	api.GET("/rooms/:id", h.GetRoom)
	api.POST("/rooms/:id/join", middleware.JWT(), h.JoinRoom)
	api.POST("/rooms/:id/leave", middleware.JWT(), h.LeaveRoom)
	api.POST("/rooms/:id/start", middleware.JWT(), h.StartGame)
	api.POST("/rooms/:id/actions", middleware.JWT(), actionRL, h.SubmitAction)
	api.GET("/rooms/:id/actions", middleware.JWT(), h.GetActions)

	// Match history
	api.GET("/me/matches", middleware.JWT(), h.MyMatches)
}
