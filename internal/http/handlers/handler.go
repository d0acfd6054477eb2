package handlers

import (
	"strings"

	"game_lounge/internal/repository"
	"game_lounge/internal/service"
	"game_lounge/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB        *pgxpool.Pool
	Hub       *ws.Hub
	RoomRepo  *repository.RoomRepository
	MatchRepo *repository.MatchRepository
	ActionLog *repository.ActionLogRepository
}

func NewHandler(db *pgxpool.Pool, hub *ws.Hub) *Handler {
	return &Handler{
		DB:        db,
		Hub:       hub,
		RoomRepo:  repository.NewRoomRepository(db),
		MatchRepo: repository.NewMatchRepository(db),
		ActionLog: repository.NewActionLogRepository(db),
	}
}

// optionalUserID разбирает Bearer-токен, если он есть
func optionalUserID(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return ""
	}
	uid, err := service.ParseJWT(token)
	if err != nil {
		return ""
	}
	return uid
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c *gin.Context) (string, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	uid, ok := uidVal.(string)
	if !ok || uid == "" {
		return "", false
	}
	return uid, true
}
