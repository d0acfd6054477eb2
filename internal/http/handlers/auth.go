package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"game_lounge/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type authRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Auth выдаёт JWT. Идентификатор приходит от клиента или генерируется.
func (h *Handler) Auth(c *gin.Context) {
	var req authRequest
	// An empty body is fine: a fresh identity is minted.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = uuid.NewString()
	}
	if len(userID) > 64 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id too long"})
		return
	}

	token, err := service.GenerateJWT(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"user_id": userID,
	})
}
