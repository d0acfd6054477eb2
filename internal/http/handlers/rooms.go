package handlers

import (
	"errors"
	"net/http"

	"game_lounge/internal/game"
	"game_lounge/internal/repository"
	"game_lounge/internal/ws"

	"github.com/gin-gonic/gin"
)

type createRoomRequest struct {
	Name     string `json:"name"`
	GameType string `json:"game_type" binding:"required"`
}

func (h *Handler) CreateRoom(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	name := req.Name
	if name == "" {
		name = req.GameType + " room"
	}

	room, err := h.Hub.CreateRoom(name, userID, game.Type(req.GameType))
	if err != nil {
		writeRoomError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"room": room})
}

func (h *Handler) ListRooms(c *gin.Context) {
	// Live rooms come from the hub; the database only serves history.
	c.JSON(http.StatusOK, gin.H{"rooms": h.Hub.Rooms(), "game_types": h.gameTypes()})
}

func (h *Handler) gameTypes() []string {
	types := h.Hub.GameTypes()
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

func (h *Handler) GetRoom(c *gin.Context) {
	id := c.Param("id")

	if room, err := h.Hub.GetRoom(id); err == nil {
		// Auth is optional here: spectators get the fully redacted view.
		snap, state := room.Snapshot(optionalUserID(c))
		c.JSON(http.StatusOK, gin.H{"room": snap, "game_state": state})
		return
	}

	// Fall back to the database for rooms already reaped.
	room, err := h.RoomRepo.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (h *Handler) JoinRoom(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	room, err := h.Hub.JoinRoom(c.Param("id"), userID)
	if err != nil {
		writeRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (h *Handler) LeaveRoom(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	room, err := h.Hub.GetRoom(c.Param("id"))
	if err != nil {
		writeRoomError(c, err)
		return
	}
	if err := room.Leave(userID); err != nil {
		writeRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "left"})
}

func (h *Handler) StartGame(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	room, err := h.Hub.GetRoom(c.Param("id"))
	if err != nil {
		writeRoomError(c, err)
		return
	}
	state, err := room.Start(userID)
	if err != nil {
		writeRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game_state": state})
}

// SubmitAction - REST-дублёр game_action по вебсокету
func (h *Handler) SubmitAction(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var action game.Action
	if err := c.ShouldBindJSON(&action); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
		return
	}

	room, err := h.Hub.GetRoom(c.Param("id"))
	if err != nil {
		writeRoomError(c, err)
		return
	}
	state, err := room.SubmitAction(userID, action)
	if err != nil {
		writeRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game_state": state})
}

func (h *Handler) GetActions(c *gin.Context) {
	recs, err := h.ActionLog.GetByRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load actions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": recs})
}

func (h *Handler) MyMatches(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	matches, err := h.MatchRepo.GetByUser(c.Request.Context(), userID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load matches"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func writeRoomError(c *gin.Context, err error) {
	if rej, ok := game.AsRejection(err); ok {
		c.JSON(http.StatusConflict, gin.H{"error": rej.Reason, "code": rej.Code})
		return
	}

	switch {
	case errors.Is(err, ws.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ws.ErrRoomFull),
		errors.Is(err, ws.ErrRoomFinished),
		errors.Is(err, ws.ErrAlreadyStarted),
		errors.Is(err, ws.ErrAlreadyInRoom),
		errors.Is(err, ws.ErrNotStarted),
		errors.Is(err, ws.ErrNotEnough):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ws.ErrNotCreator), errors.Is(err, ws.ErrNotInRoom):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrUnknownGame):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
