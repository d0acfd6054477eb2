package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"game_lounge/internal/domain"
	"game_lounge/internal/game"
	"game_lounge/internal/logger"

	"github.com/google/uuid"
)

// Stores the hub persists through. Persistence is write-behind: the
// in-memory room actor is the source of truth while a session runs.
type RoomStore interface {
	Create(ctx context.Context, room *domain.Room) error
	UpdateStatus(ctx context.Context, id string, status domain.RoomStatus) error
	UpdatePlayers(ctx context.Context, id string, playerIDs []string) error
	List(ctx context.Context, status string, limit int) ([]*domain.Room, error)
}

type MatchStore interface {
	Create(ctx context.Context, match *domain.Match) error
}

type ActionStore interface {
	Append(ctx context.Context, rec domain.ActionRecord) error
}

type StateCache interface {
	SaveState(ctx context.Context, roomID string, state *game.State) error
	LoadState(ctx context.Context, roomID string) (*game.State, error)
	DeleteState(ctx context.Context, roomID string) error
}

// Hub owns the live room registry. It never touches game state itself:
// every game mutation goes through the owning room's goroutine.
type Hub struct {
	Presence *Presence
	Cache    StateCache

	registry *game.Registry
	rooms    sync.Map // roomID -> *Room

	mu       sync.Mutex
	userRoom map[string]string // userID -> roomID, at most one room per player

	roomRepo   RoomStore
	matchRepo  MatchStore
	actionRepo ActionStore

	idleTTL time.Duration
}

func NewHub(registry *game.Registry, roomRepo RoomStore, matchRepo MatchStore, actionRepo ActionStore, cache StateCache, idleTTL time.Duration) *Hub {
	return &Hub{
		Presence:   NewPresence(),
		Cache:      cache,
		registry:   registry,
		userRoom:   make(map[string]string),
		roomRepo:   roomRepo,
		matchRepo:  matchRepo,
		actionRepo: actionRepo,
		idleTTL:    idleTTL,
	}
}

// CreateRoom makes a new room with the creator as its first member and
// starts its goroutine.
func (h *Hub) CreateRoom(name, creatorID string, gameType game.Type) (*domain.Room, error) {
	engine, err := h.registry.Get(gameType)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if _, busy := h.userRoom[creatorID]; busy {
		h.mu.Unlock()
		return nil, ErrAlreadyInRoom
	}
	id := uuid.NewString()
	h.userRoom[creatorID] = id
	h.mu.Unlock()

	room := newRoom(id, name, creatorID, engine, h)
	snap := room.snapshot() // room not published yet, no concurrent access

	h.rooms.Store(id, room)
	go room.Run()

	metricActiveRooms.Inc()
	go h.persistRoom(snap)

	logger.Info("room created", "room", id, "game", gameType, "creator", creatorID)
	return snap, nil
}

func (h *Hub) GetRoom(id string) (*Room, error) {
	v, ok := h.rooms.Load(id)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return v.(*Room), nil
}

// Rooms returns a stable snapshot of live rooms.
func (h *Hub) Rooms() []*domain.Room {
	var out []*domain.Room
	h.rooms.Range(func(_, v any) bool {
		snap, _ := v.(*Room).Snapshot("")
		if snap != nil {
			out = append(out, snap)
		}
		return true
	})
	return out
}

func (h *Hub) GameTypes() []game.Type {
	return h.registry.Types()
}

// UserRoom reports which room a player currently sits in, if any.
func (h *Hub) UserRoom(userID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id, ok := h.userRoom[userID]
	return id, ok
}

// JoinRoom enforces the one-room-per-player rule before handing off to
// the room itself.
func (h *Hub) JoinRoom(roomID, userID string) (*domain.Room, error) {
	room, err := h.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if cur, busy := h.userRoom[userID]; busy && cur != roomID {
		h.mu.Unlock()
		return nil, ErrAlreadyInRoom
	}
	h.mu.Unlock()

	return room.Join(userID)
}

func (h *Hub) setUserRoom(userID, roomID string) {
	h.mu.Lock()
	h.userRoom[userID] = roomID
	h.mu.Unlock()
}

func (h *Hub) clearUserRoom(userID, roomID string) {
	h.mu.Lock()
	if h.userRoom[userID] == roomID {
		delete(h.userRoom, userID)
	}
	h.mu.Unlock()
}

// RemoveRoom tears the room down and releases its members.
func (h *Hub) RemoveRoom(id string) {
	v, ok := h.rooms.LoadAndDelete(id)
	if !ok {
		return
	}
	room := v.(*Room)

	snap, _ := room.Snapshot("")
	room.Stop()
	metricActiveRooms.Dec()

	if snap != nil {
		h.mu.Lock()
		for _, pid := range snap.PlayerIDs {
			if h.userRoom[pid] == id {
				delete(h.userRoom, pid)
			}
		}
		h.mu.Unlock()
	}

	if h.Cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.Cache.DeleteState(ctx, id); err != nil {
			logger.Warn("state cache delete failed", "room", id, "error", err)
		}
	}
}

// Rehydrate rebuilds live rooms from storage after a restart. Pending
// rooms come back as-is; running games get their state from the
// snapshot cache, so the action log is never replayed.
func (h *Hub) Rehydrate(ctx context.Context) {
	if h.roomRepo == nil {
		return
	}
	for _, status := range []domain.RoomStatus{domain.RoomPending, domain.RoomInProgress} {
		rooms, err := h.roomRepo.List(ctx, string(status), 0)
		if err != nil {
			logger.Error("rehydrate: room list failed", "status", status, "error", err)
			continue
		}
		for _, snap := range rooms {
			h.rehydrateRoom(ctx, snap)
		}
	}
}

func (h *Hub) rehydrateRoom(ctx context.Context, snap *domain.Room) {
	if _, ok := h.rooms.Load(snap.ID); ok {
		return
	}
	engine, err := h.registry.Get(game.Type(snap.GameType))
	if err != nil {
		logger.Warn("rehydrate: unknown game type, skipping", "room", snap.ID, "game", snap.GameType)
		return
	}

	var state *game.State
	if snap.Status == domain.RoomInProgress {
		if h.Cache == nil {
			logger.Warn("rehydrate: no state cache, skipping running room", "room", snap.ID)
			return
		}
		state, err = h.Cache.LoadState(ctx, snap.ID)
		if err != nil {
			logger.Warn("rehydrate: state load failed, skipping", "room", snap.ID, "error", err)
			return
		}
	}

	room := newRoom(snap.ID, snap.Name, snap.CreatorID, engine, h)
	room.status = snap.Status
	room.players = append([]string(nil), snap.PlayerIDs...)
	room.state = state

	h.mu.Lock()
	for _, pid := range room.players {
		if _, busy := h.userRoom[pid]; !busy {
			h.userRoom[pid] = snap.ID
		}
	}
	h.mu.Unlock()

	h.rooms.Store(snap.ID, room)
	go room.Run()
	metricActiveRooms.Inc()

	logger.Info("room rehydrated", "room", snap.ID, "status", snap.Status)
}

// StartCleanup reaps rooms idle past the TTL. Finished rooms stay
// around briefly so late clients can still fetch the final state.
func (h *Hub) StartCleanup(ctx context.Context) {
	if h.idleTTL <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(h.idleTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.reapIdle()
			}
		}
	}()
}

func (h *Hub) reapIdle() {
	cutoff := time.Now().Add(-h.idleTTL)
	var stale []string
	h.rooms.Range(func(k, v any) bool {
		room := v.(*Room)
		snap, _ := room.Snapshot("")
		if snap == nil {
			stale = append(stale, k.(string))
			return true
		}
		// Snapshot went through the actor, so lastActive is settled
		// relative to everything before this call.
		if room.idleSince().Before(cutoff) {
			stale = append(stale, k.(string))
		}
		return true
	})
	for _, id := range stale {
		logger.Info("reaping idle room", "room", id)
		h.RemoveRoom(id)
	}
}

// OnOffline is called when a player's last connection drops. Presence
// flips to offline; room membership and turn order stay as they are so
// the player can reconnect into the same seat.
func (h *Hub) OnOffline(userID string) {
	if roomID, ok := h.UserRoom(userID); ok {
		logger.Info("player offline", "user", userID, "room", roomID)
	}
}

// PushSnapshot sends a freshly connected client the current state of
// its room, if it has one. Redacted per viewer; the action log is never
// replayed to clients.
func (h *Hub) PushSnapshot(c *Client) {
	roomID, ok := h.UserRoom(c.UserID)
	if !ok {
		return
	}
	room, err := h.GetRoom(roomID)
	if err != nil {
		return
	}
	_, state := room.Snapshot(c.UserID)
	if state == nil {
		return
	}
	h.Presence.Send(c.UserID, Message{Type: MsgGameUpdate, Payload: GameUpdatePayload{
		RoomID:    roomID,
		GameState: state,
	}})
}

// Dispatch routes one inbound frame. Bad frames and rejected actions
// are answered privately on the same connection; other members never
// see them.
func (h *Hub) Dispatch(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.sendError(c, "malformed_payload", "invalid message frame")
		return
	}

	switch env.Type {
	case MsgGameAction:
		h.dispatchAction(c, env.Payload)
	case MsgChatMessage:
		h.dispatchChat(c, env.Payload)
	default:
		h.sendError(c, "malformed_payload", "unknown message type: "+env.Type)
	}
}

func (h *Hub) dispatchAction(c *Client, raw json.RawMessage) {
	var p GameActionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.sendError(c, "malformed_payload", "invalid game_action payload")
		return
	}

	room, err := h.GetRoom(p.RoomID)
	if err != nil {
		h.sendError(c, "room_not_found", "room not found: "+p.RoomID)
		return
	}
	if p.GameType != "" && p.GameType != string(room.GameType) {
		h.sendError(c, "illegal_action", "game type mismatch")
		return
	}

	metricActions.Inc()
	if _, err := room.SubmitAction(c.UserID, p.Action); err != nil {
		if rej, ok := game.AsRejection(err); ok {
			metricRejections.WithLabelValues(string(rej.Code)).Inc()
			h.sendError(c, string(rej.Code), rej.Reason)
			return
		}
		metricRejections.WithLabelValues("room_error").Inc()
		h.sendError(c, "illegal_action", err.Error())
	}
	// Success is announced by the room broadcast, not a direct reply.
}

// dispatchChat relays a chat line to the sender's room. Messages are
// not stored anywhere.
func (h *Hub) dispatchChat(c *Client, raw json.RawMessage) {
	var p ChatMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.sendError(c, "malformed_payload", "invalid chat_message payload")
		return
	}
	room, err := h.GetRoom(p.RoomID)
	if err != nil {
		h.sendError(c, "room_not_found", "room not found: "+p.RoomID)
		return
	}
	snap, _ := room.Snapshot(c.UserID)
	if snap == nil || !containsID(snap.PlayerIDs, c.UserID) {
		h.sendError(c, "illegal_action", "not a member of this room")
		return
	}
	msg := Message{Type: MsgChatMessage, Payload: ChatBroadcastPayload{
		RoomID: p.RoomID,
		UserID: c.UserID,
		Text:   p.Text,
	}}
	for _, pid := range snap.PlayerIDs {
		h.Presence.Send(pid, msg)
	}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (h *Hub) sendError(c *Client, code, message string) {
	h.Presence.Send(c.UserID, Message{Type: MsgError, Payload: ErrorPayload{
		Code:    code,
		Message: message,
	}})
}

// ---- write-behind persistence ----

func (h *Hub) persistRoom(room *domain.Room) {
	if h.roomRepo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.roomRepo.Create(ctx, room); err != nil {
		logger.Error("room persist failed", "room", room.ID, "error", err)
	}
}

func (h *Hub) persistStatus(roomID string, status domain.RoomStatus) {
	if h.roomRepo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.roomRepo.UpdateStatus(ctx, roomID, status); err != nil {
		logger.Error("room status persist failed", "room", roomID, "error", err)
	}
}

func (h *Hub) persistPlayers(roomID string, playerIDs []string) {
	if h.roomRepo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.roomRepo.UpdatePlayers(ctx, roomID, playerIDs); err != nil {
		logger.Error("room players persist failed", "room", roomID, "error", err)
	}
}

func (h *Hub) persistAction(rec domain.ActionRecord) {
	if h.actionRepo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.actionRepo.Append(ctx, rec); err != nil {
		logger.Error("action persist failed", "room", rec.RoomID, "seq", rec.Seq, "error", err)
	}
}

func (h *Hub) persistMatch(match *domain.Match) {
	if h.matchRepo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.matchRepo.Create(ctx, match); err != nil {
		logger.Error("match persist failed", "room", match.RoomID, "error", err)
	}
}
