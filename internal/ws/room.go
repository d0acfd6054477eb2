package ws

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"game_lounge/internal/domain"
	"game_lounge/internal/game"
	"game_lounge/internal/logger"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomFinished   = errors.New("room is finished")
	ErrNotInRoom      = errors.New("player is not in this room")
	ErrAlreadyInRoom  = errors.New("player is already in a room")
	ErrNotStarted     = errors.New("game has not started")
	ErrAlreadyStarted = errors.New("game has already started")
	ErrNotCreator     = errors.New("only the room creator can start the game")
	ErrNotEnough      = errors.New("not enough players to start")
	ErrBusy           = errors.New("room is busy")
)

type cmdKind int

const (
	cmdJoin cmdKind = iota
	cmdLeave
	cmdStart
	cmdAction
	cmdSnapshot
)

type roomCmd struct {
	kind     cmdKind
	playerID string
	action   game.Action
	reply    chan roomResult
}

type roomResult struct {
	err   error
	room  *domain.Room
	state *game.State // redacted for the requesting player
}

// Room is the single serialization point for one session. All mutable
// state below the channel is owned by the Run goroutine; nothing else
// reads or writes it. Commands are applied in strict arrival order and
// each one either fully applies or leaves the state untouched.
type Room struct {
	ID        string
	Name      string
	CreatorID string
	GameType  game.Type

	engine    game.Engine
	hub       *Hub
	createdAt time.Time

	inbound chan roomCmd
	quit    chan struct{}

	// actor-owned
	status  domain.RoomStatus
	players []string
	state   *game.State
	log     []domain.ActionRecord

	lastActive atomic.Int64 // unix nanos, readable by the hub reaper
}

func newRoom(id, name, creatorID string, engine game.Engine, hub *Hub) *Room {
	r := &Room{
		ID:        id,
		Name:      name,
		CreatorID: creatorID,
		GameType:  engine.Type(),
		engine:    engine,
		hub:       hub,
		createdAt: time.Now(),
		inbound:   make(chan roomCmd, 32),
		quit:      make(chan struct{}),
		status:    domain.RoomPending,
		players:   []string{creatorID},
	}
	r.touch()
	return r
}

func (r *Room) touch() {
	r.lastActive.Store(time.Now().UnixNano())
}

func (r *Room) idleSince() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

func (r *Room) Run() {
	logger.Info("room started", "room", r.ID, "game", r.GameType)

	for {
		select {
		case cmd := <-r.inbound:
			r.handle(cmd)
		case <-r.quit:
			logger.Info("room stopped", "room", r.ID)
			return
		}
	}
}

func (r *Room) Stop() {
	close(r.quit)
}

func (r *Room) handle(cmd roomCmd) {
	switch cmd.kind {
	case cmdJoin:
		cmd.reply <- r.handleJoin(cmd.playerID)
	case cmdLeave:
		cmd.reply <- r.handleLeave(cmd.playerID)
	case cmdStart:
		cmd.reply <- r.handleStart(cmd.playerID)
	case cmdAction:
		cmd.reply <- r.handleAction(cmd.playerID, cmd.action)
	case cmdSnapshot:
		cmd.reply <- roomResult{room: r.snapshot(), state: r.redactedFor(cmd.playerID)}
	}
}

// ---- public API (any goroutine) ----

func (r *Room) Join(playerID string) (*domain.Room, error) {
	res := r.send(roomCmd{kind: cmdJoin, playerID: playerID})
	return res.room, res.err
}

func (r *Room) Leave(playerID string) error {
	return r.send(roomCmd{kind: cmdLeave, playerID: playerID}).err
}

func (r *Room) Start(playerID string) (*game.State, error) {
	res := r.send(roomCmd{kind: cmdStart, playerID: playerID})
	return res.state, res.err
}

func (r *Room) SubmitAction(playerID string, action game.Action) (*game.State, error) {
	res := r.send(roomCmd{kind: cmdAction, playerID: playerID, action: action})
	return res.state, res.err
}

func (r *Room) Snapshot(viewerID string) (*domain.Room, *game.State) {
	res := r.send(roomCmd{kind: cmdSnapshot, playerID: viewerID})
	return res.room, res.state
}

func (r *Room) send(cmd roomCmd) roomResult {
	cmd.reply = make(chan roomResult, 1)
	select {
	case r.inbound <- cmd:
	case <-r.quit:
		return roomResult{err: ErrRoomNotFound}
	case <-time.After(5 * time.Second):
		return roomResult{err: ErrBusy}
	}
	select {
	case res := <-cmd.reply:
		return res
	case <-r.quit:
		return roomResult{err: ErrRoomNotFound}
	}
}

// ---- actor-side handlers ----

func (r *Room) handleJoin(playerID string) roomResult {
	if r.isPlayer(playerID) {
		// Rejoining is a no-op; presence handles reconnects.
		return roomResult{room: r.snapshot()}
	}

	switch r.status {
	case domain.RoomFinished:
		return roomResult{err: ErrRoomFinished}
	case domain.RoomInProgress:
		return roomResult{err: ErrAlreadyStarted}
	}
	if len(r.players) >= r.engine.MaxPlayers() {
		return roomResult{err: ErrRoomFull}
	}

	r.players = append(r.players, playerID)
	r.touch()
	r.hub.setUserRoom(playerID, r.ID)

	go r.hub.persistPlayers(r.ID, append([]string(nil), r.players...))

	r.broadcast(Message{Type: MsgPlayerJoined, Payload: PlayerJoinedPayload{
		RoomID: r.ID,
		UserID: playerID,
	}})

	return roomResult{room: r.snapshot()}
}

func (r *Room) handleLeave(playerID string) roomResult {
	if !r.isPlayer(playerID) {
		return roomResult{err: ErrNotInRoom}
	}

	// Leaving a running game is a resignation.
	if r.status == domain.RoomInProgress {
		if res := r.handleAction(playerID, game.Action{Type: game.ActionResign}); res.err != nil {
			return res
		}
	}

	for i, id := range r.players {
		if id == playerID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	r.hub.clearUserRoom(playerID, r.ID)
	r.touch()

	r.broadcast(Message{Type: MsgPlayerLeft, Payload: PlayerLeftPayload{
		RoomID: r.ID,
		UserID: playerID,
	}})

	return roomResult{room: r.snapshot()}
}

func (r *Room) handleStart(playerID string) roomResult {
	if r.status == domain.RoomFinished {
		return roomResult{err: ErrRoomFinished}
	}
	if r.status == domain.RoomInProgress {
		return roomResult{err: ErrAlreadyStarted}
	}
	if playerID != r.CreatorID {
		return roomResult{err: ErrNotCreator}
	}
	if len(r.players) < r.engine.MinPlayers() {
		return roomResult{err: ErrNotEnough}
	}

	state, err := r.engine.Init(r.players)
	if err != nil {
		return roomResult{err: err}
	}

	r.state = state
	r.status = domain.RoomInProgress
	r.touch()

	go r.hub.persistStatus(r.ID, domain.RoomInProgress)
	r.cacheState()

	r.broadcastState()

	return roomResult{state: r.redactedFor(playerID)}
}

func (r *Room) handleAction(playerID string, action game.Action) roomResult {
	if !r.isPlayer(playerID) {
		return roomResult{err: ErrNotInRoom}
	}
	switch r.status {
	case domain.RoomPending:
		return roomResult{err: ErrNotStarted}
	case domain.RoomFinished:
		return roomResult{err: game.Finished()}
	}

	newState, err := r.engine.Apply(r.state, playerID, action)
	if err != nil {
		// Rejections stay private to the submitter and never mutate state.
		return roomResult{err: err}
	}

	r.state = newState
	r.touch()

	rec := domain.ActionRecord{
		Seq:      len(r.log) + 1,
		RoomID:   r.ID,
		PlayerID: playerID,
		Type:     action.Type,
		Payload:  action.Payload,
		At:       time.Now(),
	}
	r.log = append(r.log, rec)

	go r.hub.persistAction(rec)
	r.cacheState()

	r.broadcast(Message{Type: MsgMoveMade, Payload: MoveMadePayload{
		RoomID:   r.ID,
		PlayerID: playerID,
		Action:   action,
	}})
	r.broadcastState()

	if r.state.Finished {
		r.finish()
	}

	return roomResult{state: r.redactedFor(playerID)}
}

func (r *Room) finish() {
	r.status = domain.RoomFinished

	for _, pid := range r.players {
		r.hub.Presence.Send(pid, Message{Type: MsgGameOver, Payload: GameOverPayload{
			RoomID:    r.ID,
			WinnerID:  r.state.Meta.Winner,
			Result:    r.state.Meta.Result,
			GameState: r.engine.Redact(r.state, pid),
		}})
	}

	match := &domain.Match{
		RoomID:    r.ID,
		GameType:  string(r.GameType),
		PlayerIDs: append([]string(nil), r.state.PlayerIDs...),
		WinnerID:  r.state.Meta.Winner,
		Result:    r.state.Meta.Result,
		Turns:     r.state.Turn,
	}
	go r.hub.persistMatch(match)
	go r.hub.persistStatus(r.ID, domain.RoomFinished)

	logger.Info("game over", "room", r.ID, "result", r.state.Meta.Result)
}

// ---- helpers (actor goroutine only) ----

func (r *Room) isPlayer(playerID string) bool {
	for _, id := range r.players {
		if id == playerID {
			return true
		}
	}
	return false
}

func (r *Room) snapshot() *domain.Room {
	return &domain.Room{
		ID:        r.ID,
		Name:      r.Name,
		CreatorID: r.CreatorID,
		GameType:  string(r.GameType),
		Status:    r.status,
		PlayerIDs: append([]string(nil), r.players...),
		CreatedAt: r.createdAt,
	}
}

func (r *Room) redactedFor(viewerID string) *game.State {
	if r.state == nil {
		return nil
	}
	return r.engine.Redact(r.state, viewerID)
}

// broadcast fans a message out to every member, in application order:
// messages for action N are queued on every connection before action
// N+1 is even read from the inbound channel.
func (r *Room) broadcast(msg Message) {
	for _, pid := range r.players {
		r.hub.Presence.Send(pid, msg)
	}
}

// broadcastState sends each member their own redacted view.
func (r *Room) broadcastState() {
	for _, pid := range r.players {
		r.hub.Presence.Send(pid, Message{Type: MsgGameUpdate, Payload: GameUpdatePayload{
			RoomID:    r.ID,
			GameState: r.engine.Redact(r.state, pid),
		}})
	}
}

func (r *Room) cacheState() {
	if r.hub.Cache == nil || r.state == nil {
		return
	}
	state := r.state // actor-owned; the cache goroutine gets a marshal-only copy
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.hub.Cache.SaveState(ctx, r.ID, state); err != nil {
			logger.Warn("state cache write failed", "room", r.ID, "error", err)
		}
	}()
}
