package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"game_lounge/internal/domain"
	"game_lounge/internal/game"

	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	// No database, no cache: persistence is write-behind and optional.
	return NewHub(game.NewRegistry(), nil, nil, nil, nil, 0)
}

func placeMarker(t *testing.T, row, col int) game.Action {
	t.Helper()
	payload, err := json.Marshal(map[string]int{"row": row, "col": col})
	require.NoError(t, err)
	return game.Action{Type: "PLACE_MARKER", Payload: payload}
}

func TestHubCreateRoom(t *testing.T) {
	hub := newTestHub()

	room, err := hub.CreateRoom("test", "alice", game.TypeTicTacToe)
	require.NoError(t, err)
	require.Equal(t, domain.RoomPending, room.Status)
	require.Equal(t, []string{"alice"}, room.PlayerIDs)

	// One room per player.
	_, err = hub.CreateRoom("second", "alice", game.TypeTicTacToe)
	require.ErrorIs(t, err, ErrAlreadyInRoom)

	// Unknown game types never allocate a room.
	_, err = hub.CreateRoom("bad", "bob", game.Type("checkers"))
	require.ErrorIs(t, err, game.ErrUnknownGame)
	_, busy := hub.UserRoom("bob")
	require.False(t, busy)
}

func TestRoomJoinAndStart(t *testing.T) {
	hub := newTestHub()
	created, err := hub.CreateRoom("test", "alice", game.TypeTicTacToe)
	require.NoError(t, err)
	defer hub.RemoveRoom(created.ID)

	room, err := hub.GetRoom(created.ID)
	require.NoError(t, err)

	// Starting without enough players is rejected.
	_, err = room.Start("alice")
	require.ErrorIs(t, err, ErrNotEnough)

	snap, err := hub.JoinRoom(created.ID, "bob")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, snap.PlayerIDs)

	// Room is full for a third player.
	_, err = hub.JoinRoom(created.ID, "carol")
	require.ErrorIs(t, err, ErrRoomFull)

	// Only the creator starts.
	_, err = room.Start("bob")
	require.ErrorIs(t, err, ErrNotCreator)

	state, err := room.Start("alice")
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, "alice", state.CurrentPlayer())

	snap2, _ := room.Snapshot("alice")
	require.Equal(t, domain.RoomInProgress, snap2.Status)

	// No joining a running game.
	_, err = hub.JoinRoom(created.ID, "carol")
	require.ErrorIs(t, err, ErrAlreadyStarted)

	// Starting twice is rejected.
	_, err = room.Start("alice")
	require.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestRoomActionsSerialized(t *testing.T) {
	hub := newTestHub()
	created, err := hub.CreateRoom("test", "alice", game.TypeTicTacToe)
	require.NoError(t, err)
	defer hub.RemoveRoom(created.ID)

	room, err := hub.GetRoom(created.ID)
	require.NoError(t, err)

	// Acting before the game starts is rejected.
	_, err = room.SubmitAction("alice", placeMarker(t, 0, 0))
	require.ErrorIs(t, err, ErrNotStarted)

	_, err = hub.JoinRoom(created.ID, "bob")
	require.NoError(t, err)
	_, err = room.Start("alice")
	require.NoError(t, err)

	state, err := room.SubmitAction("alice", placeMarker(t, 0, 0))
	require.NoError(t, err)
	require.Equal(t, "X", state.TicTacToe.Board[0][0])

	// A rejected action leaves the state untouched.
	_, err = room.SubmitAction("bob", placeMarker(t, 0, 0))
	rej, ok := game.AsRejection(err)
	require.True(t, ok)
	require.Equal(t, game.CodeIllegalAction, rej.Code)

	// Outsiders cannot act at all.
	_, err = room.SubmitAction("mallory", placeMarker(t, 1, 1))
	require.ErrorIs(t, err, ErrNotInRoom)

	_, state = room.Snapshot("bob")
	require.Equal(t, "X", state.TicTacToe.Board[0][0])
	require.Equal(t, "", state.TicTacToe.Board[1][1])
}

func TestRoomFinishOnResign(t *testing.T) {
	hub := newTestHub()
	created, err := hub.CreateRoom("test", "alice", game.TypeTicTacToe)
	require.NoError(t, err)
	defer hub.RemoveRoom(created.ID)

	room, err := hub.GetRoom(created.ID)
	require.NoError(t, err)
	_, err = hub.JoinRoom(created.ID, "bob")
	require.NoError(t, err)
	_, err = room.Start("alice")
	require.NoError(t, err)

	state, err := room.SubmitAction("alice", game.Action{Type: game.ActionResign})
	require.NoError(t, err)
	require.True(t, state.Finished)
	require.Equal(t, "bob", *state.Meta.Winner)

	snap, _ := room.Snapshot("alice")
	require.Equal(t, domain.RoomFinished, snap.Status)

	// Further actions bounce off the finished room.
	_, err = room.SubmitAction("bob", placeMarker(t, 0, 0))
	rej, ok := game.AsRejection(err)
	require.True(t, ok)
	require.Equal(t, game.CodeGameFinished, rej.Code)
}

func TestRoomLeaveResignsRunningGame(t *testing.T) {
	hub := newTestHub()
	created, err := hub.CreateRoom("test", "alice", game.TypeTicTacToe)
	require.NoError(t, err)
	defer hub.RemoveRoom(created.ID)

	room, err := hub.GetRoom(created.ID)
	require.NoError(t, err)
	_, err = hub.JoinRoom(created.ID, "bob")
	require.NoError(t, err)
	_, err = room.Start("alice")
	require.NoError(t, err)

	require.NoError(t, room.Leave("bob"))

	snap, state := room.Snapshot("alice")
	require.Equal(t, domain.RoomFinished, snap.Status)
	require.Equal(t, "alice", *state.Meta.Winner)
	require.NotContains(t, snap.PlayerIDs, "bob")

	// Bob is free to sit elsewhere.
	_, busy := hub.UserRoom("bob")
	require.False(t, busy)
}

func TestHubRemoveRoomReleasesPlayers(t *testing.T) {
	hub := newTestHub()
	created, err := hub.CreateRoom("test", "alice", game.TypeTicTacToe)
	require.NoError(t, err)
	_, err = hub.JoinRoom(created.ID, "bob")
	require.NoError(t, err)

	hub.RemoveRoom(created.ID)

	_, err = hub.GetRoom(created.ID)
	require.ErrorIs(t, err, ErrRoomNotFound)
	_, busy := hub.UserRoom("alice")
	require.False(t, busy)
	_, busy = hub.UserRoom("bob")
	require.False(t, busy)
}

type memRoomStore struct {
	mu    sync.Mutex
	rooms map[string]*domain.Room
}

func newMemRoomStore() *memRoomStore {
	return &memRoomStore{rooms: make(map[string]*domain.Room)}
}

func (s *memRoomStore) Create(_ context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *room
	s.rooms[room.ID] = &cp
	return nil
}

func (s *memRoomStore) UpdateStatus(_ context.Context, id string, status domain.RoomStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		r.Status = status
	}
	return nil
}

func (s *memRoomStore) UpdatePlayers(_ context.Context, id string, playerIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		r.PlayerIDs = append([]string(nil), playerIDs...)
	}
	return nil
}

func (s *memRoomStore) List(_ context.Context, status string, _ int) ([]*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Room
	for _, r := range s.rooms {
		if status == "" || string(r.Status) == status {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memStateCache struct {
	mu     sync.Mutex
	states map[string]*game.State
}

func newMemStateCache() *memStateCache {
	return &memStateCache{states: make(map[string]*game.State)}
}

func (c *memStateCache) SaveState(_ context.Context, roomID string, state *game.State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[roomID] = state.Clone()
	return nil
}

func (c *memStateCache) LoadState(_ context.Context, roomID string) (*game.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.states[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return state.Clone(), nil
}

func (c *memStateCache) DeleteState(_ context.Context, roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, roomID)
	return nil
}

func TestHubRehydrate(t *testing.T) {
	registry := game.NewRegistry()
	store := newMemRoomStore()
	cache := newMemStateCache()

	// A running game: alice has taken the corner, bob to move.
	engine, err := registry.Get(game.TypeTicTacToe)
	require.NoError(t, err)
	state, err := engine.Init([]string{"alice", "bob"})
	require.NoError(t, err)
	state, err = engine.Apply(state, "alice", placeMarker(t, 0, 0))
	require.NoError(t, err)

	require.NoError(t, store.Create(context.Background(), &domain.Room{
		ID: "running", Name: "running", CreatorID: "alice",
		GameType: string(game.TypeTicTacToe), Status: domain.RoomInProgress,
		PlayerIDs: []string{"alice", "bob"},
	}))
	require.NoError(t, cache.SaveState(context.Background(), "running", state))

	// A lobby still waiting for players.
	require.NoError(t, store.Create(context.Background(), &domain.Room{
		ID: "lobby", Name: "lobby", CreatorID: "carol",
		GameType: string(game.TypeTicTacToe), Status: domain.RoomPending,
		PlayerIDs: []string{"carol"},
	}))

	hub := NewHub(registry, store, nil, nil, cache, 0)
	hub.Rehydrate(context.Background())

	// The running game resumes where it left off.
	room, err := hub.GetRoom("running")
	require.NoError(t, err)
	snap, view := room.Snapshot("alice")
	require.Equal(t, domain.RoomInProgress, snap.Status)
	require.Equal(t, "X", view.TicTacToe.Board[0][0])
	require.Equal(t, "bob", view.CurrentPlayer())

	next, err := room.SubmitAction("bob", placeMarker(t, 1, 1))
	require.NoError(t, err)
	require.Equal(t, "O", next.TicTacToe.Board[1][1])

	// Seats are reclaimed, so nobody can sit in a second room.
	id, busy := hub.UserRoom("alice")
	require.True(t, busy)
	require.Equal(t, "running", id)
	_, err = hub.CreateRoom("again", "bob", game.TypeTicTacToe)
	require.ErrorIs(t, err, ErrAlreadyInRoom)

	// The pending lobby is joinable again.
	lobby, err := hub.GetRoom("lobby")
	require.NoError(t, err)
	joined, err := hub.JoinRoom("lobby", "dave")
	require.NoError(t, err)
	require.Equal(t, []string{"carol", "dave"}, joined.PlayerIDs)
	_, err = lobby.Start("carol")
	require.NoError(t, err)

	hub.RemoveRoom("running")
	hub.RemoveRoom("lobby")
}

func TestHubRehydrateSkipsRunningRoomWithoutState(t *testing.T) {
	store := newMemRoomStore()
	require.NoError(t, store.Create(context.Background(), &domain.Room{
		ID: "ghost", CreatorID: "alice",
		GameType: string(game.TypeTicTacToe), Status: domain.RoomInProgress,
		PlayerIDs: []string{"alice", "bob"},
	}))

	hub := NewHub(game.NewRegistry(), store, nil, nil, newMemStateCache(), 0)
	hub.Rehydrate(context.Background())

	// No cached snapshot means the room cannot resume.
	_, err := hub.GetRoom("ghost")
	require.ErrorIs(t, err, ErrRoomNotFound)
	_, busy := hub.UserRoom("alice")
	require.False(t, busy)
}

func TestLandsRoomRedactsPerViewer(t *testing.T) {
	hub := newTestHub()
	created, err := hub.CreateRoom("cards", "alice", game.TypeLands)
	require.NoError(t, err)
	defer hub.RemoveRoom(created.ID)

	room, err := hub.GetRoom(created.ID)
	require.NoError(t, err)
	_, err = hub.JoinRoom(created.ID, "bob")
	require.NoError(t, err)
	_, err = room.Start("alice")
	require.NoError(t, err)

	_, aliceView := room.Snapshot("alice")
	require.False(t, aliceView.Lands.Private["alice"].Hidden)
	require.True(t, aliceView.Lands.Private["bob"].Hidden)
	require.Equal(t, 5, aliceView.Lands.Private["bob"].HandCount)

	_, bobView := room.Snapshot("bob")
	require.True(t, bobView.Lands.Private["alice"].Hidden)
	require.False(t, bobView.Lands.Private["bob"].Hidden)
}
