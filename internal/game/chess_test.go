package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func chessMove(t *testing.T, move string) Action {
	t.Helper()
	payload, err := json.Marshal(chessMovePayload{Move: move})
	require.NoError(t, err)
	return Action{Type: "MAKE_MOVE", Payload: payload}
}

func TestChessInit(t *testing.T) {
	g := NewChess()

	state, err := g.Init([]string{"alice", "bob"})
	require.NoError(t, err)
	require.Equal(t, "white", state.Meta.Symbols["alice"])
	require.Equal(t, "black", state.Meta.Symbols["bob"])
	require.Equal(t, startingFEN, state.Chess.FEN)
	require.Empty(t, state.Chess.Moves)
}

func TestChessLegalMove(t *testing.T) {
	g := NewChess()
	state, err := g.Init([]string{"alice", "bob"})
	require.NoError(t, err)

	state, err = g.Apply(state, "alice", chessMove(t, "e2e4"))
	require.NoError(t, err)
	require.Equal(t, []string{"e2e4"}, state.Chess.Moves)
	require.NotEqual(t, startingFEN, state.Chess.FEN)
	require.Equal(t, "bob", state.CurrentPlayer())
	require.Equal(t, 2, state.Turn)
}

func TestChessRejections(t *testing.T) {
	g := NewChess()
	state, err := g.Init([]string{"alice", "bob"})
	require.NoError(t, err)

	_, err = g.Apply(state, "bob", chessMove(t, "e7e5"))
	rej, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, CodeNotYourTurn, rej.Code)

	// moving a piece that isn't there
	_, err = g.Apply(state, "alice", chessMove(t, "e3e4"))
	rej, ok = AsRejection(err)
	require.True(t, ok)
	require.Equal(t, CodeIllegalAction, rej.Code)

	// garbage notation
	_, err = g.Apply(state, "alice", chessMove(t, "castle!"))
	rej, ok = AsRejection(err)
	require.True(t, ok)
	require.Equal(t, CodeMalformedPayload, rej.Code)
}

func TestChessFoolsMate(t *testing.T) {
	g := NewChess()
	state, err := g.Init([]string{"alice", "bob"})
	require.NoError(t, err)

	moves := []struct {
		player string
		move   string
	}{
		{"alice", "f2f3"},
		{"bob", "e7e5"},
		{"alice", "g2g4"},
		{"bob", "d8h4"},
	}
	for _, m := range moves {
		state, err = g.Apply(state, m.player, chessMove(t, m.move))
		require.NoError(t, err)
	}

	require.True(t, state.Finished)
	require.Equal(t, "bob", *state.Meta.Winner)
	require.Equal(t, "black_wins", state.Meta.Result)
	require.Equal(t, "checkmate", state.Chess.Method)
}

func TestChessResign(t *testing.T) {
	g := NewChess()
	state, err := g.Init([]string{"alice", "bob"})
	require.NoError(t, err)

	state, err = g.Apply(state, "alice", Action{Type: ActionResign})
	require.NoError(t, err)
	require.True(t, state.Finished)
	require.Equal(t, "bob", *state.Meta.Winner)
	require.Equal(t, "black_wins", state.Meta.Result)
	require.Equal(t, "resignation", state.Chess.Method)
}
