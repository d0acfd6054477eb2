package game

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

const startingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ChessData carries the position as FEN plus the full UCI move history.
// The history is what the engine replays for legality and repetition
// checks; the FEN is a convenience for clients.
type ChessData struct {
	FEN    string   `json:"fen"`
	Moves  []string `json:"moves"`
	Method string   `json:"method,omitempty"`
}

func (d *ChessData) clone() *ChessData {
	c := *d
	c.Moves = append([]string(nil), d.Moves...)
	return &c
}

type chessMovePayload struct {
	Move string `json:"move"`
}

type Chess struct{}

func NewChess() *Chess {
	return &Chess{}
}

func (g *Chess) Type() Type      { return TypeChess }
func (g *Chess) MinPlayers() int { return 2 }
func (g *Chess) MaxPlayers() int { return 2 }

func (g *Chess) Init(playerIDs []string) (*State, error) {
	if len(playerIDs) != 2 {
		return nil, Illegal("chess requires exactly 2 players, got %d", len(playerIDs))
	}
	return &State{
		Game:      TypeChess,
		PlayerIDs: append([]string(nil), playerIDs...),
		Turn:      1,
		Meta: Meta{
			Symbols: map[string]string{playerIDs[0]: "white", playerIDs[1]: "black"},
		},
		Chess: &ChessData{FEN: startingFEN},
	}, nil
}

func (g *Chess) Apply(state *State, playerID string, action Action) (*State, error) {
	if state.Finished {
		return nil, Finished()
	}
	idx := playerIndex(state, playerID)
	if idx < 0 {
		return nil, Illegal("player %s is not seated in this game", playerID)
	}
	s := state.Clone()

	// Resigning is legal regardless of whose turn it is.
	if action.Type == ActionResign {
		s.setWinner(s.PlayerIDs[1-idx])
		if idx == 0 {
			s.Meta.Result = "black_wins"
		} else {
			s.Meta.Result = "white_wins"
		}
		s.Chess.Method = "resignation"
		return s, nil
	}

	if idx != state.Meta.CurrentPlayerIndex {
		return nil, NotYourTurn()
	}

	switch action.Type {
	case "MAKE_MOVE":
		var p chessMovePayload
		if err := action.decode(&p); err != nil {
			return nil, err
		}
		move := strings.TrimSpace(strings.ToLower(p.Move))
		if len(move) < 4 || len(move) > 5 {
			return nil, Malformed("move %q is not coordinate notation", p.Move)
		}

		pos, err := replay(s.Chess.Moves)
		if err != nil {
			return nil, fmt.Errorf("rebuild position: %w", err)
		}
		if err := pos.MoveStr(move); err != nil {
			return nil, Illegal("move %s is not legal in this position", move)
		}

		s.Chess.Moves = append(s.Chess.Moves, move)
		s.Chess.FEN = pos.Position().String()

		switch pos.Outcome() {
		case chess.WhiteWon:
			s.setWinner(s.PlayerIDs[0])
			s.Meta.Result = "white_wins"
			s.Chess.Method = methodName(pos.Method())
		case chess.BlackWon:
			s.setWinner(s.PlayerIDs[1])
			s.Meta.Result = "black_wins"
			s.Chess.Method = methodName(pos.Method())
		case chess.Draw:
			s.Finished = true
			s.Meta.Result = "draw"
			s.Chess.Method = methodName(pos.Method())
		default:
			s.Turn++
			s.Meta.CurrentPlayerIndex = 1 - idx
		}
		return s, nil

	default:
		return nil, Malformed("unknown action type %q", action.Type)
	}
}

func (g *Chess) Redact(state *State, viewerID string) *State {
	return state.Clone()
}

// replay rebuilds the game from the full move history so repetition and
// move-counter rules see the whole game, not just the last position.
func replay(moves []string) (*chess.Game, error) {
	gm := chess.NewGame(chess.UseNotation(chess.UCINotation{}))
	for _, m := range moves {
		if err := gm.MoveStr(m); err != nil {
			return nil, fmt.Errorf("history move %s: %w", m, err)
		}
	}
	return gm, nil
}

func methodName(m chess.Method) string {
	switch m {
	case chess.Checkmate:
		return "checkmate"
	case chess.Stalemate:
		return "stalemate"
	case chess.InsufficientMaterial:
		return "insufficient_material"
	case chess.FivefoldRepetition:
		return "fivefold_repetition"
	case chess.SeventyFiveMoveRule:
		return "seventyfive_moves"
	default:
		return ""
	}
}
