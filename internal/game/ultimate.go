package game

// SmallBoard is one 3x3 sub-board of the ultimate grid.
type SmallBoard [3][3]string

// UltimateData holds the 3x3 grid of sub-boards, the summary meta-board
// ("X"/"O" win marks, "-" for a drawn sub-board) and the constraint on
// where the next mover may play. A nil ActiveBoard means unconstrained.
type UltimateData struct {
	LargeBoard  [3][3]SmallBoard `json:"large_board"`
	MetaBoard   SmallBoard       `json:"meta_board"`
	ActiveBoard *[2]int          `json:"active_board"`
}

func (d *UltimateData) clone() *UltimateData {
	c := *d
	if d.ActiveBoard != nil {
		ab := *d.ActiveBoard
		c.ActiveBoard = &ab
	}
	return &c
}

type ultimatePayload struct {
	BoardRow int `json:"board_row"`
	BoardCol int `json:"board_col"`
	Row      int `json:"row"`
	Col      int `json:"col"`
}

type Ultimate struct{}

func NewUltimate() *Ultimate {
	return &Ultimate{}
}

func (g *Ultimate) Type() Type      { return TypeUltimate }
func (g *Ultimate) MinPlayers() int { return 2 }
func (g *Ultimate) MaxPlayers() int { return 2 }

func (g *Ultimate) Init(playerIDs []string) (*State, error) {
	if len(playerIDs) != 2 {
		return nil, Illegal("ultimate tic tac toe requires exactly 2 players, got %d", len(playerIDs))
	}
	return &State{
		Game:      TypeUltimate,
		PlayerIDs: append([]string(nil), playerIDs...),
		Turn:      1,
		Meta: Meta{
			Symbols: map[string]string{playerIDs[0]: "X", playerIDs[1]: "O"},
		},
		Ultimate: &UltimateData{},
	}, nil
}

func (g *Ultimate) Apply(state *State, playerID string, action Action) (*State, error) {
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
		s.Meta.Result = "resignation"
		return s, nil
	}

	if idx != state.Meta.CurrentPlayerIndex {
		return nil, NotYourTurn()
	}

	switch action.Type {
	case "PLACE_MARKER":
		var p ultimatePayload
		if err := action.decode(&p); err != nil {
			return nil, err
		}
		if outOfRange(p.BoardRow, p.BoardCol) || outOfRange(p.Row, p.Col) {
			return nil, Malformed("coordinates out of range")
		}

		u := s.Ultimate
		if u.ActiveBoard != nil && (u.ActiveBoard[0] != p.BoardRow || u.ActiveBoard[1] != p.BoardCol) {
			return nil, Illegal("you must play in board (%d,%d)", u.ActiveBoard[0], u.ActiveBoard[1])
		}
		if u.MetaBoard[p.BoardRow][p.BoardCol] != "" {
			return nil, Illegal("board (%d,%d) is already decided", p.BoardRow, p.BoardCol)
		}
		if u.LargeBoard[p.BoardRow][p.BoardCol][p.Row][p.Col] != "" {
			return nil, Illegal("cell (%d,%d) in board (%d,%d) is already occupied", p.Row, p.Col, p.BoardRow, p.BoardCol)
		}

		u.LargeBoard[p.BoardRow][p.BoardCol][p.Row][p.Col] = s.Meta.Symbols[playerID]

		// A decided sub-board is frozen; its mark never changes.
		if status := boardStatus([3][3]string(u.LargeBoard[p.BoardRow][p.BoardCol])); status != "" {
			u.MetaBoard[p.BoardRow][p.BoardCol] = status

			switch overall := boardStatus([3][3]string(u.MetaBoard)); overall {
			case "X", "O":
				s.setWinner(playerID)
				s.Meta.Result = "win"
				return s, nil
			case markDraw:
				s.Finished = true
				s.Meta.Result = "draw"
				return s, nil
			}
		}

		// The cell just played points the opponent at their sub-board.
		// If that board is already decided, the opponent may play anywhere.
		if u.MetaBoard[p.Row][p.Col] != "" {
			u.ActiveBoard = nil
		} else {
			u.ActiveBoard = &[2]int{p.Row, p.Col}
		}

		s.Turn++
		s.Meta.CurrentPlayerIndex = 1 - idx
		return s, nil

	default:
		return nil, Malformed("unknown action type %q", action.Type)
	}
}

func (g *Ultimate) Redact(state *State, viewerID string) *State {
	return state.Clone()
}

func outOfRange(r, c int) bool {
	return r < 0 || r > 2 || c < 0 || c > 2
}
