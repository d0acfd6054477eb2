package game

// TicTacToeData is the 3x3 board; "" marks an empty cell.
type TicTacToeData struct {
	Board [3][3]string `json:"board"`
}

func (d *TicTacToeData) clone() *TicTacToeData {
	c := *d
	return &c
}

type placeMarkerPayload struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type TicTacToe struct{}

func NewTicTacToe() *TicTacToe {
	return &TicTacToe{}
}

func (g *TicTacToe) Type() Type      { return TypeTicTacToe }
func (g *TicTacToe) MinPlayers() int { return 2 }
func (g *TicTacToe) MaxPlayers() int { return 2 }

func (g *TicTacToe) Init(playerIDs []string) (*State, error) {
	if len(playerIDs) != 2 {
		return nil, Illegal("tic tac toe requires exactly 2 players, got %d", len(playerIDs))
	}
	return &State{
		Game:      TypeTicTacToe,
		PlayerIDs: append([]string(nil), playerIDs...),
		Turn:      1,
		Meta: Meta{
			Symbols: map[string]string{playerIDs[0]: "X", playerIDs[1]: "O"},
		},
		TicTacToe: &TicTacToeData{},
	}, nil
}

func (g *TicTacToe) Apply(state *State, playerID string, action Action) (*State, error) {
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
		var p placeMarkerPayload
		if err := action.decode(&p); err != nil {
			return nil, err
		}
		if p.Row < 0 || p.Row > 2 || p.Col < 0 || p.Col > 2 {
			return nil, Malformed("cell (%d,%d) is out of range", p.Row, p.Col)
		}
		if s.TicTacToe.Board[p.Row][p.Col] != "" {
			return nil, Illegal("cell (%d,%d) is already occupied", p.Row, p.Col)
		}

		s.TicTacToe.Board[p.Row][p.Col] = s.Meta.Symbols[playerID]

		switch boardStatus(s.TicTacToe.Board) {
		case "X", "O":
			s.setWinner(playerID)
			s.Meta.Result = "win"
		case markDraw:
			s.Finished = true
			s.Meta.Result = "draw"
		default:
			s.Turn++
			s.Meta.CurrentPlayerIndex = 1 - idx
		}
		return s, nil

	default:
		return nil, Malformed("unknown action type %q", action.Type)
	}
}

func (g *TicTacToe) Redact(state *State, viewerID string) *State {
	// Nothing is hidden in tic tac toe.
	return state.Clone()
}

const markDraw = "-"

// boardStatus checks a 3x3 board for a winner or a draw.
// Returns "X", "O", "-" for a draw, or "" while the board is open.
func boardStatus(b [3][3]string) string {
	isMark := func(v string) bool { return v != "" && v != markDraw }

	for i := 0; i < 3; i++ {
		if isMark(b[i][0]) && b[i][0] == b[i][1] && b[i][1] == b[i][2] {
			return b[i][0]
		}
		if isMark(b[0][i]) && b[0][i] == b[1][i] && b[1][i] == b[2][i] {
			return b[0][i]
		}
	}
	if isMark(b[1][1]) && ((b[0][0] == b[1][1] && b[1][1] == b[2][2]) || (b[0][2] == b[1][1] && b[1][1] == b[2][0])) {
		return b[1][1]
	}

	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if b[r][c] == "" {
				return ""
			}
		}
	}
	return markDraw
}

func playerIndex(state *State, playerID string) int {
	for i, id := range state.PlayerIDs {
		if id == playerID {
			return i
		}
	}
	return -1
}
