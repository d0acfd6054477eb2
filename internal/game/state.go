package game

import "encoding/json"

// Type identifies a rule-engine variant.
type Type string

const (
	TypeChess     Type = "chess"
	TypeTicTacToe Type = "tic_tac_toe"
	TypeUltimate  Type = "ultimate_tic_tac_toe"
	TypeLands     Type = "lands"
)

// Phase is an explicit tagged phase descriptor for phase-driven games.
// Inferring the phase from side effects is not allowed: invariants on
// phase transitions are checked against this struct alone.
type Phase struct {
	Current   string   `json:"current"`
	Available []string `json:"available_phases"`
	Index     int      `json:"_current_index"`
}

// Next advances to the following phase, wrapping around.
func (p *Phase) Next() {
	p.Index = (p.Index + 1) % len(p.Available)
	p.Current = p.Available[p.Index]
}

// Meta carries the game-generic bookkeeping every engine maintains.
type Meta struct {
	CurrentPlayerIndex int `json:"curr_player_index"`
	// Lands only: the player whose turn it is, as opposed to the player
	// who currently holds priority to respond.
	MainPlayerIndex int `json:"main_player_index,omitempty"`
	// Lands only: length of the counter chain for the pending card.
	Countered int `json:"countered,omitempty"`

	Winner *string `json:"winner"`
	// "white_wins", "black_wins", "draw", "resignation" and the like.
	Result string `json:"result,omitempty"`
	// Seat assignment, e.g. player id -> "X"/"O" or "white"/"black".
	// Assigned once at session start, immutable afterwards.
	Symbols map[string]string `json:"symbols,omitempty"`
}

// State is the generic envelope shared by all games. Exactly one of the
// game-specific sections is non-nil. Engines never mutate a State they
// receive; Apply works on a Clone.
type State struct {
	Game      Type     `json:"game_type"`
	PlayerIDs []string `json:"player_ids"`
	Turn      int      `json:"turn"`
	Finished  bool     `json:"finished"`
	Phase     *Phase   `json:"phase,omitempty"`
	Meta      Meta     `json:"meta"`

	Chess     *ChessData     `json:"chess,omitempty"`
	TicTacToe *TicTacToeData `json:"tic_tac_toe,omitempty"`
	Ultimate  *UltimateData  `json:"ultimate,omitempty"`
	Lands     *LandsData     `json:"lands,omitempty"`
}

// CurrentPlayer returns the id of the player allowed to act.
func (s *State) CurrentPlayer() string {
	if len(s.PlayerIDs) == 0 {
		return ""
	}
	return s.PlayerIDs[s.Meta.CurrentPlayerIndex]
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := *s

	c.PlayerIDs = append([]string(nil), s.PlayerIDs...)

	if s.Phase != nil {
		p := *s.Phase
		p.Available = append([]string(nil), s.Phase.Available...)
		c.Phase = &p
	}
	if s.Meta.Winner != nil {
		w := *s.Meta.Winner
		c.Meta.Winner = &w
	}
	if s.Meta.Symbols != nil {
		c.Meta.Symbols = make(map[string]string, len(s.Meta.Symbols))
		for k, v := range s.Meta.Symbols {
			c.Meta.Symbols[k] = v
		}
	}

	if s.Chess != nil {
		c.Chess = s.Chess.clone()
	}
	if s.TicTacToe != nil {
		c.TicTacToe = s.TicTacToe.clone()
	}
	if s.Ultimate != nil {
		c.Ultimate = s.Ultimate.clone()
	}
	if s.Lands != nil {
		c.Lands = s.Lands.clone()
	}

	return &c
}

func (s *State) setWinner(playerID string) {
	w := playerID
	s.Meta.Winner = &w
	s.Finished = true
}

// Action is the generic verb + opaque payload envelope. Payloads are
// validated against a per-type schema by the engine that owns the verb.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ActionResign is shared by every game.
const ActionResign = "RESIGN"

func (a Action) decode(v any) error {
	if len(a.Payload) == 0 {
		return Malformed("%s requires a payload", a.Type)
	}
	if err := json.Unmarshal(a.Payload, v); err != nil {
		return Malformed("invalid %s payload: %v", a.Type, err)
	}
	return nil
}
