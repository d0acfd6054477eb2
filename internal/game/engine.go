package game

import (
	"errors"
	"fmt"
)

var ErrUnknownGame = errors.New("unknown game type")

// Engine validates a proposed action against a state and produces the
// next state. Implementations are pure: no I/O, no mutation of the
// input state, deterministic given the state (any randomness is seeded
// from the state itself so that replaying an action log reproduces the
// final state exactly).
type Engine interface {
	Type() Type

	// MinPlayers/MaxPlayers bound how many players a room may seat.
	MinPlayers() int
	MaxPlayers() int

	// Init deals the starting state for the given seat order.
	Init(playerIDs []string) (*State, error)

	// Apply validates and applies one action for the acting player.
	// On rejection the returned state is nil and the error is a *Rejection.
	Apply(state *State, playerID string, action Action) (*State, error)

	// Redact returns a copy of the state safe to send to viewerID:
	// hidden information owned by other players is reduced to counts.
	Redact(state *State, viewerID string) *State
}

// Registry maps game types to their engines. Adding a game means adding
// one Engine implementation and one entry here.
type Registry struct {
	engines map[Type]Engine
}

func NewRegistry() *Registry {
	r := &Registry{engines: make(map[Type]Engine)}
	for _, e := range []Engine{
		NewChess(),
		NewTicTacToe(),
		NewUltimate(),
		NewLands(),
	} {
		r.engines[e.Type()] = e
	}
	return r
}

func (r *Registry) Get(t Type) (Engine, error) {
	e, ok := r.engines[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, t)
	}
	return e, nil
}

func (r *Registry) Types() []Type {
	types := make([]Type, 0, len(r.engines))
	for t := range r.engines {
		types = append(types, t)
	}
	return types
}
