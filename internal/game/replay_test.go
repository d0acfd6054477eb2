package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// runScript replays a fixed action list from a seeded deal. Actions are
// chosen from the acting player's actual hand so the script stays legal
// regardless of shuffle order.
func runScript(t *testing.T, g *Lands, rounds int) *State {
	t.Helper()
	state, err := g.Init([]string{"alice", "bob"})
	require.NoError(t, err)

	for i := 0; i < rounds && !state.Finished; i++ {
		main := state.PlayerIDs[state.Meta.MainPlayerIndex]
		opp := state.PlayerIDs[1-state.Meta.MainPlayerIndex]

		card := firstInHand(state, main)
		state, err = g.Apply(state, main, playEnergy(t, card))
		require.NoError(t, err)

		state, err = g.Apply(state, opp, Action{Type: "PASS"})
		require.NoError(t, err)

		// Resolve any pending target choice with the first legal option.
		for !state.Finished && state.Phase.Current == PhaseResolution {
			actor := state.CurrentPlayer()
			if state.Lands.PendingCard != nil && *state.Lands.PendingCard == CardDarkness && actor == opp {
				reveal := revealFromHand(state, opp)
				state, err = g.Apply(state, actor, chooseTarget(t, reveal))
				require.NoError(t, err)
				continue
			}
			require.NotEmpty(t, state.Lands.Selection)
			state, err = g.Apply(state, actor, chooseTarget(t, state.Lands.Selection[0]))
			require.NoError(t, err)
		}
	}
	return state
}

func firstInHand(state *State, pid string) int {
	hand := state.Lands.Private[pid].Hand
	for card, count := range hand {
		if count > 0 {
			return card
		}
	}
	return -1
}

func revealFromHand(state *State, pid string) []int {
	hand := state.Lands.Private[pid].Hand
	want := 3
	if total := hand.Total(); total < want {
		want = total
	}
	var out []int
	for card, count := range hand {
		for i := 0; i < count && len(out) < want; i++ {
			out = append(out, card)
		}
	}
	return out
}

// Two engines seeded identically must produce byte-identical states
// after the same action sequence: every shuffle is a pure function of
// the seed and the shuffle counter carried in the state.
func TestLandsReplayDeterminism(t *testing.T) {
	a := runScript(t, NewLandsSeeded(1234), 8)
	b := runScript(t, NewLandsSeeded(1234), 8)

	aj, err := json.Marshal(a)
	require.NoError(t, err)
	bj, err := json.Marshal(b)
	require.NoError(t, err)
	require.JSONEq(t, string(aj), string(bj))
}

func TestLandsDifferentSeedsDiffer(t *testing.T) {
	a, err := NewLandsSeeded(1).Init([]string{"alice", "bob"})
	require.NoError(t, err)
	b, err := NewLandsSeeded(2).Init([]string{"alice", "bob"})
	require.NoError(t, err)

	// Decks of 25 cards under different shuffles; a collision across
	// both players' deck orders is not credible.
	same := equalDecks(a, b, "alice") && equalDecks(a, b, "bob")
	require.False(t, same)
}

func equalDecks(a, b *State, pid string) bool {
	da := a.Lands.Private[pid].Deck
	db := b.Lands.Private[pid].Deck
	if len(da) != len(db) {
		return false
	}
	for i := range da {
		if da[i] != db[i] {
			return false
		}
	}
	return true
}
