package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// landsFixture builds a mid-game state with known hands so scenarios do
// not depend on shuffle order. Alice is the main player in her main
// phase; both decks hold a few known cards.
func landsFixture(t *testing.T) *State {
	t.Helper()
	d := &LandsData{
		Boards:  map[string]CardCounts{"alice": {}, "bob": {}},
		Discard: map[string]CardCounts{"alice": {}, "bob": {}},
		Private: map[string]*LandsPrivate{
			"alice": {
				Hand: CardCounts{CardGrass: 1, CardLightning: 1, CardFire: 1, CardDarkness: 1, CardWater: 1},
				Deck: []int{CardFire, CardGrass, CardWater},
			},
			"bob": {
				Hand: CardCounts{CardGrass: 1, CardLightning: 1, CardFire: 1, CardDarkness: 1, CardWater: 1},
				Deck: []int{CardDarkness, CardLightning},
			},
		},
		Seed: 7,
	}
	return &State{
		Game:      TypeLands,
		PlayerIDs: []string{"alice", "bob"},
		Turn:      1,
		Phase: &Phase{
			Current:   PhaseMain,
			Available: append([]string(nil), landsPhases...),
			Index:     1,
		},
		Lands: d,
	}
}

func playEnergy(t *testing.T, cardType int) Action {
	t.Helper()
	payload, err := json.Marshal(playEnergyPayload{CardType: cardType})
	require.NoError(t, err)
	return Action{Type: "PLAY_ENERGY", Payload: payload}
}

func chooseTarget(t *testing.T, target any) Action {
	t.Helper()
	raw, err := json.Marshal(target)
	require.NoError(t, err)
	payload, err := json.Marshal(chooseTargetPayload{Target: raw})
	require.NoError(t, err)
	return Action{Type: "CHOOSE_TARGET", Payload: payload}
}

func TestLandsInitDeals(t *testing.T) {
	g := NewLandsSeeded(42)
	state, err := g.Init([]string{"alice", "bob"})
	require.NoError(t, err)

	require.Equal(t, PhaseMain, state.Phase.Current)
	require.Equal(t, "alice", state.CurrentPlayer())
	for _, pid := range []string{"alice", "bob"} {
		pv := state.Lands.Private[pid]
		require.Equal(t, 5, pv.Hand.Total())
		require.Len(t, pv.Deck, 20)
	}
	require.Equal(t, int64(42), state.Lands.Seed)
}

func TestLandsPlayAndResolveUncontested(t *testing.T) {
	g := NewLands()
	state := landsFixture(t)

	// Alice plays Lightning; priority passes to Bob.
	state, err := g.Apply(state, "alice", playEnergy(t, CardLightning))
	require.NoError(t, err)
	require.Equal(t, PhaseCounter, state.Phase.Current)
	require.Equal(t, "bob", state.CurrentPlayer())
	require.NotNil(t, state.Lands.PendingCard)
	require.Equal(t, CardLightning, *state.Lands.PendingCard)
	require.Equal(t, 0, state.Lands.Private["alice"].Hand[CardLightning])

	// Bob declines: the card lands, alice draws one and the turn passes.
	state, err = g.Apply(state, "bob", Action{Type: "PASS"})
	require.NoError(t, err)
	require.Equal(t, 1, state.Lands.Boards["alice"][CardLightning])
	require.Equal(t, 5, state.Lands.Private["alice"].Hand.Total())
	require.Len(t, state.Lands.Private["alice"].Deck, 2)

	// Bob's turn: he drew in his draw phase and sits in main.
	require.Equal(t, PhaseMain, state.Phase.Current)
	require.Equal(t, "bob", state.CurrentPlayer())
	require.Equal(t, 1, state.Meta.MainPlayerIndex)
	require.Equal(t, 2, state.Turn)
	require.Equal(t, 6, state.Lands.Private["bob"].Hand.Total())
	require.Nil(t, state.Lands.PendingCard)
	require.Equal(t, 0, state.Meta.Countered)
}

func TestLandsCounterStopsCard(t *testing.T) {
	g := NewLands()
	state := landsFixture(t)

	state, err := g.Apply(state, "alice", playEnergy(t, CardFire))
	require.NoError(t, err)

	// Bob counters: discards one Water plus one card of the pending type.
	state, err = g.Apply(state, "bob", Action{Type: "COUNTER"})
	require.NoError(t, err)
	require.Equal(t, 1, state.Meta.Countered)
	require.Equal(t, "alice", state.CurrentPlayer())
	require.Equal(t, 0, state.Lands.Private["bob"].Hand[CardWater])
	require.Equal(t, 0, state.Lands.Private["bob"].Hand[CardFire])
	require.Equal(t, 1, state.Lands.Discard["bob"][CardWater])
	require.Equal(t, 1, state.Lands.Discard["bob"][CardFire])

	// Alice lets it go: odd chain, the card dies with no effect.
	state, err = g.Apply(state, "alice", Action{Type: "PASS"})
	require.NoError(t, err)
	require.Equal(t, 0, state.Lands.Boards["alice"][CardFire])
	require.Equal(t, 1, state.Lands.Discard["alice"][CardFire])
	require.Equal(t, "bob", state.CurrentPlayer())
	require.Equal(t, 2, state.Turn)
}

func TestLandsCounterCounterResolves(t *testing.T) {
	g := NewLands()
	state := landsFixture(t)

	// Give alice a second Water so she can counter the counter.
	state.Lands.Private["alice"].Hand[CardWater] = 2

	state, err := g.Apply(state, "alice", playEnergy(t, CardLightning))
	require.NoError(t, err)

	// Bob needs Water + Lightning for the initial counter.
	state, err = g.Apply(state, "bob", Action{Type: "COUNTER"})
	require.NoError(t, err)

	// Alice counters back with two Waters.
	state, err = g.Apply(state, "alice", Action{Type: "COUNTER"})
	require.NoError(t, err)
	require.Equal(t, 2, state.Meta.Countered)
	require.Equal(t, 0, state.Lands.Private["alice"].Hand[CardWater])

	// Bob gives up: even chain, Lightning resolves and alice draws.
	state, err = g.Apply(state, "bob", Action{Type: "PASS"})
	require.NoError(t, err)
	require.Equal(t, 1, state.Lands.Boards["alice"][CardLightning])
	require.Len(t, state.Lands.Private["alice"].Deck, 2)
	require.Equal(t, 2, state.Turn)
}

func TestLandsCounterWithoutCardsRejected(t *testing.T) {
	g := NewLands()
	state := landsFixture(t)
	state.Lands.Private["bob"].Hand[CardWater] = 0

	state, err := g.Apply(state, "alice", playEnergy(t, CardFire))
	require.NoError(t, err)

	_, err = g.Apply(state, "bob", Action{Type: "COUNTER"})
	rej, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, CodeIllegalAction, rej.Code)
}

func TestLandsFireForcesDiscard(t *testing.T) {
	g := NewLands()
	state := landsFixture(t)
	state.Lands.Boards["bob"] = CardCounts{CardGrass: 1}

	state, err := g.Apply(state, "alice", playEnergy(t, CardFire))
	require.NoError(t, err)
	state, err = g.Apply(state, "bob", Action{Type: "PASS"})
	require.NoError(t, err)

	// Fire resolved; alice must pick a card on bob's board to burn.
	require.Equal(t, PhaseResolution, state.Phase.Current)
	require.Equal(t, "alice", state.CurrentPlayer())
	require.Equal(t, []int{CardGrass}, state.Lands.Selection)

	// A card outside the selection is rejected.
	_, err = g.Apply(state, "alice", chooseTarget(t, CardWater))
	rej, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, CodeIllegalAction, rej.Code)

	state, err = g.Apply(state, "alice", chooseTarget(t, CardGrass))
	require.NoError(t, err)
	require.Equal(t, 0, state.Lands.Boards["bob"][CardGrass])
	require.Equal(t, 1, state.Lands.Discard["bob"][CardGrass])
	require.Equal(t, 2, state.Turn)
}

func TestLandsFireWithEmptyOpponentBoard(t *testing.T) {
	g := NewLands()
	state := landsFixture(t)

	state, err := g.Apply(state, "alice", playEnergy(t, CardFire))
	require.NoError(t, err)
	state, err = g.Apply(state, "bob", Action{Type: "PASS"})
	require.NoError(t, err)

	// Nothing to burn: the effect fizzles and the turn moves on.
	require.Equal(t, 1, state.Lands.Boards["alice"][CardFire])
	require.Equal(t, 2, state.Turn)
	require.Equal(t, "bob", state.CurrentPlayer())
}

func TestLandsDarknessTwoStage(t *testing.T) {
	g := NewLands()
	state := landsFixture(t)

	state, err := g.Apply(state, "alice", playEnergy(t, CardDarkness))
	require.NoError(t, err)
	state, err = g.Apply(state, "bob", Action{Type: "PASS"})
	require.NoError(t, err)

	// Bob picks which three hand cards to reveal.
	require.Equal(t, "bob", state.CurrentPlayer())

	// Revealing cards he does not hold is rejected.
	_, err = g.Apply(state, "bob", chooseTarget(t, []int{CardWater, CardWater, CardWater}))
	rej, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, CodeIllegalAction, rej.Code)

	state, err = g.Apply(state, "bob", chooseTarget(t, []int{CardGrass, CardFire, CardWater}))
	require.NoError(t, err)
	require.Equal(t, "alice", state.CurrentPlayer())
	require.Equal(t, []int{CardGrass, CardFire, CardWater}, state.Lands.Selection)

	// Alice discards one of the revealed cards.
	state, err = g.Apply(state, "alice", chooseTarget(t, CardWater))
	require.NoError(t, err)
	require.Equal(t, 0, state.Lands.Private["bob"].Hand[CardWater])
	require.Equal(t, 1, state.Lands.Discard["bob"][CardWater])
	require.Equal(t, 2, state.Turn)
}

func TestLandsWaterPeek(t *testing.T) {
	g := NewLands()
	state := landsFixture(t)

	state, err := g.Apply(state, "alice", playEnergy(t, CardWater))
	require.NoError(t, err)
	state, err = g.Apply(state, "bob", Action{Type: "PASS"})
	require.NoError(t, err)

	// Alice sees her top card and chooses where it goes.
	pv := state.Lands.Private["alice"]
	require.NotNil(t, pv.TopCard)
	require.Equal(t, CardFire, *pv.TopCard)
	require.Equal(t, []int{0, 1}, state.Lands.Selection)

	// Send it to the bottom.
	state, err = g.Apply(state, "alice", chooseTarget(t, 1))
	require.NoError(t, err)
	pv = state.Lands.Private["alice"]
	require.Nil(t, pv.TopCard)
	require.Equal(t, []int{CardGrass, CardWater, CardFire}, pv.Deck)
	require.Equal(t, 2, state.Turn)
}

func TestLandsWinByFiveOfAKind(t *testing.T) {
	g := NewLands()
	state := landsFixture(t)
	state.Lands.Boards["alice"] = CardCounts{CardFire: 4}

	state, err := g.Apply(state, "alice", playEnergy(t, CardFire))
	require.NoError(t, err)
	state, err = g.Apply(state, "bob", Action{Type: "PASS"})
	require.NoError(t, err)

	require.True(t, state.Finished)
	require.Equal(t, "alice", *state.Meta.Winner)
	require.Equal(t, "win", state.Meta.Result)
}

func TestLandsWinByOneOfEach(t *testing.T) {
	g := NewLands()
	state := landsFixture(t)
	state.Lands.Boards["alice"] = CardCounts{CardGrass: 1, CardLightning: 1, CardFire: 1, CardDarkness: 1}

	state, err := g.Apply(state, "alice", playEnergy(t, CardWater))
	require.NoError(t, err)
	state, err = g.Apply(state, "bob", Action{Type: "PASS"})
	require.NoError(t, err)

	require.True(t, state.Finished)
	require.Equal(t, "alice", *state.Meta.Winner)
}

func TestLandsTurnOrderGuards(t *testing.T) {
	g := NewLands()
	state := landsFixture(t)

	// Bob cannot act during alice's main phase.
	_, err := g.Apply(state, "bob", playEnergy(t, CardGrass))
	rej, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, CodeNotYourTurn, rej.Code)

	// But he can resign at any time.
	next, err := g.Apply(state, "bob", Action{Type: ActionResign})
	require.NoError(t, err)
	require.True(t, next.Finished)
	require.Equal(t, "alice", *next.Meta.Winner)

	// Alice cannot pass outside the counter phase.
	_, err = g.Apply(state, "alice", Action{Type: "PASS"})
	rej, ok = AsRejection(err)
	require.True(t, ok)
	require.Equal(t, CodeIllegalAction, rej.Code)
}

func TestLandsRedact(t *testing.T) {
	g := NewLands()
	state := landsFixture(t)

	view := g.Redact(state, "alice")

	own := view.Lands.Private["alice"]
	require.Equal(t, 5, own.Hand.Total())
	require.Len(t, own.Deck, 3)
	require.False(t, own.Hidden)
	require.Equal(t, 5, own.HandCount)
	require.Equal(t, 3, own.DeckCount)

	other := view.Lands.Private["bob"]
	require.True(t, other.Hidden)
	require.Equal(t, 0, other.Hand.Total())
	require.Nil(t, other.Deck)
	require.Equal(t, 5, other.HandCount)
	require.Equal(t, 2, other.DeckCount)

	// Spectators see everything redacted.
	view = g.Redact(state, "")
	require.True(t, view.Lands.Private["alice"].Hidden)
	require.True(t, view.Lands.Private["bob"].Hidden)

	// The source state is untouched.
	require.Equal(t, 5, state.Lands.Private["bob"].Hand.Total())
}
