package game

import (
	"encoding/json"
	"math/rand"
)

// Card types. A deck is 5 copies of each.
const (
	CardGrass = iota
	CardLightning
	CardFire
	CardDarkness
	CardWater

	numCardTypes = 5
	deckCopies   = 5
)

// Lands phases, in turn order. A turn enters MAIN directly on the very
// first turn (the starting player skips their draw).
const (
	PhaseDraw       = "DRAW_PHASE"
	PhaseMain       = "MAIN_PHASE"
	PhaseCounter    = "COUNTER_PHASE"
	PhaseResolution = "RESOLUTION_PHASE"
	PhaseEnd        = "END_PHASE"
)

var landsPhases = []string{PhaseDraw, PhaseMain, PhaseCounter, PhaseResolution, PhaseEnd}

// CardCounts indexes counts by card type.
type CardCounts [numCardTypes]int

func (c CardCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// LandsPrivate is one player's hidden zone: hand, deck order and the
// deck's top card while a Water effect is resolving. Visible only to
// its owner; everyone else sees counts.
type LandsPrivate struct {
	Hand    CardCounts `json:"hand"`
	Deck    []int      `json:"deck"`
	TopCard *int       `json:"top_card,omitempty"`

	// Redacted views carry counts instead of contents.
	HandCount int  `json:"hand_count"`
	DeckCount int  `json:"deck_count"`
	Hidden    bool `json:"hidden,omitempty"`
}

type LandsData struct {
	Boards  map[string]CardCounts    `json:"boards"`
	Discard map[string]CardCounts    `json:"discard"`
	Private map[string]*LandsPrivate `json:"private"`

	// The card played in MAIN, face-up, effect not yet applied.
	PendingCard *int `json:"pending_card"`

	// Legal targets while a card effect resolves.
	Selection []int `json:"selection,omitempty"`

	// Seed plus the shuffle counter make every shuffle a pure function
	// of the state, so replaying an action log is deterministic.
	Seed     int64 `json:"seed"`
	Shuffles int   `json:"shuffles"`
}

func (d *LandsData) clone() *LandsData {
	c := *d
	c.Boards = cloneCounts(d.Boards)
	c.Discard = cloneCounts(d.Discard)
	c.Private = make(map[string]*LandsPrivate, len(d.Private))
	for pid, pv := range d.Private {
		cp := *pv
		cp.Deck = append([]int(nil), pv.Deck...)
		if pv.TopCard != nil {
			t := *pv.TopCard
			cp.TopCard = &t
		}
		c.Private[pid] = &cp
	}
	if d.PendingCard != nil {
		p := *d.PendingCard
		c.PendingCard = &p
	}
	c.Selection = append([]int(nil), d.Selection...)
	return &c
}

func cloneCounts(m map[string]CardCounts) map[string]CardCounts {
	c := make(map[string]CardCounts, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func (d *LandsData) addBoard(pid string, card, n int) {
	b := d.Boards[pid]
	b[card] += n
	d.Boards[pid] = b
}

func (d *LandsData) addDiscard(pid string, card, n int) {
	dc := d.Discard[pid]
	dc[card] += n
	d.Discard[pid] = dc
}

// rng derives the shuffle source from the state and bumps the counter.
func (d *LandsData) rng() *rand.Rand {
	r := rand.New(rand.NewSource(d.Seed + int64(d.Shuffles)))
	d.Shuffles++
	return r
}

// draw moves up to n cards from the player's deck into their hand,
// reshuffling the discard pile into a fresh deck when the deck runs
// out. If both are empty the draw simply stops short.
func (d *LandsData) draw(pid string, n int) {
	pv := d.Private[pid]
	for i := 0; i < n; i++ {
		if len(pv.Deck) == 0 {
			d.reshuffleDiscard(pid)
			if len(pv.Deck) == 0 {
				break
			}
		}
		card := pv.Deck[0]
		pv.Deck = pv.Deck[1:]
		pv.Hand[card]++
	}
}

func (d *LandsData) reshuffleDiscard(pid string) {
	pile := d.Discard[pid]
	pv := d.Private[pid]
	for card, count := range pile {
		for i := 0; i < count; i++ {
			pv.Deck = append(pv.Deck, card)
		}
	}
	d.Discard[pid] = CardCounts{}
	r := d.rng()
	r.Shuffle(len(pv.Deck), func(i, j int) {
		pv.Deck[i], pv.Deck[j] = pv.Deck[j], pv.Deck[i]
	})
}

type playEnergyPayload struct {
	CardType int `json:"card_type"`
}

type counterPayload struct {
	DiscardIDs []int `json:"discard_ids"`
}

type chooseTargetPayload struct {
	Target json.RawMessage `json:"target"`
}

type Lands struct {
	// seed is consulted once per Init; tests inject a fixed source.
	seed func() int64
}

func NewLands() *Lands {
	return &Lands{seed: rand.Int63}
}

// NewLandsSeeded returns an engine whose Init always uses the given seed.
func NewLandsSeeded(seed int64) *Lands {
	return &Lands{seed: func() int64 { return seed }}
}

func (g *Lands) Type() Type      { return TypeLands }
func (g *Lands) MinPlayers() int { return 2 }
func (g *Lands) MaxPlayers() int { return 2 }

func (g *Lands) Init(playerIDs []string) (*State, error) {
	if len(playerIDs) != 2 {
		return nil, Illegal("lands requires exactly 2 players, got %d", len(playerIDs))
	}

	d := &LandsData{
		Boards:  make(map[string]CardCounts, 2),
		Discard: make(map[string]CardCounts, 2),
		Private: make(map[string]*LandsPrivate, 2),
		Seed:    g.seed(),
	}
	for _, pid := range playerIDs {
		d.Boards[pid] = CardCounts{}
		d.Discard[pid] = CardCounts{}
		d.Private[pid] = &LandsPrivate{Deck: freshDeck()}
	}
	for _, pid := range playerIDs {
		r := d.rng()
		pv := d.Private[pid]
		r.Shuffle(len(pv.Deck), func(i, j int) {
			pv.Deck[i], pv.Deck[j] = pv.Deck[j], pv.Deck[i]
		})
		d.draw(pid, 5)
	}

	return &State{
		Game:      TypeLands,
		PlayerIDs: append([]string(nil), playerIDs...),
		Turn:      1,
		Phase: &Phase{
			Current:   PhaseMain,
			Available: append([]string(nil), landsPhases...),
			Index:     1,
		},
		Meta:  Meta{},
		Lands: d,
	}, nil
}

func freshDeck() []int {
	deck := make([]int, 0, numCardTypes*deckCopies)
	for card := 0; card < numCardTypes; card++ {
		for i := 0; i < deckCopies; i++ {
			deck = append(deck, card)
		}
	}
	return deck
}

func (g *Lands) Apply(state *State, playerID string, action Action) (*State, error) {
	if state.Finished {
		return nil, Finished()
	}
	idx := playerIndex(state, playerID)
	if idx < 0 {
		return nil, Illegal("player %s is not seated in this game", playerID)
	}

	s := state.Clone()

	if action.Type == ActionResign {
		s.setWinner(s.PlayerIDs[1-idx])
		s.Meta.Result = "resignation"
		return s, nil
	}

	if idx != s.Meta.CurrentPlayerIndex {
		return nil, NotYourTurn()
	}

	switch action.Type {
	case "PLAY_ENERGY":
		return g.playEnergy(s, playerID, action)
	case "COUNTER":
		return g.counter(s, playerID, action)
	case "PASS":
		if s.Phase.Current != PhaseCounter {
			return nil, Illegal("PASS is only legal during the counter phase")
		}
		return g.resolvePending(s)
	case "CHOOSE_TARGET":
		return g.chooseTarget(s, playerID, action)
	default:
		return nil, Malformed("unknown action type %q", action.Type)
	}
}

func (g *Lands) playEnergy(s *State, playerID string, action Action) (*State, error) {
	if s.Phase.Current != PhaseMain {
		return nil, Illegal("cards can only be played during the main phase")
	}
	var p playEnergyPayload
	if err := action.decode(&p); err != nil {
		return nil, err
	}
	if p.CardType < 0 || p.CardType >= numCardTypes {
		return nil, Malformed("card type %d out of range", p.CardType)
	}

	d := s.Lands
	pv := d.Private[playerID]
	if pv.Hand[p.CardType] == 0 {
		return nil, Illegal("no card of type %d in hand", p.CardType)
	}

	pv.Hand[p.CardType]--
	card := p.CardType
	d.PendingCard = &card

	// Priority passes to the opponent, who may counter.
	s.Meta.CurrentPlayerIndex = 1 - s.Meta.CurrentPlayerIndex
	s.Phase.Next()
	return s, nil
}

// counterCost is the multiset of cards the responder must discard:
// one Water plus one card matching the pending type for the initial
// counter (two Waters when the pending card is itself Water), and two
// Waters for every counter of a counter.
func counterCost(pending, chainLen int) []int {
	if chainLen == 0 {
		return []int{CardWater, pending}
	}
	return []int{CardWater, CardWater}
}

func (g *Lands) counter(s *State, playerID string, action Action) (*State, error) {
	if s.Phase.Current != PhaseCounter {
		return nil, Illegal("there is nothing to counter right now")
	}
	d := s.Lands
	if d.PendingCard == nil {
		return nil, Illegal("no pending card to counter")
	}

	cost := counterCost(*d.PendingCard, s.Meta.Countered)

	if len(action.Payload) > 0 {
		var p counterPayload
		if err := action.decode(&p); err != nil {
			return nil, err
		}
		if len(p.DiscardIDs) > 0 && !sameMultiset(p.DiscardIDs, cost) {
			return nil, Illegal("countering requires discarding exactly %v", cost)
		}
	}

	pv := d.Private[playerID]
	var need CardCounts
	for _, card := range cost {
		need[card]++
	}
	for card, n := range need {
		if pv.Hand[card] < n {
			return nil, Illegal("not enough cards to counter")
		}
	}

	for _, card := range cost {
		pv.Hand[card]--
		d.addDiscard(playerID, card, 1)
	}
	s.Meta.Countered++

	// Priority alternates back; the other side may respond again.
	s.Meta.CurrentPlayerIndex = 1 - s.Meta.CurrentPlayerIndex
	return s, nil
}

// resolvePending runs when the side holding priority declines to
// respond. An even counter chain means the card lands and its effect
// resolves; an odd chain means the card is discarded with no effect.
func (g *Lands) resolvePending(s *State) (*State, error) {
	d := s.Lands
	if d.PendingCard == nil {
		return nil, Illegal("no pending card to resolve")
	}
	card := *d.PendingCard
	mainID := s.PlayerIDs[s.Meta.MainPlayerIndex]

	s.Phase.Next() // counter -> resolution

	if s.Meta.Countered%2 != 0 {
		// Counter stuck: the card goes to the discard pile, no effect.
		d.addDiscard(mainID, card, 1)
		g.advanceTurn(s)
		return s, nil
	}

	s.Meta.CurrentPlayerIndex = s.Meta.MainPlayerIndex
	d.addBoard(mainID, card, 1)

	g.checkWin(s, mainID)
	if s.Finished {
		return s, nil
	}

	oppID := s.PlayerIDs[1-s.Meta.MainPlayerIndex]

	switch card {
	case CardGrass:
		d.Selection = nonZero(d.Discard[mainID])
		if len(d.Selection) == 0 {
			g.advanceTurn(s)
		}
	case CardLightning:
		d.draw(mainID, 1)
		g.advanceTurn(s)
	case CardFire:
		d.Selection = nonZero(d.Boards[oppID])
		if len(d.Selection) == 0 {
			g.advanceTurn(s)
		}
	case CardDarkness:
		if d.Private[oppID].Hand.Total() == 0 {
			g.advanceTurn(s)
			break
		}
		// The opponent picks which hand cards to reveal first.
		s.Meta.CurrentPlayerIndex = 1 - s.Meta.MainPlayerIndex
	case CardWater:
		pv := d.Private[mainID]
		if len(pv.Deck) == 0 {
			d.reshuffleDiscard(mainID)
		}
		if len(pv.Deck) == 0 {
			g.advanceTurn(s)
			break
		}
		top := pv.Deck[0]
		pv.TopCard = &top
		d.Selection = []int{0, 1} // keep on top / move to bottom
	}
	return s, nil
}

func (g *Lands) chooseTarget(s *State, playerID string, action Action) (*State, error) {
	if s.Phase.Current != PhaseResolution {
		return nil, Illegal("no card effect is awaiting a target")
	}
	d := s.Lands
	if d.PendingCard == nil {
		return nil, Illegal("no card effect is awaiting a target")
	}
	card := *d.PendingCard

	var p chooseTargetPayload
	if err := action.decode(&p); err != nil {
		return nil, err
	}

	mainID := s.PlayerIDs[s.Meta.MainPlayerIndex]
	oppID := s.PlayerIDs[1-s.Meta.MainPlayerIndex]

	// Darkness resolves in two steps: the opponent reveals, then the
	// main player picks one revealed card to force-discard.
	if card == CardDarkness && s.Meta.CurrentPlayerIndex == 1-s.Meta.MainPlayerIndex {
		var reveal []int
		if err := json.Unmarshal(p.Target, &reveal); err != nil {
			return nil, Malformed("darkness reveal expects a list of cards")
		}
		pv := d.Private[oppID]
		want := 3
		if total := pv.Hand.Total(); total < want {
			want = total
		}
		if len(reveal) != want {
			return nil, Illegal("exactly %d hand cards must be revealed", want)
		}
		var picked CardCounts
		for _, c := range reveal {
			if c < 0 || c >= numCardTypes {
				return nil, Malformed("card type %d out of range", c)
			}
			picked[c]++
		}
		for c := 0; c < numCardTypes; c++ {
			if picked[c] > pv.Hand[c] {
				return nil, Illegal("revealed cards must come from your hand")
			}
		}
		d.Selection = append([]int(nil), reveal...)
		s.Meta.CurrentPlayerIndex = s.Meta.MainPlayerIndex
		return s, nil
	}

	target, err := decodeSingleTarget(p.Target)
	if err != nil {
		return nil, err
	}
	if target == nil {
		if len(d.Selection) > 0 {
			return nil, Illegal("a target must be chosen")
		}
	} else if !contains(d.Selection, *target) {
		return nil, Illegal("target %d is not a legal choice", *target)
	}

	switch card {
	case CardGrass:
		if target != nil {
			d.addDiscard(mainID, *target, -1)
			d.Private[mainID].Hand[*target]++
		}
	case CardFire:
		if target != nil {
			d.addBoard(oppID, *target, -1)
			d.addDiscard(oppID, *target, 1)
		}
	case CardDarkness:
		if target != nil {
			d.Private[oppID].Hand[*target]--
			d.addDiscard(oppID, *target, 1)
		}
	case CardWater:
		pv := d.Private[mainID]
		if target != nil && *target == 1 && len(pv.Deck) > 0 {
			top := pv.Deck[0]
			pv.Deck = append(pv.Deck[1:], top)
		}
		pv.TopCard = nil
	default:
		return nil, Illegal("card %d has no target to choose", card)
	}

	g.advanceTurn(s)
	return s, nil
}

// advanceTurn runs the END phase checkpoint and hands the turn over:
// win re-check, reset of turn-scoped fields, then the next player's
// draw and main phase.
func (g *Lands) advanceTurn(s *State) {
	d := s.Lands

	for s.Phase.Current != PhaseEnd {
		s.Phase.Next()
	}

	for _, pid := range s.PlayerIDs {
		g.checkWin(s, pid)
	}

	d.PendingCard = nil
	d.Selection = nil
	s.Meta.Countered = 0

	if s.Finished {
		return
	}

	s.Meta.MainPlayerIndex = 1 - s.Meta.MainPlayerIndex
	s.Meta.CurrentPlayerIndex = s.Meta.MainPlayerIndex

	s.Phase.Next() // end -> draw
	s.Turn++
	d.draw(s.PlayerIDs[s.Meta.MainPlayerIndex], 1)
	s.Phase.Next() // draw -> main
}

// checkWin marks the player as winner when their board holds five of a
// single type or at least one of every type.
func (g *Lands) checkWin(s *State, playerID string) {
	if s.Finished {
		return
	}
	board := s.Lands.Boards[playerID]

	all := true
	for _, count := range board {
		if count >= deckCopies {
			s.setWinner(playerID)
			s.Meta.Result = "win"
			return
		}
		if count < 1 {
			all = false
		}
	}
	if all {
		s.setWinner(playerID)
		s.Meta.Result = "win"
	}
}

// Redact hides every other player's hand, deck order and deck peek,
// leaving only counts. Spectators get the same treatment.
func (g *Lands) Redact(state *State, viewerID string) *State {
	s := state.Clone()
	for pid, pv := range s.Lands.Private {
		pv.HandCount = pv.Hand.Total()
		pv.DeckCount = len(pv.Deck)
		if pid == viewerID {
			continue
		}
		pv.Hand = CardCounts{}
		pv.Deck = nil
		pv.TopCard = nil
		pv.Hidden = true
	}
	return s
}

func nonZero(c CardCounts) []int {
	var out []int
	for card, count := range c {
		if count > 0 {
			out = append(out, card)
		}
	}
	return out
}

func contains(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func sameMultiset(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[int]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}

func decodeSingleTarget(raw json.RawMessage) (*int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, Malformed("target must be a single index or null")
	}
	return &v, nil
}
