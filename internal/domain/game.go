package domain

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// Setup holds the settings a game is created with. It is captured once per session.
type Setup struct {
	Players           int
	StartingAuthority int
	HandSize          int
	FirstHandSize     int // hand size of the first player on turn one
	TradeRowSize      int
	StartingDeck      []string // card ids dealt to every player
	TradeDeck         []string // card ids of the shared trade deck
	Seed              uint64
}

var (
	ErrNoPlayers       = errors.New("game needs at least one player")
	ErrInvalidSettings = errors.New("invalid game settings")
	ErrUnknownCard     = errors.New("unknown card id")
)

// NewGame deals a fresh game: every player gets a shuffled starting deck and draws an
// opening hand, and the trade row is filled from the shuffled trade deck.
func NewGame(setup Setup, cat Catalog) (*Game, error) {
	if setup.Players < 1 {
		return nil, ErrNoPlayers
	}
	if setup.StartingAuthority < 1 || setup.HandSize < 0 || setup.FirstHandSize < 0 || setup.TradeRowSize < 0 {
		return nil, ErrInvalidSettings
	}
	for _, ids := range [][]string{setup.StartingDeck, setup.TradeDeck} {
		for _, id := range ids {
			if _, ok := cat.Lookup(id); !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownCard, id)
			}
		}
	}

	g := &Game{
		Turn:     1,
		Active:   0,
		Phase:    PhaseMain,
		Winner:   NoWinner,
		TradeRow: make([]InstanceID, setup.TradeRowSize),
		cards:    make(map[InstanceID]*CardInstance),
		rng:      *rand.NewPCG(setup.Seed, setup.Seed^0x5deece66d),
	}

	for i := 0; i < setup.Players; i++ {
		p := &Player{ID: i, Authority: setup.StartingAuthority, HandSize: setup.HandSize}
		for _, cardID := range setup.StartingDeck {
			p.Deck = append(p.Deck, g.newInstance(cardID, ZoneDeck, i))
		}
		g.shuffle(p.Deck)
		g.Players = append(g.Players, p)
	}

	for _, cardID := range setup.TradeDeck {
		g.TradeDeck = append(g.TradeDeck, g.newInstance(cardID, ZoneTradeDeck, NoOwner))
	}
	g.shuffle(g.TradeDeck)

	g.emit(Event{Kind: EventGameStarted, Player: g.Active, Amount: setup.Players})
	for slot := range g.TradeRow {
		g.refillSlot(slot)
	}
	for _, p := range g.Players {
		n := setup.HandSize
		if p.ID == g.Active {
			n = setup.FirstHandSize
		}
		g.draw(p, n)
	}

	if err := CheckInvariants(g); err != nil {
		return nil, err
	}
	return g, nil
}

// TradeRowCards returns the trade-row instances by slot. Empty slots hold the zero value.
func (g *Game) TradeRowCards() []CardInstance {
	out := make([]CardInstance, len(g.TradeRow))
	for i, id := range g.TradeRow {
		if id != 0 {
			out[i] = *g.cards[id]
		}
	}
	return out
}
