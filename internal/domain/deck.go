package domain

import "math/rand/v2"

// shuffle permutes ids in place using the game's RNG so replays with the same seed match.
func (g *Game) shuffle(ids []InstanceID) {
	r := rand.New(&g.rng)
	r.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}

// reshuffle moves the discard pile into the deck when the deck is empty.
func (g *Game) reshuffle(p *Player) bool {
	if len(p.Deck) > 0 || len(p.Discard) == 0 {
		return false
	}
	p.Deck, p.Discard = p.Discard, nil
	for _, id := range p.Deck {
		g.place(id, ZoneDeck, p.ID)
	}
	g.shuffle(p.Deck)
	g.emit(Event{Kind: EventDeckShuffled, Player: p.ID, Amount: len(p.Deck)})
	return true
}

// popDeck takes the top card of the player's deck, reshuffling if needed.
func (g *Game) popDeck(p *Player) (InstanceID, bool) {
	g.reshuffle(p)
	if len(p.Deck) == 0 {
		return 0, false
	}
	top := p.Deck[len(p.Deck)-1]
	p.Deck = p.Deck[:len(p.Deck)-1]
	return top, true
}

// draw moves up to n cards from the top of the deck into hand and returns how many moved.
func (g *Game) draw(p *Player, n int) int {
	drawn := 0
	for ; drawn < n; drawn++ {
		id, ok := g.popDeck(p)
		if !ok {
			break
		}
		p.Hand = append(p.Hand, id)
		g.place(id, ZoneHand, p.ID)
	}
	if drawn > 0 {
		g.emit(Event{Kind: EventCardsDrawn, Player: p.ID, Amount: drawn})
	}
	return drawn
}

// scout sets up to n cards from the top of the deck aside as the pending draw set.
func (g *Game) scout(p *Player, n int) {
	for i := 0; i < n; i++ {
		id, ok := g.popDeck(p)
		if !ok {
			return
		}
		p.Pending = append(p.Pending, id)
		g.place(id, ZonePending, p.ID)
	}
}

// settlePending draws a lone pending card directly and asks for an order otherwise.
func (g *Game) settlePending(p *Player) {
	switch len(p.Pending) {
	case 0:
	case 1:
		id := p.Pending[0]
		p.Pending = nil
		p.Hand = append(p.Hand, id)
		g.place(id, ZoneHand, p.ID)
		g.emit(Event{Kind: EventCardsDrawn, Player: p.ID, Amount: 1})
	default:
		g.Phase = PhaseDrawOrder
	}
}

// refillSlot puts the top of the trade deck into an empty trade-row slot.
func (g *Game) refillSlot(slot int) {
	if len(g.TradeDeck) == 0 {
		g.TradeRow[slot] = 0
		return
	}
	top := g.TradeDeck[len(g.TradeDeck)-1]
	g.TradeDeck = g.TradeDeck[:len(g.TradeDeck)-1]
	g.TradeRow[slot] = top
	g.place(top, ZoneTradeRow, NoOwner)
	g.emit(Event{Kind: EventTradeRowRefilled, Player: NoOwner, Slot: slot, Instance: top, CardID: g.cards[top].CardID})
}
