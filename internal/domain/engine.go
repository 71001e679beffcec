package domain

import "fmt"

// Apply validates and applies action for player against a copy of g. On success it
// returns the new state and the events the action produced; g itself is never
// modified, so callers commit by swapping pointers. On failure g is returned as-is
// together with a *Rejection or an error wrapping ErrInvariant.
func Apply(g *Game, cat Catalog, player int, action Action) (*Game, []Event, error) {
	if err := Validate(g, cat, player, action); err != nil {
		return g, nil, err
	}

	next := g.Clone()
	start := len(next.Events)
	p := next.Players[player]

	switch a := action.(type) {
	case PlayCard:
		next.playCard(cat, p, a.Instance)
	case BuyCard:
		next.buyCard(cat, p, a.Slot)
	case Attack:
		next.attack(cat, p, a)
	case SetDrawOrder:
		next.setDrawOrder(p, a.Order)
	case EndTurn:
		next.endTurn(p)
	case ScrapCard:
		next.scrapCard(cat, p, a.Instance)
	case UseBase:
		next.useBase(cat, p, a.Instance)
	case Forfeit:
		next.forfeit(p)
	}

	next.Version++
	if err := CheckInvariants(next); err != nil {
		return g, nil, fmt.Errorf("apply %s: %w", action.Kind(), err)
	}
	events := append([]Event(nil), next.Events[start:]...)
	return next, events, nil
}

// Finish returns a terminal copy of g with the given winner, for sessions ended
// from outside the rules (host closed, server shutdown). winner may be NoWinner.
func Finish(g *Game, winner int) *Game {
	if g.Finished {
		return g
	}
	next := g.Clone()
	next.end(winner)
	next.Version++
	return next
}

func (g *Game) end(winner int) {
	g.Finished = true
	g.Winner = winner
	g.emit(Event{Kind: EventGameEnded, Player: winner})
}

func (g *Game) playCard(cat Catalog, p *Player, id InstanceID) {
	def, _ := g.def(cat, id)
	p.Hand, _ = removeInstance(p.Hand, id)
	if def.Type.IsBase() {
		p.Bases = append(p.Bases, id)
		g.place(id, ZoneBase, p.ID)
		g.cards[id].Used = true
	} else {
		p.InPlay = append(p.InPlay, id)
		g.place(id, ZoneInPlay, p.ID)
	}
	g.emit(Event{Kind: EventCardPlayed, Player: p.ID, CardID: def.ID, Instance: id})
	g.resolveCard(cat, p, id, def)
}

func (g *Game) useBase(cat Catalog, p *Player, id InstanceID) {
	def, _ := g.def(cat, id)
	g.cards[id].Used = true
	g.emit(Event{Kind: EventBaseUsed, Player: p.ID, CardID: def.ID, Instance: id})
	g.resolveCard(cat, p, id, def)
}

func (g *Game) buyCard(cat Catalog, p *Player, slot int) {
	id := g.TradeRow[slot]
	def, _ := g.def(cat, id)
	p.Trade -= def.Cost
	p.Discard = append(p.Discard, id)
	g.place(id, ZoneDiscard, p.ID)
	g.TradeRow[slot] = 0
	g.emit(Event{Kind: EventCardBought, Player: p.ID, CardID: def.ID, Instance: id, Slot: slot, Amount: def.Cost})
	g.refillSlot(slot)
}

func (g *Game) scrapCard(cat Catalog, p *Player, id InstanceID) {
	def, _ := g.def(cat, id)
	var ok bool
	if p.InPlay, ok = removeInstance(p.InPlay, id); !ok {
		p.Bases, _ = removeInstance(p.Bases, id)
	}
	inst := g.cards[id]
	inst.Used, inst.Damage = false, 0
	g.Scrap = append(g.Scrap, id)
	g.place(id, ZoneScrapped, NoOwner)
	g.emit(Event{Kind: EventCardScrapped, Player: p.ID, CardID: def.ID, Instance: id})
	g.resolve(p, def.ScrapEffects)
	g.settlePending(p)
}

func (g *Game) attack(cat Catalog, p *Player, a Attack) {
	g.Phase = PhaseCombat
	amount := a.Amount
	if amount == 0 {
		amount = p.Combat
	}
	target := g.Players[a.Target]

	if a.Base != 0 {
		inst := g.cards[a.Base]
		def, _ := cat.Lookup(inst.CardID)
		spent := min(amount, def.Defense-inst.Damage)
		inst.Damage += spent
		p.Combat -= spent
		g.emit(Event{Kind: EventAttackResolved, Player: p.ID, Target: target.ID, CardID: def.ID, Instance: a.Base, Amount: spent})
		if inst.Damage >= def.Defense {
			target.Bases, _ = removeInstance(target.Bases, a.Base)
			target.Discard = append(target.Discard, a.Base)
			inst.Used, inst.Damage = false, 0
			g.place(a.Base, ZoneDiscard, target.ID)
			g.emit(Event{Kind: EventBaseDestroyed, Player: p.ID, Target: target.ID, CardID: def.ID, Instance: a.Base})
		}
		g.Phase = PhaseMain
		return
	}

	dmg := min(amount, target.Authority)
	p.Combat -= amount
	target.Authority -= dmg
	g.emit(Event{Kind: EventAttackResolved, Player: p.ID, Target: target.ID, Amount: dmg})
	g.Phase = PhaseMain
	if target.Authority <= 0 {
		target.Authority = 0
		target.Eliminated = true
		g.emit(Event{Kind: EventPlayerEliminated, Player: target.ID})
		g.end(p.ID)
	}
}

func (g *Game) setDrawOrder(p *Player, order []InstanceID) {
	first := order[0]
	p.Hand = append(p.Hand, first)
	g.place(first, ZoneHand, p.ID)
	for i := len(order) - 1; i >= 1; i-- {
		p.Deck = append(p.Deck, order[i])
		g.place(order[i], ZoneDeck, p.ID)
	}
	p.Pending = nil
	g.Phase = PhaseMain
	g.emit(Event{Kind: EventDrawOrdered, Player: p.ID, Amount: len(order)})
	g.emit(Event{Kind: EventCardsDrawn, Player: p.ID, Amount: 1})
}

func (g *Game) endTurn(p *Player) {
	g.Phase = PhaseCleanup
	for _, id := range p.Hand {
		g.place(id, ZoneDiscard, p.ID)
	}
	for _, id := range p.InPlay {
		g.place(id, ZoneDiscard, p.ID)
	}
	p.Discard = append(p.Discard, p.Hand...)
	p.Discard = append(p.Discard, p.InPlay...)
	p.Hand, p.InPlay = nil, nil
	p.Trade, p.Combat = 0, 0
	for _, pl := range g.Players {
		for _, id := range pl.Bases {
			g.cards[id].Used = false
			g.cards[id].Damage = 0
		}
	}
	g.draw(p, p.HandSize)

	g.Active = g.nextActive(p.ID)
	g.Turn++
	g.Phase = PhaseMain
	g.emit(Event{Kind: EventTurnAdvanced, Player: g.Active})
}

func (g *Game) forfeit(p *Player) {
	p.Eliminated = true
	g.emit(Event{Kind: EventPlayerForfeited, Player: p.ID})
	g.end(g.leader())
}
