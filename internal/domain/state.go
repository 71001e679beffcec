package domain

import (
	"maps"
	"math/rand/v2"
	"slices"
)

// Phase is the step of the active player's turn.
type Phase string

const (
	// PhaseDrawOrder waits for the active player to order a pending draw set.
	PhaseDrawOrder Phase = "DRAW_ORDER"
	// PhaseMain is the re-entrant phase where cards are played and bought.
	PhaseMain Phase = "MAIN"
	// PhaseCombat is held while an attack resolves.
	PhaseCombat Phase = "COMBAT"
	// PhaseCleanup is held while the turn is wrapped up.
	PhaseCleanup Phase = "CLEANUP"
)

// NoWinner is the Winner of a game that is running or ended without one.
const NoWinner = -1

// Player holds the per-seat state of a game.
type Player struct {
	ID         int
	Authority  int
	Trade      int
	Combat     int
	Deck       []InstanceID // last element is the top of the deck
	Hand       []InstanceID
	Discard    []InstanceID
	InPlay     []InstanceID // ships played this turn
	Bases      []InstanceID
	Pending    []InstanceID // draw set waiting for an order
	HandSize   int
	Eliminated bool
}

func (p *Player) clone() *Player {
	cp := *p
	cp.Deck = slices.Clone(p.Deck)
	cp.Hand = slices.Clone(p.Hand)
	cp.Discard = slices.Clone(p.Discard)
	cp.InPlay = slices.Clone(p.InPlay)
	cp.Bases = slices.Clone(p.Bases)
	cp.Pending = slices.Clone(p.Pending)
	return &cp
}

// Game is the full authoritative state of one match.
type Game struct {
	Turn      int
	Active    int
	Phase     Phase
	Players   []*Player
	TradeRow  []InstanceID // fixed capacity, 0 marks an empty slot
	TradeDeck []InstanceID // last element is the top
	Scrap     []InstanceID
	Finished  bool
	Winner    int
	Events    []Event
	Version   uint64

	cards  map[InstanceID]*CardInstance
	nextID InstanceID
	rng    rand.PCG
}

// Clone returns a deep copy that shares nothing mutable with g.
func (g *Game) Clone() *Game {
	cp := *g
	cp.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		cp.Players[i] = p.clone()
	}
	cp.TradeRow = slices.Clone(g.TradeRow)
	cp.TradeDeck = slices.Clone(g.TradeDeck)
	cp.Scrap = slices.Clone(g.Scrap)
	cp.Events = slices.Clone(g.Events)
	cp.cards = make(map[InstanceID]*CardInstance, len(g.cards))
	for id, inst := range g.cards {
		c := *inst
		cp.cards[id] = &c
	}
	return &cp
}

// Player returns the player with the given id.
func (g *Game) Player(id int) (*Player, bool) {
	if id < 0 || id >= len(g.Players) {
		return nil, false
	}
	return g.Players[id], true
}

// Instance returns a copy of the card instance with the given id.
func (g *Game) Instance(id InstanceID) (CardInstance, bool) {
	inst, ok := g.cards[id]
	if !ok {
		return CardInstance{}, false
	}
	return *inst, true
}

// InstanceCount returns the number of card instances that exist in the game.
func (g *Game) InstanceCount() int {
	return len(g.cards)
}

// InstanceIDs returns every instance id in ascending order.
func (g *Game) InstanceIDs() []InstanceID {
	return slices.Sorted(maps.Keys(g.cards))
}

// ActivePlayer returns the player whose turn it is.
func (g *Game) ActivePlayer() *Player {
	return g.Players[g.Active]
}

// HasOutpost reports whether the player has an undestroyed outpost in play.
func (g *Game) HasOutpost(cat Catalog, playerID int) bool {
	p, ok := g.Player(playerID)
	if !ok {
		return false
	}
	for _, id := range p.Bases {
		if def, ok := g.def(cat, id); ok && def.Type == CardTypeOutpost {
			return true
		}
	}
	return false
}

func (g *Game) def(cat Catalog, id InstanceID) (CardDef, bool) {
	inst, ok := g.cards[id]
	if !ok {
		return CardDef{}, false
	}
	return cat.Lookup(inst.CardID)
}

func (g *Game) newInstance(cardID string, zone Zone, owner int) InstanceID {
	g.nextID++
	g.cards[g.nextID] = &CardInstance{ID: g.nextID, CardID: cardID, Zone: zone, Owner: owner}
	return g.nextID
}

func (g *Game) place(id InstanceID, zone Zone, owner int) {
	inst := g.cards[id]
	inst.Zone = zone
	inst.Owner = owner
}

func (g *Game) emit(ev Event) {
	ev.Seq = uint64(len(g.Events)) + 1
	ev.Turn = g.Turn
	g.Events = append(g.Events, ev)
}
