package domain

import (
	"reflect"
	"testing"
)

type mapCatalog map[string]CardDef

func (c mapCatalog) Lookup(id string) (CardDef, bool) {
	def, ok := c[id]
	return def, ok
}

var testCatalog = mapCatalog{
	"scout":     {ID: "scout", Name: "Scout", Type: CardTypeShip, Effects: []Effect{{EffectTrade, 1}}},
	"viper":     {ID: "viper", Name: "Viper", Type: CardTypeShip, Effects: []Effect{{EffectCombat, 1}}},
	"blob_wing": {ID: "blob_wing", Name: "Blob Wing", Faction: "blob", Cost: 1, Type: CardTypeShip, Effects: []Effect{{EffectCombat, 3}}, AllyEffects: []Effect{{EffectCombat, 2}}},
	"trade_pod": {ID: "trade_pod", Name: "Trade Pod", Faction: "blob", Cost: 2, Type: CardTypeShip, Effects: []Effect{{EffectTrade, 3}}, AllyEffects: []Effect{{EffectCombat, 2}}},
	"explorer":  {ID: "explorer", Name: "Explorer", Cost: 2, Type: CardTypeShip, Effects: []Effect{{EffectTrade, 2}}, ScrapEffects: []Effect{{EffectCombat, 2}}},
	"seer":      {ID: "seer", Name: "Seer", Faction: "mystic", Cost: 3, Type: CardTypeShip, Effects: []Effect{{EffectScout, 2}}},
	"wall":      {ID: "wall", Name: "Wall", Cost: 3, Type: CardTypeOutpost, Defense: 4, Effects: []Effect{{EffectTrade, 1}}},
	"barracks":  {ID: "barracks", Name: "Barracks", Faction: "blob", Cost: 3, Type: CardTypeBase, Defense: 5, Effects: []Effect{{EffectCombat, 2}}},
	"dire_bear": {ID: "dire_bear", Name: "Dire Bear", Faction: "wild", Cost: 5, Type: CardTypeShip, Effects: []Effect{{EffectCombat, 8}}},
	"courier":   {ID: "courier", Name: "Courier", Cost: 3, Type: CardTypeShip, Effects: []Effect{{EffectDraw, 1}, {EffectTrade, 1}}},
}

func testSetup() Setup {
	return Setup{
		Players:           2,
		StartingAuthority: 10,
		HandSize:          5,
		FirstHandSize:     3,
		TradeRowSize:      5,
		StartingDeck:      []string{"scout", "scout", "scout", "scout", "scout", "scout", "scout", "scout", "viper", "viper"},
		TradeDeck: []string{
			"blob_wing", "blob_wing", "trade_pod", "trade_pod", "explorer", "explorer",
			"seer", "seer", "wall", "barracks", "dire_bear", "courier",
		},
		Seed: 7,
	}
}

func newTestGame(t *testing.T) *Game {
	t.Helper()
	g, err := NewGame(testSetup(), testCatalog)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

// giveHand creates a new instance of cardID in the player's hand.
func giveHand(g *Game, player int, cardID string) InstanceID {
	id := g.newInstance(cardID, ZoneHand, player)
	g.Players[player].Hand = append(g.Players[player].Hand, id)
	return id
}

// giveBase creates a new instance of cardID among the player's bases.
func giveBase(g *Game, player int, cardID string) InstanceID {
	id := g.newInstance(cardID, ZoneBase, player)
	g.Players[player].Bases = append(g.Players[player].Bases, id)
	return id
}

// putTradeRow replaces the card in slot with a new instance of cardID. The previous
// occupant goes to the bottom of the trade deck.
func putTradeRow(g *Game, slot int, cardID string) InstanceID {
	if old := g.TradeRow[slot]; old != 0 {
		g.TradeDeck = append([]InstanceID{old}, g.TradeDeck...)
		g.place(old, ZoneTradeDeck, NoOwner)
	}
	id := g.newInstance(cardID, ZoneTradeRow, NoOwner)
	g.TradeRow[slot] = id
	return id
}

func mustApply(t *testing.T, g *Game, player int, a Action) (*Game, []Event) {
	t.Helper()
	next, events, err := Apply(g, testCatalog, player, a)
	if err != nil {
		t.Fatalf("Apply(%s) by %d: %v", a.Kind(), player, err)
	}
	return next, events
}

func requireRejected(t *testing.T, g *Game, player int, a Action, code RejectionCode) {
	t.Helper()
	before := g.Clone()
	next, events, err := Apply(g, testCatalog, player, a)
	r, ok := AsRejection(err)
	if !ok {
		t.Fatalf("Apply(%s): expected rejection %s, got %v", a.Kind(), code, err)
	}
	if r.Code != code {
		t.Fatalf("Apply(%s): expected %s, got %s (%s)", a.Kind(), code, r.Code, r.Message)
	}
	if next != g || len(events) != 0 {
		t.Fatalf("rejected action returned new state or events")
	}
	if !reflect.DeepEqual(before, g) {
		t.Fatalf("rejected action mutated the game")
	}
}

func eventKinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestRemoveInstanceKeepsOrder(t *testing.T) {
	list := []InstanceID{4, 5, 6, 7}
	out, ok := removeInstance(list, 5)
	if !ok {
		t.Fatalf("expected removal")
	}
	if !reflect.DeepEqual(out, []InstanceID{4, 6, 7}) {
		t.Fatalf("unexpected list %v", out)
	}
	if !reflect.DeepEqual(list, []InstanceID{4, 5, 6, 7}) {
		t.Fatalf("input was modified: %v", list)
	}
	if _, ok := removeInstance(out, 9); ok {
		t.Fatalf("removed an absent id")
	}
}

func TestLeaderPrefersLowestIDOnTies(t *testing.T) {
	g := newTestGame(t)
	g.Players = append(g.Players, &Player{ID: 2, Authority: 10})
	if got := g.leader(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	g.Players[2].Authority = 12
	if got := g.leader(); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	g.Players[2].Eliminated = true
	if got := g.leader(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
