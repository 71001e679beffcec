// Package view projects a game into what one viewer is allowed to see.
package view

import "deckduel/internal/domain"

// Spectator is the viewer id for a spectator. Spectators see no hands.
const Spectator = -1

// CardView is the public face of a card instance.
type CardView struct {
	Instance domain.InstanceID `json:"instance"`
	CardID   string            `json:"cardId"`
	Name     string            `json:"name"`
	Faction  string            `json:"faction,omitempty"`
	Cost     int               `json:"cost"`
	Type     domain.CardType   `json:"type"`
}

// BaseView is a base in play with its per-turn state.
type BaseView struct {
	CardView
	Defense int  `json:"defense"`
	Damage  int  `json:"damage"`
	Used    bool `json:"used"`
}

// PlayerView is one player as seen by the viewer. Hand and Pending are only
// enumerated for the viewer's own seat.
type PlayerView struct {
	ID           int        `json:"id"`
	Authority    int        `json:"authority"`
	Trade        int        `json:"trade"`
	Combat       int        `json:"combat"`
	HandCount    int        `json:"handCount"`
	Hand         []CardView `json:"hand,omitempty"`
	PendingCount int        `json:"pendingCount"`
	Pending      []CardView `json:"pending,omitempty"`
	DeckCount    int        `json:"deckCount"`
	DiscardCount int        `json:"discardCount"`
	InPlay       []CardView `json:"inPlay"`
	Bases        []BaseView `json:"bases"`
	Eliminated   bool       `json:"eliminated"`
}

// Snapshot is a full redacted view of a game at one version.
type Snapshot struct {
	Version        uint64         `json:"version"`
	Viewer         int            `json:"viewer"`
	Turn           int            `json:"turn"`
	Active         int            `json:"active"`
	Phase          domain.Phase   `json:"phase"`
	Finished       bool           `json:"finished"`
	Winner         int            `json:"winner"`
	Players        []PlayerView   `json:"players"`
	TradeRow       []CardView     `json:"tradeRow"` // zero value marks an empty slot
	TradeDeckCount int            `json:"tradeDeckCount"`
	ScrapCount     int            `json:"scrapCount"`
	Events         []domain.Event `json:"events"`
}

// Project builds the snapshot of g for viewer, a player id or Spectator. It only
// reads g and is safe to call concurrently for different viewers.
func Project(g *domain.Game, cat domain.Catalog, viewer int) Snapshot {
	s := Snapshot{
		Version:        g.Version,
		Viewer:         viewer,
		Turn:           g.Turn,
		Active:         g.Active,
		Phase:          g.Phase,
		Finished:       g.Finished,
		Winner:         g.Winner,
		Players:        make([]PlayerView, len(g.Players)),
		TradeRow:       make([]CardView, len(g.TradeRow)),
		TradeDeckCount: len(g.TradeDeck),
		ScrapCount:     len(g.Scrap),
		Events:         publicEvents(g.Events),
	}
	for i, p := range g.Players {
		pv := PlayerView{
			ID:           p.ID,
			Authority:    p.Authority,
			Trade:        p.Trade,
			Combat:       p.Combat,
			HandCount:    len(p.Hand),
			PendingCount: len(p.Pending),
			DeckCount:    len(p.Deck),
			DiscardCount: len(p.Discard),
			InPlay:       cards(g, cat, p.InPlay),
			Bases:        make([]BaseView, 0, len(p.Bases)),
			Eliminated:   p.Eliminated,
		}
		if p.ID == viewer {
			pv.Hand = cards(g, cat, p.Hand)
			pv.Pending = cards(g, cat, p.Pending)
		}
		for _, id := range p.Bases {
			inst, _ := g.Instance(id)
			def, _ := cat.Lookup(inst.CardID)
			pv.Bases = append(pv.Bases, BaseView{
				CardView: card(g, cat, id),
				Defense:  def.Defense,
				Damage:   inst.Damage,
				Used:     inst.Used,
			})
		}
		s.Players[i] = pv
	}
	for slot, id := range g.TradeRow {
		if id != 0 {
			s.TradeRow[slot] = card(g, cat, id)
		}
	}
	return s
}

// publicEvents copies the log without instance ids. A card that was public when an
// event was recorded can later sit in a hand.
func publicEvents(events []domain.Event) []domain.Event {
	out := make([]domain.Event, len(events))
	for i, e := range events {
		e.Instance = 0
		out[i] = e
	}
	return out
}

func cards(g *domain.Game, cat domain.Catalog, ids []domain.InstanceID) []CardView {
	out := make([]CardView, 0, len(ids))
	for _, id := range ids {
		out = append(out, card(g, cat, id))
	}
	return out
}

func card(g *domain.Game, cat domain.Catalog, id domain.InstanceID) CardView {
	inst, _ := g.Instance(id)
	cv := CardView{Instance: id, CardID: inst.CardID}
	if def, ok := cat.Lookup(inst.CardID); ok {
		cv.Name = def.Name
		cv.Faction = def.Faction
		cv.Cost = def.Cost
		cv.Type = def.Type
	}
	return cv
}
