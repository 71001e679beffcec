package view

import (
	"slices"

	"deckduel/internal/domain"
)

// Delta carries only what changed between two snapshots of the same viewer.
// Nil fields are unchanged.
type Delta struct {
	FromVersion    uint64           `json:"fromVersion"`
	Version        uint64           `json:"version"`
	Turn           *int             `json:"turn,omitempty"`
	Active         *int             `json:"active,omitempty"`
	Phase          *domain.Phase    `json:"phase,omitempty"`
	Finished       *bool            `json:"finished,omitempty"`
	Winner         *int             `json:"winner,omitempty"`
	Players        []PlayerDelta    `json:"players,omitempty"`
	TradeRow       map[int]CardView `json:"tradeRow,omitempty"`
	TradeDeckCount *int             `json:"tradeDeckCount,omitempty"`
	ScrapCount     *int             `json:"scrapCount,omitempty"`
	Events         []domain.Event   `json:"events,omitempty"`
}

// PlayerDelta holds the changed fields of one player.
type PlayerDelta struct {
	ID           int         `json:"id"`
	Authority    *int        `json:"authority,omitempty"`
	Trade        *int        `json:"trade,omitempty"`
	Combat       *int        `json:"combat,omitempty"`
	HandCount    *int        `json:"handCount,omitempty"`
	Hand         *[]CardView `json:"hand,omitempty"`
	PendingCount *int        `json:"pendingCount,omitempty"`
	Pending      *[]CardView `json:"pending,omitempty"`
	DeckCount    *int        `json:"deckCount,omitempty"`
	DiscardCount *int        `json:"discardCount,omitempty"`
	InPlay       *[]CardView `json:"inPlay,omitempty"`
	Bases        *[]BaseView `json:"bases,omitempty"`
	Eliminated   *bool       `json:"eliminated,omitempty"`
}

// Empty reports whether the delta carries no changes.
func (d Delta) Empty() bool {
	return d.Turn == nil && d.Active == nil && d.Phase == nil && d.Finished == nil &&
		d.Winner == nil && len(d.Players) == 0 && len(d.TradeRow) == 0 &&
		d.TradeDeckCount == nil && d.ScrapCount == nil && len(d.Events) == 0
}

func changed[T comparable](prev, cur T) *T {
	if prev == cur {
		return nil
	}
	return &cur
}

func changedSlice[T comparable](prev, cur []T) *[]T {
	if slices.Equal(prev, cur) {
		return nil
	}
	out := slices.Clone(cur)
	return &out
}

// Diff returns the delta that turns prev into cur. Both must be projections for
// the same viewer of the same game, with prev not newer than cur.
func Diff(prev, cur Snapshot) Delta {
	d := Delta{
		FromVersion:    prev.Version,
		Version:        cur.Version,
		Turn:           changed(prev.Turn, cur.Turn),
		Active:         changed(prev.Active, cur.Active),
		Phase:          changed(prev.Phase, cur.Phase),
		Finished:       changed(prev.Finished, cur.Finished),
		Winner:         changed(prev.Winner, cur.Winner),
		TradeDeckCount: changed(prev.TradeDeckCount, cur.TradeDeckCount),
		ScrapCount:     changed(prev.ScrapCount, cur.ScrapCount),
	}
	for i, cp := range cur.Players {
		pp := prev.Players[i]
		pd := PlayerDelta{
			ID:           cp.ID,
			Authority:    changed(pp.Authority, cp.Authority),
			Trade:        changed(pp.Trade, cp.Trade),
			Combat:       changed(pp.Combat, cp.Combat),
			HandCount:    changed(pp.HandCount, cp.HandCount),
			Hand:         changedSlice(pp.Hand, cp.Hand),
			PendingCount: changed(pp.PendingCount, cp.PendingCount),
			Pending:      changedSlice(pp.Pending, cp.Pending),
			DeckCount:    changed(pp.DeckCount, cp.DeckCount),
			DiscardCount: changed(pp.DiscardCount, cp.DiscardCount),
			InPlay:       changedSlice(pp.InPlay, cp.InPlay),
			Bases:        changedSlice(pp.Bases, cp.Bases),
			Eliminated:   changed(pp.Eliminated, cp.Eliminated),
		}
		if pd != (PlayerDelta{ID: cp.ID}) {
			d.Players = append(d.Players, pd)
		}
	}
	for slot, cv := range cur.TradeRow {
		if prev.TradeRow[slot] != cv {
			if d.TradeRow == nil {
				d.TradeRow = make(map[int]CardView)
			}
			d.TradeRow[slot] = cv
		}
	}
	if len(cur.Events) > len(prev.Events) {
		d.Events = slices.Clone(cur.Events[len(prev.Events):])
	}
	return d
}

// Apply reconstructs the newer snapshot from prev. prev is not modified.
func (d Delta) Apply(prev Snapshot) Snapshot {
	s := prev
	s.Version = d.Version
	s.Players = slices.Clone(prev.Players)
	s.TradeRow = slices.Clone(prev.TradeRow)
	s.Events = append(slices.Clone(prev.Events), d.Events...)
	set(&s.Turn, d.Turn)
	set(&s.Active, d.Active)
	set(&s.Phase, d.Phase)
	set(&s.Finished, d.Finished)
	set(&s.Winner, d.Winner)
	set(&s.TradeDeckCount, d.TradeDeckCount)
	set(&s.ScrapCount, d.ScrapCount)
	for _, pd := range d.Players {
		for i := range s.Players {
			if s.Players[i].ID != pd.ID {
				continue
			}
			p := &s.Players[i]
			set(&p.Authority, pd.Authority)
			set(&p.Trade, pd.Trade)
			set(&p.Combat, pd.Combat)
			set(&p.HandCount, pd.HandCount)
			setSlice(&p.Hand, pd.Hand)
			set(&p.PendingCount, pd.PendingCount)
			setSlice(&p.Pending, pd.Pending)
			set(&p.DeckCount, pd.DeckCount)
			set(&p.DiscardCount, pd.DiscardCount)
			setSlice(&p.InPlay, pd.InPlay)
			setSlice(&p.Bases, pd.Bases)
			set(&p.Eliminated, pd.Eliminated)
		}
	}
	for slot, cv := range d.TradeRow {
		if slot >= 0 && slot < len(s.TradeRow) {
			s.TradeRow[slot] = cv
		}
	}
	return s
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setSlice[T any](dst *[]T, v *[]T) {
	if v != nil {
		*dst = slices.Clone(*v)
	}
}
