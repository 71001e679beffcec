package domain

import "fmt"

// CheckInvariants verifies the structural rules of g: every instance sits in exactly
// one container matching its zone and owner tags, authority and resource pools are
// non-negative, and a running game has a living active player.
func CheckInvariants(g *Game) error {
	seen := make(map[InstanceID]struct{}, len(g.cards))
	check := func(ids []InstanceID, zone Zone, owner int) error {
		for _, id := range ids {
			inst, ok := g.cards[id]
			if !ok {
				return fmt.Errorf("%w: instance %d in %s of %d is not registered", ErrInvariant, id, zone, owner)
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("%w: instance %d appears in more than one zone", ErrInvariant, id)
			}
			seen[id] = struct{}{}
			if inst.Zone != zone || inst.Owner != owner {
				return fmt.Errorf("%w: instance %d tagged %s/%d but held in %s/%d",
					ErrInvariant, id, inst.Zone, inst.Owner, zone, owner)
			}
		}
		return nil
	}

	for i, p := range g.Players {
		if p.ID != i {
			return fmt.Errorf("%w: player at seat %d has id %d", ErrInvariant, i, p.ID)
		}
		if p.Authority < 0 || p.Trade < 0 || p.Combat < 0 {
			return fmt.Errorf("%w: player %d has a negative pool", ErrInvariant, p.ID)
		}
		zones := []struct {
			ids  []InstanceID
			zone Zone
		}{
			{p.Deck, ZoneDeck},
			{p.Hand, ZoneHand},
			{p.Discard, ZoneDiscard},
			{p.InPlay, ZoneInPlay},
			{p.Bases, ZoneBase},
			{p.Pending, ZonePending},
		}
		for _, z := range zones {
			if err := check(z.ids, z.zone, p.ID); err != nil {
				return err
			}
		}
	}

	var row []InstanceID
	for _, id := range g.TradeRow {
		if id != 0 {
			row = append(row, id)
		}
	}
	if err := check(row, ZoneTradeRow, NoOwner); err != nil {
		return err
	}
	if err := check(g.TradeDeck, ZoneTradeDeck, NoOwner); err != nil {
		return err
	}
	if err := check(g.Scrap, ZoneScrapped, NoOwner); err != nil {
		return err
	}
	if len(seen) != len(g.cards) {
		return fmt.Errorf("%w: %d instances registered but %d held", ErrInvariant, len(g.cards), len(seen))
	}

	if !g.Finished {
		active, ok := g.Player(g.Active)
		if !ok || active.Eliminated {
			return fmt.Errorf("%w: active player %d is not in the game", ErrInvariant, g.Active)
		}
		if len(active.Pending) > 0 && g.Phase != PhaseDrawOrder {
			return fmt.Errorf("%w: pending draws outside %s", ErrInvariant, PhaseDrawOrder)
		}
	}
	return nil
}
