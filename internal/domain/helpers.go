package domain

// resolve applies effects in declared order for player p.
func (g *Game) resolve(p *Player, effects []Effect) {
	for _, e := range effects {
		switch e.Kind {
		case EffectTrade:
			p.Trade += e.Amount
		case EffectCombat:
			p.Combat += e.Amount
		case EffectAuthority:
			p.Authority += e.Amount
		case EffectDraw:
			g.draw(p, e.Amount)
		case EffectScout:
			g.scout(p, e.Amount)
		}
	}
}

// resolveCard applies a card's own effects, then its ally effects when another card of
// the same faction is in play for p at this instant.
func (g *Game) resolveCard(cat Catalog, p *Player, id InstanceID, def CardDef) {
	g.resolve(p, def.Effects)
	if len(def.AllyEffects) > 0 && g.hasAlly(cat, p, id, def.Faction) {
		g.resolve(p, def.AllyEffects)
	}
	g.settlePending(p)
}

// hasAlly reports whether p has a card other than self of the given faction in play.
func (g *Game) hasAlly(cat Catalog, p *Player, self InstanceID, faction string) bool {
	if faction == "" {
		return false
	}
	for _, zone := range [][]InstanceID{p.InPlay, p.Bases} {
		for _, id := range zone {
			if id == self {
				continue
			}
			if def, ok := g.def(cat, id); ok && def.Faction == faction {
				return true
			}
		}
	}
	return false
}

// livingPlayers returns the ids of players that are not eliminated.
func (g *Game) livingPlayers() []int {
	var out []int
	for _, p := range g.Players {
		if !p.Eliminated {
			out = append(out, p.ID)
		}
	}
	return out
}

// nextActive returns the next non-eliminated seat after from, wrapping around.
func (g *Game) nextActive(from int) int {
	n := len(g.Players)
	for i := 1; i <= n; i++ {
		next := (from + i) % n
		if !g.Players[next].Eliminated {
			return next
		}
	}
	return from
}

// leader returns the living player with the most authority, lowest id on ties.
func (g *Game) leader() int {
	winner := NoWinner
	for _, id := range g.livingPlayers() {
		if winner == NoWinner || g.Players[id].Authority > g.Players[winner].Authority {
			winner = id
		}
	}
	return winner
}
