package domain

// Validate reports whether player may perform action on g. It never mutates g and
// returns a *Rejection for every illegal action. Checks run in a fixed order:
// turn ownership, game over, phase, payload shape, resources, then targets.
func Validate(g *Game, cat Catalog, player int, action Action) error {
	if action == nil {
		return reject(CodeMalformedPayload, "missing action")
	}
	p, ok := g.Player(player)
	if !ok {
		return reject(CodeInvalidTarget, "player %d is not seated", player)
	}
	if _, ok := action.(Forfeit); !ok && !g.Finished && g.Active != player {
		return reject(CodeNotYourTurn, "player %d is active", g.Active)
	}
	if g.Finished {
		return reject(CodeGameAlreadyFinished, "game is over")
	}

	switch a := action.(type) {
	case PlayCard:
		return validatePlayCard(g, cat, p, a)
	case BuyCard:
		return validateBuyCard(g, cat, p, a)
	case Attack:
		return validateAttack(g, cat, p, a)
	case SetDrawOrder:
		return validateSetDrawOrder(g, p, a)
	case EndTurn:
		return requirePhase(g, a, PhaseMain)
	case ScrapCard:
		return validateScrapCard(g, cat, p, a)
	case UseBase:
		return validateUseBase(g, cat, p, a)
	case Forfeit:
		if p.Eliminated {
			return reject(CodeInvalidTarget, "player %d is eliminated", p.ID)
		}
		return nil
	default:
		return reject(CodeMalformedPayload, "unknown action %T", action)
	}
}

func requirePhase(g *Game, a Action, phases ...Phase) error {
	for _, ph := range phases {
		if g.Phase == ph {
			return nil
		}
	}
	return reject(CodeWrongPhase, "%s not allowed in %s", a.Kind(), g.Phase)
}

func validatePlayCard(g *Game, cat Catalog, p *Player, a PlayCard) error {
	if err := requirePhase(g, a, PhaseMain); err != nil {
		return err
	}
	if a.Instance == 0 {
		return reject(CodeMalformedPayload, "instance is required")
	}
	if !containsInstance(p.Hand, a.Instance) {
		return reject(CodeUnknownCardInstance, "instance %d is not in hand", a.Instance)
	}
	if _, ok := g.def(cat, a.Instance); !ok {
		return reject(CodeUnknownCardInstance, "instance %d has no card definition", a.Instance)
	}
	return nil
}

func validateBuyCard(g *Game, cat Catalog, p *Player, a BuyCard) error {
	if err := requirePhase(g, a, PhaseMain); err != nil {
		return err
	}
	if a.Slot < 0 || a.Slot >= len(g.TradeRow) {
		return reject(CodeMalformedPayload, "slot %d out of range", a.Slot)
	}
	id := g.TradeRow[a.Slot]
	if id == 0 {
		return reject(CodeInvalidTarget, "slot %d is empty", a.Slot)
	}
	def, ok := g.def(cat, id)
	if !ok {
		return reject(CodeUnknownCardInstance, "instance %d has no card definition", id)
	}
	if p.Trade < def.Cost {
		return reject(CodeInsufficientResource, "%s costs %d, have %d", def.ID, def.Cost, p.Trade)
	}
	return nil
}

func validateAttack(g *Game, cat Catalog, p *Player, a Attack) error {
	if err := requirePhase(g, a, PhaseMain, PhaseCombat); err != nil {
		return err
	}
	if a.Amount < 0 || a.Base < 0 {
		return reject(CodeMalformedPayload, "negative attack payload")
	}
	if p.Combat == 0 {
		return reject(CodeInsufficientResource, "no combat to spend")
	}
	if a.Amount > p.Combat {
		return reject(CodeInsufficientResource, "attack of %d exceeds combat %d", a.Amount, p.Combat)
	}
	target, ok := g.Player(a.Target)
	if !ok || a.Target == p.ID || target.Eliminated {
		return reject(CodeInvalidTarget, "player %d cannot be attacked", a.Target)
	}
	outpost := g.HasOutpost(cat, a.Target)
	if a.Base == 0 {
		if outpost {
			return reject(CodeInvalidTarget, "player %d is protected by an outpost", a.Target)
		}
		return nil
	}
	inst, ok := g.cards[a.Base]
	if !ok {
		return reject(CodeUnknownCardInstance, "instance %d does not exist", a.Base)
	}
	if inst.Owner != a.Target || inst.Zone != ZoneBase {
		return reject(CodeInvalidTarget, "instance %d is not a base of player %d", a.Base, a.Target)
	}
	def, ok := cat.Lookup(inst.CardID)
	if !ok {
		return reject(CodeUnknownCardInstance, "instance %d has no card definition", a.Base)
	}
	if outpost && def.Type != CardTypeOutpost {
		return reject(CodeInvalidTarget, "outposts must be destroyed first")
	}
	return nil
}

func validateSetDrawOrder(g *Game, p *Player, a SetDrawOrder) error {
	if err := requirePhase(g, a, PhaseDrawOrder); err != nil {
		return err
	}
	if len(a.Order) == 0 {
		return reject(CodeMalformedPayload, "order is empty")
	}
	seen := make(map[InstanceID]struct{}, len(a.Order))
	for _, id := range a.Order {
		if _, dup := seen[id]; dup {
			return reject(CodeMalformedPayload, "instance %d listed twice", id)
		}
		seen[id] = struct{}{}
	}
	if len(a.Order) != len(p.Pending) {
		return reject(CodeInvalidTarget, "order must list the %d pending cards", len(p.Pending))
	}
	for _, id := range p.Pending {
		if _, ok := seen[id]; !ok {
			return reject(CodeInvalidTarget, "pending instance %d missing from order", id)
		}
	}
	return nil
}

func validateScrapCard(g *Game, cat Catalog, p *Player, a ScrapCard) error {
	if err := requirePhase(g, a, PhaseMain); err != nil {
		return err
	}
	if a.Instance == 0 {
		return reject(CodeMalformedPayload, "instance is required")
	}
	if !containsInstance(p.InPlay, a.Instance) && !containsInstance(p.Bases, a.Instance) {
		return reject(CodeUnknownCardInstance, "instance %d is not in play", a.Instance)
	}
	def, ok := g.def(cat, a.Instance)
	if !ok {
		return reject(CodeUnknownCardInstance, "instance %d has no card definition", a.Instance)
	}
	if len(def.ScrapEffects) == 0 {
		return reject(CodeInvalidTarget, "%s has no scrap ability", def.ID)
	}
	return nil
}

func validateUseBase(g *Game, cat Catalog, p *Player, a UseBase) error {
	if err := requirePhase(g, a, PhaseMain); err != nil {
		return err
	}
	if a.Instance == 0 {
		return reject(CodeMalformedPayload, "instance is required")
	}
	if !containsInstance(p.Bases, a.Instance) {
		return reject(CodeUnknownCardInstance, "instance %d is not one of your bases", a.Instance)
	}
	if _, ok := g.def(cat, a.Instance); !ok {
		return reject(CodeUnknownCardInstance, "instance %d has no card definition", a.Instance)
	}
	if g.cards[a.Instance].Used {
		return reject(CodeInvalidTarget, "base %d already used this turn", a.Instance)
	}
	return nil
}
