package domain

// ActionKind is the wire name of an action.
type ActionKind string

const (
	ActionPlayCard     ActionKind = "play_card"
	ActionBuyCard      ActionKind = "buy_card"
	ActionAttack       ActionKind = "attack"
	ActionSetDrawOrder ActionKind = "set_draw_order"
	ActionEndTurn      ActionKind = "end_turn"
	ActionScrapCard    ActionKind = "scrap_card"
	ActionUseBase      ActionKind = "use_base"
	ActionForfeit      ActionKind = "forfeit"
)

// Action is a player intent. The set of implementations is closed to this package.
type Action interface {
	Kind() ActionKind
	action()
}

// PlayCard plays an instance from the acting player's hand.
type PlayCard struct {
	Instance InstanceID
}

// BuyCard buys the card in the given trade-row slot.
type BuyCard struct {
	Slot int
}

// Attack spends combat against an opponent or one of their bases. An Amount of
// zero spends the whole combat pool. Base is zero when the player is targeted.
type Attack struct {
	Target int
	Base   InstanceID
	Amount int
}

// SetDrawOrder orders the pending draw set. Order[0] is drawn into hand and the
// rest go back on the deck so that Order[1] is the next draw.
type SetDrawOrder struct {
	Order []InstanceID
}

// EndTurn runs cleanup and passes the turn.
type EndTurn struct{}

// ScrapCard removes an in-play card from the game for its scrap effects.
type ScrapCard struct {
	Instance InstanceID
}

// UseBase activates a base for this turn.
type UseBase struct {
	Instance InstanceID
}

// Forfeit concedes the game.
type Forfeit struct{}

func (PlayCard) Kind() ActionKind     { return ActionPlayCard }
func (BuyCard) Kind() ActionKind      { return ActionBuyCard }
func (Attack) Kind() ActionKind       { return ActionAttack }
func (SetDrawOrder) Kind() ActionKind { return ActionSetDrawOrder }
func (EndTurn) Kind() ActionKind      { return ActionEndTurn }
func (ScrapCard) Kind() ActionKind    { return ActionScrapCard }
func (UseBase) Kind() ActionKind      { return ActionUseBase }
func (Forfeit) Kind() ActionKind      { return ActionForfeit }

func (PlayCard) action()     {}
func (BuyCard) action()      {}
func (Attack) action()       {}
func (SetDrawOrder) action() {}
func (EndTurn) action()      {}
func (ScrapCard) action()    {}
func (UseBase) action()      {}
func (Forfeit) action()      {}
