package domain

// EventKind names a state change recorded in the game log.
type EventKind string

const (
	EventGameStarted      EventKind = "game_started"
	EventTurnAdvanced     EventKind = "turn_advanced"
	EventCardPlayed       EventKind = "card_played"
	EventBaseUsed         EventKind = "base_used"
	EventCardBought       EventKind = "card_bought"
	EventTradeRowRefilled EventKind = "trade_row_refilled"
	EventAttackResolved   EventKind = "attack_resolved"
	EventBaseDestroyed    EventKind = "base_destroyed"
	EventCardScrapped     EventKind = "card_scrapped"
	EventCardsDrawn       EventKind = "cards_drawn"
	EventDrawOrdered      EventKind = "draw_ordered"
	EventDeckShuffled     EventKind = "deck_shuffled"
	EventPlayerEliminated EventKind = "player_eliminated"
	EventPlayerForfeited  EventKind = "player_forfeited"
	EventGameEnded        EventKind = "game_ended"
)

// Event is one entry of the append-only game log. Events only carry public
// information: draws are reported as counts, never as card ids.
type Event struct {
	Seq      uint64     `json:"seq"`
	Turn     int        `json:"turn"`
	Kind     EventKind  `json:"kind"`
	Player   int        `json:"player"`
	Target   int        `json:"target,omitempty"`
	CardID   string     `json:"cardId,omitempty"`
	Instance InstanceID `json:"instance,omitempty"`
	Amount   int        `json:"amount,omitempty"`
	Slot     int        `json:"slot,omitempty"`
}
