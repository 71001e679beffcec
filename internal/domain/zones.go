package domain

// InstanceID identifies one card instance for the lifetime of a game. Zero is never assigned.
type InstanceID int

// NoOwner marks instances held by the shared containers (trade deck, trade row, scrap pile).
const NoOwner = -1

// Zone is the container a card instance currently occupies.
type Zone string

const (
	ZoneDeck      Zone = "deck"
	ZoneHand      Zone = "hand"
	ZoneDiscard   Zone = "discard"
	ZoneInPlay    Zone = "in_play"
	ZoneBase      Zone = "base"
	ZonePending   Zone = "pending"
	ZoneTradeDeck Zone = "trade_deck"
	ZoneTradeRow  Zone = "trade_row"
	ZoneScrapped  Zone = "scrapped"
)

// CardInstance is one physical occurrence of a card definition.
type CardInstance struct {
	ID     InstanceID
	CardID string
	Zone   Zone
	Owner  int
	Used   bool // bases: activated this turn
	Damage int  // bases: damage taken this turn
}

// removeInstance removes the first occurrence of id, keeping the order of the rest.
func removeInstance(list []InstanceID, id InstanceID) ([]InstanceID, bool) {
	for i, v := range list {
		if v == id {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}

func containsInstance(list []InstanceID, id InstanceID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
