package domain

// CardType distinguishes ships, which are discarded at cleanup, from bases, which persist.
type CardType string

const (
	// CardTypeShip is played for its effects and discarded at the end of the turn.
	CardTypeShip CardType = "ship"
	// CardTypeBase stays in play until destroyed.
	CardTypeBase CardType = "base"
	// CardTypeOutpost is a base that must be destroyed before anything else of its owner can be attacked.
	CardTypeOutpost CardType = "outpost"
)

// IsBase reports whether the card stays in play after being played.
func (t CardType) IsBase() bool {
	return t == CardTypeBase || t == CardTypeOutpost
}

// Valid reports whether t is a known card type.
func (t CardType) Valid() bool {
	switch t {
	case CardTypeShip, CardTypeBase, CardTypeOutpost:
		return true
	default:
		return false
	}
}

// EffectKind names what an effect does when it resolves.
type EffectKind string

const (
	EffectTrade     EffectKind = "trade"     // add to the trade pool
	EffectCombat    EffectKind = "combat"    // add to the combat pool
	EffectAuthority EffectKind = "authority" // gain authority
	EffectDraw      EffectKind = "draw"      // draw cards
	// EffectScout sets the top cards of the deck aside; the player picks one to draw and
	// the order the rest go back on the deck.
	EffectScout EffectKind = "scout"
)

// Valid reports whether k is a known effect kind.
func (k EffectKind) Valid() bool {
	switch k {
	case EffectTrade, EffectCombat, EffectAuthority, EffectDraw, EffectScout:
		return true
	default:
		return false
	}
}

// Effect is a single resolvable effect of a card.
type Effect struct {
	Kind   EffectKind `json:"kind" toml:"kind"`
	Amount int        `json:"amount" toml:"amount"`
}

// CardDef is the immutable definition of a card. Game state only stores the ID.
type CardDef struct {
	ID           string
	Name         string
	Faction      string // empty for unaligned cards, which never trigger ally effects
	Cost         int
	Type         CardType
	Effects      []Effect
	AllyEffects  []Effect
	ScrapEffects []Effect
	Defense      int // bases only
}

// Catalog resolves card definitions by id.
type Catalog interface {
	Lookup(cardID string) (CardDef, bool)
}
