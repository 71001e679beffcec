// Package catalog provides the static card definitions games are played with.
package catalog

import (
	"errors"
	"fmt"
	"slices"

	"deckduel/internal/domain"
)

var (
	ErrInvalidCard   = errors.New("invalid card definition")
	ErrDuplicateCard = errors.New("duplicate card id")
	ErrEmptyCatalog  = errors.New("catalog has no cards")
)

// Catalog is an immutable set of card definitions. Definitions returned by Lookup
// share their effect slices with the catalog and must not be modified.
type Catalog struct {
	cards map[string]domain.CardDef
	ids   []string
}

// New validates defs and builds a catalog from them.
func New(defs []domain.CardDef) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{cards: make(map[string]domain.CardDef, len(defs))}
	for _, def := range defs {
		if err := validate(def); err != nil {
			return nil, err
		}
		if _, dup := c.cards[def.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCard, def.ID)
		}
		c.cards[def.ID] = def
		c.ids = append(c.ids, def.ID)
	}
	slices.Sort(c.ids)
	return c, nil
}

func validate(def domain.CardDef) error {
	switch {
	case def.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidCard)
	case !def.Type.Valid():
		return fmt.Errorf("%w: %q has unknown type %q", ErrInvalidCard, def.ID, def.Type)
	case def.Cost < 0:
		return fmt.Errorf("%w: %q has negative cost", ErrInvalidCard, def.ID)
	case def.Type.IsBase() && def.Defense <= 0:
		return fmt.Errorf("%w: base %q needs a defense", ErrInvalidCard, def.ID)
	case !def.Type.IsBase() && def.Defense != 0:
		return fmt.Errorf("%w: ship %q cannot have a defense", ErrInvalidCard, def.ID)
	}
	for _, effects := range [][]domain.Effect{def.Effects, def.AllyEffects, def.ScrapEffects} {
		for _, e := range effects {
			if !e.Kind.Valid() || e.Amount < 0 {
				return fmt.Errorf("%w: %q has bad effect %s %d", ErrInvalidCard, def.ID, e.Kind, e.Amount)
			}
		}
	}
	return nil
}

// Lookup returns the definition for cardID.
func (c *Catalog) Lookup(cardID string) (domain.CardDef, bool) {
	def, ok := c.cards[cardID]
	return def, ok
}

// IDs returns every card id in sorted order.
func (c *Catalog) IDs() []string {
	return slices.Clone(c.ids)
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// Current returns c. It lets a fixed catalog stand in wherever a reloadable one is accepted.
func (c *Catalog) Current() domain.Catalog {
	return c
}
