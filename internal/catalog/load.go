package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"deckduel/internal/domain"
)

//go:embed default_cards.toml
var defaultCards []byte

type cardFile struct {
	Cards []cardRecord `toml:"card" json:"cards"`
}

type cardRecord struct {
	ID           string          `toml:"id" json:"id"`
	Name         string          `toml:"name" json:"name"`
	Faction      string          `toml:"faction" json:"faction"`
	Cost         int             `toml:"cost" json:"cost"`
	Type         domain.CardType `toml:"type" json:"type"`
	Defense      int             `toml:"defense" json:"defense"`
	Effects      []domain.Effect `toml:"effects" json:"effects"`
	AllyEffects  []domain.Effect `toml:"ally_effects" json:"allyEffects"`
	ScrapEffects []domain.Effect `toml:"scrap_effects" json:"scrapEffects"`
}

func (r cardRecord) def() domain.CardDef {
	return domain.CardDef{
		ID:           r.ID,
		Name:         r.Name,
		Faction:      r.Faction,
		Cost:         r.Cost,
		Type:         r.Type,
		Effects:      r.Effects,
		AllyEffects:  r.AllyEffects,
		ScrapEffects: r.ScrapEffects,
		Defense:      r.Defense,
	}
}

// Load reads a catalog file. Files ending in .json are decoded as JSON, anything
// else as TOML.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	format := "toml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	c, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog document in the given format ("toml" or "json").
func Parse(data []byte, format string) (*Catalog, error) {
	var f cardFile
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	defs := make([]domain.CardDef, 0, len(f.Cards))
	for _, r := range f.Cards {
		defs = append(defs, r.def())
	}
	return New(defs)
}

// Default returns the built-in card set.
func Default() (*Catalog, error) {
	return Parse(defaultCards, "toml")
}

// MustDefault is Default for package initialisation and tests.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}
