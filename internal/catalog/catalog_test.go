package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"deckduel/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	for _, id := range []string{"scout", "viper", "dire_bear", "guild_hall"} {
		if _, ok := c.Lookup(id); !ok {
			t.Fatalf("default catalog is missing %q", id)
		}
	}
	bear, _ := c.Lookup("dire_bear")
	if bear.Name != "Dire Bear" || bear.Faction != "wild" || bear.Cost != 4 {
		t.Fatalf("unexpected definition %+v", bear)
	}
	if len(bear.Effects) != 1 || bear.Effects[0] != (domain.Effect{Kind: domain.EffectCombat, Amount: 5}) {
		t.Fatalf("unexpected effects %+v", bear.Effects)
	}
	hall, _ := c.Lookup("guild_hall")
	if hall.Type != domain.CardTypeOutpost || hall.Defense != 5 {
		t.Fatalf("unexpected outpost %+v", hall)
	}
	if c.Len() != len(c.IDs()) {
		t.Fatalf("Len and IDs disagree")
	}
}

func TestNewRejectsBadDefinitions(t *testing.T) {
	ship := domain.CardDef{ID: "a", Type: domain.CardTypeShip}
	tests := []struct {
		name string
		defs []domain.CardDef
		want error
	}{
		{"empty", nil, ErrEmptyCatalog},
		{"missing id", []domain.CardDef{{Type: domain.CardTypeShip}}, ErrInvalidCard},
		{"unknown type", []domain.CardDef{{ID: "a", Type: "planet"}}, ErrInvalidCard},
		{"negative cost", []domain.CardDef{{ID: "a", Type: domain.CardTypeShip, Cost: -1}}, ErrInvalidCard},
		{"base without defense", []domain.CardDef{{ID: "a", Type: domain.CardTypeBase}}, ErrInvalidCard},
		{"ship with defense", []domain.CardDef{{ID: "a", Type: domain.CardTypeShip, Defense: 2}}, ErrInvalidCard},
		{"unknown effect", []domain.CardDef{{ID: "a", Type: domain.CardTypeShip, Effects: []domain.Effect{{Kind: "heal", Amount: 1}}}}, ErrInvalidCard},
		{"negative effect", []domain.CardDef{{ID: "a", Type: domain.CardTypeShip, ScrapEffects: []domain.Effect{{Kind: domain.EffectTrade, Amount: -2}}}}, ErrInvalidCard},
		{"duplicate", []domain.CardDef{ship, ship}, ErrDuplicateCard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.defs); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

const jsonCatalog = `{"cards": [
	{"id": "spark", "name": "Spark", "type": "ship", "effects": [{"kind": "combat", "amount": 2}]},
	{"id": "keep", "name": "Keep", "type": "outpost", "cost": 3, "defense": 4, "allyEffects": [{"kind": "trade", "amount": 1}]}
]}`

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	if err := os.WriteFile(path, []byte(jsonCatalog), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	keep, ok := c.Lookup("keep")
	if !ok || keep.Defense != 4 || len(keep.AllyEffects) != 1 {
		t.Fatalf("unexpected definition %+v", keep)
	}
}

func TestLoadReportsParseErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.toml")
	if err := os.WriteFile(path, []byte("[[card]\nid = "), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected a parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected a read error")
	}
}

const oneCard = `
[[card]]
id = "scout"
name = "Scout"
type = "ship"
effects = [{ kind = "trade", amount = 1 }]
`

const twoCards = oneCard + `
[[card]]
id = "viper"
name = "Viper"
type = "ship"
effects = [{ kind = "combat", amount = 1 }]
`

func TestWatcherReloadKeepsLastGoodCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.toml")
	if err := os.WriteFile(path, []byte(oneCard), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w, err := NewWatcher(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	captured := w.Current()

	if err := os.WriteFile(path, []byte(twoCards), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if _, ok := w.Current().Lookup("viper"); !ok {
		t.Fatalf("reload did not pick up the new card")
	}
	if _, ok := captured.Lookup("viper"); ok {
		t.Fatalf("a captured catalog must not change")
	}

	if err := os.WriteFile(path, []byte("not toml ["), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Reload(); err == nil {
		t.Fatalf("expected reload error")
	}
	if _, ok := w.Current().Lookup("viper"); !ok {
		t.Fatalf("failed reload should keep the previous catalog")
	}
}

func TestWatcherRunPicksUpWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.toml")
	if err := os.WriteFile(path, []byte(oneCard), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w, err := NewWatcher(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run: %v", err)
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		// Rewrite until the watcher is registered and sees the change.
		if err := os.WriteFile(path, []byte(twoCards), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, ok := w.Current().Lookup("viper"); ok {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("watcher never reloaded the catalog")
}
