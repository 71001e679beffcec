package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"deckduel/internal/domain"
)

// DeckEntry is a card id and how many copies of it a deck holds.
type DeckEntry struct {
	CardID string `json:"card_id"`
	Count  int    `json:"count"`
}

// GameConfig holds server and game settings. It is read once at startup; each
// session copies what it needs when it is created.
type GameConfig struct {
	MinPlayers        int         `json:"min_players" env:"DECKDUEL_MIN_PLAYERS"`
	MaxPlayers        int         `json:"max_players" env:"DECKDUEL_MAX_PLAYERS"`
	StartingAuthority int         `json:"starting_authority" env:"DECKDUEL_STARTING_AUTHORITY"`
	HandSize          int         `json:"hand_size" env:"DECKDUEL_HAND_SIZE"`
	FirstHandSize     int         `json:"first_hand_size" env:"DECKDUEL_FIRST_HAND_SIZE"`
	TradeRowSize      int         `json:"trade_row_size" env:"DECKDUEL_TRADE_ROW_SIZE"`
	StartingDeck      []DeckEntry `json:"starting_deck"`
	TradeDeck         []DeckEntry `json:"trade_deck"`

	// CatalogPath points at a card file. Empty means the built-in set.
	CatalogPath  string `json:"catalog_path" env:"DECKDUEL_CATALOG_PATH"`
	WatchCatalog bool   `json:"watch_catalog" env:"DECKDUEL_WATCH_CATALOG"`
	// ArchivePath is the SQLite file finished games are written to. Empty disables the archive.
	ArchivePath string `json:"archive_path" env:"DECKDUEL_ARCHIVE_PATH"`
	LogLevel    string `json:"log_level" env:"DECKDUEL_LOG_LEVEL"`

	InviteSecret     string `json:"invite_secret" env:"DECKDUEL_INVITE_SECRET"`
	InviteIssuer     string `json:"invite_issuer" env:"DECKDUEL_INVITE_ISSUER"`
	InviteTTLSeconds int    `json:"invite_ttl_seconds" env:"DECKDUEL_INVITE_TTL_SECONDS"`

	FinishedRetentionSeconds int     `json:"finished_retention_seconds" env:"DECKDUEL_FINISHED_RETENTION_SECONDS"`
	ActionRatePerSecond      float64 `json:"action_rate_per_second" env:"DECKDUEL_ACTION_RATE_PER_SECOND"`
	ActionBurst              int     `json:"action_burst" env:"DECKDUEL_ACTION_BURST"`
	SubscriberBuffer         int     `json:"subscriber_buffer" env:"DECKDUEL_SUBSCRIBER_BUFFER"`
	TickRate                 int     `json:"tick_rate" env:"DECKDUEL_TICK_RATE"`
	EmptyTimeoutSeconds      int     `json:"empty_timeout_seconds" env:"DECKDUEL_EMPTY_TIMEOUT_SECONDS"`

	OTLPEndpoint string `json:"otlp_endpoint" env:"DECKDUEL_OTLP_ENDPOINT"`
}

var ErrInvalidConfig = errors.New("invalid game config")

// Default returns the settings used when no file is given.
func Default() *GameConfig {
	return &GameConfig{
		MinPlayers:        2,
		MaxPlayers:        4,
		StartingAuthority: 50,
		HandSize:          5,
		FirstHandSize:     3,
		TradeRowSize:      5,
		StartingDeck: []DeckEntry{
			{CardID: "scout", Count: 8},
			{CardID: "viper", Count: 2},
		},
		TradeDeck: []DeckEntry{
			{CardID: "explorer", Count: 4},
			{CardID: "wolf_pack", Count: 3},
			{CardID: "dire_bear", Count: 2},
			{CardID: "stag_warden", Count: 1},
			{CardID: "guild_trader", Count: 3},
			{CardID: "caravan", Count: 2},
			{CardID: "guild_hall", Count: 1},
			{CardID: "forge_drone", Count: 3},
			{CardID: "forge_golem", Count: 2},
			{CardID: "iron_bastion", Count: 1},
			{CardID: "mystic_seer", Count: 3},
			{CardID: "oracle_spire", Count: 1},
		},
		LogLevel:                 "info",
		InviteIssuer:             "deckduel",
		InviteTTLSeconds:         900,
		FinishedRetentionSeconds: 600,
		ActionRatePerSecond:      5,
		ActionBurst:              10,
		SubscriberBuffer:         64,
		TickRate:                 5,
		EmptyTimeoutSeconds:      60,
	}
}

// LoadGameConfig reads a JSON config file on top of the defaults. Keys missing
// from the file keep their default values.
func LoadGameConfig(path string) (*GameConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables. A nil environment
// means the process environment; the Nakama runtime passes its own map.
func ApplyEnv(cfg *GameConfig, environment map[string]string) error {
	opts := env.Options{}
	if environment != nil {
		opts.Environment = environment
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks that the settings describe a playable game.
func (c *GameConfig) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(c.MinPlayers >= 1, "min_players must be at least 1")
	check(c.MaxPlayers >= c.MinPlayers, "max_players must be >= min_players")
	check(c.StartingAuthority > 0, "starting_authority must be positive")
	check(c.HandSize > 0, "hand_size must be positive")
	check(c.FirstHandSize >= 0 && c.FirstHandSize <= c.HandSize, "first_hand_size must be between 0 and hand_size")
	check(c.TradeRowSize >= 0, "trade_row_size must not be negative")
	check(deckSize(c.StartingDeck) > 0, "starting_deck is empty")
	for _, e := range append(append([]DeckEntry{}, c.StartingDeck...), c.TradeDeck...) {
		check(e.CardID != "" && e.Count > 0, "deck entry %q needs a card id and a positive count", e.CardID)
	}
	check(c.InviteTTLSeconds > 0, "invite_ttl_seconds must be positive")
	check(c.ActionRatePerSecond > 0 && c.ActionBurst > 0, "action rate and burst must be positive")
	check(c.SubscriberBuffer > 0, "subscriber_buffer must be positive")
	check(c.TickRate > 0, "tick_rate must be positive")
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// CheckCards reports deck entries whose card id the catalog does not know.
func (c *GameConfig) CheckCards(cat domain.Catalog) error {
	for _, e := range append(append([]DeckEntry{}, c.StartingDeck...), c.TradeDeck...) {
		if _, ok := cat.Lookup(e.CardID); !ok {
			return fmt.Errorf("%w: deck references unknown card %q", ErrInvalidConfig, e.CardID)
		}
	}
	return nil
}

// Setup builds the game settings for a session with the given number of players.
func (c *GameConfig) Setup(players int, seed uint64) domain.Setup {
	return domain.Setup{
		Players:           players,
		StartingAuthority: c.StartingAuthority,
		HandSize:          c.HandSize,
		FirstHandSize:     c.FirstHandSize,
		TradeRowSize:      c.TradeRowSize,
		StartingDeck:      expand(c.StartingDeck),
		TradeDeck:         expand(c.TradeDeck),
		Seed:              seed,
	}
}

func (c *GameConfig) InviteTTL() time.Duration {
	return time.Duration(c.InviteTTLSeconds) * time.Second
}

func (c *GameConfig) FinishedRetention() time.Duration {
	return time.Duration(c.FinishedRetentionSeconds) * time.Second
}

func expand(entries []DeckEntry) []string {
	out := make([]string, 0, deckSize(entries))
	for _, e := range entries {
		for i := 0; i < e.Count; i++ {
			out = append(out, e.CardID)
		}
	}
	return out
}

func deckSize(entries []DeckEntry) int {
	n := 0
	for _, e := range entries {
		n += e.Count
	}
	return n
}
