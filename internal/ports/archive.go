package ports

import (
	"context"
	"time"

	"deckduel/internal/domain"
)

// GameRecord is the archived summary of a finished game.
type GameRecord struct {
	SessionID string
	Players   []string
	// Winner is the winning seat, or domain.NoWinner.
	Winner     int
	WinnerID   string
	Failure    string
	Turns      int
	Version    uint64
	FinishedAt time.Time
	Events     []domain.Event
}

// ArchivePort stores finished games.
type ArchivePort interface {
	// SaveGame writes a record. Saving the same session twice replaces the earlier record.
	SaveGame(ctx context.Context, rec GameRecord) error
}
