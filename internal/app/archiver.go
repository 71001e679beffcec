package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"deckduel/internal/ports"
)

const archiveTimeout = 10 * time.Second

// Archiver stores every finished session through an ArchivePort.
type Archiver struct {
	store  ports.ArchivePort
	logger zerolog.Logger
}

var _ ports.EventSubscriber = (*Archiver)(nil)

func NewArchiver(store ports.ArchivePort, logger zerolog.Logger) *Archiver {
	return &Archiver{store: store, logger: logger}
}

// Notify saves the final notification of a session and ignores the rest.
func (a *Archiver) Notify(ctx context.Context, n ports.Notification) {
	if !n.Final {
		return
	}
	rec := ports.GameRecord{
		SessionID:  n.SessionID,
		Players:    n.Players,
		Winner:     n.Winner,
		Failure:    n.Failure,
		Version:    n.Version,
		FinishedAt: n.Time,
		Events:     n.Log,
	}
	if n.Winner >= 0 && n.Winner < len(n.Players) {
		rec.WinnerID = n.Players[n.Winner]
	}
	for _, ev := range n.Log {
		rec.Turns = max(rec.Turns, ev.Turn)
	}

	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()
	if err := a.store.SaveGame(ctx, rec); err != nil {
		a.logger.Error().Err(err).Str("session_id", n.SessionID).Msg("archive game")
		return
	}
	a.logger.Debug().Str("session_id", n.SessionID).Int("events", len(rec.Events)).Msg("game archived")
}
