package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"deckduel/internal/domain"
	"deckduel/internal/storage/sqlite"
)

func TestFinishedGamesReachTheArchive(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "games.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	m := newTestManager(t)
	m.Subscribe(NewArchiver(store, zerolog.Nop()))
	ctx := context.Background()

	id, _ := startedSession(t, m, "alice", "bob")
	if _, err := m.Dispatch(ctx, id, "alice", domain.EndTurn{}); err != nil {
		t.Fatalf("end turn: %v", err)
	}
	if _, err := m.Dispatch(ctx, id, "bob", domain.Forfeit{}); err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	// Shutdown drains the subscriber queues.
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	games, err := store.RecentGames(ctx, 10)
	if err != nil {
		t.Fatalf("recent games: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected one archived game, got %d", len(games))
	}
	got := games[0]
	if got.SessionID != id || got.Winner != 0 || got.WinnerID != "alice" || got.Turns != 2 {
		t.Fatalf("unexpected record %+v", got)
	}
	events, err := store.Events(ctx, id)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) == 0 || events[len(events)-1].Kind != domain.EventGameEnded {
		t.Fatalf("archived log should end with the game ending, got %d events", len(events))
	}
}

func TestCreateWithSessionID(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, "alice", WithSessionID("match-7"), WithPrivate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "match-7" {
		t.Fatalf("id = %q, want match-7", id)
	}
	if _, err := m.Create(ctx, "bob", WithSessionID("match-7")); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}
	info, err := m.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !info.Private || info.Host != "alice" {
		t.Fatalf("unexpected info %+v", info)
	}
}
