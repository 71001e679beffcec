// Package sqlite provides a SQLite-backed archive of finished games.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"deckduel/internal/domain"
	"deckduel/internal/ports"
)

//go:embed schema.sql
var schema string

// Store persists game records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ ports.ArchivePort = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the archive at path, creating the schema if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveGame writes the record and its event log in one transaction.
func (s *Store) SaveGame(ctx context.Context, rec ports.GameRecord) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(rec.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	players, err := json.Marshal(rec.Players)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO games (session_id, players, winner, winner_id, failure, turns, version, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			players = excluded.players,
			winner = excluded.winner,
			winner_id = excluded.winner_id,
			failure = excluded.failure,
			turns = excluded.turns,
			version = excluded.version,
			finished_at = excluded.finished_at`,
		rec.SessionID, string(players), rec.Winner, rec.WinnerID, rec.Failure, rec.Turns,
		int64(rec.Version), toMillis(rec.FinishedAt),
	); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM game_events WHERE session_id = ?`, rec.SessionID); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	for _, ev := range rec.Events {
		payload, mErr := json.Marshal(ev)
		if mErr != nil {
			err = fmt.Errorf("encode event %d: %w", ev.Seq, mErr)
			return err
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO game_events (session_id, seq, turn, kind, payload) VALUES (?, ?, ?, ?, ?)`,
			rec.SessionID, int64(ev.Seq), ev.Turn, string(ev.Kind), string(payload),
		); err != nil {
			return fmt.Errorf("insert event %d: %w", ev.Seq, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecentGames lists the most recently finished games, newest first. Events are not loaded.
func (s *Store) RecentGames(ctx context.Context, limit int) ([]ports.GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT session_id, players, winner, winner_id, failure, turns, version, finished_at
		FROM games ORDER BY finished_at DESC, session_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var out []ports.GameRecord
	for rows.Next() {
		var (
			rec      ports.GameRecord
			players  string
			version  int64
			finished int64
		)
		if err := rows.Scan(&rec.SessionID, &players, &rec.Winner, &rec.WinnerID, &rec.Failure,
			&rec.Turns, &version, &finished); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		if err := json.Unmarshal([]byte(players), &rec.Players); err != nil {
			return nil, fmt.Errorf("decode players of %s: %w", rec.SessionID, err)
		}
		rec.Version = uint64(version)
		rec.FinishedAt = fromMillis(finished)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Events returns the archived event log of a session in sequence order.
func (s *Store) Events(ctx context.Context, sessionID string) ([]domain.Event, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT payload FROM game_events WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var ev domain.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
