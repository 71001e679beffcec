package app

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"deckduel/internal/config"
	"deckduel/internal/domain"
	"deckduel/internal/ports"
	"deckduel/internal/view"
)

type session struct {
	id     string
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc

	lifecycle  Lifecycle
	host       string
	players    []string // seat order
	spectators []string
	private    bool

	game     *domain.Game
	seats    atomic.Int32 // set once at start, read by End without the lock
	catalog  domain.Catalog
	settings config.GameConfig

	failure    string
	createdAt  time.Time
	finishedAt time.Time

	// lastSent is the snapshot each recipient last received, the base of its next delta.
	sentMu   sync.Mutex
	lastSent map[string]sentView
}

type sentView struct {
	snapshot view.Snapshot
}

// RecipientView is what one participant receives after a change: a full
// snapshot or a delta against the previous one it was sent.
type RecipientView struct {
	Identity string
	// Seat is the player id, or view.Spectator.
	Seat     int
	Snapshot *view.Snapshot
	Delta    *view.Delta
}

// Result is the outcome of a committed change.
type Result struct {
	Events   []domain.Event
	Views    []RecipientView
	Version  uint64
	Finished bool
}

func (s *session) seat(identity string) int {
	return slices.Index(s.players, identity)
}

type recipient struct {
	identity string
	seat     int
}

func (s *session) recipients() []recipient {
	out := make([]recipient, 0, len(s.players)+len(s.spectators))
	for i, p := range s.players {
		out = append(out, recipient{identity: p, seat: i})
	}
	for _, sp := range s.spectators {
		out = append(out, recipient{identity: sp, seat: view.Spectator})
	}
	return out
}

func (s *session) forget(identity string) {
	s.sentMu.Lock()
	delete(s.lastSent, identity)
	s.sentMu.Unlock()
}

// project builds one view per recipient concurrently. Recipients that already hold
// a snapshot get a delta unless full is set. The caller holds s.mu.
func (s *session) project(ctx context.Context, full bool) ([]RecipientView, error) {
	rs := s.recipients()
	out := make([]RecipientView, len(rs))
	g, _ := errgroup.WithContext(ctx)
	for i, r := range rs {
		g.Go(func() error {
			snap := view.Project(s.game, s.catalog, r.seat)
			rv := RecipientView{Identity: r.identity, Seat: r.seat}

			s.sentMu.Lock()
			prev, ok := s.lastSent[r.identity]
			s.lastSent[r.identity] = sentView{snapshot: snap}
			s.sentMu.Unlock()

			if !full && ok && prev.snapshot.Viewer == r.seat && prev.snapshot.Version <= snap.Version {
				d := view.Diff(prev.snapshot, snap)
				rv.Delta = &d
			} else {
				rv.Snapshot = &snap
			}
			out[i] = rv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *session) info() SessionInfo {
	info := SessionInfo{
		ID:         s.id,
		Lifecycle:  s.lifecycle,
		Host:       s.host,
		Players:    slices.Clone(s.players),
		Spectators: slices.Clone(s.spectators),
		MaxPlayers: s.settings.MaxPlayers,
		Private:    s.private,
		Winner:     domain.NoWinner,
		Failure:    s.failure,
		CreatedAt:  s.createdAt,
	}
	if s.lifecycle == LifecycleWaiting {
		info.OpenSeats = max(0, s.settings.MaxPlayers-len(s.players))
	}
	if s.game != nil {
		info.Version = s.game.Version
		info.Turn = s.game.Turn
		info.Winner = s.game.Winner
	}
	return info
}

func (s *session) notification(events []domain.Event, now time.Time) ports.Notification {
	n := ports.Notification{
		SessionID: s.id,
		Events:    slices.Clone(events),
		Players:   slices.Clone(s.players),
		Winner:    domain.NoWinner,
		Failure:   s.failure,
		Time:      now,
	}
	if s.game != nil {
		n.Version = s.game.Version
		n.Winner = s.game.Winner
		if s.game.Finished {
			n.Final = true
			n.Log = slices.Clone(s.game.Events)
		}
	} else if s.lifecycle == LifecycleFinished {
		n.Final = true
	}
	return n
}
