package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"deckduel/internal/config"
	"deckduel/internal/domain"
	"deckduel/internal/ports"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionFull      = errors.New("session is full")
	ErrAlreadyStarted   = errors.New("session already started")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrAlreadyJoined    = errors.New("identity already in session")
	ErrNotSeated        = errors.New("identity is not seated in session")
	ErrNotStarted       = errors.New("session has not started")
	ErrMalformedAction  = errors.New("malformed action")
	ErrShuttingDown     = errors.New("manager is shutting down")
	ErrInvalidWinner    = errors.New("winner is not a seat of the session")
	ErrSessionFinished  = errors.New("session is finished")
	ErrInvalidIdentity  = errors.New("identity is required")
	ErrSessionExists    = errors.New("session id already in use")
)

// CatalogSource hands out the catalog new sessions are created with.
type CatalogSource interface {
	Current() domain.Catalog
}

// Manager owns every live session. It is safe for concurrent use.
type Manager struct {
	cfg      config.GameConfig
	catalogs CatalogSource
	logger   zerolog.Logger
	tracer   trace.Tracer
	newID    func() string
	seed     func() uint64
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
	closed   bool

	bus *bus
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithIDGenerator replaces the uuid session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// WithSeedSource sets where new games take their shuffle seed from.
func WithSeedSource(fn func() uint64) Option {
	return func(m *Manager) { m.seed = fn }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) { m.tracer = tracer }
}

// NewManager builds a Manager. cfg is copied; later changes to it do not affect
// the manager.
func NewManager(cfg *config.GameConfig, catalogs CatalogSource, opts ...Option) *Manager {
	m := &Manager{
		cfg:      *cfg,
		catalogs: catalogs,
		logger:   zerolog.Nop(),
		tracer:   otel.Tracer("deckduel/internal/app"),
		newID:    uuid.NewString,
		seed:     rand.Uint64,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.bus = newBus(m.cfg.SubscriberBuffer, m.logger)
	return m
}

// Subscribe registers a consumer of session notifications. The returned func
// unsubscribes it.
func (m *Manager) Subscribe(sub ports.EventSubscriber) func() {
	return m.bus.subscribe(sub)
}

// CreateOption configures a new session.
type CreateOption func(*session)

// WithPrivate hides the session from listings; joining needs an invite.
func WithPrivate() CreateOption {
	return func(s *session) { s.private = true }
}

// WithSessionID uses id instead of a generated one, so a session can share the id
// of the transport match that hosts it.
func WithSessionID(id string) CreateOption {
	return func(s *session) { s.id = id }
}

// Create opens a waiting session with host in seat 0.
func (m *Manager) Create(ctx context.Context, host string, opts ...CreateOption) (string, error) {
	_, span := m.tracer.Start(ctx, "Manager.Create")
	defer span.End()

	if strings.TrimSpace(host) == "" {
		return "", ErrInvalidIdentity
	}
	cat := m.catalogs.Current()
	if err := m.cfg.CheckCards(cat); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	sctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:        m.newID(),
		ctx:       sctx,
		cancel:    cancel,
		lifecycle: LifecycleWaiting,
		host:      host,
		players:   []string{host},
		catalog:   cat,
		settings:  m.cfg,
		createdAt: m.now(),
		lastSent:  make(map[string]sentView),
	}
	for _, opt := range opts {
		opt(s)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return "", ErrShuttingDown
	}
	if _, ok := m.sessions[s.id]; ok {
		m.mu.Unlock()
		cancel()
		return "", ErrSessionExists
	}
	m.sessions[s.id] = s
	m.mu.Unlock()

	span.SetAttributes(attribute.String("session.id", s.id))
	m.logger.Info().Str("session_id", s.id).Str("identity", host).Bool("private", s.private).Msg("session created")
	return s.id, nil
}

func (m *Manager) lookup(id string) (*session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Join seats identity in the next free seat of a waiting session.
func (m *Manager) Join(ctx context.Context, id, identity string) (int, error) {
	_, span := m.tracer.Start(ctx, "Manager.Join", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	if strings.TrimSpace(identity) == "" {
		return 0, ErrInvalidIdentity
	}
	s, err := m.lookup(id)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lifecycle != LifecycleWaiting {
		return 0, ErrAlreadyStarted
	}
	if slices.Contains(s.players, identity) || slices.Contains(s.spectators, identity) {
		return 0, ErrAlreadyJoined
	}
	if len(s.players) >= s.settings.MaxPlayers {
		return 0, ErrSessionFull
	}
	s.players = append(s.players, identity)
	seat := len(s.players) - 1
	m.logger.Info().Str("session_id", id).Str("identity", identity).Int("seat", seat).Msg("player joined")
	return seat, nil
}

// Leave removes identity from a session. Players may only leave before the game
// starts; the next seated player becomes host and an empty session is removed.
// Spectators may leave at any time.
func (m *Manager) Leave(ctx context.Context, id, identity string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if i := slices.Index(s.spectators, identity); i >= 0 {
		s.spectators = slices.Delete(s.spectators, i, i+1)
		s.forget(identity)
		s.mu.Unlock()
		return nil
	}
	i := slices.Index(s.players, identity)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotSeated
	}
	if s.lifecycle != LifecycleWaiting {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.players = slices.Delete(s.players, i, i+1)
	empty := len(s.players) == 0
	if !empty && s.host == identity {
		s.host = s.players[0]
		m.logger.Info().Str("session_id", id).Str("identity", s.host).Msg("host handed over")
	}
	s.mu.Unlock()

	if empty {
		m.Remove(ctx, id)
	}
	return nil
}

// AddSpectator lets identity watch a session that has not finished.
func (m *Manager) AddSpectator(ctx context.Context, id, identity string) error {
	if strings.TrimSpace(identity) == "" {
		return ErrInvalidIdentity
	}
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lifecycle == LifecycleFinished {
		return ErrSessionFinished
	}
	if slices.Contains(s.players, identity) || slices.Contains(s.spectators, identity) {
		return ErrAlreadyJoined
	}
	s.spectators = append(s.spectators, identity)
	return nil
}

// Start deals the opening hands. Every participant receives a full snapshot.
func (m *Manager) Start(ctx context.Context, id string) (Result, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.Start", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	s, err := m.lookup(id)
	if err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lifecycle != LifecycleWaiting {
		return Result{}, ErrAlreadyStarted
	}
	if len(s.players) < s.settings.MinPlayers {
		return Result{}, ErrNotEnoughPlayers
	}
	game, err := domain.NewGame(s.settings.Setup(len(s.players), m.seed()), s.catalog)
	if err != nil {
		return Result{}, fmt.Errorf("start session %s: %w", id, err)
	}
	s.game = game
	s.seats.Store(int32(len(s.players)))
	s.lifecycle = LifecyclePlaying

	views, err := s.project(ctx, true)
	if err != nil {
		return Result{}, err
	}
	m.logger.Info().Str("session_id", id).Int("players", len(s.players)).Msg("game started")
	m.bus.publish(s.notification(game.Events, m.now()))
	return Result{Events: slices.Clone(game.Events), Views: views, Version: game.Version}, nil
}

// SessionInfo summarizes a session for lobby listings.
type SessionInfo struct {
	ID         string
	Lifecycle  Lifecycle
	Host       string
	Players    []string
	Spectators []string
	MaxPlayers int
	OpenSeats  int
	Private    bool
	Version    uint64
	Turn       int
	Winner     int
	Failure    string
	CreatedAt  time.Time
}

// Get returns the summary of one session.
func (m *Manager) Get(id string) (SessionInfo, error) {
	s, err := m.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info(), nil
}

// List returns public sessions, oldest first. Private ones are included only
// when includePrivate is set.
func (m *Manager) List(includePrivate bool) []SessionInfo {
	m.mu.RLock()
	all := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	out := make([]SessionInfo, 0, len(all))
	for _, s := range all {
		s.mu.RLock()
		info := s.info()
		s.mu.RUnlock()
		if info.Private && !includePrivate {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Remove drops a session from the registry and cancels it.
func (m *Manager) Remove(ctx context.Context, id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.cancel()
		m.logger.Debug().Str("session_id", id).Msg("session removed")
	}
}

// Reap removes finished sessions that ended more than olderThan ago and returns
// how many were removed.
func (m *Manager) Reap(olderThan time.Duration) int {
	cutoff := m.now().Add(-olderThan)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		s.mu.RLock()
		expired := s.lifecycle == LifecycleFinished && !s.finishedAt.After(cutoff)
		s.mu.RUnlock()
		if expired {
			delete(m.sessions, id)
			s.cancel()
			n++
		}
	}
	if n > 0 {
		m.logger.Debug().Int("removed", n).Msg("reaped finished sessions")
	}
	return n
}

// Shutdown ends every running session, stops accepting new ones and waits for
// subscribers to drain.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := m.End(ctx, id, nil); err != nil && !errors.Is(err, ErrSessionNotFound) {
			errs = append(errs, fmt.Errorf("end %s: %w", id, err))
		}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownGrace)
		defer cancel()
	}
	if err := m.bus.close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain subscribers: %w", err))
	}
	m.logger.Info().Int("sessions", len(ids)).Msg("manager shut down")
	return errors.Join(errs...)
}
