package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"deckduel/internal/domain"
	"deckduel/internal/view"
)

func sessionEnded() error {
	return &domain.Rejection{Code: domain.CodeGameAlreadyFinished, Message: "session has ended"}
}

// Dispatch applies an action from identity to a session. Rejections come back as
// *domain.Rejection and leave the session untouched. On success every participant
// gets a view of the new state.
func (m *Manager) Dispatch(ctx context.Context, id, identity string, action domain.Action) (res Result, err error) {
	ctx, span := m.tracer.Start(ctx, "Manager.Dispatch", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.String("identity", identity),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if action == nil {
		return Result{}, ErrMalformedAction
	}
	span.SetAttributes(attribute.String("action", string(action.Kind())))

	s, err := m.lookup(id)
	if err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lifecycle == LifecycleFinished || s.ctx.Err() != nil {
		return Result{}, sessionEnded()
	}
	if s.lifecycle == LifecycleWaiting {
		return Result{}, ErrNotStarted
	}
	seat := s.seat(identity)
	if seat < 0 {
		return Result{}, ErrNotSeated
	}

	next, events, err := domain.Apply(s.game, s.catalog, seat, action)
	if err != nil {
		if errors.Is(err, domain.ErrInvariant) {
			m.fail(s, err)
			return Result{}, err
		}
		if r, ok := domain.AsRejection(err); ok {
			m.logger.Debug().Str("session_id", id).Str("identity", identity).
				Str("action", string(action.Kind())).Str("code", string(r.Code)).Msg("action rejected")
		}
		return Result{}, err
	}

	// End may have been called while the action was being applied.
	if s.ctx.Err() != nil {
		return Result{}, sessionEnded()
	}

	s.game = next
	if next.Finished {
		s.lifecycle = LifecycleFinished
		s.finishedAt = m.now()
		s.cancel()
		m.logger.Info().Str("session_id", id).Int("winner", next.Winner).Int("turns", next.Turn).Msg("game finished")
	}

	views, err := s.project(ctx, false)
	if err != nil {
		return Result{}, fmt.Errorf("project views: %w", err)
	}
	m.bus.publish(s.notification(events, m.now()))
	return Result{Events: events, Views: views, Version: next.Version, Finished: next.Finished}, nil
}

// fail ends a session whose state broke an invariant. The caller holds s.mu.
func (m *Manager) fail(s *session, cause error) {
	s.cancel()
	s.failure = cause.Error()
	s.game = domain.Finish(s.game, domain.NoWinner)
	s.lifecycle = LifecycleFinished
	s.finishedAt = m.now()
	m.logger.Error().Err(cause).Str("session_id", s.id).Msg("session failed")
	m.bus.publish(s.notification(nil, m.now()))
}

// End finishes a session from outside the rules. winner is a seat, or nil for no
// winner. Ending a finished session is a no-op.
func (m *Manager) End(ctx context.Context, id string, winner *int) error {
	_, span := m.tracer.Start(ctx, "Manager.End", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	if winner != nil && (*winner < 0 || *winner >= int(s.seats.Load())) {
		return ErrInvalidWinner
	}

	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lifecycle == LifecycleFinished {
		return nil
	}
	w := domain.NoWinner
	if winner != nil {
		w = *winner
	}
	var events []domain.Event
	if s.game != nil {
		start := len(s.game.Events)
		s.game = domain.Finish(s.game, w)
		events = slices.Clone(s.game.Events[start:])
	}
	s.lifecycle = LifecycleFinished
	s.finishedAt = m.now()
	m.logger.Info().Str("session_id", id).Int("winner", w).Msg("session ended")
	m.bus.publish(s.notification(events, m.now()))
	return nil
}

// View returns a full snapshot for identity, used to resync a client. Later
// deltas for identity are computed against it.
func (m *Manager) View(ctx context.Context, id, identity string) (view.Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return view.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.game == nil {
		return view.Snapshot{}, ErrNotStarted
	}
	seat := s.seat(identity)
	if seat < 0 {
		if !slices.Contains(s.spectators, identity) {
			return view.Snapshot{}, ErrNotSeated
		}
		seat = view.Spectator
	}
	snap := view.Project(s.game, s.catalog, seat)
	s.sentMu.Lock()
	s.lastSent[identity] = sentView{snapshot: snap}
	s.sentMu.Unlock()
	return snap, nil
}

// Views returns the current view for every participant, as deltas where a
// participant already holds an older snapshot.
func (m *Manager) Views(ctx context.Context, id string) ([]RecipientView, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.game == nil {
		return nil, ErrNotStarted
	}
	return s.project(ctx, false)
}
