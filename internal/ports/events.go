package ports

import (
	"context"
	"time"

	"deckduel/internal/domain"
)

// Notification is published after every committed change to a session. Consumers
// such as narrative generation or the archive receive it asynchronously and can
// never hold up the action path.
type Notification struct {
	SessionID string
	Version   uint64
	Events    []domain.Event
	// Players lists the seated identities in seat order.
	Players []string
	// Final marks the last notification of a session.
	Final  bool
	Winner int
	// Log is the complete event log, set on the final notification only.
	Log []domain.Event
	// Failure is set when the session was ended by an internal error.
	Failure string
	Time    time.Time
}

// EventSubscriber consumes session notifications.
type EventSubscriber interface {
	// Notify handles one notification. It runs on the subscriber's own goroutine.
	Notify(ctx context.Context, n Notification)
}
