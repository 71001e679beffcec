package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"deckduel/internal/ports"
)

// bus fans notifications out to subscribers. Each subscriber has its own buffered
// queue and goroutine; a full queue drops the notification instead of blocking
// the publisher.
type bus struct {
	mu     sync.RWMutex
	subs   map[int]chan ports.Notification
	next   int
	buffer int
	closed bool
	wg     sync.WaitGroup
	logger zerolog.Logger
}

func newBus(buffer int, logger zerolog.Logger) *bus {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &bus{subs: make(map[int]chan ports.Notification), buffer: buffer, logger: logger}
}

func (b *bus) subscribe(sub ports.EventSubscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := b.next
	b.next++
	ch := make(chan ports.Notification, b.buffer)
	b.subs[id] = ch

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for n := range ch {
			sub.Notify(context.Background(), n)
		}
	}()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
}

func (b *bus) publish(n ports.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- n:
		default:
			b.logger.Warn().Str("session_id", n.SessionID).Int("subscriber", id).
				Uint64("version", n.Version).Msg("subscriber queue full, notification dropped")
		}
	}
}

// close stops accepting subscribers and waits for queued notifications to be handled.
func (b *bus) close(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		for id, ch := range b.subs {
			delete(b.subs, id)
			close(ch)
		}
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
