package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"deckduel/internal/ports"
)

type blockingSubscriber struct {
	release chan struct{}
	mu      sync.Mutex
	count   int
}

func (b *blockingSubscriber) Notify(context.Context, ports.Notification) {
	<-b.release
	b.mu.Lock()
	b.count++
	b.mu.Unlock()
}

func TestBusDropsWhenSubscriberFallsBehind(t *testing.T) {
	b := newBus(1, zerolog.Nop())
	sub := &blockingSubscriber{release: make(chan struct{})}
	b.subscribe(sub)

	for i := 0; i < 5; i++ {
		b.publish(ports.Notification{SessionID: "s", Version: uint64(i)})
	}
	close(sub.release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if sub.count < 1 || sub.count >= 5 {
		t.Fatalf("expected some notifications dropped, handled %d", sub.count)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	b := newBus(4, zerolog.Nop())
	rec := &recorder{}
	unsubscribe := b.subscribe(rec)
	b.publish(ports.Notification{SessionID: "s", Final: true})
	unsubscribe()
	unsubscribe()
	b.publish(ports.Notification{SessionID: "s", Final: true})

	if err := b.close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := len(rec.finals()); got != 1 {
		t.Fatalf("expected 1 notification before unsubscribe, got %d", got)
	}
	if stop := b.subscribe(rec); stop == nil {
		t.Fatalf("subscribe after close should return a no-op")
	}
}
