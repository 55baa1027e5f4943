// Package membus implements the message bus port as an in-process
// fan-out with synchronous delivery. This is the bus the scheduler,
// delegator, and responders share within one agent session; no network
// hop, no persistence.
package membus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Strob0t/Overseer/internal/domain"
	"github.com/Strob0t/Overseer/internal/port/bus"
)

// Bus implements bus.Bus with per-kind subscriber lists.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[bus.Kind]map[int]bus.Handler
}

// New creates an empty in-process bus.
func New() *Bus {
	return &Bus{subs: make(map[bus.Kind]map[int]bus.Handler)}
}

// Publish delivers msg synchronously to every subscriber of its kind, in
// the caller's goroutine. A panicking handler is contained and surfaces
// as an infrastructure fault; remaining subscribers still receive the
// message.
func (b *Bus) Publish(ctx context.Context, msg bus.Message) error {
	b.mu.RLock()
	handlers := make([]bus.Handler, 0, len(b.subs[msg.Kind]))
	for _, h := range b.subs[msg.Kind] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	var fault error
	for _, h := range handlers {
		if err := b.deliver(ctx, h, msg); err != nil {
			fault = err
		}
	}
	return fault
}

func (b *Bus) deliver(ctx context.Context, h bus.Handler, msg bus.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("bus handler panicked",
				"kind", msg.Kind,
				"correlation_id", msg.CorrelationID,
				"panic", r,
			)
			err = fmt.Errorf("bus handler panic on %s: %v: %w", msg.Kind, r, domain.ErrInfrastructure)
		}
	}()
	h(ctx, msg)
	return nil
}

// Subscribe registers a handler for the given kind. The returned cancel
// function is idempotent.
func (b *Bus) Subscribe(kind bus.Kind, handler bus.Handler) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.subs[kind] == nil {
		b.subs[kind] = make(map[int]bus.Handler)
	}
	b.subs[kind][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[kind], id)
	}
}

// SubscriberCount reports how many handlers listen for kind.
func (b *Bus) SubscriberCount(kind bus.Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}
