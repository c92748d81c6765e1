// Package event dispatches domain events raised by committed ledger,
// truck load and reconciliation changes to in-process handlers.
package event

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dairy/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// routes is an immutable snapshot of the subscriptions. Subscribe and
// Unsubscribe swap in a new one so Publish never takes a lock.
type routes struct {
	byType map[string][]shared.EventHandler
	all    []shared.EventHandler
}

func (r *routes) handlersFor(eventType string) []shared.EventHandler {
	return append(slices.Clone(r.byType[eventType]), r.all...)
}

func (r *routes) count() int {
	seen := make(map[shared.EventHandler]struct{})
	for _, h := range r.all {
		seen[h] = struct{}{}
	}
	for _, hs := range r.byType {
		for _, h := range hs {
			seen[h] = struct{}{}
		}
	}
	return len(seen)
}

// InMemoryEventBus dispatches synchronously in the publishing goroutine.
// Services publish after their transaction commits, so a failing handler
// never rolls back a posting. Handlers run in subscription order; a handler
// error or panic is logged and counted, and the remaining handlers still run.
type InMemoryEventBus struct {
	mu       sync.Mutex
	routes   atomic.Pointer[routes]
	logger   *zap.Logger
	running  atomic.Bool
	failures atomic.Int64
}

// NewInMemoryEventBus creates a bus with no subscriptions
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	b := &InMemoryEventBus{logger: logger.Named("event_bus")}
	b.routes.Store(&routes{byType: map[string][]shared.EventHandler{}})
	return b
}

// Subscribe routes eventTypes to handler. With no types the handler's own
// EventTypes are used, and if those are empty too it receives every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.update(func(r *routes) {
		if len(eventTypes) == 0 {
			r.all = append(r.all, handler)
			return
		}
		for _, t := range eventTypes {
			r.byType[t] = append(r.byType[t], handler)
		}
	})
	b.logger.Debug("Handler subscribed",
		zap.String("handler", fmt.Sprintf("%T", handler)),
		zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes handler from every route
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	drop := func(h shared.EventHandler) bool { return h == handler }
	b.update(func(r *routes) {
		r.all = slices.DeleteFunc(r.all, drop)
		for t, hs := range r.byType {
			if hs = slices.DeleteFunc(hs, drop); len(hs) == 0 {
				delete(r.byType, t)
			} else {
				r.byType[t] = hs
			}
		}
	})
}

// update applies fn to a deep copy of the current routes and publishes it
func (b *InMemoryEventBus) update(fn func(*routes)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := b.routes.Load()
	next := &routes{
		byType: make(map[string][]shared.EventHandler, len(cur.byType)),
		all:    slices.Clone(cur.all),
	}
	for t, hs := range cur.byType {
		next.byType[t] = slices.Clone(hs)
	}
	fn(next)
	b.routes.Store(next)
}

// Publish delivers each event to its handlers. It always returns nil:
// handler failures are the handler's concern, not the publisher's.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	r := b.routes.Load()
	for _, ev := range events {
		for _, h := range r.handlersFor(ev.EventType()) {
			if err := dispatch(ctx, h, ev); err != nil {
				b.failures.Add(1)
				b.logger.Error("Event handler failed",
					zap.String("handler", fmt.Sprintf("%T", h)),
					zap.String("event_type", ev.EventType()),
					zap.String("event_id", ev.EventID().String()),
					zap.String("aggregate_id", ev.AggregateID().String()),
					zap.Error(err))
			}
		}
	}
	return nil
}

func dispatch(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

// Start marks the bus running
func (b *InMemoryEventBus) Start(context.Context) error {
	b.running.Store(true)
	b.logger.Info("Event bus started", zap.Int("handlers", b.routes.Load().count()))
	return nil
}

// Stop marks the bus stopped. Dispatch is synchronous so nothing is pending.
func (b *InMemoryEventBus) Stop(context.Context) error {
	b.running.Store(false)
	b.logger.Info("Event bus stopped", zap.Int64("handler_failures", b.failures.Load()))
	return nil
}

// Running reports whether Start was called without a matching Stop
func (b *InMemoryEventBus) Running() bool { return b.running.Load() }

// Failures counts handler invocations that returned an error or panicked
func (b *InMemoryEventBus) Failures() int64 { return b.failures.Load() }

var _ shared.EventBus = (*InMemoryEventBus)(nil)
