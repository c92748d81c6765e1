package shared

import (
	"context"

	"github.com/dairy/backend/internal/domain/shared"
)

// EventCollector gathers domain events raised inside a transaction so they
// can be published only after it commits
type EventCollector struct {
	events []shared.DomainEvent
}

// Collect takes and clears the pending events of an aggregate
func (c *EventCollector) Collect(agg shared.EventSource) {
	c.events = append(c.events, agg.GetDomainEvents()...)
	agg.ClearDomainEvents()
}

// Add appends events raised outside an aggregate
func (c *EventCollector) Add(events ...shared.DomainEvent) {
	c.events = append(c.events, events...)
}

// Events returns the collected events
func (c *EventCollector) Events() []shared.DomainEvent {
	return c.events
}

// Reset drops collected events, used when a transaction rolls back
func (c *EventCollector) Reset() {
	c.events = nil
}

// PublishTo hands the collected events to the publisher. Handler failures
// are logged by the bus and never undo the committed transaction.
func (c *EventCollector) PublishTo(ctx context.Context, publisher shared.EventPublisher) {
	if publisher == nil || len(c.events) == 0 {
		return
	}
	_ = publisher.Publish(ctx, c.events...)
	c.events = nil
}
