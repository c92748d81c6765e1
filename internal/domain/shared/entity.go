package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps for persisted rows
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity returns a BaseEntity with a random ID stamped now
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch bumps UpdatedAt
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// NewOrderedID returns a UUIDv7. IDs minted later in the same process compare
// greater, so (created_at, id) ordering follows insertion order.
func NewOrderedID() uuid.UUID {
	if id, err := uuid.NewV7(); err == nil {
		return id
	}
	return uuid.New()
}

// EventSource is an aggregate that buffers domain events until its
// transaction commits
type EventSource interface {
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot adds an optimistic-lock version and an event buffer.
// Truck loads, reconciliations, sales and allowances embed it.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	events  []DomainEvent
}

// NewBaseAggregateRoot returns a fresh aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// GetVersion returns the version read from storage
func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

// IncrementVersion is called by every state transition. Repositories update
// with WHERE version = old and fail with ErrConflict when nothing matched.
func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

// AddDomainEvent buffers ev
func (a *BaseAggregateRoot) AddDomainEvent(ev DomainEvent) {
	a.events = append(a.events, ev)
}

// GetDomainEvents returns the buffered events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.events }

// ClearDomainEvents empties the buffer
func (a *BaseAggregateRoot) ClearDomainEvents() { a.events = nil }

var _ EventSource = (*BaseAggregateRoot)(nil)
