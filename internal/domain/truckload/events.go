package truckload

import (
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeTruckLoadCreated    = "TruckLoadCreated"
	EventTypeTruckLoadReconciled = "TruckLoadReconciled"
	EventTypeTruckLoadDeleted    = "TruckLoadDeleted"
)

// TruckLoadCreatedEvent is raised when a load has been allocated
type TruckLoadCreatedEvent struct {
	shared.BaseDomainEvent
	TruckID     uuid.UUID       `json:"truck_id"`
	LoadDate    time.Time       `json:"load_date"`
	ItemCount   int             `json:"item_count"`
	TotalLoaded decimal.Decimal `json:"total_loaded"`
}

// NewTruckLoadCreatedEvent creates the event
func NewTruckLoadCreatedEvent(l *TruckLoad) *TruckLoadCreatedEvent {
	return &TruckLoadCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTruckLoadCreated, AggregateTypeTruckLoad, l.ID),
		TruckID:         l.TruckID,
		LoadDate:        l.LoadDate,
		ItemCount:       len(l.Items),
		TotalLoaded:     l.TotalLoaded(),
	}
}

// TruckLoadReconciledEvent is raised when a load is closed with its returns
type TruckLoadReconciledEvent struct {
	shared.BaseDomainEvent
	TruckID          uuid.UUID       `json:"truck_id"`
	LoadDate         time.Time       `json:"load_date"`
	TotalReturned    decimal.Decimal `json:"total_returned"`
	TotalLostDamaged decimal.Decimal `json:"total_lost_damaged"`
}

// NewTruckLoadReconciledEvent creates the event
func NewTruckLoadReconciledEvent(l *TruckLoad) *TruckLoadReconciledEvent {
	s := l.Summarize()
	return &TruckLoadReconciledEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeTruckLoadReconciled, AggregateTypeTruckLoad, l.ID),
		TruckID:          l.TruckID,
		LoadDate:         l.LoadDate,
		TotalReturned:    s.TotalReturned,
		TotalLostDamaged: s.TotalLostDamaged,
	}
}

// TruckLoadDeletedEvent is raised after a load was undone
type TruckLoadDeletedEvent struct {
	shared.BaseDomainEvent
	TruckID  uuid.UUID `json:"truck_id"`
	LoadDate time.Time `json:"load_date"`
}

// NewTruckLoadDeletedEvent creates the event
func NewTruckLoadDeletedEvent(l *TruckLoad) *TruckLoadDeletedEvent {
	return &TruckLoadDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTruckLoadDeleted, AggregateTypeTruckLoad, l.ID),
		TruckID:         l.TruckID,
		LoadDate:        l.LoadDate,
	}
}
