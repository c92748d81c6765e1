package reconciliation

import (
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeReconciliationStarted   = "ReconciliationStarted"
	EventTypeTruckVerified           = "ReconciliationTruckVerified"
	EventTypeReconciliationFinalized = "ReconciliationFinalized"
)

// ReconciliationStartedEvent is raised when a date is opened
type ReconciliationStartedEvent struct {
	shared.BaseDomainEvent
	ReconciliationDate time.Time `json:"reconciliation_date"`
	TrucksOut          int       `json:"trucks_out"`
}

// NewReconciliationStartedEvent creates the event
func NewReconciliationStartedEvent(r *DailyReconciliation) *ReconciliationStartedEvent {
	return &ReconciliationStartedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeReconciliationStarted, AggregateTypeReconciliation, r.ID),
		ReconciliationDate: r.ReconciliationDate,
		TrucksOut:          r.TrucksOut,
	}
}

// TruckVerifiedEvent is raised for every truck verification
type TruckVerifiedEvent struct {
	shared.BaseDomainEvent
	ReconciliationDate time.Time `json:"reconciliation_date"`
	TruckID            uuid.UUID `json:"truck_id"`
	HasDiscrepancy     bool      `json:"has_discrepancy"`
}

// NewTruckVerifiedEvent creates the event
func NewTruckVerifiedEvent(r *DailyReconciliation, item *ReconciliationItem) *TruckVerifiedEvent {
	return &TruckVerifiedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeTruckVerified, AggregateTypeReconciliation, r.ID),
		ReconciliationDate: r.ReconciliationDate,
		TruckID:            item.TruckID,
		HasDiscrepancy:     item.HasDiscrepancy,
	}
}

// ReconciliationFinalizedEvent is raised once a date is closed
type ReconciliationFinalizedEvent struct {
	shared.BaseDomainEvent
	ReconciliationDate time.Time       `json:"reconciliation_date"`
	NetProfit          decimal.Decimal `json:"net_profit"`
	TotalCommission    decimal.Decimal `json:"total_commission"`
	TotalAllowance     decimal.Decimal `json:"total_allowance"`
}

// NewReconciliationFinalizedEvent creates the event
func NewReconciliationFinalizedEvent(r *DailyReconciliation) *ReconciliationFinalizedEvent {
	return &ReconciliationFinalizedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeReconciliationFinalized, AggregateTypeReconciliation, r.ID),
		ReconciliationDate: r.ReconciliationDate,
		NetProfit:          r.NetProfit,
		TotalCommission:    r.Totals.CommissionEarned,
		TotalAllowance:     r.Totals.AllowanceAllocated,
	}
}
