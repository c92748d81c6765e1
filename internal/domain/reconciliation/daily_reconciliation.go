// Package reconciliation models the end-of-day roll-up of stock and money
// across every truck that went out on a date.
package reconciliation

import (
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeReconciliation is the aggregate type name
const AggregateTypeReconciliation = "DailyReconciliation"

// DefaultDiscrepancyTolerance is the largest gap between expected and
// reported returns that is not flagged
var DefaultDiscrepancyTolerance = decimal.RequireFromString("0.01")

// Status represents the lifecycle state of a daily reconciliation
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusFinalized  Status = "finalized"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	return s == StatusInProgress || s == StatusFinalized
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusInProgress:
		return target == StatusFinalized
	case StatusFinalized:
		return false
	}
	return false
}

// ProfitStatus is derived from net profit at read time
type ProfitStatus string

const (
	ProfitStatusProfit ProfitStatus = "profit"
	ProfitStatusLoss   ProfitStatus = "loss"
)

// Totals are reconciliation-level sums over items
type Totals struct {
	ItemsLoaded        decimal.Decimal
	ItemsSold          decimal.Decimal
	ItemsReturned      decimal.Decimal
	ItemsDiscarded     decimal.Decimal
	SalesAmount        decimal.Decimal
	CommissionEarned   decimal.Decimal
	AllowanceAllocated decimal.Decimal
	PaymentsCollected  decimal.Decimal
	PendingPayments    decimal.Decimal
}

func zeroTotals() Totals {
	return Totals{
		ItemsLoaded:        decimal.Zero,
		ItemsSold:          decimal.Zero,
		ItemsReturned:      decimal.Zero,
		ItemsDiscarded:     decimal.Zero,
		SalesAmount:        decimal.Zero,
		CommissionEarned:   decimal.Zero,
		AllowanceAllocated: decimal.Zero,
		PaymentsCollected:  decimal.Zero,
		PendingPayments:    decimal.Zero,
	}
}

// TruckSnapshot is what Start captures for one truck
type TruckSnapshot struct {
	TruckID           uuid.UUID
	TruckLoadID       uuid.UUID
	ItemsLoaded       decimal.Decimal
	ItemsSold         decimal.Decimal
	SalesAmount       decimal.Decimal
	CommissionEarned  decimal.Decimal
	PaymentsCollected decimal.Decimal
	Allowance         decimal.Decimal
}

// DailyReconciliation is the aggregate root for one calendar date
type DailyReconciliation struct {
	shared.BaseAggregateRoot
	ReconciliationDate time.Time
	Status             Status
	TrucksOut          int
	TrucksVerified     int
	Totals             Totals
	NetProfit          decimal.Decimal
	StartedBy          uuid.UUID
	StartedAt          time.Time
	FinalizedBy        *uuid.UUID
	FinalizedAt        *time.Time
	Notes              string
	Items              []ReconciliationItem
}

// Start opens a reconciliation with one unverified item per truck
func Start(date time.Time, notes string, startedBy uuid.UUID, snapshots []TruckSnapshot) (*DailyReconciliation, error) {
	if date.IsZero() {
		return nil, shared.NewValidationError("Reconciliation date is required")
	}
	r := &DailyReconciliation{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		ReconciliationDate: shared.TruncateDate(date),
		Status:             StatusInProgress,
		Totals:             zeroTotals(),
		NetProfit:          decimal.Zero,
		StartedBy:          startedBy,
		StartedAt:          time.Now(),
		Notes:              notes,
		Items:              make([]ReconciliationItem, 0, len(snapshots)),
	}

	trucks := make(map[uuid.UUID]bool)
	for _, s := range snapshots {
		if trucks[s.TruckID] {
			return nil, shared.NewConflictError("Truck %s appears twice on %s", s.TruckID, r.ReconciliationDate.Format(time.DateOnly))
		}
		trucks[s.TruckID] = true
		r.Items = append(r.Items, newItem(r.ID, s))
	}
	r.TrucksOut = len(trucks)
	r.TrucksVerified = 0
	r.recomputeTotals()
	r.AddDomainEvent(NewReconciliationStartedEvent(r))
	return r, nil
}

// FindItem returns the item of a truck, or nil
func (r *DailyReconciliation) FindItem(truckID uuid.UUID) *ReconciliationItem {
	for i := range r.Items {
		if r.Items[i].TruckID == truckID {
			return &r.Items[i]
		}
	}
	return nil
}

// VerifyTruck records what physically came back on a truck. A gap between
// expected and reported returns is flagged but never rejected.
func (r *DailyReconciliation) VerifyTruck(truckID uuid.UUID, input Verification, verifiedBy uuid.UUID, tolerance decimal.Decimal) (*ReconciliationItem, error) {
	if r.Status != StatusInProgress {
		return nil, shared.NewConflictError("Reconciliation is not in progress")
	}
	item := r.FindItem(truckID)
	if item == nil {
		return nil, shared.NewNotFoundError("Truck not found in this reconciliation")
	}
	if err := item.verify(input, verifiedBy, tolerance); err != nil {
		return nil, err
	}
	r.TrucksVerified = r.countVerified()
	r.recomputeTotals()
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewTruckVerifiedEvent(r, item))
	return item, nil
}

// CheckFinalizable returns the error Finalize would fail with, without
// changing state
func (r *DailyReconciliation) CheckFinalizable() error {
	if !r.Status.CanTransitionTo(StatusFinalized) {
		return shared.NewConflictError("Reconciliation is already finalized")
	}
	if r.TrucksVerified < r.TrucksOut {
		return shared.NewValidationError("Not all trucks verified. %d/%d", r.TrucksVerified, r.TrucksOut)
	}
	return nil
}

// Finalize closes the day: totals are summed from the items and net profit
// is commission minus allowance. There is no way back.
func (r *DailyReconciliation) Finalize(finalizedBy uuid.UUID) error {
	if err := r.CheckFinalizable(); err != nil {
		return err
	}
	r.recomputeTotals()
	r.NetProfit = r.Totals.CommissionEarned.Sub(r.Totals.AllowanceAllocated)
	now := time.Now()
	r.Status = StatusFinalized
	r.FinalizedBy = &finalizedBy
	r.FinalizedAt = &now
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewReconciliationFinalizedEvent(r))
	return nil
}

// ProfitStatus classifies the net profit
func (r *DailyReconciliation) ProfitStatus() ProfitStatus {
	if r.NetProfit.IsNegative() {
		return ProfitStatusLoss
	}
	return ProfitStatusProfit
}

func (r *DailyReconciliation) countVerified() int {
	n := 0
	for _, item := range r.Items {
		if item.IsVerified {
			n++
		}
	}
	return n
}

func (r *DailyReconciliation) recomputeTotals() {
	t := zeroTotals()
	for _, item := range r.Items {
		t.ItemsLoaded = t.ItemsLoaded.Add(item.ItemsLoaded)
		t.ItemsSold = t.ItemsSold.Add(item.ItemsSold)
		t.ItemsReturned = t.ItemsReturned.Add(item.ItemsReturned)
		t.ItemsDiscarded = t.ItemsDiscarded.Add(item.ItemsDiscarded)
		t.SalesAmount = t.SalesAmount.Add(item.SalesAmount)
		t.CommissionEarned = t.CommissionEarned.Add(item.CommissionEarned)
		t.AllowanceAllocated = t.AllowanceAllocated.Add(item.AllowanceReceived)
		t.PaymentsCollected = t.PaymentsCollected.Add(item.PaymentsCollected)
		t.PendingPayments = t.PendingPayments.Add(item.PendingPayments)
	}
	r.Totals = t
}
