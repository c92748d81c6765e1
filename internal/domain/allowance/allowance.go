// Package allowance models the daily transport budget and its per-truck
// allocations.
package allowance

import (
	"context"
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a transport allowance
type Status string

const (
	StatusPending   Status = "pending"
	StatusAllocated Status = "allocated"
	StatusFinalized Status = "finalized"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAllocated, StatusFinalized:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusAllocated || target == StatusFinalized
	case StatusAllocated:
		return target == StatusAllocated || target == StatusFinalized
	case StatusFinalized:
		return false
	}
	return false
}

// TruckAllowance is the share of a daily allowance given to one truck
type TruckAllowance struct {
	ID                   uuid.UUID
	TransportAllowanceID uuid.UUID
	TruckID              uuid.UUID
	Amount               decimal.Decimal
	DistanceCovered      *decimal.Decimal
	Notes                string
	CreatedAt            time.Time
}

// TransportAllowance is the manager-set budget for one date.
// The sum of allocations never exceeds TotalAllowance.
type TransportAllowance struct {
	shared.BaseAggregateRoot
	AllowanceDate  time.Time
	TotalAllowance decimal.Decimal
	Status         Status
	Notes          string
	CreatedBy      uuid.UUID
	Allocations    []TruckAllowance
}

// NewTransportAllowance creates a pending allowance
func NewTransportAllowance(date time.Time, total decimal.Decimal, notes string, createdBy uuid.UUID) (*TransportAllowance, error) {
	if date.IsZero() {
		return nil, shared.NewValidationError("Allowance date is required")
	}
	if !total.IsPositive() {
		return nil, shared.NewValidationError("Total allowance must be greater than 0")
	}
	return &TransportAllowance{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AllowanceDate:     shared.TruncateDate(date),
		TotalAllowance:    total,
		Status:            StatusPending,
		Notes:             notes,
		CreatedBy:         createdBy,
		Allocations:       make([]TruckAllowance, 0),
	}, nil
}

// AllocatedAmount sums every truck allocation
func (a *TransportAllowance) AllocatedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, alloc := range a.Allocations {
		total = total.Add(alloc.Amount)
	}
	return total
}

// RemainingAmount is derived, never stored
func (a *TransportAllowance) RemainingAmount() decimal.Decimal {
	return a.TotalAllowance.Sub(a.AllocatedAmount())
}

// FindAllocation returns the allocation of a truck, or nil
func (a *TransportAllowance) FindAllocation(truckID uuid.UUID) *TruckAllowance {
	for i := range a.Allocations {
		if a.Allocations[i].TruckID == truckID {
			return &a.Allocations[i]
		}
	}
	return nil
}

// AllocationRequest is one truck's requested share
type AllocationRequest struct {
	TruckID         uuid.UUID
	Amount          decimal.Decimal
	DistanceCovered *decimal.Decimal
	Notes           string
	MaxLimit        decimal.Decimal // the truck's max_allowance_limit
}

// Allocate adds allocations for trucks that have none yet. All requests are
// checked before any is applied.
func (a *TransportAllowance) Allocate(requests []AllocationRequest) error {
	if !a.Status.CanTransitionTo(StatusAllocated) {
		return shared.NewValidationError("Cannot allocate a finalized allowance")
	}
	if len(requests) == 0 {
		return shared.NewValidationError("At least one allocation is required")
	}

	seen := make(map[uuid.UUID]bool)
	sum := decimal.Zero
	for _, r := range requests {
		if !r.Amount.IsPositive() {
			return shared.NewValidationError("Allocation amount must be greater than 0")
		}
		if r.Amount.GreaterThan(r.MaxLimit) {
			return shared.NewValidationError("Allocation amount (%s) exceeds truck's max limit (%s)", r.Amount.String(), r.MaxLimit.String())
		}
		if seen[r.TruckID] || a.FindAllocation(r.TruckID) != nil {
			return shared.NewConflictError("Truck %s already has an allocation", r.TruckID)
		}
		seen[r.TruckID] = true
		sum = sum.Add(r.Amount)
	}
	if a.AllocatedAmount().Add(sum).GreaterThan(a.TotalAllowance) {
		return shared.NewValidationError("Total allocation exceeds available allowance. Available: %s", a.RemainingAmount().String())
	}

	now := time.Now()
	for _, r := range requests {
		a.Allocations = append(a.Allocations, TruckAllowance{
			ID:                   uuid.New(),
			TransportAllowanceID: a.ID,
			TruckID:              r.TruckID,
			Amount:               r.Amount,
			DistanceCovered:      r.DistanceCovered,
			Notes:                r.Notes,
			CreatedAt:            now,
		})
	}
	a.Status = StatusAllocated
	a.Touch()
	a.IncrementVersion()
	return nil
}

// UpdateAllocation replaces the amount of an existing truck allocation
func (a *TransportAllowance) UpdateAllocation(r AllocationRequest) error {
	if a.Status == StatusFinalized {
		return shared.NewValidationError("Cannot update a finalized allowance")
	}
	current := a.FindAllocation(r.TruckID)
	if current == nil {
		return shared.NewNotFoundError("Truck allocation not found")
	}
	if !r.Amount.IsPositive() {
		return shared.NewValidationError("Allocation amount must be greater than 0")
	}
	if r.Amount.GreaterThan(r.MaxLimit) {
		return shared.NewValidationError("Allocation amount (%s) exceeds truck's max limit (%s)", r.Amount.String(), r.MaxLimit.String())
	}
	others := a.AllocatedAmount().Sub(current.Amount)
	if others.Add(r.Amount).GreaterThan(a.TotalAllowance) {
		return shared.NewValidationError("Updated allocation would exceed total allowance. Available: %s", a.TotalAllowance.Sub(others).String())
	}
	current.Amount = r.Amount
	current.DistanceCovered = r.DistanceCovered
	current.Notes = r.Notes
	a.Touch()
	a.IncrementVersion()
	return nil
}

// Finalize closes the allowance. A finalized allowance is immutable.
func (a *TransportAllowance) Finalize() error {
	if !a.Status.CanTransitionTo(StatusFinalized) {
		return shared.NewConflictError("Allowance is already finalized")
	}
	a.Status = StatusFinalized
	a.Touch()
	a.IncrementVersion()
	return nil
}

// CanDelete reports whether the allowance may still be removed
func (a *TransportAllowance) CanDelete() bool {
	return a.Status == StatusPending
}

// Filter narrows allowance listings
type Filter struct {
	shared.Filter
	Status Status
	Dates  shared.DateRange
}

// Repository stores allowances with their truck allocations
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*TransportAllowance, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*TransportAllowance, error)
	List(ctx context.Context, filter Filter) ([]TransportAllowance, int64, error)
	// AmountsByTruckForDate sums allocations per truck for an allowance date
	AmountsByTruckForDate(ctx context.Context, date time.Time) (map[uuid.UUID]decimal.Decimal, error)
	Create(ctx context.Context, allowance *TransportAllowance) error
	Save(ctx context.Context, allowance *TransportAllowance) error
	Delete(ctx context.Context, id uuid.UUID) error
}
