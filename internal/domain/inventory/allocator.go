package inventory

import (
	"bytes"
	"slices"
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationPolicy tunes candidate selection. Expiry only orders batches
// unless ExcludeExpired is set.
type AllocationPolicy struct {
	ExcludeExpired bool
	Today          time.Time
}

// Allocation is one slice of a request satisfied from a single batch
type Allocation struct {
	BatchID     uuid.UUID
	BatchNumber string
	ProductID   uuid.UUID
	ExpiryDate  time.Time
	Quantity    decimal.Decimal
}

// TotalAllocated sums the quantities of a set of allocations
func TotalAllocated(allocations []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.Quantity)
	}
	return total
}

// SortFIFO orders batches oldest expiry first, then by creation time, then by ID
func SortFIFO(batches []Batch) {
	slices.SortStableFunc(batches, func(a, b Batch) int {
		if c := a.ExpiryDate.Compare(b.ExpiryDate); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
}

// AllocateFIFO greedily takes quantity from the oldest-expiring batches of a
// product. It allocates everything or nothing: when the candidates cannot
// cover the request no allocation is returned.
func AllocateFIFO(productID uuid.UUID, needed decimal.Decimal, candidates []Batch, policy AllocationPolicy) ([]Allocation, error) {
	if !needed.IsPositive() {
		return nil, shared.NewValidationError("Requested quantity must be positive")
	}

	usable := make([]Batch, 0, len(candidates))
	for _, b := range candidates {
		if b.ProductID != productID || !b.HasStock() {
			continue
		}
		if policy.ExcludeExpired && b.IsExpired(policy.Today) {
			continue
		}
		usable = append(usable, b)
	}
	SortFIFO(usable)

	available := decimal.Zero
	for _, b := range usable {
		available = available.Add(b.RemainingQuantity)
	}
	if available.LessThan(needed) {
		return nil, shared.NewInsufficientStockError(
			"Insufficient stock for product. Available: %s, Requested: %s",
			available.String(), needed.String())
	}

	allocations := make([]Allocation, 0)
	remaining := needed
	for _, b := range usable {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, b.RemainingQuantity)
		allocations = append(allocations, Allocation{
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			ProductID:   b.ProductID,
			ExpiryDate:  b.ExpiryDate,
			Quantity:    take,
		})
		remaining = remaining.Sub(take)
	}
	return allocations, nil
}

// AllocateSpecific takes quantity from one manually selected batch
func AllocateSpecific(batch *Batch, quantity decimal.Decimal, policy AllocationPolicy) (*Allocation, error) {
	if batch == nil {
		return nil, shared.NewNotFoundError("Batch not found")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewValidationError("Requested quantity must be positive")
	}
	if policy.ExcludeExpired && batch.IsExpired(policy.Today) {
		return nil, shared.NewValidationError("Batch %s expired on %s", batch.BatchNumber, batch.ExpiryDate.Format(time.DateOnly))
	}
	if batch.RemainingQuantity.LessThan(quantity) {
		return nil, shared.NewInsufficientStockError(
			"Insufficient stock in batch %s. Available: %s, Requested: %s",
			batch.BatchNumber, batch.RemainingQuantity.String(), quantity.String())
	}
	return &Allocation{
		BatchID:     batch.ID,
		BatchNumber: batch.BatchNumber,
		ProductID:   batch.ProductID,
		ExpiryDate:  batch.ExpiryDate,
		Quantity:    quantity,
	}, nil
}
