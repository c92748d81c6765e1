package inventory

import (
	"context"
	"time"

	appshared "github.com/dairy/backend/internal/application/shared"
	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocatorOptions configures batch selection
type AllocatorOptions struct {
	// ExcludeExpired skips batches whose expiry date is before today
	ExcludeExpired bool
	// Now defaults to time.Now
	Now func() time.Time
}

// Allocator draws stock from batches and posts the outbound movement for
// every slice it takes, inside the caller's transaction
type Allocator struct {
	ledger         *Ledger
	excludeExpired bool
	now            func() time.Time
}

// NewAllocator creates an Allocator
func NewAllocator(ledger *Ledger, opts AllocatorOptions) *Allocator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Allocator{ledger: ledger, excludeExpired: opts.ExcludeExpired, now: now}
}

// Policy returns the allocation policy for the current day
func (a *Allocator) Policy() inventory.AllocationPolicy {
	return inventory.AllocationPolicy{
		ExcludeExpired: a.excludeExpired,
		Today:          shared.TruncateDate(a.now()),
	}
}

// Outbound describes what the allocated stock is used for
type Outbound struct {
	Type      inventory.MovementType // truck_load_out or sale_out
	Reference inventory.Reference
	Actor     uuid.UUID
	Date      time.Time
}

// AllocateFIFO locks the product's batches with stock, oldest expiry first,
// and takes quantity from them. Nothing is posted unless the whole quantity
// can be covered.
func (a *Allocator) AllocateFIFO(ctx context.Context, repos appshared.Repositories, productID uuid.UUID, quantity decimal.Decimal, out Outbound, events *appshared.EventCollector) (allocations []inventory.Allocation, err error) {
	telemetry.WithProfilingLabels(ctx, func(ctx context.Context) {
		allocations, err = a.allocateFIFO(ctx, repos, productID, quantity, out, events)
	}, "operation", "fifo_allocate", "movement_type", string(out.Type))
	return allocations, err
}

func (a *Allocator) allocateFIFO(ctx context.Context, repos appshared.Repositories, productID uuid.UUID, quantity decimal.Decimal, out Outbound, events *appshared.EventCollector) ([]inventory.Allocation, error) {
	candidates, err := repos.Batches().FindAvailableForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	allocations, err := inventory.AllocateFIFO(productID, quantity, candidates, a.Policy())
	if err != nil {
		return nil, err
	}

	locked := make(map[uuid.UUID]*inventory.Batch, len(candidates))
	for i := range candidates {
		locked[candidates[i].ID] = &candidates[i]
	}
	for _, alloc := range allocations {
		if _, err := a.ledger.PostToBatch(ctx, repos, locked[alloc.BatchID], a.postRequest(alloc, out), events); err != nil {
			return nil, err
		}
	}
	return allocations, nil
}

// AllocateSpecific takes quantity from one manually selected batch. When
// productID is set the batch must belong to that product.
func (a *Allocator) AllocateSpecific(ctx context.Context, repos appshared.Repositories, batchID uuid.UUID, productID *uuid.UUID, quantity decimal.Decimal, out Outbound, events *appshared.EventCollector) (*inventory.Allocation, *inventory.Batch, error) {
	batch, err := repos.Batches().FindByIDForUpdate(ctx, batchID)
	if err != nil {
		return nil, nil, err
	}
	if productID != nil && batch.ProductID != *productID {
		return nil, nil, shared.NewValidationError("Batch %s does not belong to the requested product", batch.BatchNumber)
	}
	alloc, err := inventory.AllocateSpecific(batch, quantity, a.Policy())
	if err != nil {
		return nil, nil, err
	}
	if _, err := a.ledger.PostToBatch(ctx, repos, batch, a.postRequest(*alloc, out), events); err != nil {
		return nil, nil, err
	}
	return alloc, batch, nil
}

func (a *Allocator) postRequest(alloc inventory.Allocation, out Outbound) PostRequest {
	return PostRequest{
		BatchID:   alloc.BatchID,
		Type:      out.Type,
		Quantity:  alloc.Quantity,
		Reference: out.Reference,
		Actor:     out.Actor,
		Date:      out.Date,
	}
}
