package inventory

import (
	"context"
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchFilter narrows batch listings
type BatchFilter struct {
	shared.Filter
	ProductID *uuid.UUID
	Status    BatchStatus // empty means any
	Today     time.Time
}

// BatchRepository stores batches. Increase and Decrease are conditional
// updates: they change nothing and return an error when the guarded
// quantity condition does not hold at write time.
type BatchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	// FindByIDForUpdate loads a batch and holds a row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Batch, error)
	// FindByProductAndNumberForUpdate returns shared.ErrNotFound when absent
	FindByProductAndNumberForUpdate(ctx context.Context, productID uuid.UUID, batchNumber string) (*Batch, error)
	// FindAvailableForUpdate locks every batch of a product with stock, in FIFO order
	FindAvailableForUpdate(ctx context.Context, productID uuid.UUID) ([]Batch, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Batch, error)
	List(ctx context.Context, filter BatchFilter) ([]Batch, int64, error)
	Create(ctx context.Context, batch *Batch) error
	// Decrease subtracts quantity from remaining (and from initial when alsoInitial)
	// only while remaining_quantity >= quantity
	Decrease(ctx context.Context, id uuid.UUID, quantity decimal.Decimal, alsoInitial bool) error
	// Increase adds quantity to remaining (and to initial when alsoInitial);
	// without alsoInitial the result may not exceed initial_quantity
	Increase(ctx context.Context, id uuid.UUID, quantity decimal.Decimal, alsoInitial bool) error
}

// MovementCursor is a keyset position in (created_at, id) order
type MovementCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// MovementFilter narrows movement listings
type MovementFilter struct {
	ProductID *uuid.UUID
	BatchID   *uuid.UUID
	Type      MovementType
	Dates     shared.DateRange
	Limit     int
}

// MovementRepository appends and reads stock movements
type MovementRepository interface {
	Create(ctx context.Context, movement *StockMovement) error
	// ListByBatchAfter returns up to limit movements of a batch strictly after
	// the cursor (from the start when nil), ordered by (created_at, id)
	ListByBatchAfter(ctx context.Context, batchID uuid.UUID, after *MovementCursor, limit int) ([]StockMovement, error)
	List(ctx context.Context, filter MovementFilter) ([]StockMovement, error)
}

// DeliveryFilter narrows delivery listings
type DeliveryFilter struct {
	shared.Filter
	Dates shared.DateRange
}

// DeliveryRepository stores delivery headers and their receipts
type DeliveryRepository interface {
	Create(ctx context.Context, delivery *Delivery) error
	FindByID(ctx context.Context, id uuid.UUID) (*Delivery, error)
	// FindByIDForUpdate locks the delivery row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Delivery, error)
	List(ctx context.Context, filter DeliveryFilter) ([]Delivery, int64, error)
	// Update writes the header; items never change
	Update(ctx context.Context, delivery *Delivery) error
	// Delete removes the delivery and its items and detaches batches it opened
	Delete(ctx context.Context, id uuid.UUID) error
}
