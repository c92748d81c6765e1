package inventory

import (
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchStatus is a read-time classification of a batch, never stored
type BatchStatus string

const (
	BatchStatusAvailable BatchStatus = "available"
	BatchStatusEmpty     BatchStatus = "empty"
	BatchStatusExpired   BatchStatus = "expired"
)

// IsValid checks if the status is a valid BatchStatus
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusAvailable, BatchStatusEmpty, BatchStatusExpired:
		return true
	}
	return false
}

// Batch is a dated lot of one product with a finite quantity.
// 0 <= RemainingQuantity <= InitialQuantity holds after every mutation.
type Batch struct {
	shared.BaseEntity
	ProductID         uuid.UUID
	BatchNumber       string
	InitialQuantity   decimal.Decimal
	RemainingQuantity decimal.Decimal
	ExpiryDate        time.Time
	OriginDeliveryID  *uuid.UUID
}

// NewBatch creates an empty batch. Stock only enters through a delivery_in
// movement so that the ledger alone explains every unit.
func NewBatch(productID uuid.UUID, batchNumber string, expiryDate time.Time, deliveryID *uuid.UUID) (*Batch, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("Product ID cannot be empty")
	}
	if batchNumber == "" {
		return nil, shared.NewValidationError("Batch number cannot be empty")
	}
	if expiryDate.IsZero() {
		return nil, shared.NewValidationError("Expiry date is required")
	}
	return &Batch{
		BaseEntity:        shared.NewBaseEntity(),
		ProductID:         productID,
		BatchNumber:       batchNumber,
		InitialQuantity:   decimal.Zero,
		RemainingQuantity: decimal.Zero,
		ExpiryDate:        shared.TruncateDate(expiryDate),
		OriginDeliveryID:  deliveryID,
	}, nil
}

// Apply mutates the in-memory quantities for a movement and enforces the
// batch invariant. The persisted row is changed separately with a
// conditional update, so Apply is the early check and the storage layer the
// final one.
func (b *Batch) Apply(movementType MovementType, quantity decimal.Decimal) error {
	if err := ValidateMovementQuantity(movementType, quantity); err != nil {
		return err
	}

	switch {
	case movementType == MovementTypeAdjustment:
		if b.RemainingQuantity.Add(quantity).IsNegative() {
			return shared.NewInsufficientStockError(
				"Insufficient stock in batch %s. Available: %s, Requested: %s",
				b.BatchNumber, b.RemainingQuantity.String(), quantity.Neg().String())
		}
		b.InitialQuantity = b.InitialQuantity.Add(quantity)
		b.RemainingQuantity = b.RemainingQuantity.Add(quantity)
	case movementType == MovementTypeDeliveryIn:
		b.InitialQuantity = b.InitialQuantity.Add(quantity)
		b.RemainingQuantity = b.RemainingQuantity.Add(quantity)
	case movementType.IsInbound():
		restored := b.RemainingQuantity.Add(quantity)
		if restored.GreaterThan(b.InitialQuantity) {
			return shared.NewValidationError(
				"Return of %s to batch %s would exceed its initial quantity %s",
				quantity.String(), b.BatchNumber, b.InitialQuantity.String())
		}
		b.RemainingQuantity = restored
	default:
		if b.RemainingQuantity.LessThan(quantity) {
			return shared.NewInsufficientStockError(
				"Insufficient stock in batch %s. Available: %s, Requested: %s",
				b.BatchNumber, b.RemainingQuantity.String(), quantity.String())
		}
		b.RemainingQuantity = b.RemainingQuantity.Sub(quantity)
	}

	b.Touch()
	return nil
}

// HasStock returns true if the batch has remaining quantity
func (b *Batch) HasStock() bool {
	return b.RemainingQuantity.GreaterThan(decimal.Zero)
}

// IsExpired reports whether the batch expired before the given day
func (b *Batch) IsExpired(today time.Time) bool {
	return b.ExpiryDate.Before(shared.TruncateDate(today))
}

// Status classifies the batch for listings
func (b *Batch) Status(today time.Time) BatchStatus {
	switch {
	case !b.HasStock():
		return BatchStatusEmpty
	case b.IsExpired(today):
		return BatchStatusExpired
	default:
		return BatchStatusAvailable
	}
}
