package inventory

import (
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType represents the type of a stock movement
type MovementType string

const (
	// MovementTypeDeliveryIn is stock received from a supplier delivery
	MovementTypeDeliveryIn MovementType = "delivery_in"
	// MovementTypeTruckLoadOut is stock placed on a truck
	MovementTypeTruckLoadOut MovementType = "truck_load_out"
	// MovementTypeSaleOut is stock sold directly from the depot
	MovementTypeSaleOut MovementType = "sale_out"
	// MovementTypeTruckReturnIn is unsold stock coming back from a truck
	MovementTypeTruckReturnIn MovementType = "truck_return_in"
	// MovementTypeAdjustment is a signed manual correction
	MovementTypeAdjustment MovementType = "adjustment"
	// MovementTypeExpiredOut is stock written off at expiry
	MovementTypeExpiredOut MovementType = "expired_out"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeDeliveryIn,
		MovementTypeTruckLoadOut,
		MovementTypeSaleOut,
		MovementTypeTruckReturnIn,
		MovementTypeAdjustment,
		MovementTypeExpiredOut:
		return true
	}
	return false
}

// IsInbound returns true if this movement type always adds stock
func (t MovementType) IsInbound() bool {
	return t == MovementTypeDeliveryIn || t == MovementTypeTruckReturnIn
}

// IsOutbound returns true if this movement type always removes stock
func (t MovementType) IsOutbound() bool {
	switch t {
	case MovementTypeTruckLoadOut, MovementTypeSaleOut, MovementTypeExpiredOut:
		return true
	}
	return false
}

// AllMovementTypes returns every movement type
func AllMovementTypes() []MovementType {
	return []MovementType{
		MovementTypeDeliveryIn,
		MovementTypeTruckLoadOut,
		MovementTypeSaleOut,
		MovementTypeTruckReturnIn,
		MovementTypeAdjustment,
		MovementTypeExpiredOut,
	}
}

// ReferenceType names the document a movement was posted for
type ReferenceType string

const (
	ReferenceTypeDelivery        ReferenceType = "delivery"
	ReferenceTypeDeliveryDelete  ReferenceType = "delivery_delete"
	ReferenceTypeTruckLoad       ReferenceType = "truck_load"
	ReferenceTypeTruckLoadDelete ReferenceType = "truck_load_delete"
	ReferenceTypeSale            ReferenceType = "sale"
	ReferenceTypeReconciliation  ReferenceType = "reconciliation"
	ReferenceTypeManual          ReferenceType = "manual"
)

// Reference points a movement at its source document
type Reference struct {
	Type ReferenceType
	ID   *uuid.UUID
}

// NewReference builds a reference to a document
func NewReference(refType ReferenceType, id uuid.UUID) Reference {
	return Reference{Type: refType, ID: &id}
}

// ValidateMovementQuantity checks the quantity sign rules of a movement type.
// Adjustments carry their own sign and must be non-zero; every other type
// carries a positive magnitude.
func ValidateMovementQuantity(movementType MovementType, quantity decimal.Decimal) error {
	if !movementType.IsValid() {
		return shared.NewValidationError("Invalid movement type: %s", movementType)
	}
	if movementType == MovementTypeAdjustment {
		if quantity.IsZero() {
			return shared.NewValidationError("Adjustment quantity cannot be zero")
		}
		return nil
	}
	if !quantity.IsPositive() {
		return shared.NewValidationError("Quantity for %s must be positive", movementType)
	}
	return nil
}

// StockMovement is an append-only ledger entry. It is never edited; a
// correction is a new movement.
type StockMovement struct {
	ID            uuid.UUID
	BatchID       uuid.UUID
	ProductID     uuid.UUID
	Type          MovementType
	Quantity      decimal.Decimal // signed for adjustment, positive magnitude otherwise
	ReferenceType ReferenceType
	ReferenceID   *uuid.UUID
	Reason        string
	Notes         string
	CreatedBy     uuid.UUID
	MovementDate  time.Time
	CreatedAt     time.Time
}

// NewStockMovement creates a validated movement with a time-ordered ID
func NewStockMovement(batch *Batch, movementType MovementType, quantity decimal.Decimal, ref Reference, createdBy uuid.UUID, movementDate time.Time) (*StockMovement, error) {
	if batch == nil {
		return nil, shared.NewValidationError("Batch is required")
	}
	if err := ValidateMovementQuantity(movementType, quantity); err != nil {
		return nil, err
	}
	if ref.Type == "" {
		return nil, shared.NewValidationError("Reference type is required")
	}
	if movementDate.IsZero() {
		movementDate = time.Now()
	}
	return &StockMovement{
		ID:            shared.NewOrderedID(),
		BatchID:       batch.ID,
		ProductID:     batch.ProductID,
		Type:          movementType,
		Quantity:      quantity,
		ReferenceType: ref.Type,
		ReferenceID:   ref.ID,
		CreatedBy:     createdBy,
		MovementDate:  shared.TruncateDate(movementDate),
		CreatedAt:     time.Now(),
	}, nil
}

// WithReason sets the reason and notes
func (m *StockMovement) WithReason(reason, notes string) *StockMovement {
	m.Reason = reason
	m.Notes = notes
	return m
}

// SignedQuantity returns the effect of this movement on remaining quantity
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if m.Type.IsOutbound() {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// InitialDelta returns the effect of this movement on initial quantity
func (m *StockMovement) InitialDelta() decimal.Decimal {
	if m.Type == MovementTypeDeliveryIn || m.Type == MovementTypeAdjustment {
		return m.Quantity
	}
	return decimal.Zero
}
