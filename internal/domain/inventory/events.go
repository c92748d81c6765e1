package inventory

import (
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeStockMovementPosted = "StockMovementPosted"
	EventTypeDeliveryReceived    = "DeliveryReceived"
	EventTypeDeliveryDeleted     = "DeliveryDeleted"
)

// Aggregate types stamped on inventory events
const (
	AggregateTypeBatch    = "Batch"
	AggregateTypeDelivery = "Delivery"
)

// StockMovementPostedEvent is raised for every ledger posting
type StockMovementPostedEvent struct {
	shared.BaseDomainEvent
	MovementID    uuid.UUID       `json:"movement_id"`
	BatchID       uuid.UUID       `json:"batch_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	MovementType  MovementType    `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReferenceType ReferenceType   `json:"reference_type"`
}

// NewStockMovementPostedEvent creates the event for a posted movement
func NewStockMovementPostedEvent(m *StockMovement) *StockMovementPostedEvent {
	return &StockMovementPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMovementPosted, AggregateTypeBatch, m.BatchID),
		MovementID:      m.ID,
		BatchID:         m.BatchID,
		ProductID:       m.ProductID,
		MovementType:    m.Type,
		Quantity:        m.Quantity,
		ReferenceType:   m.ReferenceType,
	}
}

// DeliveryReceivedEvent is raised once a delivery has been posted to batches
type DeliveryReceivedEvent struct {
	shared.BaseDomainEvent
	DeliveryID    uuid.UUID       `json:"delivery_id"`
	ItemCount     int             `json:"item_count"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
}

// NewDeliveryReceivedEvent creates the event for a received delivery
func NewDeliveryReceivedEvent(d *Delivery) *DeliveryReceivedEvent {
	return &DeliveryReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDeliveryReceived, AggregateTypeDelivery, d.ID),
		DeliveryID:      d.ID,
		ItemCount:       len(d.Items),
		TotalQuantity:   d.TotalQuantity(),
	}
}

// DeliveryDeletedEvent is raised once a delivery's receipts have been
// reversed and the delivery removed
type DeliveryDeletedEvent struct {
	shared.BaseDomainEvent
	DeliveryID       uuid.UUID       `json:"delivery_id"`
	ReversedQuantity decimal.Decimal `json:"reversed_quantity"`
}

// NewDeliveryDeletedEvent creates the event for a deleted delivery
func NewDeliveryDeletedEvent(d *Delivery) *DeliveryDeletedEvent {
	return &DeliveryDeletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeDeliveryDeleted, AggregateTypeDelivery, d.ID),
		DeliveryID:       d.ID,
		ReversedQuantity: d.TotalQuantity(),
	}
}
