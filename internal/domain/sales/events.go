package sales

import (
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeSale is the aggregate type stamped on sale events
const AggregateTypeSale = "Sale"

// Event types
const (
	EventTypeSaleCreated     = "SaleCreated"
	EventTypePaymentRecorded = "PaymentRecorded"
)

// SaleCreatedEvent is raised once a sale and its stock consumption are committed
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	ShopID      uuid.UUID       `json:"shop_id"`
	TruckID     *uuid.UUID      `json:"truck_id,omitempty"`
	TruckLoadID *uuid.UUID      `json:"truck_load_id,omitempty"`
	SaleDate    time.Time       `json:"sale_date"`
	Quantity    decimal.Decimal `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
}

// NewSaleCreatedEvent creates the event
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, s.ID),
		ShopID:          s.ShopID,
		TruckID:         s.TruckID,
		TruckLoadID:     s.TruckLoadID,
		SaleDate:        s.SaleDate,
		Quantity:        s.TotalQuantity(),
		TotalAmount:     s.TotalAmount,
		AmountPaid:      s.AmountPaid,
	}
}

// PaymentRecordedEvent is raised when a later payment is collected
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	Amount        decimal.Decimal `json:"amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// NewPaymentRecordedEvent creates the event
func NewPaymentRecordedEvent(s *Sale, amount decimal.Decimal) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeSale, s.ID),
		Amount:          amount,
		AmountPaid:      s.AmountPaid,
		PaymentStatus:   s.PaymentStatus(),
	}
}
