// Package sales models shop sales made from trucks or the depot.
package sales

import (
	"context"
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is derived from the amounts, never set directly
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
)

// SaleItem is one batch slice of a sale with its own price and commission
// snapshot
type SaleItem struct {
	ID               uuid.UUID
	SaleID           uuid.UUID
	ProductID        uuid.UUID
	BatchID          uuid.UUID
	TruckLoadItemID  *uuid.UUID
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	LineTotal        decimal.Decimal
	CommissionEarned decimal.Decimal
}

// Sale is the aggregate root for one sale to a shop
type Sale struct {
	shared.BaseAggregateRoot
	TruckLoadID *uuid.UUID // nil for depot sales
	TruckID     *uuid.UUID
	ShopID      uuid.UUID
	SoldBy      uuid.UUID
	SaleDate    time.Time
	TotalAmount decimal.Decimal
	AmountPaid  decimal.Decimal
	Notes       string
	Items       []SaleItem
}

// NewSale creates an empty sale
func NewSale(shopID, soldBy uuid.UUID, saleDate time.Time, notes string) (*Sale, error) {
	if shopID == uuid.Nil {
		return nil, shared.NewValidationError("Shop ID is required")
	}
	if saleDate.IsZero() {
		saleDate = time.Now()
	}
	return &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ShopID:            shopID,
		SoldBy:            soldBy,
		SaleDate:          shared.TruncateDate(saleDate),
		TotalAmount:       decimal.Zero,
		AmountPaid:        decimal.Zero,
		Notes:             notes,
		Items:             make([]SaleItem, 0),
	}, nil
}

// AttachTruckLoad marks the sale as made from a truck's load
func (s *Sale) AttachTruckLoad(truckLoadID, truckID uuid.UUID) {
	s.TruckLoadID = &truckLoadID
	s.TruckID = &truckID
}

// IsTruckSale reports whether the sale consumed truck stock
func (s *Sale) IsTruckSale() bool {
	return s.TruckLoadID != nil
}

// AddItem appends a batch slice. Commission is quantity × per-unit rate,
// independent of the unit price.
func (s *Sale) AddItem(productID, batchID uuid.UUID, truckLoadItemID *uuid.UUID, quantity, unitPrice, commissionPerUnit decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewValidationError("Unit price cannot be negative")
	}
	lineTotal := quantity.Mul(unitPrice)
	s.Items = append(s.Items, SaleItem{
		ID:               uuid.New(),
		SaleID:           s.ID,
		ProductID:        productID,
		BatchID:          batchID,
		TruckLoadItemID:  truckLoadItemID,
		Quantity:         quantity,
		UnitPrice:        unitPrice,
		LineTotal:        lineTotal,
		CommissionEarned: quantity.Mul(commissionPerUnit),
	})
	s.TotalAmount = s.TotalAmount.Add(lineTotal)
	return nil
}

// SetInitialPayment records the amount paid when the sale is made
func (s *Sale) SetInitialPayment(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewValidationError("Amount paid cannot be negative")
	}
	if amount.GreaterThan(s.TotalAmount) {
		return shared.NewValidationError("Amount paid (%s) cannot exceed total amount (%s)", amount.String(), s.TotalAmount.String())
	}
	s.AmountPaid = amount
	return nil
}

// RecordPayment adds a later payment against the outstanding balance
func (s *Sale) RecordPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("Payment amount must be positive")
	}
	newPaid := s.AmountPaid.Add(amount)
	if newPaid.GreaterThan(s.TotalAmount) {
		return shared.NewValidationError("Payment would exceed total amount. Outstanding: %s", s.Outstanding().String())
	}
	s.AmountPaid = newPaid
	s.Touch()
	s.IncrementVersion()
	s.AddDomainEvent(NewPaymentRecordedEvent(s, amount))
	return nil
}

// PaymentStatus returns paid iff amount_paid >= total_amount
func (s *Sale) PaymentStatus() PaymentStatus {
	if s.AmountPaid.GreaterThanOrEqual(s.TotalAmount) {
		return PaymentStatusPaid
	}
	return PaymentStatusPending
}

// Outstanding returns what is still owed
func (s *Sale) Outstanding() decimal.Decimal {
	return s.TotalAmount.Sub(s.AmountPaid)
}

// TotalQuantity sums item quantities
func (s *Sale) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Quantity)
	}
	return total
}

// TotalCommission sums item commission snapshots
func (s *Sale) TotalCommission() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.CommissionEarned)
	}
	return total
}

// TruckDayAggregate is the sales roll-up of one truck on one date
type TruckDayAggregate struct {
	TruckID           uuid.UUID
	ItemsSold         decimal.Decimal
	SalesAmount       decimal.Decimal
	Commission        decimal.Decimal
	PaymentsCollected decimal.Decimal
}

// PendingPayments returns sales minus collected payments
func (a TruckDayAggregate) PendingPayments() decimal.Decimal {
	return a.SalesAmount.Sub(a.PaymentsCollected)
}

// Aggregate rolls sales up per truck
func Aggregate(sales []Sale) map[uuid.UUID]TruckDayAggregate {
	out := make(map[uuid.UUID]TruckDayAggregate)
	for i := range sales {
		s := &sales[i]
		if s.TruckID == nil {
			continue
		}
		agg, ok := out[*s.TruckID]
		if !ok {
			agg = TruckDayAggregate{
				TruckID:           *s.TruckID,
				ItemsSold:         decimal.Zero,
				SalesAmount:       decimal.Zero,
				Commission:        decimal.Zero,
				PaymentsCollected: decimal.Zero,
			}
		}
		agg.ItemsSold = agg.ItemsSold.Add(s.TotalQuantity())
		agg.SalesAmount = agg.SalesAmount.Add(s.TotalAmount)
		agg.Commission = agg.Commission.Add(s.TotalCommission())
		agg.PaymentsCollected = agg.PaymentsCollected.Add(s.AmountPaid)
		out[*s.TruckID] = agg
	}
	return out
}

// Filter narrows sale listings. SoldBy selects one driver's sales.
type Filter struct {
	shared.Filter
	SoldBy        *uuid.UUID
	ShopID        *uuid.UUID
	TruckID       *uuid.UUID
	PaymentStatus PaymentStatus
	Dates         shared.DateRange
}

// Repository stores sales with their items
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Sale, error)
	// FindTruckSalesByDate returns every truck sale dated on date
	FindTruckSalesByDate(ctx context.Context, date time.Time) ([]Sale, error)
	ExistsForTruckLoad(ctx context.Context, truckLoadID uuid.UUID) (bool, error)
	// ExistsForBatches reports whether any sale line drew from one of the batches
	ExistsForBatches(ctx context.Context, batchIDs []uuid.UUID) (bool, error)
	List(ctx context.Context, filter Filter) ([]Sale, int64, error)
	Create(ctx context.Context, sale *Sale) error
	UpdatePayment(ctx context.Context, sale *Sale) error
}
