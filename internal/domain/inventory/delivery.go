package inventory

import (
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Delivery is a supplier drop received at the depot
type Delivery struct {
	shared.BaseEntity
	DeliveryDate time.Time
	SupplierName string
	ReceivedBy   uuid.UUID
	Notes        string
	Items        []DeliveryItem
}

// DeliveryItem is one received line. BatchID is set once the line has been
// posted to a batch.
type DeliveryItem struct {
	ID          uuid.UUID
	DeliveryID  uuid.UUID
	ProductID   uuid.UUID
	BatchNumber string
	ExpiryDate  time.Time
	Quantity    decimal.Decimal
	BatchID     uuid.UUID
}

// NewDelivery creates a delivery header
func NewDelivery(deliveryDate time.Time, supplierName string, receivedBy uuid.UUID, notes string) (*Delivery, error) {
	if deliveryDate.IsZero() {
		return nil, shared.NewValidationError("Delivery date is required")
	}
	return &Delivery{
		BaseEntity:   shared.NewBaseEntity(),
		DeliveryDate: shared.TruncateDate(deliveryDate),
		SupplierName: supplierName,
		ReceivedBy:   receivedBy,
		Notes:        notes,
		Items:        make([]DeliveryItem, 0),
	}, nil
}

// AddItem appends a validated line to the delivery
func (d *Delivery) AddItem(productID uuid.UUID, batchNumber string, expiryDate time.Time, quantity decimal.Decimal) error {
	if productID == uuid.Nil {
		return shared.NewValidationError("Product ID is required")
	}
	if batchNumber == "" {
		return shared.NewValidationError("Batch number is required")
	}
	if expiryDate.IsZero() {
		return shared.NewValidationError("Expiry date is required")
	}
	if !quantity.IsPositive() {
		return shared.NewValidationError("Delivered quantity must be positive")
	}
	d.Items = append(d.Items, DeliveryItem{
		ID:          uuid.New(),
		DeliveryID:  d.ID,
		ProductID:   productID,
		BatchNumber: batchNumber,
		ExpiryDate:  shared.TruncateDate(expiryDate),
		Quantity:    quantity,
	})
	return nil
}

// TotalQuantity sums all delivered lines
func (d *Delivery) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(item.Quantity)
	}
	return total
}

// Update changes the descriptive fields of a delivery. Date and lines are
// fixed once posted to the ledger.
func (d *Delivery) Update(supplierName, notes *string) {
	if supplierName != nil {
		d.SupplierName = *supplierName
	}
	if notes != nil {
		d.Notes = *notes
	}
	d.Touch()
}

// QuantityByBatch sums the delivered quantity per receiving batch, in the
// order the batches first appear
func (d *Delivery) QuantityByBatch() ([]uuid.UUID, map[uuid.UUID]decimal.Decimal) {
	order := make([]uuid.UUID, 0, len(d.Items))
	sums := make(map[uuid.UUID]decimal.Decimal, len(d.Items))
	for _, item := range d.Items {
		if _, ok := sums[item.BatchID]; !ok {
			order = append(order, item.BatchID)
			sums[item.BatchID] = decimal.Zero
		}
		sums[item.BatchID] = sums[item.BatchID].Add(item.Quantity)
	}
	return order, sums
}
