// Package truckload models a truck's stock for one selling day.
package truckload

import (
	"bytes"
	"slices"
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeTruckLoad is the aggregate type name
const AggregateTypeTruckLoad = "TruckLoad"

// LoadStatus represents the lifecycle state of a truck load
type LoadStatus string

const (
	LoadStatusLoaded     LoadStatus = "loaded"
	LoadStatusReconciled LoadStatus = "reconciled"
)

// IsValid checks if the status is a valid LoadStatus
func (s LoadStatus) IsValid() bool {
	return s == LoadStatusLoaded || s == LoadStatusReconciled
}

// String returns the string representation of LoadStatus
func (s LoadStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s LoadStatus) CanTransitionTo(target LoadStatus) bool {
	switch s {
	case LoadStatusLoaded:
		return target == LoadStatusReconciled
	case LoadStatusReconciled:
		return false
	}
	return false
}

// TruckLoadItem is the quantity of one batch placed on a truck.
// QuantitySold + QuantityReturned <= QuantityLoaded always holds.
type TruckLoadItem struct {
	ID               uuid.UUID
	TruckLoadID      uuid.UUID
	BatchID          uuid.UUID
	ProductID        uuid.UUID
	BatchNumber      string
	ExpiryDate       time.Time
	QuantityLoaded   decimal.Decimal
	QuantitySold     decimal.Decimal
	QuantityReturned decimal.Decimal
	CreatedAt        time.Time
}

// Available returns what is still on the truck and unsold
func (i *TruckLoadItem) Available() decimal.Decimal {
	return i.QuantityLoaded.Sub(i.QuantitySold).Sub(i.QuantityReturned)
}

// LostDamaged is the unexplained remainder. It is only known once the load
// has been reconciled; before that it reports zero.
func (i *TruckLoadItem) LostDamaged(status LoadStatus) decimal.Decimal {
	if status != LoadStatusReconciled {
		return decimal.Zero
	}
	return i.Available()
}

// RecordSale consumes quantity from the item's availability
func (i *TruckLoadItem) RecordSale(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("Sold quantity must be positive")
	}
	if quantity.GreaterThan(i.Available()) {
		return shared.NewInsufficientStockError(
			"Insufficient stock on truck for batch %s. Available: %s, Requested: %s",
			i.BatchNumber, i.Available().String(), quantity.String())
	}
	i.QuantitySold = i.QuantitySold.Add(quantity)
	return nil
}

// RecordReturn marks quantity as physically returned to the depot
func (i *TruckLoadItem) RecordReturn(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewValidationError("Returned quantity cannot be negative")
	}
	if i.QuantitySold.Add(i.QuantityReturned).Add(quantity).GreaterThan(i.QuantityLoaded) {
		return shared.NewValidationError(
			"Return quantity for batch %s exceeds what is left on the truck. Loaded: %s, Sold: %s, Already returned: %s, Returning: %s",
			i.BatchNumber, i.QuantityLoaded.String(), i.QuantitySold.String(), i.QuantityReturned.String(), quantity.String())
	}
	i.QuantityReturned = i.QuantityReturned.Add(quantity)
	return nil
}

// TruckLoad is the aggregate root for a truck's stock on one date
type TruckLoad struct {
	shared.BaseAggregateRoot
	TruckID      uuid.UUID
	LoadDate     time.Time
	LoadedBy     uuid.UUID
	Status       LoadStatus
	Notes        string
	ReconciledBy *uuid.UUID
	ReconciledAt *time.Time
	Items        []TruckLoadItem
}

// NewTruckLoad creates an empty load in the loaded state
func NewTruckLoad(truckID uuid.UUID, loadDate time.Time, loadedBy uuid.UUID, notes string) (*TruckLoad, error) {
	if truckID == uuid.Nil {
		return nil, shared.NewValidationError("Truck ID is required")
	}
	if loadDate.IsZero() {
		return nil, shared.NewValidationError("Load date is required")
	}
	return &TruckLoad{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TruckID:           truckID,
		LoadDate:          shared.TruncateDate(loadDate),
		LoadedBy:          loadedBy,
		Status:            LoadStatusLoaded,
		Notes:             notes,
		Items:             make([]TruckLoadItem, 0),
	}, nil
}

// FindItemByBatch returns the item for a batch, or nil
func (l *TruckLoad) FindItemByBatch(batchID uuid.UUID) *TruckLoadItem {
	for i := range l.Items {
		if l.Items[i].BatchID == batchID {
			return &l.Items[i]
		}
	}
	return nil
}

// HasBatch reports whether a batch is already on the load
func (l *TruckLoad) HasBatch(batchID uuid.UUID) bool {
	return l.FindItemByBatch(batchID) != nil
}

// AddSpecific places a manually chosen batch on the truck. A batch can only
// appear once per load.
func (l *TruckLoad) AddSpecific(batchID, productID uuid.UUID, batchNumber string, expiry time.Time, quantity decimal.Decimal) error {
	if l.Status != LoadStatusLoaded {
		return shared.NewConflictError("Truck load is already %s", l.Status)
	}
	if l.HasBatch(batchID) {
		return shared.NewConflictError("Batch %s is already in this truck load", batchNumber)
	}
	return l.appendItem(batchID, productID, batchNumber, expiry, quantity)
}

// AddAllocated places a FIFO-allocated slice on the truck, merging into an
// existing line for the same batch
func (l *TruckLoad) AddAllocated(batchID, productID uuid.UUID, batchNumber string, expiry time.Time, quantity decimal.Decimal) error {
	if l.Status != LoadStatusLoaded {
		return shared.NewConflictError("Truck load is already %s", l.Status)
	}
	if !quantity.IsPositive() {
		return shared.NewValidationError("Loaded quantity must be positive")
	}
	if item := l.FindItemByBatch(batchID); item != nil {
		item.QuantityLoaded = item.QuantityLoaded.Add(quantity)
		return nil
	}
	return l.appendItem(batchID, productID, batchNumber, expiry, quantity)
}

func (l *TruckLoad) appendItem(batchID, productID uuid.UUID, batchNumber string, expiry time.Time, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("Loaded quantity must be positive")
	}
	l.Items = append(l.Items, TruckLoadItem{
		ID:               uuid.New(),
		TruckLoadID:      l.ID,
		BatchID:          batchID,
		ProductID:        productID,
		BatchNumber:      batchNumber,
		ExpiryDate:       expiry,
		QuantityLoaded:   quantity,
		QuantitySold:     decimal.Zero,
		QuantityReturned: decimal.Zero,
		CreatedAt:        time.Now(),
	})
	return nil
}

// ReturnLine is one batch quantity coming back from the truck
type ReturnLine struct {
	BatchID          uuid.UUID
	QuantityReturned decimal.Decimal
}

// Reconcile records the returned quantities and closes the load. Every line
// is validated before any item is changed.
func (l *TruckLoad) Reconcile(returns []ReturnLine, reconciledBy uuid.UUID, notes string) error {
	if !l.Status.CanTransitionTo(LoadStatusReconciled) {
		return shared.NewConflictError("Truck load is already reconciled")
	}

	pending := make(map[uuid.UUID]decimal.Decimal)
	for _, r := range returns {
		item := l.FindItemByBatch(r.BatchID)
		if item == nil {
			return shared.NewNotFoundError("Batch %s is not part of this truck load", r.BatchID)
		}
		if r.QuantityReturned.IsNegative() {
			return shared.NewValidationError("Returned quantity cannot be negative")
		}
		total := pending[r.BatchID].Add(r.QuantityReturned)
		if item.QuantitySold.Add(item.QuantityReturned).Add(total).GreaterThan(item.QuantityLoaded) {
			return shared.NewValidationError(
				"Return quantity for batch %s exceeds what is left on the truck. Loaded: %s, Sold: %s, Returning: %s",
				item.BatchNumber, item.QuantityLoaded.String(), item.QuantitySold.String(), total.String())
		}
		pending[r.BatchID] = total
	}

	for batchID, qty := range pending {
		if err := l.FindItemByBatch(batchID).RecordReturn(qty); err != nil {
			return err
		}
	}

	now := time.Now()
	l.Status = LoadStatusReconciled
	l.ReconciledBy = &reconciledBy
	l.ReconciledAt = &now
	if notes != "" {
		l.Notes = notes
	}
	l.Touch()
	l.IncrementVersion()
	l.AddDomainEvent(NewTruckLoadReconciledEvent(l))
	return nil
}

// RecordLateReturns books stock returned after the load was reconciled,
// as happens when the daily reconciliation is finalized
func (l *TruckLoad) RecordLateReturns(returns []ReturnLine) error {
	if l.Status != LoadStatusReconciled {
		return shared.NewConflictError("Truck load is not reconciled")
	}
	for _, r := range returns {
		item := l.FindItemByBatch(r.BatchID)
		if item == nil {
			return shared.NewNotFoundError("Batch %s is not part of this truck load", r.BatchID)
		}
		if err := item.RecordReturn(r.QuantityReturned); err != nil {
			return err
		}
	}
	l.Touch()
	l.IncrementVersion()
	return nil
}

// ItemsForProduct returns the product's items with stock still on the
// truck, oldest expiry first
func (l *TruckLoad) ItemsForProduct(productID uuid.UUID) []*TruckLoadItem {
	items := make([]*TruckLoadItem, 0)
	for i := range l.Items {
		if l.Items[i].ProductID == productID && l.Items[i].Available().IsPositive() {
			items = append(items, &l.Items[i])
		}
	}
	slices.SortStableFunc(items, func(a, b *TruckLoadItem) int {
		if c := a.ExpiryDate.Compare(b.ExpiryDate); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return items
}

// AvailableForProduct sums what is still sellable of a product
func (l *TruckLoad) AvailableForProduct(productID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, item := range l.ItemsForProduct(productID) {
		total = total.Add(item.Available())
	}
	return total
}

// ReturnedForProduct sums what has already been returned of a product
func (l *TruckLoad) ReturnedForProduct(productID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, item := range l.Items {
		if item.ProductID == productID {
			total = total.Add(item.QuantityReturned)
		}
	}
	return total
}

// TotalLoaded sums quantity loaded over all items
func (l *TruckLoad) TotalLoaded() decimal.Decimal {
	total := decimal.Zero
	for _, item := range l.Items {
		total = total.Add(item.QuantityLoaded)
	}
	return total
}

// Summary is a read model of a load's totals
type Summary struct {
	TotalLoaded      decimal.Decimal
	TotalSold        decimal.Decimal
	TotalReturned    decimal.Decimal
	TotalLostDamaged decimal.Decimal
	ProductLines     []ProductLine
}

// ProductLine totals one product across its batches on the load
type ProductLine struct {
	ProductID        uuid.UUID
	BatchCount       int
	QuantityLoaded   decimal.Decimal
	QuantitySold     decimal.Decimal
	QuantityReturned decimal.Decimal
	LostDamaged      decimal.Decimal
}

// Summarize computes totals and per-product lines
func (l *TruckLoad) Summarize() Summary {
	s := Summary{
		TotalLoaded:      decimal.Zero,
		TotalSold:        decimal.Zero,
		TotalReturned:    decimal.Zero,
		TotalLostDamaged: decimal.Zero,
		ProductLines:     make([]ProductLine, 0),
	}
	index := make(map[uuid.UUID]int)
	for i := range l.Items {
		item := &l.Items[i]
		lost := item.LostDamaged(l.Status)
		s.TotalLoaded = s.TotalLoaded.Add(item.QuantityLoaded)
		s.TotalSold = s.TotalSold.Add(item.QuantitySold)
		s.TotalReturned = s.TotalReturned.Add(item.QuantityReturned)
		s.TotalLostDamaged = s.TotalLostDamaged.Add(lost)

		pos, ok := index[item.ProductID]
		if !ok {
			s.ProductLines = append(s.ProductLines, ProductLine{
				ProductID:        item.ProductID,
				QuantityLoaded:   decimal.Zero,
				QuantitySold:     decimal.Zero,
				QuantityReturned: decimal.Zero,
				LostDamaged:      decimal.Zero,
			})
			pos = len(s.ProductLines) - 1
			index[item.ProductID] = pos
		}
		line := &s.ProductLines[pos]
		line.BatchCount++
		line.QuantityLoaded = line.QuantityLoaded.Add(item.QuantityLoaded)
		line.QuantitySold = line.QuantitySold.Add(item.QuantitySold)
		line.QuantityReturned = line.QuantityReturned.Add(item.QuantityReturned)
		line.LostDamaged = line.LostDamaged.Add(lost)
	}
	return s
}
