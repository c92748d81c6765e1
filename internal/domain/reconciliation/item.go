package reconciliation

import (
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineKind separates stock that came back sellable from stock thrown away
type LineKind string

const (
	LineKindReturned  LineKind = "returned"
	LineKindDiscarded LineKind = "discarded"
)

// DiscardReason explains a discarded quantity
type DiscardReason string

const (
	DiscardReasonDamaged DiscardReason = "damaged"
	DiscardReasonExpired DiscardReason = "expired"
	DiscardReasonWasted  DiscardReason = "wasted"
)

// IsValid checks if the reason is a valid DiscardReason
func (r DiscardReason) IsValid() bool {
	switch r {
	case DiscardReasonDamaged, DiscardReasonExpired, DiscardReasonWasted:
		return true
	}
	return false
}

// VerifiedLine is one product quantity reported at verification
type VerifiedLine struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Kind      LineKind
	Quantity  decimal.Decimal
	Reason    DiscardReason // discarded lines only
}

// ReturnLine is a returned product quantity in a verification request
type ReturnLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// DiscardLine is a discarded product quantity in a verification request
type DiscardLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	Reason    DiscardReason
}

// Verification is the physical count reported for one truck
type Verification struct {
	Returned         []ReturnLine
	Discarded        []DiscardLine
	DiscrepancyNotes string
}

// ReconciliationItem is one truck's row in a daily reconciliation
type ReconciliationItem struct {
	ID                uuid.UUID
	ReconciliationID  uuid.UUID
	TruckID           uuid.UUID
	TruckLoadID       uuid.UUID
	ItemsLoaded       decimal.Decimal
	ItemsSold         decimal.Decimal
	ItemsReturned     decimal.Decimal
	ItemsDiscarded    decimal.Decimal
	SalesAmount       decimal.Decimal
	CommissionEarned  decimal.Decimal
	AllowanceReceived decimal.Decimal
	PaymentsCollected decimal.Decimal
	PendingPayments   decimal.Decimal
	IsVerified        bool
	HasDiscrepancy    bool
	DiscrepancyNotes  string
	VerifiedBy        *uuid.UUID
	VerifiedAt        *time.Time
	Lines             []VerifiedLine
}

func newItem(reconciliationID uuid.UUID, s TruckSnapshot) ReconciliationItem {
	return ReconciliationItem{
		ID:                uuid.New(),
		ReconciliationID:  reconciliationID,
		TruckID:           s.TruckID,
		TruckLoadID:       s.TruckLoadID,
		ItemsLoaded:       s.ItemsLoaded,
		ItemsSold:         s.ItemsSold,
		ItemsReturned:     decimal.Zero,
		ItemsDiscarded:    decimal.Zero,
		SalesAmount:       s.SalesAmount,
		CommissionEarned:  s.CommissionEarned,
		AllowanceReceived: s.Allowance,
		PaymentsCollected: s.PaymentsCollected,
		PendingPayments:   s.SalesAmount.Sub(s.PaymentsCollected),
		Lines:             make([]VerifiedLine, 0),
	}
}

// ExpectedReturn is what should have come back: loaded minus sold
func (i *ReconciliationItem) ExpectedReturn() decimal.Decimal {
	return i.ItemsLoaded.Sub(i.ItemsSold)
}

// ReturnedByProduct sums returned lines per product
func (i *ReconciliationItem) ReturnedByProduct() map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, line := range i.Lines {
		if line.Kind == LineKindReturned {
			out[line.ProductID] = out[line.ProductID].Add(line.Quantity)
		}
	}
	return out
}

// ReturnedProducts lists products with returned lines in first-seen order
func (i *ReconciliationItem) ReturnedProducts() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	out := make([]uuid.UUID, 0)
	for _, line := range i.Lines {
		if line.Kind == LineKindReturned && !seen[line.ProductID] {
			seen[line.ProductID] = true
			out = append(out, line.ProductID)
		}
	}
	return out
}

func (i *ReconciliationItem) verify(input Verification, verifiedBy uuid.UUID, tolerance decimal.Decimal) error {
	lines := make([]VerifiedLine, 0, len(input.Returned)+len(input.Discarded))
	returned := decimal.Zero
	discarded := decimal.Zero

	for _, r := range input.Returned {
		if r.ProductID == uuid.Nil {
			return shared.NewValidationError("Product ID is required for returned items")
		}
		if r.Quantity.IsNegative() {
			return shared.NewValidationError("Returned quantity cannot be negative")
		}
		returned = returned.Add(r.Quantity)
		lines = append(lines, VerifiedLine{ID: uuid.New(), ProductID: r.ProductID, Kind: LineKindReturned, Quantity: r.Quantity})
	}
	for _, d := range input.Discarded {
		if d.ProductID == uuid.Nil {
			return shared.NewValidationError("Product ID is required for discarded items")
		}
		if d.Quantity.IsNegative() {
			return shared.NewValidationError("Discarded quantity cannot be negative")
		}
		if !d.Reason.IsValid() {
			return shared.NewValidationError("Invalid discard reason: %s", d.Reason)
		}
		discarded = discarded.Add(d.Quantity)
		lines = append(lines, VerifiedLine{ID: uuid.New(), ProductID: d.ProductID, Kind: LineKindDiscarded, Quantity: d.Quantity, Reason: d.Reason})
	}

	gap := i.ExpectedReturn().Sub(returned.Add(discarded)).Abs()
	now := time.Now()

	i.ItemsReturned = returned
	i.ItemsDiscarded = discarded
	i.HasDiscrepancy = gap.GreaterThan(tolerance)
	i.DiscrepancyNotes = input.DiscrepancyNotes
	i.IsVerified = true
	i.VerifiedBy = &verifiedBy
	i.VerifiedAt = &now
	i.Lines = lines
	return nil
}
