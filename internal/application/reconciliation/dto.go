package reconciliation

import (
	"time"

	"github.com/dairy/backend/internal/domain/reconciliation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StartReconciliationRequest opens the reconciliation of a date
type StartReconciliationRequest struct {
	Date  time.Time `json:"reconciliation_date" binding:"required"`
	Notes string    `json:"notes" binding:"max=1000"`
}

// ReturnedItemRequest is a product quantity that came back sellable
type ReturnedItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"decimal_gte0"`
}

// DiscardedItemRequest is a product quantity thrown away
type DiscardedItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"decimal_gte0"`
	Reason    string          `json:"reason" binding:"required,oneof=damaged expired wasted"`
}

// VerifyTruckRequest is the physical count of one truck's returns
type VerifyTruckRequest struct {
	ItemsReturned    []ReturnedItemRequest  `json:"items_returned" binding:"dive"`
	ItemsDiscarded   []DiscardedItemRequest `json:"items_discarded" binding:"dive"`
	DiscrepancyNotes string                 `json:"discrepancy_notes" binding:"max=1000"`
}

// ReconciliationListFilter represents filter options for reconciliation listings
type ReconciliationListFilter struct {
	Status   string     `form:"status" binding:"omitempty,oneof=in_progress finalized"`
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// VerifiedLineResponse is one product line of a verification
type VerifiedLineResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Kind      string          `json:"kind"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason,omitempty"`
}

// ReconciliationItemResponse is one truck's row of a reconciliation
type ReconciliationItemResponse struct {
	ID                uuid.UUID              `json:"id"`
	TruckID           uuid.UUID              `json:"truck_id"`
	TruckLoadID       uuid.UUID              `json:"truck_load_id"`
	ItemsLoaded       decimal.Decimal        `json:"items_loaded"`
	ItemsSold         decimal.Decimal        `json:"items_sold"`
	ItemsReturned     decimal.Decimal        `json:"items_returned"`
	ItemsDiscarded    decimal.Decimal        `json:"items_discarded"`
	ExpectedReturn    decimal.Decimal        `json:"expected_return"`
	SalesAmount       decimal.Decimal        `json:"sales_amount"`
	CommissionEarned  decimal.Decimal        `json:"commission_earned"`
	AllowanceReceived decimal.Decimal        `json:"allowance_received"`
	PaymentsCollected decimal.Decimal        `json:"payments_collected"`
	PendingPayments   decimal.Decimal        `json:"pending_payments"`
	IsVerified        bool                   `json:"is_verified"`
	HasDiscrepancy    bool                   `json:"has_discrepancy"`
	DiscrepancyNotes  string                 `json:"discrepancy_notes,omitempty"`
	VerifiedBy        *uuid.UUID             `json:"verified_by,omitempty"`
	VerifiedAt        *time.Time             `json:"verified_at,omitempty"`
	Lines             []VerifiedLineResponse `json:"lines"`
}

// ReconciliationResponse represents a daily reconciliation in API responses
type ReconciliationResponse struct {
	ID                      uuid.UUID                    `json:"id"`
	ReconciliationDate      time.Time                    `json:"reconciliation_date"`
	Status                  reconciliation.Status        `json:"status"`
	TrucksOut               int                          `json:"trucks_out"`
	TrucksVerified          int                          `json:"trucks_verified"`
	TotalItemsLoaded        decimal.Decimal              `json:"total_items_loaded"`
	TotalItemsSold          decimal.Decimal              `json:"total_items_sold"`
	TotalItemsReturned      decimal.Decimal              `json:"total_items_returned"`
	TotalItemsDiscarded     decimal.Decimal              `json:"total_items_discarded"`
	TotalSalesAmount        decimal.Decimal              `json:"total_sales_amount"`
	TotalCommissionEarned   decimal.Decimal              `json:"total_commission_earned"`
	TotalAllowanceAllocated decimal.Decimal              `json:"total_allowance_allocated"`
	TotalPaymentsCollected  decimal.Decimal              `json:"total_payments_collected"`
	TotalPendingPayments    decimal.Decimal              `json:"total_pending_payments"`
	NetProfit               decimal.Decimal              `json:"net_profit"`
	ProfitStatus            reconciliation.ProfitStatus  `json:"profit_status"`
	StartedBy               uuid.UUID                    `json:"started_by"`
	StartedAt               time.Time                    `json:"started_at"`
	FinalizedBy             *uuid.UUID                   `json:"finalized_by,omitempty"`
	FinalizedAt             *time.Time                   `json:"finalized_at,omitempty"`
	Notes                   string                       `json:"notes,omitempty"`
	Items                   []ReconciliationItemResponse `json:"items"`
}

// ToReconciliationResponse converts a domain reconciliation
func ToReconciliationResponse(r *reconciliation.DailyReconciliation) ReconciliationResponse {
	items := make([]ReconciliationItemResponse, 0, len(r.Items))
	for i := range r.Items {
		item := &r.Items[i]
		lines := make([]VerifiedLineResponse, 0, len(item.Lines))
		for _, l := range item.Lines {
			lines = append(lines, VerifiedLineResponse{
				ProductID: l.ProductID,
				Kind:      string(l.Kind),
				Quantity:  l.Quantity,
				Reason:    string(l.Reason),
			})
		}
		items = append(items, ReconciliationItemResponse{
			ID:                item.ID,
			TruckID:           item.TruckID,
			TruckLoadID:       item.TruckLoadID,
			ItemsLoaded:       item.ItemsLoaded,
			ItemsSold:         item.ItemsSold,
			ItemsReturned:     item.ItemsReturned,
			ItemsDiscarded:    item.ItemsDiscarded,
			ExpectedReturn:    item.ExpectedReturn(),
			SalesAmount:       item.SalesAmount,
			CommissionEarned:  item.CommissionEarned,
			AllowanceReceived: item.AllowanceReceived,
			PaymentsCollected: item.PaymentsCollected,
			PendingPayments:   item.PendingPayments,
			IsVerified:        item.IsVerified,
			HasDiscrepancy:    item.HasDiscrepancy,
			DiscrepancyNotes:  item.DiscrepancyNotes,
			VerifiedBy:        item.VerifiedBy,
			VerifiedAt:        item.VerifiedAt,
			Lines:             lines,
		})
	}
	return ReconciliationResponse{
		ID:                      r.ID,
		ReconciliationDate:      r.ReconciliationDate,
		Status:                  r.Status,
		TrucksOut:               r.TrucksOut,
		TrucksVerified:          r.TrucksVerified,
		TotalItemsLoaded:        r.Totals.ItemsLoaded,
		TotalItemsSold:          r.Totals.ItemsSold,
		TotalItemsReturned:      r.Totals.ItemsReturned,
		TotalItemsDiscarded:     r.Totals.ItemsDiscarded,
		TotalSalesAmount:        r.Totals.SalesAmount,
		TotalCommissionEarned:   r.Totals.CommissionEarned,
		TotalAllowanceAllocated: r.Totals.AllowanceAllocated,
		TotalPaymentsCollected:  r.Totals.PaymentsCollected,
		TotalPendingPayments:    r.Totals.PendingPayments,
		NetProfit:               r.NetProfit,
		ProfitStatus:            r.ProfitStatus(),
		StartedBy:               r.StartedBy,
		StartedAt:               r.StartedAt,
		FinalizedBy:             r.FinalizedBy,
		FinalizedAt:             r.FinalizedAt,
		Notes:                   r.Notes,
		Items:                   items,
	}
}
