package sales

import (
	"time"

	"github.com/dairy/backend/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItemRequest is one product line of a sale. UnitPrice defaults to the
// product's wholesale price.
type SaleItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"decimal_positive"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest represents a sale to a shop, from a truck load or from
// the depot
type CreateSaleRequest struct {
	ShopID      uuid.UUID         `json:"shop_id" binding:"required"`
	TruckLoadID *uuid.UUID        `json:"truck_load_id"`
	SaleDate    *time.Time        `json:"sale_date"`
	AmountPaid  decimal.Decimal   `json:"amount_paid" binding:"decimal_gte0"`
	Notes       string            `json:"notes" binding:"max=1000"`
	Items       []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

// RecordPaymentRequest adds a payment to an existing sale
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"decimal_positive"`
}

// SaleListFilter holds the query parameters of a sale listing. Date
// selects a single day and overrides From and To.
type SaleListFilter struct {
	DriverID      string     `form:"driver_id" binding:"omitempty,uuid"`
	ShopID        string     `form:"shop_id" binding:"omitempty,uuid"`
	TruckID       string     `form:"truck_id" binding:"omitempty,uuid"`
	PaymentStatus string     `form:"payment_status" binding:"omitempty,oneof=paid pending"`
	Date          *time.Time `form:"sale_date" time_format:"2006-01-02"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SaleItemResponse represents a sale line in API responses
type SaleItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	BatchID          uuid.UUID       `json:"batch_id"`
	TruckLoadItemID  *uuid.UUID      `json:"truck_load_item_id,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	LineTotal        decimal.Decimal `json:"line_total"`
	CommissionEarned decimal.Decimal `json:"commission_earned"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID              uuid.UUID           `json:"id"`
	TruckLoadID     *uuid.UUID          `json:"truck_load_id,omitempty"`
	TruckID         *uuid.UUID          `json:"truck_id,omitempty"`
	ShopID          uuid.UUID           `json:"shop_id"`
	SoldBy          uuid.UUID           `json:"sold_by"`
	SaleDate        time.Time           `json:"sale_date"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	AmountPaid      decimal.Decimal     `json:"amount_paid"`
	Outstanding     decimal.Decimal     `json:"outstanding"`
	PaymentStatus   sales.PaymentStatus `json:"payment_status"`
	TotalCommission decimal.Decimal     `json:"total_commission"`
	Notes           string              `json:"notes,omitempty"`
	Items           []SaleItemResponse  `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ToSaleResponse converts a domain sale
func ToSaleResponse(s *sales.Sale) SaleResponse {
	items := make([]SaleItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, SaleItemResponse{
			ID:               item.ID,
			ProductID:        item.ProductID,
			BatchID:          item.BatchID,
			TruckLoadItemID:  item.TruckLoadItemID,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			LineTotal:        item.LineTotal,
			CommissionEarned: item.CommissionEarned,
		})
	}
	return SaleResponse{
		ID:              s.ID,
		TruckLoadID:     s.TruckLoadID,
		TruckID:         s.TruckID,
		ShopID:          s.ShopID,
		SoldBy:          s.SoldBy,
		SaleDate:        s.SaleDate,
		TotalAmount:     s.TotalAmount,
		AmountPaid:      s.AmountPaid,
		Outstanding:     s.Outstanding(),
		PaymentStatus:   s.PaymentStatus(),
		TotalCommission: s.TotalCommission(),
		Notes:           s.Notes,
		Items:           items,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
