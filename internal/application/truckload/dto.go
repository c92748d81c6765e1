package truckload

import (
	"time"

	"github.com/dairy/backend/internal/domain/truckload"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoadItemRequest is one line of a new load: either a specific batch or a
// product to be allocated FIFO
type LoadItemRequest struct {
	BatchID   *uuid.UUID      `json:"batch_id"`
	ProductID *uuid.UUID      `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity" binding:"decimal_positive"`
}

// CreateTruckLoadRequest represents a request to load a truck
type CreateTruckLoadRequest struct {
	TruckID  uuid.UUID         `json:"truck_id" binding:"required"`
	LoadDate time.Time         `json:"load_date" binding:"required"`
	Notes    string            `json:"notes" binding:"max=1000"`
	Items    []LoadItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ReturnItemRequest is one batch quantity coming back from the truck
type ReturnItemRequest struct {
	BatchID          uuid.UUID       `json:"batch_id" binding:"required"`
	QuantityReturned decimal.Decimal `json:"quantity_returned" binding:"decimal_gte0"`
}

// ReconcileTruckLoadRequest represents the end-of-day return of a load
type ReconcileTruckLoadRequest struct {
	Returns []ReturnItemRequest `json:"returns" binding:"dive"`
	Notes   string              `json:"notes" binding:"max=1000"`
}

// TruckLoadListFilter represents filter options for load listings
type TruckLoadListFilter struct {
	TruckID  string     `form:"truck_id" binding:"omitempty,uuid"`
	Status   string     `form:"status" binding:"omitempty,oneof=loaded reconciled"`
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TruckLoadItemResponse represents a load line in API responses
type TruckLoadItemResponse struct {
	ID                  uuid.UUID       `json:"id"`
	BatchID             uuid.UUID       `json:"batch_id"`
	ProductID           uuid.UUID       `json:"product_id"`
	BatchNumber         string          `json:"batch_number"`
	ExpiryDate          time.Time       `json:"expiry_date"`
	QuantityLoaded      decimal.Decimal `json:"quantity_loaded"`
	QuantitySold        decimal.Decimal `json:"quantity_sold"`
	QuantityReturned    decimal.Decimal `json:"quantity_returned"`
	QuantityLostDamaged decimal.Decimal `json:"quantity_lost_damaged"`
}

// TruckLoadResponse represents a truck load in API responses
type TruckLoadResponse struct {
	ID           uuid.UUID               `json:"id"`
	TruckID      uuid.UUID               `json:"truck_id"`
	LoadDate     time.Time               `json:"load_date"`
	LoadedBy     uuid.UUID               `json:"loaded_by"`
	Status       truckload.LoadStatus    `json:"status"`
	Notes        string                  `json:"notes,omitempty"`
	ReconciledBy *uuid.UUID              `json:"reconciled_by,omitempty"`
	ReconciledAt *time.Time              `json:"reconciled_at,omitempty"`
	TotalLoaded  decimal.Decimal         `json:"total_loaded"`
	Items        []TruckLoadItemResponse `json:"items"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
	Version      int                     `json:"version"`
}

// ToTruckLoadResponse converts a domain truck load
func ToTruckLoadResponse(l *truckload.TruckLoad) TruckLoadResponse {
	items := make([]TruckLoadItemResponse, 0, len(l.Items))
	for i := range l.Items {
		item := &l.Items[i]
		items = append(items, TruckLoadItemResponse{
			ID:                  item.ID,
			BatchID:             item.BatchID,
			ProductID:           item.ProductID,
			BatchNumber:         item.BatchNumber,
			ExpiryDate:          item.ExpiryDate,
			QuantityLoaded:      item.QuantityLoaded,
			QuantitySold:        item.QuantitySold,
			QuantityReturned:    item.QuantityReturned,
			QuantityLostDamaged: item.LostDamaged(l.Status),
		})
	}
	return TruckLoadResponse{
		ID:           l.ID,
		TruckID:      l.TruckID,
		LoadDate:     l.LoadDate,
		LoadedBy:     l.LoadedBy,
		Status:       l.Status,
		Notes:        l.Notes,
		ReconciledBy: l.ReconciledBy,
		ReconciledAt: l.ReconciledAt,
		TotalLoaded:  l.TotalLoaded(),
		Items:        items,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
		Version:      l.Version,
	}
}

// ProductLineResponse totals one product on a load
type ProductLineResponse struct {
	ProductID        uuid.UUID       `json:"product_id"`
	BatchCount       int             `json:"batch_count"`
	QuantityLoaded   decimal.Decimal `json:"quantity_loaded"`
	QuantitySold     decimal.Decimal `json:"quantity_sold"`
	QuantityReturned decimal.Decimal `json:"quantity_returned"`
	LostDamaged      decimal.Decimal `json:"quantity_lost_damaged"`
}

// TruckLoadSummaryResponse is the totals view of a load
type TruckLoadSummaryResponse struct {
	TruckLoadID      uuid.UUID             `json:"truck_load_id"`
	TruckID          uuid.UUID             `json:"truck_id"`
	LoadDate         time.Time             `json:"load_date"`
	Status           truckload.LoadStatus  `json:"status"`
	TotalLoaded      decimal.Decimal       `json:"total_loaded"`
	TotalSold        decimal.Decimal       `json:"total_sold"`
	TotalReturned    decimal.Decimal       `json:"total_returned"`
	TotalLostDamaged decimal.Decimal       `json:"total_lost_damaged"`
	Products         []ProductLineResponse `json:"products"`
}

// ToSummaryResponse converts a load's summary
func ToSummaryResponse(l *truckload.TruckLoad) TruckLoadSummaryResponse {
	sum := l.Summarize()
	lines := make([]ProductLineResponse, 0, len(sum.ProductLines))
	for _, p := range sum.ProductLines {
		lines = append(lines, ProductLineResponse{
			ProductID:        p.ProductID,
			BatchCount:       p.BatchCount,
			QuantityLoaded:   p.QuantityLoaded,
			QuantitySold:     p.QuantitySold,
			QuantityReturned: p.QuantityReturned,
			LostDamaged:      p.LostDamaged,
		})
	}
	return TruckLoadSummaryResponse{
		TruckLoadID:      l.ID,
		TruckID:          l.TruckID,
		LoadDate:         l.LoadDate,
		Status:           l.Status,
		TotalLoaded:      sum.TotalLoaded,
		TotalSold:        sum.TotalSold,
		TotalReturned:    sum.TotalReturned,
		TotalLostDamaged: sum.TotalLostDamaged,
		Products:         lines,
	}
}
