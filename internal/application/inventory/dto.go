package inventory

import (
	"time"

	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchResponse represents a batch in API responses
type BatchResponse struct {
	ID                uuid.UUID             `json:"id"`
	ProductID         uuid.UUID             `json:"product_id"`
	BatchNumber       string                `json:"batch_number"`
	InitialQuantity   decimal.Decimal       `json:"initial_quantity"`
	RemainingQuantity decimal.Decimal       `json:"remaining_quantity"`
	ExpiryDate        time.Time             `json:"expiry_date"`
	OriginDeliveryID  *uuid.UUID            `json:"origin_delivery_id,omitempty"`
	Status            inventory.BatchStatus `json:"status"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// ToBatchResponse converts a domain batch, classifying it against today
func ToBatchResponse(b *inventory.Batch, today time.Time) BatchResponse {
	return BatchResponse{
		ID:                b.ID,
		ProductID:         b.ProductID,
		BatchNumber:       b.BatchNumber,
		InitialQuantity:   b.InitialQuantity,
		RemainingQuantity: b.RemainingQuantity,
		ExpiryDate:        b.ExpiryDate,
		OriginDeliveryID:  b.OriginDeliveryID,
		Status:            b.Status(today),
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID            uuid.UUID               `json:"id"`
	BatchID       uuid.UUID               `json:"batch_id"`
	ProductID     uuid.UUID               `json:"product_id"`
	Type          inventory.MovementType  `json:"movement_type"`
	Quantity      decimal.Decimal         `json:"quantity"`
	ReferenceType inventory.ReferenceType `json:"reference_type"`
	ReferenceID   *uuid.UUID              `json:"reference_id,omitempty"`
	Reason        string                  `json:"reason,omitempty"`
	Notes         string                  `json:"notes,omitempty"`
	CreatedBy     uuid.UUID               `json:"created_by"`
	MovementDate  time.Time               `json:"movement_date"`
	CreatedAt     time.Time               `json:"created_at"`
}

// ToMovementResponse converts a domain movement
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		BatchID:       m.BatchID,
		ProductID:     m.ProductID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Reason:        m.Reason,
		Notes:         m.Notes,
		CreatedBy:     m.CreatedBy,
		MovementDate:  m.MovementDate,
		CreatedAt:     m.CreatedAt,
	}
}

// BalanceRowResponse is one line of a batch's running balance
type BalanceRowResponse struct {
	MovementResponse
	Balance decimal.Decimal `json:"running_balance"`
}

// BatchLedgerResponse is a batch with its full movement history
type BatchLedgerResponse struct {
	Batch     BatchResponse        `json:"batch"`
	Movements []BalanceRowResponse `json:"movements"`
}

// LedgerCheckResponse reports whether a batch row agrees with its ledger
type LedgerCheckResponse struct {
	BatchID           uuid.UUID       `json:"batch_id"`
	MovementCount     int             `json:"movement_count"`
	LedgerRemaining   decimal.Decimal `json:"ledger_remaining"`
	LedgerInitial     decimal.Decimal `json:"ledger_initial"`
	RecordedRemaining decimal.Decimal `json:"recorded_remaining"`
	RecordedInitial   decimal.Decimal `json:"recorded_initial"`
	Consistent        bool            `json:"consistent"`
}

// LedgerAuditResponse summarises a full ledger audit
type LedgerAuditResponse struct {
	BatchesChecked int         `json:"batches_checked"`
	Inconsistent   []uuid.UUID `json:"inconsistent"`
}

// BatchListFilter represents filter options for batch listings
type BatchListFilter struct {
	ProductID string `form:"product_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=available empty expired"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PostMovementRequest posts a single movement against a batch
type PostMovementRequest struct {
	BatchID       uuid.UUID       `json:"batch_id" binding:"required"`
	MovementType  string          `json:"movement_type" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"decimal_nonzero"`
	ReferenceType string          `json:"reference_type" binding:"required"`
	ReferenceID   *uuid.UUID      `json:"reference_id"`
	MovementDate  *time.Time      `json:"movement_date"`
	Reason        string          `json:"reason"`
	Notes         string          `json:"notes"`
}

// AdjustStockRequest is a manual correction or an expiry write-off
type AdjustStockRequest struct {
	BatchID      uuid.UUID       `json:"batch_id" binding:"required"`
	ProductID    *uuid.UUID      `json:"product_id"`
	MovementType string          `json:"movement_type" binding:"omitempty,oneof=adjustment expired_out"`
	Quantity     decimal.Decimal `json:"quantity" binding:"decimal_nonzero"`
	Reason       string          `json:"reason" binding:"required,max=255"`
	Notes        string          `json:"notes" binding:"max=1000"`
	MovementDate *time.Time      `json:"movement_date"`
}

// MovementListFilter narrows a product's movement history
type MovementListFilter struct {
	From         *time.Time `form:"from" time_format:"2006-01-02"`
	To           *time.Time `form:"to" time_format:"2006-01-02"`
	MovementType string     `form:"type"`
	Limit        int        `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// DailySummaryLine totals one product and movement type on a date
type DailySummaryLine struct {
	ProductID    uuid.UUID              `json:"product_id"`
	MovementType inventory.MovementType `json:"movement_type"`
	Count        int                    `json:"count"`
	Quantity     decimal.Decimal        `json:"total_quantity"`
}

// DailySummaryResponse is every movement of a date grouped by product and type
type DailySummaryResponse struct {
	Date  time.Time          `json:"date"`
	Lines []DailySummaryLine `json:"lines"`
}

// DeliveryItemRequest is one received line
type DeliveryItemRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	BatchNumber string          `json:"batch_number" binding:"required,max=100"`
	ExpiryDate  time.Time       `json:"expiry_date" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"decimal_positive"`
}

// ReceiveDeliveryRequest represents a supplier delivery
type ReceiveDeliveryRequest struct {
	DeliveryDate time.Time             `json:"delivery_date" binding:"required"`
	SupplierName string                `json:"supplier_name" binding:"max=200"`
	Notes        string                `json:"notes" binding:"max=1000"`
	Items        []DeliveryItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateDeliveryRequest changes the descriptive fields of a delivery
type UpdateDeliveryRequest struct {
	SupplierName *string `json:"supplier_name" binding:"omitempty,max=200"`
	Notes        *string `json:"notes" binding:"omitempty,max=1000"`
}

// DeliveryListFilter represents filter options for delivery listings
type DeliveryListFilter struct {
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// DeliveryItemResponse is a received line with the batch it was posted to
type DeliveryItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	ExpiryDate  time.Time       `json:"expiry_date"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// DeliveryResponse represents a received delivery
type DeliveryResponse struct {
	ID            uuid.UUID              `json:"id"`
	DeliveryDate  time.Time              `json:"delivery_date"`
	SupplierName  string                 `json:"supplier_name,omitempty"`
	ReceivedBy    uuid.UUID              `json:"received_by"`
	Notes         string                 `json:"notes,omitempty"`
	TotalQuantity decimal.Decimal        `json:"total_quantity"`
	Items         []DeliveryItemResponse `json:"items"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// ToDeliveryResponse converts a domain delivery
func ToDeliveryResponse(d *inventory.Delivery) DeliveryResponse {
	items := make([]DeliveryItemResponse, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, DeliveryItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			BatchID:     item.BatchID,
			BatchNumber: item.BatchNumber,
			ExpiryDate:  item.ExpiryDate,
			Quantity:    item.Quantity,
		})
	}
	return DeliveryResponse{
		ID:            d.ID,
		DeliveryDate:  d.DeliveryDate,
		SupplierName:  d.SupplierName,
		ReceivedBy:    d.ReceivedBy,
		Notes:         d.Notes,
		TotalQuantity: d.TotalQuantity(),
		Items:         items,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
