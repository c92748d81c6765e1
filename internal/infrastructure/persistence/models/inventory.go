package models

import (
	"time"

	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchModel is the persistence model for the Batch entity.
// The check on remaining_quantity mirrors the domain invariant so that a
// bypassed application check still cannot corrupt a row.
type BatchModel struct {
	BaseModel
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_batches_product_number,priority:1;index:idx_batches_fifo,priority:1"`
	BatchNumber       string          `gorm:"type:varchar(100);not null;uniqueIndex:uq_batches_product_number,priority:2"`
	InitialQuantity   decimal.Decimal `gorm:"type:decimal(12,3);not null;check:chk_batches_initial,initial_quantity >= 0"`
	RemainingQuantity decimal.Decimal `gorm:"type:decimal(12,3);not null;check:chk_batches_remaining,remaining_quantity >= 0 AND remaining_quantity <= initial_quantity"`
	ExpiryDate        time.Time       `gorm:"type:date;not null;index:idx_batches_fifo,priority:2"`
	OriginDeliveryID  *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (BatchModel) TableName() string {
	return "batches"
}

// ToDomain converts the persistence model to a domain Batch entity.
func (m *BatchModel) ToDomain() *inventory.Batch {
	return &inventory.Batch{
		BaseEntity:        m.BaseModel.ToDomain(),
		ProductID:         m.ProductID,
		BatchNumber:       m.BatchNumber,
		InitialQuantity:   m.InitialQuantity,
		RemainingQuantity: m.RemainingQuantity,
		ExpiryDate:        shared.TruncateDate(m.ExpiryDate),
		OriginDeliveryID:  m.OriginDeliveryID,
	}
}

// BatchModelFromDomain creates a new persistence model from a domain Batch entity.
func BatchModelFromDomain(b *inventory.Batch) *BatchModel {
	m := &BatchModel{
		ProductID:         b.ProductID,
		BatchNumber:       b.BatchNumber,
		InitialQuantity:   b.InitialQuantity,
		RemainingQuantity: b.RemainingQuantity,
		ExpiryDate:        b.ExpiryDate,
		OriginDeliveryID:  b.OriginDeliveryID,
	}
	m.FromDomainBaseEntity(b.BaseEntity)
	return m
}

// StockMovementModel is the persistence model for the append-only ledger.
// Rows are inserted once and never updated.
type StockMovementModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;index:idx_movements_batch_order,priority:3"`
	BatchID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_movements_batch_order,priority:1"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_movements_product_date,priority:1"`
	MovementType  string          `gorm:"type:varchar(30);not null;check:chk_movements_type,movement_type IN ('delivery_in','truck_load_out','sale_out','truck_return_in','adjustment','expired_out')"`
	Quantity      decimal.Decimal `gorm:"type:decimal(12,3);not null;check:chk_movements_quantity,(movement_type = 'adjustment' AND quantity <> 0) OR (movement_type <> 'adjustment' AND quantity > 0)"`
	ReferenceType string          `gorm:"type:varchar(30);not null;index:idx_movements_reference,priority:1"`
	ReferenceID   *uuid.UUID      `gorm:"type:uuid;index:idx_movements_reference,priority:2"`
	Reason        string          `gorm:"type:varchar(255)"`
	Notes         string          `gorm:"type:text"`
	CreatedBy     uuid.UUID       `gorm:"type:uuid;not null"`
	MovementDate  time.Time       `gorm:"type:date;not null;index:idx_movements_product_date,priority:2"`
	CreatedAt     time.Time       `gorm:"not null;index:idx_movements_batch_order,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		ID:            m.ID,
		BatchID:       m.BatchID,
		ProductID:     m.ProductID,
		Type:          inventory.MovementType(m.MovementType),
		Quantity:      m.Quantity,
		ReferenceType: inventory.ReferenceType(m.ReferenceType),
		ReferenceID:   m.ReferenceID,
		Reason:        m.Reason,
		Notes:         m.Notes,
		CreatedBy:     m.CreatedBy,
		MovementDate:  shared.TruncateDate(m.MovementDate),
		CreatedAt:     m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a new persistence model from a domain StockMovement.
func StockMovementModelFromDomain(s *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:            s.ID,
		BatchID:       s.BatchID,
		ProductID:     s.ProductID,
		MovementType:  string(s.Type),
		Quantity:      s.Quantity,
		ReferenceType: string(s.ReferenceType),
		ReferenceID:   s.ReferenceID,
		Reason:        s.Reason,
		Notes:         s.Notes,
		CreatedBy:     s.CreatedBy,
		MovementDate:  s.MovementDate,
		CreatedAt:     s.CreatedAt,
	}
}

// DeliveryModel is the persistence model for a delivery header.
type DeliveryModel struct {
	BaseModel
	DeliveryDate time.Time           `gorm:"type:date;not null;index"`
	SupplierName string              `gorm:"type:varchar(200)"`
	ReceivedBy   uuid.UUID           `gorm:"type:uuid;not null"`
	Notes        string              `gorm:"type:text"`
	Items        []DeliveryItemModel `gorm:"foreignKey:DeliveryID;references:ID"`
}

// TableName returns the table name for GORM
func (DeliveryModel) TableName() string {
	return "deliveries"
}

// DeliveryItemModel is one received line of a delivery.
type DeliveryItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DeliveryID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	BatchID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchNumber string          `gorm:"type:varchar(100);not null"`
	ExpiryDate  time.Time       `gorm:"type:date;not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null;check:chk_delivery_items_quantity,quantity > 0"`
}

// TableName returns the table name for GORM
func (DeliveryItemModel) TableName() string {
	return "delivery_items"
}

// ToDomain converts the persistence model to a domain Delivery.
func (m *DeliveryModel) ToDomain() *inventory.Delivery {
	d := &inventory.Delivery{
		BaseEntity:   m.BaseModel.ToDomain(),
		DeliveryDate: shared.TruncateDate(m.DeliveryDate),
		SupplierName: m.SupplierName,
		ReceivedBy:   m.ReceivedBy,
		Notes:        m.Notes,
		Items:        make([]inventory.DeliveryItem, len(m.Items)),
	}
	for i, item := range m.Items {
		d.Items[i] = inventory.DeliveryItem{
			ID:          item.ID,
			DeliveryID:  item.DeliveryID,
			ProductID:   item.ProductID,
			BatchNumber: item.BatchNumber,
			ExpiryDate:  shared.TruncateDate(item.ExpiryDate),
			Quantity:    item.Quantity,
			BatchID:     item.BatchID,
		}
	}
	return d
}

// DeliveryModelFromDomain creates a new persistence model from a domain Delivery.
func DeliveryModelFromDomain(d *inventory.Delivery) *DeliveryModel {
	m := &DeliveryModel{
		DeliveryDate: d.DeliveryDate,
		SupplierName: d.SupplierName,
		ReceivedBy:   d.ReceivedBy,
		Notes:        d.Notes,
		Items:        make([]DeliveryItemModel, len(d.Items)),
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	for i, item := range d.Items {
		m.Items[i] = DeliveryItemModel{
			ID:          item.ID,
			DeliveryID:  d.ID,
			ProductID:   item.ProductID,
			BatchID:     item.BatchID,
			BatchNumber: item.BatchNumber,
			ExpiryDate:  item.ExpiryDate,
			Quantity:    item.Quantity,
		}
	}
	return m
}
