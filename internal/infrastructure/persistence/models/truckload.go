package models

import (
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/domain/truckload"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TruckLoadModel is the persistence model for the TruckLoad aggregate root.
// A truck has at most one load per date.
type TruckLoadModel struct {
	AggregateModel
	TruckID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_truck_loads_truck_date,priority:1"`
	LoadDate     time.Time  `gorm:"type:date;not null;uniqueIndex:uq_truck_loads_truck_date,priority:2;index"`
	LoadedBy     uuid.UUID  `gorm:"type:uuid;not null"`
	Status       string     `gorm:"type:varchar(20);not null;check:chk_truck_loads_status,status IN ('loaded','reconciled')"`
	Notes        string     `gorm:"type:text"`
	ReconciledBy *uuid.UUID `gorm:"type:uuid"`
	ReconciledAt *time.Time
	Items        []TruckLoadItemModel `gorm:"foreignKey:TruckLoadID;references:ID"`
}

// TableName returns the table name for GORM
func (TruckLoadModel) TableName() string {
	return "truck_loads"
}

// TruckLoadItemModel is one batch on a truck.
type TruckLoadItemModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TruckLoadID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_truck_load_items_batch,priority:1"`
	BatchID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_truck_load_items_batch,priority:2"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchNumber      string          `gorm:"type:varchar(100);not null"`
	ExpiryDate       time.Time       `gorm:"type:date;not null"`
	QuantityLoaded   decimal.Decimal `gorm:"type:decimal(12,3);not null;check:chk_truck_load_items_loaded,quantity_loaded > 0"`
	QuantitySold     decimal.Decimal `gorm:"type:decimal(12,3);not null;check:chk_truck_load_items_sold,quantity_sold >= 0"`
	QuantityReturned decimal.Decimal `gorm:"type:decimal(12,3);not null;check:chk_truck_load_items_returned,quantity_returned >= 0 AND quantity_sold + quantity_returned <= quantity_loaded"`
	CreatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TruckLoadItemModel) TableName() string {
	return "truck_load_items"
}

// ToDomain converts the persistence model to a domain TruckLoad.
func (m *TruckLoadModel) ToDomain() *truckload.TruckLoad {
	l := &truckload.TruckLoad{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		TruckID:           m.TruckID,
		LoadDate:          shared.TruncateDate(m.LoadDate),
		LoadedBy:          m.LoadedBy,
		Status:            truckload.LoadStatus(m.Status),
		Notes:             m.Notes,
		ReconciledBy:      m.ReconciledBy,
		ReconciledAt:      m.ReconciledAt,
		Items:             make([]truckload.TruckLoadItem, len(m.Items)),
	}
	for i, item := range m.Items {
		l.Items[i] = truckload.TruckLoadItem{
			ID:               item.ID,
			TruckLoadID:      item.TruckLoadID,
			BatchID:          item.BatchID,
			ProductID:        item.ProductID,
			BatchNumber:      item.BatchNumber,
			ExpiryDate:       shared.TruncateDate(item.ExpiryDate),
			QuantityLoaded:   item.QuantityLoaded,
			QuantitySold:     item.QuantitySold,
			QuantityReturned: item.QuantityReturned,
			CreatedAt:        item.CreatedAt,
		}
	}
	return l
}

// TruckLoadModelFromDomain creates a new persistence model from a domain TruckLoad.
func TruckLoadModelFromDomain(l *truckload.TruckLoad) *TruckLoadModel {
	m := &TruckLoadModel{
		TruckID:      l.TruckID,
		LoadDate:     l.LoadDate,
		LoadedBy:     l.LoadedBy,
		Status:       string(l.Status),
		Notes:        l.Notes,
		ReconciledBy: l.ReconciledBy,
		ReconciledAt: l.ReconciledAt,
		Items:        make([]TruckLoadItemModel, len(l.Items)),
	}
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	for i, item := range l.Items {
		m.Items[i] = TruckLoadItemModel{
			ID:               item.ID,
			TruckLoadID:      l.ID,
			BatchID:          item.BatchID,
			ProductID:        item.ProductID,
			BatchNumber:      item.BatchNumber,
			ExpiryDate:       item.ExpiryDate,
			QuantityLoaded:   item.QuantityLoaded,
			QuantitySold:     item.QuantitySold,
			QuantityReturned: item.QuantityReturned,
			CreatedAt:        item.CreatedAt,
		}
	}
	return m
}
