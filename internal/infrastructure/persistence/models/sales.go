package models

import (
	"time"

	"github.com/dairy/backend/internal/domain/sales"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	AggregateModel
	TruckLoadID *uuid.UUID      `gorm:"type:uuid;index"`
	TruckID     *uuid.UUID      `gorm:"type:uuid;index"`
	ShopID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	SoldBy      uuid.UUID       `gorm:"type:uuid;not null"`
	SaleDate    time.Time       `gorm:"type:date;not null;index"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_sales_total,total_amount >= 0"`
	AmountPaid  decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_sales_paid,amount_paid >= 0 AND amount_paid <= total_amount"`
	Notes       string          `gorm:"type:text"`
	Items       []SaleItemModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// SaleItemModel is one batch slice of a sale.
type SaleItemModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null"`
	BatchID          uuid.UUID       `gorm:"type:uuid;not null"`
	TruckLoadItemID  *uuid.UUID      `gorm:"type:uuid"`
	Quantity         decimal.Decimal `gorm:"type:decimal(12,3);not null;check:chk_sale_items_quantity,quantity > 0"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_sale_items_price,unit_price >= 0"`
	LineTotal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CommissionEarned decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() *sales.Sale {
	s := &sales.Sale{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		TruckLoadID:       m.TruckLoadID,
		TruckID:           m.TruckID,
		ShopID:            m.ShopID,
		SoldBy:            m.SoldBy,
		SaleDate:          shared.TruncateDate(m.SaleDate),
		TotalAmount:       m.TotalAmount,
		AmountPaid:        m.AmountPaid,
		Notes:             m.Notes,
		Items:             make([]sales.SaleItem, len(m.Items)),
	}
	for i, item := range m.Items {
		s.Items[i] = sales.SaleItem{
			ID:               item.ID,
			SaleID:           item.SaleID,
			ProductID:        item.ProductID,
			BatchID:          item.BatchID,
			TruckLoadItemID:  item.TruckLoadItemID,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			LineTotal:        item.LineTotal,
			CommissionEarned: item.CommissionEarned,
		}
	}
	return s
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{
		TruckLoadID: s.TruckLoadID,
		TruckID:     s.TruckID,
		ShopID:      s.ShopID,
		SoldBy:      s.SoldBy,
		SaleDate:    s.SaleDate,
		TotalAmount: s.TotalAmount,
		AmountPaid:  s.AmountPaid,
		Notes:       s.Notes,
		Items:       make([]SaleItemModel, len(s.Items)),
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	for i, item := range s.Items {
		m.Items[i] = SaleItemModel{
			ID:               item.ID,
			SaleID:           s.ID,
			ProductID:        item.ProductID,
			BatchID:          item.BatchID,
			TruckLoadItemID:  item.TruckLoadItemID,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			LineTotal:        item.LineTotal,
			CommissionEarned: item.CommissionEarned,
		}
	}
	return m
}
