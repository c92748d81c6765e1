package models

import (
	"time"

	"github.com/dairy/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product read model.
type ProductModel struct {
	BaseModel
	Name              string          `gorm:"type:varchar(200);not null"`
	WholesalePrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_products_price,wholesale_price >= 0"`
	CommissionPerUnit decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_products_commission,commission_per_unit >= 0"`
	IsActive          bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		ID:                m.ID,
		Name:              m.Name,
		WholesalePrice:    m.WholesalePrice,
		CommissionPerUnit: m.CommissionPerUnit,
		IsActive:          m.IsActive,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	return &ProductModel{
		BaseModel:         BaseModel{ID: p.ID, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt},
		Name:              p.Name,
		WholesalePrice:    p.WholesalePrice,
		CommissionPerUnit: p.CommissionPerUnit,
		IsActive:          p.IsActive,
	}
}

// TruckModel is the persistence model for the Truck read model.
type TruckModel struct {
	BaseModel
	TruckNumber       string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	DriverID          *uuid.UUID      `gorm:"type:uuid;index"`
	IsActive          bool            `gorm:"not null"`
	MaxAllowanceLimit decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_trucks_allowance_limit,max_allowance_limit >= 0"`
}

// TableName returns the table name for GORM
func (TruckModel) TableName() string {
	return "trucks"
}

// ToDomain converts the persistence model to a domain Truck.
func (m *TruckModel) ToDomain() *catalog.Truck {
	return &catalog.Truck{
		ID:                m.ID,
		TruckNumber:       m.TruckNumber,
		DriverID:          m.DriverID,
		IsActive:          m.IsActive,
		MaxAllowanceLimit: m.MaxAllowanceLimit,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// TruckModelFromDomain creates a new persistence model from a domain Truck.
func TruckModelFromDomain(t *catalog.Truck) *TruckModel {
	return &TruckModel{
		BaseModel:         BaseModel{ID: t.ID, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt},
		TruckNumber:       t.TruckNumber,
		DriverID:          t.DriverID,
		IsActive:          t.IsActive,
		MaxAllowanceLimit: t.MaxAllowanceLimit,
	}
}

// ShopModel is the persistence model for the Shop read model.
type ShopModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShopModel) TableName() string {
	return "shops"
}

// ToDomain converts the persistence model to a domain Shop.
func (m *ShopModel) ToDomain() *catalog.Shop {
	return &catalog.Shop{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}
}

// ShopModelFromDomain creates a new persistence model from a domain Shop.
func ShopModelFromDomain(s *catalog.Shop) *ShopModel {
	return &ShopModel{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt}
}
