// Package catalog holds the product, truck and shop records the ledger and
// reconciliation core read from. Their management lives outside the core.
package catalog

import (
	"context"
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable dairy item
type Product struct {
	ID                uuid.UUID
	Name              string
	WholesalePrice    decimal.Decimal // current default unit price
	CommissionPerUnit decimal.Decimal // fixed, independent of the selling price
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewProduct creates an active product
func NewProduct(name string, wholesalePrice, commissionPerUnit decimal.Decimal) (*Product, error) {
	if name == "" {
		return nil, shared.NewValidationError("Product name cannot be empty")
	}
	if wholesalePrice.IsNegative() {
		return nil, shared.NewValidationError("Wholesale price cannot be negative")
	}
	if commissionPerUnit.IsNegative() {
		return nil, shared.NewValidationError("Commission per unit cannot be negative")
	}
	now := time.Now()
	return &Product{
		ID:                uuid.New(),
		Name:              name,
		WholesalePrice:    wholesalePrice,
		CommissionPerUnit: commissionPerUnit,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// CommissionFor returns quantity × commission per unit
func (p *Product) CommissionFor(quantity decimal.Decimal) decimal.Decimal {
	return quantity.Mul(p.CommissionPerUnit)
}

// Truck is a delivery vehicle with an optional assigned driver
type Truck struct {
	ID                uuid.UUID
	TruckNumber       string
	DriverID          *uuid.UUID
	IsActive          bool
	MaxAllowanceLimit decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewTruck creates an active truck
func NewTruck(truckNumber string, driverID *uuid.UUID, maxAllowance decimal.Decimal) (*Truck, error) {
	if truckNumber == "" {
		return nil, shared.NewValidationError("Truck number cannot be empty")
	}
	if maxAllowance.IsNegative() {
		return nil, shared.NewValidationError("Max allowance limit cannot be negative")
	}
	now := time.Now()
	return &Truck{
		ID:                uuid.New(),
		TruckNumber:       truckNumber,
		DriverID:          driverID,
		IsActive:          true,
		MaxAllowanceLimit: maxAllowance,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// IsDrivenBy reports whether userID is the truck's assigned driver
func (t *Truck) IsDrivenBy(userID uuid.UUID) bool {
	return t.DriverID != nil && *t.DriverID == userID
}

// Shop is a retail customer a truck sells to
type Shop struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// NewShop creates a shop
func NewShop(name string) (*Shop, error) {
	if name == "" {
		return nil, shared.NewValidationError("Shop name cannot be empty")
	}
	return &Shop{ID: uuid.New(), Name: name, CreatedAt: time.Now()}, nil
}

// ProductRepository reads and stores products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	Save(ctx context.Context, product *Product) error
}

// TruckRepository reads and stores trucks
type TruckRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Truck, error)
	Save(ctx context.Context, truck *Truck) error
}

// ShopRepository reads and stores shops
type ShopRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Shop, error)
	Save(ctx context.Context, shop *Shop) error
}
