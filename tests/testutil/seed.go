package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dairy/backend/internal/domain/catalog"
	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SeedProduct stores an active product with the given wholesale price and
// commission per unit.
func SeedProduct(t *testing.T, db *gorm.DB, name, price, commission string) *catalog.Product {
	t.Helper()

	product, err := catalog.NewProduct(name, decimal.RequireFromString(price), decimal.RequireFromString(commission))
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormProductRepository(db).Save(context.Background(), product))
	return product
}

// SeedTruck stores an active truck driven by driverID (nil for none).
func SeedTruck(t *testing.T, db *gorm.DB, number string, driverID *uuid.UUID, maxAllowance string) *catalog.Truck {
	t.Helper()

	truck, err := catalog.NewTruck(number, driverID, decimal.RequireFromString(maxAllowance))
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormTruckRepository(db).Save(context.Background(), truck))
	return truck
}

// SeedShop stores a shop.
func SeedShop(t *testing.T, db *gorm.DB, name string) *catalog.Shop {
	t.Helper()

	shop, err := catalog.NewShop(name)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormShopRepository(db).Save(context.Background(), shop))
	return shop
}

// SeedBatch stores a batch holding qty, received through a delivery_in
// movement so that the batch ledger stays consistent.
func SeedBatch(t *testing.T, db *gorm.DB, productID uuid.UUID, number string, expiry time.Time, qty string) *inventory.Batch {
	t.Helper()
	ctx := context.Background()

	batch, err := inventory.NewBatch(productID, number, expiry, nil)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormBatchRepository(db).Create(ctx, batch))

	quantity := decimal.RequireFromString(qty)
	movement, err := inventory.NewStockMovement(batch, inventory.MovementTypeDeliveryIn, quantity,
		inventory.NewReference(inventory.ReferenceTypeManual, batch.ID), Manager().UserID, expiry)
	require.NoError(t, err)
	require.NoError(t, batch.Apply(inventory.MovementTypeDeliveryIn, quantity))
	require.NoError(t, persistence.NewGormBatchRepository(db).Increase(ctx, batch.ID, quantity, true))
	require.NoError(t, persistence.NewGormMovementRepository(db).Create(ctx, movement))
	return batch
}

// Dec parses a decimal literal, failing the test on malformed input.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
