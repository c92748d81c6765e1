package testutil

import (
	"context"
	"testing"
	"time"

	appshared "github.com/dairy/backend/internal/application/shared"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/infrastructure/persistence"
	"github.com/dairy/backend/internal/interfaces/http/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLiteDBSeeds(t *testing.T) {
	db := NewSQLiteDB(t)
	ctx := context.Background()

	product := SeedProduct(t, db, "Full cream 1L", "1.20", "0.05")
	driver := Driver("amir")
	truck := SeedTruck(t, db, "TRK-01", &driver.UserID, "50")

	gotProduct, err := persistence.NewGormProductRepository(db).FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, gotProduct.WholesalePrice.Equal(Dec(t, "1.20")))

	gotTruck, err := persistence.NewGormTruckRepository(db).FindByID(ctx, truck.ID)
	require.NoError(t, err)
	assert.True(t, gotTruck.IsDrivenBy(driver.UserID))
}

func TestActors(t *testing.T) {
	assert.Equal(t, appshared.RoleManager, Manager().Role)
	assert.Equal(t, Manager().UserID, Manager().UserID)
	assert.NotEqual(t, Driver("a").UserID, Driver("b").UserID)

	headers := ActorHeaders(Driver("a"))
	assert.Equal(t, "driver", headers[middleware.UserRoleHeader])
	_, err := uuid.Parse(headers[middleware.UserIDHeader])
	assert.NoError(t, err)
}

func TestStableID(t *testing.T) {
	assert.Equal(t, StableID("x"), StableID("x"))
	assert.NotEqual(t, StableID("x"), StableID("y"))
	assert.Equal(t, Date(2024, 3, 1), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
}

func TestMockEventHandler(t *testing.T) {
	h := NewMockEventHandler("a")
	e := shared.NewBaseDomainEvent("a", "Agg", uuid.New())

	require.NoError(t, h.Publish(context.Background(), &e))
	assert.Equal(t, []string{"a"}, h.HandledTypes())

	h.SetError(assert.AnError)
	assert.ErrorIs(t, h.Handle(context.Background(), &e), assert.AnError)
	assert.Len(t, h.Handled(), 2)
}
