package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/domain/truckload"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newLoad(t *testing.T, db *gorm.DB, truckID uuid.UUID, day time.Time, qty string) *truckload.TruckLoad {
	t.Helper()
	product := seedProduct(t, db)
	batch := stockedBatch(t, db, product.ID, "B-"+day.Format(time.DateOnly), repoDay.AddDate(0, 0, 5), "20")

	load, err := truckload.NewTruckLoad(truckID, day, uuid.New(), "")
	require.NoError(t, err)
	require.NoError(t, load.AddAllocated(batch.ID, product.ID, batch.BatchNumber, batch.ExpiryDate, decimal.RequireFromString(qty)))
	require.NoError(t, NewGormTruckLoadRepository(db).Save(context.Background(), load))
	return load
}

func TestGormTruckLoadRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTruckLoadRepository(db)
	ctx := context.Background()
	truckID := uuid.New()
	load := newLoad(t, db, truckID, repoDay, "6")

	got, err := repo.FindByID(ctx, load.ID)
	require.NoError(t, err)
	assert.Equal(t, truckload.LoadStatusLoaded, got.Status)
	assert.True(t, got.LoadDate.Equal(repoDay))
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].QuantityLoaded.Equal(decimal.NewFromInt(6)))

	// a sale and a reconcile update the stored item in place
	require.NoError(t, got.Items[0].RecordSale(decimal.NewFromInt(2)))
	require.NoError(t, got.Reconcile([]truckload.ReturnLine{{BatchID: got.Items[0].BatchID, QuantityReturned: decimal.NewFromInt(3)}}, uuid.New(), "done"))
	require.NoError(t, repo.Save(ctx, got))

	byTruck, err := repo.FindByTruckAndDate(ctx, truckID, repoDay.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, truckload.LoadStatusReconciled, byTruck.Status)
	require.Len(t, byTruck.Items, 1)
	assert.True(t, byTruck.Items[0].QuantitySold.Equal(decimal.NewFromInt(2)))
	assert.True(t, byTruck.Items[0].QuantityReturned.Equal(decimal.NewFromInt(3)))
	assert.True(t, byTruck.Items[0].LostDamaged(byTruck.Status).Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "done", byTruck.Notes)

	_, err = repo.FindByTruckAndDate(ctx, truckID, repoDay.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormTruckLoadRepository_OneLoadPerTruckAndDate(t *testing.T) {
	db := newTestDB(t)
	truckID := uuid.New()
	newLoad(t, db, truckID, repoDay, "1")

	again, err := truckload.NewTruckLoad(truckID, repoDay, uuid.New(), "")
	require.NoError(t, err)
	err = NewGormTruckLoadRepository(db).Save(context.Background(), again)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestGormTruckLoadRepository_OversoldItemIsRejected(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTruckLoadRepository(db)
	load := newLoad(t, db, uuid.New(), repoDay, "2")

	load.Items[0].QuantitySold = decimal.NewFromInt(3)
	err := repo.Save(context.Background(), load)
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
}

func TestGormTruckLoadRepository_ListAndFindByDate(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTruckLoadRepository(db)
	ctx := context.Background()
	north, south := uuid.New(), uuid.New()

	newLoad(t, db, north, repoDay.AddDate(0, 0, -1), "1")
	first := newLoad(t, db, north, repoDay, "1")
	second := newLoad(t, db, south, repoDay, "1")

	sameDay, err := repo.FindByDate(ctx, repoDay)
	require.NoError(t, err)
	require.Len(t, sameDay, 2)
	assert.Equal(t, first.ID, sameDay[0].ID)
	assert.Equal(t, second.ID, sameDay[1].ID)

	loads, total, err := repo.List(ctx, truckload.Filter{Filter: shared.DefaultFilter(), TruckID: &north})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, loads, 2)
	assert.True(t, loads[0].LoadDate.Equal(repoDay), "newest date first")

	day := repoDay
	_, total, err = repo.List(ctx, truckload.Filter{
		Filter: shared.DefaultFilter(),
		Status: truckload.LoadStatusLoaded,
		Dates:  shared.DateRange{From: &day},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = repo.List(ctx, truckload.Filter{Filter: shared.DefaultFilter(), Status: truckload.LoadStatusReconciled})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestGormTruckLoadRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTruckLoadRepository(db)
	ctx := context.Background()
	load := newLoad(t, db, uuid.New(), repoDay, "1")

	require.NoError(t, repo.Delete(ctx, load.ID))
	_, err := repo.FindByID(ctx, load.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	var items int64
	require.NoError(t, db.Table("truck_load_items").Where("truck_load_id = ?", load.ID).Count(&items).Error)
	assert.Zero(t, items)

	assert.ErrorIs(t, repo.Delete(ctx, load.ID), shared.ErrNotFound)
}
