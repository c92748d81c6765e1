package persistence

import (
	"context"
	"testing"

	"github.com/dairy/backend/internal/domain/reconciliation"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedDay(t *testing.T, trucks ...uuid.UUID) *reconciliation.DailyReconciliation {
	t.Helper()
	snapshots := make([]reconciliation.TruckSnapshot, len(trucks))
	for i, truckID := range trucks {
		snapshots[i] = reconciliation.TruckSnapshot{
			TruckID:           truckID,
			TruckLoadID:       uuid.New(),
			ItemsLoaded:       decimal.NewFromInt(6),
			ItemsSold:         decimal.NewFromInt(3),
			SalesAmount:       decimal.NewFromInt(6),
			CommissionEarned:  decimal.RequireFromString("0.3"),
			PaymentsCollected: decimal.NewFromInt(4),
			Allowance:         decimal.NewFromInt(1),
		}
	}
	rec, err := reconciliation.Start(repoDay, "", uuid.New(), snapshots)
	require.NoError(t, err)
	return rec
}

func TestGormReconciliationRepository_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReconciliationRepository(db)
	ctx := context.Background()
	north, south := uuid.New(), uuid.New()

	exists, err := repo.ExistsForDate(ctx, repoDay)
	require.NoError(t, err)
	assert.False(t, exists)

	rec := startedDay(t, north, south)
	require.NoError(t, repo.Create(ctx, rec))

	exists, err = repo.ExistsForDate(ctx, repoDay)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.FindByDate(ctx, repoDay)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, reconciliation.StatusInProgress, got.Status)
	assert.Equal(t, 2, got.TrucksOut)
	assert.Len(t, got.Items, 2)
	assert.True(t, got.Totals.PendingPayments.Equal(decimal.NewFromInt(4)))

	assert.ErrorIs(t, repo.Create(ctx, startedDay(t, north)), shared.ErrConflict, "one reconciliation per date")

	_, err = repo.FindByDate(ctx, repoDay.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormReconciliationRepository_SaveRewritesLines(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReconciliationRepository(db)
	ctx := context.Background()
	truckID := uuid.New()
	milk, cream := uuid.New(), uuid.New()

	rec := startedDay(t, truckID)
	require.NoError(t, repo.Create(ctx, rec))

	_, err := rec.VerifyTruck(truckID, reconciliation.Verification{
		Returned:  []reconciliation.ReturnLine{{ProductID: milk, Quantity: decimal.NewFromInt(1)}, {ProductID: cream, Quantity: decimal.NewFromInt(1)}},
		Discarded: []reconciliation.DiscardLine{{ProductID: milk, Quantity: decimal.NewFromInt(1), Reason: reconciliation.DiscardReasonDamaged}},
	}, uuid.New(), decimal.RequireFromString("0.01"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, rec))

	// a second verification replaces the first count
	rec, err = repo.FindByDateForUpdate(ctx, repoDay)
	require.NoError(t, err)
	_, err = rec.VerifyTruck(truckID, reconciliation.Verification{
		Returned:         []reconciliation.ReturnLine{{ProductID: milk, Quantity: decimal.NewFromInt(2)}},
		DiscrepancyNotes: "one crate missing",
	}, uuid.New(), decimal.RequireFromString("0.01"))
	require.NoError(t, err)
	require.NoError(t, rec.Finalize(uuid.New()))
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.FindByDate(ctx, repoDay)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.StatusFinalized, got.Status)
	assert.True(t, got.NetProfit.Equal(decimal.RequireFromString("-0.7")))
	require.Len(t, got.Items, 1)
	item := got.Items[0]
	assert.True(t, item.IsVerified)
	assert.True(t, item.HasDiscrepancy)
	assert.Equal(t, "one crate missing", item.DiscrepancyNotes)
	require.Len(t, item.Lines, 1)
	assert.Equal(t, reconciliation.LineKindReturned, item.Lines[0].Kind)
	assert.True(t, item.Lines[0].Quantity.Equal(decimal.NewFromInt(2)))

	var lines int64
	require.NoError(t, db.Table("reconciliation_lines").Count(&lines).Error)
	assert.Equal(t, int64(1), lines)
}

func TestGormReconciliationRepository_List(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReconciliationRepository(db)
	ctx := context.Background()

	for i := range 3 {
		rec, err := reconciliation.Start(repoDay.AddDate(0, 0, i), "", uuid.New(), nil)
		require.NoError(t, err)
		if i == 0 {
			require.NoError(t, rec.Finalize(uuid.New()))
		}
		require.NoError(t, repo.Create(ctx, rec))
	}

	all, total, err := repo.List(ctx, reconciliation.Filter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)
	assert.True(t, all[0].ReconciliationDate.Equal(repoDay.AddDate(0, 0, 2)))

	finalized, total, err := repo.List(ctx, reconciliation.Filter{Filter: shared.DefaultFilter(), Status: reconciliation.StatusFinalized})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.True(t, finalized[0].ReconciliationDate.Equal(repoDay))

	to := repoDay.AddDate(0, 0, 1)
	_, total, err = repo.List(ctx, reconciliation.Filter{Filter: shared.DefaultFilter(), Dates: shared.DateRange{To: &to}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
