//go:build integration

package integration

import (
	"context"
	"testing"

	appallowance "github.com/dairy/backend/internal/application/allowance"
	appinv "github.com/dairy/backend/internal/application/inventory"
	apprecon "github.com/dairy/backend/internal/application/reconciliation"
	appsales "github.com/dairy/backend/internal/application/sales"
	apptruck "github.com/dairy/backend/internal/application/truckload"
	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/reconciliation"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/domain/truckload"
	"github.com/dairy/backend/internal/infrastructure/persistence"
	"github.com/dairy/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// A whole operating day on postgres: a delivery is received, a truck is
// loaded and sells to a shop, the allowance is split and the day is
// reconciled and closed.
func TestDailyFlow(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()
	day := testutil.Date(2026, 3, 14)
	manager := testutil.Manager()
	driver := testutil.Driver("north-driver")

	scope := persistence.NewGormTransactionScope(tdb.DB)
	repos := persistence.NewRepositories(tdb.DB)
	ledger := appinv.NewLedger()
	allocator := appinv.NewAllocator(ledger, appinv.AllocatorOptions{})
	deliveries := appinv.NewDeliveryService(scope, repos, ledger, zap.NewNop())
	ledgerService := appinv.NewLedgerService(scope, repos, ledger, zap.NewNop())
	loads := apptruck.NewService(scope, repos, ledger, allocator, zap.NewNop())
	sales := appsales.NewService(scope, repos, allocator, zap.NewNop())
	allowances := appallowance.NewService(scope, repos, zap.NewNop())
	reconciliations := apprecon.NewService(scope, repos, ledger, zap.NewNop())

	product := testutil.SeedProduct(t, tdb.DB, "Milk 1L", "2.00", "0.10")
	shop := testutil.SeedShop(t, tdb.DB, "Corner Shop")
	north := testutil.SeedTruck(t, tdb.DB, "TRK-N", &driver.UserID, "10")

	delivery, err := deliveries.Receive(ctx, manager, appinv.ReceiveDeliveryRequest{
		DeliveryDate: day,
		SupplierName: "Valley Creamery",
		Items: []appinv.DeliveryItemRequest{
			{ProductID: product.ID, BatchNumber: "VC-0314", ExpiryDate: day.AddDate(0, 0, 5), Quantity: decimal.NewFromInt(20)},
		},
	})
	require.NoError(t, err)
	batchID := delivery.Items[0].BatchID

	load, err := loads.Create(ctx, manager, apptruck.CreateTruckLoadRequest{
		TruckID:  north.ID,
		LoadDate: day,
		Items:    []apptruck.LoadItemRequest{{ProductID: &product.ID, Quantity: decimal.NewFromInt(6)}},
	})
	require.NoError(t, err)

	sale, err := sales.Create(ctx, driver, appsales.CreateSaleRequest{
		ShopID:      shop.ID,
		TruckLoadID: &load.ID,
		AmountPaid:  decimal.NewFromInt(4),
		Items:       []appsales.SaleItemRequest{{ProductID: product.ID, Quantity: decimal.NewFromInt(3)}},
	})
	require.NoError(t, err)
	assert.True(t, sale.SaleDate.Equal(day))

	allowance, err := allowances.Create(ctx, manager, appallowance.CreateAllowanceRequest{AllowanceDate: day, TotalAllowance: decimal.NewFromInt(5)})
	require.NoError(t, err)
	_, err = allowances.Allocate(ctx, manager, allowance.ID, appallowance.AllocateRequest{
		Allocations: []appallowance.TruckAllocationRequest{{TruckID: north.ID, Amount: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)

	started, err := reconciliations.Start(ctx, manager, apprecon.StartReconciliationRequest{Date: day})
	require.NoError(t, err)
	assert.Equal(t, 1, started.TrucksOut)
	assert.True(t, started.TotalPendingPayments.Equal(decimal.NewFromInt(2)))

	_, err = reconciliations.Finalize(ctx, manager, day)
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err), "unverified trucks block finalize")

	verified, err := reconciliations.Verify(ctx, manager, day, north.ID, apprecon.VerifyTruckRequest{
		ItemsReturned:  []apprecon.ReturnedItemRequest{{ProductID: product.ID, Quantity: decimal.NewFromInt(2)}},
		ItemsDiscarded: []apprecon.DiscardedItemRequest{{ProductID: product.ID, Quantity: decimal.NewFromInt(1), Reason: "damaged"}},
	})
	require.NoError(t, err)
	require.Len(t, verified.Items, 1)
	assert.False(t, verified.Items[0].HasDiscrepancy)

	_, err = reconciliations.Verify(ctx, driver, day, north.ID, apprecon.VerifyTruckRequest{})
	assert.Equal(t, shared.CodeForbidden, shared.CodeOf(err))

	closed, err := reconciliations.Finalize(ctx, manager, day)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.StatusFinalized, closed.Status)
	assert.True(t, closed.NetProfit.Equal(decimal.RequireFromString("-0.7")), "net profit %s", closed.NetProfit)
	assert.Equal(t, reconciliation.ProfitStatusLoss, closed.ProfitStatus)

	// the sellable returns went back on the batch, the discarded crate did not
	check, err := ledgerService.VerifyBatch(ctx, batchID)
	require.NoError(t, err)
	assert.True(t, check.Consistent)
	assert.True(t, check.RecordedRemaining.Equal(decimal.NewFromInt(16)), "remaining %s", check.RecordedRemaining)

	returns, err := repos.Movements().List(ctx, inventory.MovementFilter{BatchID: &batchID, Type: inventory.MovementTypeTruckReturnIn})
	require.NoError(t, err)
	require.Len(t, returns, 1)
	assert.Equal(t, closed.ID, *returns[0].ReferenceID)

	closedLoad, err := loads.Get(ctx, load.ID)
	require.NoError(t, err)
	assert.Equal(t, truckload.LoadStatusReconciled, closedLoad.Status)

	_, err = reconciliations.Verify(ctx, manager, day, north.ID, apprecon.VerifyTruckRequest{})
	assert.Equal(t, shared.CodeConflict, shared.CodeOf(err), "a finalized day is read only")
}
