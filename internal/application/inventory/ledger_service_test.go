package inventory

import (
	"context"
	"testing"
	"time"

	appshared "github.com/dairy/backend/internal/application/shared"
	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/infrastructure/persistence"
	"github.com/dairy/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ledgerEnv struct {
	db         *gorm.DB
	scope      appshared.TransactionScope
	repos      appshared.Repositories
	ledger     *Ledger
	deliveries *DeliveryService
	service    *LedgerService
	events     *testutil.MockEventHandler
}

func newLedgerEnv(t *testing.T) *ledgerEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	scope := persistence.NewGormTransactionScope(db)
	repos := persistence.NewRepositories(db)
	ledger := NewLedger()
	events := testutil.NewMockEventHandler()

	deliveries := NewDeliveryService(scope, repos, ledger, zap.NewNop())
	deliveries.SetEventPublisher(events)
	service := NewLedgerService(scope, repos, ledger, zap.NewNop())
	service.SetEventPublisher(events)

	return &ledgerEnv{db: db, scope: scope, repos: repos, ledger: ledger, deliveries: deliveries, service: service, events: events}
}

var today = testutil.Date(2026, 3, 14)

func (e *ledgerEnv) receive(t *testing.T, productID uuid.UUID, lines ...DeliveryItemRequest) *DeliveryResponse {
	t.Helper()
	for i := range lines {
		lines[i].ProductID = productID
	}
	resp, err := e.deliveries.Receive(context.Background(), testutil.Manager(), ReceiveDeliveryRequest{
		DeliveryDate: today,
		Items:        lines,
	})
	require.NoError(t, err)
	return resp
}

func line(number string, expiryDays int, qty string) DeliveryItemRequest {
	return DeliveryItemRequest{BatchNumber: number, ExpiryDate: today.AddDate(0, 0, expiryDays), Quantity: decimal.RequireFromString(qty)}
}

func TestReceiveDelivery(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()
	product := testutil.SeedProduct(t, env.db, "Milk 1L", "1.20", "0.05")

	resp := env.receive(t, product.ID, line("LOT-A", 5, "10"), line("LOT-B", 7, "4"))
	require.Len(t, resp.Items, 2)
	assert.True(t, resp.TotalQuantity.Equal(testutil.Dec(t, "14")))

	batch, err := env.repos.Batches().FindByID(ctx, resp.Items[0].BatchID)
	require.NoError(t, err)
	assert.True(t, batch.InitialQuantity.Equal(testutil.Dec(t, "10")))
	assert.True(t, batch.RemainingQuantity.Equal(testutil.Dec(t, "10")))
	assert.Equal(t, &resp.ID, batch.OriginDeliveryID)

	t.Run("same batch number tops up", func(t *testing.T) {
		again := env.receive(t, product.ID, line("LOT-A", 5, "2"))
		assert.Equal(t, resp.Items[0].BatchID, again.Items[0].BatchID)
		batch, err := env.repos.Batches().FindByID(ctx, again.Items[0].BatchID)
		require.NoError(t, err)
		assert.True(t, batch.InitialQuantity.Equal(testutil.Dec(t, "12")))
	})

	t.Run("same batch number with other expiry is rejected", func(t *testing.T) {
		_, err := env.deliveries.Receive(ctx, testutil.Manager(), ReceiveDeliveryRequest{
			DeliveryDate: today,
			Items:        []DeliveryItemRequest{{ProductID: product.ID, BatchNumber: "LOT-A", ExpiryDate: today, Quantity: testutil.Dec(t, "1")}},
		})
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})

	t.Run("unknown product rolls back", func(t *testing.T) {
		_, err := env.deliveries.Receive(ctx, testutil.Manager(), ReceiveDeliveryRequest{
			DeliveryDate: today,
			Items: []DeliveryItemRequest{
				{ProductID: product.ID, BatchNumber: "LOT-C", ExpiryDate: today, Quantity: testutil.Dec(t, "1")},
				{ProductID: uuid.New(), BatchNumber: "LOT-D", ExpiryDate: today, Quantity: testutil.Dec(t, "1")},
			},
		})
		assert.Equal(t, shared.CodeNotFound, shared.CodeOf(err))
		_, err = env.repos.Batches().FindByProductAndNumberForUpdate(ctx, product.ID, "LOT-C")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("drivers cannot receive", func(t *testing.T) {
		_, err := env.deliveries.Receive(ctx, testutil.Driver("d"), ReceiveDeliveryRequest{DeliveryDate: today})
		assert.Equal(t, shared.CodeForbidden, shared.CodeOf(err))
	})

	assert.Contains(t, env.events.HandledTypes(), inventory.EventTypeDeliveryReceived)
	assert.Contains(t, env.events.HandledTypes(), inventory.EventTypeStockMovementPosted)
}

func TestAdjust(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()
	product := testutil.SeedProduct(t, env.db, "Milk 1L", "1.20", "0.05")
	batchID := env.receive(t, product.ID, line("LOT-A", 5, "10")).Items[0].BatchID

	m, err := env.service.Adjust(ctx, testutil.Manager(), AdjustStockRequest{
		BatchID:  batchID,
		Quantity: testutil.Dec(t, "-3"),
		Reason:   "Count correction",
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.MovementTypeAdjustment, m.Type)

	_, err = env.service.Adjust(ctx, testutil.Manager(), AdjustStockRequest{
		BatchID:      batchID,
		MovementType: "expired_out",
		Quantity:     testutil.Dec(t, "2"),
		Reason:       "Past date",
	})
	require.NoError(t, err)

	batch, err := env.repos.Batches().FindByID(ctx, batchID)
	require.NoError(t, err)
	assert.True(t, batch.InitialQuantity.Equal(testutil.Dec(t, "7")))
	assert.True(t, batch.RemainingQuantity.Equal(testutil.Dec(t, "5")))

	tests := []struct {
		name  string
		actor appshared.Actor
		req   AdjustStockRequest
		code  string
	}{
		{"driver", testutil.Driver("d"), AdjustStockRequest{BatchID: batchID, Quantity: testutil.Dec(t, "1"), Reason: "x"}, shared.CodeForbidden},
		{"missing reason", testutil.Manager(), AdjustStockRequest{BatchID: batchID, Quantity: testutil.Dec(t, "1"), Reason: "  "}, shared.CodeValidation},
		{"wrong type", testutil.Manager(), AdjustStockRequest{BatchID: batchID, MovementType: "sale_out", Quantity: testutil.Dec(t, "1"), Reason: "x"}, shared.CodeValidation},
		{"below zero", testutil.Manager(), AdjustStockRequest{BatchID: batchID, Quantity: testutil.Dec(t, "-6"), Reason: "x"}, shared.CodeInsufficientStock},
		{"wrong product", testutil.Manager(), AdjustStockRequest{BatchID: batchID, ProductID: &uuid.Nil, Quantity: testutil.Dec(t, "1"), Reason: "x"}, shared.CodeValidation},
		{"unknown batch", testutil.Manager(), AdjustStockRequest{BatchID: uuid.New(), Quantity: testutil.Dec(t, "1"), Reason: "x"}, shared.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Adjust(ctx, tt.actor, tt.req)
			assert.Equal(t, tt.code, shared.CodeOf(err))
		})
	}

	check, err := env.service.VerifyBatch(ctx, batchID)
	require.NoError(t, err)
	assert.True(t, check.Consistent)
	assert.Equal(t, 3, check.MovementCount)
}

func TestPostMovementReturnCannotExceedInitial(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()
	product := testutil.SeedProduct(t, env.db, "Milk 1L", "1.20", "0.05")
	batchID := env.receive(t, product.ID, line("LOT-A", 5, "10")).Items[0].BatchID

	_, err := env.service.PostMovement(ctx, testutil.Manager(), PostMovementRequest{
		BatchID:       batchID,
		MovementType:  string(inventory.MovementTypeTruckReturnIn),
		Quantity:      testutil.Dec(t, "1"),
		ReferenceType: string(inventory.ReferenceTypeManual),
	})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))

	_, err = env.service.PostMovement(ctx, testutil.Manager(), PostMovementRequest{
		BatchID:       batchID,
		MovementType:  string(inventory.MovementTypeSaleOut),
		Quantity:      testutil.Dec(t, "4"),
		ReferenceType: string(inventory.ReferenceTypeManual),
	})
	require.NoError(t, err)

	check, err := env.service.VerifyBatch(ctx, batchID)
	require.NoError(t, err)
	assert.True(t, check.RecordedRemaining.Equal(testutil.Dec(t, "6")))
	assert.True(t, check.Consistent)
}

func TestRunningBalancePagesThroughHistory(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()
	env.service.SetPageSize(2)
	product := testutil.SeedProduct(t, env.db, "Milk 1L", "1.20", "0.05")
	batchID := env.receive(t, product.ID, line("LOT-A", 5, "10")).Items[0].BatchID

	for range 4 {
		_, err := env.service.PostMovement(ctx, testutil.Manager(), PostMovementRequest{
			BatchID:       batchID,
			MovementType:  string(inventory.MovementTypeSaleOut),
			Quantity:      testutil.Dec(t, "1.5"),
			ReferenceType: string(inventory.ReferenceTypeManual),
		})
		require.NoError(t, err)
	}

	seq, err := env.service.RunningBalance(ctx, batchID)
	require.NoError(t, err)
	want := []string{"10", "8.5", "7", "5.5", "4"}
	i := 0
	for entry, err := range seq {
		require.NoError(t, err)
		require.Less(t, i, len(want))
		assert.True(t, entry.Balance.Equal(testutil.Dec(t, want[i])), "entry %d: %s", i, entry.Balance)
		i++
	}
	assert.Equal(t, len(want), i)

	ledger, err := env.service.BatchLedger(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, ledger.Movements, 5)
	assert.True(t, ledger.Movements[4].Balance.Equal(ledger.Batch.RemainingQuantity))

	_, err = env.service.RunningBalance(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDailySummaryAndProductMovements(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()
	product := testutil.SeedProduct(t, env.db, "Milk 1L", "1.20", "0.05")
	env.receive(t, product.ID, line("LOT-A", 5, "10"), line("LOT-B", 6, "5"))

	summary, err := env.service.DailySummary(ctx, today.Add(15*time.Hour))
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, inventory.MovementTypeDeliveryIn, summary.Lines[0].MovementType)
	assert.Equal(t, 2, summary.Lines[0].Count)
	assert.True(t, summary.Lines[0].Quantity.Equal(testutil.Dec(t, "15")))

	movements, err := env.service.ProductMovements(ctx, product.ID, MovementListFilter{MovementType: "delivery_in"})
	require.NoError(t, err)
	assert.Len(t, movements, 2)

	_, err = env.service.ProductMovements(ctx, product.ID, MovementListFilter{MovementType: "teleport"})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))

	batches, total, err := env.service.ListBatches(ctx, BatchListFilter{ProductID: product.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, batches, 2)

	_, _, err = env.service.ListBatches(ctx, BatchListFilter{Status: "stale"})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
}

func TestAuditLedgerFindsDrift(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()
	product := testutil.SeedProduct(t, env.db, "Milk 1L", "1.20", "0.05")
	resp := env.receive(t, product.ID, line("LOT-A", 5, "10"), line("LOT-B", 6, "4"), line("LOT-C", 7, "2"))

	audit, err := env.service.AuditLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, audit.BatchesChecked)
	assert.Empty(t, audit.Inconsistent)

	// a write that bypassed the ledger
	drifted := resp.Items[1].BatchID
	require.NoError(t, env.db.Exec("UPDATE batches SET remaining_quantity = 3 WHERE id = ?", drifted).Error)

	env.service.SetPageSize(1)
	audit, err = env.service.AuditLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, audit.BatchesChecked)
	assert.Equal(t, []uuid.UUID{drifted}, audit.Inconsistent)
}
