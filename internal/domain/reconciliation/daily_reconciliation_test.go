package reconciliation

import (
	"testing"
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var day = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func snapshot(truck uuid.UUID, loaded, sold, commission, allowance string) TruckSnapshot {
	return TruckSnapshot{
		TruckID:           truck,
		TruckLoadID:       uuid.New(),
		ItemsLoaded:       dec(loaded),
		ItemsSold:         dec(sold),
		SalesAmount:       dec(sold).Mul(dec("2")),
		CommissionEarned:  dec(commission),
		PaymentsCollected: dec(sold),
		Allowance:         dec(allowance),
	}
}

func TestStart(t *testing.T) {
	truckA, truckB := uuid.New(), uuid.New()

	r, err := Start(day.Add(5*time.Hour), "", uuid.New(), []TruckSnapshot{
		snapshot(truckA, "20", "15", "1.50", "10"),
		snapshot(truckB, "10", "4", "0.40", "0"),
	})
	require.NoError(t, err)
	assert.Equal(t, day, r.ReconciliationDate)
	assert.Equal(t, StatusInProgress, r.Status)
	assert.Equal(t, 2, r.TrucksOut)
	assert.Equal(t, 0, r.TrucksVerified)
	assert.True(t, r.Totals.ItemsLoaded.Equal(dec("30")))
	assert.True(t, r.Totals.PendingPayments.Equal(dec("19")))
	assert.Equal(t, EventTypeReconciliationStarted, r.GetDomainEvents()[0].EventType())

	_, err = Start(day, "", uuid.New(), []TruckSnapshot{snapshot(truckA, "1", "0", "0", "0"), snapshot(truckA, "1", "0", "0", "0")})
	assert.Equal(t, shared.CodeConflict, shared.CodeOf(err))

	empty, err := Start(day, "", uuid.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TrucksOut)
	assert.NoError(t, empty.CheckFinalizable())
}

func TestVerifyTruckDiscrepancy(t *testing.T) {
	truck := uuid.New()
	product := uuid.New()

	tests := []struct {
		name        string
		returned    string
		discarded   string
		discrepancy bool
	}{
		{"exact", "4", "1", false},
		{"within tolerance", "4", "0.99", false},
		{"just past tolerance", "4", "0.98", true},
		{"over-reported", "6", "0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Start(day, "", uuid.New(), []TruckSnapshot{snapshot(truck, "10", "5", "0.5", "0")})
			require.NoError(t, err)

			item, err := r.VerifyTruck(truck, Verification{
				Returned:  []ReturnLine{{ProductID: product, Quantity: dec(tt.returned)}},
				Discarded: []DiscardLine{{ProductID: product, Quantity: dec(tt.discarded), Reason: DiscardReasonDamaged}},
			}, uuid.New(), DefaultDiscrepancyTolerance)
			require.NoError(t, err)
			assert.Equal(t, tt.discrepancy, item.HasDiscrepancy)
			assert.True(t, item.IsVerified)
			assert.Equal(t, 1, r.TrucksVerified)
		})
	}
}

func TestVerifyTruckReplacesEarlierCount(t *testing.T) {
	truck := uuid.New()
	product := uuid.New()
	r, err := Start(day, "", uuid.New(), []TruckSnapshot{snapshot(truck, "10", "5", "0.5", "0")})
	require.NoError(t, err)

	_, err = r.VerifyTruck(truck, Verification{Returned: []ReturnLine{{ProductID: product, Quantity: dec("1")}}}, uuid.New(), DefaultDiscrepancyTolerance)
	require.NoError(t, err)
	item, err := r.VerifyTruck(truck, Verification{
		Returned: []ReturnLine{{ProductID: product, Quantity: dec("3")}, {ProductID: product, Quantity: dec("2")}},
	}, uuid.New(), DefaultDiscrepancyTolerance)
	require.NoError(t, err)

	assert.Equal(t, 1, r.TrucksVerified)
	assert.True(t, item.ItemsReturned.Equal(dec("5")))
	assert.False(t, item.HasDiscrepancy)
	assert.True(t, item.ReturnedByProduct()[product].Equal(dec("5")))
	assert.Equal(t, []uuid.UUID{product}, item.ReturnedProducts())
	assert.True(t, r.Totals.ItemsReturned.Equal(dec("5")))
}

func TestVerifyTruckRejects(t *testing.T) {
	truck := uuid.New()
	r, err := Start(day, "", uuid.New(), []TruckSnapshot{snapshot(truck, "10", "5", "0.5", "0")})
	require.NoError(t, err)

	_, err = r.VerifyTruck(uuid.New(), Verification{}, uuid.New(), DefaultDiscrepancyTolerance)
	assert.Equal(t, shared.CodeNotFound, shared.CodeOf(err))

	_, err = r.VerifyTruck(truck, Verification{
		Discarded: []DiscardLine{{ProductID: uuid.New(), Quantity: dec("1"), Reason: "lost"}},
	}, uuid.New(), DefaultDiscrepancyTolerance)
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))

	_, err = r.VerifyTruck(truck, Verification{
		Returned: []ReturnLine{{ProductID: uuid.New(), Quantity: dec("-1")}},
	}, uuid.New(), DefaultDiscrepancyTolerance)
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	assert.False(t, r.FindItem(truck).IsVerified)
}

func TestFinalize(t *testing.T) {
	truckA, truckB := uuid.New(), uuid.New()
	r, err := Start(day, "", uuid.New(), []TruckSnapshot{
		snapshot(truckA, "20", "15", "1.50", "10"),
		snapshot(truckB, "10", "4", "0.40", "0"),
	})
	require.NoError(t, err)

	_, err = r.VerifyTruck(truckA, Verification{}, uuid.New(), DefaultDiscrepancyTolerance)
	require.NoError(t, err)
	err = r.Finalize(uuid.New())
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	assert.Equal(t, StatusInProgress, r.Status)

	_, err = r.VerifyTruck(truckB, Verification{}, uuid.New(), DefaultDiscrepancyTolerance)
	require.NoError(t, err)
	manager := uuid.New()
	require.NoError(t, r.Finalize(manager))

	assert.Equal(t, StatusFinalized, r.Status)
	assert.Equal(t, &manager, r.FinalizedBy)
	assert.True(t, r.NetProfit.Equal(dec("-8.1")))
	assert.Equal(t, ProfitStatusLoss, r.ProfitStatus())

	assert.Equal(t, shared.CodeConflict, shared.CodeOf(r.Finalize(manager)))
	_, err = r.VerifyTruck(truckA, Verification{}, uuid.New(), DefaultDiscrepancyTolerance)
	assert.Equal(t, shared.CodeConflict, shared.CodeOf(err))
}
