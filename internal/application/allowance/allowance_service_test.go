package allowance

import (
	"context"
	"testing"
	"time"

	"github.com/dairy/backend/internal/domain/allowance"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/infrastructure/persistence"
	"github.com/dairy/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var allowanceDay = testutil.Date(2026, 3, 14)

func newTestService(t *testing.T) (*Service, *persistence.GormTruckRepository, func(number, limit string) uuid.UUID) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	service := NewService(persistence.NewGormTransactionScope(db), persistence.NewRepositories(db), zap.NewNop())
	truck := func(number, limit string) uuid.UUID {
		return testutil.SeedTruck(t, db, number, nil, limit).ID
	}
	return service, persistence.NewGormTruckRepository(db), truck
}

func TestAllowanceLifecycle(t *testing.T) {
	service, _, truck := newTestService(t)
	ctx := context.Background()
	manager := testutil.Manager()
	north := truck("TRK-N", "60")
	south := truck("TRK-S", "40")

	created, err := service.Create(ctx, manager, CreateAllowanceRequest{AllowanceDate: allowanceDay, TotalAllowance: testutil.Dec(t, "100")})
	require.NoError(t, err)
	assert.Equal(t, allowance.StatusPending, created.Status)
	assert.True(t, created.RemainingAmount.Equal(testutil.Dec(t, "100")))

	_, err = service.Create(ctx, manager, CreateAllowanceRequest{AllowanceDate: allowanceDay, TotalAllowance: testutil.Dec(t, "10")})
	assert.Equal(t, shared.CodeConflict, shared.CodeOf(err))

	allocated, err := service.Allocate(ctx, manager, created.ID, AllocateRequest{Allocations: []TruckAllocationRequest{
		{TruckID: north, Amount: testutil.Dec(t, "55")},
		{TruckID: south, Amount: testutil.Dec(t, "30")},
	}})
	require.NoError(t, err)
	assert.Equal(t, allowance.StatusAllocated, allocated.Status)
	assert.True(t, allocated.AllocatedAmount.Equal(testutil.Dec(t, "85")))
	assert.True(t, allocated.RemainingAmount.Equal(testutil.Dec(t, "15")))

	amount, err := service.AmountForTruck(ctx, north, allowanceDay.Add(9*time.Hour))
	require.NoError(t, err)
	assert.True(t, amount.Equal(testutil.Dec(t, "55")))
	amount, err = service.AmountForTruck(ctx, uuid.New(), allowanceDay)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	updated, err := service.UpdateAllocation(ctx, manager, created.ID, south, UpdateAllocationRequest{Amount: testutil.Dec(t, "40")})
	require.NoError(t, err)
	assert.True(t, updated.RemainingAmount.Equal(testutil.Dec(t, "5")))

	got, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Allocations, 2)
	assert.True(t, got.AllocatedAmount.Equal(testutil.Dec(t, "95")))

	err = service.Delete(ctx, manager, created.ID)
	assert.Equal(t, shared.CodeConflict, shared.CodeOf(err))

	finalized, err := service.Finalize(ctx, manager, created.ID)
	require.NoError(t, err)
	assert.Equal(t, allowance.StatusFinalized, finalized.Status)

	_, err = service.UpdateAllocation(ctx, manager, created.ID, south, UpdateAllocationRequest{Amount: testutil.Dec(t, "1")})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	_, err = service.Finalize(ctx, manager, created.ID)
	assert.Equal(t, shared.CodeConflict, shared.CodeOf(err))
}

func TestAllocateRejects(t *testing.T) {
	service, trucks, truck := newTestService(t)
	ctx := context.Background()
	manager := testutil.Manager()
	small := truck("TRK-1", "20")
	big := truck("TRK-2", "80")

	parked := truck("TRK-3", "80")
	stored, err := trucks.FindByID(ctx, parked)
	require.NoError(t, err)
	stored.IsActive = false
	require.NoError(t, trucks.Save(ctx, stored))

	created, err := service.Create(ctx, manager, CreateAllowanceRequest{AllowanceDate: allowanceDay, TotalAllowance: testutil.Dec(t, "50")})
	require.NoError(t, err)

	tests := []struct {
		name        string
		allocations []TruckAllocationRequest
		code        string
	}{
		{"over truck limit", []TruckAllocationRequest{{TruckID: small, Amount: testutil.Dec(t, "21")}}, shared.CodeValidation},
		{"over budget", []TruckAllocationRequest{{TruckID: small, Amount: testutil.Dec(t, "20")}, {TruckID: big, Amount: testutil.Dec(t, "31")}}, shared.CodeValidation},
		{"same truck twice", []TruckAllocationRequest{{TruckID: small, Amount: testutil.Dec(t, "5")}, {TruckID: small, Amount: testutil.Dec(t, "5")}}, shared.CodeConflict},
		{"inactive truck", []TruckAllocationRequest{{TruckID: parked, Amount: testutil.Dec(t, "5")}}, shared.CodeValidation},
		{"unknown truck", []TruckAllocationRequest{{TruckID: uuid.New(), Amount: testutil.Dec(t, "5")}}, shared.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Allocate(ctx, manager, created.ID, AllocateRequest{Allocations: tt.allocations})
			assert.Equal(t, tt.code, shared.CodeOf(err))
		})
	}

	got, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Allocations)
	assert.Equal(t, allowance.StatusPending, got.Status)

	_, err = service.Allocate(ctx, testutil.Driver("d"), created.ID, AllocateRequest{})
	assert.Equal(t, shared.CodeForbidden, shared.CodeOf(err))

	require.NoError(t, service.Delete(ctx, manager, created.ID))
	_, err = service.Get(ctx, created.ID)
	assert.Equal(t, shared.CodeNotFound, shared.CodeOf(err))
}

func TestListAllowances(t *testing.T) {
	service, _, truck := newTestService(t)
	ctx := context.Background()
	manager := testutil.Manager()
	truckID := truck("TRK-1", "50")

	for i := range 3 {
		_, err := service.Create(ctx, manager, CreateAllowanceRequest{AllowanceDate: allowanceDay.AddDate(0, 0, i), TotalAllowance: testutil.Dec(t, "10")})
		require.NoError(t, err)
	}
	all, total, err := service.List(ctx, AllowanceListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)

	_, err = service.Allocate(ctx, manager, all[0].ID, AllocateRequest{Allocations: []TruckAllocationRequest{{TruckID: truckID, Amount: testutil.Dec(t, "10")}}})
	require.NoError(t, err)

	allocated, total, err := service.List(ctx, AllowanceListFilter{Status: string(allowance.StatusAllocated)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, all[0].ID, allocated[0].ID)

	from := allowanceDay.AddDate(0, 0, 1)
	later, total, err := service.List(ctx, AllowanceListFilter{From: &from, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, later, 1)
}
