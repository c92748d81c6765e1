package allowance

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

func newAllowance(t *testing.T, total string) *TransportAllowance {
	t.Helper()
	a, err := NewTransportAllowance(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), dec(total), "", uuid.New())
	require.NoError(t, err)
	return a
}

func request(truck uuid.UUID, amount, limit string) AllocationRequest {
	return AllocationRequest{TruckID: truck, Amount: dec(amount), MaxLimit: dec(limit)}
}

func TestNewTransportAllowance(t *testing.T) {
	a := newAllowance(t, "100")
	assert.Equal(t, StatusPending, a.Status)
	assert.True(t, a.RemainingAmount().Equal(dec("100")))
	assert.True(t, a.CanDelete())

	_, err := NewTransportAllowance(time.Now(), decimal.Zero, "", uuid.New())
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	_, err = NewTransportAllowance(time.Time{}, dec("1"), "", uuid.New())
	assert.Error(t, err)
}

func TestAllocate(t *testing.T) {
	t.Run("splits the budget", func(t *testing.T) {
		a := newAllowance(t, "100")
		require.NoError(t, a.Allocate([]AllocationRequest{
			request(uuid.New(), "40", "50"),
			request(uuid.New(), "35", "50"),
		}))
		assert.Equal(t, StatusAllocated, a.Status)
		assert.True(t, a.AllocatedAmount().Equal(dec("75")))
		assert.True(t, a.RemainingAmount().Equal(dec("25")))
		assert.False(t, a.CanDelete())
	})

	t.Run("rejects the batch when the total would be exceeded", func(t *testing.T) {
		a := newAllowance(t, "100")
		err := a.Allocate([]AllocationRequest{
			request(uuid.New(), "50", "50"),
			request(uuid.New(), "50.01", "60"),
		})
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
		assert.Empty(t, a.Allocations)
		assert.Equal(t, StatusPending, a.Status)
	})

	t.Run("truck limit", func(t *testing.T) {
		a := newAllowance(t, "100")
		err := a.Allocate([]AllocationRequest{request(uuid.New(), "30", "25")})
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})

	t.Run("one allocation per truck", func(t *testing.T) {
		a := newAllowance(t, "100")
		truck := uuid.New()
		err := a.Allocate([]AllocationRequest{request(truck, "10", "50"), request(truck, "10", "50")})
		assert.Equal(t, shared.CodeConflict, shared.CodeOf(err))

		require.NoError(t, a.Allocate([]AllocationRequest{request(truck, "10", "50")}))
		err = a.Allocate([]AllocationRequest{request(truck, "5", "50")})
		assert.Equal(t, shared.CodeConflict, shared.CodeOf(err))
	})

	t.Run("empty request", func(t *testing.T) {
		assert.Error(t, newAllowance(t, "100").Allocate(nil))
	})
}

func TestUpdateAllocation(t *testing.T) {
	a := newAllowance(t, "100")
	truckA, truckB := uuid.New(), uuid.New()
	require.NoError(t, a.Allocate([]AllocationRequest{request(truckA, "40", "80"), request(truckB, "40", "80")}))

	require.NoError(t, a.UpdateAllocation(request(truckA, "60", "80")))
	assert.True(t, a.FindAllocation(truckA).Amount.Equal(dec("60")))

	err := a.UpdateAllocation(request(truckA, "60.5", "80"))
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	assert.True(t, a.FindAllocation(truckA).Amount.Equal(dec("60")))

	err = a.UpdateAllocation(request(uuid.New(), "1", "80"))
	assert.Equal(t, shared.CodeNotFound, shared.CodeOf(err))
}

func TestFinalizeIsTerminal(t *testing.T) {
	a := newAllowance(t, "100")
	truck := uuid.New()
	require.NoError(t, a.Allocate([]AllocationRequest{request(truck, "10", "50")}))
	require.NoError(t, a.Finalize())

	assert.Equal(t, shared.CodeConflict, shared.CodeOf(a.Finalize()))
	assert.Error(t, a.Allocate([]AllocationRequest{request(uuid.New(), "1", "50")}))
	assert.Error(t, a.UpdateAllocation(request(truck, "5", "50")))
	assert.False(t, a.CanDelete())
	assert.False(t, StatusFinalized.CanTransitionTo(StatusAllocated))
}
