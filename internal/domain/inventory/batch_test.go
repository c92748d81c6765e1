package inventory

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

func newTestBatch(t *testing.T, qty string, expiry time.Time) *Batch {
	t.Helper()
	b, err := NewBatch(uuid.New(), "B-"+qty, expiry, nil)
	require.NoError(t, err)
	if qty != "0" {
		require.NoError(t, b.Apply(MovementTypeDeliveryIn, dec(qty)))
	}
	return b
}

func TestNewBatch(t *testing.T) {
	expiry := time.Date(2026, 3, 20, 15, 30, 0, 0, time.UTC)

	t.Run("starts empty with truncated expiry", func(t *testing.T) {
		b, err := NewBatch(uuid.New(), "LOT-1", expiry, nil)
		require.NoError(t, err)
		assert.True(t, b.InitialQuantity.IsZero())
		assert.True(t, b.RemainingQuantity.IsZero())
		assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), b.ExpiryDate)
	})

	tests := []struct {
		name      string
		productID uuid.UUID
		number    string
		expiry    time.Time
	}{
		{"nil product", uuid.Nil, "LOT-1", expiry},
		{"empty batch number", uuid.New(), "", expiry},
		{"zero expiry", uuid.New(), "LOT-1", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBatch(tt.productID, tt.number, tt.expiry, nil)
			assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
		})
	}
}

func TestBatchApply(t *testing.T) {
	expiry := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

	t.Run("delivery raises initial and remaining", func(t *testing.T) {
		b := newTestBatch(t, "10", expiry)
		assert.True(t, b.InitialQuantity.Equal(dec("10")))
		assert.True(t, b.RemainingQuantity.Equal(dec("10")))
	})

	t.Run("outbound cannot go negative", func(t *testing.T) {
		b := newTestBatch(t, "10", expiry)
		require.NoError(t, b.Apply(MovementTypeTruckLoadOut, dec("6")))
		err := b.Apply(MovementTypeSaleOut, dec("4.5"))
		assert.Equal(t, shared.CodeInsufficientStock, shared.CodeOf(err))
		assert.True(t, b.RemainingQuantity.Equal(dec("4")))
	})

	t.Run("return cannot exceed initial", func(t *testing.T) {
		b := newTestBatch(t, "10", expiry)
		require.NoError(t, b.Apply(MovementTypeTruckLoadOut, dec("6")))
		require.NoError(t, b.Apply(MovementTypeTruckReturnIn, dec("6")))
		err := b.Apply(MovementTypeTruckReturnIn, dec("0.01"))
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
		assert.True(t, b.RemainingQuantity.Equal(dec("10")))
	})

	t.Run("adjustment moves both quantities", func(t *testing.T) {
		b := newTestBatch(t, "10", expiry)
		require.NoError(t, b.Apply(MovementTypeAdjustment, dec("-3")))
		assert.True(t, b.InitialQuantity.Equal(dec("7")))
		assert.True(t, b.RemainingQuantity.Equal(dec("7")))

		err := b.Apply(MovementTypeAdjustment, dec("-8"))
		assert.Equal(t, shared.CodeInsufficientStock, shared.CodeOf(err))
	})

	t.Run("sign rules", func(t *testing.T) {
		b := newTestBatch(t, "10", expiry)
		assert.Error(t, b.Apply(MovementTypeAdjustment, decimal.Zero))
		assert.Error(t, b.Apply(MovementTypeSaleOut, dec("-1")))
		assert.Error(t, b.Apply(MovementType("bogus"), dec("1")))
	})
}

func TestBatchStatus(t *testing.T) {
	today := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, BatchStatusEmpty, newTestBatch(t, "0", today).Status(today))
	assert.Equal(t, BatchStatusAvailable, newTestBatch(t, "5", today).Status(today))
	assert.Equal(t, BatchStatusExpired, newTestBatch(t, "5", today.AddDate(0, 0, -1)).Status(today))
	assert.True(t, BatchStatusExpired.IsValid())
	assert.False(t, BatchStatus("stale").IsValid())
}

func TestDeliveryAddItem(t *testing.T) {
	d, err := NewDelivery(time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC), "Valley Farms", uuid.New(), "")
	require.NoError(t, err)

	require.NoError(t, d.AddItem(uuid.New(), "LOT-1", d.DeliveryDate.AddDate(0, 0, 7), dec("12")))
	require.NoError(t, d.AddItem(uuid.New(), "LOT-2", d.DeliveryDate.AddDate(0, 0, 9), dec("3.5")))
	assert.True(t, d.TotalQuantity().Equal(dec("15.5")))
	assert.Equal(t, d.ID, d.Items[0].DeliveryID)

	assert.Error(t, d.AddItem(uuid.New(), "LOT-3", d.DeliveryDate, decimal.Zero))
	assert.Error(t, d.AddItem(uuid.Nil, "LOT-3", d.DeliveryDate, dec("1")))

	_, err = NewDelivery(time.Time{}, "", uuid.New(), "")
	assert.Error(t, err)
}
