package sales

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

func newSale(t *testing.T) *Sale {
	t.Helper()
	s, err := NewSale(uuid.New(), uuid.New(), time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	return s
}

func TestNewSale(t *testing.T) {
	s := newSale(t)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), s.SaleDate)
	assert.False(t, s.IsTruckSale())

	_, err := NewSale(uuid.Nil, uuid.New(), time.Now(), "")
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
}

func TestAddItemSnapshotsCommission(t *testing.T) {
	s := newSale(t)
	product := uuid.New()

	require.NoError(t, s.AddItem(product, uuid.New(), nil, dec("4"), dec("1.25"), dec("0.10")))
	require.NoError(t, s.AddItem(product, uuid.New(), nil, dec("2"), dec("0"), dec("0.10")))

	assert.True(t, s.TotalAmount.Equal(dec("5")))
	assert.True(t, s.TotalQuantity().Equal(dec("6")))
	assert.True(t, s.TotalCommission().Equal(dec("0.6")))
	assert.True(t, s.Items[0].LineTotal.Equal(dec("5")))

	assert.Error(t, s.AddItem(product, uuid.New(), nil, dec("0"), dec("1"), dec("0")))
	assert.Error(t, s.AddItem(product, uuid.New(), nil, dec("1"), dec("-1"), dec("0")))
}

func TestPayments(t *testing.T) {
	s := newSale(t)
	require.NoError(t, s.AddItem(uuid.New(), uuid.New(), nil, dec("10"), dec("2"), dec("0")))

	assert.Error(t, s.SetInitialPayment(dec("20.01")))
	assert.Error(t, s.SetInitialPayment(dec("-1")))
	require.NoError(t, s.SetInitialPayment(dec("5")))
	assert.Equal(t, PaymentStatusPending, s.PaymentStatus())
	assert.True(t, s.Outstanding().Equal(dec("15")))

	assert.Error(t, s.RecordPayment(dec("0")))
	assert.Error(t, s.RecordPayment(dec("15.01")))
	require.NoError(t, s.RecordPayment(dec("15")))
	assert.Equal(t, PaymentStatusPaid, s.PaymentStatus())
	assert.True(t, s.Outstanding().IsZero())
	assert.Equal(t, 2, s.GetVersion())

	events := s.GetDomainEvents()
	require.Len(t, events, 1)
	last, ok := events[0].(*PaymentRecordedEvent)
	require.True(t, ok)
	assert.Equal(t, EventTypePaymentRecorded, last.EventType())
	assert.True(t, last.Amount.Equal(dec("15")))
	assert.Equal(t, PaymentStatusPaid, last.PaymentStatus)
}

func TestAggregateByTruck(t *testing.T) {
	truckA, truckB := uuid.New(), uuid.New()
	mk := func(truck *uuid.UUID, qty, price, paid string) Sale {
		s := newSale(t)
		if truck != nil {
			s.AttachTruckLoad(uuid.New(), *truck)
		}
		require.NoError(t, s.AddItem(uuid.New(), uuid.New(), nil, dec(qty), dec(price), dec("0.10")))
		require.NoError(t, s.SetInitialPayment(dec(paid)))
		return *s
	}

	agg := Aggregate([]Sale{
		mk(&truckA, "3", "2", "6"),
		mk(&truckA, "2", "2", "1"),
		mk(&truckB, "1", "5", "0"),
		mk(nil, "100", "1", "100"),
	})

	require.Len(t, agg, 2)
	a := agg[truckA]
	assert.True(t, a.ItemsSold.Equal(dec("5")))
	assert.True(t, a.SalesAmount.Equal(dec("10")))
	assert.True(t, a.Commission.Equal(dec("0.5")))
	assert.True(t, a.PaymentsCollected.Equal(dec("7")))
	assert.True(t, a.PendingPayments().Equal(dec("3")))
	assert.True(t, agg[truckB].PendingPayments().Equal(dec("5")))
}
