package event

import (
	"context"
	"testing"
	"time"

	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/reconciliation"
	"github.com/dairy/backend/internal/domain/sales"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func movementPosted(t inventory.MovementType) *inventory.StockMovementPostedEvent {
	batchID := uuid.New()
	return &inventory.StockMovementPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(inventory.EventTypeStockMovementPosted, inventory.AggregateTypeBatch, batchID),
		MovementID:      uuid.New(),
		BatchID:         batchID,
		ProductID:       uuid.New(),
		MovementType:    t,
		Quantity:        decimal.NewFromInt(6),
	}
}

func TestMetricsHandler_ThroughBus(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{Meter: mp.Meter("test")})
	require.NoError(t, err)

	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewMetricsHandler(metrics))

	ctx := context.Background()
	recID := uuid.New()
	require.NoError(t, bus.Publish(ctx,
		movementPosted(inventory.MovementTypeTruckLoadOut),
		movementPosted(inventory.MovementTypeDeliveryIn),
		&reconciliation.TruckVerifiedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(reconciliation.EventTypeTruckVerified, reconciliation.AggregateTypeReconciliation, recID),
			TruckID:         uuid.New(),
			HasDiscrepancy:  true,
		},
		&reconciliation.ReconciliationFinalizedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(reconciliation.EventTypeReconciliationFinalized, reconciliation.AggregateTypeReconciliation, recID),
			NetProfit:       decimal.NewFromInt(-25),
		},
		&sales.SaleCreatedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(sales.EventTypeSaleCreated, sales.AggregateTypeSale, uuid.New()),
			ShopID:          uuid.New(),
			TotalAmount:     decimal.NewFromInt(12),
		},
	))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if s, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), sums["dairy_stock_movement_posted_total"])
	assert.Equal(t, int64(1), sums["dairy_truck_discrepancy_total"])
	assert.Equal(t, int64(1), sums["dairy_reconciliation_finalized_total"])
	assert.Equal(t, int64(1), sums["dairy_sales_recorded_total"])
	assert.Zero(t, bus.Failures())
}

func TestAuditLogHandler_LogsEveryEvent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewAuditLogHandler(zap.New(core)))

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, bus.Publish(context.Background(),
		movementPosted(inventory.MovementTypeSaleOut),
		&reconciliation.ReconciliationFinalizedEvent{
			BaseDomainEvent:    shared.NewBaseDomainEvent(reconciliation.EventTypeReconciliationFinalized, reconciliation.AggregateTypeReconciliation, uuid.New()),
			ReconciliationDate: date,
			NetProfit:          decimal.NewFromInt(100),
		},
		newTestEvent("Unrelated"),
	))

	entries := logs.FilterMessage("Domain event").All()
	require.Len(t, entries, 3)
	assert.Equal(t, "sale_out", entries[0].ContextMap()["movement_type"])
	assert.Equal(t, "2026-03-01", entries[1].ContextMap()["reconciliation_date"])
	assert.Equal(t, "Unrelated", entries[2].ContextMap()["event_type"])
}

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, shared.DomainEvent) error { panic("boom") }
func (panickingHandler) EventTypes() []string                             { return []string{"TestEvent"} }

func TestInMemoryEventBus_PanicCountsAsFailure(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	after := newTestHandler("TestEvent")
	bus.Subscribe(panickingHandler{})
	bus.Subscribe(after)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TestEvent")))
	assert.Equal(t, int64(1), bus.Failures())
	assert.Len(t, after.getHandled(), 1)
}
