package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/dairy/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type stubInventoryProvider struct {
	onHand  map[uuid.UUID]decimal.Decimal
	expired int64
}

func (p *stubInventoryProvider) StockOnHandByProduct(context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	return p.onHand, nil
}

func (p *stubInventoryProvider) ExpiredBatchCount(context.Context, time.Time) (int64, error) {
	return p.expired, nil
}

func newTestMetrics(t *testing.T, provider telemetry.InventoryMetricsProvider) (*telemetry.BusinessMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:             mp.Meter("test"),
		Logger:            zap.NewNop(),
		InventoryProvider: provider,
	})
	require.NoError(t, err)
	return bm, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{Logger: zap.NewNop()})

	require.Error(t, err)
	assert.Nil(t, bm)
	assert.Equal(t, "NewBusinessMetrics: meter cannot be nil", err.Error())
}

func TestBusinessMetrics_Counters(t *testing.T) {
	bm, reader := newTestMetrics(t, nil)
	ctx := context.Background()

	bm.RecordMovementPosted(ctx, "delivery_in")
	bm.RecordMovementPosted(ctx, "truck_load_out")
	bm.RecordMovementPosted(ctx, "truck_load_out")
	bm.RecordTruckVerified(ctx, false)
	bm.RecordTruckVerified(ctx, true)
	bm.RecordReconciliationFinalized(ctx, decimal.NewFromInt(450))
	bm.RecordSale(ctx, true)
	bm.RecordSale(ctx, false)
	bm.RecordSale(ctx, true)

	data := collect(t, reader)

	sold, ok := data["dairy_sales_recorded_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, sold.DataPoints, 2)

	movements, ok := data["dairy_stock_movement_posted_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range movements.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, movements.DataPoints, 2)

	discrepancies, ok := data["dairy_truck_discrepancy_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, discrepancies.DataPoints, 1)
	assert.Equal(t, int64(1), discrepancies.DataPoints[0].Value)

	profit, ok := data["dairy_reconciliation_net_profit"].(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, profit.DataPoints, 1)
	assert.Equal(t, 450.0, profit.DataPoints[0].Value)
}

func TestBusinessMetrics_PeriodicCollection(t *testing.T) {
	productID := uuid.New()
	bm, reader := newTestMetrics(t, &stubInventoryProvider{
		onHand:  map[uuid.UUID]decimal.Decimal{productID: decimal.NewFromInt(42)},
		expired: 3,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bm.StartPeriodicCollection(ctx, time.Hour)
	defer bm.Stop()

	assert.Eventually(t, func() bool {
		data := collect(t, reader)
		expired, ok := data["dairy_expired_batches_with_stock"].(metricdata.Gauge[int64])
		return ok && len(expired.DataPoints) == 1 && expired.DataPoints[0].Value == 3
	}, time.Second, 10*time.Millisecond)

	onHand, ok := collect(t, reader)["dairy_stock_on_hand"].(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, onHand.DataPoints, 1)
	assert.Equal(t, 42.0, onHand.DataPoints[0].Value)
}

func TestBusinessMetrics_StopIsIdempotent(t *testing.T) {
	bm, _ := newTestMetrics(t, nil)
	bm.Stop()
	bm.Stop()
}
