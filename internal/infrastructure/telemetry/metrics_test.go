package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/dairy/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func manualMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func TestHistogramBoundariesAndDuration(t *testing.T) {
	mp, reader := manualMeter(t)
	ctx := context.Background()

	h, err := telemetry.NewHistogram(mp.Meter("test"), telemetry.HistogramOpts{
		Name:       "dairy_test_duration_seconds",
		Unit:       "s",
		Boundaries: telemetry.HTTPDurationBuckets,
	})
	require.NoError(t, err)
	h.RecordDuration(ctx, 30*time.Millisecond, telemetry.AttrHTTPMethod.String("POST"))
	h.Record(ctx, 3)

	data := collect(t, reader)["dairy_test_duration_seconds"].(metricdata.Histogram[float64])
	var count uint64
	var sum float64
	for _, dp := range data.DataPoints {
		assert.Equal(t, telemetry.HTTPDurationBuckets, dp.Bounds)
		count += dp.Count
		sum += dp.Sum
	}
	assert.Equal(t, uint64(2), count)
	assert.InDelta(t, 3.03, sum, 1e-9)
}

func TestCounterAdd(t *testing.T) {
	mp, reader := manualMeter(t)
	ctx := context.Background()

	c, err := telemetry.NewCounter(mp.Meter("test"), "dairy_test_total", "test counter", "1")
	require.NoError(t, err)
	c.Add(ctx, 4)
	c.Inc(ctx)

	sum := collect(t, reader)["dairy_test_total"].(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(5), sum.DataPoints[0].Value)
	assert.True(t, sum.IsMonotonic)
}

func TestMeterProviderDefaultsToGlobal(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.Config{}, zap.NewNop())
	require.NoError(t, err)
	_, err = telemetry.NewGauge(mp.Meter("test"), "dairy_noop_gauge", "", "1")
	assert.NoError(t, err)
}
