package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dairy/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(kvs []attribute.KeyValue) map[string]any {
	m := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}

func TestStartServiceSpan(t *testing.T) {
	sr := recordSpans(t)
	truckID := uuid.New()

	ctx, span := telemetry.StartServiceSpan(context.Background(), "truck_load", "create",
		telemetry.WithAttribute("truck_id", truckID),
		telemetry.WithAttribute("lines", 3))
	assert.NotEmpty(t, telemetry.GetTraceID(ctx))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "truck_load.create", ended[0].Name())
	attrs := attrMap(ended[0].Attributes())
	assert.Equal(t, "truck_load", attrs["dairy.service"])
	assert.Equal(t, truckID.String(), attrs["truck_id"])
	assert.Equal(t, int64(3), attrs["lines"])
}

func TestSetAttributes(t *testing.T) {
	sr := recordSpans(t)
	_, span := telemetry.StartServiceSpan(context.Background(), "reconciliation", "finalize")

	telemetry.SetAttributes(span,
		"net_profit", decimal.RequireFromString("125.50"),
		"trucks_out", 4,
		"closed", true,
		42, "non-string key is skipped",
		"dangling")
	span.End()

	attrs := attrMap(sr.Ended()[0].Attributes())
	assert.Equal(t, "125.5", attrs["net_profit"])
	assert.Equal(t, int64(4), attrs["trucks_out"])
	assert.Equal(t, true, attrs["closed"])
	assert.NotContains(t, attrs, "dangling")
	assert.Len(t, attrs, 4)
}

func TestRecordError(t *testing.T) {
	sr := recordSpans(t)
	_, span := telemetry.StartServiceSpan(context.Background(), "ledger", "post_movement")
	telemetry.RecordError(span, errors.New("insufficient stock"))
	telemetry.RecordError(span, nil)
	telemetry.RecordError(nil, errors.New("ignored"))
	span.End()

	s := sr.Ended()[0]
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "insufficient stock", s.Status().Description)
	require.Len(t, s.Events(), 1)
	assert.Equal(t, "exception", s.Events()[0].Name)
}

func TestGetTraceIDWithoutSpan(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
}

func TestNestedServiceSpansShareTrace(t *testing.T) {
	sr := recordSpans(t)
	ctx, parent := telemetry.StartServiceSpan(context.Background(), "reconciliation", "verify")
	_, child := telemetry.StartServiceSpan(ctx, "ledger", "post_movement")
	child.End()
	parent.End()

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, ended[1].SpanContext().TraceID(), ended[0].SpanContext().TraceID())
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
}
