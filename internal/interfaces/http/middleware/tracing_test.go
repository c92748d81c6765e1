package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prev)
	})

	return sr
}

func attrMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func tracedRouter(handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(Tracing(DefaultTracingConfig()))
	router.Use(SpanErrorMarker())
	router.Use(Actor())
	router.Use(TracingAttributeInjector())
	router.POST("/truck-loads/:id/reconcile", handler)
	return router
}

func TestTracing_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: false, ServiceName: "test-service"}))
	router.GET("/batches", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/batches", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_SkipsHealthAndSwagger(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing(DefaultTracingConfig()))
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/swagger/*any", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/batches", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Empty(t, sr.Ended())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/batches", nil))
	assert.Len(t, sr.Ended(), 1)
}

func TestTracingAttributeInjector_ActorAndRequestID(t *testing.T) {
	sr := setupTestTracer(t)
	userID := uuid.New()

	router := tracedRouter(func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/truck-loads/abc/reconcile", nil)
	req.Header.Set(RequestIDKey, "req-trace-1")
	req.Header.Set(UserIDHeader, userID.String())
	req.Header.Set(UserRoleHeader, "manager")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := attrMap(spans[0])
	assert.Equal(t, "req-trace-1", attrs["request_id"].AsString())
	assert.Equal(t, userID.String(), attrs["user_id"].AsString())
	assert.Equal(t, "manager", attrs["role"].AsString())
}

func TestTracingAttributeInjector_TruncatesLongRequestID(t *testing.T) {
	sr := setupTestTracer(t)

	router := tracedRouter(func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	long := make([]byte, MaxRequestIDLength+50)
	for i := range long {
		long[i] = 'r'
	}
	req := httptest.NewRequest(http.MethodPost, "/truck-loads/abc/reconcile", nil)
	req.Header.Set(RequestIDKey, string(long))
	req.Header.Set(UserIDHeader, uuid.NewString())
	req.Header.Set(UserRoleHeader, "manager")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Len(t, attrMap(spans[0])["request_id"].AsString(), MaxRequestIDLength)
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus codes.Code
	}{
		{"success leaves status unset", http.StatusOK, codes.Unset},
		{"conflict records status code only", http.StatusConflict, codes.Unset},
		{"server error marks span", http.StatusInternalServerError, codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)

			router := tracedRouter(func(c *gin.Context) {
				c.Status(tt.status)
			})

			req := httptest.NewRequest(http.MethodPost, "/truck-loads/abc/reconcile", nil)
			req.Header.Set(UserIDHeader, uuid.NewString())
			req.Header.Set(UserRoleHeader, "driver")
			router.ServeHTTP(httptest.NewRecorder(), req)

			spans := sr.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantStatus, spans[0].Status().Code)
			if tt.status >= http.StatusBadRequest {
				assert.Equal(t, int64(tt.status), attrMap(spans[0])["http.status_code"].AsInt64())
			}
		})
	}
}

func TestSpanErrorMarker_WithNoSpan(t *testing.T) {
	router := gin.New()
	router.Use(SpanErrorMarker())
	router.GET("/batches", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/batches", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
