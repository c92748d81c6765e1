package event

import (
	"context"
	"time"

	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/reconciliation"
	"github.com/dairy/backend/internal/domain/sales"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MetricsHandler feeds business metrics from domain events
type MetricsHandler struct {
	metrics *telemetry.BusinessMetrics
}

// NewMetricsHandler creates a MetricsHandler
func NewMetricsHandler(metrics *telemetry.BusinessMetrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// EventTypes returns the event types this handler is interested in
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		inventory.EventTypeStockMovementPosted,
		reconciliation.EventTypeTruckVerified,
		reconciliation.EventTypeReconciliationFinalized,
		sales.EventTypeSaleCreated,
	}
}

// Handle records the metric matching the event
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *inventory.StockMovementPostedEvent:
		h.metrics.RecordMovementPosted(ctx, string(e.MovementType))
	case *reconciliation.TruckVerifiedEvent:
		h.metrics.RecordTruckVerified(ctx, e.HasDiscrepancy)
	case *reconciliation.ReconciliationFinalizedEvent:
		h.metrics.RecordReconciliationFinalized(ctx, e.NetProfit)
	case *sales.SaleCreatedEvent:
		h.metrics.RecordSale(ctx, e.TruckLoadID != nil)
	}
	return nil
}

// AuditLogHandler writes every domain event to the log. It subscribes as a
// wildcard handler.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes returns nil so the handler receives all events
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event with its identifying fields
func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}
	switch e := event.(type) {
	case *inventory.StockMovementPostedEvent:
		fields = append(fields,
			zap.String("movement_type", string(e.MovementType)),
			zap.String("quantity", e.Quantity.String()))
	case *reconciliation.TruckVerifiedEvent:
		fields = append(fields,
			zap.String("truck_id", e.TruckID.String()),
			zap.Bool("has_discrepancy", e.HasDiscrepancy))
	case *reconciliation.ReconciliationFinalizedEvent:
		fields = append(fields,
			zap.String("reconciliation_date", e.ReconciliationDate.Format(time.DateOnly)),
			zap.String("net_profit", e.NetProfit.String()))
	case *sales.SaleCreatedEvent:
		fields = append(fields,
			zap.String("shop_id", e.ShopID.String()),
			zap.String("total_amount", e.TotalAmount.String()))
	case *sales.PaymentRecordedEvent:
		fields = append(fields,
			zap.String("amount", e.Amount.String()),
			zap.String("payment_status", string(e.PaymentStatus)))
	}
	h.logger.Info("Domain event", fields...)
	return nil
}

var (
	_ shared.EventHandler = (*MetricsHandler)(nil)
	_ shared.EventHandler = (*AuditLogHandler)(nil)
)
