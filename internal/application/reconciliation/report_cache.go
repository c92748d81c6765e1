package reconciliation

import (
	"context"
	"time"

	"github.com/dairy/backend/internal/domain/reconciliation"
	"github.com/dairy/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReportCache stores rendered reports of finalized reconciliations. A
// finalized reconciliation never changes, so entries are never invalidated,
// only expired.
type ReportCache interface {
	// Get returns the cached report and whether it was found
	Get(ctx context.Context, date time.Time) (*ReconciliationResponse, bool, error)
	Set(ctx context.Context, date time.Time, report *ReconciliationResponse) error
}

// ReportCacheHandler warms the report cache as soon as a reconciliation is
// finalized
type ReportCacheHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewReportCacheHandler creates a new ReportCacheHandler
func NewReportCacheHandler(service *Service, logger *zap.Logger) *ReportCacheHandler {
	return &ReportCacheHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ReportCacheHandler) EventTypes() []string {
	return []string{reconciliation.EventTypeReconciliationFinalized}
}

// Handle loads the finalized reconciliation, which stores it in the cache
func (h *ReportCacheHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*reconciliation.ReconciliationFinalizedEvent)
	if !ok {
		return nil
	}
	if _, err := h.service.Get(ctx, e.ReconciliationDate); err != nil {
		h.logger.Warn("Failed to warm reconciliation report cache",
			zap.String("reconciliation_date", e.ReconciliationDate.Format(time.DateOnly)),
			zap.Error(err))
		return err
	}
	return nil
}

var _ shared.EventHandler = (*ReportCacheHandler)(nil)
