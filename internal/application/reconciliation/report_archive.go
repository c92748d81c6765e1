package reconciliation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dairy/backend/internal/domain/reconciliation"
	"github.com/dairy/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const reportContentType = "application/json"

// ReportArchive is long-term object storage for finalized reports
type ReportArchive interface {
	ObjectExists(ctx context.Context, key string) (bool, error)
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// GenerateDownloadURL presigns a GET for key. A zero expiresIn uses the
	// archive's default.
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// ArchiveKey returns the object key of the report of date
func ArchiveKey(date time.Time) string {
	return "reconciliations/" + shared.TruncateDate(date).Format(time.DateOnly) + ".json"
}

// ArchivedReportResponse describes an archived report
type ArchivedReportResponse struct {
	ReconciliationDate time.Time `json:"reconciliation_date"`
	Key                string    `json:"key"`
	Uploaded           bool      `json:"uploaded"`
	DownloadURL        string    `json:"download_url,omitempty"`
	ExpiresAt          time.Time `json:"expires_at,omitempty"`
}

// SetReportArchive sets the object storage finalized reports are copied to
func (s *Service) SetReportArchive(archive ReportArchive) {
	s.archive = archive
}

// ArchiveEnabled reports whether a report archive is configured
func (s *Service) ArchiveEnabled() bool {
	return s.archive != nil
}

// ArchiveReport uploads the finalized report of date unless it is already
// archived. Finalized reports never change, so an existing object is kept.
func (s *Service) ArchiveReport(ctx context.Context, date time.Time) (*ArchivedReportResponse, error) {
	if s.archive == nil {
		return nil, shared.NewValidationError("Report archiving is not configured")
	}
	date = shared.TruncateDate(date)
	key := ArchiveKey(date)

	exists, err := s.archive.ObjectExists(ctx, key)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	if exists {
		return &ArchivedReportResponse{ReconciliationDate: date, Key: key}, nil
	}

	report, err := s.Get(ctx, date)
	if err != nil {
		return nil, err
	}
	if report.Status != reconciliation.StatusFinalized {
		return nil, shared.NewValidationError("Reconciliation of %s is not finalized", date.Format(time.DateOnly))
	}
	data, err := json.Marshal(report)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	if err := s.archive.Upload(ctx, key, data, reportContentType); err != nil {
		return nil, shared.NewInternalError(err)
	}

	s.logger.Info("Reconciliation report archived",
		zap.String("reconciliation_date", date.Format(time.DateOnly)),
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return &ArchivedReportResponse{ReconciliationDate: date, Key: key, Uploaded: true}, nil
}

// ArchiveURL returns a presigned download link for an archived report
func (s *Service) ArchiveURL(ctx context.Context, date time.Time) (*ArchivedReportResponse, error) {
	if s.archive == nil {
		return nil, shared.NewValidationError("Report archiving is not configured")
	}
	date = shared.TruncateDate(date)
	key := ArchiveKey(date)

	exists, err := s.archive.ObjectExists(ctx, key)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	if !exists {
		return nil, shared.NewNotFoundError("No archived report for %s", date.Format(time.DateOnly))
	}
	url, expiresAt, err := s.archive.GenerateDownloadURL(ctx, key, 0)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	return &ArchivedReportResponse{ReconciliationDate: date, Key: key, DownloadURL: url, ExpiresAt: expiresAt}, nil
}

// ArchiveFinalizedSince archives every finalized day from from onwards that
// is not archived yet and returns how many reports were uploaded
func (s *Service) ArchiveFinalizedSince(ctx context.Context, from time.Time) (int, error) {
	from = shared.TruncateDate(from)
	filter := reconciliation.Filter{
		Filter: shared.DefaultFilter(),
		Status: reconciliation.StatusFinalized,
		Dates:  shared.DateRange{From: &from},
	}
	uploaded := 0
	for {
		list, _, err := s.repos.Reconciliations().List(ctx, filter)
		if err != nil {
			return uploaded, err
		}
		for i := range list {
			archived, err := s.ArchiveReport(ctx, list[i].ReconciliationDate)
			if err != nil {
				return uploaded, err
			}
			if archived.Uploaded {
				uploaded++
			}
		}
		if len(list) < filter.PageSize {
			return uploaded, nil
		}
		filter.Page++
	}
}

// ReportArchiveHandler copies a report to the archive once its day is
// finalized. A failed upload is retried by the nightly maintenance run.
type ReportArchiveHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewReportArchiveHandler creates a new ReportArchiveHandler
func NewReportArchiveHandler(service *Service, logger *zap.Logger) *ReportArchiveHandler {
	return &ReportArchiveHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ReportArchiveHandler) EventTypes() []string {
	return []string{reconciliation.EventTypeReconciliationFinalized}
}

// Handle archives the finalized reconciliation
func (h *ReportArchiveHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*reconciliation.ReconciliationFinalizedEvent)
	if !ok || !h.service.ArchiveEnabled() {
		return nil
	}
	if _, err := h.service.ArchiveReport(ctx, e.ReconciliationDate); err != nil {
		h.logger.Warn("Failed to archive reconciliation report",
			zap.String("reconciliation_date", e.ReconciliationDate.Format(time.DateOnly)),
			zap.Error(err))
		return err
	}
	return nil
}

var _ shared.EventHandler = (*ReportArchiveHandler)(nil)
