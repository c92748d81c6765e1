package scheduler

import (
	"context"
	"fmt"
	"time"

	appinv "github.com/dairy/backend/internal/application/inventory"
	"go.uber.org/zap"
)

// DefaultArchiveLookback is how far back the archive sweep looks for
// finalized days missing from the archive
const DefaultArchiveLookback = 7 * 24 * time.Hour

// LedgerAuditor verifies every batch against its movements
type LedgerAuditor interface {
	AuditLedger(ctx context.Context) (*appinv.LedgerAuditResponse, error)
}

// ReportArchiver copies finalized reports to object storage
type ReportArchiver interface {
	ArchiveEnabled() bool
	ArchiveFinalizedSince(ctx context.Context, from time.Time) (int, error)
}

// MaintenanceExecutor runs the nightly jobs against the application services
type MaintenanceExecutor struct {
	auditor  LedgerAuditor
	archiver ReportArchiver
	lookback time.Duration
	logger   *zap.Logger
}

// NewMaintenanceExecutor creates a MaintenanceExecutor
func NewMaintenanceExecutor(auditor LedgerAuditor, archiver ReportArchiver, logger *zap.Logger) *MaintenanceExecutor {
	return &MaintenanceExecutor{
		auditor:  auditor,
		archiver: archiver,
		lookback: DefaultArchiveLookback,
		logger:   logger,
	}
}

// Execute runs one job
func (e *MaintenanceExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Type {
	case JobTypeLedgerAudit:
		return e.auditLedger(ctx)
	case JobTypeReportArchive:
		return e.archiveReports(ctx, job.Date)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type)
	}
}

// auditLedger fails the job on drift so it shows up as a failed run; the
// retries re-check after any in-flight repair
func (e *MaintenanceExecutor) auditLedger(ctx context.Context) error {
	audit, err := e.auditor.AuditLedger(ctx)
	if err != nil {
		return err
	}
	if len(audit.Inconsistent) > 0 {
		ids := make([]string, len(audit.Inconsistent))
		for i, id := range audit.Inconsistent {
			ids[i] = id.String()
		}
		e.logger.Error("Ledger audit found drifted batches",
			zap.Int("batches_checked", audit.BatchesChecked),
			zap.Strings("batch_ids", ids))
		return fmt.Errorf("%w in %d of %d batches", ErrLedgerDrift, len(audit.Inconsistent), audit.BatchesChecked)
	}
	return nil
}

func (e *MaintenanceExecutor) archiveReports(ctx context.Context, date time.Time) error {
	if !e.archiver.ArchiveEnabled() {
		e.logger.Debug("Report archive not configured, skipping sweep")
		return nil
	}
	uploaded, err := e.archiver.ArchiveFinalizedSince(ctx, date.Add(-e.lookback))
	if err != nil {
		return err
	}
	e.logger.Info("Report archive sweep finished",
		zap.String("date", date.Format(time.DateOnly)),
		zap.Int("uploaded", uploaded))
	return nil
}

var _ JobExecutor = (*MaintenanceExecutor)(nil)
