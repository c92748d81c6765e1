package reconciliation

import (
	"context"
	"time"

	"github.com/dairy/backend/internal/domain/shared"
)

// Filter narrows reconciliation listings
type Filter struct {
	shared.Filter
	Status Status
	Dates  shared.DateRange
}

// Repository stores daily reconciliations with their items and lines
type Repository interface {
	// FindByDate returns shared.ErrNotFound when the date has no reconciliation
	FindByDate(ctx context.Context, date time.Time) (*DailyReconciliation, error)
	// FindByDateForUpdate locks the reconciliation row until the transaction ends
	FindByDateForUpdate(ctx context.Context, date time.Time) (*DailyReconciliation, error)
	ExistsForDate(ctx context.Context, date time.Time) (bool, error)
	List(ctx context.Context, filter Filter) ([]DailyReconciliation, int64, error)
	// Create inserts the reconciliation; a second row for the same date is a conflict
	Create(ctx context.Context, r *DailyReconciliation) error
	// Save updates the header and upserts items and their verified lines
	Save(ctx context.Context, r *DailyReconciliation) error
}
