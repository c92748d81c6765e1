package persistence

import (
	"context"

	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// defaultMovementLimit bounds a movement listing when the caller sets none
const defaultMovementLimit = 500

// GormMovementRepository implements inventory.MovementRepository using GORM.
// The ledger is append-only: there is no update or delete.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create appends a movement to the ledger
func (r *GormMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	if err := r.db.WithContext(ctx).Create(models.StockMovementModelFromDomain(movement)).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// ListByBatchAfter returns up to limit movements of a batch in ledger order,
// starting strictly after the cursor. A nil cursor starts at the beginning.
func (r *GormMovementRepository) ListByBatchAfter(ctx context.Context, batchID uuid.UUID, after *inventory.MovementCursor, limit int) ([]inventory.StockMovement, error) {
	if limit <= 0 {
		limit = defaultMovementLimit
	}
	query := r.db.WithContext(ctx).Where("batch_id = ?", batchID)
	if after != nil {
		query = query.Where("(created_at > ?) OR (created_at = ? AND id > ?)", after.CreatedAt, after.CreatedAt, after.ID)
	}
	var rows []models.StockMovementModel
	if err := query.Order("created_at ASC, id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toMovements(rows), nil
}

// List returns movements matching the filter, newest first
func (r *GormMovementRepository) List(ctx context.Context, filter inventory.MovementFilter) ([]inventory.StockMovement, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovementModel{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.BatchID != nil {
		query = query.Where("batch_id = ?", *filter.BatchID)
	}
	if filter.Type != "" {
		query = query.Where("movement_type = ?", string(filter.Type))
	}
	query = applyDateRange(query, "movement_date", filter.Dates)

	limit := filter.Limit
	if limit <= 0 || limit > defaultMovementLimit {
		limit = defaultMovementLimit
	}
	var rows []models.StockMovementModel
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toMovements(rows), nil
}

func toMovements(rows []models.StockMovementModel) []inventory.StockMovement {
	out := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormMovementRepository implements MovementRepository
var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
