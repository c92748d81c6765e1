package persistence

import (
	"context"
	"time"

	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBatchRepository implements inventory.BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	var model models.BatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a batch by ID and locks its row until the
// surrounding transaction ends
func (r *GormBatchRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	var model models.BatchModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByProductAndNumberForUpdate finds and locks the batch a delivery would top up
func (r *GormBatchRepository) FindByProductAndNumberForUpdate(ctx context.Context, productID uuid.UUID, batchNumber string) (*inventory.Batch, error) {
	var model models.BatchModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND batch_number = ?", productID, batchNumber).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAvailableForUpdate locks every batch of a product that still holds
// stock, in allocation order: earliest expiry first, then oldest batch
func (r *GormBatchRepository) FindAvailableForUpdate(ctx context.Context, productID uuid.UUID) ([]inventory.Batch, error) {
	var rows []models.BatchModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND remaining_quantity > 0", productID).
		Order("expiry_date ASC, created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	batches := make([]inventory.Batch, len(rows))
	for i := range rows {
		batches[i] = *rows[i].ToDomain()
	}
	return batches, nil
}

// FindByIDs loads several batches at once, keyed by ID
func (r *GormBatchRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*inventory.Batch, error) {
	out := make(map[uuid.UUID]*inventory.Batch, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.BatchModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	for i := range rows {
		out[rows[i].ID] = rows[i].ToDomain()
	}
	return out, nil
}

// List returns a page of batches and the total count for the filter
func (r *GormBatchRepository) List(ctx context.Context, filter inventory.BatchFilter) ([]inventory.Batch, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BatchModel{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	today := filter.Today
	if today.IsZero() {
		today = time.Now()
	}
	today = shared.TruncateDate(today)
	switch filter.Status {
	case inventory.BatchStatusEmpty:
		query = query.Where("remaining_quantity = 0")
	case inventory.BatchStatusExpired:
		query = query.Where("remaining_quantity > 0 AND expiry_date < ?", today)
	case inventory.BatchStatusAvailable:
		query = query.Where("remaining_quantity > 0 AND expiry_date >= ?", today)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.BatchModel
	if err := applyPage(query, filter.Filter).
		Order("expiry_date ASC, created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	batches := make([]inventory.Batch, len(rows))
	for i := range rows {
		batches[i] = *rows[i].ToDomain()
	}
	return batches, total, nil
}

// Create inserts a new batch
func (r *GormBatchRepository) Create(ctx context.Context, batch *inventory.Batch) error {
	if err := r.db.WithContext(ctx).Create(models.BatchModelFromDomain(batch)).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// Decrease subtracts quantity from remaining_quantity in a single
// conditional UPDATE. The row is only touched while it still holds at least
// quantity, so two writers racing on the same batch can never drive it
// negative. With alsoInitial the initial quantity shrinks too.
func (r *GormBatchRepository) Decrease(ctx context.Context, id uuid.UUID, quantity decimal.Decimal, alsoInitial bool) error {
	updates := map[string]any{
		"remaining_quantity": gorm.Expr("remaining_quantity - ?", quantity),
		"updated_at":         time.Now().UTC(),
	}
	if alsoInitial {
		updates["initial_quantity"] = gorm.Expr("initial_quantity - ?", quantity)
	}
	result := r.db.WithContext(ctx).
		Model(&models.BatchModel{}).
		Where("id = ? AND remaining_quantity >= ?", id, quantity).
		Updates(updates)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missOrFail(ctx, id, shared.NewInsufficientStockError("Batch does not hold %s units", quantity.String()))
	}
	return nil
}

// Increase adds quantity to remaining_quantity. Without alsoInitial the
// batch may never hold more than it was received with.
func (r *GormBatchRepository) Increase(ctx context.Context, id uuid.UUID, quantity decimal.Decimal, alsoInitial bool) error {
	updates := map[string]any{
		"remaining_quantity": gorm.Expr("remaining_quantity + ?", quantity),
		"updated_at":         time.Now().UTC(),
	}
	query := r.db.WithContext(ctx).Model(&models.BatchModel{}).Where("id = ?", id)
	if alsoInitial {
		updates["initial_quantity"] = gorm.Expr("initial_quantity + ?", quantity)
	} else {
		query = query.Where("remaining_quantity + ? <= initial_quantity", quantity)
	}
	result := query.Updates(updates)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missOrFail(ctx, id, shared.NewValidationError("Return of %s units exceeds the batch's initial quantity", quantity.String()))
	}
	return nil
}

// missOrFail tells an absent batch apart from a failed guard
func (r *GormBatchRepository) missOrFail(ctx context.Context, id uuid.UUID, guardErr error) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BatchModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translateError(err)
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return guardErr
}

// Ensure GormBatchRepository implements BatchRepository
var _ inventory.BatchRepository = (*GormBatchRepository)(nil)
