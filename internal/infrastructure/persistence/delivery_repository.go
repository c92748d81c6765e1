package persistence

import (
	"context"

	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDeliveryRepository implements inventory.DeliveryRepository using GORM
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewGormDeliveryRepository creates a new GormDeliveryRepository
func NewGormDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

func preloadDeliveryItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

// Create inserts a delivery together with its items
func (r *GormDeliveryRepository) Create(ctx context.Context, delivery *inventory.Delivery) error {
	m := models.DeliveryModelFromDomain(delivery)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(m).Error; err != nil {
		return translateError(err)
	}
	if len(m.Items) == 0 {
		return nil
	}
	if err := db.Create(&m.Items).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// FindByID loads a delivery with its items
func (r *GormDeliveryRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Delivery, error) {
	var m models.DeliveryModel
	if err := preloadDeliveryItems(r.db.WithContext(ctx)).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByIDForUpdate loads a delivery and locks its row
func (r *GormDeliveryRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Delivery, error) {
	var m models.DeliveryModel
	if err := preloadDeliveryItems(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// List returns a page of deliveries, newest delivery date first
func (r *GormDeliveryRepository) List(ctx context.Context, filter inventory.DeliveryFilter) ([]inventory.Delivery, int64, error) {
	query := applyDateRange(r.db.WithContext(ctx).Model(&models.DeliveryModel{}), "delivery_date", filter.Dates)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.DeliveryModel
	if err := orderByDate(applyPage(preloadDeliveryItems(query), filter.Filter), "delivery_date", filter.Filter).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	out := make([]inventory.Delivery, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Update writes the supplier name and notes
func (r *GormDeliveryRepository) Update(ctx context.Context, delivery *inventory.Delivery) error {
	result := r.db.WithContext(ctx).
		Model(&models.DeliveryModel{}).
		Where("id = ?", delivery.ID).
		Updates(map[string]any{
			"supplier_name": delivery.SupplierName,
			"notes":         delivery.Notes,
			"updated_at":    delivery.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a delivery and its items. Batches it opened stay in the
// ledger with their origin cleared.
func (r *GormDeliveryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.BatchModel{}).
			Where("origin_delivery_id = ?", id).
			Update("origin_delivery_id", nil).Error; err != nil {
			return translateError(err)
		}
		if err := tx.Where("delivery_id = ?", id).Delete(&models.DeliveryItemModel{}).Error; err != nil {
			return translateError(err)
		}
		result := tx.Delete(&models.DeliveryModel{}, "id = ?", id)
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Ensure GormDeliveryRepository implements DeliveryRepository
var _ inventory.DeliveryRepository = (*GormDeliveryRepository)(nil)
