package persistence

import (
	"context"
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/domain/truckload"
	"github.com/dairy/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTruckLoadRepository implements truckload.Repository using GORM
type GormTruckLoadRepository struct {
	db *gorm.DB
}

// NewGormTruckLoadRepository creates a new GormTruckLoadRepository
func NewGormTruckLoadRepository(db *gorm.DB) *GormTruckLoadRepository {
	return &GormTruckLoadRepository{db: db}
}

func preloadLoadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	})
}

// FindByID loads a truck load with its items
func (r *GormTruckLoadRepository) FindByID(ctx context.Context, id uuid.UUID) (*truckload.TruckLoad, error) {
	var m models.TruckLoadModel
	if err := preloadLoadItems(r.db.WithContext(ctx)).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByIDForUpdate loads a truck load and locks its header row
func (r *GormTruckLoadRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*truckload.TruckLoad, error) {
	var m models.TruckLoadModel
	if err := preloadLoadItems(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByTruckAndDate finds the load of a truck on a date
func (r *GormTruckLoadRepository) FindByTruckAndDate(ctx context.Context, truckID uuid.UUID, date time.Time) (*truckload.TruckLoad, error) {
	var m models.TruckLoadModel
	if err := preloadLoadItems(r.db.WithContext(ctx)).
		Where("truck_id = ? AND load_date = ?", truckID, shared.TruncateDate(date)).
		First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByDate returns every load dated on date, ordered by creation
func (r *GormTruckLoadRepository) FindByDate(ctx context.Context, date time.Time) ([]truckload.TruckLoad, error) {
	var rows []models.TruckLoadModel
	if err := preloadLoadItems(r.db.WithContext(ctx)).
		Where("load_date = ?", shared.TruncateDate(date)).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toLoads(rows), nil
}

// List returns a page of loads and the total count for the filter
func (r *GormTruckLoadRepository) List(ctx context.Context, filter truckload.Filter) ([]truckload.TruckLoad, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TruckLoadModel{})
	if filter.TruckID != nil {
		query = query.Where("truck_id = ?", *filter.TruckID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	query = applyDateRange(query, "load_date", filter.Dates)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.TruckLoadModel
	if err := orderByDate(applyPage(preloadLoadItems(query), filter.Filter), "load_date", filter.Filter).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return toLoads(rows), total, nil
}

// Save writes the load header and upserts its items. Items are never
// removed from a load once written.
func (r *GormTruckLoadRepository) Save(ctx context.Context, load *truckload.TruckLoad) error {
	m := models.TruckLoadModelFromDomain(load)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(m).Error; err != nil {
			return translateError(err)
		}
		if len(m.Items) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&m.Items).Error; err != nil {
			return translateError(err)
		}
		return nil
	})
}

// Delete removes a load and its items
func (r *GormTruckLoadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("truck_load_id = ?", id).Delete(&models.TruckLoadItemModel{}).Error; err != nil {
			return translateError(err)
		}
		result := tx.Delete(&models.TruckLoadModel{}, "id = ?", id)
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func toLoads(rows []models.TruckLoadModel) []truckload.TruckLoad {
	out := make([]truckload.TruckLoad, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormTruckLoadRepository implements Repository
var _ truckload.Repository = (*GormTruckLoadRepository)(nil)
