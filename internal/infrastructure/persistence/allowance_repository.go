package persistence

import (
	"context"
	"time"

	"github.com/dairy/backend/internal/domain/allowance"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAllowanceRepository implements allowance.Repository using GORM
type GormAllowanceRepository struct {
	db *gorm.DB
}

// NewGormAllowanceRepository creates a new GormAllowanceRepository
func NewGormAllowanceRepository(db *gorm.DB) *GormAllowanceRepository {
	return &GormAllowanceRepository{db: db}
}

func preloadAllocations(db *gorm.DB) *gorm.DB {
	return db.Preload("Allocations", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	})
}

// FindByID loads an allowance with its allocations
func (r *GormAllowanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*allowance.TransportAllowance, error) {
	var m models.TransportAllowanceModel
	if err := preloadAllocations(r.db.WithContext(ctx)).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByIDForUpdate loads an allowance and locks its row
func (r *GormAllowanceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*allowance.TransportAllowance, error) {
	var m models.TransportAllowanceModel
	if err := preloadAllocations(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// List returns a page of allowances and the total count for the filter
func (r *GormAllowanceRepository) List(ctx context.Context, filter allowance.Filter) ([]allowance.TransportAllowance, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TransportAllowanceModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	query = applyDateRange(query, "allowance_date", filter.Dates)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.TransportAllowanceModel
	if err := orderByDate(applyPage(preloadAllocations(query), filter.Filter), "allowance_date", filter.Filter).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	out := make([]allowance.TransportAllowance, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

type truckAmount struct {
	TruckID uuid.UUID
	Total   decimal.Decimal
}

// AmountsByTruckForDate sums allocations per truck for an allowance date
func (r *GormAllowanceRepository) AmountsByTruckForDate(ctx context.Context, date time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []truckAmount
	if err := r.db.WithContext(ctx).
		Table("truck_allowances").
		Select("truck_allowances.truck_id AS truck_id, SUM(truck_allowances.amount) AS total").
		Joins("JOIN transport_allowances ON transport_allowances.id = truck_allowances.transport_allowance_id").
		Where("transport_allowances.allowance_date = ?", shared.TruncateDate(date)).
		Group("truck_allowances.truck_id").
		Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.TruckID] = row.Total
	}
	return out, nil
}

// Create inserts an allowance with any allocations it already carries
func (r *GormAllowanceRepository) Create(ctx context.Context, a *allowance.TransportAllowance) error {
	return r.Save(ctx, a)
}

// Save writes the allowance header and replaces its allocation set
func (r *GormAllowanceRepository) Save(ctx context.Context, a *allowance.TransportAllowance) error {
	m := models.TransportAllowanceModelFromDomain(a)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(m).Error; err != nil {
			return translateError(err)
		}

		ids := make([]uuid.UUID, len(m.Allocations))
		for i, alloc := range m.Allocations {
			ids[i] = alloc.ID
		}
		stale := tx.Where("transport_allowance_id = ?", m.ID)
		if len(ids) > 0 {
			stale = stale.Where("id NOT IN ?", ids)
		}
		if err := stale.Delete(&models.TruckAllowanceModel{}).Error; err != nil {
			return translateError(err)
		}

		if len(m.Allocations) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&m.Allocations).Error; err != nil {
			return translateError(err)
		}
		return nil
	})
}

// Delete removes an allowance and its allocations
func (r *GormAllowanceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transport_allowance_id = ?", id).Delete(&models.TruckAllowanceModel{}).Error; err != nil {
			return translateError(err)
		}
		result := tx.Delete(&models.TransportAllowanceModel{}, "id = ?", id)
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Ensure GormAllowanceRepository implements Repository
var _ allowance.Repository = (*GormAllowanceRepository)(nil)
