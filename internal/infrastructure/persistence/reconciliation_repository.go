package persistence

import (
	"context"
	"time"

	"github.com/dairy/backend/internal/domain/reconciliation"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReconciliationRepository implements reconciliation.Repository using GORM
type GormReconciliationRepository struct {
	db *gorm.DB
}

// NewGormReconciliationRepository creates a new GormReconciliationRepository
func NewGormReconciliationRepository(db *gorm.DB) *GormReconciliationRepository {
	return &GormReconciliationRepository{db: db}
}

func preloadReconciliationItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("truck_id ASC") }).
		Preload("Items.Lines", func(db *gorm.DB) *gorm.DB { return db.Order("kind DESC, product_id ASC") })
}

// FindByDate loads the reconciliation of a date with its items and lines
func (r *GormReconciliationRepository) FindByDate(ctx context.Context, date time.Time) (*reconciliation.DailyReconciliation, error) {
	var m models.DailyReconciliationModel
	if err := preloadReconciliationItems(r.db.WithContext(ctx)).
		Where("reconciliation_date = ?", shared.TruncateDate(date)).
		First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByDateForUpdate loads the reconciliation of a date and locks its
// header row, serialising verification and finalization of the same day
func (r *GormReconciliationRepository) FindByDateForUpdate(ctx context.Context, date time.Time) (*reconciliation.DailyReconciliation, error) {
	var m models.DailyReconciliationModel
	if err := preloadReconciliationItems(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reconciliation_date = ?", shared.TruncateDate(date)).
		First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// ExistsForDate reports whether a reconciliation was started for date
func (r *GormReconciliationRepository) ExistsForDate(ctx context.Context, date time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DailyReconciliationModel{}).
		Where("reconciliation_date = ?", shared.TruncateDate(date)).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// List returns a page of reconciliations and the total count for the filter
func (r *GormReconciliationRepository) List(ctx context.Context, filter reconciliation.Filter) ([]reconciliation.DailyReconciliation, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DailyReconciliationModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	query = applyDateRange(query, "reconciliation_date", filter.Dates)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.DailyReconciliationModel
	if err := orderByDate(applyPage(preloadReconciliationItems(query), filter.Filter), "reconciliation_date", filter.Filter).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	out := make([]reconciliation.DailyReconciliation, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts a new reconciliation with its per-truck items
func (r *GormReconciliationRepository) Create(ctx context.Context, rec *reconciliation.DailyReconciliation) error {
	m := models.DailyReconciliationModelFromDomain(rec)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			return translateError(err)
		}
		return r.writeItems(tx, m)
	})
}

// Save writes the header and items. Lines are rewritten per item because a
// verification replaces what was reported before.
func (r *GormReconciliationRepository) Save(ctx context.Context, rec *reconciliation.DailyReconciliation) error {
	m := models.DailyReconciliationModelFromDomain(rec)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(m).Error; err != nil {
			return translateError(err)
		}
		return r.writeItems(tx, m)
	})
}

func (r *GormReconciliationRepository) writeItems(tx *gorm.DB, m *models.DailyReconciliationModel) error {
	for i := range m.Items {
		item := &m.Items[i]
		if err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
			Create(item).Error; err != nil {
			return translateError(err)
		}
		if err := tx.Where("reconciliation_item_id = ?", item.ID).Delete(&models.ReconciliationLineModel{}).Error; err != nil {
			return translateError(err)
		}
		if len(item.Lines) == 0 {
			continue
		}
		if err := tx.Create(&item.Lines).Error; err != nil {
			return translateError(err)
		}
	}
	return nil
}

// Ensure GormReconciliationRepository implements Repository
var _ reconciliation.Repository = (*GormReconciliationRepository)(nil)
