package persistence

import (
	"context"
	"time"

	"github.com/dairy/backend/internal/domain/sales"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements sales.Repository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func preloadSaleItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

// FindByID loads a sale with its items
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var m models.SaleModel
	if err := preloadSaleItems(r.db.WithContext(ctx)).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByIDForUpdate loads a sale and locks its row
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var m models.SaleModel
	if err := preloadSaleItems(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindTruckSalesByDate returns every truck sale dated on date
func (r *GormSaleRepository) FindTruckSalesByDate(ctx context.Context, date time.Time) ([]sales.Sale, error) {
	var rows []models.SaleModel
	if err := preloadSaleItems(r.db.WithContext(ctx)).
		Where("truck_load_id IS NOT NULL AND sale_date = ?", shared.TruncateDate(date)).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	out := make([]sales.Sale, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// ExistsForTruckLoad reports whether any sale was drawn from the load
func (r *GormSaleRepository) ExistsForTruckLoad(ctx context.Context, truckLoadID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("truck_load_id = ?", truckLoadID).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// ExistsForBatches reports whether any sale line drew from one of batchIDs
func (r *GormSaleRepository) ExistsForBatches(ctx context.Context, batchIDs []uuid.UUID) (bool, error) {
	if len(batchIDs) == 0 {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SaleItemModel{}).
		Where("batch_id IN ?", batchIDs).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// List returns a page of sales matching filter, newest sale date first
func (r *GormSaleRepository) List(ctx context.Context, filter sales.Filter) ([]sales.Sale, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SaleModel{})
	if filter.SoldBy != nil {
		query = query.Where("sold_by = ?", *filter.SoldBy)
	}
	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.TruckID != nil {
		query = query.Where("truck_id = ?", *filter.TruckID)
	}
	switch filter.PaymentStatus {
	case sales.PaymentStatusPaid:
		query = query.Where("amount_paid >= total_amount")
	case sales.PaymentStatusPending:
		query = query.Where("amount_paid < total_amount")
	}
	query = applyDateRange(query, "sale_date", filter.Dates)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.SaleModel
	if err := orderByDate(applyPage(preloadSaleItems(query), filter.Filter), "sale_date", filter.Filter).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	out := make([]sales.Sale, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts a sale with its items
func (r *GormSaleRepository) Create(ctx context.Context, sale *sales.Sale) error {
	m := models.SaleModelFromDomain(sale)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			return translateError(err)
		}
		if len(m.Items) == 0 {
			return nil
		}
		if err := tx.Create(&m.Items).Error; err != nil {
			return translateError(err)
		}
		return nil
	})
}

// UpdatePayment writes the paid amount. Items never change after creation.
func (r *GormSaleRepository) UpdatePayment(ctx context.Context, sale *sales.Sale) error {
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("id = ?", sale.ID).
		Updates(map[string]any{
			"amount_paid": sale.AmountPaid,
			"version":     sale.Version,
			"updated_at":  sale.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormSaleRepository implements Repository
var _ sales.Repository = (*GormSaleRepository)(nil)
