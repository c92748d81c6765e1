package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInventoryMetricsProvider implements InventoryMetricsProvider using GORM.
// It queries the batches table directly for aggregated metrics.
type GormInventoryMetricsProvider struct {
	db *gorm.DB
}

// NewGormInventoryMetricsProvider creates a new GormInventoryMetricsProvider.
func NewGormInventoryMetricsProvider(db *gorm.DB) *GormInventoryMetricsProvider {
	return &GormInventoryMetricsProvider{db: db}
}

// StockOnHandByProduct returns the summed remaining quantity per product.
func (p *GormInventoryMetricsProvider) StockOnHandByProduct(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	type result struct {
		ProductID uuid.UUID       `gorm:"column:product_id"`
		OnHand    decimal.Decimal `gorm:"column:on_hand"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("batches").
		Select("product_id, COALESCE(SUM(remaining_quantity), 0) AS on_hand").
		Group("product_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	m := make(map[uuid.UUID]decimal.Decimal, len(results))
	for _, r := range results {
		m[r.ProductID] = r.OnHand
	}
	return m, nil
}

// ExpiredBatchCount returns how many batches past expiry still hold stock.
func (p *GormInventoryMetricsProvider) ExpiredBatchCount(ctx context.Context, today time.Time) (int64, error) {
	y, mo, d := today.Date()
	var count int64
	err := p.db.WithContext(ctx).
		Table("batches").
		Where("remaining_quantity > 0 AND expiry_date < ?", time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)).
		Count(&count).Error
	return count, err
}

var _ InventoryMetricsProvider = (*GormInventoryMetricsProvider)(nil)
