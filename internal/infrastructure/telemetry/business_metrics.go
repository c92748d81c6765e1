package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks ledger postings, reconciliation outcomes and stock
// health for the distribution backend.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	movementPostedTotal     *Counter
	reconciliationFinalized *Counter
	truckDiscrepancyTotal   *Counter
	salesRecordedTotal      *Counter

	// Gauge metrics (point-in-time values)
	netProfit          *FloatGauge
	stockOnHand        *FloatGauge
	expiredBatchesHeld *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	inventoryProvider InventoryMetricsProvider
}

// InventoryMetricsProvider provides stock data for periodic metrics collection.
// This interface allows the telemetry layer to query stock state without
// depending on the inventory domain directly.
type InventoryMetricsProvider interface {
	// StockOnHandByProduct returns the summed remaining quantity per product
	StockOnHandByProduct(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error)

	// ExpiredBatchCount returns how many batches past expiry still hold stock
	ExpiredBatchCount(ctx context.Context, today time.Time) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	InventoryProvider InventoryMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:             cfg.Meter,
		logger:            logger,
		stopChan:          make(chan struct{}),
		inventoryProvider: cfg.InventoryProvider,
	}

	var err error

	bm.movementPostedTotal, err = NewCounter(
		cfg.Meter,
		"dairy_stock_movement_posted_total",
		"Total number of ledger postings",
		"{movements}",
	)
	if err != nil {
		return nil, err
	}

	bm.reconciliationFinalized, err = NewCounter(
		cfg.Meter,
		"dairy_reconciliation_finalized_total",
		"Total number of finalized daily reconciliations",
		"{reconciliations}",
	)
	if err != nil {
		return nil, err
	}

	bm.truckDiscrepancyTotal, err = NewCounter(
		cfg.Meter,
		"dairy_truck_discrepancy_total",
		"Truck verifications whose reported quantities did not balance",
		"{verifications}",
	)
	if err != nil {
		return nil, err
	}

	bm.salesRecordedTotal, err = NewCounter(
		cfg.Meter,
		"dairy_sales_recorded_total",
		"Total number of recorded shop sales",
		"{sales}",
	)
	if err != nil {
		return nil, err
	}

	bm.netProfit, err = NewFloatGauge(
		cfg.Meter,
		"dairy_reconciliation_net_profit",
		"Net profit of the last finalized day",
		"{currency}",
	)
	if err != nil {
		return nil, err
	}

	bm.stockOnHand, err = NewFloatGauge(
		cfg.Meter,
		"dairy_stock_on_hand",
		"Remaining quantity across all batches of a product",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	bm.expiredBatchesHeld, err = NewGauge(
		cfg.Meter,
		"dairy_expired_batches_with_stock",
		"Batches past expiry that still hold stock",
		"{batches}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordMovementPosted counts one ledger posting by movement type.
func (bm *BusinessMetrics) RecordMovementPosted(ctx context.Context, movementType string) {
	bm.movementPostedTotal.Inc(ctx, AttrMovementType.String(movementType))
}

// RecordTruckVerified counts verifications that raised a discrepancy.
func (bm *BusinessMetrics) RecordTruckVerified(ctx context.Context, hasDiscrepancy bool) {
	if !hasDiscrepancy {
		return
	}
	bm.truckDiscrepancyTotal.Inc(ctx)
}

// RecordSale counts one sale, labelled truck or depot.
func (bm *BusinessMetrics) RecordSale(ctx context.Context, truckSale bool) {
	channel := "depot"
	if truckSale {
		channel = "truck"
	}
	bm.salesRecordedTotal.Inc(ctx, AttrSaleChannel.String(channel))
}

// RecordReconciliationFinalized counts a closed day and records its profit.
func (bm *BusinessMetrics) RecordReconciliationFinalized(ctx context.Context, netProfit decimal.Decimal) {
	bm.reconciliationFinalized.Inc(ctx)
	bm.netProfit.Record(ctx, netProfit.InexactFloat64())
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectInventoryMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectInventoryMetrics(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectInventoryMetrics(ctx context.Context) {
	if bm.inventoryProvider == nil {
		bm.logger.Debug("No inventory provider configured, skipping inventory metrics collection")
		return
	}

	onHand, err := bm.inventoryProvider.StockOnHandByProduct(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get stock on hand", zap.Error(err))
	} else {
		for productID, qty := range onHand {
			bm.stockOnHand.Record(ctx, qty.InexactFloat64(), AttrProductID.String(productID.String()))
		}
	}

	expired, err := bm.inventoryProvider.ExpiredBatchCount(ctx, time.Now())
	if err != nil {
		bm.logger.Warn("Failed to count expired batches", zap.Error(err))
	} else {
		bm.expiredBatchesHeld.Record(ctx, expired)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// AttrMovementType labels ledger metrics by movement type
var AttrMovementType = attribute.Key("movement_type")

// AttrSaleChannel labels sale metrics by where the stock came from
var AttrSaleChannel = attribute.Key("sale_channel")
