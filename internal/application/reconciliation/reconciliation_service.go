// Package reconciliation holds the daily reconciliation use cases: opening
// a day, verifying each truck's returns and finalizing the day.
package reconciliation

import (
	"context"
	"time"

	appinv "github.com/dairy/backend/internal/application/inventory"
	appshared "github.com/dairy/backend/internal/application/shared"
	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/reconciliation"
	"github.com/dairy/backend/internal/domain/sales"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/domain/truckload"
	"github.com/dairy/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service handles daily reconciliation operations
type Service struct {
	scope          appshared.TransactionScope
	repos          appshared.Repositories
	ledger         *appinv.Ledger
	cache          ReportCache
	archive        ReportArchive
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	tolerance      decimal.Decimal
}

// NewService creates a new reconciliation Service
func NewService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	ledger *appinv.Ledger,
	logger *zap.Logger,
) *Service {
	return &Service{
		scope:     scope,
		repos:     repos,
		ledger:    ledger,
		logger:    logger,
		tolerance: reconciliation.DefaultDiscrepancyTolerance,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetReportCache sets the cache for finalized reports
func (s *Service) SetReportCache(cache ReportCache) {
	s.cache = cache
}

// SetDiscrepancyTolerance overrides the default discrepancy tolerance
func (s *Service) SetDiscrepancyTolerance(tolerance decimal.Decimal) {
	if !tolerance.IsNegative() {
		s.tolerance = tolerance
	}
}

// Start opens the reconciliation of a date with one row per truck loaded
// that day. Sales figures are a snapshot taken now.
func (s *Service) Start(ctx context.Context, actor appshared.Actor, req StartReconciliationRequest) (*ReconciliationResponse, error) {
	date := shared.TruncateDate(req.Date)
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "start",
		telemetry.WithAttribute("reconciliation_date", date.Format(time.DateOnly)))
	defer span.End()

	if err := actor.RequireManager(); err != nil {
		return nil, err
	}

	var rec *reconciliation.DailyReconciliation
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		exists, err := repos.Reconciliations().ExistsForDate(ctx, date)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewConflictError("Reconciliation for %s already exists", date.Format(time.DateOnly))
		}
		loads, err := repos.TruckLoads().FindByDate(ctx, date)
		if err != nil {
			return err
		}
		truckSales, err := repos.Sales().FindTruckSalesByDate(ctx, date)
		if err != nil {
			return err
		}
		allowances, err := repos.Allowances().AmountsByTruckForDate(ctx, date)
		if err != nil {
			return err
		}
		rec, err = reconciliation.Start(date, req.Notes, actor.UserID, snapshots(loads, sales.Aggregate(truckSales), allowances))
		if err != nil {
			return err
		}
		return repos.Reconciliations().Create(ctx, rec)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "trucks_out", rec.TrucksOut)
	events := &appshared.EventCollector{}
	events.Collect(rec)
	events.PublishTo(ctx, s.eventPublisher)

	s.logger.Info("Reconciliation started",
		zap.String("reconciliation_id", rec.ID.String()),
		zap.String("reconciliation_date", date.Format(time.DateOnly)),
		zap.Int("trucks_out", rec.TrucksOut))
	resp := ToReconciliationResponse(rec)
	return &resp, nil
}

func snapshots(loads []truckload.TruckLoad, agg map[uuid.UUID]sales.TruckDayAggregate, allowances map[uuid.UUID]decimal.Decimal) []reconciliation.TruckSnapshot {
	out := make([]reconciliation.TruckSnapshot, 0, len(loads))
	for i := range loads {
		load := &loads[i]
		snap := reconciliation.TruckSnapshot{
			TruckID:           load.TruckID,
			TruckLoadID:       load.ID,
			ItemsLoaded:       load.TotalLoaded(),
			ItemsSold:         decimal.Zero,
			SalesAmount:       decimal.Zero,
			CommissionEarned:  decimal.Zero,
			PaymentsCollected: decimal.Zero,
			Allowance:         decimal.Zero,
		}
		if a, ok := agg[load.TruckID]; ok {
			snap.ItemsSold = a.ItemsSold
			snap.SalesAmount = a.SalesAmount
			snap.CommissionEarned = a.Commission
			snap.PaymentsCollected = a.PaymentsCollected
		}
		if amount, ok := allowances[load.TruckID]; ok {
			snap.Allowance = amount
		}
		out = append(out, snap)
	}
	return out
}

// Verify records the physical count of one truck's returns. Verifying
// again replaces the previous count.
func (s *Service) Verify(ctx context.Context, actor appshared.Actor, date time.Time, truckID uuid.UUID, req VerifyTruckRequest) (*ReconciliationResponse, error) {
	date = shared.TruncateDate(date)
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "verify",
		telemetry.WithAttribute("reconciliation_date", date.Format(time.DateOnly)),
		telemetry.WithAttribute("truck_id", truckID.String()))
	defer span.End()

	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	input := reconciliation.Verification{
		Returned:         make([]reconciliation.ReturnLine, 0, len(req.ItemsReturned)),
		Discarded:        make([]reconciliation.DiscardLine, 0, len(req.ItemsDiscarded)),
		DiscrepancyNotes: req.DiscrepancyNotes,
	}
	for _, r := range req.ItemsReturned {
		input.Returned = append(input.Returned, reconciliation.ReturnLine{ProductID: r.ProductID, Quantity: r.Quantity})
	}
	for _, d := range req.ItemsDiscarded {
		input.Discarded = append(input.Discarded, reconciliation.DiscardLine{
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			Reason:    reconciliation.DiscardReason(d.Reason),
		})
	}

	var (
		rec  *reconciliation.DailyReconciliation
		item *reconciliation.ReconciliationItem
	)
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		rec, err = repos.Reconciliations().FindByDateForUpdate(ctx, date)
		if err != nil {
			return err
		}
		item, err = rec.VerifyTruck(truckID, input, actor.UserID, s.tolerance)
		if err != nil {
			return err
		}
		return repos.Reconciliations().Save(ctx, rec)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	events := &appshared.EventCollector{}
	events.Collect(rec)
	events.PublishTo(ctx, s.eventPublisher)

	if item.HasDiscrepancy {
		s.logger.Warn("Truck returns do not match expected quantity",
			zap.String("reconciliation_date", date.Format(time.DateOnly)),
			zap.String("truck_id", truckID.String()),
			zap.String("expected_return", item.ExpectedReturn().String()),
			zap.String("items_returned", item.ItemsReturned.String()),
			zap.String("items_discarded", item.ItemsDiscarded.String()))
	} else {
		s.logger.Info("Truck verified",
			zap.String("reconciliation_date", date.Format(time.DateOnly)),
			zap.String("truck_id", truckID.String()),
			zap.Int("trucks_verified", rec.TrucksVerified))
	}
	resp := ToReconciliationResponse(rec)
	return &resp, nil
}

// Finalize closes the day. Returned stock goes back to its batches, spread
// over the truck's batches oldest expiry first and capped by what the truck
// still holds. Quantity already returned through the truck load is not
// restored again. Discarded stock is never restored. Every load of the
// day ends up reconciled.
func (s *Service) Finalize(ctx context.Context, actor appshared.Actor, date time.Time) (*ReconciliationResponse, error) {
	date = shared.TruncateDate(date)
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "finalize",
		telemetry.WithAttribute("reconciliation_date", date.Format(time.DateOnly)))
	defer span.End()

	if err := actor.RequireManager(); err != nil {
		return nil, err
	}

	var rec *reconciliation.DailyReconciliation
	events := &appshared.EventCollector{}
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		rec, err = repos.Reconciliations().FindByDateForUpdate(ctx, date)
		if err != nil {
			return err
		}
		if err := rec.CheckFinalizable(); err != nil {
			return err
		}
		ref := inventory.NewReference(inventory.ReferenceTypeReconciliation, rec.ID)
		for i := range rec.Items {
			if err := s.restoreReturns(ctx, repos, &rec.Items[i], ref, actor, events); err != nil {
				return err
			}
		}
		if err := rec.Finalize(actor.UserID); err != nil {
			return err
		}
		return repos.Reconciliations().Save(ctx, rec)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Reconciliation finalize rejected",
			zap.String("reconciliation_date", date.Format(time.DateOnly)),
			zap.Error(err))
		return nil, err
	}
	events.Collect(rec)
	events.PublishTo(ctx, s.eventPublisher)

	telemetry.SetAttributes(span, "net_profit", rec.NetProfit.String())
	s.logger.Info("Reconciliation finalized",
		zap.String("reconciliation_id", rec.ID.String()),
		zap.String("reconciliation_date", date.Format(time.DateOnly)),
		zap.String("net_profit", rec.NetProfit.String()),
		zap.String("profit_status", string(rec.ProfitStatus())))
	resp := ToReconciliationResponse(rec)
	return &resp, nil
}

func (s *Service) restoreReturns(
	ctx context.Context,
	repos appshared.Repositories,
	item *reconciliation.ReconciliationItem,
	ref inventory.Reference,
	actor appshared.Actor,
	events *appshared.EventCollector,
) error {
	load, err := repos.TruckLoads().FindByIDForUpdate(ctx, item.TruckLoadID)
	if err != nil {
		return err
	}

	returned := item.ReturnedByProduct()
	lines := make([]truckload.ReturnLine, 0)
	for _, productID := range item.ReturnedProducts() {
		want := returned[productID].Sub(load.ReturnedForProduct(productID))
		for _, tli := range load.ItemsForProduct(productID) {
			if !want.IsPositive() {
				break
			}
			take := decimal.Min(want, tli.Available())
			lines = append(lines, truckload.ReturnLine{BatchID: tli.BatchID, QuantityReturned: take})
			want = want.Sub(take)
		}
		if want.IsPositive() {
			s.logger.Warn("Returned quantity exceeds what was left on the truck",
				zap.String("truck_load_id", load.ID.String()),
				zap.String("product_id", productID.String()),
				zap.String("not_restored", want.String()))
		}
	}

	if load.Status == truckload.LoadStatusLoaded {
		err = load.Reconcile(lines, actor.UserID, "")
	} else {
		err = load.RecordLateReturns(lines)
	}
	if err != nil {
		return err
	}

	for _, line := range lines {
		if _, err := s.ledger.Post(ctx, repos, appinv.PostRequest{
			BatchID:   line.BatchID,
			Type:      inventory.MovementTypeTruckReturnIn,
			Quantity:  line.QuantityReturned,
			Reference: ref,
			Actor:     actor.UserID,
			Date:      load.LoadDate,
		}, events); err != nil {
			return err
		}
	}
	if err := repos.TruckLoads().Save(ctx, load); err != nil {
		return err
	}
	events.Collect(load)
	return nil
}

// Get returns the reconciliation of a date. Finalized reports are served
// from the cache when one is configured.
func (s *Service) Get(ctx context.Context, date time.Time) (*ReconciliationResponse, error) {
	date = shared.TruncateDate(date)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, date)
		if err != nil {
			s.logger.Warn("Reconciliation report cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	rec, err := s.repos.Reconciliations().FindByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	resp := ToReconciliationResponse(rec)
	if s.cache != nil && rec.Status == reconciliation.StatusFinalized {
		if err := s.cache.Set(ctx, date, &resp); err != nil {
			s.logger.Warn("Reconciliation report cache write failed", zap.Error(err))
		}
	}
	return &resp, nil
}

// List returns reconciliations matching the filter, without their items
func (s *Service) List(ctx context.Context, filter ReconciliationListFilter) ([]ReconciliationResponse, int64, error) {
	f := reconciliation.Filter{
		Filter: shared.DefaultFilter(),
		Status: reconciliation.Status(filter.Status),
		Dates:  shared.DateRange{From: filter.From, To: filter.To},
	}
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	list, total, err := s.repos.Reconciliations().List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ReconciliationResponse, 0, len(list))
	for i := range list {
		out = append(out, ToReconciliationResponse(&list[i]))
	}
	return out, total, nil
}
