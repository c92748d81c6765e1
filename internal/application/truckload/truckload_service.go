// Package truckload holds the truck load use cases: loading a truck from
// batches, reconciling its returns and undoing a load.
package truckload

import (
	"context"
	"errors"
	"time"

	appinv "github.com/dairy/backend/internal/application/inventory"
	appshared "github.com/dairy/backend/internal/application/shared"
	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/domain/truckload"
	"github.com/dairy/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles truck load operations
type Service struct {
	scope          appshared.TransactionScope
	repos          appshared.Repositories
	ledger         *appinv.Ledger
	allocator      *appinv.Allocator
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new truck load Service
func NewService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	ledger *appinv.Ledger,
	allocator *appinv.Allocator,
	logger *zap.Logger,
) *Service {
	return &Service{
		scope:     scope,
		repos:     repos,
		ledger:    ledger,
		allocator: allocator,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create loads a truck for a date. Every line is allocated and its
// truck_load_out posted in one transaction; if any line cannot be covered
// nothing is loaded.
func (s *Service) Create(ctx context.Context, actor appshared.Actor, req CreateTruckLoadRequest) (*TruckLoadResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "truck_load", "create",
		telemetry.WithAttribute("truck_id", req.TruckID.String()))
	defer span.End()

	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("A truck load needs at least one item")
	}
	for _, item := range req.Items {
		if (item.BatchID == nil) == (item.ProductID == nil) {
			return nil, shared.NewValidationError("Each item needs exactly one of batch_id or product_id")
		}
		if !item.Quantity.IsPositive() {
			return nil, shared.NewValidationError("Loaded quantity must be positive")
		}
	}
	load, err := truckload.NewTruckLoad(req.TruckID, req.LoadDate, actor.UserID, req.Notes)
	if err != nil {
		return nil, err
	}

	events := &appshared.EventCollector{}
	err = s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		truck, err := repos.Trucks().FindByID(ctx, req.TruckID)
		if err != nil {
			return err
		}
		if !truck.IsActive {
			return shared.NewValidationError("Truck %s is not active", truck.TruckNumber)
		}
		if _, err := repos.TruckLoads().FindByTruckAndDate(ctx, req.TruckID, load.LoadDate); err == nil {
			return shared.NewConflictError("Truck %s is already loaded for %s", truck.TruckNumber, load.LoadDate.Format("2006-01-02"))
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		out := appinv.Outbound{
			Type:      inventory.MovementTypeTruckLoadOut,
			Reference: inventory.NewReference(inventory.ReferenceTypeTruckLoad, load.ID),
			Actor:     actor.UserID,
			Date:      load.LoadDate,
		}
		for _, item := range req.Items {
			if err := s.loadItem(ctx, repos, load, item, out, events); err != nil {
				return err
			}
		}
		return repos.TruckLoads().Save(ctx, load)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Truck load rejected",
			zap.String("truck_id", req.TruckID.String()),
			zap.Error(err))
		return nil, err
	}
	load.AddDomainEvent(truckload.NewTruckLoadCreatedEvent(load))
	events.Collect(load)
	events.PublishTo(ctx, s.eventPublisher)

	s.logger.Info("Truck loaded",
		zap.String("truck_load_id", load.ID.String()),
		zap.String("truck_id", load.TruckID.String()),
		zap.String("load_date", load.LoadDate.Format("2006-01-02")),
		zap.String("total_loaded", load.TotalLoaded().String()))
	resp := ToTruckLoadResponse(load)
	return &resp, nil
}

func (s *Service) loadItem(ctx context.Context, repos appshared.Repositories, load *truckload.TruckLoad, item LoadItemRequest, out appinv.Outbound, events *appshared.EventCollector) error {
	if item.BatchID != nil {
		if load.HasBatch(*item.BatchID) {
			return shared.NewConflictError("Batch %s is already in this truck load", item.BatchID)
		}
		alloc, _, err := s.allocator.AllocateSpecific(ctx, repos, *item.BatchID, nil, item.Quantity, out, events)
		if err != nil {
			return err
		}
		return load.AddSpecific(alloc.BatchID, alloc.ProductID, alloc.BatchNumber, alloc.ExpiryDate, alloc.Quantity)
	}

	allocations, err := s.allocator.AllocateFIFO(ctx, repos, *item.ProductID, item.Quantity, out, events)
	if err != nil {
		return err
	}
	for _, alloc := range allocations {
		if err := load.AddAllocated(alloc.BatchID, alloc.ProductID, alloc.BatchNumber, alloc.ExpiryDate, alloc.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Reconcile records what came back on the truck, restores it to the
// batches and closes the load
func (s *Service) Reconcile(ctx context.Context, actor appshared.Actor, id uuid.UUID, req ReconcileTruckLoadRequest) (*TruckLoadResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "truck_load", "reconcile",
		telemetry.WithAttribute("truck_load_id", id.String()))
	defer span.End()

	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	lines := make([]truckload.ReturnLine, 0, len(req.Returns))
	for _, r := range req.Returns {
		lines = append(lines, truckload.ReturnLine{BatchID: r.BatchID, QuantityReturned: r.QuantityReturned})
	}

	var load *truckload.TruckLoad
	events := &appshared.EventCollector{}
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		load, err = repos.TruckLoads().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := load.Reconcile(lines, actor.UserID, req.Notes); err != nil {
			return err
		}
		ref := inventory.NewReference(inventory.ReferenceTypeTruckLoad, load.ID)
		for _, ret := range sumByBatch(lines) {
			if !ret.QuantityReturned.IsPositive() {
				continue
			}
			if _, err := s.ledger.Post(ctx, repos, appinv.PostRequest{
				BatchID:   ret.BatchID,
				Type:      inventory.MovementTypeTruckReturnIn,
				Quantity:  ret.QuantityReturned,
				Reference: ref,
				Actor:     actor.UserID,
				Date:      load.LoadDate,
			}, events); err != nil {
				return err
			}
		}
		return repos.TruckLoads().Save(ctx, load)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	events.Collect(load)
	events.PublishTo(ctx, s.eventPublisher)

	s.logger.Info("Truck load reconciled",
		zap.String("truck_load_id", load.ID.String()),
		zap.Int("return_lines", len(lines)))
	resp := ToTruckLoadResponse(load)
	return &resp, nil
}

// Delete undoes a load that nothing has been sold from: whatever is still
// on the truck goes back to its batch before the load is removed
func (s *Service) Delete(ctx context.Context, actor appshared.Actor, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "truck_load", "delete",
		telemetry.WithAttribute("truck_load_id", id.String()))
	defer span.End()

	if err := actor.RequireManager(); err != nil {
		return err
	}

	var load *truckload.TruckLoad
	events := &appshared.EventCollector{}
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		load, err = repos.TruckLoads().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		hasSales, err := repos.Sales().ExistsForTruckLoad(ctx, id)
		if err != nil {
			return err
		}
		if hasSales {
			return shared.NewConflictError("Cannot delete a truck load that has sales")
		}
		// a started reconciliation holds the load in its snapshot
		started, err := repos.Reconciliations().ExistsForDate(ctx, load.LoadDate)
		if err != nil {
			return err
		}
		if started {
			return shared.NewConflictError("Cannot delete a truck load once reconciliation of %s has started",
				load.LoadDate.Format(time.DateOnly))
		}
		ref := inventory.NewReference(inventory.ReferenceTypeTruckLoadDelete, load.ID)
		for _, item := range load.Items {
			restore := item.QuantityLoaded.Sub(item.QuantityReturned)
			if !restore.IsPositive() {
				continue
			}
			if _, err := s.ledger.Post(ctx, repos, appinv.PostRequest{
				BatchID:   item.BatchID,
				Type:      inventory.MovementTypeTruckReturnIn,
				Quantity:  restore,
				Reference: ref,
				Actor:     actor.UserID,
				Date:      load.LoadDate,
			}, events); err != nil {
				return err
			}
		}
		return repos.TruckLoads().Delete(ctx, id)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	events.Add(truckload.NewTruckLoadDeletedEvent(load))
	events.PublishTo(ctx, s.eventPublisher)

	s.logger.Info("Truck load deleted",
		zap.String("truck_load_id", id.String()),
		zap.String("truck_id", load.TruckID.String()))
	return nil
}

// Get returns a load with its items
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*TruckLoadResponse, error) {
	load, err := s.repos.TruckLoads().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToTruckLoadResponse(load)
	return &resp, nil
}

// Summary returns a load's totals and per-product lines
func (s *Service) Summary(ctx context.Context, id uuid.UUID) (*TruckLoadSummaryResponse, error) {
	load, err := s.repos.TruckLoads().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSummaryResponse(load)
	return &resp, nil
}

// List returns loads matching the filter
func (s *Service) List(ctx context.Context, filter TruckLoadListFilter) ([]TruckLoadResponse, int64, error) {
	f := truckload.Filter{
		Filter: shared.DefaultFilter(),
		Status: truckload.LoadStatus(filter.Status),
		Dates:  shared.DateRange{From: filter.From, To: filter.To},
	}
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.TruckID != "" {
		truckID, err := uuid.Parse(filter.TruckID)
		if err != nil {
			return nil, 0, shared.NewValidationError("Invalid truck ID")
		}
		f.TruckID = &truckID
	}
	loads, total, err := s.repos.TruckLoads().List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]TruckLoadResponse, 0, len(loads))
	for i := range loads {
		out = append(out, ToTruckLoadResponse(&loads[i]))
	}
	return out, total, nil
}

// sumByBatch merges repeated batches, keeping first-seen order
func sumByBatch(lines []truckload.ReturnLine) []truckload.ReturnLine {
	index := make(map[uuid.UUID]int, len(lines))
	out := make([]truckload.ReturnLine, 0, len(lines))
	for _, l := range lines {
		if pos, ok := index[l.BatchID]; ok {
			out[pos].QuantityReturned = out[pos].QuantityReturned.Add(l.QuantityReturned)
			continue
		}
		index[l.BatchID] = len(out)
		out = append(out, l)
	}
	return out
}
