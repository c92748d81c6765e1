// Package allowance holds the transport allowance use cases.
package allowance

import (
	"context"
	"time"

	appshared "github.com/dairy/backend/internal/application/shared"
	"github.com/dairy/backend/internal/domain/allowance"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service handles transport allowance operations
type Service struct {
	scope  appshared.TransactionScope
	repos  appshared.Repositories
	logger *zap.Logger
}

// NewService creates a new allowance Service
func NewService(scope appshared.TransactionScope, repos appshared.Repositories, logger *zap.Logger) *Service {
	return &Service{scope: scope, repos: repos, logger: logger}
}

// Create opens a pending allowance. A date has at most one allowance; the
// storage unique key turns a second one into a Conflict.
func (s *Service) Create(ctx context.Context, actor appshared.Actor, req CreateAllowanceRequest) (*AllowanceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allowance", "create")
	defer span.End()

	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	a, err := allowance.NewTransportAllowance(req.AllowanceDate, req.TotalAllowance, req.Notes, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Allowances().Create(ctx, a); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("Transport allowance created",
		zap.String("allowance_id", a.ID.String()),
		zap.String("allowance_date", a.AllowanceDate.Format(time.DateOnly)),
		zap.String("total", a.TotalAllowance.String()))
	resp := ToAllowanceResponse(a)
	return &resp, nil
}

// Allocate distributes the budget over trucks. Each share is capped by the
// truck's own limit and the shares together by the budget.
func (s *Service) Allocate(ctx context.Context, actor appshared.Actor, id uuid.UUID, req AllocateRequest) (*AllowanceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allowance", "allocate",
		telemetry.WithAttribute("allowance_id", id.String()))
	defer span.End()

	if err := actor.RequireManager(); err != nil {
		return nil, err
	}

	var a *allowance.TransportAllowance
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		a, err = repos.Allowances().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		requests := make([]allowance.AllocationRequest, 0, len(req.Allocations))
		for _, r := range req.Allocations {
			limit, err := s.truckLimit(ctx, repos, r.TruckID)
			if err != nil {
				return err
			}
			requests = append(requests, allowance.AllocationRequest{
				TruckID:         r.TruckID,
				Amount:          r.Amount,
				DistanceCovered: r.DistanceCovered,
				Notes:           r.Notes,
				MaxLimit:        limit,
			})
		}
		if err := a.Allocate(requests); err != nil {
			return err
		}
		return repos.Allowances().Save(ctx, a)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("Transport allowance allocated",
		zap.String("allowance_id", a.ID.String()),
		zap.Int("trucks", len(a.Allocations)),
		zap.String("allocated", a.AllocatedAmount().String()))
	resp := ToAllowanceResponse(a)
	return &resp, nil
}

// UpdateAllocation replaces one truck's share
func (s *Service) UpdateAllocation(ctx context.Context, actor appshared.Actor, id, truckID uuid.UUID, req UpdateAllocationRequest) (*AllowanceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allowance", "update_allocation")
	defer span.End()

	if err := actor.RequireManager(); err != nil {
		return nil, err
	}

	var a *allowance.TransportAllowance
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		a, err = repos.Allowances().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		limit, err := s.truckLimit(ctx, repos, truckID)
		if err != nil {
			return err
		}
		if err := a.UpdateAllocation(allowance.AllocationRequest{
			TruckID:         truckID,
			Amount:          req.Amount,
			DistanceCovered: req.DistanceCovered,
			Notes:           req.Notes,
			MaxLimit:        limit,
		}); err != nil {
			return err
		}
		return repos.Allowances().Save(ctx, a)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToAllowanceResponse(a)
	return &resp, nil
}

// Finalize locks the allowance against further changes
func (s *Service) Finalize(ctx context.Context, actor appshared.Actor, id uuid.UUID) (*AllowanceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allowance", "finalize")
	defer span.End()

	if err := actor.RequireManager(); err != nil {
		return nil, err
	}

	var a *allowance.TransportAllowance
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		a, err = repos.Allowances().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := a.Finalize(); err != nil {
			return err
		}
		return repos.Allowances().Save(ctx, a)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("Transport allowance finalized", zap.String("allowance_id", a.ID.String()))
	resp := ToAllowanceResponse(a)
	return &resp, nil
}

// Delete removes an allowance that has not been allocated yet
func (s *Service) Delete(ctx context.Context, actor appshared.Actor, id uuid.UUID) error {
	if err := actor.RequireManager(); err != nil {
		return err
	}
	return s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		a, err := repos.Allowances().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !a.CanDelete() {
			return shared.NewConflictError("Only pending allowances can be deleted")
		}
		return repos.Allowances().Delete(ctx, id)
	})
}

// Get returns an allowance with its allocations
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*AllowanceResponse, error) {
	a, err := s.repos.Allowances().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToAllowanceResponse(a)
	return &resp, nil
}

// List returns allowances matching the filter
func (s *Service) List(ctx context.Context, filter AllowanceListFilter) ([]AllowanceResponse, int64, error) {
	f := allowance.Filter{
		Filter: shared.DefaultFilter(),
		Status: allowance.Status(filter.Status),
		Dates:  shared.DateRange{From: filter.From, To: filter.To},
	}
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	list, total, err := s.repos.Allowances().List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]AllowanceResponse, 0, len(list))
	for i := range list {
		out = append(out, ToAllowanceResponse(&list[i]))
	}
	return out, total, nil
}

// AmountForTruck returns what a truck was allocated for a date, zero when
// there is no allocation
func (s *Service) AmountForTruck(ctx context.Context, truckID uuid.UUID, date time.Time) (decimal.Decimal, error) {
	amounts, err := s.repos.Allowances().AmountsByTruckForDate(ctx, shared.TruncateDate(date))
	if err != nil {
		return decimal.Zero, err
	}
	if amount, ok := amounts[truckID]; ok {
		return amount, nil
	}
	return decimal.Zero, nil
}

func (s *Service) truckLimit(ctx context.Context, repos appshared.Repositories, truckID uuid.UUID) (decimal.Decimal, error) {
	truck, err := repos.Trucks().FindByID(ctx, truckID)
	if err != nil {
		return decimal.Zero, err
	}
	if !truck.IsActive {
		return decimal.Zero, shared.NewValidationError("Truck %s is not active", truck.TruckNumber)
	}
	return truck.MaxAllowanceLimit, nil
}
