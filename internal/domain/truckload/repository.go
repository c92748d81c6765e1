package truckload

import (
	"context"
	"time"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter narrows truck load listings
type Filter struct {
	shared.Filter
	TruckID *uuid.UUID
	Status  LoadStatus
	Dates   shared.DateRange
}

// Repository stores truck loads with their items
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*TruckLoad, error)
	// FindByIDForUpdate locks the load row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*TruckLoad, error)
	// FindByTruckAndDate returns shared.ErrNotFound when the truck has no load that day
	FindByTruckAndDate(ctx context.Context, truckID uuid.UUID, date time.Time) (*TruckLoad, error)
	FindByDate(ctx context.Context, date time.Time) ([]TruckLoad, error)
	List(ctx context.Context, filter Filter) ([]TruckLoad, int64, error)
	// Save inserts or updates the load and upserts its items
	Save(ctx context.Context, load *TruckLoad) error
	Delete(ctx context.Context, id uuid.UUID) error
}
