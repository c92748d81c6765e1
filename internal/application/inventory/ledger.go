package inventory

import (
	"context"
	"time"

	appshared "github.com/dairy/backend/internal/application/shared"
	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostRequest describes one ledger posting
type PostRequest struct {
	BatchID   uuid.UUID
	Type      inventory.MovementType
	Quantity  decimal.Decimal
	Reference inventory.Reference
	Actor     uuid.UUID
	Date      time.Time
	Reason    string
	Notes     string
}

// Ledger is the single write path for batch quantities. Every call runs
// inside the caller's transaction: the batch row is changed with a
// conditional update and the movement is appended in the same transaction,
// so either both are visible or neither is.
type Ledger struct{}

// NewLedger creates a Ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

// Post locks the batch and posts a movement against it
func (l *Ledger) Post(ctx context.Context, repos appshared.Repositories, req PostRequest, events *appshared.EventCollector) (*inventory.StockMovement, error) {
	batch, err := repos.Batches().FindByIDForUpdate(ctx, req.BatchID)
	if err != nil {
		return nil, err
	}
	return l.PostToBatch(ctx, repos, batch, req, events)
}

// PostToBatch posts a movement against a batch the caller has already
// locked in this transaction. The in-memory batch is updated as well.
func (l *Ledger) PostToBatch(ctx context.Context, repos appshared.Repositories, batch *inventory.Batch, req PostRequest, events *appshared.EventCollector) (*inventory.StockMovement, error) {
	movement, err := inventory.NewStockMovement(batch, req.Type, req.Quantity, req.Reference, req.Actor, req.Date)
	if err != nil {
		return nil, err
	}
	movement.WithReason(req.Reason, req.Notes)

	if err := batch.Apply(req.Type, req.Quantity); err != nil {
		return nil, err
	}

	batches := repos.Batches()
	switch {
	case req.Type == inventory.MovementTypeAdjustment && req.Quantity.IsNegative():
		err = batches.Decrease(ctx, batch.ID, req.Quantity.Abs(), true)
	case req.Type == inventory.MovementTypeAdjustment, req.Type == inventory.MovementTypeDeliveryIn:
		err = batches.Increase(ctx, batch.ID, req.Quantity, true)
	case req.Type == inventory.MovementTypeTruckReturnIn:
		err = batches.Increase(ctx, batch.ID, req.Quantity, false)
	default:
		err = batches.Decrease(ctx, batch.ID, req.Quantity, false)
	}
	if err != nil {
		return nil, err
	}

	if err := repos.Movements().Create(ctx, movement); err != nil {
		return nil, err
	}
	if events != nil {
		events.Add(inventory.NewStockMovementPostedEvent(movement))
	}
	return movement, nil
}
