package inventory

import (
	"context"
	"errors"
	"time"

	appshared "github.com/dairy/backend/internal/application/shared"
	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeliveryService receives supplier deliveries into batches and undoes
// deliveries whose stock is still untouched
type DeliveryService struct {
	scope          appshared.TransactionScope
	repos          appshared.Repositories
	ledger         *Ledger
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewDeliveryService creates a new DeliveryService
func NewDeliveryService(scope appshared.TransactionScope, repos appshared.Repositories, ledger *Ledger, logger *zap.Logger) *DeliveryService {
	return &DeliveryService{scope: scope, repos: repos, ledger: ledger, logger: logger}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *DeliveryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Receive posts every delivered line as a delivery_in movement. A line with
// a batch number the product already has tops up that batch, provided the
// expiry matches; otherwise a new batch is opened at zero and receives the
// delivery.
func (s *DeliveryService) Receive(ctx context.Context, actor appshared.Actor, req ReceiveDeliveryRequest) (*DeliveryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "delivery", "receive")
	defer span.End()

	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	delivery, err := inventory.NewDelivery(req.DeliveryDate, req.SupplierName, actor.UserID, req.Notes)
	if err != nil {
		return nil, err
	}
	productIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		if err := delivery.AddItem(item.ProductID, item.BatchNumber, item.ExpiryDate, item.Quantity); err != nil {
			return nil, err
		}
		productIDs = append(productIDs, item.ProductID)
	}
	if len(delivery.Items) == 0 {
		return nil, shared.NewValidationError("A delivery needs at least one item")
	}
	telemetry.SetAttributes(span,
		"delivery_id", delivery.ID.String(),
		"items_count", len(delivery.Items),
	)

	events := &appshared.EventCollector{}
	err = s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		products, err := repos.Products().FindByIDs(ctx, productIDs)
		if err != nil {
			return err
		}
		for i := range delivery.Items {
			item := &delivery.Items[i]
			if _, ok := products[item.ProductID]; !ok {
				return shared.NewNotFoundError("Product %s not found", item.ProductID)
			}
			batch, err := s.batchFor(ctx, repos, delivery.ID, item)
			if err != nil {
				return err
			}
			if _, err := s.ledger.PostToBatch(ctx, repos, batch, PostRequest{
				BatchID:   batch.ID,
				Type:      inventory.MovementTypeDeliveryIn,
				Quantity:  item.Quantity,
				Reference: inventory.NewReference(inventory.ReferenceTypeDelivery, delivery.ID),
				Actor:     actor.UserID,
				Date:      delivery.DeliveryDate,
			}, events); err != nil {
				return err
			}
			item.BatchID = batch.ID
		}
		return repos.Deliveries().Create(ctx, delivery)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	events.Add(inventory.NewDeliveryReceivedEvent(delivery))
	events.PublishTo(ctx, s.eventPublisher)

	s.logger.Info("Delivery received",
		zap.String("delivery_id", delivery.ID.String()),
		zap.Int("items", len(delivery.Items)),
		zap.String("total_quantity", delivery.TotalQuantity().String()))
	resp := ToDeliveryResponse(delivery)
	return &resp, nil
}

// batchFor returns the locked batch a delivery line is posted to, creating
// it when the product has no batch with that number yet
func (s *DeliveryService) batchFor(ctx context.Context, repos appshared.Repositories, deliveryID uuid.UUID, item *inventory.DeliveryItem) (*inventory.Batch, error) {
	batch, err := repos.Batches().FindByProductAndNumberForUpdate(ctx, item.ProductID, item.BatchNumber)
	if err == nil {
		if !batch.ExpiryDate.Equal(item.ExpiryDate) {
			return nil, shared.NewValidationError(
				"Batch %s already exists with expiry %s, delivery says %s",
				item.BatchNumber, batch.ExpiryDate.Format(time.DateOnly), item.ExpiryDate.Format(time.DateOnly))
		}
		return batch, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	batch, err = inventory.NewBatch(item.ProductID, item.BatchNumber, item.ExpiryDate, &deliveryID)
	if err != nil {
		return nil, err
	}
	if err := repos.Batches().Create(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// Get returns a delivery with its lines
func (s *DeliveryService) Get(ctx context.Context, id uuid.UUID) (*DeliveryResponse, error) {
	delivery, err := s.repos.Deliveries().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToDeliveryResponse(delivery)
	return &resp, nil
}

// List returns a page of deliveries, newest first
func (s *DeliveryService) List(ctx context.Context, filter DeliveryListFilter) ([]DeliveryResponse, int64, error) {
	f := inventory.DeliveryFilter{
		Filter: shared.DefaultFilter(),
		Dates:  shared.DateRange{From: filter.From, To: filter.To},
	}
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	deliveries, total, err := s.repos.Deliveries().List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]DeliveryResponse, 0, len(deliveries))
	for i := range deliveries {
		out = append(out, ToDeliveryResponse(&deliveries[i]))
	}
	return out, total, nil
}

// Update changes the supplier name or notes of a delivery
func (s *DeliveryService) Update(ctx context.Context, actor appshared.Actor, id uuid.UUID, req UpdateDeliveryRequest) (*DeliveryResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	var delivery *inventory.Delivery
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		delivery, err = repos.Deliveries().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		delivery.Update(req.SupplierName, req.Notes)
		return repos.Deliveries().Update(ctx, delivery)
	})
	if err != nil {
		return nil, err
	}
	resp := ToDeliveryResponse(delivery)
	return &resp, nil
}

// Delete reverses a delivery. Each receiving batch gets a negative
// adjustment for what the delivery put in, so the ledger keeps the full
// history. A delivery whose batches were sold from, or whose stock has
// already left the batch, cannot be deleted.
func (s *DeliveryService) Delete(ctx context.Context, actor appshared.Actor, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "delivery", "delete",
		telemetry.WithAttribute("delivery_id", id.String()))
	defer span.End()

	if err := actor.RequireManager(); err != nil {
		return err
	}

	var delivery *inventory.Delivery
	events := &appshared.EventCollector{}
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		delivery, err = repos.Deliveries().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		batchIDs, delivered := delivery.QuantityByBatch()
		sold, err := repos.Sales().ExistsForBatches(ctx, batchIDs)
		if err != nil {
			return err
		}
		if sold {
			return shared.NewConflictError("Cannot delete a delivery whose batches have been sold")
		}

		ref := inventory.NewReference(inventory.ReferenceTypeDeliveryDelete, delivery.ID)
		for _, batchID := range batchIDs {
			batch, err := repos.Batches().FindByIDForUpdate(ctx, batchID)
			if err != nil {
				return err
			}
			qty := delivered[batchID]
			if batch.RemainingQuantity.LessThan(qty) {
				return shared.NewConflictError(
					"Stock from batch %s has already been dispatched. Remaining: %s, delivered: %s",
					batch.BatchNumber, batch.RemainingQuantity.String(), qty.String())
			}
			if _, err := s.ledger.PostToBatch(ctx, repos, batch, PostRequest{
				BatchID:   batch.ID,
				Type:      inventory.MovementTypeAdjustment,
				Quantity:  qty.Neg(),
				Reference: ref,
				Actor:     actor.UserID,
				Date:      time.Now(),
				Reason:    "delivery deleted",
			}, events); err != nil {
				return err
			}
		}
		return repos.Deliveries().Delete(ctx, delivery.ID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	events.Add(inventory.NewDeliveryDeletedEvent(delivery))
	events.PublishTo(ctx, s.eventPublisher)

	s.logger.Info("Delivery deleted",
		zap.String("delivery_id", delivery.ID.String()),
		zap.String("reversed_quantity", delivery.TotalQuantity().String()))
	return nil
}
