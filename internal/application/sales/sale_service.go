// Package sales holds the shop sale use cases.
package sales

import (
	"context"
	"time"

	appinv "github.com/dairy/backend/internal/application/inventory"
	appshared "github.com/dairy/backend/internal/application/shared"
	"github.com/dairy/backend/internal/domain/catalog"
	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/sales"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/domain/truckload"
	"github.com/dairy/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service handles sale operations
type Service struct {
	scope          appshared.TransactionScope
	repos          appshared.Repositories
	allocator      *appinv.Allocator
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewService creates a new sale Service
func NewService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	allocator *appinv.Allocator,
	logger *zap.Logger,
) *Service {
	return &Service{
		scope:     scope,
		repos:     repos,
		allocator: allocator,
		logger:    logger,
		now:       time.Now,
	}
}

// SetEventPublisher sets the publisher that receives sale events after commit
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create records a sale. A truck sale consumes what is on the truck,
// oldest expiry first, and only raises quantity_sold: the stock already
// left the batches when the truck was loaded. A depot sale draws straight
// from the batches and posts sale_out.
func (s *Service) Create(ctx context.Context, actor appshared.Actor, req CreateSaleRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "create",
		telemetry.WithAttribute("shop_id", req.ShopID.String()),
		telemetry.WithAttribute("items_count", len(req.Items)))
	defer span.End()

	saleDate := s.now()
	if req.SaleDate != nil && !req.SaleDate.IsZero() {
		saleDate = *req.SaleDate
	}
	sale, err := sales.NewSale(req.ShopID, actor.UserID, saleDate, req.Notes)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		if _, err := repos.Shops().FindByID(ctx, req.ShopID); err != nil {
			return err
		}
		productIDs := make([]uuid.UUID, 0, len(req.Items))
		for _, item := range req.Items {
			productIDs = append(productIDs, item.ProductID)
		}
		products, err := repos.Products().FindByIDs(ctx, productIDs)
		if err != nil {
			return err
		}

		if req.TruckLoadID != nil {
			if err := s.sellFromTruck(ctx, repos, actor, sale, *req.TruckLoadID, req.Items, products, req.SaleDate == nil); err != nil {
				return err
			}
		} else {
			if err := actor.RequireManager(); err != nil {
				return err
			}
			if err := s.sellFromDepot(ctx, repos, actor, sale, req.Items, products); err != nil {
				return err
			}
		}
		if err := sale.SetInitialPayment(req.AmountPaid); err != nil {
			return err
		}
		return repos.Sales().Create(ctx, sale)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Sale rejected",
			zap.String("shop_id", req.ShopID.String()),
			zap.Error(err))
		return nil, err
	}
	events := &appshared.EventCollector{}
	events.Add(sales.NewSaleCreatedEvent(sale))
	events.PublishTo(ctx, s.eventPublisher)

	s.logger.Info("Sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.Bool("truck_sale", sale.IsTruckSale()),
		zap.String("total_amount", sale.TotalAmount.String()))
	resp := ToSaleResponse(sale)
	return &resp, nil
}

func (s *Service) sellFromTruck(
	ctx context.Context,
	repos appshared.Repositories,
	actor appshared.Actor,
	sale *sales.Sale,
	truckLoadID uuid.UUID,
	items []SaleItemRequest,
	products map[uuid.UUID]*catalog.Product,
	useLoadDate bool,
) error {
	load, err := repos.TruckLoads().FindByIDForUpdate(ctx, truckLoadID)
	if err != nil {
		return err
	}
	if !actor.IsManager() {
		truck, err := repos.Trucks().FindByID(ctx, load.TruckID)
		if err != nil {
			return err
		}
		if !truck.IsDrivenBy(actor.UserID) {
			return shared.NewForbiddenError("Drivers can only sell from their own truck")
		}
	}
	if load.Status != truckload.LoadStatusLoaded {
		return shared.NewConflictError("Truck load is already %s", load.Status)
	}
	sale.AttachTruckLoad(load.ID, load.TruckID)
	if useLoadDate {
		sale.SaleDate = load.LoadDate
	}

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return shared.NewNotFoundError("Product %s not found", item.ProductID)
		}
		available := load.AvailableForProduct(item.ProductID)
		if available.LessThan(item.Quantity) {
			return shared.NewInsufficientStockError(
				"Insufficient stock on truck for product. Available: %s, Requested: %s",
				available.String(), item.Quantity.String())
		}
		price := unitPrice(item, product)
		remaining := item.Quantity
		for _, tli := range load.ItemsForProduct(item.ProductID) {
			if !remaining.IsPositive() {
				break
			}
			take := decimal.Min(remaining, tli.Available())
			if err := tli.RecordSale(take); err != nil {
				return err
			}
			tliID := tli.ID
			if err := sale.AddItem(item.ProductID, tli.BatchID, &tliID, take, price, product.CommissionPerUnit); err != nil {
				return err
			}
			remaining = remaining.Sub(take)
		}
	}
	return repos.TruckLoads().Save(ctx, load)
}

func (s *Service) sellFromDepot(
	ctx context.Context,
	repos appshared.Repositories,
	actor appshared.Actor,
	sale *sales.Sale,
	items []SaleItemRequest,
	products map[uuid.UUID]*catalog.Product,
) error {
	out := appinv.Outbound{
		Type:      inventory.MovementTypeSaleOut,
		Reference: inventory.NewReference(inventory.ReferenceTypeSale, sale.ID),
		Actor:     actor.UserID,
		Date:      sale.SaleDate,
	}
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return shared.NewNotFoundError("Product %s not found", item.ProductID)
		}
		allocations, err := s.allocator.AllocateFIFO(ctx, repos, item.ProductID, item.Quantity, out, nil)
		if err != nil {
			return err
		}
		price := unitPrice(item, product)
		for _, alloc := range allocations {
			if err := sale.AddItem(item.ProductID, alloc.BatchID, nil, alloc.Quantity, price, product.CommissionPerUnit); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordPayment adds a payment against a sale's outstanding balance
func (s *Service) RecordPayment(ctx context.Context, actor appshared.Actor, saleID uuid.UUID, req RecordPaymentRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "record_payment",
		telemetry.WithAttribute("sale_id", saleID.String()))
	defer span.End()

	var sale *sales.Sale
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		sale, err = repos.Sales().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if !actor.IsManager() {
			if sale.TruckID == nil {
				return shared.NewForbiddenError("Only managers can collect payments for depot sales")
			}
			truck, err := repos.Trucks().FindByID(ctx, *sale.TruckID)
			if err != nil {
				return err
			}
			if !truck.IsDrivenBy(actor.UserID) {
				return shared.NewForbiddenError("Drivers can only collect payments for their own truck")
			}
		}
		if err := sale.RecordPayment(req.Amount); err != nil {
			return err
		}
		return repos.Sales().UpdatePayment(ctx, sale)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	events := &appshared.EventCollector{}
	events.Collect(sale)
	events.PublishTo(ctx, s.eventPublisher)

	s.logger.Info("Payment recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("payment_status", string(sale.PaymentStatus())))
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// Get returns a sale with its items
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*SaleResponse, error) {
	sale, err := s.repos.Sales().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// List returns a page of sales, optionally narrowed to one driver, shop,
// truck, payment status or date
func (s *Service) List(ctx context.Context, filter SaleListFilter) ([]SaleResponse, int64, error) {
	f := sales.Filter{
		Filter:        shared.DefaultFilter(),
		PaymentStatus: sales.PaymentStatus(filter.PaymentStatus),
		Dates:         shared.DateRange{From: filter.From, To: filter.To},
	}
	if filter.Date != nil {
		f.Dates = shared.DateRange{From: filter.Date, To: filter.Date}
	}
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	var err error
	if f.SoldBy, err = parseOptionalID(filter.DriverID, "driver"); err != nil {
		return nil, 0, err
	}
	if f.ShopID, err = parseOptionalID(filter.ShopID, "shop"); err != nil {
		return nil, 0, err
	}
	if f.TruckID, err = parseOptionalID(filter.TruckID, "truck"); err != nil {
		return nil, 0, err
	}

	list, total, err := s.repos.Sales().List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SaleResponse, 0, len(list))
	for i := range list {
		out = append(out, ToSaleResponse(&list[i]))
	}
	return out, total, nil
}

func parseOptionalID(raw, name string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.NewValidationError("Invalid %s ID", name)
	}
	return &id, nil
}

func unitPrice(item SaleItemRequest, product *catalog.Product) decimal.Decimal {
	if item.UnitPrice != nil {
		return *item.UnitPrice
	}
	return product.WholesalePrice
}
