package shared

import (
	"context"

	"github.com/dairy/backend/internal/domain/allowance"
	"github.com/dairy/backend/internal/domain/catalog"
	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/reconciliation"
	"github.com/dairy/backend/internal/domain/sales"
	"github.com/dairy/backend/internal/domain/truckload"
)

// TransactionScope provides transactional access to repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to every repository. Inside Execute all of them
// share the same underlying transaction; outside it they read through the
// plain connection pool.
type Repositories interface {
	Batches() inventory.BatchRepository
	Movements() inventory.MovementRepository
	Deliveries() inventory.DeliveryRepository
	TruckLoads() truckload.Repository
	Sales() sales.Repository
	Allowances() allowance.Repository
	Reconciliations() reconciliation.Repository
	Products() catalog.ProductRepository
	Trucks() catalog.TruckRepository
	Shops() catalog.ShopRepository
}
