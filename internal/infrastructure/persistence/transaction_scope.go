package persistence

import (
	"context"

	appshared "github.com/dairy/backend/internal/application/shared"
	"github.com/dairy/backend/internal/domain/allowance"
	"github.com/dairy/backend/internal/domain/catalog"
	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/reconciliation"
	"github.com/dairy/backend/internal/domain/sales"
	"github.com/dairy/backend/internal/domain/truckload"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appshared.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// gormRepositories binds every repository to one *gorm.DB, either the pool
// or an open transaction.
type gormRepositories struct {
	db *gorm.DB
}

// NewRepositories returns repositories reading and writing through db
func NewRepositories(db *gorm.DB) appshared.Repositories {
	return &gormRepositories{db: db}
}

func (r *gormRepositories) Batches() inventory.BatchRepository {
	return NewGormBatchRepository(r.db)
}

func (r *gormRepositories) Movements() inventory.MovementRepository {
	return NewGormMovementRepository(r.db)
}

func (r *gormRepositories) Deliveries() inventory.DeliveryRepository {
	return NewGormDeliveryRepository(r.db)
}

func (r *gormRepositories) TruckLoads() truckload.Repository {
	return NewGormTruckLoadRepository(r.db)
}

func (r *gormRepositories) Sales() sales.Repository {
	return NewGormSaleRepository(r.db)
}

func (r *gormRepositories) Allowances() allowance.Repository {
	return NewGormAllowanceRepository(r.db)
}

func (r *gormRepositories) Reconciliations() reconciliation.Repository {
	return NewGormReconciliationRepository(r.db)
}

func (r *gormRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.db)
}

func (r *gormRepositories) Trucks() catalog.TruckRepository {
	return NewGormTruckRepository(r.db)
}

func (r *gormRepositories) Shops() catalog.ShopRepository {
	return NewGormShopRepository(r.db)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appshared.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormRepositories implements Repositories
var _ appshared.Repositories = (*gormRepositories)(nil)
