package models

import (
	"time"

	"github.com/dairy/backend/internal/domain/reconciliation"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailyReconciliationModel is the persistence model for the
// DailyReconciliation aggregate root. A date has at most one reconciliation.
type DailyReconciliationModel struct {
	AggregateModel
	ReconciliationDate      time.Time       `gorm:"type:date;not null;uniqueIndex"`
	Status                  string          `gorm:"type:varchar(20);not null;check:chk_daily_reconciliations_status,status IN ('in_progress','finalized')"`
	TrucksOut               int             `gorm:"not null"`
	TrucksVerified          int             `gorm:"not null;check:chk_daily_reconciliations_verified,trucks_verified >= 0 AND trucks_verified <= trucks_out"`
	TotalItemsLoaded        decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	TotalItemsSold          decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	TotalItemsReturned      decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	TotalItemsDiscarded     decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	TotalSalesAmount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalCommissionEarned   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalAllowanceAllocated decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPaymentsCollected  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPendingPayments    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	NetProfit               decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StartedBy               uuid.UUID       `gorm:"type:uuid;not null"`
	StartedAt               time.Time       `gorm:"not null"`
	FinalizedBy             *uuid.UUID      `gorm:"type:uuid"`
	FinalizedAt             *time.Time
	Notes                   string                    `gorm:"type:text"`
	Items                   []ReconciliationItemModel `gorm:"foreignKey:ReconciliationID;references:ID"`
}

// TableName returns the table name for GORM
func (DailyReconciliationModel) TableName() string {
	return "daily_reconciliations"
}

// ReconciliationItemModel is one truck's row of a reconciliation.
type ReconciliationItemModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReconciliationID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_reconciliation_items_truck,priority:1"`
	TruckID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_reconciliation_items_truck,priority:2"`
	TruckLoadID       uuid.UUID       `gorm:"type:uuid;not null"`
	ItemsLoaded       decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	ItemsSold         decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	ItemsReturned     decimal.Decimal `gorm:"type:decimal(12,3);not null;check:chk_reconciliation_items_returned,items_returned >= 0"`
	ItemsDiscarded    decimal.Decimal `gorm:"type:decimal(12,3);not null;check:chk_reconciliation_items_discarded,items_discarded >= 0"`
	SalesAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CommissionEarned  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	AllowanceReceived decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentsCollected decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PendingPayments   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IsVerified        bool            `gorm:"not null"`
	HasDiscrepancy    bool            `gorm:"not null"`
	DiscrepancyNotes  string          `gorm:"type:text"`
	VerifiedBy        *uuid.UUID      `gorm:"type:uuid"`
	VerifiedAt        *time.Time
	Lines             []ReconciliationLineModel `gorm:"foreignKey:ReconciliationItemID;references:ID"`
}

// TableName returns the table name for GORM
func (ReconciliationItemModel) TableName() string {
	return "reconciliation_items"
}

// ReconciliationLineModel is one product line reported at verification.
type ReconciliationLineModel struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReconciliationItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID            uuid.UUID       `gorm:"type:uuid;not null"`
	Kind                 string          `gorm:"type:varchar(20);not null;check:chk_reconciliation_lines_kind,kind IN ('returned','discarded')"`
	Quantity             decimal.Decimal `gorm:"type:decimal(12,3);not null;check:chk_reconciliation_lines_quantity,quantity >= 0"`
	Reason               string          `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (ReconciliationLineModel) TableName() string {
	return "reconciliation_lines"
}

// ToDomain converts the persistence model to a domain DailyReconciliation.
func (m *DailyReconciliationModel) ToDomain() *reconciliation.DailyReconciliation {
	r := &reconciliation.DailyReconciliation{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		ReconciliationDate: shared.TruncateDate(m.ReconciliationDate),
		Status:             reconciliation.Status(m.Status),
		TrucksOut:          m.TrucksOut,
		TrucksVerified:     m.TrucksVerified,
		Totals: reconciliation.Totals{
			ItemsLoaded:        m.TotalItemsLoaded,
			ItemsSold:          m.TotalItemsSold,
			ItemsReturned:      m.TotalItemsReturned,
			ItemsDiscarded:     m.TotalItemsDiscarded,
			SalesAmount:        m.TotalSalesAmount,
			CommissionEarned:   m.TotalCommissionEarned,
			AllowanceAllocated: m.TotalAllowanceAllocated,
			PaymentsCollected:  m.TotalPaymentsCollected,
			PendingPayments:    m.TotalPendingPayments,
		},
		NetProfit:   m.NetProfit,
		StartedBy:   m.StartedBy,
		StartedAt:   m.StartedAt,
		FinalizedBy: m.FinalizedBy,
		FinalizedAt: m.FinalizedAt,
		Notes:       m.Notes,
		Items:       make([]reconciliation.ReconciliationItem, len(m.Items)),
	}
	for i, item := range m.Items {
		lines := make([]reconciliation.VerifiedLine, len(item.Lines))
		for j, l := range item.Lines {
			lines[j] = reconciliation.VerifiedLine{
				ID:        l.ID,
				ProductID: l.ProductID,
				Kind:      reconciliation.LineKind(l.Kind),
				Quantity:  l.Quantity,
				Reason:    reconciliation.DiscardReason(l.Reason),
			}
		}
		r.Items[i] = reconciliation.ReconciliationItem{
			ID:                item.ID,
			ReconciliationID:  item.ReconciliationID,
			TruckID:           item.TruckID,
			TruckLoadID:       item.TruckLoadID,
			ItemsLoaded:       item.ItemsLoaded,
			ItemsSold:         item.ItemsSold,
			ItemsReturned:     item.ItemsReturned,
			ItemsDiscarded:    item.ItemsDiscarded,
			SalesAmount:       item.SalesAmount,
			CommissionEarned:  item.CommissionEarned,
			AllowanceReceived: item.AllowanceReceived,
			PaymentsCollected: item.PaymentsCollected,
			PendingPayments:   item.PendingPayments,
			IsVerified:        item.IsVerified,
			HasDiscrepancy:    item.HasDiscrepancy,
			DiscrepancyNotes:  item.DiscrepancyNotes,
			VerifiedBy:        item.VerifiedBy,
			VerifiedAt:        item.VerifiedAt,
			Lines:             lines,
		}
	}
	return r
}

// DailyReconciliationModelFromDomain creates a new persistence model from a domain DailyReconciliation.
func DailyReconciliationModelFromDomain(r *reconciliation.DailyReconciliation) *DailyReconciliationModel {
	m := &DailyReconciliationModel{
		ReconciliationDate:      r.ReconciliationDate,
		Status:                  string(r.Status),
		TrucksOut:               r.TrucksOut,
		TrucksVerified:          r.TrucksVerified,
		TotalItemsLoaded:        r.Totals.ItemsLoaded,
		TotalItemsSold:          r.Totals.ItemsSold,
		TotalItemsReturned:      r.Totals.ItemsReturned,
		TotalItemsDiscarded:     r.Totals.ItemsDiscarded,
		TotalSalesAmount:        r.Totals.SalesAmount,
		TotalCommissionEarned:   r.Totals.CommissionEarned,
		TotalAllowanceAllocated: r.Totals.AllowanceAllocated,
		TotalPaymentsCollected:  r.Totals.PaymentsCollected,
		TotalPendingPayments:    r.Totals.PendingPayments,
		NetProfit:               r.NetProfit,
		StartedBy:               r.StartedBy,
		StartedAt:               r.StartedAt,
		FinalizedBy:             r.FinalizedBy,
		FinalizedAt:             r.FinalizedAt,
		Notes:                   r.Notes,
		Items:                   make([]ReconciliationItemModel, len(r.Items)),
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	for i, item := range r.Items {
		lines := make([]ReconciliationLineModel, len(item.Lines))
		for j, l := range item.Lines {
			lines[j] = ReconciliationLineModel{
				ID:                   l.ID,
				ReconciliationItemID: item.ID,
				ProductID:            l.ProductID,
				Kind:                 string(l.Kind),
				Quantity:             l.Quantity,
				Reason:               string(l.Reason),
			}
		}
		m.Items[i] = ReconciliationItemModel{
			ID:                item.ID,
			ReconciliationID:  r.ID,
			TruckID:           item.TruckID,
			TruckLoadID:       item.TruckLoadID,
			ItemsLoaded:       item.ItemsLoaded,
			ItemsSold:         item.ItemsSold,
			ItemsReturned:     item.ItemsReturned,
			ItemsDiscarded:    item.ItemsDiscarded,
			SalesAmount:       item.SalesAmount,
			CommissionEarned:  item.CommissionEarned,
			AllowanceReceived: item.AllowanceReceived,
			PaymentsCollected: item.PaymentsCollected,
			PendingPayments:   item.PendingPayments,
			IsVerified:        item.IsVerified,
			HasDiscrepancy:    item.HasDiscrepancy,
			DiscrepancyNotes:  item.DiscrepancyNotes,
			VerifiedBy:        item.VerifiedBy,
			VerifiedAt:        item.VerifiedAt,
			Lines:             lines,
		}
	}
	return m
}
