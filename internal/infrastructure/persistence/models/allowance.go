package models

import (
	"time"

	"github.com/dairy/backend/internal/domain/allowance"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransportAllowanceModel is the persistence model for the TransportAllowance
// aggregate root. A date has at most one allowance.
type TransportAllowanceModel struct {
	AggregateModel
	AllowanceDate  time.Time             `gorm:"type:date;not null;uniqueIndex"`
	TotalAllowance decimal.Decimal       `gorm:"type:decimal(12,2);not null;check:chk_transport_allowances_total,total_allowance > 0"`
	Status         string                `gorm:"type:varchar(20);not null;check:chk_transport_allowances_status,status IN ('pending','allocated','finalized')"`
	Notes          string                `gorm:"type:text"`
	CreatedBy      uuid.UUID             `gorm:"type:uuid;not null"`
	Allocations    []TruckAllowanceModel `gorm:"foreignKey:TransportAllowanceID;references:ID"`
}

// TableName returns the table name for GORM
func (TransportAllowanceModel) TableName() string {
	return "transport_allowances"
}

// TruckAllowanceModel is one truck's share of an allowance.
type TruckAllowanceModel struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey"`
	TransportAllowanceID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_truck_allowances_truck,priority:1"`
	TruckID              uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_truck_allowances_truck,priority:2"`
	Amount               decimal.Decimal  `gorm:"type:decimal(12,2);not null;check:chk_truck_allowances_amount,amount > 0"`
	DistanceCovered      *decimal.Decimal `gorm:"type:decimal(10,2)"`
	Notes                string           `gorm:"type:text"`
	CreatedAt            time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TruckAllowanceModel) TableName() string {
	return "truck_allowances"
}

// ToDomain converts the persistence model to a domain TransportAllowance.
func (m *TransportAllowanceModel) ToDomain() *allowance.TransportAllowance {
	a := &allowance.TransportAllowance{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		AllowanceDate:     shared.TruncateDate(m.AllowanceDate),
		TotalAllowance:    m.TotalAllowance,
		Status:            allowance.Status(m.Status),
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
		Allocations:       make([]allowance.TruckAllowance, len(m.Allocations)),
	}
	for i, alloc := range m.Allocations {
		a.Allocations[i] = allowance.TruckAllowance{
			ID:                   alloc.ID,
			TransportAllowanceID: alloc.TransportAllowanceID,
			TruckID:              alloc.TruckID,
			Amount:               alloc.Amount,
			DistanceCovered:      alloc.DistanceCovered,
			Notes:                alloc.Notes,
			CreatedAt:            alloc.CreatedAt,
		}
	}
	return a
}

// TransportAllowanceModelFromDomain creates a new persistence model from a domain TransportAllowance.
func TransportAllowanceModelFromDomain(a *allowance.TransportAllowance) *TransportAllowanceModel {
	m := &TransportAllowanceModel{
		AllowanceDate:  a.AllowanceDate,
		TotalAllowance: a.TotalAllowance,
		Status:         string(a.Status),
		Notes:          a.Notes,
		CreatedBy:      a.CreatedBy,
		Allocations:    make([]TruckAllowanceModel, len(a.Allocations)),
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	for i, alloc := range a.Allocations {
		m.Allocations[i] = TruckAllowanceModel{
			ID:                   alloc.ID,
			TransportAllowanceID: a.ID,
			TruckID:              alloc.TruckID,
			Amount:               alloc.Amount,
			DistanceCovered:      alloc.DistanceCovered,
			Notes:                alloc.Notes,
			CreatedAt:            alloc.CreatedAt,
		}
	}
	return m
}
