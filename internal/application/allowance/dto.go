package allowance

import (
	"time"

	"github.com/dairy/backend/internal/domain/allowance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAllowanceRequest opens the transport budget for a date
type CreateAllowanceRequest struct {
	AllowanceDate  time.Time       `json:"allowance_date" binding:"required"`
	TotalAllowance decimal.Decimal `json:"total_allowance" binding:"decimal_positive"`
	Notes          string          `json:"notes" binding:"max=1000"`
}

// TruckAllocationRequest is one truck's requested share
type TruckAllocationRequest struct {
	TruckID         uuid.UUID        `json:"truck_id" binding:"required"`
	Amount          decimal.Decimal  `json:"amount" binding:"decimal_positive"`
	DistanceCovered *decimal.Decimal `json:"distance_covered"`
	Notes           string           `json:"notes" binding:"max=500"`
}

// AllocateRequest distributes a budget over trucks
type AllocateRequest struct {
	Allocations []TruckAllocationRequest `json:"allocations" binding:"required,min=1,dive"`
}

// UpdateAllocationRequest replaces one truck's share
type UpdateAllocationRequest struct {
	Amount          decimal.Decimal  `json:"amount" binding:"decimal_positive"`
	DistanceCovered *decimal.Decimal `json:"distance_covered"`
	Notes           string           `json:"notes" binding:"max=500"`
}

// AllowanceListFilter represents filter options for allowance listings
type AllowanceListFilter struct {
	Status   string     `form:"status" binding:"omitempty,oneof=pending allocated finalized"`
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TruckAllowanceResponse represents a truck allocation in API responses
type TruckAllowanceResponse struct {
	ID              uuid.UUID        `json:"id"`
	TruckID         uuid.UUID        `json:"truck_id"`
	Amount          decimal.Decimal  `json:"amount"`
	DistanceCovered *decimal.Decimal `json:"distance_covered,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// AllowanceResponse represents a transport allowance in API responses
type AllowanceResponse struct {
	ID              uuid.UUID                `json:"id"`
	AllowanceDate   time.Time                `json:"allowance_date"`
	TotalAllowance  decimal.Decimal          `json:"total_allowance"`
	AllocatedAmount decimal.Decimal          `json:"allocated_amount"`
	RemainingAmount decimal.Decimal          `json:"remaining_amount"`
	Status          allowance.Status         `json:"status"`
	Notes           string                   `json:"notes,omitempty"`
	CreatedBy       uuid.UUID                `json:"created_by"`
	Allocations     []TruckAllowanceResponse `json:"allocations"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// ToAllowanceResponse converts a domain allowance
func ToAllowanceResponse(a *allowance.TransportAllowance) AllowanceResponse {
	allocs := make([]TruckAllowanceResponse, 0, len(a.Allocations))
	for _, alloc := range a.Allocations {
		allocs = append(allocs, TruckAllowanceResponse{
			ID:              alloc.ID,
			TruckID:         alloc.TruckID,
			Amount:          alloc.Amount,
			DistanceCovered: alloc.DistanceCovered,
			Notes:           alloc.Notes,
			CreatedAt:       alloc.CreatedAt,
		})
	}
	return AllowanceResponse{
		ID:              a.ID,
		AllowanceDate:   a.AllowanceDate,
		TotalAllowance:  a.TotalAllowance,
		AllocatedAmount: a.AllocatedAmount(),
		RemainingAmount: a.RemainingAmount(),
		Status:          a.Status,
		Notes:           a.Notes,
		CreatedBy:       a.CreatedBy,
		Allocations:     allocs,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
