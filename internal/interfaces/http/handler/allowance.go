package handler

import (
	appallowance "github.com/dairy/backend/internal/application/allowance"
	"github.com/gin-gonic/gin"
)

// AllowanceHandler serves transport allowances and their truck allocations
type AllowanceHandler struct {
	BaseHandler
	service *appallowance.Service
}

// NewAllowanceHandler creates a new AllowanceHandler
func NewAllowanceHandler(service *appallowance.Service) *AllowanceHandler {
	return &AllowanceHandler{service: service}
}

// Create godoc
// @ID           createAllowance
// @Summary      Create an allowance
// @Description  Opens a pending transport allowance for a date
// @Tags         allowances
// @Accept       json
// @Produce      json
// @Param        request body appallowance.CreateAllowanceRequest true "Allowance"
// @Success      201 {object} dto.Response{data=appallowance.AllowanceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /allowances [post]
func (h *AllowanceHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appallowance.CreateAllowanceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	allowance, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, allowance)
}

// List godoc
// @ID           listAllowances
// @Summary      List allowances
// @Tags         allowances
// @Produce      json
// @Param        status query string false "Allowance status" Enums(pending, allocated, finalized)
// @Param        from query string false "First allowance date (YYYY-MM-DD)"
// @Param        to query string false "Last allowance date (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(50) maximum(100)
// @Success      200 {object} dto.Response{data=[]appallowance.AllowanceResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /allowances [get]
func (h *AllowanceHandler) List(c *gin.Context) {
	var filter appallowance.AllowanceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	allowances, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, allowances, total, filter.Page, filter.PageSize)
}

// Get godoc
// @ID           getAllowance
// @Summary      Get an allowance
// @Description  Returns one allowance with its truck allocations
// @Tags         allowances
// @Produce      json
// @Param        id path string true "Allowance ID" format(uuid)
// @Success      200 {object} dto.Response{data=appallowance.AllowanceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /allowances/{id} [get]
func (h *AllowanceHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	allowance, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, allowance)
}

// Allocate godoc
// @ID           allocateAllowance
// @Summary      Allocate an allowance
// @Description  Splits the allowance across trucks
// @Tags         allowances
// @Accept       json
// @Produce      json
// @Param        id path string true "Allowance ID" format(uuid)
// @Param        request body appallowance.AllocateRequest true "Allocations"
// @Success      200 {object} dto.Response{data=appallowance.AllowanceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /allowances/{id}/allocations [post]
func (h *AllowanceHandler) Allocate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appallowance.AllocateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	allowance, err := h.service.Allocate(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, allowance)
}

// UpdateAllocation godoc
// @ID           updateAllowanceAllocation
// @Summary      Update a truck allocation
// @Description  Changes one truck's share of the allowance
// @Tags         allowances
// @Accept       json
// @Produce      json
// @Param        id path string true "Allowance ID" format(uuid)
// @Param        truck_id path string true "Truck ID" format(uuid)
// @Param        request body appallowance.UpdateAllocationRequest true "Allocation"
// @Success      200 {object} dto.Response{data=appallowance.AllowanceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /allowances/{id}/allocations/{truck_id} [put]
func (h *AllowanceHandler) UpdateAllocation(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	truckID, ok := h.uuidParam(c, "truck_id")
	if !ok {
		return
	}
	var req appallowance.UpdateAllocationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	allowance, err := h.service.UpdateAllocation(c.Request.Context(), actor, id, truckID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, allowance)
}

// Finalize godoc
// @ID           finalizeAllowance
// @Summary      Finalize an allowance
// @Description  Locks the allowance against further changes
// @Tags         allowances
// @Produce      json
// @Param        id path string true "Allowance ID" format(uuid)
// @Success      200 {object} dto.Response{data=appallowance.AllowanceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /allowances/{id}/finalize [post]
func (h *AllowanceHandler) Finalize(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	allowance, err := h.service.Finalize(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, allowance)
}

// Delete godoc
// @ID           deleteAllowance
// @Summary      Delete an allowance
// @Description  Removes a pending allowance
// @Tags         allowances
// @Param        id path string true "Allowance ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /allowances/{id} [delete]
func (h *AllowanceHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
