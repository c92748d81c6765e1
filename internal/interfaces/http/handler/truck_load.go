package handler

import (
	apptruck "github.com/dairy/backend/internal/application/truckload"
	"github.com/gin-gonic/gin"
)

// TruckLoadHandler serves the truck load lifecycle
type TruckLoadHandler struct {
	BaseHandler
	service *apptruck.Service
}

// NewTruckLoadHandler creates a new TruckLoadHandler
func NewTruckLoadHandler(service *apptruck.Service) *TruckLoadHandler {
	return &TruckLoadHandler{service: service}
}

// Create godoc
// @ID           createTruckLoad
// @Summary      Load a truck
// @Description  Loads a truck, allocating stock FIFO or from named batches
// @Tags         truck-loads
// @Accept       json
// @Produce      json
// @Param        request body apptruck.CreateTruckLoadRequest true "Truck load"
// @Success      201 {object} dto.Response{data=apptruck.TruckLoadResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /truck-loads [post]
func (h *TruckLoadHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req apptruck.CreateTruckLoadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	load, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, load)
}

// List godoc
// @ID           listTruckLoads
// @Summary      List truck loads
// @Tags         truck-loads
// @Produce      json
// @Param        truck_id query string false "Truck ID" format(uuid)
// @Param        status query string false "Load status" Enums(loaded, reconciled)
// @Param        from query string false "First load date (YYYY-MM-DD)"
// @Param        to query string false "Last load date (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(50) maximum(100)
// @Success      200 {object} dto.Response{data=[]apptruck.TruckLoadResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /truck-loads [get]
func (h *TruckLoadHandler) List(c *gin.Context) {
	var filter apptruck.TruckLoadListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	loads, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, loads, total, filter.Page, filter.PageSize)
}

// Get godoc
// @ID           getTruckLoad
// @Summary      Get a truck load
// @Tags         truck-loads
// @Produce      json
// @Param        id path string true "Truck load ID" format(uuid)
// @Success      200 {object} dto.Response{data=apptruck.TruckLoadResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /truck-loads/{id} [get]
func (h *TruckLoadHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	load, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, load)
}

// Summary godoc
// @ID           getTruckLoadSummary
// @Summary      Summarize a truck load
// @Description  Returns per-product loaded, sold, returned and lost totals
// @Tags         truck-loads
// @Produce      json
// @Param        id path string true "Truck load ID" format(uuid)
// @Success      200 {object} dto.Response{data=apptruck.TruckLoadSummaryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /truck-loads/{id}/summary [get]
func (h *TruckLoadHandler) Summary(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Reconcile godoc
// @ID           reconcileTruckLoad
// @Summary      Reconcile a truck load
// @Description  Records returned quantities and closes the load
// @Tags         truck-loads
// @Accept       json
// @Produce      json
// @Param        id path string true "Truck load ID" format(uuid)
// @Param        request body apptruck.ReconcileTruckLoadRequest true "Returned quantities"
// @Success      200 {object} dto.Response{data=apptruck.TruckLoadResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /truck-loads/{id}/reconcile [post]
func (h *TruckLoadHandler) Reconcile(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req apptruck.ReconcileTruckLoadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	load, err := h.service.Reconcile(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, load)
}

// Delete godoc
// @ID           deleteTruckLoad
// @Summary      Delete a truck load
// @Description  Removes an unsold load and restores its stock. Refused once the day's reconciliation has started.
// @Tags         truck-loads
// @Param        id path string true "Truck load ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /truck-loads/{id} [delete]
func (h *TruckLoadHandler) Delete(c *gin.Context) {
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
