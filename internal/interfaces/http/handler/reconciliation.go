package handler

import (
	apprecon "github.com/dairy/backend/internal/application/reconciliation"
	"github.com/gin-gonic/gin"
)

// ReconciliationHandler serves the daily reconciliation workflow.
// Reconciliations are addressed by calendar date, e.g. /reconciliations/2026-03-14.
type ReconciliationHandler struct {
	BaseHandler
	service *apprecon.Service
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(service *apprecon.Service) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

// Start godoc
// @ID           startReconciliation
// @Summary      Start a reconciliation
// @Description  Snapshots the day's truck loads and opens the reconciliation
// @Tags         reconciliations
// @Accept       json
// @Produce      json
// @Param        request body apprecon.StartReconciliationRequest true "Reconciliation date"
// @Success      201 {object} dto.Response{data=apprecon.ReconciliationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /reconciliations [post]
func (h *ReconciliationHandler) Start(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req apprecon.StartReconciliationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	recon, err := h.service.Start(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, recon)
}

// List godoc
// @ID           listReconciliations
// @Summary      List reconciliations
// @Tags         reconciliations
// @Produce      json
// @Param        status query string false "Reconciliation status" Enums(in_progress, finalized)
// @Param        from query string false "First reconciliation date (YYYY-MM-DD)"
// @Param        to query string false "Last reconciliation date (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(50) maximum(100)
// @Success      200 {object} dto.Response{data=[]apprecon.ReconciliationResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /reconciliations [get]
func (h *ReconciliationHandler) List(c *gin.Context) {
	var filter apprecon.ReconciliationListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	recons, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, recons, total, filter.Page, filter.PageSize)
}

// Get godoc
// @ID           getReconciliation
// @Summary      Get a reconciliation report
// @Tags         reconciliations
// @Produce      json
// @Param        date path string true "Reconciliation date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=apprecon.ReconciliationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /reconciliations/{date} [get]
func (h *ReconciliationHandler) Get(c *gin.Context) {
	date, ok := h.dateParam(c, "date")
	if !ok {
		return
	}

	recon, err := h.service.Get(c.Request.Context(), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, recon)
}

// VerifyTruck godoc
// @ID           verifyReconciliationTruck
// @Summary      Verify a truck
// @Description  Records one truck's physical count of returned and discarded items
// @Tags         reconciliations
// @Accept       json
// @Produce      json
// @Param        date path string true "Reconciliation date (YYYY-MM-DD)"
// @Param        truck_id path string true "Truck ID" format(uuid)
// @Param        request body apprecon.VerifyTruckRequest true "Physical count"
// @Success      200 {object} dto.Response{data=apprecon.ReconciliationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /reconciliations/{date}/trucks/{truck_id}/verify [post]
func (h *ReconciliationHandler) VerifyTruck(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	date, ok := h.dateParam(c, "date")
	if !ok {
		return
	}
	truckID, ok := h.uuidParam(c, "truck_id")
	if !ok {
		return
	}
	var req apprecon.VerifyTruckRequest
	if !h.bindJSON(c, &req) {
		return
	}

	recon, err := h.service.Verify(c.Request.Context(), actor, date, truckID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, recon)
}

// Finalize godoc
// @ID           finalizeReconciliation
// @Summary      Finalize a reconciliation
// @Description  Restores verified returns to stock and closes the day
// @Tags         reconciliations
// @Produce      json
// @Param        date path string true "Reconciliation date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=apprecon.ReconciliationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /reconciliations/{date}/finalize [post]
func (h *ReconciliationHandler) Finalize(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	date, ok := h.dateParam(c, "date")
	if !ok {
		return
	}

	recon, err := h.service.Finalize(c.Request.Context(), actor, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, recon)
}

// ArchiveURL godoc
// @ID           getReconciliationArchive
// @Summary      Get the archived report
// @Description  Returns a presigned download link for the archived report
// @Tags         reconciliations
// @Produce      json
// @Param        date path string true "Reconciliation date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=apprecon.ArchivedReportResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /reconciliations/{date}/archive [get]
func (h *ReconciliationHandler) ArchiveURL(c *gin.Context) {
	date, ok := h.dateParam(c, "date")
	if !ok {
		return
	}

	archived, err := h.service.ArchiveURL(c.Request.Context(), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, archived)
}
