package handler

import (
	"time"

	appinv "github.com/dairy/backend/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// InventoryHandler serves deliveries, batches and stock movements
type InventoryHandler struct {
	BaseHandler
	deliveries *appinv.DeliveryService
	ledger     *appinv.LedgerService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(deliveries *appinv.DeliveryService, ledger *appinv.LedgerService) *InventoryHandler {
	return &InventoryHandler{
		deliveries: deliveries,
		ledger:     ledger,
	}
}

// ReceiveDelivery godoc
// @ID           receiveDelivery
// @Summary      Receive a delivery
// @Description  Records a supplier delivery, creating or topping up batches with delivery_in movements
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Param        request body appinv.ReceiveDeliveryRequest true "Delivery lines"
// @Success      201 {object} dto.Response{data=appinv.DeliveryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /deliveries [post]
func (h *InventoryHandler) ReceiveDelivery(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appinv.ReceiveDeliveryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	delivery, err := h.deliveries.Receive(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, delivery)
}

// ListDeliveries godoc
// @ID           listDeliveries
// @Summary      List deliveries
// @Description  Lists deliveries with their lines, newest delivery date first
// @Tags         deliveries
// @Produce      json
// @Param        from query string false "First delivery date (YYYY-MM-DD)"
// @Param        to query string false "Last delivery date (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(50) maximum(100)
// @Success      200 {object} dto.Response{data=[]appinv.DeliveryResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /deliveries [get]
func (h *InventoryHandler) ListDeliveries(c *gin.Context) {
	var filter appinv.DeliveryListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	deliveries, total, err := h.deliveries.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, deliveries, total, filter.Page, filter.PageSize)
}

// GetDelivery godoc
// @ID           getDelivery
// @Summary      Get a delivery
// @Tags         deliveries
// @Produce      json
// @Param        id path string true "Delivery ID" format(uuid)
// @Success      200 {object} dto.Response{data=appinv.DeliveryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /deliveries/{id} [get]
func (h *InventoryHandler) GetDelivery(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	delivery, err := h.deliveries.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, delivery)
}

// UpdateDelivery godoc
// @ID           updateDelivery
// @Summary      Update a delivery
// @Description  Changes the supplier name or notes. Quantities are corrected by deleting the delivery.
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Param        id path string true "Delivery ID" format(uuid)
// @Param        request body appinv.UpdateDeliveryRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=appinv.DeliveryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /deliveries/{id} [patch]
func (h *InventoryHandler) UpdateDelivery(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appinv.UpdateDeliveryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	delivery, err := h.deliveries.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, delivery)
}

// DeleteDelivery godoc
// @ID           deleteDelivery
// @Summary      Delete a delivery
// @Description  Reverses the delivery with compensating adjustments. Refused once its batches were sold from or dispatched.
// @Tags         deliveries
// @Param        id path string true "Delivery ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /deliveries/{id} [delete]
func (h *InventoryHandler) DeleteDelivery(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.deliveries.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListBatches godoc
// @ID           listBatches
// @Summary      List batches
// @Description  Lists batches with their derived status
// @Tags         batches
// @Produce      json
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        status query string false "Batch status" Enums(available, empty, expired)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(50) maximum(100)
// @Success      200 {object} dto.Response{data=[]appinv.BatchResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /batches [get]
func (h *InventoryHandler) ListBatches(c *gin.Context) {
	var filter appinv.BatchListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	batches, total, err := h.ledger.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, batches, total, filter.Page, filter.PageSize)
}

// GetBatch godoc
// @ID           getBatch
// @Summary      Get a batch
// @Tags         batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=appinv.BatchResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /batches/{id} [get]
func (h *InventoryHandler) GetBatch(c *gin.Context) {
	batchID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.ledger.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// BatchMovements godoc
// @ID           getBatchMovements
// @Summary      Get a batch ledger
// @Description  Returns a batch with its movements and running balance
// @Tags         batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=appinv.BatchLedgerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /batches/{id}/movements [get]
func (h *InventoryHandler) BatchMovements(c *gin.Context) {
	batchID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	ledger, err := h.ledger.BatchLedger(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ledger)
}

// VerifyBatch godoc
// @ID           verifyBatch
// @Summary      Verify a batch ledger
// @Description  Replays a batch's movements against its recorded quantities
// @Tags         batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=appinv.LedgerCheckResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /batches/{id}/verify [get]
func (h *InventoryHandler) VerifyBatch(c *gin.Context) {
	batchID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	check, err := h.ledger.VerifyBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

// Adjust godoc
// @ID           adjustStock
// @Summary      Adjust stock
// @Description  Posts a manual adjustment or an expired_out write-off against a batch
// @Tags         stock-movements
// @Accept       json
// @Produce      json
// @Param        request body appinv.AdjustStockRequest true "Adjustment"
// @Success      201 {object} dto.Response{data=appinv.MovementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /stock-movements/adjustments [post]
func (h *InventoryHandler) Adjust(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appinv.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	movement, err := h.ledger.Adjust(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

type dailySummaryQuery struct {
	Date *time.Time `form:"date" time_format:"2006-01-02"`
}

// DailySummary godoc
// @ID           getDailyMovementSummary
// @Summary      Daily movement summary
// @Description  Totals movements per product and type for a date, today by default
// @Tags         stock-movements
// @Produce      json
// @Param        date query string false "Movement date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=appinv.DailySummaryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /stock-movements/daily [get]
func (h *InventoryHandler) DailySummary(c *gin.Context) {
	var q dailySummaryQuery
	if !h.bindQuery(c, &q) {
		return
	}
	date := time.Now()
	if q.Date != nil {
		date = *q.Date
	}

	summary, err := h.ledger.DailySummary(c.Request.Context(), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// ProductMovements godoc
// @ID           listProductMovements
// @Summary      List a product's movements
// @Description  Lists a product's movements across all its batches, newest first
// @Tags         stock-movements
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        from query string false "First movement date (YYYY-MM-DD)"
// @Param        to query string false "Last movement date (YYYY-MM-DD)"
// @Param        type query string false "Movement type"
// @Param        limit query int false "Maximum rows" maximum(1000)
// @Success      200 {object} dto.Response{data=[]appinv.MovementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /stock-movements/products/{id} [get]
func (h *InventoryHandler) ProductMovements(c *gin.Context) {
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var filter appinv.MovementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	movements, err := h.ledger.ProductMovements(c.Request.Context(), productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movements)
}
