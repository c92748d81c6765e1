package handler

import (
	appsales "github.com/dairy/backend/internal/application/sales"
	"github.com/gin-gonic/gin"
)

// SaleHandler serves shop sales and payments
type SaleHandler struct {
	BaseHandler
	service *appsales.Service
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(service *appsales.Service) *SaleHandler {
	return &SaleHandler{service: service}
}

// Create godoc
// @ID           createSale
// @Summary      Record a sale
// @Description  Records a sale to a shop, from a truck load or straight from depot stock
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body appsales.CreateSaleRequest true "Sale"
// @Success      201 {object} dto.Response{data=appsales.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appsales.CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// List godoc
// @ID           listSales
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Param        driver_id query string false "Seller ID" format(uuid)
// @Param        shop_id query string false "Shop ID" format(uuid)
// @Param        truck_id query string false "Truck ID" format(uuid)
// @Param        payment_status query string false "Payment status" Enums(paid, pending)
// @Param        sale_date query string false "Single sale date (YYYY-MM-DD), overrides from and to"
// @Param        from query string false "First sale date (YYYY-MM-DD)"
// @Param        to query string false "Last sale date (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(50) maximum(100)
// @Success      200 {object} dto.Response{data=[]appsales.SaleResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	var filter appsales.SaleListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	sales, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, sales, total, filter.Page, filter.PageSize)
}

// Get godoc
// @ID           getSale
// @Summary      Get a sale
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} dto.Response{data=appsales.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /sales/{id} [get]
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// RecordPayment godoc
// @ID           recordSalePayment
// @Summary      Record a payment
// @Description  Adds a payment against the sale's outstanding amount
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body appsales.RecordPaymentRequest true "Payment"
// @Success      200 {object} dto.Response{data=appsales.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     UserID
// @Router       /sales/{id}/payments [post]
func (h *SaleHandler) RecordPayment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appsales.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.service.RecordPayment(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}
