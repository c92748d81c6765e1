package router

import (
	"github.com/dairy/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

func inventoryRoutes(api *gin.RouterGroup, h *handler.InventoryHandler) {
	deliveries := api.Group("/deliveries")
	deliveries.POST("", h.ReceiveDelivery)
	deliveries.GET("", h.ListDeliveries)
	deliveries.GET("/:id", h.GetDelivery)
	deliveries.PATCH("/:id", h.UpdateDelivery)
	deliveries.DELETE("/:id", h.DeleteDelivery)

	batches := api.Group("/batches")
	batches.GET("", h.ListBatches)
	batches.GET("/:id", h.GetBatch)
	batches.GET("/:id/movements", h.BatchMovements)
	batches.GET("/:id/verify", h.VerifyBatch)

	movements := api.Group("/stock-movements")
	movements.POST("/adjustments", h.Adjust)
	movements.GET("/daily", h.DailySummary)
	movements.GET("/products/:id", h.ProductMovements)
}

func truckLoadRoutes(api *gin.RouterGroup, h *handler.TruckLoadHandler) {
	loads := api.Group("/truck-loads")
	loads.POST("", h.Create)
	loads.GET("", h.List)
	loads.GET("/:id", h.Get)
	loads.GET("/:id/summary", h.Summary)
	loads.POST("/:id/reconcile", h.Reconcile)
	loads.DELETE("/:id", h.Delete)
}

func saleRoutes(api *gin.RouterGroup, h *handler.SaleHandler) {
	sales := api.Group("/sales")
	sales.POST("", h.Create)
	sales.GET("", h.List)
	sales.GET("/:id", h.Get)
	sales.POST("/:id/payments", h.RecordPayment)
}

func allowanceRoutes(api *gin.RouterGroup, h *handler.AllowanceHandler) {
	allowances := api.Group("/allowances")
	allowances.POST("", h.Create)
	allowances.GET("", h.List)
	allowances.GET("/:id", h.Get)
	allowances.DELETE("/:id", h.Delete)
	allowances.POST("/:id/finalize", h.Finalize)
	allowances.POST("/:id/allocations", h.Allocate)
	allowances.PUT("/:id/allocations/:truck_id", h.UpdateAllocation)
}

func reconciliationRoutes(api *gin.RouterGroup, h *handler.ReconciliationHandler) {
	recons := api.Group("/reconciliations")
	recons.POST("", h.Start)
	recons.GET("", h.List)

	day := recons.Group("/:date")
	day.GET("", h.Get)
	day.GET("/archive", h.ArchiveURL)
	day.POST("/finalize", h.Finalize)
	day.POST("/trucks/:truck_id/verify", h.VerifyTruck)
}
