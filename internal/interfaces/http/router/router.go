// Package router mounts the HTTP handlers on a gin engine.
package router

import (
	"github.com/dairy/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// APIPrefix is the path every business route lives under
const APIPrefix = "/api/v1"

// Handlers bundles the handlers mounted under APIPrefix
type Handlers struct {
	Inventory      *handler.InventoryHandler
	TruckLoad      *handler.TruckLoadHandler
	Sale           *handler.SaleHandler
	Allowance      *handler.AllowanceHandler
	Reconciliation *handler.ReconciliationHandler
}

// Mount registers the API on engine. mw runs for API routes only, so
// engine-level routes such as /health stay reachable without caller headers.
func Mount(engine *gin.Engine, h Handlers, mw ...gin.HandlerFunc) *gin.RouterGroup {
	api := engine.Group(APIPrefix, mw...)
	inventoryRoutes(api, h.Inventory)
	truckLoadRoutes(api, h.TruckLoad)
	saleRoutes(api, h.Sale)
	allowanceRoutes(api, h.Allowance)
	reconciliationRoutes(api, h.Reconciliation)
	return api
}
