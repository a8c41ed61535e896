package handler

import (
	"go-pos-orders/internal/middleware"
	"go-pos-orders/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything RegisterRoutes mounts
type Handlers struct {
	Orders    *OrderHandler
	Inventory *InventoryHandler
	Reports   *ReportHandler
}

// RegisterRoutes mounts the /api/v1 surface. Every route requires a token from the auth service.
func RegisterRoutes(app *fiber.App, h Handlers, tokens *jwt.Manager) {
	api := app.Group("/api/v1")
	protected := api.Group("", middleware.RequireAuth(tokens))

	// Sales
	protected.Post("/sales", middleware.RequirePrivilege(middleware.PrivOrderCreate), h.Orders.CreateSale)

	// Orders
	protected.Get("/orders", middleware.RequirePrivilege(middleware.PrivOrderView), h.Orders.GetOrders)
	protected.Get("/orders/:id", middleware.RequirePrivilege(middleware.PrivOrderView), h.Orders.GetOrder)
	protected.Get("/orders/:id/statuses", middleware.RequirePrivilege(middleware.PrivOrderView), h.Orders.GetStatusHistory)

	// Status set
	protected.Put("/orders/:id/statuses", middleware.RequirePrivilege(middleware.PrivOrderUpdateStatus), h.Orders.SetStatuses)
	protected.Post("/orders/:id/statuses", middleware.RequirePrivilege(middleware.PrivOrderUpdateStatus), h.Orders.AddStatus)
	protected.Delete("/orders/:id/statuses/:status", middleware.RequirePrivilege(middleware.PrivOrderUpdateStatus), h.Orders.RemoveStatus)

	// Delivery
	protected.Put("/orders/:id/items/delivered", middleware.RequirePrivilege(middleware.PrivOrderUpdateDelivery), h.Orders.SetAllItemsDelivered)
	protected.Put("/order-items/:id/delivered", middleware.RequirePrivilege(middleware.PrivOrderUpdateDelivery), h.Orders.SetItemDelivered)

	// Layaway
	protected.Post("/orders/:id/layaway/complete", middleware.RequirePrivilege(middleware.PrivOrderUpdatePayment), h.Orders.CompleteLayaway)

	// Inventory
	protected.Get("/inventory", middleware.RequirePrivilege(middleware.PrivInventoryView), h.Inventory.GetRecords)
	protected.Get("/inventory/:code", middleware.RequirePrivilege(middleware.PrivInventoryView), h.Inventory.GetRecord)
	protected.Post("/inventory", middleware.RequirePrivilege(middleware.PrivInventoryUpdate), h.Inventory.CreateRecord)
	protected.Post("/inventory/:code/restock", middleware.RequirePrivilege(middleware.PrivInventoryUpdate), h.Inventory.Restock)
	protected.Put("/inventory/:code/disabled", middleware.RequirePrivilege(middleware.PrivInventoryUpdate), h.Inventory.SetDisabled)

	// Reports
	protected.Get("/reports/orders", middleware.RequirePrivilege(middleware.PrivReportView), h.Reports.GetOrderReport)
}
