package routes

import (
	orderControllers "github.com/arvand-shop/storefront-api/controllers/order"
	productControllers "github.com/arvand-shop/storefront-api/controllers/product"
	"github.com/arvand-shop/storefront-api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupAdminRoutes registers all /admin/* endpoints behind the API key.
func SetupAdminRoutes(r *gin.Engine, deps Deps) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAPIKey(deps.Config.AdminAPIKey))
	{
		admin.GET("/orders", orderControllers.ListAllOrders(deps.DB))
		admin.GET("/orders/export-excel", orderControllers.ExportOrdersToExcel(deps.DB))

		categories := admin.Group("/categories")
		{
			categories.POST("", productControllers.CreateCategory(deps.DB, deps.Bus))
			categories.PUT("/:categoryID", productControllers.UpdateCategory(deps.DB, deps.Bus))
		}
	}
}
