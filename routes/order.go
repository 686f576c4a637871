package routes

import (
	orderControllers "github.com/arvand-shop/storefront-api/controllers/order"
	paymentControllers "github.com/arvand-shop/storefront-api/controllers/payment"
	"github.com/arvand-shop/storefront-api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupOrderRoutes registers the checkout and order endpoints, all behind JWT.
func SetupOrderRoutes(r *gin.Engine, deps Deps) {
	checkout := r.Group("/checkout")
	checkout.Use(middleware.RequireAuth(deps.Config.JWTSecret))
	{
		checkout.POST("/shipping", orderControllers.CheckoutShipping(deps.DB, deps.Store, deps.Orders))
		checkout.GET("/payment", paymentControllers.ListGateways(deps.DB))
	}

	orders := r.Group("/orders")
	orders.Use(middleware.RequireAuth(deps.Config.JWTSecret))
	{
		orders.GET("", orderControllers.ListMyOrders(deps.DB, deps.Payments))
		orders.GET("/:orderID", orderControllers.GetOrder(deps.DB))
		orders.POST("/:orderID/repay", orderControllers.Repay(deps.DB, deps.Orders))
		orders.POST("/:orderID/coupon", orderControllers.ApplyCoupon(deps.DB, deps.Coupons))
	}

	addresses := r.Group("/addresses")
	addresses.Use(middleware.RequireAuth(deps.Config.JWTSecret))
	{
		addresses.GET("", orderControllers.ListAddresses(deps.DB))
		addresses.POST("", orderControllers.CreateAddress(deps.DB))
		addresses.PUT("/:addressID", orderControllers.UpdateAddress(deps.DB))
		addresses.DELETE("/:addressID", orderControllers.DeleteAddress(deps.DB))
	}

	// websocket endpoint for real-time order status updates
	r.GET("/ws/orders", orderControllers.OrderStatusFeed(deps.Hub))
}
