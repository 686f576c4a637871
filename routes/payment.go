package routes

import (
	paymentControllers "github.com/arvand-shop/storefront-api/controllers/payment"
	"github.com/arvand-shop/storefront-api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes registers gateway selection, payment initiation and the
// gateway's redirect callback. The callback is public: the gateway calls it
// with only the authority token.
func SetupPaymentRoutes(r *gin.Engine, deps Deps) {
	payments := r.Group("/payment")
	{
		payments.GET("/gateways", paymentControllers.ListGateways(deps.DB))
		payments.GET("/verify", paymentControllers.VerifyCallback(deps.DB, deps.Payments, deps.Orders))
	}

	authed := r.Group("/payment")
	authed.Use(middleware.RequireAuth(deps.Config.JWTSecret))
	{
		authed.POST("/process", paymentControllers.ProcessPayment(deps.DB, deps.Payments))
	}
}
