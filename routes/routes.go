// Package routes wires every HTTP endpoint onto the gin engine.
package routes

import (
	"github.com/arvand-shop/storefront-api/cache"
	"github.com/arvand-shop/storefront-api/cart"
	"github.com/arvand-shop/storefront-api/config"
	orderControllers "github.com/arvand-shop/storefront-api/controllers/order"
	"github.com/arvand-shop/storefront-api/events"
	"github.com/arvand-shop/storefront-api/payment"
	"github.com/arvand-shop/storefront-api/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps collects the shared services the route groups hand to their handlers.
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Store    *cart.SessionStore
	Cache    cache.Client
	Bus      *events.Bus
	Orders   *services.OrderService
	Coupons  *services.CouponService
	Payments *payment.Service
	Hub      *orderControllers.Hub
}

// SetupRoutes is the single entry point that wires up all route groups.
func SetupRoutes(r *gin.Engine, deps Deps) {
	SetupProductRoutes(r, deps)
	SetupCartRoutes(r, deps)
	SetupOrderRoutes(r, deps)
	SetupPaymentRoutes(r, deps)
	SetupAdminRoutes(r, deps)
}
