package routes

import (
	cartControllers "github.com/arvand-shop/storefront-api/controllers/cart"
	"github.com/arvand-shop/storefront-api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupCartRoutes registers the session cart endpoints. All of them work for
// anonymous visitors; an optional JWT lets mutations mirror into the
// persisted cart.
func SetupCartRoutes(r *gin.Engine, deps Deps) {
	carts := r.Group("/cart")
	carts.Use(middleware.OptionalAuth(deps.Config.JWTSecret))
	{
		carts.GET("", cartControllers.GetCart(deps.DB, deps.Store))
		carts.POST("/add", cartControllers.AddItem(deps.DB, deps.Store))
		carts.POST("/update", cartControllers.UpdateQuantity(deps.DB, deps.Store))
		carts.POST("/remove", cartControllers.RemoveItem(deps.DB, deps.Store))
		carts.POST("/clear", cartControllers.ClearCart(deps.DB, deps.Store))
	}

	// Login/logout transitions need a verified identity.
	sync := r.Group("/cart")
	sync.Use(middleware.RequireAuth(deps.Config.JWTSecret))
	{
		sync.POST("/sync", cartControllers.SyncCart(deps.DB, deps.Store))
		sync.POST("/merge", cartControllers.MergeCart(deps.DB, deps.Store))
	}
}
