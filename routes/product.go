package routes

import (
	productControllers "github.com/arvand-shop/storefront-api/controllers/product"
	"github.com/gin-gonic/gin"
)

// SetupProductRoutes registers the public catalog endpoints.
func SetupProductRoutes(r *gin.Engine, deps Deps) {
	cached := productControllers.CategoryCache(deps.Cache, deps.DB)
	productControllers.RegisterCategoryInvalidator(deps.Bus, cached)

	r.GET("/categories", productControllers.ListCategories(cached))
	r.GET("/products", productControllers.ListProducts(deps.DB))
	r.GET("/products/:slug", productControllers.GetProduct(deps.DB))
}
