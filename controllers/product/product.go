package productControllers

import (
	"net/http"
	"strconv"

	"github.com/arvand-shop/storefront-api/cache"
	"github.com/arvand-shop/storefront-api/events"
	"github.com/arvand-shop/storefront-api/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryCache caches the full category list behind a versioned key; any
// category mutation bumps the version via the event bus.
func CategoryCache(client cache.Client, db *gorm.DB) *cache.Versioned {
	return cache.NewVersioned(client, "categories", func() (any, error) {
		var categories []models.Category
		if err := db.Order("id").Find(&categories).Error; err != nil {
			return nil, err
		}
		return categories, nil
	})
}

// RegisterCategoryInvalidator bumps the cached category list whenever the
// category tree changes.
func RegisterCategoryInvalidator(bus *events.Bus, cached *cache.Versioned) {
	bus.Subscribe(events.CategoryChanged{}.Name(), func(events.Event) {
		cached.Invalidate()
	})
}

// GET /categories
func ListCategories(cached *cache.Versioned) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, err := cached.Get()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to fetch categories"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "categories": value})
	}
}

// GET /products — published products only, optionally filtered by category.
func ListProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Preload("Category").Preload("Variants").
			Where("status = ?", models.ProductStatusPublish)

		if raw := c.Query("category_id"); raw != "" {
			categoryID, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid category"})
				return
			}
			query = query.Where("category_id = ?", categoryID)
		}

		var products []models.Product
		if err := query.Order("published_at DESC").Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "products": products})
	}
}

// GET /products/:slug — one published product with its variants.
func GetProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var product models.Product
		err := db.Preload("Category").Preload("Variants").
			Where("slug = ? AND status = ?", c.Param("slug"), models.ProductStatusPublish).
			First(&product).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "product not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "product": product})
	}
}

type CategoryRequest struct {
	Name     string `form:"name" json:"name" binding:"required"`
	Slug     string `form:"slug" json:"slug" binding:"required"`
	ParentID *uint  `form:"parent_id" json:"parent_id"`
}

// POST /admin/categories
func CreateCategory(db *gorm.DB, bus *events.Bus) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid input: " + err.Error()})
			return
		}
		category := models.Category{Name: req.Name, Slug: req.Slug, ParentID: req.ParentID}
		if err := db.Create(&category).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to create category"})
			return
		}
		bus.Publish(events.CategoryChanged{CategoryID: category.ID})
		c.JSON(http.StatusCreated, gin.H{"status": "success", "category": category})
	}
}

// PUT /admin/categories/:categoryID
func UpdateCategory(db *gorm.DB, bus *events.Bus) gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryID, err := strconv.ParseUint(c.Param("categoryID"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid category"})
			return
		}
		var req CategoryRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid input: " + err.Error()})
			return
		}
		var category models.Category
		if err := db.First(&category, "id = ?", categoryID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "category not found"})
			return
		}
		category.Name = req.Name
		category.Slug = req.Slug
		category.ParentID = req.ParentID
		if err := db.Save(&category).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to update category"})
			return
		}
		bus.Publish(events.CategoryChanged{CategoryID: category.ID})
		c.JSON(http.StatusOK, gin.H{"status": "success", "category": category})
	}
}
