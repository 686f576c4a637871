package cartControllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/arvand-shop/storefront-api/cart"
	"github.com/arvand-shop/storefront-api/middleware"
	"github.com/arvand-shop/storefront-api/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const sessionCookie = "cart_session"

// sessionService binds the request's cart session (cookie-identified) to a
// cart service. Anonymous visitors get a fresh session id.
func sessionService(c *gin.Context, db *gorm.DB, store *cart.SessionStore) *cart.Service {
	sid, err := c.Cookie(sessionCookie)
	if err != nil || sid == "" {
		sid = uuid.NewString()
		c.SetCookie(sessionCookie, sid, int((30 * 24 * time.Hour).Seconds()), "/", "", false, true)
	}
	return cart.NewService(db, store.Storage(sid))
}

// mergeIfAuthenticated mirrors the session cart into the user's persisted
// cart after a successful mutation.
func mergeIfAuthenticated(c *gin.Context, svc *cart.Service) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return
	}
	if err := svc.Merge(userID); err != nil {
		log.Printf("cart merge failed for user %d: %v", userID, err)
	}
}

func cartResponse(status, message string, payload *cart.Payload) gin.H {
	h := gin.H{
		"status":                        status,
		"message":                       message,
		"cart_items":                    payload.CartItems,
		"total_payment_amount":          payload.TotalPaymentAmount,
		"total_amount_without_discount": payload.TotalAmountWithoutDiscount,
		"total_amount_discounts":        payload.TotalAmountDiscounts,
		"total_quantity":                payload.TotalQuantity,
	}
	if payload.PriceShippingMethod != nil {
		h["price_shipping_method"] = *payload.PriceShippingMethod
	}
	return h
}

func respondWithCart(c *gin.Context, svc *cart.Service, status, message string, shipping *models.ShippingMethod) {
	payload, err := svc.SerializableCartData(shipping)
	if err != nil {
		if errors.Is(err, cart.ErrVariantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "a product in your cart is no longer available"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to load cart"})
		return
	}
	c.JSON(http.StatusOK, cartResponse(status, message, payload))
}

func positiveInt(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func parseVariantID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// POST /cart/add
func AddItem(db *gorm.DB, store *cart.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, okProduct := parseVariantID(c.PostForm("product_id"))
		variantID, okVariant := parseVariantID(c.PostForm("variant_id"))
		if !okProduct || !okVariant {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "product information is incomplete"})
			return
		}
		quantity, ok := positiveInt(c.PostForm("quantity"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid quantity"})
			return
		}

		variant, err := cart.ResolveVariant(db, variantID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "product not found or not published"})
			return
		}

		if quantity > variant.Stock {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "selected quantity exceeds available stock"})
			return
		}

		svc := sessionService(c, db, store)
		if line, exists := svc.Line(variantID); exists && line.Quantity+quantity > variant.Stock {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "the quantity of this product in your cart exceeds available stock"})
			return
		}

		svc.Add(variantID, productID, quantity)
		mergeIfAuthenticated(c, svc)
		respondWithCart(c, svc, "success", "product added to cart", nil)
	}
}

// POST /cart/update
func UpdateQuantity(db *gorm.DB, store *cart.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		variantID, okVariant := parseVariantID(c.PostForm("variant_id"))
		if !okVariant {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "product information is incomplete"})
			return
		}
		quantity, ok := positiveInt(c.PostForm("quantity"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid quantity"})
			return
		}

		variant, err := cart.ResolveVariant(db, variantID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "product not found or not published"})
			return
		}

		svc := sessionService(c, db, store)
		if quantity > variant.Stock {
			// Clamp rather than reject so the cart never holds more than
			// the catalog can fulfil.
			svc.UpdateQuantity(variantID, variant.Stock)
			mergeIfAuthenticated(c, svc)
			respondWithCart(c, svc, "error",
				"selected quantity exceeds available stock; the quantity in your cart was reduced to the maximum available", nil)
			return
		}

		svc.UpdateQuantity(variantID, quantity)
		mergeIfAuthenticated(c, svc)
		respondWithCart(c, svc, "success", "cart updated", nil)
	}
}

// POST /cart/remove
func RemoveItem(db *gorm.DB, store *cart.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		variantID, ok := parseVariantID(c.PostForm("variant_id"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "product information is incomplete"})
			return
		}

		svc := sessionService(c, db, store)
		svc.Remove(variantID)
		mergeIfAuthenticated(c, svc)
		respondWithCart(c, svc, "success", "product removed from cart", nil)
	}
}

// POST /cart/clear
func ClearCart(db *gorm.DB, store *cart.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc := sessionService(c, db, store)
		svc.Clear()
		mergeIfAuthenticated(c, svc)
		respondWithCart(c, svc, "success", "all products removed from cart", nil)
	}
}

// GET /cart
func GetCart(db *gorm.DB, store *cart.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var shipping *models.ShippingMethod
		if raw := c.Query("shipping_method_id"); raw != "" {
			id, ok := parseVariantID(raw)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid shipping method"})
				return
			}
			var method models.ShippingMethod
			if err := db.First(&method, "id = ?", id).Error; err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "shipping method not found"})
				return
			}
			shipping = &method
		}

		svc := sessionService(c, db, store)
		respondWithCart(c, svc, "success", "", shipping)
	}
}

// POST /user/cart/sync — called after login: persisted lines are pulled into
// the session, then the merged session is mirrored back.
func SyncCart(db *gorm.DB, store *cart.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "unauthorized"})
			return
		}

		svc := sessionService(c, db, store)
		if err := svc.Sync(userID); err != nil {
			if errors.Is(err, cart.ErrVariantNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "a product in your cart is no longer available"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to sync cart"})
			return
		}
		respondWithCart(c, svc, "success", "cart synced", nil)
	}
}

// POST /user/cart/merge — called on logout so the session cart survives in
// the database.
func MergeCart(db *gorm.DB, store *cart.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "unauthorized"})
			return
		}

		svc := sessionService(c, db, store)
		if err := svc.Merge(userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to merge cart"})
			return
		}
		respondWithCart(c, svc, "success", "cart merged", nil)
	}
}
