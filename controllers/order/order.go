package orderControllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/arvand-shop/storefront-api/cart"
	"github.com/arvand-shop/storefront-api/middleware"
	"github.com/arvand-shop/storefront-api/models"
	"github.com/arvand-shop/storefront-api/payment"
	"github.com/arvand-shop/storefront-api/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// sessionCookie mirrors the cart controllers' cookie name.
const sessionCookie = "cart_session"

type CheckoutShippingRequest struct {
	AddressID        uint `form:"address_id" json:"address_id" binding:"required"`
	ShippingMethodID uint `form:"shipping_method_id" json:"shipping_method_id" binding:"required"`
}

func generateTrackingNumber() string {
	return time.Now().Format("20060102") + "-" + uuid.NewString()[:8]
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// POST /checkout/shipping — converts the cart into a PENDING order,
// reserving stock atomically. On stock-validation failure the fresh order is
// deleted and the clamped cart is returned with the error messages.
func CheckoutShipping(db *gorm.DB, store *cart.SessionStore, orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "unauthorized"})
			return
		}

		var req CheckoutShippingRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid input: " + err.Error()})
			return
		}

		var address models.Address
		if err := db.Where("id = ? AND user_id = ?", req.AddressID, userID).First(&address).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "address not found"})
			return
		}
		var shipping models.ShippingMethod
		if err := db.First(&shipping, "id = ?", req.ShippingMethodID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "shipping method not found"})
			return
		}

		var cartRow models.Cart
		if err := db.Preload("Items").Where("user_id = ?", userID).First(&cartRow).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "cart is empty"})
			return
		}
		if len(cartRow.Items) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "cart is empty"})
			return
		}

		tracking := generateTrackingNumber()
		order := models.Order{
			UserID:           userID,
			AddressID:        address.ID,
			ShippingMethodID: &shipping.ID,
			ShippingMethod:   &shipping,
			TrackingNumber:   &tracking,
			Status:           models.OrderStatusPending,
		}
		if err := db.Create(&order).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to create order"})
			return
		}

		sid, _ := c.Cookie(sessionCookie)
		var sess *cart.Service
		if sid != "" {
			sess = cart.NewService(db, store.Storage(sid))
		}

		if err := orders.ValidateAndCreateOrder(&order, &cartRow, sess); err != nil {
			// The empty order must not survive a failed validation.
			db.Delete(&order)

			var validation *services.ValidationError
			if errors.As(err, &validation) {
				c.JSON(http.StatusBadRequest, gin.H{
					"status":   "error",
					"message":  "some cart items could not be fulfilled",
					"messages": validation.Messages,
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to create order"})
			return
		}

		// Stock is reserved on the order now; the cart has served its purpose.
		if err := db.Where("cart_id = ?", cartRow.ID).Delete(&models.CartItem{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to clear cart"})
			return
		}
		if sess != nil {
			sess.Clear()
		}

		c.JSON(http.StatusCreated, gin.H{
			"status":          "success",
			"message":         "order created",
			"order_id":        order.ID,
			"tracking_number": tracking,
		})
	}
}

// POST /orders/:orderID/coupon
func ApplyCoupon(db *gorm.DB, coupons *services.CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "unauthorized"})
			return
		}
		orderID, okID := parseID(c.Param("orderID"))
		if !okID {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid order"})
			return
		}
		code := c.PostForm("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "coupon code is required"})
			return
		}

		var order models.Order
		if err := db.Preload("Items").Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "order not found"})
			return
		}
		if order.Status != models.OrderStatusPending {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "coupons can only be applied to pending orders"})
			return
		}

		order.TotalPrice = order.CalculateTotalPrice()
		status, message := coupons.ApplyCoupon(&order, code)
		if status != "success" {
			c.JSON(http.StatusBadRequest, gin.H{"status": status, "message": message})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":          status,
			"message":         message,
			"discount_amount": order.CouponDiscount().InexactFloat64(),
			"final_total":     order.FinalPrice().InexactFloat64(),
		})
	}
}

// GET /orders — the caller's orders, newest first, each with a regenerated
// payment URL when a pending payment is still inside its window.
func ListMyOrders(db *gorm.DB, payments *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "unauthorized"})
			return
		}

		var orders []models.Order
		if err := db.
			Preload("Items.ProductVariant.Product").
			Preload("ShippingMethod").
			Preload("Coupon").
			Preload("Payments.Gateway").
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to fetch orders"})
			return
		}

		now := time.Now()
		type orderView struct {
			models.Order
			PaymentURL *string `json:"payment_url,omitempty"`
		}
		views := make([]orderView, 0, len(orders))
		for i := range orders {
			view := orderView{Order: orders[i]}
			for j := range orders[i].Payments {
				p := &orders[i].Payments[j]
				if p.Status != models.PaymentStatusPending || p.Expired(now) || p.AuthorityID == "" {
					continue
				}
				if url, err := payments.GeneratePaymentURL(p, now); err == nil {
					view.PaymentURL = &url
					break
				}
			}
			views = append(views, view)
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "orders": views})
	}
}

// GET /orders/:orderID
func GetOrder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "unauthorized"})
			return
		}
		orderID, okID := parseID(c.Param("orderID"))
		if !okID {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid order"})
			return
		}

		var order models.Order
		err := db.
			Preload("Items.ProductVariant.Product").
			Preload("Address").
			Preload("ShippingMethod").
			Preload("Coupon").
			Where("id = ? AND user_id = ?", orderID, userID).
			First(&order).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "order not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "order": order})
	}
}

// POST /orders/:orderID/repay — re-validates stock and resets a failed order
// to PENDING so the payment flow can be retried with a fresh payment row. An
// optional address_id form field switches the delivery address first.
func Repay(db *gorm.DB, orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "unauthorized"})
			return
		}
		orderID, okID := parseID(c.Param("orderID"))
		if !okID {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid order"})
			return
		}

		var order models.Order
		if err := db.Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "order not found"})
			return
		}

		var addressID *uint
		if raw := c.PostForm("address_id"); raw != "" {
			id, okAddr := parseID(raw)
			if !okAddr {
				c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid address"})
				return
			}
			var address models.Address
			if err := db.Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "address not found"})
				return
			}
			if address.ID != order.AddressID {
				addressID = &address.ID
			}
		}

		if err := orders.Repay(&order, addressID); err != nil {
			var validation *services.ValidationError
			if errors.As(err, &validation) {
				c.JSON(http.StatusBadRequest, gin.H{
					"status":   "error",
					"message":  "some order items are no longer in stock",
					"messages": validation.Messages,
				})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "order reopened for payment", "order_id": order.ID})
	}
}

// GET /admin/orders — full order list for back-office use.
func ListAllOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.
			Preload("User").
			Preload("Items").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "orders": orders})
	}
}
