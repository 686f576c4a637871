package paymentControllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/arvand-shop/storefront-api/middleware"
	"github.com/arvand-shop/storefront-api/models"
	"github.com/arvand-shop/storefront-api/payment"
	"github.com/arvand-shop/storefront-api/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GET /payment/gateways — the active gateways, in display order.
func ListGateways(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var gateways []models.PaymentGateway
		if err := db.Where("is_active = ?", true).
			Order("sort_order, id").
			Find(&gateways).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to fetch gateways"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "gateways": gateways})
	}
}

type ProcessPaymentRequest struct {
	OrderID uint   `form:"order_id" json:"order_id" binding:"required"`
	Gateway string `form:"gateway" json:"gateway"`
}

// ProcessPayment opens a fresh PENDING payment on the order for the chosen
// gateway and returns the redirect URL. The order itself stays PENDING; only
// the verify callback settles it.
func ProcessPayment(db *gorm.DB, payments *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "unauthorized"})
			return
		}

		var req ProcessPaymentRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid input: " + err.Error()})
			return
		}
		if req.Gateway == "" {
			req.Gateway = "zarinpal"
		}

		var order models.Order
		if err := db.Preload("Items").Preload("ShippingMethod").Preload("Coupon").
			Where("id = ? AND user_id = ?", req.OrderID, userID).
			First(&order).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "order not found"})
			return
		}
		if order.Status != models.OrderStatusPending {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "order is not awaiting payment"})
			return
		}

		var gateway models.PaymentGateway
		if err := db.Where("name = ? AND is_active = ?", req.Gateway, true).First(&gateway).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "unknown payment gateway"})
			return
		}

		order.TotalPrice = order.CalculateTotalPrice()
		if err := db.Save(&order).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to prepare payment"})
			return
		}
		amount := order.Amount()

		description := fmt.Sprintf("payment for order %d", order.ID)
		p, err := payments.CreatePayment(&gateway, amount, &order, &userID, description)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to create payment"})
			return
		}

		url, authority, err := payments.InitiatePayment(p, description)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "success",
			"payment_id":  p.ID,
			"authority":   authority,
			"payment_url": url,
			"expires_at":  p.ExpiredAt(),
		})
	}
}

// VerifyCallback handles the gateway's browser redirect:
// GET /payment/verify?Authority=...&Status=OK. A missing or non-OK status, an
// expired window, a transport failure and a non-100 verify code all settle
// the payment (and its order) as FAILED; only verify code 100 settles SUCCESS.
func VerifyCallback(db *gorm.DB, payments *payment.Service, orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authority := c.Query("Authority")
		status := c.Query("Status")
		if authority == "" {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "missing authority"})
			return
		}

		p, err := payments.GetByAuthority(authority)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "payment not found"})
			return
		}
		if p.Status != models.PaymentStatusPending {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "payment has already been settled"})
			return
		}

		tag, order := orders.TryToGet(p.OrderID)
		if tag != "success" {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "order not found"})
			return
		}

		fail := func(httpStatus int, message string) {
			p.Status = models.PaymentStatusFailed
			if err := db.Save(p).Error; err != nil {
				log.Printf("failed to settle payment %d as FAILED: %v", p.ID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to settle payment"})
				return
			}
			if err := orders.UpdateStatusAfterFailedPayment(order); err != nil {
				log.Printf("failed to fail order %d after payment %d: %v", order.ID, p.ID, err)
			}
			c.JSON(httpStatus, gin.H{"status": "error", "message": message})
		}

		if status != "OK" {
			fail(http.StatusOK, "payment was cancelled at the gateway")
			return
		}
		if p.Expired(time.Now()) {
			fail(http.StatusOK, "payment window has expired")
			return
		}

		success, refID, err := payments.VerifyPayment(p)
		if err != nil {
			if errors.Is(err, payment.ErrPaymentSettled) {
				c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
				return
			}
			// VerifyPayment already settled the payment row as FAILED.
			if failErr := orders.UpdateStatusAfterFailedPayment(order); failErr != nil {
				log.Printf("failed to fail order %d after payment %d: %v", order.ID, p.ID, failErr)
			}
			c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
			return
		}
		if !success {
			if failErr := orders.UpdateStatusAfterFailedPayment(order); failErr != nil {
				log.Printf("failed to fail order %d after payment %d: %v", order.ID, p.ID, failErr)
			}
			c.JSON(http.StatusOK, gin.H{"status": "error", "message": "payment verification failed"})
			return
		}

		if err := orders.UpdateStatusAfterSuccessPayment(order); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to finalize order"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":          "success",
			"message":         "payment verified",
			"ref_id":          refID,
			"order_id":        order.ID,
			"tracking_number": order.TrackingNumber,
		})
	}
}
