package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/arvand-shop/storefront-api/cart"
	"github.com/arvand-shop/storefront-api/events"
	"github.com/arvand-shop/storefront-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderService struct {
	db  *gorm.DB
	bus *events.Bus
}

func NewOrderService(db *gorm.DB, bus *events.Bus) *OrderService {
	return &OrderService{db: db, bus: bus}
}

// lockForUpdate adds SELECT ... FOR UPDATE on backends that support row
// locks. SQLite (tests) is single-writer and rejects the clause.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// CreateOrderItems converts the persisted cart lines into order-item
// snapshots, decrementing each variant's stock under a row lock. The whole
// conversion is one transaction: a failure on line N rolls back every
// decrement and every created item.
func (s *OrderService) CreateOrderItems(order *models.Order, cartRow *models.Cart) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Preload("ProductVariant.Product").
			Where("cart_id = ?", cartRow.ID).
			Find(&items).Error; err != nil {
			return err
		}

		for _, item := range items {
			var variant models.ProductVariant
			if err := lockForUpdate(tx).
				First(&variant, "id = ?", item.ProductVariantID).Error; err != nil {
				return err
			}
			if variant.Stock < item.Quantity {
				return fmt.Errorf("insufficient stock for variant %d", variant.ID)
			}

			variant.Stock -= item.Quantity
			if err := tx.Save(&variant).Error; err != nil {
				return err
			}

			orderItem := models.OrderItem{
				OrderID:                order.ID,
				ProductVariantID:       variant.ID,
				Quantity:               item.Quantity,
				BasePrice:              variant.Price,
				VariantDiscountPercent: variant.DiscountPercent,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, orderItem)
		}
		return nil
	})
}

// ValidateAndCreateOrder runs stock validation and, when it passes, reserves
// stock by creating the order items. On validation failure the proposed
// clamps are applied to the live cart and a ValidationError is returned; the
// caller must delete the just-created empty order.
func (s *OrderService) ValidateAndCreateOrder(order *models.Order, cartRow *models.Cart, sess *cart.Service) error {
	var items []models.CartItem
	if err := s.db.Preload("ProductVariant.Product").
		Where("cart_id = ?", cartRow.ID).
		Find(&items).Error; err != nil {
		return err
	}

	errs, updates := ValidateStock(items)
	if len(errs) > 0 {
		if len(updates) > 0 {
			if err := ApplyUpdates(s.db, updates, sess, order.UserID); err != nil {
				return err
			}
		}
		return &ValidationError{Messages: errs}
	}

	return s.CreateOrderItems(order, cartRow)
}

// TryToGet returns a tagged ("success"/"error") result instead of raising,
// so callers can branch without error plumbing.
func (s *OrderService) TryToGet(orderID uint) (string, *models.Order) {
	var order models.Order
	err := s.db.Preload("Items").Preload("ShippingMethod").Preload("Coupon").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return "error", nil
	}
	return "success", &order
}

func (s *OrderService) UpdateStatusAfterSuccessPayment(order *models.Order) error {
	order.Status = models.OrderStatusSuccess
	if err := s.db.Save(order).Error; err != nil {
		return err
	}
	s.publishStatus(order)
	return nil
}

func (s *OrderService) UpdateStatusAfterFailedPayment(order *models.Order) error {
	order.Status = models.OrderStatusFailed
	if err := s.db.Save(order).Error; err != nil {
		return err
	}
	s.publishStatus(order)
	return nil
}

// Repay resets a failed order to PENDING so a fresh payment can be attached.
// Stock is re-validated against the order's items first: inventory may have
// moved on while the order sat FAILED. An optional replacement address can be
// set in the same step.
func (s *OrderService) Repay(order *models.Order, addressID *uint) error {
	if order.Status != models.OrderStatusFailed {
		return errors.New("only failed orders can be repaid")
	}

	var items []models.OrderItem
	if err := s.db.Preload("ProductVariant.Product").
		Where("order_id = ?", order.ID).
		Find(&items).Error; err != nil {
		return err
	}
	lines := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.CartItem{
			ProductVariantID: item.ProductVariantID,
			ProductVariant:   item.ProductVariant,
			Quantity:         item.Quantity,
		})
	}
	if errs, _ := ValidateStock(lines); len(errs) > 0 {
		return &ValidationError{Messages: errs}
	}

	if addressID != nil {
		order.AddressID = *addressID
	}
	order.Status = models.OrderStatusPending
	if err := s.db.Save(order).Error; err != nil {
		return err
	}
	s.publishStatus(order)
	return nil
}

func (s *OrderService) publishStatus(order *models.Order) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.OrderStatusChanged{
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  order.Status,
	})
}

// CancelExpiredPendingOrders fails orders stuck in PENDING past the payment
// window, restoring each item's quantity onto the variant stock and deleting
// the items. The orders are locked for the duration so a concurrent sweep
// cannot restore stock twice. Returns how many orders were cancelled.
func (s *OrderService) CancelExpiredPendingOrders(now time.Time) (int, error) {
	cutoff := now.Add(-models.PaymentWindow)
	var cancelled []models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var orders []models.Order
		if err := lockForUpdate(tx).
			Where("status = ? AND updated_at <= ?", models.OrderStatusPending, cutoff).
			Find(&orders).Error; err != nil {
			return err
		}

		for i := range orders {
			order := &orders[i]
			order.Status = models.OrderStatusFailed
			if err := tx.Save(order).Error; err != nil {
				return err
			}

			var items []models.OrderItem
			if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
				return err
			}
			for _, item := range items {
				var variant models.ProductVariant
				if err := lockForUpdate(tx).
					First(&variant, "id = ?", item.ProductVariantID).Error; err != nil {
					return err
				}
				variant.Stock += item.Quantity
				if err := tx.Save(&variant).Error; err != nil {
					return err
				}
				if err := tx.Delete(&item).Error; err != nil {
					return err
				}
			}
			cancelled = append(cancelled, *order)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for i := range cancelled {
		s.publishStatus(&cancelled[i])
	}
	return len(cancelled), nil
}

// RunExpirySweep cancels expired orders on a fixed interval until the stop
// channel closes.
func (s *OrderService) RunExpirySweep(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			count, err := s.CancelExpiredPendingOrders(time.Now())
			if err != nil {
				log.Printf("expiry sweep failed: %v", err)
				continue
			}
			if count > 0 {
				log.Printf("expiry sweep cancelled %d pending order(s)", count)
			}
		}
	}
}
