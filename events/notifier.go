package events

import (
	"fmt"
	"log"

	"github.com/arvand-shop/storefront-api/models"
	"gorm.io/gorm"
)

// RegisterNotifier writes an in-app notification whenever an order's status
// changes.
func RegisterNotifier(bus *Bus, db *gorm.DB) {
	bus.Subscribe(OrderStatusChanged{}.Name(), func(e Event) {
		evt, ok := e.(OrderStatusChanged)
		if !ok {
			return
		}

		var title, body string
		switch evt.Status {
		case models.OrderStatusSuccess:
			title = "Order paid"
			body = fmt.Sprintf("Your order #%d was paid successfully.", evt.OrderID)
		case models.OrderStatusFailed:
			title = "Order cancelled"
			body = fmt.Sprintf("Payment for order #%d failed or expired.", evt.OrderID)
		default:
			title = "Order updated"
			body = fmt.Sprintf("Order #%d is awaiting payment.", evt.OrderID)
		}

		notification := models.Notification{
			UserID: evt.UserID,
			Title:  title,
			Body:   body,
		}
		if err := db.Create(&notification).Error; err != nil {
			log.Printf("notifier: failed to create notification for order %d: %v", evt.OrderID, err)
		}
	})
}
