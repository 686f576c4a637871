// Package services holds the business-rule orchestration between carts,
// orders, coupons and payments.
package services

import (
	"fmt"
	"strings"

	"github.com/arvand-shop/storefront-api/cart"
	"github.com/arvand-shop/storefront-api/models"
	"gorm.io/gorm"
)

// ValidationError carries user-facing messages for failed stock validation;
// it never wraps internal errors.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// ItemUpdate proposes clamping a cart line down to the available stock.
type ItemUpdate struct {
	Item        models.CartItem
	NewQuantity int
}

// ValidateStock checks requested quantities against live inventory. Zero
// stock is a hard error with no correction; partial stock records an error
// and proposes a clamp. Callers decide whether to apply the clamps and
// whether to abort.
func ValidateStock(items []models.CartItem) ([]string, []ItemUpdate) {
	var errs []string
	var updates []ItemUpdate

	for _, item := range items {
		stock := item.ProductVariant.Stock
		if stock >= item.Quantity {
			continue
		}
		name := item.ProductVariant.Product.Name
		if stock == 0 {
			errs = append(errs, fmt.Sprintf("product %q is out of stock", name))
			continue
		}
		errs = append(errs, fmt.Sprintf(
			"requested quantity for %q exceeds the available stock; the quantity in your cart was reduced to the maximum available", name))
		updates = append(updates, ItemUpdate{Item: item, NewQuantity: stock})
	}

	return errs, updates
}

// ApplyUpdates persists the proposed clamps and re-syncs the session cart so
// the corrected quantities survive the round trip.
func ApplyUpdates(db *gorm.DB, updates []ItemUpdate, sess *cart.Service, userID uint) error {
	for _, update := range updates {
		item := update.Item
		item.Quantity = update.NewQuantity
		if err := db.Save(&item).Error; err != nil {
			return err
		}
	}
	if sess != nil {
		return sess.Sync(userID)
	}
	return nil
}
