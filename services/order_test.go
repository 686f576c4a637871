package services

import (
	"testing"
	"time"

	"github.com/arvand-shop/storefront-api/events"
	"github.com/arvand-shop/storefront-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderItemsSnapshotsAndDecrementsStock(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db, "09120000020")
	v := seedVariant(t, db, "shirt", 100000, 10, 10)
	cartRow := seedCart(t, db, user.ID, map[uint]int{v.ID: 3})
	order := seedOrder(t, db, user.ID, models.OrderStatusPending)

	svc := NewOrderService(db, nil)
	require.NoError(t, svc.CreateOrderItems(order, cartRow))

	var variant models.ProductVariant
	require.NoError(t, db.First(&variant, "id = ?", v.ID).Error)
	assert.Equal(t, 7, variant.Stock)

	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.True(t, items[0].BasePrice.Equal(v.Price), "snapshot keeps the price at order time")
	assert.Equal(t, 10, items[0].VariantDiscountPercent)
}

func TestCreateOrderItemsRollsBackOnInsufficientStock(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db, "09120000021")
	fine := seedVariant(t, db, "fine", 1000, 0, 10)
	scarce := seedVariant(t, db, "scarce", 1000, 0, 1)
	cartRow := seedCart(t, db, user.ID, map[uint]int{fine.ID: 2, scarce.ID: 5})
	order := seedOrder(t, db, user.ID, models.OrderStatusPending)

	svc := NewOrderService(db, nil)
	err := svc.CreateOrderItems(order, cartRow)
	require.Error(t, err)

	// the failing line must undo every decrement and every created item
	var variant models.ProductVariant
	require.NoError(t, db.First(&variant, "id = ?", fine.ID).Error)
	assert.Equal(t, 10, variant.Stock)

	var count int64
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestValidateAndCreateOrderClampsAndReports(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db, "09120000022")
	v := seedVariant(t, db, "shirt", 1000, 0, 4)
	cartRow := seedCart(t, db, user.ID, map[uint]int{v.ID: 9})
	order := seedOrder(t, db, user.ID, models.OrderStatusPending)

	svc := NewOrderService(db, nil)
	err := svc.ValidateAndCreateOrder(order, cartRow, nil)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Len(t, validation.Messages, 1)

	// the proposed clamp was persisted onto the cart line
	var item models.CartItem
	require.NoError(t, db.Where("cart_id = ?", cartRow.ID).First(&item).Error)
	assert.Equal(t, 4, item.Quantity)

	// stock untouched, no items created
	var variant models.ProductVariant
	require.NoError(t, db.First(&variant, "id = ?", v.ID).Error)
	assert.Equal(t, 4, variant.Stock)
}

func TestValidateAndCreateOrderSucceeds(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db, "09120000023")
	v := seedVariant(t, db, "shirt", 1000, 0, 5)
	cartRow := seedCart(t, db, user.ID, map[uint]int{v.ID: 5})
	order := seedOrder(t, db, user.ID, models.OrderStatusPending)

	svc := NewOrderService(db, nil)
	require.NoError(t, svc.ValidateAndCreateOrder(order, cartRow, nil))

	var variant models.ProductVariant
	require.NoError(t, db.First(&variant, "id = ?", v.ID).Error)
	assert.Equal(t, 0, variant.Stock, "buying the full stock is allowed")
}

func TestStatusTransitionsPublishEvents(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db, "09120000024")
	order := seedOrder(t, db, user.ID, models.OrderStatusPending)

	bus := events.NewBus()
	var published []models.OrderStatus
	bus.Subscribe(events.OrderStatusChanged{}.Name(), func(e events.Event) {
		published = append(published, e.(events.OrderStatusChanged).Status)
	})

	svc := NewOrderService(db, bus)
	require.NoError(t, svc.UpdateStatusAfterSuccessPayment(order))
	assert.Equal(t, []models.OrderStatus{models.OrderStatusSuccess}, published)

	var saved models.Order
	require.NoError(t, db.First(&saved, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusSuccess, saved.Status)
	require.NotNil(t, saved.Fulfillment, "a paid order enters the fulfillment pipeline")
	assert.Equal(t, models.FulfillmentPendingApproval, *saved.Fulfillment)
}

func TestRepayOnlyFromFailed(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db, "09120000025")
	svc := NewOrderService(db, nil)

	pending := seedOrder(t, db, user.ID, models.OrderStatusPending)
	assert.Error(t, svc.Repay(pending, nil), "pending orders cannot be repaid")

	failed := seedOrder(t, db, user.ID, models.OrderStatusFailed)
	require.NoError(t, svc.Repay(failed, nil))
	assert.Equal(t, models.OrderStatusPending, failed.Status)
}

func TestRepayBlockedByDepletedStock(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db, "09120000028")
	v := seedVariant(t, db, "shirt", 1000, 0, 5)
	cartRow := seedCart(t, db, user.ID, map[uint]int{v.ID: 2})
	order := seedOrder(t, db, user.ID, models.OrderStatusPending)

	svc := NewOrderService(db, nil)
	require.NoError(t, svc.CreateOrderItems(order, cartRow))

	order.Status = models.OrderStatusFailed
	require.NoError(t, db.Save(order).Error)

	// the remaining inventory is sold out from under the failed order
	require.NoError(t, db.Model(&models.ProductVariant{}).
		Where("id = ?", v.ID).Update("stock", 0).Error)

	err := svc.Repay(order, nil)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.NotEmpty(t, validation.Messages)

	var saved models.Order
	require.NoError(t, db.First(&saved, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusFailed, saved.Status, "a blocked repay leaves the order FAILED")
}

func TestRepaySwitchesAddress(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db, "09120000029")
	order := seedOrder(t, db, user.ID, models.OrderStatusFailed)

	replacement := models.Address{UserID: user.ID, FirstName: "new", LastName: "address"}
	require.NoError(t, db.Create(&replacement).Error)

	svc := NewOrderService(db, nil)
	require.NoError(t, svc.Repay(order, &replacement.ID))

	var saved models.Order
	require.NoError(t, db.First(&saved, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, saved.Status)
	assert.Equal(t, replacement.ID, saved.AddressID)
}

func TestCancelExpiredPendingOrdersRestoresStock(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db, "09120000026")
	v := seedVariant(t, db, "shirt", 1000, 0, 10)
	cartRow := seedCart(t, db, user.ID, map[uint]int{v.ID: 4})
	order := seedOrder(t, db, user.ID, models.OrderStatusPending)

	svc := NewOrderService(db, nil)
	require.NoError(t, svc.CreateOrderItems(order, cartRow))

	var variant models.ProductVariant
	require.NoError(t, db.First(&variant, "id = ?", v.ID).Error)
	require.Equal(t, 6, variant.Stock)

	// a sweep inside the window leaves the order alone
	count, err := svc.CancelExpiredPendingOrders(time.Now())
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = svc.CancelExpiredPendingOrders(time.Now().Add(models.PaymentWindow + time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var saved models.Order
	require.NoError(t, db.First(&saved, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusFailed, saved.Status)

	require.NoError(t, db.First(&variant, "id = ?", v.ID).Error)
	assert.Equal(t, 10, variant.Stock, "reserved stock returns to the shelf")

	var items int64
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&items).Error)
	assert.Zero(t, items)
}

func TestCancelExpiredSkipsSettledOrders(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db, "09120000027")
	seedOrder(t, db, user.ID, models.OrderStatusSuccess)
	seedOrder(t, db, user.ID, models.OrderStatusFailed)

	svc := NewOrderService(db, nil)
	count, err := svc.CancelExpiredPendingOrders(time.Now().Add(48 * time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
}
