package cart

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/arvand-shop/storefront-api/cache"
	"github.com/arvand-shop/storefront-api/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// one in-memory database per test; a second pooled connection would see
	// an empty schema
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Cart{},
		&models.CartItem{},
	))
	return db
}

func seedVariant(t *testing.T, db *gorm.DB, status models.ProductStatus, price int64, discount, stock int) *models.ProductVariant {
	t.Helper()
	// slug carries a unique index, so every fixture product needs its own
	product := models.Product{Name: "product", Slug: uuid.NewString(), Status: status}
	require.NoError(t, db.Create(&product).Error)
	variant := models.ProductVariant{
		ProductID:       product.ID,
		AttributeValue:  "default",
		Price:           decimal.NewFromInt(price),
		DiscountPercent: discount,
		Stock:           stock,
	}
	require.NoError(t, db.Create(&variant).Error)
	variant.Product = product
	return &variant
}

func newTestService(db *gorm.DB) *Service {
	store := NewSessionStore(cache.NewMemory(), time.Hour)
	return NewService(db, store.Storage("test"))
}

func TestResolveVariantRejectsUnpublished(t *testing.T) {
	db := setupDB(t)
	variant := seedVariant(t, db, models.ProductStatusDraft, 1000, 0, 5)

	_, err := ResolveVariant(db, variant.ID)
	assert.ErrorIs(t, err, ErrVariantNotFound)

	_, err = ResolveVariant(db, 9999)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestItemsComputesLineTotals(t *testing.T) {
	db := setupDB(t)
	v1 := seedVariant(t, db, models.ProductStatusPublish, 100000, 10, 10)
	v2 := seedVariant(t, db, models.ProductStatusPublish, 100000, 10, 10)

	svc := newTestService(db)
	svc.Add(v1.ID, v1.ProductID, 2)
	svc.Add(v2.ID, v2.ProductID, 1)

	items, err := svc.Items()
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.True(t, items[0].TotalPriceWithoutDiscount.Equal(decimal.NewFromInt(200000)))
	assert.True(t, items[0].TotalPriceWithDiscount.Equal(decimal.NewFromInt(180000)))
	assert.True(t, items[0].TotalDiscounts.Equal(decimal.NewFromInt(20000)))

	withoutDiscount, err := svc.TotalAmountWithoutDiscount()
	require.NoError(t, err)
	assert.True(t, withoutDiscount.Equal(decimal.NewFromInt(300000)))

	discounts, err := svc.TotalDiscounts()
	require.NoError(t, err)
	assert.True(t, discounts.Equal(decimal.NewFromInt(30000)))

	payment, err := svc.TotalPaymentAmount(nil)
	require.NoError(t, err)
	assert.True(t, payment.Equal(decimal.NewFromInt(270000)))
}

func TestTotalPaymentAmountIncludesShipping(t *testing.T) {
	db := setupDB(t)
	v := seedVariant(t, db, models.ProductStatusPublish, 50000, 0, 5)

	svc := newTestService(db)
	svc.Add(v.ID, v.ProductID, 1)

	shipping := &models.ShippingMethod{Price: decimal.NewFromInt(15000)}
	payment, err := svc.TotalPaymentAmount(shipping)
	require.NoError(t, err)
	assert.True(t, payment.Equal(decimal.NewFromInt(65000)))
}

func TestItemsFailsHardOnUnpublishedLine(t *testing.T) {
	db := setupDB(t)
	published := seedVariant(t, db, models.ProductStatusPublish, 1000, 0, 5)
	draft := seedVariant(t, db, models.ProductStatusDraft, 1000, 0, 5)

	svc := newTestService(db)
	svc.Add(published.ID, published.ProductID, 1)
	svc.Add(draft.ID, draft.ProductID, 1)

	_, err := svc.Items()
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestMergeMirrorsSessionIntoDatabase(t *testing.T) {
	db := setupDB(t)
	user := models.User{Phone: "09120000001"}
	require.NoError(t, db.Create(&user).Error)
	v1 := seedVariant(t, db, models.ProductStatusPublish, 1000, 0, 5)
	v2 := seedVariant(t, db, models.ProductStatusPublish, 1000, 0, 5)

	svc := newTestService(db)
	svc.Add(v1.ID, v1.ProductID, 2)
	svc.Add(v2.ID, v2.ProductID, 1)
	require.NoError(t, svc.Merge(user.ID))

	var items []models.CartItem
	require.NoError(t, db.Find(&items).Error)
	assert.Len(t, items, 2)

	// dropping a line from the session must drop the persisted row too
	svc.Remove(v2.ID)
	require.NoError(t, svc.Merge(user.ID))

	require.NoError(t, db.Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, v1.ID, items[0].ProductVariantID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestSyncPersistedQuantityWins(t *testing.T) {
	db := setupDB(t)
	user := models.User{Phone: "09120000002"}
	require.NoError(t, db.Create(&user).Error)
	v1 := seedVariant(t, db, models.ProductStatusPublish, 1000, 0, 10)
	v2 := seedVariant(t, db, models.ProductStatusPublish, 1000, 0, 10)

	cartRow := models.Cart{UserID: user.ID}
	require.NoError(t, db.Create(&cartRow).Error)
	require.NoError(t, db.Create(&models.CartItem{
		CartID: cartRow.ID, ProductVariantID: v1.ID, Quantity: 4,
	}).Error)

	// anonymous session had v1 with a different quantity, plus v2
	svc := newTestService(db)
	svc.Add(v1.ID, v1.ProductID, 1)
	svc.Add(v2.ID, v2.ProductID, 3)

	require.NoError(t, svc.Sync(user.ID))

	line, ok := svc.Line(v1.ID)
	require.True(t, ok)
	assert.Equal(t, 4, line.Quantity, "persisted quantity overwrites the session line")

	line, ok = svc.Line(v2.ID)
	require.True(t, ok)
	assert.Equal(t, 3, line.Quantity, "session-only lines survive the sync")

	var items []models.CartItem
	require.NoError(t, db.Where("cart_id = ?", cartRow.ID).Find(&items).Error)
	assert.Len(t, items, 2, "merged session is mirrored back to the database")
}

func TestSerializableCartDataKeepsInsertionOrder(t *testing.T) {
	db := setupDB(t)
	v1 := seedVariant(t, db, models.ProductStatusPublish, 1000, 0, 5)
	v2 := seedVariant(t, db, models.ProductStatusPublish, 2000, 0, 5)

	svc := newTestService(db)
	svc.Add(v2.ID, v2.ProductID, 1)
	svc.Add(v1.ID, v1.ProductID, 1)

	payload, err := svc.SerializableCartData(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, payload.CartItems.Len())
	assert.Equal(t, 2, payload.TotalQuantity)

	raw, err := json.Marshal(payload.CartItems)
	require.NoError(t, err)

	firstIdx := strings.Index(string(raw), `"`+Key(v2.ID)+`"`)
	secondIdx := strings.Index(string(raw), `"`+Key(v1.ID)+`"`)
	require.GreaterOrEqual(t, firstIdx, 0)
	require.GreaterOrEqual(t, secondIdx, 0)
	assert.Less(t, firstIdx, secondIdx, "keys must serialize in insertion order")
}
