package services

import (
	"testing"

	"github.com/arvand-shop/storefront-api/models"
	"github.com/shopspring/decimal"
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
		&models.Address{},
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Cart{},
		&models.CartItem{},
		&models.ShippingMethod{},
		&models.Order{},
		&models.OrderItem{},
		&models.Coupon{},
		&models.CouponUsage{},
		&models.PaymentGateway{},
		&models.Payment{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, phone string) *models.User {
	t.Helper()
	user := models.User{Phone: phone}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedVariant(t *testing.T, db *gorm.DB, name string, price int64, discount, stock int) *models.ProductVariant {
	t.Helper()
	product := models.Product{Name: name, Slug: name, Status: models.ProductStatusPublish}
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

func seedCart(t *testing.T, db *gorm.DB, userID uint, lines map[uint]int) *models.Cart {
	t.Helper()
	cartRow := models.Cart{UserID: userID}
	require.NoError(t, db.Create(&cartRow).Error)
	for variantID, quantity := range lines {
		require.NoError(t, db.Create(&models.CartItem{
			CartID:           cartRow.ID,
			ProductVariantID: variantID,
			Quantity:         quantity,
		}).Error)
	}
	return &cartRow
}

func seedOrder(t *testing.T, db *gorm.DB, userID uint, status models.OrderStatus) *models.Order {
	t.Helper()
	address := models.Address{UserID: userID, FirstName: "a", LastName: "b"}
	require.NoError(t, db.Create(&address).Error)
	order := models.Order{UserID: userID, AddressID: address.ID, Status: status}
	require.NoError(t, db.Create(&order).Error)
	return &order
}
