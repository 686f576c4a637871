package cartControllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/arvand-shop/storefront-api/cache"
	"github.com/arvand-shop/storefront-api/cart"
	"github.com/arvand-shop/storefront-api/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
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
		&models.ShippingMethod{},
	))

	store := cart.NewSessionStore(cache.NewMemory(), time.Hour)

	r := gin.New()
	r.GET("/cart", GetCart(db, store))
	r.POST("/cart/add", AddItem(db, store))
	r.POST("/cart/update", UpdateQuantity(db, store))
	r.POST("/cart/remove", RemoveItem(db, store))
	r.POST("/cart/clear", ClearCart(db, store))
	return r, db
}

func seedVariant(t *testing.T, db *gorm.DB, price int64, discount, stock int) *models.ProductVariant {
	t.Helper()
	product := models.Product{Name: "shirt", Slug: uuid.NewString(), Status: models.ProductStatusPublish}
	require.NoError(t, db.Create(&product).Error)
	variant := models.ProductVariant{
		ProductID:       product.ID,
		AttributeValue:  "default",
		Price:           decimal.NewFromInt(price),
		DiscountPercent: discount,
		Stock:           stock,
	}
	require.NoError(t, db.Create(&variant).Error)
	return &variant
}

func postForm(r *gin.Engine, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func addForm(variant *models.ProductVariant, quantity int) url.Values {
	return url.Values{
		"product_id": {strconv.Itoa(int(variant.ProductID))},
		"variant_id": {strconv.Itoa(int(variant.ID))},
		"quantity":   {strconv.Itoa(quantity)},
	}
}

func TestAddItemSetsSessionCookie(t *testing.T) {
	r, db := setupRouter(t)
	v := seedVariant(t, db, 100000, 10, 5)

	w := postForm(r, "/cart/add", addForm(v, 2), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(2), body["total_quantity"])
	assert.Equal(t, float64(180000), body["total_payment_amount"])

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "cart_session", cookies[0].Name)
}

func TestAddItemAccumulatesAcrossRequests(t *testing.T) {
	r, db := setupRouter(t)
	v := seedVariant(t, db, 1000, 0, 10)

	first := postForm(r, "/cart/add", addForm(v, 2), nil)
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()

	second := postForm(r, "/cart/add", addForm(v, 3), cookies)
	require.Equal(t, http.StatusOK, second.Code)

	body := decode(t, second)
	assert.Equal(t, float64(5), body["total_quantity"])
}

func TestAddItemRejectsOverStock(t *testing.T) {
	r, db := setupRouter(t)
	v := seedVariant(t, db, 1000, 0, 3)

	w := postForm(r, "/cart/add", addForm(v, 4), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", decode(t, w)["status"])
}

func TestAddItemRejectsCumulativeOverStock(t *testing.T) {
	r, db := setupRouter(t)
	v := seedVariant(t, db, 1000, 0, 3)

	first := postForm(r, "/cart/add", addForm(v, 2), nil)
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()

	// 2 already in the cart, 2 more would exceed the 3 in stock
	second := postForm(r, "/cart/add", addForm(v, 2), cookies)
	assert.Equal(t, http.StatusBadRequest, second.Code)
}

func TestUpdateQuantityClampsToStock(t *testing.T) {
	r, db := setupRouter(t)
	v := seedVariant(t, db, 1000, 0, 10)

	first := postForm(r, "/cart/add", addForm(v, 2), nil)
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()

	// shrink the stock under the requested quantity
	require.NoError(t, db.Model(&models.ProductVariant{}).
		Where("id = ?", v.ID).Update("stock", 4).Error)

	form := url.Values{
		"variant_id": {strconv.Itoa(int(v.ID))},
		"quantity":   {"8"},
	}
	w := postForm(r, "/cart/update", form, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "error", body["status"], "clamping reports an error status with the corrected cart")
	assert.Equal(t, float64(4), body["total_quantity"])
}

func TestRemoveMissingItemSucceedsSilently(t *testing.T) {
	r, db := setupRouter(t)
	seedVariant(t, db, 1000, 0, 10)

	form := url.Values{"variant_id": {"42"}}
	w := postForm(r, "/cart/remove", form, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", decode(t, w)["status"])
}

func TestGetCartWithShippingMethod(t *testing.T) {
	r, db := setupRouter(t)
	v := seedVariant(t, db, 50000, 0, 10)
	method := models.ShippingMethod{Name: "post", Price: decimal.NewFromInt(15000)}
	require.NoError(t, db.Create(&method).Error)

	first := postForm(r, "/cart/add", addForm(v, 1), nil)
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()

	req := httptest.NewRequest(http.MethodGet, "/cart?shipping_method_id="+strconv.Itoa(int(method.ID)), nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(65000), body["total_payment_amount"])
	assert.Equal(t, float64(15000), body["price_shipping_method"])
}

func TestGetCartReportsGoneVariant(t *testing.T) {
	r, db := setupRouter(t)
	v := seedVariant(t, db, 1000, 0, 10)

	first := postForm(r, "/cart/add", addForm(v, 1), nil)
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()

	// the product is withdrawn while it sits in the cart
	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", v.ProductID).Update("status", models.ProductStatusDraft).Error)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
