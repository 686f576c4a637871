package cart

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/arvand-shop/storefront-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrVariantNotFound is returned when a cart line references a variant that
// no longer exists or whose product is not published. Callers must treat it
// as a hard error, not a skippable line.
var ErrVariantNotFound = errors.New("product variant not found or not published")

// ResolveVariant loads a variant whose product is published.
func ResolveVariant(db *gorm.DB, variantID uint) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := db.Preload("Product").First(&variant, "id = ?", variantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}
	if variant.Product.Status != models.ProductStatusPublish {
		return nil, ErrVariantNotFound
	}
	return &variant, nil
}

// Item is a cart line joined with its live variant and per-line totals.
type Item struct {
	Key                       string
	ProductID                 uint
	Quantity                  int
	Variant                   models.ProductVariant
	TotalPriceWithoutDiscount decimal.Decimal
	TotalPriceWithDiscount    decimal.Decimal
	TotalDiscounts            decimal.Decimal
}

// Service composes the session cart with the database: it resolves live
// variants, computes totals, serializes API payloads and keeps the persisted
// cart in sync across login/logout.
type Service struct {
	db      *gorm.DB
	Session *Session
}

func NewService(db *gorm.DB, storage Storage) *Service {
	return &Service{db: db, Session: NewSession(storage)}
}

func (s *Service) Add(variantID, productID uint, quantity int) {
	s.Session.Add(variantID, productID, quantity)
}

func (s *Service) Remove(variantID uint) { s.Session.Remove(variantID) }

func (s *Service) UpdateQuantity(variantID uint, quantity int) {
	s.Session.UpdateQuantity(variantID, quantity)
}

func (s *Service) Clear() { s.Session.Clear() }

func (s *Service) Line(variantID uint) (Line, bool) { return s.Session.Line(variantID) }

func (s *Service) TotalQuantity() int { return s.Session.TotalQuantity() }

// Items re-resolves every stored line against the live catalog.
func (s *Service) Items() ([]Item, error) {
	var items []Item
	for _, key := range s.Session.Keys() {
		line, ok := s.Session.data.Get(key)
		if !ok {
			continue
		}
		variantID, err := ParseKey(key)
		if err != nil {
			return nil, err
		}
		variant, err := ResolveVariant(s.db, variantID)
		if err != nil {
			return nil, err
		}

		quantity := decimal.NewFromInt(int64(line.Quantity))
		withoutDiscount := variant.Price.Mul(quantity)
		withDiscount := variant.FinalPrice().Mul(quantity)

		items = append(items, Item{
			Key:                       key,
			ProductID:                 line.ProductID,
			Quantity:                  line.Quantity,
			Variant:                   *variant,
			TotalPriceWithoutDiscount: withoutDiscount,
			TotalPriceWithDiscount:    withDiscount,
			TotalDiscounts:            withoutDiscount.Sub(withDiscount),
		})
	}
	return items, nil
}

// TotalPaymentAmount sums discounted line totals, plus shipping if given.
func (s *Service) TotalPaymentAmount(shipping *models.ShippingMethod) (decimal.Decimal, error) {
	items, err := s.Items()
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPriceWithDiscount)
	}
	if shipping != nil {
		total = total.Add(shipping.Price)
	}
	return total, nil
}

func (s *Service) TotalAmountWithoutDiscount() (decimal.Decimal, error) {
	items, err := s.Items()
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPriceWithoutDiscount)
	}
	return total, nil
}

func (s *Service) TotalDiscounts() (decimal.Decimal, error) {
	items, err := s.Items()
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalDiscounts)
	}
	return total, nil
}

// Sync pulls the user's persisted cart lines into the session (persisted
// quantities overwrite conflicting session lines), then mirrors the merged
// session back to the database. Called on login.
func (s *Service) Sync(userID uint) error {
	cartRow, err := getOrCreateCart(s.db, userID)
	if err != nil {
		return err
	}

	var items []models.CartItem
	if err := s.db.Preload("ProductVariant").
		Where("cart_id = ?", cartRow.ID).
		Find(&items).Error; err != nil {
		return err
	}
	for _, item := range items {
		s.Session.SetItem(item.ProductVariantID, item.ProductVariant.ProductID, item.Quantity)
	}

	if err := s.Merge(userID); err != nil {
		return err
	}
	s.Session.storage.MarkModified()
	return nil
}

// Merge persists every session line (create-or-update), then deletes any
// persisted line whose variant is no longer in the session, leaving the
// database a mirror of the session. Called on logout and after mutating cart
// calls by authenticated users.
func (s *Service) Merge(userID uint) error {
	cartRow, err := getOrCreateCart(s.db, userID)
	if err != nil {
		return err
	}

	var variantIDs []uint
	for _, key := range s.Session.Keys() {
		variantID, err := ParseKey(key)
		if err != nil {
			return err
		}
		line, ok := s.Session.data.Get(key)
		if !ok {
			continue
		}
		variant, err := ResolveVariant(s.db, variantID)
		if err != nil {
			return err
		}
		variantIDs = append(variantIDs, variant.ID)

		var item models.CartItem
		err = s.db.Where("cart_id = ? AND product_variant_id = ?", cartRow.ID, variant.ID).
			First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = models.CartItem{
				CartID:           cartRow.ID,
				ProductVariantID: variant.ID,
				Quantity:         line.Quantity,
			}
			if err := s.db.Create(&item).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			item.Quantity = line.Quantity
			if err := s.db.Save(&item).Error; err != nil {
				return err
			}
		}
	}

	stale := s.db.Where("cart_id = ?", cartRow.ID)
	if len(variantIDs) > 0 {
		stale = stale.Where("product_variant_id NOT IN ?", variantIDs)
	}
	return stale.Delete(&models.CartItem{}).Error
}

func getOrCreateCart(db *gorm.DB, userID uint) (*models.Cart, error) {
	var cartRow models.Cart
	err := db.Where("user_id = ?", userID).First(&cartRow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cartRow = models.Cart{UserID: userID}
		err = db.Create(&cartRow).Error
	}
	if err != nil {
		return nil, err
	}
	return &cartRow, nil
}

// VariantInfo is the catalog snapshot embedded in cart API responses.
type VariantInfo struct {
	ID              uint    `json:"id"`
	Stock           int     `json:"stock"`
	Price           float64 `json:"price"`
	FinalPrice      float64 `json:"final_price"`
	AttributeValue  string  `json:"attribute_value"`
	ProductName     string  `json:"product_name"`
	ProductImageURL string  `json:"product_image_url"`
}

type ItemPayload struct {
	ProductID                 uint        `json:"product_id"`
	Quantity                  int         `json:"quantity"`
	TotalPriceWithoutDiscount float64     `json:"total_price_without_discount"`
	TotalPriceWithDiscount    float64     `json:"total_price_with_discount"`
	TotalDiscounts            float64     `json:"total_discounts"`
	VariantInfo               VariantInfo `json:"variant_info"`
}

// ItemsPayload serializes as a JSON object whose keys appear in cart
// insertion order.
type ItemsPayload struct {
	keys  []string
	items map[string]ItemPayload
}

func (p ItemsPayload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		value, err := json.Marshal(p.items[key])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p ItemsPayload) Get(key string) (ItemPayload, bool) {
	item, ok := p.items[key]
	return item, ok
}

func (p ItemsPayload) Len() int { return len(p.keys) }

// Payload is the serialized cart attached to every cart API response.
type Payload struct {
	CartItems                  ItemsPayload `json:"cart_items"`
	TotalPaymentAmount         float64      `json:"total_payment_amount"`
	TotalAmountWithoutDiscount float64      `json:"total_amount_without_discount"`
	TotalAmountDiscounts       float64      `json:"total_amount_discounts"`
	TotalQuantity              int          `json:"total_quantity"`
	PriceShippingMethod        *float64     `json:"price_shipping_method,omitempty"`
}

// SerializableCartData builds the API payload, resolving every line against
// the live catalog.
func (s *Service) SerializableCartData(shipping *models.ShippingMethod) (*Payload, error) {
	items, err := s.Items()
	if err != nil {
		return nil, err
	}

	serialized := ItemsPayload{items: make(map[string]ItemPayload)}
	totalPayment := decimal.Zero
	totalWithoutDiscount := decimal.Zero
	totalDiscounts := decimal.Zero

	for _, item := range items {
		serialized.keys = append(serialized.keys, item.Key)
		serialized.items[item.Key] = ItemPayload{
			ProductID:                 item.ProductID,
			Quantity:                  item.Quantity,
			TotalPriceWithoutDiscount: item.TotalPriceWithoutDiscount.InexactFloat64(),
			TotalPriceWithDiscount:    item.TotalPriceWithDiscount.InexactFloat64(),
			TotalDiscounts:            item.TotalDiscounts.InexactFloat64(),
			VariantInfo: VariantInfo{
				ID:              item.Variant.ID,
				Stock:           item.Variant.Stock,
				Price:           item.Variant.Price.InexactFloat64(),
				FinalPrice:      item.Variant.FinalPrice().InexactFloat64(),
				AttributeValue:  item.Variant.AttributeValue,
				ProductName:     item.Variant.Product.Name,
				ProductImageURL: item.Variant.Product.Image,
			},
		}
		totalPayment = totalPayment.Add(item.TotalPriceWithDiscount)
		totalWithoutDiscount = totalWithoutDiscount.Add(item.TotalPriceWithoutDiscount)
		totalDiscounts = totalDiscounts.Add(item.TotalDiscounts)
	}

	payload := &Payload{
		CartItems:                  serialized,
		TotalAmountWithoutDiscount: totalWithoutDiscount.InexactFloat64(),
		TotalAmountDiscounts:       totalDiscounts.InexactFloat64(),
		TotalQuantity:              s.Session.TotalQuantity(),
	}

	if shipping != nil {
		totalPayment = totalPayment.Add(shipping.Price)
		price := shipping.Price.InexactFloat64()
		payload.PriceShippingMethod = &price
	}
	payload.TotalPaymentAmount = totalPayment.InexactFloat64()

	return payload, nil
}
