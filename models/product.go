package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductStatus int

const (
	ProductStatusPublish ProductStatus = 1
	ProductStatusDraft   ProductStatus = 2
)

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Slug      string    `gorm:"size:255;uniqueIndex" json:"slug"`
	ParentID  *uint     `gorm:"index" json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CategoryID  uint           `gorm:"index" json:"category_id"`
	Category    Category       `json:"category,omitempty"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Slug        string         `gorm:"size:255;uniqueIndex" json:"slug"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Status      ProductStatus    `gorm:"default:2;index" json:"status"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	TotalSold   uint             `json:"total_sold"`
	PublishedAt time.Time        `json:"published_at"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

// ProductVariant is the purchasable SKU: a product plus one attribute value
// (size, color, ...) carrying its own price, discount and stock.
type ProductVariant struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ProductID       uint            `gorm:"uniqueIndex:uniq_product_attribute;index" json:"product_id"`
	Product         Product         `json:"product,omitempty"`
	AttributeValue  string          `gorm:"size:255;uniqueIndex:uniq_product_attribute" json:"attribute_value"`
	Price           decimal.Decimal `gorm:"type:decimal(10,0)" json:"price"`
	DiscountPercent int             `gorm:"default:0" json:"discount_percent"` // 0..100
	Stock           int             `gorm:"not null" json:"stock"`             // never negative
}

// FinalPrice is round(price * (100 - discount_percent) / 100).
func (v ProductVariant) FinalPrice() decimal.Decimal {
	return v.Price.
		Mul(decimal.NewFromInt(int64(100 - v.DiscountPercent))).
		Div(decimal.NewFromInt(100)).
		Round(0)
}
