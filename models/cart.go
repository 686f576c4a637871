package models

import "time"

type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"uniqueIndex" json:"user_id"` // one cart per user
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CartID           uint           `gorm:"uniqueIndex:uniq_cart_variant;index" json:"cart_id"`
	ProductVariantID uint           `gorm:"uniqueIndex:uniq_cart_variant" json:"product_variant_id"`
	ProductVariant   ProductVariant `json:"product_variant,omitempty"`
	Quantity         int            `json:"quantity"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
