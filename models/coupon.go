package models

import (
	"time"

	"gorm.io/gorm"
)

type Coupon struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	Code            string        `gorm:"size:100;uniqueIndex;not null" json:"code"`
	DiscountPercent int           `gorm:"default:0" json:"discount_percent"` // 0..100
	MaxLimitUsage   uint          `gorm:"default:10" json:"max_limit_usage"`
	IsActive        bool          `gorm:"default:true" json:"is_active"`
	ExpiresAt       time.Time     `json:"expires_at"`
	Usages          []CouponUsage `gorm:"foreignKey:CouponID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// CouponUsage records one redemption; the (coupon, user) pair is unique so a
// user can use a code at most once.
type CouponUsage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CouponID  uint      `gorm:"uniqueIndex:uniq_coupon_user" json:"coupon_id"`
	UserID    uint      `gorm:"uniqueIndex:uniq_coupon_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks activation, expiry, overall capacity and per-user single
// use. It never mutates state; the returned message is user-facing.
func (c *Coupon) Validate(db *gorm.DB, userID uint, now time.Time) (bool, string) {
	if !c.IsActive {
		return false, "this coupon is not active"
	}
	if !now.Before(c.ExpiresAt) {
		return false, "this coupon has expired"
	}

	var used int64
	if err := db.Model(&CouponUsage{}).Where("coupon_id = ?", c.ID).Count(&used).Error; err != nil {
		return false, "could not validate coupon"
	}
	if used >= int64(c.MaxLimitUsage) {
		return false, "this coupon has reached its usage limit"
	}

	var mine int64
	if err := db.Model(&CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", c.ID, userID).
		Count(&mine).Error; err != nil {
		return false, "could not validate coupon"
	}
	if mine > 0 {
		return false, "you have already used this coupon"
	}

	return true, "coupon applied successfully"
}
