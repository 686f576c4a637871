package services

import (
	"errors"
	"time"

	"github.com/arvand-shop/storefront-api/models"
	"gorm.io/gorm"
)

type CouponService struct {
	db *gorm.DB
}

func NewCouponService(db *gorm.DB) *CouponService {
	return &CouponService{db: db}
}

// ApplyCoupon validates an active coupon by code and, when valid, attaches it
// to the order and records the usage in the same transaction. Returns a
// tagged ("success"/"error", message) pair; an invalid or missing coupon
// never mutates state.
func (s *CouponService) ApplyCoupon(order *models.Order, code string) (string, string) {
	var coupon models.Coupon
	err := s.db.Where("code = ? AND is_active = ?", code, true).First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "error", "coupon not found"
		}
		return "error", "could not look up coupon"
	}

	valid, message := coupon.Validate(s.db, order.UserID, time.Now())
	if !valid {
		return "error", message
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		order.CouponID = &coupon.ID
		order.Coupon = &coupon
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		usage := models.CouponUsage{CouponID: coupon.ID, UserID: order.UserID}
		return tx.Create(&usage).Error
	})
	if err != nil {
		order.CouponID = nil
		order.Coupon = nil
		return "error", "could not apply coupon"
	}

	return "success", message
}
