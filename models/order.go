package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus int

const (
	OrderStatusPending OrderStatus = 1 // awaiting payment
	OrderStatusSuccess OrderStatus = 2 // paid
	OrderStatusFailed  OrderStatus = 3 // cancelled / payment failed
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "PENDING"
	case OrderStatusSuccess:
		return "SUCCESS"
	case OrderStatusFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// FulfillmentStatus is the post-payment logistics stage, independent of the
// payment-driven order status.
type FulfillmentStatus int

const (
	FulfillmentPendingApproval FulfillmentStatus = 1
	FulfillmentProcessing      FulfillmentStatus = 2
	FulfillmentShipped         FulfillmentStatus = 3
	FulfillmentDelivered       FulfillmentStatus = 4
	FulfillmentReturned        FulfillmentStatus = 5
)

type ShippingMethod struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	Price         decimal.Decimal `gorm:"type:decimal(10,0)" json:"price"`
	EstimatedDays uint            `json:"estimated_days"`
}

type Order struct {
	ID               uint               `gorm:"primaryKey" json:"id"`
	UserID           uint               `gorm:"index;not null" json:"user_id"`
	User             User               `json:"user,omitempty"`
	AddressID        uint               `gorm:"not null" json:"address_id"`
	Address          Address            `gorm:"constraint:OnDelete:RESTRICT" json:"address,omitempty"`
	ShippingMethodID *uint              `json:"shipping_method_id,omitempty"`
	ShippingMethod   *ShippingMethod    `json:"shipping_method,omitempty"`
	CouponID         *uint              `json:"coupon_id,omitempty"`
	Coupon           *Coupon            `json:"coupon,omitempty"`
	TotalPrice       decimal.Decimal    `gorm:"type:decimal(10,0)" json:"total_price"`
	TrackingNumber   *string            `gorm:"size:30;uniqueIndex" json:"tracking_number,omitempty"`
	Status           OrderStatus        `gorm:"default:1;index" json:"status"`
	Fulfillment      *FulfillmentStatus `gorm:"column:fulfillment_status" json:"fulfillment_status,omitempty"`
	Items            []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payments         []Payment          `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// BeforeSave moves a freshly paid order into the fulfillment pipeline: once
// status becomes SUCCESS on an existing row and no fulfillment stage has been
// set yet, it starts at PENDING_APPROVAL.
func (o *Order) BeforeSave(tx *gorm.DB) error {
	if o.Status == OrderStatusSuccess && o.Fulfillment == nil && o.ID != 0 {
		s := FulfillmentPendingApproval
		o.Fulfillment = &s
	}
	return nil
}

// CalculateTotalPrice sums the snapshot line totals (variant discounts
// applied, coupon not applied).
func (o *Order) CalculateTotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.FinalPrice().Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ItemsBaseTotal sums the snapshot line totals before any variant discount.
func (o *Order) ItemsBaseTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalBasePrice())
	}
	return total
}

// ItemsDiscount is what the variant discounts shaved off across all lines,
// independent of any coupon.
func (o *Order) ItemsDiscount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalDiscounts())
	}
	return total
}

// CouponDiscount is round(total * percent / 100), applied once on the
// aggregate rather than per line.
func (o *Order) CouponDiscount() decimal.Decimal {
	if o.Coupon == nil {
		return decimal.Zero
	}
	return o.TotalPrice.
		Mul(decimal.NewFromInt(int64(o.Coupon.DiscountPercent))).
		Div(decimal.NewFromInt(100)).
		Round(0)
}

// FinalPrice is the coupon-adjusted total.
func (o *Order) FinalPrice() decimal.Decimal {
	return o.TotalPrice.Sub(o.CouponDiscount())
}

// Amount is what the gateway is asked to collect: final price plus shipping.
func (o *Order) Amount() decimal.Decimal {
	amount := o.FinalPrice()
	if o.ShippingMethod != nil {
		amount = amount.Add(o.ShippingMethod.Price)
	}
	return amount
}

// OrderItem snapshots the variant's price and discount at order-creation
// time, decoupling the order from later catalog changes.
type OrderItem struct {
	ID                     uint            `gorm:"primaryKey" json:"id"`
	OrderID                uint            `gorm:"index" json:"order_id"`
	ProductVariantID       uint            `json:"product_variant_id"`
	ProductVariant         ProductVariant  `json:"product_variant,omitempty"`
	Quantity               int             `json:"quantity"`
	BasePrice              decimal.Decimal `gorm:"type:decimal(10,0)" json:"base_price"`
	VariantDiscountPercent int             `gorm:"default:0" json:"variant_discount_percent"`
	CreatedAt              time.Time       `json:"created_at"`
}

// FinalPrice is round(base_price * (1 - discount/100)) on the snapshot values.
func (i OrderItem) FinalPrice() decimal.Decimal {
	return i.BasePrice.
		Mul(decimal.NewFromInt(int64(100 - i.VariantDiscountPercent))).
		Div(decimal.NewFromInt(100)).
		Round(0)
}

func (i OrderItem) TotalBasePrice() decimal.Decimal {
	return i.BasePrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i OrderItem) TotalDiscounts() decimal.Decimal {
	return i.TotalBasePrice().Sub(i.FinalPrice().Mul(decimal.NewFromInt(int64(i.Quantity))))
}
