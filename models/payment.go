package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus int

const (
	PaymentStatusPending PaymentStatus = 1
	PaymentStatusSuccess PaymentStatus = 2
	PaymentStatusFailed  PaymentStatus = 3
)

// PaymentWindow is how long a payment may stay pending: the gateway callback
// must verify within it, and the expiry sweep reclaims stock after it.
const PaymentWindow = 11 * time.Minute

// PaymentGateway is static reference data describing one configured provider.
type PaymentGateway struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	DisplayName string `gorm:"size:100" json:"display_name"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	SortOrder   uint   `gorm:"default:0" json:"sort_order"`
	Config      string `gorm:"type:text" json:"-"` // provider-specific JSON blob
}

// Payment is one attempt to collect an order's amount through a gateway. A
// repaid order accumulates multiple rows; each row moves PENDING -> SUCCESS
// or PENDING -> FAILED exactly once.
type Payment struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	GatewayID    uint            `gorm:"not null" json:"gateway_id"`
	Gateway      PaymentGateway  `json:"gateway,omitempty"`
	OrderID      uint            `gorm:"index;not null" json:"order_id"`
	Order        Order           `json:"-"`
	UserID       *uint           `json:"user_id,omitempty"`
	AuthorityID  string          `gorm:"size:255;index" json:"authority_id"`
	RefID        *int64          `json:"ref_id,omitempty"`
	Amount       decimal.Decimal `gorm:"type:decimal(10,0)" json:"amount"`
	ResponseJSON string          `gorm:"type:text" json:"-"`
	ResponseCode *int            `json:"response_code,omitempty"`
	Status       PaymentStatus   `gorm:"default:1;index" json:"status"`
	Description  string          `json:"description"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ExpiredAt is the end of this payment's verification window.
func (p Payment) ExpiredAt() time.Time {
	return p.CreatedAt.Add(PaymentWindow)
}

func (p Payment) Expired(now time.Time) bool {
	return now.After(p.ExpiredAt())
}

// SeedGateways inserts the known gateways if they are missing. Safe to run on
// every startup.
func SeedGateways(db *gorm.DB) error {
	gateways := []PaymentGateway{
		{Name: "zarinpal", DisplayName: "ZarinPal", IsActive: true, SortOrder: 1},
	}
	for _, gw := range gateways {
		var existing PaymentGateway
		err := db.Where("name = ?", gw.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&gw).Error; err != nil {
			return err
		}
	}
	return nil
}
