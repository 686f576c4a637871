package models

import "time"

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Phone     string    `gorm:"size:12;uniqueIndex;not null" json:"phone"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Addresses []Address `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
	Orders    []Order   `gorm:"foreignKey:UserID" json:"orders,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Address is a shipping destination. Orders reference addresses with RESTRICT,
// so one that is still attached to an order cannot be deleted.
type Address struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	FirstName  string    `gorm:"size:225" json:"first_name"`
	LastName   string    `gorm:"size:225" json:"last_name"`
	Phone      string    `gorm:"size:12" json:"phone"`
	PostalCode string    `gorm:"size:10" json:"postal_code"`
	Address    string    `json:"address"`
	Province   string    `gorm:"size:300" json:"province"`
	City       string    `gorm:"size:300" json:"city"`
	Plaque     string    `gorm:"size:10" json:"plaque"`
	Unit       *uint     `json:"unit,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a Address) FullName() string {
	return a.FirstName + " " + a.LastName
}
