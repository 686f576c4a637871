package models

import "time"

// Notification is an in-app message created by domain-event handlers, e.g.
// when an order's status changes.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"size:255" json:"title"`
	Body      string    `json:"body"`
	Seen      bool      `gorm:"default:false" json:"seen"`
	CreatedAt time.Time `json:"created_at"`
}
