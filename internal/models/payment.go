package models

import "time"

// Payment records what a booking owes and through which gateway; gateway
// processing itself happens outside this core.
type Payment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CustomerBookingID uint `gorm:"index" json:"customer_booking_id"`

	Amount  float64 `json:"amount"`
	Gateway string  `gorm:"size:40;default:'onSite'" json:"gateway"`
	Status  string  `gorm:"size:20;default:'pending'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
