package models

import "time"

// User is a credentialed account: staff (admin/provider) or a customer login.
type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Role         string `gorm:"size:20;default:'customer'" json:"role"`

	// Set for customer accounts; staff accounts may point at a provider.
	CustomerID *uint `json:"customer_id"`
	ProviderID *uint `json:"provider_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
