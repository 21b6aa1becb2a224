package models

import "time"

type Customer struct {
	ID uint `gorm:"primaryKey" json:"id"`

	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100" json:"last_name"`
	Email     string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone     string `gorm:"size:20" json:"phone"`
	Status    string `gorm:"size:20;default:'visible'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
