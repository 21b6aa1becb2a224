package models

import "time"

const (
	StatusVisible = "visible"
	StatusHidden  = "hidden"
)

type Location struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:100;not null" json:"name"`
	Address string `gorm:"size:255" json:"address"`
	Status  string `gorm:"size:20;default:'visible'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
