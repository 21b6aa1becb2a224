package models

import "time"

type Setting struct {
	Key   string `gorm:"primaryKey;size:100" json:"key"`
	Value string `gorm:"size:255" json:"value"`

	UpdatedAt time.Time `json:"updated_at"`
}
