package models

import "time"

type Category struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Position int    `gorm:"default:0" json:"position"`

	Services []Service `gorm:"foreignKey:CategoryID" json:"service_list"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Service struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	CategoryID uint     `gorm:"index" json:"category_id"`
	Category   Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	Name        string  `gorm:"size:100;not null" json:"name"`
	Description string  `gorm:"size:255" json:"description"`
	Duration    int     `json:"duration"` // seconds
	Price       float64 `json:"price"`
	Status      string  `gorm:"size:20;default:'visible'" json:"status"`

	// Slot policy. MaxCapacity <= 0 means unlimited persons per slot.
	MaxCapacity     int  `gorm:"default:1" json:"max_capacity"`
	AutoApprove     bool `gorm:"default:false" json:"auto_approve"`
	AggregatedPrice bool `gorm:"default:true" json:"aggregated_price"`

	// Number of leading recurring occurrences charged through the gateway;
	// occurrences past this threshold are paid on site.
	RecurringPayment int `gorm:"default:0" json:"recurring_payment"`

	Extras []ServiceExtra `gorm:"foreignKey:ServiceID" json:"extras"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ServiceExtra struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ServiceID uint `gorm:"index" json:"service_id"`

	Name     string  `gorm:"size:100;not null" json:"name"`
	Duration int     `json:"duration"` // seconds, added to the service duration
	Price    float64 `json:"price"`
	Position int     `gorm:"default:0" json:"position"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
