package models

import "time"

type Provider struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name  string `gorm:"size:100;not null" json:"name"`
	Email string `gorm:"size:100;uniqueIndex" json:"email"`
	Phone string `gorm:"size:20" json:"phone"`

	LocationID *uint     `json:"location_id"`
	Location   *Location `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	Status string `gorm:"size:20;default:'visible'" json:"status"`

	Capabilities []ProviderService `gorm:"foreignKey:ProviderID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProviderService is one row of the sparse relation index. A (provider,
// service) pair may appear with several location rows, or with a single
// NULL-location row when the pairing carries no fixed location constraint.
type ProviderService struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ProviderID uint  `gorm:"index:idx_provider_service" json:"provider_id"`
	ServiceID  uint  `gorm:"index:idx_provider_service" json:"service_id"`
	LocationID *uint `json:"location_id"`

	CreatedAt time.Time `json:"created_at"`
}
