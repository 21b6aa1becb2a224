package models

import "time"

type Package struct {
	ID     uint    `gorm:"primaryKey" json:"id"`
	Name   string  `gorm:"size:100;not null" json:"name"`
	Status string  `gorm:"size:20;default:'visible'" json:"status"`
	Price  float64 `json:"price"`

	Bookables []PackageBookable `gorm:"foreignKey:PackageID" json:"bookable"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PackageBookable is one line item of a package: a service plus optional
// pinned providers/locations. Empty pins mean "any provider/location that the
// relation index allows for the service".
type PackageBookable struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	PackageID uint `gorm:"index" json:"package_id"`

	ServiceID uint    `json:"service_id"`
	Service   Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"service"`

	MinimumScheduled int `gorm:"default:0" json:"minimum_scheduled"`
	MaximumScheduled int `gorm:"default:0" json:"maximum_scheduled"`

	Providers []Provider `gorm:"many2many:package_bookable_providers" json:"providers"`
	Locations []Location `gorm:"many2many:package_bookable_locations" json:"locations"`

	CreatedAt time.Time `json:"created_at"`
}

// PackageCustomer is a purchased package entitlement.
type PackageCustomer struct {
	ID uint `gorm:"primaryKey" json:"id"`

	PackageID  uint `gorm:"index" json:"package_id"`
	CustomerID uint `gorm:"index" json:"customer_id"`

	End *time.Time `json:"end"`

	Services []PackageCustomerService `gorm:"foreignKey:PackageCustomerID" json:"services"`

	CreatedAt time.Time `json:"created_at"`
}

// PackageCustomerService tracks how many bookings of one service a purchased
// package still covers.
type PackageCustomerService struct {
	ID uint `gorm:"primaryKey" json:"id"`

	PackageCustomerID uint `gorm:"index" json:"package_customer_id"`
	ServiceID         uint `json:"service_id"`

	BookingsAllowed int `gorm:"default:0" json:"bookings_allowed"`

	CreatedAt time.Time `json:"created_at"`
}
