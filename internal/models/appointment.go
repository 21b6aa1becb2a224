package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ServiceID uint    `gorm:"uniqueIndex:idx_appointments_slot" json:"service_id"`
	Service   Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	ProviderID uint     `gorm:"uniqueIndex:idx_appointments_slot" json:"provider_id"`
	Provider   Provider `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	LocationID *uint `json:"location_id"`

	// UTC instants. The unique slot index is the storage-level guard against
	// two appointments materializing for the same (provider, service, start).
	BookingStart time.Time `gorm:"uniqueIndex:idx_appointments_slot" json:"booking_start"`
	BookingEnd   time.Time `json:"booking_end"`

	Status      string `gorm:"size:20;default:'pending'" json:"status"`
	Rescheduled bool   `gorm:"default:false" json:"rescheduled"`

	// Anchor occurrence of a recurring chain.
	ParentID *uint `json:"parent_id"`

	// Owned by the external calendar/meeting collaborators; opaque here.
	GoogleCalendarEventID  *string `gorm:"size:255" json:"google_calendar_event_id"`
	OutlookCalendarEventID *string `gorm:"size:255" json:"outlook_calendar_event_id"`
	ZoomMeetingID          *string `gorm:"size:255" json:"zoom_meeting_id"`

	Bookings []CustomerBooking `gorm:"foreignKey:AppointmentID" json:"bookings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CustomerBooking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	AppointmentID uint `gorm:"index" json:"appointment_id"`

	CustomerID uint     `gorm:"index" json:"customer_id"`
	Customer   Customer `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"customer"`

	Status  string  `gorm:"size:20;default:'pending'" json:"status"`
	Price   float64 `json:"price"`
	Persons int     `gorm:"default:1" json:"persons"`

	// Minutes east of UTC for the customer's local clock; nil when the
	// tenant timezone applies.
	UtcOffset *int `json:"utc_offset"`

	Token        string `gorm:"size:40;uniqueIndex" json:"token"`
	CustomFields string `gorm:"type:text" json:"custom_fields"`

	// Set when the booking consumes a purchased package entitlement.
	PackageCustomerServiceID *uint `json:"package_customer_service_id"`

	Extras []CustomerBookingExtra `gorm:"foreignKey:CustomerBookingID" json:"extras"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CustomerBookingExtra struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CustomerBookingID uint `gorm:"index" json:"customer_booking_id"`
	ExtraID           uint `json:"extra_id"`

	Quantity int     `gorm:"default:1" json:"quantity"`
	Price    float64 `json:"price"`

	CreatedAt time.Time `json:"created_at"`
}
