package appointment

import (
	"time"

	"github.com/appointly/scheduler/internal/models"
)

// ===============================
// Domain Calculations
// ===============================

func ExtraByID(service *models.Service, extraID uint) (*models.ServiceExtra, bool) {
	for i := range service.Extras {
		if service.Extras[i].ID == extraID {
			return &service.Extras[i], true
		}
	}
	return nil, false
}

// BookingDuration is the service duration plus the durations of the selected
// extras.
func BookingDuration(service *models.Service, extras []models.CustomerBookingExtra) time.Duration {
	seconds := service.Duration
	for _, be := range extras {
		if extra, ok := ExtraByID(service, be.ExtraID); ok {
			seconds += extra.Duration
		}
	}
	return time.Duration(seconds) * time.Second
}

// AppointmentLength is the longest member booking's duration; the appointment
// interval must cover every participant's extras.
func AppointmentLength(service *models.Service, bookings []models.CustomerBooking) time.Duration {
	length := time.Duration(service.Duration) * time.Second
	for _, b := range bookings {
		if d := BookingDuration(service, b.Extras); d > length {
			length = d
		}
	}
	return length
}

// PaymentAmount prices one booking against the current service: the base
// price is multiplied by persons when the service aggregates price, and each
// extra is charged per quantity (again per person when aggregated).
func PaymentAmount(service *models.Service, booking *models.CustomerBooking) float64 {
	persons := booking.Persons
	if persons < 1 {
		persons = 1
	}

	amount := service.Price
	if service.AggregatedPrice {
		amount *= float64(persons)
	}

	for _, be := range booking.Extras {
		quantity := be.Quantity
		if quantity < 1 {
			quantity = 1
		}
		extraAmount := be.Price * float64(quantity)
		if service.AggregatedPrice {
			extraAmount *= float64(persons)
		}
		amount += extraAmount
	}

	return amount
}
