package appointment

import (
	"time"

	"github.com/appointly/scheduler/internal/models"
)

// ===============================
// Reservation Aggregate
// ===============================

// Kind is the closed set of bookable reservation kinds. Only appointments are
// scheduled by this engine; events share the Bookable capability surface and
// are resolved once at construction.
type Kind string

const (
	KindAppointment Kind = "appointment"
	KindEvent       Kind = "event"
)

// Bookable is the capability surface the engine programs against instead of
// inspecting concrete bookable types.
type Bookable interface {
	BookableName() string
	BookableDuration() time.Duration
	BookableExtras() []models.ServiceExtra
}

// ServiceBookable adapts a Service to the Bookable surface.
type ServiceBookable struct {
	Service *models.Service
}

func (s ServiceBookable) BookableName() string { return s.Service.Name }

func (s ServiceBookable) BookableDuration() time.Duration {
	return time.Duration(s.Service.Duration) * time.Second
}

func (s ServiceBookable) BookableExtras() []models.ServiceExtra { return s.Service.Extras }

// Reservation is the transient, request-scoped bundle built per booking
// action and discarded after the response. It is never persisted.
type Reservation struct {
	Kind        Kind
	Appointment *models.Appointment
	Booking     *models.CustomerBooking
	Bookable    Bookable
	Customer    *models.Customer

	// True when committing this reservation changed the owning appointment's
	// aggregate status; the caller uses it to decide whether notifications
	// are warranted.
	StatusChanged bool

	Recurring []*Reservation
}
