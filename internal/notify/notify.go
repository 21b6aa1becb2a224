package notify

import (
	"time"

	"github.com/rs/zerolog"
)

// Event kinds emitted after a reservation write commits.
const (
	EventBookingCreated      = "booking_created"
	EventBookingRescheduled  = "booking_rescheduled"
	EventStatusChanged       = "appointment_status_changed"
	EventAppointmentCanceled = "appointment_canceled"
)

type Event struct {
	Kind          string
	AppointmentID uint
	BookingID     uint
	CustomerID    uint
	Status        string
	BookingStart  time.Time
}

// Dispatcher fans out post-commit notification events from a background
// worker. Delivery is best effort; a slow or full queue drops events rather
// than holding the request.
type Dispatcher struct {
	log   zerolog.Logger
	queue chan Event
	done  chan struct{}
}

func NewDispatcher(log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		log:   log,
		queue: make(chan Event, 100),
		done:  make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		d.log.Info().
			Str("event", ev.Kind).
			Uint("appointment_id", ev.AppointmentID).
			Uint("booking_id", ev.BookingID).
			Uint("customer_id", ev.CustomerID).
			Str("status", ev.Status).
			Time("booking_start", ev.BookingStart).
			Msg("notification dispatched")
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	select {
	case d.queue <- ev:
	default:
		d.log.Warn().Str("event", ev.Kind).Msg("notification queue full, dropping event")
	}
}

// Close drains the queue and stops the worker.
func (d *Dispatcher) Close() {
	close(d.queue)
	<-d.done
}
