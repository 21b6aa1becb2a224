package appointment

import (
	"time"

	"github.com/appointly/scheduler/internal/httperr"
	"github.com/appointly/scheduler/internal/models"
)

// ===============================
// Booking / Appointment Status
// ===============================

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusCanceled Status = "canceled"
	StatusRejected Status = "rejected"
)

func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusCanceled, StatusRejected:
		return true
	}
	return false
}

// IsActive reports whether a booking still occupies slot capacity.
func IsActive(s string) bool {
	return Status(s) == StatusPending || Status(s) == StatusApproved
}

type StatusCounts struct {
	Pending  int
	Approved int
	Canceled int
	Rejected int
}

func CountStatuses(bookings []models.CustomerBooking) StatusCounts {
	var c StatusCounts
	for _, b := range bookings {
		switch Status(b.Status) {
		case StatusPending:
			c.Pending++
		case StatusApproved:
			c.Approved++
		case StatusCanceled:
			c.Canceled++
		case StatusRejected:
			c.Rejected++
		}
	}
	return c
}

// DeriveStatus is the aggregate status function: canceled when no approved or
// pending member remains, approved when the service auto-approves or at least
// one member is approved, pending otherwise. It is the only legal way to set
// an appointment status outside an explicit whole-appointment cancellation,
// and is idempotent for a fixed policy and booking multiset.
func DeriveStatus(autoApprove bool, c StatusCounts) Status {
	if c.Pending+c.Approved == 0 {
		return StatusCanceled
	}
	if autoApprove || c.Approved > 0 {
		return StatusApproved
	}
	return StatusPending
}

// DefaultBookingStatus is the status a fresh booking receives under the
// service's approval policy.
func DefaultBookingStatus(autoApprove bool) Status {
	if autoApprove {
		return StatusApproved
	}
	return StatusPending
}

// InspectMinimumNotice rejects a cancellation or reschedule that lands inside
// the notice window before the booking starts. It must run before any write.
func InspectMinimumNotice(bookingStart, now time.Time, notice time.Duration) error {
	if notice <= 0 {
		return nil
	}
	if now.Add(notice).After(bookingStart) {
		return httperr.ErrBusiness(httperr.CodeMinimumNotice)
	}
	return nil
}
