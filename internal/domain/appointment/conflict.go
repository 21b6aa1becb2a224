package appointment

import (
	"context"
	"time"

	"github.com/appointly/scheduler/internal/models"
)

// ===============================
// Slot Conflict Checker
// ===============================

type ExtraSelection struct {
	ID       uint `json:"id"`
	Quantity int  `json:"quantity"`
}

type SlotQuery struct {
	ServiceID  uint
	ProviderID uint
	Start      time.Time

	Extras []ExtraSelection

	// Booking to ignore when counting occupancy (set while rescheduling).
	ExcludeBookingID *uint

	Persons         int
	EnforceCapacity bool
}

type SlotChecker struct {
	repo Repository
}

func NewSlotChecker(repo Repository) *SlotChecker {
	return &SlotChecker{repo: repo}
}

// IsSlotFree decides whether the candidate slot can take the requested
// booking. A full or overlapped slot answers false; errors are reserved for
// storage failures.
func (c *SlotChecker) IsSlotFree(ctx context.Context, q SlotQuery) (bool, error) {
	service, err := c.repo.GetProviderService(ctx, q.ServiceID, q.ProviderID)
	if err != nil {
		return false, err
	}
	if service == nil {
		// Provider does not offer the service at all.
		return false, nil
	}

	duration := time.Duration(service.Duration) * time.Second
	for _, sel := range q.Extras {
		if extra, ok := ExtraByID(service, sel.ID); ok {
			duration += time.Duration(extra.Duration) * time.Second
		}
	}
	end := q.Start.Add(duration)

	existing, err := c.repo.ListAppointmentsOverlapping(ctx, q.ProviderID, q.Start, end)
	if err != nil {
		return false, err
	}

	for i := range existing {
		ap := &existing[i]

		if !IsActive(ap.Status) {
			continue
		}

		if ap.ServiceID == q.ServiceID && ap.BookingStart.Equal(q.Start) {
			// Same slot: bookings merge, subject to capacity.
			if !q.EnforceCapacity || service.MaxCapacity <= 0 {
				continue
			}
			persons := q.Persons
			for _, b := range ap.Bookings {
				if !IsActive(b.Status) {
					continue
				}
				if q.ExcludeBookingID != nil && b.ID == *q.ExcludeBookingID {
					continue
				}
				persons += b.Persons
			}
			if persons > service.MaxCapacity {
				return false, nil
			}
			continue
		}

		// Different slot overlapping in time: the provider is already busy,
		// unless the only live occupant is the excluded booking itself.
		if q.ExcludeBookingID != nil && onlyBooking(ap, *q.ExcludeBookingID) {
			continue
		}
		return false, nil
	}

	return true, nil
}

func onlyBooking(ap *models.Appointment, bookingID uint) bool {
	for _, b := range ap.Bookings {
		if !IsActive(b.Status) {
			continue
		}
		if b.ID != bookingID {
			return false
		}
	}
	return true
}
