package reservation

import (
	"context"
	"time"

	domain "github.com/appointly/scheduler/internal/domain/appointment"
	"github.com/appointly/scheduler/internal/httperr"
	"github.com/appointly/scheduler/internal/models"
	"github.com/appointly/scheduler/internal/settings"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type UpdateStatusInput struct {
	BookingID uint
	Status    string

	// Set when a customer (not staff) is asking; staff pass nil.
	RequesterCustomerID *uint
}

type UpdateStatusResult struct {
	Booking     *models.CustomerBooking
	Appointment *models.Appointment

	AppointmentStatusChanged bool
}

// ======================================================
// USE CASE
// ======================================================

type UpdateStatus struct {
	repo     domain.Repository
	settings *settings.Reader
	now      func() time.Time
}

func NewUpdateStatus(repo domain.Repository, reader *settings.Reader) *UpdateStatus {
	return &UpdateStatus{
		repo:     repo,
		settings: reader,
		now:      time.Now,
	}
}

// Execute changes one booking's status and re-derives the parent appointment
// status from the resulting multiset. Customers may only cancel their own
// bookings; staff may set any valid status.
func (uc *UpdateStatus) Execute(ctx context.Context, in UpdateStatusInput) (*UpdateStatusResult, error) {
	if !domain.ValidStatus(in.Status) {
		return nil, httperr.ErrBusiness(httperr.CodeInvalidStatus)
	}
	status := domain.Status(in.Status)

	ap, err := uc.repo.GetAppointmentByBookingID(ctx, in.BookingID)
	if err != nil {
		return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
	}

	booking := findBooking(ap, in.BookingID)
	if booking == nil {
		return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
	}

	if in.RequesterCustomerID != nil {
		if booking.CustomerID != *in.RequesterCustomerID {
			return nil, httperr.ErrBusiness(httperr.CodeForbidden)
		}
		if status != domain.StatusCanceled {
			return nil, httperr.ErrBusiness(httperr.CodeForbidden)
		}

		vals, err := uc.settings.Load(ctx)
		if err != nil {
			return nil, err
		}
		if err := domain.InspectMinimumNotice(ap.BookingStart, uc.now(), vals.MinimumCancelNotice); err != nil {
			return nil, err
		}
	}

	service, err := uc.repo.GetService(ctx, ap.ServiceID)
	if err != nil {
		return nil, httperr.ErrBusiness(httperr.CodeServiceNotFound)
	}

	result := &UpdateStatusResult{Appointment: ap}

	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		if err := tx.UpdateBookingStatus(ctx, booking.ID, string(status)); err != nil {
			return err
		}
		booking.Status = string(status)

		for i := range ap.Bookings {
			if ap.Bookings[i].ID == booking.ID {
				ap.Bookings[i].Status = string(status)
			}
		}

		derived := domain.DeriveStatus(service.AutoApprove, domain.CountStatuses(ap.Bookings))
		if string(derived) == ap.Status {
			return nil
		}

		if err := tx.UpdateAppointmentStatus(ctx, ap.ID, string(derived)); err != nil {
			return err
		}
		ap.Status = string(derived)
		result.AppointmentStatusChanged = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Booking = booking
	return result, nil
}
