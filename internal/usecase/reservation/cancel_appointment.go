package reservation

import (
	"context"

	domain "github.com/appointly/scheduler/internal/domain/appointment"
	"github.com/appointly/scheduler/internal/httperr"
	"github.com/appointly/scheduler/internal/models"
)

type CancelAppointmentInput struct {
	AppointmentID uint
}

type CancelAppointmentResult struct {
	Appointment      *models.Appointment
	CanceledBookings int
}

// CancelAppointment force-cancels a whole appointment, member bookings
// included. Staff only; no minimum-notice check applies.
type CancelAppointment struct {
	repo domain.Repository
}

func NewCancelAppointment(repo domain.Repository) *CancelAppointment {
	return &CancelAppointment{repo: repo}
}

func (uc *CancelAppointment) Execute(ctx context.Context, in CancelAppointmentInput) (*CancelAppointmentResult, error) {
	ap, err := uc.repo.GetAppointment(ctx, in.AppointmentID)
	if err != nil {
		return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
	}

	result := &CancelAppointmentResult{Appointment: ap}

	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		for i := range ap.Bookings {
			b := &ap.Bookings[i]
			if !domain.IsActive(b.Status) {
				continue
			}
			if err := tx.UpdateBookingStatus(ctx, b.ID, string(domain.StatusCanceled)); err != nil {
				return err
			}
			b.Status = string(domain.StatusCanceled)
			result.CanceledBookings++
		}

		if ap.Status == string(domain.StatusCanceled) {
			return nil
		}
		if err := tx.UpdateAppointmentStatus(ctx, ap.ID, string(domain.StatusCanceled)); err != nil {
			return err
		}
		ap.Status = string(domain.StatusCanceled)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
