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

type ReassignInput struct {
	BookingID    uint
	BookingStart time.Time // UTC

	// Set when a customer (not staff) is asking; staff pass nil.
	RequesterCustomerID *uint
}

type ReassignResult struct {
	Booking             *models.CustomerBooking
	OldAppointment      *models.Appointment
	NewAppointment      *models.Appointment
	ExistingAppointment *models.Appointment

	OldAppointmentStatusChanged      bool
	ExistingAppointmentStatusChanged bool
}

// ======================================================
// USE CASE
// ======================================================

type Reassign struct {
	repo     domain.Repository
	settings *settings.Reader
	now      func() time.Time
}

func NewReassign(repo domain.Repository, reader *settings.Reader) *Reassign {
	return &Reassign{
		repo:     repo,
		settings: reader,
		now:      time.Now,
	}
}

// Execute moves one booking to a new start time. Three mutually exclusive
// outcomes, in precedence order: retime the appointment in place when it
// holds only this booking and the target slot is empty; detach and merge
// into the appointment already occupying the target slot; otherwise create a
// new appointment for the booking, copying the old one's fields but never
// its external-sync ids. The origin and destination writes share one
// transaction.
func (uc *Reassign) Execute(ctx context.Context, in ReassignInput) (*ReassignResult, error) {
	vals, err := uc.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	oldAp, err := uc.repo.GetAppointmentByBookingID(ctx, in.BookingID)
	if err != nil {
		return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
	}

	booking := findBooking(oldAp, in.BookingID)
	if booking == nil {
		return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
	}

	// Authorization precedes any business logic.
	if in.RequesterCustomerID != nil {
		if !vals.AllowCustomerReschedule {
			return nil, httperr.ErrBusiness(httperr.CodeRescheduleNotAllowed)
		}
		if booking.CustomerID != *in.RequesterCustomerID {
			return nil, httperr.ErrBusiness(httperr.CodeForbidden)
		}
	}

	service, err := uc.repo.GetProviderService(ctx, oldAp.ServiceID, oldAp.ProviderID)
	if err != nil {
		return nil, err
	}
	if service == nil {
		return nil, httperr.ErrBusiness(httperr.CodeServiceNotFound)
	}

	if err := domain.InspectMinimumNotice(oldAp.BookingStart, uc.now(), vals.MinimumRescheduleNotice); err != nil {
		return nil, err
	}

	result := &ReassignResult{OldAppointment: oldAp}

	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		existing, err := tx.GetAppointmentBySlot(ctx, oldAp.ProviderID, oldAp.ServiceID, in.BookingStart)
		if err != nil {
			return err
		}

		if existing == nil && len(oldAp.Bookings) == 1 {
			return uc.retimeInPlace(ctx, tx, oldAp, service, in.BookingStart)
		}

		remaining := removeBookingFrom(oldAp, booking.ID)

		if existing != nil {
			if err := uc.mergeIntoExisting(ctx, tx, existing, service, booking, in.BookingStart, result); err != nil {
				return err
			}
		} else {
			if err := uc.createForBooking(ctx, tx, oldAp, service, booking, in.BookingStart, result); err != nil {
				return err
			}
		}

		if len(remaining) == 0 {
			if err := tx.DeleteAppointment(ctx, oldAp.ID); err != nil {
				return err
			}
			oldAp.Status = string(domain.StatusCanceled)
			result.OldAppointmentStatusChanged = true
			return nil
		}

		oldAp.Bookings = remaining
		derived := domain.DeriveStatus(service.AutoApprove, domain.CountStatuses(remaining))
		result.OldAppointmentStatusChanged = oldAp.Status != string(derived)
		oldAp.Status = string(derived)
		oldAp.BookingEnd = oldAp.BookingStart.Add(domain.AppointmentLength(service, remaining))

		return tx.UpdateAppointment(ctx, oldAp)
	})
	if err != nil {
		return nil, err
	}

	result.Booking = booking
	return result, nil
}

// (a) Sole booking, empty target slot: the appointment itself moves.
func (uc *Reassign) retimeInPlace(
	ctx context.Context,
	tx domain.Repository,
	oldAp *models.Appointment,
	service *models.Service,
	start time.Time,
) error {

	oldAp.BookingStart = start
	oldAp.BookingEnd = start.Add(domain.AppointmentLength(service, oldAp.Bookings))
	oldAp.Rescheduled = true

	return tx.UpdateAppointment(ctx, oldAp)
}

// (b) Target slot occupied: the booking is reparented into it. The existing
// appointment keeps its own external-sync ids; it already owns a valid
// synced event.
func (uc *Reassign) mergeIntoExisting(
	ctx context.Context,
	tx domain.Repository,
	existing *models.Appointment,
	service *models.Service,
	booking *models.CustomerBooking,
	start time.Time,
	result *ReassignResult,
) error {

	booking.AppointmentID = existing.ID

	if err := tx.UpdateBookingAppointment(ctx, booking.ID, existing.ID); err != nil {
		return err
	}

	existing.Bookings = append(existing.Bookings, *booking)

	derived := domain.DeriveStatus(service.AutoApprove, domain.CountStatuses(existing.Bookings))
	result.ExistingAppointmentStatusChanged = existing.Status != string(derived)
	existing.Status = string(derived)
	existing.BookingEnd = start.Add(domain.AppointmentLength(service, existing.Bookings))

	if err := tx.UpdateAppointment(ctx, existing); err != nil {
		return err
	}

	result.ExistingAppointment = existing
	return nil
}

// (c) Empty target slot but siblings remain: a fresh appointment carries the
// booking, copying the old appointment's fields. The external-sync ids stay
// nil; a moved booking must not inherit the old slot's synced calendar event.
func (uc *Reassign) createForBooking(
	ctx context.Context,
	tx domain.Repository,
	oldAp *models.Appointment,
	service *models.Service,
	booking *models.CustomerBooking,
	start time.Time,
	result *ReassignResult,
) error {

	newAp := &models.Appointment{
		ServiceID:    oldAp.ServiceID,
		ProviderID:   oldAp.ProviderID,
		LocationID:   oldAp.LocationID,
		ParentID:     oldAp.ParentID,
		BookingStart: start,
		BookingEnd:   start.Add(domain.BookingDuration(service, booking.Extras)),
		Rescheduled:  true,
	}
	newAp.Status = string(domain.DeriveStatus(
		service.AutoApprove,
		domain.CountStatuses([]models.CustomerBooking{*booking}),
	))

	if err := tx.CreateAppointment(ctx, newAp); err != nil {
		if httperr.IsUniqueViolation(err) {
			return httperr.ErrBusiness(httperr.CodeSlotConflict)
		}
		return err
	}

	booking.AppointmentID = newAp.ID
	if err := tx.UpdateBookingAppointment(ctx, booking.ID, newAp.ID); err != nil {
		return err
	}

	newAp.Bookings = []models.CustomerBooking{*booking}
	result.NewAppointment = newAp
	return nil
}

func findBooking(ap *models.Appointment, bookingID uint) *models.CustomerBooking {
	for i := range ap.Bookings {
		if ap.Bookings[i].ID == bookingID {
			return &ap.Bookings[i]
		}
	}
	return nil
}

func removeBookingFrom(ap *models.Appointment, bookingID uint) []models.CustomerBooking {
	remaining := make([]models.CustomerBooking, 0, len(ap.Bookings))
	for _, b := range ap.Bookings {
		if b.ID != bookingID {
			remaining = append(remaining, b)
		}
	}
	return remaining
}
