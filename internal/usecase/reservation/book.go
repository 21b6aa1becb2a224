package reservation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	domain "github.com/appointly/scheduler/internal/domain/appointment"
	"github.com/appointly/scheduler/internal/httperr"
	"github.com/appointly/scheduler/internal/models"
	"github.com/appointly/scheduler/internal/settings"
)

// ======================================================
// INPUT
// ======================================================

type BookingInput struct {
	CustomerID               uint
	Persons                  int
	Extras                   []domain.ExtraSelection
	CustomFields             map[string]any
	UtcOffset                *int
	PackageCustomerServiceID *uint
}

type RecurringInput struct {
	ProviderID   uint
	LocationID   *uint
	BookingStart time.Time
	UtcOffset    *int
	UseCoupon    bool
}

type BookInput struct {
	ServiceID    uint
	ProviderID   uint
	LocationID   *uint
	BookingStart time.Time // UTC

	Booking   BookingInput
	Recurring []RecurringInput

	PaymentGateway string

	// Anchor appointment id, set internally for recurring occurrences.
	parentID *uint
}

type BookOptions struct {
	// InspectSlot runs the conflict checker plus the duplicate-customer and
	// package-entitlement inspections before committing.
	InspectSlot bool
	// Persist writes the reservation; false builds it for inspection only.
	Persist bool
}

// ======================================================
// USE CASE
// ======================================================

type Book struct {
	repo     domain.Repository
	checker  *domain.SlotChecker
	settings *settings.Reader
	now      func() time.Time
}

func NewBook(repo domain.Repository, checker *domain.SlotChecker, reader *settings.Reader) *Book {
	return &Book{
		repo:     repo,
		checker:  checker,
		settings: reader,
		now:      time.Now,
	}
}

// undoEntry compensates one committed occurrence of a recurring request.
// Occurrences land in independent transactions, so a failure mid-chain is
// rolled back manually, in reverse order.
type undoEntry struct {
	appointmentID  uint
	bookingID      uint
	createdNewSlot bool
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *Book) Execute(ctx context.Context, in BookInput, opts BookOptions) (*domain.Reservation, error) {
	vals, err := uc.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	reservation := &domain.Reservation{Kind: domain.KindAppointment}

	undo, err := uc.bookSingle(ctx, reservation, in, opts, vals)
	if err != nil {
		return nil, err
	}

	undos := []undoEntry{}
	if undo != nil {
		undos = append(undos, *undo)
	}

	service, ok := reservation.Bookable.(domain.ServiceBookable)
	if !ok {
		return nil, httperr.ErrBusiness(httperr.CodeServiceNotFound)
	}

	for index, recurring := range in.Recurring {
		occurrence := in
		occurrence.ProviderID = recurring.ProviderID
		occurrence.LocationID = recurring.LocationID
		occurrence.BookingStart = recurring.BookingStart
		occurrence.Recurring = nil

		if recurring.UtcOffset != nil {
			occurrence.Booking.UtcOffset = recurring.UtcOffset
		}

		// Occurrences past the service's recurring-payment threshold are
		// settled on site instead of through the gateway.
		if index >= service.Service.RecurringPayment {
			occurrence.PaymentGateway = "onSite"
		}

		if reservation.Appointment != nil && reservation.Appointment.ID != 0 {
			parentID := reservation.Appointment.ID
			occurrence.parentID = &parentID
		}

		occurrenceReservation := &domain.Reservation{Kind: domain.KindAppointment}

		occurrenceUndo, err := uc.bookSingle(ctx, occurrenceReservation, occurrence, opts, vals)
		if err != nil {
			if opts.Persist {
				uc.compensate(ctx, undos)
			}
			return nil, err
		}

		if occurrenceUndo != nil {
			undos = append(undos, *occurrenceUndo)
		}

		reservation.Recurring = append(reservation.Recurring, occurrenceReservation)
	}

	return reservation, nil
}

// compensate deletes previously committed occurrences in reverse order; it
// keeps going even when one delete fails, so a storage hiccup cannot strand
// the earlier occurrences.
func (uc *Book) compensate(ctx context.Context, undos []undoEntry) {
	for i := len(undos) - 1; i >= 0; i-- {
		entry := undos[i]
		_ = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
			return uc.removeBooking(ctx, tx, entry)
		})
	}
}

func (uc *Book) removeBooking(ctx context.Context, tx domain.Repository, entry undoEntry) error {
	if err := tx.UpdateBookingStatus(ctx, entry.bookingID, string(domain.StatusCanceled)); err != nil {
		return err
	}

	ap, err := tx.GetAppointment(ctx, entry.appointmentID)
	if err != nil {
		return err
	}

	counts := domain.CountStatuses(ap.Bookings)
	if counts.Pending+counts.Approved == 0 || entry.createdNewSlot {
		return tx.DeleteAppointment(ctx, entry.appointmentID)
	}

	return tx.UpdateAppointmentStatus(ctx, entry.appointmentID, string(domain.DeriveStatus(false, counts)))
}

// ======================================================
// SINGLE OCCURRENCE
// ======================================================

func (uc *Book) bookSingle(
	ctx context.Context,
	reservation *domain.Reservation,
	in BookInput,
	opts BookOptions,
	vals settings.Values,
) (*undoEntry, error) {

	service, err := uc.repo.GetProviderService(ctx, in.ServiceID, in.ProviderID)
	if err != nil {
		return nil, err
	}
	if service == nil {
		return nil, httperr.ErrBusiness(httperr.CodeServiceNotFound)
	}
	if service.Status == models.StatusHidden {
		return nil, httperr.ErrBusiness(httperr.CodeSlotUnavailable)
	}

	autoApprove := service.AutoApprove || vals.DefaultStatus == string(domain.StatusApproved)

	booking, err := uc.buildBooking(service, in.Booking, autoApprove)
	if err != nil {
		return nil, err
	}

	if opts.InspectSlot {
		if err := uc.inspect(ctx, service, in, booking); err != nil {
			return nil, err
		}
	}

	customer, err := uc.repo.GetCustomer(ctx, in.Booking.CustomerID)
	if err != nil {
		return nil, err
	}

	reservation.Bookable = domain.ServiceBookable{Service: service}
	reservation.Customer = customer

	if !opts.Persist {
		reservation.Appointment = uc.buildAppointment(service, in, booking, autoApprove)
		reservation.Booking = booking
		return nil, nil
	}

	undo, err := uc.commit(ctx, reservation, service, in, booking, autoApprove, opts.InspectSlot)
	if err == nil {
		return undo, nil
	}

	// Two concurrent requests can both observe an empty slot; the unique
	// slot index turns the loser's insert into a conflict that is retried
	// once, at which point the winner's appointment is there to merge into.
	// The merge re-inspects the slot under lock, so a loser whose winner
	// filled the capacity is rejected, not merged.
	if httperr.IsBusiness(err, httperr.CodeSlotConflict) {
		return uc.commit(ctx, reservation, service, in, booking, autoApprove, opts.InspectSlot)
	}

	return nil, err
}

func (uc *Book) buildBooking(
	service *models.Service,
	in BookingInput,
	autoApprove bool,
) (*models.CustomerBooking, error) {

	persons := in.Persons
	if persons < 1 {
		persons = 1
	}

	booking := &models.CustomerBooking{
		CustomerID:               in.CustomerID,
		Status:                   string(domain.DefaultBookingStatus(autoApprove)),
		Persons:                  persons,
		Price:                    service.Price,
		UtcOffset:                in.UtcOffset,
		Token:                    uuid.NewString(),
		PackageCustomerServiceID: in.PackageCustomerServiceID,
	}

	if in.CustomFields != nil {
		payload, err := json.Marshal(in.CustomFields)
		if err != nil {
			return nil, err
		}
		booking.CustomFields = string(payload)
	}

	// Extras are always priced from the service's current extra prices.
	for _, sel := range in.Extras {
		extra, ok := domain.ExtraByID(service, sel.ID)
		if !ok {
			return nil, httperr.ErrBusiness(httperr.CodeServiceNotFound)
		}
		quantity := sel.Quantity
		if quantity < 1 {
			quantity = 1
		}
		booking.Extras = append(booking.Extras, models.CustomerBookingExtra{
			ExtraID:  extra.ID,
			Quantity: quantity,
			Price:    extra.Price,
		})
	}

	return booking, nil
}

func (uc *Book) inspect(
	ctx context.Context,
	service *models.Service,
	in BookInput,
	booking *models.CustomerBooking,
) error {

	existing, err := uc.repo.GetAppointmentBySlot(ctx, in.ProviderID, in.ServiceID, in.BookingStart)
	if err != nil {
		return err
	}

	if existing != nil {
		for _, member := range existing.Bookings {
			if domain.Status(member.Status) != domain.StatusCanceled &&
				member.CustomerID == booking.CustomerID {
				return httperr.ErrBusiness(httperr.CodeCustomerAlreadyBooked)
			}
		}
	}

	free, err := uc.checker.IsSlotFree(ctx, domain.SlotQuery{
		ServiceID:       in.ServiceID,
		ProviderID:      in.ProviderID,
		Start:           in.BookingStart,
		Extras:          in.Booking.Extras,
		Persons:         booking.Persons,
		EnforceCapacity: true,
	})
	if err != nil {
		return err
	}
	if !free {
		return httperr.ErrBusiness(httperr.CodeSlotUnavailable)
	}

	if booking.PackageCustomerServiceID != nil {
		entitlement, err := uc.repo.GetPackageCustomerService(ctx, *booking.PackageCustomerServiceID)
		if err != nil {
			return err
		}
		used, err := uc.repo.CountPackageServiceBookings(ctx, entitlement.ID)
		if err != nil {
			return err
		}
		if entitlement.ServiceID != service.ID || used >= int64(entitlement.BookingsAllowed) {
			return httperr.ErrBusiness(httperr.CodePackageUnavailable)
		}
	}

	return nil
}

func (uc *Book) buildAppointment(
	service *models.Service,
	in BookInput,
	booking *models.CustomerBooking,
	autoApprove bool,
) *models.Appointment {

	ap := &models.Appointment{
		ServiceID:    in.ServiceID,
		ProviderID:   in.ProviderID,
		LocationID:   in.LocationID,
		BookingStart: in.BookingStart,
		BookingEnd:   in.BookingStart.Add(domain.BookingDuration(service, booking.Extras)),
		ParentID:     in.parentID,
	}
	ap.Status = string(domain.DeriveStatus(autoApprove, domain.CountStatuses([]models.CustomerBooking{*booking})))
	return ap
}

func (uc *Book) commit(
	ctx context.Context,
	reservation *domain.Reservation,
	service *models.Service,
	in BookInput,
	booking *models.CustomerBooking,
	autoApprove bool,
	inspect bool,
) (*undoEntry, error) {

	var undo undoEntry

	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		existing, err := tx.GetAppointmentBySlot(ctx, in.ProviderID, in.ServiceID, in.BookingStart)
		if err != nil {
			return err
		}

		if existing != nil {
			return uc.mergeInto(ctx, tx, reservation, existing, service, in, booking, autoApprove, inspect, &undo)
		}

		ap := uc.buildAppointment(service, in, booking, autoApprove)
		ap.Bookings = []models.CustomerBooking{*booking}

		if err := tx.CreateAppointment(ctx, ap); err != nil {
			if httperr.IsUniqueViolation(err) {
				return httperr.ErrBusiness(httperr.CodeSlotConflict)
			}
			return err
		}

		created := &ap.Bookings[0]

		if err := tx.CreatePayment(ctx, &models.Payment{
			CustomerBookingID: created.ID,
			Amount:            domain.PaymentAmount(service, created),
			Gateway:           gatewayOrDefault(in.PaymentGateway),
		}); err != nil {
			return err
		}

		reservation.Appointment = ap
		reservation.Booking = created
		reservation.StatusChanged = false

		undo = undoEntry{appointmentID: ap.ID, bookingID: created.ID, createdNewSlot: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &undo, nil
}

func (uc *Book) mergeInto(
	ctx context.Context,
	tx domain.Repository,
	reservation *domain.Reservation,
	existing *models.Appointment,
	service *models.Service,
	in BookInput,
	booking *models.CustomerBooking,
	autoApprove bool,
	inspect bool,
	undo *undoEntry,
) error {

	// The pre-commit inspection ran against an earlier read; this appointment
	// row is the locked truth, so capacity and duplicate-customer are checked
	// again before the booking joins it.
	if inspect {
		if err := guardMerge(existing, service, booking); err != nil {
			return err
		}
	}

	booking.AppointmentID = existing.ID

	if err := tx.CreateBooking(ctx, booking); err != nil {
		return err
	}

	if err := tx.CreatePayment(ctx, &models.Payment{
		CustomerBookingID: booking.ID,
		Amount:            domain.PaymentAmount(service, booking),
		Gateway:           gatewayOrDefault(in.PaymentGateway),
	}); err != nil {
		return err
	}

	existing.Bookings = append(existing.Bookings, *booking)
	if in.LocationID != nil {
		existing.LocationID = in.LocationID
	}

	derived := domain.DeriveStatus(autoApprove, domain.CountStatuses(existing.Bookings))
	statusChanged := existing.Status != string(derived)
	existing.Status = string(derived)
	existing.BookingEnd = existing.BookingStart.Add(domain.AppointmentLength(service, existing.Bookings))

	if err := tx.UpdateAppointment(ctx, existing); err != nil {
		return err
	}

	reservation.Appointment = existing
	reservation.Booking = booking
	reservation.StatusChanged = statusChanged

	*undo = undoEntry{appointmentID: existing.ID, bookingID: booking.ID}
	return nil
}

// guardMerge re-runs the slot inspection against the appointment row read
// inside the transaction. A concurrent winner may have filled the slot after
// the optimistic pre-commit check.
func guardMerge(
	existing *models.Appointment,
	service *models.Service,
	booking *models.CustomerBooking,
) error {

	persons := booking.Persons
	for _, member := range existing.Bookings {
		if domain.Status(member.Status) != domain.StatusCanceled &&
			member.CustomerID == booking.CustomerID {
			return httperr.ErrBusiness(httperr.CodeCustomerAlreadyBooked)
		}
		if domain.IsActive(member.Status) {
			persons += member.Persons
		}
	}

	if service.MaxCapacity > 0 && persons > service.MaxCapacity {
		return httperr.ErrBusiness(httperr.CodeSlotUnavailable)
	}
	return nil
}

func gatewayOrDefault(gateway string) string {
	if gateway == "" {
		return "onSite"
	}
	return gateway
}
