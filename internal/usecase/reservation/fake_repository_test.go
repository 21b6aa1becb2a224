package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	domain "github.com/appointly/scheduler/internal/domain/appointment"
	"github.com/appointly/scheduler/internal/domain/entities"
	"github.com/appointly/scheduler/internal/models"
)

// fakeRepo is an in-memory Repository backing the use-case tests. It mimics
// the storage semantics the engine relies on: nested booking creation assigns
// ids, the slot lookup returns (nil, nil) on absence, and inserting into an
// occupied slot raises a Postgres 23505.
type fakeRepo struct {
	services  map[uint]*models.Service
	relations map[[2]uint]bool
	customers map[uint]*models.Customer

	appointments map[uint]*models.Appointment
	bookings     map[uint]*models.CustomerBooking
	payments     []models.Payment

	packageServices map[uint]*models.PackageCustomerService
	settings        map[string]string

	nextAppointmentID uint
	nextBookingID     uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		services:        map[uint]*models.Service{},
		relations:       map[[2]uint]bool{},
		customers:       map[uint]*models.Customer{},
		appointments:    map[uint]*models.Appointment{},
		bookings:        map[uint]*models.CustomerBooking{},
		packageServices: map[uint]*models.PackageCustomerService{},
		settings:        map[string]string{},
	}
}

func (f *fakeRepo) addService(s *models.Service, providerIDs ...uint) {
	f.services[s.ID] = s
	for _, providerID := range providerIDs {
		f.relations[[2]uint{providerID, s.ID}] = true
	}
}

func (f *fakeRepo) addCustomer(id uint) {
	f.customers[id] = &models.Customer{ID: id, FirstName: "Test", Email: "t@example.com"}
}

// seedAppointment installs an appointment with its bookings, assigning ids.
func (f *fakeRepo) seedAppointment(ap models.Appointment, bookings ...models.CustomerBooking) *models.Appointment {
	f.nextAppointmentID++
	ap.ID = f.nextAppointmentID
	stored := ap
	stored.Bookings = nil
	f.appointments[ap.ID] = &stored

	for _, b := range bookings {
		f.nextBookingID++
		b.ID = f.nextBookingID
		b.AppointmentID = ap.ID
		booking := b
		f.bookings[b.ID] = &booking
	}
	return f.materialize(&stored)
}

func (f *fakeRepo) materialize(ap *models.Appointment) *models.Appointment {
	out := *ap
	out.Bookings = nil
	for id := uint(1); id <= f.nextBookingID; id++ {
		if b, ok := f.bookings[id]; ok && b.AppointmentID == ap.ID {
			out.Bookings = append(out.Bookings, *b)
		}
	}
	return &out
}

// --------------------------------------------------
// Repository implementation
// --------------------------------------------------

func (f *fakeRepo) Transaction(ctx context.Context, fn func(domain.Repository) error) error {
	return fn(f)
}

func (f *fakeRepo) GetService(ctx context.Context, serviceID uint) (*models.Service, error) {
	s, ok := f.services[serviceID]
	if !ok {
		return nil, errors.New("record not found")
	}
	return s, nil
}

func (f *fakeRepo) GetProviderService(ctx context.Context, serviceID, providerID uint) (*models.Service, error) {
	if !f.relations[[2]uint{providerID, serviceID}] {
		return nil, nil
	}
	return f.GetService(ctx, serviceID)
}

func (f *fakeRepo) GetSnapshot(ctx context.Context) (*entities.Snapshot, error) {
	return &entities.Snapshot{}, nil
}

func (f *fakeRepo) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return c, nil
}

func (f *fakeRepo) GetAppointment(ctx context.Context, id uint) (*models.Appointment, error) {
	ap, ok := f.appointments[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return f.materialize(ap), nil
}

func (f *fakeRepo) GetAppointmentBySlot(ctx context.Context, providerID, serviceID uint, start time.Time) (*models.Appointment, error) {
	for _, ap := range f.appointments {
		if ap.ProviderID == providerID && ap.ServiceID == serviceID && ap.BookingStart.Equal(start) {
			return f.materialize(ap), nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) GetAppointmentByBookingID(ctx context.Context, bookingID uint) (*models.Appointment, error) {
	b, ok := f.bookings[bookingID]
	if !ok {
		return nil, errors.New("record not found")
	}
	return f.GetAppointment(ctx, b.AppointmentID)
}

func (f *fakeRepo) ListAppointmentsOverlapping(ctx context.Context, providerID uint, start, end time.Time) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, ap := range f.appointments {
		if ap.ProviderID != providerID {
			continue
		}
		if !domain.IsActive(ap.Status) {
			continue
		}
		if ap.BookingStart.Before(end) && ap.BookingEnd.After(start) {
			out = append(out, *f.materialize(ap))
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAppointmentsForPeriod(ctx context.Context, providerID uint, start, end time.Time) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, ap := range f.appointments {
		if ap.ProviderID != providerID {
			continue
		}
		if !ap.BookingStart.Before(start) && ap.BookingStart.Before(end) {
			out = append(out, *f.materialize(ap))
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	for _, other := range f.appointments {
		if other.ProviderID == ap.ProviderID &&
			other.ServiceID == ap.ServiceID &&
			other.BookingStart.Equal(ap.BookingStart) {
			return &pgconn.PgError{Code: "23505", ConstraintName: "idx_appointments_slot"}
		}
	}

	f.nextAppointmentID++
	ap.ID = f.nextAppointmentID

	stored := *ap
	stored.Bookings = nil
	f.appointments[ap.ID] = &stored

	for i := range ap.Bookings {
		f.nextBookingID++
		ap.Bookings[i].ID = f.nextBookingID
		ap.Bookings[i].AppointmentID = ap.ID
		booking := ap.Bookings[i]
		f.bookings[booking.ID] = &booking
	}
	return nil
}

func (f *fakeRepo) UpdateAppointment(ctx context.Context, ap *models.Appointment) error {
	stored, ok := f.appointments[ap.ID]
	if !ok {
		return errors.New("record not found")
	}
	updated := *ap
	updated.Bookings = nil
	*stored = updated
	return nil
}

func (f *fakeRepo) UpdateAppointmentStatus(ctx context.Context, id uint, status string) error {
	ap, ok := f.appointments[id]
	if !ok {
		return errors.New("record not found")
	}
	ap.Status = status
	return nil
}

func (f *fakeRepo) DeleteAppointment(ctx context.Context, id uint) error {
	delete(f.appointments, id)
	return nil
}

func (f *fakeRepo) GetBooking(ctx context.Context, id uint) (*models.CustomerBooking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	out := *b
	return &out, nil
}

func (f *fakeRepo) CreateBooking(ctx context.Context, b *models.CustomerBooking) error {
	f.nextBookingID++
	b.ID = f.nextBookingID
	booking := *b
	f.bookings[b.ID] = &booking
	return nil
}

func (f *fakeRepo) UpdateBookingStatus(ctx context.Context, id uint, status string) error {
	b, ok := f.bookings[id]
	if !ok {
		return errors.New("record not found")
	}
	b.Status = status
	return nil
}

func (f *fakeRepo) UpdateBookingAppointment(ctx context.Context, bookingID, appointmentID uint) error {
	b, ok := f.bookings[bookingID]
	if !ok {
		return errors.New("record not found")
	}
	b.AppointmentID = appointmentID
	return nil
}

func (f *fakeRepo) ListCustomerBookings(ctx context.Context, customerID uint) ([]models.CustomerBooking, error) {
	var out []models.CustomerBooking
	for id := uint(1); id <= f.nextBookingID; id++ {
		if b, ok := f.bookings[id]; ok && b.CustomerID == customerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetPackageCustomerService(ctx context.Context, id uint) (*models.PackageCustomerService, error) {
	pcs, ok := f.packageServices[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return pcs, nil
}

func (f *fakeRepo) CountPackageServiceBookings(ctx context.Context, packageCustomerServiceID uint) (int64, error) {
	var count int64
	for _, b := range f.bookings {
		if b.PackageCustomerServiceID != nil &&
			*b.PackageCustomerServiceID == packageCustomerServiceID &&
			domain.IsActive(b.Status) {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakeRepo) GetSettings(ctx context.Context) (map[string]string, error) {
	return f.settings, nil
}

var _ domain.Repository = (*fakeRepo)(nil)
