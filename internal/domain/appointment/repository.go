package appointment

import (
	"context"
	"time"

	"github.com/appointly/scheduler/internal/domain/entities"
	"github.com/appointly/scheduler/internal/models"
)

// Repository is the storage boundary for the scheduling core. Transaction
// yields a Repository bound to one database transaction; every multi-row
// mutation in the engine runs inside such a closure, and no external
// collaborator is ever invoked while one is open.
type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	// -------- Bookables --------
	GetService(
		ctx context.Context,
		serviceID uint,
	) (*models.Service, error)

	// GetProviderService returns the service (with extras) only when the
	// (provider, service) pair is present in the relation index.
	GetProviderService(
		ctx context.Context,
		serviceID uint,
		providerID uint,
	) (*models.Service, error)

	// -------- Entities snapshot --------
	GetSnapshot(
		ctx context.Context,
	) (*entities.Snapshot, error)

	// -------- Customer --------
	GetCustomer(
		ctx context.Context,
		id uint,
	) (*models.Customer, error)

	// -------- Appointment --------
	GetAppointment(
		ctx context.Context,
		id uint,
	) (*models.Appointment, error)

	// GetAppointmentBySlot returns (nil, nil) when no appointment occupies
	// the exact (provider, service, start) slot. Inside a transaction the
	// row is locked for update.
	GetAppointmentBySlot(
		ctx context.Context,
		providerID uint,
		serviceID uint,
		start time.Time,
	) (*models.Appointment, error)

	GetAppointmentByBookingID(
		ctx context.Context,
		bookingID uint,
	) (*models.Appointment, error)

	ListAppointmentsOverlapping(
		ctx context.Context,
		providerID uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	ListAppointmentsForPeriod(
		ctx context.Context,
		providerID uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	UpdateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	UpdateAppointmentStatus(
		ctx context.Context,
		id uint,
		status string,
	) error

	DeleteAppointment(
		ctx context.Context,
		id uint,
	) error

	// -------- CustomerBooking --------
	GetBooking(
		ctx context.Context,
		id uint,
	) (*models.CustomerBooking, error)

	CreateBooking(
		ctx context.Context,
		b *models.CustomerBooking,
	) error

	UpdateBookingStatus(
		ctx context.Context,
		id uint,
		status string,
	) error

	UpdateBookingAppointment(
		ctx context.Context,
		bookingID uint,
		appointmentID uint,
	) error

	ListCustomerBookings(
		ctx context.Context,
		customerID uint,
	) ([]models.CustomerBooking, error)

	// -------- Packages --------
	GetPackageCustomerService(
		ctx context.Context,
		id uint,
	) (*models.PackageCustomerService, error)

	CountPackageServiceBookings(
		ctx context.Context,
		packageCustomerServiceID uint,
	) (int64, error)

	// -------- Payments --------
	CreatePayment(
		ctx context.Context,
		p *models.Payment,
	) error

	// -------- Settings --------
	GetSettings(
		ctx context.Context,
	) (map[string]string, error)
}
