package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/appointly/scheduler/internal/domain/appointment"
	"github.com/appointly/scheduler/internal/domain/entities"
	"github.com/appointly/scheduler/internal/models"
)

type SchedulingGormRepository struct {
	db *gorm.DB
}

func NewSchedulingGormRepository(db *gorm.DB) *SchedulingGormRepository {
	return &SchedulingGormRepository{db: db}
}

// Transaction hands the closure a repository bound to one gorm transaction;
// the callback's writes commit or roll back as a unit.
func (r *SchedulingGormRepository) Transaction(
	ctx context.Context,
	fn func(domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SchedulingGormRepository{db: tx})
	})
}

// --------------------------------------------------
// Bookables
// --------------------------------------------------

func (r *SchedulingGormRepository) GetService(
	ctx context.Context,
	serviceID uint,
) (*models.Service, error) {

	var service models.Service
	if err := r.db.WithContext(ctx).
		Preload("Extras", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&service, serviceID).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *SchedulingGormRepository) GetProviderService(
	ctx context.Context,
	serviceID uint,
	providerID uint,
) (*models.Service, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProviderService{}).
		Where("provider_id = ? AND service_id = ?", providerID, serviceID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	return r.GetService(ctx, serviceID)
}

// --------------------------------------------------
// Entities snapshot
// --------------------------------------------------

func (r *SchedulingGormRepository) GetSnapshot(
	ctx context.Context,
) (*entities.Snapshot, error) {

	snap := &entities.Snapshot{}

	if err := r.db.WithContext(ctx).
		Find(&snap.Providers).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Preload("Services", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Services.Extras", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("position ASC").
		Find(&snap.Categories).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Find(&snap.Locations).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Preload("Bookables.Service").
		Preload("Bookables.Providers").
		Preload("Bookables.Locations").
		Find(&snap.Packages).Error; err != nil {
		return nil, err
	}

	var relations []models.ProviderService
	if err := r.db.WithContext(ctx).
		Find(&relations).Error; err != nil {
		return nil, err
	}

	snap.Relations = entities.RelationIndex{}
	for _, rel := range relations {
		services, ok := snap.Relations[rel.ProviderID]
		if !ok {
			services = map[uint][]uint{}
			snap.Relations[rel.ProviderID] = services
		}
		if _, ok := services[rel.ServiceID]; !ok {
			services[rel.ServiceID] = []uint{}
		}
		if rel.LocationID != nil {
			services[rel.ServiceID] = append(services[rel.ServiceID], *rel.LocationID)
		}
	}

	var err error
	if snap.Settings, err = r.GetSettings(ctx); err != nil {
		return nil, err
	}

	return snap, nil
}

// --------------------------------------------------
// Customer
// --------------------------------------------------

func (r *SchedulingGormRepository) GetCustomer(
	ctx context.Context,
	id uint,
) (*models.Customer, error) {

	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

func (r *SchedulingGormRepository) GetAppointment(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Bookings.Extras").
		First(&ap, id).Error; err != nil {
		return nil, err
	}
	return &ap, nil
}

func (r *SchedulingGormRepository) GetAppointmentBySlot(
	ctx context.Context,
	providerID uint,
	serviceID uint,
	start time.Time,
) (*models.Appointment, error) {

	var ap models.Appointment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Bookings.Extras").
		Where(
			"provider_id = ? AND service_id = ? AND booking_start = ?",
			providerID, serviceID, start,
		).
		First(&ap).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ap, nil
}

func (r *SchedulingGormRepository) GetAppointmentByBookingID(
	ctx context.Context,
	bookingID uint,
) (*models.Appointment, error) {

	var booking models.CustomerBooking
	if err := r.db.WithContext(ctx).First(&booking, bookingID).Error; err != nil {
		return nil, err
	}

	return r.GetAppointment(ctx, booking.AppointmentID)
}

func (r *SchedulingGormRepository) ListAppointmentsOverlapping(
	ctx context.Context,
	providerID uint,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Bookings.Extras").
		Where(
			"provider_id = ? AND status IN ? AND booking_start < ? AND booking_end > ?",
			providerID,
			[]string{string(domain.StatusPending), string(domain.StatusApproved)},
			end,
			start,
		).
		Order("booking_start ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *SchedulingGormRepository) ListAppointmentsForPeriod(
	ctx context.Context,
	providerID uint,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Bookings.Customer").
		Preload("Bookings.Extras").
		Preload("Service").
		Where(
			"provider_id = ? AND booking_start >= ? AND booking_start < ?",
			providerID, start, end,
		).
		Order("booking_start ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *SchedulingGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Create(ap).Error
}

func (r *SchedulingGormRepository) UpdateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).
		Omit("Bookings", "Service", "Provider").
		Save(ap).Error
}

func (r *SchedulingGormRepository) UpdateAppointmentStatus(
	ctx context.Context,
	id uint,
	status string,
) error {
	return r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *SchedulingGormRepository) DeleteAppointment(
	ctx context.Context,
	id uint,
) error {
	return r.db.WithContext(ctx).
		Delete(&models.Appointment{}, id).Error
}

// --------------------------------------------------
// CustomerBooking
// --------------------------------------------------

func (r *SchedulingGormRepository) GetBooking(
	ctx context.Context,
	id uint,
) (*models.CustomerBooking, error) {

	var booking models.CustomerBooking
	if err := r.db.WithContext(ctx).
		Preload("Extras").
		Preload("Customer").
		First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *SchedulingGormRepository) CreateBooking(
	ctx context.Context,
	b *models.CustomerBooking,
) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *SchedulingGormRepository) UpdateBookingStatus(
	ctx context.Context,
	id uint,
	status string,
) error {
	return r.db.WithContext(ctx).
		Model(&models.CustomerBooking{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *SchedulingGormRepository) UpdateBookingAppointment(
	ctx context.Context,
	bookingID uint,
	appointmentID uint,
) error {
	return r.db.WithContext(ctx).
		Model(&models.CustomerBooking{}).
		Where("id = ?", bookingID).
		Update("appointment_id", appointmentID).Error
}

func (r *SchedulingGormRepository) ListCustomerBookings(
	ctx context.Context,
	customerID uint,
) ([]models.CustomerBooking, error) {

	var bookings []models.CustomerBooking
	if err := r.db.WithContext(ctx).
		Preload("Extras").
		Where("customer_id = ?", customerID).
		Order("id ASC").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// --------------------------------------------------
// Packages
// --------------------------------------------------

func (r *SchedulingGormRepository) GetPackageCustomerService(
	ctx context.Context,
	id uint,
) (*models.PackageCustomerService, error) {

	var pcs models.PackageCustomerService
	if err := r.db.WithContext(ctx).First(&pcs, id).Error; err != nil {
		return nil, err
	}
	return &pcs, nil
}

func (r *SchedulingGormRepository) CountPackageServiceBookings(
	ctx context.Context,
	packageCustomerServiceID uint,
) (int64, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CustomerBooking{}).
		Where(
			"package_customer_service_id = ? AND status IN ?",
			packageCustomerServiceID,
			[]string{string(domain.StatusPending), string(domain.StatusApproved)},
		).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// --------------------------------------------------
// Payments
// --------------------------------------------------

func (r *SchedulingGormRepository) CreatePayment(
	ctx context.Context,
	p *models.Payment,
) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// --------------------------------------------------
// Settings
// --------------------------------------------------

func (r *SchedulingGormRepository) GetSettings(
	ctx context.Context,
) (map[string]string, error) {

	var rows []models.Setting
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Compile-time check
var _ domain.Repository = (*SchedulingGormRepository)(nil)
