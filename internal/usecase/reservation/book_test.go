package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/appointly/scheduler/internal/domain/appointment"
	"github.com/appointly/scheduler/internal/httperr"
	"github.com/appointly/scheduler/internal/models"
	"github.com/appointly/scheduler/internal/settings"
)

var slotStart = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func newBookFixture() (*fakeRepo, *Book) {
	repo := newFakeRepo()
	uc := NewBook(repo, domain.NewSlotChecker(repo), settings.NewReader(repo))
	return repo, uc
}

func visibleService(id uint, autoApprove bool) *models.Service {
	return &models.Service{
		ID:          id,
		Name:        "Consultation",
		Duration:    3600,
		Price:       50,
		Status:      models.StatusVisible,
		AutoApprove: autoApprove,
	}
}

func TestBook_CreatesAppointmentInEmptySlot(t *testing.T) {
	repo, uc := newBookFixture()
	repo.addService(visibleService(1, true), 7)
	repo.addCustomer(11)

	result, err := uc.Execute(context.Background(), BookInput{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		Booking:      BookingInput{CustomerID: 11, Persons: 2},
	}, BookOptions{InspectSlot: true, Persist: true})

	require.NoError(t, err)
	require.NotNil(t, result.Appointment)
	require.NotNil(t, result.Booking)

	assert.Equal(t, string(domain.StatusApproved), result.Appointment.Status)
	assert.Equal(t, string(domain.StatusApproved), result.Booking.Status)
	assert.Equal(t, slotStart.Add(time.Hour), result.Appointment.BookingEnd)
	assert.NotEmpty(t, result.Booking.Token)
	assert.False(t, result.StatusChanged)

	stored, err := repo.GetAppointmentBySlot(context.Background(), 7, 1, slotStart)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Len(t, stored.Bookings, 1)

	require.Len(t, repo.payments, 1)
	assert.Equal(t, 50.0, repo.payments[0].Amount)
	assert.Equal(t, "onSite", repo.payments[0].Gateway)
}

func TestBook_MergesIntoOccupiedSlot(t *testing.T) {
	repo, uc := newBookFixture()
	repo.addService(visibleService(1, false), 7)
	repo.addCustomer(11)

	seeded := repo.seedAppointment(models.Appointment{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		BookingEnd:   slotStart.Add(time.Hour),
		Status:       string(domain.StatusPending),
	}, models.CustomerBooking{CustomerID: 22, Status: string(domain.StatusPending), Persons: 1})

	result, err := uc.Execute(context.Background(), BookInput{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		Booking:      BookingInput{CustomerID: 11, Persons: 1},
	}, BookOptions{InspectSlot: true, Persist: true})

	require.NoError(t, err)
	assert.Equal(t, seeded.ID, result.Appointment.ID)
	assert.Equal(t, string(domain.StatusPending), result.Appointment.Status)

	stored, err := repo.GetAppointment(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Bookings, 2)
}

func TestBook_RejectsDuplicateCustomerInSlot(t *testing.T) {
	repo, uc := newBookFixture()
	repo.addService(visibleService(1, false), 7)
	repo.addCustomer(11)

	repo.seedAppointment(models.Appointment{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		BookingEnd:   slotStart.Add(time.Hour),
		Status:       string(domain.StatusPending),
	}, models.CustomerBooking{CustomerID: 11, Status: string(domain.StatusPending), Persons: 1})

	_, err := uc.Execute(context.Background(), BookInput{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		Booking:      BookingInput{CustomerID: 11, Persons: 1},
	}, BookOptions{InspectSlot: true, Persist: true})

	assert.True(t, httperr.IsBusiness(err, httperr.CodeCustomerAlreadyBooked))
}

func TestBook_RejectsFullSlot(t *testing.T) {
	repo, uc := newBookFixture()
	service := visibleService(1, true)
	service.MaxCapacity = 2
	repo.addService(service, 7)
	repo.addCustomer(11)

	repo.seedAppointment(models.Appointment{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		BookingEnd:   slotStart.Add(time.Hour),
		Status:       string(domain.StatusApproved),
	}, models.CustomerBooking{CustomerID: 22, Status: string(domain.StatusApproved), Persons: 2})

	_, err := uc.Execute(context.Background(), BookInput{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		Booking:      BookingInput{CustomerID: 11, Persons: 1},
	}, BookOptions{InspectSlot: true, Persist: true})

	assert.True(t, httperr.IsBusiness(err, httperr.CodeSlotUnavailable))
}

func TestBook_RejectsUnknownProviderServicePair(t *testing.T) {
	repo, uc := newBookFixture()
	repo.addService(visibleService(1, true), 7)
	repo.addCustomer(11)

	_, err := uc.Execute(context.Background(), BookInput{
		ServiceID:    1,
		ProviderID:   99,
		BookingStart: slotStart,
		Booking:      BookingInput{CustomerID: 11},
	}, BookOptions{InspectSlot: true, Persist: true})

	assert.True(t, httperr.IsBusiness(err, httperr.CodeServiceNotFound))
}

func TestBook_RejectsExhaustedPackageEntitlement(t *testing.T) {
	repo, uc := newBookFixture()
	repo.addService(visibleService(1, true), 7)
	repo.addCustomer(11)

	repo.packageServices[5] = &models.PackageCustomerService{
		ID:              5,
		ServiceID:       1,
		BookingsAllowed: 1,
	}

	entitlement := uint(5)
	repo.seedAppointment(models.Appointment{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart.Add(-2 * time.Hour),
		BookingEnd:   slotStart.Add(-time.Hour),
		Status:       string(domain.StatusApproved),
	}, models.CustomerBooking{
		CustomerID:               11,
		Status:                   string(domain.StatusApproved),
		Persons:                  1,
		PackageCustomerServiceID: &entitlement,
	})

	_, err := uc.Execute(context.Background(), BookInput{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		Booking: BookingInput{
			CustomerID:               11,
			PackageCustomerServiceID: &entitlement,
		},
	}, BookOptions{InspectSlot: true, Persist: true})

	assert.True(t, httperr.IsBusiness(err, httperr.CodePackageUnavailable))
}

func TestBook_DryRunBuildsWithoutPersisting(t *testing.T) {
	repo, uc := newBookFixture()
	repo.addService(visibleService(1, false), 7)
	repo.addCustomer(11)

	result, err := uc.Execute(context.Background(), BookInput{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		Booking:      BookingInput{CustomerID: 11},
	}, BookOptions{InspectSlot: true, Persist: false})

	require.NoError(t, err)
	require.NotNil(t, result.Appointment)
	assert.Zero(t, result.Appointment.ID)
	assert.Equal(t, string(domain.StatusPending), result.Appointment.Status)
	assert.Empty(t, repo.appointments)
	assert.Empty(t, repo.payments)
}

// contendedRepo seeds a competing appointment into the slot right before the
// first insert, so the insert hits the unique slot index the way a lost
// concurrent race does.
type contendedRepo struct {
	*fakeRepo
	competitor models.CustomerBooking
	contended  bool
}

func (r *contendedRepo) Transaction(ctx context.Context, fn func(domain.Repository) error) error {
	return fn(r)
}

func (r *contendedRepo) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	if !r.contended {
		r.contended = true
		r.fakeRepo.seedAppointment(models.Appointment{
			ServiceID:    ap.ServiceID,
			ProviderID:   ap.ProviderID,
			BookingStart: ap.BookingStart,
			BookingEnd:   ap.BookingEnd,
			Status:       string(domain.StatusApproved),
		}, r.competitor)
	}
	return r.fakeRepo.CreateAppointment(ctx, ap)
}

func newContendedFixture(maxCapacity int) (*contendedRepo, *Book) {
	repo := newFakeRepo()
	service := visibleService(1, true)
	service.MaxCapacity = maxCapacity
	repo.addService(service, 7)
	repo.addCustomer(11)

	contended := &contendedRepo{
		fakeRepo:   repo,
		competitor: models.CustomerBooking{CustomerID: 22, Status: string(domain.StatusApproved), Persons: 1},
	}
	uc := NewBook(contended, domain.NewSlotChecker(contended), settings.NewReader(contended))
	return contended, uc
}

func TestBook_LostSlotRaceRejectedWhenWinnerFillsCapacity(t *testing.T) {
	repo, uc := newContendedFixture(1)

	_, err := uc.Execute(context.Background(), BookInput{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		Booking:      BookingInput{CustomerID: 11, Persons: 1},
	}, BookOptions{InspectSlot: true, Persist: true})

	assert.True(t, httperr.IsBusiness(err, httperr.CodeSlotUnavailable))

	// The winner keeps the slot to itself; the loser left no booking or
	// payment behind.
	stored, err := repo.GetAppointmentBySlot(context.Background(), 7, 1, slotStart)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Bookings, 1)
	assert.Equal(t, uint(22), stored.Bookings[0].CustomerID)
	assert.Empty(t, repo.payments)
}

func TestBook_LostSlotRaceMergesWhenCapacityRemains(t *testing.T) {
	repo, uc := newContendedFixture(3)

	result, err := uc.Execute(context.Background(), BookInput{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		Booking:      BookingInput{CustomerID: 11, Persons: 1},
	}, BookOptions{InspectSlot: true, Persist: true})

	require.NoError(t, err)

	stored, err := repo.GetAppointmentBySlot(context.Background(), 7, 1, slotStart)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, stored.ID, result.Appointment.ID)
	assert.Len(t, stored.Bookings, 2)
	require.Len(t, repo.payments, 1)
}

func TestBook_RecurringLinksOccurrencesToAnchor(t *testing.T) {
	repo, uc := newBookFixture()
	repo.addService(visibleService(1, true), 7)
	repo.addCustomer(11)

	nextWeek := slotStart.Add(7 * 24 * time.Hour)

	result, err := uc.Execute(context.Background(), BookInput{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		Booking:      BookingInput{CustomerID: 11},
		Recurring: []RecurringInput{
			{ProviderID: 7, BookingStart: nextWeek},
		},
	}, BookOptions{InspectSlot: true, Persist: true})

	require.NoError(t, err)
	require.Len(t, result.Recurring, 1)

	occurrence := result.Recurring[0].Appointment
	require.NotNil(t, occurrence)
	require.NotNil(t, occurrence.ParentID)
	assert.Equal(t, result.Appointment.ID, *occurrence.ParentID)
}

func TestBook_RecurringFailureRollsBackEarlierOccurrences(t *testing.T) {
	repo, uc := newBookFixture()
	repo.addService(visibleService(1, true), 7)
	repo.addCustomer(11)

	nextWeek := slotStart.Add(7 * 24 * time.Hour)

	// The second occurrence collides with the customer's own standing booking.
	repo.seedAppointment(models.Appointment{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: nextWeek,
		BookingEnd:   nextWeek.Add(time.Hour),
		Status:       string(domain.StatusApproved),
	}, models.CustomerBooking{CustomerID: 11, Status: string(domain.StatusApproved), Persons: 1})

	_, err := uc.Execute(context.Background(), BookInput{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		Booking:      BookingInput{CustomerID: 11},
		Recurring: []RecurringInput{
			{ProviderID: 7, BookingStart: nextWeek},
		},
	}, BookOptions{InspectSlot: true, Persist: true})

	require.Error(t, err)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeCustomerAlreadyBooked))

	// The anchor occurrence was compensated away.
	anchor, err := repo.GetAppointmentBySlot(context.Background(), 7, 1, slotStart)
	require.NoError(t, err)
	assert.Nil(t, anchor)
}
