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

func newReassignFixture() (*fakeRepo, *Reassign) {
	repo := newFakeRepo()
	uc := NewReassign(repo, settings.NewReader(repo))
	uc.now = func() time.Time { return slotStart.Add(-48 * time.Hour) }
	return repo, uc
}

func TestReassign_RetimesSoleBookingInPlace(t *testing.T) {
	repo, uc := newReassignFixture()
	repo.addService(visibleService(1, false), 7)

	seeded := repo.seedAppointment(models.Appointment{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		BookingEnd:   slotStart.Add(time.Hour),
		Status:       string(domain.StatusPending),
	}, models.CustomerBooking{CustomerID: 11, Status: string(domain.StatusPending), Persons: 1})

	target := slotStart.Add(3 * time.Hour)

	result, err := uc.Execute(context.Background(), ReassignInput{
		BookingID:    seeded.Bookings[0].ID,
		BookingStart: target,
	})

	require.NoError(t, err)
	assert.Nil(t, result.NewAppointment)
	assert.Nil(t, result.ExistingAppointment)
	assert.False(t, result.OldAppointmentStatusChanged)

	moved, err := repo.GetAppointment(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.True(t, moved.BookingStart.Equal(target))
	assert.True(t, moved.BookingEnd.Equal(target.Add(time.Hour)))
	assert.True(t, moved.Rescheduled)
	assert.Len(t, moved.Bookings, 1)
}

func TestReassign_MergesIntoOccupiedTarget(t *testing.T) {
	repo, uc := newReassignFixture()
	repo.addService(visibleService(1, false), 7)

	target := slotStart.Add(3 * time.Hour)

	origin := repo.seedAppointment(models.Appointment{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		BookingEnd:   slotStart.Add(time.Hour),
		Status:       string(domain.StatusPending),
	}, models.CustomerBooking{CustomerID: 11, Status: string(domain.StatusPending), Persons: 1})

	destination := repo.seedAppointment(models.Appointment{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: target,
		BookingEnd:   target.Add(time.Hour),
		Status:       string(domain.StatusApproved),
	}, models.CustomerBooking{CustomerID: 22, Status: string(domain.StatusApproved), Persons: 1})

	result, err := uc.Execute(context.Background(), ReassignInput{
		BookingID:    origin.Bookings[0].ID,
		BookingStart: target,
	})

	require.NoError(t, err)
	require.NotNil(t, result.ExistingAppointment)
	assert.Equal(t, destination.ID, result.ExistingAppointment.ID)
	assert.Nil(t, result.NewAppointment)

	// The origin emptied out and was removed, counted as a status change.
	assert.True(t, result.OldAppointmentStatusChanged)
	_, err = repo.GetAppointment(context.Background(), origin.ID)
	assert.Error(t, err)

	merged, err := repo.GetAppointment(context.Background(), destination.ID)
	require.NoError(t, err)
	assert.Len(t, merged.Bookings, 2)
}

func TestReassign_CreatesNewAppointmentWhenSiblingsRemain(t *testing.T) {
	repo, uc := newReassignFixture()
	repo.addService(visibleService(1, false), 7)

	googleID := "evt-123"
	origin := repo.seedAppointment(models.Appointment{
		ServiceID:             1,
		ProviderID:            7,
		BookingStart:          slotStart,
		BookingEnd:            slotStart.Add(time.Hour),
		Status:                string(domain.StatusPending),
		GoogleCalendarEventID: &googleID,
	},
		models.CustomerBooking{CustomerID: 11, Status: string(domain.StatusPending), Persons: 1},
		models.CustomerBooking{CustomerID: 22, Status: string(domain.StatusPending), Persons: 1},
	)

	target := slotStart.Add(3 * time.Hour)

	result, err := uc.Execute(context.Background(), ReassignInput{
		BookingID:    origin.Bookings[0].ID,
		BookingStart: target,
	})

	require.NoError(t, err)
	require.NotNil(t, result.NewAppointment)
	assert.Nil(t, result.ExistingAppointment)

	// The moved booking gets a fresh appointment without the synced event id.
	assert.Nil(t, result.NewAppointment.GoogleCalendarEventID)
	assert.True(t, result.NewAppointment.Rescheduled)
	assert.True(t, result.NewAppointment.BookingStart.Equal(target))

	remaining, err := repo.GetAppointment(context.Background(), origin.ID)
	require.NoError(t, err)
	assert.Len(t, remaining.Bookings, 1)
	assert.Equal(t, uint(22), remaining.Bookings[0].CustomerID)
}

func TestReassign_CustomerBlockedByPolicy(t *testing.T) {
	repo, uc := newReassignFixture()
	repo.addService(visibleService(1, false), 7)
	repo.settings[settings.KeyAllowCustomerReschedule] = "false"

	origin := repo.seedAppointment(models.Appointment{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		BookingEnd:   slotStart.Add(time.Hour),
		Status:       string(domain.StatusPending),
	}, models.CustomerBooking{CustomerID: 11, Status: string(domain.StatusPending), Persons: 1})

	customerID := uint(11)
	_, err := uc.Execute(context.Background(), ReassignInput{
		BookingID:           origin.Bookings[0].ID,
		BookingStart:        slotStart.Add(3 * time.Hour),
		RequesterCustomerID: &customerID,
	})

	assert.True(t, httperr.IsBusiness(err, httperr.CodeRescheduleNotAllowed))
}

func TestReassign_CustomerCannotMoveForeignBooking(t *testing.T) {
	repo, uc := newReassignFixture()
	repo.addService(visibleService(1, false), 7)

	origin := repo.seedAppointment(models.Appointment{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		BookingEnd:   slotStart.Add(time.Hour),
		Status:       string(domain.StatusPending),
	}, models.CustomerBooking{CustomerID: 11, Status: string(domain.StatusPending), Persons: 1})

	otherCustomer := uint(99)
	_, err := uc.Execute(context.Background(), ReassignInput{
		BookingID:           origin.Bookings[0].ID,
		BookingStart:        slotStart.Add(3 * time.Hour),
		RequesterCustomerID: &otherCustomer,
	})

	assert.True(t, httperr.IsBusiness(err, httperr.CodeForbidden))
}

func TestReassign_RejectsInsideNoticeWindow(t *testing.T) {
	repo, uc := newReassignFixture()
	repo.addService(visibleService(1, false), 7)
	repo.settings[settings.KeyMinimumRescheduleSecs] = "3600"

	origin := repo.seedAppointment(models.Appointment{
		ServiceID:    1,
		ProviderID:   7,
		BookingStart: slotStart,
		BookingEnd:   slotStart.Add(time.Hour),
		Status:       string(domain.StatusPending),
	}, models.CustomerBooking{CustomerID: 11, Status: string(domain.StatusPending), Persons: 1})

	// Half an hour before start, inside the one-hour window.
	uc.now = func() time.Time { return slotStart.Add(-30 * time.Minute) }

	_, err := uc.Execute(context.Background(), ReassignInput{
		BookingID:    origin.Bookings[0].ID,
		BookingStart: slotStart.Add(3 * time.Hour),
	})

	require.Error(t, err)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeMinimumNotice))

	// Nothing moved.
	unchanged, err := repo.GetAppointment(context.Background(), origin.ID)
	require.NoError(t, err)
	assert.True(t, unchanged.BookingStart.Equal(slotStart))
	assert.False(t, unchanged.Rescheduled)
}
