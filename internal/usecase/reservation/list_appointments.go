package reservation

import (
	"context"
	"time"

	domain "github.com/appointly/scheduler/internal/domain/appointment"
	"github.com/appointly/scheduler/internal/models"
	"github.com/appointly/scheduler/internal/timeutil"
)

type ListAppointmentsInput struct {
	ProviderID uint
	From       time.Time
	To         time.Time
}

// ListAppointments returns a provider's agenda for a period, bookings and
// customers preloaded.
type ListAppointments struct {
	repo   domain.Repository
	tenant *time.Location
}

func NewListAppointments(repo domain.Repository, tenant *time.Location) *ListAppointments {
	return &ListAppointments{repo: repo, tenant: tenant}
}

func (uc *ListAppointments) Execute(ctx context.Context, in ListAppointmentsInput) ([]models.Appointment, error) {
	from, to := in.From, in.To
	if to.IsZero() {
		// Single-day query: expand to the tenant-local day window.
		from, to = timeutil.DayBounds(in.From, uc.tenant)
	}

	return uc.repo.ListAppointmentsForPeriod(ctx, in.ProviderID, from, to)
}
