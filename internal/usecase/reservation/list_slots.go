package reservation

import (
	"context"
	"time"

	domain "github.com/appointly/scheduler/internal/domain/appointment"
	"github.com/appointly/scheduler/internal/httperr"
	"github.com/appointly/scheduler/internal/settings"
	"github.com/appointly/scheduler/internal/timeutil"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type ListSlotsInput struct {
	ServiceID  uint
	ProviderID uint
	Day        time.Time
	Persons    int
	Extras     []domain.ExtraSelection
}

type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ======================================================
// USE CASE
// ======================================================

type ListSlots struct {
	repo     domain.Repository
	checker  *domain.SlotChecker
	settings *settings.Reader
	tenant   *time.Location
	now      func() time.Time
}

func NewListSlots(repo domain.Repository, checker *domain.SlotChecker, reader *settings.Reader, tenant *time.Location) *ListSlots {
	return &ListSlots{
		repo:     repo,
		checker:  checker,
		settings: reader,
		tenant:   tenant,
		now:      time.Now,
	}
}

// Execute walks the working day in service-duration steps and keeps the
// starts the conflict checker accepts. Slots already in the past are skipped.
func (uc *ListSlots) Execute(ctx context.Context, in ListSlotsInput) ([]Slot, error) {
	service, err := uc.repo.GetProviderService(ctx, in.ServiceID, in.ProviderID)
	if err != nil {
		return nil, err
	}
	if service == nil {
		return nil, httperr.ErrBusiness(httperr.CodeServiceNotFound)
	}

	vals, err := uc.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	persons := in.Persons
	if persons <= 0 {
		persons = 1
	}

	step := time.Duration(service.Duration) * time.Second
	length := step
	for _, sel := range in.Extras {
		if extra, ok := domain.ExtraByID(service, sel.ID); ok {
			length += time.Duration(extra.Duration) * time.Second
		}
	}

	dayStart, err := timeutil.AtClock(in.Day, vals.DayStart, uc.tenant)
	if err != nil {
		return nil, err
	}
	dayEnd, err := timeutil.AtClock(in.Day, vals.DayEnd, uc.tenant)
	if err != nil {
		return nil, err
	}
	now := uc.now()

	slots := []Slot{}
	for start := dayStart; !start.Add(length).After(dayEnd); start = start.Add(step) {
		if start.Before(now) {
			continue
		}

		free, err := uc.checker.IsSlotFree(ctx, domain.SlotQuery{
			ServiceID:       in.ServiceID,
			ProviderID:      in.ProviderID,
			Start:           start,
			Extras:          in.Extras,
			Persons:         persons,
			EnforceCapacity: true,
		})
		if err != nil {
			return nil, err
		}
		if free {
			slots = append(slots, Slot{Start: start, End: start.Add(length)})
		}
	}

	return slots, nil
}
