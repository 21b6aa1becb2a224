package settings

import (
	"context"
	"strconv"
	"time"
)

// Store is the slice of the storage boundary the reader needs.
type Store interface {
	GetSettings(ctx context.Context) (map[string]string, error)
}

// Setting keys.
const (
	KeyDefaultStatus           = "defaultAppointmentStatus"
	KeyMinimumCancelSeconds    = "minimumTimePriorToCanceling"
	KeyMinimumRescheduleSecs   = "minimumTimePriorToRescheduling"
	KeyAllowCustomerReschedule = "allowCustomerReschedule"
	KeyUseClientTimeZone       = "showClientTimeZone"
	KeyDayStart                = "dayStart"
	KeyDayEnd                  = "dayEnd"
)

// Values carries the typed settings the engine consults, resolved with
// defaults for missing keys.
type Values struct {
	DefaultStatus           string
	MinimumCancelNotice     time.Duration
	MinimumRescheduleNotice time.Duration
	AllowCustomerReschedule bool
	UseClientTimeZone       bool
	DayStart                string
	DayEnd                  string
}

type Reader struct {
	store Store
}

func NewReader(store Store) *Reader {
	return &Reader{store: store}
}

func (r *Reader) Load(ctx context.Context) (Values, error) {
	raw, err := r.store.GetSettings(ctx)
	if err != nil {
		return Values{}, err
	}

	return Values{
		DefaultStatus:           str(raw, KeyDefaultStatus, "pending"),
		MinimumCancelNotice:     seconds(raw, KeyMinimumCancelSeconds, 0),
		MinimumRescheduleNotice: seconds(raw, KeyMinimumRescheduleSecs, 0),
		AllowCustomerReschedule: boolean(raw, KeyAllowCustomerReschedule, true),
		UseClientTimeZone:       boolean(raw, KeyUseClientTimeZone, false),
		DayStart:                clock(raw, KeyDayStart, "09:00"),
		DayEnd:                  clock(raw, KeyDayEnd, "17:00"),
	}, nil
}

func str(raw map[string]string, key, def string) string {
	if v, ok := raw[key]; ok && v != "" {
		return v
	}
	return def
}

func seconds(raw map[string]string, key string, def int) time.Duration {
	if v, ok := raw[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(def) * time.Second
}

// clock keeps a stored working-day bound only when it parses as "HH:MM"; a
// malformed value would otherwise collapse the slot-listing window.
func clock(raw map[string]string, key, def string) string {
	if v, ok := raw[key]; ok {
		if _, err := time.Parse("15:04", v); err == nil {
			return v
		}
	}
	return def
}

func boolean(raw map[string]string, key string, def bool) bool {
	if v, ok := raw[key]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
