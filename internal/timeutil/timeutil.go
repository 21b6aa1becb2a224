package timeutil

import (
	"fmt"
	"time"
)

const Layout = "2006-01-02 15:04:05"

// ParseBookingStart turns a naive local timestamp into the UTC instant the
// core stores. When utcOffset (minutes east of UTC) is present the timestamp
// is interpreted on the customer's clock; otherwise on the tenant timezone.
func ParseBookingStart(value string, utcOffset *int, tenant *time.Location) (time.Time, error) {
	if utcOffset != nil {
		zone := time.FixedZone("client", *utcOffset*60)
		t, err := time.ParseInLocation(Layout, value, zone)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	}

	t, err := time.ParseInLocation(Layout, value, tenant)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Location resolves a tz database name, falling back to UTC.
func Location(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

// DayBounds returns the UTC window of one tenant-local calendar day.
func DayBounds(day time.Time, tenant *time.Location) (time.Time, time.Time) {
	local := day.In(tenant)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tenant)
	return start.UTC(), start.Add(24 * time.Hour).UTC()
}

// AtClock places an "HH:MM" clock time onto the given day in the tenant
// timezone, returned in UTC.
func AtClock(day time.Time, clock string, tenant *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("clock value %q: %w", clock, err)
	}
	local := day.In(tenant)
	return time.Date(local.Year(), local.Month(), local.Day(), t.Hour(), t.Minute(), 0, 0, tenant).UTC(), nil
}
