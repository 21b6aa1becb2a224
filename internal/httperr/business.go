package httperr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Business error codes surfaced to callers as distinguishable failure kinds.
const (
	CodeSlotUnavailable       = "slot_unavailable"
	CodeSlotConflict          = "slot_conflict"
	CodeCustomerAlreadyBooked = "customer_already_booked"
	CodePackageUnavailable    = "package_unavailable"
	CodeMinimumNotice         = "minimum_notice"
	CodeRescheduleNotAllowed  = "reschedule_not_allowed"
	CodeBookingNotFound       = "booking_not_found"
	CodeServiceNotFound       = "service_not_found"
	CodeInvalidStatus         = "invalid_status"
	CodeForbidden             = "forbidden"
)

type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

func BusinessCode(err error) (string, bool) {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code, true
	}
	return "", false
}

// IsUniqueViolation reports whether err is a Postgres 23505 on insert, which
// for appointments means another request materialized the same slot first.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
