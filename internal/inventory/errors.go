package inventory

import "errors"

// Booking-path errors. Each one is detected inside the unit of work and
// surfaces only after a full rollback.
var (
	ErrContention       = errors.New("seats are locked by another in-flight request")
	ErrInvalidSeats     = errors.New("one or more seats do not exist for this show")
	ErrInvalidInput     = errors.New("invalid input")
	ErrSeatsUnavailable = errors.New("one or more seats are already booked or held")
	ErrHoldExpired      = errors.New("seat hold has expired")
	ErrNotFound         = errors.New("not found")
	ErrBookingFinalized = errors.New("booking already reached a terminal status")
)

// Error codes exposed at the boundary
const (
	CodeSeatsLocked      = "SEATS_LOCKED"
	CodeInvalidSeats     = "INVALID_SEATS"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeSeatsUnavailable = "SEATS_UNAVAILABLE"
	CodeExpired          = "EXPIRED"
	CodeNotFound         = "NOT_FOUND"
	CodeBookingFinalized = "BOOKING_FINALIZED"
	CodeInternal         = "INTERNAL"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrContention, CodeSeatsLocked},
	{ErrInvalidSeats, CodeInvalidSeats},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrSeatsUnavailable, CodeSeatsUnavailable},
	{ErrHoldExpired, CodeExpired},
	{ErrNotFound, CodeNotFound},
	{ErrBookingFinalized, CodeBookingFinalized},
}

// ErrorCode resolves a possibly wrapped error to its boundary code
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// IsRetryable reports whether the caller may retry the same request as is
func IsRetryable(err error) bool {
	return errors.Is(err, ErrContention)
}
