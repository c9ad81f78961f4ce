package booking

import "errors"

// Failure kinds reported by the booking engine. Callers match these with
// errors.Is; the API layer maps them onto HTTP statuses.
var (
	ErrResourceNotFound    = errors.New("resource not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrInvalidInterval     = errors.New("invalid interval: start must be before end")
	ErrResourceUnavailable = errors.New("resource does not accept bookings")
	ErrBookingConflict     = errors.New("interval overlaps an active booking")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrUnauthorized        = errors.New("actor lacks the required capability")
)
