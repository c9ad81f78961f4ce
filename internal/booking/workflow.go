package booking

import (
	"fmt"
	"time"

	"itms-booking-backend/internal/model"
)

// guard is an extra condition on a transition edge, evaluated against the
// clock and the booking's interval. A nil guard means the edge is
// unconditional.
type guard func(now time.Time, b *model.Booking) error

func notAfterStart(now time.Time, b *model.Booking) error {
	if now.After(b.StartTime) {
		return fmt.Errorf("%w: booking already started", ErrInvalidTransition)
	}
	return nil
}

func beforeStart(now time.Time, b *model.Booking) error {
	if !now.Before(b.StartTime) {
		return fmt.Errorf("%w: booking already started", ErrInvalidTransition)
	}
	return nil
}

func atOrAfterStart(now time.Time, b *model.Booking) error {
	if now.Before(b.StartTime) {
		return fmt.Errorf("%w: booking has not started yet", ErrInvalidTransition)
	}
	return nil
}

func atOrAfterEnd(now time.Time, b *model.Booking) error {
	if now.Before(b.EndTime) {
		return fmt.Errorf("%w: booking has not ended yet", ErrInvalidTransition)
	}
	return nil
}

// transitions is the legal state graph. An edge absent from this table is an
// invalid transition regardless of who requests it. The PENDING->APPROVED edge
// additionally requires a conflict re-check, which the service performs inside
// the same transaction as the status write.
var transitions = map[model.BookingStatus]map[model.BookingStatus]guard{
	model.BookingPending: {
		model.BookingApproved:  nil,
		model.BookingRejected:  nil,
		model.BookingCancelled: nil,
	},
	model.BookingApproved: {
		model.BookingConfirmed: notAfterStart,
		model.BookingCancelled: beforeStart,
	},
	model.BookingConfirmed: {
		model.BookingInUse:     atOrAfterStart,
		model.BookingCancelled: beforeStart,
	},
	model.BookingInUse: {
		model.BookingCompleted: atOrAfterEnd,
	},
}

// CanTransition reports whether an edge exists in the state graph, ignoring
// time guards.
func CanTransition(from, to model.BookingStatus) bool {
	_, ok := transitions[from][to]
	return ok
}

// Transition applies from -> to on the booking in place. It fails with
// ErrInvalidTransition (leaving the booking untouched) when the edge does not
// exist or its time guard rejects the clock reading.
func Transition(b *model.Booking, to model.BookingStatus, now time.Time) error {
	g, ok := transitions[b.Status][to]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	if g != nil {
		if err := g(now, b); err != nil {
			return err
		}
	}
	b.Status = to
	return nil
}
