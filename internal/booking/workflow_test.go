package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itms-booking-backend/internal/model"
)

func TestCanTransition(t *testing.T) {
	allowed := map[model.BookingStatus][]model.BookingStatus{
		model.BookingPending:   {model.BookingApproved, model.BookingRejected, model.BookingCancelled},
		model.BookingApproved:  {model.BookingConfirmed, model.BookingCancelled},
		model.BookingConfirmed: {model.BookingInUse, model.BookingCancelled},
		model.BookingInUse:     {model.BookingCompleted},
		model.BookingRejected:  {},
		model.BookingCompleted: {},
		model.BookingCancelled: {},
	}

	all := []model.BookingStatus{
		model.BookingPending, model.BookingApproved, model.BookingRejected,
		model.BookingConfirmed, model.BookingInUse, model.BookingCompleted,
		model.BookingCancelled,
	}

	for from, targets := range allowed {
		ok := make(map[model.BookingStatus]bool, len(targets))
		for _, to := range targets {
			ok[to] = true
		}
		for _, to := range all {
			assert.Equal(t, ok[to], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTransitionTimeGuards(t *testing.T) {
	b := func(status model.BookingStatus) *model.Booking {
		return &model.Booking{
			ID:        "b1",
			Status:    status,
			StartTime: at(10, 0),
			EndTime:   at(12, 0),
		}
	}

	t.Run("approved confirms up to the start instant", func(t *testing.T) {
		bk := b(model.BookingApproved)
		require.NoError(t, Transition(bk, model.BookingConfirmed, at(10, 0)))
		assert.Equal(t, model.BookingConfirmed, bk.Status)
	})

	t.Run("approved cannot confirm after start", func(t *testing.T) {
		bk := b(model.BookingApproved)
		err := Transition(bk, model.BookingConfirmed, at(10, 1))
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, model.BookingApproved, bk.Status, "failed transition must not change status")
	})

	t.Run("approved cancels only strictly before start", func(t *testing.T) {
		bk := b(model.BookingApproved)
		require.NoError(t, Transition(bk, model.BookingCancelled, at(9, 59)))

		bk = b(model.BookingApproved)
		assert.ErrorIs(t, Transition(bk, model.BookingCancelled, at(10, 0)), ErrInvalidTransition)
	})

	t.Run("confirmed cancels only strictly before start", func(t *testing.T) {
		bk := b(model.BookingConfirmed)
		require.NoError(t, Transition(bk, model.BookingCancelled, at(9, 0)))

		bk = b(model.BookingConfirmed)
		assert.ErrorIs(t, Transition(bk, model.BookingCancelled, at(10, 0)), ErrInvalidTransition)
	})

	t.Run("confirmed starts at or after the start instant", func(t *testing.T) {
		bk := b(model.BookingConfirmed)
		assert.ErrorIs(t, Transition(bk, model.BookingInUse, at(9, 59)), ErrInvalidTransition)

		bk = b(model.BookingConfirmed)
		require.NoError(t, Transition(bk, model.BookingInUse, at(10, 0)))
	})

	t.Run("in use completes at or after the end instant", func(t *testing.T) {
		bk := b(model.BookingInUse)
		assert.ErrorIs(t, Transition(bk, model.BookingCompleted, at(11, 59)), ErrInvalidTransition)

		bk = b(model.BookingInUse)
		require.NoError(t, Transition(bk, model.BookingCompleted, at(12, 0)))
	})

	t.Run("pending edges are unconditional", func(t *testing.T) {
		late := at(13, 0) // after the interval entirely
		for _, to := range []model.BookingStatus{model.BookingApproved, model.BookingRejected, model.BookingCancelled} {
			bk := b(model.BookingPending)
			assert.NoError(t, Transition(bk, to, late), "PENDING -> %s", to)
		}
	})

	t.Run("terminal states have no exits", func(t *testing.T) {
		for _, from := range []model.BookingStatus{model.BookingRejected, model.BookingCompleted, model.BookingCancelled} {
			bk := b(from)
			err := Transition(bk, model.BookingPending, at(9, 0))
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s must be terminal", from)
		}
	})
}
