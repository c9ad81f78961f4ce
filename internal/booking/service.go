package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"itms-booking-backend/internal/model"
)

// ListFilter narrows a booking listing. Zero fields are ignored. When both
// From and To are set, only bookings overlapping [From, To) are returned.
type ListFilter struct {
	ResourceID  string
	RequesterID string
	Statuses    []model.BookingStatus
	From        time.Time
	To          time.Time
}

// ConflictChecker answers overlap queries from inside the same transaction
// that is about to write a status change, so the check and the write cannot
// be separated by a concurrent insert.
type ConflictChecker interface {
	HasConflict(resourceID string, start, end time.Time, excludeID string) (bool, error)
}

// Ledger is the persistence the engine needs. The gorm implementation lives
// in internal/store; tests may substitute their own.
//
// CreateBooking must be an atomic validate-and-insert: it fails with
// ErrBookingConflict when the booking overlaps an active one for the same
// resource. UpdateBooking must load the booking, run apply, and persist the
// result all in one serialized transaction; apply errors abort the update.
type Ledger interface {
	GetResource(ctx context.Context, id string) (*model.Resource, error)
	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	ListBookings(ctx context.Context, f ListFilter) ([]model.Booking, error)
	UpdateBooking(ctx context.Context, id string, apply func(c ConflictChecker, b *model.Booking) error) (*model.Booking, error)
	HasConflict(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (bool, error)
	ListStartDue(ctx context.Context, asOf time.Time) ([]model.Booking, error)
	ListEndDue(ctx context.Context, asOf time.Time) ([]model.Booking, error)
}

// Booking lifecycle events handed to the notifier.
const (
	EventCreated   = "booking_created"
	EventApproved  = "booking_approved"
	EventRejected  = "booking_rejected"
	EventCancelled = "booking_cancelled"
)

// Notifier delivers booking events to the requester, best effort. A failed or
// dropped notification never fails the booking operation.
type Notifier interface {
	Notify(b *model.Booking, event string)
}

// Service is the booking engine: creation with conflict detection, the status
// workflow, and availability queries.
type Service struct {
	ledger   Ledger
	notifier Notifier
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier attaches a notifier for booking lifecycle events.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the service clock. Tests use this to pin time-guarded
// transitions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a booking service backed by the given ledger.
func NewService(ledger Ledger, opts ...Option) *Service {
	s := &Service{
		ledger: ledger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries everything needed to request a booking. RequesterID
// comes from the authenticated caller, never from the request body.
type CreateInput struct {
	ResourceID          string
	RequesterID         string
	Title               string
	Description         string
	Start               time.Time
	End                 time.Time
	Purpose             string
	Attendees           int
	ContactInfo         string
	SpecialRequirements string
}

// Create requests a booking. The resource must exist and accept bookings, the
// interval must be valid, and the interval must not overlap any active booking
// for the resource; PENDING bookings hold their slot. The new booking starts
// in PENDING.
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.Booking, error) {
	iv, err := NewInterval(input.Start, input.End)
	if err != nil {
		return nil, err
	}

	res, err := s.ledger.GetResource(ctx, input.ResourceID)
	if err != nil {
		return nil, err
	}
	if !res.Bookable() {
		return nil, fmt.Errorf("%w: resource %s is %s", ErrResourceUnavailable, res.ID, res.Status)
	}

	now := s.now()
	b := &model.Booking{
		ID:                  uuid.NewString(),
		ResourceID:          res.ID,
		RequesterID:         input.RequesterID,
		Title:               input.Title,
		Description:         input.Description,
		StartTime:           iv.Start,
		EndTime:             iv.End,
		Status:              model.BookingPending,
		Purpose:             input.Purpose,
		Attendees:           input.Attendees,
		ContactInfo:         input.ContactInfo,
		SpecialRequirements: input.SpecialRequirements,
		EstimatedCost:       estimateCost(res.HourlyRate, iv.Duration()),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.ledger.CreateBooking(ctx, b); err != nil {
		return nil, err
	}
	s.notify(b, EventCreated)
	return b, nil
}

// estimateCost prices a booking at the resource's hourly rate, pro rata.
func estimateCost(hourlyRate decimal.Decimal, d time.Duration) decimal.Decimal {
	hours := decimal.NewFromFloat(d.Hours())
	return hourlyRate.Mul(hours).Round(2)
}

// Get fetches a booking by id.
func (s *Service) Get(ctx context.Context, id string) (*model.Booking, error) {
	return s.ledger.GetBooking(ctx, id)
}

// List returns bookings matching the filter, ordered by start time ascending.
func (s *Service) List(ctx context.Context, f ListFilter) ([]model.Booking, error) {
	return s.ledger.ListBookings(ctx, f)
}

// Approve moves a PENDING booking to APPROVED. The overlap check is repeated
// inside the update transaction, excluding the booking itself: a PENDING
// sibling created concurrently would otherwise slip through.
func (s *Service) Approve(ctx context.Context, id, approverID string) (*model.Booking, error) {
	now := s.now()
	updated, err := s.ledger.UpdateBooking(ctx, id, func(c ConflictChecker, b *model.Booking) error {
		if err := Transition(b, model.BookingApproved, now); err != nil {
			return err
		}
		conflict, err := c.HasConflict(b.ResourceID, b.StartTime, b.EndTime, b.ID)
		if err != nil {
			return err
		}
		if conflict {
			return ErrBookingConflict
		}
		b.ApproverID = &approverID
		approvedAt := now
		b.ApprovedAt = &approvedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(updated, EventApproved)
	return updated, nil
}

// Reject moves a PENDING booking to REJECTED, recording who rejected it and
// why.
func (s *Service) Reject(ctx context.Context, id, approverID, reason string) (*model.Booking, error) {
	now := s.now()
	updated, err := s.ledger.UpdateBooking(ctx, id, func(_ ConflictChecker, b *model.Booking) error {
		if err := Transition(b, model.BookingRejected, now); err != nil {
			return err
		}
		b.ApproverID = &approverID
		b.RejectionReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(updated, EventRejected)
	return updated, nil
}

// Cancel moves a booking to CANCELLED. Whether the actor may cancel someone
// else's booking is the caller's concern; the engine only enforces the state
// graph and its time guards (an APPROVED or CONFIRMED booking cannot be
// cancelled once its interval has started).
func (s *Service) Cancel(ctx context.Context, id, actorID string) (*model.Booking, error) {
	now := s.now()
	updated, err := s.ledger.UpdateBooking(ctx, id, func(_ ConflictChecker, b *model.Booking) error {
		return Transition(b, model.BookingCancelled, now)
	})
	if err != nil {
		return nil, err
	}
	s.notify(updated, EventCancelled)
	return updated, nil
}

// Confirm moves an APPROVED booking to CONFIRMED. Allowed up to and including
// the start instant.
func (s *Service) Confirm(ctx context.Context, id string) (*model.Booking, error) {
	now := s.now()
	return s.ledger.UpdateBooking(ctx, id, func(_ ConflictChecker, b *model.Booking) error {
		return Transition(b, model.BookingConfirmed, now)
	})
}

// StartDueBookings moves every CONFIRMED booking whose interval has begun to
// IN_USE. Called by the periodic sweep; failures on one booking do not stop
// the rest.
func (s *Service) StartDueBookings(ctx context.Context) ([]model.Booking, error) {
	return s.sweepDue(ctx, s.ledger.ListStartDue, model.BookingInUse)
}

// CompleteDueBookings moves every IN_USE booking whose interval has ended to
// COMPLETED.
func (s *Service) CompleteDueBookings(ctx context.Context) ([]model.Booking, error) {
	return s.sweepDue(ctx, s.ledger.ListEndDue, model.BookingCompleted)
}

func (s *Service) sweepDue(ctx context.Context, list func(context.Context, time.Time) ([]model.Booking, error), to model.BookingStatus) ([]model.Booking, error) {
	now := s.now()
	due, err := list(ctx, now)
	if err != nil {
		return nil, err
	}

	var moved []model.Booking
	for _, b := range due {
		updated, err := s.ledger.UpdateBooking(ctx, b.ID, func(_ ConflictChecker, b *model.Booking) error {
			return Transition(b, to, now)
		})
		if err != nil {
			// Raced with a cancellation or an earlier sweep; skip it.
			log.Printf("sweep: booking %s -> %s failed: %v", b.ID, to, err)
			continue
		}
		moved = append(moved, *updated)
	}
	return moved, nil
}

// IsFree reports whether the resource accepts bookings and the interval is
// clear of active bookings.
func (s *Service) IsFree(ctx context.Context, resourceID string, start, end time.Time) (bool, error) {
	iv, err := NewInterval(start, end)
	if err != nil {
		return false, err
	}
	res, err := s.ledger.GetResource(ctx, resourceID)
	if err != nil {
		return false, err
	}
	if !res.Bookable() {
		return false, nil
	}
	conflict, err := s.ledger.HasConflict(ctx, resourceID, iv.Start, iv.End, "")
	if err != nil {
		return false, err
	}
	return !conflict, nil
}

// FreeBusy computes the resource's free/busy timeline over [from, to): active
// bookings clamped to the range and coalesced, with the complementary gaps in
// between. Read-only; calling it twice without intervening writes yields the
// same answer.
func (s *Service) FreeBusy(ctx context.Context, resourceID string, from, to time.Time) ([]Span, error) {
	bounds, err := NewInterval(from, to)
	if err != nil {
		return nil, err
	}
	if _, err := s.ledger.GetResource(ctx, resourceID); err != nil {
		return nil, err
	}

	active, err := s.ledger.ListBookings(ctx, ListFilter{
		ResourceID: resourceID,
		Statuses:   model.ActiveStatuses,
		From:       bounds.Start,
		To:         bounds.End,
	})
	if err != nil {
		return nil, err
	}

	busy := make([]Interval, 0, len(active))
	for _, b := range active {
		busy = append(busy, Interval{Start: b.StartTime, End: b.EndTime})
	}
	return freeBusy(bounds, busy), nil
}

func (s *Service) notify(b *model.Booking, event string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(b, event)
}
