package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingApproved  BookingStatus = "APPROVED"
	BookingRejected  BookingStatus = "REJECTED"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingInUse     BookingStatus = "IN_USE"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// ActiveStatuses are the statuses that hold a resource's time slot. A PENDING
// booking counts as a soft hold so that two pending requests for the same slot
// cannot both be approved later.
var ActiveStatuses = []BookingStatus{
	BookingPending,
	BookingApproved,
	BookingConfirmed,
	BookingInUse,
}

// Active reports whether the status occupies its time slot for conflict
// detection purposes.
func (s BookingStatus) Active() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingRejected, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingApproved, BookingRejected, BookingConfirmed,
		BookingInUse, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// Booking reserves a resource for the half-open interval [StartTime, EndTime).
// Status is owned by the workflow in internal/booking; nothing else writes it.
type Booking struct {
	ID          string        `gorm:"primaryKey;size:36" json:"id"`
	ResourceID  string        `gorm:"size:36;not null;index:idx_bookings_resource_start" json:"resourceId"`
	RequesterID string        `gorm:"size:64;not null;index" json:"requesterId"`
	Title       string        `gorm:"size:200;not null" json:"title"`
	Description string        `gorm:"size:1000" json:"description,omitempty"`
	StartTime   time.Time     `gorm:"not null;index:idx_bookings_resource_start" json:"startTime"`
	EndTime     time.Time     `gorm:"not null" json:"endTime"`
	Status      BookingStatus `gorm:"size:20;not null;index" json:"status"`

	Purpose             string          `gorm:"size:300" json:"purpose,omitempty"`
	Attendees           int             `json:"attendees,omitempty"`
	ContactInfo         string          `gorm:"size:200" json:"contactInfo,omitempty"`
	SpecialRequirements string          `gorm:"size:1000" json:"specialRequirements,omitempty"`
	EstimatedCost       decimal.Decimal `gorm:"type:numeric(12,2)" json:"estimatedCost"`

	ApproverID      *string    `gorm:"size:64" json:"approverId"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectionReason string     `gorm:"size:500" json:"rejectionReason,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Resource Resource `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Overlaps reports whether the booking's interval intersects [start, end).
// Both intervals are half-open, so back-to-back bookings do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}

// Duration returns the booked length of time.
func (b *Booking) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}
