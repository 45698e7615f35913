package bookings

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the booking lifecycle state. Transitions only ever move forward:
// PENDING -> PAID -> COMPLETED.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCompleted Status = "COMPLETED"
)

var (
	// ErrNotFound is returned when no booking exists for the given id.
	ErrNotFound = errors.New("bookings: not found")
	// ErrInvalidTransition is returned when a lifecycle operation is
	// attempted on a booking in the wrong status.
	ErrInvalidTransition = errors.New("bookings: invalid status transition")
	// ErrAlreadyRated is returned on a second rating attempt.
	ErrAlreadyRated = errors.New("bookings: already rated")
	// ErrActiveBookingExists guards the one-active-booking-per-user rule.
	ErrActiveBookingExists = errors.New("bookings: user already has an active booking")
)

// Booking is a paid (or free follow-up) consultation slot.
type Booking struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Category   string
	FeePaise   int
	TimeSlot   string
	Status     Status
	PaymentRef string
	PaymentURL string
	Rating     *int
	Rebooking  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Active reports whether the booking still occupies the user's single
// active-booking slot. COMPLETED is the only terminal status.
func (b *Booking) Active() bool {
	return b.Status != StatusCompleted
}
