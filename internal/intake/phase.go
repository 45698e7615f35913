package intake

import (
	"fmt"

	"github.com/google/uuid"
)

// Phase is the authoritative conversation step. Exactly one State exists per
// user after first contact, and its phase decides how the next inbound event
// is interpreted.
type Phase string

const (
	PhaseAwaitingLanguage      Phase = "AWAITING_LANGUAGE"
	PhaseNormalChat            Phase = "NORMAL_CHAT"
	PhaseAwaitingCategory      Phase = "AWAITING_CATEGORY"
	PhaseAwaitingTimeSlot      Phase = "AWAITING_TIME_SLOT"
	PhaseAwaitingRating        Phase = "AWAITING_RATING"
	PhaseAwaitingRebookConfirm Phase = "AWAITING_REBOOK_CONFIRM"
)

// PendingBooking carries the category and fee chosen in AWAITING_CATEGORY
// until the time slot arrives.
type PendingBooking struct {
	Category string
	FeePaise int
}

// State is the per-user conversation state. The phase uniquely determines
// which optional fields are populated: Pending is non-nil iff the phase is
// AWAITING_TIME_SLOT, PendingRatingBookingID is non-nil iff the phase is
// AWAITING_RATING.
type State struct {
	Phase                  Phase
	Pending                *PendingBooking
	PendingRatingBookingID *uuid.UUID
	FollowupOffered        bool
}

// NewState is the state a user starts in before any outbound message exists.
func NewState() State {
	return State{Phase: PhaseNormalChat}
}

// CheckInvariant verifies the phase/optional-field coupling. It is cheap and
// called on every persisted transition.
func (s State) CheckInvariant() error {
	if (s.Pending != nil) != (s.Phase == PhaseAwaitingTimeSlot) {
		return fmt.Errorf("intake: pending booking set=%v in phase %s", s.Pending != nil, s.Phase)
	}
	if (s.PendingRatingBookingID != nil) != (s.Phase == PhaseAwaitingRating) {
		return fmt.Errorf("intake: pending rating ref set=%v in phase %s", s.PendingRatingBookingID != nil, s.Phase)
	}
	return nil
}
