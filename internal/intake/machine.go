package intake

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nyayasetu/legal-intake-platform/internal/bookings"
	"github.com/nyayasetu/legal-intake-platform/internal/events"
	"github.com/nyayasetu/legal-intake-platform/internal/i18n"
	"github.com/nyayasetu/legal-intake-platform/internal/users"
)

// Snapshot is everything Decide may read: the user, their conversation state,
// and the derived signals. Booking is pre-loaded by the service for payment,
// admin, and rating events; Decide itself performs no I/O.
type Snapshot struct {
	User          users.User
	State         State
	OutboundCount int
	Booking       *bookings.Booking
}

// Decision is the outcome of one event: the next state, pending user
// mutations, and the ordered effects to execute after the state commits.
type Decision struct {
	State         State
	SetLocale     string
	CountQuestion bool
	Effects       []Effect
}

// Decide is the intake transition function. It evaluates the rules in
// priority order against the current phase and event content; the first match
// wins. It never blocks and never mutates its inputs.
func Decide(snap Snapshot, evt events.Event) (Decision, error) {
	if err := evt.Validate(); err != nil {
		return Decision{}, err
	}

	switch evt.Kind {
	case events.KindPaymentConfirmed:
		return decidePayment(snap, evt)
	case events.KindAdminMarkCompleted:
		return decideAdminCompleted(snap, evt)
	}

	return decideChat(snap, evt)
}

func decidePayment(snap Snapshot, evt events.Event) (Decision, error) {
	if snap.Booking == nil {
		return Decision{}, fmt.Errorf("%w: payment for unknown booking %s", bookings.ErrNotFound, evt.BookingID)
	}
	dec := Decision{State: snap.State}
	if snap.Booking.Status != bookings.StatusPending {
		// Duplicate confirmation: same final state as the first delivery.
		return dec, nil
	}
	dec.Effects = []Effect{
		ConfirmPayment{BookingID: evt.BookingID, PaymentRef: evt.PaymentRef},
		SendText{Key: i18n.MsgPaymentReceived, Params: map[string]string{"CaseID": snap.User.CaseID}},
	}
	return dec, nil
}

func decideAdminCompleted(snap Snapshot, evt events.Event) (Decision, error) {
	if snap.Booking == nil {
		return Decision{}, fmt.Errorf("%w: completion for unknown booking %s", bookings.ErrNotFound, evt.BookingID)
	}
	if snap.Booking.Status != bookings.StatusPaid {
		return Decision{}, fmt.Errorf("%w: mark completed on %s booking", bookings.ErrInvalidTransition, snap.Booking.Status)
	}

	// The completion pre-empts whatever the user's own chat was doing.
	bookingID := evt.BookingID
	next := snap.State
	next.Phase = PhaseAwaitingRating
	next.Pending = nil
	next.PendingRatingBookingID = &bookingID

	return Decision{
		State: next,
		Effects: []Effect{
			MarkCompleted{BookingID: bookingID},
			SendText{Key: i18n.MsgRatingRequest},
		},
	}, nil
}

func decideChat(snap Snapshot, evt events.Event) (Decision, error) {
	state := snap.State
	input := evt.Input()

	// Priority 1: a pending rating pre-empts every other reading of the text.
	// A lone "1" here is a score, never a legal question.
	if state.Phase == PhaseAwaitingRating {
		return decideRating(state, input)
	}

	// Priority 2: rebook confirmation. Anything other than "yes" declines the
	// offer and drops back to normal chat, handled below in the same pass.
	if state.Phase == PhaseAwaitingRebookConfirm {
		if IsAffirmative(input) {
			state.Phase = PhaseAwaitingTimeSlot
			state.Pending = &PendingBooking{Category: CategoryOther, FeePaise: 0}
			return Decision{
				State:   state,
				Effects: []Effect{SendText{Key: i18n.MsgRebookSlotPrompt}},
			}, nil
		}
		state.Phase = PhaseNormalChat
	}

	// Priority 3: first-ever contact, regardless of what was typed.
	if snap.OutboundCount == 0 {
		state.Phase = PhaseAwaitingLanguage
		return Decision{
			State: state,
			Effects: []Effect{SendOptions{
				Key:    i18n.MsgWelcome,
				Params: map[string]string{"CaseID": snap.User.CaseID},
				Set:    OptionSetLanguages,
			}},
		}, nil
	}

	// Priority 4: language selection.
	if state.Phase == PhaseAwaitingLanguage {
		if lang, ok := LanguageByInput(input); ok {
			state.Phase = PhaseNormalChat
			return Decision{
				State:     state,
				SetLocale: lang.Locale,
				Effects:   []Effect{SendText{Key: i18n.MsgLanguageConfirm}},
			}, nil
		}
		if !bookingIntentApplies(snap, input) {
			return Decision{
				State:   state,
				Effects: []Effect{SendOptions{Key: i18n.MsgLanguageReprompt, Set: OptionSetLanguages}},
			}, nil
		}
	}

	// Priority 5: booking intent from any non-booking phase, gated on at
	// least one substantive question so far.
	if state.Phase != PhaseAwaitingCategory && state.Phase != PhaseAwaitingTimeSlot {
		if bookingIntentApplies(snap, input) {
			state.Phase = PhaseAwaitingCategory
			return Decision{
				State:   state,
				Effects: []Effect{SendOptions{Key: i18n.MsgCategoryPrompt, Set: OptionSetCategories}},
			}, nil
		}
	}

	// Priority 6: category selection.
	if state.Phase == PhaseAwaitingCategory {
		cat, ok := CategoryByInput(input)
		if !ok {
			return Decision{
				State:   state,
				Effects: []Effect{SendOptions{Key: i18n.MsgCategoryReprompt, Set: OptionSetCategories}},
			}, nil
		}
		state.Phase = PhaseAwaitingTimeSlot
		state.Pending = &PendingBooking{Category: cat.ID, FeePaise: cat.FeePaise}
		return Decision{
			State: state,
			Effects: []Effect{SendText{
				Key:    i18n.MsgSlotPrompt,
				Params: map[string]string{"Category": cat.ID, "Fee": FormatRupees(cat.FeePaise)},
			}},
		}, nil
	}

	// Priority 7: any non-empty text in AWAITING_TIME_SLOT is the slot.
	if state.Phase == PhaseAwaitingTimeSlot {
		pending := state.Pending
		if pending == nil {
			// Should be unreachable given the state invariant; recover by
			// falling back to the catch-all category rather than dropping the
			// user's booking attempt.
			fallback, _ := CategoryByID(CategoryOther)
			pending = &PendingBooking{Category: fallback.ID, FeePaise: fallback.FeePaise}
		}
		state.Phase = PhaseNormalChat
		state.Pending = nil
		return Decision{
			State: state,
			Effects: []Effect{CreateBooking{
				Category:  pending.Category,
				FeePaise:  pending.FeePaise,
				TimeSlot:  strings.TrimSpace(input),
				Rebooking: pending.FeePaise == 0,
			}},
		}, nil
	}

	// Priority 8: normal chat fallback.
	dec := Decision{State: state, CountQuestion: IsRealQuestion(input)}
	dec.Effects = append(dec.Effects, GenerateReply{Text: evt.Text})

	effective := snap.User.RealQuestionCount
	if dec.CountQuestion {
		effective++
	}
	if effective >= 2 && !state.FollowupOffered {
		dec.State.FollowupOffered = true
		dec.Effects = append(dec.Effects, SendText{Key: i18n.MsgUpsell})
	}
	return dec, nil
}

func decideRating(state State, input string) (Decision, error) {
	bookingID := state.PendingRatingBookingID
	if bookingID == nil {
		// Invariant violation; re-enter normal chat rather than trapping the
		// user in a rating loop with nothing to rate.
		state.Phase = PhaseNormalChat
		state.PendingRatingBookingID = nil
		return Decision{State: state, Effects: []Effect{SendText{Key: i18n.MsgRatingThanks}}}, nil
	}

	score, ok := ParseRating(input)
	if !ok {
		return Decision{
			State:   state,
			Effects: []Effect{SendText{Key: i18n.MsgRatingReprompt}},
		}, nil
	}

	id := *bookingID
	state.PendingRatingBookingID = nil
	effects := []Effect{RecordRating{BookingID: id, Score: score}}

	if score == 4 {
		state.Phase = PhaseAwaitingRebookConfirm
		effects = append(effects, SendText{Key: i18n.MsgRatingSorry})
	} else {
		state.Phase = PhaseNormalChat
		effects = append(effects, SendText{Key: i18n.MsgRatingThanks})
	}
	return Decision{State: state, Effects: effects}, nil
}

func bookingIntentApplies(snap Snapshot, input string) bool {
	return MatchBookingIntent(input) && snap.User.RealQuestionCount >= 1
}

// FormatRupees renders a paise amount as whole rupees for user copy.
func FormatRupees(paise int) string {
	return strconv.Itoa(paise / 100)
}
