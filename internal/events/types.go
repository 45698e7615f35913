package events

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind enumerates the normalized inbound event types the intake core accepts.
type Kind string

const (
	KindChatText           Kind = "chat_text"
	KindChatSelection      Kind = "chat_selection"
	KindPaymentConfirmed   Kind = "payment_confirmed"
	KindAdminMarkCompleted Kind = "admin_mark_completed"
)

// ErrMalformedEvent signals a structurally invalid event. Nothing is mutated.
var ErrMalformedEvent = errors.New("events: malformed event")

// Event is the single envelope handed to the intake state machine, regardless
// of whether it originated from the chat webhook, the payment provider, or the
// admin API.
type Event struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	ChannelAddress string    `json:"channel_address"`
	DisplayName    string    `json:"display_name,omitempty"`
	Text           string    `json:"text,omitempty"`
	OptionID       string    `json:"option_id,omitempty"`
	BookingID      uuid.UUID `json:"booking_id,omitempty"`
	PaymentRef     string    `json:"payment_ref,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
}

// Validate checks the structural requirements for each event kind.
func (e Event) Validate() error {
	if strings.TrimSpace(e.ChannelAddress) == "" {
		return ErrMalformedEvent
	}
	switch e.Kind {
	case KindChatText:
		if strings.TrimSpace(e.Text) == "" {
			return ErrMalformedEvent
		}
	case KindChatSelection:
		if strings.TrimSpace(e.OptionID) == "" {
			return ErrMalformedEvent
		}
	case KindPaymentConfirmed:
		if e.BookingID == uuid.Nil || strings.TrimSpace(e.PaymentRef) == "" {
			return ErrMalformedEvent
		}
	case KindAdminMarkCompleted:
		if e.BookingID == uuid.Nil {
			return ErrMalformedEvent
		}
	default:
		return ErrMalformedEvent
	}
	return nil
}

// Input returns the user-entered content for chat events: the button ID for
// selections, the raw text otherwise. Selection labels are never trusted.
func (e Event) Input() string {
	if e.Kind == KindChatSelection {
		return e.OptionID
	}
	return e.Text
}
