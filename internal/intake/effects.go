package intake

import (
	"github.com/google/uuid"

	"github.com/nyayasetu/legal-intake-platform/internal/i18n"
)

// OptionSet names a fixed set of chat buttons. The executor resolves the set
// to localized labels; the decision core never touches wording.
type OptionSet string

const (
	OptionSetLanguages  OptionSet = "languages"
	OptionSetCategories OptionSet = "categories"
)

// Effect is one side effect the state machine wants performed after its state
// transition has committed. Effects run in order; none of them can veto the
// transition that produced them.
type Effect interface {
	effect()
}

// SendText sends a localized message to the user.
type SendText struct {
	Key    i18n.MessageKey
	Params map[string]string
}

// SendOptions sends a localized prompt plus a button set.
type SendOptions struct {
	Key    i18n.MessageKey
	Params map[string]string
	Set    OptionSet
}

// GenerateReply asks the language model for an answer to the user's text and
// sends it, preceded by the typing delay.
type GenerateReply struct {
	Text string
}

// CreateBooking allocates a booking for the chosen slot, requests the payment
// link, and sends the confirmation.
type CreateBooking struct {
	Category  string
	FeePaise  int
	TimeSlot  string
	Rebooking bool
}

// ConfirmPayment advances the referenced booking to PAID.
type ConfirmPayment struct {
	BookingID  uuid.UUID
	PaymentRef string
}

// MarkCompleted advances the referenced booking to COMPLETED.
type MarkCompleted struct {
	BookingID uuid.UUID
}

// RecordRating stores the user's 1-4 score on the referenced booking.
type RecordRating struct {
	BookingID uuid.UUID
	Score     int
}

func (SendText) effect()       {}
func (SendOptions) effect()    {}
func (GenerateReply) effect()  {}
func (CreateBooking) effect()  {}
func (ConfirmPayment) effect() {}
func (MarkCompleted) effect()  {}
func (RecordRating) effect()   {}
