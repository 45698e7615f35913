package intake

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nyayasetu/legal-intake-platform/internal/bookings"
	"github.com/nyayasetu/legal-intake-platform/internal/i18n"
	"github.com/nyayasetu/legal-intake-platform/internal/observability/metrics"
	"github.com/nyayasetu/legal-intake-platform/internal/users"
	"github.com/nyayasetu/legal-intake-platform/pkg/logging"
)

// Option is one chat button shown to the user.
type Option struct {
	ID    string
	Label string
}

// Messenger delivers outbound messages to a channel address.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendOptions(ctx context.Context, to, body string, options []Option) error
}

// BookingService is the subset of bookings.Service the executor drives.
type BookingService interface {
	Create(ctx context.Context, userID uuid.UUID, category string, feePaise int, slot string, rebooking bool) (*bookings.Booking, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID, paymentRef string) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	RecordRating(ctx context.Context, id uuid.UUID, score int) error
}

// PaidNotifier alerts the operations team about a freshly paid booking.
type PaidNotifier interface {
	BookingPaid(ctx context.Context, user users.User, bookingID uuid.UUID) error
}

// ExecutorConfig bounds the executor's external calls.
type ExecutorConfig struct {
	MaxAttempts  int
	RetryBackoff time.Duration
	CallTimeout  time.Duration
	TypingDelay  time.Duration
	LLMModel     string
}

// Executor runs the effects a Decide call produced, in order, after the state
// transition has been committed. Effects cannot veto the transition; a failed
// effect is retried up to the configured budget, logged, and skipped. The
// executor never returns an error for an individual effect failure because
// redelivering the whole event would replay effects that already ran.
type Executor struct {
	messenger  Messenger
	translator i18n.Translator
	bookings   BookingService
	llm        LLMClient
	store      *Store
	notifier   PaidNotifier
	metrics    *metrics.IntakeMetrics
	logger     *logging.Logger
	cfg        ExecutorConfig
}

func NewExecutor(
	messenger Messenger,
	translator i18n.Translator,
	bookingSvc BookingService,
	llm LLMClient,
	store *Store,
	notifier PaidNotifier,
	m *metrics.IntakeMetrics,
	logger *logging.Logger,
	cfg ExecutorConfig,
) *Executor {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}
	return &Executor{
		messenger:  messenger,
		translator: translator,
		bookings:   bookingSvc,
		llm:        llm,
		store:      store,
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
		cfg:        cfg,
	}
}

// Execute runs every effect in order. It only stops early when ctx is done.
func (e *Executor) Execute(ctx context.Context, user users.User, effects []Effect) {
	for _, eff := range effects {
		if ctx.Err() != nil {
			e.logger.Warn("effect execution aborted", "user_id", user.ID, "error", ctx.Err())
			return
		}
		e.runEffect(ctx, user, eff)
	}
}

func (e *Executor) runEffect(ctx context.Context, user users.User, eff Effect) {
	switch v := eff.(type) {
	case SendText:
		e.sendText(ctx, user, v.Key, v.Params)
	case SendOptions:
		e.sendOptions(ctx, user, v)
	case GenerateReply:
		e.generateReply(ctx, user, v.Text)
	case CreateBooking:
		e.createBooking(ctx, user, v)
	case ConfirmPayment:
		e.confirmPayment(ctx, user, v)
	case MarkCompleted:
		e.markCompleted(ctx, user, v)
	case RecordRating:
		e.recordRating(ctx, user, v)
	default:
		e.logger.Error("unknown effect type", "user_id", user.ID, "effect", effectName(eff))
	}
}

func (e *Executor) sendText(ctx context.Context, user users.User, key i18n.MessageKey, params map[string]string) {
	body := e.translator.Translate(user.Locale, key, e.localizeParams(user.Locale, params))
	e.deliver(ctx, user, body, nil)
}

func (e *Executor) sendOptions(ctx context.Context, user users.User, eff SendOptions) {
	body := e.translator.Translate(user.Locale, eff.Key, e.localizeParams(user.Locale, eff.Params))
	e.deliver(ctx, user, body, e.resolveOptions(user.Locale, eff.Set))
}

func (e *Executor) generateReply(ctx context.Context, user users.User, text string) {
	// A human-feeling pause before the answer. Cancellation skips straight
	// to delivery rather than dropping the reply.
	if e.cfg.TypingDelay > 0 {
		timer := time.NewTimer(e.cfg.TypingDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	body := e.translator.Translate(user.Locale, i18n.MsgReplyFallback, nil)
	resp, err := e.completeWithTimeout(ctx, LLMRequest{
		Model:       e.cfg.LLMModel,
		System:      legalSystemPrompt(user.Locale),
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: text}},
		MaxTokens:   512,
		Temperature: 0.4,
	})
	if err != nil {
		e.logger.Error("reply generation failed, sending fallback", "user_id", user.ID, "error", err)
	} else if resp.Text != "" {
		body = resp.Text
	}
	e.deliver(ctx, user, body, nil)
}

func (e *Executor) completeWithTimeout(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()
	return e.llm.Complete(callCtx, req)
}

func (e *Executor) createBooking(ctx context.Context, user users.User, eff CreateBooking) {
	booking, err := e.bookings.Create(ctx, user.ID, eff.Category, eff.FeePaise, eff.TimeSlot, eff.Rebooking)
	if errors.Is(err, bookings.ErrActiveBookingExists) {
		e.logger.Warn("booking rejected, user has an active booking", "user_id", user.ID, "category", eff.Category)
		e.sendText(ctx, user, i18n.MsgBookingActive, nil)
		return
	}
	if err != nil && booking == nil {
		e.metrics.ObserveEffectFailure(effectName(eff))
		e.logger.Error("booking creation failed", "user_id", user.ID, "category", eff.Category, "error", err)
		e.sendText(ctx, user, i18n.MsgReplyFallback, nil)
		return
	}
	if err != nil {
		// Booking exists but the payment link could not be fetched. The
		// confirmation would be useless without it.
		e.metrics.ObserveEffectFailure(effectName(eff))
		e.logger.Error("payment link unavailable for booking", "booking_id", booking.ID, "error", err)
		e.sendText(ctx, user, i18n.MsgReplyFallback, nil)
		return
	}

	if booking.FeePaise == 0 {
		e.sendText(ctx, user, i18n.MsgRebookConfirm, map[string]string{"Slot": booking.TimeSlot})
		return
	}
	e.sendText(ctx, user, i18n.MsgBookingConfirm, map[string]string{
		"Slot": booking.TimeSlot,
		"Fee":  FormatRupees(booking.FeePaise),
		"Link": booking.PaymentURL,
	})
}

func (e *Executor) confirmPayment(ctx context.Context, user users.User, eff ConfirmPayment) {
	first, err := e.bookings.ConfirmPayment(ctx, eff.BookingID, eff.PaymentRef)
	if err != nil {
		e.metrics.ObserveEffectFailure(effectName(eff))
		e.logger.Error("payment confirmation failed", "booking_id", eff.BookingID, "error", err)
		return
	}
	if first && e.notifier != nil {
		if err := e.notifier.BookingPaid(ctx, user, eff.BookingID); err != nil {
			e.logger.Warn("paid-booking notification failed", "booking_id", eff.BookingID, "error", err)
		}
	}
}

func (e *Executor) markCompleted(ctx context.Context, user users.User, eff MarkCompleted) {
	if err := e.bookings.MarkCompleted(ctx, eff.BookingID); err != nil {
		e.metrics.ObserveEffectFailure(effectName(eff))
		e.logger.Error("mark completed failed", "booking_id", eff.BookingID, "error", err)
	}
}

func (e *Executor) recordRating(ctx context.Context, user users.User, eff RecordRating) {
	err := e.bookings.RecordRating(ctx, eff.BookingID, eff.Score)
	if err == nil {
		return
	}
	if errors.Is(err, bookings.ErrAlreadyRated) {
		e.logger.Warn("duplicate rating ignored", "booking_id", eff.BookingID, "user_id", user.ID)
		return
	}
	e.metrics.ObserveEffectFailure(effectName(eff))
	e.logger.Error("rating persistence failed", "booking_id", eff.BookingID, "error", err)
}

// deliver sends one outbound message with bounded retries and records it in
// the transcript on success.
func (e *Executor) deliver(ctx context.Context, user users.User, body string, options []Option) {
	var err error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			e.metrics.ObserveEffectRetry("send")
			select {
			case <-time.After(e.cfg.RetryBackoff * time.Duration(attempt-1)):
			case <-ctx.Done():
				return
			}
		}
		err = e.send(ctx, user.ChannelAddress, body, options)
		if err == nil {
			e.metrics.ObserveOutbound("sent")
			if e.store != nil {
				if logErr := e.store.AppendMessage(ctx, user.ID, DirectionOutbound, body); logErr != nil {
					e.logger.Warn("transcript append failed", "user_id", user.ID, "error", logErr)
				}
			}
			return
		}
	}
	e.metrics.ObserveOutbound("failed")
	e.metrics.ObserveEffectFailure("send")
	e.logger.Error("outbound send failed after retries",
		"user_id", user.ID,
		"attempts", e.cfg.MaxAttempts,
		"error", err,
	)
}

func (e *Executor) send(ctx context.Context, to, body string, options []Option) error {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()
	if len(options) > 0 {
		return e.messenger.SendOptions(callCtx, to, body, options)
	}
	return e.messenger.SendText(callCtx, to, body)
}

// resolveOptions turns an OptionSet into localized buttons.
func (e *Executor) resolveOptions(locale string, set OptionSet) []Option {
	switch set {
	case OptionSetLanguages:
		opts := make([]Option, 0, len(Languages))
		for _, l := range Languages {
			opts = append(opts, Option{ID: l.ID, Label: l.Label})
		}
		return opts
	case OptionSetCategories:
		opts := make([]Option, 0, len(Categories))
		for _, c := range Categories {
			label := c.Labels[locale]
			if label == "" {
				label = c.Labels[i18n.LocaleEnglish]
			}
			opts = append(opts, Option{ID: "cat_" + c.ID, Label: label})
		}
		return opts
	default:
		return nil
	}
}

// localizeParams replaces category IDs in message params with their localized
// labels. Other params pass through untouched.
func (e *Executor) localizeParams(locale string, params map[string]string) map[string]string {
	id, ok := params["Category"]
	if !ok {
		return params
	}
	cat, found := CategoryByID(id)
	if !found {
		return params
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	label := cat.Labels[locale]
	if label == "" {
		label = cat.Labels[i18n.LocaleEnglish]
	}
	out["Category"] = label
	return out
}

func effectName(eff Effect) string {
	switch eff.(type) {
	case SendText:
		return "send_text"
	case SendOptions:
		return "send_options"
	case GenerateReply:
		return "generate_reply"
	case CreateBooking:
		return "create_booking"
	case ConfirmPayment:
		return "confirm_payment"
	case MarkCompleted:
		return "mark_completed"
	case RecordRating:
		return "record_rating"
	default:
		return "unknown"
	}
}
