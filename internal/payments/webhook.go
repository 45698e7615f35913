package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nyayasetu/legal-intake-platform/internal/bookings"
	"github.com/nyayasetu/legal-intake-platform/internal/events"
	"github.com/nyayasetu/legal-intake-platform/internal/users"
	"github.com/nyayasetu/legal-intake-platform/pkg/logging"
)

// EventSink accepts normalized events for asynchronous processing.
type EventSink interface {
	Publish(ctx context.Context, evt events.Event) error
}

type bookingGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
}

type userGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

type processedTracker interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

const webhookProvider = "payment_provider"

// webhookPayload is the provider's payment_link.paid notification. The
// reference ID carries our booking UUID.
type webhookPayload struct {
	Event       string `json:"event"`
	EventID     string `json:"event_id"`
	ReferenceID string `json:"reference_id"`
	PaymentID   string `json:"payment_id"`
}

// WebhookHandler receives payment-provider callbacks, verifies their HMAC
// signature, deduplicates them, and forwards a PaymentConfirmed event for the
// affected user. It always acks fast; the conversation work happens on the
// queue.
type WebhookHandler struct {
	secret    string
	bookings  bookingGetter
	users     userGetter
	processed processedTracker
	sink      EventSink
	logger    *logging.Logger
}

func NewWebhookHandler(secret string, bookingRepo bookingGetter, userRepo userGetter, processed processedTracker, sink EventSink, logger *logging.Logger) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		secret:    secret,
		bookings:  bookingRepo,
		users:     userRepo,
		processed: processed,
		sink:      sink,
		logger:    logger,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		h.logger.Error("payment webhook rejected: no secret configured")
		http.Error(w, "webhook not configured", http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "unable to read body", http.StatusBadRequest)
		return
	}

	if !h.validSignature(body, r.Header.Get("X-Webhook-Signature")) {
		h.logger.Warn("payment webhook signature mismatch", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if payload.Event != "payment_link.paid" {
		// Not an event we act on; ack so the provider stops resending.
		w.WriteHeader(http.StatusOK)
		return
	}

	status, err := h.handlePaid(r.Context(), payload)
	if err != nil {
		h.logger.Error("payment webhook processing failed",
			"event_id", payload.EventID,
			"reference_id", payload.ReferenceID,
			"error", err,
		)
	}
	w.WriteHeader(status)
}

func (h *WebhookHandler) handlePaid(ctx context.Context, payload webhookPayload) (int, error) {
	bookingID, err := uuid.Parse(payload.ReferenceID)
	if err != nil {
		return http.StatusBadRequest, fmt.Errorf("payments: bad reference id %q: %w", payload.ReferenceID, err)
	}
	if payload.PaymentID == "" {
		return http.StatusBadRequest, errors.New("payments: webhook missing payment id")
	}

	eventID := payload.EventID
	if eventID == "" {
		// Some providers omit an event ID on redelivery; the payment ID is
		// stable per payment and serves the same purpose.
		eventID = payload.PaymentID
	}
	if h.processed != nil {
		seen, err := h.processed.AlreadyProcessed(ctx, webhookProvider, eventID)
		if err != nil {
			return http.StatusInternalServerError, err
		}
		if seen {
			return http.StatusOK, nil
		}
	}

	booking, err := h.bookings.Get(ctx, bookingID)
	if errors.Is(err, bookings.ErrNotFound) {
		// Ack: the provider cannot fix an unknown booking by retrying.
		return http.StatusOK, fmt.Errorf("payments: webhook for unknown booking %s", bookingID)
	}
	if err != nil {
		return http.StatusInternalServerError, err
	}

	user, err := h.users.GetByID(ctx, booking.UserID)
	if err != nil {
		return http.StatusInternalServerError, err
	}

	evt := events.Event{
		ID:             eventID,
		Kind:           events.KindPaymentConfirmed,
		ChannelAddress: user.ChannelAddress,
		BookingID:      bookingID,
		PaymentRef:     payload.PaymentID,
		ReceivedAt:     time.Now().UTC(),
	}
	if err := h.sink.Publish(ctx, evt); err != nil {
		// Leave the event unmarked so the provider's retry reaches the sink.
		return http.StatusInternalServerError, err
	}

	// Marked only after the event is safely queued. Racing deliveries produce
	// at most a duplicate PaymentConfirmed, which the confirm step absorbs.
	if h.processed != nil {
		if _, err := h.processed.MarkProcessed(ctx, webhookProvider, eventID); err != nil {
			h.logger.Warn("payment webhook dedupe record failed", "event_id", eventID, "error", err)
		}
	}

	h.logger.Info("payment confirmation queued", "booking_id", bookingID, "payment_ref", payload.PaymentID)
	return http.StatusOK, nil
}

func (h *WebhookHandler) validSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
