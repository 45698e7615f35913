package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyayasetu/legal-intake-platform/internal/bookings"
	"github.com/nyayasetu/legal-intake-platform/internal/events"
	"github.com/nyayasetu/legal-intake-platform/internal/users"
)

const testSecret = "whsec_test"

type stubBookingGetter struct {
	booking *bookings.Booking
}

func (s *stubBookingGetter) Get(_ context.Context, id uuid.UUID) (*bookings.Booking, error) {
	if s.booking == nil || s.booking.ID != id {
		return nil, bookings.ErrNotFound
	}
	return s.booking, nil
}

type stubUserGetter struct {
	user *users.User
}

func (s *stubUserGetter) GetByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, users.ErrNotFound
	}
	return s.user, nil
}

type stubTracker struct {
	seen map[string]bool
}

func (s *stubTracker) AlreadyProcessed(_ context.Context, provider, eventID string) (bool, error) {
	return s.seen[provider+":"+eventID], nil
}

func (s *stubTracker) MarkProcessed(_ context.Context, provider, eventID string) (bool, error) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	key := provider + ":" + eventID
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

type stubSink struct {
	published []events.Event
	err       error
}

func (s *stubSink) Publish(_ context.Context, evt events.Event) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, evt)
	return nil
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func paidPayload(bookingID uuid.UUID, eventID string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":"payment_link.paid","event_id":%q,"reference_id":%q,"payment_id":"pay_123"}`,
		eventID, bookingID,
	))
}

func newWebhookFixture() (*WebhookHandler, *stubSink, *bookings.Booking, *users.User) {
	user := &users.User{ID: uuid.New(), ChannelAddress: "919876543210", CaseID: "LC-AA11BB22"}
	booking := &bookings.Booking{ID: uuid.New(), UserID: user.ID, Status: bookings.StatusPending}
	sink := &stubSink{}
	h := NewWebhookHandler(
		testSecret,
		&stubBookingGetter{booking: booking},
		&stubUserGetter{user: user},
		&stubTracker{},
		sink,
		nil,
	)
	return h, sink, booking, user
}

func postWebhook(h http.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookHandlerPublishesPaymentConfirmed(t *testing.T) {
	h, sink, booking, user := newWebhookFixture()
	body := paidPayload(booking.ID, "evt_1")

	rec := postWebhook(h, body, sign(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sink.published, 1)
	evt := sink.published[0]
	assert.Equal(t, events.KindPaymentConfirmed, evt.Kind)
	assert.Equal(t, booking.ID, evt.BookingID)
	assert.Equal(t, user.ChannelAddress, evt.ChannelAddress)
	assert.Equal(t, "pay_123", evt.PaymentRef)
}

func TestWebhookHandlerRejectsBadSignature(t *testing.T) {
	h, sink, booking, _ := newWebhookFixture()
	body := paidPayload(booking.ID, "evt_1")

	rec := postWebhook(h, body, "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postWebhook(h, body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, sink.published)
}

func TestWebhookHandlerDeduplicatesDeliveries(t *testing.T) {
	h, sink, booking, _ := newWebhookFixture()
	body := paidPayload(booking.ID, "evt_dup")

	rec := postWebhook(h, body, sign(body))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = postWebhook(h, body, sign(body))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Len(t, sink.published, 1, "redelivery must not publish twice")
}

func TestWebhookHandlerRetryAfterPublishFailureStillPublishes(t *testing.T) {
	h, sink, booking, _ := newWebhookFixture()
	body := paidPayload(booking.ID, "evt_flaky")

	sink.err = fmt.Errorf("queue unavailable")
	rec := postWebhook(h, body, sign(body))
	assert.Equal(t, http.StatusInternalServerError, rec.Code, "publish failure must not be acked")
	assert.Empty(t, sink.published)

	// The provider retries the same delivery once the queue recovers. The
	// failed attempt must not have recorded the event as processed.
	sink.err = nil
	rec = postWebhook(h, body, sign(body))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sink.published, 1)
	assert.Equal(t, events.KindPaymentConfirmed, sink.published[0].Kind)
	assert.Equal(t, booking.ID, sink.published[0].BookingID)
}

func TestWebhookHandlerAcksUnknownBooking(t *testing.T) {
	h, sink, _, _ := newWebhookFixture()
	body := paidPayload(uuid.New(), "evt_unknown")

	rec := postWebhook(h, body, sign(body))

	assert.Equal(t, http.StatusOK, rec.Code, "retries cannot fix an unknown booking")
	assert.Empty(t, sink.published)
}

func TestWebhookHandlerIgnoresOtherEvents(t *testing.T) {
	h, sink, _, _ := newWebhookFixture()
	body := []byte(`{"event":"payment_link.expired","event_id":"evt_2","reference_id":"x","payment_id":"pay_9"}`)

	rec := postWebhook(h, body, sign(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sink.published)
}
