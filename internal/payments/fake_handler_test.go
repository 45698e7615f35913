package payments

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyayasetu/legal-intake-platform/internal/bookings"
	"github.com/nyayasetu/legal-intake-platform/internal/events"
	"github.com/nyayasetu/legal-intake-platform/internal/users"
)

func newFakeHandlerFixture() (*FakeHandler, *stubSink, *bookings.Booking) {
	user := &users.User{ID: uuid.New(), ChannelAddress: "919876543210"}
	booking := &bookings.Booking{ID: uuid.New(), UserID: user.ID, FeePaise: 19900, Status: bookings.StatusPending}
	sink := &stubSink{}
	h := NewFakeHandler(&stubBookingGetter{booking: booking}, &stubUserGetter{user: user}, sink, nil)
	return h, sink, booking
}

func TestFakeHandlerCheckoutPage(t *testing.T) {
	h, _, booking := newFakeHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/"+booking.ID.String(), nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), booking.ID.String())
	assert.Contains(t, rec.Body.String(), "199")
}

func TestFakeHandlerCompletePublishesEvent(t *testing.T) {
	h, sink, booking := newFakeHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/"+booking.ID.String()+"/complete", strings.NewReader(""))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sink.published, 1)
	assert.Equal(t, events.KindPaymentConfirmed, sink.published[0].Kind)
	assert.Equal(t, booking.ID, sink.published[0].BookingID)
}

func TestFakeHandlerUnknownBooking(t *testing.T) {
	h, sink, _ := newFakeHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, sink.published)
}
