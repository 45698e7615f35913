package payments

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nyayasetu/legal-intake-platform/internal/bookings"
	"github.com/nyayasetu/legal-intake-platform/internal/events"
	"github.com/nyayasetu/legal-intake-platform/pkg/logging"
)

// FakeHandler serves a tiny demo checkout so the full booking flow can be
// exercised without provider credentials. Only mount it when
// ALLOW_FAKE_PAYMENTS=true.
type FakeHandler struct {
	bookings bookingGetter
	users    userGetter
	sink     EventSink
	logger   *logging.Logger
}

func NewFakeHandler(bookingRepo bookingGetter, userRepo userGetter, sink EventSink, logger *logging.Logger) *FakeHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &FakeHandler{bookings: bookingRepo, users: userRepo, sink: sink, logger: logger}
}

func (h *FakeHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{bookingID}", h.handleCheckout)
	r.Post("/{bookingID}/complete", h.handleComplete)
	return r
}

func (h *FakeHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	booking, ok := h.loadBooking(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!doctype html>
<html>
  <head><meta charset="utf-8" /><title>Demo checkout</title></head>
  <body>
    <h1>Consultation fee</h1>
    <p>Booking %s</p>
    <p>Amount: &#8377;%d</p>
    <form method="post" action="/payments/fake/%s/complete">
      <button type="submit">Pay now (demo)</button>
    </form>
  </body>
</html>`, booking.ID, booking.FeePaise/100, booking.ID)
}

func (h *FakeHandler) handleComplete(w http.ResponseWriter, r *http.Request) {
	booking, ok := h.loadBooking(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), booking.UserID)
	if err != nil {
		http.Error(w, "user not found", http.StatusInternalServerError)
		return
	}

	evt := events.Event{
		ID:             "fake:" + booking.ID.String(),
		Kind:           events.KindPaymentConfirmed,
		ChannelAddress: user.ChannelAddress,
		BookingID:      booking.ID,
		PaymentRef:     "fake_" + booking.ID.String(),
		ReceivedAt:     time.Now().UTC(),
	}
	if err := h.sink.Publish(r.Context(), evt); err != nil {
		h.logger.Error("fake payment publish failed", "booking_id", booking.ID, "error", err)
		http.Error(w, "could not record payment", http.StatusInternalServerError)
		return
	}

	h.logger.Info("fake payment completed", "booking_id", booking.ID)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!doctype html><html><body><h1>Payment recorded</h1><p>You can return to the chat.</p></body></html>`)
}

func (h *FakeHandler) loadBooking(w http.ResponseWriter, r *http.Request) (*bookings.Booking, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return nil, false
	}
	booking, err := h.bookings.Get(r.Context(), id)
	if errors.Is(err, bookings.ErrNotFound) {
		http.Error(w, "booking not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, "booking unavailable", http.StatusInternalServerError)
		return nil, false
	}
	return booking, true
}
