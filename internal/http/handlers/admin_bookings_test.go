package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyayasetu/legal-intake-platform/internal/bookings"
	"github.com/nyayasetu/legal-intake-platform/internal/events"
	"github.com/nyayasetu/legal-intake-platform/internal/users"
)

type stubIntake struct {
	handled []events.Event
	err     error
}

func (s *stubIntake) Handle(_ context.Context, evt events.Event) error {
	s.handled = append(s.handled, evt)
	return s.err
}

type stubBookingGetter struct {
	booking *bookings.Booking
	err     error
}

func (s *stubBookingGetter) Get(context.Context, uuid.UUID) (*bookings.Booking, error) {
	return s.booking, s.err
}

type stubUserGetter struct {
	user *users.User
	err  error
}

func (s *stubUserGetter) GetByID(context.Context, uuid.UUID) (*users.User, error) {
	return s.user, s.err
}

func TestAdminCompleteBooking(t *testing.T) {
	booking := &bookings.Booking{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Status: bookings.StatusPaid,
	}
	user := &users.User{
		ID:             booking.UserID,
		ChannelAddress: "+919876543210",
		CaseID:         "LC-0F3A91BC",
	}
	intake := &stubIntake{}
	h := NewAdminBookingsHandler(nil, intake, &stubBookingGetter{booking: booking}, &stubUserGetter{user: user}, nil)

	req := httptest.NewRequest(http.MethodPost, "/"+booking.ID.String()+"/complete", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, intake.handled, 1)
	evt := intake.handled[0]
	assert.Equal(t, events.KindAdminMarkCompleted, evt.Kind)
	assert.Equal(t, "+919876543210", evt.ChannelAddress)
	assert.Equal(t, booking.ID, evt.BookingID)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "COMPLETED", body["status"])
}

func TestAdminCompleteUnknownBooking(t *testing.T) {
	h := NewAdminBookingsHandler(nil, &stubIntake{}, &stubBookingGetter{err: bookings.ErrNotFound}, &stubUserGetter{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/"+uuid.NewString()+"/complete", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminCompleteInvalidID(t *testing.T) {
	h := NewAdminBookingsHandler(nil, &stubIntake{}, &stubBookingGetter{}, &stubUserGetter{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/not-a-uuid/complete", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminCompleteTransitionConflict(t *testing.T) {
	booking := &bookings.Booking{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Status: bookings.StatusPending,
	}
	user := &users.User{ID: booking.UserID, ChannelAddress: "+911111111111"}
	intake := &stubIntake{err: bookings.ErrInvalidTransition}
	h := NewAdminBookingsHandler(nil, intake, &stubBookingGetter{booking: booking}, &stubUserGetter{user: user}, nil)

	req := httptest.NewRequest(http.MethodPost, "/"+booking.ID.String()+"/complete", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminListBookings(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	bookingID := uuid.New()
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "case_id", "channel_address", "category", "fee_paise",
		"time_slot", "status", "rating", "created_at",
	}).AddRow(bookingID.String(), "LC-0F3A91BC", "+919876543210", "property",
		29900, "Tomorrow 5pm", "PAID", nil, created)
	mock.ExpectQuery(`SELECT b\.id, u\.case_id`).
		WithArgs("PAID", 50).
		WillReturnRows(rows)

	h := NewAdminBookingsHandler(db, &stubIntake{}, &stubBookingGetter{}, &stubUserGetter{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Bookings []BookingRow `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Bookings, 1)
	assert.Equal(t, "LC-0F3A91BC", body.Bookings[0].CaseID)
	assert.Equal(t, 29900, body.Bookings[0].FeePaise)
	assert.Nil(t, body.Bookings[0].Rating)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminListBookingsStatusFilter(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT b\.id, u\.case_id`).
		WithArgs("COMPLETED", 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "case_id", "channel_address", "category", "fee_paise",
			"time_slot", "status", "rating", "created_at",
		}))

	h := NewAdminBookingsHandler(db, &stubIntake{}, &stubBookingGetter{}, &stubUserGetter{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/?status=COMPLETED&limit=10", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
