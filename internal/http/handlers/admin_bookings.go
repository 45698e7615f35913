package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nyayasetu/legal-intake-platform/internal/bookings"
	"github.com/nyayasetu/legal-intake-platform/internal/events"
	"github.com/nyayasetu/legal-intake-platform/internal/users"
	"github.com/nyayasetu/legal-intake-platform/pkg/logging"
)

type intakeService interface {
	Handle(ctx context.Context, evt events.Event) error
}

type bookingGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
}

type userGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// AdminBookingsHandler exposes the back-office booking endpoints: a listing
// for the advocate team and the completion action after a consultation.
type AdminBookingsHandler struct {
	db       *sql.DB
	intake   intakeService
	bookings bookingGetter
	users    userGetter
	logger   *logging.Logger
}

func NewAdminBookingsHandler(db *sql.DB, intake intakeService, getter bookingGetter, userGetter userGetter, logger *logging.Logger) *AdminBookingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminBookingsHandler{
		db:       db,
		intake:   intake,
		bookings: getter,
		users:    userGetter,
		logger:   logger.Component("admin"),
	}
}

// Routes mounts the admin booking endpoints on a chi router.
func (h *AdminBookingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	r.Post("/{bookingID}/complete", h.handleComplete)
	return r
}

// BookingRow is one entry in the admin booking list.
type BookingRow struct {
	ID        string    `json:"id"`
	CaseID    string    `json:"case_id"`
	Contact   string    `json:"contact"`
	Category  string    `json:"category"`
	FeePaise  int       `json:"fee_paise"`
	TimeSlot  string    `json:"time_slot"`
	Status    string    `json:"status"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *AdminBookingsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(bookings.StatusPaid)
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	query := `
		SELECT b.id, u.case_id, u.channel_address, b.category, b.fee_paise,
		       b.time_slot, b.status, b.rating, b.created_at
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		WHERE b.status = $1
		ORDER BY b.created_at DESC
		LIMIT $2`

	rows, err := h.db.QueryContext(r.Context(), query, status, limit)
	if err != nil {
		h.logger.Error("booking list query failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	list := make([]BookingRow, 0, limit)
	for rows.Next() {
		var row BookingRow
		var rating sql.NullInt64
		if err := rows.Scan(&row.ID, &row.CaseID, &row.Contact, &row.Category,
			&row.FeePaise, &row.TimeSlot, &row.Status, &rating, &row.CreatedAt); err != nil {
			h.logger.Error("booking list scan failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if rating.Valid {
			score := int(rating.Int64)
			row.Rating = &score
		}
		list = append(list, row)
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("booking list iteration failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": list})
}

func (h *AdminBookingsHandler) handleComplete(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}

	booking, err := h.bookings.Get(r.Context(), bookingID)
	if err != nil {
		if errors.Is(err, bookings.ErrNotFound) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		h.logger.Error("booking lookup failed", "booking_id", bookingID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	user, err := h.users.GetByID(r.Context(), booking.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.Error("user lookup failed", "user_id", booking.UserID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	evt := events.Event{
		ID:             "admin:" + uuid.NewString(),
		Kind:           events.KindAdminMarkCompleted,
		ChannelAddress: user.ChannelAddress,
		BookingID:      bookingID,
		ReceivedAt:     time.Now().UTC(),
	}

	// Handled synchronously so transition conflicts map to an HTTP status
	// instead of vanishing into the queue.
	if err := h.intake.Handle(r.Context(), evt); err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidTransition):
			http.Error(w, "booking is not in a completable state", http.StatusConflict)
		case errors.Is(err, bookings.ErrNotFound):
			http.Error(w, "booking not found", http.StatusNotFound)
		case errors.Is(err, events.ErrMalformedEvent):
			http.Error(w, "invalid request", http.StatusBadRequest)
		default:
			h.logger.Error("complete booking failed", "booking_id", bookingID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("booking marked completed", "booking_id", bookingID, "case_id", user.CaseID)
	writeJSON(w, http.StatusOK, map[string]string{
		"booking_id": bookingID.String(),
		"status":     string(bookings.StatusCompleted),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
