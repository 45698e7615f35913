package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for bookings. Status monotonicity is
// enforced in SQL: every transition is a conditional update on the current
// status, so a regressed or duplicated transition affects zero rows.
type Repository struct {
	pool rowQuerier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{pool: pool}
}

// NewRepositoryWithExec allows injecting a stub querier for tests.
func NewRepositoryWithExec(exec rowQuerier) *Repository {
	if exec == nil {
		panic("bookings: exec required")
	}
	return &Repository{pool: exec}
}

const bookingColumns = `id, user_id, category, fee_paise, time_slot, status,
	COALESCE(payment_ref, ''), COALESCE(payment_url, ''), rating, is_rebooking, created_at, updated_at`

// Insert stores a new booking row.
func (r *Repository) Insert(ctx context.Context, b *Booking) error {
	query := `
		INSERT INTO bookings (id, user_id, category, fee_paise, time_slot, status, is_rebooking)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query, b.ID, b.UserID, b.Category, b.FeePaise, b.TimeSlot, b.Status, b.Rebooking)
	if err != nil {
		return fmt.Errorf("bookings: insert: %w", err)
	}
	return nil
}

// Get loads a booking by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	var b Booking
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.UserID, &b.Category, &b.FeePaise, &b.TimeSlot, &b.Status,
		&b.PaymentRef, &b.PaymentURL, &b.Rating, &b.Rebooking, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bookings: load: %w", err)
	}
	return &b, nil
}

// HasActive reports whether the user has a non-terminal booking.
func (r *Repository) HasActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := `SELECT 1 FROM bookings WHERE user_id = $1 AND status <> $2 LIMIT 1`
	var one int
	if err := r.pool.QueryRow(ctx, query, userID, StatusCompleted).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("bookings: check active: %w", err)
	}
	return true, nil
}

// SetPaymentURL records the checkout link once the provider issues it.
func (r *Repository) SetPaymentURL(ctx context.Context, id uuid.UUID, url string) error {
	query := `UPDATE bookings SET payment_url = $2, updated_at = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, url); err != nil {
		return fmt.Errorf("bookings: set payment url: %w", err)
	}
	return nil
}

// MarkPaid transitions PENDING -> PAID. Returns the number of rows moved; zero
// means the booking was not PENDING (caller decides whether that is a
// duplicate confirmation or an invalid transition).
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, paymentRef string) (int64, error) {
	query := `
		UPDATE bookings SET status = $2, payment_ref = $3, updated_at = now()
		WHERE id = $1 AND status = $4
	`
	ct, err := r.pool.Exec(ctx, query, id, StatusPaid, paymentRef, StatusPending)
	if err != nil {
		return 0, fmt.Errorf("bookings: mark paid: %w", err)
	}
	return ct.RowsAffected(), nil
}

// MarkCompleted transitions PAID -> COMPLETED.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `
		UPDATE bookings SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`
	ct, err := r.pool.Exec(ctx, query, id, StatusCompleted, StatusPaid)
	if err != nil {
		return 0, fmt.Errorf("bookings: mark completed: %w", err)
	}
	return ct.RowsAffected(), nil
}

// SetRating stores a rating if none exists yet. Zero rows means the booking
// was already rated (or does not exist; callers load first).
func (r *Repository) SetRating(ctx context.Context, id uuid.UUID, score int) (int64, error) {
	query := `
		UPDATE bookings SET rating = $2, updated_at = now()
		WHERE id = $1 AND rating IS NULL AND status = $3
	`
	ct, err := r.pool.Exec(ctx, query, id, score, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("bookings: set rating: %w", err)
	}
	return ct.RowsAffected(), nil
}
