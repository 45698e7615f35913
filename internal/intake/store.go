package intake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message directions as stored in the transcript table.
const (
	DirectionInbound  = "in"
	DirectionOutbound = "out"
)

// Store persists conversation state and the message transcript. It works
// against any database/sql handle; tests use sqlmock.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// LoadState returns the user's conversation state, or a fresh NORMAL_CHAT
// state for a user we have never persisted one for.
func (s *Store) LoadState(ctx context.Context, userID uuid.UUID) (State, error) {
	const query = `
		SELECT phase, pending_category, pending_fee_paise, rating_booking_id, followup_offered
		FROM conversation_states
		WHERE user_id = $1`

	var (
		state           State
		pendingCategory sql.NullString
		pendingFee      sql.NullInt64
		ratingBookingID uuid.NullUUID
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&state.Phase, &pendingCategory, &pendingFee, &ratingBookingID, &state.FollowupOffered,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return NewState(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("intake: load state for %s: %w", userID, err)
	}

	if pendingCategory.Valid {
		state.Pending = &PendingBooking{
			Category: pendingCategory.String,
			FeePaise: int(pendingFee.Int64),
		}
	}
	if ratingBookingID.Valid {
		id := ratingBookingID.UUID
		state.PendingRatingBookingID = &id
	}
	return state, nil
}

// SaveState upserts the user's conversation state.
func (s *Store) SaveState(ctx context.Context, userID uuid.UUID, state State) error {
	const query = `
		INSERT INTO conversation_states (user_id, phase, pending_category, pending_fee_paise, rating_booking_id, followup_offered, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			phase = EXCLUDED.phase,
			pending_category = EXCLUDED.pending_category,
			pending_fee_paise = EXCLUDED.pending_fee_paise,
			rating_booking_id = EXCLUDED.rating_booking_id,
			followup_offered = EXCLUDED.followup_offered,
			updated_at = EXCLUDED.updated_at`

	var (
		pendingCategory sql.NullString
		pendingFee      sql.NullInt64
		ratingBookingID uuid.NullUUID
	)
	if state.Pending != nil {
		pendingCategory = sql.NullString{String: state.Pending.Category, Valid: true}
		pendingFee = sql.NullInt64{Int64: int64(state.Pending.FeePaise), Valid: true}
	}
	if state.PendingRatingBookingID != nil {
		ratingBookingID = uuid.NullUUID{UUID: *state.PendingRatingBookingID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		userID, state.Phase, pendingCategory, pendingFee, ratingBookingID, state.FollowupOffered, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("intake: save state for %s: %w", userID, err)
	}
	return nil
}

// AppendMessage records one transcript entry.
func (s *Store) AppendMessage(ctx context.Context, userID uuid.UUID, direction, body string) error {
	const query = `
		INSERT INTO messages (user_id, direction, body, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := s.db.ExecContext(ctx, query, userID, direction, body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("intake: append %s message for %s: %w", direction, userID, err)
	}
	return nil
}

// CountOutbound returns how many messages the platform has sent this user.
// Zero identifies a first contact.
func (s *Store) CountOutbound(ctx context.Context, userID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM messages WHERE user_id = $1 AND direction = $2`

	var count int
	if err := s.db.QueryRowContext(ctx, query, userID, DirectionOutbound).Scan(&count); err != nil {
		return 0, fmt.Errorf("intake: count outbound for %s: %w", userID, err)
	}
	return count, nil
}
