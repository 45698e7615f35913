package users

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

// Repository provides persistence for users.
type Repository struct {
	pool         rowQuerier
	caseIDPrefix string
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool, caseIDPrefix string) *Repository {
	if pool == nil {
		panic("users: pgx pool required")
	}
	return &Repository{pool: pool, caseIDPrefix: caseIDPrefix}
}

// NewRepositoryWithExec allows injecting a stub querier for tests.
func NewRepositoryWithExec(exec rowQuerier, caseIDPrefix string) *Repository {
	if exec == nil {
		panic("users: exec required")
	}
	return &Repository{pool: exec, caseIDPrefix: caseIDPrefix}
}

const userColumns = `id, channel_address, COALESCE(display_name, ''), locale, case_id, real_question_count, created_at`

// GetOrCreateByAddress loads the user for a channel address, creating it with
// a fresh case ID on first contact. Creation races resolve via the unique
// constraint on channel_address; the loser re-reads the winner's row.
func (r *Repository) GetOrCreateByAddress(ctx context.Context, address, displayName, defaultLocale string) (*User, error) {
	u, err := r.getByAddress(ctx, address)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("users: load by address: %w", err)
	}

	caseID, err := NewCaseID(r.caseIDPrefix)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (id, channel_address, display_name, locale, case_id, real_question_count)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, 0)
		ON CONFLICT (channel_address) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, uuid.New(), address, displayName, defaultLocale, caseID); err != nil {
		return nil, fmt.Errorf("users: insert: %w", err)
	}

	u, err = r.getByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("users: reload after insert: %w", err)
	}
	return u, nil
}

// ErrNotFound is returned by GetByID for an unknown user.
var ErrNotFound = errors.New("users: not found")

// GetByID loads a user by primary key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var u User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.ChannelAddress, &u.DisplayName, &u.Locale, &u.CaseID, &u.RealQuestionCount, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users: load by id: %w", err)
	}
	return &u, nil
}

func (r *Repository) getByAddress(ctx context.Context, address string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE channel_address = $1`
	var u User
	err := r.pool.QueryRow(ctx, query, address).Scan(
		&u.ID, &u.ChannelAddress, &u.DisplayName, &u.Locale, &u.CaseID, &u.RealQuestionCount, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateLocale persists a language choice.
func (r *Repository) UpdateLocale(ctx context.Context, userID uuid.UUID, locale string) error {
	query := `UPDATE users SET locale = $2 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, userID, locale); err != nil {
		return fmt.Errorf("users: update locale: %w", err)
	}
	return nil
}

// IncrementRealQuestions bumps the derived substantive-question counter. The
// counter only ever moves forward.
func (r *Repository) IncrementRealQuestions(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET real_question_count = real_question_count + 1 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("users: increment question count: %w", err)
	}
	return nil
}
