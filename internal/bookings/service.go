package bookings

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nyayasetu/legal-intake-platform/pkg/logging"
)

// LinkCreator requests a checkout link from the payment provider. The request
// must be idempotent per booking: implementations key it on the booking ID so
// a retried creation never double-charges.
type LinkCreator interface {
	CreateLink(ctx context.Context, bookingID uuid.UUID, amountPaise int) (string, error)
}

// Service owns the booking lifecycle.
type Service struct {
	repo   *Repository
	links  LinkCreator
	logger *logging.Logger
}

// NewService constructs a bookings service.
func NewService(repo *Repository, links LinkCreator, logger *logging.Logger) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, links: links, logger: logger}
}

// Get loads a booking by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

// Create allocates a PENDING booking for the user's chosen slot and requests
// a payment link. Zero-fee bookings (free rebooking after a poor rating) have
// nothing to pay, so they are created directly as PAID and skip the link.
// A user may hold only one active booking at a time; rebookings are exempt
// because they exist precisely to follow a just-completed one.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, category string, feePaise int, slot string, rebooking bool) (*Booking, error) {
	if !rebooking {
		active, err := s.repo.HasActive(ctx, userID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, ErrActiveBookingExists
		}
	}

	b := &Booking{
		ID:        uuid.New(),
		UserID:    userID,
		Category:  category,
		FeePaise:  feePaise,
		TimeSlot:  slot,
		Status:    StatusPending,
		Rebooking: rebooking,
	}
	if feePaise == 0 {
		b.Status = StatusPaid
	}
	if err := s.repo.Insert(ctx, b); err != nil {
		return nil, err
	}

	if feePaise > 0 && s.links != nil {
		url, err := s.links.CreateLink(ctx, b.ID, feePaise)
		if err != nil {
			// The booking exists; the caller sends a fallback reply and
			// the link can be re-requested under the same idempotency key.
			return b, fmt.Errorf("bookings: request payment link: %w", err)
		}
		b.PaymentURL = url
		if err := s.repo.SetPaymentURL(ctx, b.ID, url); err != nil {
			return b, err
		}
	}

	s.logger.Info("booking created",
		"booking_id", b.ID, "user_id", userID, "category", category,
		"fee_paise", feePaise, "rebooking", rebooking)
	return b, nil
}

// ConfirmPayment transitions PENDING -> PAID. A second confirmation for the
// same booking is a no-op, not an error. Returns true only on the first
// confirmation so callers notify exactly once.
func (s *Service) ConfirmPayment(ctx context.Context, id uuid.UUID, paymentRef string) (bool, error) {
	rows, err := s.repo.MarkPaid(ctx, id, paymentRef)
	if err != nil {
		return false, err
	}
	if rows > 0 {
		s.logger.Info("booking paid", "booking_id", id, "payment_ref", paymentRef)
		return true, nil
	}

	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if b.Status == StatusPaid || b.Status == StatusCompleted {
		s.logger.Debug("duplicate payment confirmation ignored", "booking_id", id)
		return false, nil
	}
	return false, fmt.Errorf("%w: confirm payment on %s booking", ErrInvalidTransition, b.Status)
}

// MarkCompleted transitions PAID -> COMPLETED.
func (s *Service) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	rows, err := s.repo.MarkCompleted(ctx, id)
	if err != nil {
		return err
	}
	if rows > 0 {
		s.logger.Info("booking completed", "booking_id", id)
		return nil
	}

	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: mark completed on %s booking", ErrInvalidTransition, b.Status)
}

// RecordRating stores a 1-4 score exactly once, on a completed booking.
func (s *Service) RecordRating(ctx context.Context, id uuid.UUID, score int) error {
	if score < 1 || score > 4 {
		return fmt.Errorf("bookings: rating %d out of range", score)
	}
	rows, err := s.repo.SetRating(ctx, id, score)
	if err != nil {
		return err
	}
	if rows > 0 {
		s.logger.Info("booking rated", "booking_id", id, "score", score)
		return nil
	}

	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if b.Rating != nil {
		return ErrAlreadyRated
	}
	return fmt.Errorf("%w: rate %s booking", ErrInvalidTransition, b.Status)
}
