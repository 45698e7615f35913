package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/nyayasetu/legal-intake-platform/internal/bookings"
	"github.com/nyayasetu/legal-intake-platform/internal/users"
	"github.com/nyayasetu/legal-intake-platform/pkg/logging"
)

type bookingGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
}

// Service emails the intake team when a consultation is paid for.
type Service struct {
	sender     EmailSender
	bookings   bookingGetter
	recipients []string
	logger     *logging.Logger
}

func NewService(sender EmailSender, getter bookingGetter, recipients []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		sender:     sender,
		bookings:   getter,
		recipients: recipients,
		logger:     logger.Component("notify"),
	}
}

// BookingPaid notifies every configured recipient that a booking moved to
// PAID. Delivery failures are logged per recipient; the first error is
// returned after all recipients have been attempted.
func (s *Service) BookingPaid(ctx context.Context, user users.User, bookingID uuid.UUID) error {
	if s.sender == nil || len(s.recipients) == 0 {
		return nil
	}

	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("notify: load booking %s: %w", bookingID, err)
	}

	name := user.DisplayName
	if name == "" {
		name = user.ChannelAddress
	}

	subject := fmt.Sprintf("[NyayaSetu] Paid consultation %s (%s)", user.CaseID, booking.Category)
	body := fmt.Sprintf(
		"A consultation has been paid for and needs a lawyer assigned.\n\n"+
			"Case:      %s\n"+
			"Client:    %s\n"+
			"Contact:   %s\n"+
			"Category:  %s\n"+
			"Time slot: %s\n"+
			"Fee:       Rs %s\n",
		user.CaseID, name, user.ChannelAddress, booking.Category, booking.TimeSlot,
		strconv.Itoa(booking.FeePaise/100),
	)

	var firstErr error
	for _, to := range s.recipients {
		msg := EmailMessage{To: to, Subject: subject, Body: body}
		if err := s.sender.Send(ctx, msg); err != nil {
			s.logger.Error("booking notification failed", "to", to, "booking_id", bookingID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.logger.Info("booking notification sent", "to", to, "case_id", user.CaseID)
	}
	return firstErr
}
