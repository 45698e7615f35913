package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyayasetu/legal-intake-platform/internal/bookings"
	"github.com/nyayasetu/legal-intake-platform/internal/users"
)

type captureSender struct {
	sent []EmailMessage
	err  error
}

func (c *captureSender) Send(_ context.Context, msg EmailMessage) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

type stubBookings struct {
	booking *bookings.Booking
	err     error
}

func (s *stubBookings) Get(context.Context, uuid.UUID) (*bookings.Booking, error) {
	return s.booking, s.err
}

func TestBookingPaidEmailsAllRecipients(t *testing.T) {
	sender := &captureSender{}
	booking := &bookings.Booking{
		ID:       uuid.New(),
		Category: "property",
		FeePaise: 29900,
		TimeSlot: "Tomorrow 5pm",
		Status:   bookings.StatusPaid,
	}
	svc := NewService(sender, &stubBookings{booking: booking}, []string{"ops@example.com", "lead@example.com"}, nil)

	user := users.User{
		ChannelAddress: "+919876543210",
		DisplayName:    "Asha",
		CaseID:         "LC-0F3A91BC",
	}
	require.NoError(t, svc.BookingPaid(context.Background(), user, booking.ID))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "ops@example.com", sender.sent[0].To)
	assert.Equal(t, "lead@example.com", sender.sent[1].To)
	assert.Contains(t, sender.sent[0].Subject, "LC-0F3A91BC")
	assert.Contains(t, sender.sent[0].Subject, "property")
	assert.Contains(t, sender.sent[0].Body, "Asha")
	assert.Contains(t, sender.sent[0].Body, "Tomorrow 5pm")
	assert.Contains(t, sender.sent[0].Body, "Rs 299")
}

func TestBookingPaidNoRecipientsIsNoop(t *testing.T) {
	sender := &captureSender{}
	svc := NewService(sender, &stubBookings{}, nil, nil)

	err := svc.BookingPaid(context.Background(), users.User{}, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestBookingPaidPropagatesLookupError(t *testing.T) {
	svc := NewService(&captureSender{}, &stubBookings{err: bookings.ErrNotFound}, []string{"ops@example.com"}, nil)

	err := svc.BookingPaid(context.Background(), users.User{}, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, bookings.ErrNotFound)
}

func TestBookingPaidReportsSendFailure(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp down")}
	booking := &bookings.Booking{ID: uuid.New(), Category: "family", FeePaise: 24900}
	svc := NewService(sender, &stubBookings{booking: booking}, []string{"ops@example.com"}, nil)

	err := svc.BookingPaid(context.Background(), users.User{}, booking.ID)
	require.Error(t, err)
}
