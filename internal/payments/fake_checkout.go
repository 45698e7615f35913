package payments

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/nyayasetu/legal-intake-platform/pkg/logging"
)

// FakeCheckoutService is a dev/demo link creator that points at the built-in
// fake checkout page instead of a real provider.
//
// This MUST be gated by configuration (ALLOW_FAKE_PAYMENTS) and never enabled
// in production.
type FakeCheckoutService struct {
	publicBaseURL string
	logger        *logging.Logger
}

func NewFakeCheckoutService(publicBaseURL string, logger *logging.Logger) *FakeCheckoutService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FakeCheckoutService{
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		logger:        logger,
	}
}

// CreateLink implements bookings.LinkCreator.
func (s *FakeCheckoutService) CreateLink(_ context.Context, bookingID uuid.UUID, amountPaise int) (string, error) {
	if bookingID == uuid.Nil {
		return "", fmt.Errorf("payments: fake checkout requires a booking id")
	}
	if amountPaise <= 0 {
		return "", fmt.Errorf("payments: link amount must be positive, got %d", amountPaise)
	}
	if !isValidBaseURL(s.publicBaseURL) {
		return "", fmt.Errorf("payments: fake checkout requires an absolute http(s) PUBLIC_BASE_URL")
	}
	return fmt.Sprintf("%s/payments/fake/%s", s.publicBaseURL, bookingID), nil
}

func isValidBaseURL(value string) bool {
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}
