package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nyayasetu/legal-intake-platform/pkg/logging"
)

// CheckoutService creates hosted payment links for consultation fees against
// a Razorpay-style payment-links API. The booking ID doubles as the provider
// reference, which makes link creation idempotent: asking twice for the same
// booking returns the same link.
type CheckoutService struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	logger     *logging.Logger
}

func NewCheckoutService(baseURL, keyID, keySecret string, logger *logging.Logger) *CheckoutService {
	if logger == nil {
		logger = logging.Default()
	}
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	return &CheckoutService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type linkRequest struct {
	Amount      int    `json:"amount"`
	Currency    string `json:"currency"`
	ReferenceID string `json:"reference_id"`
	Description string `json:"description"`
}

type linkResponse struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
}

// CreateLink implements bookings.LinkCreator.
func (s *CheckoutService) CreateLink(ctx context.Context, bookingID uuid.UUID, amountPaise int) (string, error) {
	if s.keyID == "" || s.keySecret == "" {
		return "", fmt.Errorf("payments: checkout credentials not configured")
	}
	if amountPaise <= 0 {
		return "", fmt.Errorf("payments: link amount must be positive, got %d", amountPaise)
	}

	payload, err := json.Marshal(linkRequest{
		Amount:      amountPaise,
		Currency:    "INR",
		ReferenceID: bookingID.String(),
		Description: "Legal consultation fee",
	})
	if err != nil {
		return "", fmt.Errorf("payments: encode link request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/payment_links", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("payments: build link request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.keyID, s.keySecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("payments: link request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("payments: read link response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("payment link creation rejected",
			"booking_id", bookingID,
			"status", resp.StatusCode,
			"body", truncate(string(body), 512),
		)
		return "", fmt.Errorf("payments: provider returned status %d", resp.StatusCode)
	}

	var parsed linkResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("payments: decode link response: %w", err)
	}
	if parsed.ShortURL == "" {
		return "", fmt.Errorf("payments: provider returned no link URL")
	}

	s.logger.Info("payment link created", "booking_id", bookingID, "provider_id", parsed.ID)
	return parsed.ShortURL, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
