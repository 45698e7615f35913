package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutServiceCreateLink(t *testing.T) {
	bookingID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_links", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)

		var req linkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 19900, req.Amount)
		assert.Equal(t, "INR", req.Currency)
		assert.Equal(t, bookingID.String(), req.ReferenceID)

		json.NewEncoder(w).Encode(linkResponse{ID: "plink_1", ShortURL: "https://rzp.io/l/abc"})
	}))
	defer server.Close()

	svc := NewCheckoutService(server.URL, "key_id", "key_secret", nil)
	link, err := svc.CreateLink(context.Background(), bookingID, 19900)
	require.NoError(t, err)
	assert.Equal(t, "https://rzp.io/l/abc", link)
}

func TestCheckoutServiceProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"description":"auth failed"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := NewCheckoutService(server.URL, "key_id", "bad_secret", nil)
	_, err := svc.CreateLink(context.Background(), uuid.New(), 19900)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCheckoutServiceRequiresCredentials(t *testing.T) {
	svc := NewCheckoutService("", "", "", nil)
	_, err := svc.CreateLink(context.Background(), uuid.New(), 19900)
	assert.Error(t, err)
}

func TestCheckoutServiceRejectsZeroAmount(t *testing.T) {
	svc := NewCheckoutService("", "key", "secret", nil)
	_, err := svc.CreateLink(context.Background(), uuid.New(), 0)
	assert.Error(t, err)
}

func TestFakeCheckoutServiceCreateLink(t *testing.T) {
	bookingID := uuid.New()
	svc := NewFakeCheckoutService("https://demo.nyayasetu.in/", nil)

	link, err := svc.CreateLink(context.Background(), bookingID, 19900)
	require.NoError(t, err)
	assert.Equal(t, "https://demo.nyayasetu.in/payments/fake/"+bookingID.String(), link)
}

func TestFakeCheckoutServiceRequiresAbsoluteBaseURL(t *testing.T) {
	svc := NewFakeCheckoutService("demo.local", nil)
	_, err := svc.CreateLink(context.Background(), uuid.New(), 19900)
	assert.Error(t, err)
}
