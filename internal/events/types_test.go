package events

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestEventValidate(t *testing.T) {
	bookingID := uuid.New()

	cases := []struct {
		name    string
		evt     Event
		wantErr bool
	}{
		{"chat text ok", Event{Kind: KindChatText, ChannelAddress: "919812345678", Text: "Hi"}, false},
		{"chat text empty body", Event{Kind: KindChatText, ChannelAddress: "919812345678"}, true},
		{"missing identity", Event{Kind: KindChatText, Text: "Hi"}, true},
		{"selection ok", Event{Kind: KindChatSelection, ChannelAddress: "919812345678", OptionID: "lang_en"}, false},
		{"selection without option", Event{Kind: KindChatSelection, ChannelAddress: "919812345678"}, true},
		{"payment ok", Event{Kind: KindPaymentConfirmed, ChannelAddress: "919812345678", BookingID: bookingID, PaymentRef: "pay_123"}, false},
		{"payment without ref", Event{Kind: KindPaymentConfirmed, ChannelAddress: "919812345678", BookingID: bookingID}, true},
		{"admin ok", Event{Kind: KindAdminMarkCompleted, ChannelAddress: "919812345678", BookingID: bookingID}, false},
		{"admin without booking", Event{Kind: KindAdminMarkCompleted, ChannelAddress: "919812345678"}, true},
		{"unknown kind", Event{Kind: "voice_note", ChannelAddress: "919812345678"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.evt.Validate()
			if tc.wantErr && !errors.Is(err, ErrMalformedEvent) {
				t.Fatalf("expected ErrMalformedEvent, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEventInputPrefersOptionID(t *testing.T) {
	evt := Event{Kind: KindChatSelection, OptionID: "cat_police", Text: "Police Matters"}
	if evt.Input() != "cat_police" {
		t.Fatalf("expected option id, got %q", evt.Input())
	}
	evt = Event{Kind: KindChatText, Text: "  hello "}
	if evt.Input() != "  hello " {
		t.Fatalf("expected raw text, got %q", evt.Input())
	}
}
