package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nyayasetu/legal-intake-platform/internal/events"
	"github.com/nyayasetu/legal-intake-platform/internal/i18n"
	"github.com/nyayasetu/legal-intake-platform/internal/observability/metrics"
	"github.com/nyayasetu/legal-intake-platform/pkg/logging"
)

// EventSink accepts normalized inbound events for asynchronous processing.
type EventSink interface {
	Publish(ctx context.Context, evt events.Event) error
}

// noticeSender sends the static unsupported-media notice without going
// through the conversation pipeline.
type noticeSender interface {
	SendText(ctx context.Context, to, body string) error
}

// Handler terminates the WhatsApp Cloud API webhook: the GET verification
// handshake and the POST message delivery. Deliveries are acked immediately
// and normalized onto the queue in the background; Meta retries on anything
// slower than a few seconds.
type Handler struct {
	verifyToken   string
	appSecret     string
	dedupe        Deduper
	sink          EventSink
	notices       noticeSender
	translator    i18n.Translator
	defaultLocale string
	metrics       *metrics.IntakeMetrics
	logger        *logging.Logger
}

func NewHandler(
	verifyToken, appSecret string,
	dedupe Deduper,
	sink EventSink,
	notices noticeSender,
	translator i18n.Translator,
	defaultLocale string,
	m *metrics.IntakeMetrics,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if defaultLocale == "" {
		defaultLocale = i18n.LocaleEnglish
	}
	return &Handler{
		verifyToken:   verifyToken,
		appSecret:     appSecret,
		dedupe:        dedupe,
		sink:          sink,
		notices:       notices,
		translator:    translator,
		defaultLocale: defaultLocale,
		metrics:       m,
		logger:        logger,
	}
}

// Verify handles Meta's subscription handshake.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}
	http.Error(w, "forbidden", http.StatusForbidden)
}

// Receive handles message deliveries.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if !h.validSignature(body, r.Header.Get("X-Hub-Signature-256")) {
		h.logger.Warn("whatsapp webhook signature mismatch", "remote", r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	// Ack before processing; Meta requires a fast 200.
	w.WriteHeader(http.StatusOK)
	h.metrics.ObserveWebhookLatency("whatsapp", time.Since(start).Seconds())

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("whatsapp webhook processing panicked", "panic", rec)
			}
		}()
		h.process(context.Background(), body)
	}()
}

func (h *Handler) validSignature(body []byte, header string) bool {
	if h.appSecret == "" || header == "" {
		return false
	}
	signature := strings.TrimPrefix(header, "sha256=")
	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (h *Handler) process(ctx context.Context, body []byte) {
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Error("whatsapp payload unmarshal failed", "error", err)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			names := map[string]string{}
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}
			// Status and delivery receipts arrive on the same webhook with
			// an empty messages array; they fall through harmlessly.
			for i := range change.Value.Messages {
				h.handleMessage(ctx, &change.Value.Messages[i], names)
			}
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *Message, names map[string]string) {
	if msg.ID == "" || msg.From == "" {
		return
	}

	if h.dedupe != nil {
		seen, err := h.dedupe.Seen(ctx, msg.ID)
		if err != nil {
			h.logger.Error("whatsapp dedupe check failed", "message_id", msg.ID, "error", err)
			// Proceed anyway; the conversation layer tolerates duplicates
			// better than it tolerates dropped messages.
		} else if seen {
			h.logger.Info("duplicate whatsapp delivery skipped", "message_id", msg.ID)
			return
		}
	}

	evt := events.Event{
		ID:             msg.ID,
		Kind:           events.KindChatText,
		ChannelAddress: msg.From,
		DisplayName:    names[msg.From],
		ReceivedAt:     time.Now().UTC(),
	}

	switch {
	case msg.Type == "text" && msg.Text != nil:
		evt.Text = msg.Text.Body
	case msg.Type == "interactive" && msg.Reply() != nil:
		evt.Kind = events.KindChatSelection
		evt.OptionID = msg.Reply().ID
	default:
		h.sendUnsupportedNotice(ctx, msg)
		return
	}

	if err := h.sink.Publish(ctx, evt); err != nil {
		h.logger.Error("whatsapp event publish failed", "message_id", msg.ID, "error", err)
		return
	}
	h.metrics.ObserveEvent(string(evt.Kind), "queued")
}

func (h *Handler) sendUnsupportedNotice(ctx context.Context, msg *Message) {
	h.logger.Info("unsupported whatsapp message type", "type", msg.Type, "from", msg.From)
	if h.notices == nil || h.translator == nil {
		return
	}
	body := h.translator.Translate(h.defaultLocale, i18n.MsgTextOnly, nil)
	if err := h.notices.SendText(ctx, msg.From, body); err != nil {
		h.logger.Warn("unsupported-media notice failed", "from", msg.From, "error", err)
	}
}
