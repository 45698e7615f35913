package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nyayasetu/legal-intake-platform/internal/intake"
	"github.com/nyayasetu/legal-intake-platform/pkg/logging"
)

const graphAPIVersion = "v20.0"

// Client sends messages through the WhatsApp Cloud API. It implements
// intake.Messenger.
type Client struct {
	baseURL       string
	phoneNumberID string
	accessToken   string
	httpClient    *http.Client
	logger        *logging.Logger
}

func NewClient(baseURL, phoneNumberID, accessToken string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if baseURL == "" {
		baseURL = "https://graph.facebook.com"
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		logger:        logger,
	}
}

// SendText delivers a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.post(ctx, outboundText{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             outboundBody{Body: body},
	})
}

// SendOptions delivers a prompt with tappable choices. Cloud API reply
// buttons cap at three, so longer sets go out as a list message instead.
func (c *Client) SendOptions(ctx context.Context, to, body string, options []intake.Option) error {
	if len(options) == 0 {
		return c.SendText(ctx, to, body)
	}

	var action interactiveAction
	kind := "button"
	if len(options) <= 3 {
		for _, opt := range options {
			action.Buttons = append(action.Buttons, button{
				Type:  "reply",
				Reply: buttonReply{ID: opt.ID, Title: clampTitle(opt.Label, 20)},
			})
		}
	} else {
		kind = "list"
		action.Button = "Choose"
		section := listSection{}
		for _, opt := range options {
			section.Rows = append(section.Rows, listRow{ID: opt.ID, Title: clampTitle(opt.Label, 24)})
		}
		action.Sections = []listSection{section}
	}

	return c.post(ctx, outboundInteractive{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: interactiveBody{
			Type:   kind,
			Body:   outboundBody{Body: body},
			Action: &action,
		},
	})
}

// clampTitle enforces the Cloud API's title length limits, counted in runes.
func clampTitle(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func (c *Client) post(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("whatsapp: encode payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, graphAPIVersion, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("whatsapp send rejected", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("whatsapp: send returned status %d", resp.StatusCode)
	}
	return nil
}
