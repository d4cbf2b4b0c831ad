package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// MessageSender delivers a text message to the statically configured
// destination. There is exactly one from/to pair per deployment.
type MessageSender interface {
	Send(ctx context.Context, body string) error
}

// TwilioConfig configures the WhatsApp channel. From and To are WhatsApp
// addresses such as "whatsapp:+14155238886".
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
	BaseURL    string
	Timeout    time.Duration
}

func (c TwilioConfig) configured() bool {
	return strings.TrimSpace(c.AccountSID) != "" &&
		strings.TrimSpace(c.AuthToken) != "" &&
		strings.TrimSpace(c.From) != "" &&
		strings.TrimSpace(c.To) != ""
}

// TwilioSender sends WhatsApp messages through the Twilio messages API.
type TwilioSender struct {
	cfg    TwilioConfig
	client *resty.Client
}

type twilioResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// NewTwilioSender builds the WhatsApp channel client. Missing credentials
// yield a sender that reports ErrChannelDisabled for every send.
func NewTwilioSender(cfg TwilioConfig) *TwilioSender {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultTwilioBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &TwilioSender{cfg: cfg, client: client}
}

// Send delivers one message to the configured destination.
func (s *TwilioSender) Send(ctx context.Context, body string) error {
	if !s.cfg.configured() {
		return ErrChannelDisabled
	}

	var result twilioResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken).
		SetFormData(map[string]string{
			"From": s.cfg.From,
			"To":   s.cfg.To,
			"Body": body,
		}).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", s.cfg.AccountSID))
	if err != nil {
		return fmt.Errorf("notify: whatsapp send: %w", err)
	}
	if resp.IsError() {
		if result.ErrorMessage != "" {
			return fmt.Errorf("notify: whatsapp send: %s", result.ErrorMessage)
		}
		return fmt.Errorf("notify: whatsapp send: status %d", resp.StatusCode())
	}

	return nil
}
