package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrChannelDisabled signals that a channel is not configured. It is a benign
// condition for fan-out, not a hard error.
var ErrChannelDisabled = errors.New("notify: channel disabled")

const defaultFCMEndpoint = "https://fcm.googleapis.com/fcm/send"

// PushSender delivers a push notification to a single device token.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]any) error
}

// FCMConfig configures the Firebase Cloud Messaging push channel.
type FCMConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// FCMSender sends push notifications through the FCM HTTP API.
type FCMSender struct {
	apiKey string
	client *resty.Client
}

type fcmMessage struct {
	To           string           `json:"to"`
	Notification *fcmNotification `json:"notification"`
	Data         map[string]any   `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// NewFCMSender builds the push channel client. An empty API key yields a
// sender that reports ErrChannelDisabled for every send.
func NewFCMSender(cfg FCMConfig) *FCMSender {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultFCMEndpoint
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	// No retries: delivery is best effort and the caller runs on the request path.
	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &FCMSender{
		apiKey: strings.TrimSpace(cfg.APIKey),
		client: client,
	}
}

// Send pushes one notification to the supplied device token.
func (s *FCMSender) Send(ctx context.Context, token, title, body string, data map[string]any) error {
	if s.apiKey == "" {
		return ErrChannelDisabled
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("notify: device token is required")
	}

	payload := make(map[string]any, len(data)+2)
	for k, v := range data {
		payload[k] = v
	}
	payload["title"] = title
	payload["body"] = body

	var result fcmResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "key="+s.apiKey).
		SetBody(fcmMessage{
			To:           token,
			Notification: &fcmNotification{Title: title, Body: body},
			Data:         payload,
		}).
		SetResult(&result).
		Post("")
	if err != nil {
		return fmt.Errorf("notify: fcm send: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notify: fcm send: status %d", resp.StatusCode())
	}
	if result.Success == 0 {
		return fmt.Errorf("notify: fcm rejected message (failure=%d)", result.Failure)
	}

	return nil
}
