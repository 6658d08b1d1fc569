package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// WebhookDispatcher implements usecase.NotificationDispatcher by posting to a
// webhook. Notifications are best effort; the caller logs and moves on.
type WebhookDispatcher struct {
	url        string
	httpClient *http.Client
}

// NewWebhookDispatcher creates a new WebhookDispatcher.
func NewWebhookDispatcher(url string, timeout time.Duration) *WebhookDispatcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &WebhookDispatcher{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type webhookPayload struct {
	Template  string            `json:"template"`
	Recipient string            `json:"recipient"`
	Variables map[string]string `json:"variables,omitempty"`
}

// Send posts the notification to the webhook.
func (d *WebhookDispatcher) Send(ctx context.Context, template, recipient string, variables map[string]string) error {
	body, err := json.Marshal(webhookPayload{
		Template:  template,
		Recipient: recipient,
		Variables: variables,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification webhook failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned %d", resp.StatusCode)
	}

	return nil
}

// LogDispatcher implements usecase.NotificationDispatcher by logging. Used
// when no webhook is configured.
type LogDispatcher struct {
	logger zerolog.Logger
}

// NewLogDispatcher creates a new LogDispatcher.
func NewLogDispatcher(logger zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Send logs the notification.
func (d *LogDispatcher) Send(ctx context.Context, template, recipient string, variables map[string]string) error {
	d.logger.Info().
		Str("template", template).
		Str("recipient", recipient).
		Interface("variables", variables).
		Msg("NOTIFICATION")

	return nil
}
