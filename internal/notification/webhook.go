// File: internal/notification/webhook.go
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/uptime-watcher/internal/config"
	"github.com/smartdevs17/uptime-watcher/internal/models"
	"github.com/smartdevs17/uptime-watcher/pkg/utils"
)

// WebhookSender delivers alert notifications as JSON POSTs
type WebhookSender struct {
	config     *config.NotificationConfig
	logger     *logrus.Entry
	httpClient *http.Client
}

// WebhookPayload is the JSON body posted to the webhook endpoint
type WebhookPayload struct {
	Event     *models.AlertEvent `json:"event"`
	Timestamp time.Time          `json:"timestamp"`
	Source    string             `json:"source"`
	Version   string             `json:"version"`
}

// NewWebhookSender creates a webhook sender from notification config
func NewWebhookSender(cfg *config.NotificationConfig) *WebhookSender {
	return &WebhookSender{
		config: cfg,
		logger: utils.GetLogger().WithField("component", "webhook_sender"),
		httpClient: &http.Client{
			Timeout: cfg.NotificationTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// Send posts the alert event to the configured webhook URL, retrying
// with exponential backoff up to the configured attempt count.
func (ws *WebhookSender) Send(ctx context.Context, event *models.AlertEvent) error {
	if ws.config.WebhookURL == "" {
		return utils.NewAppError(utils.ErrCodeValidation, "Webhook URL is required")
	}

	payload := &WebhookPayload{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Source:    "uptime-watcher",
		Version:   "1.0",
	}

	attempts := ws.config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := ws.retryDelay(attempt)
			ws.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"delay":   delay,
			}).Debug("Retrying webhook delivery")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = ws.post(ctx, payload)
		if lastErr == nil {
			return nil
		}
	}

	return lastErr
}

// post sends a single webhook request
func (ws *WebhookSender) post(ctx context.Context, payload *WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeInternal, "Failed to marshal webhook payload", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ws.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return utils.NewAppError(utils.ErrCodeInternal, "Failed to create webhook request", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "uptime-watcher/1.0")
	if requestID, err := utils.GenerateID(); err == nil {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeExternal, "Failed to send webhook", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return utils.NewAppError(utils.ErrCodeExternal,
			"Webhook returned non-success status",
			fmt.Sprintf("status: %d, body: %s", resp.StatusCode, snippet))
	}

	return nil
}

// retryDelay computes exponential backoff capped at 30s
func (ws *WebhookSender) retryDelay(attempt int) time.Duration {
	delay := ws.config.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	delay = delay << uint(attempt-2)
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}
