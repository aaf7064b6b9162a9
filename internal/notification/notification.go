// File: internal/notification/notification.go
package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/uptime-watcher/internal/config"
	"github.com/smartdevs17/uptime-watcher/internal/models"
	"github.com/smartdevs17/uptime-watcher/pkg/utils"
)

// Notifier delivers alert and recovery notifications. Delivery is
// fire-and-forget from the monitor's point of view: a Notify error is
// logged by the caller but never changes monitor state.
type Notifier interface {
	Start(ctx context.Context) error
	Stop() error
	Notify(ctx context.Context, event *models.AlertEvent) error
	GetStats() *Stats
}

// Stats provides notification delivery statistics
type Stats struct {
	TotalSent     uint64     `json:"total_sent"`
	TotalFailed   uint64     `json:"total_failed"`
	EmailsSent    uint64     `json:"emails_sent"`
	WebhooksSent  uint64     `json:"webhooks_sent"`
	LastError     *string    `json:"last_error,omitempty"`
	LastErrorTime *time.Time `json:"last_error_time,omitempty"`
}

// Manager implements Notifier by fanning one alert event out to the
// enabled delivery channels (email, webhook).
type Manager struct {
	config     *config.NotificationConfig
	recipients []string
	logger     *logrus.Entry

	mu      sync.Mutex
	running bool
	stats   Stats

	emailSender   *EmailSender
	webhookSender *WebhookSender
}

// NewManager creates a notification manager. recipients are the opaque
// recipient identifiers from the monitor configuration, passed through
// to the email channel.
func NewManager(cfg *config.NotificationConfig, recipients []string) *Manager {
	m := &Manager{
		config:     cfg,
		recipients: recipients,
		logger:     utils.GetLogger().WithField("component", "notification"),
	}

	m.emailSender = NewEmailSender(cfg)
	m.webhookSender = NewWebhookSender(cfg)

	return m
}

// Start starts the notification manager
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return utils.NewAppError(utils.ErrCodeInternal, "Notification manager already running")
	}
	m.running = true

	m.logger.WithFields(logrus.Fields{
		"email":   m.config.EnableEmailNotifications,
		"webhook": m.config.EnableWebhookNotifications,
	}).Info("Notification manager started")
	return nil
}

// Stop stops the notification manager
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false

	m.logger.Info("Notification manager stopped")
	return nil
}

// Notify delivers one alert event on every enabled channel. It returns
// the first delivery error after trying all channels, so a failing
// webhook does not suppress the email and vice versa.
func (m *Manager) Notify(ctx context.Context, event *models.AlertEvent) error {
	if !m.config.Enabled {
		return nil
	}

	subject, body := RenderAlert(event)

	var firstErr error

	if m.config.EnableEmailNotifications {
		err := m.emailSender.Send(ctx, m.recipients, subject, body)
		m.recordResult(&m.stats.EmailsSent, err)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if m.config.EnableWebhookNotifications {
		err := m.webhookSender.Send(ctx, event)
		m.recordResult(&m.stats.WebhooksSent, err)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		m.logger.WithFields(logrus.Fields{
			"kind":  event.Kind,
			"url":   event.URL,
			"error": firstErr,
		}).Warn("Notification delivery failed")
		return firstErr
	}

	m.logger.WithFields(logrus.Fields{
		"kind": event.Kind,
		"url":  event.URL,
	}).Info("Notification sent")
	return nil
}

// recordResult updates delivery statistics for one channel attempt
func (m *Manager) recordResult(sentCounter *uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.stats.TotalFailed++
		errStr := err.Error()
		now := time.Now()
		m.stats.LastError = &errStr
		m.stats.LastErrorTime = &now
		return
	}

	m.stats.TotalSent++
	*sentCounter++
}

// GetStats returns a copy of the delivery statistics
func (m *Manager) GetStats() *Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.stats
	return &stats
}

// RenderAlert builds the human-readable subject and body for an alert
// event. Presentation beyond plain text is the delivery channel's
// concern, not the monitor's.
func RenderAlert(event *models.AlertEvent) (subject, body string) {
	ts := event.Timestamp.UTC().Format("2006-01-02 15:04:05")

	switch event.Kind {
	case models.AlertRecovered:
		subject = fmt.Sprintf("[RECOVERED] %s is back up", event.Monitor)
		body = fmt.Sprintf(
			"%s (%s) recovered at %s UTC after %d failed checks.",
			event.Monitor, event.URL, ts, event.FailCount)
	default:
		subject = fmt.Sprintf("[DOWN] %s is unreachable", event.Monitor)
		body = fmt.Sprintf(
			"%s (%s) failed %d consecutive checks as of %s UTC.",
			event.Monitor, event.URL, event.FailCount, ts)
	}
	return subject, body
}
