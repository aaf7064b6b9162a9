// File: internal/monitor/monitor.go
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/uptime-watcher/internal/alert"
	"github.com/smartdevs17/uptime-watcher/internal/config"
	"github.com/smartdevs17/uptime-watcher/internal/logstore"
	"github.com/smartdevs17/uptime-watcher/internal/metrics"
	"github.com/smartdevs17/uptime-watcher/internal/models"
	"github.com/smartdevs17/uptime-watcher/internal/notification"
	"github.com/smartdevs17/uptime-watcher/internal/probe"
	"github.com/smartdevs17/uptime-watcher/internal/storage"
	"github.com/smartdevs17/uptime-watcher/pkg/utils"
)

// Status is a read-only snapshot of the monitor for the HTTP server
type Status struct {
	Monitor             string               `json:"monitor"`
	URL                 string               `json:"url"`
	State               alert.State          `json:"state"`
	ConsecutiveFailures int                  `json:"consecutive_failures"`
	AlertSent           bool                 `json:"alert_sent"`
	ChecksRun           uint64               `json:"checks_run"`
	StartedAt           time.Time            `json:"started_at"`
	LastOutcome         *models.ProbeOutcome `json:"last_outcome,omitempty"`
}

// Monitor drives the check cycle for one target: probe, alert policy,
// notification, log entry, sleep. The loop is strictly sequential and
// owns its state exclusively; a slow probe simply delays the next
// cycle rather than overlapping it.
type Monitor struct {
	config   *config.MonitorConfig
	prober   probe.Prober
	policy   *alert.Policy
	store    *logstore.Store
	notifier notification.Notifier
	storage  storage.Storage // nil when the incident store is disabled
	metrics  *metrics.Manager
	logger   *logrus.Entry

	mu             sync.RWMutex
	status         Status
	openIncidentID string
}

// New creates a monitor. notifier and metricsManager may be nil;
// incidentStore may be nil when the incident store is disabled.
func New(
	cfg *config.MonitorConfig,
	prober probe.Prober,
	store *logstore.Store,
	notifier notification.Notifier,
	incidentStore storage.Storage,
	metricsManager *metrics.Manager,
) *Monitor {
	return &Monitor{
		config:   cfg,
		prober:   prober,
		policy:   alert.NewPolicy(cfg.Name, cfg.URL, cfg.FailureThreshold),
		store:    store,
		notifier: notifier,
		storage:  incidentStore,
		metrics:  metricsManager,
		logger:   utils.GetLogger().WithField("component", "monitor"),
		status: Status{
			Monitor: cfg.Name,
			URL:     cfg.URL,
			State:   alert.StateHealthy,
		},
	}
}

// Run drives the monitoring loop until ctx is cancelled. It returns
// nil on clean shutdown and an error only when a log write fails,
// which is fatal: the monitor cannot fulfill its audit contract
// without durable logs.
func (m *Monitor) Run(ctx context.Context) error {
	m.mu.Lock()
	m.status.StartedAt = time.Now().UTC()
	m.mu.Unlock()

	startMsg := fmt.Sprintf("Monitoring started for %s", m.config.URL)
	if err := m.store.Append(m.config.Name, models.StatusInfo, startMsg, time.Now()); err != nil {
		return err
	}
	m.logger.WithFields(logrus.Fields{
		"url":       m.config.URL,
		"interval":  m.config.CheckInterval,
		"threshold": m.config.FailureThreshold,
	}).Info("Monitoring started")

	for {
		if err := m.runCycle(ctx); err != nil {
			return err
		}

		// Interval sleep, interruptible for bounded shutdown latency
		select {
		case <-ctx.Done():
			return m.shutdown()
		case <-time.After(m.config.CheckInterval):
		}
	}
}

// runCycle performs one probe-policy-notify-log cycle
func (m *Monitor) runCycle(ctx context.Context) error {
	outcome := m.prober.Check(ctx, m.config.URL)

	event := m.policy.Apply(outcome)

	if m.metrics != nil {
		prom := m.metrics.GetPrometheusMetrics()
		prom.RecordCheck(outcome.Success, outcome.Latency)
		prom.UpdateConsecutiveFailures(m.policy.ConsecutiveFailures())
	}

	// Notification failure is logged and absorbed: policy state has
	// already advanced and must not desynchronize from delivery.
	if event != nil {
		m.handleAlertEvent(ctx, event)
	}

	status, message := m.describeOutcome(outcome)
	if err := m.store.Append(m.config.Name, status, message, outcome.Timestamp); err != nil {
		return err
	}

	m.echoOutcome(outcome)
	m.updateStatus(outcome)
	return nil
}

// handleAlertEvent delivers the notification and records the incident
func (m *Monitor) handleAlertEvent(ctx context.Context, event *models.AlertEvent) {
	m.logger.WithFields(logrus.Fields{
		"kind":       event.Kind,
		"url":        event.URL,
		"fail_count": event.FailCount,
	}).Warn("Alert threshold event")

	if m.metrics != nil {
		m.metrics.GetPrometheusMetrics().RecordAlert(string(event.Kind))
	}

	if m.notifier != nil {
		err := m.notifier.Notify(ctx, event)
		if m.metrics != nil {
			m.metrics.GetPrometheusMetrics().RecordNotification(string(event.Kind), err == nil)
		}
		if err != nil {
			// Fire-and-forget contract: warn and carry on
			m.logger.WithField("error", err).Warn("Failed to deliver notification")
		}
	}

	m.recordIncident(ctx, event)
}

// recordIncident mirrors the alert episode into the incident store
func (m *Monitor) recordIncident(ctx context.Context, event *models.AlertEvent) {
	if m.storage == nil {
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch event.Kind {
	case models.AlertDown:
		id, err := utils.GenerateID()
		if err != nil {
			m.logger.WithField("error", err).Warn("Failed to generate incident ID")
			return
		}
		incident := &models.Incident{
			ID:        id,
			Monitor:   event.Monitor,
			URL:       event.URL,
			StartedAt: event.Timestamp,
			FailCount: event.FailCount,
		}
		if err := m.storage.OpenIncident(opCtx, incident); err != nil {
			m.logger.WithField("error", err).Warn("Failed to record incident")
			return
		}
		m.mu.Lock()
		m.openIncidentID = id
		m.mu.Unlock()

	case models.AlertRecovered:
		m.mu.Lock()
		id := m.openIncidentID
		m.openIncidentID = ""
		m.mu.Unlock()
		if id == "" {
			return
		}
		if err := m.storage.ResolveIncident(opCtx, id, event.Timestamp, event.FailCount); err != nil {
			m.logger.WithField("error", err).Warn("Failed to resolve incident")
		}
	}
}

// describeOutcome maps a probe outcome onto its log line
func (m *Monitor) describeOutcome(outcome models.ProbeOutcome) (models.LogStatus, string) {
	if outcome.Success {
		return models.StatusOK, fmt.Sprintf("%s responded %d in %dms",
			m.config.URL, outcome.StatusCode, outcome.Latency.Milliseconds())
	}
	if outcome.Error != "" {
		return models.StatusFail, fmt.Sprintf("%s check failed: %s", m.config.URL, outcome.Error)
	}
	return models.StatusFail, fmt.Sprintf("%s returned status %d", m.config.URL, outcome.StatusCode)
}

// echoOutcome mirrors every outcome to the console so a foreground
// run is self-describing without reading the log files.
func (m *Monitor) echoOutcome(outcome models.ProbeOutcome) {
	fields := logrus.Fields{
		"url":        m.config.URL,
		"latency_ms": outcome.Latency.Milliseconds(),
	}
	if outcome.StatusCode != 0 {
		fields["status"] = outcome.StatusCode
	}

	if outcome.Success {
		m.logger.WithFields(fields).Info("Check OK")
		return
	}

	fields["consecutive_failures"] = m.policy.ConsecutiveFailures()
	if outcome.Error != "" {
		fields["error"] = outcome.Error
	}
	m.logger.WithFields(fields).Warn("Check failed")
}

// updateStatus refreshes the snapshot served by the HTTP server
func (m *Monitor) updateStatus(outcome models.ProbeOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status.ChecksRun++
	m.status.State = m.policy.State()
	m.status.ConsecutiveFailures = m.policy.ConsecutiveFailures()
	m.status.AlertSent = m.policy.AlertSent()
	o := outcome
	m.status.LastOutcome = &o
}

// shutdown writes the final log entry and reports the clean exit
func (m *Monitor) shutdown() error {
	if err := m.writeShutdownEntry(); err != nil {
		return err
	}
	m.logger.Info("Monitoring stopped")
	return nil
}

func (m *Monitor) writeShutdownEntry() error {
	return m.store.Append(m.config.Name, models.StatusInfo, "Monitoring stopped", time.Now())
}

// GetStatus returns a snapshot of the current monitor state
func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}
