package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics contains all Prometheus metrics for the watcher
type PrometheusMetrics struct {
	// Probe metrics
	ChecksTotal   *prometheus.CounterVec
	ProbeDuration prometheus.Histogram

	// Alert state metrics
	ConsecutiveFailures prometheus.Gauge
	MonitorUp           prometheus.Gauge
	AlertsTotal         *prometheus.CounterVec

	// Notification metrics
	NotificationsSentTotal    *prometheus.CounterVec
	NotificationFailuresTotal prometheus.Counter

	// Application metrics
	ApplicationUptime prometheus.Gauge
}

// NewPrometheusMetrics creates and registers all Prometheus metrics
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		ChecksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watcher_checks_total",
				Help: "Total number of availability checks performed",
			},
			[]string{"result"},
		),

		ProbeDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "watcher_probe_duration_seconds",
				Help:    "Duration of individual availability probes",
				Buckets: prometheus.DefBuckets,
			},
		),

		ConsecutiveFailures: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "watcher_consecutive_failures",
				Help: "Current count of consecutive failed checks",
			},
		),

		MonitorUp: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "watcher_monitor_up",
				Help: "Whether the last check of the monitored URL succeeded",
			},
		),

		AlertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watcher_alerts_total",
				Help: "Total number of alert events emitted",
			},
			[]string{"kind"},
		),

		NotificationsSentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watcher_notifications_sent_total",
				Help: "Total number of notifications delivered",
			},
			[]string{"kind"},
		),

		NotificationFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "watcher_notification_failures_total",
				Help: "Total number of failed notification deliveries",
			},
		),

		ApplicationUptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "watcher_application_uptime_seconds",
				Help: "Time since the watcher process started",
			},
		),
	}
}

// RecordCheck records one probe outcome
func (pm *PrometheusMetrics) RecordCheck(success bool, duration time.Duration) {
	result := "fail"
	if success {
		result = "ok"
	}
	pm.ChecksTotal.WithLabelValues(result).Inc()
	pm.ProbeDuration.Observe(duration.Seconds())

	if success {
		pm.MonitorUp.Set(1)
	} else {
		pm.MonitorUp.Set(0)
	}
}

// RecordAlert records an emitted alert event
func (pm *PrometheusMetrics) RecordAlert(kind string) {
	pm.AlertsTotal.WithLabelValues(kind).Inc()
}

// RecordNotification records a notification delivery attempt
func (pm *PrometheusMetrics) RecordNotification(kind string, success bool) {
	if success {
		pm.NotificationsSentTotal.WithLabelValues(kind).Inc()
	} else {
		pm.NotificationFailuresTotal.Inc()
	}
}

// UpdateConsecutiveFailures updates the trailing failure gauge
func (pm *PrometheusMetrics) UpdateConsecutiveFailures(count int) {
	pm.ConsecutiveFailures.Set(float64(count))
}

// UpdateApplicationUptime updates the process uptime gauge
func (pm *PrometheusMetrics) UpdateApplicationUptime(startTime time.Time) {
	pm.ApplicationUptime.Set(time.Since(startTime).Seconds())
}
