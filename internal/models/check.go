// File: internal/models/check.go
package models

import "time"

// ProbeOutcome is the result of a single availability check. It is
// produced fresh for every check and consumed immediately by the
// alert policy; it is never persisted.
type ProbeOutcome struct {
	Success    bool          `json:"success"`
	StatusCode int           `json:"status_code,omitempty"`
	Latency    time.Duration `json:"latency"`
	Timestamp  time.Time     `json:"timestamp"`
	Error      string        `json:"error,omitempty"`
}

// LogStatus tags a log store line
type LogStatus string

const (
	StatusOK   LogStatus = "OK"
	StatusFail LogStatus = "FAIL"
	StatusInfo LogStatus = "INFO"
)

// LogEntry represents one parsed line of the dated log trail
type LogEntry struct {
	Status    LogStatus `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// AlertKind distinguishes down alerts from recovery alerts
type AlertKind string

const (
	AlertDown      AlertKind = "DOWN"
	AlertRecovered AlertKind = "RECOVERED"
)

// AlertEvent is the structured payload handed to the notifier when a
// monitor crosses its failure threshold or recovers from an episode.
type AlertEvent struct {
	Kind      AlertKind `json:"kind"`
	Monitor   string    `json:"monitor"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	// FailCount is the consecutive failure count at threshold crossing
	// for DOWN alerts, or the total failed checks in the episode for
	// RECOVERED alerts.
	FailCount int `json:"fail_count"`
}

// Incident records one alert episode in the incident store
type Incident struct {
	ID         string     `json:"id" db:"id"`
	Monitor    string     `json:"monitor" db:"monitor"`
	URL        string     `json:"url" db:"url"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	FailCount  int        `json:"fail_count" db:"fail_count"`
}

// Resolved reports whether the incident has been closed by a recovery
func (i *Incident) Resolved() bool {
	return i.ResolvedAt != nil
}

// UptimeStats is the aggregate produced by the uptime reporter
type UptimeStats struct {
	Monitor       string  `json:"monitor"`
	TotalChecks   int     `json:"total_checks"`
	SuccessChecks int     `json:"success_checks"`
	FailedChecks  int     `json:"failed_checks"`
	UptimePercent float64 `json:"uptime_percent"`
	FilesScanned  int     `json:"files_scanned"`
}

// HasData reports whether any OK or FAIL line was found
func (s *UptimeStats) HasData() bool {
	return s.TotalChecks > 0
}
