// File: internal/alert/policy.go
package alert

import (
	"github.com/smartdevs17/uptime-watcher/internal/models"
)

// State identifies the policy state for status reporting
type State string

const (
	StateHealthy      State = "healthy"
	StateDegrading    State = "degrading"
	StateDownNotified State = "down_notified"
)

// Policy is the consecutive-failure alert state machine. It is a pure
// transition function over its own fields; it performs no I/O. The
// owning monitor loop is the only writer.
type Policy struct {
	monitor   string
	url       string
	threshold int

	consecutiveFailures int
	alertSent           bool
}

// NewPolicy creates a policy in the Healthy state. threshold is the
// consecutive-failure count at which a DOWN alert fires; it must be
// at least 1 (validated by config at startup).
func NewPolicy(monitor, url string, threshold int) *Policy {
	return &Policy{
		monitor:   monitor,
		url:       url,
		threshold: threshold,
	}
}

// Apply consumes one probe outcome and returns the alert event it
// produces, or nil. A DOWN event fires exactly when the consecutive
// failure count first reaches the threshold; a RECOVERED event fires
// on the first success after a DOWN event, carrying the failure count
// of the episode just ended. No event is ever repeated within an
// episode.
func (p *Policy) Apply(outcome models.ProbeOutcome) *models.AlertEvent {
	if outcome.Success {
		episodeFailures := p.consecutiveFailures
		p.consecutiveFailures = 0

		if p.alertSent {
			p.alertSent = false
			return &models.AlertEvent{
				Kind:      models.AlertRecovered,
				Monitor:   p.monitor,
				URL:       p.url,
				Timestamp: outcome.Timestamp,
				FailCount: episodeFailures,
			}
		}
		return nil
	}

	p.consecutiveFailures++

	if p.consecutiveFailures == p.threshold && !p.alertSent {
		p.alertSent = true
		return &models.AlertEvent{
			Kind:      models.AlertDown,
			Monitor:   p.monitor,
			URL:       p.url,
			Timestamp: outcome.Timestamp,
			FailCount: p.consecutiveFailures,
		}
	}

	return nil
}

// ConsecutiveFailures returns the current trailing failure count
func (p *Policy) ConsecutiveFailures() int {
	return p.consecutiveFailures
}

// AlertSent reports whether a DOWN alert is outstanding
func (p *Policy) AlertSent() bool {
	return p.alertSent
}

// State returns the current policy state
func (p *Policy) State() State {
	switch {
	case p.alertSent:
		return StateDownNotified
	case p.consecutiveFailures > 0:
		return StateDegrading
	default:
		return StateHealthy
	}
}
