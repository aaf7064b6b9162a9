package alert

import (
	"testing"
	"time"

	"github.com/smartdevs17/uptime-watcher/internal/models"
)

func outcome(success bool) models.ProbeOutcome {
	return models.ProbeOutcome{
		Success:   success,
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

// apply feeds a sequence of outcomes (true = success) and collects the
// emitted events.
func apply(p *Policy, sequence []bool) []*models.AlertEvent {
	var events []*models.AlertEvent
	for _, ok := range sequence {
		if event := p.Apply(outcome(ok)); event != nil {
			events = append(events, event)
		}
	}
	return events
}

func TestPolicyThresholdCrossing(t *testing.T) {
	t.Run("alert fires on exact threshold", func(t *testing.T) {
		p := NewPolicy("demo", "https://example.com", 4)

		events := apply(p, []bool{false, false, false, false})

		if len(events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(events))
		}
		if events[0].Kind != models.AlertDown {
			t.Errorf("expected DOWN event, got %s", events[0].Kind)
		}
		if events[0].FailCount != 4 {
			t.Errorf("expected fail count 4, got %d", events[0].FailCount)
		}
		if p.State() != StateDownNotified {
			t.Errorf("expected state %s, got %s", StateDownNotified, p.State())
		}
	})

	t.Run("no alert below threshold", func(t *testing.T) {
		p := NewPolicy("demo", "https://example.com", 4)

		events := apply(p, []bool{false, false, false})

		if len(events) != 0 {
			t.Fatalf("expected no events, got %d", len(events))
		}
		if p.State() != StateDegrading {
			t.Errorf("expected state %s, got %s", StateDegrading, p.State())
		}
	})

	t.Run("no repeat alert past threshold", func(t *testing.T) {
		p := NewPolicy("demo", "https://example.com", 2)

		events := apply(p, []bool{false, false, false, false, false})

		if len(events) != 1 {
			t.Fatalf("expected exactly 1 DOWN event, got %d", len(events))
		}
		if p.ConsecutiveFailures() != 5 {
			t.Errorf("expected 5 consecutive failures, got %d", p.ConsecutiveFailures())
		}
	})
}

func TestPolicyRecovery(t *testing.T) {
	t.Run("down then recovered", func(t *testing.T) {
		p := NewPolicy("demo", "https://example.com", 4)

		events := apply(p, []bool{false, false, false, false, false, true})

		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[0].Kind != models.AlertDown {
			t.Errorf("first event should be DOWN, got %s", events[0].Kind)
		}
		if events[1].Kind != models.AlertRecovered {
			t.Errorf("second event should be RECOVERED, got %s", events[1].Kind)
		}
		// The recovery carries the episode's total failed checks
		if events[1].FailCount != 5 {
			t.Errorf("expected recovered fail count 5, got %d", events[1].FailCount)
		}
		if p.ConsecutiveFailures() != 0 {
			t.Errorf("expected counter reset, got %d", p.ConsecutiveFailures())
		}
		if p.State() != StateHealthy {
			t.Errorf("expected state %s, got %s", StateHealthy, p.State())
		}
	})

	t.Run("silent reset below threshold produces no recovery", func(t *testing.T) {
		p := NewPolicy("demo", "https://example.com", 4)

		events := apply(p, []bool{false, false, true})

		if len(events) != 0 {
			t.Fatalf("expected no events, got %d", len(events))
		}
		if p.ConsecutiveFailures() != 0 {
			t.Errorf("expected counter reset, got %d", p.ConsecutiveFailures())
		}
	})

	t.Run("flake then full episode", func(t *testing.T) {
		// F,F,S,F,F,F,F with threshold 4: the success resets the first
		// run, the alert fires exactly once at the end of the second.
		p := NewPolicy("demo", "https://example.com", 4)

		events := apply(p, []bool{false, false, true, false, false, false, false})

		if len(events) != 1 {
			t.Fatalf("expected exactly 1 event, got %d", len(events))
		}
		if events[0].Kind != models.AlertDown {
			t.Errorf("expected DOWN event, got %s", events[0].Kind)
		}
	})

	t.Run("exactly one recovery per episode", func(t *testing.T) {
		p := NewPolicy("demo", "https://example.com", 2)

		events := apply(p, []bool{false, false, true, true, true})

		recovered := 0
		for _, e := range events {
			if e.Kind == models.AlertRecovered {
				recovered++
			}
		}
		if recovered != 1 {
			t.Errorf("expected exactly 1 RECOVERED event, got %d", recovered)
		}
	})
}

func TestPolicyTrailingFailureInvariant(t *testing.T) {
	// After any sequence, the counter equals the number of trailing
	// failures since the last success.
	sequences := [][]bool{
		{},
		{true},
		{false},
		{false, false, true, false},
		{true, false, false, false},
		{false, true, false, true, false, false},
	}

	for _, seq := range sequences {
		p := NewPolicy("demo", "https://example.com", 3)
		apply(p, seq)

		trailing := 0
		for i := len(seq) - 1; i >= 0 && !seq[i]; i-- {
			trailing++
		}

		if p.ConsecutiveFailures() != trailing {
			t.Errorf("sequence %v: expected %d trailing failures, got %d",
				seq, trailing, p.ConsecutiveFailures())
		}
	}
}

func TestPolicyEventMetadata(t *testing.T) {
	p := NewPolicy("demo", "https://example.com", 1)

	event := p.Apply(outcome(false))
	if event == nil {
		t.Fatal("expected DOWN event at threshold 1")
	}
	if event.Monitor != "demo" {
		t.Errorf("expected monitor demo, got %s", event.Monitor)
	}
	if event.URL != "https://example.com" {
		t.Errorf("expected url carried through, got %s", event.URL)
	}
	if event.Timestamp.IsZero() {
		t.Error("expected event timestamp from outcome")
	}
}
