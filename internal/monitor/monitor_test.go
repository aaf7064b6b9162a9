package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smartdevs17/uptime-watcher/internal/config"
	"github.com/smartdevs17/uptime-watcher/internal/logstore"
	"github.com/smartdevs17/uptime-watcher/internal/models"
	"github.com/smartdevs17/uptime-watcher/internal/notification"
)

// scriptedProber plays back a fixed outcome sequence, then cancels the
// monitor's context so the loop shuts down.
type scriptedProber struct {
	mu      sync.Mutex
	script  []bool
	pos     int
	onEmpty context.CancelFunc
}

func (p *scriptedProber) Check(ctx context.Context, url string) models.ProbeOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	success := p.script[p.pos]
	if p.pos < len(p.script)-1 {
		p.pos++
	} else if p.onEmpty != nil {
		p.onEmpty()
		p.onEmpty = nil
	}

	return models.ProbeOutcome{
		Success:    success,
		StatusCode: 200,
		Latency:    time.Millisecond,
		Timestamp:  time.Now().UTC(),
	}
}

// recordingNotifier captures delivered events and can fail on demand
type recordingNotifier struct {
	mu     sync.Mutex
	events []*models.AlertEvent
	fail   bool
}

func (n *recordingNotifier) Start(ctx context.Context) error { return nil }
func (n *recordingNotifier) Stop() error                     { return nil }
func (n *recordingNotifier) GetStats() *notification.Stats   { return &notification.Stats{} }

func (n *recordingNotifier) Notify(ctx context.Context, event *models.AlertEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	if n.fail {
		return errors.New("delivery refused")
	}
	return nil
}

func (n *recordingNotifier) recorded() []*models.AlertEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*models.AlertEvent(nil), n.events...)
}

func testConfig(root string) *config.MonitorConfig {
	return &config.MonitorConfig{
		Name:             "demo",
		URL:              "https://example.com",
		CheckInterval:    time.Millisecond,
		FailureThreshold: 2,
		RequestTimeout:   time.Second,
		LogRoot:          root,
	}
}

// runScripted drives a monitor through the outcome script and returns
// the notifier and the Run error.
func runScripted(t *testing.T, cfg *config.MonitorConfig, script []bool, failNotify bool) (*recordingNotifier, error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prober := &scriptedProber{script: script, onEmpty: cancel}
	notifier := &recordingNotifier{fail: failNotify}
	store := logstore.NewStore(cfg.LogRoot)

	mon := New(cfg, prober, store, notifier, nil, nil)

	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx) }()

	select {
	case err := <-done:
		return notifier, err
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
		return nil, nil
	}
}

func readLogLines(t *testing.T, root string) []string {
	t.Helper()

	var lines []string
	filepath.Walk(filepath.Join(root, "demo"), func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			if line != "" {
				lines = append(lines, line)
			}
		}
		return nil
	})
	return lines
}

func TestMonitorRun(t *testing.T) {
	t.Run("down and recovery episode", func(t *testing.T) {
		root := t.TempDir()
		notifier, err := runScripted(t, testConfig(root), []bool{false, false, true}, false)
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}

		events := notifier.recorded()
		if len(events) != 2 {
			t.Fatalf("expected DOWN and RECOVERED, got %d events", len(events))
		}
		if events[0].Kind != models.AlertDown || events[0].FailCount != 2 {
			t.Errorf("unexpected first event: %+v", events[0])
		}
		if events[1].Kind != models.AlertRecovered {
			t.Errorf("unexpected second event: %+v", events[1])
		}

		lines := readLogLines(t, root)
		// INFO start, FAIL, FAIL, OK, INFO stop
		if len(lines) != 5 {
			t.Fatalf("expected 5 log lines, got %d: %v", len(lines), lines)
		}
		if !strings.HasPrefix(lines[0], "[INFO] ") || !strings.Contains(lines[0], "Monitoring started") {
			t.Errorf("unexpected first line: %q", lines[0])
		}
		if !strings.HasPrefix(lines[1], "[FAIL] ") || !strings.HasPrefix(lines[2], "[FAIL] ") {
			t.Errorf("expected FAIL entries, got %q, %q", lines[1], lines[2])
		}
		if !strings.HasPrefix(lines[3], "[OK] ") {
			t.Errorf("expected OK entry, got %q", lines[3])
		}
		if !strings.Contains(lines[4], "Monitoring stopped") {
			t.Errorf("expected shutdown entry, got %q", lines[4])
		}
	})

	t.Run("notification failure does not stop the loop", func(t *testing.T) {
		root := t.TempDir()
		notifier, err := runScripted(t, testConfig(root), []bool{false, false, false, true}, true)
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}

		// Both events were attempted despite delivery failures, and the
		// loop kept logging all four checks.
		if len(notifier.recorded()) != 2 {
			t.Errorf("expected 2 attempted notifications, got %d", len(notifier.recorded()))
		}

		lines := readLogLines(t, root)
		if len(lines) != 6 {
			t.Errorf("expected 6 log lines, got %d: %v", len(lines), lines)
		}
	})

	t.Run("no alert below threshold", func(t *testing.T) {
		root := t.TempDir()
		notifier, err := runScripted(t, testConfig(root), []bool{false, true, true}, false)
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if len(notifier.recorded()) != 0 {
			t.Errorf("expected no notifications, got %v", notifier.recorded())
		}
	})

	t.Run("status snapshot tracks the loop", func(t *testing.T) {
		root := t.TempDir()
		cfg := testConfig(root)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		prober := &scriptedProber{script: []bool{false, false}, onEmpty: cancel}
		store := logstore.NewStore(root)
		mon := New(cfg, prober, store, nil, nil, nil)

		done := make(chan error, 1)
		go func() { done <- mon.Run(ctx) }()
		<-done

		status := mon.GetStatus()
		if status.ChecksRun != 2 {
			t.Errorf("checks run = %d, want 2", status.ChecksRun)
		}
		if status.ConsecutiveFailures != 2 {
			t.Errorf("consecutive failures = %d, want 2", status.ConsecutiveFailures)
		}
		if !status.AlertSent {
			t.Error("expected alert sent flag in snapshot")
		}
	})

	t.Run("log write failure is fatal", func(t *testing.T) {
		root := t.TempDir()
		// Occupy the log root with a plain file so appends must fail
		blocked := filepath.Join(root, "blocked")
		if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg := testConfig(blocked)
		ctx := context.Background()
		mon := New(cfg, &scriptedProber{script: []bool{true}}, logstore.NewStore(blocked), nil, nil, nil)

		if err := mon.Run(ctx); err == nil {
			t.Fatal("expected fatal error when log root is unusable")
		}
	})
}
