// File: internal/probe/probe.go
package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/smartdevs17/uptime-watcher/internal/models"
)

// Prober performs single bounded-time availability checks against a URL
type Prober interface {
	Check(ctx context.Context, url string) models.ProbeOutcome
}

// HTTPProber implements Prober over plain HTTP GET
type HTTPProber struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPProber creates a prober enforcing the given request timeout.
// Redirects are followed; the timeout covers the whole redirect chain.
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// Check performs one HTTP GET against the URL. Every transport-level
// problem (connection refused, DNS failure, timeout) and every non-2xx
// final status collapses into a failed outcome; transport errors are
// never propagated to the caller.
func (p *HTTPProber) Check(ctx context.Context, url string) models.ProbeOutcome {
	start := time.Now()

	outcome := models.ProbeOutcome{
		Timestamp: start.UTC(),
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		outcome.Error = err.Error()
		outcome.Latency = time.Since(start)
		return outcome
	}
	req.Header.Set("User-Agent", "uptime-watcher/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		outcome.Error = err.Error()
		outcome.Latency = time.Since(start)
		return outcome
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	outcome.StatusCode = resp.StatusCode
	outcome.Latency = time.Since(start)
	outcome.Success = resp.StatusCode >= 200 && resp.StatusCode < 300

	return outcome
}
