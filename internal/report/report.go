// File: internal/report/report.go
package report

import (
	"bufio"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/smartdevs17/uptime-watcher/internal/logstore"
	"github.com/smartdevs17/uptime-watcher/internal/models"
	"github.com/smartdevs17/uptime-watcher/pkg/utils"
)

// Reporter computes availability statistics from a monitor's dated log
// trail. It is a read-only batch consumer of the same files the
// monitor loop appends to; it takes no locks and may run while the
// loop is live.
type Reporter struct {
	store *logstore.Store
}

// NewReporter creates a reporter over the given log store
func NewReporter(store *logstore.Store) *Reporter {
	return &Reporter{store: store}
}

// Report scans every log file under the monitor's directory across all
// years and months, counting OK and FAIL lines. INFO lines and lines
// that fail to parse are skipped. A missing monitor directory is a
// NOT_FOUND error; a directory with no countable lines yields a stats
// value with TotalChecks == 0, which is not an error.
func (r *Reporter) Report(monitor string) (*models.UptimeStats, error) {
	dir := filepath.Join(r.store.Root(), monitor)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, utils.NewAppError(utils.ErrCodeNotFound, "No logs found for monitor", monitor)
		}
		return nil, utils.NewAppError(utils.ErrCodeInternal, "Failed to stat monitor log directory", err.Error())
	}
	if !info.IsDir() {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "No logs found for monitor", monitor)
	}

	stats := &models.UptimeStats{Monitor: monitor}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree is skipped rather than aborting the scan
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".log") {
			return nil
		}
		if err := r.scanFile(path, stats); err == nil {
			stats.FilesScanned++
		}
		return nil
	})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeInternal, "Failed to walk monitor log directory", err.Error())
	}

	stats.TotalChecks = stats.SuccessChecks + stats.FailedChecks
	if stats.TotalChecks > 0 {
		pct := 100 * float64(stats.SuccessChecks) / float64(stats.TotalChecks)
		stats.UptimePercent = math.Round(pct*100) / 100
	}

	return stats, nil
}

// scanFile counts the OK/FAIL lines of one log file into stats
func (r *Reporter) scanFile(path string, stats *models.UptimeStats) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entry, ok := logstore.ParseLine(scanner.Text())
		if !ok {
			continue
		}
		switch entry.Status {
		case models.StatusOK:
			stats.SuccessChecks++
		case models.StatusFail:
			stats.FailedChecks++
		}
	}
	return scanner.Err()
}

// ListMonitors returns the names with log directories under the root
func (r *Reporter) ListMonitors() ([]string, error) {
	return r.store.ListMonitors()
}
