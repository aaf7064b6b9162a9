// File: internal/logstore/logstore.go
package logstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/smartdevs17/uptime-watcher/internal/models"
	"github.com/smartdevs17/uptime-watcher/pkg/utils"
)

// LineTimeFormat is the timestamp layout used inside log lines
const LineTimeFormat = "2006-01-02 15:04:05"

// Store appends timestamped, status-tagged lines to per-day files under
// a fixed log root. Files are opened in append mode and closed per
// write so external rotation or renames stay safe; nothing is ever
// read back, rewritten or truncated.
type Store struct {
	root string
}

// NewStore creates a store rooted at root. The root itself is created
// lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the log root directory
func (s *Store) Root() string {
	return s.root
}

// DirFor derives the directory holding a monitor's log files for the
// given timestamp's UTC calendar date. Pure function of its inputs.
func (s *Store) DirFor(monitor string, ts time.Time) string {
	ts = ts.UTC()
	return filepath.Join(s.root, monitor,
		fmt.Sprintf("%04d", ts.Year()),
		fmt.Sprintf("%02d", int(ts.Month())))
}

// FileFor derives the full per-day log file path for the given
// timestamp's UTC calendar date.
func (s *Store) FileFor(monitor string, ts time.Time) string {
	return filepath.Join(s.DirFor(monitor, ts), ts.UTC().Format("2006-01-02")+".log")
}

// FormatLine renders one log line without the trailing newline
func FormatLine(status models.LogStatus, ts time.Time, message string) string {
	return fmt.Sprintf("[%s] %s - %s", status, ts.UTC().Format(LineTimeFormat), message)
}

// ParseLine parses a log line produced by FormatLine. It returns false
// for malformed lines so scanners can skip them.
func ParseLine(line string) (models.LogEntry, bool) {
	var entry models.LogEntry

	line = strings.TrimRight(line, "\r\n")
	if len(line) < 3 || line[0] != '[' {
		return entry, false
	}

	end := strings.IndexByte(line, ']')
	if end < 0 {
		return entry, false
	}

	switch status := models.LogStatus(line[1:end]); status {
	case models.StatusOK, models.StatusFail, models.StatusInfo:
		entry.Status = status
	default:
		return entry, false
	}

	rest := strings.TrimPrefix(line[end+1:], " ")
	sep := strings.Index(rest, " - ")
	if sep < 0 {
		return entry, false
	}

	ts, err := time.ParseInLocation(LineTimeFormat, rest[:sep], time.UTC)
	if err != nil {
		return entry, false
	}

	entry.Timestamp = ts
	entry.Message = rest[sep+3:]
	return entry, true
}

// Append writes one line for the monitor, creating the dated directory
// if absent. The path is re-derived from the timestamp on every call,
// so date rollover needs no special handling. The write is flushed
// before returning; any failure is returned as a LOG_STORE_ERROR since
// silent log loss defeats the monitor's purpose.
func (s *Store) Append(monitor string, status models.LogStatus, message string, ts time.Time) error {
	dir := s.DirFor(monitor, ts)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return utils.NewAppError(utils.ErrCodeLogStore, "Failed to create log directory", err.Error())
	}

	f, err := os.OpenFile(s.FileFor(monitor, ts), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeLogStore, "Failed to open log file", err.Error())
	}

	if _, err := f.WriteString(FormatLine(status, ts, message) + "\n"); err != nil {
		f.Close()
		return utils.NewAppError(utils.ErrCodeLogStore, "Failed to write log entry", err.Error())
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return utils.NewAppError(utils.ErrCodeLogStore, "Failed to flush log entry", err.Error())
	}

	if err := f.Close(); err != nil {
		return utils.NewAppError(utils.ErrCodeLogStore, "Failed to close log file", err.Error())
	}

	return nil
}

// ListMonitors returns the monitor names that have a log directory
// under the root, derived by listing its subdirectories.
func (s *Store) ListMonitors() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, utils.NewAppError(utils.ErrCodeLogStore, "Failed to list log root", err.Error())
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
