// File: internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/smartdevs17/uptime-watcher/internal/models"
	"github.com/smartdevs17/uptime-watcher/pkg/utils"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS incidents (
	id          TEXT PRIMARY KEY,
	monitor     TEXT NOT NULL,
	url         TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	resolved_at TIMESTAMP,
	fail_count  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_incidents_monitor ON incidents(monitor, started_at);
`

// SQLiteStorage implements Storage using SQLite
type SQLiteStorage struct {
	db     *sql.DB
	config *StorageConfig
	logger *logrus.Logger
}

// NewSQLiteStorage creates a new SQLite incident store
func NewSQLiteStorage(config *StorageConfig) *SQLiteStorage {
	return &SQLiteStorage{
		config: config,
		logger: utils.GetLogger(),
	}
}

// Connect establishes the database connection
func (s *SQLiteStorage) Connect() error {
	dir := filepath.Dir(s.config.ConnectionString)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create database directory", err.Error())
		}
	}

	db, err := sql.Open("sqlite", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open SQLite database", err.Error())
	}

	db.SetMaxOpenConns(s.config.MaxConnections)
	db.SetMaxIdleConns(s.config.MaxConnections / 2)
	db.SetConnMaxLifetime(s.config.MaxIdleTime)

	// WAL keeps the reporter process from blocking the writer
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to enable WAL mode", err.Error())
	}

	s.db = db
	s.logger.WithField("path", s.config.ConnectionString).Info("SQLite incident store connected")
	return nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Ping checks database connectivity
func (s *SQLiteStorage) Ping() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected")
	}
	return s.db.Ping()
}

// Migrate creates the incident schema
func (s *SQLiteStorage) Migrate() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected")
	}
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to apply schema", err.Error())
	}
	return nil
}

// OpenIncident records the start of a down episode
func (s *SQLiteStorage) OpenIncident(ctx context.Context, incident *models.Incident) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO incidents (id, monitor, url, started_at, fail_count)
		 VALUES (?, ?, ?, ?, ?)`,
		incident.ID, incident.Monitor, incident.URL, incident.StartedAt, incident.FailCount)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open incident", err.Error())
	}
	return nil
}

// ResolveIncident closes a down episode with its final failure count
func (s *SQLiteStorage) ResolveIncident(ctx context.Context, id string, resolvedAt time.Time, failCount int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE incidents SET resolved_at = ?, fail_count = ? WHERE id = ? AND resolved_at IS NULL`,
		resolvedAt, failCount, id)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to resolve incident", err.Error())
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return utils.NewAppError(utils.ErrCodeNotFound, "No open incident with ID", id)
	}
	return nil
}

// GetIncident fetches one incident by ID
func (s *SQLiteStorage) GetIncident(ctx context.Context, id string) (*models.Incident, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, monitor, url, started_at, resolved_at, fail_count FROM incidents WHERE id = ?`, id)
	return scanIncident(row)
}

// GetOpenIncident returns the unresolved incident for a monitor, or a
// NOT_FOUND error if none is open.
func (s *SQLiteStorage) GetOpenIncident(ctx context.Context, monitor string) (*models.Incident, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, monitor, url, started_at, resolved_at, fail_count
		 FROM incidents WHERE monitor = ? AND resolved_at IS NULL
		 ORDER BY started_at DESC LIMIT 1`, monitor)
	return scanIncident(row)
}

// ListIncidents returns the most recent incidents for a monitor
func (s *SQLiteStorage) ListIncidents(ctx context.Context, monitor string, limit int) ([]*models.Incident, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, monitor, url, started_at, resolved_at, fail_count
		 FROM incidents WHERE monitor = ?
		 ORDER BY started_at DESC LIMIT ?`, monitor, limit)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to list incidents", err.Error())
	}
	defer rows.Close()

	var incidents []*models.Incident
	for rows.Next() {
		incident, err := scanIncidentRows(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, incident)
	}
	return incidents, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIncident(row *sql.Row) (*models.Incident, error) {
	incident, err := scanIncidentRows(row)
	if err == sql.ErrNoRows {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "Incident not found")
	}
	return incident, err
}

func scanIncidentRows(scanner rowScanner) (*models.Incident, error) {
	var incident models.Incident
	var resolvedAt sql.NullTime

	err := scanner.Scan(&incident.ID, &incident.Monitor, &incident.URL,
		&incident.StartedAt, &resolvedAt, &incident.FailCount)
	if err != nil {
		return nil, err
	}

	if resolvedAt.Valid {
		incident.ResolvedAt = &resolvedAt.Time
	}
	return &incident, nil
}
