// File: internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/uptime-watcher/internal/models"
	"github.com/smartdevs17/uptime-watcher/pkg/utils"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS incidents (
	id          TEXT PRIMARY KEY,
	monitor     TEXT NOT NULL,
	url         TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	resolved_at TIMESTAMPTZ,
	fail_count  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_incidents_monitor ON incidents(monitor, started_at);
`

// PostgresStorage implements Storage using PostgreSQL
type PostgresStorage struct {
	db     *sql.DB
	config *StorageConfig
	logger *logrus.Logger
}

// NewPostgresStorage creates a new PostgreSQL incident store
func NewPostgresStorage(config *StorageConfig) *PostgresStorage {
	return &PostgresStorage{
		config: config,
		logger: utils.GetLogger(),
	}
}

// Connect establishes the database connection
func (s *PostgresStorage) Connect() error {
	db, err := sql.Open("postgres", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open PostgreSQL connection", err.Error())
	}

	db.SetMaxOpenConns(s.config.MaxConnections)
	db.SetMaxIdleConns(s.config.MaxConnections / 2)
	db.SetConnMaxLifetime(s.config.MaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to ping PostgreSQL", err.Error())
	}

	s.db = db
	s.logger.Info("PostgreSQL incident store connected")
	return nil
}

// Close closes the database connection
func (s *PostgresStorage) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Ping checks database connectivity
func (s *PostgresStorage) Ping() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected")
	}
	return s.db.Ping()
}

// Migrate creates the incident schema
func (s *PostgresStorage) Migrate() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected")
	}
	if _, err := s.db.Exec(postgresSchema); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to apply schema", err.Error())
	}
	return nil
}

// OpenIncident records the start of a down episode
func (s *PostgresStorage) OpenIncident(ctx context.Context, incident *models.Incident) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO incidents (id, monitor, url, started_at, fail_count)
		 VALUES ($1, $2, $3, $4, $5)`,
		incident.ID, incident.Monitor, incident.URL, incident.StartedAt, incident.FailCount)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open incident", err.Error())
	}
	return nil
}

// ResolveIncident closes a down episode with its final failure count
func (s *PostgresStorage) ResolveIncident(ctx context.Context, id string, resolvedAt time.Time, failCount int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE incidents SET resolved_at = $1, fail_count = $2 WHERE id = $3 AND resolved_at IS NULL`,
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
func (s *PostgresStorage) GetIncident(ctx context.Context, id string) (*models.Incident, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, monitor, url, started_at, resolved_at, fail_count FROM incidents WHERE id = $1`, id)
	return scanIncident(row)
}

// GetOpenIncident returns the unresolved incident for a monitor
func (s *PostgresStorage) GetOpenIncident(ctx context.Context, monitor string) (*models.Incident, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, monitor, url, started_at, resolved_at, fail_count
		 FROM incidents WHERE monitor = $1 AND resolved_at IS NULL
		 ORDER BY started_at DESC LIMIT 1`, monitor)
	return scanIncident(row)
}

// ListIncidents returns the most recent incidents for a monitor
func (s *PostgresStorage) ListIncidents(ctx context.Context, monitor string, limit int) ([]*models.Incident, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, monitor, url, started_at, resolved_at, fail_count
		 FROM incidents WHERE monitor = $1
		 ORDER BY started_at DESC LIMIT $2`, monitor, limit)
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
