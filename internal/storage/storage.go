// File: internal/storage/storage.go
package storage

import (
	"context"
	"time"

	"github.com/smartdevs17/uptime-watcher/internal/models"
)

// Storage defines the interface for incident history operations. The
// dated file log remains the durability source of truth for uptime;
// the incident store is the queryable record of alert episodes.
type Storage interface {
	// Connection management
	Connect() error
	Close() error
	Ping() error
	Migrate() error

	// Incident operations
	OpenIncident(ctx context.Context, incident *models.Incident) error
	ResolveIncident(ctx context.Context, id string, resolvedAt time.Time, failCount int) error
	GetIncident(ctx context.Context, id string) (*models.Incident, error)
	GetOpenIncident(ctx context.Context, monitor string) (*models.Incident, error)
	ListIncidents(ctx context.Context, monitor string, limit int) ([]*models.Incident, error)
}

// StorageConfig holds the resolved incident store configuration
type StorageConfig struct {
	Type             string
	ConnectionString string
	MaxConnections   int
	MaxIdleTime      time.Duration
}
