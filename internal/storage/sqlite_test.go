package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/uptime-watcher/internal/config"
	"github.com/smartdevs17/uptime-watcher/internal/models"
	"github.com/smartdevs17/uptime-watcher/pkg/utils"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()

	store := NewSQLiteStorage(&StorageConfig{
		ConnectionString: filepath.Join(t.TempDir(), "incidents.db"),
		MaxConnections:   2,
		MaxIdleTime:      time.Minute,
	})
	require.NoError(t, store.Connect())
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSQLiteIncidents(t *testing.T) {
	ctx := context.Background()
	started := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	t.Run("open and fetch", func(t *testing.T) {
		store := newTestStore(t)

		incident := &models.Incident{
			ID:        "abc123",
			Monitor:   "demo",
			URL:       "https://example.com",
			StartedAt: started,
			FailCount: 4,
		}
		require.NoError(t, store.OpenIncident(ctx, incident))

		got, err := store.GetIncident(ctx, "abc123")
		require.NoError(t, err)
		require.Equal(t, "demo", got.Monitor)
		require.Equal(t, 4, got.FailCount)
		require.False(t, got.Resolved())
	})

	t.Run("resolve closes the open incident", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.OpenIncident(ctx, &models.Incident{
			ID: "ep1", Monitor: "demo", URL: "https://example.com", StartedAt: started, FailCount: 4,
		}))

		open, err := store.GetOpenIncident(ctx, "demo")
		require.NoError(t, err)
		require.Equal(t, "ep1", open.ID)

		resolvedAt := started.Add(10 * time.Minute)
		require.NoError(t, store.ResolveIncident(ctx, "ep1", resolvedAt, 9))

		got, err := store.GetIncident(ctx, "ep1")
		require.NoError(t, err)
		require.True(t, got.Resolved())
		require.Equal(t, 9, got.FailCount)

		_, err = store.GetOpenIncident(ctx, "demo")
		require.Error(t, err)
		require.True(t, utils.IsNotFound(err))
	})

	t.Run("resolving twice is not found", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.OpenIncident(ctx, &models.Incident{
			ID: "ep2", Monitor: "demo", URL: "https://example.com", StartedAt: started, FailCount: 4,
		}))
		require.NoError(t, store.ResolveIncident(ctx, "ep2", started.Add(time.Minute), 5))

		err := store.ResolveIncident(ctx, "ep2", started.Add(2*time.Minute), 6)
		require.Error(t, err)
		require.True(t, utils.IsNotFound(err))
	})

	t.Run("list is most recent first", func(t *testing.T) {
		store := newTestStore(t)

		for i, id := range []string{"first", "second", "third"} {
			require.NoError(t, store.OpenIncident(ctx, &models.Incident{
				ID:        id,
				Monitor:   "demo",
				URL:       "https://example.com",
				StartedAt: started.Add(time.Duration(i) * time.Hour),
				FailCount: 4,
			}))
		}

		incidents, err := store.ListIncidents(ctx, "demo", 2)
		require.NoError(t, err)
		require.Len(t, incidents, 2)
		require.Equal(t, "third", incidents[0].ID)
		require.Equal(t, "second", incidents[1].ID)
	})

	t.Run("list filters by monitor", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.OpenIncident(ctx, &models.Incident{
			ID: "mine", Monitor: "demo", URL: "https://example.com", StartedAt: started, FailCount: 1,
		}))
		require.NoError(t, store.OpenIncident(ctx, &models.Incident{
			ID: "other", Monitor: "elsewhere", URL: "https://other.example.com", StartedAt: started, FailCount: 1,
		}))

		incidents, err := store.ListIncidents(ctx, "demo", 0)
		require.NoError(t, err)
		require.Len(t, incidents, 1)
		require.Equal(t, "mine", incidents[0].ID)
	})
}

func TestStorageFactoryRejectsUnknownType(t *testing.T) {
	_, err := NewStorage(&config.StorageConfig{Type: "mongodb"})
	require.Error(t, err)
}
