package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/care-alarms/internal/persistence"
	"github.com/example/care-alarms/internal/persistence/sqlite/migration"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := Open(migration.InMemorySQLiteConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	applied, err := store.Migrate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, applied)
	return store
}

func TestStorageImplementsStore(t *testing.T) {
	var _ persistence.Store = (*Storage)(nil)
}

func TestStorageCRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	require.NoError(t, store.Set(ctx, "notifications:med-1", []byte(`["med-1-08:00"]`)))
	require.NoError(t, store.Set(ctx, "notifications:med-1", []byte(`["med-1-20:00"]`)))
	require.NoError(t, store.Set(ctx, "notifications:visit-9", []byte(`[]`)))
	require.NoError(t, store.Set(ctx, "medications", nil))

	value, err := store.Get(ctx, "notifications:med-1")
	require.NoError(t, err)
	assert.JSONEq(t, `["med-1-20:00"]`, string(value))

	empty, err := store.Get(ctx, "medications")
	require.NoError(t, err)
	assert.Empty(t, empty)

	keys, err := store.Keys(ctx, "notifications:")
	require.NoError(t, err)
	assert.Equal(t, []string{"notifications:med-1", "notifications:visit-9"}, keys)

	all, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.Remove(ctx, "notifications:med-1"))
	require.NoError(t, store.Remove(ctx, "notifications:med-1"))
	_, err = store.Get(ctx, "notifications:med-1")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestStoragePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "alarms.db")

	first, err := OpenDSN(dsn, nil)
	require.NoError(t, err)
	_, err = first.Migrate(ctx)
	require.NoError(t, err)
	require.NoError(t, persistence.SetJSON(ctx, first, "alarm_debug_logs", []string{"entry"}))
	require.NoError(t, first.Close())

	second, err := OpenDSN(dsn, nil)
	require.NoError(t, err)
	defer second.Close()
	applied, err := second.Migrate(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)

	var entries []string
	found, err := persistence.GetJSON(ctx, second, "alarm_debug_logs", &entries)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"entry"}, entries)

	status, err := second.MigrationStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.CurrentVersion)
}
