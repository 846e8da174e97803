package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/care-alarms/internal/persistence/sqlite"
)

// NewSQLiteStore returns a migrated SQLite store in a temporary directory,
// closed automatically when the test ends.
func NewSQLiteStore(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "care-alarms.db")
	storage, err := sqlite.OpenDSN("file:"+path, DiscardLogger())
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if _, err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })
	return storage
}
