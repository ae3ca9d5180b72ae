package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/classroom-bot/internal/persistence/sqlite"
)

// NewSQLiteStore opens a migrated SQLite document store in a temporary
// directory. It is closed when the test finishes.
func NewSQLiteStore(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "classbot.db")
	storage, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })
	return storage
}
