package migration

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(TempFileTestSQLiteConfig(filepath.Join(t.TempDir(), "migrate.db")))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunMigrationsAppliesPendingOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	files := fstest.MapFS{
		"sql/001_items.sql": {Data: []byte("CREATE TABLE items (id TEXT PRIMARY KEY);")},
		"sql/002_names.sql": {Data: []byte("ALTER TABLE items ADD COLUMN name TEXT;")},
	}

	manager := NewMigrationManager(NewFileScanner(files), NewSQLiteExecutor(db), "sql", nil)
	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}

	status, err := manager.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status.CurrentVersion != "002" || status.PendingCount != 0 || len(status.AppliedMigrations) != 2 {
		t.Fatalf("unexpected status: %#v", status)
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO items (id, name) VALUES ('a', 'b')`); err != nil {
		t.Fatalf("expected migrated schema to accept insert: %v", err)
	}
}

func TestRunMigrationsRollsBackFailedFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	files := fstest.MapFS{
		"sql/001_broken.sql": {Data: []byte("CREATE TABLE ok (id TEXT);\nCREATE TABLE broken (;")},
	}

	manager := NewMigrationManager(NewFileScanner(files), NewSQLiteExecutor(db), "sql", nil)
	if err := manager.RunMigrations(ctx); err == nil {
		t.Fatal("expected migration failure")
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE name = 'ok'`).Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 0 {
		t.Fatal("expected partial migration to be rolled back")
	}

	status, err := manager.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status.PendingCount != 1 {
		t.Fatalf("expected failed migration to remain pending, got %d", status.PendingCount)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	if err := ValidateConfig(SQLiteConfig{}); err == nil {
		t.Fatal("expected empty DSN to be rejected")
	}
	if err := ValidateConfig(SQLiteConfig{DSN: "x.db", JournalMode: "BOGUS"}); err == nil {
		t.Fatal("expected invalid journal mode to be rejected")
	}
	if err := ValidateConfig(DefaultSQLiteConfig("x.db")); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
}
