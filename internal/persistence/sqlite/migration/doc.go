// Package migration applies versioned SQL files to the bot's SQLite database.
//
// Migration files follow the naming convention {version}_{description}.sql
// (e.g. "001_documents.sql") and are read from an fs.FS so they can be
// embedded in the binary. Applied versions are tracked in the
// schema_migrations table; each file runs inside its own transaction.
//
// Example usage:
//
//	manager := NewMigrationManager(NewFileScanner(files), NewSQLiteExecutor(db), ".", logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
