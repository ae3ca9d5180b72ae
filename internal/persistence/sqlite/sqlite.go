package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/example/classroom-bot/internal/persistence"
	"github.com/example/classroom-bot/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage persists named JSON documents in SQLite.
type Storage struct {
	pool   *ConnectionPool
	retry  *RetryHelper
	logger *slog.Logger
	now    func() time.Time
}

// Option customises Storage.
type Option func(*Storage)

// WithLogger sets the logger used for migrations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		if now != nil {
			s.now = now
		}
	}
}

// Open returns a Storage backed by the database at dsn.
func Open(dsn string, opts ...Option) (*Storage, error) {
	pool, err := NewConnectionPool(migration.DefaultSQLiteConfig(dsn))
	if err != nil {
		return nil, err
	}

	s := &Storage{
		pool:   pool,
		retry:  NewRetryHelper(DefaultRetryConfig()),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(migrationFiles),
		migration.NewSQLiteExecutor(s.pool.DB()),
		"migrations",
		s.logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// LoadDocument implements persistence.DocumentStore.
func (s *Storage) LoadDocument(ctx context.Context, name string) (persistence.Document, error) {
	if !persistence.ValidDocumentName(name) {
		return persistence.Document{}, fmt.Errorf("%w: %q", persistence.ErrInvalidDocument, name)
	}

	var (
		doc       persistence.Document
		version   int64
		updatedAt string
	)
	err := s.retry.WithRetry(ctx, func() error {
		row := s.pool.DB().QueryRowContext(ctx,
			`SELECT body, version, updated_at FROM documents WHERE name = ?`, name)
		return row.Scan(&doc.Body, &version, &updatedAt)
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Document{}, persistence.ErrNotFound
		}
		return persistence.Document{}, fmt.Errorf("sqlite: load %s: %w", name, err)
	}

	doc.Name = name
	doc.Version = strconv.FormatInt(version, 10)
	doc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return doc, nil
}

// SaveDocument implements persistence.DocumentStore. An empty Version inserts
// a new row; otherwise the row is updated only if its version still matches.
func (s *Storage) SaveDocument(ctx context.Context, doc persistence.Document) (persistence.Document, error) {
	if !persistence.ValidDocumentName(doc.Name) {
		return persistence.Document{}, fmt.Errorf("%w: %q", persistence.ErrInvalidDocument, doc.Name)
	}

	var expected int64
	if doc.Version != "" {
		v, err := strconv.ParseInt(doc.Version, 10, 64)
		if err != nil {
			return persistence.Document{}, fmt.Errorf("%w: bad version %q", persistence.ErrVersionConflict, doc.Version)
		}
		expected = v
	}

	now := s.now().UTC()
	next := expected + 1

	err := s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if doc.Version == "" {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO documents (name, body, version, updated_at) VALUES (?, ?, ?, ?)`,
					doc.Name, doc.Body, next, now.Format(time.RFC3339Nano))
				return err
			}

			res, err := tx.ExecContext(ctx,
				`UPDATE documents SET body = ?, version = ?, updated_at = ? WHERE name = ? AND version = ?`,
				doc.Body, next, now.Format(time.RFC3339Nano), doc.Name, expected)
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return persistence.ErrVersionConflict
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, persistence.ErrVersionConflict) {
			return persistence.Document{}, fmt.Errorf("sqlite: save %s: %w", doc.Name, persistence.ErrVersionConflict)
		}
		return persistence.Document{}, fmt.Errorf("sqlite: save %s: %w", doc.Name, err)
	}

	return persistence.Document{
		Name:      doc.Name,
		Body:      append([]byte(nil), doc.Body...),
		Version:   strconv.FormatInt(next, 10),
		UpdatedAt: now,
	}, nil
}

var _ persistence.DocumentStore = (*Storage)(nil)
