package migration

import (
	"errors"
	"fmt"
)

var (
	ErrMigrationFailed      = errors.New("migration: execution failed")
	ErrInvalidMigrationFile = errors.New("migration: invalid file")
	ErrInvalidVersion       = errors.New("migration: invalid version")
	ErrDuplicateVersion     = errors.New("migration: duplicate version")
)

// Error locates a failure in one migration step. Source is the file for scan
// and parse failures and the SQL statement for database failures.
type Error struct {
	Version string
	Source  string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	where := e.Op
	if e.Version != "" {
		where = "version " + e.Version + ": " + e.Op
	}
	return fmt.Sprintf("migration: %s: %v", where, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func fileError(version, path, op string, err error) error {
	return &Error{Version: version, Source: path, Op: op, Err: err}
}

func dbError(version, query, op string, err error) error {
	return &Error{Version: version, Source: query, Op: op, Err: err}
}
