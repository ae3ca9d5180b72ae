package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/classroom-bot/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// logOutcome logs err at a level matching its kind. Expected user-facing
// outcomes stay at debug so they never read as system faults.
func logOutcome(ctx context.Context, logger *slog.Logger, msg string, err error) {
	kind := ErrorKind(err)
	switch kind {
	case "not_found", "session_not_found", "validation", "missing_field", "missing_configuration", "unauthorized", "already_exists":
		logger.DebugContext(ctx, msg, "error", err, "error_kind", kind)
	case "mirror":
		logger.WarnContext(ctx, msg, "error", err, "error_kind", kind)
	default:
		logger.ErrorContext(ctx, msg, "error", err, "error_kind", kind)
	}
}

// ErrorKind maps sentinel and typed errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMissingConfiguration):
		return "missing_configuration"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	}

	var (
		vErr *ValidationError
		fErr *MissingFieldError
		mErr *MirrorError
		pErr *PersistenceError
	)
	switch {
	case errors.As(err, &vErr):
		return "validation"
	case errors.As(err, &fErr):
		return "missing_field"
	case errors.As(err, &mErr):
		return "mirror"
	case errors.As(err, &pErr):
		return "persistence"
	}

	return "unexpected"
}
