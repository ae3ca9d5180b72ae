package http

import (
	"context"
	"log/slog"

	"github.com/example/classroom-bot/internal/logging"
)

type contextKey string

const interactionIDContextKey contextKey = "interaction_id"

// ContextWithLogger returns a derived context carrying the request logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts the request logger if one was attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// ContextWithInteractionID records the id of the interaction being served.
func ContextWithInteractionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, interactionIDContextKey, id)
}

// InteractionIDFromContext extracts the interaction id if available.
func InteractionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(interactionIDContextKey).(string)
	return id, ok
}
