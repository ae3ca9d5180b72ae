package application

import (
	"context"
	"log/slog"
	"strings"

	"github.com/example/classroom-bot/internal/persistence"
)

// maxActivityLength is the longest presence text the gateway accepts.
const maxActivityLength = 128

// StatusService persists the bot's presence text and applies it.
type StatusService struct {
	doc      *documentCell[BotStatus]
	activity ActivitySetter
	logger   *slog.Logger
}

// NewStatusService constructs a status service.
func NewStatusService(store persistence.DocumentStore, activity ActivitySetter, logger *slog.Logger) *StatusService {
	return &StatusService{
		doc:      newDocumentCell(store, persistence.DocumentStatus, func() BotStatus { return BotStatus{} }),
		activity: activity,
		logger:   defaultLogger(logger),
	}
}

func (s *StatusService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "StatusService", operation, attrs...)
}

// Get returns the stored status.
func (s *StatusService) Get(ctx context.Context) (BotStatus, error) {
	return s.doc.read(ctx)
}

// Set stores a new activity and applies it. Only the bot owner may call it.
func (s *StatusService) Set(ctx context.Context, principal Principal, activity string) (err error) {
	logger := s.loggerWith(ctx, "Set", "user_id", principal.UserID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "failed to set status", err)
		}
	}()

	if !principal.IsOwner {
		return ErrUnauthorized
	}
	activity = strings.TrimSpace(activity)
	if activity == "" {
		return fieldError("activity", "an activity is required")
	}
	if len([]rune(activity)) > maxActivityLength {
		return fieldError("activity", "must be 128 characters or fewer")
	}

	if _, err := s.doc.update(ctx, func(status *BotStatus) error {
		status.Activity = activity
		return nil
	}); err != nil {
		return err
	}
	logger.InfoContext(ctx, "status updated", "activity", activity)
	return s.apply(ctx, activity)
}

// Apply pushes the stored activity to the gateway. An empty status is a no-op.
func (s *StatusService) Apply(ctx context.Context) error {
	status, err := s.doc.read(ctx)
	if err != nil {
		return err
	}
	if status.Activity == "" {
		return nil
	}
	return s.apply(ctx, status.Activity)
}

func (s *StatusService) apply(ctx context.Context, activity string) error {
	if s.activity == nil {
		return nil
	}
	return s.activity.SetActivity(ctx, activity)
}
