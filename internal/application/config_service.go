package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/classroom-bot/internal/persistence"
)

// ConfigService manages the admin-curated option lists and posting channels.
// Lists are append-only and de-duplicated.
type ConfigService struct {
	doc    *documentCell[ScheduleConfig]
	logger *slog.Logger
}

// NewConfigService constructs a configuration service backed by store.
func NewConfigService(store persistence.DocumentStore, logger *slog.Logger) *ConfigService {
	return &ConfigService{
		doc:    newDocumentCell(store, persistence.DocumentConfig, func() ScheduleConfig { return ScheduleConfig{} }),
		logger: defaultLogger(logger),
	}
}

func (s *ConfigService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ConfigService", operation, attrs...)
}

// Get returns the current configuration.
func (s *ConfigService) Get(ctx context.Context) (ScheduleConfig, error) {
	return s.doc.read(ctx)
}

// Lists returns every configuration list keyed by name.
func (s *ConfigService) Lists(ctx context.Context) (map[ConfigList][]string, error) {
	cfg, err := s.doc.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[ConfigList][]string, len(ConfigLists()))
	for _, list := range ConfigLists() {
		out[list] = append([]string(nil), cfg.List(list)...)
	}
	return out, nil
}

// MaxListValues caps every configuration list. A builder select menu shows
// at most this many options.
const MaxListValues = 25

// AddValue appends value to list. Adding a value that is already present
// returns ErrAlreadyExists and changes nothing; adding to a full list is a
// validation error.
func (s *ConfigService) AddValue(ctx context.Context, principal Principal, list ConfigList, value string) (err error) {
	logger := s.loggerWith(ctx, "AddValue", "principal_id", principal.UserID, "list", list)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "configuration value not added", err)
			return
		}
		logger.InfoContext(ctx, "configuration value added")
	}()

	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	value = strings.TrimSpace(value)
	if vErr := validateConfigValue(list, value); vErr.HasErrors() {
		return vErr
	}

	_, err = s.doc.update(ctx, func(cfg *ScheduleConfig) error {
		values := cfg.listPtr(list)
		if values == nil {
			return fieldError("list", fmt.Sprintf("unknown list %q", list))
		}
		if contains(*values, value) {
			return ErrAlreadyExists
		}
		if len(*values) >= MaxListValues {
			return fieldError("value", fmt.Sprintf("%s already holds %d values", list, MaxListValues))
		}
		*values = append(*values, value)
		return nil
	})
	return err
}

func validateConfigValue(list ConfigList, value string) *ValidationError {
	vErr := &ValidationError{}
	switch {
	case value == "":
		vErr.add("value", "a value is required")
	case len(value) > 100:
		vErr.add("value", "must be at most 100 characters")
	case list == ListDates && !ValidDate(value):
		vErr.add("value", "use the YYYY-MM-DD format")
	case list == ListTimes && !ValidTime(value):
		vErr.add("value", "use HH:MM or HH:MM - HH:MM")
	}
	return vErr
}

// SetChannel sets the posting channel for target.
func (s *ConfigService) SetChannel(ctx context.Context, principal Principal, target ChannelTarget, channelID string) error {
	logger := s.loggerWith(ctx, "SetChannel", "principal_id", principal.UserID, "target", target, "channel_id", channelID)

	if !principal.IsAdmin {
		logOutcome(ctx, logger, "channel not set", ErrUnauthorized)
		return ErrUnauthorized
	}
	if strings.TrimSpace(channelID) == "" {
		return fieldError("channel", "a channel is required")
	}

	_, err := s.doc.update(ctx, func(cfg *ScheduleConfig) error {
		if !cfg.setChannel(target, channelID) {
			return fieldError("target", fmt.Sprintf("unknown channel target %q", target))
		}
		return nil
	})
	if err != nil {
		logOutcome(ctx, logger, "channel not set", err)
		return err
	}
	logger.InfoContext(ctx, "channel set")
	return nil
}

// Seed merges lists into the configuration, skipping values already present,
// invalid or beyond MaxListValues, and returns how many values were added.
func (s *ConfigService) Seed(ctx context.Context, lists map[ConfigList][]string, channels map[ChannelTarget]string) (int, error) {
	added := 0
	_, err := s.doc.update(ctx, func(cfg *ScheduleConfig) error {
		added = 0
		for _, list := range ConfigLists() {
			values := cfg.listPtr(list)
			for _, v := range lists[list] {
				v = strings.TrimSpace(v)
				if len(*values) >= MaxListValues {
					break
				}
				if validateConfigValue(list, v).HasErrors() || contains(*values, v) {
					continue
				}
				*values = append(*values, v)
				added++
			}
		}
		for target, id := range channels {
			if id != "" {
				cfg.setChannel(target, id)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.loggerWith(ctx, "Seed").InfoContext(ctx, "configuration seeded", "added", added)
	return added, nil
}
