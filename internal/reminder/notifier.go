package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/classroom-bot/internal/application"
	"github.com/example/classroom-bot/internal/logging"
)

type scheduleLister interface {
	List(ctx context.Context) ([]application.Schedule, error)
}

type configReader interface {
	Get(ctx context.Context) (application.ScheduleConfig, error)
}

type poster interface {
	Send(ctx context.Context, channelID string, msg application.Message) (string, error)
}

// Config tunes the notifier.
type Config struct {
	// Lead is how long before a class starts the reminder is posted.
	Lead time.Duration
	// FallbackChannelID is used when no reminder channel is configured.
	FallbackChannelID string
	Location          *time.Location
	Now               func() time.Time
}

// Notifier posts a reminder once per class occurrence.
type Notifier struct {
	schedules scheduleLister
	config    configReader
	poster    poster
	engine    *Engine
	lead      time.Duration
	fallback  string
	now       func() time.Time
	logger    *slog.Logger

	mu   sync.Mutex
	sent map[string]time.Time
}

// NewNotifier constructs a notifier.
func NewNotifier(schedules scheduleLister, config configReader, poster poster, cfg Config, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Lead <= 0 {
		cfg.Lead = time.Hour
	}
	return &Notifier{
		schedules: schedules,
		config:    config,
		poster:    poster,
		engine:    NewEngine(cfg.Location),
		lead:      cfg.Lead,
		fallback:  cfg.FallbackChannelID,
		now:       cfg.Now,
		logger:    logger,
		sent:      make(map[string]time.Time),
	}
}

func (n *Notifier) loggerFor(ctx context.Context) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = n.logger
	}
	return logger.With("component", "reminder")
}

// Tick posts reminders for every class starting within the lead time that
// has not been announced yet, and returns how many were posted. A failed
// post is retried on the next tick.
func (n *Notifier) Tick(ctx context.Context) (int, error) {
	logger := n.loggerFor(ctx)

	cfg, err := n.config.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("reminder: load configuration: %w", err)
	}
	channelID := cfg.Channel(application.ChannelReminder)
	if channelID == "" {
		channelID = n.fallback
	}
	if channelID == "" {
		logger.DebugContext(ctx, "no reminder channel configured")
		return 0, nil
	}

	schedules, err := n.schedules.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("reminder: list schedules: %w", err)
	}
	byID := make(map[string]application.Schedule, len(schedules))
	for _, rec := range schedules {
		byID[rec.ID] = rec
	}

	now := n.now()
	due, skipped, err := n.engine.StartingBetween(schedules, now, now.Add(n.lead))
	if err != nil {
		return 0, err
	}
	if len(skipped) > 0 {
		logger.DebugContext(ctx, "schedules without a usable start", "schedule_ids", skipped)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.prune(now)

	posted := 0
	for _, occ := range due {
		key := occ.Key()
		if _, done := n.sent[key]; done {
			continue
		}
		msg := Render(byID[occ.ScheduleID], occ, now)
		if _, err := n.poster.Send(ctx, channelID, msg); err != nil {
			logger.WarnContext(ctx, "failed to post reminder", "schedule_id", occ.ScheduleID, "error", err, "error_kind", "mirror")
			continue
		}
		n.sent[key] = occ.Start
		posted++
		logger.InfoContext(ctx, "reminder posted", "schedule_id", occ.ScheduleID, "start", occ.Start)
	}
	return posted, nil
}

// prune forgets announcements of classes that started long ago. Callers hold mu.
func (n *Notifier) prune(now time.Time) {
	for key, start := range n.sent {
		if now.Sub(start) > 24*time.Hour {
			delete(n.sent, key)
		}
	}
}

// Run ticks every interval until ctx is done.
func (n *Notifier) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := n.Tick(ctx); err != nil && ctx.Err() == nil {
			n.loggerFor(ctx).ErrorContext(ctx, "reminder tick failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Render builds the reminder message for one class occurrence.
func Render(rec application.Schedule, occ Occurrence, now time.Time) application.Message {
	f := rec.Fields
	in := occ.Start.Sub(now).Round(time.Minute)
	description := fmt.Sprintf("Starts at **%s** (in %s).", occ.Start.Format("15:04"), formatDuration(in))
	if strings.TrimSpace(f.Description) != "" {
		description += "\n" + f.Description
	}
	return application.Message{
		Title:       "⏰ Upcoming class: " + f.Name,
		Description: description,
		Color:       application.ClassTypeColor(f.Type),
		Fields: []application.MessageField{
			{Name: "Professor", Value: dash(f.Professor), Inline: true},
			{Name: "Location", Value: dash(f.Location), Inline: true},
			{Name: "Type", Value: dash(f.Type), Inline: true},
		},
		Footer: "ID: " + rec.ID,
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%d min", m)
	case m == 0:
		return fmt.Sprintf("%d h", h)
	}
	return fmt.Sprintf("%d h %d min", h, m)
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
