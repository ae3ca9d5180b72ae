package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/example/classroom-bot/internal/application"
	"github.com/example/classroom-bot/internal/testfixtures"
)

type scheduleStub struct {
	mu        sync.Mutex
	schedules []application.Schedule
	err       error
}

func (s *scheduleStub) List(context.Context) ([]application.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]application.Schedule(nil), s.schedules...), s.err
}

type configStub struct {
	cfg application.ScheduleConfig
}

func (c configStub) Get(context.Context) (application.ScheduleConfig, error) {
	return c.cfg, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type notifierFixture struct {
	clock    *testfixtures.Clock
	mirror   *testfixtures.Mirror
	notifier *Notifier
}

func newNotifierFixture(cfg application.ScheduleConfig, fallback string, schedules ...application.Schedule) notifierFixture {
	clock := testfixtures.NewClock(time.Time{})
	clock.SetClassTime("2024-01-15", "09:00")
	mirror := testfixtures.NewMirror()
	notifier := NewNotifier(&scheduleStub{schedules: schedules}, configStub{cfg: cfg}, mirror, Config{
		Lead:              time.Hour,
		FallbackChannelID: fallback,
		Location:          time.UTC,
		Now:               clock.NowFunc(),
	}, quietLogger())
	return notifierFixture{clock: clock, mirror: mirror, notifier: notifier}
}

func TestNotifierPostsOncePerOccurrence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	class := testfixtures.NewSchedule(testfixtures.WithScheduleID("class-1"), testfixtures.WithScheduleStart("2024-01-15", "10:00 - 11:30"))
	f := newNotifierFixture(application.ScheduleConfig{ReminderChannelID: "chan-reminders"}, "", class)

	// 09:00: the class is exactly one lead away and not yet inside the window
	if posted, err := f.notifier.Tick(ctx); err != nil || posted != 0 {
		t.Fatalf("expected nothing at 09:00, got %d (%v)", posted, err)
	}

	f.clock.Advance(time.Minute)
	if posted, err := f.notifier.Tick(ctx); err != nil || posted != 1 {
		t.Fatalf("expected one reminder, got %d (%v)", posted, err)
	}
	f.clock.Advance(30 * time.Minute)
	if posted, _ := f.notifier.Tick(ctx); posted != 0 {
		t.Fatalf("expected the reminder not to repeat, got %d", posted)
	}

	msg, ok := f.mirror.Message("msg-1")
	if !ok || msg.ChannelID != "chan-reminders" {
		t.Fatalf("expected the reminder in the reminder channel, got %+v", msg)
	}
	if !strings.Contains(msg.Message.Title, "Algebra") || !strings.Contains(msg.Message.Description, "10:00") {
		t.Fatalf("unexpected reminder: %+v", msg.Message)
	}
}

func TestNotifierRetriesFailedPosts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	class := testfixtures.NewSchedule(testfixtures.WithScheduleStart("2024-01-15", "09:30"))
	f := newNotifierFixture(application.ScheduleConfig{}, "chan-fallback", class)

	f.mirror.FailSend = true
	if posted, err := f.notifier.Tick(ctx); err != nil || posted != 0 {
		t.Fatalf("expected a failed post to be skipped, got %d (%v)", posted, err)
	}
	f.mirror.FailSend = false
	if posted, _ := f.notifier.Tick(ctx); posted != 1 {
		t.Fatalf("expected the reminder on retry, got %d", posted)
	}
	if msg, _ := f.mirror.Message("msg-1"); msg.ChannelID != "chan-fallback" {
		t.Fatalf("expected the fallback channel, got %q", msg.ChannelID)
	}
}

func TestNotifierWithoutChannelDoesNothing(t *testing.T) {
	t.Parallel()

	class := testfixtures.NewSchedule(testfixtures.WithScheduleStart("2024-01-15", "09:30"))
	f := newNotifierFixture(application.ScheduleConfig{}, "", class)
	if posted, err := f.notifier.Tick(context.Background()); err != nil || posted != 0 {
		t.Fatalf("expected no reminders, got %d (%v)", posted, err)
	}
	if f.mirror.Len() != 0 {
		t.Fatalf("expected no messages")
	}
}

func TestNotifierReportsListFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("locked")
	n := NewNotifier(&scheduleStub{err: cause}, configStub{cfg: application.ScheduleConfig{ReminderChannelID: "c"}}, testfixtures.NewMirror(), Config{}, quietLogger())
	if _, err := n.Tick(context.Background()); !errors.Is(err, cause) {
		t.Fatalf("expected the list error, got %v", err)
	}
}

func TestNotifierRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newNotifierFixture(application.ScheduleConfig{}, "")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.notifier.Run(ctx, time.Millisecond)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	cases := map[time.Duration]string{
		30 * time.Second:          "less than a minute",
		59 * time.Minute:          "59 min",
		time.Hour:                 "1 h",
		time.Hour + 5*time.Minute: "1 h 5 min",
	}
	for d, want := range cases {
		if got := formatDuration(d); got != want {
			t.Fatalf("formatDuration(%v) = %q, want %q", d, got, want)
		}
	}
}
