package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/classroom-bot/internal/application"
	"github.com/example/classroom-bot/internal/testfixtures"
)

func seededServices(t *testing.T, cfg application.ScheduleConfig) (*testfixtures.ServiceFactory, testfixtures.Services) {
	t.Helper()
	factory := testfixtures.NewServiceFactory()
	svc := factory.Build()
	if err := svc.SeedConfig(context.Background(), cfg); err != nil {
		t.Fatalf("SeedConfig returned error: %v", err)
	}
	return factory, svc
}

func TestScheduleBuilderConcreteScenario(t *testing.T) {
	ctx := context.Background()
	factory, svc := seededServices(t, application.ScheduleConfig{
		Classnames: []string{"Algorithms"},
		Professors: []string{"Dr. Lee"},
		Types:      []string{"Lecture"},
		Dates:      []string{"2025-01-10"},
		Times:      []string{"10:00"},
		Locations:  []string{"Room 5"},
		ChannelID:  "chan-schedule",
	})
	admin := testfixtures.Admin("admin")

	if _, err := svc.Schedules.OpenBuilder(ctx, admin); err != nil {
		t.Fatalf("OpenBuilder returned error: %v", err)
	}
	steps := [][2]string{{"classname", "Algorithms"}, {"professor", "Dr. Lee"}, {"type", "Lecture"}}
	for _, s := range steps {
		if err := svc.Schedules.Choose(ctx, admin, s[0], s[1]); err != nil {
			t.Fatalf("Choose(%s) returned error: %v", s[0], err)
		}
	}
	view, err := svc.Schedules.Next(ctx, admin)
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if view.Index != 1 {
		t.Fatalf("expected step 2, got %d", view.Index+1)
	}
	for _, s := range [][2]string{{"time", "10:00"}, {"location", "Room 5"}} {
		if err := svc.Schedules.Choose(ctx, admin, s[0], s[1]); err != nil {
			t.Fatalf("Choose(%s) returned error: %v", s[0], err)
		}
	}
	view, err = svc.Schedules.Next(ctx, admin)
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if !view.Step.Modal || view.Options["date"][0] != "2025-01-10" {
		t.Fatalf("expected the details modal with date suggestions, got %+v", view)
	}

	rec, err := svc.Schedules.CompleteBuilder(ctx, admin, map[string]string{"date": "2025-01-10", "description": ""})
	if err != nil {
		t.Fatalf("CompleteBuilder returned error: %v", err)
	}
	want := application.ScheduleFields{
		Name:      "Algorithms",
		Professor: "Dr. Lee",
		Type:      "Lecture",
		Date:      "2025-01-10",
		Time:      "10:00",
		Location:  "Room 5",
	}
	if diff := cmp.Diff(want, rec.Fields); diff != "" {
		t.Fatalf("schedule fields mismatch (-want +got):\n%s", diff)
	}
	if rec.MessageID == "" || rec.ChannelID != "chan-schedule" {
		t.Fatalf("expected a posted message in the schedule channel, got %+v", rec)
	}
	if _, ok := factory.Mirror.Message(rec.MessageID); !ok {
		t.Fatalf("expected mirror message to exist")
	}
	if _, err := svc.Schedules.Next(ctx, admin); !errors.Is(err, application.ErrSessionNotFound) {
		t.Fatalf("expected the builder session to be gone, got %v", err)
	}
}

func TestScheduleBuilderRequiresAdminAndConfiguration(t *testing.T) {
	ctx := context.Background()
	_, svc := seededServices(t, application.ScheduleConfig{Professors: []string{"Dr. Lee"}})

	if _, err := svc.Schedules.OpenBuilder(ctx, testfixtures.Member("u1")); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	_, err := svc.Schedules.OpenBuilder(ctx, testfixtures.Admin("admin"))
	if !errors.Is(err, application.ErrMissingConfiguration) {
		t.Fatalf("expected ErrMissingConfiguration, got %v", err)
	}
}

func TestScheduleEditDeleteCopy(t *testing.T) {
	ctx := context.Background()
	factory, svc := seededServices(t, testfixtures.FullConfig())
	admin := testfixtures.Admin("admin")

	rec, err := svc.Schedules.CreateFromWizard(ctx, application.FinalizedWizard{
		Kind:      application.WizardSchedule,
		UserID:    "admin",
		ChannelID: "chan-schedule",
		Fields:    map[string]string{"classname": "Algebra", "professor": "Nowak", "type": "Wyklad", "time": "12:00", "location": "B2", "date": "2024-03-01"},
	})
	if err != nil {
		t.Fatalf("CreateFromWizard returned error: %v", err)
	}

	if _, err := svc.Schedules.Edit(ctx, testfixtures.Member("u1"), rec.ID, "name", "x"); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var vErr *application.ValidationError
	if _, err := svc.Schedules.Edit(ctx, admin, rec.ID, "date", "01.03.2024"); !errors.As(err, &vErr) {
		t.Fatalf("expected date validation error, got %v", err)
	}
	edited, err := svc.Schedules.Edit(ctx, admin, rec.ID, "Location", "A1")
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if edited.Fields.Location != "A1" || edited.Fields.Name != "Algebra" {
		t.Fatalf("unexpected edit result: %+v", edited.Fields)
	}

	dup, err := svc.Schedules.Copy(ctx, admin, rec.ID)
	if err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}
	if dup.ID == rec.ID || dup.MessageID == rec.MessageID {
		t.Fatalf("expected distinct id and message")
	}

	if err := svc.Schedules.Delete(ctx, admin, rec.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := factory.Mirror.Message(rec.MessageID); ok {
		t.Fatalf("expected mirror message to be deleted")
	}
	if _, err := svc.Schedules.Get(ctx, rec.ID); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduleListPagesEmpty(t *testing.T) {
	_, svc := seededServices(t, testfixtures.FullConfig())
	pages, err := svc.Schedules.ListPages(context.Background())
	if err != nil {
		t.Fatalf("ListPages returned error: %v", err)
	}
	if len(pages) != 0 {
		t.Fatalf("expected no pages, got %d", len(pages))
	}
}

func TestScheduleImport(t *testing.T) {
	ctx := context.Background()
	factory, svc := seededServices(t, testfixtures.FullConfig())

	rows := []application.ScheduleFields{
		{Name: "Algorithms", Professor: "Dr. Lee", Location: "Room 5", Date: "2026-01-10", Time: "09:00", Type: "Lecture"},
		{Name: "Physics", Date: "Sobota", Time: "12:00"},
		{Name: "", Date: "2026-01-11", Time: "12:00"},
		{Name: "Chemistry", Date: "2026-01-12", Time: "08:00", Description: "Grupa: 2"},
	}
	if _, err := svc.Schedules.Import(ctx, testfixtures.Member("u1"), rows); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	report, err := svc.Schedules.Import(ctx, testfixtures.Admin("admin"), rows)
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if report.Created != 2 {
		t.Fatalf("expected 2 schedules created, got %+v", report)
	}
	if _, ok := report.Rejected[1]; !ok {
		t.Fatalf("expected the weekday date to be rejected, got %+v", report.Rejected)
	}
	if _, ok := report.Rejected[2]; !ok || len(report.Rejected) != 2 {
		t.Fatalf("expected the nameless row to be rejected, got %+v", report.Rejected)
	}

	list, err := svc.Schedules.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	var names []string
	for _, rec := range list {
		names = append(names, rec.Fields.Name)
		if rec.ChannelID != "chan-schedule" {
			t.Fatalf("expected the configured channel, got %s", rec.ChannelID)
		}
		if _, ok := factory.Mirror.Message(rec.MessageID); !ok {
			t.Fatalf("expected %s to be posted", rec.ID)
		}
	}
	if diff := cmp.Diff([]string{"Algorithms", "Chemistry"}, names); diff != "" {
		t.Fatalf("imported schedules mismatch (-want +got):\n%s", diff)
	}
}

func TestScheduleImportContinuesPastMirrorFailures(t *testing.T) {
	ctx := context.Background()
	factory, svc := seededServices(t, testfixtures.FullConfig())
	factory.Mirror.FailSend = true

	report, err := svc.Schedules.Import(ctx, testfixtures.Admin("admin"), []application.ScheduleFields{
		{Name: "Algorithms", Date: "2026-01-10", Time: "09:00"},
		{Name: "Physics", Date: "2026-01-11", Time: "10:00"},
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if report.Created != 0 || len(report.Rejected) != 2 {
		t.Fatalf("expected every row rejected, got %+v", report)
	}
}

func TestScheduleImportRequiresChannel(t *testing.T) {
	_, svc := seededServices(t, application.ScheduleConfig{Professors: []string{"Dr. Lee"}})
	_, err := svc.Schedules.Import(context.Background(), testfixtures.Admin("admin"), []application.ScheduleFields{{Name: "A", Date: "2026-01-10", Time: "09:00"}})
	if !errors.Is(err, application.ErrMissingConfiguration) {
		t.Fatalf("expected ErrMissingConfiguration, got %v", err)
	}
}
