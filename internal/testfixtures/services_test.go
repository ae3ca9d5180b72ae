package testfixtures

import (
	"context"
	"testing"
)

func TestServiceFactoryBuildCreatesSchedule(t *testing.T) {
	ctx := context.Background()
	factory := NewServiceFactory()
	svc := factory.Build()
	if err := svc.SeedConfig(ctx, FullConfig()); err != nil {
		t.Fatalf("SeedConfig returned error: %v", err)
	}

	admin := Admin("admin")
	if _, err := svc.Schedules.OpenBuilder(ctx, admin); err != nil {
		t.Fatalf("OpenBuilder returned error: %v", err)
	}
	for field, value := range map[string]string{"classname": "Algebra", "professor": "Nowak", "type": "Wyklad"} {
		if err := svc.Schedules.Choose(ctx, admin, field, value); err != nil {
			t.Fatalf("Choose(%s) returned error: %v", field, err)
		}
	}
	if _, err := svc.Schedules.Next(ctx, admin); err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	_ = svc.Schedules.Choose(ctx, admin, "time", "12:00")
	_ = svc.Schedules.Choose(ctx, admin, "location", "B2")
	if _, err := svc.Schedules.Next(ctx, admin); err != nil {
		t.Fatalf("Next returned error: %v", err)
	}

	rec, err := svc.Schedules.CompleteBuilder(ctx, admin, map[string]string{"date": "2024-02-01"})
	if err != nil {
		t.Fatalf("CompleteBuilder returned error: %v", err)
	}
	if rec.ID != "class-id-1" {
		t.Fatalf("expected generated ID class-id-1, got %q", rec.ID)
	}
	if !rec.CreatedAt.Equal(factory.Clock.Current()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Current(), rec.CreatedAt)
	}
	if _, ok := factory.Mirror.Message(rec.MessageID); !ok {
		t.Fatalf("expected mirror message %q", rec.MessageID)
	}
}
