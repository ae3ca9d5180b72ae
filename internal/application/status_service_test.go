package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/classroom-bot/internal/application"
	"github.com/example/classroom-bot/internal/testfixtures"
)

func TestStatusSetIsOwnerOnly(t *testing.T) {
	ctx := context.Background()
	factory := testfixtures.NewServiceFactory()
	svc := factory.Build()

	if err := svc.Status.Set(ctx, testfixtures.Admin("admin"), "Studying"); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for a non-owner, got %v", err)
	}

	owner := application.Principal{UserID: "owner", IsOwner: true}
	if err := svc.Status.Set(ctx, owner, "Studying"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if factory.Activity.Current() != "Studying" {
		t.Fatalf("expected activity to be applied, got %q", factory.Activity.Current())
	}
}

func TestStatusApplyRestoresPersistedActivity(t *testing.T) {
	ctx := context.Background()
	store := testfixtures.NewMemoryStore()
	first := testfixtures.NewServiceFactory(testfixtures.WithStore(store))
	if err := first.Build().Status.Set(ctx, application.Principal{UserID: "o", IsOwner: true}, "Grading"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	restarted := testfixtures.NewServiceFactory(testfixtures.WithStore(store))
	if err := restarted.Build().Status.Apply(ctx); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if restarted.Activity.Current() != "Grading" {
		t.Fatalf("expected restored activity, got %q", restarted.Activity.Current())
	}
}
