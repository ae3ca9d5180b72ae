package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/classroom-bot/internal/application"
	"github.com/example/classroom-bot/internal/testfixtures"
)

func createMenu(t *testing.T, svc testfixtures.Services, labels ...string) application.Dropdown {
	t.Helper()
	roleIDs := make([]string, len(labels))
	for i, l := range labels {
		roleIDs[i] = "role-" + l
	}
	rec, err := svc.Dropdowns.Create(context.Background(), testfixtures.Admin("admin"), application.CreateDropdownParams{
		ChannelID: "chan-roles",
		Category:  "Groups",
		Labels:    labels,
		RoleIDs:   roleIDs,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	return rec
}

func TestDropdownReconcileClearThenSet(t *testing.T) {
	ctx := context.Background()
	factory := testfixtures.NewServiceFactory()
	svc := factory.Build()
	menu := createMenu(t, svc, "A", "B", "C", "D")

	factory.Roles.Grant("g1", "u1", "role-A", "role-C", "role-other")

	// indices 3 and 1 resolve to D and B; order does not matter
	report, err := svc.Dropdowns.Reconcile(ctx, "g1", "u1", menu.ID, nil, []string{"3", "1"})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if report.Removed != 4 || report.Added != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	for role, want := range map[string]bool{"role-A": false, "role-B": true, "role-C": false, "role-D": true, "role-other": true} {
		if got := factory.Roles.Has("g1", "u1", role); got != want {
			t.Fatalf("role %s: got %v want %v", role, got, want)
		}
	}
}

func TestDropdownReconcileEmptySelectionClearsAll(t *testing.T) {
	ctx := context.Background()
	factory := testfixtures.NewServiceFactory()
	svc := factory.Build()
	menu := createMenu(t, svc, "A", "B")
	factory.Roles.Grant("g1", "u1", "role-A", "role-B")

	report, err := svc.Dropdowns.Reconcile(ctx, "g1", "u1", menu.ID, nil, nil)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if report.Added != 0 || factory.Roles.Has("g1", "u1", "role-A") || factory.Roles.Has("g1", "u1", "role-B") {
		t.Fatalf("expected every menu role removed, report %+v", report)
	}
}

func TestDropdownReconcileIgnoresBadIndicesAndContinuesOnFailure(t *testing.T) {
	ctx := context.Background()
	factory := testfixtures.NewServiceFactory()
	svc := factory.Build()
	menu := createMenu(t, svc, "A", "B", "C")
	factory.Roles.Fail = map[string]bool{"role-A": true}

	report, err := svc.Dropdowns.Reconcile(ctx, "g1", "u1", menu.ID, nil, []string{"0", "2", "2", "9", "x"})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	// role-A fails on both remove and add
	if report.Failed != 2 || report.Added != 1 || report.Removed != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if diff := cmp.Diff([]string{"C"}, report.Granted); diff != "" {
		t.Fatalf("granted mismatch (-want +got):\n%s", diff)
	}
	want := []string{"remove:role-A", "remove:role-B", "remove:role-C", "add:role-A", "add:role-C"}
	if diff := cmp.Diff(want, factory.Roles.Calls()); diff != "" {
		t.Fatalf("gateway calls mismatch (-want +got):\n%s", diff)
	}
}

func TestDropdownReconcileSkipsRolesNotHeld(t *testing.T) {
	ctx := context.Background()
	factory := testfixtures.NewServiceFactory()
	svc := factory.Build()
	menu := createMenu(t, svc, "A", "B", "C")
	factory.Roles.Grant("g1", "u1", "role-A", "role-other")

	report, err := svc.Dropdowns.Reconcile(ctx, "g1", "u1", menu.ID, []string{"role-A", "role-other"}, []string{"1"})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if report.Removed != 1 || report.Added != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	want := []string{"remove:role-A", "add:role-B"}
	if diff := cmp.Diff(want, factory.Roles.Calls()); diff != "" {
		t.Fatalf("gateway calls mismatch (-want +got):\n%s", diff)
	}
	for role, want := range map[string]bool{"role-A": false, "role-B": true, "role-C": false, "role-other": true} {
		if got := factory.Roles.Has("g1", "u1", role); got != want {
			t.Fatalf("role %s: got %v want %v", role, got, want)
		}
	}

	// a held role that is selected again is still cleared then set
	factory.Roles.Reset()
	report, err = svc.Dropdowns.Reconcile(ctx, "g1", "u1", menu.ID, []string{"role-B"}, []string{"1"})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"remove:role-B", "add:role-B"}, factory.Roles.Calls()); diff != "" {
		t.Fatalf("gateway calls mismatch (-want +got):\n%s", diff)
	}
	if !factory.Roles.Has("g1", "u1", "role-B") || report.Removed != 1 || report.Added != 1 {
		t.Fatalf("expected role-B kept, report %+v", report)
	}
}

func TestDropdownReconcileUnknownMenu(t *testing.T) {
	svc := testfixtures.NewServiceFactory().Build()
	if _, err := svc.Dropdowns.Reconcile(context.Background(), "g1", "u1", "dropdown-missing", nil, []string{"0"}); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDropdownCreateValidation(t *testing.T) {
	ctx := context.Background()
	factory := testfixtures.NewServiceFactory()
	svc := factory.Build()

	_, err := svc.Dropdowns.Create(ctx, testfixtures.Admin("admin"), application.CreateDropdownParams{
		ChannelID: "chan-roles",
		Category:  "Groups",
		Labels:    application.SplitList("A, B"),
		RoleIDs:   application.SplitList("1"),
	})
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["roleids"] == "" {
		t.Fatalf("expected mismatched counts to be rejected, got %v", err)
	}
	if factory.Mirror.Len() != 0 {
		t.Fatalf("expected no message to be posted")
	}

	if _, err := svc.Dropdowns.Create(ctx, testfixtures.Member("u"), application.CreateDropdownParams{}); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDropdownRenderedMenu(t *testing.T) {
	factory := testfixtures.NewServiceFactory()
	svc := factory.Build()
	menu := createMenu(t, svc, "A", "B")

	msg, ok := factory.Mirror.Message(menu.MessageID)
	if !ok || msg.Message.Select == nil {
		t.Fatalf("expected a select menu message")
	}
	sel := msg.Message.Select
	if sel.CustomID != menu.ID || sel.MinValues != 0 || sel.MaxValues != 2 {
		t.Fatalf("unexpected select: %+v", sel)
	}
	if sel.Options[1].Value != "1" || sel.Options[1].Label != "B" {
		t.Fatalf("unexpected option: %+v", sel.Options[1])
	}
}
