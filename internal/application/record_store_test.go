package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/classroom-bot/internal/application"
	"github.com/example/classroom-bot/internal/persistence"
	"github.com/example/classroom-bot/internal/testfixtures"
)

type recordHarness struct {
	store  *testfixtures.MemoryStore
	mirror *testfixtures.Mirror
	clock  *testfixtures.Clock
	rs     *application.RecordStore[application.ScheduleFields]
}

func newRecordHarness() *recordHarness {
	h := &recordHarness{
		store:  testfixtures.NewMemoryStore(),
		mirror: testfixtures.NewMirror(),
		clock:  testfixtures.NewClock(testfixtures.ReferenceTime()),
	}
	schema := application.RecordSchema[application.ScheduleFields]{
		Kind:     "schedule",
		Document: persistence.DocumentSchedules,
		IDPrefix: "class",
		Render:   application.RenderSchedule,
		SetField: func(f *application.ScheduleFields, field, value string) error {
			switch field {
			case "name":
				f.Name = value
			case "location":
				f.Location = value
			default:
				return &application.ValidationError{FieldErrors: map[string]string{"field": "unknown"}}
			}
			return nil
		},
	}
	h.rs = application.NewRecordStore(schema, h.store, h.mirror, testfixtures.NewIDGenerator("id").NextFunc(), h.clock.NowFunc(), nil)
	return h
}

func sampleFields() application.ScheduleFields {
	return testfixtures.NewSchedule().Fields
}

func TestRecordStoreCreatePostsAndPersists(t *testing.T) {
	ctx := context.Background()
	h := newRecordHarness()

	rec, err := h.rs.Create(ctx, sampleFields(), "chan-1", "admin")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.ID != "class-id-1" || rec.MessageID == "" || rec.Seq != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	msg, ok := h.mirror.Message(rec.MessageID)
	if !ok || msg.ChannelID != "chan-1" || msg.Message.Footer != "ID: class-id-1" {
		t.Fatalf("unexpected mirror message: %+v", msg)
	}

	got, err := h.rs.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("stored record mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordStoreCreateFailsWithoutMirror(t *testing.T) {
	ctx := context.Background()
	h := newRecordHarness()
	h.mirror.FailSend = true

	_, err := h.rs.Create(ctx, sampleFields(), "chan-1", "admin")
	if !application.IsMirrorWarning(err) {
		t.Fatalf("expected mirror error, got %v", err)
	}
	if h.store.Saves() != 0 {
		t.Fatalf("expected nothing persisted")
	}
}

func TestRecordStoreCreateRemovesMessageWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	h := newRecordHarness()
	h.store.SaveErr = errors.New("disk full")

	_, err := h.rs.Create(ctx, sampleFields(), "chan-1", "admin")
	var pErr *application.PersistenceError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if h.mirror.Len() != 0 {
		t.Fatalf("expected orphaned message to be removed")
	}
}

func TestRecordStoreEditChangesOnlyThatField(t *testing.T) {
	ctx := context.Background()
	h := newRecordHarness()
	rec, _ := h.rs.Create(ctx, sampleFields(), "chan-1", "admin")

	updated, err := h.rs.Edit(ctx, rec.ID, "location", "C3")
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	want := rec
	want.Fields.Location = "C3"
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Fatalf("edited record mismatch (-want +got):\n%s", diff)
	}

	msg, _ := h.mirror.Message(rec.MessageID)
	if msg.Message.Fields[1].Value != "C3" {
		t.Fatalf("expected mirror to show the new location, got %+v", msg.Message.Fields)
	}
}

func TestRecordStoreEditKeepsValueWhenMirrorFails(t *testing.T) {
	ctx := context.Background()
	h := newRecordHarness()
	rec, _ := h.rs.Create(ctx, sampleFields(), "chan-1", "admin")
	h.mirror.FailEdit = true

	_, err := h.rs.Edit(ctx, rec.ID, "name", "Topology")
	if !application.IsMirrorWarning(err) {
		t.Fatalf("expected mirror warning, got %v", err)
	}
	got, _ := h.rs.Get(ctx, rec.ID)
	if got.Fields.Name != "Topology" {
		t.Fatalf("expected stored value to win, got %q", got.Fields.Name)
	}
}

func TestRecordStoreEditRejectsUnknownField(t *testing.T) {
	ctx := context.Background()
	h := newRecordHarness()
	rec, _ := h.rs.Create(ctx, sampleFields(), "chan-1", "admin")
	saves := h.store.Saves()

	var vErr *application.ValidationError
	if _, err := h.rs.Edit(ctx, rec.ID, "colour", "red"); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if h.store.Saves() != saves {
		t.Fatalf("expected rejected edit not to write")
	}
}

func TestRecordStoreCopy(t *testing.T) {
	ctx := context.Background()
	h := newRecordHarness()
	rec, _ := h.rs.Create(ctx, sampleFields(), "chan-1", "admin")

	dup, err := h.rs.Copy(ctx, rec.ID, "other-admin")
	if err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}
	if dup.ID == rec.ID || dup.MessageID == rec.MessageID {
		t.Fatalf("expected a new id and message, got %+v", dup)
	}
	if diff := cmp.Diff(rec.Fields, dup.Fields); diff != "" {
		t.Fatalf("copied fields mismatch (-want +got):\n%s", diff)
	}
	if dup.ChannelID != rec.ChannelID || dup.CreatedBy != "other-admin" {
		t.Fatalf("unexpected copy envelope: %+v", dup)
	}
}

func TestRecordStoreDeleteThenNotFound(t *testing.T) {
	ctx := context.Background()
	h := newRecordHarness()
	rec, _ := h.rs.Create(ctx, sampleFields(), "chan-1", "admin")
	h.mirror.FailDelete = true

	if err := h.rs.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete returned error despite best-effort mirror delete: %v", err)
	}
	if _, err := h.rs.Edit(ctx, rec.ID, "name", "x"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("Edit after delete: expected ErrNotFound, got %v", err)
	}
	if err := h.rs.Delete(ctx, rec.ID); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("Delete after delete: expected ErrNotFound, got %v", err)
	}
	if _, err := h.rs.Copy(ctx, rec.ID, "admin"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("Copy after delete: expected ErrNotFound, got %v", err)
	}
}

func TestRecordStoreListInsertionOrder(t *testing.T) {
	ctx := context.Background()
	h := newRecordHarness()

	empty, err := h.rs.List(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty list, got %v, %v", empty, err)
	}

	var want []string
	for i := 0; i < 5; i++ {
		f := sampleFields()
		f.Name = fmt.Sprintf("class %d", i)
		rec, err := h.rs.Create(ctx, f, "chan-1", "admin")
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		want = append(want, rec.ID)
	}

	records, err := h.rs.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	var got []string
	for _, rec := range records {
		got = append(got, rec.ID)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("list order mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordStoreRefreshCountsFailures(t *testing.T) {
	ctx := context.Background()
	h := newRecordHarness()
	for i := 0; i < 3; i++ {
		if _, err := h.rs.Create(ctx, sampleFields(), "chan-1", "admin"); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	report, err := h.rs.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if report != (application.RefreshReport{Total: 3, Refreshed: 3}) {
		t.Fatalf("unexpected report: %+v", report)
	}

	h.mirror.FailEdit = true
	report, err = h.rs.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if report != (application.RefreshReport{Total: 3, Failed: 3}) {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestRecordStoreConcurrentEditsAreNotLost(t *testing.T) {
	ctx := context.Background()
	h := newRecordHarness()
	a, _ := h.rs.Create(ctx, sampleFields(), "chan-1", "admin")
	b, _ := h.rs.Create(ctx, sampleFields(), "chan-1", "admin")

	var wg sync.WaitGroup
	for _, id := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := h.rs.Edit(ctx, id, "name", "renamed-"+id); err != nil {
				t.Errorf("Edit(%s) returned error: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{a.ID, b.ID} {
		got, _ := h.rs.Get(ctx, id)
		if got.Fields.Name != "renamed-"+id {
			t.Fatalf("lost update on %s: %q", id, got.Fields.Name)
		}
	}
}
