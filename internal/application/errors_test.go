package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"field": "invalid"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected consistent message for populated error, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).HasErrors(); err {
		t.Fatalf("expected HasErrors to report false for empty error")
	}

	if err := (&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors(); !err {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected add to populate map, got %q", got)
	}

	other := &ValidationError{FieldErrors: map[string]string{"second": "another"}}
	base.merge(other)
	if got := base.FieldErrors["second"]; got != "another" {
		t.Fatalf("expected merge to copy field, got %q", got)
	}

	base.merge(nil)
	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected merge with nil to leave fields unchanged")
	}
}

func TestValidationError_MessagesSorted(t *testing.T) {
	t.Parallel()

	v := &ValidationError{}
	v.add("time", "bad")
	v.add("date", "use the YYYY-MM-DD format")

	got := v.Messages()
	if len(got) != 2 || got[0] != "date: use the YYYY-MM-DD format" || got[1] != "time: bad" {
		t.Fatalf("unexpected messages: %v", got)
	}
	if (&ValidationError{}).Messages() != nil {
		t.Fatalf("expected nil messages for empty error")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrUnauthorized, "unauthorized"},
		{fmt.Errorf("wrap: %w", ErrSessionNotFound), "session_not_found"},
		{ErrNotFound, "not_found"},
		{&MissingConfigurationError{Missing: []string{"professors"}}, "missing_configuration"},
		{ErrAlreadyExists, "already_exists"},
		{fieldError("date", "bad"), "validation"},
		{&MissingFieldError{Field: "time"}, "missing_field"},
		{&MirrorError{Op: "edit", RecordID: "class-1", Err: errors.New("boom")}, "mirror"},
		{&PersistenceError{Document: "schedules", Err: errors.New("disk full")}, "persistence"},
		{errors.New("other"), "unexpected"},
	}
	for _, tc := range cases {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestMissingConfigurationErrorMatchesSentinel(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("open: %w", &MissingConfigurationError{Missing: []string{"schedule channel", "times"}})
	if !errors.Is(err, ErrMissingConfiguration) {
		t.Fatalf("expected errors.Is to match ErrMissingConfiguration")
	}
	if got := err.Error(); got != "open: application: missing configuration: schedule channel, times" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestIsMirrorWarning(t *testing.T) {
	t.Parallel()

	cause := errors.New("missing access")
	err := &MirrorError{Op: "edit", RecordID: "homework-1", Err: cause}
	if !IsMirrorWarning(err) || !errors.Is(err, cause) {
		t.Fatalf("expected mirror warning wrapping its cause")
	}
	if IsMirrorWarning(ErrNotFound) {
		t.Fatalf("not found is not a mirror warning")
	}
}
