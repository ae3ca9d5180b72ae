package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrSessionNotFound is returned for wizard operations without a live session.
	// Expired sessions are reported the same way.
	ErrSessionNotFound = errors.New("application: session not found")
	// ErrMissingConfiguration is returned when a wizard cannot open because a
	// prerequisite configuration list or channel is empty.
	ErrMissingConfiguration = errors.New("application: missing configuration")
	// ErrAlreadyExists is returned when a configuration value is already present.
	ErrAlreadyExists = errors.New("application: already exists")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Messages returns "field: message" pairs ordered by field name.
func (v *ValidationError) Messages() []string {
	if !v.HasErrors() {
		return nil
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]string, 0, len(fields))
	for _, field := range fields {
		out = append(out, field+": "+v.FieldErrors[field])
	}
	return out
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

func fieldError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// MissingFieldError reports the first required wizard field, in declared
// order, that has no value yet.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("application: missing required field %q", e.Field)
}

// MissingConfigurationError lists the configuration entries that must be
// populated before a wizard can open.
type MissingConfigurationError struct {
	Missing []string
}

func (e *MissingConfigurationError) Error() string {
	return "application: missing configuration: " + strings.Join(e.Missing, ", ")
}

// Is lets errors.Is match ErrMissingConfiguration.
func (e *MissingConfigurationError) Is(target error) bool {
	return target == ErrMissingConfiguration
}

// MirrorError reports that the chat message mirroring a record could not be
// sent, edited or deleted. For edits and deletes the record change has
// already been committed, so callers surface it as a warning.
type MirrorError struct {
	Op       string
	RecordID string
	Err      error
}

func (e *MirrorError) Error() string {
	return fmt.Sprintf("application: mirror %s for %s: %v", e.Op, e.RecordID, e.Err)
}

func (e *MirrorError) Unwrap() error {
	return e.Err
}

// PersistenceError reports that a document could not be written.
type PersistenceError struct {
	Document string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("application: persist %s: %v", e.Document, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsMirrorWarning reports whether err only signals a lagging mirror message.
func IsMirrorWarning(err error) bool {
	var mErr *MirrorError
	return errors.As(err, &mErr)
}
