package persistence

import "time"

// Well-known document names. Each document is a whole JSON value rewritten on every save.
const (
	DocumentDropdowns = "dropdowns"
	DocumentSchedules = "schedules"
	DocumentHomeworks = "homeworks"
	DocumentConfig    = "schedule_config"
	DocumentStatus    = "status"
)

// Document is a named JSON blob together with the version token it was read at.
//
// Version is opaque to callers. An empty Version on save means "create"; any other
// value must match the stored version or the save fails with ErrVersionConflict.
type Document struct {
	Name      string
	Body      []byte
	Version   string
	UpdatedAt time.Time
}
