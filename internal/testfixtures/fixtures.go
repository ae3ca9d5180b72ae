package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/classroom-bot/internal/application"
)

var (
	scheduleCounter uint64
	homeworkCounter uint64
	dropdownCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Admin returns a principal holding the Manage Server permission.
func Admin(userID string) application.Principal {
	return application.Principal{UserID: userID, IsAdmin: true}
}

// Member returns a principal without elevated permissions.
func Member(userID string) application.Principal {
	return application.Principal{UserID: userID}
}

// ----------------------------- Schedule fixtures -----------------------------

// ScheduleOption configures a generated schedule record.
type ScheduleOption func(*application.Schedule)

// NewSchedule returns a deterministic schedule record.
func NewSchedule(opts ...ScheduleOption) application.Schedule {
	idx := atomic.AddUint64(&scheduleCounter, 1)
	rec := application.Schedule{
		ID:        fmt.Sprintf("class-%03d", idx),
		ChannelID: "chan-schedule",
		MessageID: fmt.Sprintf("msg-class-%03d", idx),
		CreatedBy: "admin",
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
		Seq:       int64(idx),
		Fields: application.ScheduleFields{
			Name:      "Algebra",
			Professor: "Kowalski",
			Location:  "A1",
			Date:      "2024-01-15",
			Time:      "10:00 - 11:30",
			Type:      "Wyklad",
		},
	}
	for _, opt := range opts {
		opt(&rec)
	}
	return rec
}

// WithScheduleID overrides the generated id.
func WithScheduleID(id string) ScheduleOption {
	return func(rec *application.Schedule) {
		rec.ID = id
	}
}

// WithScheduleStart sets the date and time fields.
func WithScheduleStart(date, clock string) ScheduleOption {
	return func(rec *application.Schedule) {
		rec.Fields.Date = date
		rec.Fields.Time = clock
	}
}

// WithScheduleName sets the class name.
func WithScheduleName(name string) ScheduleOption {
	return func(rec *application.Schedule) {
		rec.Fields.Name = name
	}
}

// ----------------------------- Homework fixtures -----------------------------

// HomeworkOption configures a generated homework record.
type HomeworkOption func(*application.Homework)

// NewHomework returns a deterministic homework record.
func NewHomework(opts ...HomeworkOption) application.Homework {
	idx := atomic.AddUint64(&homeworkCounter, 1)
	rec := application.Homework{
		ID:        fmt.Sprintf("homework-%03d", idx),
		ChannelID: "chan-homework",
		MessageID: fmt.Sprintf("msg-homework-%03d", idx),
		CreatedBy: "admin",
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
		Seq:       int64(idx),
		Fields: application.HomeworkFields{
			Classname:    "Algebra",
			Professor:    "Kowalski",
			Type:         "Cwiczenia",
			TurnInMethod: "Moodle",
			Due:          "2024-01-20",
			Description:  "Exercises 1-5",
		},
	}
	for _, opt := range opts {
		opt(&rec)
	}
	return rec
}

// WithCompletion marks the given users as done.
func WithCompletion(userIDs ...string) HomeworkOption {
	return func(rec *application.Homework) {
		if rec.Fields.Completion == nil {
			rec.Fields.Completion = make(map[string]bool)
		}
		for _, id := range userIDs {
			rec.Fields.Completion[id] = true
		}
	}
}

// ----------------------------- Dropdown fixtures -----------------------------

// NewDropdown returns a role menu offering one option per label. Role ids are
// "role-<label>".
func NewDropdown(labels ...string) application.Dropdown {
	idx := atomic.AddUint64(&dropdownCounter, 1)
	options := make([]application.DropdownOption, 0, len(labels))
	for _, label := range labels {
		options = append(options, application.DropdownOption{Label: label, RoleID: "role-" + label})
	}
	return application.Dropdown{
		ID:        fmt.Sprintf("dropdown-%03d", idx),
		ChannelID: "chan-roles",
		MessageID: fmt.Sprintf("msg-dropdown-%03d", idx),
		CreatedBy: "admin",
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
		Seq:       int64(idx),
		Fields: application.DropdownFields{
			Category:    "Groups",
			Description: "Pick your groups",
			Options:     options,
		},
	}
}

// ----------------------------- Configuration -----------------------------

// FullConfig returns a configuration satisfying both builders' prerequisites.
func FullConfig() application.ScheduleConfig {
	return application.ScheduleConfig{
		Professors:        []string{"Kowalski", "Nowak"},
		Locations:         []string{"A1", "B2"},
		Classnames:        []string{"Algebra", "Physics"},
		Dates:             []string{"2024-01-15"},
		Times:             []string{"10:00 - 11:30", "12:00"},
		ChannelID:         "chan-schedule",
		HomeworkChannelID: "chan-homework",
	}
}
