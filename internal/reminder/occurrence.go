package reminder

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/example/classroom-bot/internal/application"
)

// defaultDuration is assumed when a class time has no end.
const defaultDuration = 90 * time.Minute

// ErrInvalidWindow indicates the occurrence window is empty.
var ErrInvalidWindow = errors.New("reminder: window end must be after its start")

// ErrUnparsableStart indicates a schedule's date or time cannot be read.
var ErrUnparsableStart = errors.New("reminder: unparsable class start")

var clockPattern = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*(?:-\s*(\d{1,2}):(\d{2})\s*)?$`)

// Occurrence is one concrete class meeting.
type Occurrence struct {
	ScheduleID string
	Start      time.Time
	End        time.Time
}

// Key identifies the occurrence for de-duplication. Editing a schedule's date
// or time yields a new key.
func (o Occurrence) Key() string {
	return o.ScheduleID + "@" + o.Start.UTC().Format(time.RFC3339)
}

// Engine turns stored schedules into occurrences in a fixed location.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine. If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// Occurrence resolves the start and end of one schedule. Time may be "HH:MM"
// or "HH:MM - HH:MM"; an end before the start rolls over to the next day.
func (e *Engine) Occurrence(rec application.Schedule) (Occurrence, error) {
	day, err := time.ParseInLocation("2006-01-02", rec.Fields.Date, e.location)
	if err != nil {
		return Occurrence{}, fmt.Errorf("%w: date %q", ErrUnparsableStart, rec.Fields.Date)
	}
	m := clockPattern.FindStringSubmatch(rec.Fields.Time)
	if m == nil {
		return Occurrence{}, fmt.Errorf("%w: time %q", ErrUnparsableStart, rec.Fields.Time)
	}

	start, err := atClock(day, m[1], m[2], e.location)
	if err != nil {
		return Occurrence{}, fmt.Errorf("%w: time %q", ErrUnparsableStart, rec.Fields.Time)
	}
	end := start.Add(defaultDuration)
	if m[3] != "" {
		if end, err = atClock(day, m[3], m[4], e.location); err != nil {
			return Occurrence{}, fmt.Errorf("%w: time %q", ErrUnparsableStart, rec.Fields.Time)
		}
		if !end.After(start) {
			end = end.AddDate(0, 0, 1)
		}
	}
	return Occurrence{ScheduleID: rec.ID, Start: start, End: end}, nil
}

func atClock(day time.Time, hour, minute string, loc *time.Location) (time.Time, error) {
	h, _ := strconv.Atoi(hour)
	mi, _ := strconv.Atoi(minute)
	if h > 23 || mi > 59 {
		return time.Time{}, ErrUnparsableStart
	}
	y, mo, d := day.Date()
	return time.Date(y, mo, d, h, mi, 0, 0, loc), nil
}

// StartingBetween returns the occurrences starting in [from, to), ordered by
// start. Schedules whose start cannot be parsed are returned in skipped.
func (e *Engine) StartingBetween(schedules []application.Schedule, from, to time.Time) (occurrences []Occurrence, skipped []string, err error) {
	if !to.After(from) {
		return nil, nil, ErrInvalidWindow
	}
	for _, rec := range schedules {
		occ, err := e.Occurrence(rec)
		if err != nil {
			skipped = append(skipped, rec.ID)
			continue
		}
		if occ.Start.Before(from) || !occ.Start.Before(to) {
			continue
		}
		occurrences = append(occurrences, occ)
	}
	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].Start.Before(occurrences[j].Start)
	})
	return occurrences, skipped, nil
}
