package application

import (
	"regexp"
	"strings"
)

// WizardKind identifies a builder flow.
type WizardKind string

const (
	WizardSchedule WizardKind = "schedule"
	WizardHomework WizardKind = "homework"
)

// FieldInput selects how a wizard field is collected.
type FieldInput int

const (
	// InputSelect fields are chosen from an option list captured when the session opens.
	InputSelect FieldInput = iota + 1
	// InputText fields are typed into a modal.
	InputText
)

// FieldFormat constrains free-form values.
type FieldFormat int

const (
	FormatNone FieldFormat = iota
	FormatDate             // YYYY-MM-DD
)

// WizardField declares one collected value.
type WizardField struct {
	Name        string
	Label       string
	Required    bool
	Input       FieldInput
	Format      FieldFormat
	Paragraph   bool
	Placeholder string
	// Source names the configuration list feeding a select.
	Source ConfigList
	// Fixed options are used when Source is empty or its list is empty.
	Fixed []string
}

// WizardStep is one screen of a builder. Modal steps are submitted at once.
type WizardStep struct {
	Title       string
	Description string
	Modal       bool
	Fields      []WizardField
}

// WizardSchema is the fixed step order of a builder kind.
type WizardSchema struct {
	Kind  WizardKind
	Title string
	// ChannelTarget is the configured channel the finished record posts to.
	ChannelTarget ChannelTarget
	// Prerequisites must be non-empty configuration lists for Open to succeed.
	Prerequisites []ConfigList
	Steps         []WizardStep
}

// field finds a field by name and returns its step index.
func (s WizardSchema) field(name string) (WizardField, int, bool) {
	for i, step := range s.Steps {
		for _, f := range step.Fields {
			if f.Name == name {
				return f, i, true
			}
		}
	}
	return WizardField{}, -1, false
}

// ScheduleWizard collects class, professor and type, then time and location,
// then a date and optional description in a modal.
var ScheduleWizard = WizardSchema{
	Kind:          WizardSchedule,
	Title:         "📅 Schedule Builder",
	ChannelTarget: ChannelSchedule,
	Prerequisites: []ConfigList{ListProfessors, ListClassnames, ListTimes, ListLocations},
	Steps: []WizardStep{
		{
			Title:       "Step 1",
			Description: "Select class name, professor, and type.",
			Fields: []WizardField{
				{Name: "classname", Label: "Class name", Required: true, Input: InputSelect, Source: ListClassnames},
				{Name: "professor", Label: "Professor", Required: true, Input: InputSelect, Source: ListProfessors},
				{Name: "type", Label: "Class type", Required: true, Input: InputSelect, Source: ListTypes, Fixed: DefaultClassTypes},
			},
		},
		{
			Title:       "Step 2",
			Description: "Select time and location.",
			Fields: []WizardField{
				{Name: "time", Label: "Time", Required: true, Input: InputSelect, Source: ListTimes},
				{Name: "location", Label: "Location", Required: true, Input: InputSelect, Source: ListLocations},
			},
		},
		{
			Title:       "Schedule details",
			Description: "Enter the date and an optional description.",
			Modal:       true,
			Fields: []WizardField{
				{Name: "date", Label: "Date (YYYY-MM-DD)", Required: true, Input: InputText, Format: FormatDate, Source: ListDates, Placeholder: "2024-01-15"},
				{Name: "description", Label: "Description (optional)", Input: InputText, Paragraph: true, Placeholder: "Additional information..."},
			},
		},
	},
}

// HomeworkWizard collects class, professor, type and turn-in method, then a
// due date and description in a modal.
var HomeworkWizard = WizardSchema{
	Kind:          WizardHomework,
	Title:         "📝 Homework Builder",
	ChannelTarget: ChannelHomework,
	Prerequisites: []ConfigList{ListProfessors, ListClassnames},
	Steps: []WizardStep{
		{
			Title:       "Step 1",
			Description: "Select class name, professor, type, and turn-in method.",
			Fields: []WizardField{
				{Name: "classname", Label: "Class name", Required: true, Input: InputSelect, Source: ListClassnames},
				{Name: "professor", Label: "Professor", Required: true, Input: InputSelect, Source: ListProfessors},
				{Name: "type", Label: "Class type", Required: true, Input: InputSelect, Source: ListTypes, Fixed: DefaultClassTypes},
				{Name: "turnin", Label: "Turn-in method", Required: true, Input: InputSelect, Fixed: TurnInMethods},
			},
		},
		{
			Title:       "Homework details",
			Description: "Enter the due date and a description.",
			Modal:       true,
			Fields: []WizardField{
				{Name: "due", Label: "Due date (YYYY-MM-DD)", Required: true, Input: InputText, Format: FormatDate, Placeholder: "2024-01-15"},
				{Name: "description", Label: "Description", Required: true, Input: InputText, Paragraph: true},
			},
		},
	},
}

// WizardSchemas indexes the builders by kind.
var WizardSchemas = map[WizardKind]WizardSchema{
	WizardSchedule: ScheduleWizard,
	WizardHomework: HomeworkWizard,
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDate reports whether value has the YYYY-MM-DD shape.
func ValidDate(value string) bool {
	return datePattern.MatchString(strings.TrimSpace(value))
}

var timePattern = regexp.MustCompile(`^\d{1,2}:\d{2}(\s*-\s*\d{1,2}:\d{2})?$`)

// ValidTime reports whether value is "HH:MM" or a "HH:MM - HH:MM" range.
func ValidTime(value string) bool {
	return timePattern.MatchString(strings.TrimSpace(value))
}

// optionsFor resolves the option list of a select field from the given lists.
func optionsFor(field WizardField, lists map[ConfigList][]string) []string {
	if field.Source != "" {
		if values := lists[field.Source]; len(values) > 0 {
			return append([]string(nil), values...)
		}
	}
	return append([]string(nil), field.Fixed...)
}
