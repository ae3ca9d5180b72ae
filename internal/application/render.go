package application

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultClassTypes are offered by the builders when no types list is configured.
var DefaultClassTypes = []string{"Wyklad", "Cwiczenia", "E-Learning"}

// TurnInMethods are the fixed homework hand-in options.
var TurnInMethods = []string{"Email", "Moodle", "Teams"}

const (
	fallbackColor = 0x2f3136
	listColor     = 0x3498db
	dropdownColor = 0x5865f2
)

var classTypeColors = map[string]int{
	"wyklad":     0x3db1ff,
	"cwiczenia":  0xcc0088,
	"e-learning": 0xf1c40f,
}

// ClassTypeColor returns the embed colour for a class type.
func ClassTypeColor(classType string) int {
	if c, ok := classTypeColors[strings.ToLower(strings.TrimSpace(classType))]; ok {
		return c
	}
	return fallbackColor
}

// HomeworkDoneButtonPrefix prefixes the custom id of the "Mark done" button.
const HomeworkDoneButtonPrefix = "hwdone:"

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

// RenderSchedule builds the mirror message of a schedule record.
func RenderSchedule(rec Schedule) Message {
	f := rec.Fields
	msg := Message{
		Title: "📚 " + orDash(f.Name),
		Color: ClassTypeColor(f.Type),
		Fields: []MessageField{
			{Name: "Professor", Value: orDash(f.Professor), Inline: true},
			{Name: "Location", Value: orDash(f.Location), Inline: true},
			{Name: "Type", Value: orDash(f.Type), Inline: true},
			{Name: "Date", Value: orDash(f.Date), Inline: true},
			{Name: "Time", Value: orDash(f.Time), Inline: true},
		},
		Footer: "ID: " + rec.ID,
	}
	if strings.TrimSpace(f.Description) != "" {
		msg.Fields = append(msg.Fields, MessageField{Name: "Description", Value: f.Description})
	}
	return msg
}

// RenderHomework builds the mirror message of a homework record, including
// the completion counter and the "Mark done" button.
func RenderHomework(rec Homework) Message {
	f := rec.Fields
	done := 0
	for _, v := range f.Completion {
		if v {
			done++
		}
	}

	return Message{
		Title: "📝 " + orDash(f.Classname) + " - Homework",
		Color: ClassTypeColor(f.Type),
		Fields: []MessageField{
			{Name: "Professor", Value: orDash(f.Professor), Inline: true},
			{Name: "Type", Value: orDash(f.Type), Inline: true},
			{Name: "Turn-in Method", Value: orDash(f.TurnInMethod), Inline: true},
			{Name: "Due Date", Value: orDash(f.Due), Inline: true},
			{Name: "Description", Value: orDash(f.Description)},
			{Name: "Completed", Value: strconv.Itoa(done), Inline: true},
		},
		Footer:  "ID: " + rec.ID,
		Buttons: []Button{{CustomID: HomeworkDoneButtonPrefix + rec.ID, Label: "✅ Mark done", Style: ButtonSuccess}},
	}
}

// RenderDropdown builds the role menu message. Option values are the option
// indices; the select's custom id is the record id.
func RenderDropdown(rec Dropdown) Message {
	f := rec.Fields
	options := make([]SelectOption, 0, len(f.Options))
	for i, opt := range f.Options {
		options = append(options, SelectOption{
			Label:       opt.Label,
			Value:       strconv.Itoa(i),
			Description: "Grants the " + opt.Label + " role",
		})
	}

	description := f.Description
	if strings.TrimSpace(description) == "" {
		description = "Select from the menu below:"
	}

	return Message{
		Title:       "🎓 " + orDash(f.Category),
		Description: description,
		Color:       dropdownColor,
		Select: &SelectMenu{
			CustomID:    rec.ID,
			Placeholder: "Choose your roles",
			MinValues:   0,
			MaxValues:   len(options),
			Options:     options,
		},
	}
}

// ScheduleLine is one listing line of a schedule.
func ScheduleLine(rec Schedule) string {
	f := rec.Fields
	return fmt.Sprintf("• **%s** (ID: `%s`) — %s %s | %s | Prof: %s | Loc: %s\n",
		f.Name, rec.ID, f.Date, f.Time, f.Type, f.Professor, f.Location)
}

// HomeworkLine is one listing line of a homework assignment.
func HomeworkLine(rec Homework) string {
	f := rec.Fields
	return fmt.Sprintf("• **%s** (ID: `%s`) — Due: %s | %s | Prof: %s | Turn-in: %s\n",
		f.Classname, rec.ID, f.Due, f.Type, f.Professor, f.TurnInMethod)
}

// DropdownLine is one listing line of a role menu.
func DropdownLine(rec Dropdown) string {
	labels := make([]string, 0, len(rec.Fields.Options))
	for _, opt := range rec.Fields.Options {
		labels = append(labels, opt.Label)
	}
	return fmt.Sprintf("• **%s** (`%s`) → %s\n", rec.Fields.Category, rec.ID, strings.Join(labels, ", "))
}

// ListPages renders listing pages as messages titled title, "(cont.)" after the first.
func ListPages(title string, lines []string) []Message {
	pages := PackPages(lines, PageLimit)
	out := make([]Message, 0, len(pages))
	for i, page := range pages {
		t := title
		if i > 0 {
			t += " (cont.)"
		}
		out = append(out, Message{Title: t, Description: page, Color: listColor})
	}
	return out
}

// ConfigSummary renders the configuration lists for display.
func ConfigSummary(cfg ScheduleConfig) Message {
	msg := Message{Title: "⚙️ Schedule configuration", Color: listColor}
	for _, list := range ConfigLists() {
		msg.Fields = append(msg.Fields, MessageField{Name: string(list), Value: orDash(strings.Join(cfg.List(list), ", "))})
	}
	for _, target := range []ChannelTarget{ChannelSchedule, ChannelHomework, ChannelReminder} {
		value := "-"
		if id := cfg.Channel(target); id != "" {
			value = "<#" + id + ">"
		}
		msg.Fields = append(msg.Fields, MessageField{Name: string(target) + " channel", Value: value, Inline: true})
	}
	return msg
}
