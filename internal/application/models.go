package application

import (
	"context"
	"time"
)

// Principal represents the chat user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool // holds the Manage Server permission
	IsOwner bool // is the configured bot owner
}

// Record is the envelope shared by every mirrored record kind. Fields holds
// the kind-specific values.
type Record[T any] struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channelId"`
	MessageID string    `json:"messageId,omitempty"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Seq       int64     `json:"seq"`
	Fields    T         `json:"fields"`
}

// ScheduleFields are the values of one class schedule announcement.
type ScheduleFields struct {
	Name        string `json:"name"`
	Professor   string `json:"professor"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// HomeworkFields are the values of one homework assignment. Completion maps
// user ids to their done flag.
type HomeworkFields struct {
	Classname    string          `json:"classname"`
	Professor    string          `json:"professor"`
	Type         string          `json:"type"`
	TurnInMethod string          `json:"turnInMethod"`
	Due          string          `json:"due"`
	Description  string          `json:"description"`
	Completion   map[string]bool `json:"completion,omitempty"`
}

// DropdownOption pairs a menu label with the role it grants.
type DropdownOption struct {
	Label  string `json:"label"`
	RoleID string `json:"roleId"`
}

// DropdownFields describe a role self-assignment menu.
type DropdownFields struct {
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Options     []DropdownOption `json:"options"`
}

// Schedule, Homework and Dropdown are the concrete record types.
type (
	Schedule = Record[ScheduleFields]
	Homework = Record[HomeworkFields]
	Dropdown = Record[DropdownFields]
)

// Message is a platform-neutral rendering of a record or reply.
type Message struct {
	Content     string
	Title       string
	Description string
	Color       int
	Fields      []MessageField
	Footer      string
	Select      *SelectMenu
	Buttons     []Button
}

// MessageField is one name/value pair of an embed.
type MessageField struct {
	Name   string
	Value  string
	Inline bool
}

// SelectMenu is a string select attached to a message.
type SelectMenu struct {
	CustomID    string
	Placeholder string
	MinValues   int
	MaxValues   int
	Options     []SelectOption
}

// SelectOption is one entry of a SelectMenu.
type SelectOption struct {
	Label       string
	Value       string
	Description string
}

// ButtonStyle selects the visual weight of a Button.
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota + 1
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

// Button is a clickable component attached to a message.
type Button struct {
	CustomID string
	Label    string
	Style    ButtonStyle
}

// MessageMirror sends, edits and deletes the chat messages that mirror records.
type MessageMirror interface {
	Send(ctx context.Context, channelID string, msg Message) (messageID string, err error)
	Edit(ctx context.Context, channelID, messageID string, msg Message) error
	Delete(ctx context.Context, channelID, messageID string) error
}

// RoleGateway grants and revokes guild roles.
type RoleGateway interface {
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
}

// ActivitySetter updates the bot's presence.
type ActivitySetter interface {
	SetActivity(ctx context.Context, activity string) error
}

// RefreshReport summarises a bulk re-render of mirror messages.
type RefreshReport struct {
	Total     int
	Refreshed int
	Failed    int
}

// ConfigList names one admin-curated list of wizard options.
type ConfigList string

const (
	ListProfessors ConfigList = "professors"
	ListLocations  ConfigList = "locations"
	ListClassnames ConfigList = "classnames"
	ListDates      ConfigList = "dates"
	ListTimes      ConfigList = "times"
	ListTypes      ConfigList = "types"
)

// ConfigLists enumerates every ConfigList in display order.
func ConfigLists() []ConfigList {
	return []ConfigList{ListProfessors, ListLocations, ListClassnames, ListDates, ListTimes, ListTypes}
}

// ChannelTarget names a configurable posting channel.
type ChannelTarget string

const (
	ChannelSchedule ChannelTarget = "schedule"
	ChannelHomework ChannelTarget = "homework"
	ChannelReminder ChannelTarget = "reminder"
)

// ScheduleConfig is the persisted configuration document.
type ScheduleConfig struct {
	Professors        []string `json:"professors"`
	Locations         []string `json:"locations"`
	Classnames        []string `json:"classnames"`
	Dates             []string `json:"dates"`
	Times             []string `json:"times"`
	Types             []string `json:"types,omitempty"`
	ChannelID         string   `json:"channelId"`
	HomeworkChannelID string   `json:"homeworkChannelId"`
	ReminderChannelID string   `json:"reminderChannelId,omitempty"`
}

// List returns the values of list, or nil for an unknown list.
func (c ScheduleConfig) List(list ConfigList) []string {
	switch list {
	case ListProfessors:
		return c.Professors
	case ListLocations:
		return c.Locations
	case ListClassnames:
		return c.Classnames
	case ListDates:
		return c.Dates
	case ListTimes:
		return c.Times
	case ListTypes:
		return c.Types
	}
	return nil
}

func (c *ScheduleConfig) listPtr(list ConfigList) *[]string {
	switch list {
	case ListProfessors:
		return &c.Professors
	case ListLocations:
		return &c.Locations
	case ListClassnames:
		return &c.Classnames
	case ListDates:
		return &c.Dates
	case ListTimes:
		return &c.Times
	case ListTypes:
		return &c.Types
	}
	return nil
}

// Channel returns the configured channel for target.
func (c ScheduleConfig) Channel(target ChannelTarget) string {
	switch target {
	case ChannelSchedule:
		return c.ChannelID
	case ChannelHomework:
		return c.HomeworkChannelID
	case ChannelReminder:
		return c.ReminderChannelID
	}
	return ""
}

func (c *ScheduleConfig) setChannel(target ChannelTarget, channelID string) bool {
	switch target {
	case ChannelSchedule:
		c.ChannelID = channelID
	case ChannelHomework:
		c.HomeworkChannelID = channelID
	case ChannelReminder:
		c.ReminderChannelID = channelID
	default:
		return false
	}
	return true
}

// BotStatus is the persisted presence document.
type BotStatus struct {
	Activity string `json:"activity"`
}
