package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/example/classroom-bot/internal/application"
)

// CommandID is the closed set of slash commands the bot handles.
type CommandID int

const (
	CommandUnknown CommandID = iota
	CommandHelp
	CommandStatus
	CommandCreateDropdown
	CommandListDropdowns
	CommandDeleteDropdown
	CommandEditDropdown
	CommandCopyDropdown
	CommandRefreshDropdowns
	CommandSchedule
	CommandHomework
	CommandScheduleAdd
	CommandScheduleConfig
	CommandHomeworkAddChannel
)

var commandNames = map[CommandID]string{
	CommandHelp:               "help",
	CommandStatus:             "status",
	CommandCreateDropdown:     "createdropdown",
	CommandListDropdowns:      "listdropdowns",
	CommandDeleteDropdown:     "deletedropdown",
	CommandEditDropdown:       "editdropdown",
	CommandCopyDropdown:       "copydropdown",
	CommandRefreshDropdowns:   "refreshdropdowns",
	CommandSchedule:           "schedule",
	CommandHomework:           "homework",
	CommandScheduleAdd:        "schedule_add",
	CommandScheduleConfig:     "schedule_config",
	CommandHomeworkAddChannel: "homework_addchannel",
}

var commandsByName = func() map[string]CommandID {
	out := make(map[string]CommandID, len(commandNames))
	for id, name := range commandNames {
		out[name] = id
	}
	return out
}()

func (c CommandID) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// ParseCommand resolves a slash command name.
func ParseCommand(name string) CommandID {
	return commandsByName[name]
}

var manageServer = int64(discordgo.PermissionManageServer)

func idOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "id", Description: description, Required: true}
}

func fieldChoices(fields []string) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(fields))
	for _, f := range fields {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: f, Value: f})
	}
	return out
}

// recordSubcommands builds the menu/edit/delete/copy/list/refresh group shared
// by /schedule and /homework.
func recordSubcommands(noun string, editable []string) []*discordgo.ApplicationCommandOption {
	sub := func(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionSubCommand, Name: name, Description: description, Options: options}
	}
	return []*discordgo.ApplicationCommandOption{
		sub("menu", "Interactive "+noun+" builder (admin only)"),
		sub("edit", "Edit an existing "+noun,
			idOption(noun+" ID"),
			&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "field", Description: "Field to edit", Required: true, Choices: fieldChoices(editable)},
			&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "value", Description: "New value", Required: true},
		),
		sub("delete", "Delete a "+noun, idOption(noun+" ID")),
		sub("copy", "Copy a "+noun, idOption(noun+" ID")),
		sub("list", "List all "+noun+" entries"),
		sub("refresh", "Re-render every "+noun+" message"),
	}
}

// ApplicationCommands returns the slash command catalogue registered with Discord.
func ApplicationCommands() []*discordgo.ApplicationCommand {
	str := func(name, description string, required bool) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: name, Description: description, Required: required}
	}
	channel := &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         "channel",
		Description:  "Target channel",
		Required:     true,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
	}
	addSub := func(name, description string, option *discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionSubCommand, Name: name, Description: description, Options: []*discordgo.ApplicationCommandOption{option}}
	}

	homework := recordSubcommands("homework", application.HomeworkEditableFields)
	homework = append(homework, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        "done",
		Description: "Toggle your completion of an assignment",
		Options:     []*discordgo.ApplicationCommandOption{idOption("Homework ID")},
	})

	return []*discordgo.ApplicationCommand{
		{Name: CommandHelp.String(), Description: "List bot commands"},
		{Name: CommandStatus.String(), Description: "Set the bot activity (owner only)", Options: []*discordgo.ApplicationCommandOption{str("activity", "Activity text", true)}},
		{
			Name:                     CommandCreateDropdown.String(),
			Description:              "Post a role selection menu",
			DefaultMemberPermissions: &manageServer,
			Options: []*discordgo.ApplicationCommandOption{
				str("category", "Dropdown title", true),
				str("options", "Comma-separated role labels", true),
				str("roleids", "Comma-separated role IDs", true),
				str("description", "Embed description", false),
			},
		},
		{Name: CommandListDropdowns.String(), Description: "List role menus", DefaultMemberPermissions: &manageServer},
		{Name: CommandDeleteDropdown.String(), Description: "Delete a role menu", DefaultMemberPermissions: &manageServer, Options: []*discordgo.ApplicationCommandOption{idOption("Dropdown ID")}},
		{
			Name:                     CommandEditDropdown.String(),
			Description:              "Edit a role menu",
			DefaultMemberPermissions: &manageServer,
			Options: []*discordgo.ApplicationCommandOption{
				idOption("Dropdown ID"),
				{Type: discordgo.ApplicationCommandOptionString, Name: "field", Description: "Field to edit", Required: true, Choices: fieldChoices(application.DropdownEditableFields)},
				str("value", "New value", true),
			},
		},
		{Name: CommandCopyDropdown.String(), Description: "Repost a role menu", DefaultMemberPermissions: &manageServer, Options: []*discordgo.ApplicationCommandOption{idOption("Dropdown ID")}},
		{Name: CommandRefreshDropdowns.String(), Description: "Re-render every role menu", DefaultMemberPermissions: &manageServer},
		{Name: CommandSchedule.String(), Description: "Manage and create class schedules", Options: recordSubcommands("schedule", application.ScheduleEditableFields)},
		{Name: CommandHomework.String(), Description: "Manage and track homework", Options: homework},
		{
			Name:                     CommandScheduleAdd.String(),
			Description:              "Add builder options and channels",
			DefaultMemberPermissions: &manageServer,
			Options: []*discordgo.ApplicationCommandOption{
				addSub("professor", "Add a professor", str("name", "Professor name", true)),
				addSub("location", "Add a location", str("name", "Location", true)),
				addSub("classname", "Add a class name", str("name", "Class name", true)),
				addSub("date", "Add a date suggestion (YYYY-MM-DD)", str("name", "Date", true)),
				addSub("time", "Add a time (HH:MM or HH:MM - HH:MM)", str("name", "Time", true)),
				addSub("type", "Add a class type", str("name", "Class type", true)),
				addSub("channel", "Set the schedule channel", channel),
				addSub("reminderchannel", "Set the reminder channel", channel),
			},
		},
		{Name: CommandScheduleConfig.String(), Description: "Show builder configuration", DefaultMemberPermissions: &manageServer},
		{
			Name:                     CommandHomeworkAddChannel.String(),
			Description:              "Set the homework channel",
			DefaultMemberPermissions: &manageServer,
			Options:                  []*discordgo.ApplicationCommandOption{channel},
		},
	}
}

// helpLines is the /help listing.
var helpLines = []string{
	"**/schedule menu** opens the schedule builder; **edit, delete, copy, list, refresh** manage saved schedules",
	"**/homework menu** opens the homework builder; **done** toggles your completion",
	"**/createdropdown**, **/listdropdowns**, **/editdropdown**, **/copydropdown**, **/deletedropdown**, **/refreshdropdowns** manage role menus",
	"**/schedule_add** adds professors, locations, class names, dates, times, types and channels",
	"**/schedule_config** shows the builder configuration; **/homework_addchannel** sets the homework channel",
	"**/status** sets the bot activity (owner only)",
}
