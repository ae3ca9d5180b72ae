package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/example/classroom-bot/internal/application"
	"github.com/example/classroom-bot/internal/logging"
)

type builderService interface {
	OpenBuilder(ctx context.Context, principal application.Principal) (application.StepView, error)
	Choose(ctx context.Context, principal application.Principal, field, value string) error
	Next(ctx context.Context, principal application.Principal) (application.StepView, error)
	BuilderView(ctx context.Context, principal application.Principal) (application.StepView, error)
	CancelBuilder(ctx context.Context, principal application.Principal)
}

type scheduleService interface {
	builderService
	CompleteBuilder(ctx context.Context, principal application.Principal, values map[string]string) (application.Schedule, error)
	Edit(ctx context.Context, principal application.Principal, id, field, value string) (application.Schedule, error)
	Delete(ctx context.Context, principal application.Principal, id string) error
	Copy(ctx context.Context, principal application.Principal, id string) (application.Schedule, error)
	ListPages(ctx context.Context) ([]application.Message, error)
	Refresh(ctx context.Context, principal application.Principal) (application.RefreshReport, error)
}

type homeworkService interface {
	builderService
	CompleteBuilder(ctx context.Context, principal application.Principal, values map[string]string) (application.Homework, error)
	Edit(ctx context.Context, principal application.Principal, id, field, value string) (application.Homework, error)
	Delete(ctx context.Context, principal application.Principal, id string) error
	Copy(ctx context.Context, principal application.Principal, id string) (application.Homework, error)
	ListPages(ctx context.Context) ([]application.Message, error)
	Refresh(ctx context.Context, principal application.Principal) (application.RefreshReport, error)
	ToggleCompletion(ctx context.Context, principal application.Principal, id string) (bool, error)
}

type dropdownService interface {
	Create(ctx context.Context, principal application.Principal, params application.CreateDropdownParams) (application.Dropdown, error)
	Edit(ctx context.Context, principal application.Principal, id, field, value string) (application.Dropdown, error)
	Delete(ctx context.Context, principal application.Principal, id string) error
	Copy(ctx context.Context, principal application.Principal, id string) (application.Dropdown, error)
	ListPages(ctx context.Context) ([]application.Message, error)
	Refresh(ctx context.Context, principal application.Principal) (application.RefreshReport, error)
	Reconcile(ctx context.Context, guildID, userID, dropdownID string, held, selected []string) (application.ReconcileReport, error)
}

type configService interface {
	Get(ctx context.Context) (application.ScheduleConfig, error)
	AddValue(ctx context.Context, principal application.Principal, list application.ConfigList, value string) error
	SetChannel(ctx context.Context, principal application.Principal, target application.ChannelTarget, channelID string) error
}

type statusService interface {
	Set(ctx context.Context, principal application.Principal, activity string) error
}

// Services are the application services the router dispatches to.
type Services struct {
	Schedules scheduleService
	Homework  homeworkService
	Dropdowns dropdownService
	Config    configService
	Status    statusService
}

// interaction carries one inbound interaction through a handler.
type interaction struct {
	raw       *discordgo.Interaction
	principal application.Principal
	logger    *slog.Logger
}

type commandHandler func(ctx context.Context, in interaction) Reply

type componentHandler func(ctx context.Context, in interaction, ref ComponentRef) Reply

// Router classifies interactions and dispatches them through tables built
// once at construction.
type Router struct {
	services   Services
	ownerID    string
	logger     *slog.Logger
	commands   map[CommandID]commandHandler
	components map[ComponentKind]componentHandler
	builders   map[application.WizardKind]wizardFlow
}

// NewRouter constructs a router. ownerID identifies the bot owner for
// owner-only commands.
func NewRouter(services Services, ownerID string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{services: services, ownerID: ownerID, logger: logger}
	r.builders = map[application.WizardKind]wizardFlow{
		application.WizardSchedule: scheduleFlow(services.Schedules),
		application.WizardHomework: homeworkFlow(services.Homework),
	}
	r.commands = map[CommandID]commandHandler{
		CommandHelp:               r.help,
		CommandStatus:             r.status,
		CommandCreateDropdown:     r.createDropdown,
		CommandListDropdowns:      r.listDropdowns,
		CommandDeleteDropdown:     r.deleteDropdown,
		CommandEditDropdown:       r.editDropdown,
		CommandCopyDropdown:       r.copyDropdown,
		CommandRefreshDropdowns:   r.refreshDropdowns,
		CommandSchedule:           r.schedule,
		CommandHomework:           r.homework,
		CommandScheduleAdd:        r.scheduleAdd,
		CommandScheduleConfig:     r.scheduleConfig,
		CommandHomeworkAddChannel: r.homeworkAddChannel,
	}
	r.components = map[ComponentKind]componentHandler{
		ComponentWizardSelect: r.wizardSelect,
		ComponentWizardNext:   r.wizardNext,
		ComponentWizardCancel: r.wizardCancel,
		ComponentWizardModal:  r.wizardModalSubmit,
		ComponentRoleMenu:     r.roleMenu,
		ComponentHomeworkDone: r.homeworkDone,
	}
	return r
}

// Handle answers one interaction. It never returns nil for a non-ping interaction.
func (r *Router) Handle(ctx context.Context, i *discordgo.Interaction) Reply {
	if i.Type == discordgo.InteractionPing {
		return Reply{Response: &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}}
	}

	principal := r.principal(i)
	logger := r.logger.With("interaction_id", i.ID, "user_id", principal.UserID, "guild_id", i.GuildID)
	ctx = logging.ContextWithLogger(ctx, logger)
	in := interaction{raw: i, principal: principal, logger: logger}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		in.logger = logger.With("command", data.Name)
		handler, ok := r.commands[ParseCommand(data.Name)]
		if !ok {
			in.logger.WarnContext(ctx, "unknown command")
			return ephemeral("❌ Unknown command.")
		}
		return handler(ctx, in)

	case discordgo.InteractionMessageComponent, discordgo.InteractionModalSubmit:
		customID := componentCustomID(i)
		in.logger = logger.With("custom_id", customID)
		ref, err := ParseComponentID(customID)
		if err != nil {
			in.logger.WarnContext(ctx, "unknown component", "error", err)
			return ephemeral("❌ This control is no longer supported.")
		}
		// modal ids only arrive with modal submissions, everything else with components
		if (ref.Kind == ComponentWizardModal) != (i.Type == discordgo.InteractionModalSubmit) {
			in.logger.WarnContext(ctx, "component id does not match interaction type", "type", int(i.Type))
			return ephemeral("❌ This control is no longer supported.")
		}
		return r.components[ref.Kind](ctx, in, ref)
	}

	logger.WarnContext(ctx, "unsupported interaction type", "type", int(i.Type))
	return ephemeral("❌ Unsupported interaction.")
}

func componentCustomID(i *discordgo.Interaction) string {
	if i.Type == discordgo.InteractionModalSubmit {
		return i.ModalSubmitData().CustomID
	}
	return i.MessageComponentData().CustomID
}

func (r *Router) principal(i *discordgo.Interaction) application.Principal {
	var p application.Principal
	switch {
	case i.Member != nil && i.Member.User != nil:
		p.UserID = i.Member.User.ID
		p.IsAdmin = i.Member.Permissions&(discordgo.PermissionManageServer|discordgo.PermissionAdministrator) != 0
	case i.User != nil:
		p.UserID = i.User.ID
	}
	p.IsOwner = r.ownerID != "" && p.UserID == r.ownerID
	return p
}

// deferred answers slow handlers with a deferred acknowledgement. work runs
// after the acknowledgement is sent, with the interaction logger attached.
func (r *Router) deferred(in interaction, work func(ctx context.Context) Reply) Reply {
	return deferEphemeral(func(ctx context.Context) Reply {
		return work(logging.ContextWithLogger(ctx, in.logger))
	})
}

// fail logs err at a level matching its kind and renders it for the user.
func (r *Router) fail(ctx context.Context, in interaction, err error) Reply {
	kind := application.ErrorKind(err)
	switch kind {
	case "unexpected", "persistence":
		in.logger.ErrorContext(ctx, "interaction failed", "error", err, "error_kind", kind)
	case "mirror":
		in.logger.WarnContext(ctx, "interaction failed", "error", err, "error_kind", kind)
	default:
		in.logger.DebugContext(ctx, "interaction rejected", "error", err, "error_kind", kind)
	}
	return ephemeral(errorContent(err))
}

// options flattens command options, descending into a subcommand when
// present. It returns the subcommand name and the string values by name.
func options(data discordgo.ApplicationCommandInteractionData) (string, map[string]string) {
	opts := data.Options
	sub := ""
	if len(opts) == 1 && (opts[0].Type == discordgo.ApplicationCommandOptionSubCommand || opts[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup) {
		sub = opts[0].Name
		opts = opts[0].Options
	}
	values := make(map[string]string, len(opts))
	for _, opt := range opts {
		switch v := opt.Value.(type) {
		case string:
			values[opt.Name] = v
		case nil:
		default:
			values[opt.Name] = fmt.Sprint(v)
		}
	}
	return sub, values
}
