package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/example/classroom-bot/internal/application"
)

// recordCommands is the subcommand surface shared by /schedule and /homework.
type recordCommands struct {
	noun    string
	empty   string
	builder builderService
	edit    func(ctx context.Context, p application.Principal, id, field, value string) (string, error)
	copy    func(ctx context.Context, p application.Principal, id string) (string, error)
	delete  func(ctx context.Context, p application.Principal, id string) error
	list    func(ctx context.Context) ([]application.Message, error)
	refresh func(ctx context.Context, p application.Principal) (application.RefreshReport, error)
}

func (r *Router) scheduleCommands() recordCommands {
	s := r.services.Schedules
	return recordCommands{
		noun:    "Schedule",
		empty:   "No schedules found.",
		builder: s,
		edit: func(ctx context.Context, p application.Principal, id, field, value string) (string, error) {
			rec, err := s.Edit(ctx, p, id, field, value)
			return rec.ID, err
		},
		copy: func(ctx context.Context, p application.Principal, id string) (string, error) {
			rec, err := s.Copy(ctx, p, id)
			return rec.ID, err
		},
		delete:  s.Delete,
		list:    s.ListPages,
		refresh: s.Refresh,
	}
}

func (r *Router) homeworkCommands() recordCommands {
	s := r.services.Homework
	return recordCommands{
		noun:    "Homework",
		empty:   "No homework found.",
		builder: s,
		edit: func(ctx context.Context, p application.Principal, id, field, value string) (string, error) {
			rec, err := s.Edit(ctx, p, id, field, value)
			return rec.ID, err
		},
		copy: func(ctx context.Context, p application.Principal, id string) (string, error) {
			rec, err := s.Copy(ctx, p, id)
			return rec.ID, err
		},
		delete:  s.Delete,
		list:    s.ListPages,
		refresh: s.Refresh,
	}
}

// result renders a successful or partially successful outcome. A lagging
// mirror keeps the success text and appends a warning.
func (r *Router) result(ctx context.Context, in interaction, content string, err error) Reply {
	if err == nil {
		return ephemeral(content)
	}
	if application.IsMirrorWarning(err) {
		in.logger.WarnContext(ctx, "mirror message out of date", "error", err, "error_kind", application.ErrorKind(err))
		return ephemeral(withWarning(content, err))
	}
	return r.fail(ctx, in, err)
}

func refreshContent(noun string, report application.RefreshReport) string {
	content := fmt.Sprintf("🔄 Refreshed %d of %d %s messages.", report.Refreshed, report.Total, strings.ToLower(noun))
	if report.Failed > 0 {
		content += fmt.Sprintf("\n⚠️ %d could not be updated.", report.Failed)
	}
	return content
}

func (r *Router) help(_ context.Context, _ interaction) Reply {
	embed := &discordgo.MessageEmbed{
		Title:       "📚 Commands",
		Description: strings.Join(helpLines, "\n"),
		Color:       0x5865f2,
	}
	return ephemeralEmbeds("", []*discordgo.MessageEmbed{embed}, nil)
}

func (r *Router) status(ctx context.Context, in interaction) Reply {
	_, opts := options(in.raw.ApplicationCommandData())
	activity := opts["activity"]
	if err := r.services.Status.Set(ctx, in.principal, activity); err != nil {
		return r.fail(ctx, in, err)
	}
	return ephemeral(fmt.Sprintf("✅ Status set to **%s**.", strings.TrimSpace(activity)))
}

func (r *Router) createDropdown(ctx context.Context, in interaction) Reply {
	_, opts := options(in.raw.ApplicationCommandData())
	rec, err := r.services.Dropdowns.Create(ctx, in.principal, application.CreateDropdownParams{
		ChannelID:   in.raw.ChannelID,
		Category:    opts["category"],
		Description: opts["description"],
		Labels:      application.SplitList(opts["options"]),
		RoleIDs:     application.SplitList(opts["roleids"]),
	})
	if err != nil {
		return r.fail(ctx, in, err)
	}
	return ephemeral(fmt.Sprintf("✅ Dropdown created (ID: `%s`).", rec.ID))
}

func (r *Router) listDropdowns(_ context.Context, in interaction) Reply {
	return r.deferred(in, func(ctx context.Context) Reply {
		pages, err := r.services.Dropdowns.ListPages(ctx)
		if err != nil {
			return r.fail(ctx, in, err)
		}
		return pagedReply(pages, "No dropdowns found.")
	})
}

func (r *Router) deleteDropdown(ctx context.Context, in interaction) Reply {
	_, opts := options(in.raw.ApplicationCommandData())
	err := r.services.Dropdowns.Delete(ctx, in.principal, opts["id"])
	return r.result(ctx, in, fmt.Sprintf("🗑️ Dropdown `%s` deleted.", opts["id"]), err)
}

func (r *Router) editDropdown(ctx context.Context, in interaction) Reply {
	_, opts := options(in.raw.ApplicationCommandData())
	_, err := r.services.Dropdowns.Edit(ctx, in.principal, opts["id"], opts["field"], opts["value"])
	return r.result(ctx, in, fmt.Sprintf("✅ Dropdown `%s` updated.", opts["id"]), err)
}

func (r *Router) copyDropdown(ctx context.Context, in interaction) Reply {
	_, opts := options(in.raw.ApplicationCommandData())
	rec, err := r.services.Dropdowns.Copy(ctx, in.principal, opts["id"])
	if err != nil {
		return r.fail(ctx, in, err)
	}
	return ephemeral(fmt.Sprintf("📋 Dropdown copied (ID: `%s`).", rec.ID))
}

func (r *Router) refreshDropdowns(ctx context.Context, in interaction) Reply {
	if !in.principal.IsAdmin {
		return r.fail(ctx, in, application.ErrUnauthorized)
	}
	return r.deferred(in, func(ctx context.Context) Reply {
		report, err := r.services.Dropdowns.Refresh(ctx, in.principal)
		if err != nil {
			return r.fail(ctx, in, err)
		}
		return ephemeral(refreshContent("dropdown", report))
	})
}

func (r *Router) schedule(ctx context.Context, in interaction) Reply {
	return r.recordCommand(ctx, in, r.scheduleCommands())
}

func (r *Router) homework(ctx context.Context, in interaction) Reply {
	sub, opts := options(in.raw.ApplicationCommandData())
	if sub == "done" {
		return r.toggleDone(ctx, in, opts["id"])
	}
	return r.recordCommand(ctx, in, r.homeworkCommands())
}

func (r *Router) recordCommand(ctx context.Context, in interaction, cmds recordCommands) Reply {
	sub, opts := options(in.raw.ApplicationCommandData())
	switch sub {
	case "menu":
		view, err := cmds.builder.OpenBuilder(ctx, in.principal)
		if err != nil {
			return r.fail(ctx, in, err)
		}
		if view.Step.Modal {
			return modal(wizardModal(view))
		}
		embed, components := wizardScreen(view)
		return ephemeralEmbeds("", []*discordgo.MessageEmbed{embed}, components)

	case "edit":
		_, err := cmds.edit(ctx, in.principal, opts["id"], opts["field"], opts["value"])
		return r.result(ctx, in, fmt.Sprintf("✅ %s `%s` updated: **%s** = %s", cmds.noun, opts["id"], opts["field"], opts["value"]), err)

	case "delete":
		err := cmds.delete(ctx, in.principal, opts["id"])
		return r.result(ctx, in, fmt.Sprintf("🗑️ %s `%s` deleted.", cmds.noun, opts["id"]), err)

	case "copy":
		id, err := cmds.copy(ctx, in.principal, opts["id"])
		if err != nil {
			return r.fail(ctx, in, err)
		}
		return ephemeral(fmt.Sprintf("📋 %s copied (ID: `%s`).", cmds.noun, id))

	case "list":
		return r.deferred(in, func(ctx context.Context) Reply {
			pages, err := cmds.list(ctx)
			if err != nil {
				return r.fail(ctx, in, err)
			}
			return pagedReply(pages, cmds.empty)
		})

	case "refresh":
		if !in.principal.IsAdmin {
			return r.fail(ctx, in, application.ErrUnauthorized)
		}
		return r.deferred(in, func(ctx context.Context) Reply {
			report, err := cmds.refresh(ctx, in.principal)
			if err != nil {
				return r.fail(ctx, in, err)
			}
			return ephemeral(refreshContent(cmds.noun, report))
		})
	}

	in.logger.WarnContext(ctx, "unknown subcommand", "subcommand", sub)
	return ephemeral("❌ Unknown subcommand.")
}

// configLists maps /schedule_add subcommands to configuration lists.
var configLists = map[string]application.ConfigList{
	"professor": application.ListProfessors,
	"location":  application.ListLocations,
	"classname": application.ListClassnames,
	"date":      application.ListDates,
	"time":      application.ListTimes,
	"type":      application.ListTypes,
}

// channelTargets maps /schedule_add subcommands to channel targets.
var channelTargets = map[string]application.ChannelTarget{
	"channel":         application.ChannelSchedule,
	"reminderchannel": application.ChannelReminder,
}

func (r *Router) scheduleAdd(ctx context.Context, in interaction) Reply {
	sub, opts := options(in.raw.ApplicationCommandData())
	if list, ok := configLists[sub]; ok {
		value := strings.TrimSpace(opts["name"])
		if err := r.services.Config.AddValue(ctx, in.principal, list, value); err != nil {
			return r.fail(ctx, in, err)
		}
		return ephemeral(fmt.Sprintf("✅ Added **%s** to %s.", value, list))
	}
	if target, ok := channelTargets[sub]; ok {
		return r.setChannel(ctx, in, target, opts["channel"])
	}
	in.logger.WarnContext(ctx, "unknown subcommand", "subcommand", sub)
	return ephemeral("❌ Unknown subcommand.")
}

func (r *Router) setChannel(ctx context.Context, in interaction, target application.ChannelTarget, channelID string) Reply {
	if err := r.services.Config.SetChannel(ctx, in.principal, target, channelID); err != nil {
		return r.fail(ctx, in, err)
	}
	return ephemeral(fmt.Sprintf("✅ %s channel set to <#%s>.", strings.ToUpper(string(target[:1]))+string(target[1:]), channelID))
}

func (r *Router) scheduleConfig(ctx context.Context, in interaction) Reply {
	if !in.principal.IsAdmin {
		return r.fail(ctx, in, application.ErrUnauthorized)
	}
	cfg, err := r.services.Config.Get(ctx)
	if err != nil {
		return r.fail(ctx, in, err)
	}
	return ephemeralEmbeds("", toEmbeds(application.ConfigSummary(cfg)), nil)
}

func (r *Router) homeworkAddChannel(ctx context.Context, in interaction) Reply {
	_, opts := options(in.raw.ApplicationCommandData())
	return r.setChannel(ctx, in, application.ChannelHomework, opts["channel"])
}
