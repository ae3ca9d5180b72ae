package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/example/classroom-bot/internal/application"
)

// wizardFlow binds a builder kind to its service and the message shown once
// the record is created.
type wizardFlow struct {
	builder  builderService
	complete func(ctx context.Context, p application.Principal, values map[string]string) (string, error)
}

func scheduleFlow(s scheduleService) wizardFlow {
	return wizardFlow{
		builder: s,
		complete: func(ctx context.Context, p application.Principal, values map[string]string) (string, error) {
			rec, err := s.CompleteBuilder(ctx, p, values)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("✅ Schedule created in <#%s> (ID: `%s`).", rec.ChannelID, rec.ID), nil
		},
	}
}

func homeworkFlow(s homeworkService) wizardFlow {
	return wizardFlow{
		builder: s,
		complete: func(ctx context.Context, p application.Principal, values map[string]string) (string, error) {
			rec, err := s.CompleteBuilder(ctx, p, values)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("✅ Homework created in <#%s> (ID: `%s`).", rec.ChannelID, rec.ID), nil
		},
	}
}

func (r *Router) flow(ref ComponentRef) (wizardFlow, bool) {
	f, ok := r.builders[ref.Wizard]
	return f, ok && f.builder != nil
}

// stepReply renders a builder step in place of the message the component
// belongs to, or opens the details modal.
func stepReply(view application.StepView) Reply {
	if view.Step.Modal {
		return modal(wizardModal(view))
	}
	embed, components := wizardScreen(view)
	return updateMessage("", []*discordgo.MessageEmbed{embed}, components)
}

func (r *Router) wizardSelect(ctx context.Context, in interaction, ref ComponentRef) Reply {
	flow, ok := r.flow(ref)
	if !ok {
		return ephemeral("❌ This builder is not available.")
	}
	values := in.raw.MessageComponentData().Values
	if len(values) == 0 {
		return acknowledge()
	}
	if err := flow.builder.Choose(ctx, in.principal, ref.Field, values[0]); err != nil {
		return r.fail(ctx, in, err)
	}
	view, err := flow.builder.BuilderView(ctx, in.principal)
	if err != nil {
		return r.fail(ctx, in, err)
	}
	embed, components := wizardScreen(view)
	return updateMessage("", []*discordgo.MessageEmbed{embed}, components)
}

func (r *Router) wizardNext(ctx context.Context, in interaction, ref ComponentRef) Reply {
	flow, ok := r.flow(ref)
	if !ok {
		return ephemeral("❌ This builder is not available.")
	}
	current, err := flow.builder.BuilderView(ctx, in.principal)
	if err != nil {
		return r.fail(ctx, in, err)
	}
	// The details modal was dismissed; show it again.
	if current.Step.Modal {
		return modal(wizardModal(current))
	}
	view, err := flow.builder.Next(ctx, in.principal)
	if err != nil {
		return r.fail(ctx, in, err)
	}
	return stepReply(view)
}

func (r *Router) wizardCancel(ctx context.Context, in interaction, ref ComponentRef) Reply {
	if flow, ok := r.flow(ref); ok {
		flow.builder.CancelBuilder(ctx, in.principal)
	}
	return updateMessage("✖ Builder cancelled.", nil, nil)
}

func (r *Router) wizardModalSubmit(ctx context.Context, in interaction, ref ComponentRef) Reply {
	flow, ok := r.flow(ref)
	if !ok {
		return ephemeral("❌ This builder is not available.")
	}
	content, err := flow.complete(ctx, in.principal, modalValues(in.raw.ModalSubmitData()))
	if err != nil {
		return r.fail(ctx, in, err)
	}
	in.logger.InfoContext(ctx, "builder completed", "wizard", string(ref.Wizard))
	return updateMessage(content, nil, nil)
}

func (r *Router) roleMenu(_ context.Context, in interaction, ref ComponentRef) Reply {
	selected := in.raw.MessageComponentData().Values
	var held []string
	if in.raw.Member != nil {
		held = in.raw.Member.Roles
	}
	return r.deferred(in, func(ctx context.Context) Reply {
		return r.reconcileRoles(ctx, in, ref, held, selected)
	})
}

func (r *Router) reconcileRoles(ctx context.Context, in interaction, ref ComponentRef, held, selected []string) Reply {
	report, err := r.services.Dropdowns.Reconcile(ctx, in.raw.GuildID, in.principal.UserID, ref.RecordID, held, selected)
	if err != nil {
		return r.fail(ctx, in, err)
	}

	content := "✅ Roles cleared."
	if len(report.Granted) > 0 {
		content = "✅ Roles updated: " + strings.Join(report.Granted, ", ") + "."
	}
	if report.Failed > 0 {
		content += fmt.Sprintf("\n⚠️ %d role change(s) failed. Check the bot's role position.", report.Failed)
	}
	return ephemeral(content)
}

func (r *Router) homeworkDone(ctx context.Context, in interaction, ref ComponentRef) Reply {
	return r.toggleDone(ctx, in, ref.RecordID)
}

func (r *Router) toggleDone(ctx context.Context, in interaction, id string) Reply {
	done, err := r.services.Homework.ToggleCompletion(ctx, in.principal, id)
	content := "↩️ Marked as not done."
	if done {
		content = "✅ Marked as done."
	}
	return r.result(ctx, in, content, err)
}
