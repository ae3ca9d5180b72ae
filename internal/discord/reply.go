package discord

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/example/classroom-bot/internal/application"
)

// Reply is the complete answer to one interaction: the initial response and
// any follow-up messages sent after it.
type Reply struct {
	Response  *discordgo.InteractionResponse
	Followups []*discordgo.WebhookParams
	// Deferred produces the real answer once Response, a deferred
	// acknowledgement, has been sent. Its response data replaces the
	// original message and its follow-ups are posted after that.
	Deferred func(ctx context.Context) Reply
}

// deferEphemeral acknowledges at once and leaves the answer to work.
func deferEphemeral(work func(ctx context.Context) Reply) Reply {
	return Reply{
		Response: &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
		},
		Deferred: work,
	}
}

const mirrorWarning = "⚠️ Saved, but the posted message could not be updated."

func ephemeral(content string) Reply {
	return Reply{Response: &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral},
	}}
}

func ephemeralEmbeds(content string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) Reply {
	return Reply{Response: &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     embeds,
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	}}
}

// updateMessage replaces the message the component is attached to.
func updateMessage(content string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) Reply {
	if embeds == nil {
		embeds = []*discordgo.MessageEmbed{}
	}
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	return Reply{Response: &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{Content: content, Embeds: embeds, Components: components},
	}}
}

// acknowledge defers an update without changing the message.
func acknowledge() Reply {
	return Reply{Response: &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}}
}

func modal(data *discordgo.InteractionResponseData) Reply {
	return Reply{Response: &discordgo.InteractionResponse{Type: discordgo.InteractionResponseModal, Data: data}}
}

// pagedReply sends the first page as the response and the rest as
// ephemeral follow-ups. No pages yields the empty message.
func pagedReply(pages []application.Message, empty string) Reply {
	if len(pages) == 0 {
		return ephemeral(empty)
	}
	reply := ephemeralEmbeds("", toEmbeds(pages[0]), nil)
	for _, page := range pages[1:] {
		reply.Followups = append(reply.Followups, &discordgo.WebhookParams{
			Embeds: toEmbeds(page),
			Flags:  discordgo.MessageFlagsEphemeral,
		})
	}
	return reply
}

// withWarning appends the mirror warning when err is a lagging-mirror error.
func withWarning(content string, err error) string {
	if application.IsMirrorWarning(err) {
		return content + "\n" + mirrorWarning
	}
	return content
}

// errorContent turns a service error into the text shown to the user.
func errorContent(err error) string {
	var (
		vErr       *application.ValidationError
		missing    *application.MissingFieldError
		missingCfg *application.MissingConfigurationError
		pErr       *application.PersistenceError
		mErr       *application.MirrorError
	)
	switch {
	case errors.Is(err, application.ErrUnauthorized):
		return "🚫 Admins only."
	case errors.Is(err, application.ErrSessionNotFound):
		return "⚠️ Menu session expired. Run the menu command again."
	case errors.Is(err, application.ErrNotFound):
		return "❌ Not found."
	case errors.Is(err, application.ErrAlreadyExists):
		return "⚠️ That value already exists."
	case errors.As(err, &missingCfg):
		return "⚠️ Configure these first: " + strings.Join(missingCfg.Missing, ", ") + "."
	case errors.As(err, &missing):
		return "⚠️ Please select **" + missing.Field + "** first."
	case errors.As(err, &vErr):
		return "⚠️ " + strings.Join(vErr.Messages(), "\n⚠️ ")
	case errors.As(err, &mErr):
		return "❌ Failed to post the message. Check the bot's permissions in that channel."
	case errors.As(err, &pErr):
		return "❌ The change could not be saved. Please try again."
	}
	return "❌ Something went wrong."
}
