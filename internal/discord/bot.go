package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// interactionClient answers interactions over REST.
type interactionClient interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// commandRegistrar publishes the slash command catalogue.
type commandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// statusApplier restores the persisted presence once the gateway is ready.
type statusApplier interface {
	Apply(ctx context.Context) error
}

const (
	// handlerTimeout bounds the work done before the initial response.
	// Discord expects that response within three seconds, so slow handlers
	// defer and finish under deferredTimeout instead.
	handlerTimeout = 10 * time.Second
	// deferredTimeout stays well inside the 15 minute interaction token lifetime.
	deferredTimeout = 5 * time.Minute
)

// Bot connects the router to a gateway session.
type Bot struct {
	session *discordgo.Session
	router  *Router
	status  statusApplier
	logger  *slog.Logger
}

// NewSession creates a gateway session authenticated with token.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	return session, nil
}

// NewBot constructs a bot. status may be nil.
func NewBot(session *discordgo.Session, router *Router, status statusApplier, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{session: session, router: router, status: status, logger: logger}
}

// Run opens the gateway connection and serves interactions until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	removeReady := b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.logger.InfoContext(ctx, "gateway ready", "user", r.User.Username, "guilds", len(r.Guilds))
		if b.status == nil {
			return
		}
		if err := b.status.Apply(ctx); err != nil {
			b.logger.WarnContext(ctx, "failed to restore status", "error", err)
		}
	})
	defer removeReady()

	removeInteractions := b.session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		handlerCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		reply := b.router.Handle(handlerCtx, ic.Interaction)
		err := Respond(handlerCtx, s, ic.Interaction, reply)
		cancel()
		if err != nil {
			b.logger.ErrorContext(ctx, "failed to answer interaction", "interaction_id", ic.ID, "error", err)
			return
		}

		finishCtx, cancel := context.WithTimeout(ctx, deferredTimeout)
		defer cancel()
		if err := Finish(finishCtx, s, ic.Interaction, reply); err != nil {
			b.logger.ErrorContext(finishCtx, "failed to finish interaction", "interaction_id", ic.ID, "error", err)
		}
	})
	defer removeInteractions()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	b.logger.InfoContext(ctx, "gateway connected")

	<-ctx.Done()
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("discord: close gateway: %w", err)
	}
	b.logger.InfoContext(ctx, "gateway closed")
	return nil
}

// Deliver sends the initial response of reply and then finishes it.
func Deliver(ctx context.Context, client interactionClient, i *discordgo.Interaction, reply Reply) error {
	if err := Respond(ctx, client, i, reply); err != nil {
		return err
	}
	return Finish(ctx, client, i, reply)
}

// Respond sends the initial response of reply, if any.
func Respond(ctx context.Context, client interactionClient, i *discordgo.Interaction, reply Reply) error {
	if reply.Response == nil {
		return nil
	}
	if err := client.InteractionRespond(i, reply.Response, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: respond: %w", err)
	}
	return nil
}

// Finish completes an interaction whose initial response was sent. Deferred
// work runs and replaces the original response; follow-ups go last.
// Follow-up failures are joined; the first one does not stop the rest.
func Finish(ctx context.Context, client interactionClient, i *discordgo.Interaction, reply Reply) error {
	followups := reply.Followups
	if reply.Deferred != nil {
		result := reply.Deferred(ctx)
		if result.Response != nil && result.Response.Data != nil {
			data := result.Response.Data
			edit := &discordgo.WebhookEdit{Content: &data.Content}
			if data.Embeds != nil {
				edit.Embeds = &data.Embeds
			}
			if data.Components != nil {
				edit.Components = &data.Components
			}
			if _, err := client.InteractionResponseEdit(i, edit, discordgo.WithContext(ctx)); err != nil {
				return fmt.Errorf("discord: edit response: %w", err)
			}
		}
		followups = append(append([]*discordgo.WebhookParams(nil), followups...), result.Followups...)
	}
	return SendFollowups(ctx, client, i, followups)
}

// SendFollowups posts follow-up messages for an interaction that was already answered.
func SendFollowups(ctx context.Context, client interactionClient, i *discordgo.Interaction, followups []*discordgo.WebhookParams) error {
	var errs []error
	for _, params := range followups {
		if _, err := client.FollowupMessageCreate(i, false, params, discordgo.WithContext(ctx)); err != nil {
			errs = append(errs, fmt.Errorf("discord: follow-up: %w", err))
		}
	}
	return errors.Join(errs...)
}

// RegisterCommands overwrites the application's slash commands. An empty
// guildID registers them globally.
func RegisterCommands(ctx context.Context, client commandRegistrar, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	if appID == "" {
		return nil, errors.New("discord: application id is required to register commands")
	}
	created, err := client.ApplicationCommandBulkOverwrite(appID, guildID, ApplicationCommands(), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: register commands: %w", err)
	}
	return created, nil
}
