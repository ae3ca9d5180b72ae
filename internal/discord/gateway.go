package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/example/classroom-bot/internal/application"
)

// restClient is the subset of *discordgo.Session the gateway calls.
type restClient interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	UpdateGameStatus(idle int, name string) error
}

// Gateway performs chat side effects for the application layer. It
// implements application.MessageMirror, application.RoleGateway and
// application.ActivitySetter.
type Gateway struct {
	client restClient
}

var (
	_ application.MessageMirror  = (*Gateway)(nil)
	_ application.RoleGateway    = (*Gateway)(nil)
	_ application.ActivitySetter = (*Gateway)(nil)
)

// NewGateway wraps a discordgo session or any client with the same methods.
func NewGateway(client restClient) *Gateway {
	return &Gateway{client: client}
}

// Send posts msg to channelID and returns the new message id.
func (g *Gateway) Send(ctx context.Context, channelID string, msg application.Message) (string, error) {
	sent, err := g.client.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    msg.Content,
		Embeds:     toEmbeds(msg),
		Components: toComponents(msg),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("discord: send message to %s: %w", channelID, err)
	}
	return sent.ID, nil
}

// Edit replaces the content, embeds and components of an existing message.
func (g *Gateway) Edit(ctx context.Context, channelID, messageID string, msg application.Message) error {
	content := msg.Content
	embeds := toEmbeds(msg)
	components := toComponents(msg)
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	_, err := g.client.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: edit message %s: %w", messageID, err)
	}
	return nil
}

// Delete removes a message.
func (g *Gateway) Delete(ctx context.Context, channelID, messageID string) error {
	if err := g.client.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: delete message %s: %w", messageID, err)
	}
	return nil
}

// AddRole grants roleID to a guild member.
func (g *Gateway) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := g.client.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: add role %s: %w", roleID, err)
	}
	return nil
}

// RemoveRole revokes roleID from a guild member.
func (g *Gateway) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := g.client.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: remove role %s: %w", roleID, err)
	}
	return nil
}

// SetActivity sets the "Playing" presence. It requires an open gateway connection.
func (g *Gateway) SetActivity(_ context.Context, activity string) error {
	if err := g.client.UpdateGameStatus(0, activity); err != nil {
		return fmt.Errorf("discord: update status: %w", err)
	}
	return nil
}
