package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
)

type interactionStub struct {
	calls       []string
	responses   []*discordgo.InteractionResponse
	edits       []*discordgo.WebhookEdit
	followups   []*discordgo.WebhookParams
	respondErr  error
	editErr     error
	followupErr error
}

func (s *interactionStub) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	if s.respondErr != nil {
		return s.respondErr
	}
	s.calls = append(s.calls, "respond")
	s.responses = append(s.responses, resp)
	return nil
}

func (s *interactionStub) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if s.editErr != nil {
		return nil, s.editErr
	}
	s.calls = append(s.calls, "edit")
	s.edits = append(s.edits, edit)
	return &discordgo.Message{}, nil
}

func (s *interactionStub) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if s.followupErr != nil {
		return nil, s.followupErr
	}
	s.calls = append(s.calls, "followup")
	s.followups = append(s.followups, data)
	return &discordgo.Message{}, nil
}

func TestDeliverSendsResponseThenFollowups(t *testing.T) {
	t.Parallel()

	stub := &interactionStub{}
	reply := ephemeral("first")
	reply.Followups = []*discordgo.WebhookParams{{Content: "second"}, {Content: "third"}}

	if err := Deliver(context.Background(), stub, &discordgo.Interaction{}, reply); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if len(stub.responses) != 1 || len(stub.followups) != 2 {
		t.Fatalf("unexpected calls: %d responses, %d follow-ups", len(stub.responses), len(stub.followups))
	}
}

func TestDeliverStopsWhenResponseFails(t *testing.T) {
	t.Parallel()

	cause := errors.New("unknown interaction")
	stub := &interactionStub{respondErr: cause}
	reply := ephemeral("first")
	reply.Followups = []*discordgo.WebhookParams{{Content: "second"}}

	if err := Deliver(context.Background(), stub, &discordgo.Interaction{}, reply); !errors.Is(err, cause) {
		t.Fatalf("expected respond error, got %v", err)
	}
	if len(stub.followups) != 0 {
		t.Fatalf("expected no follow-ups after a failed response")
	}
}

func TestDeliverRunsDeferredWorkAfterAcknowledging(t *testing.T) {
	t.Parallel()

	stub := &interactionStub{}
	var ranAfter []string
	reply := deferEphemeral(func(context.Context) Reply {
		ranAfter = append([]string(nil), stub.calls...)
		result := ephemeralEmbeds("", []*discordgo.MessageEmbed{{Title: "page 1"}}, nil)
		result.Followups = []*discordgo.WebhookParams{{Content: "page 2"}}
		return result
	})

	if err := Deliver(context.Background(), stub, &discordgo.Interaction{}, reply); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"respond"}, ranAfter); diff != "" {
		t.Fatalf("deferred work must run after the acknowledgement (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"respond", "edit", "followup"}, stub.calls); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
	if stub.responses[0].Type != discordgo.InteractionResponseDeferredChannelMessageWithSource {
		t.Fatalf("expected a deferred acknowledgement, got %v", stub.responses[0].Type)
	}
	edit := stub.edits[0]
	if edit.Embeds == nil || len(*edit.Embeds) != 1 || (*edit.Embeds)[0].Title != "page 1" {
		t.Fatalf("expected the first page in the edit, got %+v", edit)
	}
	if edit.Components != nil {
		t.Fatalf("expected components to be left alone, got %+v", *edit.Components)
	}
}

func TestFinishReportsEditFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("unknown webhook")
	stub := &interactionStub{editErr: cause}
	reply := deferEphemeral(func(context.Context) Reply { return ephemeral("done") })
	if err := Finish(context.Background(), stub, &discordgo.Interaction{}, reply); !errors.Is(err, cause) {
		t.Fatalf("expected edit error, got %v", err)
	}
}

func TestSendFollowupsJoinsErrors(t *testing.T) {
	t.Parallel()

	cause := errors.New("rate limited")
	stub := &interactionStub{followupErr: cause}
	err := SendFollowups(context.Background(), stub, &discordgo.Interaction{}, []*discordgo.WebhookParams{{}, {}})
	if !errors.Is(err, cause) {
		t.Fatalf("expected joined error, got %v", err)
	}
}

type registrarStub struct {
	appID, guildID string
	commands       []*discordgo.ApplicationCommand
}

func (s *registrarStub) ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	s.appID, s.guildID, s.commands = appID, guildID, commands
	return commands, nil
}

func TestRegisterCommands(t *testing.T) {
	t.Parallel()

	stub := &registrarStub{}
	created, err := RegisterCommands(context.Background(), stub, "app", "guild")
	if err != nil {
		t.Fatalf("RegisterCommands returned error: %v", err)
	}
	if stub.appID != "app" || stub.guildID != "guild" || len(created) != len(commandNames) {
		t.Fatalf("unexpected registration: app=%q guild=%q commands=%d", stub.appID, stub.guildID, len(created))
	}

	if _, err := RegisterCommands(context.Background(), stub, "", ""); err == nil {
		t.Fatalf("expected an error without an application id")
	}
}
