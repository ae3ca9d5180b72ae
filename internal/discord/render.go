package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/example/classroom-bot/internal/application"
)

// Discord limits.
const (
	maxSelectOptions = 25
	maxOptionLength  = 100
	maxEmbedsPerSend = 10
)

func toEmbed(msg application.Message) *discordgo.MessageEmbed {
	if msg.Title == "" && msg.Description == "" && len(msg.Fields) == 0 {
		return nil
	}
	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       msg.Color,
	}
	for _, f := range msg.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if msg.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: msg.Footer}
	}
	return embed
}

func toEmbeds(msgs ...application.Message) []*discordgo.MessageEmbed {
	out := make([]*discordgo.MessageEmbed, 0, len(msgs))
	for _, msg := range msgs {
		if embed := toEmbed(msg); embed != nil {
			out = append(out, embed)
		}
	}
	return out
}

func buttonStyle(style application.ButtonStyle) discordgo.ButtonStyle {
	switch style {
	case application.ButtonSecondary:
		return discordgo.SecondaryButton
	case application.ButtonSuccess:
		return discordgo.SuccessButton
	case application.ButtonDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}

func selectMenu(menu application.SelectMenu) discordgo.SelectMenu {
	options := make([]discordgo.SelectMenuOption, 0, len(menu.Options))
	for _, opt := range menu.Options {
		options = append(options, discordgo.SelectMenuOption{
			Label:       truncate(opt.Label, maxOptionLength),
			Value:       truncate(opt.Value, maxOptionLength),
			Description: truncate(opt.Description, maxOptionLength),
		})
	}
	minValues := menu.MinValues
	return discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    menu.CustomID,
		Placeholder: menu.Placeholder,
		MinValues:   &minValues,
		MaxValues:   menu.MaxValues,
		Options:     options,
	}
}

// toComponents renders the select menu and buttons of msg as action rows.
func toComponents(msg application.Message) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	if msg.Select != nil && len(msg.Select.Options) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{selectMenu(*msg.Select)}})
	}
	if len(msg.Buttons) > 0 {
		buttons := make([]discordgo.MessageComponent, 0, len(msg.Buttons))
		for _, b := range msg.Buttons {
			buttons = append(buttons, discordgo.Button{CustomID: b.CustomID, Label: b.Label, Style: buttonStyle(b.Style)})
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	return rows
}

func truncate(value string, limit int) string {
	r := []rune(value)
	if len(r) <= limit {
		return value
	}
	return string(r[:limit-1]) + "…"
}

// wizardScreen renders a select step of a builder: one select per field and
// a row with the next and cancel buttons.
func wizardScreen(view application.StepView) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := &discordgo.MessageEmbed{
		Title:       view.Title + " – " + view.Step.Title,
		Description: view.Step.Description,
		Color:       0x5865f2,
	}
	if len(view.Values) > 0 {
		for _, step := range application.WizardSchemas[view.Kind].Steps {
			for _, f := range step.Fields {
				if v, ok := view.Values[f.Name]; ok {
					embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Label, Value: v, Inline: true})
				}
			}
		}
	}

	var rows []discordgo.MessageComponent
	for _, f := range view.Step.Fields {
		if f.Input != application.InputSelect {
			continue
		}
		options := make([]discordgo.SelectMenuOption, 0, len(view.Options[f.Name]))
		for i, value := range view.Options[f.Name] {
			if i == maxSelectOptions {
				break
			}
			options = append(options, discordgo.SelectMenuOption{
				Label:   truncate(value, maxOptionLength),
				Value:   truncate(value, maxOptionLength),
				Default: view.Values[f.Name] == value,
			})
		}
		one := 1
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    wizardSelectID(view.Kind, f.Name),
				Placeholder: "Select " + f.Label,
				MinValues:   &one,
				MaxValues:   1,
				Options:     options,
			},
		}})
	}

	nextLabel := "➡️ Next"
	if view.Index+1 == view.StepCount-1 && application.WizardSchemas[view.Kind].Steps[view.StepCount-1].Modal {
		nextLabel = "📝 Details"
	}
	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{CustomID: wizardNextID(view.Kind), Label: nextLabel, Style: discordgo.PrimaryButton},
		discordgo.Button{CustomID: wizardCancelID(view.Kind), Label: "✖ Cancel", Style: discordgo.SecondaryButton},
	}})
	return embed, rows
}

// wizardModal renders a modal step of a builder.
func wizardModal(view application.StepView) *discordgo.InteractionResponseData {
	var rows []discordgo.MessageComponent
	for _, f := range view.Step.Fields {
		style := discordgo.TextInputShort
		if f.Paragraph {
			style = discordgo.TextInputParagraph
		}
		placeholder := f.Placeholder
		if opts := view.Options[f.Name]; len(opts) > 0 {
			placeholder = strings.Join(opts, ", ")
		}
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    f.Name,
				Label:       truncate(f.Label, 45),
				Style:       style,
				Placeholder: truncate(placeholder, maxOptionLength),
				Value:       view.Values[f.Name],
				Required:    f.Required,
			},
		}})
	}
	return &discordgo.InteractionResponseData{
		CustomID:   wizardModalID(view.Kind),
		Title:      truncate(view.Step.Title, 45),
		Components: rows,
	}
}

// modalValues flattens the text inputs of a submitted modal.
func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	out := make(map[string]string)
	for _, row := range data.Components {
		actions, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range actions.Components {
			if input, ok := c.(*discordgo.TextInput); ok {
				out[input.CustomID] = input.Value
			}
		}
	}
	return out
}
