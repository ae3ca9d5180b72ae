package discord

import (
	"fmt"
	"strings"

	"github.com/example/classroom-bot/internal/application"
)

// ComponentKind is the closed set of message components and modals the bot
// answers.
type ComponentKind int

const (
	ComponentUnknown ComponentKind = iota
	// ComponentWizardSelect is a builder select menu; Field names the value.
	ComponentWizardSelect
	// ComponentWizardNext advances the builder or opens its details modal.
	ComponentWizardNext
	// ComponentWizardCancel abandons the builder.
	ComponentWizardCancel
	// ComponentWizardModal is the submitted details modal.
	ComponentWizardModal
	// ComponentRoleMenu is a role select menu; RecordID is the dropdown id.
	ComponentRoleMenu
	// ComponentHomeworkDone is the "Mark done" button; RecordID is the homework id.
	ComponentHomeworkDone
)

// ComponentRef is a parsed component custom id.
type ComponentRef struct {
	Kind     ComponentKind
	Wizard   application.WizardKind
	Field    string
	RecordID string
}

const wizardPrefix = "wiz:"

// roleMenuPrefix is the id prefix of dropdown records, which role menus use
// as their custom id.
const roleMenuPrefix = "dropdown-"

func wizardSelectID(kind application.WizardKind, field string) string {
	return wizardPrefix + string(kind) + ":select:" + field
}

func wizardNextID(kind application.WizardKind) string {
	return wizardPrefix + string(kind) + ":next"
}

func wizardCancelID(kind application.WizardKind) string {
	return wizardPrefix + string(kind) + ":cancel"
}

func wizardModalID(kind application.WizardKind) string {
	return wizardPrefix + string(kind) + ":modal"
}

// ParseComponentID classifies a custom id. Unknown ids are rejected.
func ParseComponentID(customID string) (ComponentRef, error) {
	switch {
	case strings.HasPrefix(customID, application.HomeworkDoneButtonPrefix):
		id := strings.TrimPrefix(customID, application.HomeworkDoneButtonPrefix)
		if id == "" {
			break
		}
		return ComponentRef{Kind: ComponentHomeworkDone, RecordID: id}, nil
	case strings.HasPrefix(customID, roleMenuPrefix):
		return ComponentRef{Kind: ComponentRoleMenu, RecordID: customID}, nil
	case strings.HasPrefix(customID, wizardPrefix):
		return parseWizardID(customID)
	}
	return ComponentRef{}, fmt.Errorf("discord: unknown component id %q", customID)
}

func parseWizardID(customID string) (ComponentRef, error) {
	parts := strings.Split(strings.TrimPrefix(customID, wizardPrefix), ":")
	kind := application.WizardKind(parts[0])
	if _, ok := application.WizardSchemas[kind]; !ok {
		return ComponentRef{}, fmt.Errorf("discord: unknown builder in component id %q", customID)
	}

	ref := ComponentRef{Wizard: kind}
	switch {
	case len(parts) == 3 && parts[1] == "select" && parts[2] != "":
		ref.Kind = ComponentWizardSelect
		ref.Field = parts[2]
	case len(parts) == 2 && parts[1] == "next":
		ref.Kind = ComponentWizardNext
	case len(parts) == 2 && parts[1] == "cancel":
		ref.Kind = ComponentWizardCancel
	case len(parts) == 2 && parts[1] == "modal":
		ref.Kind = ComponentWizardModal
	default:
		return ComponentRef{}, fmt.Errorf("discord: unknown component id %q", customID)
	}
	return ref, nil
}
