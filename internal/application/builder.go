package application

import (
	"context"
	"fmt"
)

// builder wires one wizard kind to the configuration it draws options from.
type builder struct {
	kind    WizardKind
	wizards *WizardManager
	config  *ConfigService
}

func (b builder) open(ctx context.Context, principal Principal) (StepView, error) {
	if !principal.IsAdmin {
		return StepView{}, ErrUnauthorized
	}
	if b.wizards == nil || b.config == nil {
		return StepView{}, fmt.Errorf("application: %s builder not configured", b.kind)
	}

	cfg, err := b.config.Get(ctx)
	if err != nil {
		return StepView{}, err
	}
	lists, err := b.config.Lists(ctx)
	if err != nil {
		return StepView{}, err
	}

	schema := b.wizards.schemas[b.kind]
	return b.wizards.Open(ctx, principal.UserID, b.kind, cfg.Channel(schema.ChannelTarget), lists)
}

func (b builder) choose(ctx context.Context, principal Principal, field, value string) error {
	return b.wizards.RecordSelection(ctx, principal.UserID, b.kind, field, value)
}

func (b builder) next(ctx context.Context, principal Principal) (StepView, error) {
	return b.wizards.Advance(ctx, principal.UserID, b.kind)
}

// complete records the submitted values of the current (modal) step in
// declared order and finalizes the session.
func (b builder) complete(ctx context.Context, principal Principal, values map[string]string) (FinalizedWizard, error) {
	view, err := b.wizards.Current(ctx, principal.UserID, b.kind)
	if err != nil {
		return FinalizedWizard{}, err
	}
	for _, f := range view.Step.Fields {
		value, ok := values[f.Name]
		if !ok {
			continue
		}
		if err := b.wizards.RecordSelection(ctx, principal.UserID, b.kind, f.Name, value); err != nil {
			return FinalizedWizard{}, err
		}
	}
	return b.wizards.Finalize(ctx, principal.UserID, b.kind)
}

func (b builder) current(ctx context.Context, principal Principal) (StepView, error) {
	return b.wizards.Current(ctx, principal.UserID, b.kind)
}

func (b builder) cancel(ctx context.Context, principal Principal) {
	b.wizards.Abandon(ctx, principal.UserID, b.kind)
}
