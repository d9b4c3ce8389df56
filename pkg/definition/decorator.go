package definition

import (
	"fmt"

	"github.com/goliatone/go-pipewizard/pkg/draft"
	"github.com/goliatone/go-pipewizard/pkg/wizard"
)

// Decorator applies flow layouts to wizard steps.
type Decorator struct {
	store *Store
}

// NewDecorator builds a Decorator backed by store. When store is nil or
// empty, the decorator is a no-op.
func NewDecorator(store *Store) *Decorator {
	return &Decorator{store: store}
}

// Decorate returns a copy of steps dressed with the layout of flow. Steps and
// fields without configuration are left untouched. A configured disabled rule
// adds to the step's own rule; a visibility rule narrows the field's own.
func (d *Decorator) Decorate(flow string, steps []wizard.Step) ([]wizard.Step, error) {
	out := make([]wizard.Step, len(steps))
	copy(out, steps)
	if d == nil || d.store.Empty() {
		return out, nil
	}
	layout, ok := d.store.Resolve(flow)
	if !ok {
		return out, nil
	}

	for i := range out {
		cfg, ok := layout.Steps[out[i].Name]
		if !ok {
			continue
		}
		if err := applyStep(&out[i], cfg); err != nil {
			return nil, fmt.Errorf("definition: flow %q step %q: %w", flow, out[i].Name, err)
		}
	}
	return out, nil
}

// Title returns the configured title of flow.
func (d *Decorator) Title(flow string) string {
	if d == nil {
		return ""
	}
	layout, _ := d.store.Resolve(flow)
	return layout.Title
}

func applyStep(step *wizard.Step, cfg StepConfig) error {
	step.Title = pick(cfg.Title, step.Title)
	step.Content = pick(cfg.Description, step.Content)

	if cfg.DisabledWhen != "" {
		rule, err := wizard.Rule(cfg.DisabledWhen)
		if err != nil {
			return err
		}
		step.Disabled = anyOf(step.Disabled, rule)
	}

	if len(cfg.Fields) == 0 {
		return nil
	}
	fields := make([]wizard.Field, len(step.Fields))
	copy(fields, step.Fields)
	for i := range fields {
		fc, ok := cfg.Fields[fields[i].Path]
		if !ok {
			continue
		}
		fields[i].Label = pick(fc.Label, fields[i].Label)
		fields[i].Help = pick(fc.Help, fields[i].Help)
		fields[i].Placeholder = pick(fc.Placeholder, fields[i].Placeholder)
		if len(fc.Options) > 0 {
			fields[i].Options = append([]string(nil), fc.Options...)
		}
		if fc.VisibleWhen != "" {
			rule, err := wizard.Rule(fc.VisibleWhen)
			if err != nil {
				return fmt.Errorf("field %q: %w", fields[i].Path, err)
			}
			fields[i].VisibleWhen = allOf(fields[i].VisibleWhen, rule)
		}
	}
	step.Fields = fields
	return nil
}

func anyOf(a, b func(draft.Draft) bool) func(draft.Draft) bool {
	if a == nil {
		return b
	}
	return func(d draft.Draft) bool { return a(d) || b(d) }
}

func allOf(a, b func(draft.Draft) bool) func(draft.Draft) bool {
	if a == nil {
		return b
	}
	return func(d draft.Draft) bool { return a(d) && b(d) }
}
