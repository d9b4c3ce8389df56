// Package terminal drives a wizard session from an interactive terminal.
// Each step's visible fields are prompted in order, then the user picks the
// next action; conflicts returned on submit are answered through the same
// prompt driver.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goliatone/go-pipewizard/pkg/review"
	"github.com/goliatone/go-pipewizard/pkg/wizard"
)

// Step menu actions.
const (
	ActionNext   = "Next"
	ActionBack   = "Back"
	ActionReview = "Review"
	ActionSubmit = "Submit"
	ActionCancel = "Cancel"
)

// Result reports how a session ended.
type Result struct {
	ID      string
	Session string
}

// Runner prompts a Controller to completion.
type Runner struct {
	driver PromptDriver
	review *review.Renderer
	theme  Theme
	logger *slog.Logger
}

// New constructs a runner with defaults (survey driver, bundled review
// templates).
func New(options ...Option) (*Runner, error) {
	r := &Runner{
		theme:  DefaultTheme,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	if r.review == nil {
		renderer, err := review.New()
		if err != nil {
			return nil, err
		}
		r.review = renderer
	}
	return r, nil
}

// Run prompts until the wizard is submitted, the user cancels or the driver
// fails.
func (r *Runner) Run(ctx context.Context, title string, c *wizard.Controller) (Result, error) {
	if c == nil {
		return Result{}, ErrNilController
	}
	result := Result{Session: c.Session()}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		switch c.State() {
		case wizard.StateDone:
			result.ID = c.ResultID()
			return result, nil
		case wizard.StateConflict:
			if err := r.resolveConflict(ctx, c); err != nil {
				return result, err
			}
			continue
		}

		if err := r.promptStep(ctx, c); err != nil {
			return result, err
		}
		if err := r.chooseAction(ctx, title, c); err != nil {
			return result, err
		}
	}
}

func (r *Runner) promptStep(ctx context.Context, c *wizard.Controller) error {
	step := c.Step()
	header := fmt.Sprintf("%sStep %d of %d: %s", r.theme.StepPrefix, c.Current()+1, len(c.Steps()), pick(step.Title, step.Name))
	if err := r.driver.Info(ctx, header); err != nil {
		return err
	}
	if step.Content != "" {
		if err := r.info(ctx, step.Content); err != nil {
			return err
		}
	}

	for _, field := range step.Fields {
		// Visibility can depend on a field answered earlier in this step.
		if !field.Visible(c.Draft()) {
			continue
		}
		err := r.promptField(ctx, c, field)
		if errors.Is(err, wizard.ErrNoSteps) {
			err = r.fail(ctx, fmt.Sprintf("%s: that answer would leave no step to complete", pick(field.Label, field.Path)))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// chooseAction loops on the step menu until the step changes, the session
// ends or a validation failure sends the user back to the fields.
func (r *Runner) chooseAction(ctx context.Context, title string, c *wizard.Controller) error {
	for {
		actions := r.actions(c)
		idx, err := r.driver.Select(ctx, SelectConfig{Message: "Next action", Options: actions})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(actions) {
			continue
		}
		action := actions[idx]
		r.logger.Debug("terminal action", "session", c.Session(), "step", c.Step().Name, "action", action)

		switch action {
		case ActionNext:
			return r.reportStep(ctx, c.Next())
		case ActionBack:
			return c.Previous()
		case ActionCancel:
			return ErrCancelled
		case ActionReview:
			summary := review.Summarize(title, c.Steps(), c.Draft(), c.Errors())
			out, err := r.review.Review(summary)
			if err != nil {
				return err
			}
			if err := r.driver.Info(ctx, out); err != nil {
				return err
			}
		case ActionSubmit:
			outcome, err := c.Submit(ctx)
			var stepErr *wizard.StepError
			switch {
			case errors.As(err, &stepErr):
				return r.reportStep(ctx, err)
			case outcome == wizard.OutcomeFailed:
				r.logger.Warn("terminal submit failed", "session", c.Session(), "error", err)
				if err := r.fail(ctx, "Submission failed: "+review.Sanitize(err.Error())); err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				return nil
			}
		}
	}
}

func (r *Runner) resolveConflict(ctx context.Context, c *wizard.Controller) error {
	conflict, ok := c.Conflict()
	if !ok {
		return nil
	}
	text, err := r.review.Conflict(conflict)
	if err != nil {
		return err
	}
	if err := r.driver.Info(ctx, text); err != nil {
		return err
	}

	decisions := conflict.Decisions()
	labels := make([]string, 0, len(decisions))
	for _, d := range decisions {
		labels = append(labels, review.DecisionLabel(d))
	}
	for {
		idx, err := r.driver.Select(ctx, SelectConfig{Message: review.ConflictHeading(conflict.Code), Options: labels})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(decisions) {
			continue
		}
		outcome, err := c.Resolve(ctx, decisions[idx])
		if outcome == wizard.OutcomeFailed {
			return r.fail(ctx, "Submission failed: "+review.Sanitize(err.Error()))
		}
		return err
	}
}

func (r *Runner) actions(c *wizard.Controller) []string {
	var out []string
	if c.IsLast() {
		out = append(out, ActionReview, ActionSubmit)
	} else {
		out = append(out, ActionNext)
	}
	if c.Current() > 0 {
		out = append(out, ActionBack)
	}
	return append(out, ActionCancel)
}

// reportStep prints validation messages and swallows the StepError so the
// step is prompted again.
func (r *Runner) reportStep(ctx context.Context, err error) error {
	var stepErr *wizard.StepError
	if !errors.As(err, &stepErr) {
		return err
	}
	for _, msg := range stepErr.Messages() {
		if err := r.fail(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) promptField(ctx context.Context, c *wizard.Controller, field wizard.Field) error {
	d := c.Draft()
	label := pick(field.Label, field.Path)

	switch field.Kind {
	case wizard.FieldBool:
		resp, err := r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: d.Bool(field.Path), Help: field.Help})
		if err != nil {
			return err
		}
		_, err = c.Set(field.Path, resp)
		return err

	case wizard.FieldSelect:
		for {
			idx, err := r.driver.Select(ctx, SelectConfig{
				Message:      label,
				Options:      field.Options,
				DefaultIndex: indexOf(field.Options, d.String(field.Path)),
				Help:         field.Help,
			})
			if err != nil {
				return err
			}
			if idx < 0 || idx >= len(field.Options) {
				if err := r.fail(ctx, fmt.Sprintf("Invalid %s selection", label)); err != nil {
					return err
				}
				continue
			}
			_, err = c.Set(field.Path, field.Options[idx])
			return err
		}

	case wizard.FieldMultiSelect:
		current := d.Strings(field.Path)
		var defaults []int
		for _, v := range current {
			if i := indexOf(field.Options, v); i >= 0 {
				defaults = append(defaults, i)
			}
		}
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{Message: label, Options: field.Options, Defaults: defaults, Help: field.Help})
		if err != nil {
			return err
		}
		values := make([]any, 0, len(indices))
		for _, v := range labelsAt(field.Options, indices) {
			values = append(values, v)
		}
		_, err = c.Set(field.Path, values)
		return err

	case wizard.FieldNumber:
		return r.promptNumber(ctx, c, field, label)

	case wizard.FieldTags:
		return r.promptTags(ctx, c, field, label)

	case wizard.FieldList:
		resp, err := r.input(ctx, field, label, strings.Join(d.Strings(field.Path), ", "))
		if err != nil {
			return err
		}
		_, err = c.Set(field.Path, strings.TrimSpace(resp))
		return err

	default:
		resp, err := r.input(ctx, field, label, d.String(field.Path))
		if err != nil {
			return err
		}
		_, err = c.Set(field.Path, strings.TrimSpace(resp))
		return err
	}
}

func (r *Runner) promptNumber(ctx context.Context, c *wizard.Controller, field wizard.Field, label string) error {
	for {
		resp, err := r.input(ctx, field, label, c.Draft().String(field.Path))
		if err != nil {
			return err
		}
		resp = strings.TrimSpace(resp)
		if resp == "" {
			if field.Required {
				if err := r.fail(ctx, fmt.Sprintf("Invalid %s: required", label)); err != nil {
					return err
				}
				continue
			}
			_, err = c.Delete(field.Path)
			return err
		}
		n, err := strconv.Atoi(resp)
		if err != nil {
			if err := r.fail(ctx, fmt.Sprintf("Invalid %s: must be a whole number", label)); err != nil {
				return err
			}
			continue
		}
		_, err = c.Set(field.Path, n)
		return err
	}
}

func (r *Runner) promptTags(ctx context.Context, c *wizard.Controller, field wizard.Field, label string) error {
	d := c.Draft()
	current := make([]string, 0)
	for i := range d.Slice(field.Path) {
		base := fmt.Sprintf("%s.%d", field.Path, i)
		current = append(current, d.String(base+".key")+"="+d.String(base+".value"))
	}
	for {
		resp, err := r.input(ctx, field, label, strings.Join(current, ", "))
		if err != nil {
			return err
		}
		tags, err := ParseTags(resp)
		if err != nil {
			if err := r.fail(ctx, fmt.Sprintf("Invalid %s: %v", label, err)); err != nil {
				return err
			}
			continue
		}
		_, err = c.Set(field.Path, tags)
		return err
	}
}

func (r *Runner) input(ctx context.Context, field wizard.Field, label, current string) (string, error) {
	return r.driver.Input(ctx, InputConfig{
		Message:     label,
		Default:     current,
		Help:        field.Help,
		Placeholder: field.Placeholder,
	})
}

func (r *Runner) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Runner) fail(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
}

// ParseTags reads "key=value" pairs separated by commas. A pair without "="
// is a key with an empty value.
func ParseTags(raw string) ([]any, error) {
	out := make([]any, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("tag %q has no key", part)
		}
		out = append(out, map[string]any{"key": key, "value": strings.TrimSpace(value)})
	}
	return out, nil
}

func pick(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}
