// Package wizard drives a multi-step creation flow: an ordered list of steps,
// each gated by validators, accumulating one draft that is submitted as a
// single request from the last step.
//
// Forward navigation (Next, forward JumpTo, Submit) only happens when every
// validator of the steps being left passes. Backward navigation never
// validates. A submission that fails with an index-prefix conflict opens a
// conflict dialog answered through Resolve; every other failure leaves the
// wizard on the last step with the draft intact.
package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-pipewizard/pkg/apierr"
	"github.com/goliatone/go-pipewizard/pkg/draft"
	"github.com/goliatone/go-pipewizard/pkg/validator"
)

// Submitter sends the draft to the external API and returns the identifier
// of the created resource.
type Submitter interface {
	Submit(ctx context.Context, d draft.Draft, force bool) (string, error)
}

// SubmitterFunc adapts a function into a Submitter.
type SubmitterFunc func(ctx context.Context, d draft.Draft, force bool) (string, error)

// Submit delegates to the underlying function.
func (fn SubmitterFunc) Submit(ctx context.Context, d draft.Draft, force bool) (string, error) {
	return fn(ctx, d, force)
}

// State is the controller's coarse state.
type State int

const (
	StateEditing State = iota
	StateSubmitting
	StateConflict
	StateDone
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateConflict:
		return "conflict"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Outcome reports what a Submit or Resolve call led to.
type Outcome int

const (
	// OutcomeNone means nothing was submitted.
	OutcomeNone Outcome = iota
	// OutcomeSubmitted means the API accepted the request.
	OutcomeSubmitted
	// OutcomeConflict means the conflict dialog is now open.
	OutcomeConflict
	// OutcomeFailed means the API rejected the request with a generic error.
	OutcomeFailed
)

// Controller owns one wizard session. Methods are safe to call from multiple
// goroutines; the loading gate rejects a second submission while one is in
// flight.
type Controller struct {
	mu sync.Mutex

	steps     []Step
	current   string
	draft     draft.Draft
	registry  *validator.Registry
	submitter Submitter

	state    State
	loading  bool
	conflict *Conflict
	resultID string

	logger  *slog.Logger
	session string
}

// New constructs a Controller positioned on the first enabled step.
func New(steps []Step, submitter Submitter, options ...Option) (*Controller, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	if submitter == nil {
		return nil, ErrNilSubmitter
	}

	names := make(map[string]struct{}, len(steps))
	registry := validator.NewRegistry()
	for _, s := range steps {
		if s.Name == "" {
			return nil, fmt.Errorf("wizard: step name is required")
		}
		if _, dup := names[s.Name]; dup {
			return nil, fmt.Errorf("wizard: duplicate step %q", s.Name)
		}
		names[s.Name] = struct{}{}
		registry.Register(s.Validators...)
	}

	c := &Controller{
		steps:     append([]Step(nil), steps...),
		registry:  registry,
		submitter: submitter,
		state:     StateEditing,
		logger:    discardLogger(),
		session:   uuid.NewString(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	c.logger = c.logger.With("session", c.session)

	enabled := c.enabledLocked()
	if len(enabled) == 0 {
		return nil, ErrNoSteps
	}
	c.current = enabled[0].Name
	return c, nil
}

// Session returns the identifier attached to this session's logs.
func (c *Controller) Session() string { return c.session }

// Draft returns the current draft snapshot.
func (c *Controller) Draft() draft.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// State reports the coarse controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Loading reports whether a submission is outstanding.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// ResultID returns the identifier returned by a successful submission.
func (c *Controller) ResultID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resultID
}

// Conflict returns the open conflict dialog, if any.
func (c *Controller) Conflict() (Conflict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conflict == nil {
		return Conflict{}, false
	}
	return *c.conflict, true
}

// Steps returns the steps enabled for the current draft.
func (c *Controller) Steps() []Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabledLocked()
}

// Current returns the index of the active step among the enabled steps.
func (c *Controller) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked(c.enabledLocked())
}

// Step returns the active step.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	steps := c.enabledLocked()
	return steps[c.positionLocked(steps)]
}

// IsLast reports whether the active step is the last enabled step.
func (c *Controller) IsLast() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	steps := c.enabledLocked()
	return c.positionLocked(steps) == len(steps)-1
}

// Errors returns the current validator errors keyed by validator name.
// Validators of disabled steps are left out.
func (c *Controller) Errors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string)
	for _, s := range c.enabledLocked() {
		for _, v := range s.Validators {
			if msg := v.Error(); msg != "" {
				out[v.Name()] = msg
			}
		}
	}
	return out
}

// Set writes value at path and re-runs the validators depending on it.
func (c *Controller) Set(path string, value any) ([]validator.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return nil, err
	}
	next, err := c.draft.Set(path, value)
	if err != nil {
		return nil, err
	}
	return c.replaceLocked(next)
}

// Delete removes the value at path and re-runs dependent validators.
func (c *Controller) Delete(path string) ([]validator.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return nil, err
	}
	return c.replaceLocked(c.draft.Delete(path))
}

// Replace swaps the whole draft and re-runs validators for every changed
// path.
func (c *Controller) Replace(d draft.Draft) ([]validator.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return nil, err
	}
	return c.replaceLocked(d)
}

// replaceLocked installs next unless it would leave no step enabled, in which
// case the draft is kept and ErrNoSteps is returned.
func (c *Controller) replaceLocked(next draft.Draft) ([]validator.Result, error) {
	if len(enabledFor(c.steps, next)) == 0 {
		c.logger.Warn("wizard change rejected, no step would remain enabled")
		return nil, ErrNoSteps
	}
	changed := draft.Changed(c.draft, next)
	c.draft = next
	if len(changed) == 0 {
		return nil, nil
	}
	return c.registry.Dispatch(next, changed...), nil
}

// Next validates the active step and advances to the following one.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.navigableLocked(); err != nil {
		return err
	}
	steps := c.enabledLocked()
	idx := c.positionLocked(steps)
	if idx >= len(steps)-1 {
		return ErrLastStep
	}
	if err := c.gateLocked(steps[idx], idx); err != nil {
		c.logger.Debug("wizard step blocked", "step", steps[idx].Name, "error", err)
		return err
	}
	c.current = steps[idx+1].Name
	c.logger.Debug("wizard step advanced", "from", steps[idx].Name, "to", c.current)
	return nil
}

// Previous moves back one step without validating. It is a no-op on the
// first step.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.navigableLocked(); err != nil {
		return err
	}
	steps := c.enabledLocked()
	idx := c.positionLocked(steps)
	if idx > 0 {
		c.current = steps[idx-1].Name
		c.logger.Debug("wizard step back", "to", c.current)
	}
	return nil
}

// JumpTo moves to the enabled step at target. Moving forward validates every
// step being skipped, in order; on the first failure the wizard lands on the
// failing step and returns its error.
func (c *Controller) JumpTo(target int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.navigableLocked(); err != nil {
		return err
	}
	steps := c.enabledLocked()
	if target < 0 || target >= len(steps) {
		return fmt.Errorf("%w: %d", ErrStepOutOfRange, target)
	}
	idx := c.positionLocked(steps)
	for i := idx; i < target; i++ {
		if err := c.gateLocked(steps[i], i); err != nil {
			c.current = steps[i].Name
			return err
		}
	}
	c.current = steps[target].Name
	c.logger.Debug("wizard step jump", "from", steps[idx].Name, "to", c.current)
	return nil
}

// Submit validates the last step and sends the draft. It is only available
// on the last enabled step.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if err := c.navigableLocked(); err != nil {
		c.mu.Unlock()
		return OutcomeNone, err
	}
	steps := c.enabledLocked()
	idx := c.positionLocked(steps)
	if idx != len(steps)-1 {
		c.mu.Unlock()
		return OutcomeNone, ErrNotLastStep
	}
	if err := c.gateLocked(steps[idx], idx); err != nil {
		c.mu.Unlock()
		return OutcomeNone, err
	}
	d := c.beginSubmitLocked()
	c.mu.Unlock()

	return c.submit(ctx, d, false)
}

// Resolve answers the open conflict dialog.
func (c *Controller) Resolve(ctx context.Context, decision Decision) (Outcome, error) {
	c.mu.Lock()
	if c.state != StateConflict || c.conflict == nil {
		c.mu.Unlock()
		return OutcomeNone, ErrNoConflict
	}
	conflict := *c.conflict

	switch decision {
	case DecisionCancel:
		c.closeConflictLocked()
		c.logger.Info("wizard conflict dismissed", "code", conflict.Code)
		c.mu.Unlock()
		return OutcomeNone, nil

	case DecisionEditIndex:
		c.closeConflictLocked()
		for _, s := range c.enabledLocked() {
			if s.IndexStep {
				c.current = s.Name
				break
			}
		}
		c.logger.Info("wizard conflict edit index", "code", conflict.Code, "step", c.current)
		c.mu.Unlock()
		return OutcomeNone, nil

	case DecisionForceCreate:
		if !conflict.ShowContinue {
			c.mu.Unlock()
			return OutcomeNone, ErrForceNotAllowed
		}
		c.closeConflictLocked()
		d := c.beginSubmitLocked()
		c.logger.Info("wizard force create", "code", conflict.Code)
		c.mu.Unlock()
		return c.submit(ctx, d, true)

	default:
		c.mu.Unlock()
		return OutcomeNone, fmt.Errorf("%w: %d", ErrUnknownDecision, int(decision))
	}
}

func (c *Controller) beginSubmitLocked() draft.Draft {
	c.loading = true
	c.state = StateSubmitting
	return c.draft
}

func (c *Controller) closeConflictLocked() {
	c.conflict = nil
	c.state = StateEditing
}

func (c *Controller) submit(ctx context.Context, d draft.Draft, force bool) (Outcome, error) {
	id, err := c.submitter.Submit(ctx, d, force)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err == nil {
		c.state = StateDone
		c.resultID = id
		c.logger.Info("wizard submitted", "id", id, "force", force)
		return OutcomeSubmitted, nil
	}

	refined := apierr.FromError(err)
	if !force && apierr.IsIndexConflict(refined.Code) {
		c.conflict = newConflict(refined)
		c.state = StateConflict
		c.logger.Warn("wizard index conflict", "code", refined.Code, "message", refined.Message, "force_available", c.conflict.ShowContinue)
		return OutcomeConflict, nil
	}

	c.state = StateEditing
	c.logger.Error("wizard submission failed", "code", refined.Code, "error", err, "force", force)
	return OutcomeFailed, fmt.Errorf("wizard: submit: %w", err)
}

func (c *Controller) gateLocked(s Step, idx int) error {
	res, ok := validator.First(c.draft, s.Validators...)
	if ok {
		return nil
	}
	return &StepError{Step: s.Name, Index: idx, Results: []validator.Result{res}}
}

func (c *Controller) navigableLocked() error {
	switch {
	case c.state == StateDone:
		return ErrDone
	case c.loading:
		return ErrBusy
	case c.state == StateConflict:
		return ErrConflictOpen
	}
	return nil
}

func (c *Controller) editableLocked() error {
	switch {
	case c.state == StateDone:
		return ErrDone
	case c.loading:
		return ErrBusy
	}
	return nil
}

func (c *Controller) enabledLocked() []Step {
	return enabledFor(c.steps, c.draft)
}

func enabledFor(steps []Step, d draft.Draft) []Step {
	out := make([]Step, 0, len(steps))
	for _, s := range steps {
		if s.enabled(d) {
			out = append(out, s)
		}
	}
	return out
}

// positionLocked resolves the active step among enabled steps. When the
// active step became disabled, the next enabled step in declaration order
// takes its place.
func (c *Controller) positionLocked(enabled []Step) int {
	for i, s := range enabled {
		if s.Name == c.current {
			return i
		}
	}
	passed := false
	for _, s := range c.steps {
		if s.Name == c.current {
			passed = true
			continue
		}
		if !passed {
			continue
		}
		for i, e := range enabled {
			if e.Name == s.Name {
				return i
			}
		}
	}
	if len(enabled) == 0 {
		return 0
	}
	return len(enabled) - 1
}
