package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pipewizard/pkg/apierr"
	"github.com/goliatone/go-pipewizard/pkg/draft"
	"github.com/goliatone/go-pipewizard/pkg/rules"
	"github.com/goliatone/go-pipewizard/pkg/validator"
)

type call struct {
	force  bool
	prefix string
}

type scriptedSubmitter struct {
	mu      sync.Mutex
	calls   []call
	results []error
	id      string
}

func (s *scriptedSubmitter) Submit(_ context.Context, d draft.Draft, force bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{force: force, prefix: d.String("opensearch.indexPrefix")})
	if len(s.results) > 0 {
		err := s.results[0]
		s.results = s.results[1:]
		if err != nil {
			return "", err
		}
	}
	return s.id, nil
}

func pipelineSteps() []Step {
	return []Step{
		{
			Name:      "index",
			IndexStep: true,
			Validators: []*validator.Validator{
				rules.IndexPrefix("indexPrefix", "opensearch.indexPrefix"),
			},
		},
		{
			Name: "buffer",
			Validators: []*validator.Validator{
				rules.MaxAboveMin("kdsCapacity", "buffer.kds.autoscaling", "buffer.kds.minCapacity", "buffer.kds.maxCapacity"),
			},
		},
		{Name: "alarms"},
	}
}

func ec2Steps() []Step {
	sourceDisabled := MustRule(`mode == "edit"`)
	return append([]Step{
		{Name: "instanceGroup", Disabled: sourceDisabled, Validators: []*validator.Validator{
			rules.Required("instanceGroup", "source.instanceGroupId", "instance group is required"),
		}},
		{Name: "logConfig", Disabled: sourceDisabled},
	}, pipelineSteps()...)
}

func newController(t *testing.T, steps []Step, sub Submitter, values map[string]any) *Controller {
	t.Helper()
	c, err := New(steps, sub, WithDraft(draft.New(values)))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return c
}

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	if _, err := New(nil, &scriptedSubmitter{}); !errors.Is(err, ErrNoSteps) {
		t.Fatalf("expected ErrNoSteps, got %v", err)
	}
	if _, err := New(pipelineSteps(), nil); !errors.Is(err, ErrNilSubmitter) {
		t.Fatalf("expected ErrNilSubmitter, got %v", err)
	}
	dup := []Step{{Name: "a"}, {Name: "a"}}
	if _, err := New(dup, &scriptedSubmitter{}); err == nil {
		t.Fatalf("expected duplicate step error")
	}
}

func TestNextBlockedByEmptyIndexPrefix(t *testing.T) {
	c := newController(t, pipelineSteps(), &scriptedSubmitter{}, nil)

	err := c.Next()
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if stepErr.Step != "index" {
		t.Fatalf("unexpected failing step %q", stepErr.Step)
	}
	if diff := cmp.Diff([]string{"index prefix is required"}, stepErr.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if got := c.Current(); got != 0 {
		t.Fatalf("expected to stay on step 0, got %d", got)
	}
	if got := c.Errors()["indexPrefix"]; got == "" {
		t.Fatalf("expected indexPrefix error to be recorded")
	}
}

func TestAutoscalingCapacityGate(t *testing.T) {
	c := newController(t, pipelineSteps(), &scriptedSubmitter{}, map[string]any{
		"opensearch": map[string]any{"indexPrefix": "app-logs"},
		"buffer": map[string]any{"kds": map[string]any{
			"autoscaling": true,
			"minCapacity": 5,
			"maxCapacity": 3,
		}},
	})
	if err := c.Next(); err != nil {
		t.Fatalf("next from index: %v", err)
	}

	err := c.Next()
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if diff := cmp.Diff([]string{"maximum shards must be greater than minimum shards"}, stepErr.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if c.Current() != 1 {
		t.Fatalf("expected to stay on buffer step")
	}

	results, err := c.Set("buffer.kds.maxCapacity", 10)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(results) != 1 || !results[0].Valid {
		t.Fatalf("expected reactive validation to pass, got %+v", results)
	}
	if err := c.Next(); err != nil {
		t.Fatalf("next after fix: %v", err)
	}
	if c.Current() != 2 {
		t.Fatalf("expected alarms step, got %d", c.Current())
	}
}

func TestSetDispatchesOnlyDependentValidators(t *testing.T) {
	c := newController(t, pipelineSteps(), &scriptedSubmitter{}, nil)

	results, err := c.Set("opensearch.indexPrefix", "Bad Prefix")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(results) != 1 || results[0].Name != "indexPrefix" || results[0].Valid {
		t.Fatalf("unexpected results %+v", results)
	}
	if _, ok := c.Errors()["kdsCapacity"]; ok {
		t.Fatalf("unrelated validator should not have run")
	}

	results, _ = c.Set("opensearch.indexPrefix", "good")
	if len(results) != 1 || !results[0].Valid {
		t.Fatalf("expected error cleared, got %+v", results)
	}
	if len(c.Errors()) != 0 {
		t.Fatalf("expected no errors, got %v", c.Errors())
	}
}

func TestPreviousNeverValidates(t *testing.T) {
	c := newController(t, pipelineSteps(), &scriptedSubmitter{}, map[string]any{
		"opensearch": map[string]any{"indexPrefix": "logs"},
	})
	if err := c.JumpTo(2); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if _, err := c.Set("opensearch.indexPrefix", ""); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Previous(); err != nil {
		t.Fatalf("previous: %v", err)
	}
	if err := c.Previous(); err != nil {
		t.Fatalf("previous: %v", err)
	}
	if err := c.Previous(); err != nil {
		t.Fatalf("previous at first step: %v", err)
	}
	if c.Current() != 0 {
		t.Fatalf("expected clamp at 0, got %d", c.Current())
	}
}

func TestJumpToStopsAtFirstFailingStep(t *testing.T) {
	c := newController(t, pipelineSteps(), &scriptedSubmitter{}, map[string]any{
		"opensearch": map[string]any{"indexPrefix": "logs"},
		"buffer": map[string]any{"kds": map[string]any{
			"autoscaling": true, "minCapacity": 4, "maxCapacity": 2,
		}},
	})

	err := c.JumpTo(2)
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != "buffer" {
		t.Fatalf("expected buffer step error, got %v", err)
	}
	if c.Current() != 1 {
		t.Fatalf("expected to land on buffer step, got %d", c.Current())
	}
	if err := c.JumpTo(7); !errors.Is(err, ErrStepOutOfRange) {
		t.Fatalf("expected ErrStepOutOfRange, got %v", err)
	}
}

func TestSubmitOnlyFromLastStep(t *testing.T) {
	c := newController(t, pipelineSteps(), &scriptedSubmitter{}, nil)
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrNotLastStep) {
		t.Fatalf("expected ErrNotLastStep, got %v", err)
	}
}

func TestSubmitSuccessIsTerminal(t *testing.T) {
	sub := &scriptedSubmitter{id: "pipe-1"}
	c := newController(t, pipelineSteps(), sub, map[string]any{
		"opensearch": map[string]any{"indexPrefix": "logs"},
	})
	if err := c.JumpTo(2); err != nil {
		t.Fatalf("jump: %v", err)
	}
	outcome, err := c.Submit(context.Background())
	if err != nil || outcome != OutcomeSubmitted {
		t.Fatalf("submit: outcome=%v err=%v", outcome, err)
	}
	if c.State() != StateDone || c.ResultID() != "pipe-1" {
		t.Fatalf("unexpected state %v id %q", c.State(), c.ResultID())
	}
	if err := c.Previous(); !errors.Is(err, ErrDone) {
		t.Fatalf("expected ErrDone, got %v", err)
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrDone) {
		t.Fatalf("expected ErrDone on resubmit, got %v", err)
	}
	if diff := cmp.Diff([]call{{force: false, prefix: "logs"}}, sub.calls, cmp.AllowUnexported(call{})); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestOverlapConflictOffersNoForceAndEditReturnsToIndex(t *testing.T) {
	sub := &scriptedSubmitter{results: []error{
		apierr.Refine("[OverlapIndexPrefix] index prefix overlaps app-logs"),
	}}
	c := newController(t, ec2Steps(), sub, map[string]any{
		"source":     map[string]any{"instanceGroupId": "ig-1"},
		"opensearch": map[string]any{"indexPrefix": "app"},
	})
	if err := c.JumpTo(4); err != nil {
		t.Fatalf("jump: %v", err)
	}

	outcome, err := c.Submit(context.Background())
	if err != nil || outcome != OutcomeConflict {
		t.Fatalf("submit: outcome=%v err=%v", outcome, err)
	}
	conflict, ok := c.Conflict()
	if !ok {
		t.Fatalf("expected open conflict")
	}
	want := Conflict{Code: apierr.CodeOverlapIndexPrefix, Message: "index prefix overlaps app-logs"}
	if diff := cmp.Diff(want, conflict); diff != "" {
		t.Fatalf("conflict mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Decision{DecisionCancel, DecisionEditIndex}, conflict.Decisions()); diff != "" {
		t.Fatalf("decisions mismatch (-want +got):\n%s", diff)
	}
	if err := c.Next(); !errors.Is(err, ErrConflictOpen) {
		t.Fatalf("expected ErrConflictOpen, got %v", err)
	}
	if _, err := c.Resolve(context.Background(), DecisionForceCreate); !errors.Is(err, ErrForceNotAllowed) {
		t.Fatalf("expected ErrForceNotAllowed, got %v", err)
	}

	if _, err := c.Resolve(context.Background(), DecisionEditIndex); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.Current() != 2 || c.Step().Name != "index" {
		t.Fatalf("expected index step at position 2, got %d (%s)", c.Current(), c.Step().Name)
	}
	if c.State() != StateEditing {
		t.Fatalf("expected editing state, got %v", c.State())
	}
}

func TestInactiveDuplicateForceCreate(t *testing.T) {
	sub := &scriptedSubmitter{id: "pipe-9", results: []error{
		apierr.Refine(`{"errorCode":"DuplicatedWithInactiveIndexPrefix","message":"an inactive pipeline uses logs"}`),
		nil,
	}}
	c := newController(t, pipelineSteps(), sub, map[string]any{
		"opensearch": map[string]any{"indexPrefix": "logs"},
	})
	if err := c.JumpTo(2); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if outcome, _ := c.Submit(context.Background()); outcome != OutcomeConflict {
		t.Fatalf("expected conflict, got %v", outcome)
	}
	conflict, _ := c.Conflict()
	if !conflict.ShowContinue {
		t.Fatalf("expected force to be offered")
	}

	outcome, err := c.Resolve(context.Background(), DecisionForceCreate)
	if err != nil || outcome != OutcomeSubmitted {
		t.Fatalf("force: outcome=%v err=%v", outcome, err)
	}
	if c.State() != StateDone || c.ResultID() != "pipe-9" {
		t.Fatalf("unexpected state %v id %q", c.State(), c.ResultID())
	}
	want := []call{{force: false, prefix: "logs"}, {force: true, prefix: "logs"}}
	if diff := cmp.Diff(want, sub.calls, cmp.AllowUnexported(call{})); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestCancelKeepsStep(t *testing.T) {
	sub := &scriptedSubmitter{results: []error{apierr.Refine("[DuplicatedIndexPrefix] taken")}}
	c := newController(t, pipelineSteps(), sub, map[string]any{
		"opensearch": map[string]any{"indexPrefix": "logs"},
	})
	_ = c.JumpTo(2)
	_, _ = c.Submit(context.Background())

	if _, err := c.Resolve(context.Background(), DecisionCancel); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if c.Current() != 2 || c.State() != StateEditing {
		t.Fatalf("expected to stay on last step while editing")
	}
	if _, ok := c.Conflict(); ok {
		t.Fatalf("expected conflict dismissed")
	}
	if _, err := c.Resolve(context.Background(), DecisionCancel); !errors.Is(err, ErrNoConflict) {
		t.Fatalf("expected ErrNoConflict, got %v", err)
	}
}

func TestGenericFailureKeepsDraft(t *testing.T) {
	sub := &scriptedSubmitter{results: []error{errors.New("[AccountNotFound] no such account")}}
	c := newController(t, pipelineSteps(), sub, map[string]any{
		"opensearch": map[string]any{"indexPrefix": "logs"},
	})
	_ = c.JumpTo(2)
	before := c.Draft()

	outcome, err := c.Submit(context.Background())
	if outcome != OutcomeFailed || err == nil {
		t.Fatalf("expected failure, got outcome=%v err=%v", outcome, err)
	}
	if c.State() != StateEditing || c.Loading() {
		t.Fatalf("expected editing and not loading, got %v loading=%v", c.State(), c.Loading())
	}
	if c.Current() != 2 {
		t.Fatalf("expected to stay on last step")
	}
	if !before.Equal(c.Draft()) {
		t.Fatalf("draft changed after failed submit")
	}
}

func TestLoadingGateRejectsConcurrentSubmit(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	sub := SubmitterFunc(func(ctx context.Context, d draft.Draft, force bool) (string, error) {
		close(entered)
		<-release
		return "id", nil
	})
	c := newController(t, pipelineSteps(), sub, map[string]any{
		"opensearch": map[string]any{"indexPrefix": "logs"},
	})
	_ = c.JumpTo(2)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-entered

	if !c.Loading() {
		t.Fatalf("expected loading while request is outstanding")
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, err := c.Set("opensearch.indexPrefix", "other"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected edits rejected while busy, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
}

func TestDisabledSourceStepsInEditMode(t *testing.T) {
	c := newController(t, ec2Steps(), &scriptedSubmitter{}, map[string]any{"mode": "edit"})

	var names []string
	for _, s := range c.Steps() {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"index", "buffer", "alarms"}, names); diff != "" {
		t.Fatalf("enabled steps mismatch (-want +got):\n%s", diff)
	}
	if c.Step().Name != "index" {
		t.Fatalf("expected first enabled step to be index, got %s", c.Step().Name)
	}
}

func TestRuleTreatsUndefinedAsFalse(t *testing.T) {
	rule, err := Rule(`buffer.type == "KDS"`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if rule(draft.Draft{}) {
		t.Fatalf("expected false for empty draft")
	}
	if !rule(draft.New(map[string]any{"buffer": map[string]any{"type": "KDS"}})) {
		t.Fatalf("expected true when buffer.type is KDS")
	}
	if _, err := Rule("mode =="); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestChangeDisablingEveryStepIsRejected(t *testing.T) {
	off := MustRule("off == true")
	steps := []Step{{Name: "first", Disabled: off}, {Name: "second", Disabled: off}}
	c := newController(t, steps, &scriptedSubmitter{}, nil)

	if _, err := c.Set("off", true); !errors.Is(err, ErrNoSteps) {
		t.Fatalf("expected ErrNoSteps, got %v", err)
	}
	if c.Draft().Has("off") {
		t.Fatalf("draft must be unchanged after a rejected set")
	}
	if c.Step().Name != "first" {
		t.Fatalf("unexpected step %q", c.Step().Name)
	}
	if _, err := c.Replace(draft.New(map[string]any{"off": true})); !errors.Is(err, ErrNoSteps) {
		t.Fatalf("expected ErrNoSteps from replace, got %v", err)
	}
	if _, err := c.Set("off", false); err != nil {
		t.Fatalf("set: %v", err)
	}
}

func TestErrorsSkipDisabledSteps(t *testing.T) {
	c := newController(t, ec2Steps(), &scriptedSubmitter{}, nil)
	if err := c.Next(); err == nil {
		t.Fatalf("expected instance group to block")
	}
	if _, ok := c.Errors()["instanceGroup"]; !ok {
		t.Fatalf("expected instance group error, got %v", c.Errors())
	}

	if _, err := c.Set("mode", "edit"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := c.Errors()["instanceGroup"]; ok {
		t.Fatalf("disabled step error still reported: %v", c.Errors())
	}
}
