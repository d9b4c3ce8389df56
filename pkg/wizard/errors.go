package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-pipewizard/pkg/validator"
)

var (
	// ErrNoSteps is returned when a wizard has no (enabled) steps.
	ErrNoSteps = errors.New("wizard: no steps")
	// ErrNilSubmitter is returned by New without a submitter.
	ErrNilSubmitter = errors.New("wizard: submitter is required")
	// ErrBusy signals a submission is already outstanding.
	ErrBusy = errors.New("wizard: submission in progress")
	// ErrDone signals the wizard already submitted successfully.
	ErrDone = errors.New("wizard: already submitted")
	// ErrLastStep is returned by Next on the last enabled step.
	ErrLastStep = errors.New("wizard: already on last step")
	// ErrNotLastStep is returned by Submit away from the last enabled step.
	ErrNotLastStep = errors.New("wizard: submit is only available on the last step")
	// ErrStepOutOfRange is returned by JumpTo for unknown targets.
	ErrStepOutOfRange = errors.New("wizard: step out of range")
	// ErrConflictOpen blocks navigation while the conflict dialog is shown.
	ErrConflictOpen = errors.New("wizard: conflict dialog is open")
	// ErrNoConflict is returned by Resolve without an open conflict.
	ErrNoConflict = errors.New("wizard: no conflict to resolve")
	// ErrForceNotAllowed is returned when force create is chosen for a
	// conflict that does not offer it.
	ErrForceNotAllowed = errors.New("wizard: force create not allowed for this conflict")
	// ErrUnknownDecision is returned for decisions outside the enumeration.
	ErrUnknownDecision = errors.New("wizard: unknown decision")
)

// StepError reports the validators that blocked leaving a step.
type StepError struct {
	Step    string
	Index   int
	Results []validator.Result
}

func (e *StepError) Error() string {
	msgs := make([]string, 0, len(e.Results))
	for _, r := range e.Results {
		if !r.Valid {
			msgs = append(msgs, r.Message)
		}
	}
	return fmt.Sprintf("wizard: step %q is invalid: %s", e.Step, strings.Join(msgs, "; "))
}

// Messages returns the failing messages in evaluation order.
func (e *StepError) Messages() []string {
	var out []string
	for _, r := range e.Results {
		if !r.Valid {
			out = append(out, r.Message)
		}
	}
	return out
}
