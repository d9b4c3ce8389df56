package wizard

import "github.com/goliatone/go-pipewizard/pkg/apierr"

// Decision is the user's answer to the conflict dialog.
type Decision int

const (
	// DecisionCancel dismisses the dialog and stays on the current step.
	DecisionCancel Decision = iota + 1
	// DecisionEditIndex dismisses the dialog and returns to the index step.
	DecisionEditIndex
	// DecisionForceCreate resubmits the same draft with force enabled.
	DecisionForceCreate
)

func (d Decision) String() string {
	switch d {
	case DecisionCancel:
		return "cancel"
	case DecisionEditIndex:
		return "edit-index"
	case DecisionForceCreate:
		return "force-create"
	default:
		return "unknown"
	}
}

// Conflict describes an open index-prefix conflict dialog.
type Conflict struct {
	Code    apierr.Code
	Message string
	// ShowContinue reports whether DecisionForceCreate is offered.
	ShowContinue bool
}

// Decisions lists the actions available for the conflict, in display order.
func (c Conflict) Decisions() []Decision {
	out := []Decision{DecisionCancel, DecisionEditIndex}
	if c.ShowContinue {
		out = append(out, DecisionForceCreate)
	}
	return out
}

func newConflict(err *apierr.Error) *Conflict {
	return &Conflict{
		Code:         err.Code,
		Message:      err.Message,
		ShowContinue: apierr.AllowsForce(err.Code),
	}
}
