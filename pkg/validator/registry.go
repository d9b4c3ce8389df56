package validator

import "github.com/goliatone/go-pipewizard/pkg/draft"

// Registry keeps validators indexed for reactive re-evaluation. Dispatch runs
// every validator whose dependencies intersect the changed paths, so an error
// disappears as soon as the offending field is fixed.
type Registry struct {
	validators []*Validator
	seen       map[*Validator]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[*Validator]struct{})}
}

// Register adds validators. Registering the same validator twice is a no-op.
func (r *Registry) Register(validators ...*Validator) {
	for _, v := range validators {
		if v == nil {
			continue
		}
		if _, ok := r.seen[v]; ok {
			continue
		}
		r.seen[v] = struct{}{}
		r.validators = append(r.validators, v)
	}
}

// Len reports the number of registered validators.
func (r *Registry) Len() int { return len(r.validators) }

// Affected lists the validators a change at any of paths would re-run, in
// registration order.
func (r *Registry) Affected(paths ...string) []*Validator {
	var out []*Validator
	for _, v := range r.validators {
		for _, p := range paths {
			if v.DependsOn(p) {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

// Dispatch re-validates the validators affected by the changed paths against
// d and returns their results. Each affected validator runs independently of
// the others' outcome.
func (r *Registry) Dispatch(d draft.Draft, changed ...string) []Result {
	affected := r.Affected(changed...)
	if len(affected) == 0 {
		return nil
	}
	out := make([]Result, 0, len(affected))
	for _, v := range affected {
		out = append(out, v.Validate(d))
	}
	return out
}

// Errors returns the current error messages keyed by validator name for
// every validator whose last run failed.
func (r *Registry) Errors() map[string]string {
	out := make(map[string]string)
	for _, v := range r.validators {
		if msg := v.Error(); msg != "" {
			out[v.Name()] = msg
		}
	}
	return out
}
