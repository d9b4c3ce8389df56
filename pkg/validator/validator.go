// Package validator wraps pure draft checks into stateful validators and
// re-runs them reactively when the draft paths they depend on change.
package validator

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-pipewizard/pkg/draft"
)

// DefaultMessage is reported when a check fails without a message.
const DefaultMessage = "invalid value"

// Check inspects a draft and returns a non-nil error when the slice of the
// draft it reads is invalid. Checks must not mutate anything.
type Check func(d draft.Draft) error

// Result is the outcome of one validator run.
type Result struct {
	Name    string
	Valid   bool
	Message string
}

// Option configures a Validator.
type Option func(*Validator)

// On declares the draft paths the check reads.
func On(paths ...string) Option {
	return func(v *Validator) {
		for _, p := range paths {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				v.deps = append(v.deps, trimmed)
			}
		}
	}
}

// WithMessage overrides the message used when a check fails with an empty
// error text.
func WithMessage(msg string) Option {
	return func(v *Validator) {
		if strings.TrimSpace(msg) != "" {
			v.message = msg
		}
	}
}

// Validator is a named check plus the error produced by its last run. A
// Validator is owned by one wizard session and is not safe for concurrent
// use.
type Validator struct {
	name    string
	check   Check
	deps    []string
	message string
	last    Result
	ran     bool
}

// New constructs a Validator. A nil check always passes.
func New(name string, check Check, options ...Option) *Validator {
	v := &Validator{
		name:    name,
		check:   check,
		message: DefaultMessage,
		last:    Result{Name: name, Valid: true},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(v)
	}
	return v
}

// Name reports the validator identifier.
func (v *Validator) Name() string { return v.name }

// Deps returns the declared dependency paths.
func (v *Validator) Deps() []string {
	return append([]string(nil), v.deps...)
}

// Validate runs the check against d, records the outcome and returns it.
// Panics raised by the check are converted into a failing result.
func (v *Validator) Validate(d draft.Draft) Result {
	res := Result{Name: v.name, Valid: true}
	if err := v.run(d); err != nil {
		res.Valid = false
		res.Message = strings.TrimSpace(err.Error())
		if res.Message == "" {
			res.Message = v.message
		}
	}
	v.last = res
	v.ran = true
	return res
}

func (v *Validator) run(d draft.Draft) (err error) {
	if v.check == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return v.check(d)
}

// Last returns the most recent result. Before the first run it is valid.
func (v *Validator) Last() Result { return v.last }

// Error returns the message of the last failing run, or "".
func (v *Validator) Error() string {
	if v.last.Valid {
		return ""
	}
	return v.last.Message
}

// Ran reports whether the validator was evaluated at least once.
func (v *Validator) Ran() bool { return v.ran }

// Reset clears the recorded outcome.
func (v *Validator) Reset() {
	v.last = Result{Name: v.name, Valid: true}
	v.ran = false
}

// DependsOn reports whether a change at path can affect this validator. The
// match is prefix aware in both directions: a change to "buffer" affects a
// dependency on "buffer.kds.minCapacity" and a change to "tags.0.key" affects
// a dependency on "tags".
func (v *Validator) DependsOn(path string) bool {
	for _, dep := range v.deps {
		if overlaps(dep, path) {
			return true
		}
	}
	return false
}

func overlaps(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasPrefix(a, b+".") || strings.HasPrefix(b, a+".")
}

// All runs every validator in order and reports whether all passed. It does
// not short-circuit; use First when gating a transition.
func All(d draft.Draft, validators ...*Validator) ([]Result, bool) {
	results := make([]Result, 0, len(validators))
	ok := true
	for _, v := range validators {
		res := v.Validate(d)
		results = append(results, res)
		if !res.Valid {
			ok = false
		}
	}
	return results, ok
}

// First runs validators in order and stops at the first failure, which is
// returned with ok=false.
func First(d draft.Draft, validators ...*Validator) (Result, bool) {
	for _, v := range validators {
		if res := v.Validate(d); !res.Valid {
			return res, false
		}
	}
	return Result{Valid: true}, true
}
