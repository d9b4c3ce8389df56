package wizard

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/goliatone/go-pipewizard/pkg/draft"
	"github.com/goliatone/go-pipewizard/pkg/validator"
)

// FieldKind tells front-ends how to collect a field.
type FieldKind string

const (
	FieldText        FieldKind = "text"
	FieldNumber      FieldKind = "number"
	FieldBool        FieldKind = "bool"
	FieldSelect      FieldKind = "select"
	FieldMultiSelect FieldKind = "multiselect"
	FieldList        FieldKind = "list"
	FieldTags        FieldKind = "tags"
)

// Field describes one input written by a step into the draft.
type Field struct {
	Path        string
	Label       string
	Help        string
	Placeholder string
	Kind        FieldKind
	Options     []string
	Default     any
	Required    bool
	// VisibleWhen hides the field while it returns false.
	VisibleWhen func(draft.Draft) bool
}

// Visible reports whether the field applies to d.
func (f Field) Visible(d draft.Draft) bool {
	return f.VisibleWhen == nil || f.VisibleWhen(d)
}

// Step is one page of a wizard. Steps are fixed once the wizard starts;
// only their Disabled outcome varies with the draft.
type Step struct {
	Name    string
	Title   string
	Content string
	Fields  []Field
	// Validators gate forward navigation, evaluated in order.
	Validators []*validator.Validator
	// Disabled removes the step from the sequence while it returns true.
	Disabled func(draft.Draft) bool
	// IndexStep marks the step that owns index naming; conflict resolution
	// returns here.
	IndexStep bool
}

func (s Step) enabled(d draft.Draft) bool {
	return s.Disabled == nil || !s.Disabled(d)
}

// VisibleFields returns the fields that apply to d.
func (s Step) VisibleFields(d draft.Draft) []Field {
	out := make([]Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Visible(d) {
			out = append(out, f)
		}
	}
	return out
}

// Rule compiles a boolean expression evaluated against the draft values, for
// example `mode == "edit"` or `buffer.type != "None"`. Unknown identifiers
// evaluate to nil.
func Rule(source string) (func(draft.Draft) bool, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, nil
	}
	program, err := expr.Compile(trimmed, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("wizard: compile rule %q: %w", trimmed, err)
	}
	return func(d draft.Draft) bool {
		return evalRule(program, d)
	}, nil
}

// MustRule is Rule for static expressions; it panics on compile errors.
func MustRule(source string) func(draft.Draft) bool {
	fn, err := Rule(source)
	if err != nil {
		panic(err)
	}
	return fn
}

func evalRule(program *vm.Program, d draft.Draft) bool {
	out, err := expr.Run(program, d.Map())
	if err != nil {
		return false
	}
	b, _ := out.(bool)
	return b
}
