// Package definition loads step layout documents: the titles, descriptions,
// field labels and disabled rules that dress the wizard steps built in code.
package definition

import "strings"

// SharedFlow names the layout every flow inherits from. Steps reused across
// flows are described once under it.
const SharedFlow = "common"

// Store keeps parsed flows. It is safe for concurrent readers when treated as
// immutable after construction.
type Store struct {
	flows map[string]Flow
}

// Flow holds the layout of one wizard.
type Flow struct {
	Name        string
	Source      string
	Title       string
	Description string
	Steps       map[string]StepConfig
}

// StepConfig customises one step.
type StepConfig struct {
	Title        string                 `json:"title" yaml:"title"`
	Description  string                 `json:"description" yaml:"description"`
	// DisabledWhen is an expression over the draft; the step is skipped
	// while it evaluates to true.
	DisabledWhen string                 `json:"disabledWhen,omitempty" yaml:"disabledWhen,omitempty"`
	Fields       map[string]FieldConfig `json:"fields" yaml:"fields"`
}

// FieldConfig customises how a field is prompted.
type FieldConfig struct {
	Label       string   `json:"label,omitempty" yaml:"label,omitempty"`
	Help        string   `json:"help,omitempty" yaml:"help,omitempty"`
	Placeholder string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`
	// VisibleWhen is an expression over the draft; the field is hidden while
	// it evaluates to false.
	VisibleWhen string `json:"visibleWhen,omitempty" yaml:"visibleWhen,omitempty"`
}

// NormalizeFieldPath converts "tags[0].key" style keys into dotted draft
// paths.
func NormalizeFieldPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	replacer := strings.NewReplacer("[", ".", "]", "")
	normalised := replacer.Replace(trimmed)
	for strings.Contains(normalised, "..") {
		normalised = strings.ReplaceAll(normalised, "..", ".")
	}
	return strings.Trim(normalised, ".")
}
