// Package rules provides the field-level validators used by the pipeline
// wizards. Every constructor returns a validator bound to the draft paths it
// reads so it participates in reactive re-validation.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"

	"github.com/goliatone/go-pipewizard/pkg/draft"
	"github.com/goliatone/go-pipewizard/pkg/validator"
)

// Buffer bounds used by the S3 buffer step.
const (
	MinBufferSizeMiB   = 1
	MaxBufferSizeMiB   = 50
	MinUploadInterval  = 1
	MaxUploadInterval  = 86400
	MaxIndexPrefixSize = 200
)

var indexPrefixPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

var (
	engineOnce sync.Once
	engine     *playground.Validate
)

func vars() *playground.Validate {
	engineOnce.Do(func() {
		engine = playground.New()
	})
	return engine
}

// Required fails when the string at path is blank.
func Required(name, path, message string) *validator.Validator {
	return validator.New(name, func(d draft.Draft) error {
		if strings.TrimSpace(d.String(path)) == "" {
			return errors.New(message)
		}
		return nil
	}, validator.On(path), validator.WithMessage(message))
}

// PositiveInt requires a whole number greater than zero at path.
func PositiveInt(name, path, label string) *validator.Validator {
	return validator.New(name, func(d draft.Draft) error {
		n, ok := d.Int(path)
		if !ok {
			return fmt.Errorf("%s must be a whole number", label)
		}
		if err := vars().Var(n, "gt=0"); err != nil {
			return fmt.Errorf("%s must be greater than 0", label)
		}
		return nil
	}, validator.On(path))
}

// NonNegativeInt requires a whole number of zero or more at path. A missing
// value passes.
func NonNegativeInt(name, path, label string) *validator.Validator {
	return validator.New(name, func(d draft.Draft) error {
		if !d.Has(path) || d.String(path) == "" {
			return nil
		}
		n, ok := d.Int(path)
		if !ok || vars().Var(n, "gte=0") != nil {
			return fmt.Errorf("%s must be 0 or greater", label)
		}
		return nil
	}, validator.On(path))
}

// Range requires a whole number within [lo, hi] at path.
func Range(name, path, label string, lo, hi int) *validator.Validator {
	tag := fmt.Sprintf("min=%d,max=%d", lo, hi)
	return validator.New(name, func(d draft.Draft) error {
		n, ok := d.Int(path)
		if !ok || vars().Var(n, tag) != nil {
			return fmt.Errorf("%s must be between %d and %d", label, lo, hi)
		}
		return nil
	}, validator.On(path))
}

// MaxAboveMin applies when the boolean at enabledPath is set: both capacities
// must be positive and max must exceed min.
func MaxAboveMin(name, enabledPath, minPath, maxPath string) *validator.Validator {
	return validator.New(name, func(d draft.Draft) error {
		if !d.Bool(enabledPath) {
			return nil
		}
		lo, okLo := d.Int(minPath)
		hi, okHi := d.Int(maxPath)
		if !okLo || lo <= 0 {
			return errors.New("minimum shards must be greater than 0")
		}
		if !okHi || hi <= 0 {
			return errors.New("maximum shards must be greater than 0")
		}
		if err := vars().Var(hi, fmt.Sprintf("gt=%d", lo)); err != nil {
			return errors.New("maximum shards must be greater than minimum shards")
		}
		return nil
	}, validator.On(enabledPath, minPath, maxPath))
}

// IndexPrefix requires a lower-case index prefix using letters, digits, "-"
// and "_", starting with a letter.
func IndexPrefix(name, path string) *validator.Validator {
	return validator.New(name, func(d draft.Draft) error {
		prefix := d.String(path)
		if strings.TrimSpace(prefix) == "" {
			return errors.New("index prefix is required")
		}
		if len(prefix) > MaxIndexPrefixSize {
			return fmt.Errorf("index prefix must be at most %d characters", MaxIndexPrefixSize)
		}
		if !indexPrefixPattern.MatchString(prefix) {
			return errors.New("index prefix must start with a lower-case letter and contain only a-z, 0-9, - and _")
		}
		return nil
	}, validator.On(path))
}

// S3Prefix validates an object key prefix filter: it must not start with "/"
// and may hold at most one "*" wildcard. Empty prefixes pass.
func S3Prefix(name, path string) *validator.Validator {
	return validator.New(name, func(d draft.Draft) error {
		prefix := d.String(path)
		if strings.HasPrefix(prefix, "/") {
			return errors.New("prefix filter must not start with /")
		}
		if strings.Count(prefix, "*") > 1 {
			return errors.New("prefix filter may contain at most one *")
		}
		return nil
	}, validator.On(path))
}

// LifecycleOrder requires warm < cold < retain among the ages that are set.
// Zero or missing ages are ignored.
func LifecycleOrder(name, warmPath, coldPath, retainPath string) *validator.Validator {
	return validator.New(name, func(d draft.Draft) error {
		labels := []string{"warm", "cold", "retention"}
		paths := []string{warmPath, coldPath, retainPath}
		prev, prevLabel := 0, ""
		for i, p := range paths {
			if d.String(p) == "" {
				continue
			}
			n, ok := d.Int(p)
			if !ok || n < 0 {
				return fmt.Errorf("%s age must be a whole number of days", labels[i])
			}
			if n == 0 {
				continue
			}
			if prevLabel != "" && n <= prev {
				return fmt.Errorf("%s age must be greater than %s age", labels[i], prevLabel)
			}
			prev, prevLabel = n, labels[i]
		}
		return nil
	}, validator.On(warmPath, coldPath, retainPath))
}

// Emails applies when the boolean at enabledPath is set: at least one
// address is required and every address must be valid.
func Emails(name, enabledPath, path string) *validator.Validator {
	return validator.New(name, func(d draft.Draft) error {
		if !d.Bool(enabledPath) {
			return nil
		}
		addrs := d.Strings(path)
		if len(addrs) == 0 {
			return errors.New("at least one notification email is required")
		}
		for _, addr := range addrs {
			if err := vars().Var(addr, "email"); err != nil {
				return fmt.Errorf("%q is not a valid email address", addr)
			}
		}
		return nil
	}, validator.On(enabledPath, path))
}

// Tags requires every tag entry at path to have a unique, non-empty key.
func Tags(name, path string) *validator.Validator {
	return validator.New(name, func(d draft.Draft) error {
		seen := make(map[string]struct{})
		for i := range d.Slice(path) {
			key := strings.TrimSpace(d.String(fmt.Sprintf("%s.%d.key", path, i)))
			if key == "" {
				return fmt.Errorf("tag %d: key is required", i+1)
			}
			if _, dup := seen[key]; dup {
				return fmt.Errorf("tag key %q is duplicated", key)
			}
			seen[key] = struct{}{}
		}
		return nil
	}, validator.On(path))
}

// OneOf requires the string at path to be one of values.
func OneOf(name, path, label string, values ...string) *validator.Validator {
	return validator.New(name, func(d draft.Draft) error {
		got := d.String(path)
		for _, v := range values {
			if got == v {
				return nil
			}
		}
		return fmt.Errorf("%s must be one of %s", label, strings.Join(values, ", "))
	}, validator.On(path))
}

// When guards inner so it only runs while cond holds. The guard's paths are
// added to the dependency set.
func When(cond func(draft.Draft) bool, inner *validator.Validator, condPaths ...string) *validator.Validator {
	deps := append(inner.Deps(), condPaths...)
	return validator.New(inner.Name(), func(d draft.Draft) error {
		if !cond(d) {
			return nil
		}
		if res := inner.Validate(d); !res.Valid {
			return errors.New(res.Message)
		}
		return nil
	}, validator.On(deps...))
}

// Equals builds a condition that holds when the string at path equals value.
func Equals(path, value string) func(draft.Draft) bool {
	return func(d draft.Draft) bool {
		return d.String(path) == value
	}
}
