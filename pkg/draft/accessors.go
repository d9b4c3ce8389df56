package draft

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// String returns the value at path formatted as a string. Missing values and
// nil yield "".
func (d Draft) String(path string) string {
	v, ok := d.Get(path)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int coerces the value at path into an int. Whole floats and numeric strings
// are accepted; anything else reports false.
func (d Draft) Int(path string) (int, bool) {
	v, ok := d.Get(path)
	if !ok {
		return 0, false
	}
	return ToInt(v)
}

// IntOr returns the integer at path or fallback.
func (d Draft) IntOr(path string, fallback int) int {
	if n, ok := d.Int(path); ok {
		return n
	}
	return fallback
}

// Bool coerces the value at path into a bool. "true"/"false" strings are
// accepted; missing values are false.
func (d Draft) Bool(path string) bool {
	v, ok := d.Get(path)
	if !ok {
		return false
	}
	b, _ := ToBool(v)
	return b
}

// Slice returns the slice stored at path.
func (d Draft) Slice(path string) []any {
	v, ok := d.Get(path)
	if !ok {
		return nil
	}
	switch typed := v.(type) {
	case []any:
		return typed
	case []string:
		out := make([]any, len(typed))
		for i, s := range typed {
			out[i] = s
		}
		return out
	default:
		return nil
	}
}

// Strings returns the slice at path with each element formatted as a string.
// A comma separated string is split.
func (d Draft) Strings(path string) []string {
	if s, ok := d.rawString(path); ok {
		return splitList(s)
	}
	items := d.Slice(path)
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, fmt.Sprint(item))
	}
	return out
}

func (d Draft) rawString(path string) (string, bool) {
	v, ok := d.Get(path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ToInt coerces common numeric encodings into an int.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// ToBool coerces bools and "true"/"false" strings.
func ToBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, false
		}
		return parsed, true
	default:
		return false, false
	}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
