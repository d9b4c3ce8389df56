// Package draft holds the accumulating configuration of one wizard session.
//
// A Draft is a tree of map[string]any, []any and scalar leaves addressed by
// dotted paths such as "buffer.kds.maxCapacity" or "tags.0.key". Drafts are
// values: Set and Delete return a new Draft and reallocate only the nodes on
// the path from the root to the leaf, so earlier snapshots stay valid for
// comparison.
package draft

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned when a path cannot be applied to the tree.
var ErrInvalidPath = errors.New("draft: invalid path")

// Draft is an immutable configuration tree. The zero value is an empty draft.
type Draft struct {
	root map[string]any
}

// New returns a draft seeded with a deep copy of values.
func New(values map[string]any) Draft {
	if len(values) == 0 {
		return Draft{}
	}
	return Draft{root: deepCopy(values).(map[string]any)}
}

// Map returns a deep copy of the tree.
func (d Draft) Map() map[string]any {
	if len(d.root) == 0 {
		return map[string]any{}
	}
	return deepCopy(d.root).(map[string]any)
}

// Empty reports whether the draft holds no values.
func (d Draft) Empty() bool {
	return len(d.root) == 0
}

// Get resolves a dotted path.
func (d Draft) Get(path string) (any, bool) {
	if d.root == nil || path == "" {
		return nil, false
	}
	var current any = d.root
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Has reports whether path resolves to a value.
func (d Draft) Has(path string) bool {
	_, ok := d.Get(path)
	return ok
}

// Set returns a draft with value stored at path. Intermediate maps and slices
// are created as needed; a numeric segment addresses a slice element.
func (d Draft) Set(path string, value any) (Draft, error) {
	segments, err := splitPath(path)
	if err != nil {
		return d, err
	}
	root, err := setNode(d.root, segments, deepCopy(value))
	if err != nil {
		return d, fmt.Errorf("%w %q: %v", ErrInvalidPath, path, err)
	}
	out, _ := root.(map[string]any)
	return Draft{root: out}, nil
}

// MustSet is Set for static paths; it panics on malformed paths.
func (d Draft) MustSet(path string, value any) Draft {
	out, err := d.Set(path, value)
	if err != nil {
		panic(err)
	}
	return out
}

// Delete returns a draft without the value at path. Missing paths are a no-op.
func (d Draft) Delete(path string) Draft {
	segments, err := splitPath(path)
	if err != nil || !d.Has(path) {
		return d
	}
	root := deleteNode(d.root, segments)
	out, _ := root.(map[string]any)
	return Draft{root: out}
}

// Equal reports whether both drafts hold the same tree.
func (d Draft) Equal(other Draft) bool {
	if len(d.root) == 0 && len(other.root) == 0 {
		return true
	}
	return reflect.DeepEqual(d.root, other.root)
}

// Changed lists the leaf paths whose values differ between a and b, sorted.
func Changed(a, b Draft) []string {
	set := make(map[string]struct{})
	diff("", a.root, b.root, set)
	out := make([]string, 0, len(set))
	for path := range set {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Overlay returns base with every leaf of top written over it. Slices in top
// replace the slice in base as a whole.
func Overlay(base, top Draft) Draft {
	out := base
	for _, path := range Changed(Draft{}, top) {
		v, _ := top.Get(path)
		if next, err := out.Set(path, v); err == nil {
			out = next
		}
	}
	return out
}

func diff(prefix string, a, b any, out map[string]struct{}) {
	am, aok := a.(map[string]any)
	bm, bok := b.(map[string]any)
	// a missing side compares as an empty sub-tree so leaves are reported
	if aok && b == nil {
		bok = true
	}
	if bok && a == nil {
		aok = true
	}
	if aok && bok {
		for k, av := range am {
			diff(join(prefix, k), av, bm[k], out)
		}
		for k, bv := range bm {
			if _, seen := am[k]; !seen {
				diff(join(prefix, k), nil, bv, out)
			}
		}
		return
	}
	as, aok := a.([]any)
	bs, bok := b.([]any)
	if aok && bok && len(as) == len(bs) {
		for i := range as {
			diff(join(prefix, strconv.Itoa(i)), as[i], bs[i], out)
		}
		return
	}
	if !reflect.DeepEqual(a, b) && prefix != "" {
		out[prefix] = struct{}{}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func splitPath(path string) ([]string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segments := strings.Split(trimmed, ".")
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("%w %q: empty segment", ErrInvalidPath, path)
		}
	}
	return segments, nil
}

// setNode copies node (shallowly) and recurses into the child addressed by the
// first segment. Siblings are shared with the previous tree.
func setNode(node any, segments []string, value any) (any, error) {
	if len(segments) == 0 {
		return value, nil
	}
	head, rest := segments[0], segments[1:]

	if idx, err := strconv.Atoi(head); err == nil {
		if idx < 0 {
			return nil, fmt.Errorf("negative index %d", idx)
		}
		var src []any
		switch typed := node.(type) {
		case []any:
			src = typed
		case nil:
		default:
			return nil, fmt.Errorf("segment %q addresses a %T", head, node)
		}
		size := len(src)
		switch {
		case idx > size:
			return nil, fmt.Errorf("index %d out of range, slice has %d items", idx, size)
		case idx == size:
			size++
		}
		clone := make([]any, size)
		copy(clone, src)
		child, err := setNode(clone[idx], rest, value)
		if err != nil {
			return nil, err
		}
		clone[idx] = child
		return clone, nil
	}

	var src map[string]any
	switch typed := node.(type) {
	case map[string]any:
		src = typed
	case nil:
	default:
		return nil, fmt.Errorf("segment %q addresses a %T", head, node)
	}
	clone := make(map[string]any, len(src)+1)
	for k, v := range src {
		clone[k] = v
	}
	child, err := setNode(clone[head], rest, value)
	if err != nil {
		return nil, err
	}
	clone[head] = child
	return clone, nil
}

func deleteNode(node any, segments []string) any {
	head, rest := segments[0], segments[1:]
	switch typed := node.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = v
		}
		if len(rest) == 0 {
			delete(clone, head)
		} else {
			clone[head] = deleteNode(clone[head], rest)
		}
		return clone
	case []any:
		idx, err := strconv.Atoi(head)
		if err != nil || idx < 0 || idx >= len(typed) {
			return typed
		}
		if len(rest) == 0 {
			clone := make([]any, 0, len(typed)-1)
			clone = append(clone, typed[:idx]...)
			return append(clone, typed[idx+1:]...)
		}
		clone := append([]any(nil), typed...)
		clone[idx] = deleteNode(clone[idx], rest)
		return clone
	default:
		return node
	}
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case []string:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = v
		}
		return clone
	case []map[string]any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	default:
		return typed
	}
}
