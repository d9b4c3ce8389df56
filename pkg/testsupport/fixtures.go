// Package testsupport holds fixture and golden file helpers shared by package
// tests.
package testsupport

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-pipewizard/pkg/draft"
)

// MustLoadDraft reads a YAML draft fixture.
func MustLoadDraft(t *testing.T, path string) draft.Draft {
	t.Helper()

	d, err := LoadDraft(path)
	if err != nil {
		t.Fatalf("load draft: %v", err)
	}
	return d
}

// LoadDraft reads a YAML draft fixture without requiring testing.T.
func LoadDraft(path string) (draft.Draft, error) {
	if path == "" {
		return draft.Draft{}, errors.New("testsupport: draft path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return draft.Draft{}, fmt.Errorf("testsupport: read draft: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return draft.Draft{}, fmt.Errorf("testsupport: unmarshal draft: %w", err)
	}
	return draft.New(values), nil
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CompareJSONGolden marshals got and diffs it against the JSON golden at path.
// Both sides are decoded first so formatting and key order do not matter.
func CompareJSONGolden(t *testing.T, path string, got any) string {
	t.Helper()

	payload, err := json.MarshalIndent(got, "", "  ")
	if err != nil {
		t.Fatalf("marshal value: %v", err)
	}
	if WriteMaybeGolden(t, path, append(payload, '\n')) {
		return ""
	}

	var want, have any
	if err := json.Unmarshal(MustReadGolden(t, path), &want); err != nil {
		t.Fatalf("unmarshal golden %s: %v", path, err)
	}
	if err := json.Unmarshal(payload, &have); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	return cmp.Diff(want, have)
}
