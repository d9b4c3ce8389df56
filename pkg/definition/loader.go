package definition

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFS walks fsys and parses JSON/YAML flow documents. When fsys is nil or
// holds no documents, the returned store is empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{flows: make(map[string]Flow)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDocument(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for name, raw := range doc.Flows {
			id := strings.TrimSpace(name)
			if id == "" {
				return fmt.Errorf("definition: file %s defines an empty flow name", path)
			}
			if _, exists := store.flows[id]; exists {
				return fmt.Errorf("definition: duplicate flow %q (file %s)", id, path)
			}
			flow, err := normaliseFlow(raw, id, path)
			if err != nil {
				return err
			}
			store.flows[id] = flow
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Flow returns the layout for name.
func (s *Store) Flow(name string) (Flow, bool) {
	if s == nil {
		return Flow{}, false
	}
	flow, ok := s.flows[name]
	return flow, ok
}

// Resolve returns the layout of name laid over the shared layout. It reports
// false when neither exists.
func (s *Store) Resolve(name string) (Flow, bool) {
	shared, hasShared := s.Flow(SharedFlow)
	flow, hasFlow := s.Flow(name)
	switch {
	case !hasShared && !hasFlow:
		return Flow{}, false
	case !hasShared:
		return flow, true
	}
	out := cloneFlow(shared)
	out.Name = name
	out.Title = ""
	out.Description = ""
	if hasFlow {
		out.Source = flow.Source
		out.Title = flow.Title
		out.Description = flow.Description
		for stepName, step := range flow.Steps {
			out.Steps[stepName] = mergeStep(out.Steps[stepName], step)
		}
	}
	return out, true
}

// Names lists the flows held by the store.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.flows))
	for name := range s.flows {
		out = append(out, name)
	}
	return out
}

// Empty reports whether the store holds any flows.
func (s *Store) Empty() bool {
	return s == nil || len(s.flows) == 0
}

// Merge returns a store holding s overlaid with other. Non-empty values in
// other win, step by step and field by field.
func (s *Store) Merge(other *Store) *Store {
	out := &Store{flows: make(map[string]Flow)}
	if s != nil {
		for name, flow := range s.flows {
			out.flows[name] = cloneFlow(flow)
		}
	}
	if other == nil {
		return out
	}
	for name, overlay := range other.flows {
		base, ok := out.flows[name]
		if !ok {
			out.flows[name] = cloneFlow(overlay)
			continue
		}
		base.Source = overlay.Source
		base.Title = pick(overlay.Title, base.Title)
		base.Description = pick(overlay.Description, base.Description)
		for stepName, step := range overlay.Steps {
			base.Steps[stepName] = mergeStep(base.Steps[stepName], step)
		}
		out.flows[name] = base
	}
	return out
}

type documentFile struct {
	Flows map[string]flowFile `json:"flows" yaml:"flows"`
}

type flowFile struct {
	Title       string                `json:"title" yaml:"title"`
	Description string                `json:"description" yaml:"description"`
	Steps       map[string]StepConfig `json:"steps" yaml:"steps"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("definition: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("definition: parse %s: %w", source, err)
	}
	return doc, nil
}

func normaliseFlow(raw flowFile, name, source string) (Flow, error) {
	flow := Flow{
		Name:        name,
		Source:      source,
		Title:       strings.TrimSpace(raw.Title),
		Description: strings.TrimSpace(raw.Description),
		Steps:       make(map[string]StepConfig, len(raw.Steps)),
	}
	for stepName, step := range raw.Steps {
		id := strings.TrimSpace(stepName)
		if id == "" {
			return Flow{}, fmt.Errorf("definition: flow %q (file %s) defines an empty step name", name, source)
		}
		fields := make(map[string]FieldConfig, len(step.Fields))
		for key, cfg := range step.Fields {
			path := NormalizeFieldPath(key)
			if path == "" {
				return Flow{}, fmt.Errorf("definition: flow %q step %q (file %s) field key %q normalises to empty path", name, id, source, key)
			}
			if _, exists := fields[path]; exists {
				return Flow{}, fmt.Errorf("definition: flow %q step %q (file %s) defines duplicate field %q", name, id, source, path)
			}
			cfg.Options = append([]string(nil), cfg.Options...)
			fields[path] = cfg
		}
		step.Fields = fields
		step.DisabledWhen = strings.TrimSpace(step.DisabledWhen)
		flow.Steps[id] = step
	}
	return flow, nil
}

func mergeStep(base, overlay StepConfig) StepConfig {
	out := StepConfig{
		Title:        pick(overlay.Title, base.Title),
		Description:  pick(overlay.Description, base.Description),
		DisabledWhen: pick(overlay.DisabledWhen, base.DisabledWhen),
		Fields:       make(map[string]FieldConfig, len(base.Fields)+len(overlay.Fields)),
	}
	for path, cfg := range base.Fields {
		out.Fields[path] = cfg
	}
	for path, cfg := range overlay.Fields {
		current := out.Fields[path]
		current.Label = pick(cfg.Label, current.Label)
		current.Help = pick(cfg.Help, current.Help)
		current.Placeholder = pick(cfg.Placeholder, current.Placeholder)
		current.VisibleWhen = pick(cfg.VisibleWhen, current.VisibleWhen)
		if len(cfg.Options) > 0 {
			current.Options = append([]string(nil), cfg.Options...)
		}
		out.Fields[path] = current
	}
	return out
}

func cloneFlow(flow Flow) Flow {
	out := flow
	out.Steps = make(map[string]StepConfig, len(flow.Steps))
	for name, step := range flow.Steps {
		out.Steps[name] = mergeStep(StepConfig{}, step)
	}
	return out
}

func pick(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func isDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
