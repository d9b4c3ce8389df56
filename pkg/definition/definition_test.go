package definition_test

import (
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pipewizard/pkg/definition"
	"github.com/goliatone/go-pipewizard/pkg/draft"
	"github.com/goliatone/go-pipewizard/pkg/wizard"
)

func TestDefaultStoreResolvesSharedSteps(t *testing.T) {
	store, err := definition.Default()
	if err != nil {
		t.Fatalf("default store: %v", err)
	}
	for _, name := range []string{"app-pipeline", "ec2", "eks", "s3", "syslog"} {
		flow, ok := store.Resolve(name)
		if !ok {
			t.Fatalf("flow %q not found", name)
		}
		if flow.Title == "" {
			t.Fatalf("flow %q has no title", name)
		}
		if _, ok := flow.Steps["index"]; !ok {
			t.Fatalf("flow %q does not inherit the index step", name)
		}
	}

	ec2, _ := store.Resolve("ec2")
	if got := ec2.Steps["instanceGroup"].Fields["source.logPath"].Label; got != "Log path" {
		t.Fatalf("unexpected log path label %q", got)
	}
}

func TestLoadFSRejectsDuplicateFlows(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("flows:\n  ec2:\n    title: A\n")},
		"b.json": {Data: []byte(`{"flows":{"ec2":{"title":"B"}}}`)},
	}
	if _, err := definition.LoadFS(fsys); err == nil {
		t.Fatalf("expected duplicate flow error")
	}
}

func TestLoadFSNormalisesFieldKeys(t *testing.T) {
	fsys := fstest.MapFS{
		"tags.yaml": {Data: []byte(`
flows:
  custom:
    steps:
      alarms:
        fields:
          "tags[0].key":
            label: First tag
`)},
		"notes.txt": {Data: []byte("ignored")},
	}
	store, err := definition.LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	flow, ok := store.Flow("custom")
	if !ok {
		t.Fatalf("custom flow missing")
	}
	if got := flow.Steps["alarms"].Fields["tags.0.key"].Label; got != "First tag" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestMergeOverlaysFieldByField(t *testing.T) {
	base, err := definition.LoadFS(fstest.MapFS{"base.yaml": {Data: []byte(`
flows:
  ec2:
    title: Base
    steps:
      instanceGroup:
        title: Instance group
        fields:
          source.id:
            label: Group
            help: Pick a group
`)}})
	if err != nil {
		t.Fatalf("load base: %v", err)
	}
	overlay, err := definition.LoadFS(fstest.MapFS{"overlay.yaml": {Data: []byte(`
flows:
  ec2:
    steps:
      instanceGroup:
        fields:
          source.id:
            label: Fleet
`)}})
	if err != nil {
		t.Fatalf("load overlay: %v", err)
	}

	merged := base.Merge(overlay)
	flow, _ := merged.Flow("ec2")
	got := flow.Steps["instanceGroup"].Fields["source.id"]
	if got.Label != "Fleet" {
		t.Fatalf("expected overlay label, got %q", got.Label)
	}
	if got.Help != "Pick a group" {
		t.Fatalf("expected help to survive overlay, got %q", got.Help)
	}
	if flow.Title != "Base" || flow.Steps["instanceGroup"].Title != "Instance group" {
		t.Fatalf("expected base titles to survive, got %+v", flow)
	}

	original, _ := base.Flow("ec2")
	if original.Steps["instanceGroup"].Fields["source.id"].Label != "Group" {
		t.Fatalf("merge mutated the base store")
	}
}

func TestDecorateAppliesLayout(t *testing.T) {
	store, err := definition.LoadFS(fstest.MapFS{"flow.yaml": {Data: []byte(`
flows:
  common:
    steps:
      buffer:
        title: Buffer
        fields:
          buffer.kds.shards:
            label: Shard number
            visibleWhen: buffer?.type == "KDS"
  demo:
    title: Demo
    steps:
      source:
        title: Source
        disabledWhen: mode == "edit"
`)}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	steps := []wizard.Step{
		{Name: "source"},
		{Name: "buffer", Fields: []wizard.Field{{Path: "buffer.kds.shards", Label: "shards"}}},
		{Name: "untouched", Title: "Keep"},
	}
	dec := definition.NewDecorator(store)
	out, err := dec.Decorate("demo", steps)
	if err != nil {
		t.Fatalf("decorate: %v", err)
	}
	if dec.Title("demo") != "Demo" {
		t.Fatalf("unexpected title %q", dec.Title("demo"))
	}

	var titles []string
	for _, s := range out {
		titles = append(titles, s.Title)
	}
	if diff := cmp.Diff([]string{"Source", "Buffer", "Keep"}, titles); diff != "" {
		t.Fatalf("titles mismatch (-want +got):\n%s", diff)
	}
	if steps[1].Fields[0].Label != "shards" {
		t.Fatalf("decorate mutated the input steps")
	}

	edit := draft.New(map[string]any{"mode": "edit"})
	if out[0].Disabled == nil || !out[0].Disabled(edit) || out[0].Disabled(draft.Draft{}) {
		t.Fatalf("expected source step disabled only in edit mode")
	}

	field := out[1].Fields[0]
	if field.Label != "Shard number" {
		t.Fatalf("unexpected label %q", field.Label)
	}
	if field.Visible(draft.Draft{}) {
		t.Fatalf("expected field hidden without a buffer type")
	}
	if !field.Visible(draft.New(map[string]any{"buffer": map[string]any{"type": "KDS"}})) {
		t.Fatalf("expected field visible for KDS buffers")
	}
}

func TestDecorateReportsBadRules(t *testing.T) {
	store, err := definition.LoadFS(fstest.MapFS{"flow.yaml": {Data: []byte(`
flows:
  demo:
    steps:
      source:
        disabledWhen: "mode =="
`)}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := definition.NewDecorator(store).Decorate("demo", []wizard.Step{{Name: "source"}}); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestNilDecoratorIsNoop(t *testing.T) {
	var dec *definition.Decorator
	out, err := dec.Decorate("any", []wizard.Step{{Name: "a"}})
	if err != nil || len(out) != 1 || out[0].Name != "a" {
		t.Fatalf("unexpected result %+v %v", out, err)
	}
}
