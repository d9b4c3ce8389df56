package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pipewizard/pkg/pipeline"
)

func TestDryRunAPIPrintsRequests(t *testing.T) {
	var buf bytes.Buffer
	api := newDryRunAPI(&buf)

	id, err := api.CreateAppPipeline(context.Background(), pipeline.CreateAppPipelineParams{BufferType: pipeline.BufferNone})
	if err != nil || id != "dry-run-pipeline-1" {
		t.Fatalf("unexpected id %q %v", id, err)
	}
	id, err = api.CreateAppLogIngestion(context.Background(), pipeline.CreateAppLogIngestionParams{SourceID: "s", AppPipelineID: id})
	if err != nil || id != "dry-run-ingestion-2" {
		t.Fatalf("unexpected id %q %v", id, err)
	}

	dec := json.NewDecoder(&buf)
	var first struct {
		Operation string         `json:"operation"`
		Variables map[string]any `json:"variables"`
	}
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Operation != "createAppPipeline" || first.Variables["bufferType"] != "None" {
		t.Fatalf("unexpected request %+v", first)
	}
}

func TestReadDraft(t *testing.T) {
	d, err := readDraft("")
	if err != nil || !d.Empty() {
		t.Fatalf("expected empty draft, got %v %v", d.Map(), err)
	}

	path := filepath.Join(t.TempDir(), "draft.yaml")
	content := "opensearch:\n  indexPrefix: app-logs\n  shards: 2\ntags:\n  - key: team\n    value: core\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	d, err = readDraft(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if d.String("opensearch.indexPrefix") != "app-logs" {
		t.Fatalf("unexpected prefix %q", d.String("opensearch.indexPrefix"))
	}
	if n, _ := d.Int("opensearch.shards"); n != 2 {
		t.Fatalf("unexpected shards %d", n)
	}
	if d.String("tags.0.key") != "team" {
		t.Fatalf("unexpected tag key %q", d.String("tags.0.key"))
	}

	if err := os.WriteFile(path, []byte("opensearch: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := readDraft(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLayoutsMergeDirectory(t *testing.T) {
	dir := t.TempDir()
	doc := "flows:\n  ec2:\n    title: EC2 to OpenSearch\n"
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := layouts(dir)
	if err != nil {
		t.Fatalf("layouts: %v", err)
	}
	flow, ok := store.Resolve("ec2")
	if !ok || flow.Title != "EC2 to OpenSearch" {
		t.Fatalf("unexpected flow %+v", flow)
	}
	if _, ok := flow.Steps["instanceGroup"]; !ok {
		t.Fatalf("embedded steps lost after merge")
	}
}

func TestCommandTree(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, strings.Fields(c.Use)[0])
	}
	if diff := cmp.Diff([]string{"create", "flows", "list"}, names); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
	if f := rootCmd.PersistentFlags().Lookup("auth-mode"); f == nil || f.DefValue != "AWS_IAM" {
		t.Fatalf("unexpected auth-mode flag %+v", f)
	}
}
