package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/goliatone/go-pipewizard/pkg/pipeline"
)

// dryRunAPI prints each request as JSON and answers with made-up ids.
type dryRunAPI struct {
	mu  sync.Mutex
	out io.Writer
	n   int
}

func newDryRunAPI(out io.Writer) *dryRunAPI {
	return &dryRunAPI{out: out}
}

func (d *dryRunAPI) CreateAppPipeline(_ context.Context, params pipeline.CreateAppPipelineParams) (string, error) {
	return d.print("createAppPipeline", "pipeline", params)
}

func (d *dryRunAPI) CreateAppLogIngestion(_ context.Context, params pipeline.CreateAppLogIngestionParams) (string, error) {
	return d.print("createAppLogIngestion", "ingestion", params)
}

func (d *dryRunAPI) CreateLogSource(_ context.Context, params pipeline.CreateLogSourceParams) (string, error) {
	return d.print("createLogSource", "source", params)
}

func (d *dryRunAPI) print(operation, kind string, variables any) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	body, err := json.MarshalIndent(map[string]any{
		"operation": operation,
		"variables": variables,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	if _, err := fmt.Fprintln(d.out, string(body)); err != nil {
		return "", err
	}
	d.n++
	return fmt.Sprintf("dry-run-%s-%d", kind, d.n), nil
}
