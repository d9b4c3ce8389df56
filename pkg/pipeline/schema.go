package pipeline

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed schema.yaml
var schemaDocument []byte

const (
	schemaAppPipeline  = "CreateAppPipelineParams"
	schemaAppIngestion = "CreateAppLogIngestionParams"
	schemaLogSource    = "CreateLogSourceParams"
)

var (
	schemaOnce sync.Once
	schemaDoc  *openapi3.T
	schemaErr  error
)

func loadSchema(ctx context.Context) (*openapi3.T, error) {
	schemaOnce.Do(func() {
		loader := &openapi3.Loader{Context: ctx}
		doc, err := loader.LoadFromData(schemaDocument)
		if err != nil {
			schemaErr = fmt.Errorf("pipeline: load schema: %w", err)
			return
		}
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			schemaErr = fmt.Errorf("pipeline: validate schema: %w", err)
			return
		}
		schemaDoc = doc
	})
	return schemaDoc, schemaErr
}

// Validate checks the wire shape of a createAppPipeline request.
func Validate(ctx context.Context, params CreateAppPipelineParams) error {
	return validateAgainst(ctx, schemaAppPipeline, params)
}

// ValidateIngestion checks the wire shape of a createAppLogIngestion request.
func ValidateIngestion(ctx context.Context, params CreateAppLogIngestionParams) error {
	return validateAgainst(ctx, schemaAppIngestion, params)
}

// ValidateSource checks the wire shape of a createLogSource request.
func ValidateSource(ctx context.Context, params CreateLogSourceParams) error {
	return validateAgainst(ctx, schemaLogSource, params)
}

func validateAgainst(ctx context.Context, name string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := loadSchema(ctx)
	if err != nil {
		return err
	}
	ref, ok := doc.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return fmt.Errorf("pipeline: schema %q not found", name)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("pipeline: encode %s: %w", name, err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("pipeline: decode %s: %w", name, err)
	}
	if err := ref.Value.VisitJSON(generic); err != nil {
		return fmt.Errorf("pipeline: invalid %s: %w", name, err)
	}
	return nil
}
