package flows

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pipewizard/pkg/draft"
	"github.com/goliatone/go-pipewizard/pkg/pipeline"
)

// API is the subset of the AppSync client the flows submit through.
type API interface {
	CreateAppPipeline(ctx context.Context, params pipeline.CreateAppPipelineParams) (string, error)
	CreateAppLogIngestion(ctx context.Context, params pipeline.CreateAppLogIngestionParams) (string, error)
	CreateLogSource(ctx context.Context, params pipeline.CreateLogSourceParams) (string, error)
}

// created remembers a resource made by an earlier attempt together with the
// request that made it.
type created[T any] struct {
	id     string
	params T
}

type submitter struct {
	flow   string
	source Source
	api    API
	logger *slog.Logger

	mu       sync.Mutex
	syslog   *created[pipeline.CreateLogSourceParams]
	pipeline *created[pipeline.CreateAppPipelineParams]
}

// Submit creates the pipeline and, for sourced flows, the ingestion. Resources
// created by an earlier attempt of the same session are reused while the
// request that would create them is unchanged; any edit to the draft that
// alters a request creates a fresh resource.
func (s *submitter) Submit(ctx context.Context, d draft.Draft, force bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	params, err := pipeline.FromDraft(d)
	if err != nil {
		return "", err
	}
	params.Force = force
	if err := pipeline.Validate(ctx, params); err != nil {
		return "", err
	}

	if s.source == SourceSyslog {
		d, err = s.ensureSyslogSource(ctx, d)
		if err != nil {
			return "", err
		}
	}

	pipelineID, err := s.ensurePipeline(ctx, params)
	if err != nil {
		return "", err
	}
	if s.source == SourceNone {
		return pipelineID, nil
	}

	ingestion, err := pipeline.IngestionFromDraft(d, pipelineID)
	if err != nil {
		return "", err
	}
	if err := pipeline.ValidateIngestion(ctx, ingestion); err != nil {
		return "", err
	}
	ingestionID, err := s.api.CreateAppLogIngestion(ctx, ingestion)
	if err != nil {
		return "", fmt.Errorf("flows: pipeline %s created but ingestion failed: %w", pipelineID, err)
	}
	s.logger.Info("log ingestion created", "flow", s.flow, "pipeline", pipelineID, "ingestion", ingestionID)
	return pipelineID, nil
}

// ensurePipeline creates the pipeline unless an earlier attempt already
// created one from the same parameters. Force is ignored in the comparison.
func (s *submitter) ensurePipeline(ctx context.Context, params pipeline.CreateAppPipelineParams) (string, error) {
	key := params
	key.Force = false
	if s.pipeline != nil && cmp.Equal(s.pipeline.params, key) {
		s.logger.Info("reusing app pipeline", "flow", s.flow, "pipeline", s.pipeline.id)
		return s.pipeline.id, nil
	}
	if s.pipeline != nil {
		s.logger.Warn("pipeline parameters changed, creating a new pipeline", "flow", s.flow, "previous", s.pipeline.id)
	}

	id, err := s.api.CreateAppPipeline(ctx, params)
	if err != nil {
		return "", err
	}
	s.logger.Info("app pipeline created", "flow", s.flow, "pipeline", id, "force", params.Force)
	s.pipeline = &created[pipeline.CreateAppPipelineParams]{id: id, params: key}
	return id, nil
}

// ensureSyslogSource writes a source id into d. A source created earlier in
// the session is reused only when the protocol, port and tags are unchanged.
func (s *submitter) ensureSyslogSource(ctx context.Context, d draft.Draft) (draft.Draft, error) {
	if d.String(pipeline.PathSourceID) != "" {
		return d, nil
	}

	params, err := pipeline.SyslogSourceFromDraft(d)
	if err != nil {
		return d, err
	}
	if s.syslog == nil || !cmp.Equal(s.syslog.params, params) {
		if err := pipeline.ValidateSource(ctx, params); err != nil {
			return d, err
		}
		id, err := s.api.CreateLogSource(ctx, params)
		if err != nil {
			return d, err
		}
		s.logger.Info("syslog source created", "flow", s.flow, "source", id)
		s.syslog = &created[pipeline.CreateLogSourceParams]{id: id, params: params}
	}
	return d.Set(pipeline.PathSourceID, s.syslog.id)
}
