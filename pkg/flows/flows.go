// Package flows assembles the concrete creation wizards: an application
// pipeline on its own, or a pipeline plus the ingestion of an EC2, EKS, S3
// or Syslog source.
package flows

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/goliatone/go-pipewizard/pkg/definition"
	"github.com/goliatone/go-pipewizard/pkg/draft"
	"github.com/goliatone/go-pipewizard/pkg/pipeline"
	"github.com/goliatone/go-pipewizard/pkg/wizard"
)

// Flow names.
const (
	NameAppPipeline = "app-pipeline"
	NameEC2         = "ec2"
	NameEKS         = "eks"
	NameS3          = "s3"
	NameSyslog      = "syslog"
)

// Source describes what the submitter creates besides the pipeline.
type Source int

const (
	// SourceNone creates the pipeline only.
	SourceNone Source = iota
	// SourceExisting links the pipeline to the source id held in the draft.
	SourceExisting
	// SourceSyslog creates a syslog source first when the draft has none.
	SourceSyslog
)

// Option configures a Flow.
type Option func(*Flow)

// WithDefinitions dresses the steps with the layouts held by store. Without
// it the embedded layouts are used.
func WithDefinitions(store *definition.Store) Option {
	return func(f *Flow) {
		if store != nil {
			f.store = store
		}
	}
}

// WithLogger routes submission logs to logger. The logger is also handed to
// the controllers started from the flow.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithDefaults overlays values on the flow's built-in defaults.
func WithDefaults(values draft.Draft) Option {
	return func(f *Flow) {
		f.defaults = draft.Overlay(f.defaults, values)
	}
}

// Flow is a named wizard. Steps are rebuilt for every session because
// validators keep per-session state.
type Flow struct {
	Name   string
	Source Source

	title    string
	build    func() []wizard.Step
	defaults draft.Draft
	api      API
	store    *definition.Store
	logger   *slog.Logger
}

func newFlow(name, title string, source Source, api API, build func() []wizard.Step, options ...Option) *Flow {
	f := &Flow{
		Name:     name,
		Source:   source,
		title:    title,
		build:    build,
		defaults: baseDefaults(),
		api:      api,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	return f
}

// AppPipeline is index -> buffer -> alarms.
func AppPipeline(api API, options ...Option) *Flow {
	return newFlow(NameAppPipeline, "Create application log pipeline", SourceNone, api, func() []wizard.Step {
		return []wizard.Step{indexStep(), bufferStep(), alarmsStep()}
	}, options...)
}

// EC2 is instance group -> log config -> index -> buffer -> alarms.
func EC2(api API, options ...Option) *Flow {
	return newFlow(NameEC2, "Create EC2 log ingestion", SourceExisting, api, func() []wizard.Step {
		return []wizard.Step{instanceGroupStep(), logConfigStep(), indexStep(), bufferStep(), alarmsStep()}
	}, options...)
}

// EKS is cluster -> log config -> index -> buffer -> alarms.
func EKS(api API, options ...Option) *Flow {
	return newFlow(NameEKS, "Create EKS log ingestion", SourceExisting, api, func() []wizard.Step {
		return []wizard.Step{clusterStep(), logConfigStep(), indexStep(), bufferStep(), alarmsStep()}
	}, options...)
}

// S3 is bucket -> log config -> index -> alarms. Objects already sit in S3,
// so the flow has no buffer step and always submits a None buffer.
func S3(api API, options ...Option) *Flow {
	f := newFlow(NameS3, "Create S3 log ingestion", SourceExisting, api, func() []wizard.Step {
		return []wizard.Step{bucketStep(), logConfigStep(), indexStep(), alarmsStep()}
	}, options...)
	f.defaults = f.defaults.MustSet(pipeline.PathBufferType, pipeline.BufferNone)
	return f
}

// Syslog is protocol -> log config -> index -> buffer -> alarms.
func Syslog(api API, options ...Option) *Flow {
	f := newFlow(NameSyslog, "Create Syslog ingestion", SourceSyslog, api, func() []wizard.Step {
		return []wizard.Step{protocolStep(), logConfigStep(), indexStep(), bufferStep(), alarmsStep()}
	}, options...)
	f.defaults = draft.Overlay(draft.New(map[string]any{
		"source": map[string]any{"protocol": "UDP", "port": 514},
	}), f.defaults)
	return f
}

// Title returns the layout title of the flow, falling back to the built-in
// one.
func (f *Flow) Title() string {
	if title := definition.NewDecorator(f.layouts()).Title(f.Name); title != "" {
		return title
	}
	return f.title
}

// Defaults returns the values a new session starts from.
func (f *Flow) Defaults() draft.Draft {
	return f.defaults
}

// Steps builds a fresh, decorated step list.
func (f *Flow) Steps() ([]wizard.Step, error) {
	return definition.NewDecorator(f.layouts()).Decorate(f.Name, f.build())
}

// Start opens a session seeded with the defaults overlaid by prefill.
func (f *Flow) Start(prefill draft.Draft, options ...wizard.Option) (*wizard.Controller, error) {
	if f.api == nil {
		return nil, fmt.Errorf("flows: %s: api is required", f.Name)
	}
	steps, err := f.Steps()
	if err != nil {
		return nil, err
	}
	opts := append([]wizard.Option{
		wizard.WithLogger(f.logger),
		wizard.WithDraft(draft.Overlay(f.defaults, prefill)),
	}, options...)
	return wizard.New(steps, f.Submitter(), opts...)
}

// Submitter returns a submitter bound to one session.
func (f *Flow) Submitter() wizard.Submitter {
	return &submitter{flow: f.Name, source: f.Source, api: f.api, logger: f.logger}
}

func (f *Flow) layouts() *definition.Store {
	if f.store != nil {
		return f.store
	}
	store, err := definition.Default()
	if err != nil {
		f.logger.Warn("embedded layouts unavailable", "error", err)
		return nil
	}
	return store
}

func baseDefaults() draft.Draft {
	return draft.New(map[string]any{
		"opensearch": map[string]any{
			"indexSuffix":  "yyyy-MM-dd",
			"shards":       1,
			"replicas":     1,
			"rolloverSize": "30gb",
			"codec":        "best_compression",
		},
		"buffer": map[string]any{
			"type": pipeline.BufferS3,
			"s3": map[string]any{
				"maxFileSize":    50,
				"uploadInterval": 60,
				"compression":    "gzip",
			},
			"kds": map[string]any{
				"shards":      1,
				"autoscaling": false,
			},
		},
		"monitor": map[string]any{
			"enabled": false,
			"alarms":  false,
		},
	})
}
