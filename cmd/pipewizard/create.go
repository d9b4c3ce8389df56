package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-pipewizard/pkg/definition"
	"github.com/goliatone/go-pipewizard/pkg/draft"
	"github.com/goliatone/go-pipewizard/pkg/flows"
	"github.com/goliatone/go-pipewizard/pkg/review"
	"github.com/goliatone/go-pipewizard/pkg/terminal"
)

var createFlags struct {
	draftFile string
	dryRun    bool
	edit      bool
}

var createCmd = &cobra.Command{
	Use:   "create <flow>",
	Short: "Run a creation wizard",
	Long: `Run one of the creation wizards (see "pipewizard flows").

The wizard can be prefilled from a YAML draft whose keys follow the draft
paths, for example:

  opensearch:
    domain: dev
    indexPrefix: app-logs
  buffer:
    type: KDS`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createFlags.draftFile, "draft", "", "YAML file prefilling the wizard")
	createCmd.Flags().BoolVar(&createFlags.dryRun, "dry-run", false, "print the requests instead of calling the API")
	createCmd.Flags().BoolVar(&createFlags.edit, "edit", false, "skip the source steps (the draft describes an existing pipeline)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := load(cmd)
	if err != nil {
		return err
	}

	var api flows.API
	if createFlags.dryRun {
		api = newDryRunAPI(cmd.OutOrStdout())
	} else {
		client, err := e.client(ctx)
		if err != nil {
			return err
		}
		api = client
	}

	store, err := layouts(e.cfg.Definitions)
	if err != nil {
		return err
	}
	flow, err := flows.DefaultRegistry().New(args[0], api, flows.WithDefinitions(store), flows.WithLogger(e.logger))
	if err != nil {
		return err
	}

	prefill, err := readDraft(createFlags.draftFile)
	if err != nil {
		return err
	}
	if createFlags.edit {
		prefill = prefill.MustSet("mode", flows.ModeEdit)
	}

	controller, err := flow.Start(prefill)
	if err != nil {
		return err
	}

	var reviewOpts []review.Option
	if e.cfg.Templates != "" {
		reviewOpts = append(reviewOpts, review.WithFS(os.DirFS(e.cfg.Templates)))
	}
	renderer, err := review.New(reviewOpts...)
	if err != nil {
		return err
	}
	runner, err := terminal.New(
		terminal.WithPromptDriver(terminal.NewSurveyDriver(cmd.OutOrStdout())),
		terminal.WithReview(renderer),
		terminal.WithLogger(e.logger),
	)
	if err != nil {
		return err
	}

	res, err := runner.Run(ctx, flow.Title(), controller)
	if errors.Is(err, terminal.ErrCancelled) || errors.Is(err, terminal.ErrAborted) {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created pipeline %s (session %s)\n", res.ID, res.Session)
	return nil
}

// layouts returns the embedded layouts, overlaid with the documents in dir
// when set.
func layouts(dir string) (*definition.Store, error) {
	store, err := definition.Default()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dir) == "" {
		return store, nil
	}
	extra, err := definition.LoadFS(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	return store.Merge(extra), nil
}

func readDraft(path string) (draft.Draft, error) {
	if strings.TrimSpace(path) == "" {
		return draft.Draft{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return draft.Draft{}, fmt.Errorf("reading draft: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return draft.Draft{}, fmt.Errorf("parsing draft %s: %w", path, err)
	}
	return draft.New(values), nil
}
