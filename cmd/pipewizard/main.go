package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-pipewizard/internal/config"
	"github.com/goliatone/go-pipewizard/internal/logging"
	"github.com/goliatone/go-pipewizard/pkg/appsync"
)

var rootCmd = &cobra.Command{
	Use:           "pipewizard",
	Short:         "Create log pipelines and ingestions from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("endpoint", "", "AppSync GraphQL endpoint")
	flags.String("region", "", "AWS region used for request signing")
	flags.String("auth-mode", config.AuthIAM, "API_KEY or AWS_IAM")
	flags.String("api-key", "", "API key for API_KEY auth")
	flags.Duration("timeout", 0, "HTTP timeout (default from config, 30s)")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("log-format", logging.FormatText, "text or json")
	flags.String("definitions", "", "directory of extra step layout documents")
	flags.String("templates", "", "directory of review template overrides")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(flowsCmd)
	rootCmd.AddCommand(listCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "pipewizard:", err)
		os.Exit(1)
	}
}

// env is what every command needs after configuration is loaded.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

func load(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger}, nil
}

func (e *env) client(ctx context.Context) (*appsync.Client, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	opts := []appsync.Option{
		appsync.WithLogger(e.logger),
		appsync.WithHTTPClient(&http.Client{Timeout: e.cfg.Timeout}),
	}
	switch e.cfg.AuthMode {
	case config.AuthAPIKey:
		opts = append(opts, appsync.WithAPIKey(e.cfg.APIKey))
	case config.AuthIAM:
		iam, err := appsync.LoadIAM(ctx, e.cfg.Region, appsync.StaticKeys{
			AccessKeyID:     e.cfg.AccessKeyID,
			SecretAccessKey: e.cfg.SecretAccessKey,
			SessionToken:    e.cfg.SessionToken,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, iam)
	}
	return appsync.New(e.cfg.Endpoint, opts...)
}
