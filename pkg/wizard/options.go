package wizard

import (
	"io"
	"log/slog"
	"strings"

	"github.com/goliatone/go-pipewizard/pkg/draft"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger routes transition and submission logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDraft seeds the wizard with an initial draft (edit flows, prefill).
func WithDraft(d draft.Draft) Option {
	return func(c *Controller) {
		c.draft = d
	}
}

// WithSession overrides the generated session identifier attached to logs.
func WithSession(id string) Option {
	return func(c *Controller) {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			c.session = trimmed
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
