package terminal

import (
	"log/slog"

	"github.com/goliatone/go-pipewizard/pkg/review"
)

// Theme captures optional prefixes applied to printed messages.
type Theme struct {
	StepPrefix  string
	InfoPrefix  string
	ErrorPrefix string
}

// DefaultTheme is used when no theme is supplied.
var DefaultTheme = Theme{StepPrefix: "==> ", ErrorPrefix: "! "}

// Option configures the Runner.
type Option func(*Runner)

// WithPromptDriver overrides the prompt driver used by the runner.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithReview overrides the renderer used for the review page and the
// conflict dialog.
func WithReview(renderer *review.Renderer) Option {
	return func(r *Runner) {
		if renderer != nil {
			r.review = renderer
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Runner) {
		r.theme = theme
	}
}

// WithLogger routes runner logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}
