// Package review renders the text shown before submission and in the
// conflict dialog. Templates are pongo2; anything that came from the server
// is passed through a strict HTML policy first.
package review

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

const (
	templateReview   = "review"
	templateConflict = "conflict"
)

// TemplatesFS returns the bundled templates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	templates []fs.FS
	extension string
}

// WithFS adds a template filesystem searched before the bundled one, so
// callers can override review.tpl or conflict.tpl.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templates = append(cfg.templates, files)
		}
	}
}

// WithExtension overrides the template extension.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// Renderer executes the review templates. It is safe for concurrent use.
type Renderer struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
	ext       string
}

// New constructs a Renderer.
func New(options ...Option) (*Renderer, error) {
	cfg := &config{extension: ".tpl"}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	loaders := make([]pongo2.TemplateLoader, 0, len(cfg.templates)+1)
	for _, files := range cfg.templates {
		loaders = append(loaders, pongo2.NewFSLoader(files))
	}
	loaders = append(loaders, pongo2.NewFSLoader(TemplatesFS()))

	registerFilters()
	return &Renderer{
		set:       pongo2.NewSet("review", loaders...),
		templates: make(map[string]*pongo2.Template),
		ext:       cfg.extension,
	}, nil
}

// Render executes the named template with data.
func (r *Renderer) Render(name string, data pongo2.Context) (string, error) {
	if r == nil || r.set == nil {
		return "", errors.New("review: renderer is nil")
	}
	path := name
	if !strings.HasSuffix(path, r.ext) {
		path += r.ext
	}
	tmpl, err := r.template(path)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(data, &buf); err != nil {
		return "", fmt.Errorf("review: execute template %q: %w", path, err)
	}
	return buf.String(), nil
}

func (r *Renderer) template(path string) (*pongo2.Template, error) {
	r.mu.RLock()
	if tmpl, ok := r.templates[path]; ok {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := r.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("review: load template %q: %w", path, err)
	}
	r.templates[path] = tmpl
	return tmpl, nil
}

func registerFilters() {
	if !pongo2.FilterExists("sanitize") {
		_ = pongo2.RegisterFilter("sanitize", filterSanitize)
	}
}

func filterSanitize(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(Sanitize(in.String())), nil
}
