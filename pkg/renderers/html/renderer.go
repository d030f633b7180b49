// Package html renders form views as server-side HTML through pongo2
// templates. Output is autoescaped; rich help text is re-sanitized with
// bluemonday before it is marked safe.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/goliatone/go-formkit/pkg/builder"
	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/render"
	rendertemplate "github.com/goliatone/go-formkit/pkg/render/template"
	"github.com/goliatone/go-formkit/pkg/render/template/pongo"
)

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// Renderer implements render.Renderer for HTML output.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
}

var _ render.Renderer = (*Renderer)(nil)

var filtersOnce sync.Once

// New constructs the renderer with the embedded templates unless overridden.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := pongo.New(pongo.WithFS(cfg.templateFS))
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	var filterErr error
	filtersOnce.Do(func() {
		if err := renderer.RegisterFilter("richtext", richText); err != nil {
			filterErr = err
			return
		}
		filterErr = renderer.RegisterFilter("input_type", inputType)
	})
	if filterErr != nil {
		return nil, fmt.Errorf("html renderer: register filters: %w", filterErr)
	}

	return &Renderer{templates: renderer}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *Renderer) Render(_ context.Context, view render.FormView) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}
	result, err := r.templates.RenderTemplate("form", map[string]any{"form": view})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func richText(input any, _ any) (any, error) {
	text, _ := input.(string)
	return builder.DefaultSanitizer().Rich(text), nil
}

func inputType(input any, _ any) (any, error) {
	switch fieldtype.Type(fmt.Sprint(input)) {
	case fieldtype.Number:
		return "number", nil
	case fieldtype.Date:
		return "date", nil
	case fieldtype.FileUpload:
		return "file", nil
	}
	return "text", nil
}
