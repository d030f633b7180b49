// Package formkit is the quick-start entry point: load a form document,
// render it and turn answers into a submission without wiring the
// individual packages by hand.
package formkit

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-formkit/pkg/builder"
	"github.com/goliatone/go-formkit/pkg/document"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/render"
	htmlrenderer "github.com/goliatone/go-formkit/pkg/renderers/html"
	"github.com/goliatone/go-formkit/pkg/submission"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// Schema is a versioned form definition.
type Schema = model.FormSchema

// Field is one question of a Schema.
type Field = model.FieldDefinition

// Answers maps field ids to raw respondent input.
type Answers = model.Answers

// Submission is the canonical payload of a completed form.
type Submission = submission.Submission

// Report lists validation errors per field.
type Report = validation.Report

// NewBuilder returns a schema builder.
func NewBuilder(options ...builder.Option) *builder.Builder {
	return builder.New(options...)
}

// LoadSchema reads a YAML or JSON form document.
func LoadSchema(path string) (Schema, error) {
	return document.Load(path)
}

// NewRenderers returns a registry holding the json and html renderers.
func NewRenderers(options ...htmlrenderer.Option) (*render.Registry, error) {
	registry := render.NewRegistry()
	if err := registry.Register(render.NewJSONRenderer()); err != nil {
		return nil, err
	}
	html, err := htmlrenderer.New(options...)
	if err != nil {
		return nil, fmt.Errorf("formkit: %w", err)
	}
	if err := registry.Register(html); err != nil {
		return nil, err
	}
	return registry, nil
}

// Render builds the view for schema and answers and renders it with the
// named renderer.
func Render(ctx context.Context, registry *render.Registry, name string, schema Schema, answers Answers, options ...render.Option) ([]byte, string, error) {
	return registry.Render(ctx, name, render.Model(schema, answers, options...))
}

// GenerateHTML is Render with a fresh registry and the html renderer.
func GenerateHTML(ctx context.Context, schema Schema, answers Answers, options ...render.Option) ([]byte, error) {
	registry, err := NewRenderers()
	if err != nil {
		return nil, err
	}
	out, _, err := Render(ctx, registry, "html", schema, answers, options...)
	return out, err
}

// Submit validates answers and serializes them when they are valid.
func Submit(schema Schema, answers Answers) (Submission, Report, error) {
	return submission.Prepare(schema, answers)
}

// EmbeddedTemplates exposes the html renderer templates so callers can
// extend them.
func EmbeddedTemplates() fs.FS {
	return htmlrenderer.TemplatesFS()
}
