package render

import (
	"context"
	"encoding/json"
	"fmt"
)

// Renderer converts a FormView into a byte representation (HTML, JSON, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view FormView) ([]byte, error)
}

// JSONRenderer emits the view model as JSON for client-side renderers.
type JSONRenderer struct {
	Indent string
}

// NewJSONRenderer returns a compact JSON renderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

func (r *JSONRenderer) Name() string {
	return "json"
}

func (r *JSONRenderer) ContentType() string {
	return "application/json"
}

func (r *JSONRenderer) Render(_ context.Context, view FormView) ([]byte, error) {
	var (
		out []byte
		err error
	)
	if r.Indent != "" {
		out, err = json.MarshalIndent(view, "", r.Indent)
	} else {
		out, err = json.Marshal(view)
	}
	if err != nil {
		return nil, fmt.Errorf("render: encode json view: %w", err)
	}
	return out, nil
}
