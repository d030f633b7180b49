package render

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrRendererNotFound is returned when no renderer is registered under a name.
var ErrRendererNotFound = errors.New("render: renderer not found")

// Registry resolves the output format a caller asks for ("json", "html") to
// a Renderer. Renderers are registered while wiring the API or the CLI and
// looked up per request.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Renderer
	names  []string // sorted
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]Renderer{}}
}

// Register adds renderer under its Name. A name can be taken only once.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil || renderer.Name() == "" {
		return errors.New("render: a named renderer is required")
	}
	name := renderer.Name()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byName[name]; taken {
		return fmt.Errorf("render: %q is registered twice", name)
	}
	r.byName[name] = renderer
	at, _ := slices.BinarySearch(r.names, name)
	r.names = slices.Insert(r.names, at, name)
	return nil
}

// MustRegister is Register for wiring code that cannot recover.
func (r *Registry) MustRegister(renderer Renderer) {
	if err := r.Register(renderer); err != nil {
		panic(err)
	}
}

// Get returns the renderer registered as name.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if renderer, ok := r.byName[name]; ok {
		return renderer, nil
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", ErrRendererNotFound, name, strings.Join(r.names, ", "))
}

// List returns the registered names in order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.names)
}

// Render draws view with the renderer called name and returns the body
// together with its content type.
func (r *Registry) Render(ctx context.Context, name string, view FormView) ([]byte, string, error) {
	renderer, err := r.Get(name)
	if err != nil {
		return nil, "", err
	}
	body, err := renderer.Render(ctx, view)
	if err != nil {
		return nil, "", fmt.Errorf("render: %s: %w", name, err)
	}
	return body, renderer.ContentType(), nil
}
