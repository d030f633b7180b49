// Package pongo implements template.TemplateRenderer on top of pongo2.
package pongo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formkit/pkg/render/template"
)

// Extension is appended to template names given without it.
const Extension = ".tpl"

func init() {
	if !pongo2.FilterExists("trim") {
		_ = pongo2.RegisterFilter("trim", func(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			return pongo2.AsValue(strings.TrimSpace(in.String())), nil
		})
	}
}

// Option configures an Engine.
type Option func(*Engine) error

// WithFS loads templates from files, typically an embed.FS.
func WithFS(files fs.FS) Option {
	return func(e *Engine) error {
		if files == nil {
			return errors.New("pongo: nil template fs")
		}
		e.files = files
		return nil
	}
}

// WithGlobalData seeds values visible to every template.
func WithGlobalData(data map[string]any) Option {
	return func(e *Engine) error {
		if len(data) == 0 {
			return nil
		}
		return e.GlobalContext(data)
	}
}

// Engine renders pongo2 templates from an fs.FS. Compiled templates are
// cached by name for the life of the engine.
type Engine struct {
	files fs.FS
	set   *pongo2.TemplateSet

	mu       sync.RWMutex // guards globals
	globals  pongo2.Context
	compiled sync.Map // name -> *pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an Engine. A template fs is required.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{globals: pongo2.Context{}}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.files == nil {
		return nil, errors.New("pongo: templates fs is required")
	}
	e.set = pongo2.NewSet("formkit", pongo2.NewFSLoader(e.files))
	return e, nil
}

// RenderTemplate renders the template called name, adding Extension when
// name lacks it.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}
	tmpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	return e.run(name, tmpl, data, out)
}

// RenderString compiles and renders source without caching it.
func (e *Engine) RenderString(source string, data any, out ...io.Writer) (string, error) {
	tmpl, err := e.set.FromString(source)
	if err != nil {
		return "", fmt.Errorf("pongo: parse inline template: %w", err)
	}
	return e.run("inline", tmpl, data, out)
}

// RegisterFilter adds a filter. pongo2 filters are process wide, so a name
// can be registered once.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "" || fn == nil:
		return errors.New("pongo: filter needs a name and a function")
	case pongo2.FilterExists(name):
		return fmt.Errorf("pongo: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		result, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	})
}

// GlobalContext merges data into the values every render sees. Keys given
// to a render call shadow globals.
func (e *Engine) GlobalContext(data any) error {
	if data == nil {
		return nil
	}
	values, err := contextOf(data)
	if err != nil {
		return fmt.Errorf("pongo: global data: %w", err)
	}
	e.mu.Lock()
	e.globals.Update(values)
	e.mu.Unlock()
	return nil
}

func (e *Engine) lookup(name string) (*pongo2.Template, error) {
	if cached, ok := e.compiled.Load(name); ok {
		return cached.(*pongo2.Template), nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("pongo: load %q: %w", name, err)
	}
	actual, _ := e.compiled.LoadOrStore(name, tmpl)
	return actual.(*pongo2.Template), nil
}

func (e *Engine) run(name string, tmpl *pongo2.Template, data any, out []io.Writer) (string, error) {
	values, err := contextOf(data)
	if err != nil {
		return "", fmt.Errorf("pongo: %s data: %w", name, err)
	}
	e.mu.RLock()
	scope := make(pongo2.Context, len(e.globals)+len(values))
	scope.Update(e.globals)
	e.mu.RUnlock()
	scope.Update(values)

	rendered, err := tmpl.Execute(scope)
	if err != nil {
		return "", fmt.Errorf("pongo: execute %s: %w", name, err)
	}
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

// contextOf round-trips data through JSON so templates see struct fields
// under their json names.
func contextOf(data any) (pongo2.Context, error) {
	values := pongo2.Context{}
	if data == nil {
		return values, nil
	}
	if ctx, ok := data.(pongo2.Context); ok {
		data = map[string]any(ctx)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	return values, nil
}
