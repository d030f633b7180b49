package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Memory keeps schemas in a map. It is meant for tests and single-process
// deployments.
type Memory struct {
	mu    sync.RWMutex
	forms map[string]model.FormSchema
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{forms: make(map[string]model.FormSchema)}
}

func (m *Memory) Create(ctx context.Context, schema model.FormSchema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[schema.ID]; ok {
		return fmt.Errorf("%w: %q", ErrExists, schema.ID)
	}
	m.forms[schema.ID] = schema.Clone()
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (model.FormSchema, error) {
	if err := ctx.Err(); err != nil {
		return model.FormSchema{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	schema, ok := m.forms[id]
	if !ok {
		return model.FormSchema{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return schema.Clone(), nil
}

func (m *Memory) List(ctx context.Context) ([]model.FormSchema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.FormSchema, 0, len(m.forms))
	for _, schema := range m.forms {
		out = append(out, schema.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Save(ctx context.Context, schema model.FormSchema, expected int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.forms[schema.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, schema.ID)
	}
	if current.Version != expected {
		return stale(schema.ID, expected, current.Version)
	}
	m.forms[schema.ID] = schema.Clone()
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string, expected int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.forms[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if current.Version != expected {
		return stale(id, expected, current.Version)
	}
	delete(m.forms, id)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
