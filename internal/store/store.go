// Package store persists form schemas. Every write is a compare-and-swap on
// the schema version, so two organizers editing the same form cannot
// silently overwrite each other.
package store

import (
	"context"
	"errors"

	"github.com/goliatone/go-formkit/pkg/model"
)

var (
	// ErrNotFound is returned when no schema is stored under an id.
	ErrNotFound = errors.New("store: form not found")
	// ErrExists is returned by Create when the id is taken.
	ErrExists = errors.New("store: form already exists")
)

// Store is implemented by the memory and bbolt backends.
type Store interface {
	Create(ctx context.Context, schema model.FormSchema) error
	Get(ctx context.Context, id string) (model.FormSchema, error)
	// List returns every schema sorted by id.
	List(ctx context.Context) ([]model.FormSchema, error)
	// Save replaces the stored schema if its version still equals expected.
	// A mismatch is a model.SchemaError of kind staleVersion.
	Save(ctx context.Context, schema model.FormSchema, expected int) error
	// Delete removes the schema if its version equals expected.
	Delete(ctx context.Context, id string, expected int) error
	Close() error
}

// Mutate loads id, applies fn and saves the result guarded by the version
// that was loaded. fn usually wraps a builder operation.
func Mutate(ctx context.Context, s Store, id string, fn func(model.FormSchema) (model.FormSchema, error)) (model.FormSchema, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return model.FormSchema{}, err
	}
	next, err := fn(current)
	if err != nil {
		return current, err
	}
	if err := s.Save(ctx, next, current.Version); err != nil {
		return current, err
	}
	return next, nil
}

func stale(id string, expected, actual int) error {
	return model.NewSchemaError(model.KindStaleVersion, "", "form %q is at version %d, expected %d", id, actual, expected)
}
