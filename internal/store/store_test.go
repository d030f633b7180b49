package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/internal/store"
	"github.com/goliatone/go-formkit/pkg/builder"
	"github.com/goliatone/go-formkit/pkg/fieldtype"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/testsupport"
)

func backends(t *testing.T) map[string]store.Store {
	t.Helper()

	bolt, err := store.OpenBolt(filepath.Join(t.TempDir(), "forms.db"))
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	t.Cleanup(func() { _ = bolt.Close() })

	return map[string]store.Store{
		"memory": store.NewMemory(),
		"bolt":   bolt,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			schema := testsupport.EventSchema()
			if err := s.Create(ctx, schema); err != nil {
				t.Fatalf("Create: %v", err)
			}
			if err := s.Create(ctx, schema); !errors.Is(err, store.ErrExists) {
				t.Fatalf("expected ErrExists, got %v", err)
			}

			got, err := s.Get(ctx, schema.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Version != 1 || len(got.Fields) != len(schema.Fields) {
				t.Fatalf("unexpected stored schema %+v", got)
			}

			next := got
			next.Version = 2
			next.Title = "Renamed"
			if err := s.Save(ctx, next, 1); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := s.Save(ctx, next, 1); !errors.Is(err, model.ErrStaleVersion) {
				t.Fatalf("expected stale version, got %v", err)
			}

			if err := s.Create(ctx, model.FormSchema{ID: "another", Fields: []model.FieldDefinition{}}); err != nil {
				t.Fatalf("Create another: %v", err)
			}
			list, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			var ids []string
			for _, item := range list {
				ids = append(ids, item.ID)
			}
			if diff := cmp.Diff([]string{"another", "event-registration"}, ids); diff != "" {
				t.Fatalf("list mismatch (-want +got):\n%s", diff)
			}

			if err := s.Delete(ctx, schema.ID, 1); !errors.Is(err, model.ErrStaleVersion) {
				t.Fatalf("expected stale delete, got %v", err)
			}
			if err := s.Delete(ctx, schema.ID, 2); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, schema.ID); !errors.Is(err, store.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := s.Save(ctx, next, 2); !errors.Is(err, store.ErrNotFound) {
				t.Fatalf("expected ErrNotFound on save, got %v", err)
			}
		})
	}
}

func TestMutateGuardsConcurrentEdits(t *testing.T) {
	ctx := context.Background()
	b := builder.New(builder.WithClock(testsupport.FixedClock()), builder.WithIDGenerator(testsupport.SequentialIDs("f")))

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Create(ctx, b.NewSchema("survey", "Survey")); err != nil {
				t.Fatalf("Create: %v", err)
			}

			added, err := store.Mutate(ctx, s, "survey", func(current model.FormSchema) (model.FormSchema, error) {
				return b.AddField(current, 0, model.FieldDefinition{ID: "name", Type: fieldtype.ShortText, Label: "Name"})
			})
			if err != nil {
				t.Fatalf("Mutate: %v", err)
			}
			if added.Version != 1 {
				t.Fatalf("expected version 1, got %d", added.Version)
			}

			_, err = store.Mutate(ctx, s, "survey", func(current model.FormSchema) (model.FormSchema, error) {
				return b.AddField(current, 0, model.FieldDefinition{ID: "age", Type: fieldtype.Number})
			})
			if !errors.Is(err, model.ErrStaleVersion) {
				t.Fatalf("expected stale version from an outdated editor, got %v", err)
			}

			stored, err := s.Get(ctx, "survey")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if stored.Version != 1 || len(stored.Fields) != 1 {
				t.Fatalf("a rejected mutation must not be persisted: %+v", stored)
			}
		})
	}
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forms.db")
	ctx := context.Background()

	first, err := store.OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	if err := first.Create(ctx, testsupport.EventSchema()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := store.OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "event-registration")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	guests, _ := got.Field("guests")
	if diff := cmp.Diff([]string{"attending"}, guests.VisibilityRule.References()); diff != "" {
		t.Fatalf("visibility rule lost (-want +got):\n%s", diff)
	}
}
