package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/goliatone/go-formkit/pkg/model"
)

const formsBucketName = "forms"

var errBucketNotFound = errors.New("store: forms bucket not found")

// Bolt stores schemas as JSON documents in a bbolt file, keyed by form id.
// Compare-and-swap runs inside a single read-write transaction.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(formsBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init %s: %w", path, err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Create(ctx context.Context, schema model.FormSchema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := formsBucket(tx)
		if err != nil {
			return err
		}
		if bucket.Get([]byte(schema.ID)) != nil {
			return fmt.Errorf("%w: %q", ErrExists, schema.ID)
		}
		return put(bucket, schema)
	})
}

func (b *Bolt) Get(ctx context.Context, id string) (model.FormSchema, error) {
	if err := ctx.Err(); err != nil {
		return model.FormSchema{}, err
	}
	var out model.FormSchema
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket, err := formsBucket(tx)
		if err != nil {
			return err
		}
		out, err = get(bucket, id)
		return err
	})
	return out, err
}

func (b *Bolt) List(ctx context.Context) ([]model.FormSchema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.FormSchema
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket, err := formsBucket(tx)
		if err != nil {
			return err
		}
		// keys are iterated in byte order, which is the id order
		return bucket.ForEach(func(k, v []byte) error {
			var schema model.FormSchema
			if err := json.Unmarshal(v, &schema); err != nil {
				return fmt.Errorf("store: decode %q: %w", k, err)
			}
			out = append(out, schema)
			return nil
		})
	})
	return out, err
}

func (b *Bolt) Save(ctx context.Context, schema model.FormSchema, expected int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := formsBucket(tx)
		if err != nil {
			return err
		}
		current, err := get(bucket, schema.ID)
		if err != nil {
			return err
		}
		if current.Version != expected {
			return stale(schema.ID, expected, current.Version)
		}
		return put(bucket, schema)
	})
}

func (b *Bolt) Delete(ctx context.Context, id string, expected int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := formsBucket(tx)
		if err != nil {
			return err
		}
		current, err := get(bucket, id)
		if err != nil {
			return err
		}
		if current.Version != expected {
			return stale(id, expected, current.Version)
		}
		return bucket.Delete([]byte(id))
	})
}

// Close releases the database file lock.
func (b *Bolt) Close() error {
	return b.db.Close()
}

func formsBucket(tx *bolt.Tx) (*bolt.Bucket, error) {
	bucket := tx.Bucket([]byte(formsBucketName))
	if bucket == nil {
		return nil, errBucketNotFound
	}
	return bucket, nil
}

func get(bucket *bolt.Bucket, id string) (model.FormSchema, error) {
	data := bucket.Get([]byte(id))
	if data == nil {
		return model.FormSchema{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	var schema model.FormSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return model.FormSchema{}, fmt.Errorf("store: decode %q: %w", id, err)
	}
	return schema, nil
}

func put(bucket *bolt.Bucket, schema model.FormSchema) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", schema.ID, err)
	}
	return bucket.Put([]byte(schema.ID), data)
}
