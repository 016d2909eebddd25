package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/todos/pkg/ports"
)

var (
	// ErrEmptyKey is returned by New when no key is given.
	ErrEmptyKey = errors.New("cache key cannot be empty")
	// ErrEmptyRecord is returned by Load when the stored value has no content.
	ErrEmptyRecord = errors.New("cache record is empty")
)

// Validator is implemented by values that can tell whether they decoded into
// something usable. Load rejects values whose Validate fails.
type Validator interface {
	Validate() error
}

// Cache persists values of one type under a single key of a BlobStore.
// Safe for concurrent use if the underlying BlobStore is.
type Cache[S any] struct {
	blobs ports.BlobStore
	key   string
	codec Codec
}

type options struct {
	codec Codec
}

// Option configures a Cache.
type Option func(*options)

// WithCodec sets the encoding. Defaults to JSON.
func WithCodec(c Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// New creates a cache storing values under key in blobs.
func New[S any](blobs ports.BlobStore, key string, opts ...Option) (*Cache[S], error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	o := options{codec: JSON}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[S]{blobs: blobs, key: key, codec: o.codec}, nil
}

// Key returns the storage key.
func (c *Cache[S]) Key() string {
	return c.key
}

// Save encodes v and writes it.
func (c *Cache[S]) Save(ctx context.Context, v S) error {
	data, err := c.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", c.key, err)
	}
	if err := c.blobs.Save(ctx, c.key, data); err != nil {
		return fmt.Errorf("failed to save %q: %w", c.key, err)
	}
	return nil
}

// Load reads and decodes the stored value. An absent record yields an error
// wrapping ports.ErrNotFound. A decoded Validator that fails Validate is
// reported as an error.
func (c *Cache[S]) Load(ctx context.Context) (S, error) {
	var v S
	data, err := c.blobs.Load(ctx, c.key)
	if err != nil {
		return v, fmt.Errorf("failed to load %q: %w", c.key, err)
	}
	if len(data) == 0 {
		return v, fmt.Errorf("failed to load %q: %w", c.key, ErrEmptyRecord)
	}
	if err := c.codec.Unmarshal(data, &v); err != nil {
		var zero S
		return zero, fmt.Errorf("failed to decode %q: %w", c.key, err)
	}
	if val, ok := any(v).(Validator); ok {
		if err := val.Validate(); err != nil {
			var zero S
			return zero, fmt.Errorf("invalid record %q: %w", c.key, err)
		}
	}
	return v, nil
}

// Delete removes the stored value.
func (c *Cache[S]) Delete(ctx context.Context) error {
	return c.blobs.Delete(ctx, c.key)
}
