package ports

import (
	"context"
	"errors"
)

// ErrNotFound is returned by BlobStore.Load when nothing is stored under the key.
var ErrNotFound = errors.New("blob not found")

// BlobStore defines the interface for durable keyed storage of encoded state.
// Keys are opaque identifiers chosen by the caller (one per cached store).
type BlobStore interface {
	// Save writes data under key, replacing any previous value.
	Save(ctx context.Context, key string, data []byte) error

	// Load returns the value stored under key.
	// Returns ErrNotFound if the key does not exist.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes the value stored under key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys currently stored.
	List(ctx context.Context) ([]string, error)
}
