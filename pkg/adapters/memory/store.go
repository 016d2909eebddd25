package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/todos/pkg/ports"
)

const (
	// DefaultMaxValueSize bounds a single value, matching the small keyed
	// stores offered by mobile platforms.
	DefaultMaxValueSize = 512 << 10
	// DefaultMaxKeys bounds the number of distinct keys.
	DefaultMaxKeys = 64
)

var (
	// ErrValueTooLarge is returned when a value exceeds the configured size.
	ErrValueTooLarge = errors.New("value exceeds maximum size")
	// ErrCapacity is returned when saving a new key into a full store.
	ErrCapacity = errors.New("store is full")
)

// Store implements ports.BlobStore in memory with bounded size.
// Safe for concurrent use.
type Store struct {
	data         map[string][]byte
	mu           sync.RWMutex
	maxValueSize int
	maxKeys      int
}

// Option configures a Store.
type Option func(*Store)

// WithMaxValueSize sets the largest value Save accepts, in bytes. Zero or less disables the limit.
func WithMaxValueSize(n int) Option {
	return func(s *Store) {
		s.maxValueSize = n
	}
}

// WithMaxKeys sets how many distinct keys the store holds. Zero or less disables the limit.
func WithMaxKeys(n int) Option {
	return func(s *Store) {
		s.maxKeys = n
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data:         make(map[string][]byte),
		maxValueSize: DefaultMaxValueSize,
		maxKeys:      DefaultMaxKeys,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores a copy of data under key.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if s.maxValueSize > 0 && len(data) > s.maxValueSize {
		return fmt.Errorf("save %q (%d bytes): %w", key, len(data), ErrValueTooLarge)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; !exists && s.maxKeys > 0 && len(s.data) >= s.maxKeys {
		return fmt.Errorf("save %q: %w", key, ErrCapacity)
	}
	s.data[key] = append([]byte(nil), data...)
	return nil
}

// Load returns a copy of the value stored under key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[key]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Delete removes the value.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

var _ ports.BlobStore = (*Store)(nil)
