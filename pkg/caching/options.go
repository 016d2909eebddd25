package caching

import (
	"context"
	"log/slog"

	"github.com/aretw0/todos/pkg/cache"
	"github.com/aretw0/todos/pkg/store"
)

// Hooks defines callbacks for cache observability. Nil callbacks are skipped.
type Hooks struct {
	// OnSave runs after a value was written.
	OnSave func(ctx context.Context, key string)
	// OnSkip runs when a dispatch produced a duplicate state and nothing was scheduled.
	OnSkip func(ctx context.Context, key string)
	// OnError runs when a write failed. The failure is otherwise absorbed.
	OnError func(ctx context.Context, key string, err error)
}

type options struct {
	logger    *slog.Logger
	hooks     Hooks
	writer    *cache.Writer
	storeOpts []store.Option
}

// Option configures the caching reducer and store.
type Option func(*options)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks Hooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithWriter shares a cache.Writer between reducers. Stores writing distinct
// keys may share one; stores writing the same key must.
func WithWriter(w *cache.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithStoreOptions passes options through to store.New in NewStore.
func WithStoreOptions(opts ...store.Option) Option {
	return func(o *options) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}
