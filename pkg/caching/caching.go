package caching

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/todos/internal/logging"
	"github.com/aretw0/todos/pkg/cache"
	"github.com/aretw0/todos/pkg/effect"
	"github.com/aretw0/todos/pkg/ports"
	"github.com/aretw0/todos/pkg/store"
)

// Cache is the persistence collaborator of the caching reducer.
// *cache.Cache satisfies it.
type Cache[S any] interface {
	Key() string
	Save(ctx context.Context, state S) error
	Load(ctx context.Context) (S, error)
}

func build(opts []Option) options {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.writer == nil {
		o.writer = cache.NewWriter(cache.WithLogger(o.logger))
	}
	return o
}

// Reducer wraps inner so that every state change is persisted through c.
//
// The state is snapshotted before inner runs and compared with the result
// using isDuplicate; a nil isDuplicate treats every dispatch as a change.
// On change, a fire-and-forget save of the new snapshot is merged ahead of
// the inner effect. Saves for the key are serialized and a save finishing
// behind a newer one is dropped. Save failures are logged and reported to
// Hooks.OnError, never returned.
func Reducer[S, A, E any](inner store.Reducer[S, A, E], c Cache[S], isDuplicate func(before, after S) bool, opts ...Option) store.Reducer[S, A, E] {
	o := build(opts)
	return reducer(inner, c, isDuplicate, o)
}

func reducer[S, A, E any](inner store.Reducer[S, A, E], c Cache[S], isDuplicate func(before, after S) bool, o options) store.Reducer[S, A, E] {
	key := c.Key()
	logger := o.logger.With("key", key)

	return func(state *S, action A, env E) effect.Effect[A] {
		before := store.Snapshot(*state)
		eff := inner(state, action, env)

		if isDuplicate != nil && isDuplicate(before, *state) {
			logger.Debug("Skipped duplicate state", "action", store.ActionName(action))
			if o.hooks.OnSkip != nil {
				o.hooks.OnSkip(context.Background(), key)
			}
			return eff
		}

		after := store.Snapshot(*state)
		ticket := o.writer.Next(key)
		save := effect.FireAndForget[A](func(ctx context.Context) {
			err := o.writer.Write(ctx, key, ticket, func(ctx context.Context) error {
				return c.Save(ctx, after)
			})
			switch {
			case err == nil:
				if o.hooks.OnSave != nil {
					o.hooks.OnSave(ctx, key)
				}
			case errors.Is(err, cache.ErrStale):
			default:
				logger.Warn("Failed to save state", "err", err)
				if o.hooks.OnError != nil {
					o.hooks.OnError(ctx, key, err)
				}
			}
		})
		return effect.Merge(save, eff)
	}
}

// Load returns the state cached in c, or initial when nothing usable is stored.
func Load[S any](ctx context.Context, c Cache[S], initial S, opts ...Option) S {
	o := build(opts)
	return load(ctx, c, initial, o.logger)
}

func load[S any](ctx context.Context, c Cache[S], initial S, logger *slog.Logger) S {
	state, err := c.Load(ctx)
	switch {
	case err == nil:
		logger.Debug("Loaded cached state", "key", c.Key())
		return state
	case errors.Is(err, ports.ErrNotFound):
		logger.Info("No cached state, using initial state", "key", c.Key())
	default:
		logger.Warn("Discarded unreadable cached state", "key", c.Key(), "err", err)
	}
	return initial
}

// NewStore creates a store whose state is restored from c and persisted back
// to it after every non-duplicate dispatch. ctx bounds the initial load and is
// the context saves run with.
func NewStore[S, A, E any](ctx context.Context, c Cache[S], initial S, inner store.Reducer[S, A, E], env E, isDuplicate func(before, after S) bool, opts ...Option) *store.Store[S, A, E] {
	o := build(opts)
	state := load(ctx, c, initial, o.logger)

	storeOpts := append([]store.Option{store.WithLogger(o.logger), store.WithContext(ctx)}, o.storeOpts...)
	return store.New(state, reducer(inner, c, isDuplicate, o), env, storeOpts...)
}
