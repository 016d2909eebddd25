// Package app wires the todos and onboarding stores to their persistence.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/todos/internal/config"
	"github.com/aretw0/todos/internal/logging"
	"github.com/aretw0/todos/internal/metrics"
	"github.com/aretw0/todos/internal/onboarding"
	"github.com/aretw0/todos/internal/todos"
	"github.com/aretw0/todos/pkg/adapters/file"
	"github.com/aretw0/todos/pkg/adapters/memory"
	"github.com/aretw0/todos/pkg/adapters/redis"
	"github.com/aretw0/todos/pkg/cache"
	"github.com/aretw0/todos/pkg/caching"
	"github.com/aretw0/todos/pkg/persistence/middleware"
	"github.com/aretw0/todos/pkg/ports"
	"github.com/aretw0/todos/pkg/scheduler"
	"github.com/aretw0/todos/pkg/store"
)

// TodosStore is the main todo list store.
type TodosStore = store.Store[todos.State, todos.Action, todos.Environment]

// OnboardingStore is the guided tour store.
type OnboardingStore = store.Store[onboarding.State, onboarding.Action, onboarding.Environment]

// TodosView is what a presentation layer reads and dispatches to.
type TodosView = store.View[todos.State, todos.Action]

// App owns both cached stores and the blob store behind them.
type App struct {
	Todos      *TodosStore
	Onboarding *OnboardingStore

	blobs  ports.BlobStore
	closer func() error
	logger *slog.Logger
}

type options struct {
	logger  *slog.Logger
	clock   scheduler.Clock
	env     *todos.Environment
	metrics *metrics.Metrics
	blobs   ports.BlobStore
}

// Option configures New.
type Option func(*options)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock sets the clock both stores schedule on.
func WithClock(clock scheduler.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithEnvironment replaces the live reducer environment.
func WithEnvironment(env todos.Environment) Option {
	return func(o *options) {
		o.env = &env
	}
}

// WithMetrics records store and cache activity.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithBlobStore bypasses the configured backend. Encryption still applies.
func WithBlobStore(blobs ports.BlobStore) Option {
	return func(o *options) {
		o.blobs = blobs
	}
}

// New opens the configured blob store and restores both stores from it.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	env := todos.LiveEnvironment()
	if o.env != nil {
		env = *o.env
	}

	codec, ok := cache.CodecByName(cfg.Cache.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown cache codec %q", cfg.Cache.Codec)
	}

	blobs, closer := o.blobs, func() error { return nil }
	if blobs == nil {
		var err error
		blobs, closer, err = OpenBlobStore(cfg.Cache, codec)
		if err != nil {
			return nil, err
		}
	}

	active, fallback, err := cfg.Cache.Keys()
	if err != nil {
		_ = closer()
		return nil, err
	}
	if active != nil {
		blobs = middleware.Chain(blobs, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}

	todosCache, err := cache.New[todos.State](blobs, cfg.Stores.Todos.Key, cache.WithCodec(codec))
	if err != nil {
		_ = closer()
		return nil, err
	}
	onboardingCache, err := cache.New[onboarding.State](blobs, cfg.Stores.Onboarding.Key, cache.WithCodec(codec))
	if err != nil {
		_ = closer()
		return nil, err
	}

	writer := cache.NewWriter(cache.WithLogger(o.logger))
	cachingOpts := func(name string) []caching.Option {
		storeOpts := []store.Option{store.WithName(name)}
		if o.clock != nil {
			storeOpts = append(storeOpts, store.WithClock(o.clock))
		}
		opts := []caching.Option{caching.WithLogger(o.logger), caching.WithWriter(writer)}
		if o.metrics != nil {
			storeOpts = append(storeOpts, store.WithHooks(o.metrics.StoreHooks()))
			opts = append(opts, caching.WithHooks(o.metrics.CacheHooks()))
		}
		return append(opts, caching.WithStoreOptions(storeOpts...))
	}

	todosStore := caching.NewStore(ctx, todosCache, todos.NewState(), todos.Reducer, env,
		todosDuplicate(cfg.Stores.Todos.Dedup), cachingOpts("todos")...)
	onboardingStore := caching.NewStore(ctx, onboardingCache, onboarding.NewState(), onboarding.Reducer, env,
		onboardingDuplicate(cfg.Stores.Onboarding.Dedup), cachingOpts("onboarding")...)

	o.logger.Debug("App ready",
		"backend", cfg.Cache.Backend,
		"codec", cfg.Cache.Codec,
		"encrypted", active != nil,
		"onboarding", onboardingStore.State().Step,
	)

	return &App{
		Todos:      todosStore,
		Onboarding: onboardingStore,
		blobs:      blobs,
		closer:     closer,
		logger:     o.logger,
	}, nil
}

func todosDuplicate(dedup string) func(before, after todos.State) bool {
	if dedup == config.DedupTodos {
		return todos.TodosEqual
	}
	return todos.State.Equal
}

func onboardingDuplicate(dedup string) func(before, after onboarding.State) bool {
	if dedup == config.DedupStep {
		return onboarding.SameStep
	}
	return onboarding.State.Equal
}

// OpenBlobStore builds the backend named by cfg. The returned function
// releases backend resources.
func OpenBlobStore(cfg config.CacheConfig, codec cache.Codec) (ports.BlobStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewStore(
			memory.WithMaxValueSize(cfg.MaxValueSize),
			memory.WithMaxKeys(cfg.MaxKeys),
		), noop, nil
	case config.BackendFile, "":
		return file.New(cfg.Dir, file.WithExtension(codec.Extension())), noop, nil
	case config.BackendRedis:
		opts := []redis.Option{redis.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		s := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
}

// Step returns the onboarding step. StepNone means onboarding is over.
func (a *App) Step() onboarding.Step {
	return a.Onboarding.State().Step
}

// Active returns the todo list the user should interact with and the
// onboarding step it belongs to. While onboarding runs, the list is the
// tour's own list; afterwards it is the main store.
func (a *App) Active() (TodosView, onboarding.Step) {
	step := a.Step()
	if !step.Active() {
		return a.Todos, step
	}
	return store.Scope[onboarding.State, onboarding.Action, todos.State, todos.Action](
		a.Onboarding,
		func(s onboarding.State) todos.State { return s.TodosState },
		func(action todos.Action) onboarding.Action { return onboarding.TodosAction{Action: action} },
	), step
}

// Blobs returns the blob store both caches write to.
func (a *App) Blobs() ports.BlobStore {
	return a.blobs
}

// Close waits for pending effects and saves, bounded by ctx, then closes
// both stores and the backend.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, settle := range []func(context.Context) error{a.Todos.Settle, a.Onboarding.Settle} {
		if err := settle(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		a.logger.Warn("Closing with pending work", "err", errors.Join(errs...))
	}

	a.Todos.Close()
	a.Onboarding.Close()
	// Saves already running finish before the backend goes away.
	if err := a.Todos.Flush(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.Onboarding.Flush(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.closer(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close backend: %w", err))
	}
	return errors.Join(errs...)
}
