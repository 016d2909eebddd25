package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/todos/pkg/effect"
	"github.com/aretw0/todos/pkg/scheduler"
)

// DispatchEvent describes one reducer invocation.
type DispatchEvent struct {
	Store    string
	Action   string
	Duration time.Duration
}

// EffectEvent describes one effect handed to the scheduler.
type EffectEvent struct {
	Store string
	Kind  effect.Kind
}

// Hooks defines callbacks for store observability. Nil callbacks are skipped.
type Hooks struct {
	OnDispatch func(context.Context, DispatchEvent)
	OnEffect   func(context.Context, EffectEvent)
}

type options struct {
	name   string
	logger *slog.Logger
	clock  scheduler.Clock
	hooks  Hooks
	ctx    context.Context
}

// Option configures a Store.
type Option func(*options)

// WithName labels the store in logs and hook events.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock sets the clock the store schedules delays and debounces on.
// Defaults to scheduler.Live.
func WithClock(clock scheduler.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks Hooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithContext sets the context handed to fire-and-forget work.
// Defaults to context.Background.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}
