package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/todos/internal/logging"
	"github.com/aretw0/todos/pkg/effect"
	"github.com/aretw0/todos/pkg/scheduler"
)

// View is the read/dispatch surface shared by stores and scoped views.
type View[S, A any] interface {
	// State returns a snapshot of the current state.
	State() S
	// Dispatch sends an action through the reducer.
	Dispatch(action A)
	// Subscribe registers fn to receive the state after every reducer run.
	// The returned function removes the subscription.
	Subscribe(fn func(S)) (cancel func())
}

type subscriber[S any] struct {
	id uint64
	fn func(S)
}

// Store owns a state value and runs every action through its reducer, one at
// a time. Effects returned by the reducer are executed by the store's
// scheduler and feed their actions back into Dispatch.
// Safe for concurrent use.
type Store[S, A, E any] struct {
	name    string
	reducer Reducer[S, A, E]
	env     E
	logger  *slog.Logger
	hooks   Hooks
	sched   *scheduler.Scheduler
	ctx     context.Context

	mu       sync.Mutex // guards queue, draining, closed
	queue    []A
	draining bool
	closed   bool

	stateMu sync.RWMutex
	state   S

	subsMu  sync.Mutex
	subs    []subscriber[S]
	nextSub uint64
}

// New creates a store holding initial.
func New[S, A, E any](initial S, reducer Reducer[S, A, E], env E, opts ...Option) *Store[S, A, E] {
	o := options{
		logger: logging.NewNop(),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}

	logger := o.logger
	if o.name != "" {
		logger = logger.With("store", o.name)
	}

	return &Store[S, A, E]{
		name:    o.name,
		reducer: reducer,
		env:     env,
		logger:  logger,
		hooks:   o.hooks,
		sched:   scheduler.New(o.clock),
		ctx:     o.ctx,
		state:   initial,
	}
}

// Name returns the label given with WithName.
func (s *Store[S, A, E]) Name() string {
	return s.name
}

// State returns a snapshot of the current state.
func (s *Store[S, A, E]) State() S {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return Snapshot(s.state)
}

// Dispatch queues action for the reducer. If no dispatch cycle is running,
// the caller runs one: it drains the queue, including actions sent
// synchronously by effects, before returning. If a cycle is already running
// on another goroutine (or in a subscriber), the action is processed by that
// cycle. Actions sent to a closed store are dropped.
func (s *Store[S, A, E]) Dispatch(action A) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("Dropped action on closed store", "action", ActionName(action))
		return
	}
	s.queue = append(s.queue, action)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()

	s.drain()
}

func (s *Store[S, A, E]) drain() {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.queue = nil
			s.draining = false
			s.mu.Unlock()
			panic(r)
		}
	}()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.closed {
			s.queue = nil
			s.draining = false
			s.mu.Unlock()
			return
		}
		action := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.process(action)
	}
}

func (s *Store[S, A, E]) process(action A) {
	name := ActionName(action)
	start := time.Now()

	s.stateMu.Lock()
	eff := s.reducer(&s.state, action, s.env)
	snap := Snapshot(s.state)
	s.stateMu.Unlock()

	elapsed := time.Since(start)
	s.logger.Debug("Dispatched action", "action", name, "duration", elapsed)
	if s.hooks.OnDispatch != nil {
		s.hooks.OnDispatch(s.ctx, DispatchEvent{Store: s.name, Action: name, Duration: elapsed})
	}

	s.publish(snap)
	s.run(eff)
}

func (s *Store[S, A, E]) publish(state S) {
	s.subsMu.Lock()
	subs := make([]subscriber[S], len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.fn(state)
	}
}

// run interprets eff in order. Send actions join the running cycle; timed
// actions re-enter Dispatch when their timer fires.
func (s *Store[S, A, E]) run(eff effect.Effect[A]) {
	kind := eff.Kind()
	switch kind {
	case effect.KindNone:
		return
	case effect.KindMerge:
		for _, child := range eff.Children() {
			s.run(child)
		}
		return
	case effect.KindSend:
		s.mu.Lock()
		if !s.closed {
			s.queue = append(s.queue, eff.Action())
		}
		s.mu.Unlock()
	case effect.KindDelay:
		action := eff.Action()
		s.sched.After(eff.Duration(), func() { s.Dispatch(action) })
	case effect.KindDebounce:
		action := eff.Action()
		s.sched.Debounce(eff.ID(), eff.Duration(), func() { s.Dispatch(action) })
	case effect.KindFireAndForget:
		s.sched.Go(s.ctx, eff.Work())
	}

	if s.hooks.OnEffect != nil {
		s.hooks.OnEffect(s.ctx, EffectEvent{Store: s.name, Kind: kind})
	}
}

// Subscribe registers fn to receive a snapshot after every reducer run, in
// the order the actions were processed. fn runs inside the dispatch cycle;
// actions it dispatches are queued behind the current one.
func (s *Store[S, A, E]) Subscribe(fn func(S)) (cancel func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber[S]{id: id, fn: fn})

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Flush blocks until no fire-and-forget work or timer callback is running.
// Pending timers are not waited for.
func (s *Store[S, A, E]) Flush(ctx context.Context) error {
	return s.sched.Flush(ctx)
}

// Settle blocks until every pending timer has fired and all work has finished.
func (s *Store[S, A, E]) Settle(ctx context.Context) error {
	return s.sched.Settle(ctx)
}

// Pending returns the number of delayed or debounced actions waiting to fire.
func (s *Store[S, A, E]) Pending() int {
	return s.sched.Pending()
}

// Close tears the store down: pending timers are cancelled and further
// actions dropped. Fire-and-forget work already running is left to finish;
// use Flush to wait for it.
func (s *Store[S, A, E]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.queue = nil
	s.mu.Unlock()

	s.sched.Close()
	s.logger.Debug("Store closed")
}

var _ View[int, int] = (*Store[int, int, struct{}])(nil)
