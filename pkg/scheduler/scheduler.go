package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/todos/pkg/effect"
)

// registration is a pending timer. Only the registration currently held in
// Scheduler.timers may fire; a timer whose registration was replaced or
// cancelled is dropped even if its clock callback already started.
type registration struct {
	timer Timer
	slot  effect.ID
}

// Scheduler runs delayed, debounced and fire-and-forget work for one store.
// It owns the debounce slots: at most one registration is pending per slot.
// Safe for concurrent use.
type Scheduler struct {
	clock Clock

	mu      sync.Mutex
	cond    *sync.Cond
	token   uint64
	timers  map[uint64]*registration
	slots   map[effect.ID]uint64
	running int
	closed  bool
}

// New creates a Scheduler on top of clock. A nil clock means Live.
func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = Live()
	}
	s := &Scheduler{
		clock:  clock,
		timers: make(map[uint64]*registration),
		slots:  make(map[effect.ID]uint64),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// After runs fn once d has elapsed. It returns false if the scheduler is closed.
func (s *Scheduler) After(d time.Duration, fn func()) bool {
	return s.schedule("", d, fn)
}

// Debounce runs fn once d has elapsed, atomically replacing whatever was
// pending under id. It returns false if the scheduler is closed.
func (s *Scheduler) Debounce(id effect.ID, d time.Duration, fn func()) bool {
	return s.schedule(id, d, fn)
}

func (s *Scheduler) schedule(slot effect.ID, d time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if slot != "" {
		s.cancelLocked(slot)
	}

	s.token++
	tok := s.token
	reg := &registration{slot: slot}
	s.timers[tok] = reg
	if slot != "" {
		s.slots[slot] = tok
	}
	reg.timer = s.clock.AfterFunc(d, func() { s.fire(tok, fn) })
	return true
}

func (s *Scheduler) fire(tok uint64, fn func()) {
	s.mu.Lock()
	reg, ok := s.timers[tok]
	if !ok || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.timers, tok)
	if reg.slot != "" && s.slots[reg.slot] == tok {
		delete(s.slots, reg.slot)
	}
	s.running++
	s.mu.Unlock()

	defer s.done()
	fn()
}

// Cancel drops the registration pending under id, if any.
func (s *Scheduler) Cancel(id effect.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(id)
}

func (s *Scheduler) cancelLocked(id effect.ID) bool {
	tok, ok := s.slots[id]
	if !ok {
		return false
	}
	delete(s.slots, id)
	if reg, ok := s.timers[tok]; ok {
		reg.timer.Stop()
		delete(s.timers, tok)
	}
	s.cond.Broadcast()
	return true
}

// Go runs work on its own goroutine. Its completion is tracked by Flush and
// Settle but its outcome is never observed. It returns false if the scheduler is closed.
func (s *Scheduler) Go(ctx context.Context, work effect.Work) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.running++
	s.mu.Unlock()

	go func() {
		defer s.done()
		work(ctx)
	}()
	return true
}

func (s *Scheduler) done() {
	s.mu.Lock()
	s.running--
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Pending returns the number of timers waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Running returns the number of callbacks and fire-and-forget jobs in progress.
func (s *Scheduler) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Flush blocks until no callback or fire-and-forget job is running.
// Pending timers are not waited for.
func (s *Scheduler) Flush(ctx context.Context) error {
	return s.wait(ctx, func() bool { return s.running == 0 })
}

// Settle blocks until nothing is pending or running.
func (s *Scheduler) Settle(ctx context.Context) error {
	return s.wait(ctx, func() bool { return s.running == 0 && len(s.timers) == 0 })
}

func (s *Scheduler) wait(ctx context.Context, idle func() bool) error {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for !idle() {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.cond.Wait()
	}
	return nil
}

// Close cancels every pending timer and refuses new work. Jobs already
// running are left to finish.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for tok, reg := range s.timers {
		reg.timer.Stop()
		delete(s.timers, tok)
	}
	clear(s.slots)
	s.cond.Broadcast()
}

// Closed reports whether Close was called.
func (s *Scheduler) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
