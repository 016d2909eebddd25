package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/todos/internal/logging"
)

// ErrStale is returned by Writer.Write when a newer ticket for the key has
// already been written.
var ErrStale = errors.New("stale write skipped")

// Ticket orders writes to one key. Tickets are reserved when a write is
// scheduled, so their order is the order the values were produced in.
type Ticket uint64

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Writer serializes writes per key and drops writes that finish their wait
// behind a newer one. It uses reference counting to garbage collect unused locks.
// Safe for concurrent use.
type Writer struct {
	mu      sync.Mutex            // guards every map below
	locks   map[string]*lockEntry // active locks
	issued  map[string]Ticket     // last ticket handed out
	written map[string]Ticket     // last ticket that ran

	logger *slog.Logger
}

// WriterOption configures the Writer.
type WriterOption func(*Writer)

// WithLogger configures a logger for the Writer.
func WithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// NewWriter creates a Writer.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{
		locks:   make(map[string]*lockEntry),
		issued:  make(map[string]Ticket),
		written: make(map[string]Ticket),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Next reserves the next ticket for key.
func (w *Writer) Next(key string) Ticket {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.issued[key]++
	return w.issued[key]
}

// Write runs fn while holding the lock for key, unless a ticket newer than
// ticket was already written, in which case it returns ErrStale.
func (w *Writer) Write(ctx context.Context, key string, ticket Ticket, fn func(context.Context) error) error {
	entry := w.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		w.release(key)
	}()

	w.mu.Lock()
	last := w.written[key]
	if ticket <= last {
		w.mu.Unlock()
		w.logger.Debug("Skipped stale write", "key", key, "ticket", ticket, "last", last)
		return ErrStale
	}
	// Claimed before fn runs: once a newer value was attempted, older ones are stale.
	w.written[key] = ticket
	w.mu.Unlock()

	return fn(ctx)
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (w *Writer) acquire(key string) *lockEntry {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, exists := w.locks[key]
	if !exists {
		entry = &lockEntry{}
		w.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (w *Writer) release(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, exists := w.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(w.locks, key)
	}
}

// activeLocks reports how many lock entries are alive. Used by tests.
func (w *Writer) activeLocks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.locks)
}
