package testutils

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// IncrementingUUID returns a deterministic generator yielding
// 00000000-0000-0000-0000-000000000000, ...-000000000001, and so on.
// Safe for concurrent use.
func IncrementingUUID() func() uuid.UUID {
	var mu sync.Mutex
	n := 0
	return func() uuid.UUID {
		mu.Lock()
		defer mu.Unlock()
		id := UUID(n)
		n++
		return id
	}
}

// UUID returns the n-th value of IncrementingUUID.
func UUID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012x", n))
}

// Recorder collects the values passed to Record, typically store snapshots
// or dispatched actions. Safe for concurrent use.
type Recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

// Record appends v.
func (r *Recorder[T]) Record(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

// Values returns a copy of everything recorded so far.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...)
}

// Last returns the most recent value. It fails the test if nothing was recorded.
func (r *Recorder[T]) Last(t *testing.T) T {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.values, "nothing recorded")
	return r.values[len(r.values)-1]
}
