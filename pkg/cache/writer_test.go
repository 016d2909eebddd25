package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_TicketsIncreasePerKey(t *testing.T) {
	w := NewWriter()
	assert.Equal(t, Ticket(1), w.Next("a"))
	assert.Equal(t, Ticket(2), w.Next("a"))
	assert.Equal(t, Ticket(1), w.Next("b"))
}

func TestWriter_SkipsOlderTicketAfterNewer(t *testing.T) {
	w := NewWriter()
	ctx := context.Background()
	older := w.Next("k")
	newer := w.Next("k")

	var written []Ticket
	record := func(tk Ticket) func(context.Context) error {
		return func(context.Context) error {
			written = append(written, tk)
			return nil
		}
	}

	require.NoError(t, w.Write(ctx, "k", newer, record(newer)))
	err := w.Write(ctx, "k", older, record(older))
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, []Ticket{newer}, written)
}

func TestWriter_FailedWriteStillSupersedesOlder(t *testing.T) {
	w := NewWriter()
	ctx := context.Background()
	older := w.Next("k")
	newer := w.Next("k")

	boom := errors.New("boom")
	assert.ErrorIs(t, w.Write(ctx, "k", newer, func(context.Context) error { return boom }), boom)
	assert.ErrorIs(t, w.Write(ctx, "k", older, func(context.Context) error { return nil }), ErrStale)
}

func TestWriter_SerializesPerKey(t *testing.T) {
	w := NewWriter()
	ctx := context.Background()

	var mu sync.Mutex
	active, maxActive := 0, 0
	fn := func(context.Context) error {
		mu.Lock()
		active++
		maxActive = max(maxActive, active)
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return nil
	}

	tickets := make([]Ticket, 20)
	for i := range tickets {
		tickets[i] = w.Next("k")
	}

	var wg sync.WaitGroup
	for _, tk := range tickets {
		wg.Add(1)
		go func(tk Ticket) {
			defer wg.Done()
			_ = w.Write(ctx, "k", tk, fn)
		}(tk)
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
	assert.Zero(t, w.activeLocks(), "lock entries are released once unused")
}

func TestWriter_KeysAreIndependent(t *testing.T) {
	w := NewWriter()
	ctx := context.Background()

	w.Next("a")
	b1 := w.Next("b")
	a2 := w.Next("a")

	require.NoError(t, w.Write(ctx, "a", a2, func(context.Context) error { return nil }))
	assert.NoError(t, w.Write(ctx, "b", b1, func(context.Context) error { return nil }))
}
