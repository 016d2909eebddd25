package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/todos/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestVirtualClock_FiresInDeadlineOrder(t *testing.T) {
	clock := scheduler.NewVirtualClock(epoch)
	var got []string
	clock.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	clock.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	clock.AfterFunc(100*time.Millisecond, func() { got = append(got, "b") })

	clock.Advance(99 * time.Millisecond)
	assert.Empty(t, got)

	clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, epoch.Add(100*time.Millisecond), clock.Now())

	clock.Run()
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 0, clock.Pending())
}

func TestVirtualClock_NestedTimersWithinAdvance(t *testing.T) {
	clock := scheduler.NewVirtualClock(epoch)
	var fired []time.Time
	clock.AfterFunc(time.Second, func() {
		fired = append(fired, clock.Now())
		clock.AfterFunc(time.Second, func() { fired = append(fired, clock.Now()) })
	})

	clock.Advance(3 * time.Second)
	require.Len(t, fired, 2)
	assert.Equal(t, epoch.Add(time.Second), fired[0])
	assert.Equal(t, epoch.Add(2*time.Second), fired[1])
	assert.Equal(t, epoch.Add(3*time.Second), clock.Now())
}

func TestVirtualClock_Stop(t *testing.T) {
	clock := scheduler.NewVirtualClock(epoch)
	ran := false
	timer := clock.AfterFunc(time.Second, func() { ran = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	clock.Advance(time.Hour)
	assert.False(t, ran)
}

func TestScheduler_DebounceKeepsOnlyLatest(t *testing.T) {
	clock := scheduler.NewVirtualClock(epoch)
	s := scheduler.New(clock)

	var got []int
	for i := 1; i <= 3; i++ {
		n := i
		require.True(t, s.Debounce("slot", time.Second, func() { got = append(got, n) }))
		clock.Advance(500 * time.Millisecond)
	}
	assert.Empty(t, got)
	assert.Equal(t, 1, s.Pending())

	clock.Advance(499 * time.Millisecond)
	assert.Empty(t, got)
	clock.Advance(time.Millisecond)
	assert.Equal(t, []int{3}, got)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_SlotsAreIndependent(t *testing.T) {
	clock := scheduler.NewVirtualClock(epoch)
	s := scheduler.New(clock)

	var got []string
	s.Debounce("a", time.Second, func() { got = append(got, "a") })
	s.Debounce("b", time.Second, func() { got = append(got, "b") })
	s.After(time.Second, func() { got = append(got, "delay") })
	s.After(time.Second, func() { got = append(got, "delay") })

	clock.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "delay", "delay"}, got)
}

func TestScheduler_Cancel(t *testing.T) {
	clock := scheduler.NewVirtualClock(epoch)
	s := scheduler.New(clock)

	ran := false
	s.Debounce("slot", time.Second, func() { ran = true })
	assert.True(t, s.Cancel("slot"))
	assert.False(t, s.Cancel("slot"))

	clock.Run()
	assert.False(t, ran)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_CloseCancelsPendingAndRefusesWork(t *testing.T) {
	clock := scheduler.NewVirtualClock(epoch)
	s := scheduler.New(clock)

	ran := false
	s.After(time.Second, func() { ran = true })
	s.Close()

	clock.Run()
	assert.False(t, ran)
	assert.True(t, s.Closed())
	assert.False(t, s.After(time.Second, func() {}))
	assert.False(t, s.Go(context.Background(), func(context.Context) {}))
}

func TestScheduler_FlushWaitsForRunningWork(t *testing.T) {
	s := scheduler.New(scheduler.NewVirtualClock(epoch))

	release := make(chan struct{})
	var finished atomic.Bool
	require.True(t, s.Go(context.Background(), func(context.Context) {
		<-release
		finished.Store(true)
	}))
	assert.Equal(t, 1, s.Running())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, s.Flush(context.Background()))
	assert.True(t, finished.Load())
}

func TestScheduler_CloseLetsRunningWorkFinish(t *testing.T) {
	s := scheduler.New(scheduler.NewVirtualClock(epoch))

	release := make(chan struct{})
	var finished atomic.Bool
	s.Go(context.Background(), func(context.Context) {
		<-release
		finished.Store(true)
	})
	s.Close()
	close(release)

	require.NoError(t, s.Flush(context.Background()))
	assert.True(t, finished.Load())
}

func TestScheduler_SettleWithLiveClock(t *testing.T) {
	s := scheduler.New(nil)

	var count atomic.Int32
	s.After(5*time.Millisecond, func() { count.Add(1) })
	s.Debounce("slot", 5*time.Millisecond, func() { count.Add(1) })
	s.Debounce("slot", 10*time.Millisecond, func() { count.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Settle(ctx))
	assert.Equal(t, int32(2), count.Load())
}
