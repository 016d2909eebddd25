package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/todos/pkg/effect"
	"github.com/aretw0/todos/pkg/scheduler"
	"github.com/aretw0/todos/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Count int
	Log   []string
}

func (c counter) Clone() counter {
	c.Log = append([]string(nil), c.Log...)
	return c
}

type action struct {
	Name string
	N    int
}

func (a action) ActionName() string { return a.Name }

type env struct{}

// reducer understands a tiny vocabulary used to exercise every effect kind.
func reducer(state *counter, a action, _ env) effect.Effect[action] {
	state.Log = append(state.Log, a.Name)
	switch a.Name {
	case "add":
		state.Count += a.N
	case "chain":
		return effect.Merge(
			effect.Send(action{Name: "add", N: 1}),
			effect.Send(action{Name: "add", N: 10}),
		)
	case "later":
		return effect.Delay(action{Name: "add", N: a.N}, 100*time.Millisecond)
	case "debounced":
		return effect.Debounce(action{Name: "add", N: a.N}, "slot", time.Second)
	}
	return effect.None[action]()
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newStore(t *testing.T, opts ...store.Option) (*store.Store[counter, action, env], *scheduler.VirtualClock) {
	t.Helper()
	clock := scheduler.NewVirtualClock(epoch)
	opts = append([]store.Option{store.WithClock(clock), store.WithName("test")}, opts...)
	s := store.New(counter{}, reducer, env{}, opts...)
	t.Cleanup(s.Close)
	return s, clock
}

func TestStore_DispatchRunsReducer(t *testing.T) {
	s, _ := newStore(t)
	s.Dispatch(action{Name: "add", N: 2})
	assert.Equal(t, 2, s.State().Count)
	assert.Equal(t, "test", s.Name())
}

func TestStore_SendIsProcessedInSameCycleInOrder(t *testing.T) {
	s, _ := newStore(t)
	s.Dispatch(action{Name: "chain"})

	st := s.State()
	assert.Equal(t, 11, st.Count)
	assert.Equal(t, []string{"chain", "add", "add"}, st.Log)
}

func TestStore_DelayFiresOnClock(t *testing.T) {
	s, clock := newStore(t)
	s.Dispatch(action{Name: "later", N: 5})
	assert.Equal(t, 0, s.State().Count)
	assert.Equal(t, 1, s.Pending())

	clock.Advance(99 * time.Millisecond)
	assert.Equal(t, 0, s.State().Count)

	clock.Advance(time.Millisecond)
	assert.Equal(t, 5, s.State().Count)
	assert.Equal(t, 0, s.Pending())
}

func TestStore_DebounceCollapses(t *testing.T) {
	s, clock := newStore(t)
	for i := 1; i <= 4; i++ {
		s.Dispatch(action{Name: "debounced", N: i})
		clock.Advance(900 * time.Millisecond)
	}
	assert.Equal(t, 0, s.State().Count)

	clock.Advance(100 * time.Millisecond)
	st := s.State()
	assert.Equal(t, 4, st.Count, "only the last debounced action fires")
	assert.Equal(t, 1, countOf(st.Log, "add"))
}

func TestStore_SubscribersSeeEveryReducerRun(t *testing.T) {
	s, _ := newStore(t)
	var seen []int
	cancel := s.Subscribe(func(c counter) { seen = append(seen, c.Count) })

	s.Dispatch(action{Name: "chain"})
	assert.Equal(t, []int{0, 1, 11}, seen)

	cancel()
	s.Dispatch(action{Name: "add", N: 1})
	assert.Len(t, seen, 3)
}

func TestStore_SubscriberMayDispatch(t *testing.T) {
	s, _ := newStore(t)
	once := sync.Once{}
	s.Subscribe(func(c counter) {
		once.Do(func() { s.Dispatch(action{Name: "add", N: 100}) })
	})

	s.Dispatch(action{Name: "add", N: 1})
	assert.Equal(t, 101, s.State().Count)
}

func TestStore_SnapshotsAreIndependent(t *testing.T) {
	s, _ := newStore(t)
	s.Dispatch(action{Name: "add", N: 1})

	snap := s.State()
	snap.Log[0] = "tampered"
	assert.Equal(t, "add", s.State().Log[0])
}

func TestStore_FireAndForget(t *testing.T) {
	done := make(chan struct{})
	r := func(state *counter, a action, _ env) effect.Effect[action] {
		state.Count++
		return effect.FireAndForget[action](func(context.Context) { close(done) })
	}
	s := store.New(counter{}, r, env{}, store.WithClock(scheduler.NewVirtualClock(epoch)))
	defer s.Close()

	s.Dispatch(action{Name: "go"})
	require.NoError(t, s.Flush(context.Background()))
	select {
	case <-done:
	default:
		t.Fatal("fire-and-forget work did not run")
	}
	assert.Equal(t, 1, s.State().Count)
}

func TestStore_CloseCancelsPendingAndDropsActions(t *testing.T) {
	s, clock := newStore(t)
	s.Dispatch(action{Name: "later", N: 5})
	s.Close()

	clock.Run()
	s.Dispatch(action{Name: "add", N: 1})
	assert.Equal(t, 0, s.State().Count)
	assert.Equal(t, 0, s.Pending())
}

func TestStore_Hooks(t *testing.T) {
	var dispatched []string
	var kinds []effect.Kind
	s, clock := newStore(t, store.WithHooks(store.Hooks{
		OnDispatch: func(_ context.Context, e store.DispatchEvent) {
			assert.Equal(t, "test", e.Store)
			dispatched = append(dispatched, e.Action)
		},
		OnEffect: func(_ context.Context, e store.EffectEvent) {
			kinds = append(kinds, e.Kind)
		},
	}))

	s.Dispatch(action{Name: "chain"})
	s.Dispatch(action{Name: "later", N: 1})
	clock.Run()

	assert.Equal(t, []string{"chain", "add", "add", "later", "add"}, dispatched)
	assert.Equal(t, []effect.Kind{effect.KindSend, effect.KindSend, effect.KindDelay}, kinds)
}

func TestStore_ConcurrentDispatchIsSequential(t *testing.T) {
	var active, overlaps int
	var mu sync.Mutex
	r := func(state *counter, a action, _ env) effect.Effect[action] {
		mu.Lock()
		active++
		if active > 1 {
			overlaps++
		}
		mu.Unlock()

		state.Count++

		mu.Lock()
		active--
		mu.Unlock()
		return effect.None[action]()
	}
	s := store.New(counter{}, r, env{})
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(action{Name: "inc"})
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return s.State().Count == 50 }, time.Second, time.Millisecond)
	assert.Zero(t, overlaps)
}

func TestCombine_MergesInOrder(t *testing.T) {
	first := func(state *counter, a action, _ env) effect.Effect[action] {
		state.Log = append(state.Log, "first")
		return effect.Send(action{Name: "x"})
	}
	second := func(state *counter, a action, _ env) effect.Effect[action] {
		state.Log = append(state.Log, "second")
		return effect.Send(action{Name: "y"})
	}
	var st counter
	eff := store.Combine[counter, action, env](first, second)(&st, action{}, env{})
	assert.Equal(t, []string{"first", "second"}, st.Log)
	assert.Equal(t, []action{{Name: "x"}, {Name: "y"}}, eff.Actions())
}

func TestActionName(t *testing.T) {
	type plain struct{}
	assert.Equal(t, "plain", store.ActionName(plain{}))
	assert.Equal(t, "plain", store.ActionName(&plain{}))
	assert.Equal(t, "custom", store.ActionName(action{Name: "custom"}))
}

func countOf(log []string, name string) int {
	n := 0
	for _, l := range log {
		if l == name {
			n++
		}
	}
	return n
}
