package app_test

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/todos/internal/app"
	"github.com/aretw0/todos/internal/config"
	"github.com/aretw0/todos/internal/metrics"
	"github.com/aretw0/todos/internal/onboarding"
	"github.com/aretw0/todos/internal/testutils"
	"github.com/aretw0/todos/internal/todos"
	"github.com/aretw0/todos/pkg/adapters/file"
	"github.com/aretw0/todos/pkg/adapters/memory"
	"github.com/aretw0/todos/pkg/cache"
	"github.com/aretw0/todos/pkg/ports"
	"github.com/aretw0/todos/pkg/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	cfg := config.Default()
	cfg.Cache.Backend = config.BackendMemory
	return cfg
}

func newApp(t *testing.T, cfg config.Config, blobs ports.BlobStore, extra ...app.Option) *app.App {
	t.Helper()
	opts := append([]app.Option{
		app.WithBlobStore(blobs),
		app.WithClock(scheduler.NewVirtualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))),
		app.WithEnvironment(todos.Environment{UUID: testutils.IncrementingUUID()}),
	}, extra...)
	a, err := app.New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	return a
}

func closeApp(t *testing.T, a *app.App) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, a.Close(ctx))
}

func TestNew_StartsOnboarding(t *testing.T) {
	a := newApp(t, memoryConfig(), memory.NewStore())
	defer closeApp(t, a)

	view, step := a.Active()
	assert.Equal(t, onboarding.StepActions, step)
	assert.True(t, view.State().Equal(todos.Placeholder()))
	main := a.Todos.State()
	assert.Equal(t, 0, main.Todos.Len())
}

func TestActive_RoutesThroughOnboarding(t *testing.T) {
	a := newApp(t, memoryConfig(), memory.NewStore())
	defer closeApp(t, a)

	view, _ := a.Active()
	view.Dispatch(todos.AddTodo{})

	tour := a.Onboarding.State()
	require.Equal(t, 4, tour.TodosState.Todos.Len())
	last, _ := tour.TodosState.Todos.At(3)
	assert.Equal(t, testutils.UUID(0), last.ID, "onboarding appends")
	main := a.Todos.State()
	assert.Equal(t, 0, main.Todos.Len(), "main list untouched")
}

func TestActive_AfterOnboarding(t *testing.T) {
	a := newApp(t, memoryConfig(), memory.NewStore())
	defer closeApp(t, a)

	a.Onboarding.Dispatch(onboarding.Skip{})

	view, step := a.Active()
	assert.Equal(t, onboarding.StepNone, step)

	view.Dispatch(todos.AddTodo{})
	main := a.Todos.State()
	tour := a.Onboarding.State()
	assert.Equal(t, 1, main.Todos.Len())
	assert.Equal(t, 3, tour.TodosState.Todos.Len())
}

func TestNew_RestoresFromCache(t *testing.T) {
	blobs := memory.NewStore()

	a := newApp(t, memoryConfig(), blobs)
	a.Onboarding.Dispatch(onboarding.Skip{})
	view, _ := a.Active()
	view.Dispatch(todos.AddTodo{})
	view.Dispatch(todos.SelectFilter{Filter: todos.FilterCompleted})
	closeApp(t, a)

	b := newApp(t, memoryConfig(), blobs)
	defer closeApp(t, b)

	assert.Equal(t, onboarding.StepNone, b.Step())
	state := b.Todos.State()
	require.Equal(t, 1, state.Todos.Len())
	first, _ := state.Todos.At(0)
	assert.Equal(t, testutils.UUID(0), first.ID)
	assert.Equal(t, todos.FilterCompleted, state.Filter)
}

func TestNew_NarrowDuplicatePredicates(t *testing.T) {
	cfg := memoryConfig()
	cfg.Stores.Todos.Dedup = config.DedupTodos
	cfg.Stores.Onboarding.Dedup = config.DedupStep
	blobs := memory.NewStore()

	a := newApp(t, cfg, blobs)
	tour, _ := a.Active()
	tour.Dispatch(todos.AddTodo{})
	a.Onboarding.Dispatch(onboarding.Skip{})
	view, _ := a.Active()
	view.Dispatch(todos.AddTodo{})
	view.Dispatch(todos.SelectFilter{Filter: todos.FilterCompleted})
	closeApp(t, a)

	b := newApp(t, cfg, blobs)
	defer closeApp(t, b)

	state := b.Todos.State()
	assert.Equal(t, 1, state.Todos.Len())
	assert.Equal(t, todos.FilterAll, state.Filter, "filter changes alone are not persisted")

	// Skip saved the tour with the todo added before it.
	assert.Equal(t, onboarding.StepNone, b.Step())
	assert.Equal(t, 4, b.Onboarding.State().TodosState.Todos.Len())
}

func TestNew_Encrypted(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	cfg := memoryConfig()
	cfg.Cache.EncryptionKey = base64.StdEncoding.EncodeToString(key)

	blobs := memory.NewStore()
	a := newApp(t, cfg, blobs)
	a.Onboarding.Dispatch(onboarding.Next{})
	closeApp(t, a)

	raw, err := blobs.Load(context.Background(), cfg.Stores.Onboarding.Key)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Milk")
	assert.Contains(t, string(raw), `"ciphertext"`)

	b := newApp(t, cfg, blobs)
	defer closeApp(t, b)
	assert.Equal(t, onboarding.StepFilters, b.Step())
}

func TestNew_WrongKeyFallsBackToInitial(t *testing.T) {
	cfg := memoryConfig()
	cfg.Cache.EncryptionKey = base64.StdEncoding.EncodeToString(make([]byte, 32))

	blobs := memory.NewStore()
	a := newApp(t, cfg, blobs)
	a.Onboarding.Dispatch(onboarding.Skip{})
	closeApp(t, a)

	other := make([]byte, 32)
	other[0] = 1
	cfg.Cache.EncryptionKey = base64.StdEncoding.EncodeToString(other)

	b := newApp(t, cfg, blobs)
	defer closeApp(t, b)
	assert.Equal(t, onboarding.StepActions, b.Step(), "unreadable record is discarded")
}

func TestNew_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	a := newApp(t, memoryConfig(), memory.NewStore(), app.WithMetrics(m))
	a.Onboarding.Dispatch(onboarding.Next{})
	closeApp(t, a)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["todos_actions_total"])
	assert.True(t, names["todos_cache_saves_total"])
}

func TestOpenBlobStore(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		cfg := config.Default().Cache
		cfg.Backend = config.BackendMemory
		blobs, closer, err := app.OpenBlobStore(cfg, cache.JSON)
		require.NoError(t, err)
		defer closer()
		assert.IsType(t, &memory.Store{}, blobs)
	})

	t.Run("File", func(t *testing.T) {
		cfg := config.Default().Cache
		cfg.Dir = t.TempDir()
		blobs, closer, err := app.OpenBlobStore(cfg, cache.YAML)
		require.NoError(t, err)
		defer closer()

		require.NoError(t, blobs.Save(context.Background(), "todos", []byte("todos: []\n")))
		assert.FileExists(t, filepath.Join(cfg.Dir, "todos.yaml"))
		assert.IsType(t, &file.Store{}, blobs)
	})

	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.Default().Cache
		cfg.Backend = config.BackendRedis
		cfg.Redis.Addr = mr.Addr()

		blobs, closer, err := app.OpenBlobStore(cfg, cache.JSON)
		require.NoError(t, err)
		defer closer()

		require.NoError(t, blobs.Save(context.Background(), "todos", []byte("{}")))
		assert.True(t, mr.Exists("todos:cache:blob:todos"))
	})

	t.Run("Unknown", func(t *testing.T) {
		cfg := config.Default().Cache
		cfg.Backend = "s3"
		_, _, err := app.OpenBlobStore(cfg, cache.JSON)
		assert.ErrorIs(t, err, config.ErrUnknownBackend)
	})
}
