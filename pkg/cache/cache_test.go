package cache_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/todos/pkg/adapters/memory"
	"github.com/aretw0/todos/pkg/cache"
	"github.com/aretw0/todos/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string   `json:"name" yaml:"name"`
	Count int      `json:"count" yaml:"count"`
	Tags  []string `json:"tags" yaml:"tags"`
}

func TestCache_RoundTrip(t *testing.T) {
	for _, codec := range []cache.Codec{cache.JSON, cache.YAML, cache.TOML} {
		t.Run(codec.Extension(), func(t *testing.T) {
			ctx := context.Background()
			blobs := memory.NewStore()
			want := record{Name: "groceries", Count: 3, Tags: []string{"a", "b"}}

			c, err := cache.New[record](blobs, "records", cache.WithCodec(codec))
			require.NoError(t, err)
			require.NoError(t, c.Save(ctx, want))

			// A fresh cache over the same store sees the value.
			fresh, err := cache.New[record](blobs, "records", cache.WithCodec(codec))
			require.NoError(t, err)
			got, err := fresh.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestCache_YAMLIsTextDocument(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewStore()
	c, err := cache.New[record](blobs, "records", cache.WithCodec(cache.YAML))
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, record{Name: "x", Count: 1}))

	raw, err := blobs.Load(ctx, "records")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "name: x")
	assert.Contains(t, string(raw), "count: 1")
}

func TestCache_TOMLIsTextDocument(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewStore()
	c, err := cache.New[record](blobs, "records", cache.WithCodec(cache.TOML))
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, record{Name: "x", Count: 1}))

	raw, err := blobs.Load(ctx, "records")
	require.NoError(t, err)
	assert.Regexp(t, `name = ['"]x['"]`, string(raw))
	assert.NotContains(t, string(raw), "tags")

	got, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, record{Name: "x", Count: 1}, got)
}

func TestCache_TOMLRejectsNonTables(t *testing.T) {
	c, err := cache.New[[]string](memory.NewStore(), "list", cache.WithCodec(cache.TOML))
	require.NoError(t, err)
	err = c.Save(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, cache.ErrNotTable)
}

func TestCache_LoadFailures(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewStore()
	c, err := cache.New[record](blobs, "records")
	require.NoError(t, err)

	_, err = c.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, blobs.Save(ctx, "records", nil))
	_, err = c.Load(ctx)
	assert.ErrorIs(t, err, cache.ErrEmptyRecord)

	require.NoError(t, blobs.Save(ctx, "records", []byte("{not json")))
	got, err := c.Load(ctx)
	assert.Error(t, err)
	assert.Equal(t, record{}, got)
}

type checked struct {
	OK bool `json:"ok" yaml:"ok"`
}

func (c checked) Validate() error {
	if !c.OK {
		return errors.New("not ok")
	}
	return nil
}

func TestCache_LoadRejectsInvalidValue(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewStore()
	c, err := cache.New[checked](blobs, "checked")
	require.NoError(t, err)

	require.NoError(t, blobs.Save(ctx, "checked", []byte(`{"ok":false}`)))
	got, err := c.Load(ctx)
	assert.ErrorContains(t, err, "not ok")
	assert.Equal(t, checked{}, got)

	require.NoError(t, c.Save(ctx, checked{OK: true}))
	got, err = c.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.OK)
}

func TestCache_EmptyKey(t *testing.T) {
	_, err := cache.New[record](memory.NewStore(), "")
	assert.ErrorIs(t, err, cache.ErrEmptyKey)
}

func TestCache_SaveErrorIsWrapped(t *testing.T) {
	blobs := memory.NewStore(memory.WithMaxValueSize(4))
	c, err := cache.New[record](blobs, "records")
	require.NoError(t, err)

	err = c.Save(context.Background(), record{Name: "too long"})
	assert.ErrorIs(t, err, memory.ErrValueTooLarge)
	assert.Equal(t, "records", c.Key())
}

func TestCodecByName(t *testing.T) {
	c, ok := cache.CodecByName("yaml")
	assert.True(t, ok)
	assert.Equal(t, ".yaml", c.Extension())

	c, ok = cache.CodecByName("")
	assert.True(t, ok)
	assert.Equal(t, cache.JSON, c)

	c, ok = cache.CodecByName("toml")
	assert.True(t, ok)
	assert.Equal(t, ".toml", c.Extension())

	_, ok = cache.CodecByName("ini")
	assert.False(t, ok)
}
