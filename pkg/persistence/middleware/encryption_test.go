package middleware_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/todos/pkg/adapters/memory"
	"github.com/aretw0/todos/pkg/persistence/middleware"
	"github.com/aretw0/todos/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunBlobStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	secret := []byte(`{"description":"my-secret-sauce"}`)

	if err := secureStore.Save(ctx, "todos", secret); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stored, err := underlyingStore.Load(ctx, "todos")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if bytes.Contains(stored, []byte("my-secret-sauce")) {
		t.Fatalf("Expected secret to be hidden, found: %s", stored)
	}
	assert.Contains(t, string(stored), `"v":1`)
	assert.Contains(t, string(stored), `"ciphertext":`)

	loaded, err := secureStore.Load(ctx, "todos")
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	assert.Equal(t, secret, loaded)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)
	require.NoError(t, secureStoreOld.Save(ctx, "todos", []byte("encrypted-with-old-key")))

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, "todos")
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	assert.Equal(t, "encrypted-with-old-key", string(loaded))

	require.NoError(t, secureStoreNew.Save(ctx, "todos", []byte("encrypted-with-new-key")))

	_, err = secureStoreOld.Load(ctx, "todos")
	if err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlainValues(t *testing.T) {
	underlyingStore := memory.NewStore()
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	ctx := context.Background()

	for _, plain := range []string{`{"todos":[]}`, "step: actions\n", ""} {
		require.NoError(t, underlyingStore.Save(ctx, "plain", []byte(plain)))
		_, err := secureStore.Load(ctx, "plain")
		assert.ErrorIs(t, err, middleware.ErrMissingEnvelope, "value %q", plain)
	}
}

func TestEncryptionMiddleware_PassesThroughNotFound(t *testing.T) {
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(memory.NewStore())
	_, err := secureStore.Load(context.Background(), "absent")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}

func TestChain_OrdersOutermostFirst(t *testing.T) {
	var calls []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.BlobStore) ports.BlobStore {
			return recordingStore{BlobStore: next, name: name, calls: &calls}
		}
	}

	store := middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	require.NoError(t, store.Save(context.Background(), "k", []byte("v")))
	assert.Equal(t, []string{"outer", "inner"}, calls)
}

type recordingStore struct {
	ports.BlobStore
	name  string
	calls *[]string
}

func (r recordingStore) Save(ctx context.Context, key string, data []byte) error {
	*r.calls = append(*r.calls, r.name)
	return r.BlobStore.Save(ctx, key, data)
}
