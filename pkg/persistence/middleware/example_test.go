package middleware_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aretw0/todos/pkg/adapters/memory"
	"github.com/aretw0/todos/pkg/persistence/middleware"
)

func ExampleNewEncryptionMiddleware() {
	backend := memory.NewStore()

	// In production, fetch this from a secret manager.
	key := []byte("01234567890123456789012345678901")
	secure := middleware.Chain(backend, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: key,
	}))

	ctx := context.Background()
	if err := secure.Save(ctx, "todos", []byte(`{"todos":[]}`)); err != nil {
		log.Fatal(err)
	}

	raw, _ := backend.Load(ctx, "todos")
	fmt.Println(strings.HasPrefix(string(raw), `{"v":1,"ciphertext":`))

	plain, _ := secure.Load(ctx, "todos")
	fmt.Println(string(plain))

	// Output:
	// true
	// {"todos":[]}
}
