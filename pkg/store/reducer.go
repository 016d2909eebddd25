package store

import (
	"fmt"
	"strings"

	"github.com/aretw0/todos/pkg/effect"
)

// Reducer applies action to state in place and returns the effects to run.
// It receives exclusive access to state for the duration of the call and
// must not retain the pointer afterwards.
type Reducer[S, A, E any] func(state *S, action A, env E) effect.Effect[A]

// Combine runs reducers in order on the same state and merges their effects.
func Combine[S, A, E any](reducers ...Reducer[S, A, E]) Reducer[S, A, E] {
	return func(state *S, action A, env E) effect.Effect[A] {
		effects := make([]effect.Effect[A], 0, len(reducers))
		for _, r := range reducers {
			effects = append(effects, r(state, action, env))
		}
		return effect.Merge(effects...)
	}
}

// Cloner is implemented by state types that hold reference-typed fields and
// need a deep copy to take an independent snapshot.
type Cloner[S any] interface {
	Clone() S
}

// Snapshot returns a copy of s that later mutations of s cannot reach.
func Snapshot[S any](s S) S {
	if c, ok := any(s).(Cloner[S]); ok {
		return c.Clone()
	}
	return s
}

// Named is implemented by actions that provide their own label for logs and metrics.
type Named interface {
	ActionName() string
}

// ActionName returns a short label for action: its ActionName if it has one,
// otherwise its unqualified type name.
func ActionName(action any) string {
	if n, ok := action.(Named); ok {
		return n.ActionName()
	}
	name := fmt.Sprintf("%T", action)
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
