package effect

import (
	"context"
	"time"
)

// Kind tags the variant held by an Effect.
type Kind int

const (
	KindNone          Kind = iota // No work
	KindSend                      // Dispatch an action in the current cycle
	KindDelay                     // Dispatch an action after a duration
	KindDebounce                  // Dispatch an action after a duration, replacing any pending one under the same ID
	KindFireAndForget             // Run work whose result never feeds back into the store
	KindMerge                     // Run several effects independently
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindSend:
		return "send"
	case KindDelay:
		return "delay"
	case KindDebounce:
		return "debounce"
	case KindFireAndForget:
		return "fire_and_forget"
	case KindMerge:
		return "merge"
	}
	return "unknown"
}

// ID identifies a debounce slot. At most one debounced action is pending per ID.
type ID string

// Work is a fire-and-forget side effect. It receives the context the owning
// store was configured with.
type Work func(ctx context.Context)

// Effect describes future work returned by a reducer. It is a closed variant:
// build values with the constructors below and inspect them with Kind.
// The zero value is None.
type Effect[A any] struct {
	kind     Kind
	action   A
	after    time.Duration
	id       ID
	work     Work
	children []Effect[A]
}

// None returns an effect that does nothing.
func None[A any]() Effect[A] {
	return Effect[A]{}
}

// Send dispatches action synchronously, in the same dispatch cycle.
func Send[A any](action A) Effect[A] {
	return Effect[A]{kind: KindSend, action: action}
}

// Delay dispatches action once d has elapsed on the store clock.
func Delay[A any](action A, d time.Duration) Effect[A] {
	return Effect[A]{kind: KindDelay, action: action, after: d}
}

// Debounce dispatches action once d has elapsed, cancelling any action still
// pending under id.
func Debounce[A any](action A, id ID, d time.Duration) Effect[A] {
	return Effect[A]{kind: KindDebounce, action: action, id: id, after: d}
}

// FireAndForget runs work without feeding a result back.
func FireAndForget[A any](work Work) Effect[A] {
	if work == nil {
		return None[A]()
	}
	return Effect[A]{kind: KindFireAndForget, work: work}
}

// Merge combines effects, keeping their order. Nested merges are flattened and
// None members dropped; merging nothing yields None and merging one effect
// yields that effect.
func Merge[A any](effects ...Effect[A]) Effect[A] {
	var flat []Effect[A]
	for _, e := range effects {
		switch e.kind {
		case KindNone:
		case KindMerge:
			flat = append(flat, e.children...)
		default:
			flat = append(flat, e)
		}
	}
	switch len(flat) {
	case 0:
		return None[A]()
	case 1:
		return flat[0]
	}
	return Effect[A]{kind: KindMerge, children: flat}
}

// Kind returns the variant tag.
func (e Effect[A]) Kind() Kind { return e.kind }

// IsNone reports whether the effect does nothing.
func (e Effect[A]) IsNone() bool { return e.kind == KindNone }

// Action returns the action carried by Send, Delay and Debounce effects.
func (e Effect[A]) Action() A { return e.action }

// Duration returns the wait of Delay and Debounce effects.
func (e Effect[A]) Duration() time.Duration { return e.after }

// ID returns the debounce slot of a Debounce effect.
func (e Effect[A]) ID() ID { return e.id }

// Work returns the function of a FireAndForget effect.
func (e Effect[A]) Work() Work { return e.work }

// Children returns the members of a Merge effect.
func (e Effect[A]) Children() []Effect[A] { return e.children }

// Map lifts an effect into another action space, keeping timing, debounce
// slots and fire-and-forget work intact. It is how a parent domain embeds
// the effects of a child reducer.
func Map[A, B any](e Effect[A], f func(A) B) Effect[B] {
	switch e.kind {
	case KindSend:
		return Send(f(e.action))
	case KindDelay:
		return Delay(f(e.action), e.after)
	case KindDebounce:
		return Debounce(f(e.action), e.id, e.after)
	case KindFireAndForget:
		return FireAndForget[B](e.work)
	case KindMerge:
		children := make([]Effect[B], len(e.children))
		for i, c := range e.children {
			children[i] = Map(c, f)
		}
		return Effect[B]{kind: KindMerge, children: children}
	}
	return None[B]()
}

// Actions returns the actions the effect will eventually dispatch, in order.
// Fire-and-forget work contributes nothing.
func (e Effect[A]) Actions() []A {
	switch e.kind {
	case KindSend, KindDelay, KindDebounce:
		return []A{e.action}
	case KindMerge:
		var out []A
		for _, c := range e.children {
			out = append(out, c.Actions()...)
		}
		return out
	}
	return nil
}
