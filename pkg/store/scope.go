package store

// Scoped is a derived view over a parent store: it exposes a projection of
// the parent state and accepts a narrower action vocabulary that is lifted
// into the parent's actions on dispatch.
type Scoped[S, A any] struct {
	state     func() S
	dispatch  func(A)
	subscribe func(func(S)) func()
}

// Scope derives a view of parent. toState projects the parent state and
// fromAction embeds child actions into the parent vocabulary. Scopes compose:
// a Scoped value can itself be scoped.
func Scope[S, A, C, CA any](parent View[S, A], toState func(S) C, fromAction func(CA) A) *Scoped[C, CA] {
	return &Scoped[C, CA]{
		state: func() C {
			return toState(parent.State())
		},
		dispatch: func(a CA) {
			parent.Dispatch(fromAction(a))
		},
		subscribe: func(fn func(C)) func() {
			return parent.Subscribe(func(s S) { fn(toState(s)) })
		},
	}
}

// State returns the projected state.
func (v *Scoped[S, A]) State() S {
	return v.state()
}

// Dispatch lifts action into the parent vocabulary and dispatches it there.
func (v *Scoped[S, A]) Dispatch(action A) {
	v.dispatch(action)
}

// Subscribe receives the projected state after every parent reducer run.
func (v *Scoped[S, A]) Subscribe(fn func(S)) (cancel func()) {
	return v.subscribe(fn)
}

var _ View[int, int] = (*Scoped[int, int])(nil)
