/*
Package store is the state container at the heart of the runtime.

A Store owns one state value. Every action goes through the root Reducer, which
mutates the state in place and returns an effect.Effect. After each reducer run the
store publishes a snapshot to subscribers and hands the effect to its scheduler:

  - Send actions are processed in the same dispatch cycle, in order.
  - Delay and Debounce actions re-enter Dispatch when their timer fires.
  - FireAndForget work runs in the background and never touches the state.

Dispatch never overlaps reducer runs: a single drainer processes the queue at a
time, so reducers always see a consistent state.

Scope derives a restricted view of a store, exposing a projection of its state and
a narrower action vocabulary, for handing a parent store to child logic.
*/
package store
