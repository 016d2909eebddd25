// Package caching persists a store's state as it changes.
//
// Reducer wraps a reducer so that every dispatch which changes the state, as
// judged by a caller-supplied duplicate predicate, schedules a fire-and-forget
// save. NewStore restores the state from the cache before the store starts.
// Persistence is best-effort: load failures fall back to the initial state and
// save failures are logged and dropped.
package caching
