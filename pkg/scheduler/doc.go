/*
Package scheduler executes the timed and background parts of effects for a store.

A Scheduler sits on top of a Clock. Live uses the runtime timers; VirtualClock only
moves when told to, which makes delays and debounces deterministic under test.

Debounce registrations are keyed by effect.ID. Registering under a slot that already
holds a pending timer cancels and replaces it atomically, so only the most recent
registration can ever fire.
*/
package scheduler
