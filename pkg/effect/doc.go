/*
Package effect describes the work a reducer hands back to the store.

An Effect is a closed variant: None, Send, Delay, Debounce, FireAndForget or Merge.
Effects are plain values; nothing runs until a store interprets them through its
scheduler. Map embeds a child domain's effects into a parent's action space.
*/
package effect
