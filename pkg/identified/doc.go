/*
Package identified provides an ordered collection of entities keyed by a stable identifier.

Array keeps insertion order for iteration and persistence while offering constant time
lookup by id. Positional operations (Insert, RemoveAt, Move) work on the canonical order;
callers presenting a filtered projection are responsible for translating positions back
to ids before mutating.
*/
package identified
