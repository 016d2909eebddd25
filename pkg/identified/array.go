package identified

import (
	"encoding/json"
	"slices"

	"gopkg.in/yaml.v3"
)

// Identifiable is implemented by entities that carry a stable identifier.
type Identifiable[ID comparable] interface {
	Identifier() ID
}

// Array is an ordered collection of entities keyed by their identifier.
// Lookup by id is O(1); iteration follows insertion order.
// The zero value is an empty, ready to use collection. Reads use value
// receivers so they work on snapshots; mutations need an addressable Array.
type Array[ID comparable, T Identifiable[ID]] struct {
	ids   []ID
	elems map[ID]T
}

// New builds an Array from elems, preserving order. Elements whose id is
// already present are dropped (first occurrence wins).
func New[ID comparable, T Identifiable[ID]](elems ...T) Array[ID, T] {
	var a Array[ID, T]
	for _, e := range elems {
		a.Append(e)
	}
	return a
}

// Len returns the number of elements.
func (a Array[ID, T]) Len() int {
	return len(a.ids)
}

// IsEmpty reports whether the collection has no elements.
func (a Array[ID, T]) IsEmpty() bool {
	return len(a.ids) == 0
}

// IDs returns a copy of the identifiers in order.
func (a Array[ID, T]) IDs() []ID {
	return slices.Clone(a.ids)
}

// Elements returns a copy of the elements in order.
func (a Array[ID, T]) Elements() []T {
	out := make([]T, len(a.ids))
	for i, id := range a.ids {
		out[i] = a.elems[id]
	}
	return out
}

// At returns the element at position i.
func (a Array[ID, T]) At(i int) (T, bool) {
	if i < 0 || i >= len(a.ids) {
		var zero T
		return zero, false
	}
	return a.elems[a.ids[i]], true
}

// Get returns the element with the given id.
func (a Array[ID, T]) Get(id ID) (T, bool) {
	e, ok := a.elems[id]
	return e, ok
}

// Contains reports whether an element with id is present.
func (a Array[ID, T]) Contains(id ID) bool {
	_, ok := a.elems[id]
	return ok
}

// Index returns the position of id, or -1 if absent.
func (a Array[ID, T]) Index(id ID) int {
	if !a.Contains(id) {
		return -1
	}
	return slices.Index(a.ids, id)
}

// Insert puts elem at position i (clamped to [0, Len]).
// It returns false and leaves the collection untouched if the id is already present.
func (a *Array[ID, T]) Insert(elem T, i int) bool {
	id := elem.Identifier()
	if a.Contains(id) {
		return false
	}
	if a.elems == nil {
		a.elems = make(map[ID]T)
	}
	i = max(0, min(i, len(a.ids)))
	a.ids = slices.Insert(a.ids, i, id)
	a.elems[id] = elem
	return true
}

// Append adds elem at the end.
func (a *Array[ID, T]) Append(elem T) bool {
	return a.Insert(elem, len(a.ids))
}

// Update applies fn to the element with id in place.
// It returns false if no such element exists. fn must not change the identifier.
func (a *Array[ID, T]) Update(id ID, fn func(*T)) bool {
	e, ok := a.elems[id]
	if !ok {
		return false
	}
	fn(&e)
	a.elems[id] = e
	return true
}

// Remove deletes the element with id. Removing an absent id is a no-op.
func (a *Array[ID, T]) Remove(id ID) (T, bool) {
	e, ok := a.elems[id]
	if !ok {
		return e, false
	}
	delete(a.elems, id)
	a.ids = slices.DeleteFunc(a.ids, func(x ID) bool { return x == id })
	return e, true
}

// RemoveAt deletes the elements at the given positions.
// Out of range and repeated offsets are ignored.
func (a *Array[ID, T]) RemoveAt(offsets []int) {
	drop := make([]ID, 0, len(offsets))
	for _, i := range offsets {
		if i >= 0 && i < len(a.ids) {
			drop = append(drop, a.ids[i])
		}
	}
	for _, id := range drop {
		a.Remove(id)
	}
}

// RemoveAll deletes every element matching pred.
func (a *Array[ID, T]) RemoveAll(pred func(T) bool) {
	a.ids = slices.DeleteFunc(a.ids, func(id ID) bool {
		if pred(a.elems[id]) {
			delete(a.elems, id)
			return true
		}
		return false
	})
}

// Clear removes every element.
func (a *Array[ID, T]) Clear() {
	a.ids = nil
	a.elems = nil
}

// Move relocates the elements at offsets so that they end up, in their
// original relative order, before the element that was at position to.
// A destination equal to Len moves them to the end. Invalid offsets are
// ignored; an out of range destination leaves the collection untouched.
func (a *Array[ID, T]) Move(offsets []int, to int) {
	if to < 0 || to > len(a.ids) {
		return
	}
	moving := make(map[int]bool, len(offsets))
	for _, i := range offsets {
		if i >= 0 && i < len(a.ids) {
			moving[i] = true
		}
	}
	if len(moving) == 0 {
		return
	}

	moved := make([]ID, 0, len(moving))
	kept := make([]ID, 0, len(a.ids)-len(moving))
	before := 0
	for i, id := range a.ids {
		if moving[i] {
			moved = append(moved, id)
			if i < to {
				before++
			}
			continue
		}
		kept = append(kept, id)
	}
	a.ids = slices.Insert(kept, to-before, moved...)
}

// SortStable orders the elements by less, keeping equal elements in their
// current relative order.
func (a *Array[ID, T]) SortStable(less func(x, y T) bool) {
	slices.SortStableFunc(a.ids, func(x, y ID) int {
		ex, ey := a.elems[x], a.elems[y]
		switch {
		case less(ex, ey):
			return -1
		case less(ey, ex):
			return 1
		}
		return 0
	})
}

// Filter returns a new collection with the elements matching pred, in order.
func (a Array[ID, T]) Filter(pred func(T) bool) Array[ID, T] {
	var out Array[ID, T]
	for _, id := range a.ids {
		if e := a.elems[id]; pred(e) {
			out.Append(e)
		}
	}
	return out
}

// ContainsWhere reports whether any element matches pred.
func (a Array[ID, T]) ContainsWhere(pred func(T) bool) bool {
	for _, id := range a.ids {
		if pred(a.elems[id]) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy. Elements are copied by value.
func (a Array[ID, T]) Clone() Array[ID, T] {
	out := Array[ID, T]{ids: slices.Clone(a.ids)}
	if a.elems != nil {
		out.elems = make(map[ID]T, len(a.elems))
		for k, v := range a.elems {
			out.elems[k] = v
		}
	}
	return out
}

// Equal reports whether a and b hold equal elements in the same order.
func Equal[ID comparable, T interface {
	Identifiable[ID]
	comparable
}](a, b Array[ID, T]) bool {
	if len(a.ids) != len(b.ids) {
		return false
	}
	for i, id := range a.ids {
		if b.ids[i] != id || a.elems[id] != b.elems[id] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the collection as an ordered array.
func (a Array[ID, T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Elements())
}

// UnmarshalJSON decodes an ordered array, dropping duplicate ids.
func (a *Array[ID, T]) UnmarshalJSON(data []byte) error {
	var elems []T
	if err := json.Unmarshal(data, &elems); err != nil {
		return err
	}
	*a = New[ID](elems...)
	return nil
}

// MarshalYAML encodes the collection as an ordered sequence.
func (a Array[ID, T]) MarshalYAML() (any, error) {
	return a.Elements(), nil
}

// UnmarshalYAML decodes an ordered sequence, dropping duplicate ids.
func (a *Array[ID, T]) UnmarshalYAML(node *yaml.Node) error {
	var elems []T
	if err := node.Decode(&elems); err != nil {
		return err
	}
	*a = New[ID](elems...)
	return nil
}
