// Package todos implements the todo list domain: its state, actions and reducer.
package todos

import (
	"fmt"

	"github.com/aretw0/todos/internal/todo"
	"github.com/aretw0/todos/pkg/identified"
	"github.com/google/uuid"
)

// EditMode tells whether the list is being rearranged.
type EditMode string

const (
	EditModeInactive EditMode = "inactive"
	EditModeActive   EditMode = "active"
)

// Filter selects which todos are presented.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists every filter in presentation order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// Valid reports whether f is one of Filters.
func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterActive, FilterCompleted:
		return true
	}
	return false
}

// UnmarshalText accepts only the values in Filters.
func (f *Filter) UnmarshalText(text []byte) error {
	if v := Filter(text); v.Valid() {
		*f = v
		return nil
	}
	return fmt.Errorf("unknown filter %q", text)
}

// Valid reports whether m is a known edit mode.
func (m EditMode) Valid() bool {
	return m == EditModeInactive || m == EditModeActive
}

// UnmarshalText accepts only known edit modes.
func (m *EditMode) UnmarshalText(text []byte) error {
	if v := EditMode(text); v.Valid() {
		*m = v
		return nil
	}
	return fmt.Errorf("unknown edit mode %q", text)
}

// Collection is the ordered set of todos. Its order is the canonical,
// persisted order.
type Collection = identified.Array[uuid.UUID, todo.Todo]

// State is the todo list.
type State struct {
	EditMode EditMode   `json:"editMode" yaml:"editMode"`
	Filter   Filter     `json:"filter" yaml:"filter"`
	Todos    Collection `json:"todos" yaml:"todos"`
}

// NewState returns an empty list with default edit mode and filter.
func NewState(todos ...todo.Todo) State {
	return State{
		EditMode: EditModeInactive,
		Filter:   FilterAll,
		Todos:    identified.New[uuid.UUID](todos...),
	}
}

// Placeholder returns the seed list shown while onboarding.
func Placeholder() State {
	return NewState(
		todo.Todo{
			ID:          uuid.MustParse("de305d54-75b4-431b-adb2-eb6b9e546013"),
			Description: "Milk",
		},
		todo.Todo{
			ID:          uuid.MustParse("de305d54-75b4-431b-adb2-eb6b9e546014"),
			Description: "Eggs",
			IsComplete:  true,
		},
		todo.Todo{
			ID:          uuid.MustParse("de305d54-75b4-431b-adb2-eb6b9e546015"),
			Description: "Hand Soap",
		},
	)
}

// Clone returns a deep copy.
func (s State) Clone() State {
	s.Todos = s.Todos.Clone()
	return s
}

// Validate rejects a state with an unknown filter or edit mode, such as one
// decoded from a record that left them out.
func (s State) Validate() error {
	if !s.Filter.Valid() {
		return fmt.Errorf("unknown filter %q", s.Filter)
	}
	if !s.EditMode.Valid() {
		return fmt.Errorf("unknown edit mode %q", s.EditMode)
	}
	return nil
}

// Equal reports whether s and o hold the same todos, in the same order, with
// the same edit mode and filter.
func (s State) Equal(o State) bool {
	return s.EditMode == o.EditMode && s.Filter == o.Filter && TodosEqual(s, o)
}

// TodosEqual reports whether a and b hold the same todos in the same order,
// ignoring presentation fields.
func TodosEqual(a, b State) bool {
	return identified.Equal(a.Todos, b.Todos)
}

// FilteredTodos is the projection of Todos selected by Filter, in canonical order.
func (s State) FilteredTodos() Collection {
	switch s.Filter {
	case FilterActive:
		return s.Todos.Filter(func(t todo.Todo) bool { return !t.IsComplete })
	case FilterCompleted:
		return s.Todos.Filter(func(t todo.Todo) bool { return t.IsComplete })
	}
	return s.Todos.Clone()
}

// CanEdit reports whether there is anything to rearrange.
func (s State) CanEdit() bool {
	return !s.Todos.IsEmpty()
}

// CanClearCompleted reports whether any todo is complete.
func (s State) CanClearCompleted() bool {
	return s.Todos.ContainsWhere(func(t todo.Todo) bool { return t.IsComplete })
}

// CanDeleteAll reports whether the list is non-empty and in edit mode.
func (s State) CanDeleteAll() bool {
	return !s.Todos.IsEmpty() && s.EditMode == EditModeActive
}
