package todos

import (
	"time"

	"github.com/aretw0/todos/internal/todo"
	"github.com/aretw0/todos/pkg/effect"
	"github.com/aretw0/todos/pkg/store"
	"github.com/google/uuid"
)

const (
	// SortDelay lets a manual reorder settle before completed todos are re-sorted.
	SortDelay = 100 * time.Millisecond
	// CompletionDebounce is how long toggling must pause before re-sorting.
	CompletionDebounce = time.Second
	// CompletionDebounceID is the debounce slot shared by every completion toggle.
	CompletionDebounceID effect.ID = "todo-completion"
)

// Environment holds the reducer's dependencies.
type Environment struct {
	// UUID generates ids for new todos.
	UUID func() uuid.UUID
}

// LiveEnvironment returns the environment used outside tests.
func LiveEnvironment() Environment {
	return Environment{UUID: uuid.New}
}

// Reducer runs the per-todo reducer for TodoAction, then the list logic.
var Reducer store.Reducer[State, Action, Environment] = store.Combine[State, Action, Environment](forEachTodo, reduce)

func forEachTodo(state *State, action Action, _ Environment) effect.Effect[Action] {
	a, ok := action.(TodoAction)
	if !ok {
		return effect.None[Action]()
	}
	eff := effect.None[todo.Action]()
	state.Todos.Update(a.ID, func(t *todo.Todo) {
		eff = todo.Reducer(t, a.Action, todo.Environment{})
	})
	return effect.Map(eff, func(ta todo.Action) Action {
		return TodoAction{ID: a.ID, Action: ta}
	})
}

func reduce(state *State, action Action, env Environment) effect.Effect[Action] {
	switch a := action.(type) {
	case AddTodo:
		state.Filter = FilterAll
		state.Todos.Insert(todo.Todo{ID: env.UUID()}, 0)

	case ClearCompleted:
		state.Todos.RemoveAll(func(t todo.Todo) bool { return t.IsComplete })

	case SelectFilter:
		state.Filter = a.Filter

	case Delete:
		state.Todos.RemoveAt(state.canonicalOffsets(a.Offsets))

	case DeleteAll:
		state.EditMode = EditModeInactive
		state.Filter = FilterAll
		state.Todos.Clear()

	case SetEditMode:
		state.EditMode = a.Mode

	case Move:
		return state.move(a)

	case SortCompleted:
		state.Todos.SortStable(todo.Less)

	case TodoAction:
		if _, toggled := a.Action.(todo.CheckBoxToggled); toggled && state.Todos.Contains(a.ID) {
			return effect.Debounce[Action](SortCompleted{}, CompletionDebounceID, CompletionDebounce)
		}
	}
	return effect.None[Action]()
}

// canonicalOffsets maps positions in the filtered list to positions in Todos.
// Offsets outside the filtered list are dropped.
func (s *State) canonicalOffsets(offsets []int) []int {
	filtered := s.FilteredTodos()
	out := make([]int, 0, len(offsets))
	for _, o := range offsets {
		t, ok := filtered.At(o)
		if !ok {
			continue
		}
		if i := s.Todos.Index(t.ID); i >= 0 {
			out = append(out, i)
		}
	}
	return out
}

// move reorders in canonical order. A destination equal to the filtered length
// means just after the last presented todo. Unresolvable offsets leave the
// state untouched and schedule nothing.
func (s *State) move(a Move) effect.Effect[Action] {
	source := s.canonicalOffsets(a.Source)
	if len(source) == 0 {
		return effect.None[Action]()
	}

	filtered := s.FilteredTodos()
	var to int
	switch {
	case a.Destination >= 0 && a.Destination < filtered.Len():
		t, _ := filtered.At(a.Destination)
		to = s.Todos.Index(t.ID)
	case a.Destination == filtered.Len():
		last, _ := filtered.At(filtered.Len() - 1)
		to = s.Todos.Index(last.ID) + 1
	default:
		return effect.None[Action]()
	}
	if to < 0 {
		return effect.None[Action]()
	}

	s.Todos.Move(source, to)
	return effect.Delay[Action](SortCompleted{}, SortDelay)
}
