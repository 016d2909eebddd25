package todos

import (
	"github.com/aretw0/todos/internal/todo"
	"github.com/aretw0/todos/pkg/store"
	"github.com/google/uuid"
)

// Action is any input the todos reducer understands.
type Action interface {
	isTodosAction()
}

// AddTodo prepends a blank todo and resets the filter.
type AddTodo struct{}

// ClearCompleted removes every complete todo.
type ClearCompleted struct{}

// SelectFilter changes the presented subset.
type SelectFilter struct {
	Filter Filter `json:"filter" mapstructure:"filter"`
}

// Delete removes the todos at Offsets, which are positions in the filtered list.
type Delete struct {
	Offsets []int `json:"offsets" mapstructure:"offsets"`
}

// DeleteAll empties the list and leaves edit mode.
type DeleteAll struct{}

// SetEditMode enters or leaves edit mode.
type SetEditMode struct {
	Mode EditMode `json:"mode" mapstructure:"mode"`
}

// Move reorders the todos at Source before the one at Destination. Both are
// positions in the filtered list; Destination may equal its length to move
// past the last presented todo.
type Move struct {
	Source      []int `json:"source" mapstructure:"source"`
	Destination int   `json:"destination" mapstructure:"destination"`
}

// SortCompleted moves complete todos after incomplete ones, keeping relative order.
type SortCompleted struct{}

// TodoAction forwards an edit to the todo identified by ID.
type TodoAction struct {
	ID     uuid.UUID
	Action todo.Action
}

func (AddTodo) isTodosAction()        {}
func (ClearCompleted) isTodosAction() {}
func (SelectFilter) isTodosAction()   {}
func (Delete) isTodosAction()         {}
func (DeleteAll) isTodosAction()      {}
func (SetEditMode) isTodosAction()    {}
func (Move) isTodosAction()           {}
func (SortCompleted) isTodosAction()  {}
func (TodoAction) isTodosAction()     {}

func (AddTodo) ActionName() string        { return "add_todo" }
func (ClearCompleted) ActionName() string { return "clear_completed" }
func (SelectFilter) ActionName() string   { return "select_filter" }
func (Delete) ActionName() string         { return "delete" }
func (DeleteAll) ActionName() string      { return "delete_all" }
func (SetEditMode) ActionName() string    { return "set_edit_mode" }
func (Move) ActionName() string           { return "move" }
func (SortCompleted) ActionName() string  { return "sort_completed" }

func (a TodoAction) ActionName() string {
	return "todo/" + store.ActionName(a.Action)
}
