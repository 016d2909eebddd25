// Package todo holds the todo entity and its per-entity reducer.
package todo

import (
	"github.com/aretw0/todos/pkg/effect"
	"github.com/google/uuid"
)

// Todo is one entry of the list. ID never changes after creation.
type Todo struct {
	ID          uuid.UUID `json:"id" yaml:"id"`
	Description string    `json:"description" yaml:"description"`
	IsComplete  bool      `json:"isComplete" yaml:"isComplete"`
}

// Identifier implements identified.Identifiable.
func (t Todo) Identifier() uuid.UUID { return t.ID }

// Less orders incomplete todos before complete ones. Todos with the same
// completion status are unordered, so a stable sort keeps their relative order.
func Less(a, b Todo) bool {
	return !a.IsComplete && b.IsComplete
}

// Action is an edit applied to a single todo.
type Action interface {
	isTodoAction()
}

// CheckBoxToggled flips IsComplete.
type CheckBoxToggled struct{}

// TextFieldChanged replaces Description.
type TextFieldChanged struct {
	Text string `json:"text" mapstructure:"text"`
}

func (CheckBoxToggled) isTodoAction()  {}
func (TextFieldChanged) isTodoAction() {}

func (CheckBoxToggled) ActionName() string  { return "checkbox_toggled" }
func (TextFieldChanged) ActionName() string { return "text_field_changed" }

// Environment is empty: editing a todo needs no dependencies.
type Environment struct{}

// Reducer applies action to state.
func Reducer(state *Todo, action Action, _ Environment) effect.Effect[Action] {
	switch a := action.(type) {
	case CheckBoxToggled:
		state.IsComplete = !state.IsComplete
	case TextFieldChanged:
		state.Description = a.Text
	}
	return effect.None[Action]()
}
