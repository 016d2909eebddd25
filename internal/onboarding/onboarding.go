// Package onboarding wraps the todos domain in a guided tour. While a step
// is active, child actions are gated by the step; once onboarding ends every
// child action is delegated to the todos reducer.
package onboarding

import (
	"fmt"

	"github.com/aretw0/todos/internal/todo"
	"github.com/aretw0/todos/internal/todos"
	"github.com/aretw0/todos/pkg/effect"
	"github.com/aretw0/todos/pkg/store"
)

// Step is the current stage of the tour. StepNone means onboarding is over.
type Step string

const (
	StepNone    Step = ""
	StepActions Step = "actions"
	StepFilters Step = "filters"
	StepTodos   Step = "todos"
)

// Steps lists the active steps in order.
var Steps = []Step{StepActions, StepFilters, StepTodos}

// Next returns the following step, or StepNone after the last one.
func (s Step) Next() Step {
	switch s {
	case StepActions:
		return StepFilters
	case StepFilters:
		return StepTodos
	}
	return StepNone
}

// Previous returns the preceding step, staying on the first one.
// StepNone, and any unknown step, has no previous step.
func (s Step) Previous() Step {
	switch s {
	case StepFilters:
		return StepActions
	case StepTodos:
		return StepFilters
	case StepActions:
		return StepActions
	case StepNone:
		return StepNone
	}
	return StepNone
}

// Active reports whether onboarding is still running.
func (s Step) Active() bool { return s != StepNone }

// Valid reports whether s is StepNone or one of Steps.
func (s Step) Valid() bool {
	switch s {
	case StepNone, StepActions, StepFilters, StepTodos:
		return true
	}
	return false
}

// UnmarshalText accepts StepNone and the values in Steps.
func (s *Step) UnmarshalText(text []byte) error {
	if v := Step(text); v.Valid() {
		*s = v
		return nil
	}
	return fmt.Errorf("unknown onboarding step %q", text)
}

// State is the tour over a todo list.
type State struct {
	TodosState todos.State `json:"todosState" yaml:"todosState"`
	Step       Step        `json:"step,omitempty" yaml:"step,omitempty"`
}

// NewState returns the initial tour: the placeholder list on the first step.
func NewState() State {
	return State{TodosState: todos.Placeholder(), Step: StepActions}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	s.TodosState = s.TodosState.Clone()
	return s
}

// Validate rejects a tour on an unknown step or over an invalid list.
func (s State) Validate() error {
	if !s.Step.Valid() {
		return fmt.Errorf("unknown onboarding step %q", s.Step)
	}
	return s.TodosState.Validate()
}

// Equal reports whether s and o are on the same step over equal lists.
func (s State) Equal(o State) bool {
	return s.Step == o.Step && s.TodosState.Equal(o.TodosState)
}

// SameStep reports whether a and b are on the same step, whatever their lists hold.
func SameStep(a, b State) bool {
	return a.Step == b.Step
}

// Action is any input the onboarding reducer understands.
type Action interface {
	isOnboardingAction()
}

// Previous goes back one step.
type Previous struct{}

// Next advances one step. Leaving the actions step drops todos left blank.
type Next struct{}

// Skip ends onboarding.
type Skip struct{}

// TodosAction carries an action aimed at the wrapped todo list.
type TodosAction struct {
	Action todos.Action
}

func (Previous) isOnboardingAction()    {}
func (Next) isOnboardingAction()        {}
func (Skip) isOnboardingAction()        {}
func (TodosAction) isOnboardingAction() {}

func (Previous) ActionName() string { return "previous" }
func (Next) ActionName() string     { return "next" }
func (Skip) ActionName() string     { return "skip" }

func (a TodosAction) ActionName() string {
	return "todos/" + store.ActionName(a.Action)
}

// Environment is shared with the todos domain.
type Environment = todos.Environment

// Reducer drives the tour.
func Reducer(state *State, action Action, env Environment) effect.Effect[Action] {
	switch a := action.(type) {
	case Previous:
		state.Step = state.Step.Previous()
		state.TodosState.Filter = todos.FilterAll

	case Next:
		if state.Step == StepActions {
			state.TodosState.Todos.RemoveAll(func(t todo.Todo) bool { return t.Description == "" })
		}
		advance(state)

	case Skip:
		state.TodosState.Filter = todos.FilterAll
		state.Step = StepNone

	case TodosAction:
		return gate(state, a.Action, env)
	}
	return effect.None[Action]()
}

// advance moves to the next step and resets the filter.
func advance(state *State) {
	state.Step = state.Step.Next()
	state.TodosState.Filter = todos.FilterAll
}

// gate decides what a child action does given the current step.
func gate(state *State, action todos.Action, env Environment) effect.Effect[Action] {
	if !state.Step.Active() {
		return forward(state, action, env)
	}

	switch a := action.(type) {
	case todos.AddTodo:
		if state.Step == StepActions {
			state.TodosState.Todos.Append(todo.Todo{ID: env.UUID()})
		}
		return effect.None[Action]()

	case todos.SelectFilter:
		if state.Step == StepFilters {
			state.TodosState.Filter = a.Filter
		}
		return effect.None[Action]()

	case todos.TodoAction, todos.SortCompleted:
		if state.Step == StepTodos {
			return forward(state, action, env)
		}
	}
	return effect.None[Action]()
}

func forward(state *State, action todos.Action, env Environment) effect.Effect[Action] {
	eff := todos.Reducer(&state.TodosState, action, env)
	return effect.Map(eff, lift)
}

func lift(a todos.Action) Action {
	return TodosAction{Action: a}
}

var _ store.Reducer[State, Action, Environment] = Reducer
