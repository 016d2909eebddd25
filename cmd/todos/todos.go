package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/todos/internal/app"
	"github.com/aretw0/todos/internal/todo"
	"github.com/aretw0/todos/internal/todos"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the todo list",
		Args:    cobra.NoArgs,
		RunE: run(flags, func(s *session, _ []string) error {
			return nil
		}),
	}
}

func newAddCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add [text]",
		Short: "Add a todo",
		RunE: run(flags, func(s *session, args []string) error {
			view, step := s.app.Active()
			before := view.State()
			view.Dispatch(todos.AddTodo{})

			text := strings.Join(args, " ")
			if text == "" {
				return nil
			}
			id, ok := added(before, view.State())
			if !ok {
				return fmt.Errorf("adding todos is not available right now")
			}
			view.Dispatch(todos.TodoAction{ID: id, Action: todo.TextFieldChanged{Text: text}})
			if t, _ := view.State().Todos.Get(id); t.Description != text {
				s.logger.Warn("Added a blank todo, text cannot be set on this onboarding step", "step", step)
			}
			return nil
		}),
	}
}

// added returns the id present in after but not in before.
func added(before, after todos.State) (uuid.UUID, bool) {
	for _, id := range after.Todos.IDs() {
		if !before.Todos.Contains(id) {
			return id, true
		}
	}
	return uuid.Nil, false
}

func newToggleCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <n>",
		Short: "Check or uncheck the todo at position n",
		Args:  cobra.ExactArgs(1),
		RunE: run(flags, func(s *session, args []string) error {
			view, _ := s.app.Active()
			t, err := todoAt(view, args[0])
			if err != nil {
				return err
			}
			view.Dispatch(todos.TodoAction{ID: t.ID, Action: todo.CheckBoxToggled{}})
			return nil
		}),
	}
}

func newEditCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <n> <text>",
		Short: "Replace the description of the todo at position n",
		Args:  cobra.MinimumNArgs(2),
		RunE: run(flags, func(s *session, args []string) error {
			view, _ := s.app.Active()
			t, err := todoAt(view, args[0])
			if err != nil {
				return err
			}
			view.Dispatch(todos.TodoAction{ID: t.ID, Action: todo.TextFieldChanged{Text: strings.Join(args[1:], " ")}})
			return nil
		}),
	}
}

func newDeleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <n...>",
		Aliases: []string{"rm"},
		Short:   "Delete the todos at the given positions",
		Args:    cobra.MinimumNArgs(1),
		RunE: run(flags, func(s *session, args []string) error {
			view, _ := s.app.Active()
			state := view.State()
			offsets, err := positions(args, state.FilteredTodos().Len())
			if err != nil {
				return err
			}
			view.Dispatch(todos.Delete{Offsets: offsets})
			return nil
		}),
	}
}

func newDeleteAllCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every todo (edit mode only)",
		Args:  cobra.NoArgs,
		RunE: run(flags, func(s *session, _ []string) error {
			view, _ := s.app.Active()
			state := view.State()
			if !state.CanDeleteAll() {
				return fmt.Errorf("delete-all needs a non-empty list in edit mode (todos edit-mode active)")
			}
			view.Dispatch(todos.DeleteAll{})
			return nil
		}),
	}
}

func newClearCompletedCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Delete every completed todo",
		Args:  cobra.NoArgs,
		RunE: run(flags, func(s *session, _ []string) error {
			view, _ := s.app.Active()
			view.Dispatch(todos.ClearCompleted{})
			return nil
		}),
	}
}

func newFilterCmd(flags *globalFlags) *cobra.Command {
	names := make([]string, len(todos.Filters))
	for i, f := range todos.Filters {
		names[i] = string(f)
	}
	return &cobra.Command{
		Use:       "filter <" + strings.Join(names, "|") + ">",
		Short:     "Choose which todos are shown",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: names,
		RunE: run(flags, func(s *session, args []string) error {
			view, _ := s.app.Active()
			view.Dispatch(todos.SelectFilter{Filter: todos.Filter(args[0])})
			return nil
		}),
	}
}

func newMoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "move <from...> <to>",
		Short: "Move the todos at the given positions before position to",
		Long: "Move the todos at the given positions before the todo at position to. " +
			"Use one past the last position to move to the end.",
		Args: cobra.MinimumNArgs(2),
		RunE: run(flags, func(s *session, args []string) error {
			view, _ := s.app.Active()
			state := view.State()
			n := state.FilteredTodos().Len()

			source, err := positions(args[:len(args)-1], n)
			if err != nil {
				return err
			}
			dest, err := positions(args[len(args)-1:], n+1)
			if err != nil {
				return err
			}
			view.Dispatch(todos.Move{Source: source, Destination: dest[0]})
			return nil
		}),
	}
}

func newEditModeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "edit-mode <active|inactive>",
		Short:     "Enter or leave edit mode",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(todos.EditModeActive), string(todos.EditModeInactive)},
		RunE: run(flags, func(s *session, args []string) error {
			view, _ := s.app.Active()
			view.Dispatch(todos.SetEditMode{Mode: todos.EditMode(args[0])})
			return nil
		}),
	}
}

// todoAt resolves a 1-based position in the presented list.
func todoAt(view app.TodosView, arg string) (todo.Todo, error) {
	state := view.State()
	filtered := state.FilteredTodos()
	offsets, err := positions([]string{arg}, filtered.Len())
	if err != nil {
		return todo.Todo{}, err
	}
	t, _ := filtered.At(offsets[0])
	return t, nil
}

// positions parses 1-based positions in [1, limit] into sorted, distinct
// 0-based offsets.
func positions(args []string, limit int) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid position %q", arg)
		}
		if n < 1 || n > limit {
			return nil, fmt.Errorf("no todo at position %d", n)
		}
		out = append(out, n-1)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
