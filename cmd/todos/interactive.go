package main

import (
	"github.com/aretw0/todos/internal/onboarding"
	"github.com/aretw0/todos/internal/presentation/tui"
	"github.com/aretw0/todos/internal/todos"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newInteractiveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "tui",
		Aliases: []string{"interactive"},
		Short:   "Work on the list interactively",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}

			p := tea.NewProgram(tui.NewInteractive(s.app, s.app.Onboarding.Dispatch),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)

			// Subscribers run inside the dispatch cycle, which may be the
			// program's own update loop, so redraws are sent from a goroutine.
			refresh := func() { go p.Send(tui.Refresh{}) }
			cancelTodos := s.app.Todos.Subscribe(func(todos.State) { refresh() })
			cancelTour := s.app.Onboarding.Subscribe(func(onboarding.State) { refresh() })

			_, runErr := p.Run()
			cancelTodos()
			cancelTour()

			if err := s.close(); err != nil && runErr == nil {
				return err
			}
			return runErr
		},
	}
}
