package main

import (
	"github.com/aretw0/todos/internal/onboarding"
	"github.com/spf13/cobra"
)

func newOnboardingCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboarding",
		Short: "Move through the guided tour",
	}

	steps := []struct {
		use, short string
		action     onboarding.Action
	}{
		{"next", "Go to the next step", onboarding.Next{}},
		{"previous", "Go back one step", onboarding.Previous{}},
		{"skip", "Leave the tour", onboarding.Skip{}},
	}
	for _, step := range steps {
		action := step.action
		cmd.AddCommand(&cobra.Command{
			Use:   step.use,
			Short: step.short,
			Args:  cobra.NoArgs,
			RunE: run(flags, func(s *session, _ []string) error {
				s.app.Onboarding.Dispatch(action)
				return nil
			}),
		})
	}
	return cmd
}
