// Package tui renders the todo list and onboarding hints for a terminal, and
// runs the interactive list.
package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/todos/internal/onboarding"
	"github.com/aretw0/todos/internal/todos"
	"github.com/muesli/termenv"
)

// Presenter writes rendered snapshots to a terminal.
type Presenter struct {
	out     io.Writer
	profile termenv.Profile
	render  func(string) (string, error)
}

// NewPresenter renders to out. style is passed to NewRenderer.
func NewPresenter(out io.Writer, profile termenv.Profile, style string) (*Presenter, error) {
	render, err := NewRenderer(style)
	if err != nil {
		return nil, err
	}
	return &Presenter{out: out, profile: profile, render: render}, nil
}

// Show writes the list, preceded by the hint for step while onboarding runs.
// The first step also gets the banner.
func (p *Presenter) Show(state todos.State, step onboarding.Step) error {
	if step == onboarding.StepActions {
		fmt.Fprint(p.out, Banner(p.profile))
	}
	if step.Active() {
		fmt.Fprintln(p.out, p.Hint(step))
	}
	text, err := p.render(Markdown(state))
	if err != nil {
		return fmt.Errorf("failed to render list: %w", err)
	}
	_, err = io.WriteString(p.out, text)
	return err
}

// Hint returns the styled instructions for an onboarding step.
func (p *Presenter) Hint(step onboarding.Step) string {
	n, text := stepHint(step)
	if n == 0 {
		return ""
	}
	label := p.profile.String(fmt.Sprintf(" Step %d/%d ", n, len(onboarding.Steps))).
		Foreground(p.profile.Color("#ffffff")).
		Background(p.profile.Color("#7c3aed")).
		Bold()
	skip := p.profile.String("Run `todos onboarding skip` to leave the tour.").Faint()
	return fmt.Sprintf("%s %s\n%s", label, text, skip)
}

func stepHint(step onboarding.Step) (int, string) {
	switch step {
	case onboarding.StepActions:
		return 1, "Add todos with `todos add`, then run `todos onboarding next`."
	case onboarding.StepFilters:
		return 2, "Narrow the list with `todos filter active|completed|all`."
	case onboarding.StepTodos:
		return 3, "Check off todos with `todos toggle` and rename them with `todos edit`."
	}
	return 0, ""
}
