package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/todos/internal/onboarding"
	"github.com/aretw0/todos/internal/testutils"
	"github.com/aretw0/todos/internal/todo"
	"github.com/aretw0/todos/internal/todos"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() todos.State {
	return todos.NewState(
		todo.Todo{ID: testutils.UUID(0), Description: "Milk"},
		todo.Todo{ID: testutils.UUID(1), Description: "Eggs", IsComplete: true},
		todo.Todo{ID: testutils.UUID(2)},
	)
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sample())

	assert.Contains(t, md, "# Todos\n")
	assert.Contains(t, md, "1. ○ Milk\n")
	assert.Contains(t, md, "2. ✓ ~~Eggs~~\n")
	assert.Contains(t, md, "3. ○ _(untitled)_\n")
	assert.Contains(t, md, "1 of 3 complete")
	assert.NotContains(t, md, "editing")
}

func TestMarkdown_NumbersFilteredPositions(t *testing.T) {
	state := sample()
	state.Filter = todos.FilterActive
	state.EditMode = todos.EditModeActive

	md := Markdown(state)
	assert.Contains(t, md, "# Todos (active)")
	assert.Contains(t, md, "1. ○ Milk\n")
	assert.Contains(t, md, "2. ○ _(untitled)_\n")
	assert.NotContains(t, md, "Eggs")
	assert.Contains(t, md, "**editing**")
}

func TestMarkdown_Empty(t *testing.T) {
	assert.Contains(t, Markdown(todos.NewState()), "Nothing to show")
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `\*bold\* \[link\]`, escape("*bold* [link]"))
	assert.Equal(t, "plain words", escape("plain words"))
}

func TestPresenter_Show(t *testing.T) {
	var out bytes.Buffer
	p, err := NewPresenter(&out, termenv.Ascii, "notty")
	require.NoError(t, err)

	require.NoError(t, p.Show(sample(), onboarding.StepNone))
	assert.Contains(t, out.String(), "Milk")
	assert.NotContains(t, out.String(), "Step")

	out.Reset()
	require.NoError(t, p.Show(sample(), onboarding.StepFilters))
	assert.Contains(t, out.String(), "Step 2/3")
	assert.Contains(t, out.String(), "todos filter")
}

func TestHint(t *testing.T) {
	p := &Presenter{profile: termenv.Ascii}
	for i, step := range onboarding.Steps {
		n, text := stepHint(step)
		assert.Equal(t, i+1, n)
		assert.NotEmpty(t, text)
		assert.Contains(t, p.Hint(step), text)
	}
	assert.Empty(t, p.Hint(onboarding.StepNone))
}

func TestBanner(t *testing.T) {
	b := Banner(termenv.Ascii)
	for _, line := range bannerLines {
		assert.Contains(t, b, line)
	}
}

func TestHint_AsciiIsPlain(t *testing.T) {
	p := &Presenter{profile: termenv.Ascii}
	assert.NotContains(t, p.Hint(onboarding.StepActions), "\x1b[")
}

func TestPresenter_BannerOnFirstStep(t *testing.T) {
	var out bytes.Buffer
	p, err := NewPresenter(&out, termenv.Ascii, "notty")
	require.NoError(t, err)

	require.NoError(t, p.Show(sample(), onboarding.StepActions))
	assert.Contains(t, out.String(), bannerLines[1])

	out.Reset()
	require.NoError(t, p.Show(sample(), onboarding.StepTodos))
	assert.NotContains(t, out.String(), bannerLines[1])
}
