package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/todos/internal/todo"
	"github.com/aretw0/todos/internal/todos"
)

const markdownSpecials = "\\`*_{}[]()#+-.!<>|~"

// Markdown renders the presented list. Items are numbered by their position
// in the filtered list, the positions the CLI accepts.
func Markdown(state todos.State) string {
	var b strings.Builder

	title := "Todos"
	if state.Filter != todos.FilterAll {
		title += " (" + string(state.Filter) + ")"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	filtered := state.FilteredTodos().Elements()
	if len(filtered) == 0 {
		b.WriteString("_Nothing to show._\n")
	}
	for i, t := range filtered {
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, checkbox(t), describe(t))
	}

	done := 0
	for _, t := range state.Todos.Elements() {
		if t.IsComplete {
			done++
		}
	}
	fmt.Fprintf(&b, "\n%d of %d complete", done, state.Todos.Len())
	if state.EditMode == todos.EditModeActive {
		b.WriteString(" · **editing**")
	}
	b.WriteString("\n")
	return b.String()
}

func checkbox(t todo.Todo) string {
	if t.IsComplete {
		return "✓"
	}
	return "○"
}

func describe(t todo.Todo) string {
	if t.Description == "" {
		return "_(untitled)_"
	}
	text := escape(t.Description)
	if t.IsComplete {
		return "~~" + text + "~~"
	}
	return text
}

func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(markdownSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
