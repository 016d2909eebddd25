package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/todos/internal/onboarding"
	"github.com/aretw0/todos/internal/todo"
	"github.com/aretw0/todos/internal/todos"
	"github.com/aretw0/todos/pkg/store"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// Source is the list an interactive session drives. The view can change
// while the session runs, as the guided tour moves between steps.
type Source interface {
	Active() (store.View[todos.State, todos.Action], onboarding.Step)
}

// Refresh asks the interactive list to redraw after a change it did not make,
// such as a delayed sort.
type Refresh struct{}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	stepStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#7c3aed")).Bold(true)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
)

type keyMap struct {
	Up, Down, MoveUp, MoveDown key.Binding
	Toggle, Add, Edit, Delete  key.Binding
	Filter, EditMode, Clear    key.Binding
	Next, Skip, Quit           key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Add, k.Edit, k.Delete, k.Filter, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.MoveUp, k.MoveDown},
		{k.Toggle, k.Add, k.Edit, k.Delete},
		{k.Filter, k.EditMode, k.Clear},
		{k.Next, k.Skip, k.Quit},
	}
}

func defaultKeys() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		MoveUp:   key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "move up")),
		MoveDown: key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "move down")),
		Toggle:   key.NewBinding(key.WithKeys(" ", "space", "x"), key.WithHelp("space", "check")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Filter:   key.NewBinding(key.WithKeys("f", "tab"), key.WithHelp("f", "filter")),
		EditMode: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "edit mode")),
		Clear:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear completed")),
		Next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next step")),
		Skip:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip tour")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type inputMode int

const (
	inputNone inputMode = iota
	inputAdd
	inputRename
)

// Interactive is a Bubble Tea model over a live todo list. Every key press
// becomes an action on the active store; the view is redrawn from the
// store's state, never from a private copy.
type Interactive struct {
	src  Source
	tour func(onboarding.Action)
	keys keyMap
	help help.Model

	cursor   int
	mode     inputMode
	renaming uuid.UUID
	input    textinput.Model
	status   string
}

// NewInteractive drives src. tour receives the step keys; it may be nil when
// there is no guided tour to move through.
func NewInteractive(src Source, tour func(onboarding.Action)) Interactive {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200
	return Interactive{
		src:   src,
		tour:  tour,
		keys:  defaultKeys(),
		help:  help.New(),
		input: ti,
	}
}

// Cursor is the selected position in the filtered list.
func (m Interactive) Cursor() int { return m.cursor }

// Status is the last message shown under the list.
func (m Interactive) Status() string { return m.status }

func (m Interactive) Init() tea.Cmd { return nil }

func (m Interactive) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case Refresh:
		m.clamp()
	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Interactive) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if m.mode == inputAdd {
			m.add(text)
		} else {
			m.rename(text)
		}
		m.closeInput()
		return m, nil
	case "esc":
		m.closeInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Interactive) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view, step := m.src.Active()
	state := view.State()
	filtered := state.FilteredTodos().Elements()
	selected, hasSelection := todo.Todo{}, m.cursor < len(filtered)
	if hasSelection {
		selected = filtered[m.cursor]
	}
	m.status = ""

	// Steps of the tour drop the actions they do not allow; those are the
	// dispatches that leave the state untouched.
	dispatch := func(action todos.Action) bool {
		view.Dispatch(action)
		if step.Active() && state.Equal(view.State()) {
			m.status = "Not available on this step of the tour"
			return false
		}
		return true
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(filtered)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.MoveUp):
		if hasSelection && m.cursor > 0 && dispatch(todos.Move{Source: []int{m.cursor}, Destination: m.cursor - 1}) {
			m.cursor--
		}
	case key.Matches(msg, m.keys.MoveDown):
		if hasSelection && m.cursor < len(filtered)-1 && dispatch(todos.Move{Source: []int{m.cursor}, Destination: m.cursor + 2}) {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if hasSelection {
			dispatch(todos.TodoAction{ID: selected.ID, Action: todo.CheckBoxToggled{}})
		}
	case key.Matches(msg, m.keys.Add):
		m.mode = inputAdd
		m.input.Placeholder = "What needs doing?"
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Edit):
		if hasSelection {
			m.mode = inputRename
			m.renaming = selected.ID
			m.input.Placeholder = "New description"
			m.input.SetValue(selected.Description)
			m.input.CursorEnd()
			return m, m.input.Focus()
		}
	case key.Matches(msg, m.keys.Delete):
		if hasSelection {
			dispatch(todos.Delete{Offsets: []int{m.cursor}})
		}
	case key.Matches(msg, m.keys.Filter):
		dispatch(todos.SelectFilter{Filter: nextFilter(state.Filter)})
	case key.Matches(msg, m.keys.EditMode):
		mode := todos.EditModeActive
		if state.EditMode == todos.EditModeActive {
			mode = todos.EditModeInactive
		}
		dispatch(todos.SetEditMode{Mode: mode})
	case key.Matches(msg, m.keys.Clear):
		view.Dispatch(todos.ClearCompleted{})
	case key.Matches(msg, m.keys.Next):
		m.moveTour(onboarding.Next{})
	case key.Matches(msg, m.keys.Skip):
		m.moveTour(onboarding.Skip{})
	}
	m.clamp()
	return m, nil
}

func (m *Interactive) add(text string) {
	view, _ := m.src.Active()
	before := view.State()
	view.Dispatch(todos.AddTodo{})
	after := view.State()

	var id uuid.UUID
	for _, candidate := range after.Todos.IDs() {
		if !before.Todos.Contains(candidate) {
			id = candidate
			break
		}
	}
	if id == uuid.Nil {
		m.status = "Adding todos is not available on this step of the tour"
		return
	}
	m.cursor = slices.IndexFunc(after.FilteredTodos().Elements(), func(t todo.Todo) bool { return t.ID == id })
	if text == "" {
		return
	}
	view.Dispatch(todos.TodoAction{ID: id, Action: todo.TextFieldChanged{Text: text}})
	if t, _ := view.State().Todos.Get(id); t.Description != text {
		m.status = "Added a blank todo, renaming is not available on this step of the tour"
	}
}

func (m *Interactive) rename(text string) {
	view, _ := m.src.Active()
	view.Dispatch(todos.TodoAction{ID: m.renaming, Action: todo.TextFieldChanged{Text: text}})
	if t, ok := view.State().Todos.Get(m.renaming); ok && t.Description != text {
		m.status = "Renaming is not available on this step of the tour"
	}
}

func (m *Interactive) moveTour(action onboarding.Action) {
	if m.tour == nil {
		return
	}
	if _, step := m.src.Active(); !step.Active() {
		m.status = "The tour is over"
		return
	}
	m.tour(action)
}

func (m *Interactive) closeInput() {
	m.mode = inputNone
	m.renaming = uuid.Nil
	m.input.SetValue("")
	m.input.Blur()
	m.clamp()
}

func (m *Interactive) clamp() {
	view, _ := m.src.Active()
	n := view.State().FilteredTodos().Len()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func nextFilter(f todos.Filter) todos.Filter {
	i := slices.Index(todos.Filters, f)
	return todos.Filters[(i+1)%len(todos.Filters)]
}

func (m Interactive) View() string {
	view, step := m.src.Active()
	state := view.State()

	var b strings.Builder
	if n, text := tourHint(step); n > 0 {
		fmt.Fprintf(&b, "%s %s\n\n", stepStyle.Render(fmt.Sprintf(" Step %d/%d ", n, len(onboarding.Steps))), text)
	}

	done := 0
	for _, t := range state.Todos.Elements() {
		if t.IsComplete {
			done++
		}
	}
	title := "Todos"
	if state.Filter != todos.FilterAll {
		title += " (" + string(state.Filter) + ")"
	}
	fmt.Fprintf(&b, "%s   %s %d  %s %d",
		titleStyle.Render(title),
		successStyle.Render("✓"), done,
		pendingStyle.Render("○"), state.Todos.Len()-done,
	)
	if state.EditMode == todos.EditModeActive {
		b.WriteString("  " + mutedStyle.Render("editing"))
	}
	b.WriteString("\n\n")

	filtered := state.FilteredTodos().Elements()
	if len(filtered) == 0 {
		b.WriteString(mutedStyle.Render("Nothing to show.") + "\n")
	}
	for i, t := range filtered {
		prefix := "  "
		if i == m.cursor {
			prefix = selectedStyle.Render(">") + " "
		}
		b.WriteString(prefix + line(t) + "\n")
	}

	if m.mode != inputNone {
		label := "Add todo"
		if m.mode == inputRename {
			label = "Rename todo"
		}
		b.WriteString("\n" + panelStyle.Render(label+"\n"+m.input.View()) + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + errorStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return panelStyle.Render(b.String())
}

func line(t todo.Todo) string {
	text := t.Description
	if text == "" {
		text = mutedStyle.Render("(untitled)")
	}
	if t.IsComplete {
		return successStyle.Render("✓") + " " + doneStyle.Render(text)
	}
	return mutedStyle.Render("○") + " " + text
}

func tourHint(step onboarding.Step) (int, string) {
	switch step {
	case onboarding.StepActions:
		return 1, "Press a to add todos, then n for the next step."
	case onboarding.StepFilters:
		return 2, "Press f to cycle through the filters, then n."
	case onboarding.StepTodos:
		return 3, "Check off todos with space and rename them with e, then n."
	}
	return 0, ""
}
