// Package repl implements the interactive formula session as a
// bubbletea program: a scrollback of results above a single input
// line. Formulas evaluate on enter; "A1 = 42" style lines assign
// cells; a few bare words (help, cells, functions, history) are
// commands.
package repl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/longkedev/lkcalc/formula"
	"github.com/longkedev/lkcalc/internal/history"
	"github.com/longkedev/lkcalc/internal/sheet"
	"github.com/longkedev/lkcalc/internal/style"
)

// maxScrollback bounds the retained output lines.
const maxScrollback = 500

// Model is the bubbletea model for the repl.
type Model struct {
	engine *formula.Engine
	store  *sheet.Sheet
	hist   *history.History

	input textinput.Model
	keys  KeyMap
	help  help.Model

	lines []string
	width int
}

// NewModel creates a repl over the given engine and cell store. hist
// may be nil to run without a history log.
func NewModel(engine *formula.Engine, store *sheet.Sheet, hist *history.History) *Model {
	input := textinput.New()
	input.Prompt = "= "
	input.PromptStyle = style.Info
	input.Placeholder = "SUM(1,2,3)"
	input.CharLimit = 512
	input.Focus()

	return &Model{
		engine: engine,
		store:  store,
		hist:   hist,
		input:  input,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		lines: []string{
			style.Dim.Render("lkcalc repl. Type a formula, 'help' for commands."),
		},
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.SetWindowTitle("lkcalc"),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.input.Width = msg.Width - len(m.input.Prompt) - 1
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Clear):
			m.lines = nil
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit consumes the input line and appends its output to the
// scrollback.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	entered := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if entered == "" {
		return m, nil
	}

	switch strings.ToLower(entered) {
	case "exit", "quit":
		return m, tea.Quit
	case "clear":
		m.lines = nil
		return m, nil
	}

	m.echo(entered)
	m.append(m.run(entered)...)
	if len(m.lines) > maxScrollback {
		m.lines = m.lines[len(m.lines)-maxScrollback:]
	}
	return m, nil
}

// run dispatches one entered line: a command word, a cell assignment,
// or a formula to evaluate.
func (m *Model) run(entered string) []string {
	switch strings.ToLower(entered) {
	case "help":
		return helpLines()
	case "functions":
		return m.functionLines()
	case "cells":
		return m.cellLines()
	case "history":
		return m.historyLines()
	}

	if address, ok := strings.CutPrefix(strings.ToLower(entered), "del "); ok {
		return m.deleteCell(strings.TrimSpace(address))
	}
	if address, text, ok := splitAssignment(entered); ok {
		return m.assign(address, text)
	}
	return m.eval(entered)
}

// eval evaluates a formula and records it in the history log.
func (m *Model) eval(entered string) []string {
	text := strings.TrimPrefix(entered, "=")
	result, err := m.engine.Calculate(text, "")
	if err != nil {
		return []string{errorLine(err)}
	}

	rendered := formula.Format(result)
	if m.hist != nil {
		// best effort: a failed history write never breaks the session
		_ = m.hist.Append(text, rendered)
	}
	return []string{style.Result.Render(rendered)}
}

// assign stores entered text at a cell and shows the resulting value.
// The right-hand side follows cell entry rules: a leading "=" makes a
// formula, anything else is a literal.
func (m *Model) assign(address, text string) []string {
	if err := m.store.SetText(address, text); err != nil {
		return []string{errorLine(err)}
	}
	value, err := m.store.Value(address)
	if err != nil {
		return []string{errorLine(err)}
	}
	return []string{fmt.Sprintf("%s %s",
		style.Dim.Render(strings.ToUpper(address)+" ->"),
		style.Result.Render(formula.Format(value)))}
}

// deleteCell removes a cell from the store.
func (m *Model) deleteCell(address string) []string {
	if !formula.IsCellAddress(address) {
		return []string{errorLine(fmt.Errorf("invalid cell address %q", address))}
	}
	m.store.Remove(address)
	return []string{style.Dim.Render(strings.ToUpper(address) + " removed")}
}

// functionLines lists the callable functions.
func (m *Model) functionLines() []string {
	names := m.engine.GetSupportedFunctions()
	lines := make([]string, 0, (len(names)+5)/6)
	for start := 0; start < len(names); start += 6 {
		end := start + 6
		if end > len(names) {
			end = len(names)
		}
		lines = append(lines, style.Dim.Render(strings.Join(names[start:end], "  ")))
	}
	return lines
}

// cellLines renders the current sheet contents in address order,
// formulas alongside their computed values.
func (m *Model) cellLines() []string {
	entries := m.store.Snapshot()
	if len(entries) == 0 {
		return []string{style.Dim.Render("(no cells)")}
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		prefix := fmt.Sprintf("%s = %s", entry.Address, formula.Format(entry.Raw))
		switch {
		case entry.Err != nil:
			lines = append(lines, style.Dim.Render(prefix)+" "+errorLine(entry.Err))
		case isFormulaText(entry.Raw):
			lines = append(lines, fmt.Sprintf("%s -> %s",
				style.Dim.Render(prefix),
				style.Result.Render(formula.Format(entry.Value))))
		default:
			lines = append(lines, style.Dim.Render(prefix))
		}
	}
	return lines
}

// historyLines shows the tail of the history log.
func (m *Model) historyLines() []string {
	if m.hist == nil {
		return []string{style.Dim.Render("(history disabled)")}
	}
	recent, err := m.hist.Recent(10)
	if err != nil {
		return []string{errorLine(err)}
	}
	if len(recent) == 0 {
		return []string{style.Dim.Render("(history empty)")}
	}
	lines := make([]string, 0, len(recent))
	for _, line := range recent {
		lines = append(lines, style.Dim.Render(line))
	}
	return lines
}

func helpLines() []string {
	return []string{
		style.Dim.Render("  <formula>      evaluate, e.g. SUM(1,2,3) or A1*2"),
		style.Dim.Render(`  A1 = 42        set a cell literal`),
		style.Dim.Render(`  A2 = =A1*2     set a cell formula (note the second =)`),
		style.Dim.Render("  del A1         remove a cell"),
		style.Dim.Render("  cells          show all cells and their values"),
		style.Dim.Render("  functions      list callable functions"),
		style.Dim.Render("  history        show recent evaluations"),
		style.Dim.Render("  clear          clear the screen, exit to leave"),
	}
}

// splitAssignment recognizes "ADDR = rest" lines. A parenthesized
// expression like (A1=B1) stays a comparison because it does not start
// with a cell address.
func splitAssignment(entered string) (address, text string, ok bool) {
	idx := strings.Index(entered, "=")
	if idx <= 0 {
		return "", "", false
	}
	address = strings.TrimSpace(entered[:idx])
	if !formula.IsCellAddress(address) {
		return "", "", false
	}
	return address, strings.TrimSpace(entered[idx+1:]), true
}

func isFormulaText(raw formula.Value) bool {
	text, ok := raw.(string)
	return ok && strings.HasPrefix(text, "=")
}

// errorLine renders a failure with its spreadsheet label when it has
// one.
func errorLine(err error) string {
	var formulaErr *formula.Error
	if errors.As(err, &formulaErr) {
		return style.Error.Render(formulaErr.Label()) + " " + err.Error()
	}
	return style.Error.Render("error:") + " " + err.Error()
}

func (m *Model) echo(entered string) {
	m.append(style.Dim.Render("= ") + entered)
}

func (m *Model) append(lines ...string) {
	m.lines = append(m.lines, lines...)
}

// View renders the session.
func (m *Model) View() string {
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(m.input.View())
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	b.WriteByte('\n')
	return b.String()
}
