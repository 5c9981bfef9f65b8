package repl

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/longkedev/lkcalc/formula"
	"github.com/longkedev/lkcalc/internal/sheet"
	"github.com/longkedev/lkcalc/internal/style"
)

func init() {
	style.Disable()
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	engine := formula.NewEngine(nil)
	store := sheet.New(engine)
	return NewModel(engine, store, nil)
}

func TestSplitAssignment(t *testing.T) {
	tests := []struct {
		entered string
		address string
		text    string
		ok      bool
	}{
		{"A1 = 42", "A1", "42", true},
		{"A1=B1", "A1", "B1", true},
		{"a1 = hello", "a1", "hello", true},
		{"AA10==SUM(1,2)", "AA10", "=SUM(1,2)", true},
		{"SUM(1,2)", "", "", false},
		{"(A1=B1)", "", "", false},
		{"=1+2", "", "", false},
		{"1=2", "", "", false},
		{"LEN(\"a\")=1", "", "", false},
	}

	for _, test := range tests {
		t.Run(test.entered, func(t *testing.T) {
			address, text, ok := splitAssignment(test.entered)
			if ok != test.ok || address != test.address || text != test.text {
				t.Errorf("splitAssignment(%q) = (%q, %q, %v), expected (%q, %q, %v)",
					test.entered, address, text, ok, test.address, test.text, test.ok)
			}
		})
	}
}

func TestRunEval(t *testing.T) {
	m := newTestModel(t)

	lines := m.run("1+2*3")
	if len(lines) != 1 || lines[0] != "7" {
		t.Errorf("expected [7], got %v", lines)
	}

	lines = m.run(`=CONCATENATE("a", "b")`)
	if len(lines) != 1 || lines[0] != "ab" {
		t.Errorf("expected [ab], got %v", lines)
	}
}

func TestRunEvalError(t *testing.T) {
	m := newTestModel(t)

	lines := m.run("NOSUCHFN(1)")
	if len(lines) != 1 || !strings.Contains(lines[0], "#NAME?") {
		t.Errorf("expected #NAME? line, got %v", lines)
	}
}

func TestRunAssignment(t *testing.T) {
	m := newTestModel(t)

	lines := m.run("A1 = 42")
	if len(lines) != 1 || lines[0] != "A1 -> 42" {
		t.Errorf("expected [A1 -> 42], got %v", lines)
	}

	lines = m.run("A1*2")
	if len(lines) != 1 || lines[0] != "84" {
		t.Errorf("expected [84], got %v", lines)
	}

	// formula cell recomputes from its referenced cell
	lines = m.run("A2 = =A1*2")
	if len(lines) != 1 || lines[0] != "A2 -> 84" {
		t.Errorf("expected [A2 -> 84], got %v", lines)
	}
}

func TestRunCircularAssignment(t *testing.T) {
	m := newTestModel(t)

	m.run("A1 = =B1")
	lines := m.run("B1 = =A1")
	if len(lines) != 1 || !strings.Contains(lines[0], "#CYCLE!") {
		t.Errorf("expected #CYCLE! line, got %v", lines)
	}
}

func TestRunDelete(t *testing.T) {
	m := newTestModel(t)

	m.run("A1 = 42")
	lines := m.run("del A1")
	if len(lines) != 1 || lines[0] != "A1 removed" {
		t.Errorf("expected [A1 removed], got %v", lines)
	}
	if m.store.Len() != 0 {
		t.Errorf("expected empty store, got %d cells", m.store.Len())
	}

	lines = m.run("del nope")
	if len(lines) != 1 || !strings.Contains(lines[0], "invalid cell address") {
		t.Errorf("expected invalid address line, got %v", lines)
	}
}

func TestRunCells(t *testing.T) {
	m := newTestModel(t)

	lines := m.run("cells")
	if len(lines) != 1 || lines[0] != "(no cells)" {
		t.Errorf("expected [(no cells)], got %v", lines)
	}

	m.run("B1 = 10")
	m.run("A1 = =B1*2")
	lines = m.run("cells")
	if len(lines) != 2 {
		t.Fatalf("expected 2 cell lines, got %v", lines)
	}
	if lines[0] != "A1 = =B1*2 -> 20" {
		t.Errorf("formula cell line = %q", lines[0])
	}
	if lines[1] != "B1 = 10" {
		t.Errorf("literal cell line = %q", lines[1])
	}
}

func TestRunFunctions(t *testing.T) {
	m := newTestModel(t)

	lines := m.run("functions")
	if len(lines) == 0 {
		t.Fatal("expected function lines")
	}
	if !strings.HasPrefix(lines[0], "ABS") {
		t.Errorf("expected sorted names starting at ABS, got %q", lines[0])
	}
}

func TestRunHistoryDisabled(t *testing.T) {
	m := newTestModel(t)

	lines := m.run("history")
	if len(lines) != 1 || lines[0] != "(history disabled)" {
		t.Errorf("expected [(history disabled)], got %v", lines)
	}
}

func TestSubmitExit(t *testing.T) {
	m := newTestModel(t)

	m.input.SetValue("exit")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestViewShowsPromptAndScrollback(t *testing.T) {
	m := newTestModel(t)

	m.input.SetValue("2^10")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	view := m.View()
	if !strings.Contains(view, "1024") {
		t.Errorf("expected result in view:\n%s", view)
	}
	if !strings.Contains(view, "= ") {
		t.Errorf("expected prompt in view:\n%s", view)
	}
}
