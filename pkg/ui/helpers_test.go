package ui

import (
	"context"
	"regexp"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/pedigree/pkg/export"
	"github.com/vanderheijden86/pedigree/pkg/model"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func newTestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(nil))
}

func isoDates() export.DateFormatter {
	return export.DateFormatter{Layout: model.DateLayout}
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runCmd executes cmd and returns the messages it produced, flattening
// batches. Commands that do not finish promptly (ticks, blinking cursors)
// are dropped.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(200 * time.Millisecond):
		return nil
	}
	switch msg := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, runCmd(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

// testOptions keep toasts until replaced and search without delay, so no
// command ever waits on a timer.
func testOptions() Options {
	return Options{DefaultGenerations: 2, MaxGenerations: 5, DateLayout: model.DateLayout}
}

func newTestModel(t *testing.T, s *fakeStore, opts Options) Model {
	t.Helper()
	m := NewModel(context.Background(), s, opts)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return settle(t, m, m.Init())
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// settle feeds the messages of cmd back into m until nothing is left.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := runCmd(cmd)
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatal("model did not settle")
		}
		msg := queue[0]
		queue = queue[1:]
		if _, ok := msg.(tea.QuitMsg); ok {
			continue
		}
		next, c := m.Update(msg)
		m = next.(Model)
		queue = append(queue, runCmd(c)...)
	}
	return m
}

// press sends key s and settles the model.
func press(t *testing.T, m Model, s string) Model {
	t.Helper()
	next, cmd := m.Update(keyPress(s))
	return settle(t, next.(Model), cmd)
}

func latestToast(t *testing.T, m Model) Toast {
	t.Helper()
	toast, ok := m.Notifier().Latest()
	if !ok {
		t.Fatal("expected a toast")
	}
	return toast
}
