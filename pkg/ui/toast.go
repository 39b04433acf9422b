package ui

import (
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ToastLevel is the severity of a notification.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastError
)

func (l ToastLevel) String() string {
	switch l {
	case ToastSuccess:
		return "success"
	case ToastError:
		return "error"
	default:
		return "info"
	}
}

// Toast is one visible notification.
type Toast struct {
	ID    uint64
	Level ToastLevel
	Text  string
}

// ToastMsg asks the root model to show a notification. Child views return
// it through Notify instead of owning the notifier.
type ToastMsg struct {
	Level ToastLevel
	Text  string
}

// toastExpiredMsg removes a toast once its duration has passed.
type toastExpiredMsg struct {
	id uint64
}

// Notify returns a command that emits a ToastMsg.
func Notify(level ToastLevel, text string) tea.Cmd {
	return func() tea.Msg { return ToastMsg{Level: level, Text: text} }
}

// maxToasts bounds the stack; the oldest toast is dropped first.
const maxToasts = 3

// Notifier keeps the visible toasts. Every toast is also logged.
type Notifier struct {
	theme    Theme
	duration time.Duration // zero keeps toasts until replaced
	toasts   []Toast
	nextID   uint64
}

// NewNotifier creates a notifier whose toasts expire after duration.
func NewNotifier(theme Theme, duration time.Duration) *Notifier {
	return &Notifier{theme: theme, duration: duration}
}

// Push shows a toast and returns the command that expires it.
func (n *Notifier) Push(level ToastLevel, text string) tea.Cmd {
	switch level {
	case ToastError:
		log.Printf("error: %s", text)
	default:
		log.Printf("%s: %s", level, text)
	}

	n.nextID++
	id := n.nextID
	n.toasts = append(n.toasts, Toast{ID: id, Level: level, Text: text})
	if len(n.toasts) > maxToasts {
		n.toasts = n.toasts[len(n.toasts)-maxToasts:]
	}
	if n.duration <= 0 {
		return nil
	}
	return tea.Tick(n.duration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// Expire removes the toast with the given id.
func (n *Notifier) Expire(id uint64) {
	for i, t := range n.toasts {
		if t.ID == id {
			n.toasts = append(n.toasts[:i], n.toasts[i+1:]...)
			return
		}
	}
}

// Toasts returns the visible toasts, oldest first.
func (n *Notifier) Toasts() []Toast {
	return n.toasts
}

// Latest returns the newest toast, if any.
func (n *Notifier) Latest() (Toast, bool) {
	if len(n.toasts) == 0 {
		return Toast{}, false
	}
	return n.toasts[len(n.toasts)-1], true
}

// View renders the toasts one per line.
func (n *Notifier) View() string {
	if len(n.toasts) == 0 {
		return ""
	}
	r := n.theme.Renderer
	lines := make([]string, 0, len(n.toasts))
	for _, t := range n.toasts {
		color := n.theme.Highlight
		icon := "ℹ"
		switch t.Level {
		case ToastSuccess:
			color, icon = n.theme.Success, "✓"
		case ToastError:
			color, icon = n.theme.Danger, "✗"
		}
		lines = append(lines, r.NewStyle().Foreground(color).Render(icon+" "+t.Text))
	}
	return strings.Join(lines, "\n")
}
