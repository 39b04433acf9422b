package ui

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/pedigree/pkg/export"
	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store"
)

// OpenTreeMsg asks the root model to show the pedigree of a horse.
type OpenTreeMsg struct {
	ID int64
}

// horsesFoundMsg carries one search result.
type horsesFoundMsg struct {
	seq    uint64
	horses []model.Horse
	err    error
}

// listDeletedMsg reports a delete issued from the list.
type listDeletedMsg struct {
	name string
	err  error
}

// horseItem adapts a horse to the bubbles list.
type horseItem struct {
	horse model.Horse
	dates export.DateFormatter
}

func (i horseItem) Title() string {
	return export.SexIcon(i.horse.Sex) + " " + i.horse.Name
}

func (i horseItem) Description() string {
	return fmt.Sprintf("#%d · born %s", i.horse.ID, i.dates.Format(i.horse.DateOfBirth))
}

func (i horseItem) FilterValue() string { return i.horse.Name }

// HorseListModel is the searchable horse list.
type HorseListModel struct {
	ctx      context.Context
	store    store.RecordStore
	theme    Theme
	dates    export.DateFormatter
	keys     listKeyMap
	help     help.Model
	list     list.Model
	input    textinput.Model
	search   debouncer
	loading  bool
	lastErr  string
	width    int
	height   int
	query    string
	searchOn bool
}

// NewHorseListModel creates the list. Call Refresh to load it.
func NewHorseListModel(ctx context.Context, s store.RecordStore, theme Theme, dates export.DateFormatter, debounce time.Duration) HorseListModel {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Horses"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return HorseListModel{
		ctx:    ctx,
		store:  s,
		theme:  theme,
		dates:  dates,
		keys:   defaultListKeys(),
		help:   help.New(),
		list:   l,
		input:  newSearchInput("name, sex:female, owner:anna, before:2015-01-01"),
		search: newDebouncer("horses", debounce),
	}
}

func newSearchInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = placeholder
	ti.CharLimit = 255
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// SetSize updates the list dimensions.
func (m *HorseListModel) SetSize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width
	m.input.Width = max(width-4, 10)
	m.list.SetSize(width, max(height-3, 1))
}

// Refresh reruns the current query without waiting for the debounce.
func (m *HorseListModel) Refresh() tea.Cmd {
	m.search.seq++
	return m.searchCmd(m.search.seq, m.query)
}

// Searching reports whether the search box has focus.
func (m *HorseListModel) Searching() bool { return m.searchOn }

// Items returns the listed horses.
func (m *HorseListModel) Items() []model.Horse {
	items := m.list.Items()
	out := make([]model.Horse, 0, len(items))
	for _, it := range items {
		out = append(out, it.(horseItem).horse)
	}
	return out
}

func (m *HorseListModel) searchCmd(seq uint64, query string) tea.Cmd {
	ctx, s := m.ctx, m.store
	m.loading = true
	return func() tea.Msg {
		search, err := ParseHorseQuery(query)
		if err != nil {
			return horsesFoundMsg{seq: seq, err: &model.Error{Op: "search", Kind: model.ErrInvalidInput, Messages: []string{err.Error()}}}
		}
		horses, err := s.SearchHorses(ctx, search)
		return horsesFoundMsg{seq: seq, horses: horses, err: err}
	}
}

// Update handles search input, result messages and list keys.
func (m HorseListModel) Update(msg tea.Msg) (HorseListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case searchTickMsg:
		if !m.search.Due(msg) {
			return m, nil
		}
		return m, m.searchCmd(msg.seq, msg.query)

	case horsesFoundMsg:
		if !m.search.Current(msg.seq) {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.lastErr = describeError(msg.err)
			log.Printf("warning: horse search %q: %v", m.query, msg.err)
			return m, nil
		}
		m.lastErr = ""
		items := make([]list.Item, len(msg.horses))
		for i, h := range msg.horses {
			items[i] = horseItem{horse: h, dates: m.dates}
		}
		return m, m.list.SetItems(items)

	case listDeletedMsg:
		if msg.err != nil {
			return m, Notify(ToastError, fmt.Sprintf("Could not delete %s: %s", msg.name, describeError(msg.err)))
		}
		return m, tea.Batch(Notify(ToastSuccess, "Deleted "+msg.name), m.Refresh())

	case DataChangedMsg:
		return m, m.Refresh()

	case tea.KeyMsg:
		if m.searchOn {
			return m.updateSearch(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Search):
			m.searchOn = true
			return m, m.input.Focus()
		case key.Matches(msg, m.keys.Open):
			if it, ok := m.list.SelectedItem().(horseItem); ok {
				id := it.horse.ID
				return m, func() tea.Msg { return OpenTreeMsg{ID: id} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			return m, m.deleteSelected()
		case key.Matches(msg, m.keys.New):
			return m, Navigate(ViewForm)
		case key.Matches(msg, m.keys.Owners):
			return m, Navigate(ViewOwners)
		case key.Matches(msg, m.keys.Reload):
			return m, m.Refresh()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m HorseListModel) updateSearch(msg tea.KeyMsg) (HorseListModel, tea.Cmd) {
	if key.Matches(msg, m.keys.Blur) {
		m.searchOn = false
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != m.query {
		m.query = v
		return m, tea.Batch(cmd, m.search.Schedule(v))
	}
	return m, cmd
}

func (m *HorseListModel) deleteSelected() tea.Cmd {
	it, ok := m.list.SelectedItem().(horseItem)
	if !ok {
		return nil
	}
	ctx, s, h := m.ctx, m.store, it.horse
	return func() tea.Msg {
		return listDeletedMsg{name: h.Name, err: s.DeleteHorse(ctx, h.ID)}
	}
}

// View renders the search box, list and key help.
func (m HorseListModel) View() string {
	parts := []string{m.input.View()}
	if m.loading {
		parts = append(parts, m.theme.MutedText.Render("Searching…"))
	}
	if m.lastErr != "" {
		parts = append(parts, m.theme.Renderer.NewStyle().Foreground(m.theme.Danger).Render(m.lastErr))
	}
	parts = append(parts, m.list.View(), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
