package ui

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store"
)

type ownersFoundMsg struct {
	seq    uint64
	owners []model.Owner
	err    error
}

type ownerItem struct {
	owner model.Owner
}

func (i ownerItem) Title() string { return i.owner.FullName() }

func (i ownerItem) Description() string {
	if i.owner.Email == "" {
		return fmt.Sprintf("#%d", i.owner.ID)
	}
	return fmt.Sprintf("#%d · %s", i.owner.ID, i.owner.Email)
}

func (i ownerItem) FilterValue() string { return i.owner.FullName() }

// OwnerListModel lists owners matching a name search. It uses the same
// debounce discipline as the horse list.
type OwnerListModel struct {
	ctx      context.Context
	store    store.RecordStore
	theme    Theme
	keys     listKeyMap
	list     list.Model
	input    textinput.Model
	search   debouncer
	query    string
	searchOn bool
	lastErr  string
}

// NewOwnerListModel creates the owner list.
func NewOwnerListModel(ctx context.Context, s store.RecordStore, theme Theme, debounce time.Duration) OwnerListModel {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Owners"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return OwnerListModel{
		ctx:    ctx,
		store:  s,
		theme:  theme,
		keys:   defaultListKeys(),
		list:   l,
		input:  newSearchInput("owner name"),
		search: newDebouncer("owners", debounce),
	}
}

// SetSize updates the list dimensions.
func (m *OwnerListModel) SetSize(width, height int) {
	m.input.Width = max(width-4, 10)
	m.list.SetSize(width, max(height-2, 1))
}

// Refresh reruns the current query.
func (m *OwnerListModel) Refresh() tea.Cmd {
	m.search.seq++
	return m.searchCmd(m.search.seq, m.query)
}

func (m *OwnerListModel) searchCmd(seq uint64, query string) tea.Cmd {
	ctx, s := m.ctx, m.store
	return func() tea.Msg {
		owners, err := s.SearchOwners(ctx, query, 0)
		return ownersFoundMsg{seq: seq, owners: owners, err: err}
	}
}

// Owners returns the listed owners.
func (m *OwnerListModel) Owners() []model.Owner {
	items := m.list.Items()
	out := make([]model.Owner, 0, len(items))
	for _, it := range items {
		out = append(out, it.(ownerItem).owner)
	}
	return out
}

// Searching reports whether the search box has focus.
func (m *OwnerListModel) Searching() bool { return m.searchOn }

// Update handles search input and results.
func (m OwnerListModel) Update(msg tea.Msg) (OwnerListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case searchTickMsg:
		if !m.search.Due(msg) {
			return m, nil
		}
		return m, m.searchCmd(msg.seq, msg.query)

	case ownersFoundMsg:
		if !m.search.Current(msg.seq) {
			return m, nil
		}
		if msg.err != nil {
			m.lastErr = describeError(msg.err)
			log.Printf("warning: owner search %q: %v", m.query, msg.err)
			return m, nil
		}
		m.lastErr = ""
		items := make([]list.Item, len(msg.owners))
		for i, o := range msg.owners {
			items[i] = ownerItem{owner: o}
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		if m.searchOn {
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
		switch {
		case key.Matches(msg, m.keys.Search):
			m.searchOn = true
			return m, m.input.Focus()
		case key.Matches(msg, m.keys.Owners), msg.String() == "esc":
			return m, Navigate(ViewList)
		case key.Matches(msg, m.keys.Reload):
			return m, m.Refresh()
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the search box and list.
func (m OwnerListModel) View() string {
	parts := []string{m.input.View()}
	if m.lastErr != "" {
		parts = append(parts, m.theme.Renderer.NewStyle().Foreground(m.theme.Danger).Render(m.lastErr))
	}
	parts = append(parts, m.list.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
