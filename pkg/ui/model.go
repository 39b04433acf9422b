package ui

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/pedigree/pkg/config"
	"github.com/vanderheijden86/pedigree/pkg/export"
	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store"
)

// View identifies a screen of the root model.
type View int

const (
	ViewList View = iota
	ViewTree
	ViewOwners
	ViewForm
)

func (v View) String() string {
	switch v {
	case ViewTree:
		return "tree"
	case ViewOwners:
		return "owners"
	case ViewForm:
		return "form"
	default:
		return "list"
	}
}

// Options configures the root model.
type Options struct {
	DefaultGenerations    int
	MaxGenerations        int
	DateLayout            string // empty uses the locale
	SearchDebounce        time.Duration
	ToastDuration         time.Duration // zero keeps toasts until replaced
	KeepExpansionOnReload bool

	// InitialHorse, when set, opens that pedigree at start.
	InitialHorse string
	// Changes delivers external store changes, e.g. from the file watcher.
	Changes <-chan struct{}
}

// OptionsFromConfig maps the ui section of the config file.
func OptionsFromConfig(c config.UIConfig) Options {
	return Options{
		DefaultGenerations:    c.DefaultGenerations,
		MaxGenerations:        c.MaxGenerations,
		DateLayout:            c.DateLayout,
		SearchDebounce:        c.SearchDebounce,
		ToastDuration:         c.ToastDuration,
		KeepExpansionOnReload: c.KeepExpansionOnReload,
	}
}

// Model is the root bubbletea model. It switches between the horse list,
// the owner list, the create form and one pedigree view at a time.
type Model struct {
	ctx      context.Context
	store    store.RecordStore
	opts     Options
	theme    Theme
	dates    export.DateFormatter
	notifier *Notifier

	view     View
	list     HorseListModel
	owners   OwnerListModel
	form     *HorseFormModel
	treeView *TreeView

	initCmd tea.Cmd
	width   int
	height  int
}

// NewModel creates the root model. ctx bounds every store call it makes.
func NewModel(ctx context.Context, s store.RecordStore, opts Options) Model {
	if opts.DefaultGenerations < 1 {
		opts.DefaultGenerations = 1
	}
	if opts.MaxGenerations < opts.DefaultGenerations {
		opts.MaxGenerations = max(10, opts.DefaultGenerations)
	}
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	dates := export.NewDateFormatter(opts.DateLayout)

	m := Model{
		ctx:      ctx,
		store:    s,
		opts:     opts,
		theme:    theme,
		dates:    dates,
		notifier: NewNotifier(theme, opts.ToastDuration),
		view:     ViewList,
		list:     NewHorseListModel(ctx, s, theme, dates, opts.SearchDebounce),
		owners:   NewOwnerListModel(ctx, s, theme, opts.SearchDebounce),
	}
	cmds := []tea.Cmd{m.list.Refresh()}
	if opts.InitialHorse != "" {
		cmds = append(cmds, m.OpenTree(opts.InitialHorse, opts.DefaultGenerations))
	}
	m.initCmd = tea.Batch(cmds...)
	return m
}

// Init loads the horse list and starts listening for store changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.initCmd, WaitForChange(m.opts.Changes))
}

// CurrentView returns the active screen.
func (m Model) CurrentView() View { return m.view }

// TreeView returns the open pedigree view, nil outside ViewTree.
func (m Model) TreeView() *TreeView { return m.treeView }

// Notifier exposes the toasts.
func (m Model) Notifier() *Notifier { return m.notifier }

// HorseList exposes the horse list.
func (m Model) HorseList() *HorseListModel { return &m.list }

// OpenTree shows the pedigree named by idParam. A malformed id never
// reaches the store: it is reported and the list is shown instead.
func (m *Model) OpenTree(idParam string, generations int) tea.Cmd {
	id, err := model.ParseHorseID(idParam)
	if err != nil {
		log.Printf("warning: open tree %q: %v", idParam, err)
		m.showList()
		return m.notifier.Push(ToastError, "Invalid horse id given")
	}
	if generations < 1 {
		generations = m.opts.DefaultGenerations
	}
	m.closeTree()
	m.treeView = NewTreeView(m.ctx, m.store, id, m.theme, m.dates, TreeViewOptions{
		Generations:           generations,
		MaxGenerations:        m.opts.MaxGenerations,
		KeepExpansionOnReload: m.opts.KeepExpansionOnReload,
	})
	m.treeView.SetSize(m.width, m.bodyHeight())
	m.view = ViewTree
	return m.treeView.Init()
}

func (m *Model) closeTree() {
	if m.treeView != nil {
		m.treeView.Close()
		m.treeView = nil
	}
}

func (m *Model) showList() {
	m.closeTree()
	m.form = nil
	m.view = ViewList
}

func (m *Model) bodyHeight() int {
	return max(m.height-maxToasts, 1)
}

// Update routes messages to the active screen. Results addressed to a
// specific screen are routed by type whatever screen is active.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, m.bodyHeight())
		m.owners.SetSize(msg.Width, m.bodyHeight())
		if m.treeView != nil {
			m.treeView.SetSize(msg.Width, m.bodyHeight())
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if msg.String() == "q" && m.canQuit() {
			return m, tea.Quit
		}
		if msg.String() == "esc" && m.view == ViewForm {
			m.showList()
			return m, nil
		}

	case ToastMsg:
		return m, m.notifier.Push(msg.Level, msg.Text)

	case toastExpiredMsg:
		m.notifier.Expire(msg.id)
		return m, nil

	case NavigateMsg:
		return m, m.navigate(msg.To)

	case OpenTreeMsg:
		return m, m.OpenTree(strconv.FormatInt(msg.ID, 10), m.opts.DefaultGenerations)

	case ClipboardMsg:
		if msg.Err != nil {
			return m, m.notifier.Push(ToastError, "Could not copy to clipboard: "+msg.Err.Error())
		}
		return m, m.notifier.Push(ToastInfo, "Copied "+msg.Text)

	case HorseCreatedMsg:
		return m, m.handleCreated(msg)

	case DataChangedMsg:
		var cmds []tea.Cmd
		if m.treeView != nil {
			cmds = append(cmds, m.treeView.Update(msg))
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd, WaitForChange(m.opts.Changes))
		return m, tea.Batch(cmds...)

	case TreeLoadedMsg, HorseDeletedMsg, DeleteRequestedMsg:
		if m.treeView == nil {
			return m, nil
		}
		return m, m.treeView.Update(msg)

	case searchTickMsg:
		var cmd tea.Cmd
		if msg.kind == m.owners.search.kind {
			m.owners, cmd = m.owners.Update(msg)
		} else {
			m.list, cmd = m.list.Update(msg)
		}
		return m, cmd

	case horsesFoundMsg, listDeletedMsg:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case ownersFoundMsg:
		var cmd tea.Cmd
		m.owners, cmd = m.owners.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.view {
	case ViewTree:
		if m.treeView != nil {
			cmd = m.treeView.Update(msg)
		}
	case ViewOwners:
		m.owners, cmd = m.owners.Update(msg)
	case ViewForm:
		if m.form != nil {
			cmd = m.form.Update(msg)
		}
	default:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

// canQuit is false while a text field has focus.
func (m *Model) canQuit() bool {
	switch m.view {
	case ViewList:
		return !m.list.Searching()
	case ViewOwners:
		return !m.owners.Searching()
	case ViewTree:
		return m.treeView == nil || !m.treeView.Tree().DetailOpen()
	default:
		return false
	}
}

func (m *Model) navigate(to View) tea.Cmd {
	switch to {
	case ViewList:
		wasTree := m.view == ViewTree
		m.showList()
		if wasTree {
			return m.list.Refresh()
		}
		return nil
	case ViewOwners:
		m.closeTree()
		m.view = ViewOwners
		return m.owners.Refresh()
	case ViewForm:
		m.closeTree()
		m.form = NewHorseFormModel(m.ctx, m.store, HorseFormValues{})
		m.view = ViewForm
		return m.form.Init()
	}
	return nil
}

func (m *Model) handleCreated(msg HorseCreatedMsg) tea.Cmd {
	if msg.Err != nil {
		// Keep what was typed so it can be corrected.
		m.form = NewHorseFormModel(m.ctx, m.store, msg.Values)
		m.view = ViewForm
		return tea.Batch(
			m.notifier.Push(ToastError, "Could not create horse: "+describeError(msg.Err)),
			m.form.Init(),
		)
	}
	m.showList()
	return tea.Batch(
		m.notifier.Push(ToastSuccess, fmt.Sprintf("Created %s (#%d)", msg.Horse.Name, msg.Horse.ID)),
		m.list.Refresh(),
	)
}

// View renders the active screen above the toasts.
func (m Model) View() string {
	var body string
	switch m.view {
	case ViewTree:
		if m.treeView != nil {
			body = m.treeView.View()
		}
	case ViewOwners:
		body = m.owners.View()
	case ViewForm:
		if m.form != nil {
			body = m.theme.Header.Render("New horse") + "\n" + m.form.View()
		}
	default:
		body = m.list.View()
	}
	if toasts := m.notifier.View(); toasts != "" {
		return lipgloss.JoinVertical(lipgloss.Left, body, toasts)
	}
	return body
}
