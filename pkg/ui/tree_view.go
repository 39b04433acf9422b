package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/pedigree/pkg/export"
	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store"
)

// NavigateMsg switches the root model to another view.
type NavigateMsg struct {
	To View
}

// Navigate returns a command that emits a NavigateMsg.
func Navigate(to View) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{To: to} }
}

// TreeView is the pedigree screen: it owns the loader, which is the only
// component allowed to call the store, and the renderer, which only emits
// events.
type TreeView struct {
	loader         *TreeLoader
	tree           PedigreeTreeModel
	keys           viewKeyMap
	help           help.Model
	theme          Theme
	keepExpansion  bool
	maxGenerations int
	width          int
	height         int
}

// TreeViewOptions configures a TreeView.
type TreeViewOptions struct {
	Generations           int
	MaxGenerations        int
	KeepExpansionOnReload bool
}

// NewTreeView creates the view for rootID. Call Init to start loading.
func NewTreeView(ctx context.Context, s store.RecordStore, rootID int64, theme Theme, dates export.DateFormatter, opts TreeViewOptions) *TreeView {
	if opts.MaxGenerations < 1 {
		opts.MaxGenerations = 10
	}
	gens := min(max(opts.Generations, 1), opts.MaxGenerations)
	return &TreeView{
		loader:         NewTreeLoader(ctx, s, rootID, gens),
		tree:           NewPedigreeTreeModel(theme, dates),
		keys:           defaultViewKeys(),
		help:           help.New(),
		theme:          theme,
		keepExpansion:  opts.KeepExpansionOnReload,
		maxGenerations: opts.MaxGenerations,
	}
}

// Init issues the first fetch.
func (v *TreeView) Init() tea.Cmd {
	return v.loader.Load()
}

// Loader exposes the coordinator.
func (v *TreeView) Loader() *TreeLoader { return v.loader }

// Tree exposes the renderer.
func (v *TreeView) Tree() *PedigreeTreeModel { return &v.tree }

// Close tears the view down.
func (v *TreeView) Close() { v.loader.Close() }

// SetSize leaves room for the header and footer.
func (v *TreeView) SetSize(width, height int) {
	v.width, v.height = width, height
	v.help.Width = width
	v.tree.SetSize(width, max(height-3, 1))
}

// Update handles loader results, delete requests and view keys, and passes
// the rest to the renderer.
func (v *TreeView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case TreeLoadedMsg:
		return v.handleLoaded(msg)
	case HorseDeletedMsg:
		return v.handleDeleted(msg)
	case DeleteRequestedMsg:
		return v.requestDelete(msg.NodeID)
	case DataChangedMsg:
		return v.loader.Reload()
	case tea.KeyMsg:
		if !v.tree.DetailOpen() {
			switch {
			case key.Matches(msg, v.keys.More):
				return v.loader.SetGenerations(min(v.loader.Generations()+1, v.maxGenerations))
			case key.Matches(msg, v.keys.Fewer):
				return v.loader.SetGenerations(max(v.loader.Generations()-1, 1))
			case key.Matches(msg, v.keys.Reload):
				return v.loader.Reload()
			case key.Matches(msg, v.keys.Back):
				return Navigate(ViewList)
			}
		}
	}
	var cmd tea.Cmd
	v.tree, cmd = v.tree.Update(msg)
	return cmd
}

func (v *TreeView) handleLoaded(msg TreeLoadedMsg) tea.Cmd {
	result, cmd := v.loader.HandleLoaded(msg)
	switch result {
	case ResultDisplayed:
		v.tree.SetTree(v.loader.Tree(), v.keepExpansion)
	case ResultFailed:
		err := v.loader.LastError()
		if errors.Is(err, model.ErrNotFound) {
			return tea.Batch(Notify(ToastError, "Could not find horse"), Navigate(ViewList))
		}
		return Notify(ToastError, "Could not load pedigree: "+describeError(err))
	}
	return cmd
}

func (v *TreeView) requestDelete(id int64) tea.Cmd {
	cmd, err := v.loader.Delete(id)
	if err != nil {
		return Notify(ToastError, "Cannot delete now: "+strings.TrimPrefix(err.Error(), ErrDeleteRejected.Error()+": "))
	}
	return cmd
}

func (v *TreeView) handleDeleted(msg HorseDeletedMsg) tea.Cmd {
	result, cmd := v.loader.HandleDeleted(msg)
	switch result {
	case DeleteFailed:
		return Notify(ToastError, fmt.Sprintf("Could not delete %s: %s", msg.Name, describeError(msg.Err)))
	case DeleteRootGone:
		return tea.Batch(Notify(ToastSuccess, fmt.Sprintf("Deleted %s", msg.Name)), Navigate(ViewList))
	case DeleteReloading:
		return tea.Batch(Notify(ToastSuccess, fmt.Sprintf("Deleted %s", msg.Name)), cmd)
	}
	return nil
}

// View renders header, tree and key help.
func (v *TreeView) View() string {
	header := v.theme.Header.Render(v.title())
	var body string
	switch v.loader.State() {
	case LoadIdle, LoadLoading:
		if v.loader.Tree() == nil {
			body = v.theme.MutedText.Render("Loading pedigree…")
		} else {
			body = v.tree.View()
		}
	case LoadError:
		body = v.theme.Renderer.NewStyle().Foreground(v.theme.Danger).
			Render("Could not load pedigree: " + describeError(v.loader.LastError()))
	default:
		body = v.tree.View()
	}
	if v.tree.DetailOpen() {
		return lipgloss.JoinVertical(lipgloss.Left, header, body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, v.help.View(v.keys))
}

func (v *TreeView) title() string {
	name := fmt.Sprintf("horse #%d", v.loader.RootID())
	if t := v.loader.Tree(); t != nil {
		name = t.Name
	}
	status := ""
	switch {
	case v.loader.Deleting():
		status = " · deleting…"
	case v.loader.State() == LoadLoading:
		status = " · loading…"
	}
	return fmt.Sprintf("Pedigree of %s · %d/%d generations%s",
		name, v.loader.Generations(), v.maxGenerations, status)
}

// describeError joins the user-facing messages of err.
func describeError(err error) string {
	if err == nil {
		return ""
	}
	return strings.Join(model.MessagesOf(err), "; ")
}
