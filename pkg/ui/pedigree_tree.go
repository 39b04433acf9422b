package ui

import (
	"fmt"
	"log"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/pedigree/pkg/export"
	"github.com/vanderheijden86/pedigree/pkg/model"
)

// DeleteRequestedMsg asks the owning tree view to delete a horse. The
// renderer never changes its own tree.
type DeleteRequestedMsg struct {
	NodeID int64
}

// ClipboardMsg reports the result of copying a horse reference.
type ClipboardMsg struct {
	Text string
	Err  error
}

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// treeRow is one visible line of the pedigree.
type treeRow struct {
	node   *model.TreeNode
	depth  int    // 1 for the root
	prefix string // branch characters before the indicator
	role   string // "sire" or "dam", empty for the root
	parent int    // index of the child row this ancestor belongs to, -1 for the root
}

// PedigreeTreeModel renders a fetched pedigree as an expandable tree. Only
// the rows of expanded nodes' ancestors are visible; navigation works on
// that flat list of visible rows.
type PedigreeTreeModel struct {
	theme    Theme
	dates    export.DateFormatter
	keys     treeKeyMap
	root     *model.TreeNode
	expanded ExpansionState
	rows     []treeRow
	cursor   int
	offset   int // index of the first visible row
	width    int
	height   int

	showDetail bool
	detail     viewport.Model
	renderer   *glamour.TermRenderer
	rendererW  int
}

// NewPedigreeTreeModel creates an empty tree.
func NewPedigreeTreeModel(theme Theme, dates export.DateFormatter) PedigreeTreeModel {
	return PedigreeTreeModel{
		theme:    theme,
		dates:    dates,
		keys:     defaultTreeKeys(),
		expanded: NewExpansionState(),
	}
}

// SetSize updates the available dimensions.
func (t *PedigreeTreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.detail.Width = width
	t.detail.Height = height
	t.ensureVisible()
}

// SetTree replaces the displayed pedigree. Expansion state is cleared
// unless keepExpansion is set, in which case ids missing from the new tree
// are dropped. The cursor stays on the same horse when it is still visible.
func (t *PedigreeTreeModel) SetTree(root *model.TreeNode, keepExpansion bool) {
	selected := t.SelectedID()
	t.root = root
	if keepExpansion {
		t.expanded.Retain(root)
	} else {
		t.expanded.Reset()
	}
	t.showDetail = false
	t.rebuildRows()
	if selected == 0 || !t.SelectByID(selected) {
		t.cursor = 0
	}
	t.ensureVisible()
}

// Root returns the displayed pedigree, nil before the first load.
func (t *PedigreeTreeModel) Root() *model.TreeNode {
	return t.root
}

// Expansion exposes the expansion state of the displayed tree.
func (t *PedigreeTreeModel) Expansion() ExpansionState {
	return t.expanded
}

// DetailOpen reports whether the detail pane is showing.
func (t *PedigreeTreeModel) DetailOpen() bool {
	return t.showDetail
}

// Update handles tree navigation keys.
func (t PedigreeTreeModel) Update(msg tea.Msg) (PedigreeTreeModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if t.showDetail {
			var cmd tea.Cmd
			t.detail, cmd = t.detail.Update(msg)
			return t, cmd
		}
		return t, nil
	}

	if t.showDetail {
		if key.Matches(keyMsg, t.keys.Close, t.keys.Detail) {
			t.showDetail = false
			return t, nil
		}
		var cmd tea.Cmd
		t.detail, cmd = t.detail.Update(msg)
		return t, cmd
	}

	switch {
	case key.Matches(keyMsg, t.keys.Down):
		t.MoveDown()
	case key.Matches(keyMsg, t.keys.Up):
		t.MoveUp()
	case key.Matches(keyMsg, t.keys.Top):
		t.JumpToTop()
	case key.Matches(keyMsg, t.keys.Bottom):
		t.JumpToBottom()
	case key.Matches(keyMsg, t.keys.Collapse):
		t.CollapseOrJumpToChild()
	case key.Matches(keyMsg, t.keys.Expand):
		t.ExpandOrMoveToParent()
	case key.Matches(keyMsg, t.keys.Toggle):
		t.ToggleExpand()
	case key.Matches(keyMsg, t.keys.ExpandAll):
		t.ExpandAll()
	case key.Matches(keyMsg, t.keys.CollapseAll):
		t.CollapseAll()
	case key.Matches(keyMsg, t.keys.Delete):
		return t, t.requestDelete()
	case key.Matches(keyMsg, t.keys.Detail):
		t.openDetail()
	case key.Matches(keyMsg, t.keys.Copy):
		return t, t.copySelected()
	}
	return t, nil
}

func (t *PedigreeTreeModel) requestDelete() tea.Cmd {
	node := t.SelectedNode()
	if node == nil {
		return nil
	}
	id := node.ID
	return func() tea.Msg { return DeleteRequestedMsg{NodeID: id} }
}

func (t *PedigreeTreeModel) copySelected() tea.Cmd {
	node := t.SelectedNode()
	if node == nil {
		return nil
	}
	text := fmt.Sprintf("%s (%d)", node.Name, node.ID)
	return func() tea.Msg {
		return ClipboardMsg{Text: text, Err: writeClipboard(text)}
	}
}

// openDetail renders the selected horse through glamour into the detail
// viewport.
func (t *PedigreeTreeModel) openDetail() {
	node := t.SelectedNode()
	if node == nil {
		return
	}
	md := export.NodeMarkdown(node, t.dates)
	content := md
	if r := t.markdownRenderer(); r != nil {
		if out, err := r.Render(md); err == nil {
			content = out
		} else {
			log.Printf("warning: rendering details of horse %d: %v", node.ID, err)
		}
	}
	w, h := t.width, t.height
	if w <= 0 {
		w = 80
	}
	if h <= 0 {
		h = 20
	}
	t.detail = viewport.New(w, h)
	t.detail.SetContent(content)
	t.showDetail = true
}

func (t *PedigreeTreeModel) markdownRenderer() *glamour.TermRenderer {
	wrap := t.width
	if wrap <= 0 {
		wrap = 80
	}
	if t.renderer != nil && t.rendererW == wrap {
		return t.renderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		log.Printf("warning: markdown renderer unavailable: %v", err)
		return nil
	}
	t.renderer, t.rendererW = r, wrap
	return r
}

// View renders the visible rows, or the detail pane when it is open.
func (t PedigreeTreeModel) View() string {
	if t.showDetail {
		return t.detail.View()
	}
	if t.root == nil || len(t.rows) == 0 {
		return t.theme.MutedText.Render("No pedigree loaded.")
	}

	start, end := t.visibleRange()
	var sb strings.Builder
	for i := start; i < end; i++ {
		line := t.renderRow(t.rows[i])
		if i == t.cursor {
			line = t.theme.Selected.Render("> ") + line
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// renderRow renders indicator, sex icon, role, name and birth date.
func (t *PedigreeTreeModel) renderRow(row treeRow) string {
	r := t.theme.Renderer
	n := row.node
	var sb strings.Builder

	if row.prefix != "" {
		sb.WriteString(t.theme.MutedText.Render(row.prefix))
	}
	sb.WriteString(r.NewStyle().Foreground(t.theme.Secondary).Render(t.indicator(n)))
	sb.WriteString(" ")
	sb.WriteString(r.NewStyle().Foreground(t.theme.SexColor(n.Sex)).Render(export.SexIcon(n.Sex)))
	sb.WriteString(" ")

	label := ""
	if row.role != "" {
		label = row.role + ": "
		sb.WriteString(t.theme.MutedText.Render(label))
	}

	born := t.dates.Format(n.DateOfBirth)
	name := n.Name
	if t.width > 0 {
		// "> " + prefix + indicator + icon + spacing + label + "  " + date
		fixed := 2 + runewidth.StringWidth(row.prefix) + 4 + runewidth.StringWidth(label) + 2 + runewidth.StringWidth(born)
		maxName := t.width - fixed
		if maxName < 8 {
			maxName = 8
		}
		name = runewidth.Truncate(name, maxName, "…")
	}
	sb.WriteString(r.NewStyle().Bold(row.depth == 1).Render(name))
	sb.WriteString("  ")
	sb.WriteString(t.theme.MutedText.Render(born))
	return sb.String()
}

// indicator returns the expand affordance for a node.
func (t *PedigreeTreeModel) indicator(n *model.TreeNode) string {
	if n.IsLeaf() {
		return "•"
	}
	if t.expanded.IsExpanded(n.ID) {
		return "▾"
	}
	return "▸"
}

// rebuildRows flattens the visible part of the tree.
func (t *PedigreeTreeModel) rebuildRows() {
	t.rows = t.rows[:0]
	if t.root != nil {
		t.appendVisible(t.root, 1, "", "", "", -1)
	}
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

func (t *PedigreeTreeModel) appendVisible(n *model.TreeNode, depth int, prefix, branch, role string, parent int) {
	idx := len(t.rows)
	t.rows = append(t.rows, treeRow{node: n, depth: depth, prefix: prefix + branch, role: role, parent: parent})
	if !t.expanded.IsExpanded(n.ID) {
		return
	}
	childPrefix := prefix
	switch branch {
	case export.BranchMid:
		childPrefix += export.BranchPipe
	case export.BranchLast:
		childPrefix += export.BranchNone
	}
	parents := export.ParentRoles(n)
	for i, p := range parents {
		b := export.BranchMid
		if i == len(parents)-1 {
			b = export.BranchLast
		}
		t.appendVisible(p.Node, depth+1, childPrefix, b, p.Role, idx)
	}
}

// visibleRange returns the half-open range of rows that fit the height.
func (t *PedigreeTreeModel) visibleRange() (start, end int) {
	if t.height <= 0 {
		return 0, len(t.rows)
	}
	start = t.offset
	end = start + t.height
	if end > len(t.rows) {
		end = len(t.rows)
		start = max(end-t.height, 0)
	}
	return start, end
}

func (t *PedigreeTreeModel) ensureVisible() {
	if t.height <= 0 {
		t.offset = 0
		return
	}
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+t.height {
		t.offset = t.cursor - t.height + 1
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

// SelectedNode returns the node under the cursor, or nil.
func (t *PedigreeTreeModel) SelectedNode() *model.TreeNode {
	if t.cursor >= 0 && t.cursor < len(t.rows) {
		return t.rows[t.cursor].node
	}
	return nil
}

// SelectedID returns the id under the cursor, or 0.
func (t *PedigreeTreeModel) SelectedID() int64 {
	if n := t.SelectedNode(); n != nil {
		return n.ID
	}
	return 0
}

// SelectByID moves the cursor to the first visible row of id.
func (t *PedigreeTreeModel) SelectByID(id int64) bool {
	for i, row := range t.rows {
		if row.node.ID == id {
			t.cursor = i
			t.ensureVisible()
			return true
		}
	}
	return false
}

// VisibleIDs returns the ids of the visible rows in display order.
func (t *PedigreeTreeModel) VisibleIDs() []int64 {
	ids := make([]int64, len(t.rows))
	for i, row := range t.rows {
		ids[i] = row.node.ID
	}
	return ids
}

// MoveDown moves the cursor down one row.
func (t *PedigreeTreeModel) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
		t.ensureVisible()
	}
}

// MoveUp moves the cursor up one row.
func (t *PedigreeTreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
		t.ensureVisible()
	}
}

// JumpToTop selects the root.
func (t *PedigreeTreeModel) JumpToTop() {
	t.cursor = 0
	t.ensureVisible()
}

// JumpToBottom selects the last visible row.
func (t *PedigreeTreeModel) JumpToBottom() {
	if len(t.rows) > 0 {
		t.cursor = len(t.rows) - 1
		t.ensureVisible()
	}
}

// ToggleExpand flips the selected node. Leaves have nothing to show, so
// toggling one does nothing.
func (t *PedigreeTreeModel) ToggleExpand() {
	node := t.SelectedNode()
	if node == nil || node.IsLeaf() {
		return
	}
	t.expanded.Toggle(node.ID)
	t.refresh(node.ID)
}

// refresh rebuilds the rows and keeps the cursor on id. Changing a horse
// that appears on several lines can move rows above the cursor.
func (t *PedigreeTreeModel) refresh(id int64) {
	t.rebuildRows()
	if t.SelectedID() != id {
		t.SelectByID(id)
	}
	t.ensureVisible()
}

// ExpandAll shows the whole fetched pedigree.
func (t *PedigreeTreeModel) ExpandAll() {
	selected := t.SelectedID()
	t.expanded.ExpandAll(t.root)
	t.rebuildRows()
	t.SelectByID(selected)
}

// CollapseAll hides everything but the root.
func (t *PedigreeTreeModel) CollapseAll() {
	t.expanded.CollapseAll()
	t.cursor = 0
	t.rebuildRows()
	t.ensureVisible()
}

// ExpandOrMoveToParent handles l / →: expand a collapsed node, or step to
// its first shown parent when already expanded.
func (t *PedigreeTreeModel) ExpandOrMoveToParent() {
	node := t.SelectedNode()
	if node == nil || node.IsLeaf() {
		return
	}
	if !t.expanded.IsExpanded(node.ID) {
		t.expanded.Set(node.ID, true)
		t.refresh(node.ID)
		return
	}
	if t.cursor+1 < len(t.rows) && t.rows[t.cursor+1].parent == t.cursor {
		t.cursor++
		t.ensureVisible()
	}
}

// CollapseOrJumpToChild handles h / ←: collapse an expanded node, or move
// back to the horse whose ancestor the selected row is.
func (t *PedigreeTreeModel) CollapseOrJumpToChild() {
	node := t.SelectedNode()
	if node == nil {
		return
	}
	if !node.IsLeaf() && t.expanded.IsExpanded(node.ID) {
		t.expanded.Set(node.ID, false)
		t.refresh(node.ID)
		return
	}
	if p := t.rows[t.cursor].parent; p >= 0 {
		t.cursor = p
		t.ensureVisible()
	}
}
