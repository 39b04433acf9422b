package ui

import "github.com/vanderheijden86/pedigree/pkg/model"

// ExpansionState records which tree nodes are expanded, keyed by horse id.
// It is owned by one tree view and never stored with the tree itself.
// Absent ids are collapsed; only expanded ids are kept in the map.
//
// A horse that appears more than once in a pedigree shares one entry, so
// expanding it in one place expands it everywhere.
type ExpansionState map[int64]bool

// NewExpansionState returns an empty state with every node collapsed.
func NewExpansionState() ExpansionState {
	return make(ExpansionState)
}

// Toggle flips the state of id and returns the new state.
func (e ExpansionState) Toggle(id int64) bool {
	if e[id] {
		delete(e, id)
		return false
	}
	e[id] = true
	return true
}

// IsExpanded returns false for ids never expanded.
func (e ExpansionState) IsExpanded(id int64) bool {
	return e[id]
}

// Set stores an explicit state for id.
func (e ExpansionState) Set(id int64, expanded bool) {
	if expanded {
		e[id] = true
		return
	}
	delete(e, id)
}

// Reset collapses every node.
func (e ExpansionState) Reset() {
	clear(e)
}

// Len returns the number of expanded ids.
func (e ExpansionState) Len() int {
	return len(e)
}

// ExpandAll expands every node of root that has ancestors to show.
func (e ExpansionState) ExpandAll(root *model.TreeNode) {
	root.Walk(func(n *model.TreeNode, _ int) bool {
		if !n.IsLeaf() {
			e[n.ID] = true
		}
		return true
	})
}

// CollapseAll is Reset under the name the key binding uses.
func (e ExpansionState) CollapseAll() {
	e.Reset()
}

// Retain drops every id that no longer appears in root.
func (e ExpansionState) Retain(root *model.TreeNode) {
	for id := range e {
		if root == nil || !root.Contains(id) {
			delete(e, id)
		}
	}
}
