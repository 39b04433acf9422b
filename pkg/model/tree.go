package model

// TreeNode is one horse in a fetched pedigree together with its known
// ancestors. A tree returned by one fetch is read-only; reloading builds a
// new tree rather than patching this one.
//
// Father and Mother are nil when the ancestor is unknown or lies beyond the
// requested generation count. The two cases are not distinguished.
type TreeNode struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DateOfBirth Date      `json:"dateOfBirth"`
	Sex         Sex       `json:"sex"`
	Father      *TreeNode `json:"father,omitempty"`
	Mother      *TreeNode `json:"mother,omitempty"`
}

// NodeFromHorse copies the tree-relevant fields of h into a parentless node.
func NodeFromHorse(h Horse) *TreeNode {
	return &TreeNode{
		ID:          h.ID,
		Name:        h.Name,
		DateOfBirth: h.DateOfBirth,
		Sex:         h.Sex,
	}
}

// IsLeaf returns true when neither parent is present.
func (n *TreeNode) IsLeaf() bool {
	return n == nil || (n.Father == nil && n.Mother == nil)
}

// Parents returns the present parents, father first.
func (n *TreeNode) Parents() []*TreeNode {
	if n == nil {
		return nil
	}
	parents := make([]*TreeNode, 0, 2)
	if n.Father != nil {
		parents = append(parents, n.Father)
	}
	if n.Mother != nil {
		parents = append(parents, n.Mother)
	}
	return parents
}

// Walk visits n and its ancestors depth-first, father before mother. depth
// is 1 for n itself. Returning false from fn skips that node's ancestors.
func (n *TreeNode) Walk(fn func(node *TreeNode, depth int) bool) {
	n.walk(fn, 1)
}

func (n *TreeNode) walk(fn func(*TreeNode, int) bool, depth int) {
	if n == nil {
		return
	}
	if !fn(n, depth) {
		return
	}
	n.Father.walk(fn, depth+1)
	n.Mother.walk(fn, depth+1)
}

// Depth is the number of levels on the longest root-to-leaf path. A lone
// root has depth 1, a nil tree 0.
func (n *TreeNode) Depth() int {
	if n == nil {
		return 0
	}
	return 1 + max(n.Father.Depth(), n.Mother.Depth())
}

// Find returns the first node with the given id, or nil.
func (n *TreeNode) Find(id int64) *TreeNode {
	var found *TreeNode
	n.Walk(func(node *TreeNode, _ int) bool {
		if found != nil {
			return false
		}
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

// Contains reports whether any node in the tree has the given id.
func (n *TreeNode) Contains(id int64) bool {
	return n.Find(id) != nil
}

// IDs returns every node id in walk order. Pedigree collapse (the same
// ancestor on two lines) yields repeated ids.
func (n *TreeNode) IDs() []int64 {
	var ids []int64
	n.Walk(func(node *TreeNode, _ int) bool {
		ids = append(ids, node.ID)
		return true
	})
	return ids
}

// Count returns the number of nodes.
func (n *TreeNode) Count() int {
	count := 0
	n.Walk(func(*TreeNode, int) bool {
		count++
		return true
	})
	return count
}
