package store

import (
	"fmt"

	"github.com/vanderheijden86/pedigree/pkg/model"
)

// AssembleTree links flat ancestor rows into a pedigree rooted at rootID.
//
// Rows may arrive in any order and may contain duplicates (pedigree collapse
// yields the same ancestor through several paths). Nodes deeper than
// generations are not emitted, and an id already on the path from the root
// is treated as absent so corrupt data can never produce a cycle.
func AssembleTree(rootID int64, rows []model.Horse, generations int) (*model.TreeNode, error) {
	if generations < 1 {
		return nil, fmt.Errorf("assemble tree: generations must be at least 1, got %d", generations)
	}
	byID := make(map[int64]model.Horse, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	if _, ok := byID[rootID]; !ok {
		return nil, fmt.Errorf("assemble tree: root %d missing from rows", rootID)
	}

	onPath := make(map[int64]bool)
	var build func(id int64, level int) *model.TreeNode
	build = func(id int64, level int) *model.TreeNode {
		row, ok := byID[id]
		if !ok || onPath[id] {
			return nil
		}
		node := model.NodeFromHorse(row)
		if level >= generations {
			return node
		}
		onPath[id] = true
		if row.FatherID != nil {
			node.Father = build(*row.FatherID, level+1)
		}
		if row.MotherID != nil {
			node.Mother = build(*row.MotherID, level+1)
		}
		delete(onPath, id)
		return node
	}
	return build(rootID, 1), nil
}
