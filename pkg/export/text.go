package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/vanderheijden86/pedigree/pkg/model"
)

// Branch prefixes shared with the TUI renderer.
const (
	BranchMid  = "├── "
	BranchLast = "└── "
	BranchPipe = "│   "
	BranchNone = "    "
)

// WriteText prints the whole tree, fully expanded, with box-drawing
// branches. Used when stdout is not a terminal.
func WriteText(w io.Writer, tree *model.TreeNode, dates DateFormatter) error {
	if tree == nil {
		return fmt.Errorf("write text: empty tree")
	}
	var sb strings.Builder
	writeTextNode(&sb, tree, dates, "", "", "")
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeTextNode(sb *strings.Builder, n *model.TreeNode, dates DateFormatter, prefix, branch, role string) {
	sb.WriteString(prefix)
	sb.WriteString(branch)
	if role != "" {
		sb.WriteString(role + ": ")
	}
	fmt.Fprintf(sb, "%s %s  %s  #%d\n", SexIcon(n.Sex), n.Name, dates.Format(n.DateOfBirth), n.ID)

	childPrefix := prefix
	switch branch {
	case BranchMid:
		childPrefix += BranchPipe
	case BranchLast:
		childPrefix += BranchNone
	}
	parents := ParentRoles(n)
	for i, p := range parents {
		b := BranchMid
		if i == len(parents)-1 {
			b = BranchLast
		}
		writeTextNode(sb, p.Node, dates, childPrefix, b, p.Role)
	}
}
