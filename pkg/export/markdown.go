// Package export renders pedigrees for use outside the TUI: Markdown
// reports, SVG charts and plain-text trees.
package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vanderheijden86/pedigree/pkg/model"
)

// SexIcon returns the display glyph for a sex.
func SexIcon(s model.Sex) string {
	if s == model.SexFemale {
		return "♀"
	}
	return "♂"
}

// ParentRole pairs a present parent with its role relative to the child.
type ParentRole struct {
	Node *model.TreeNode
	Role string
}

// ParentRoles returns the present parents of n, sire first. The role comes
// from the position, not the parent's recorded sex.
func ParentRoles(n *model.TreeNode) []ParentRole {
	var out []ParentRole
	if n.Father != nil {
		out = append(out, ParentRole{Node: n.Father, Role: "sire"})
	}
	if n.Mother != nil {
		out = append(out, ParentRole{Node: n.Mother, Role: "dam"})
	}
	return out
}

// escapeMarkdown neutralizes characters that would turn a horse name into
// markup.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "#", `\#`)
	return r.Replace(s)
}

// GenerateMarkdown creates a pedigree report: a summary header followed by
// the ancestry as a nested list, father before mother.
func GenerateMarkdown(tree *model.TreeNode, dates DateFormatter, generated time.Time) (string, error) {
	if tree == nil {
		return "", fmt.Errorf("generate markdown: empty tree")
	}
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Pedigree of %s\n\n", escapeMarkdown(tree.Name)))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", generated.Format(time.RFC1123)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Horses**: %d\n", tree.Count()))
	sb.WriteString(fmt.Sprintf("- **Generations shown**: %d\n\n", tree.Depth()))

	sb.WriteString("## Ancestry\n\n")
	writeMarkdownNode(&sb, tree, dates, "", 0)
	sb.WriteString("\n")
	return sb.String(), nil
}

func writeMarkdownNode(sb *strings.Builder, n *model.TreeNode, dates DateFormatter, role string, indent int) {
	sb.WriteString(strings.Repeat("  ", indent))
	sb.WriteString("- ")
	if role != "" {
		sb.WriteString("_" + role + "_: ")
	}
	sb.WriteString(fmt.Sprintf("%s **%s** (#%d), born %s\n",
		SexIcon(n.Sex), escapeMarkdown(n.Name), n.ID, dates.Format(n.DateOfBirth)))
	for _, p := range ParentRoles(n) {
		writeMarkdownNode(sb, p.Node, dates, p.Role, indent+1)
	}
}

// NodeMarkdown describes a single tree node, used by the detail pane.
func NodeMarkdown(n *model.TreeNode, dates DateFormatter) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s %s\n\n", SexIcon(n.Sex), escapeMarkdown(n.Name)))
	sb.WriteString("| Field | Value |\n|---|---|\n")
	sb.WriteString(fmt.Sprintf("| ID | %d |\n", n.ID))
	sb.WriteString(fmt.Sprintf("| Sex | %s |\n", n.Sex))
	sb.WriteString(fmt.Sprintf("| Born | %s |\n", dates.Format(n.DateOfBirth)))

	parent := func(label string, p *model.TreeNode) {
		if p == nil {
			sb.WriteString(fmt.Sprintf("| %s | not shown |\n", label))
			return
		}
		sb.WriteString(fmt.Sprintf("| %s | %s (#%d) |\n", label, escapeMarkdown(p.Name), p.ID))
	}
	parent("Sire", n.Father)
	parent("Dam", n.Mother)
	sb.WriteString("\n")
	return sb.String()
}

// SaveMarkdownToFile writes the generated markdown to a file
func SaveMarkdownToFile(tree *model.TreeNode, dates DateFormatter, filename string) error {
	content, err := GenerateMarkdown(tree, dates, time.Now())
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(content), 0644)
}
