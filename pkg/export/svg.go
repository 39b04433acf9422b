package export

import (
	"bytes"
	"fmt"
	"io"
	"os"

	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/pedigree/pkg/model"
)

// Chart geometry in SVG user units.
const (
	chartColumnWidth = 220
	chartBoxWidth    = 180
	chartBoxHeight   = 44
	chartRowHeight   = 56
	chartMargin      = 20
)

const (
	chartFemaleFill = "fill:#fde2ef;stroke:#c2185b;stroke-width:1.5"
	chartMaleFill   = "fill:#e3efff;stroke:#1565c0;stroke-width:1.5"
	chartLineStyle  = "stroke:#888;stroke-width:1.2;fill:none"
	chartNameStyle  = "font-family:sans-serif;font-size:14px;font-weight:bold;fill:#222"
	chartDateStyle  = "font-family:sans-serif;font-size:11px;fill:#555"
)

// chartSlot places one node: column is its generation (0 = root), row the
// vertical centre in row units.
type chartSlot struct {
	node   *model.TreeNode
	column int
	center float64
	parent *chartSlot
}

// layoutChart arranges the tree as a classic left-to-right pedigree chart.
// Every generation g gets 2^g equal slots, so a missing ancestor leaves a gap
// rather than shifting its relatives.
func layoutChart(tree *model.TreeNode) (slots []*chartSlot, rows int) {
	depth := tree.Depth()
	rows = 1 << (depth - 1)
	var place func(n *model.TreeNode, column, index int, parent *chartSlot)
	place = func(n *model.TreeNode, column, index int, parent *chartSlot) {
		if n == nil {
			return
		}
		span := float64(rows) / float64(int(1)<<column)
		s := &chartSlot{node: n, column: column, center: span*float64(index) + span/2, parent: parent}
		slots = append(slots, s)
		place(n.Father, column+1, index*2, s)
		place(n.Mother, column+1, index*2+1, s)
	}
	place(tree, 0, 0, nil)
	return slots, rows
}

// WriteSVG draws the pedigree chart to w.
func WriteSVG(w io.Writer, tree *model.TreeNode, dates DateFormatter) error {
	if tree == nil {
		return fmt.Errorf("write svg: empty tree")
	}
	slots, rows := layoutChart(tree)
	width := chartMargin*2 + (tree.Depth()-1)*chartColumnWidth + chartBoxWidth
	height := chartMargin*2 + rows*chartRowHeight

	boxX := func(s *chartSlot) int { return chartMargin + s.column*chartColumnWidth }
	centerY := func(s *chartSlot) int { return chartMargin + int(s.center*chartRowHeight) }

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Title("Pedigree of " + tree.Name)

	canvas.Gid("links")
	for _, s := range slots {
		if s.parent == nil {
			continue
		}
		x1 := boxX(s.parent) + chartBoxWidth
		y1 := centerY(s.parent)
		x2 := boxX(s)
		y2 := centerY(s)
		mid := (x1 + x2) / 2
		canvas.Polyline([]int{x1, mid, mid, x2}, []int{y1, y1, y2, y2}, chartLineStyle)
	}
	canvas.Gend()

	canvas.Gid("horses")
	for _, s := range slots {
		x := boxX(s)
		y := centerY(s) - chartBoxHeight/2
		fill := chartMaleFill
		if s.node.Sex == model.SexFemale {
			fill = chartFemaleFill
		}
		canvas.Roundrect(x, y, chartBoxWidth, chartBoxHeight, 6, 6, fill)
		canvas.Text(x+10, y+19, SexIcon(s.node.Sex)+" "+s.node.Name, chartNameStyle)
		canvas.Text(x+10, y+35, fmt.Sprintf("#%d · %s", s.node.ID, dates.Format(s.node.DateOfBirth)), chartDateStyle)
	}
	canvas.Gend()

	canvas.End()
	return nil
}

// SaveSVGToFile writes the chart to filename.
func SaveSVGToFile(tree *model.TreeNode, dates DateFormatter, filename string) error {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, tree, dates); err != nil {
		return err
	}
	return os.WriteFile(filename, buf.Bytes(), 0644)
}
