package monitor

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/output"
)

// Screen rows above the table body: title, banner, sort banner, column
// headers, filter row, rule.
const bodyTop = 6

// Screen rows below the body: gap, pager, selection bar, status line.
const footerLines = 4

const (
	cellSep      = "  "
	checkWidth   = 3
	chevronWidth = 3
	maxColWidth  = 32
)

// terminalAnchor opens the dropdown directly under the chevron, shifted
// left so it lines up with the action button.
var terminalAnchor = grid.Anchor{OffsetX: 12, GapY: 0}

// tableLayout is the horizontal geometry of the table for the current page
type tableLayout struct {
	colX     []int
	colW     []int
	actionX  int
	actionW  int
	chevronX int
	width    int
}

// headerText is a column label with its sort marker
func headerText(c grid.Column, order grid.SortOrder) string {
	label := c.DisplayLabel()
	if marker := output.SortMarker(order, c.Key); marker != "" {
		label += " " + marker
	}
	return label
}

// primaryText renders the primary button
func primaryText(btn grid.PrimaryButton) string {
	if btn.Disabled {
		return "(" + btn.Label + ")"
	}
	return "[" + btn.Label + "]"
}

// tableLayout sizes columns to the widest value on the current page and
// shrinks them to fit the terminal.
func (m Model) tableLayout() tableLayout {
	cols := m.Grid.Columns()
	rows := m.Grid.Rows()
	order := m.Grid.SortOrder()

	widths := make([]int, len(cols))
	for i, c := range cols {
		w := ansi.StringWidth(headerText(c, order))
		for _, r := range rows {
			w = max(w, ansi.StringWidth(r.Text(c.Key)))
		}
		widths[i] = min(w, maxColWidth)
	}

	actionW := len("Action")
	for _, r := range rows {
		actionW = max(actionW, ansi.StringWidth(primaryText(m.Grid.Primary(r))))
	}

	overhead := checkWidth + len(cellSep)*(len(cols)+1) + actionW + chevronWidth
	widths = output.FitWidths(widths, m.Width, overhead)

	l := tableLayout{colX: make([]int, len(cols)), colW: widths, actionW: actionW}
	x := checkWidth + len(cellSep)
	for i, w := range widths {
		l.colX[i] = x
		x += w + len(cellSep)
	}
	l.actionX = x
	l.chevronX = x + actionW
	l.width = l.chevronX + chevronWidth
	return l
}

// bodyRows is how many table rows fit on screen
func (m Model) bodyRows() int {
	if m.Height <= 0 {
		return max(1, len(m.Grid.Rows()))
	}
	return max(1, m.Height-bodyTop-footerLines)
}

// rowY returns the screen row of page row idx
func (m Model) rowY(idx int) int {
	return bodyTop + idx - m.Scroll
}

// chevronRect is the trigger rectangle of the dropdown for page row idx
func (m Model) chevronRect(idx int) grid.Rect {
	l := m.tableLayout()
	return grid.Rect{X: l.chevronX, Y: m.rowY(idx), W: chevronWidth, H: 1}
}

// pageIndex returns the position of rowID on the current page
func (m Model) pageIndex(rowID string) int {
	for i, r := range m.Grid.Rows() {
		if r.ID() == rowID {
			return i
		}
	}
	return -1
}

// menuEntries resolves the open dropdown
func (m Model) menuEntries() []grid.MenuEntry {
	row, ok := m.Grid.MenuRow()
	if !ok {
		return nil
	}
	return m.Grid.RowMenu(row)
}

// dropdownSize returns the outer size of the dropdown box
func dropdownSize(entries []grid.MenuEntry) (int, int) {
	inner := 12
	for _, e := range entries {
		inner = max(inner, ansi.StringWidth(e.Label)+2, ansi.StringWidth(e.Action.Label)+4)
	}
	return inner + 2, len(entries) + 2
}

// dropdownRect is where the open dropdown is drawn, kept on screen. A
// dropdown that would run off the bottom opens above its trigger.
func (m Model) dropdownRect() grid.Rect {
	w, h := dropdownSize(m.menuEntries())
	pos := m.Grid.MenuPosition()
	x, y := pos.X, pos.Y
	if m.Width > 0 {
		x = min(x, m.Width-w)
	}
	x = max(0, x)
	if m.Height > 0 && y+h > m.Height {
		triggerY := y - terminalAnchor.GapY - 1
		y = max(0, triggerY-h)
	}
	return grid.Rect{X: x, Y: y, W: w, H: h}
}

// overlay draws box over base with its top-left corner at (x, y)
func overlay(base, box string, x, y int) string {
	lines := strings.Split(base, "\n")
	for i, boxLine := range strings.Split(box, "\n") {
		row := y + i
		if row < 0 {
			continue
		}
		for len(lines) <= row {
			lines = append(lines, "")
		}
		line := lines[row]
		lineW := ansi.StringWidth(line)
		left := ansi.Cut(line, 0, x)
		if gap := x - ansi.StringWidth(left); gap > 0 {
			left += strings.Repeat(" ", gap)
		}
		right := ansi.Cut(line, x+ansi.StringWidth(boxLine), lineW)
		lines[row] = left + boxLine + right
	}
	return strings.Join(lines, "\n")
}
