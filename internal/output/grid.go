package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/svp/internal/grid"
)

const (
	maxCellWidth = 32
	minCellWidth = 4
	colSep       = " | "
	ellipsis     = "\u2026"
)

// GridView configures RenderGrid.
type GridView struct {
	Width     int                // terminal width, 0 for unlimited
	Centered  func(col int) bool // center-aligned column indexes
	Selection bool               // show the checkbox column
	Actions   bool               // show the primary action column
	Banner    string             // shown above the table when filters are active
}

// SortMarker returns the header marker for key, e.g. "▲1" for the primary
// ascending sort. Unsorted keys get "".
func SortMarker(order grid.SortOrder, key string) string {
	e, i, ok := order.Entry(key)
	if !ok {
		return ""
	}
	arrow := "\u25b2" // ▲
	if e.Direction == grid.Desc {
		arrow = "\u25bc" // ▼
	}
	if len(order) == 1 {
		return arrow
	}
	return arrow + strconv.Itoa(i+1)
}

// SortBanner describes the active sort levels, primary first.
func SortBanner(cols []grid.Column, order grid.SortOrder) string {
	if len(order) == 0 {
		return ""
	}
	parts := make([]string, len(order))
	for i, e := range order {
		label := e.Key
		if col, ok := grid.FindColumn(cols, e.Key); ok {
			label = col.DisplayLabel()
		}
		parts[i] = fmt.Sprintf("%s (%s)", label, e.Direction)
	}
	return "Sorted by: " + strings.Join(parts, ", ")
}

// PageStrip renders the page items with the current page bracketed.
func PageStrip(items []grid.PageItem, current int) string {
	parts := make([]string, len(items))
	for i, it := range items {
		switch {
		case it.Ellipsis:
			parts[i] = ellipsis
		case it.Page == current:
			parts[i] = "[" + strconv.Itoa(it.Page) + "]"
		default:
			parts[i] = strconv.Itoa(it.Page)
		}
	}
	return strings.Join(parts, " ")
}

// RangeSummary returns "Showing a-b of n" for the current page.
func RangeSummary(page, pageSize, total int) string {
	if total == 0 {
		return "Showing 0 of 0"
	}
	start := (page-1)*pageSize + 1
	end := start + pageSize - 1
	if end > total {
		end = total
	}
	return fmt.Sprintf("Showing %d-%d of %d", start, end, total)
}

// FitWidths shrinks the widest columns until the row fits in width. Each
// column keeps at least minCellWidth.
func FitWidths(widths []int, width, overhead int) []int {
	out := append([]int(nil), widths...)
	if width <= 0 {
		return out
	}
	for {
		total := overhead
		widest := -1
		for i, w := range out {
			total += w
			if w > minCellWidth && (widest < 0 || w > out[widest]) {
				widest = i
			}
		}
		if total <= width || widest < 0 {
			return out
		}
		out[widest]--
	}
}

// Cell pads or truncates s to exactly w columns.
func Cell(s string, w int, center bool) string {
	s = ansi.Truncate(s, w, ellipsis)
	gap := w - ansi.StringWidth(s)
	if gap <= 0 {
		return s
	}
	if center {
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	}
	return s + strings.Repeat(" ", gap)
}

// PrimaryLabel renders the action button text for a row.
func PrimaryLabel(btn grid.PrimaryButton) string {
	if btn.Disabled {
		return "(" + btn.Label + ")"
	}
	return btn.Label + " \u25be" // ▾
}

// RenderGrid renders the current page of g as plain text.
func RenderGrid(g *grid.Grid, v GridView) string {
	cols := g.Columns()
	rows := g.Rows()
	order := g.SortOrder()

	headers := make([]string, len(cols))
	widths := make([]int, len(cols))
	for i, c := range cols {
		headers[i] = c.DisplayLabel()
		if m := SortMarker(order, c.Key); m != "" {
			headers[i] += " " + m
		}
		widths[i] = ansi.StringWidth(headers[i])
		for _, r := range rows {
			if w := ansi.StringWidth(r.Text(c.Key)); w > widths[i] {
				widths[i] = w
			}
		}
		if widths[i] > maxCellWidth {
			widths[i] = maxCellWidth
		}
	}

	var actions []string
	actionWidth := 0
	if v.Actions {
		actions = make([]string, len(rows))
		actionWidth = len("Action")
		for i, r := range rows {
			actions[i] = PrimaryLabel(g.Primary(r))
			if w := ansi.StringWidth(actions[i]); w > actionWidth {
				actionWidth = w
			}
		}
	}

	overhead := len(colSep) * (len(cols) - 1)
	if v.Selection {
		overhead += 3 + len(colSep)
	}
	if v.Actions {
		overhead += actionWidth + len(colSep)
	}
	widths = FitWidths(widths, v.Width, overhead)

	center := func(i int) bool { return v.Centered != nil && v.Centered(i) }
	line := func(check string, cells []string, action string) string {
		var parts []string
		if v.Selection {
			parts = append(parts, check)
		}
		for i, c := range cells {
			parts = append(parts, Cell(c, widths[i], center(i)))
		}
		if v.Actions {
			parts = append(parts, Cell(action, actionWidth, false))
		}
		return strings.TrimRight(strings.Join(parts, colSep), " ")
	}

	var sb strings.Builder
	if v.Banner != "" && g.HasActiveFilters() {
		sb.WriteString(v.Banner + "\n")
	}
	if b := SortBanner(cols, order); b != "" {
		sb.WriteString(b + "\n")
	}

	headCheck := "[ ]"
	if g.AllOnPageSelected() {
		headCheck = "[x]"
	}
	header := line(headCheck, headers, "Action")
	sb.WriteString(headerStyle.Render(header) + "\n")
	sb.WriteString(strings.Repeat("-", ansi.StringWidth(header)) + "\n")

	if len(rows) == 0 {
		sb.WriteString("No records found\n")
	}
	for i, r := range rows {
		check := "[ ]"
		if g.IsSelected(r) {
			check = "[x]"
		}
		cells := make([]string, len(cols))
		for j, c := range cols {
			cells[j] = r.Text(c.Key)
		}
		action := ""
		if v.Actions {
			action = actions[i]
		}
		sb.WriteString(line(check, cells, action) + "\n")
	}

	sb.WriteString("\n" + RangeSummary(g.Page(), g.PageSize(), g.Total()))
	sb.WriteString("  Page: " + PageStrip(g.PageItems(), g.Page()))
	sb.WriteString(fmt.Sprintf("  Size: %d\n", g.PageSize()))
	if v.Selection && g.SelectedCount() > 0 {
		sb.WriteString(fmt.Sprintf("%d selected\n", g.SelectedCount()))
	}
	return sb.String()
}
