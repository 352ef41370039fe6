package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/output"
	"github.com/marcus/svp/internal/planlist"
	"github.com/marcus/svp/pkg/monitor/mouse"
)

const (
	chevronGlyph = " \u25be " // ▾
	ellipsis     = "\u2026"   // …
	ruleGlyph    = "\u2500"   // ─
)

// lineBuilder assembles one screen line and registers hit regions at the
// columns where segments land.
type lineBuilder struct {
	sb   strings.Builder
	x, y int
	hits *mouse.HitMap
}

func newLine(y int, hits *mouse.HitMap) *lineBuilder {
	return &lineBuilder{y: y, hits: hits}
}

func (b *lineBuilder) add(s string) {
	b.sb.WriteString(s)
	b.x += ansi.StringWidth(s)
}

// region adds s and registers it as clickable under id
func (b *lineBuilder) region(id, s string) {
	if b.hits != nil {
		b.hits.AddRect(id, b.x, b.y, ansi.StringWidth(s), 1, nil)
	}
	b.add(s)
}

// padTo fills with spaces up to column col
func (b *lineBuilder) padTo(col int, style lipgloss.Style) {
	if col > b.x {
		b.add(style.Render(strings.Repeat(" ", col-b.x)))
	}
}

func (b *lineBuilder) String() string { return b.sb.String() }

// View renders the topmost layer
func (m Model) View() string {
	m.mouse.Clear()
	if m.Width == 0 {
		return "Loading..."
	}
	switch {
	case m.ActiveModal != nil:
		return m.ActiveModal.Render(m.Width, m.Height, m.mouse)
	case m.FormOpen && m.FormState != nil:
		return m.renderForm()
	case m.Finder != nil:
		return m.renderFinder()
	case m.Detail != nil:
		return m.renderDetail()
	}
	return m.renderList()
}

// renderList draws the plan list page with the dropdown on top
func (m Model) renderList() string {
	hits := m.mouse.HitMap
	g := m.Grid
	l := m.tableLayout()

	lines := []string{
		m.renderTitle(hits),
		m.renderBanner(hits),
		sortStyle.Render(output.SortBanner(g.Columns(), g.SortOrder())),
		m.renderHeader(hits, l),
		m.renderFilterRow(hits, l),
		mutedStyle.Render(strings.Repeat(ruleGlyph, max(l.width, 1))),
	}

	rows := g.Rows()
	end := min(len(rows), m.Scroll+m.bodyRows())
	for idx := m.Scroll; idx < end; idx++ {
		lines = append(lines, m.renderRow(hits, l, idx, rows[idx]))
	}
	if len(rows) == 0 {
		empty := "No plans to show"
		if !m.Loaded {
			empty = "Loading plans..."
		}
		lines = append(lines, mutedStyle.Render(empty))
	}
	for m.Height > 0 && len(lines) < m.Height-footerLines {
		lines = append(lines, "")
	}

	lines = append(lines, "")
	lines = append(lines, m.renderPager(hits, len(lines)))
	lines = append(lines, m.renderSelectionBar(hits, len(lines)))
	lines = append(lines, m.renderStatus())

	out := strings.Join(lines, "\n")
	if g.MenuOpen() {
		out = m.renderDropdown(hits, out)
	}
	return out
}

func (m Model) renderTitle(hits *mouse.HitMap) string {
	b := newLine(0, hits)
	b.add(titleStyle.Render("Site Visit Plans"))
	for _, n := range m.Nav {
		b.add("  ")
		b.region("nav:"+n.ID, navStyle.Render(n.Label))
	}
	if m.Username != "" {
		b.add(mutedStyle.Render("  \u00b7 " + m.Username)) // ·
	}
	if m.ViewOnly {
		b.add(mutedStyle.Render("  (view only)"))
	}
	return b.String()
}

// renderBanner shows the search banner while search filters narrow the
// list, with a button that clears them.
func (m Model) renderBanner(hits *mouse.HitMap) string {
	b := newLine(1, hits)
	if planlist.IsActive(m.Search) {
		b.add(bannerStyle.Render(planlist.FilterBanner))
		b.add("  ")
		b.region("clear-filters", primaryBtnStyle.Render(" Clear Filters "))
	}
	if name := m.activeSearchName(); name != "" {
		b.add(mutedStyle.Render("  Search: " + name))
	}
	return b.String()
}

func (m Model) activeSearchName() string {
	for _, s := range m.Searches {
		if s.ID == m.SearchID {
			return s.Name
		}
	}
	return ""
}

// pageCheckbox is the header checkbox state for the current page
func pageCheckbox(g *grid.Grid) string {
	switch {
	case g.AllOnPageSelected():
		return "[x]"
	case g.SomeOnPageSelected():
		return "[-]"
	default:
		return "[ ]"
	}
}

func (m Model) renderHeader(hits *mouse.HitMap, l tableLayout) string {
	g := m.Grid
	b := newLine(3, hits)
	if g.SelectionEnabled() {
		b.region("check:page", pageCheckbox(g))
	}
	order := g.SortOrder()
	for i, col := range g.Columns() {
		b.padTo(l.colX[i], lipgloss.NewStyle())
		style := headerStyle
		if i == m.ColCursor {
			style = headerFocus
		}
		text := style.Render(output.Cell(headerText(col, order), l.colW[i], m.Layout.IsCentered(i)))
		if col.IsSortable() {
			b.region("sort:"+col.Key, text)
		} else {
			b.add(text)
		}
	}
	b.padTo(l.actionX, lipgloss.NewStyle())
	b.add(headerStyle.Render(output.Cell("Action", l.actionW+chevronWidth, false)))
	return b.String()
}

func (m Model) renderFilterRow(hits *mouse.HitMap, l tableLayout) string {
	g := m.Grid
	b := newLine(4, hits)
	for i, col := range g.Columns() {
		b.padTo(l.colX[i], lipgloss.NewStyle())
		if !col.IsFilterable() {
			b.add(strings.Repeat(" ", l.colW[i]))
			continue
		}
		value := g.FilterValue(col.Key)
		var text string
		switch {
		case m.FilterOpen && m.FilterKey == col.Key:
			text = output.Cell(m.filterInput.View(), l.colW[i], false)
		case col.IsSelectFilter():
			if value == "" {
				value = grid.AllOption
			}
			text = filterValueStyle.Render(output.Cell(value+" \u25be", l.colW[i], false)) // ▾
		case value != "":
			text = filterValueStyle.Render(output.Cell(value, l.colW[i], false))
		default:
			text = filterLabelStyle.Render(output.Cell("filter", l.colW[i], false))
		}
		b.region("filter:"+col.Key, text)
	}
	return b.String()
}

// rowStyle is the base style of a body row
func (m Model) rowStyle(idx int) lipgloss.Style {
	switch {
	case idx == m.Cursor:
		return cursorRowStyle
	case m.Pulsing:
		return pulseRowStyle
	}
	return lipgloss.NewStyle()
}

func (m Model) renderRow(hits *mouse.HitMap, l tableLayout, idx int, row grid.Row) string {
	g := m.Grid
	y := m.rowY(idx)
	id := row.ID()
	base := m.rowStyle(idx)

	if hits != nil {
		hits.AddRect("row:"+strconv.Itoa(idx), 0, y, l.width, 1, nil)
	}
	b := newLine(y, hits)
	if g.SelectionEnabled() {
		box := "[ ]"
		if g.IsSelected(row) {
			box = "[x]"
		}
		b.region("check:"+id, base.Render(box))
	}
	for i, col := range g.Columns() {
		b.padTo(l.colX[i], base)
		style := base
		if col.Key == "status" {
			style = style.Foreground(statusColor(models.PlanStatus(row.Text(col.Key))))
		}
		b.add(style.Render(output.Cell(row.Text(col.Key), l.colW[i], m.Layout.IsCentered(i))))
	}
	b.padTo(l.actionX, base)

	btn := g.Primary(row)
	label := output.Cell(primaryText(btn), l.actionW, false)
	if btn.Disabled {
		b.region("primary:"+id, disabledStyle.Render(label))
	} else {
		b.region("primary:"+id, primaryBtnStyle.Render(label))
	}
	b.padTo(l.chevronX, base)
	b.region("chevron:"+id, chevronStyle.Render(chevronGlyph))
	return b.String()
}

func (m Model) renderPager(hits *mouse.HitMap, y int) string {
	g := m.Grid
	b := newLine(y, hits)
	b.region("page:prev", mutedStyle.Render("\u2039 Prev")) // ‹
	for _, it := range g.PageItems() {
		b.add(" ")
		if it.Ellipsis {
			b.add(mutedStyle.Render(ellipsis))
			continue
		}
		n := strconv.Itoa(it.Page)
		if it.Page == g.Page() {
			b.region("page:"+n, currentPage.Render("["+n+"]"))
		} else {
			b.region("page:"+n, n)
		}
	}
	b.add(" ")
	b.region("page:next", mutedStyle.Render("Next \u203a")) // ›
	b.add("   " + output.RangeSummary(g.Page(), g.PageSize(), g.Total()) + "   Rows: ")
	b.region("pagesize", filterValueStyle.Render(fmt.Sprintf("[%d \u25be]", g.PageSize()))) // ▾
	return b.String()
}

func (m Model) renderSelectionBar(hits *mouse.HitMap, y int) string {
	g := m.Grid
	if !g.SelectionEnabled() {
		return ""
	}
	b := newLine(y, hits)
	b.add(fmt.Sprintf("%d selected  ", g.SelectedCount()))
	b.region("sel:page", navStyle.Render("[Select page]"))
	b.add(" ")
	b.region("sel:all", navStyle.Render(fmt.Sprintf("[Select all %d]", g.Total())))
	if g.SelectedCount() > 0 {
		b.add(" ")
		b.region("unsel:page", navStyle.Render("[Unselect page]"))
		b.add(" ")
		b.region("unsel:all", navStyle.Render("[Unselect all]"))
	}
	return b.String()
}

func (m Model) renderStatus() string {
	switch {
	case m.StatusMessage != "" && m.StatusIsError:
		return statusErrorStyle.Render(m.StatusMessage)
	case m.StatusMessage != "":
		return statusOKStyle.Render(m.StatusMessage)
	case m.Err != nil && m.Retryable:
		return statusErrorStyle.Render(fmt.Sprintf("Server unreachable: %v (r to retry)", m.Err))
	case m.Err != nil:
		return statusErrorStyle.Render(m.Err.Error())
	}
	hint := "?: help  s: sort  f: filter  o: actions  p: search  /: find  q: quit"
	if !m.LastRefresh.IsZero() {
		hint += "  \u00b7 updated " + output.FormatTimeAgo(m.LastRefresh) // ·
	}
	return helpStyle.Render(hint)
}

// renderDropdown overlays the open action menu and registers its entries
// above every other region.
func (m Model) renderDropdown(hits *mouse.HitMap, base string) string {
	entries := m.menuEntries()
	rect := m.dropdownRect()
	inner := rect.W - 2

	lines := make([]string, len(entries))
	for i, e := range entries {
		switch e.Kind {
		case grid.MenuHeader:
			lines[i] = dropdownHeader.Render(output.Cell(e.Label, inner, false))
		case grid.MenuSeparator:
			lines[i] = mutedStyle.Render(strings.Repeat(ruleGlyph, inner))
		default:
			label := "  " + e.Action.Label
			if e.Action.IconRight != "" {
				label += " \u2197" // ↗
			}
			text := output.Cell(label, inner, false)
			switch {
			case e.Disabled:
				text = disabledStyle.Render(text)
			case i == m.MenuCursor || "menu:"+strconv.Itoa(i) == m.hoverID:
				text = dropdownHover.Render(text)
			}
			lines[i] = text
		}
	}
	box := dropdownStyle.Width(inner).Render(strings.Join(lines, "\n"))

	if hits != nil {
		hits.AddRect("dropdown", rect.X, rect.Y, rect.W, rect.H, nil)
		for i, e := range entries {
			if e.Kind == grid.MenuAction {
				hits.AddRect("menu:"+strconv.Itoa(i), rect.X+1, rect.Y+1+i, inner, 1, nil)
			}
		}
	}
	return overlay(base, box, rect.X, rect.Y)
}
