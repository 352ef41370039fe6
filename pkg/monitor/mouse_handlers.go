package monitor

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/pkg/monitor/mouse"
)

// handleMouse routes a mouse event to the topmost layer
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.ActiveModal != nil:
		return m.handleModalAction(m.ActiveModal.HandleMouse(msg, m.mouse))
	case m.FormOpen && m.FormState != nil:
		return m.updateForm(msg)
	case m.Finder != nil:
		return m, nil
	case m.Detail != nil:
		var cmd tea.Cmd
		m.Detail.Viewport, cmd = m.Detail.Viewport.Update(msg)
		return m, cmd
	}

	action := m.mouse.HandleMouse(msg)
	switch action.Type {
	case mouse.ActionScrollUp:
		m.scrollBy(-3)
	case mouse.ActionScrollDown:
		m.scrollBy(3)
	case mouse.ActionHover:
		m.hoverID = ""
		if action.Region != nil {
			m.hoverID = action.Region.ID
			if i, ok := strings.CutPrefix(action.Region.ID, "menu:"); ok {
				if n, err := strconv.Atoi(i); err == nil {
					m.MenuCursor = n
				}
			}
		}
	case mouse.ActionClick, mouse.ActionDoubleClick:
		// A click outside the open dropdown only closes it
		if m.Grid.HandleClick(action.X, action.Y, m.dropdownRect()) {
			return m, nil
		}
		if action.Region == nil {
			return m, nil
		}
		return m.handleClick(action.Region.ID, action.Type == mouse.ActionDoubleClick)
	}
	return m, nil
}

// handleClick acts on a click on region id of the plan list
func (m Model) handleClick(id string, double bool) (tea.Model, tea.Cmd) {
	g := m.Grid
	before := g.Generation()
	kind, arg, _ := strings.Cut(id, ":")

	switch kind {
	case "sort":
		g.Sort(arg)
	case "filter":
		for i, col := range g.Columns() {
			if col.Key == arg {
				m.ColCursor = i
			}
		}
		next, cmd := m.startFilter()
		return next, cmd
	case "check":
		if arg == "page" {
			if g.AllOnPageSelected() {
				g.UnselectPage()
			} else {
				g.SelectPage()
			}
			break
		}
		if idx := m.pageIndex(arg); idx >= 0 {
			row := g.Rows()[idx]
			g.ToggleRow(arg, !g.IsSelected(row))
		}
	case "row":
		idx, err := strconv.Atoi(arg)
		if err != nil {
			break
		}
		m.Cursor = idx
		m.clampCursor()
		if double {
			if row, ok := m.cursorRow(); ok {
				g.InvokePrimary(row)
			}
		}
	case "primary":
		if idx := m.pageIndex(arg); idx >= 0 {
			m.Cursor = idx
			g.InvokePrimary(g.Rows()[idx])
		}
	case "chevron":
		if idx := m.pageIndex(arg); idx >= 0 {
			m.Cursor = idx
			g.ToggleMenu(arg, m.chevronRect(idx))
			m.MenuCursor = firstAction(m.menuEntries(), 0, 1)
		}
	case "menu":
		entries := m.menuEntries()
		row, ok := g.MenuRow()
		if i, err := strconv.Atoi(arg); err == nil && ok && i < len(entries) && entries[i].Kind == grid.MenuAction {
			g.Invoke(entries[i].Action, row)
		}
	case "page":
		switch arg {
		case "prev":
			g.PrevPage()
		case "next":
			g.NextPage()
		default:
			if n, err := strconv.Atoi(arg); err == nil {
				g.SetPage(n)
			}
		}
		m.Cursor = 0
		m.clampCursor()
	case "pagesize":
		g.CyclePageSize()
		m.Cursor = 0
		m.clampCursor()
	case "sel":
		if arg == "all" {
			g.SelectAcrossPages()
		} else {
			g.SelectPage()
		}
	case "unsel":
		if arg == "all" {
			g.UnselectAcrossPages()
		} else {
			g.UnselectPage()
		}
	case "clear-filters":
		g.RequestClearFilters()
	case "nav":
		for _, n := range m.Nav {
			if n.ID == arg {
				cmd := m.setStatus(n.Label + ": " + n.Href)
				return m, cmd
			}
		}
	}

	pulse := m.afterGridChange(before)
	routed := m.processHost()
	return m, tea.Batch(pulse, routed)
}
