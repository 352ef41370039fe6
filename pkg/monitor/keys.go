package monitor

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/planlist"
)

// handleKey routes a key to the topmost layer
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch {
	case m.ActiveModal != nil:
		action, cmd := m.ActiveModal.HandleKey(msg)
		if action == "" {
			return m, cmd
		}
		next, cmd2 := m.handleModalAction(action)
		return next, tea.Batch(cmd, cmd2)
	case m.FormOpen && m.FormState != nil:
		return m.updateForm(msg)
	case m.Finder != nil:
		return m.handleFinderKey(msg)
	case m.Detail != nil:
		return m.handleDetailKey(msg)
	case m.FilterOpen:
		return m.handleFilterKey(msg)
	case m.Grid.MenuOpen():
		return m.handleMenuKey(msg)
	}
	return m.handleListKey(msg)
}

// handleListKey handles keys on the plan list itself
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g := m.Grid
	before := g.Generation()

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
		m.clampCursor()
	case "down", "j":
		m.Cursor++
		m.clampCursor()
	case "left", "h", "pgup":
		g.PrevPage()
		m.Cursor = 0
		m.clampCursor()
	case "right", "l", "pgdown":
		g.NextPage()
		m.Cursor = 0
		m.clampCursor()
	case "g", "home":
		g.FirstPage()
		m.Cursor = 0
		m.clampCursor()
	case "G", "end":
		g.LastPage()
		m.Cursor = 0
		m.clampCursor()
	case "tab":
		if n := len(g.Columns()); n > 0 {
			m.ColCursor = (m.ColCursor + 1) % n
		}
	case "shift+tab":
		if n := len(g.Columns()); n > 0 {
			m.ColCursor = (m.ColCursor - 1 + n) % n
		}

	case "s":
		if col, ok := m.currentColumn(); ok {
			g.Sort(col.Key)
		}
	case "S":
		g.ClearSort()
	case "f":
		return m.startFilter()
	case "F":
		g.ResetFilters()
	case "c":
		g.RequestClearFilters()

	case " ":
		if row, ok := m.cursorRow(); ok && g.SelectionEnabled() {
			g.ToggleRow(row.ID(), !g.IsSelected(row))
		}
	case "a":
		if g.AllOnPageSelected() {
			g.UnselectPage()
		} else {
			g.SelectPage()
		}
	case "A":
		if g.Total() > 0 && g.SelectedCount() >= g.Total() {
			g.UnselectAcrossPages()
		} else {
			g.SelectAcrossPages()
		}

	case "enter":
		if row, ok := m.cursorRow(); ok {
			g.InvokePrimary(row)
		}
	case "o":
		if row, ok := m.cursorRow(); ok {
			m.clampCursor()
			g.ToggleMenu(row.ID(), m.chevronRect(m.Cursor))
			m.MenuCursor = firstAction(m.menuEntries(), 0, 1)
		}
	case "x":
		if row, ok := m.cursorRow(); ok {
			m.invokeByID(planlist.ActionCancel, row)
		}
	case "z":
		g.CyclePageSize()
		m.Cursor = 0
		m.clampCursor()

	case "/":
		return m.openFinder()
	case "p":
		return m, m.fetchInitiateOptions(FormModeSearch)
	case "n":
		if m.ViewOnly {
			cmd := m.setStatus("View-only access")
			return m, cmd
		}
		return m, m.fetchInitiateOptions(FormModeInitiate)
	case "L":
		m.openSearchesModal()
	case "m":
		m.openMenuModal()
	case "?":
		m.openHelpModal()

	case "y":
		return m.copyCursorPlan()
	case "Y":
		return m.copySelectedPlans()
	case "r":
		return m, m.fetchData()
	}

	cmd := tea.Batch(m.afterGridChange(before), m.processHost())
	return m, cmd
}

// invokeByID runs the row action with id, when the grid offers it
func (m *Model) invokeByID(id string, row grid.Row) {
	for _, e := range m.Grid.RowMenu(row) {
		if e.Kind == grid.MenuAction && e.Action.ID == id {
			m.Grid.Invoke(e.Action, row)
			return
		}
	}
}

// firstAction returns the index of the next enabled action entry from
// start, moving by step. It returns -1 when there is none.
func firstAction(entries []grid.MenuEntry, start, step int) int {
	for i := start; i >= 0 && i < len(entries); i += step {
		if entries[i].Kind == grid.MenuAction {
			return i
		}
	}
	return -1
}

// handleMenuKey moves through and invokes the open dropdown
func (m Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.menuEntries()
	switch msg.String() {
	case "esc", "o", "q":
		m.Grid.CloseMenu()
	case "up", "k":
		if i := firstAction(entries, m.MenuCursor-1, -1); i >= 0 {
			m.MenuCursor = i
		}
	case "down", "j":
		if i := firstAction(entries, m.MenuCursor+1, 1); i >= 0 {
			m.MenuCursor = i
		}
	case "enter":
		row, ok := m.Grid.MenuRow()
		if ok && m.MenuCursor >= 0 && m.MenuCursor < len(entries) {
			m.Grid.Invoke(entries[m.MenuCursor].Action, row)
		}
		cmd := m.processHost()
		return m, cmd
	}
	return m, nil
}

// startFilter edits the filter of the current column. Select filters
// cycle through their options instead.
func (m Model) startFilter() (tea.Model, tea.Cmd) {
	col, ok := m.currentColumn()
	if !ok {
		return m, nil
	}
	if !col.IsFilterable() {
		cmd := m.setStatus(col.DisplayLabel() + " cannot be filtered")
		return m, cmd
	}
	if col.IsSelectFilter() {
		before := m.Grid.Generation()
		m.Grid.SetFilter(col.Key, nextOption(col.FilterOptions, m.Grid.FilterValue(col.Key)))
		cmd := m.afterGridChange(before)
		return m, cmd
	}

	m.FilterOpen = true
	m.FilterKey = col.Key
	m.filterInput.SetValue(m.Grid.FilterValue(col.Key))
	m.filterInput.CursorEnd()
	cmd := m.filterInput.Focus()
	return m, cmd
}

// nextOption returns the option after current, wrapping around. An unset
// filter counts as the All option.
func nextOption(options []string, current string) string {
	if len(options) == 0 {
		return ""
	}
	if current == "" {
		current = grid.AllOption
	}
	idx := slices.Index(options, current)
	return options[(idx+1)%len(options)]
}

// handleFilterKey edits the column filter, applying every keystroke
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", "tab":
		m.FilterOpen = false
		m.filterInput.Blur()
		return m, nil
	}
	before := m.Grid.Generation()
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if m.filterInput.Value() != m.Grid.FilterValue(m.FilterKey) {
		m.Grid.SetFilter(m.FilterKey, m.filterInput.Value())
	}
	pulse := m.afterGridChange(before)
	return m, tea.Batch(cmd, pulse)
}

// planByID finds a loaded plan
func (m Model) planByID(id string) (*models.Plan, bool) {
	for i := range m.Plans {
		if m.Plans[i].ID == id {
			return &m.Plans[i], true
		}
	}
	return nil, false
}

func (m Model) copyCursorPlan() (tea.Model, tea.Cmd) {
	row, ok := m.cursorRow()
	if !ok {
		return m, nil
	}
	plan, ok := m.planByID(row.ID())
	if !ok {
		return m, nil
	}
	if err := copyToClipboard(formatPlanAsMarkdown(plan)); err != nil {
		cmd := m.setError("Copy failed", err)
		return m, cmd
	}
	cmd := m.setStatus("Copied " + plan.Code)
	return m, cmd
}

// copySelectedPlans copies the selected plans in list order
func (m Model) copySelectedPlans() (tea.Model, tea.Cmd) {
	var plans []models.Plan
	for _, r := range m.Grid.Visible() {
		if !m.Grid.IsSelected(r) {
			continue
		}
		if p, ok := m.planByID(r.ID()); ok {
			plans = append(plans, *p)
		}
	}
	if len(plans) == 0 {
		cmd := m.setStatus("No plans selected")
		return m, cmd
	}
	if err := copyToClipboard(formatPlansAsMarkdown(plans)); err != nil {
		cmd := m.setError("Copy failed", err)
		return m, cmd
	}
	cmd := m.setStatus("Copied selected plans")
	return m, cmd
}
