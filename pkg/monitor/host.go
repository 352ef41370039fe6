package monitor

import (
	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/planlist"
)

// invocation is a row action the grid handed back to the page
type invocation struct {
	action grid.Action
	row    grid.Row
}

// gridHost receives the grid's callbacks. The Model is copied on every
// update, so the callbacks record into this shared struct and the Model
// drains it after each event.
type gridHost struct {
	grid           *grid.Grid
	selection      grid.Selection
	invoked        []invocation
	clearRequested bool
}

func newGridHost() *gridHost {
	return &gridHost{selection: grid.Selection{}}
}

// options returns the callback options wired to h
func (h *gridHost) options() []grid.Option {
	return []grid.Option{
		grid.WithSelection(h.selection, h.setSelection, h.selectAll),
		grid.WithRowAction(h.rowAction),
		grid.WithClearFilters(h.clearFilters),
	}
}

// attach points h at a freshly built grid
func (h *gridHost) attach(g *grid.Grid) {
	h.grid = g
	g.SetSelection(h.selection)
}

func (h *gridHost) setSelection(next grid.Selection) {
	h.selection = next
	if h.grid != nil {
		h.grid.SetSelection(next)
	}
}

// selectAll answers the across-pages intent with every row that passes
// the current filters, on any page.
func (h *gridHost) selectAll(intent grid.SelectIntent) {
	next := grid.Selection{}
	if intent == grid.IntentSelect && h.grid != nil {
		for _, r := range h.grid.Visible() {
			next[r.ID()] = struct{}{}
		}
	}
	h.setSelection(next)
}

func (h *gridHost) rowAction(a grid.Action, row grid.Row) {
	h.invoked = append(h.invoked, invocation{action: a, row: row})
}

func (h *gridHost) clearFilters() {
	h.clearRequested = true
}

// drain returns and resets the recorded callbacks
func (h *gridHost) drain() (routes []planlist.Route, clear bool) {
	for _, inv := range h.invoked {
		routes = append(routes, planlist.RouteFor(inv.action, inv.row))
	}
	clear = h.clearRequested
	h.invoked = nil
	h.clearRequested = false
	return routes, clear
}
