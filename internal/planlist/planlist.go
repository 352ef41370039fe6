// Package planlist holds the plan list page policy that sits around the
// generic grid: default layout, business rules for row actions, search
// parameters and where each row action leads.
package planlist

import (
	"slices"
	"strings"

	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
)

// Action ids understood by the plan list
const (
	ActionEdit   = "edit"
	ActionCancel = "cancel"
	ActionView   = "view"
)

// PlanCodeKey is the column that always leads the plan list
const PlanCodeKey = "plan_code"

// Text shown by hosts
const (
	FilterBanner        = "Search filters applied - showing filtered results"
	DisabledActionTitle = "Not available for completed plans"
	CancelTitle         = "Cancel Plan"
	CancelMessage       = "Are you sure you want to cancel this plan? The plan will be marked Canceled and kept for reference."
	CancelConfirmLabel  = "Cancel Plan"
	CancelKeepLabel     = "Keep Plan"
)

// StatusOptions are the choices of the status filter, led by the All sentinel
func StatusOptions() []string {
	opts := []string{grid.AllOption}
	for _, s := range models.AllStatuses {
		opts = append(opts, string(s))
	}
	return opts
}

// DefaultColumns is the layout used when the server config has none
func DefaultColumns() []grid.Column {
	return []grid.Column{
		{Key: PlanCodeKey, Label: "Plan Code"},
		{Key: "plan_for", Label: "Plan For"},
		{Key: "plan_period", Label: "Plan Period"},
		{Key: "plan_name", Label: "Plan Name"},
		{Key: "site_visits", Label: "Number of Site Visits"},
		{Key: "status", Label: "Status", FilterType: grid.FilterSelect, FilterOptions: StatusOptions()},
		{Key: "team_name", Label: "Team Name"},
		{Key: "needs_attention", Label: "Needs Attention"},
	}
}

// DefaultRowActions are the actions used when the server config has none
func DefaultRowActions() []grid.Action {
	return []grid.Action{
		{ID: ActionEdit, Label: "Edit Plan", IconLeft: "bi-pencil-square", Category: "Action"},
		{ID: ActionCancel, Label: "Cancel Plan", IconLeft: "bi-x-lg", Category: "Action", Separator: true},
		{ID: ActionView, Label: "View Plan", IconRight: "bi-box-arrow-up-right", Category: "View"},
	}
}

// DefaultSearchFields describe the search form
func DefaultSearchFields() []models.SearchField {
	return []models.SearchField{
		{Key: "planNameLike", Label: "Plan Name", Type: "text"},
		{Key: "planPeriod", Label: "Plan Period", Type: "text"},
		{Key: "statuses", Label: "Status", Type: "checkbox-group", Options: StatusOptions()},
		{Key: "programs", Label: "Programs", Type: "checkbox-group", Options: []string{grid.AllOption}, Filterable: true},
		{Key: "divisions", Label: "Divisions", Type: "checkbox-group", Options: []string{grid.AllOption}, Filterable: true},
	}
}

// DefaultSearchValues match every plan
func DefaultSearchValues() models.SearchValues {
	return models.SearchValues{
		PlanPeriod: grid.AllOption,
		Programs:   []string{grid.AllOption},
		Statuses:   []string{grid.AllOption},
		Divisions:  []string{grid.AllOption},
		SortMethod: "Grid",
	}
}

// DefaultGridConfig is stored by a fresh database
func DefaultGridConfig() *models.GridConfig {
	return &models.GridConfig{
		Columns:             DefaultColumns(),
		CenterAlignColumns:  []int{4, 7},
		RowActions:          DefaultRowActions(),
		SearchFields:        DefaultSearchFields(),
		DefaultSearchValues: DefaultSearchValues(),
	}
}

// Layout is the resolved grid layout of the plan list
type Layout struct {
	Columns     []grid.Column
	CenterAlign []int
	Actions     []grid.Action
}

// IsCentered reports whether column index i is center aligned
func (l Layout) IsCentered(i int) bool {
	return slices.Contains(l.CenterAlign, i)
}

// ResolveLayout falls back to the defaults for an empty config and makes
// sure the plan code column comes first. Center alignment indexes shift
// when a plan code column has to be inserted.
func ResolveLayout(cfg *models.GridConfig) Layout {
	var l Layout
	cols := DefaultColumns()
	if cfg != nil && len(cfg.Columns) > 0 {
		cols = slices.Clone(cfg.Columns)
	}
	var center []int
	if cfg != nil {
		center = slices.Clone(cfg.CenterAlignColumns)
	}
	if len(cols) == 0 || cols[0].Key != PlanCodeKey {
		cols = append([]grid.Column{{Key: PlanCodeKey, Label: "Plan Code"}}, cols...)
		for i := range center {
			center[i]++
		}
	}
	l.Columns = cols
	l.CenterAlign = center

	l.Actions = DefaultRowActions()
	if cfg != nil && len(cfg.RowActions) > 0 {
		l.Actions = slices.Clone(cfg.RowActions)
	}
	return l
}

// ActionDisabled disables editing and canceling completed plans
func ActionDisabled(a grid.Action, row grid.Row) bool {
	if strings.TrimSpace(row.Text("status")) != string(models.StatusComplete) {
		return false
	}
	return a.ID == ActionEdit || a.ID == ActionCancel
}

// ViewOnlyAction keeps only the view action, for read-only sessions
func ViewOnlyAction(a grid.Action, _ grid.Row) bool {
	return a.ID == ActionView
}

// GridOptions returns the grid options implementing the plan list rules
func GridOptions(l Layout, viewOnly bool) []grid.Option {
	actions := l.Actions
	if viewOnly {
		actions = slices.DeleteFunc(slices.Clone(actions), func(a grid.Action) bool {
			return !ViewOnlyAction(a, nil)
		})
	}
	opts := []grid.Option{
		grid.WithActions(actions...),
		grid.WithActionDisabled(ActionDisabled),
	}
	if viewOnly {
		opts = append(opts, grid.WithRowActionFilter(ViewOnlyAction), grid.WithFallbackLabel("View Plan"))
	}
	return opts
}

// RouteKind is what a row action does
type RouteKind int

const (
	RouteNone RouteKind = iota
	RouteOpen
	RouteView
	RouteConfirmCancel
)

// Route is the destination of a row action
type Route struct {
	Kind   RouteKind
	PlanID string
}

// Path returns the page path of open and view routes
func (r Route) Path() string {
	switch r.Kind {
	case RouteOpen:
		return "/svp/status/" + r.PlanID
	case RouteView:
		return "/svp/status/" + r.PlanID + "?view=true"
	}
	return ""
}

// RouteFor maps a row action to its destination
func RouteFor(a grid.Action, row grid.Row) Route {
	id := row.ID()
	switch a.ID {
	case ActionEdit:
		return Route{Kind: RouteOpen, PlanID: id}
	case ActionView:
		return Route{Kind: RouteView, PlanID: id}
	case ActionCancel:
		return Route{Kind: RouteConfirmCancel, PlanID: id}
	}
	return Route{Kind: RouteNone, PlanID: id}
}
