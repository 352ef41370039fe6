package planlist

import (
	"slices"
	"testing"

	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
)

func TestResolveLayout(t *testing.T) {
	tests := []struct {
		name       string
		cfg        *models.GridConfig
		wantFirst  string
		wantLen    int
		wantCenter []int
	}{
		{"nil config", nil, PlanCodeKey, len(DefaultColumns()), nil},
		{
			"plan code prepended",
			&models.GridConfig{
				Columns:            []grid.Column{{Key: "plan_name"}, {Key: "status"}},
				CenterAlignColumns: []int{0, 1},
			},
			PlanCodeKey, 3, []int{1, 2},
		},
		{
			"plan code already first",
			&models.GridConfig{
				Columns:            []grid.Column{{Key: PlanCodeKey}, {Key: "status"}},
				CenterAlignColumns: []int{1},
			},
			PlanCodeKey, 2, []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ResolveLayout(tt.cfg)
			if l.Columns[0].Key != tt.wantFirst {
				t.Errorf("first column = %q, want %q", l.Columns[0].Key, tt.wantFirst)
			}
			if len(l.Columns) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(l.Columns), tt.wantLen)
			}
			if !slices.Equal(l.CenterAlign, tt.wantCenter) {
				t.Errorf("center = %v, want %v", l.CenterAlign, tt.wantCenter)
			}
			if len(l.Actions) == 0 {
				t.Error("expected default actions")
			}
		})
	}
}

func TestResolveLayoutDoesNotModifyConfig(t *testing.T) {
	cfg := &models.GridConfig{
		Columns:            []grid.Column{{Key: "status"}},
		CenterAlignColumns: []int{0},
	}
	ResolveLayout(cfg)
	if len(cfg.Columns) != 1 || cfg.CenterAlignColumns[0] != 0 {
		t.Errorf("config modified: %+v", cfg)
	}
}

func TestActionDisabled(t *testing.T) {
	edit := grid.Action{ID: ActionEdit}
	cancel := grid.Action{ID: ActionCancel}
	view := grid.Action{ID: ActionView}

	tests := []struct {
		status string
		action grid.Action
		want   bool
	}{
		{"Complete", edit, true},
		{" Complete ", cancel, true},
		{"Complete", view, false},
		{"In Progress", edit, false},
		{"complete", edit, false},
	}
	for _, tt := range tests {
		row := grid.Row{"id": "1", "status": tt.status}
		if got := ActionDisabled(tt.action, row); got != tt.want {
			t.Errorf("ActionDisabled(%s, %q) = %v, want %v", tt.action.ID, tt.status, got, tt.want)
		}
	}
}

func TestGridOptionsViewOnly(t *testing.T) {
	l := ResolveLayout(nil)
	g := grid.New(l.Columns, GridOptions(l, true)...)
	g.SetData([]grid.Row{{"id": "7", "plan_code": "PSV-000007", "status": "Complete"}})

	row := g.Visible()[0]
	menu := g.RowMenu(row)
	for _, e := range menu {
		if e.Kind == grid.MenuAction && e.Action.ID != ActionView {
			t.Errorf("unexpected action %q in view-only menu", e.Action.ID)
		}
	}
	p := g.Primary(row)
	if !p.HasAction || p.Action.ID != ActionView || p.Disabled {
		t.Errorf("primary = %+v", p)
	}
}

func TestGridOptionsCompletePlanFallsBack(t *testing.T) {
	l := ResolveLayout(nil)
	g := grid.New(l.Columns, GridOptions(l, false)...)
	g.SetData([]grid.Row{{"id": "1", "status": "Complete"}})

	// edit and cancel are disabled, so the button falls through to view
	p := g.Primary(g.Visible()[0])
	if p.Disabled || p.Action.ID != ActionView {
		t.Errorf("primary = %+v, want enabled view", p)
	}
}

func TestRouteFor(t *testing.T) {
	row := grid.Row{"id": 42}
	tests := []struct {
		action   string
		wantKind RouteKind
		wantPath string
	}{
		{ActionEdit, RouteOpen, "/svp/status/42"},
		{ActionView, RouteView, "/svp/status/42?view=true"},
		{ActionCancel, RouteConfirmCancel, ""},
		{"other", RouteNone, ""},
	}
	for _, tt := range tests {
		r := RouteFor(grid.Action{ID: tt.action}, row)
		if r.Kind != tt.wantKind || r.Path() != tt.wantPath || r.PlanID != "42" {
			t.Errorf("RouteFor(%s) = %+v path %q", tt.action, r, r.Path())
		}
	}
}

func TestDefaultGridConfigCentersCounts(t *testing.T) {
	cfg := DefaultGridConfig()
	l := ResolveLayout(cfg)
	for _, i := range l.CenterAlign {
		key := l.Columns[i].Key
		if key != "site_visits" && key != "needs_attention" {
			t.Errorf("column %d (%s) should not be centered", i, key)
		}
	}
}
