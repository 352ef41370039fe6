package cmd

import (
	"fmt"
	"strings"
	"testing"

	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/planlist"
	"github.com/spf13/pflag"
)

func TestSortFlag(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    string
		wantErr bool
	}{
		{"single key", []string{"status"}, "status:asc", false},
		{"repeated flags", []string{"status:desc", "plan_name"}, "status:desc,plan_name:asc", false},
		{"comma list", []string{"status,plan_name:desc"}, "status:asc,plan_name:desc", false},
		{"bad direction", []string{"status:up"}, "", true},
		{"duplicate key", []string{"status", "status:desc"}, "", true},
		{"empty key", []string{":asc"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f sortFlag
			var err error
			for _, v := range tt.values {
				if err = f.Set(v); err != nil {
					break
				}
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && f.String() != tt.want {
				t.Errorf("String() = %q, want %q", f.String(), tt.want)
			}
		})
	}
}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    grid.Filters
		wantErr bool
	}{
		{"none", nil, grid.Filters{}, false},
		{"pairs", []string{"status=Complete", "plan_name=clinic"}, grid.Filters{"status": "Complete", "plan_name": "clinic"}, false},
		{"value with equals", []string{"plan_name=a=b"}, grid.Filters{"plan_name": "a=b"}, false},
		{"empty value", []string{"plan_name="}, grid.Filters{"plan_name": ""}, false},
		{"missing equals", []string{"status"}, nil, true},
		{"missing key", []string{"=x"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilters(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("filter %s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func testPlans(n int) []models.Plan {
	var plans []models.Plan
	for i := 1; i <= n; i++ {
		status := models.StatusInProgress
		if i%4 == 0 {
			status = models.StatusComplete
		}
		plans = append(plans, models.Plan{
			ID:      fmt.Sprint(i),
			Code:    models.FormatPlanCode(int64(i)),
			PlanFor: "Program - Ryan White",
			Period:  "FY-2026",
			Name:    fmt.Sprintf("Plan %02d", i),
			Status:  status,
		})
	}
	return plans
}

func TestBuildPlanGrid(t *testing.T) {
	cfg := planlist.DefaultGridConfig()
	tests := []struct {
		name      string
		q         listQuery
		wantTotal int
		wantRows  int
		wantFirst string
		wantPage  int
	}{
		{
			name:      "first page",
			q:         listQuery{},
			wantTotal: 20, wantRows: 15, wantFirst: "PSV-000001", wantPage: 1,
		},
		{
			name:      "second page",
			q:         listQuery{Page: 2},
			wantTotal: 20, wantRows: 5, wantFirst: "PSV-000016", wantPage: 2,
		},
		{
			name:      "page past the end clamps",
			q:         listQuery{Page: 9, PageSize: 10},
			wantTotal: 20, wantRows: 10, wantFirst: "PSV-000011", wantPage: 2,
		},
		{
			name:      "select filter",
			q:         listQuery{Filters: grid.Filters{"status": "Complete"}},
			wantTotal: 5, wantRows: 5, wantFirst: "PSV-000004", wantPage: 1,
		},
		{
			name:      "descending sort",
			q:         listQuery{Sort: grid.SortOrder{{Key: "plan_name", Direction: grid.Desc}}},
			wantTotal: 20, wantRows: 15, wantFirst: "PSV-000020", wantPage: 1,
		},
		{
			name: "search values",
			q: listQuery{Search: models.SearchValues{
				PlanNameLike: "Plan 1",
				PlanPeriod:   grid.AllOption,
				Programs:     []string{grid.AllOption},
				Statuses:     []string{grid.AllOption},
				Divisions:    []string{grid.AllOption},
			}},
			wantTotal: 10, wantRows: 10, wantFirst: "PSV-000010", wantPage: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, err := buildPlanGrid(testPlans(20), cfg, tt.q)
			if err != nil {
				t.Fatalf("buildPlanGrid: %v", err)
			}
			if g.Total() != tt.wantTotal {
				t.Errorf("total = %d, want %d", g.Total(), tt.wantTotal)
			}
			rows := g.Rows()
			if len(rows) != tt.wantRows {
				t.Fatalf("rows = %d, want %d", len(rows), tt.wantRows)
			}
			if got := rows[0].Text(planlist.PlanCodeKey); got != tt.wantFirst {
				t.Errorf("first row = %s, want %s", got, tt.wantFirst)
			}
			if g.Page() != tt.wantPage {
				t.Errorf("page = %d, want %d", g.Page(), tt.wantPage)
			}
		})
	}
}

func TestBuildPlanGridUnknownColumn(t *testing.T) {
	tests := []struct {
		name string
		q    listQuery
		want string
	}{
		{"filter", listQuery{Filters: grid.Filters{"stauts": "x"}}, `unknown column "stauts" in --filter (did you mean status?)`},
		{"sort", listQuery{Sort: grid.SortOrder{{Key: "plan_nmae"}}}, "did you mean plan_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := buildPlanGrid(testPlans(3), planlist.DefaultGridConfig(), tt.q)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestBuildPlanGridViewOnly(t *testing.T) {
	g, _, err := buildPlanGrid(testPlans(2), planlist.DefaultGridConfig(), listQuery{ViewOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Primary(g.Rows()[0]).Label; got != "View Plan" {
		t.Errorf("primary label = %q, want View Plan", got)
	}
}

func TestSearchFromFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addSearchFlags(fs)
	if err := fs.Parse([]string{"--search-name", "clinic", "--search-status", "In Progress,Complete", "--needs-attention"}); err != nil {
		t.Fatal(err)
	}

	got := searchFromFlags(fs, planlist.DefaultSearchValues())
	if got.PlanNameLike != "clinic" || !got.NeedsAttention {
		t.Errorf("got %+v", got)
	}
	if len(got.Statuses) != 2 || got.Statuses[1] != "Complete" {
		t.Errorf("statuses = %v", got.Statuses)
	}
	if len(got.Programs) != 1 || got.Programs[0] != grid.AllOption {
		t.Errorf("unset flags must keep the base values, programs = %v", got.Programs)
	}
}

func TestGridJSON(t *testing.T) {
	g, _, err := buildPlanGrid(testPlans(20), planlist.DefaultGridConfig(), listQuery{Page: 2})
	if err != nil {
		t.Fatal(err)
	}
	out := gridJSON(g)
	if out["total"] != 20 || out["page"] != 2 || out["total_pages"] != 2 {
		t.Errorf("unexpected paging: total=%v page=%v pages=%v", out["total"], out["page"], out["total_pages"])
	}
	if rows := out["rows"].([]grid.Row); len(rows) != 5 {
		t.Errorf("rows = %d, want 5", len(rows))
	}
	if order, ok := out["sort"].(grid.SortOrder); !ok || order == nil {
		t.Errorf("sort must encode as an empty list, got %#v", out["sort"])
	}
}
