package output

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/svp/internal/grid"
)

func TestSortMarker(t *testing.T) {
	order := grid.SortOrder{{Key: "name", Direction: grid.Desc}, {Key: "amt", Direction: grid.Asc}}
	tests := []struct {
		order grid.SortOrder
		key   string
		want  string
	}{
		{order, "name", "▼1"},
		{order, "amt", "▲2"},
		{order, "id", ""},
		{order[:1], "name", "▼"},
		{nil, "name", ""},
	}
	for _, tt := range tests {
		if got := SortMarker(tt.order, tt.key); got != tt.want {
			t.Errorf("SortMarker(%v, %s) = %q, want %q", tt.order, tt.key, got, tt.want)
		}
	}
}

func TestPageStrip(t *testing.T) {
	got := PageStrip(grid.PageItems(10, 20), 10)
	want := "1 … 8 9 [10] 11 12 … 20"
	if got != want {
		t.Errorf("PageStrip = %q, want %q", got, want)
	}
}

func TestRangeSummary(t *testing.T) {
	tests := []struct {
		page, size, total int
		want              string
	}{
		{1, 15, 36, "Showing 1-15 of 36"},
		{3, 15, 36, "Showing 31-36 of 36"},
		{1, 15, 0, "Showing 0 of 0"},
	}
	for _, tt := range tests {
		if got := RangeSummary(tt.page, tt.size, tt.total); got != tt.want {
			t.Errorf("RangeSummary(%d,%d,%d) = %q, want %q", tt.page, tt.size, tt.total, got, tt.want)
		}
	}
}

func TestFitWidths(t *testing.T) {
	got := FitWidths([]int{20, 10, 5}, 30, 0)
	sum := 0
	for _, w := range got {
		sum += w
	}
	if sum != 30 {
		t.Errorf("FitWidths sum = %d (%v), want 30", sum, got)
	}
	if got[2] != 5 {
		t.Errorf("narrow column should not shrink first: %v", got)
	}

	floor := FitWidths([]int{10, 10}, 2, 0)
	if floor[0] != minCellWidth || floor[1] != minCellWidth {
		t.Errorf("columns should stop at the minimum width: %v", floor)
	}

	if got := FitWidths([]int{50}, 0, 0); got[0] != 50 {
		t.Errorf("zero width means unlimited: %v", got)
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		s      string
		w      int
		center bool
		want   string
	}{
		{"abc", 5, false, "abc  "},
		{"abc", 7, true, "  abc  "},
		{"abcdefgh", 5, false, "abcd…"},
		{"abc", 3, false, "abc"},
	}
	for _, tt := range tests {
		if got := Cell(tt.s, tt.w, tt.center); got != tt.want {
			t.Errorf("Cell(%q, %d, %v) = %q, want %q", tt.s, tt.w, tt.center, got, tt.want)
		}
	}
}

func TestRenderGrid(t *testing.T) {
	cols := []grid.Column{{Key: "name", Label: "Name"}, {Key: "amt", Label: "Amount"}}
	g := grid.New(cols,
		grid.WithActions(
			grid.Action{ID: "edit", Label: "Edit"},
			grid.Action{ID: "view", Label: "View"},
		),
		grid.WithActionDisabled(func(a grid.Action, r grid.Row) bool {
			return a.ID == "edit" && r.Text("name") == "ann"
		}),
	)
	g.SetData([]grid.Row{
		{"id": 1, "name": "Bob", "amt": "10"},
		{"id": 2, "name": "ann", "amt": ""},
	})
	g.Sort("amt")

	out := ansi.Strip(RenderGrid(g, GridView{Actions: true}))
	lines := strings.Split(out, "\n")

	if lines[0] != "Sorted by: Amount (asc)" {
		t.Errorf("banner = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Amount ▲") || !strings.Contains(lines[1], "Action") {
		t.Errorf("header = %q", lines[1])
	}
	// blank amount sorts first ascending; its edit is disabled so view is primary
	if !strings.HasPrefix(lines[3], "ann") || !strings.Contains(lines[3], "View ▾") {
		t.Errorf("first row = %q", lines[3])
	}
	if !strings.HasPrefix(lines[4], "Bob") || !strings.Contains(lines[4], "Edit ▾") {
		t.Errorf("second row = %q", lines[4])
	}
	if !strings.Contains(out, "Showing 1-2 of 2  Page: [1]  Size: 15") {
		t.Errorf("footer missing in:\n%s", out)
	}
}

func TestRenderGridEmptyWithBanner(t *testing.T) {
	cols := []grid.Column{{Key: "name", Label: "Name"}}
	g := grid.New(cols)
	g.SetData([]grid.Row{{"id": "1", "name": "Bob"}})
	g.SetFilter("name", "zzz")

	out := ansi.Strip(RenderGrid(g, GridView{Banner: "Filters applied"}))
	if !strings.HasPrefix(out, "Filters applied\n") {
		t.Errorf("banner missing:\n%s", out)
	}
	if !strings.Contains(out, "No records found") || !strings.Contains(out, "Showing 0 of 0") {
		t.Errorf("empty state missing:\n%s", out)
	}
}

func TestRenderGridSelection(t *testing.T) {
	cols := []grid.Column{{Key: "name", Label: "Name"}}
	var sel grid.Selection
	g := grid.New(cols, grid.WithSelection(grid.NewSelection(), func(s grid.Selection) { sel = s }, nil))
	g.SetData([]grid.Row{{"id": "1", "name": "a"}, {"id": "2", "name": "b"}})
	g.ToggleRow("2", true)
	g.SetSelection(sel)

	out := ansi.Strip(RenderGrid(g, GridView{Selection: true}))
	if !strings.Contains(out, "[ ] | a") || !strings.Contains(out, "[x] | b") {
		t.Errorf("checkboxes wrong:\n%s", out)
	}
	if !strings.Contains(out, "1 selected") {
		t.Errorf("selected count missing:\n%s", out)
	}
}
