package grid

import "testing"

func filterColumns() []Column {
	return []Column{
		{Key: "name", Label: "Name"},
		{Key: "status", Label: "Status", FilterType: FilterSelect, FilterOptions: []string{AllOption, "Open", "Closed"}},
		{Key: "amt", Label: "Amount"},
	}
}

func filterRows() []Row {
	return []Row{
		{"id": 1, "name": "Alpha Plan", "status": "Open", "amt": 10},
		{"id": 2, "name": "beta plan", "status": "Closed", "amt": nil},
		{"id": 3, "name": "Gamma", "status": "open", "amt": 0},
		{"id": 4, "name": "  ", "status": "Open Later", "amt": 12.5},
	}
}

func ids(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID()
	}
	return out
}

func equalIDs(got []Row, want ...string) bool {
	g := ids(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func TestFiltersActive(t *testing.T) {
	cols := filterColumns()
	tests := []struct {
		name   string
		f      Filters
		col    Column
		active bool
	}{
		{"missing", Filters{}, cols[0], false},
		{"empty", Filters{"name": ""}, cols[0], false},
		{"whitespace", Filters{"name": "   "}, cols[0], false},
		{"text value", Filters{"name": "al"}, cols[0], true},
		{"select all", Filters{"status": AllOption}, cols[1], false},
		{"select value", Filters{"status": "Open"}, cols[1], true},
		{"all on text column filters literally", Filters{"name": AllOption}, cols[0], true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, got := tt.f.Active(tt.col); got != tt.active {
				t.Errorf("Active() = %v, want %v", got, tt.active)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	cols := filterColumns()
	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"no filters passes everything", Filters{}, []string{"1", "2", "3", "4"}},
		{"text substring case insensitive", Filters{"name": "PLAN"}, []string{"1", "2"}},
		{"text value is trimmed", Filters{"name": "  gam  "}, []string{"3"}},
		{"select exact case insensitive", Filters{"status": "open"}, []string{"1", "3"}},
		{"select all sentinel", Filters{"status": AllOption}, []string{"1", "2", "3", "4"}},
		{"combined filters", Filters{"name": "plan", "status": "Open"}, []string{"1"}},
		{"numeric cells stringified", Filters{"amt": "12"}, []string{"4"}},
		{"zero cell is text", Filters{"amt": "0"}, []string{"1", "3"}},
		{"nil cell never matches text", Filters{"amt": "nil"}, []string{}},
		{"unknown key ignored", Filters{"nope": "x"}, []string{"1", "2", "3", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(filterRows(), cols, tt.filters)
			if !equalIDs(got, tt.want...) {
				t.Errorf("Filter() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestFilterSubsetOfData(t *testing.T) {
	cols := filterColumns()
	rows := filterRows()
	combos := []Filters{
		{"name": "a"},
		{"status": "Closed"},
		{"name": "a", "status": "Open", "amt": "1"},
		{"name": "zzz"},
	}
	for _, f := range combos {
		got := Filter(rows, cols, f)
		seen := map[string]bool{}
		for _, r := range got {
			seen[r.ID()] = true
		}
		for _, r := range rows {
			if Matches(r, cols, f) != seen[r.ID()] {
				t.Errorf("filters %v: row %s inclusion mismatch", f, r.ID())
			}
		}
	}
}

func TestFilterDoesNotAliasInput(t *testing.T) {
	rows := filterRows()
	got := Filter(rows, filterColumns(), Filters{})
	got[0] = Row{"id": "x"}
	if rows[0].ID() != "1" {
		t.Fatal("Filter returned a slice sharing the caller's backing array")
	}
}
