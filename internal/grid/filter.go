package grid

import "strings"

// Filters maps a column key to its current filter value. Text columns hold
// the typed substring; select columns hold the chosen option.
type Filters map[string]string

// Clone returns a copy of f that is safe to mutate.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Active returns the filter value for col and whether it constrains rows.
// Empty and whitespace-only values never constrain; for select columns the
// AllOption sentinel doesn't either.
func (f Filters) Active(col Column) (string, bool) {
	v, ok := f[col.Key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	if col.IsSelectFilter() && v == AllOption {
		return "", false
	}
	return v, true
}

// Any reports whether at least one column filter is active.
func (f Filters) Any(cols []Column) bool {
	for _, c := range cols {
		if _, ok := f.Active(c); ok {
			return true
		}
	}
	return false
}

// Matches reports whether row passes every active filter on cols.
func Matches(row Row, cols []Column, f Filters) bool {
	for _, col := range cols {
		value, ok := f.Active(col)
		if !ok {
			continue
		}
		cell := strings.ToLower(row.Text(col.Key))
		if col.IsSelectFilter() {
			if cell != strings.ToLower(value) {
				return false
			}
			continue
		}
		if !strings.Contains(cell, strings.ToLower(strings.TrimSpace(value))) {
			return false
		}
	}
	return true
}

// Filter returns the rows that pass every active filter, preserving order.
// The input slice is never modified.
func Filter(rows []Row, cols []Column, f Filters) []Row {
	if !f.Any(cols) {
		out := make([]Row, len(rows))
		copy(out, rows)
		return out
	}
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if Matches(row, cols, f) {
			out = append(out, row)
		}
	}
	return out
}
