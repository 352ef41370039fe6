// Package grid implements the interactive data grid used by the plan list:
// column filters, multi-column sorting with priority, pagination with a
// windowed page strip, row selection across pages, and per-row action menus.
//
// A Grid owns only view state (page, page size, filters, sort order, open
// menu). Rows, selection and business rules are supplied by the host, and
// every user intent that changes host state is reported through callbacks.
package grid

import (
	"fmt"
	"strings"
)

// Row is an opaque mapping from column key to display value. Every row must
// carry a stable "id" entry. The grid never mutates rows.
type Row map[string]any

// ID returns the row id coerced to a string.
func (r Row) ID() string {
	return stringify(r["id"])
}

// Text returns the stringified cell value for key. Missing and nil cells
// render as the empty string.
func (r Row) Text(key string) string {
	return stringify(r[key])
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// FilterType selects how a column filter is matched.
type FilterType string

const (
	FilterText   FilterType = "text"
	FilterSelect FilterType = "select"
)

// AllOption is the select-filter sentinel meaning "no filter".
const AllOption = "All"

// Column describes one grid column. It drives rendering as well as filter
// and sort eligibility.
type Column struct {
	Key           string     `json:"key" yaml:"key"`
	Label         string     `json:"label" yaml:"label"`
	Sortable      *bool      `json:"sortable,omitempty" yaml:"sortable,omitempty"`
	Filterable    *bool      `json:"filterable,omitempty" yaml:"filterable,omitempty"`
	FilterType    FilterType `json:"filterType,omitempty" yaml:"filter_type,omitempty"`
	FilterOptions []string   `json:"filterOptions,omitempty" yaml:"filter_options,omitempty"`
	MinWidth      int        `json:"minWidth,omitempty" yaml:"min_width,omitempty"`
}

// IsSortable reports whether clicking the header sorts. Unset means true.
func (c Column) IsSortable() bool {
	return c.Sortable == nil || *c.Sortable
}

// IsFilterable reports whether the column shows a filter control. Unset
// means true.
func (c Column) IsFilterable() bool {
	return c.Filterable == nil || *c.Filterable
}

// IsSelectFilter reports whether the column filters by exact option match.
func (c Column) IsSelectFilter() bool {
	return c.FilterType == FilterSelect
}

// DisplayLabel returns the label, falling back to the key.
func (c Column) DisplayLabel() string {
	if strings.TrimSpace(c.Label) == "" {
		return c.Key
	}
	return c.Label
}

// Bool returns a pointer to b, for populating Column.Sortable and
// Column.Filterable literals.
func Bool(b bool) *bool {
	return &b
}

// FindColumn returns the column with the given key.
func FindColumn(cols []Column, key string) (Column, bool) {
	for _, c := range cols {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnKeys returns the keys of cols in order.
func ColumnKeys(cols []Column) []string {
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key
	}
	return keys
}
