package grid

import "slices"

// Selection is a set of selected row ids. The host owns the selection; the
// grid only reads it and proposes replacements through callbacks.
type Selection map[string]struct{}

// NewSelection returns a selection holding ids.
func NewSelection(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is selected.
func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of selected ids.
func (s Selection) Len() int {
	return len(s)
}

// Clone returns an independent copy of s.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// IDs returns the selected ids in sorted order.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SelectIntent is the across-pages selection request sent to the host.
type SelectIntent string

const (
	IntentSelect   SelectIntent = "select"
	IntentUnselect SelectIntent = "unselect"
)
