package grid

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortEntry is one level of a multi-column sort.
type SortEntry struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// SortOrder is an ordered list of sort levels. The first entry is the
// primary key. A key appears at most once.
type SortOrder []SortEntry

// ParseSortEntry parses "key", "key:asc" or "key:desc".
func ParseSortEntry(s string) (SortEntry, error) {
	key, dir, _ := strings.Cut(strings.TrimSpace(s), ":")
	key = strings.TrimSpace(key)
	if key == "" {
		return SortEntry{}, fmt.Errorf("empty sort key in %q", s)
	}
	switch Direction(strings.ToLower(strings.TrimSpace(dir))) {
	case "", Asc:
		return SortEntry{Key: key, Direction: Asc}, nil
	case Desc:
		return SortEntry{Key: key, Direction: Desc}, nil
	}
	return SortEntry{}, fmt.Errorf("invalid sort direction %q (want asc or desc)", dir)
}

// ParseSortOrder parses a comma separated list of sort entries.
func ParseSortOrder(s string) (SortOrder, error) {
	var out SortOrder
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		e, err := ParseSortEntry(part)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// String renders the order in the form accepted by ParseSortOrder.
func (o SortOrder) String() string {
	parts := make([]string, len(o))
	for i, e := range o {
		parts[i] = e.Key + ":" + string(e.Direction)
	}
	return strings.Join(parts, ",")
}

// Entry returns the entry for key and its 1-based priority.
func (o SortOrder) Entry(key string) (SortEntry, int, bool) {
	for i, e := range o {
		if e.Key == key {
			return e, i + 1, true
		}
	}
	return SortEntry{}, 0, false
}

// Toggle advances key through not-sorted -> asc -> desc -> not-sorted.
// A newly sorted key is appended at the lowest priority; flipping to desc
// keeps its position. The receiver is left untouched.
func (o SortOrder) Toggle(key string) SortOrder {
	_, prio, ok := o.Entry(key)
	if !ok {
		next := make(SortOrder, len(o), len(o)+1)
		copy(next, o)
		return append(next, SortEntry{Key: key, Direction: Asc})
	}
	idx := prio - 1
	if o[idx].Direction == Asc {
		next := slices.Clone(o)
		next[idx].Direction = Desc
		return next
	}
	next := make(SortOrder, 0, len(o)-1)
	next = append(next, o[:idx]...)
	return append(next, o[idx+1:]...)
}

// Keep returns the entries of o whose key satisfies keep, in order.
func (o SortOrder) Keep(keep func(key string) bool) SortOrder {
	var next SortOrder
	for _, e := range o {
		if keep(e.Key) {
			next = append(next, e)
		}
	}
	return next
}

// IsBlank reports whether a cell value counts as blank for sorting: nil,
// the empty string, or whitespace only.
func IsBlank(v any) bool {
	return strings.TrimSpace(stringify(v)) == ""
}

// numericValue returns v as a finite number when it parses as one.
func numericValue(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case float32:
		f = float64(t)
	case float64:
		f = t
	default:
		parsed, ok := parseNumber(strings.TrimSpace(stringify(v)))
		if !ok {
			return 0, false
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseNumber accepts decimal numbers and unsigned 0x, 0o and 0b integer
// literals, so "0x10" is 16.
func parseNumber(s string) (float64, bool) {
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			return float64(n), err == nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// Comparer compares cell values. It holds a collator and is not safe for
// concurrent use; create one per sort.
type Comparer struct {
	collator *collate.Collator
}

// NewComparer returns a comparer using case-insensitive natural ordering,
// so "item2" sorts before "item10".
func NewComparer() *Comparer {
	return &Comparer{collator: collate.New(language.Und, collate.IgnoreCase, collate.Numeric)}
}

// Compare returns -1, 0 or 1 for a against b under dir. Blanks sort first
// ascending and last descending. Two numbers compare numerically; anything
// else compares as trimmed, lower-cased text in natural order.
func (c *Comparer) Compare(a, b any, dir Direction) int {
	mult := 1
	if dir == Desc {
		mult = -1
	}

	aBlank, bBlank := IsBlank(a), IsBlank(b)
	switch {
	case aBlank && bBlank:
		return 0
	case aBlank:
		return -mult
	case bBlank:
		return mult
	}

	na, aNum := numericValue(a)
	nb, bNum := numericValue(b)
	if aNum && bNum {
		switch {
		case na < nb:
			return -mult
		case na > nb:
			return mult
		default:
			return 0
		}
	}

	sa := strings.ToLower(strings.TrimSpace(stringify(a)))
	sb := strings.ToLower(strings.TrimSpace(stringify(b)))
	return mult * sign(c.collator.CompareString(sa, sb))
}

// CompareRows applies each sort level in priority order and returns the
// first non-zero result.
func (c *Comparer) CompareRows(a, b Row, order SortOrder) int {
	for _, e := range order {
		if cmp := c.Compare(a[e.Key], b[e.Key], e.Direction); cmp != 0 {
			return cmp
		}
	}
	return 0
}

// CompareCells compares two values with a fresh comparer.
func CompareCells(a, b any, dir Direction) int {
	return NewComparer().Compare(a, b, dir)
}

// Sort returns a stably sorted copy of rows. Rows equal under every level
// keep their original relative order.
func Sort(rows []Row, order SortOrder) []Row {
	out := slices.Clone(rows)
	if len(order) == 0 {
		return out
	}
	c := NewComparer()
	slices.SortStableFunc(out, func(a, b Row) int {
		return c.CompareRows(a, b, order)
	})
	return out
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
