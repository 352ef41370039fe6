package grid

import "slices"

// DefaultPageSizes are the page sizes offered by the pager.
var DefaultPageSizes = []int{15, 20, 50, 100}

// DefaultPageSize is the initial page size.
const DefaultPageSize = 15

// maxFullStrip is the largest page count rendered without ellipses.
const maxFullStrip = 7

// pageWindow is how many pages either side of the current one are shown.
const pageWindow = 2

// PageItem is one entry of the page strip: a page number or an ellipsis.
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// TotalPages returns ceil(total/pageSize), never less than 1.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage pins page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// PageItems builds the page strip. Up to seven pages are listed in full.
// Beyond that the first and last pages plus two either side of current are
// shown, and every gap collapses into a single ellipsis.
func PageItems(current, totalPages int) []PageItem {
	if totalPages <= maxFullStrip {
		items := make([]PageItem, 0, totalPages)
		for p := 1; p <= totalPages; p++ {
			items = append(items, PageItem{Page: p})
		}
		return items
	}

	pages := []int{1, totalPages}
	for p := max(1, current-pageWindow); p <= min(totalPages, current+pageWindow); p++ {
		pages = append(pages, p)
	}
	slices.Sort(pages)
	pages = slices.Compact(pages)

	items := make([]PageItem, 0, len(pages)+2)
	prev := 0
	for _, p := range pages {
		if p > prev+1 {
			items = append(items, PageItem{Ellipsis: true})
		}
		items = append(items, PageItem{Page: p})
		prev = p
	}
	return items
}

// PageSlice returns the rows shown on page (1-based) at the given size.
func PageSlice(rows []Row, page, pageSize int) []Row {
	if pageSize <= 0 {
		return rows
	}
	start := (page - 1) * pageSize
	if start < 0 || start >= len(rows) {
		return []Row{}
	}
	end := min(start+pageSize, len(rows))
	return rows[start:end]
}
