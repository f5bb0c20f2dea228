// Package pagination computes page windows for offset/limit listings.
package pagination

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Page is the derived pagination state of a single listing request.
// Current and TotalPages are always >= 1.
type Page struct {
	Current    int
	Size       int
	TotalItems int64
	TotalPages int
}

// New builds the page window for a raw requested page value.
//
// Missing, non-numeric or non-positive requests resolve to the first page.
// With zero items there is exactly one (empty) page; otherwise the requested
// page is clamped into [1, TotalPages].
func New(requested string, size int, total int64) Page {
	if size < 1 {
		size = 1
	}
	if total < 0 {
		total = 0
	}

	page := Page{
		Current:    Parse(requested),
		Size:       size,
		TotalItems: total,
		TotalPages: 1,
	}

	if total == 0 {
		page.Current = 1
		return page
	}

	page.TotalPages = int((total + int64(size) - 1) / int64(size))
	if page.Current > page.TotalPages {
		page.Current = page.TotalPages
	}

	return page
}

// Parse converts a raw page parameter into a page number >= 1. Numbers too
// large for an int saturate to math.MaxInt so New clamps them to the last
// page.
func Parse(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return math.MaxInt
	}
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Offset returns the number of rows to skip for the current page.
func (p Page) Offset() int {
	return (p.Current - 1) * p.Size
}

// Limit returns the maximum number of rows on a page.
func (p Page) Limit() int {
	return p.Size
}

// IsEmpty reports whether there is nothing to list.
func (p Page) IsEmpty() bool {
	return p.TotalItems == 0
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool {
	return p.Current > 1
}

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool {
	return p.Current < p.TotalPages
}

// Prev returns the previous page number, never below 1.
func (p Page) Prev() int {
	if p.Current <= 1 {
		return 1
	}
	return p.Current - 1
}

// Next returns the following page number, never above TotalPages.
func (p Page) Next() int {
	if p.Current >= p.TotalPages {
		return p.TotalPages
	}
	return p.Current + 1
}

// Pages lists every page number, for rendering pagination controls.
func (p Page) Pages() []int {
	pages := make([]int, p.TotalPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}
