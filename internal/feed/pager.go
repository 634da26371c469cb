package feed

import (
	"strconv"
)

// PerPage is the fixed page size for all post listings
const PerPage = 10

// Pagination describes one page of an ordered result set
type Pagination struct {
	Count    int64
	PerPage  int
	Page     int
	NumPages int
}

// Paginate resolves a raw page parameter against a result count. A missing
// or non-numeric parameter means page 1 and an out-of-range page clamps to
// the last valid page; a bad page number is never an error. Zero results
// yield a single empty page.
func Paginate(count int64, pageParam string) Pagination {
	page, err := strconv.Atoi(pageParam)
	if err != nil || page < 1 {
		page = 1
	}

	numPages := int((count + PerPage - 1) / PerPage)
	if numPages < 1 {
		numPages = 1
	}
	if page > numPages {
		page = numPages
	}

	return Pagination{
		Count:    count,
		PerPage:  PerPage,
		Page:     page,
		NumPages: numPages,
	}
}

// Offset returns the row offset of the page's first item
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// HasNext reports whether a later page exists
func (p Pagination) HasNext() bool {
	return p.Page < p.NumPages
}

// HasPrev reports whether an earlier page exists
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// NextPage returns the next page number, or the current one on the last page
func (p Pagination) NextPage() int {
	if p.HasNext() {
		return p.Page + 1
	}
	return p.Page
}

// PrevPage returns the previous page number, or the current one on page 1
func (p Pagination) PrevPage() int {
	if p.HasPrev() {
		return p.Page - 1
	}
	return p.Page
}
