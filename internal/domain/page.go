package domain

// PaginationParams pages the timeline list. Page is 1-indexed and Limit is
// capped at 100.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams builds params from optional query values, defaulting
// to page 1 of 20.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: 20}
	if page != nil && *page > 0 {
		p.Page = *page
	}
	if limit != nil && *limit > 0 {
		p.Limit = min(*limit, 100)
	}
	return p
}

// Bounds returns the [lo, hi) slice indexes of the page within n items.
// Pages past the end yield an empty range.
func (p PaginationParams) Bounds(n int) (lo, hi int) {
	lo = min((p.Page-1)*p.Limit, n)
	hi = min(lo+p.Limit, n)
	return lo, hi
}
