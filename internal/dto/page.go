package dto

import (
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is a 1-based page number and a page size.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize clamps the page size into [1, MaxPageSize], defaulting to
// DefaultPageSize.
func (p *PageRequest) Normalize() {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// Offset is the number of rows before the page. It saturates at
// math.MaxInt for page numbers too large to multiply out.
func (p PageRequest) Offset() int {
	if p.Page < 1 || p.PageSize < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// Valid reports whether the page exists for total rows. The first page
// always exists, even when empty.
func (p PageRequest) Valid(total int64) bool {
	if p.Page < 1 || p.PageSize < 1 {
		return false
	}
	if p.Page == 1 {
		return true
	}
	return total > 0 && int64(p.Page-1) <= (total-1)/int64(p.PageSize)
}

// Page is the paginated list envelope.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPage builds the envelope. Next and previous links are base with the
// page parameter replaced; base carries the rest of the request query.
func NewPage[T any](results []T, total int64, req PageRequest, base *url.URL) Page[T] {
	page := Page[T]{Count: total, Results: results}
	if page.Results == nil {
		page.Results = []T{}
	}
	if base == nil {
		return page
	}
	if int64(req.Page*req.PageSize) < total {
		page.Next = pageLink(base, req.Page+1)
	}
	if req.Page > 1 {
		page.Previous = pageLink(base, req.Page-1)
	}
	return page
}

func pageLink(base *url.URL, n int) *string {
	u := *base
	q := u.Query()
	if n == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
