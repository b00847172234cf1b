package tableview

import (
	"fmt"
	"math"
)

// PageInfo describes the visible slice of a filtered listing.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	From       int
	To         int
}

// newPageInfo computes pagination metadata. TotalPages is never below one and
// page is clamped into range.
func newPageInfo(page, perPage, total int) PageInfo {
	if perPage <= 0 {
		perPage = 20
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	info := PageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
	if total > 0 {
		info.From = (page-1)*perPage + 1
		info.To = min(page*perPage, total)
	}
	return info
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }

// Summary renders the "Showing A–B of N" caption.
func (p PageInfo) Summary() string {
	if p.Total == 0 {
		return "Showing 0 of 0"
	}
	return fmt.Sprintf("Showing %d–%d of %d", p.From, p.To, p.Total)
}

func (p PageInfo) bounds() (int, int) {
	if p.Total == 0 {
		return 0, 0
	}
	return p.From - 1, p.To
}
