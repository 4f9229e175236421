package trade

import "math"

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	// MaxPageSize caps both the page size and the reported total.
	MaxPageSize = 1000
	// MaxPage keeps (page-1)*size inside int for every allowed size.
	MaxPage = math.MaxInt / MaxPageSize
)

// SearchCriteria holds the optional search predicates. A zero value field
// means "no constraint".
type SearchCriteria struct {
	UserID       string
	Symbol       Symbol
	Side         Side
	OrderType    OrderType
	Status       OrderStatus
	Exchange     string
	NotesKeyword string
}

// PageRequest is the raw page request as received from a caller.
type PageRequest struct {
	Page int
	Size int
}

// PageBounds is a clamped page request.
type PageBounds struct {
	Page   int
	Size   int
	Offset int
}

// Bounds clamps page to [1, MaxPage] and size to [1, MaxPageSize].
func (p PageRequest) Bounds() PageBounds {
	page := min(max(p.Page, 1), MaxPage)
	size := min(max(p.Size, 1), MaxPageSize)
	return PageBounds{
		Page:   page,
		Size:   size,
		Offset: (page - 1) * size,
	}
}

// SearchResult is one page of matching records.
type SearchResult struct {
	Trades []Record `json:"trades"`
	Total  int64    `json:"total"`
	Page   int      `json:"page"`
	Size   int      `json:"size"`
}

// CapTotal applies the MaxPageSize cap to a raw hit count.
func CapTotal(total int64) int64 {
	return min(total, int64(MaxPageSize))
}
