// Package pagination provides cursor-based page requests and responses.
// Pages are keyed by an opaque cursor taken from the last item of the
// previous page rather than by offset, so concurrent writes cannot shift
// page boundaries.
package pagination

// Navigation is the paging direction. Only forward paging is supported.
type Navigation string

const NavigationNext Navigation = "NEXT"

// DefaultPageSize matches the default list view size of the API.
const DefaultPageSize = 30

// CursorPageRequest asks for one page of results. A nil Cursor means the
// first page.
type CursorPageRequest[C any] struct {
	Cursor     *C
	PageSize   int
	Navigation Navigation
}

// NewCursorPageRequest builds a forward page request.
func NewCursorPageRequest[C any](cursor *C, pageSize int) CursorPageRequest[C] {
	return CursorPageRequest[C]{Cursor: cursor, PageSize: pageSize, Navigation: NavigationNext}
}

// CursorPage is one page of results. HasNext is derived by the producer from
// an over-fetch of one row; HasPrevious is true iff a cursor was supplied.
type CursorPage[T any] struct {
	Content     []T  `json:"content"`
	Size        int  `json:"size"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}
