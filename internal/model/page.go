package model

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination computes page metadata. page and size are expected to be
// already normalized to >= 1.
func NewPagination(page, size int, total int64) Pagination {
	pages := int((total + int64(size) - 1) / int64(size))

	return Pagination{
		CurrentPage: page,
		PageSize:    size,
		TotalPages:  pages,
		TotalCount:  total,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}
