// File: internal/common/pagination.go
package common

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PaginationQuery binds the page/page_size query parameters. Out-of-range
// values are normalized rather than rejected.
type PaginationQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// Limit returns the effective page size, clamped to [1, MaxPageSize].
func (pq *PaginationQuery) Limit() int {
	switch {
	case pq.PageSize <= 0:
		pq.PageSize = DefaultPageSize
	case pq.PageSize > MaxPageSize:
		pq.PageSize = MaxPageSize
	}
	return pq.PageSize
}

// Offset returns the row offset for the effective page.
func (pq *PaginationQuery) Offset() int {
	if pq.Page <= 0 {
		pq.Page = DefaultPage
	}
	return (pq.Page - 1) * pq.Limit()
}
