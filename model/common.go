package model

// PagingMeta describes the page returned by a list accessor
type PagingMeta struct {
	Page  int   `json:"page"`
	Count int64 `json:"count"`
	Limit int   `json:"limit"`
}

// Normalize clamps paging parameters into the accepted range
func (m *PagingMeta) Normalize(maxLimit int) {
	if m.Page < 1 {
		m.Page = 1
	}
	if m.Limit < 1 || m.Limit > maxLimit {
		m.Limit = maxLimit
	}
}

// Offset returns the number of rows to skip for the current page
func (m PagingMeta) Offset() int {
	return (m.Page - 1) * m.Limit
}
