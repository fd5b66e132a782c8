package models

// Page is the envelope returned by every list operation
type Page[T any] struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Data    []T   `json:"data"`
}
