// Package dto defines request and response shapes for API v1.
package dto

// IDResponse returns the id of a created resource.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is a generic success acknowledgment.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListResponse wraps a page of items with the total match count.
type ListResponse struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
}

// ListQuery holds common pagination and ordering parameters.
type ListQuery struct {
	OrderBy string `form:"orderBy"`
	Desc    bool   `form:"desc"`
	Offset  uint64 `form:"offset"`
	Limit   uint64 `form:"limit"`
}
