package models

// PhotoClusterFilter represents filter parameters for clustering photos
type PhotoClusterFilter struct {
	StartTime int64 `form:"start" binding:"required"` // Unix timestamp
	EndTime   int64 `form:"end" binding:"required"`   // Unix timestamp
}

// ProcessingRequest is the body of a processing run request
type ProcessingRequest struct {
	StartTime int64 `json:"start" binding:"required"` // Unix timestamp
	EndTime   int64 `json:"end" binding:"required"`   // Unix timestamp
}

// Pagination defaults shared by list endpoints
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Normalize clamps page and page size to sane values
func (f *TripFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}
