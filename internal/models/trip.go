package models

import "time"

// Trip is a contiguous away-from-home period.
// IsOngoing is true exactly when EndTime is nil.
type Trip struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	IsOngoing      bool       `json:"isOngoing"`
	PrimaryCountry string     `json:"primaryCountry,omitempty"`

	// TimeZone is the IANA zone the trip's days are cut in.
	TimeZone string `json:"timeZone,omitempty"`

	VisitCount     int     `json:"visitCount"`
	DistanceMeters float64 `json:"distanceMeters"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Close sets the end time and clears the ongoing flag.
func (t *Trip) Close(end time.Time) {
	t.EndTime = &end
	t.IsOngoing = false
}

// Contains reports whether ts falls inside the trip. Ongoing trips are open-ended.
func (t Trip) Contains(ts time.Time) bool {
	if ts.Before(t.StartTime) {
		return false
	}
	return t.EndTime == nil || !ts.After(*t.EndTime)
}

// Overlaps reports whether [start, end] intersects the trip.
func (t Trip) Overlaps(start, end time.Time) bool {
	if end.Before(t.StartTime) {
		return false
	}
	return t.EndTime == nil || !start.After(*t.EndTime)
}

// Duration returns the trip length; ongoing trips are measured up to now.
func (t Trip) Duration(now time.Time) time.Duration {
	if t.EndTime != nil {
		return t.EndTime.Sub(t.StartTime)
	}
	return now.Sub(t.StartTime)
}

// TripFilter represents filter parameters for querying trips
type TripFilter struct {
	UserID    string `form:"-"`
	Ongoing   *bool  `form:"ongoing"`
	StartTime int64  `form:"startTime"` // Unix timestamp
	EndTime   int64  `form:"endTime"`   // Unix timestamp
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// TripsResponse represents a paginated response of trips
type TripsResponse struct {
	Data       []Trip `json:"data"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}
