package models

import "time"

// Photo is a user photo with optional geotag
type Photo struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TakenAt   time.Time `json:"takenAt"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	URI       string    `json:"uri,omitempty"`
}

// HasLocation reports whether the photo is geotagged
func (p Photo) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// PhotoCluster groups photos close in both space and time
type PhotoCluster struct {
	ID              string    `json:"id"`
	CenterLatitude  float64   `json:"centerLatitude"`
	CenterLongitude float64   `json:"centerLongitude"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	PhotoIDs        []string  `json:"photoIds"`
}
