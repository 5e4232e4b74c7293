package models

import "time"

// SampleSource identifies how the platform produced a location sample
type SampleSource string

// SampleSource constants
const (
	SourceGPS               SampleSource = "GPS"
	SourceNetwork           SampleSource = "NETWORK"
	SourceVisit             SampleSource = "VISIT"
	SourceSignificantChange SampleSource = "SIGNIFICANT_CHANGE"
)

// Valid reports whether s is one of the known sources.
func (s SampleSource) Valid() bool {
	switch s {
	case SourceGPS, SourceNetwork, SourceVisit, SourceSignificantChange:
		return true
	}
	return false
}

// LocationSample is a single raw position fix reported by a device.
// Samples are immutable once ingested; visits and segments refer to them by ID.
type LocationSample struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
	Accuracy  float64      `json:"accuracy"`          // meters
	Speed     *float64     `json:"speed,omitempty"`   // m/s as reported by the device
	Bearing   *float64     `json:"bearing,omitempty"` // degrees
	Source    SampleSource `json:"source"`
	DeviceID  string       `json:"deviceId"`
	UserID    string       `json:"userId"`
}

// Coordinate returns the sample position.
func (s LocationSample) Coordinate() Coordinate {
	return Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
}

// Coordinate is a plain latitude/longitude pair in degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SampleFilter represents filter parameters for querying samples
type SampleFilter struct {
	UserID    string
	DeviceID  string
	StartTime time.Time
	EndTime   time.Time
}
