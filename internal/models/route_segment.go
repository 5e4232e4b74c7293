package models

import "time"

// TransportType is the inferred travel mode of a route segment
type TransportType string

// TransportType constants
const (
	TransportWalk    TransportType = "WALK"
	TransportBike    TransportType = "BIKE"
	TransportCar     TransportType = "CAR"
	TransportTrain   TransportType = "TRAIN"
	TransportPlane   TransportType = "PLANE"
	TransportBoat    TransportType = "BOAT"
	TransportUnknown TransportType = "UNKNOWN"
)

// TransportTypes lists every transport type in display order
var TransportTypes = []TransportType{
	TransportWalk, TransportBike, TransportCar, TransportTrain,
	TransportPlane, TransportBoat, TransportUnknown,
}

// RouteSegment is the movement between two place visits (or before the
// first / after the last one).
type RouteSegment struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	FromPlaceVisitID string `json:"fromPlaceVisitId,omitempty"`
	ToPlaceVisitID   string `json:"toPlaceVisitId,omitempty"`

	LocationSampleIDs []string     `json:"locationSampleIds"`
	SimplifiedPath    []Coordinate `json:"simplifiedPath"`

	TransportType   TransportType `json:"transportType"`
	DistanceMeters  float64       `json:"distanceMeters"`
	AverageSpeedMps *float64      `json:"averageSpeedMps,omitempty"`
}

// Duration is EndTime - StartTime
func (s RouteSegment) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// SegmentFilter represents filter parameters for querying segments
type SegmentFilter struct {
	UserID        string
	StartTime     time.Time
	EndTime       time.Time
	TransportType TransportType
}
