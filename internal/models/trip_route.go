package models

import "time"

// RoutePoint is one point of a trip's full path
type RoutePoint struct {
	Latitude      float64       `json:"latitude"`
	Longitude     float64       `json:"longitude"`
	Timestamp     time.Time     `json:"timestamp"`
	TransportType TransportType `json:"transportType,omitempty"`
}

// PhotoMarker places a photo on the trip map, optionally tied to a visit
type PhotoMarker struct {
	PhotoID      string    `json:"photoId"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Timestamp    time.Time `json:"timestamp"`
	PlaceVisitID string    `json:"placeVisitId,omitempty"`
}

// RouteBounds is a lat/lon bounding box
type RouteBounds struct {
	MinLatitude  float64 `json:"minLatitude"`
	MaxLatitude  float64 `json:"maxLatitude"`
	MinLongitude float64 `json:"minLongitude"`
	MaxLongitude float64 `json:"maxLongitude"`
}

// WorldBounds covers the whole globe
var WorldBounds = RouteBounds{MinLatitude: -90, MaxLatitude: 90, MinLongitude: -180, MaxLongitude: 180}

// RouteStatistics summarizes a trip route
type RouteStatistics struct {
	TotalDistanceMeters float64                   `json:"totalDistanceMeters"`
	DurationSeconds     float64                   `json:"durationSeconds"`
	DistanceByTransport map[TransportType]float64 `json:"distanceByTransport"`
	DurationByTransport map[TransportType]float64 `json:"durationByTransport"` // seconds
	MaxSpeedMps         float64                   `json:"maxSpeedMps"`
	AverageSpeedMps     float64                   `json:"averageSpeedMps"`
	MedianSpeedMps      float64                   `json:"medianSpeedMps"`
	P95SpeedMps         float64                   `json:"p95SpeedMps"`
	VisitCount          int                       `json:"visitCount"`
	PhotoCount          int                       `json:"photoCount"`
}

// TripRoute is everything needed to draw one trip
type TripRoute struct {
	TripID       string          `json:"tripId"`
	FullPath     []RoutePoint    `json:"fullPath"`
	Segments     []RouteSegment  `json:"segments"`
	Visits       []PlaceVisit    `json:"visits"`
	PhotoMarkers []PhotoMarker   `json:"photoMarkers"`
	Bounds       RouteBounds     `json:"bounds"`
	Statistics   RouteStatistics `json:"statistics"`
}
