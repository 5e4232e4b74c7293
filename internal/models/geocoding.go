package models

import "time"

// GeocodedLocation is the result of reverse geocoding a coordinate
type GeocodedLocation struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formattedAddress,omitempty"`
	City             string  `json:"city,omitempty"`
	CountryCode      string  `json:"countryCode,omitempty"`
	POIName          string  `json:"poiName,omitempty"`
	PostalCode       string  `json:"postalCode,omitempty"`
}

// GeocodeCacheEntry is a persisted geocode cache row
type GeocodeCacheEntry struct {
	CellID    uint64
	Location  GeocodedLocation
	CachedAt  time.Time
	ExpiresAt time.Time
}
