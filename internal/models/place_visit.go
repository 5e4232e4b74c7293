package models

import "time"

// PlaceVisit is a dwell period at one location, derived from a cluster of samples.
// Address fields are empty when reverse geocoding did not produce them.
type PlaceVisit struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	CenterLatitude  float64 `json:"centerLatitude"`
	CenterLongitude float64 `json:"centerLongitude"`

	ApproximateAddress string `json:"approximateAddress,omitempty"`
	POIName            string `json:"poiName,omitempty"`
	City               string `json:"city,omitempty"`
	CountryCode        string `json:"countryCode,omitempty"`

	LocationSampleIDs []string `json:"locationSampleIds"`
}

// Duration is EndTime - StartTime
func (v PlaceVisit) Duration() time.Duration {
	return v.EndTime.Sub(v.StartTime)
}

// Center returns the visit center.
func (v PlaceVisit) Center() Coordinate {
	return Coordinate{Latitude: v.CenterLatitude, Longitude: v.CenterLongitude}
}

// HasAddress reports whether any geocoded field is set
func (v PlaceVisit) HasAddress() bool {
	return v.ApproximateAddress != "" || v.POIName != "" || v.City != "" || v.CountryCode != ""
}

// ApplyGeocode copies address fields from a reverse geocoding result
func (v *PlaceVisit) ApplyGeocode(g *GeocodedLocation) {
	if g == nil {
		return
	}
	v.ApproximateAddress = g.FormattedAddress
	v.POIName = g.POIName
	v.City = g.City
	v.CountryCode = g.CountryCode
}
