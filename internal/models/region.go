package models

// Region is a circular geofence owned by a user
type Region struct {
	ID           string  `json:"id"`
	UserID       string  `json:"userId,omitempty"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude    float64 `json:"longitude" binding:"min=-180,max=180"`
	RadiusMeters float64 `json:"radiusMeters" binding:"gt=0"`
}
