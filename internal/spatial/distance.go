package spatial

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius
const EarthRadiusMeters = 6371000.0

// HaversineDistance returns the great-circle distance in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return AngleToMeters(s2.LatLngFromDegrees(lat1, lon1).Distance(s2.LatLngFromDegrees(lat2, lon2)))
}

// Distance is HaversineDistance over Points.
func Distance(a, b Point) float64 {
	return HaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Bearing is the initial course from the first point to the second, in
// degrees clockwise from north within [0, 360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	from, to := s2.LatLngFromDegrees(lat1, lon1), s2.LatLngFromDegrees(lat2, lon2)
	dLon := (to.Lng - from.Lng).Radians()
	phi1, phi2 := from.Lat.Radians(), to.Lat.Radians()

	course := s1.Angle(math.Atan2(
		math.Sin(dLon)*math.Cos(phi2),
		math.Cos(phi1)*math.Sin(phi2)-math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon),
	))
	return math.Mod(course.Degrees()+360, 360)
}

// DestinationPoint travels distance meters from (lat, lon) along the
// initial course bearing and returns where it ends up.
func DestinationPoint(lat, lon, bearing, distance float64) (float64, float64) {
	start := s2.LatLngFromDegrees(lat, lon)
	phi, lambda := start.Lat.Radians(), start.Lng.Radians()
	theta := (s1.Angle(bearing) * s1.Degree).Radians()
	delta := MetersToAngle(distance).Radians()

	sinPhi2 := math.Sin(phi)*math.Cos(delta) + math.Cos(phi)*math.Sin(delta)*math.Cos(theta)
	phi2 := math.Asin(sinPhi2)
	lambda2 := lambda + math.Atan2(math.Sin(theta)*math.Sin(delta)*math.Cos(phi), math.Cos(delta)-math.Sin(phi)*sinPhi2)

	end := s2.LatLng{Lat: s1.Angle(phi2), Lng: s1.Angle(lambda2)}.Normalized()
	return end.Lat.Degrees(), end.Lng.Degrees()
}

// Midpoint returns the point halfway along the geodesic between two points
func Midpoint(lat1, lon1, lat2, lon2 float64) (float64, float64) {
	a := Point{Lat: lat1, Lon: lon1}.s2Point()
	b := Point{Lat: lat2, Lon: lon2}.s2Point()
	mid := s2.LatLngFromPoint(s2.Interpolate(0.5, a, b))
	return mid.Lat.Degrees(), mid.Lng.Degrees()
}

// DistanceToSegment returns the great-circle distance in meters from p to the
// closest point of the geodesic segment a-b. Valid at any latitude.
func DistanceToSegment(p, a, b Point) float64 {
	if a == b {
		return Distance(p, a)
	}
	return AngleToMeters(s2.DistanceFromSegment(p.s2Point(), a.s2Point(), b.s2Point()))
}

// MetersToAngle converts a surface distance into the central angle it spans.
func MetersToAngle(meters float64) s1.Angle {
	return s1.Angle(meters / EarthRadiusMeters)
}

// AngleToMeters converts a central angle into a surface distance.
func AngleToMeters(a s1.Angle) float64 {
	return a.Radians() * EarthRadiusMeters
}
