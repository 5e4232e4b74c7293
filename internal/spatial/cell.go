package spatial

import (
	"github.com/golang/geo/s2"
)

// CellID returns the s2 cell of the given level containing the point.
func CellID(lat, lon float64, level int) s2.CellID {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon)).Parent(level)
}

// CellsWithin returns the cells of the given level that cover a disc of
// radiusMeters around the point.
func CellsWithin(lat, lon, radiusMeters float64, level int) []s2.CellID {
	center := Point{Lat: lat, Lon: lon}.s2Point()
	region := s2.CapFromCenterAngle(center, MetersToAngle(radiusMeters))

	coverer := &s2.RegionCoverer{MinLevel: level, MaxLevel: level, MaxCells: 64}
	covering := coverer.Covering(region)

	// coverings of tiny caps can miss the center cell at coarse levels
	own := CellID(lat, lon, level)
	for _, c := range covering {
		if c == own {
			return covering
		}
	}
	return append(covering, own)
}
