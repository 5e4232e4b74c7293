package viz

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

// ToGeoJSON exports a trip route as a feature collection: the full path,
// one line per segment, a point per visit and a point per photo marker.
func ToGeoJSON(route models.TripRoute) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.BBox = geojson.NewBBox(orb.Bound{
		Min: orb.Point{route.Bounds.MinLongitude, route.Bounds.MinLatitude},
		Max: orb.Point{route.Bounds.MaxLongitude, route.Bounds.MaxLatitude},
	})

	if len(route.FullPath) >= 2 {
		line := make(orb.LineString, len(route.FullPath))
		for i, p := range route.FullPath {
			line[i] = orb.Point{p.Longitude, p.Latitude}
		}
		f := geojson.NewFeature(line)
		f.Properties["kind"] = "path"
		f.Properties["tripId"] = route.TripID
		fc.Append(f)
	}

	for _, seg := range route.Segments {
		if len(seg.SimplifiedPath) < 2 {
			continue
		}
		line := make(orb.LineString, len(seg.SimplifiedPath))
		for i, c := range seg.SimplifiedPath {
			line[i] = orb.Point{c.Longitude, c.Latitude}
		}
		f := geojson.NewFeature(line)
		f.ID = seg.ID
		f.Properties["kind"] = "segment"
		f.Properties["transportType"] = string(seg.TransportType)
		f.Properties["distanceMeters"] = seg.DistanceMeters
		f.Properties["startTime"] = seg.StartTime
		f.Properties["endTime"] = seg.EndTime
		fc.Append(f)
	}

	for _, v := range route.Visits {
		f := geojson.NewFeature(orb.Point{v.CenterLongitude, v.CenterLatitude})
		f.ID = v.ID
		f.Properties["kind"] = "visit"
		f.Properties["startTime"] = v.StartTime
		f.Properties["endTime"] = v.EndTime
		if v.POIName != "" {
			f.Properties["name"] = v.POIName
		}
		if v.City != "" {
			f.Properties["city"] = v.City
		}
		fc.Append(f)
	}

	for _, m := range route.PhotoMarkers {
		f := geojson.NewFeature(orb.Point{m.Longitude, m.Latitude})
		f.ID = m.PhotoID
		f.Properties["kind"] = "photo"
		f.Properties["timestamp"] = m.Timestamp
		if m.PlaceVisitID != "" {
			f.Properties["placeVisitId"] = m.PlaceVisitID
		}
		fc.Append(f)
	}
	return fc
}
