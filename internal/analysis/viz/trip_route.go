package viz

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/analysis/media"
	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/spatial"
)

// Config defines limits for trip route building
type Config struct {
	MaxFullPathPoints      int
	PhotoMatchRadiusMeters float64
	MaxCacheSize           int
}

// DefaultConfig returns the default route builder configuration
func DefaultConfig() Config {
	return Config{
		MaxFullPathPoints:      50_000,
		PhotoMatchRadiusMeters: 200,
		MaxCacheSize:           10,
	}
}

// RouteInput is the already-fetched data of one trip
type RouteInput struct {
	Trip     models.Trip
	Samples  []models.LocationSample
	Segments []models.RouteSegment
	Visits   []models.PlaceVisit
	Photos   []models.Photo
}

// RouteBuilder assembles a TripRoute for visualization
type RouteBuilder struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewRouteBuilder creates a new trip route builder
func NewRouteBuilder(cfg Config, logger *zap.Logger) *RouteBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RouteBuilder{cfg: cfg, logger: logger.Named("route_builder"), now: time.Now}
}

// Build assembles the route. Missing data produces empty lists, never an error.
func (b *RouteBuilder) Build(in RouteInput) models.TripRoute {
	samples := make([]models.LocationSample, len(in.Samples))
	copy(samples, in.Samples)
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	segments := in.Segments
	if segments == nil {
		segments = []models.RouteSegment{}
	}
	visits := in.Visits
	if visits == nil {
		visits = []models.PlaceVisit{}
	}

	route := models.TripRoute{
		TripID:       in.Trip.ID,
		FullPath:     b.fullPath(samples, segments),
		Segments:     segments,
		Visits:       visits,
		PhotoMarkers: b.photoMarkers(in.Photos, visits),
	}
	route.Bounds = bounds(route)
	route.Statistics = b.statistics(in.Trip, samples, route)

	b.logger.Debug("built trip route",
		zap.String("trip_id", in.Trip.ID),
		zap.Int("samples", len(samples)),
		zap.Int("path_points", len(route.FullPath)),
		zap.Int("photo_markers", len(route.PhotoMarkers)),
	)
	return route
}

func (b *RouteBuilder) fullPath(samples []models.LocationSample, segments []models.RouteSegment) []models.RoutePoint {
	transportOf := make(map[string]models.TransportType)
	for _, seg := range segments {
		for _, id := range seg.LocationSampleIDs {
			transportOf[id] = seg.TransportType
		}
	}

	picked := Downsample(len(samples), b.cfg.MaxFullPathPoints)
	path := make([]models.RoutePoint, len(picked))
	for i, idx := range picked {
		s := samples[idx]
		path[i] = models.RoutePoint{
			Latitude:      s.Latitude,
			Longitude:     s.Longitude,
			Timestamp:     s.Timestamp,
			TransportType: transportOf[s.ID],
		}
	}
	return path
}

// Downsample returns the indexes kept when reducing n points to at most max.
// First and last are always kept; interior points are taken at a fixed stride.
func Downsample(n, max int) []int {
	if n <= 0 {
		return []int{}
	}
	if max < 2 {
		max = 2
	}
	if n <= max {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, max)
	for i := range out {
		out[i] = i * (n - 1) / (max - 1)
	}
	return out
}

// photoMarkers ties each geotagged photo to the nearest visit that was in
// progress when it was taken and lies within the match radius.
func (b *RouteBuilder) photoMarkers(photos []models.Photo, visits []models.PlaceVisit) []models.PhotoMarker {
	markers := []models.PhotoMarker{}
	for _, p := range photos {
		if !p.HasLocation() {
			continue
		}
		m := models.PhotoMarker{
			PhotoID:   p.ID,
			Latitude:  *p.Latitude,
			Longitude: *p.Longitude,
			Timestamp: p.TakenAt,
		}
		m.PlaceVisitID = media.NearestVisit(p, visits, b.cfg.PhotoMatchRadiusMeters)
		markers = append(markers, m)
	}
	return markers
}

func bounds(route models.TripRoute) models.RouteBounds {
	var pts []orb.Point
	for _, p := range route.FullPath {
		pts = append(pts, orb.Point{p.Longitude, p.Latitude})
	}
	for _, v := range route.Visits {
		pts = append(pts, orb.Point{v.CenterLongitude, v.CenterLatitude})
	}
	for _, m := range route.PhotoMarkers {
		pts = append(pts, orb.Point{m.Longitude, m.Latitude})
	}
	if len(pts) == 0 {
		return models.WorldBounds
	}

	bound := pts[0].Bound()
	for _, p := range pts[1:] {
		bound = bound.Extend(p)
	}
	return models.RouteBounds{
		MinLatitude:  bound.Min.Lat(),
		MaxLatitude:  bound.Max.Lat(),
		MinLongitude: bound.Min.Lon(),
		MaxLongitude: bound.Max.Lon(),
	}
}

func (b *RouteBuilder) statistics(trip models.Trip, samples []models.LocationSample, route models.TripRoute) models.RouteStatistics {
	st := models.RouteStatistics{
		DistanceByTransport: make(map[models.TransportType]float64),
		DurationByTransport: make(map[models.TransportType]float64),
		VisitCount:          len(route.Visits),
		PhotoCount:          len(route.PhotoMarkers),
	}

	var moving float64
	for _, seg := range route.Segments {
		secs := seg.Duration().Seconds()
		st.TotalDistanceMeters += seg.DistanceMeters
		st.DistanceByTransport[seg.TransportType] += seg.DistanceMeters
		st.DurationByTransport[seg.TransportType] += secs
		moving += secs
	}
	if len(route.Segments) == 0 && len(samples) > 1 {
		points := make([]spatial.Point, len(samples))
		for i, s := range samples {
			points[i] = spatial.Point{Lat: s.Latitude, Lon: s.Longitude}
		}
		st.TotalDistanceMeters = spatial.PathLength(points)
		moving = samples[len(samples)-1].Timestamp.Sub(samples[0].Timestamp).Seconds()
	}
	if moving > 0 {
		st.AverageSpeedMps = st.TotalDistanceMeters / moving
	}

	switch {
	case trip.EndTime != nil:
		st.DurationSeconds = trip.EndTime.Sub(trip.StartTime).Seconds()
	case len(samples) > 0:
		st.DurationSeconds = samples[len(samples)-1].Timestamp.Sub(trip.StartTime).Seconds()
	default:
		st.DurationSeconds = b.now().Sub(trip.StartTime).Seconds()
	}
	if st.DurationSeconds < 0 {
		st.DurationSeconds = 0
	}

	speeds := sampleSpeeds(samples)
	if len(speeds) > 0 {
		st.MaxSpeedMps, _ = speeds.Max()
		st.MedianSpeedMps, _ = speeds.Median()
		st.P95SpeedMps, _ = speeds.Percentile(95)
	}
	return st
}

// sampleSpeeds are the implied speeds between consecutive samples
func sampleSpeeds(samples []models.LocationSample) stats.Float64Data {
	var speeds stats.Float64Data
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		dt := cur.Timestamp.Sub(prev.Timestamp).Seconds()
		if dt <= 0 {
			continue
		}
		speeds = append(speeds, spatial.HaversineDistance(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)/dt)
	}
	return speeds
}
