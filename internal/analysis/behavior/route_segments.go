package behavior

import (
	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/spatial"
)

// SegmentConfig defines thresholds for building route segments
type SegmentConfig struct {
	SimplifyEpsilonMeters float64
	Bands                 SpeedBands
}

// DefaultSegmentConfig returns the default route segment configuration
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		SimplifyEpsilonMeters: 50,
		Bands:                 DefaultSpeedBands(),
	}
}

// SegmentBuilder turns the movement between visits into route segments
type SegmentBuilder struct {
	cfg    SegmentConfig
	logger *zap.Logger
}

// NewSegmentBuilder creates a new route segment builder
func NewSegmentBuilder(cfg SegmentConfig, logger *zap.Logger) *SegmentBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SegmentBuilder{cfg: cfg, logger: logger.Named("segment_builder")}
}

// Build partitions time-sorted samples into visit samples and movement
// samples. Every maximal run of movement samples with at least two samples
// becomes a segment linked to the visits on either side of it.
func (b *SegmentBuilder) Build(samples []models.LocationSample, visits []models.PlaceVisit) []models.RouteSegment {
	visitOf := make(map[string]int, len(samples))
	for i, v := range visits {
		for _, id := range v.LocationSampleIDs {
			visitOf[id] = i
		}
	}

	var segments []models.RouteSegment
	var run []models.LocationSample
	prevVisit := -1
	dropped := 0

	closeRun := func(nextVisit int) {
		if len(run) >= 2 {
			segments = append(segments, b.buildSegment(run, visits, prevVisit, nextVisit))
		} else if len(run) == 1 {
			dropped++
		}
		run = nil
	}

	for _, s := range samples {
		if vi, ok := visitOf[s.ID]; ok {
			if len(run) > 0 {
				closeRun(vi)
			}
			prevVisit = vi
			continue
		}
		run = append(run, s)
	}
	closeRun(-1)

	b.logger.Debug("built route segments",
		zap.Int("samples", len(samples)),
		zap.Int("visits", len(visits)),
		zap.Int("segments", len(segments)),
		zap.Int("dropped_runs", dropped),
	)
	if segments == nil {
		segments = []models.RouteSegment{}
	}
	return segments
}

func (b *SegmentBuilder) buildSegment(run []models.LocationSample, visits []models.PlaceVisit, from, to int) models.RouteSegment {
	first, last := run[0], run[len(run)-1]

	points := make([]spatial.Point, len(run))
	sampleIDs := make([]string, len(run))
	for i, s := range run {
		points[i] = spatial.Point{Lat: s.Latitude, Lon: s.Longitude}
		sampleIDs[i] = s.ID
	}

	distance := spatial.PathLength(points)
	var avgSpeed *float64
	if secs := last.Timestamp.Sub(first.Timestamp).Seconds(); secs > 0 {
		v := distance / secs
		avgSpeed = &v
	}

	simplified := spatial.SimplifyPath(points, b.cfg.SimplifyEpsilonMeters)
	path := make([]models.Coordinate, len(simplified))
	for i, p := range simplified {
		path[i] = models.Coordinate{Latitude: p.Lat, Longitude: p.Lon}
	}

	seg := models.RouteSegment{
		ID:                models.ContentID("segment", first.UserID, first.ID, last.ID),
		UserID:            first.UserID,
		StartTime:         first.Timestamp,
		EndTime:           last.Timestamp,
		LocationSampleIDs: sampleIDs,
		SimplifiedPath:    path,
		TransportType:     b.cfg.Bands.Classify(avgSpeed),
		DistanceMeters:    distance,
		AverageSpeedMps:   avgSpeed,
	}
	if from >= 0 {
		seg.FromPlaceVisitID = visits[from].ID
	}
	if to >= 0 {
		seg.ToPlaceVisitID = visits[to].ID
	}
	return seg
}
