package visit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/spatial"
)

// Geocoder resolves a coordinate to an address. Implementations may be
// network bound; a nil result with nil error means nothing was found.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*models.GeocodedLocation, error)
}

// Config defines thresholds for visit detection
type Config struct {
	SpatialThresholdMeters float64       // max distance to the last sample of the cluster
	MinDuration            time.Duration // shorter clusters are discarded
}

// DefaultConfig returns the default visit detection thresholds
func DefaultConfig() Config {
	return Config{
		SpatialThresholdMeters: 100,
		MinDuration:            10 * time.Minute,
	}
}

// Detector clusters filtered samples into place visits.
// Clustering is a single sequential pass: a sample joins the current cluster
// when it is within the spatial threshold of the cluster's last sample.
type Detector struct {
	cfg      Config
	geocoder Geocoder
	logger   *zap.Logger
}

// NewDetector creates a visit detector. geocoder may be nil, in which case
// visits carry no address.
func NewDetector(cfg Config, geocoder Geocoder, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{cfg: cfg, geocoder: geocoder, logger: logger.Named("visit_detector")}
}

// Detect returns visits for time-sorted samples. Geocoding failures are
// logged and leave the address fields empty; only context cancellation
// aborts detection.
func (d *Detector) Detect(ctx context.Context, samples []models.LocationSample) ([]models.PlaceVisit, error) {
	clusters := d.Cluster(samples)
	visits := make([]models.PlaceVisit, 0, len(clusters))

	for _, cluster := range clusters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v := buildVisit(cluster)
		d.geocode(ctx, &v)
		visits = append(visits, v)
	}

	d.logger.Debug("detected visits",
		zap.Int("samples", len(samples)),
		zap.Int("visits", len(visits)),
	)
	return visits, nil
}

// Cluster returns the sample clusters that last at least MinDuration.
func (d *Detector) Cluster(samples []models.LocationSample) [][]models.LocationSample {
	var out [][]models.LocationSample
	var current []models.LocationSample

	flush := func() {
		if len(current) == 0 {
			return
		}
		duration := current[len(current)-1].Timestamp.Sub(current[0].Timestamp)
		if duration >= d.cfg.MinDuration {
			out = append(out, current)
		}
		current = nil
	}

	for _, s := range samples {
		if len(current) > 0 {
			last := current[len(current)-1]
			dist := spatial.HaversineDistance(last.Latitude, last.Longitude, s.Latitude, s.Longitude)
			if dist >= d.cfg.SpatialThresholdMeters {
				flush()
			}
		}
		current = append(current, s)
	}
	flush()

	return out
}

func (d *Detector) geocode(ctx context.Context, v *models.PlaceVisit) {
	if d.geocoder == nil {
		return
	}
	loc, err := d.geocoder.ReverseGeocode(ctx, v.CenterLatitude, v.CenterLongitude)
	if err != nil {
		d.logger.Warn("reverse geocoding failed, keeping visit without address",
			zap.String("visit_id", v.ID),
			zap.Float64("lat", v.CenterLatitude),
			zap.Float64("lon", v.CenterLongitude),
			zap.Error(err),
		)
		return
	}
	v.ApplyGeocode(loc)
}

func buildVisit(cluster []models.LocationSample) models.PlaceVisit {
	first, last := cluster[0], cluster[len(cluster)-1]

	var sumLat, sumLon float64
	sampleIDs := make([]string, len(cluster))
	for i, s := range cluster {
		sumLat += s.Latitude
		sumLon += s.Longitude
		sampleIDs[i] = s.ID
	}
	n := float64(len(cluster))

	return models.PlaceVisit{
		ID:                models.ContentID("visit", first.UserID, first.ID, last.ID),
		UserID:            first.UserID,
		StartTime:         first.Timestamp,
		EndTime:           last.Timestamp,
		CenterLatitude:    sumLat / n,
		CenterLongitude:   sumLon / n,
		LocationSampleIDs: sampleIDs,
	}
}
