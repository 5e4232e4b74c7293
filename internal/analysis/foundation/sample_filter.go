package foundation

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/spatial"
)

// FilterConfig defines configurable thresholds for sample filtering
type FilterConfig struct {
	MaxAccuracyMeters  float64       // samples less accurate than this are dropped
	MinTimeBetween     time.Duration // density filter: minimum spacing in time...
	MinDistanceMeters  float64       // ...unless the sample moved further than this
	MaxSpeedMps        float64       // implied speed to the last accepted sample
	StaticRadiusMeters float64       // static thinning radius around the anchor
	StaticWindow       int           // number of following samples checked against the anchor
}

// DefaultFilterConfig returns the default sample filter thresholds
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MaxAccuracyMeters:  100,
		MinTimeBetween:     5 * time.Second,
		MinDistanceMeters:  10,
		MaxSpeedMps:        150, // ~540 km/h
		StaticRadiusMeters: 20,
		StaticWindow:       10,
	}
}

// FilterStats counts samples removed by each stage
type FilterStats struct {
	Input       int
	LowAccuracy int
	Duplicate   int
	TooFast     int
	Static      int
	Output      int
}

// SampleFilter removes inaccurate, duplicate, speed-impossible and redundant
// static samples before clustering.
type SampleFilter struct {
	cfg    FilterConfig
	logger *zap.Logger
}

// NewSampleFilter creates a new sample filter
func NewSampleFilter(cfg FilterConfig, logger *zap.Logger) *SampleFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SampleFilter{cfg: cfg, logger: logger.Named("sample_filter")}
}

// Filter returns the surviving samples sorted by timestamp. The input slice is not modified.
func (f *SampleFilter) Filter(samples []models.LocationSample) []models.LocationSample {
	out, _ := f.FilterWithStats(samples)
	return out
}

// FilterWithStats is Filter plus per-stage counts.
func (f *SampleFilter) FilterWithStats(samples []models.LocationSample) ([]models.LocationSample, FilterStats) {
	stats := FilterStats{Input: len(samples)}
	if len(samples) == 0 {
		return []models.LocationSample{}, stats
	}

	sorted := make([]models.LocationSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	accurate := f.filterAccuracy(sorted)
	stats.LowAccuracy = len(sorted) - len(accurate)
	if len(accurate) < 2 {
		stats.Output = len(accurate)
		return accurate, stats
	}

	dense := f.filterDuplicates(accurate)
	stats.Duplicate = len(accurate) - len(dense)

	plausible := f.filterSpeed(dense)
	stats.TooFast = len(dense) - len(plausible)

	thinned := f.thinStatic(plausible)
	stats.Static = len(plausible) - len(thinned)
	stats.Output = len(thinned)

	f.logger.Debug("filtered samples",
		zap.Int("input", stats.Input),
		zap.Int("low_accuracy", stats.LowAccuracy),
		zap.Int("duplicate", stats.Duplicate),
		zap.Int("too_fast", stats.TooFast),
		zap.Int("static", stats.Static),
		zap.Int("output", stats.Output),
	)
	return thinned, stats
}

func (f *SampleFilter) filterAccuracy(samples []models.LocationSample) []models.LocationSample {
	out := make([]models.LocationSample, 0, len(samples))
	for _, s := range samples {
		if s.Accuracy <= f.cfg.MaxAccuracyMeters {
			out = append(out, s)
		}
	}
	return out
}

// filterDuplicates keeps a sample when enough time passed or it moved far enough
// relative to the previously kept sample.
func (f *SampleFilter) filterDuplicates(samples []models.LocationSample) []models.LocationSample {
	out := []models.LocationSample{samples[0]}
	for _, s := range samples[1:] {
		prev := out[len(out)-1]
		if s.Timestamp.Sub(prev.Timestamp) >= f.cfg.MinTimeBetween ||
			sampleDistance(prev, s) > f.cfg.MinDistanceMeters {
			out = append(out, s)
		}
	}
	return out
}

// filterSpeed compares against the last accepted sample so that one bad fix
// does not cause its successors to be rejected too.
func (f *SampleFilter) filterSpeed(samples []models.LocationSample) []models.LocationSample {
	out := []models.LocationSample{samples[0]}
	for _, s := range samples[1:] {
		last := out[len(out)-1]
		dt := s.Timestamp.Sub(last.Timestamp).Seconds()
		d := sampleDistance(last, s)
		if dt <= 0 || d/dt > f.cfg.MaxSpeedMps {
			continue
		}
		out = append(out, s)
	}
	return out
}

// thinStatic keeps only the anchor when the following window of samples all
// lie within the static radius of it.
func (f *SampleFilter) thinStatic(samples []models.LocationSample) []models.LocationSample {
	window := f.cfg.StaticWindow
	if window <= 0 {
		return samples
	}

	out := make([]models.LocationSample, 0, len(samples))
	i := 0
	for i < len(samples) {
		anchor := samples[i]
		out = append(out, anchor)

		end := i + window
		if end > len(samples)-1 {
			end = len(samples) - 1
		}
		if end == i {
			break
		}

		static := true
		for j := i + 1; j <= end; j++ {
			if sampleDistance(anchor, samples[j]) > f.cfg.StaticRadiusMeters {
				static = false
				break
			}
		}
		if static {
			i = end + 1
		} else {
			i++
		}
	}
	return out
}

func sampleDistance(a, b models.LocationSample) float64 {
	return spatial.HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}
