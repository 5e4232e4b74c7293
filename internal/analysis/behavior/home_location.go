package behavior

import (
	"time"

	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/spatial"
)

// HomeConfig defines thresholds for home location detection
type HomeConfig struct {
	ClusterRadiusMeters float64
	MinNights           int
	NightStartHour      int           // local hour a night begins, e.g. 22
	NightEndHour        int           // local hour a night ends the next day, e.g. 6
	MinNightOverlap     time.Duration // overlap with the night window that counts as an overnight dwell
	Location            *time.Location
}

// DefaultHomeConfig returns the default home detection thresholds
func DefaultHomeConfig() HomeConfig {
	return HomeConfig{
		ClusterRadiusMeters: 500,
		MinNights:           3,
		NightStartHour:      22,
		NightEndHour:        6,
		MinNightOverlap:     3 * time.Hour,
		Location:            time.UTC,
	}
}

// HomeLocation is the detected home base
type HomeLocation struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Nights     int     `json:"nights"`
	Confidence float64 `json:"confidence"` // share of all counted nights spent at home
}

// Coordinate returns the home position
func (h HomeLocation) Coordinate() models.Coordinate {
	return models.Coordinate{Latitude: h.Latitude, Longitude: h.Longitude}
}

type visitCluster struct {
	center spatial.Point
	visits []models.PlaceVisit
}

func (c *visitCluster) add(v models.PlaceVisit) {
	c.visits = append(c.visits, v)
	n := float64(len(c.visits))
	c.center.Lat += (v.CenterLatitude - c.center.Lat) / n
	c.center.Lon += (v.CenterLongitude - c.center.Lon) / n
}

// ZoneLocator picks the time zone of a coordinate
type ZoneLocator interface {
	Locate(lat, lon float64) *time.Location
}

// HomeDetector finds the place the user spends most nights at
type HomeDetector struct {
	cfg    HomeConfig
	zones  ZoneLocator
	logger *zap.Logger
}

// NewHomeDetector creates a new home location detector. Nights at a place
// are counted in the zone zones reports for it; cfg.Location is used when
// zones is nil or has no answer.
func NewHomeDetector(cfg HomeConfig, zones ZoneLocator, logger *zap.Logger) *HomeDetector {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HomeDetector{cfg: cfg, zones: zones, logger: logger.Named("home_detector")}
}

// Detect returns the home location, or nil when no place reaches MinNights.
func (d *HomeDetector) Detect(visits []models.PlaceVisit) *HomeLocation {
	clusters := d.cluster(visits)

	var best *visitCluster
	bestNights := 0
	totalNights := 0
	for _, c := range clusters {
		n := d.countNights(c.visits, d.locationOf(c.center))
		totalNights += n
		if n > bestNights {
			best, bestNights = c, n
		}
	}

	if best == nil || bestNights < d.cfg.MinNights {
		d.logger.Debug("no home location found",
			zap.Int("visits", len(visits)),
			zap.Int("clusters", len(clusters)),
			zap.Int("best_nights", bestNights),
		)
		return nil
	}

	return &HomeLocation{
		Latitude:   best.center.Lat,
		Longitude:  best.center.Lon,
		Nights:     bestNights,
		Confidence: float64(bestNights) / float64(totalNights),
	}
}

// cluster greedily assigns each visit to the nearest cluster within the radius.
func (d *HomeDetector) cluster(visits []models.PlaceVisit) []*visitCluster {
	var clusters []*visitCluster
	for _, v := range visits {
		p := spatial.Point{Lat: v.CenterLatitude, Lon: v.CenterLongitude}

		var nearest *visitCluster
		nearestDist := d.cfg.ClusterRadiusMeters
		for _, c := range clusters {
			if dist := spatial.Distance(c.center, p); dist <= nearestDist {
				nearest, nearestDist = c, dist
			}
		}
		if nearest == nil {
			nearest = &visitCluster{}
			clusters = append(clusters, nearest)
		}
		nearest.add(v)
	}
	return clusters
}

func (d *HomeDetector) locationOf(p spatial.Point) *time.Location {
	if d.zones != nil {
		if loc := d.zones.Locate(p.Lat, p.Lon); loc != nil {
			return loc
		}
	}
	return d.cfg.Location
}

// countNights counts distinct nights in loc, named by the date of their evening.
func (d *HomeDetector) countNights(visits []models.PlaceVisit, loc *time.Location) int {
	nights := make(map[string]struct{})
	for _, v := range visits {
		for _, night := range d.nightsOf(v, loc) {
			nights[night] = struct{}{}
		}
	}
	return len(nights)
}

func (d *HomeDetector) nightsOf(v models.PlaceVisit, loc *time.Location) []string {
	start := v.StartTime.In(loc)
	end := v.EndTime.In(loc)

	var out []string
	day := time.Date(start.Year(), start.Month(), start.Day()-1, 0, 0, 0, 0, loc)
	for !day.After(end) {
		midnight := day.AddDate(0, 0, 1)
		windowStart := time.Date(day.Year(), day.Month(), day.Day(), d.cfg.NightStartHour, 0, 0, 0, loc)
		windowEnd := time.Date(midnight.Year(), midnight.Month(), midnight.Day(), d.cfg.NightEndHour, 0, 0, 0, loc)

		spansMidnight := start.Before(midnight) && !end.Before(midnight)
		if spansMidnight || overlap(start, end, windowStart, windowEnd) >= d.cfg.MinNightOverlap {
			out = append(out, day.Format("2006-01-02"))
		}
		day = midnight
	}
	return out
}

func overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if end.Before(start) {
		return 0
	}
	return end.Sub(start)
}
