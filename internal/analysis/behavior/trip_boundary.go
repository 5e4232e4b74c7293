package behavior

import (
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/spatial"
)

// TripConfig defines thresholds for trip boundary detection
type TripConfig struct {
	AwayDistanceMeters float64       // visits further than this from home are away
	MinTripDuration    time.Duration // shorter spans are not trips
	SameDayReturnGap   time.Duration // two away spans around one home visit merge when the gap is at most this
}

// DefaultTripConfig returns the default trip detection thresholds
func DefaultTripConfig() TripConfig {
	return TripConfig{
		AwayDistanceMeters: 100_000,
		MinTripDuration:    4 * time.Hour,
		SameDayReturnGap:   12 * time.Hour,
	}
}

// TripDetector delimits away-from-home periods
type TripDetector struct {
	cfg    TripConfig
	logger *zap.Logger
}

// NewTripDetector creates a new trip boundary detector
func NewTripDetector(cfg TripConfig, logger *zap.Logger) *TripDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripDetector{cfg: cfg, logger: logger.Named("trip_detector")}
}

type awaySpan struct {
	first, last int // visit indexes, inclusive
}

// Detect returns the trips found in time-sorted visits. Without a home
// location there are no trips. A trip whose last away visit is the last
// visit overall is ongoing.
func (d *TripDetector) Detect(userID string, visits []models.PlaceVisit, home *HomeLocation) []models.Trip {
	trips := []models.Trip{}
	if home == nil || len(visits) == 0 {
		return trips
	}

	homePoint := spatial.Point{Lat: home.Latitude, Lon: home.Longitude}
	away := make([]bool, len(visits))
	for i, v := range visits {
		away[i] = spatial.Distance(homePoint, spatial.Point{Lat: v.CenterLatitude, Lon: v.CenterLongitude}) > d.cfg.AwayDistanceMeters
	}

	spans := d.mergeSameDayReturns(visits, awaySpans(away))

	for _, span := range spans {
		first, last := visits[span.first], visits[span.last]
		if last.EndTime.Sub(first.StartTime) < d.cfg.MinTripDuration {
			continue
		}

		trip := models.Trip{
			ID:             models.ContentID("trip", userID, strconv.FormatInt(first.StartTime.Unix(), 10)),
			UserID:         userID,
			StartTime:      first.StartTime,
			PrimaryCountry: primaryCountry(visits[span.first:span.last+1], away[span.first:span.last+1]),
		}
		for i := span.first; i <= span.last; i++ {
			if away[i] {
				trip.VisitCount++
			}
		}
		if span.last == len(visits)-1 {
			trip.IsOngoing = true
		} else {
			trip.Close(last.EndTime)
		}
		trips = append(trips, trip)
	}

	d.logger.Debug("detected trips",
		zap.String("user_id", userID),
		zap.Int("visits", len(visits)),
		zap.Int("spans", len(spans)),
		zap.Int("trips", len(trips)),
	)
	return trips
}

func awaySpans(away []bool) []awaySpan {
	var spans []awaySpan
	for i := 0; i < len(away); i++ {
		if !away[i] {
			continue
		}
		j := i
		for j+1 < len(away) && away[j+1] {
			j++
		}
		spans = append(spans, awaySpan{first: i, last: j})
		i = j
	}
	return spans
}

// mergeSameDayReturns joins spans separated by exactly one home visit when
// the time between them is short.
func (d *TripDetector) mergeSameDayReturns(visits []models.PlaceVisit, spans []awaySpan) []awaySpan {
	if len(spans) < 2 {
		return spans
	}
	merged := []awaySpan{spans[0]}
	for _, next := range spans[1:] {
		cur := &merged[len(merged)-1]
		gap := visits[next.first].StartTime.Sub(visits[cur.last].EndTime)
		if next.first-cur.last == 2 && gap <= d.cfg.SameDayReturnGap {
			cur.last = next.last
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// primaryCountry is the country with the most away time
func primaryCountry(visits []models.PlaceVisit, away []bool) string {
	byCountry := make(map[string]time.Duration)
	for i, v := range visits {
		if away[i] && v.CountryCode != "" {
			byCountry[v.CountryCode] += v.Duration()
		}
	}

	countries := make([]string, 0, len(byCountry))
	for c := range byCountry {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	best := ""
	for _, c := range countries {
		if best == "" || byCountry[c] > byCountry[best] {
			best = c
		}
	}
	return best
}
