package realtime

import (
	"time"

	"github.com/po4yka/trailglass-sub007/internal/spatial"
)

// DetectorConfig defines thresholds for live trip detection
type DetectorConfig struct {
	MinTripDistanceMeters  float64       // displacement from the anchor that may start a trip
	MinTripDuration        time.Duration // how long the displacement must last
	StationaryRadiusMeters float64       // radius that counts as standing still while on a trip
	StationaryDuration     time.Duration // how long standing still ends a trip
}

// DefaultDetectorConfig returns the default live trip detection thresholds
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MinTripDistanceMeters:  50,
		MinTripDuration:        2 * time.Minute,
		StationaryRadiusMeters: 20,
		StationaryDuration:     3 * time.Minute,
	}
}

// State is the detector state
type State string

// State constants
const (
	StateIdle   State = "IDLE"
	StateOnTrip State = "ON_TRIP"
)

// TripEventKind is the kind of a trip event
type TripEventKind string

// TripEventKind constants
const (
	TripStarted TripEventKind = "TRIP_STARTED"
	TripEnded   TripEventKind = "TRIP_ENDED"
)

// TripEvent is emitted on every state transition
type TripEvent struct {
	Kind      TripEventKind `json:"kind"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Timestamp time.Time     `json:"timestamp"`
}

type anchor struct {
	point spatial.Point
	since time.Time
}

// TripDetector is a streaming state machine that detects trip start and
// end from live locations. It must be fed in time order and is not safe
// for concurrent use.
type TripDetector struct {
	cfg   DetectorConfig
	state State

	anchor      *anchor    // Idle: where the user was last settled
	displacedAt *time.Time // Idle: when the user first left the anchor
	stationary  *anchor    // OnTrip: where the user may be stopping
	last        time.Time
}

// NewTripDetector creates a detector in the Idle state
func NewTripDetector(cfg DetectorConfig) *TripDetector {
	return &TripDetector{cfg: cfg, state: StateIdle}
}

// State returns the current state
func (d *TripDetector) State() State {
	return d.state
}

// Update feeds one location and returns the event it triggers, if any.
// Locations older than the previous one are ignored.
func (d *TripDetector) Update(lat, lon float64, ts time.Time) *TripEvent {
	if !d.last.IsZero() && ts.Before(d.last) {
		return nil
	}
	d.last = ts
	p := spatial.Point{Lat: lat, Lon: lon}

	if d.state == StateOnTrip {
		return d.updateOnTrip(p, ts)
	}
	return d.updateIdle(p, ts)
}

func (d *TripDetector) updateIdle(p spatial.Point, ts time.Time) *TripEvent {
	if d.anchor == nil {
		d.anchor = &anchor{point: p, since: ts}
		return nil
	}

	if spatial.Distance(d.anchor.point, p) <= d.cfg.MinTripDistanceMeters {
		if d.displacedAt != nil {
			// came back before the trip was confirmed
			d.anchor = &anchor{point: p, since: ts}
			d.displacedAt = nil
		}
		return nil
	}

	if d.displacedAt == nil {
		d.displacedAt = &ts
	}
	if ts.Sub(*d.displacedAt) < d.cfg.MinTripDuration {
		return nil
	}

	d.state = StateOnTrip
	d.anchor = nil
	d.displacedAt = nil
	d.stationary = &anchor{point: p, since: ts}
	return &TripEvent{Kind: TripStarted, Latitude: p.Lat, Longitude: p.Lon, Timestamp: ts}
}

func (d *TripDetector) updateOnTrip(p spatial.Point, ts time.Time) *TripEvent {
	if spatial.Distance(d.stationary.point, p) > d.cfg.StationaryRadiusMeters {
		d.stationary = &anchor{point: p, since: ts}
		return nil
	}
	if ts.Sub(d.stationary.since) < d.cfg.StationaryDuration {
		return nil
	}

	d.state = StateIdle
	d.stationary = nil
	d.anchor = &anchor{point: p, since: ts}
	return &TripEvent{Kind: TripEnded, Latitude: p.Lat, Longitude: p.Lon, Timestamp: ts}
}

// Reset clears all anchors and returns to Idle without emitting an event
func (d *TripDetector) Reset() {
	*d = TripDetector{cfg: d.cfg, state: StateIdle}
}
