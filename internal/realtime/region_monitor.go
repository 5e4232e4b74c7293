package realtime

import (
	"time"

	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/spatial"
)

func contains(r models.Region, lat, lon float64) bool {
	return spatial.HaversineDistance(r.Latitude, r.Longitude, lat, lon) <= r.RadiusMeters
}

// TransitionKind is ENTER or EXIT
type TransitionKind string

// TransitionKind constants
const (
	TransitionEnter TransitionKind = "ENTER"
	TransitionExit  TransitionKind = "EXIT"
)

// RegionTransition is emitted when a location crosses a region boundary
type RegionTransition struct {
	RegionID  string         `json:"regionId"`
	Kind      TransitionKind `json:"kind"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Timestamp time.Time      `json:"timestamp"`
}

// RegionMonitor tracks which regions contain the latest location.
// Not safe for concurrent use.
type RegionMonitor struct {
	regions []models.Region
	inside  map[string]bool
	primed  bool
}

// NewRegionMonitor creates a monitor for the given regions
func NewRegionMonitor(regions []models.Region) *RegionMonitor {
	return &RegionMonitor{regions: regions, inside: make(map[string]bool)}
}

// Update feeds one location. The first update only establishes which
// regions the user is in and emits nothing.
func (m *RegionMonitor) Update(lat, lon float64, ts time.Time) []RegionTransition {
	var out []RegionTransition
	for _, r := range m.regions {
		now := contains(r, lat, lon)
		was := m.inside[r.ID]
		m.inside[r.ID] = now
		if !m.primed || now == was {
			continue
		}
		kind := TransitionExit
		if now {
			kind = TransitionEnter
		}
		out = append(out, RegionTransition{RegionID: r.ID, Kind: kind, Latitude: lat, Longitude: lon, Timestamp: ts})
	}
	m.primed = true
	return out
}

// Inside returns the ids of the regions containing the latest location
func (m *RegionMonitor) Inside() []string {
	var ids []string
	for _, r := range m.regions {
		if m.inside[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Reset forgets the current state
func (m *RegionMonitor) Reset() {
	m.inside = make(map[string]bool)
	m.primed = false
}
