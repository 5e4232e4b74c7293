package realtime

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

// SessionKey identifies one live tracking session
type SessionKey struct {
	UserID   string
	DeviceID string
}

// Event is a trip or region event tagged with its session.
// Exactly one of Trip and Region is set.
type Event struct {
	UserID   string            `json:"userId"`
	DeviceID string            `json:"deviceId"`
	Trip     *TripEvent        `json:"trip,omitempty"`
	Region   *RegionTransition `json:"region,omitempty"`
}

// Sink receives live events
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// RegionSource returns the geofences configured for a user
type RegionSource interface {
	ListRegions(ctx context.Context, userID string) ([]models.Region, error)
}

type session struct {
	mu       sync.Mutex
	trips    *TripDetector
	regions  *RegionMonitor
	lastSeen time.Time
}

// Manager owns one trip detector and region monitor per session and
// serializes updates within a session.
type Manager struct {
	cfg     DetectorConfig
	source  RegionSource
	sinks   []Sink
	logger  *zap.Logger
	mu      sync.Mutex
	entries map[SessionKey]*session
}

// NewManager creates a session manager. source may be nil.
func NewManager(cfg DetectorConfig, source RegionSource, logger *zap.Logger, sinks ...Sink) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:     cfg,
		source:  source,
		sinks:   sinks,
		logger:  logger,
		entries: make(map[SessionKey]*session),
	}
}

func (m *Manager) session(key SessionKey) *session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.entries[key]
	if !ok {
		s = &session{trips: NewTripDetector(m.cfg)}
		m.entries[key] = s
	}
	return s
}

// loadRegions builds the region monitor of a session; s.mu must be held
func (m *Manager) loadRegions(ctx context.Context, key SessionKey, s *session) error {
	var regions []models.Region
	if m.source != nil {
		var err error
		regions, err = m.source.ListRegions(ctx, key.UserID)
		if err != nil {
			return fmt.Errorf("failed to load regions: %w", err)
		}
	}
	s.regions = NewRegionMonitor(regions)
	return nil
}

// Feed runs samples through the session's detectors in timestamp order
// and publishes the resulting events. It returns the events emitted.
func (m *Manager) Feed(ctx context.Context, key SessionKey, samples []models.LocationSample) ([]Event, error) {
	s := m.session(key)

	sorted := make([]models.LocationSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	s.mu.Lock()
	if s.regions == nil {
		if err := m.loadRegions(ctx, key, s); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	var events []Event
	for _, smp := range sorted {
		if te := s.trips.Update(smp.Latitude, smp.Longitude, smp.Timestamp); te != nil {
			events = append(events, Event{UserID: key.UserID, DeviceID: key.DeviceID, Trip: te})
		}
		for _, rt := range s.regions.Update(smp.Latitude, smp.Longitude, smp.Timestamp) {
			rt := rt
			events = append(events, Event{UserID: key.UserID, DeviceID: key.DeviceID, Region: &rt})
		}
		s.lastSeen = smp.Timestamp
	}
	s.mu.Unlock()

	for _, ev := range events {
		for _, sink := range m.sinks {
			if err := sink.Publish(ctx, ev); err != nil {
				m.logger.Warn("Failed to publish live event",
					zap.String("user_id", key.UserID),
					zap.String("device_id", key.DeviceID),
					zap.Error(err))
			}
		}
	}
	return events, nil
}

// State returns the trip detector state of a session; Idle if unknown
func (m *Manager) State(key SessionKey) State {
	m.mu.Lock()
	s, ok := m.entries[key]
	m.mu.Unlock()
	if !ok {
		return StateIdle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trips.State()
}

// Reset returns a session to Idle without emitting events
func (m *Manager) Reset(key SessionKey) {
	m.mu.Lock()
	s, ok := m.entries[key]
	m.mu.Unlock()
	if !ok {
		return
	}
	s.mu.Lock()
	s.trips.Reset()
	if s.regions != nil {
		s.regions.Reset()
	}
	s.mu.Unlock()
}

// Close drops a session
func (m *Manager) Close(key SessionKey) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// ReloadRegions makes every session of the user reload its geofences on
// the next update. Trip detection state is kept.
func (m *Manager) ReloadRegions(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.entries {
		if key.UserID == userID {
			s.mu.Lock()
			s.regions = nil
			s.mu.Unlock()
		}
	}
}

// Sessions returns the number of open sessions
func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// CloseIdle drops sessions whose last update is older than maxAge
func (m *Manager) CloseIdle(now time.Time, maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	closed := 0
	for key, s := range m.entries {
		s.mu.Lock()
		stale := !s.lastSeen.IsZero() && now.Sub(s.lastSeen) > maxAge
		s.mu.Unlock()
		if stale {
			delete(m.entries, key)
			closed++
		}
	}
	return closed
}
