package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/po4yka/trailglass-sub007/internal/spatial"
)

var t0 = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

const baseLat, baseLon = 52.52, 13.405

// walk returns a point dist meters east of the base
func walk(dist float64) (float64, float64) {
	return spatial.DestinationPoint(baseLat, baseLon, 90, dist)
}

func feed(d *TripDetector, dist float64, at time.Duration) *TripEvent {
	lat, lon := walk(dist)
	return d.Update(lat, lon, t0.Add(at))
}

func TestDetectorStationaryNeverStarts(t *testing.T) {
	d := NewTripDetector(DefaultDetectorConfig())
	for i := 0; i < 120; i++ {
		// gps jitter within 15 m
		jitter := float64(i%4) * 5
		assert.Nil(t, feed(d, jitter, time.Duration(i)*30*time.Second))
	}
	assert.Equal(t, StateIdle, d.State())
}

func TestDetectorStartAndEnd(t *testing.T) {
	d := NewTripDetector(DefaultDetectorConfig())
	require.Nil(t, feed(d, 0, 0))

	var events []*TripEvent
	// move away at 3 m/s for 5 minutes
	for s := 10; s <= 300; s += 10 {
		if ev := feed(d, float64(s)*3, time.Duration(s)*time.Second); ev != nil {
			events = append(events, ev)
		}
	}
	require.Len(t, events, 1)
	assert.Equal(t, TripStarted, events[0].Kind)
	assert.Equal(t, StateOnTrip, d.State())

	// displacement began at 20 s (first point beyond 50 m), so the start
	// fires once two minutes have passed
	assert.Equal(t, t0.Add(140*time.Second), events[0].Timestamp)

	// stop and hold for 4 minutes
	events = nil
	for s := 310; s <= 550; s += 10 {
		if ev := feed(d, 900, time.Duration(s)*time.Second); ev != nil {
			events = append(events, ev)
		}
	}
	require.Len(t, events, 1)
	assert.Equal(t, TripEnded, events[0].Kind)
	assert.Equal(t, t0.Add(480*time.Second), events[0].Timestamp)
	assert.Equal(t, StateIdle, d.State())
}

func TestDetectorShortExcursionResetsAnchor(t *testing.T) {
	d := NewTripDetector(DefaultDetectorConfig())
	require.Nil(t, feed(d, 0, 0))
	assert.Nil(t, feed(d, 80, 30*time.Second))
	assert.Nil(t, feed(d, 10, 60*time.Second)) // back before the duration elapsed

	// new anchor is at 10 m, 40 m is within range of it
	assert.Nil(t, feed(d, 40, 10*time.Minute))
	assert.Equal(t, StateIdle, d.State())
}

func TestDetectorAlternatesEvents(t *testing.T) {
	d := NewTripDetector(DefaultDetectorConfig())
	var kinds []TripEventKind
	at := time.Duration(0)
	pos := 0.0
	step := func(dist float64) {
		if ev := feed(d, dist, at); ev != nil {
			kinds = append(kinds, ev.Kind)
		}
		at += 20 * time.Second
	}

	for trip := 0; trip < 3; trip++ {
		for i := 0; i < 20; i++ {
			pos += 40
			step(pos)
		}
		for i := 0; i < 15; i++ {
			step(pos)
		}
	}

	require.Len(t, kinds, 6)
	for i, k := range kinds {
		if i%2 == 0 {
			assert.Equal(t, TripStarted, k)
		} else {
			assert.Equal(t, TripEnded, k)
		}
	}
}

func TestDetectorResetEmitsNothing(t *testing.T) {
	d := NewTripDetector(DefaultDetectorConfig())
	feed(d, 0, 0)
	for s := 10; s <= 300; s += 10 {
		feed(d, float64(s)*3, time.Duration(s)*time.Second)
	}
	require.Equal(t, StateOnTrip, d.State())

	d.Reset()
	assert.Equal(t, StateIdle, d.State())
	assert.Nil(t, feed(d, 0, 400*time.Second))
}

func TestDetectorIgnoresOutOfOrder(t *testing.T) {
	d := NewTripDetector(DefaultDetectorConfig())
	feed(d, 0, time.Minute)
	assert.Nil(t, feed(d, 5000, 0))
	assert.Nil(t, d.displacedAt)
}
