package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

func office() models.Region {
	return models.Region{ID: "office", Name: "Office", Latitude: baseLat, Longitude: baseLon, RadiusMeters: 100}
}

func TestRegionMonitorFirstUpdateEstablishesState(t *testing.T) {
	m := NewRegionMonitor([]models.Region{office()})
	assert.Empty(t, m.Update(baseLat, baseLon, t0))
	assert.Equal(t, []string{"office"}, m.Inside())
}

func TestRegionMonitorEnterExit(t *testing.T) {
	m := NewRegionMonitor([]models.Region{office()})
	lat, lon := walk(500)
	assert.Empty(t, m.Update(lat, lon, t0))

	out := m.Update(baseLat, baseLon, t0.Add(time.Minute))
	require.Len(t, out, 1)
	assert.Equal(t, TransitionEnter, out[0].Kind)
	assert.Equal(t, "office", out[0].RegionID)

	lat, lon = walk(50)
	assert.Empty(t, m.Update(lat, lon, t0.Add(2*time.Minute)))

	lat, lon = walk(150)
	out = m.Update(lat, lon, t0.Add(3*time.Minute))
	require.Len(t, out, 1)
	assert.Equal(t, TransitionExit, out[0].Kind)
}

func TestRegionMonitorReset(t *testing.T) {
	m := NewRegionMonitor([]models.Region{office()})
	lat, lon := walk(500)
	m.Update(lat, lon, t0)
	m.Reset()
	assert.Empty(t, m.Update(baseLat, baseLon, t0.Add(time.Minute)))
}
