package visit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

type fakeGeocoder struct {
	calls int
	err   error
}

func (g *fakeGeocoder) ReverseGeocode(_ context.Context, lat, lon float64) (*models.GeocodedLocation, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &models.GeocodedLocation{
		Latitude:         lat,
		Longitude:        lon,
		FormattedAddress: "1 Main St",
		City:             "Springfield",
		CountryCode:      "US",
	}, nil
}

// dwell produces n samples one minute apart around (lat, lon)
func dwell(prefix string, start time.Time, n int, lat, lon float64) []models.LocationSample {
	out := make([]models.LocationSample, n)
	for i := range out {
		out[i] = models.LocationSample{
			ID:        fmt.Sprintf("%s-%d", prefix, i),
			UserID:    "user-1",
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Latitude:  lat + float64(i%2)*0.0001,
			Longitude: lon,
			Accuracy:  10,
		}
	}
	return out
}

func TestDetectClustersAndGeocodes(t *testing.T) {
	g := &fakeGeocoder{}
	d := NewDetector(DefaultConfig(), g, nil)

	var samples []models.LocationSample
	samples = append(samples, dwell("home", t0, 31, 40.0, -75.0)...)                      // 30 min
	samples = append(samples, dwell("shop", t0.Add(40*time.Minute), 21, 40.05, -75.0)...) // 20 min

	visits, err := d.Detect(context.Background(), samples)
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, 2, g.calls)

	home := visits[0]
	assert.Equal(t, t0, home.StartTime)
	assert.Equal(t, t0.Add(30*time.Minute), home.EndTime)
	assert.Len(t, home.LocationSampleIDs, 31)
	assert.InDelta(t, 40.0+15.0/31*0.0001, home.CenterLatitude, 1e-9)
	assert.Equal(t, "Springfield", home.City)
	assert.Equal(t, "US", home.CountryCode)
}

func TestDetectMinDurationBoundary(t *testing.T) {
	d := NewDetector(DefaultConfig(), nil, nil)

	exact := dwell("exact", t0, 11, 10, 10) // exactly 10 minutes
	short := dwell("short", t0.Add(time.Hour), 10, 10.5, 10)

	visits, err := d.Detect(context.Background(), append(exact, short...))
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, 10*time.Minute, visits[0].Duration())
	for _, v := range visits {
		assert.GreaterOrEqual(t, v.Duration(), DefaultConfig().MinDuration)
	}
}

func TestDetectComparesAgainstLastSample(t *testing.T) {
	d := NewDetector(DefaultConfig(), nil, nil)

	// a slow drift: each step is 50 m, so the cluster keeps growing even
	// though the end is far from the start
	var samples []models.LocationSample
	for i := 0; i < 20; i++ {
		samples = append(samples, models.LocationSample{
			ID:        fmt.Sprintf("d-%d", i),
			Timestamp: t0.Add(time.Duration(i) * time.Minute),
			Latitude:  50 + float64(i)*0.00045,
			Longitude: 8,
		})
	}

	visits, err := d.Detect(context.Background(), samples)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Len(t, visits[0].LocationSampleIDs, 20)
}

func TestDetectGeocodingFailureKeepsVisit(t *testing.T) {
	d := NewDetector(DefaultConfig(), &fakeGeocoder{err: errors.New("boom")}, nil)

	visits, err := d.Detect(context.Background(), dwell("x", t0, 15, 1, 1))
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.False(t, visits[0].HasAddress())
}

func TestDetectDeterministicIDs(t *testing.T) {
	d := NewDetector(DefaultConfig(), nil, nil)
	samples := dwell("x", t0, 15, 1, 1)

	a, err := d.Detect(context.Background(), samples)
	require.NoError(t, err)
	b, err := d.Detect(context.Background(), samples)
	require.NoError(t, err)
	assert.Equal(t, a[0].ID, b[0].ID)
}

func TestDetectCancelled(t *testing.T) {
	d := NewDetector(DefaultConfig(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Detect(ctx, dwell("x", t0, 15, 1, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectEmpty(t *testing.T) {
	d := NewDetector(DefaultConfig(), nil, nil)
	visits, err := d.Detect(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, visits)
}
