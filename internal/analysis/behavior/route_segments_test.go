package behavior

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/spatial"
)

var (
	home       = spatial.Point{Lat: 48.8566, Lon: 2.3522}
	station    = spatial.Point{Lat: 48.8443, Lon: 2.3744}
	landmark   = spatial.Point{Lat: 49.4431, Lon: 1.0993}
	restaurant = spatial.Point{Lat: 49.4400, Lon: 1.0900}
)

// oneDay builds the classic day: home, station, landmark, restaurant, home,
// with a movement run between each pair of visits.
func oneDay() ([]models.LocationSample, []models.PlaceVisit) {
	h := func(x float64) time.Time { return day0.Add(hours(x)) }

	homeAM := stay("home-am", home, h(7), h(9), 10*time.Minute)
	toStation := leg("walk", home, station, h(9), h(9.5), 5)
	atStation := stay("station", station, h(9.5), h(10), 5*time.Minute)
	toLandmark := leg("train", station, landmark, h(10), h(11), 11)
	atLandmark := stay("landmark", landmark, h(11), h(14), 10*time.Minute)
	toRestaurant := leg("stroll", landmark, restaurant, h(14), h(14.25), 4)
	atRestaurant := stay("restaurant", restaurant, h(14.25), h(15.75), 10*time.Minute)
	toHome := leg("drive", restaurant, home, h(15.75), h(17.75), 20)
	homePM := stay("home-pm", home, h(17.75), h(23.75), 15*time.Minute)

	var samples []models.LocationSample
	for _, part := range [][]models.LocationSample{
		homeAM, toStation, atStation, toLandmark, atLandmark,
		toRestaurant, atRestaurant, toHome, homePM,
	} {
		samples = append(samples, part...)
	}

	visits := []models.PlaceVisit{
		visitOf("v-home-am", homeAM),
		visitOf("v-station", atStation),
		visitOf("v-landmark", atLandmark),
		visitOf("v-restaurant", atRestaurant),
		visitOf("v-home-pm", homePM),
	}
	return samples, visits
}

func TestBuildFiveVisitDay(t *testing.T) {
	samples, visits := oneDay()
	b := NewSegmentBuilder(DefaultSegmentConfig(), nil)

	segments := b.Build(samples, visits)
	require.Len(t, segments, 4)

	bands := DefaultSpeedBands()
	for i, seg := range segments {
		assert.Greater(t, seg.DistanceMeters, 0.0)
		require.NotNil(t, seg.AverageSpeedMps)
		assert.Equal(t, bands.Classify(seg.AverageSpeedMps), seg.TransportType)
		assert.GreaterOrEqual(t, len(seg.SimplifiedPath), 2)
		assert.Equal(t, visits[i].ID, seg.FromPlaceVisitID)
		assert.Equal(t, visits[i+1].ID, seg.ToPlaceVisitID)
		assert.True(t, seg.StartTime.Before(seg.EndTime))
	}

	assert.Equal(t, models.TransportWalk, segments[0].TransportType)
	assert.Equal(t, models.TransportCar, segments[1].TransportType)
}

func TestBuildSampleRoundTrip(t *testing.T) {
	samples, visits := oneDay()
	segments := NewSegmentBuilder(DefaultSegmentConfig(), nil).Build(samples, visits)

	var got []string
	for _, v := range visits {
		got = append(got, v.LocationSampleIDs...)
	}
	for _, s := range segments {
		got = append(got, s.LocationSampleIDs...)
	}

	want := make([]string, len(samples))
	for i, s := range samples {
		want[i] = s.ID
	}
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got)
}

func TestBuildEdgeRuns(t *testing.T) {
	h := func(x float64) time.Time { return day0.Add(hours(x)) }
	before := leg("before", landmark, home, h(5), h(7), 6)
	atHome := stay("home", home, h(7), h(9), 30*time.Minute)
	lone := leg("lone", home, station, h(9), h(9.1), 1)
	atStation := stay("station", station, h(9.1), h(10), 10*time.Minute)
	after := leg("after", station, home, h(10), h(10.5), 3)

	var samples []models.LocationSample
	for _, part := range [][]models.LocationSample{before, atHome, lone, atStation, after} {
		samples = append(samples, part...)
	}
	visits := []models.PlaceVisit{visitOf("v-home", atHome), visitOf("v-station", atStation)}

	segments := NewSegmentBuilder(DefaultSegmentConfig(), nil).Build(samples, visits)
	require.Len(t, segments, 2, "a single-sample run is not a segment")

	assert.Empty(t, segments[0].FromPlaceVisitID)
	assert.Equal(t, "v-home", segments[0].ToPlaceVisitID)
	assert.Equal(t, "v-station", segments[1].FromPlaceVisitID)
	assert.Empty(t, segments[1].ToPlaceVisitID)
}

func TestBuildZeroDurationHasNoSpeed(t *testing.T) {
	ts := day0.Add(hours(12))
	samples := []models.LocationSample{
		{ID: "a", Timestamp: ts, Latitude: 1, Longitude: 1},
		{ID: "b", Timestamp: ts, Latitude: 1.001, Longitude: 1},
	}
	segments := NewSegmentBuilder(DefaultSegmentConfig(), nil).Build(samples, nil)
	require.Len(t, segments, 1)
	assert.Nil(t, segments[0].AverageSpeedMps)
	assert.Equal(t, models.TransportUnknown, segments[0].TransportType)
}

func TestBuildNoSamples(t *testing.T) {
	segments := NewSegmentBuilder(DefaultSegmentConfig(), nil).Build(nil, nil)
	assert.NotNil(t, segments)
	assert.Empty(t, segments)
}
