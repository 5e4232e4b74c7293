package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	// Paris -> London is roughly 343.5 km
	d := HaversineDistance(48.8566, 2.3522, 51.5074, -0.1278)
	assert.InDelta(t, 343_500, d, 1_500)

	assert.Zero(t, HaversineDistance(10, 10, 10, 10))
	assert.InDelta(t, HaversineDistance(1, 2, 3, 4), HaversineDistance(3, 4, 1, 2), 1e-6)
}

func TestBearing(t *testing.T) {
	assert.InDelta(t, 0, Bearing(0, 0, 1, 0), 1e-9)
	assert.InDelta(t, 90, Bearing(0, 0, 0, 1), 1e-9)
	assert.InDelta(t, 180, Bearing(1, 0, 0, 0), 1e-9)
	assert.InDelta(t, 270, Bearing(0, 1, 0, 0), 1e-9)
}

func TestDestinationPointRoundTrip(t *testing.T) {
	lat, lon := DestinationPoint(60.0, 25.0, 45, 1000)
	assert.InDelta(t, 1000, HaversineDistance(60.0, 25.0, lat, lon), 0.5)
	assert.InDelta(t, 45, Bearing(60.0, 25.0, lat, lon), 0.1)
}

func TestDistanceToSegmentAtHighLatitude(t *testing.T) {
	// A point 100 m north of the middle of an east-west segment at 70°N.
	// A planar degrees * 111320 approximation overestimates the segment
	// length and misplaces the point; the spherical distance stays ~100 m.
	a := Point{Lat: 70, Lon: 20}
	b := Point{Lat: 70, Lon: 20.02}
	midLat, midLon := Midpoint(a.Lat, a.Lon, b.Lat, b.Lon)
	pLat, pLon := DestinationPoint(midLat, midLon, 0, 100)

	d := DistanceToSegment(Point{Lat: pLat, Lon: pLon}, a, b)
	assert.InDelta(t, 100, d, 1)
}

func TestDistanceToSegmentDegenerate(t *testing.T) {
	a := Point{Lat: 10, Lon: 10}
	p := Point{Lat: 10.001, Lon: 10}
	assert.InDelta(t, Distance(p, a), DistanceToSegment(p, a, a), 1e-9)
}

func TestSimplifyPathShortInput(t *testing.T) {
	assert.Empty(t, SimplifyPath(nil, 50))
	one := []Point{{Lat: 1, Lon: 1}}
	assert.Equal(t, one, SimplifyPath(one, 50))
	two := []Point{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}
	assert.Equal(t, two, SimplifyPath(two, 50))
}

func TestSimplifyPathStraightLineCollapses(t *testing.T) {
	var pts []Point
	for i := 0; i <= 20; i++ {
		pts = append(pts, Point{Lat: 45, Lon: 7 + float64(i)*0.001})
	}
	out := SimplifyPath(pts, 50)
	require.Len(t, out, 2)
	assert.Equal(t, pts[0], out[0])
	assert.Equal(t, pts[len(pts)-1], out[1])
}

func TestSimplifyPathKeepsCorner(t *testing.T) {
	pts := []Point{
		{Lat: 45.000, Lon: 7.000},
		{Lat: 45.000, Lon: 7.005},
		{Lat: 45.000, Lon: 7.010},
		{Lat: 45.005, Lon: 7.010},
		{Lat: 45.010, Lon: 7.010},
	}
	out := SimplifyPath(pts, 50)
	assert.Equal(t, []Point{pts[0], pts[2], pts[4]}, out)
}

func TestSimplifyPathProperties(t *testing.T) {
	// zig-zag with growing amplitude
	var pts []Point
	for i := 0; i < 200; i++ {
		amp := 0.0001 * float64(i%7) * float64(1+i/50)
		if i%2 == 0 {
			amp = -amp
		}
		pts = append(pts, Point{Lat: 51.5 + amp, Lon: -0.1 + float64(i)*0.0005})
	}

	prev := math.MaxInt
	for _, eps := range []float64{0, 1, 5, 10, 25, 50, 100, 500, 5000} {
		idx := SimplifyIndices(pts, eps)
		require.GreaterOrEqual(t, len(idx), 2)
		assert.Equal(t, 0, idx[0])
		assert.Equal(t, len(pts)-1, idx[len(idx)-1])
		for i := 1; i < len(idx); i++ {
			assert.Less(t, idx[i-1], idx[i], "result must be a subsequence")
		}
		assert.LessOrEqual(t, len(idx), prev, "size must not grow with epsilon (eps=%v)", eps)
		prev = len(idx)
	}
}

func TestPathLength(t *testing.T) {
	assert.Zero(t, PathLength(nil))
	assert.Zero(t, PathLength([]Point{{Lat: 1, Lon: 1}}))

	a, b, c := Point{Lat: 0, Lon: 0}, Point{Lat: 0, Lon: 1}, Point{Lat: 1, Lon: 1}
	assert.InDelta(t, Distance(a, b)+Distance(b, c), PathLength([]Point{a, b, c}), 1e-6)
}

func TestCellsWithinContainsNearbyPoint(t *testing.T) {
	const level = 13
	lat, lon := 48.8566, 2.3522
	nLat, nLon := DestinationPoint(lat, lon, 90, 90)

	cells := CellsWithin(lat, lon, 100, level)
	assert.Contains(t, cells, CellID(nLat, nLon, level))
	assert.Contains(t, cells, CellID(lat, lon, level))
}
