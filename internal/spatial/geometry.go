package spatial

import (
	"github.com/golang/geo/s2"
)

// Point is a WGS84 coordinate in degrees
type Point struct {
	Lat float64
	Lon float64
}

func (p Point) s2Point() s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon))
}

// PathLength sums the great-circle lengths of consecutive legs in meters
func PathLength(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// SimplifyPath simplifies a path using the Ramer-Douglas-Peucker algorithm.
// epsilon is the maximum great-circle distance in meters a dropped point may
// lie from the simplified path. The result is a subsequence of points that
// always keeps the first and last point.
func SimplifyPath(points []Point, epsilon float64) []Point {
	idx := SimplifyIndices(points, epsilon)
	if len(idx) == len(points) {
		return points
	}
	out := make([]Point, len(idx))
	for i, k := range idx {
		out[i] = points[k]
	}
	return out
}

// SimplifyIndices runs Ramer-Douglas-Peucker and returns the indices of the
// retained points in ascending order.
func SimplifyIndices(points []Point, epsilon float64) []int {
	n := len(points)
	if n < 3 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true
	simplifyRange(points, 0, n-1, epsilon, keep)

	idx := make([]int, 0, n)
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	return idx
}

// simplifyRange marks the points of (start, end) that survive simplification.
func simplifyRange(points []Point, start, end int, epsilon float64, keep []bool) {
	if end-start < 2 {
		return
	}

	maxDist := -1.0
	maxIndex := start
	for i := start + 1; i < end; i++ {
		if d := DistanceToSegment(points[i], points[start], points[end]); d > maxDist {
			maxDist = d
			maxIndex = i
		}
	}

	if maxDist > epsilon {
		keep[maxIndex] = true
		simplifyRange(points, start, maxIndex, epsilon, keep)
		simplifyRange(points, maxIndex, end, epsilon, keep)
	}
}
