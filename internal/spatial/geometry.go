package spatial

import (
	"github.com/paulmach/orb"
)

// PolygonContains reports whether point lies strictly inside polygon.
// Points on the outer ring or on a hole boundary are not contained.
// Coordinates are compared as planar lon/lat degrees.
func PolygonContains(polygon orb.Polygon, point orb.Point) bool {
	if len(polygon) == 0 {
		return false
	}

	for _, ring := range polygon {
		if OnRing(ring, point) {
			return false
		}
	}

	if !RingContains(polygon[0], point) {
		return false
	}

	for _, hole := range polygon[1:] {
		if RingContains(hole, point) {
			return false
		}
	}

	return true
}

// RingContains checks if a point is inside a ring using ray casting.
// The result for points exactly on the ring is unspecified; callers that
// need boundary exclusion check OnRing first.
func RingContains(ring orb.Ring, point orb.Point) bool {
	if len(ring) < 3 {
		return false
	}

	inside := false
	j := len(ring) - 1

	for i := 0; i < len(ring); i++ {
		pi, pj := ring[i], ring[j]
		if ((pi.Lat() > point.Lat()) != (pj.Lat() > point.Lat())) &&
			(point.Lon() < (pj.Lon()-pi.Lon())*(point.Lat()-pi.Lat())/(pj.Lat()-pi.Lat())+pi.Lon()) {
			inside = !inside
		}
		j = i
	}

	return inside
}

// OnRing reports whether point lies exactly on one of the ring's edges
func OnRing(ring orb.Ring, point orb.Point) bool {
	if len(ring) == 0 {
		return false
	}
	if len(ring) == 1 {
		return ring[0] == point
	}

	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		if onSegment(ring[j], ring[i], point) {
			return true
		}
		j = i
	}
	return false
}

// onSegment uses an exact collinearity test followed by a bounding check
func onSegment(a, b, p orb.Point) bool {
	cross := (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
	if cross != 0 {
		return false
	}
	return p[0] >= min(a[0], b[0]) && p[0] <= max(a[0], b[0]) &&
		p[1] >= min(a[1], b[1]) && p[1] <= max(a[1], b[1])
}
