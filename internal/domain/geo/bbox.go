package geo

import "math"

const (
	// kmPerDegree is the rounded-down length of one degree of latitude.
	// Rounding down keeps the box slightly larger than the true circle.
	kmPerDegree = 111.0
	// minCosLat keeps the longitude delta finite at the poles.
	minCosLat = 1e-6
)

// LngRange is an inclusive longitude interval with Min <= Max, both in [-180, 180].
type LngRange struct {
	Min float64
	Max float64
}

// BoundingBox is a conservative lat/lng rectangle around a search circle.
// It never excludes a point within the radius. Boxes that cross the
// antimeridian expose two longitude ranges; boxes that reach a pole span
// every longitude.
type BoundingBox struct {
	center   Point
	radiusKm float64

	latMin, latMax float64
	lngMin, lngMax float64 // unwrapped, may fall outside [-180, 180]

	lngRanges []LngRange
}

// NewBoundingBox derives the pre-filter rectangle for center and radiusKm.
// radiusKm must be positive; the caller validates it.
func NewBoundingBox(center Point, radiusKm float64) BoundingBox {
	latDelta := radiusKm / kmPerDegree
	cosLat := math.Max(math.Cos(toRadians(center.lat)), minCosLat)
	lngDelta := radiusKm / (kmPerDegree * cosLat)

	b := BoundingBox{
		center:   center,
		radiusKm: radiusKm,
		latMin:   center.lat - latDelta,
		latMax:   center.lat + latDelta,
	}

	switch {
	case math.Abs(center.lat)+latDelta >= 90:
		// circle contains a pole: every meridian crosses it
		lngDelta = 180
	default:
		// The widest point of the circle sits poleward of the center, so the
		// linear estimate undershoots at high latitudes. Take the spherical
		// bound when it is larger.
		exact := toDegrees(math.Asin(math.Sin(toRadians(latDelta)) / math.Cos(toRadians(center.lat))))
		lngDelta = math.Max(lngDelta, exact)
	}

	b.lngMin = center.lng - lngDelta
	b.lngMax = center.lng + lngDelta
	b.latMin = math.Max(b.latMin, -90)
	b.latMax = math.Min(b.latMax, 90)
	b.lngRanges = splitLngRange(b.lngMin, b.lngMax)
	return b
}

func splitLngRange(lo, hi float64) []LngRange {
	switch {
	case hi-lo >= 360:
		return []LngRange{{Min: -180, Max: 180}}
	case lo < -180:
		return []LngRange{{Min: lo + 360, Max: 180}, {Min: -180, Max: hi}}
	case hi > 180:
		return []LngRange{{Min: lo, Max: 180}, {Min: -180, Max: hi - 360}}
	default:
		return []LngRange{{Min: lo, Max: hi}}
	}
}

// Center returns the circle center.
func (b BoundingBox) Center() Point { return b.center }

// RadiusKm returns the circle radius.
func (b BoundingBox) RadiusKm() float64 { return b.radiusKm }

// LatMin returns the southern bound, clamped to -90.
func (b BoundingBox) LatMin() float64 { return b.latMin }

// LatMax returns the northern bound, clamped to 90.
func (b BoundingBox) LatMax() float64 { return b.latMax }

// LngMin returns the unwrapped western bound (may be below -180).
func (b BoundingBox) LngMin() float64 { return b.lngMin }

// LngMax returns the unwrapped eastern bound (may be above 180).
func (b BoundingBox) LngMax() float64 { return b.lngMax }

// LngRanges returns one or two normalized longitude intervals covering the box.
func (b BoundingBox) LngRanges() []LngRange {
	out := make([]LngRange, len(b.lngRanges))
	copy(out, b.lngRanges)
	return out
}

// SpansAllLongitudes reports whether every meridian is inside the box.
func (b BoundingBox) SpansAllLongitudes() bool {
	return len(b.lngRanges) == 1 && b.lngRanges[0].Min <= -180 && b.lngRanges[0].Max >= 180
}

// Contains reports whether p lies inside the box.
func (b BoundingBox) Contains(p Point) bool {
	if p.lat < b.latMin || p.lat > b.latMax {
		return false
	}
	for _, r := range b.lngRanges {
		if p.lng >= r.Min && p.lng <= r.Max {
			return true
		}
	}
	return false
}
