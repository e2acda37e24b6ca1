package geo

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/vendorsearch/internal/domain"
)

// EarthRadiusKm is the mean radius of Earth used for Haversine distance.
const EarthRadiusKm = 6371.0

// Point is a validated WGS84 coordinate in degrees.
type Point struct {
	lat float64
	lng float64
}

// NewPoint validates latitude/longitude and creates a Point.
func NewPoint(lat, lng float64) (Point, error) {
	if !isFinite(lat) || lat < -90 || lat > 90 {
		return Point{}, domain.NewValidationError(domain.ErrInvalidCoordinate,
			"latitude", fmt.Sprintf("must be a finite number in [-90, 90], got %v", lat))
	}
	if !isFinite(lng) || lng < -180 || lng > 180 {
		return Point{}, domain.NewValidationError(domain.ErrInvalidCoordinate,
			"longitude", fmt.Sprintf("must be a finite number in [-180, 180], got %v", lng))
	}
	return Point{lat: lat, lng: lng}, nil
}

// MustPoint calls NewPoint and panics on error. Intended for fixtures and tests.
func MustPoint(lat, lng float64) Point {
	p, err := NewPoint(lat, lng)
	if err != nil {
		panic(err)
	}
	return p
}

// Lat returns the latitude in degrees.
func (p Point) Lat() float64 { return p.lat }

// Lng returns the longitude in degrees.
func (p Point) Lng() float64 { return p.lng }

// ValidateCoordinates reports whether lat/lng are finite and within WGS84 bounds.
func ValidateCoordinates(lat, lng float64) bool {
	return isFinite(lat) && isFinite(lng) && lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// DistanceKm returns the great-circle distance in kilometers between a and b (Haversine).
func DistanceKm(a, b Point) float64 {
	lat1 := toRadians(a.lat)
	lat2 := toRadians(b.lat)
	dLat := toRadians(b.lat - a.lat)
	dLng := toRadians(b.lng - a.lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h a hair outside [0,1] for antipodal points
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
