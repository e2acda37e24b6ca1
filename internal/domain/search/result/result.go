package result

import "github.com/kailas-cloud/vendorsearch/internal/domain/vendors"

// Result is a single ranked vendor hit.
type Result struct {
	vendor     vendors.Vendor
	distanceKm *float64
}

// New creates a ranked result. distanceKm is nil when no distance is known.
func New(v vendors.Vendor, distanceKm *float64) Result {
	return Result{vendor: v, distanceKm: distanceKm}
}

// Vendor returns the matched vendor.
func (r *Result) Vendor() *vendors.Vendor { return &r.vendor }

// ID returns the vendor identifier.
func (r *Result) ID() string { return r.vendor.ID() }

// DistanceKm returns the great-circle distance from the search origin, nil when absent.
func (r *Result) DistanceKm() *float64 { return r.distanceKm }

// HasDistance reports whether a distance is attached.
func (r *Result) HasDistance() bool { return r.distanceKm != nil }
