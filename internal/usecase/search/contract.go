package search

import (
	"context"

	"github.com/kailas-cloud/vendorsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
)

// VendorStore returns active vendors matching a candidate spec.
// Implementations may return false positives (the service re-checks every
// predicate) but never false negatives, and return at most spec.Limit records.
type VendorStore interface {
	FindCandidates(ctx context.Context, spec candidate.Spec) ([]vendors.Vendor, error)
}
