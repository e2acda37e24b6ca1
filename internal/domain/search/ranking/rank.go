package ranking

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/result"
	"github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
)

// Rank attaches distances from origin (when both sides have coordinates) and
// sorts the results by order. Every comparator ends in an id tie-break, so the
// output is a total order and identical across calls for the same input.
// Unknown orders fall back to Default.
func Rank(vs []vendors.Vendor, origin *geo.Point, order Order) []result.Result {
	ranked := make([]result.Result, 0, len(vs))
	for _, v := range vs {
		var dist *float64
		if origin != nil && v.Location() != nil {
			d := geo.DistanceKm(*origin, *v.Location())
			dist = &d
		}
		ranked = append(ranked, result.New(v, dist))
	}

	compare := Comparator(order)
	slices.SortFunc(ranked, func(a, b result.Result) int {
		return compare(&a, &b)
	})
	return ranked
}

// Comparator returns the three-way comparison for order.
func Comparator(order Order) func(a, b *result.Result) int {
	switch order {
	case ByDistance:
		return compareByDistance
	case ByPrice:
		return compareByPrice
	default:
		return compareByRating
	}
}

func compareByRating(a, b *result.Result) int {
	if c := byReputation(a, b); c != 0 {
		return c
	}
	if c := absentLast(a.DistanceKm(), b.DistanceKm()); c != 0 {
		return c
	}
	return cmp.Compare(a.ID(), b.ID())
}

func compareByDistance(a, b *result.Result) int {
	if c := absentLast(a.DistanceKm(), b.DistanceKm()); c != 0 {
		return c
	}
	if c := byReputation(a, b); c != 0 {
		return c
	}
	return cmp.Compare(a.ID(), b.ID())
}

func compareByPrice(a, b *result.Result) int {
	if c := absentLast(a.Vendor().HourlyRate(), b.Vendor().HourlyRate()); c != 0 {
		return c
	}
	return compareByRating(a, b)
}

// CompareCandidates orders vendors by rating desc, rating count desc, then id.
// Stores use it to decide which candidates survive a cap, so the kept set is
// the head of the default order whenever no origin is given.
func CompareCandidates(a, b *vendors.Vendor) int {
	if c := cmp.Compare(b.Rating(), a.Rating()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.RatingCount(), a.RatingCount()); c != 0 {
		return c
	}
	return cmp.Compare(a.ID(), b.ID())
}

// byReputation orders by rating desc, then rating count desc.
func byReputation(a, b *result.Result) int {
	if c := cmp.Compare(b.Vendor().Rating(), a.Vendor().Rating()); c != 0 {
		return c
	}
	return cmp.Compare(b.Vendor().RatingCount(), a.Vendor().RatingCount())
}

// absentLast orders ascending with nil values after every present one.
func absentLast(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}
