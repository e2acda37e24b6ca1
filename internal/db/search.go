package db

import (
	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/filter"
)

// FilterQuery is the input for a filtered FT.SEARCH without scoring.
type FilterQuery struct {
	IndexName    string
	Filters      filter.Expression
	Box          *GeoBox
	Offset       int
	Limit        int
	ReturnFields []string
	// SortBy names a sortable field to order by before LIMIT applies. Empty keeps index order.
	SortBy   string
	SortDesc bool
}

// GeoBox is a bounding-box predicate over two numeric fields.
// Longitude may be split in two ranges when the box crosses the antimeridian.
type GeoBox struct {
	LatField  string
	LngField  string
	LatMin    float64
	LatMax    float64
	LngRanges []geo.LngRange
}

// NewGeoBox builds the predicate for b over the given field names.
func NewGeoBox(b *geo.BoundingBox, latField, lngField string) *GeoBox {
	if b == nil {
		return nil
	}
	return &GeoBox{
		LatField:  latField,
		LngField:  lngField,
		LatMin:    b.LatMin(),
		LatMax:    b.LatMax(),
		LngRanges: b.LngRanges(),
	}
}

// SearchResult is the output of a search operation.
// Total counts every match, Entries holds at most Limit of them.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
