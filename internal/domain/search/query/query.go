package query

import (
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/vendorsearch/internal/domain"
	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/ranking"
	"github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
)

// Search parameter limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultRadiusKm = 25.0
	MaxRadiusKm     = 500.0
	// MaxTextLength bounds city/state filters.
	MaxTextLength = 128
	// MaxCategories bounds the category set.
	MaxCategories = 32
)

// Limits carries the configurable bounds applied by New.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
	DefaultRadiusKm float64
	MaxRadiusKm     float64
}

// DefaultLimits returns the built-in limits.
func DefaultLimits() Limits {
	return Limits{
		DefaultPageSize: DefaultPageSize,
		MaxPageSize:     MaxPageSize,
		DefaultRadiusKm: DefaultRadiusKm,
		MaxRadiusKm:     MaxRadiusKm,
	}
}

// Params holds raw, optional search parameters as received from a caller.
type Params struct {
	Latitude      *float64
	Longitude     *float64
	RadiusKm      *float64
	Categories    []string
	City          string
	State         string
	MinRating     *float64
	MaxHourlyRate *float64
	Page          *int
	PageSize      *int
	Sort          string
}

// Query is a validated vendor search request.
type Query struct {
	origin        *geo.Point
	radiusKm      float64
	categories    []string
	city          string
	state         string
	minRating     *float64
	maxHourlyRate *float64
	page          int
	pageSize      int
	order         ranking.Order
}

// New validates and normalizes search parameters. It is the only way to build a Query.
// Defaults: page=1, pageSize=limits.DefaultPageSize, radius=limits.DefaultRadiusKm
// (geo searches only), sort=rating.
func New(p Params, limits Limits) (*Query, error) {
	limits = limits.withDefaults()
	q := &Query{page: 1, pageSize: limits.DefaultPageSize, order: ranking.Default}

	if err := q.setOrigin(p, limits); err != nil {
		return nil, err
	}
	if err := q.setPagination(p.Page, p.PageSize, limits); err != nil {
		return nil, err
	}
	if err := q.setFilters(p); err != nil {
		return nil, err
	}
	return q, nil
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.DefaultPageSize <= 0 {
		l.DefaultPageSize = d.DefaultPageSize
	}
	if l.MaxPageSize <= 0 {
		l.MaxPageSize = d.MaxPageSize
	}
	if l.DefaultRadiusKm <= 0 {
		l.DefaultRadiusKm = d.DefaultRadiusKm
	}
	if l.MaxRadiusKm <= 0 {
		l.MaxRadiusKm = d.MaxRadiusKm
	}
	if l.DefaultPageSize > l.MaxPageSize {
		l.DefaultPageSize = l.MaxPageSize
	}
	if l.DefaultRadiusKm > l.MaxRadiusKm {
		l.DefaultRadiusKm = l.MaxRadiusKm
	}
	return l
}

func (q *Query) setOrigin(p Params, limits Limits) error {
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return domain.NewValidationError(domain.ErrInvalidCoordinate,
			"latitude/longitude", "both must be provided together")
	}
	if p.RadiusKm != nil {
		r := *p.RadiusKm
		if math.IsNaN(r) || r <= 0 {
			return domain.NewValidationError(domain.ErrInvalidRadius,
				"radius", "must be greater than 0")
		}
		if r > limits.MaxRadiusKm {
			return domain.NewValidationError(domain.ErrInvalidRadius,
				"radius", fmt.Sprintf("must not exceed %g km", limits.MaxRadiusKm))
		}
	}
	if p.Latitude == nil {
		return nil
	}

	origin, err := geo.NewPoint(*p.Latitude, *p.Longitude)
	if err != nil {
		return err
	}
	q.origin = &origin
	q.radiusKm = limits.DefaultRadiusKm
	if p.RadiusKm != nil {
		q.radiusKm = *p.RadiusKm
	}
	return nil
}

func (q *Query) setPagination(pageNum, pageSize *int, limits Limits) error {
	if pageNum != nil {
		if *pageNum < 1 {
			return domain.NewValidationError(domain.ErrInvalidPagination,
				"page", "must be at least 1")
		}
		q.page = *pageNum
	}
	if pageSize != nil {
		if *pageSize < 1 || *pageSize > limits.MaxPageSize {
			return domain.NewValidationError(domain.ErrInvalidPagination,
				"limit", fmt.Sprintf("must be between 1 and %d", limits.MaxPageSize))
		}
		q.pageSize = *pageSize
	}
	return nil
}

func (q *Query) setFilters(p Params) error {
	q.categories = vendors.NormalizeCategories(p.Categories)
	if len(q.categories) > MaxCategories {
		return domain.NewValidationError(domain.ErrInvalidFilter,
			"serviceCategories", fmt.Sprintf("too many categories (max %d)", MaxCategories))
	}

	q.city = strings.TrimSpace(p.City)
	q.state = strings.TrimSpace(p.State)
	if len(q.city) > MaxTextLength {
		return domain.NewValidationError(domain.ErrInvalidFilter,
			"city", fmt.Sprintf("too long (max %d chars)", MaxTextLength))
	}
	if len(q.state) > MaxTextLength {
		return domain.NewValidationError(domain.ErrInvalidFilter,
			"state", fmt.Sprintf("too long (max %d chars)", MaxTextLength))
	}

	if p.MinRating != nil {
		r := *p.MinRating
		if math.IsNaN(r) || r < vendors.MinRating || r > vendors.MaxRating {
			return domain.NewValidationError(domain.ErrInvalidFilter,
				"minRating", "must be between 0 and 5")
		}
		q.minRating = &r
	}
	if p.MaxHourlyRate != nil {
		r := *p.MaxHourlyRate
		if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
			return domain.NewValidationError(domain.ErrInvalidFilter,
				"maxHourlyRate", "must be a non-negative number")
		}
		q.maxHourlyRate = &r
	}

	if p.Sort != "" {
		o := ranking.Order(strings.ToLower(p.Sort))
		if !o.IsValid() {
			return domain.NewValidationError(domain.ErrInvalidFilter,
				"sort", fmt.Sprintf("unsupported sort %q (rating, distance, price)", p.Sort))
		}
		q.order = o
	}
	return nil
}

// Origin returns the search center, nil for non-geo searches.
func (q *Query) Origin() *geo.Point { return q.origin }

// RadiusKm returns the search radius; zero when there is no origin.
func (q *Query) RadiusKm() float64 { return q.radiusKm }

// Categories returns the normalized category set (any-of).
func (q *Query) Categories() []string { return q.categories }

// City returns the city substring filter.
func (q *Query) City() string { return q.city }

// State returns the state substring filter.
func (q *Query) State() string { return q.state }

// MinRating returns the minimum rating, nil when unset.
func (q *Query) MinRating() *float64 { return q.minRating }

// MaxHourlyRate returns the hourly rate ceiling, nil when unset.
func (q *Query) MaxHourlyRate() *float64 { return q.maxHourlyRate }

// Page returns the 1-indexed page number.
func (q *Query) Page() int { return q.page }

// PageSize returns the page size.
func (q *Query) PageSize() int { return q.pageSize }

// Order returns the ranking order.
func (q *Query) Order() ranking.Order { return q.order }

// BoundingBox returns the pre-filter rectangle, nil for non-geo searches.
func (q *Query) BoundingBox() *geo.BoundingBox {
	if q.origin == nil {
		return nil
	}
	b := geo.NewBoundingBox(*q.origin, q.radiusKm)
	return &b
}
