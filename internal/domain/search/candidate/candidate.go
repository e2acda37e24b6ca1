package candidate

import (
	"fmt"

	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/query"
	"github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
)

// Spec is the store-facing candidate query: non-geographic predicates, an
// optional bounding box over the stored coordinates and a result cap.
type Spec struct {
	Filters filter.Expression
	Box     *geo.BoundingBox
	Limit   int
}

// FromQuery translates a validated query into a candidate spec.
// active == true is always required; categories are any-of.
func FromQuery(q *query.Query, limit int) (Spec, error) {
	active, err := filter.NewMatch(vendors.FieldActive, "true")
	if err != nil {
		return Spec{}, err
	}
	must := []filter.Condition{active}

	if q.City() != "" {
		c, err := filter.NewContains(vendors.FieldCity, q.City())
		if err != nil {
			return Spec{}, err
		}
		must = append(must, c)
	}
	if q.State() != "" {
		c, err := filter.NewContains(vendors.FieldState, q.State())
		if err != nil {
			return Spec{}, err
		}
		must = append(must, c)
	}
	if q.MinRating() != nil {
		c, err := rangeCondition(vendors.FieldRating, q.MinRating(), nil)
		if err != nil {
			return Spec{}, err
		}
		must = append(must, c)
	}
	if q.MaxHourlyRate() != nil {
		c, err := rangeCondition(vendors.FieldHourlyRate, nil, q.MaxHourlyRate())
		if err != nil {
			return Spec{}, err
		}
		must = append(must, c)
	}

	var should []filter.Condition
	for _, cat := range q.Categories() {
		c, err := filter.NewMatch(vendors.FieldCategories, cat)
		if err != nil {
			return Spec{}, err
		}
		should = append(should, c)
	}

	expr, err := filter.NewExpression(must, should, nil)
	if err != nil {
		return Spec{}, fmt.Errorf("build candidate filter: %w", err)
	}
	return Spec{Filters: expr, Box: q.BoundingBox(), Limit: limit}, nil
}

func rangeCondition(key string, gte, lte *float64) (filter.Condition, error) {
	r, err := filter.NewRangeFilter(nil, gte, nil, lte)
	if err != nil {
		return filter.Condition{}, err
	}
	return filter.NewRange(key, r)
}

// Matches reports whether v passes every predicate of s, including the
// bounding box. Vendors without a location never match a geo spec.
func (s Spec) Matches(v *vendors.Vendor) bool {
	if !s.Filters.Evaluate(v) {
		return false
	}
	if s.Box == nil {
		return true
	}
	loc := v.Location()
	return loc != nil && s.Box.Contains(*loc)
}
