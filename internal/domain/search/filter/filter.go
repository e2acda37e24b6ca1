package filter

import (
	"fmt"
	"strings"
)

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// Fields exposes the filterable attributes of a record.
type Fields interface {
	TagValues(key string) []string
	TextValue(key string) (string, bool)
	NumericValue(key string) (float64, bool)
}

// Expression is a structured filter with must/should/must_not boolean semantics.
// A record matches when every must condition holds, at least one should
// condition holds (if any are given) and no must_not condition holds.
type Expression struct {
	must    []Condition
	should  []Condition
	mustNot []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, should, mustNot []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(should) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many should conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(mustNot) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must_not conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, should: should, mustNot: mustNot}, nil
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// Should returns the should conditions.
func (e Expression) Should() []Condition { return e.should }

// MustNot returns the must-not conditions.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.should) == 0 && len(e.mustNot) == 0
}

// Evaluate reports whether the record satisfies the expression.
func (e Expression) Evaluate(f Fields) bool {
	for _, c := range e.must {
		if !c.Evaluate(f) {
			return false
		}
	}
	for _, c := range e.mustNot {
		if c.Evaluate(f) {
			return false
		}
	}
	if len(e.should) == 0 {
		return true
	}
	for _, c := range e.should {
		if c.Evaluate(f) {
			return true
		}
	}
	return false
}

// Kind distinguishes condition types.
type Kind int

// Condition kinds.
const (
	// KindMatch is an exact, case-insensitive tag match.
	KindMatch Kind = iota + 1
	// KindContains is a case-insensitive substring match on a text field.
	KindContains
	// KindRange is a numeric range.
	KindRange
)

// Condition is a single filter clause: a tag match, a text contains or a numeric range.
type Condition struct {
	kind      Kind
	key       string
	value     string
	rangeExpr *Range
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{kind: KindMatch, key: key, value: match}, nil
}

// NewContains creates a case-insensitive substring condition.
func NewContains(key, substr string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if strings.TrimSpace(substr) == "" {
		return Condition{}, fmt.Errorf("contains value is required for key %q", key)
	}
	return Condition{kind: KindContains, key: key, value: substr}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{kind: KindRange, key: key, rangeExpr: &r}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Kind returns the condition type.
func (c Condition) Kind() Kind { return c.kind }

// Match returns the exact match value.
func (c Condition) Match() string {
	if c.kind != KindMatch {
		return ""
	}
	return c.value
}

// Contains returns the substring value.
func (c Condition) Contains() string {
	if c.kind != KindContains {
		return ""
	}
	return c.value
}

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.kind == KindMatch }

// IsContains reports whether this is a contains condition.
func (c Condition) IsContains() bool { return c.kind == KindContains }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.kind == KindRange }

// Evaluate reports whether the record satisfies the condition.
// Missing fields never match.
func (c Condition) Evaluate(f Fields) bool {
	switch c.kind {
	case KindMatch:
		for _, v := range f.TagValues(c.key) {
			if strings.EqualFold(v, c.value) {
				return true
			}
		}
		return false
	case KindContains:
		s, ok := f.TextValue(c.key)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(c.value))
	case KindRange:
		n, ok := f.NumericValue(c.key)
		return ok && c.rangeExpr.Contains(n)
	}
	return false
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

// Contains reports whether n satisfies every boundary.
func (r Range) Contains(n float64) bool {
	switch {
	case r.gt != nil && n <= *r.gt:
		return false
	case r.gte != nil && n < *r.gte:
		return false
	case r.lt != nil && n >= *r.lt:
		return false
	case r.lte != nil && n > *r.lte:
		return false
	}
	return true
}
