package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
)

const selectColumns = `id, display_name, categories, city, state, hourly_rate,
rating, rating_count, latitude, longitude, active`

type columnKind int

const (
	columnBool columnKind = iota
	columnTextArray
	columnText
	columnNumeric
)

type column struct {
	name string
	kind columnKind
}

// columns maps vendor field keys to table columns.
var columns = map[string]column{
	vendors.FieldActive:      {"active", columnBool},
	vendors.FieldCategories:  {"categories", columnTextArray},
	vendors.FieldCity:        {"city", columnText},
	vendors.FieldState:       {"state", columnText},
	vendors.FieldRating:      {"rating", columnNumeric},
	vendors.FieldRatingCount: {"rating_count", columnNumeric},
	vendors.FieldHourlyRate:  {"hourly_rate", columnNumeric},
	vendors.FieldLat:         {"latitude", columnNumeric},
	vendors.FieldLng:         {"longitude", columnNumeric},
}

// whereBuilder accumulates SQL predicates with positional arguments.
type whereBuilder struct {
	parts []string
	args  []any
}

func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

// candidateOrder keeps the best-rated rows when LIMIT cuts the result.
const candidateOrder = "rating DESC, rating_count DESC, id"

// buildCandidateQuery renders a spec as a SELECT over the vendors table.
// limit is passed through as-is so callers can over-fetch to detect truncation.
func buildCandidateQuery(spec candidate.Spec, limit int) (string, []any, error) {
	w := &whereBuilder{}

	for _, c := range spec.Filters.Must() {
		p, err := w.condition(c)
		if err != nil {
			return "", nil, err
		}
		w.parts = append(w.parts, p)
	}

	if should := spec.Filters.Should(); len(should) > 0 {
		ors := make([]string, 0, len(should))
		for _, c := range should {
			p, err := w.condition(c)
			if err != nil {
				return "", nil, err
			}
			ors = append(ors, p)
		}
		w.parts = append(w.parts, "("+strings.Join(ors, " OR ")+")")
	}

	for _, c := range spec.Filters.MustNot() {
		p, err := w.condition(c)
		if err != nil {
			return "", nil, err
		}
		// a NULL column never matches, so its negation does
		w.parts = append(w.parts, "NOT COALESCE("+p+", FALSE)")
	}

	if spec.Box != nil {
		w.parts = append(w.parts, w.box(spec.Box))
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectColumns)
	sb.WriteString("\nFROM vendors")
	if len(w.parts) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(w.parts, " AND "))
	}
	sb.WriteString("\nORDER BY " + candidateOrder)
	if limit > 0 {
		sb.WriteString("\nLIMIT ")
		sb.WriteString(w.arg(limit))
	}
	return sb.String(), w.args, nil
}

func (w *whereBuilder) condition(c filter.Condition) (string, error) {
	col, ok := columns[c.Key()]
	if !ok {
		return "", fmt.Errorf("unknown filter field %q", c.Key())
	}

	switch {
	case c.IsMatch():
		return w.match(col, c.Match())
	case c.IsContains():
		if col.kind != columnText {
			return "", fmt.Errorf("contains filter on non-text field %q", c.Key())
		}
		return fmt.Sprintf("%s ILIKE %s", col.name, w.arg("%"+escapeLike(c.Contains())+"%")), nil
	case c.IsRange():
		if col.kind != columnNumeric {
			return "", fmt.Errorf("range filter on non-numeric field %q", c.Key())
		}
		return w.rangeExpr(col.name, *c.Range()), nil
	default:
		return "", fmt.Errorf("unsupported condition on %q", c.Key())
	}
}

func (w *whereBuilder) match(col column, value string) (string, error) {
	switch col.kind {
	case columnBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", fmt.Errorf("match on %q: %w", col.name, err)
		}
		return fmt.Sprintf("%s = %s", col.name, w.arg(b)), nil
	case columnTextArray:
		// stored categories are normalized to lower case
		return fmt.Sprintf("%s && %s", col.name, w.arg(pq.Array([]string{strings.ToLower(value)}))), nil
	case columnText:
		return fmt.Sprintf("lower(%s) = lower(%s)", col.name, w.arg(value)), nil
	default:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return "", fmt.Errorf("match on %q: %w", col.name, err)
		}
		return fmt.Sprintf("%s = %s", col.name, w.arg(f)), nil
	}
}

func (w *whereBuilder) rangeExpr(name string, r filter.Range) string {
	var parts []string
	if r.GT() != nil {
		parts = append(parts, fmt.Sprintf("%s > %s", name, w.arg(*r.GT())))
	}
	if r.GTE() != nil {
		parts = append(parts, fmt.Sprintf("%s >= %s", name, w.arg(*r.GTE())))
	}
	if r.LT() != nil {
		parts = append(parts, fmt.Sprintf("%s < %s", name, w.arg(*r.LT())))
	}
	if r.LTE() != nil {
		parts = append(parts, fmt.Sprintf("%s <= %s", name, w.arg(*r.LTE())))
	}
	switch len(parts) {
	case 0:
		return "TRUE"
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

func (w *whereBuilder) box(b *geo.BoundingBox) string {
	lat := fmt.Sprintf("latitude BETWEEN %s AND %s", w.arg(b.LatMin()), w.arg(b.LatMax()))

	ranges := b.LngRanges()
	lngs := make([]string, 0, len(ranges))
	for _, r := range ranges {
		lngs = append(lngs, fmt.Sprintf("longitude BETWEEN %s AND %s", w.arg(r.Min), w.arg(r.Max)))
	}
	switch len(lngs) {
	case 0:
		return lat
	case 1:
		return lat + " AND " + lngs[0]
	default:
		return lat + " AND (" + strings.Join(lngs, " OR ") + ")"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
