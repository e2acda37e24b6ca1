package vendors

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
	domvendor "github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
)

const fieldDisplayName = "display_name"

// returnFields lists the hash fields loaded for each search hit.
var returnFields = []string{
	"id",
	fieldDisplayName,
	domvendor.FieldCategories,
	domvendor.FieldCity,
	domvendor.FieldState,
	domvendor.FieldHourlyRate,
	domvendor.FieldRating,
	domvendor.FieldRatingCount,
	domvendor.FieldLat,
	domvendor.FieldLng,
	domvendor.FieldActive,
}

// buildHashFields flattens a vendor for HSET. Unset optional values are omitted
// so the numeric index never sees them.
func buildHashFields(v *domvendor.Vendor) map[string]string {
	m := map[string]string{
		"id":                       v.ID(),
		fieldDisplayName:           v.DisplayName(),
		domvendor.FieldCategories:  strings.Join(v.Categories(), domvendor.CategorySeparator),
		domvendor.FieldCity:        v.City(),
		domvendor.FieldState:       v.State(),
		domvendor.FieldRating:      formatFloat(v.Rating()),
		domvendor.FieldRatingCount: strconv.Itoa(v.RatingCount()),
		domvendor.FieldActive:      strconv.FormatBool(v.IsActive()),
	}
	if rate := v.HourlyRate(); rate != nil {
		m[domvendor.FieldHourlyRate] = formatFloat(*rate)
	}
	if p := v.Location(); p != nil {
		m[domvendor.FieldLat] = formatFloat(p.Lat())
		m[domvendor.FieldLng] = formatFloat(p.Lng())
	}
	return m
}

// parseHashFields rebuilds a vendor from a stored hash. Malformed optional
// values are treated as unset.
func parseHashFields(m map[string]string) domvendor.Vendor {
	p := domvendor.Params{
		ID:          m["id"],
		DisplayName: m[fieldDisplayName],
		City:        m[domvendor.FieldCity],
		State:       m[domvendor.FieldState],
		Active:      m[domvendor.FieldActive] == "true",
	}
	if c := m[domvendor.FieldCategories]; c != "" {
		p.Categories = strings.Split(c, domvendor.CategorySeparator)
	}
	if f, ok := parseFloat(m, domvendor.FieldRating); ok {
		p.Rating = f
	}
	if n, err := strconv.Atoi(m[domvendor.FieldRatingCount]); err == nil {
		p.RatingCount = n
	}
	if f, ok := parseFloat(m, domvendor.FieldHourlyRate); ok {
		p.HourlyRate = &f
	}
	lat, okLat := parseFloat(m, domvendor.FieldLat)
	lng, okLng := parseFloat(m, domvendor.FieldLng)
	if okLat && okLng {
		if pt, err := geo.NewPoint(lat, lng); err == nil {
			p.Location = &pt
		}
	}
	return domvendor.Reconstruct(p)
}

func parseFloat(m map[string]string, key string) (float64, bool) {
	s, ok := m[key]
	if !ok || s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
