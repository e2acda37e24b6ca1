package vendors

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Filterable field names shared by the filter expression and every store.
const (
	FieldActive      = "active"
	FieldCategories  = "categories"
	FieldCity        = "city"
	FieldState       = "state"
	FieldRating      = "rating"
	FieldRatingCount = "rating_count"
	FieldHourlyRate  = "hourly_rate"
	FieldLat         = "lat"
	FieldLng         = "lng"
)

// CategorySeparator joins categories in flat storage fields; no category may contain it.
const CategorySeparator = ","

// Rating bounds.
const (
	MinRating = 0.0
	MaxRating = 5.0
)

// Params carries raw vendor attributes for New and Reconstruct.
type Params struct {
	ID          string
	DisplayName string
	Categories  []string
	City        string
	State       string
	HourlyRate  *float64
	Rating      float64
	RatingCount int
	Location    *geo.Point
	Active      bool
}

// Vendor is a read-only projection of a vendor profile as seen by search.
type Vendor struct {
	id          string
	displayName string
	categories  []string
	city        string
	state       string
	hourlyRate  *float64
	rating      float64
	ratingCount int
	location    *geo.Point
	active      bool
}

// New validates and creates a Vendor. Categories are lower-cased and deduplicated.
func New(p Params) (Vendor, error) {
	if p.ID == "" {
		return Vendor{}, fmt.Errorf("vendor ID is required")
	}
	if len(p.ID) > 256 {
		return Vendor{}, fmt.Errorf("vendor ID too long (max 256)")
	}
	if !idRegex.MatchString(p.ID) {
		return Vendor{}, fmt.Errorf("vendor ID must be alphanumeric with underscores and hyphens")
	}
	if p.Rating < MinRating || p.Rating > MaxRating {
		return Vendor{}, fmt.Errorf("rating %v out of range [0, 5]", p.Rating)
	}
	if p.RatingCount < 0 {
		return Vendor{}, fmt.Errorf("rating count must be non-negative")
	}
	if p.HourlyRate != nil && *p.HourlyRate < 0 {
		return Vendor{}, fmt.Errorf("hourly rate must be non-negative")
	}
	for _, c := range p.Categories {
		if strings.Contains(c, CategorySeparator) {
			return Vendor{}, fmt.Errorf("category %q must not contain %q", c, CategorySeparator)
		}
	}

	v := Reconstruct(p)
	v.categories = NormalizeCategories(p.Categories)
	if p.HourlyRate != nil {
		rate := *p.HourlyRate
		v.hourlyRate = &rate
	}
	if p.Location != nil {
		loc := *p.Location
		v.location = &loc
	}
	return v, nil
}

// Reconstruct creates a Vendor without validation (storage hydration).
func Reconstruct(p Params) Vendor {
	return Vendor{
		id:          p.ID,
		displayName: p.DisplayName,
		categories:  p.Categories,
		city:        p.City,
		state:       p.State,
		hourlyRate:  p.HourlyRate,
		rating:      p.Rating,
		ratingCount: p.RatingCount,
		location:    p.Location,
		active:      p.Active,
	}
}

// NormalizeCategories trims, lower-cases, deduplicates and sorts category names.
func NormalizeCategories(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ID returns the vendor identifier.
func (v *Vendor) ID() string { return v.id }

// DisplayName returns the public vendor name.
func (v *Vendor) DisplayName() string { return v.displayName }

// Categories returns the service categories.
func (v *Vendor) Categories() []string { return v.categories }

// City returns the city.
func (v *Vendor) City() string { return v.city }

// State returns the state.
func (v *Vendor) State() string { return v.state }

// HourlyRate returns the hourly rate, nil when unset.
func (v *Vendor) HourlyRate() *float64 { return v.hourlyRate }

// Rating returns the average rating in [0, 5].
func (v *Vendor) Rating() float64 { return v.rating }

// RatingCount returns the number of ratings.
func (v *Vendor) RatingCount() int { return v.ratingCount }

// Location returns the vendor location, nil when unknown.
func (v *Vendor) Location() *geo.Point { return v.location }

// IsActive reports whether the vendor accepts jobs.
func (v *Vendor) IsActive() bool { return v.active }

// TagValues returns the tag values stored under key.
func (v *Vendor) TagValues(key string) []string {
	switch key {
	case FieldActive:
		return []string{strconv.FormatBool(v.active)}
	case FieldCategories:
		return v.categories
	}
	return nil
}

// TextValue returns the free-text value stored under key.
func (v *Vendor) TextValue(key string) (string, bool) {
	switch key {
	case FieldCity:
		return v.city, v.city != ""
	case FieldState:
		return v.state, v.state != ""
	}
	return "", false
}

// NumericValue returns the numeric value stored under key.
// Unset optional values report false.
func (v *Vendor) NumericValue(key string) (float64, bool) {
	switch key {
	case FieldRating:
		return v.rating, true
	case FieldRatingCount:
		return float64(v.ratingCount), true
	case FieldHourlyRate:
		if v.hourlyRate == nil {
			return 0, false
		}
		return *v.hourlyRate, true
	case FieldLat:
		if v.location == nil {
			return 0, false
		}
		return v.location.Lat(), true
	case FieldLng:
		if v.location == nil {
			return 0, false
		}
		return v.location.Lng(), true
	}
	return 0, false
}
