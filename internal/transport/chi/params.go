package chi

import (
	"net/http"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/vendorsearch/internal/domain"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/query"
)

// bindSearchParams binds the form-style query string of a search request.
// A malformed value is reported under the sentinel of the parameter it belongs to.
func bindSearchParams(r *http.Request) (SearchVendorsParams, error) {
	var p SearchVendorsParams
	values := r.URL.Query()

	bindings := []struct {
		name     string
		dest     any
		sentinel error
	}{
		{"latitude", &p.Latitude, domain.ErrInvalidCoordinate},
		{"longitude", &p.Longitude, domain.ErrInvalidCoordinate},
		{"radius", &p.Radius, domain.ErrInvalidRadius},
		{"serviceCategories", &p.ServiceCategories, domain.ErrInvalidFilter},
		{"city", &p.City, domain.ErrInvalidFilter},
		{"state", &p.State, domain.ErrInvalidFilter},
		{"minRating", &p.MinRating, domain.ErrInvalidFilter},
		{"maxHourlyRate", &p.MaxHourlyRate, domain.ErrInvalidFilter},
		{"page", &p.Page, domain.ErrInvalidPagination},
		{"limit", &p.Limit, domain.ErrInvalidPagination},
		{"sort", &p.Sort, domain.ErrInvalidFilter},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, values, b.dest); err != nil {
			return SearchVendorsParams{}, domain.NewValidationError(b.sentinel, b.name, "malformed value")
		}
	}
	return p, nil
}

// toQueryParams converts bound parameters into raw query params.
// Categories may be repeated or comma-separated.
func (p SearchVendorsParams) toQueryParams() query.Params {
	qp := query.Params{
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		RadiusKm:      p.Radius,
		MinRating:     p.MinRating,
		MaxHourlyRate: p.MaxHourlyRate,
		Page:          p.Page,
		PageSize:      p.Limit,
	}
	if p.ServiceCategories != nil {
		for _, raw := range *p.ServiceCategories {
			qp.Categories = append(qp.Categories, strings.Split(raw, ",")...)
		}
	}
	if p.City != nil {
		qp.City = *p.City
	}
	if p.State != nil {
		qp.State = *p.State
	}
	if p.Sort != nil {
		qp.Sort = *p.Sort
	}
	return qp
}
