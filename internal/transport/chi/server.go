package chi

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vendorsearch/internal/domain"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/page"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/query"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/vendorsearch/internal/usecase/health"
)

// SearchPath is the vendor search route.
const SearchPath = "/api/v1/vendors/search"

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Searcher runs validated vendor searches.
type Searcher interface {
	Search(ctx context.Context, q *query.Query) (page.Page[result.Result], error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the vendor search HTTP API.
type Server struct {
	search        Searcher
	health        HealthChecker
	limits        query.Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker, limits query.Limits, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		limits: limits,
		logger: logger,
	}
	// Order matters: the first matching sentinel wins.
	s.errorHandlers = []errorHandler{
		validationHandler(domain.ErrInvalidCoordinate, ErrorCodeInvalidCoordinate),
		validationHandler(domain.ErrInvalidRadius, ErrorCodeInvalidRadius),
		validationHandler(domain.ErrInvalidPagination, ErrorCodeInvalidPagination),
		validationHandler(domain.ErrInvalidFilter, ErrorCodeInvalidFilter),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, ErrorCodeStoreUnavailable),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get(SearchPath, s.SearchVendors)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeRouteNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed, "method not allowed")
	})
}

// SearchVendors handles GET /api/v1/vendors/search.
func (s *Server) SearchVendors(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	q, err := query.New(params.toQueryParams(), s.limits)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	p, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse(q, p))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// validationHandler maps a validation sentinel to 400. The message carries the
// offending field and reason, which never contain internal details.
func validationHandler(sentinel error, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			msg = ve.Error()
		}
		writeError(w, http.StatusBadRequest, code, msg)
		return true
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error
// and answers with the sentinel's own message.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func searchResponse(q *query.Query, p page.Page[result.Result]) SearchVendorsResponse {
	items := p.Items()
	out := make([]VendorItem, len(items))
	for i := range items {
		out[i] = vendorToItem(&items[i])
	}
	return SearchVendorsResponse{
		Vendors: out,
		Pagination: Pagination{
			Page:      p.Number(),
			Limit:     p.Size(),
			Total:     p.TotalCount(),
			Pages:     p.TotalPages(),
			Truncated: p.Truncated(),
		},
		Filters: filtersFromQuery(q),
	}
}

func vendorToItem(r *result.Result) VendorItem {
	v := r.Vendor()
	item := VendorItem{
		ID:                v.ID(),
		DisplayName:       v.DisplayName(),
		ServiceCategories: v.Categories(),
		City:              v.City(),
		State:             v.State(),
		HourlyRate:        v.HourlyRate(),
		Rating:            v.Rating(),
		RatingCount:       v.RatingCount(),
		IsActive:          v.IsActive(),
	}
	if item.ServiceCategories == nil {
		item.ServiceCategories = []string{}
	}
	if loc := v.Location(); loc != nil {
		lat, lng := loc.Lat(), loc.Lng()
		item.Latitude = &lat
		item.Longitude = &lng
	}
	if d := r.DistanceKm(); d != nil {
		rounded := roundKm(*d)
		item.Distance = &rounded
	}
	return item
}

// roundKm rounds a distance to 10 m for display; ranking uses the exact value.
func roundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

func filtersFromQuery(q *query.Query) AppliedFilters {
	f := AppliedFilters{
		ServiceCategories: q.Categories(),
		City:              q.City(),
		State:             q.State(),
		MinRating:         q.MinRating(),
		MaxHourlyRate:     q.MaxHourlyRate(),
		Sort:              string(q.Order()),
	}
	if o := q.Origin(); o != nil {
		lat, lng, radius := o.Lat(), o.Lng(), q.RadiusKm()
		f.Latitude = &lat
		f.Longitude = &lng
		f.Radius = &radius
	}
	return f
}
