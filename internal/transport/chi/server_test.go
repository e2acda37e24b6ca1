package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vendorsearch/internal/db/memory"
	"github.com/kailas-cloud/vendorsearch/internal/domain"
	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/page"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/query"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/result"
	"github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
	healthuc "github.com/kailas-cloud/vendorsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/vendorsearch/internal/usecase/search"
)

// --- Mocks ---

type mockSearcher struct {
	searchFn func(ctx context.Context, q *query.Query) (page.Page[result.Result], error)
	lastQ    *query.Query
}

func (m *mockSearcher) Search(ctx context.Context, q *query.Query) (page.Page[result.Result], error) {
	m.lastQ = q
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return page.Paginate([]result.Result{}, q.Page(), q.PageSize()), nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m mockHealth) Check(context.Context) healthuc.Report { return m.report }

func newTestRouter(s Searcher, h HealthChecker) http.Handler {
	if h == nil {
		h = mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	}
	r := chi.NewRouter()
	NewServer(s, h, query.DefaultLimits(), zap.NewNop()).Register(r)
	return r
}

func doGet(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return e
}

func pointPtr(lat, lng float64) *geo.Point {
	p := geo.MustPoint(lat, lng)
	return &p
}

func sfStore() *memory.Store {
	rate := 45.0
	return memory.NewStore(
		vendors.Reconstruct(vendors.Params{
			ID: "a", DisplayName: "Bay Plumbing", Categories: []string{"plumbing"},
			City: "San Francisco", State: "CA", Rating: 4.0, RatingCount: 7,
			Location: pointPtr(37.815, -122.42), Active: true,
		}),
		vendors.Reconstruct(vendors.Params{
			ID: "b", DisplayName: "Mission HVAC", Categories: []string{"hvac"},
			City: "San Francisco", State: "CA", HourlyRate: &rate, Rating: 4.0, RatingCount: 7,
			Location: pointPtr(37.788, -122.42), Active: true,
		}),
		vendors.Reconstruct(vendors.Params{
			ID: "c", DisplayName: "Napa Roofing", Categories: []string{"roofing"},
			City: "Napa", State: "CA", Rating: 5.0, RatingCount: 40,
			Location: pointPtr(38.22, -122.42), Active: true,
		}),
	)
}

// --- Tests ---

func TestSearchVendors_GeoSearch(t *testing.T) {
	h := newTestRouter(searchuc.New(sfStore(), searchuc.Options{}), nil)

	rr := doGet(t, h, SearchPath+"?latitude=37.77&longitude=-122.42&radius=10")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp SearchVendorsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Vendors) != 2 || resp.Vendors[0].ID != "b" || resp.Vendors[1].ID != "a" {
		t.Fatalf("vendors = %+v, want b,a", resp.Vendors)
	}
	if resp.Vendors[0].Distance == nil || *resp.Vendors[0].Distance <= 0 || *resp.Vendors[0].Distance > 3 {
		t.Errorf("distance of b = %v, want about 2 km", resp.Vendors[0].Distance)
	}
	if resp.Vendors[0].HourlyRate == nil || *resp.Vendors[0].HourlyRate != 45 {
		t.Errorf("hourlyRate = %v", resp.Vendors[0].HourlyRate)
	}
	if resp.Vendors[1].HourlyRate != nil {
		t.Errorf("unset hourlyRate must be null, got %v", *resp.Vendors[1].HourlyRate)
	}
	want := Pagination{Page: 1, Limit: 20, Total: 2, Pages: 1}
	if resp.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", resp.Pagination, want)
	}
	if resp.Filters.Radius == nil || *resp.Filters.Radius != 10 || resp.Filters.Sort != "rating" {
		t.Errorf("filters = %+v", resp.Filters)
	}
}

func TestSearchVendors_DistanceNullWithoutOrigin(t *testing.T) {
	h := newTestRouter(searchuc.New(sfStore(), searchuc.Options{}), nil)

	rr := doGet(t, h, SearchPath+"?limit=1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var raw struct {
		Vendors    []map[string]any `json:"vendors"`
		Pagination Pagination       `json:"pagination"`
		Filters    map[string]any   `json:"filters"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw.Vendors) != 1 || raw.Vendors[0]["id"] != "c" {
		t.Fatalf("expected highest rated vendor c, got %v", raw.Vendors)
	}
	d, ok := raw.Vendors[0]["distance"]
	if !ok || d != nil {
		t.Errorf("distance must be present and null, got %v (present=%v)", d, ok)
	}
	if raw.Pagination.Total != 3 || raw.Pagination.Pages != 3 {
		t.Errorf("pagination = %+v", raw.Pagination)
	}
	if _, ok := raw.Filters["latitude"]; ok {
		t.Error("non-geo search must not echo an origin")
	}
}

func TestSearchVendors_HugePageNumber(t *testing.T) {
	h := newTestRouter(searchuc.New(sfStore(), searchuc.Options{}), nil)

	rr := doGet(t, h, SearchPath+"?page=9223372036854775807&limit=100")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp SearchVendorsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Vendors) != 0 || resp.Pagination.Total != 3 || resp.Pagination.Pages != 1 {
		t.Errorf("got %d vendors, pagination %+v", len(resp.Vendors), resp.Pagination)
	}
}

func TestSearchVendors_TruncatedFlag(t *testing.T) {
	tests := []struct {
		name          string
		maxCandidates int
		wantTruncated bool
	}{
		{"capped", 2, true},
		{"complete", 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(searchuc.New(sfStore(), searchuc.Options{MaxCandidates: tt.maxCandidates}), nil)

			rr := doGet(t, h, SearchPath)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			var raw struct {
				Pagination map[string]any `json:"pagination"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&raw); err != nil {
				t.Fatalf("decode: %v", err)
			}
			got, present := raw.Pagination["truncated"]
			if present != tt.wantTruncated || (present && got != true) {
				t.Errorf("truncated = %v (present=%v), want %v", got, present, tt.wantTruncated)
			}
		})
	}
}

func TestSearchVendors_EmptyResult(t *testing.T) {
	h := newTestRouter(&mockSearcher{}, nil)

	rr := doGet(t, h, SearchPath+"?page=3&limit=10")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rr.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw["vendors"]) != "[]" {
		t.Errorf("vendors = %s, want []", raw["vendors"])
	}
}

func TestSearchVendors_CategoriesRepeatedAndCommaSeparated(t *testing.T) {
	m := &mockSearcher{}
	h := newTestRouter(m, nil)

	rr := doGet(t, h, SearchPath+"?serviceCategories=HVAC,plumbing&serviceCategories=roofing&city=%20Oakland%20")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if m.lastQ == nil {
		t.Fatal("searcher not called")
	}
	if got, want := m.lastQ.Categories(), []string{"hvac", "plumbing", "roofing"}; !slices.Equal(got, want) {
		t.Errorf("categories = %v, want %v", got, want)
	}
	if m.lastQ.City() != "Oakland" {
		t.Errorf("city = %q, want Oakland", m.lastQ.City())
	}
}

func TestSearchVendors_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		code  ErrorCode
	}{
		{"latitude without longitude", "latitude=37.7", ErrorCodeInvalidCoordinate},
		{"latitude out of range", "latitude=91&longitude=0", ErrorCodeInvalidCoordinate},
		{"latitude not a number", "latitude=abc&longitude=0", ErrorCodeInvalidCoordinate},
		{"zero radius", "latitude=1&longitude=1&radius=0", ErrorCodeInvalidRadius},
		{"radius too large", "latitude=1&longitude=1&radius=501", ErrorCodeInvalidRadius},
		{"radius not a number", "radius=far", ErrorCodeInvalidRadius},
		{"page zero", "page=0", ErrorCodeInvalidPagination},
		{"limit too large", "limit=101", ErrorCodeInvalidPagination},
		{"limit not a number", "limit=ten", ErrorCodeInvalidPagination},
		{"min rating too high", "minRating=6", ErrorCodeInvalidFilter},
		{"negative max rate", "maxHourlyRate=-1", ErrorCodeInvalidFilter},
		{"unknown sort", "sort=popularity", ErrorCodeInvalidFilter},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := &mockSearcher{}
			h := newTestRouter(m, nil)

			rr := doGet(t, h, SearchPath+"?"+tc.query)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rr.Code, rr.Body.String())
			}
			if e := decodeError(t, rr); e.Code != tc.code {
				t.Errorf("code = %q, want %q (message %q)", e.Code, tc.code, e.Message)
			}
			if m.lastQ != nil {
				t.Error("searcher must not be called for an invalid query")
			}
		})
	}
}

func TestSearchVendors_StoreUnavailable(t *testing.T) {
	m := &mockSearcher{searchFn: func(context.Context, *query.Query) (page.Page[result.Result], error) {
		return page.Page[result.Result]{}, fmt.Errorf("find candidates: %w: %w",
			domain.ErrStoreUnavailable, errors.New("dial tcp 10.0.0.1:6379: connection refused"))
	}}
	h := newTestRouter(m, nil)

	rr := doGet(t, h, SearchPath)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	e := decodeError(t, rr)
	if e.Code != ErrorCodeStoreUnavailable {
		t.Errorf("code = %q", e.Code)
	}
	if e.Message != domain.ErrStoreUnavailable.Error() {
		t.Errorf("message leaks internals: %q", e.Message)
	}
}

func TestSearchVendors_UnexpectedError(t *testing.T) {
	m := &mockSearcher{searchFn: func(context.Context, *query.Query) (page.Page[result.Result], error) {
		return page.Page[result.Result]{}, errors.New("boom")
	}}
	h := newTestRouter(m, nil)

	rr := doGet(t, h, SearchPath)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if e := decodeError(t, rr); e.Code != ErrorCodeInternalError || e.Message != "internal error" {
		t.Errorf("error = %+v", e)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		report     healthuc.Report
		wantStatus int
	}{
		{
			"healthy",
			healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK}},
			http.StatusOK,
		},
		{
			"degraded",
			healthuc.Report{Status: healthuc.Degraded, Checks: map[string]healthuc.CheckResult{
				"database": healthuc.CheckOK, "cache": healthuc.CheckError,
			}},
			http.StatusServiceUnavailable,
		},
		{
			"unhealthy",
			healthuc.Report{Status: healthuc.Unhealthy, Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError}},
			http.StatusServiceUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestRouter(&mockSearcher{}, mockHealth{report: tc.report})

			rr := doGet(t, h, "/health")
			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != string(tc.report.Status) {
				t.Errorf("status = %q, want %q", resp.Status, tc.report.Status)
			}
			for k, v := range tc.report.Checks {
				if resp.Checks[k] != string(v) {
					t.Errorf("check %s = %q, want %q", k, resp.Checks[k], v)
				}
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(&mockSearcher{}, nil)

	rr := doGet(t, h, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	h := newTestRouter(&mockSearcher{}, nil)

	rr := doGet(t, h, "/api/v1/vendors")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if e := decodeError(t, rr); e.Code != ErrorCodeRouteNotFound {
		t.Errorf("code = %q", e.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestRouter(&mockSearcher{}, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, SearchPath, http.NoBody))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
}

func TestRoundKm(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{2.0049, 2},
		{2.006, 2.01},
		{0, 0},
		{12.3456, 12.35},
	}
	for _, tc := range tests {
		if got := roundKm(tc.in); got != tc.want {
			t.Errorf("roundKm(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
