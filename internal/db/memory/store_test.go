package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/query"
	"github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
)

const fixtureYAML = `
vendors:
  - id: ace
    displayName: Ace Plumbing
    serviceCategories: [Plumbing, " HVAC "]
    city: San Francisco
    state: CA
    hourlyRate: 85
    rating: 4.7
    ratingCount: 120
    latitude: 37.77
    longitude: -122.42
  - id: bolt
    displayName: Bolt Electric
    serviceCategories: [electrical]
    city: Oakland
    state: CA
    rating: 4.2
    ratingCount: 30
    latitude: 37.80
    longitude: -122.27
  - id: gone
    displayName: Gone Roofing
    serviceCategories: [roofing]
    active: false
  - displayName: No Id Yet
    rating: 3
`

func floatPtr(f float64) *float64 { return &f }

func mustSpec(t *testing.T, p query.Params, limit int) candidate.Spec {
	t.Helper()
	q, err := query.New(p, query.DefaultLimits())
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	spec, err := candidate.FromQuery(q, limit)
	if err != nil {
		t.Fatalf("FromQuery: %v", err)
	}
	return spec
}

func loadStore(t *testing.T) *Store {
	t.Helper()
	vs, err := LoadFixtures(strings.NewReader(fixtureYAML))
	if err != nil {
		t.Fatalf("LoadFixtures: %v", err)
	}
	return NewStore(vs...)
}

func ids(vs []vendors.Vendor) []string {
	out := make([]string, 0, len(vs))
	for i := range vs {
		out = append(out, vs[i].ID())
	}
	return out
}

func TestLoadFixtures(t *testing.T) {
	vs, err := LoadFixtures(strings.NewReader(fixtureYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vs) != 4 {
		t.Fatalf("vendors = %d, want 4", len(vs))
	}

	ace := vs[0]
	if got := ace.Categories(); len(got) != 2 || got[0] != "hvac" || got[1] != "plumbing" {
		t.Errorf("categories = %v, want normalized [hvac plumbing]", got)
	}
	if !ace.IsActive() {
		t.Error("active must default to true")
	}
	if ace.HourlyRate() == nil || *ace.HourlyRate() != 85 {
		t.Errorf("hourly rate = %v", ace.HourlyRate())
	}
	if vs[1].HourlyRate() != nil {
		t.Error("missing hourly rate must stay unset")
	}
	if vs[2].IsActive() || vs[2].Location() != nil {
		t.Error("gone: expected inactive without location")
	}
	if vs[3].ID() == "" {
		t.Error("missing id must be generated")
	}
}

func TestLoadFixtures_Empty(t *testing.T) {
	vs, err := LoadFixtures(strings.NewReader(""))
	if err != nil || len(vs) != 0 {
		t.Errorf("got %v, %v; want empty", vs, err)
	}
}

func TestLoadFixtures_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "vendors:\n  - id: a\n    colour: red\n"},
		{"half location", "vendors:\n  - id: a\n    latitude: 10\n"},
		{"bad latitude", "vendors:\n  - id: a\n    latitude: 91\n    longitude: 0\n"},
		{"bad rating", "vendors:\n  - id: a\n    rating: 6\n"},
		{"bad id", "vendors:\n  - id: \"a b\"\n"},
		{"duplicate id", "vendors:\n  - id: a\n  - id: a\n"},
		{"comma in category", "vendors:\n  - id: a\n    serviceCategories: [\"heating, cooling\"]\n"},
		{"not yaml", "vendors: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadFixtures(strings.NewReader(tc.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFixtureFile_Missing(t *testing.T) {
	if _, err := LoadFixtureFile("/nonexistent/vendors.yaml"); err == nil {
		t.Error("expected error")
	}
}

func TestFindCandidates_ActiveOnly(t *testing.T) {
	s := loadStore(t)

	got, err := s.FindCandidates(context.Background(), mustSpec(t, query.Params{}, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range ids(got) {
		if id == "gone" {
			t.Error("inactive vendor returned")
		}
	}
	if len(got) != 3 {
		t.Errorf("got %v, want 3 active vendors", ids(got))
	}
}

func TestFindCandidates_Filters(t *testing.T) {
	s := loadStore(t)

	tests := []struct {
		name string
		p    query.Params
		want []string
	}{
		{"category any-of", query.Params{Categories: []string{"electrical", "roofing"}}, []string{"bolt"}},
		{"city substring", query.Params{City: "francisco"}, []string{"ace"}},
		{"min rating", query.Params{MinRating: floatPtr(4.5)}, []string{"ace"}},
		{"max rate drops unset", query.Params{MaxHourlyRate: floatPtr(100)}, []string{"ace"}},
		{
			"geo box",
			query.Params{Latitude: floatPtr(37.77), Longitude: floatPtr(-122.42), RadiusKm: floatPtr(5)},
			[]string{"ace"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.FindCandidates(context.Background(), mustSpec(t, tc.p, 100))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fmt.Sprint(ids(got)) != fmt.Sprint(tc.want) {
				t.Errorf("got %v, want %v", ids(got), tc.want)
			}
		})
	}
}

func TestFindCandidates_Limit(t *testing.T) {
	vs := make([]vendors.Vendor, 10)
	for i := range vs {
		vs[i] = vendors.Reconstruct(vendors.Params{ID: fmt.Sprintf("v-%02d", 9-i), Active: true})
	}
	s := NewStore(vs...)

	got, err := s.FindCandidates(context.Background(), mustSpec(t, query.Params{}, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(ids(got)) != "[v-00 v-01 v-02]" {
		t.Errorf("got %v, want first three ids in order", ids(got))
	}
}

func TestFindCandidates_LimitKeepsBestRated(t *testing.T) {
	s := NewStore(
		vendors.Reconstruct(vendors.Params{ID: "a", Rating: 1.0, Active: true}),
		vendors.Reconstruct(vendors.Params{ID: "b", Rating: 4.0, RatingCount: 3, Active: true}),
		vendors.Reconstruct(vendors.Params{ID: "c", Rating: 4.0, RatingCount: 9, Active: true}),
		vendors.Reconstruct(vendors.Params{ID: "z", Rating: 5.0, Active: true}),
	)

	got, err := s.FindCandidates(context.Background(), mustSpec(t, query.Params{}, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(ids(got)) != "[z c b]" {
		t.Errorf("got %v, want [z c b]", ids(got))
	}
}

func TestFindCandidates_Cancelled(t *testing.T) {
	s := loadStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.FindCandidates(ctx, mustSpec(t, query.Params{}, 10)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestUpsertBatch_Replaces(t *testing.T) {
	s := loadStore(t)
	p := geo.MustPoint(40.71, -74.0)
	updated := vendors.Reconstruct(vendors.Params{ID: "ace", Rating: 1, Location: &p, Active: false})

	if err := s.UpsertBatch(context.Background(), []vendors.Vendor{updated}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 4 {
		t.Errorf("Len = %d, want 4", s.Len())
	}
	got, _ := s.FindCandidates(context.Background(), mustSpec(t, query.Params{City: "francisco"}, 10))
	if len(got) != 0 {
		t.Errorf("replaced vendor must no longer match, got %v", ids(got))
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := loadStore(t)
	spec := mustSpec(t, query.Params{}, 100)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.FindCandidates(context.Background(), spec)
		}()
		go func() {
			defer wg.Done()
			v := vendors.Reconstruct(vendors.Params{ID: fmt.Sprintf("c-%d", i), Active: true})
			_ = s.UpsertBatch(context.Background(), []vendors.Vendor{v})
		}()
	}
	wg.Wait()

	if s.Len() != 12 {
		t.Errorf("Len = %d, want 12", s.Len())
	}
}
