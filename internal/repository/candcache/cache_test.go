package candcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/query"
	domvendor "github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
)

func floatPtr(f float64) *float64 { return &f }

func mustSpec(t *testing.T, p query.Params) candidate.Spec {
	t.Helper()
	q, err := query.New(p, query.DefaultLimits())
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	spec, err := candidate.FromQuery(q, 100)
	if err != nil {
		t.Fatalf("FromQuery: %v", err)
	}
	return spec
}

func sampleVendors() []domvendor.Vendor {
	loc := geo.MustPoint(30.27, -97.74)
	return []domvendor.Vendor{
		domvendor.Reconstruct(domvendor.Params{
			ID: "ace", DisplayName: "Ace", Categories: []string{"plumbing"},
			City: "Austin", State: "TX", HourlyRate: floatPtr(60),
			Rating: 4.5, RatingCount: 10, Location: &loc, Active: true,
		}),
		domvendor.Reconstruct(domvendor.Params{ID: "bare", Active: true}),
	}
}

func TestFindCandidates_MissThenHit(t *testing.T) {
	inner := &mockInner{vendors: sampleVendors()}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	c := New(inner, &memKV{data: map[string][]byte{}}, "test:", time.Minute, counter, zap.NewNop())
	spec := mustSpec(t, query.Params{City: "austin"})

	first, err := c.FindCandidates(context.Background(), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.FindCandidates(context.Background(), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	if testutil.ToFloat64(counter.WithLabelValues("miss")) != 1 || testutil.ToFloat64(counter.WithLabelValues("hit")) != 1 {
		t.Error("expected one miss and one hit")
	}
	if len(second) != len(first) {
		t.Fatalf("cached len = %d, want %d", len(second), len(first))
	}
	got := second[0]
	if got.ID() != "ace" || got.City() != "Austin" || *got.HourlyRate() != 60 || got.Location().Lat() != 30.27 {
		t.Errorf("cached vendor differs: %+v", got)
	}
	if second[1].HourlyRate() != nil || second[1].Location() != nil {
		t.Error("unset values must survive the cache as unset")
	}
}

func TestFindCandidates_StoreErrorsFallThrough(t *testing.T) {
	inner := &mockInner{vendors: sampleVendors()}
	c, ms := newTestCache(t, inner)
	ms.getFn = func(context.Context, string) ([]byte, error) { return nil, errors.New("redis down") }
	ms.setFn = func(context.Context, string, []byte, time.Duration) error { return errors.New("redis down") }

	got, err := c.FindCandidates(context.Background(), mustSpec(t, query.Params{}))
	if err != nil {
		t.Fatalf("cache errors must not fail the search: %v", err)
	}
	if len(got) != 2 || inner.calls != 1 {
		t.Errorf("got %d vendors after %d inner calls", len(got), inner.calls)
	}
}

func TestFindCandidates_CorruptEntry(t *testing.T) {
	inner := &mockInner{vendors: sampleVendors()}
	c, ms := newTestCache(t, inner)
	ms.getFn = func(context.Context, string) ([]byte, error) { return []byte("{not json"), nil }

	if _, err := c.FindCandidates(context.Background(), mustSpec(t, query.Params{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Error("corrupt entry must fall through to the inner store")
	}
}

func TestFindCandidates_InnerErrorNotCached(t *testing.T) {
	want := errors.New("store down")
	inner := &mockInner{err: want}
	c, ms := newTestCache(t, inner)
	ms.setFn = func(context.Context, string, []byte, time.Duration) error {
		t.Fatal("errors must not be cached")
		return nil
	}

	if _, err := c.FindCandidates(context.Background(), mustSpec(t, query.Params{})); !errors.Is(err, want) {
		t.Errorf("expected inner error, got %v", err)
	}
}

func TestFindCandidates_TTLAndKey(t *testing.T) {
	c, ms := newTestCache(t, &mockInner{})
	var gotKey string
	var gotTTL time.Duration
	ms.setFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		gotKey, gotTTL = key, ttl
		return nil
	}

	if _, err := c.FindCandidates(context.Background(), mustSpec(t, query.Params{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTTL != DefaultTTL {
		t.Errorf("ttl = %v, want %v", gotTTL, DefaultTTL)
	}
	if !strings.HasPrefix(gotKey, "test:cand_cache:") || len(gotKey) != len("test:cand_cache:")+64 {
		t.Errorf("key = %q", gotKey)
	}
}

func TestCanonicalSpec(t *testing.T) {
	lat, lng := floatPtr(37.77), floatPtr(-122.42)

	a := canonicalSpec(mustSpec(t, query.Params{Categories: []string{"Plumbing", "hvac"}, Latitude: lat, Longitude: lng}))
	b := canonicalSpec(mustSpec(t, query.Params{Categories: []string{"hvac", "plumbing"}, Latitude: lat, Longitude: lng}))
	if a != b {
		t.Errorf("equivalent queries must share a key:\n%s\n%s", a, b)
	}

	others := []query.Params{
		{Categories: []string{"hvac"}, Latitude: lat, Longitude: lng},
		{Categories: []string{"hvac", "plumbing"}, Latitude: lat, Longitude: lng, RadiusKm: floatPtr(5)},
		{Categories: []string{"hvac", "plumbing"}},
		{Categories: []string{"hvac", "plumbing"}, Latitude: lat, Longitude: lng, MinRating: floatPtr(4)},
	}
	for _, p := range others {
		if canonicalSpec(mustSpec(t, p)) == a {
			t.Errorf("different query %+v rendered the same key", p)
		}
	}
}
