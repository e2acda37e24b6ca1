package vendors

import (
	"context"
	"testing"

	"github.com/kailas-cloud/vendorsearch/internal/db"
	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
	domvendor "github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	replaceFn     func(ctx context.Context, items []db.HashSetItem) error
	delFn         func(ctx context.Context, keys ...string) error
	scanHashesFn  func(ctx context.Context, pattern string) ([]string, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchFn      func(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
}

func (m *mockStore) ReplaceHashes(ctx context.Context, items []db.HashSetItem) error {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, items)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}

func (m *mockStore) ScanHashes(ctx context.Context, pattern string) ([]string, error) {
	if m.scanHashesFn != nil {
		return m.scanHashesFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) Search(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "test:"), ms
}

func testVendor(t *testing.T) domvendor.Vendor {
	t.Helper()
	rate := 85.5
	loc := geo.MustPoint(37.77, -122.42)
	v, err := domvendor.New(domvendor.Params{
		ID:          "ace-plumbing",
		DisplayName: "Ace Plumbing",
		Categories:  []string{"plumbing", "hvac"},
		City:        "San Francisco",
		State:       "CA",
		HourlyRate:  &rate,
		Rating:      4.7,
		RatingCount: 120,
		Location:    &loc,
		Active:      true,
	})
	if err != nil {
		t.Fatalf("vendor: %v", err)
	}
	return v
}
