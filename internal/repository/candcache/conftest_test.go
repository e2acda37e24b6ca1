package candcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vendorsearch/internal/db"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/candidate"
	domvendor "github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
)

type mockInner struct {
	vendors []domvendor.Vendor
	err     error
	calls   int
}

func (m *mockInner) FindCandidates(context.Context, candidate.Spec) ([]domvendor.Vendor, error) {
	m.calls++
	return m.vendors, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

// memKV is a map-backed store for round-trip tests.
type memKV struct{ data map[string][]byte }

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func newTestCache(t *testing.T, inner *mockInner) (*CachedStore, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(inner, ms, "test:", 0, nil, zap.NewNop()), ms
}
