package memory

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vendorsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/ranking"
	"github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
	"github.com/kailas-cloud/vendorsearch/internal/logger"
	"github.com/kailas-cloud/vendorsearch/internal/metrics"
)

const driverName = "memory"

// Store keeps vendors in process memory. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	byID map[string]vendors.Vendor
	ids  []string // sorted
}

// NewStore creates a store holding vendors. Later duplicates replace earlier ones.
func NewStore(vs ...vendors.Vendor) *Store {
	s := &Store{byID: make(map[string]vendors.Vendor, len(vs))}
	s.put(vs)
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// Len returns the number of stored vendors.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// UpsertBatch inserts or replaces vendors.
func (s *Store) UpsertBatch(_ context.Context, vs []vendors.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(vs)
	return nil
}

func (s *Store) put(vs []vendors.Vendor) {
	for i := range vs {
		id := vs[i].ID()
		if _, ok := s.byID[id]; !ok {
			s.ids = append(s.ids, id)
		}
		s.byID[id] = vs[i]
	}
	slices.Sort(s.ids)
}

// FindCandidates scans all vendors and returns those matching spec exactly.
// When more than spec.Limit match, the best-rated spec.Limit are kept.
func (s *Store) FindCandidates(ctx context.Context, spec candidate.Spec) ([]vendors.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []vendors.Vendor
	for _, id := range s.ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v := s.byID[id]
		if spec.Matches(&v) {
			out = append(out, v)
		}
	}

	if spec.Limit > 0 && len(out) > spec.Limit {
		slices.SortFunc(out, func(a, b vendors.Vendor) int {
			return ranking.CompareCandidates(&a, &b)
		})
		out = out[:spec.Limit]
		metrics.CandidatesTruncatedTotal.WithLabelValues(driverName).Inc()
		logger.FromContext(ctx).Warn("candidate set truncated",
			zap.String("driver", driverName),
			zap.Int("limit", spec.Limit),
		)
	}
	return out, nil
}
