package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vendorsearch/internal/domain"
	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/page"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/query"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/ranking"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/result"
	"github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
	"github.com/kailas-cloud/vendorsearch/internal/logger"
	"github.com/kailas-cloud/vendorsearch/internal/metrics"
)

// Default service settings.
const (
	DefaultStoreTimeout  = 2 * time.Second
	DefaultMaxCandidates = 5000
)

// Options tunes the search service.
type Options struct {
	// StoreTimeout bounds a single FindCandidates call. Zero uses DefaultStoreTimeout.
	StoreTimeout time.Duration
	// MaxCandidates caps the number of vendors ranked per request. When more
	// match, the best-rated are kept and the page is marked truncated.
	MaxCandidates int
}

// Service runs vendor searches: store pre-filter, exact re-check, ranking, pagination.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	store         VendorStore
	storeTimeout  time.Duration
	maxCandidates int
}

// New creates a search service.
func New(store VendorStore, opts Options) *Service {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultMaxCandidates
	}
	return &Service{store: store, storeTimeout: opts.StoreTimeout, maxCandidates: opts.MaxCandidates}
}

// Search executes a validated query and returns the requested page of ranked vendors.
// Store failures and timeouts are returned wrapped in domain.ErrStoreUnavailable.
func (s *Service) Search(ctx context.Context, q *query.Query) (page.Page[result.Result], error) {
	start := time.Now()
	sortLabel := string(q.Order())
	ctx = logger.With(ctx, zap.String("sort", sortLabel), zap.Bool("geo", q.Origin() != nil))
	log := logger.FromContext(ctx)

	// one extra candidate tells a full set apart from a capped one
	spec, err := candidate.FromQuery(q, s.maxCandidates+1)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(metrics.OutcomeInvalid, sortLabel).Inc()
		return page.Page[result.Result]{}, fmt.Errorf("%w: %w", domain.ErrInvalidFilter, err)
	}

	candidates, err := s.findCandidates(ctx, spec)
	if err != nil {
		outcome := metrics.OutcomeStoreError
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeStoreTimeout
		}
		metrics.SearchRequestsTotal.WithLabelValues(outcome, sortLabel).Inc()
		log.Warn("vendor store query failed", zap.Error(err))
		return page.Page[result.Result]{}, err
	}
	metrics.SearchCandidates.Observe(float64(len(candidates)))

	truncated := len(candidates) > s.maxCandidates
	if truncated {
		candidates = capCandidates(candidates, s.maxCandidates)
		log.Warn("candidate set capped", zap.Int("max_candidates", s.maxCandidates))
	}

	matched := filterCandidates(candidates, spec, q.Origin(), q.RadiusKm())
	ranked := ranking.Rank(matched, q.Origin(), q.Order())
	p := page.Paginate(ranked, q.Page(), q.PageSize())
	if truncated {
		p = p.MarkTruncated()
	}

	outcome := metrics.OutcomeOK
	if p.TotalCount() == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.SearchRequestsTotal.WithLabelValues(outcome, sortLabel).Inc()
	metrics.SearchDuration.WithLabelValues(strconv.FormatBool(q.Origin() != nil)).
		Observe(time.Since(start).Seconds())

	log.Debug("vendor search completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("matched", len(matched)),
		zap.Int("page", p.Number()),
		zap.Int("total_pages", p.TotalPages()),
		zap.Duration("duration", time.Since(start)),
	)
	return p, nil
}

// findCandidates queries the store under the configured timeout.
func (s *Service) findCandidates(ctx context.Context, spec candidate.Spec) ([]vendors.Vendor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	vs, err := s.store.FindCandidates(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w: %w", domain.ErrStoreUnavailable, err)
	}
	// a store that ignores ctx can still overrun; treat its late answer as a timeout
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("find candidates: %w: %w", domain.ErrStoreUnavailable, ctxErr)
	}
	return vs, nil
}

// capCandidates keeps the n best-rated vendors.
func capCandidates(vs []vendors.Vendor, n int) []vendors.Vendor {
	vs = slices.Clone(vs)
	slices.SortFunc(vs, func(a, b vendors.Vendor) int {
		return ranking.CompareCandidates(&a, &b)
	})
	return vs[:n]
}

// filterCandidates re-applies every predicate in-process and drops bounding-box
// corners beyond the exact radius. Input order is preserved.
func filterCandidates(vs []vendors.Vendor, spec candidate.Spec, origin *geo.Point, radiusKm float64) []vendors.Vendor {
	out := make([]vendors.Vendor, 0, len(vs))
	for i := range vs {
		v := &vs[i]
		if !spec.Matches(v) {
			continue
		}
		if origin != nil && geo.DistanceKm(*origin, *v.Location()) > radiusKm {
			continue
		}
		out = append(out, *v)
	}
	return out
}
