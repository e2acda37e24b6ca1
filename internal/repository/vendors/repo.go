package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vendorsearch/internal/db"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/candidate"
	domvendor "github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
	"github.com/kailas-cloud/vendorsearch/internal/logger"
	"github.com/kailas-cloud/vendorsearch/internal/metrics"
)

const (
	driverLabel = "redis"
	// defaultLimit matches the FT.SEARCH MAXSEARCHRESULTS default.
	defaultLimit = 10000
)

// store is the consumer interface for vendors (ISP).
type store interface {
	ReplaceHashes(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, keys ...string) error
	ScanHashes(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Search(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
}

// Repo keeps vendors as Redis hashes under <prefix>vendor:<id> and answers
// candidate queries through an FT index.
type Repo struct {
	store  store
	prefix string
}

// New creates a vendor repository. keyPrefix namespaces every key and the index.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// IndexName returns the FT index name.
func (r *Repo) IndexName() string {
	return r.prefix + "vendors:idx"
}

func (r *Repo) keyPrefix() string {
	return r.prefix + "vendor:"
}

func (r *Repo) key(id string) string {
	return r.keyPrefix() + id
}

// EnsureIndex creates the vendor index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(r.IndexName(), r.keyPrefix())
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// UpsertBatch writes vendors, replacing any stored hash with the same id.
func (r *Repo) UpsertBatch(ctx context.Context, vendors []domvendor.Vendor) error {
	if len(vendors) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(vendors))
	for i := range vendors {
		items[i] = db.HashSetItem{Key: r.key(vendors[i].ID()), Fields: buildHashFields(&vendors[i])}
	}
	if err := r.store.ReplaceHashes(ctx, items); err != nil {
		return fmt.Errorf("store vendors: %w", err)
	}
	return nil
}

// DeleteAll removes every vendor hash. Returns the number of deleted keys.
func (r *Repo) DeleteAll(ctx context.Context) (int, error) {
	keys, err := r.store.ScanHashes(ctx, r.keyPrefix()+"*")
	if err != nil {
		return 0, fmt.Errorf("scan vendors: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return 0, fmt.Errorf("delete vendors: %w", err)
	}
	return len(keys), nil
}

// FindCandidates runs a candidate spec against the index. Substring filters are not
// pushed down, so the result may include vendors the caller must drop.
// Hits come back highest rating first, so a capped result keeps the best-rated.
func (r *Repo) FindCandidates(ctx context.Context, spec candidate.Spec) ([]domvendor.Vendor, error) {
	start := time.Now()
	defer func() {
		metrics.StoreQueryDuration.WithLabelValues(driverLabel).Observe(time.Since(start).Seconds())
	}()

	limit := spec.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	res, err := r.store.Search(ctx, &db.FilterQuery{
		IndexName:    r.IndexName(),
		Filters:      spec.Filters,
		Box:          db.NewGeoBox(spec.Box, domvendor.FieldLat, domvendor.FieldLng),
		Limit:        limit,
		ReturnFields: returnFields,
		SortBy:       domvendor.FieldRating,
		SortDesc:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("search vendors: %w", err)
	}
	if res == nil {
		return nil, nil
	}

	log := logger.FromContext(ctx)
	if res.Total > len(res.Entries) {
		metrics.CandidatesTruncatedTotal.WithLabelValues(driverLabel).Inc()
		log.Warn("candidate set truncated",
			zap.String("driver", driverLabel),
			zap.Int("total", res.Total),
			zap.Int("limit", limit),
		)
	}

	out := make([]domvendor.Vendor, 0, len(res.Entries))
	for _, e := range res.Entries {
		if e.Fields == nil {
			e.Fields = map[string]string{}
		}
		if e.Fields["id"] == "" {
			e.Fields["id"] = strings.TrimPrefix(e.Key, r.keyPrefix())
		}
		out = append(out, parseHashFields(e.Fields))
	}
	return out, nil
}
