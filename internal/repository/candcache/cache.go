package candcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vendorsearch/internal/db"
	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/filter"
	domvendor "github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
)

// DefaultTTL bounds how stale a cached candidate set may get.
const DefaultTTL = 30 * time.Second

// VendorStore is the decorated candidate source.
type VendorStore interface {
	FindCandidates(ctx context.Context, spec candidate.Spec) ([]domvendor.Vendor, error)
}

// store is the consumer interface for the cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedStore caches candidate sets in a key-value store, keyed by spec.
// Cache failures never fail a search; they fall through to the inner store.
type CachedStore struct {
	inner      VendorStore
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"error"), passed explicitly.
func New(
	inner VendorStore,
	s store,
	keyPrefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedStore{
		inner:      inner,
		store:      s,
		prefix:     keyPrefix + "cand_cache:",
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// FindCandidates returns a cached candidate set or queries the inner store.
func (c *CachedStore) FindCandidates(ctx context.Context, spec candidate.Spec) ([]domvendor.Vendor, error) {
	key := c.cacheKey(spec)

	if vendors, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return vendors, nil
	}
	c.incCache("miss")

	vendors, err := c.inner.FindCandidates(ctx, spec)
	if err != nil {
		return nil, err
	}

	c.putToCache(ctx, key, vendors)
	return vendors, nil
}

func (c *CachedStore) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedStore) cacheKey(spec candidate.Spec) string {
	h := sha256.Sum256([]byte(canonicalSpec(spec)))
	return c.prefix + hex.EncodeToString(h[:])
}

func (c *CachedStore) getFromCache(ctx context.Context, key string) ([]domvendor.Vendor, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.incCache("error")
			c.logger.Warn("Failed to get cached candidates", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Warn("Failed to parse cached candidates", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vendors := make([]domvendor.Vendor, len(records))
	for i := range records {
		vendors[i] = records[i].toVendor()
	}
	return vendors, true
}

func (c *CachedStore) putToCache(ctx context.Context, key string, vendors []domvendor.Vendor) {
	records := make([]record, len(vendors))
	for i := range vendors {
		records[i] = fromVendor(&vendors[i])
	}
	data, err := json.Marshal(records)
	if err != nil {
		c.logger.Warn("Failed to encode candidates", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.incCache("error")
		c.logger.Warn("Failed to cache candidates", zap.String("key", key), zap.Error(err))
	}
}

// canonicalSpec renders a spec as a stable string. Equal specs render equally.
func canonicalSpec(spec candidate.Spec) string {
	var sb strings.Builder
	writeGroup(&sb, "must", spec.Filters.Must())
	writeGroup(&sb, "should", spec.Filters.Should())
	writeGroup(&sb, "not", spec.Filters.MustNot())
	if spec.Box != nil {
		fmt.Fprintf(&sb, "box:%s,%s,%s;", num(spec.Box.Center().Lat()), num(spec.Box.Center().Lng()),
			num(spec.Box.RadiusKm()))
	}
	fmt.Fprintf(&sb, "limit:%d", spec.Limit)
	return sb.String()
}

func writeGroup(sb *strings.Builder, name string, conds []filter.Condition) {
	sb.WriteString(name)
	sb.WriteByte('[')
	for _, c := range conds {
		sb.WriteString(c.Key())
		sb.WriteByte('|')
		switch {
		case c.IsMatch():
			sb.WriteString("eq|" + strconv.Quote(c.Match()))
		case c.IsContains():
			sb.WriteString("in|" + strconv.Quote(c.Contains()))
		case c.IsRange():
			r := c.Range()
			sb.WriteString("rng|" + bound(r.GT()) + "," + bound(r.GTE()) + "," + bound(r.LT()) + "," + bound(r.LTE()))
		}
		sb.WriteByte(';')
	}
	sb.WriteString("];")
}

func bound(f *float64) string {
	if f == nil {
		return "_"
	}
	return num(*f)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// record is the cached JSON form of a vendor.
type record struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	City        string   `json:"city,omitempty"`
	State       string   `json:"state,omitempty"`
	HourlyRate  *float64 `json:"hourlyRate,omitempty"`
	Rating      float64  `json:"rating"`
	RatingCount int      `json:"ratingCount"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	Active      bool     `json:"active"`
}

func fromVendor(v *domvendor.Vendor) record {
	r := record{
		ID:          v.ID(),
		DisplayName: v.DisplayName(),
		Categories:  v.Categories(),
		City:        v.City(),
		State:       v.State(),
		HourlyRate:  v.HourlyRate(),
		Rating:      v.Rating(),
		RatingCount: v.RatingCount(),
		Active:      v.IsActive(),
	}
	if p := v.Location(); p != nil {
		lat, lng := p.Lat(), p.Lng()
		r.Lat, r.Lng = &lat, &lng
	}
	return r
}

func (r *record) toVendor() domvendor.Vendor {
	p := domvendor.Params{
		ID:          r.ID,
		DisplayName: r.DisplayName,
		Categories:  r.Categories,
		City:        r.City,
		State:       r.State,
		HourlyRate:  r.HourlyRate,
		Rating:      r.Rating,
		RatingCount: r.RatingCount,
		Active:      r.Active,
	}
	if r.Lat != nil && r.Lng != nil {
		if pt, err := geo.NewPoint(*r.Lat, *r.Lng); err == nil {
			p.Location = &pt
		}
	}
	return domvendor.Reconstruct(p)
}
