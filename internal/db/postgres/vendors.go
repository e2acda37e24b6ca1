package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vendorsearch/internal/db"
	"github.com/kailas-cloud/vendorsearch/internal/domain/geo"
	"github.com/kailas-cloud/vendorsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
	"github.com/kailas-cloud/vendorsearch/internal/logger"
	"github.com/kailas-cloud/vendorsearch/internal/metrics"
)

const upsertVendorSQL = `
INSERT INTO vendors (id, display_name, categories, city, state, hourly_rate,
  rating, rating_count, latitude, longitude, active, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
ON CONFLICT (id) DO UPDATE SET
  display_name = EXCLUDED.display_name,
  categories = EXCLUDED.categories,
  city = EXCLUDED.city,
  state = EXCLUDED.state,
  hourly_rate = EXCLUDED.hourly_rate,
  rating = EXCLUDED.rating,
  rating_count = EXCLUDED.rating_count,
  latitude = EXCLUDED.latitude,
  longitude = EXCLUDED.longitude,
  active = EXCLUDED.active,
  updated_at = now()`

// FindCandidates returns vendors matching spec, at most spec.Limit of them.
// The SQL predicate is exact for filters; the bounding box still needs a radius check.
func (s *Store) FindCandidates(ctx context.Context, spec candidate.Spec) ([]vendors.Vendor, error) {
	start := time.Now()
	defer func() {
		metrics.StoreQueryDuration.WithLabelValues(driverName).Observe(time.Since(start).Seconds())
	}()

	// one extra row tells a full result apart from a truncated one
	fetch := 0
	if spec.Limit > 0 {
		fetch = spec.Limit + 1
	}
	query, args, err := buildCandidateQuery(spec, fetch)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []vendors.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}

	if spec.Limit > 0 && len(out) > spec.Limit {
		out = out[:spec.Limit]
		metrics.CandidatesTruncatedTotal.WithLabelValues(driverName).Inc()
		logger.FromContext(ctx).Warn("candidate set truncated",
			zap.String("driver", driverName),
			zap.Int("limit", spec.Limit),
		)
	}
	return out, nil
}

// UpsertBatch inserts or replaces vendors in a single transaction.
func (s *Store) UpsertBatch(ctx context.Context, vs []vendors.Vendor) error {
	if len(vs) == 0 {
		return nil
	}
	err := s.transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertVendorSQL)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i := range vs {
			if _, err := stmt.ExecContext(ctx, upsertArgs(&vs[i])...); err != nil {
				return fmt.Errorf("vendor %s: %w", vs[i].ID(), err)
			}
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpUpsert, Err: err}
	}
	return nil
}

// DeleteAll removes every vendor row and returns how many were deleted.
func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM vendors")
	if err != nil {
		return 0, &db.Error{Op: db.OpDelete, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &db.Error{Op: db.OpDelete, Err: err}
	}
	return int(n), nil
}

func upsertArgs(v *vendors.Vendor) []any {
	var rate, lat, lng sql.NullFloat64
	if r := v.HourlyRate(); r != nil {
		rate = sql.NullFloat64{Float64: *r, Valid: true}
	}
	if p := v.Location(); p != nil {
		lat = sql.NullFloat64{Float64: p.Lat(), Valid: true}
		lng = sql.NullFloat64{Float64: p.Lng(), Valid: true}
	}
	categories := v.Categories()
	if categories == nil {
		categories = []string{}
	}
	return []any{
		v.ID(), v.DisplayName(), pq.Array(categories), v.City(), v.State(), rate,
		v.Rating(), v.RatingCount(), lat, lng, v.IsActive(),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVendor(row rowScanner) (vendors.Vendor, error) {
	var (
		r          vendorRow
		categories pq.StringArray
	)
	if err := row.Scan(
		&r.id, &r.displayName, &categories, &r.city, &r.state, &r.hourlyRate,
		&r.rating, &r.ratingCount, &r.latitude, &r.longitude, &r.active,
	); err != nil {
		return vendors.Vendor{}, err
	}
	r.categories = categories
	return r.toVendor(), nil
}

// vendorRow mirrors a vendors table row.
type vendorRow struct {
	id          string
	displayName string
	categories  []string
	city        string
	state       string
	hourlyRate  sql.NullFloat64
	rating      float64
	ratingCount int
	latitude    sql.NullFloat64
	longitude   sql.NullFloat64
	active      bool
}

func (r *vendorRow) toVendor() vendors.Vendor {
	p := vendors.Params{
		ID:          r.id,
		DisplayName: r.displayName,
		Categories:  r.categories,
		City:        r.city,
		State:       r.state,
		Rating:      r.rating,
		RatingCount: r.ratingCount,
		Active:      r.active,
	}
	if r.hourlyRate.Valid {
		rate := r.hourlyRate.Float64
		p.HourlyRate = &rate
	}
	if r.latitude.Valid && r.longitude.Valid {
		if pt, err := geo.NewPoint(r.latitude.Float64, r.longitude.Float64); err == nil {
			p.Location = &pt
		}
	}
	return vendors.Reconstruct(p)
}
