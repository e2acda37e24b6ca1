package redis

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vendorsearch/internal/db"
)

// scanPageSize is the COUNT hint for each SCAN page.
const scanPageSize = 500

// ReplaceHashes overwrites each hash with exactly the given fields. Every
// item becomes a DEL followed by an HSET in one pipeline, so fields absent
// from the new record never survive from the old one.
func (s *Store) ReplaceHashes(ctx context.Context, items []db.HashSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, 2*len(items))
	for _, item := range items {
		if len(item.Fields) == 0 {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: no fields", item.Key)}
		}
		hset := s.b().Hset().Key(item.Key).FieldValue()
		for _, f := range slices.Sorted(maps.Keys(item.Fields)) {
			hset = hset.FieldValue(f, item.Fields[f])
		}
		cmds = append(cmds, s.b().Del().Key(item.Key).Build(), hset.Build())
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", items[i/2].Key, err)}
		}
	}
	return nil
}

// Del deletes keys. Missing keys are ignored.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.do(ctx, s.b().Del().Key(keys...).Build()).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// ScanHashes returns the names of all hash keys matching pattern.
// Keys of other types sharing the prefix (cache entries) are skipped server side.
func (s *Store) ScanHashes(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(scanPageSize).Type("hash").Build()
		page, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, page.Elements...)
		if cursor = page.Cursor; cursor == 0 {
			return keys, nil
		}
	}
}
