// Package db defines the storage contracts shared by the Redis, Postgres and
// in-memory drivers.
package db

import (
	"context"
	"time"
)

// Store is everything the Redis driver offers. Consumers depend on the
// narrow interfaces below instead.
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem is the full field set of one hash.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore writes, removes and lists hashes.
type HashStore interface {
	// ReplaceHashes overwrites each hash so that fields absent from an item are cleared.
	ReplaceHashes(ctx context.Context, items []HashSetItem) error
	Del(ctx context.Context, keys ...string) error
	// ScanHashes lists keys of hash type matching a glob pattern.
	ScanHashes(ctx context.Context, pattern string) ([]string, error)
}

// KVStore holds short-lived string values.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager manages FT index lifecycle.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs filtered queries over FT indexes.
type Searcher interface {
	Search(ctx context.Context, q *FilterQuery) (*SearchResult, error)
}
