// Package db holds the storage contracts shared by the concrete backends
// (Elasticsearch, Redis, Badger, Postgres).
package db

import "context"

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore is a byte-oriented key-value store used for caches.
// Get returns ErrKeyNotFound for a missing key.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
