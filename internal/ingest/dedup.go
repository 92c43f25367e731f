package ingest

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DedupIndex is the set of content digests that have been fully persisted.
// Digests are inserted by workers after a successful write, never at
// admission time, so two identical uploads racing through the pipeline can
// both be accepted. The set only grows; there is no eviction.
type DedupIndex interface {
	Contains(ctx context.Context, digest string) (bool, error)
	Insert(ctx context.Context, digest string) error
}

// MemoryDedupIndex is the default in-process index.
type MemoryDedupIndex struct {
	mu      sync.RWMutex
	digests map[string]struct{}
}

func NewMemoryDedupIndex() *MemoryDedupIndex {
	return &MemoryDedupIndex{digests: make(map[string]struct{})}
}

func (m *MemoryDedupIndex) Contains(_ context.Context, digest string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.digests[digest]
	return ok, nil
}

func (m *MemoryDedupIndex) Insert(_ context.Context, digest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.digests[digest] = struct{}{}
	return nil
}

// RedisDedupIndex keeps the digest set in a Redis set, letting restarts keep
// their dedup history. The upload handler treats read errors as "not seen",
// so a Redis outage degrades to accepting duplicates rather than rejecting
// uploads.
type RedisDedupIndex struct {
	client *redis.Client
	key    string
}

func NewRedisDedupIndex(client *redis.Client, key string) *RedisDedupIndex {
	if key == "" {
		key = "mediasink:digests"
	}
	return &RedisDedupIndex{client: client, key: key}
}

func (r *RedisDedupIndex) Contains(ctx context.Context, digest string) (bool, error) {
	return r.client.SIsMember(ctx, r.key, digest).Result()
}

func (r *RedisDedupIndex) Insert(ctx context.Context, digest string) error {
	return r.client.SAdd(ctx, r.key, digest).Err()
}
