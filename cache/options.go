package cache

import (
	"context"
	"time"

	"github.com/ivanbrykalov/polycache/policy"
)

// EvictReason explains why an entry was removed.
type EvictReason = policy.EvictReason

const (
	// EvictPolicy — removed by the active eviction policy.
	EvictPolicy = policy.EvictPolicy
	// EvictTTL — expired by TTL, discovered lazily on access.
	EvictTTL = policy.EvictTTL
	// EvictCapacity — removed to satisfy a capacity limit other than the
	// policy's own.
	EvictCapacity = policy.EvictCapacity
)

// Metrics exposes cache-level observability hooks. A nil Metrics field
// in Options is replaced by NoopMetrics in New.
type Metrics = policy.Metrics

// Clock supplies the current time as Unix milliseconds; useful for
// deterministic TTL tests. Nil => time.Now().
type Clock interface{ NowUnixMilli() int64 }

// Policy selects the eviction policy backing every shard; see package
// policy's doc comment for why this is expressed as an interface.
type Policy[K comparable, V any] = policy.Factory[K, V]

// Options configures Cache construction. Zero values are mostly safe:
//   - CacheSize must be set explicitly (New rejects <= 0).
//   - PoolSize <= 0 => per-shard capacity + 1.
//   - ShardCount == 0 => auto, sized from GOMAXPROCS, rounded to a
//     power of two; > 0 is itself rounded up to a power of two; < 0 is
//     rejected by New.
//   - nil Policy => LRU.
//   - MaxLoadPercentage == 0 => 60; < 0 or > 100 is rejected by New.
//   - nil Metrics => NoopMetrics.
type Options[K comparable, V any] struct {
	// CacheSize is the logical entry budget shared across all shards.
	CacheSize int

	// PoolSize is the total preallocated node budget shared across all
	// shards. 0 defaults to CacheSize.
	PoolSize int

	// ShardCount is the number of independent shards. 0 picks a default
	// from runtime.GOMAXPROCS; any value is rounded up to a power of two.
	ShardCount int

	// Policy picks the eviction policy; see NewFIFO/NewLRU/NewSIEVE/
	// NewS3FIFO/NewTinyLFU. Nil defaults to LRU.
	Policy Policy[K, V]

	// MaxLoadPercentage bounds the HashIndex tombstone ratio before a
	// rehash. 0 defaults to 60; values outside (0,100] are rejected by
	// New.
	MaxLoadPercentage int

	// SingleThreaded disables internal per-shard locking. The zero
	// value keeps the cache safe for concurrent use; set true only
	// under caller-managed external synchronization.
	SingleThreaded bool

	// TTLEnabled gates PutWithTTL. PutWithTTL returns ErrTTLDisabled
	// when false.
	TTLEnabled bool

	// Loader fetches a value on a GetOrLoad miss.
	Loader func(ctx context.Context, k K) (V, error)

	// OnEvict is called under the owning shard's lock for every
	// eviction; keep callbacks lightweight.
	OnEvict func(k K, v V, reason EvictReason)

	// Metrics receives hit/miss/evict/size signals.
	Metrics Metrics

	// Clock overrides the time source (tests). Nil => time.Now().
	Clock Clock
}

func (o Options[K, V]) clockFunc() func() int64 {
	if o.Clock == nil {
		return nil
	}
	return o.Clock.NowUnixMilli
}

func (o Options[K, V]) ttlToDeadline(ttl time.Duration, nowMs int64) int64 {
	if ttl <= 0 {
		return 0
	}
	return nowMs + ttl.Milliseconds()
}
