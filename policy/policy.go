// Package policy defines the uniform per-shard eviction-policy contract
// and the hooks a shard uses to report hits, misses, evictions and to
// read the clock. Concrete policies (fifo, lru, sieve, s3fifo, tinylfu)
// each implement Shard and expose a Factory so ShardedCache can build
// one instance per shard without knowing which policy it picked.
//
// Dispatch is an interface satisfied by exactly one of the five
// concrete generic shard types, selected once at construction time by
// cache.New and never re-dispatched per call — the choice of policy
// lives in cache.Options.Policy, not on the hot path.
package policy

import "time"

// EvictReason explains why an entry left the cache.
type EvictReason int

const (
	// EvictPolicy — removed by the active eviction policy.
	EvictPolicy EvictReason = iota
	// EvictTTL — expired by TTL, discovered lazily on access.
	EvictTTL
	// EvictCapacity — removed to satisfy a capacity limit other than the
	// policy's own (reserved for future cost-based limits).
	EvictCapacity
)

// Metrics receives shard-level observability signals. A nil Metrics
// field in ShardHooks disables all calls.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
}

// Shard is the uniform contract every eviction policy's per-shard
// instance satisfies: contains/count take a shared lock internally,
// get/put/remove take an exclusive lock because even a read mutates
// recency/frequency metadata and may evict expired entries.
type Shard[K comparable, V any] interface {
	// Contains reports key's presence without mutating recency state.
	Contains(key K, hash uint64) bool
	// Count returns the number of resident entries.
	Count() int
	// Get returns the value for key, updating recency/frequency and
	// enforcing TTL.
	Get(key K, hash uint64) (V, bool)
	// Put inserts or updates key->value. ttlMs is an absolute Unix
	// millisecond deadline, or 0 for no TTL.
	Put(key K, value V, ttlMs int64, hash uint64)
	// Remove deletes key if present, reporting whether it was.
	Remove(key K, hash uint64) bool
}

// Factory constructs one shard instance, sized for capacity resident
// entries and poolSize preallocated nodes, bound to hooks.
type Factory[K comparable, V any] interface {
	NewShard(capacity, poolSize int, hooks ShardHooks[K, V]) Shard[K, V]
}

// SegmentReporter is an optional capability a Shard may implement to
// expose its internal subdivision sizes (S3-FIFO's Small/Main/Ghost,
// W-TinyLFU's Window/Probationary/Protected) for observability. It is
// not part of the uniform Shard contract because FIFO/LRU/SIEVE have
// no internal segments to report.
type SegmentReporter interface {
	SegmentSizes() map[string]int
}

// ShardHooks carries the cross-cutting concerns every policy shard needs
// but none of them owns: the eviction callback, the metrics sink, and
// the clock. Passed once at shard construction.
type ShardHooks[K comparable, V any] struct {
	OnEvict func(k K, v V, reason EvictReason)
	Metrics Metrics
	Clock   func() int64 // now, in Unix milliseconds; nil => time.Now()

	// SingleThreaded, when true, collapses the shard's lock to a
	// zero-cost no-op (core.NoopLocker) instead of a real sync.RWMutex.
	// The zero value (false) keeps the shard safe for concurrent use.
	SingleThreaded bool

	// MaxLoadPercent bounds the HashIndex tombstone ratio before a
	// rehash. <= 0 or > 100 defaults to 60 inside core.NewIndex.
	MaxLoadPercent int
}

// Now returns the current time in Unix milliseconds via Clock if set.
func (h ShardHooks[K, V]) Now() int64 {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UnixMilli()
}

// Hit forwards to Metrics.Hit if Metrics is set.
func (h ShardHooks[K, V]) Hit() {
	if h.Metrics != nil {
		h.Metrics.Hit()
	}
}

// Miss forwards to Metrics.Miss if Metrics is set.
func (h ShardHooks[K, V]) Miss() {
	if h.Metrics != nil {
		h.Metrics.Miss()
	}
}

// Evicted forwards to Metrics.Evict and OnEvict, if set.
func (h ShardHooks[K, V]) Evicted(k K, v V, reason EvictReason) {
	if h.Metrics != nil {
		h.Metrics.Evict(reason)
	}
	if h.OnEvict != nil {
		h.OnEvict(k, v, reason)
	}
}

// Size forwards to Metrics.Size if Metrics is set.
func (h ShardHooks[K, V]) Size(entries int) {
	if h.Metrics != nil {
		h.Metrics.Size(entries)
	}
}
