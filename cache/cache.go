package cache

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/ivanbrykalov/polycache/internal/util"
	"github.com/ivanbrykalov/polycache/policy"
	"github.com/ivanbrykalov/polycache/policy/lru"
	"golang.org/x/sync/singleflight"
)

// Construction-time configuration errors.
var (
	ErrZeroCapacity      = errors.New("cache: CacheSize must be > 0")
	ErrZeroShardCount    = errors.New("cache: ShardCount must be >= 0")
	ErrInvalidLoadFactor = errors.New("cache: MaxLoadPercentage must be in (0,100]")
	// ErrTTLDisabled is returned by PutWithTTL when Options.TTLEnabled is
	// false.
	ErrTTLDisabled = errors.New("cache: TTL is disabled for this cache (set Options.TTLEnabled)")
	// ErrNoLoader is returned by GetOrLoad when no Loader was configured.
	ErrNoLoader = errors.New("cache: no Loader configured")
)

// Cache is a sharded, generic key/value cache with a pluggable eviction
// policy. All methods are safe for concurrent use unless
// Options.SingleThreaded was set at construction.
type Cache[K comparable, V any] struct {
	shards []policy.Shard[K, V]
	hash   func(K) uint64
	closed atomic.Bool

	opt Options[K, V]
	sf  singleflight.Group
}

// New constructs a Cache per opt.
func New[K comparable, V any](opt Options[K, V]) (*Cache[K, V], error) {
	if opt.CacheSize <= 0 {
		return nil, ErrZeroCapacity
	}
	if opt.ShardCount < 0 {
		return nil, ErrZeroShardCount
	}
	if opt.MaxLoadPercentage < 0 || opt.MaxLoadPercentage > 100 {
		return nil, ErrInvalidLoadFactor
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Policy == nil {
		opt.Policy = lru.New[K, V]()
	}

	shardCount := util.ReasonableShardCount(opt.ShardCount)
	perShardCap := (opt.CacheSize + shardCount - 1) / shardCount

	perShardPool := 0
	if opt.PoolSize > 0 {
		perShardPool = opt.PoolSize/shardCount + 1
	}

	hooks := policy.ShardHooks[K, V]{
		OnEvict:        opt.OnEvict,
		Metrics:        opt.Metrics,
		Clock:          opt.clockFunc(),
		SingleThreaded: opt.SingleThreaded,
		MaxLoadPercent: opt.MaxLoadPercentage,
	}

	shards := make([]policy.Shard[K, V], shardCount)
	for i := range shards {
		shards[i] = opt.Policy.NewShard(perShardCap, perShardPool, hooks)
	}

	return &Cache[K, V]{
		shards: shards,
		hash:   util.Hash[K],
		opt:    opt,
	}, nil
}

// Contains reports key's presence without mutating recency state.
func (c *Cache[K, V]) Contains(k K) bool {
	if c.closed.Load() {
		return false
	}
	h := c.hash(k)
	return c.shardFor(h).Contains(k, h)
}

// Count returns the total number of resident entries across all
// shards; the sum is racy but monotonic between any two locked
// sections.
func (c *Cache[K, V]) Count() int {
	total := 0
	for _, s := range c.shards {
		total += s.Count()
	}
	return total
}

// Get returns the value for k and a presence flag, updating
// recency/frequency metadata and enforcing TTL.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	h := c.hash(k)
	return c.shardFor(h).Get(k, h)
}

// Put inserts or updates k->v with no expiry.
func (c *Cache[K, V]) Put(k K, v V) {
	if c.closed.Load() {
		return
	}
	h := c.hash(k)
	c.shardFor(h).Put(k, v, 0, h)
}

// PutWithTTL inserts or updates k->v with an absolute expiry ttl from
// now. It returns ErrTTLDisabled if Options.TTLEnabled is false. A
// non-positive ttl is treated as no expiry.
func (c *Cache[K, V]) PutWithTTL(k K, v V, ttl time.Duration) error {
	if !c.opt.TTLEnabled {
		return ErrTTLDisabled
	}
	if c.closed.Load() {
		return nil
	}
	deadline := c.opt.ttlToDeadline(ttl, c.now())
	h := c.hash(k)
	c.shardFor(h).Put(k, v, deadline, h)
	return nil
}

// Remove deletes k if present, reporting whether it was.
func (c *Cache[K, V]) Remove(k K) bool {
	if c.closed.Load() {
		return false
	}
	h := c.hash(k)
	return c.shardFor(h).Remove(k, h)
}

// Close marks the cache closed. Subsequent operations become no-ops
// (Get/Contains/Remove report absent, Put/PutWithTTL are ignored).
func (c *Cache[K, V]) Close() error {
	c.closed.Store(true)
	return nil
}

// SegmentSizes sums per-segment resident counts across shards for
// policies that expose policy.SegmentReporter (S3-FIFO, W-TinyLFU). It
// returns nil for policies with no internal segments (FIFO, LRU,
// SIEVE).
func (c *Cache[K, V]) SegmentSizes() map[string]int {
	total := map[string]int{}
	for _, s := range c.shards {
		r, ok := s.(policy.SegmentReporter)
		if !ok {
			return nil
		}
		for seg, n := range r.SegmentSizes() {
			total[seg] += n
		}
	}
	return total
}

// shardFor routes a precomputed key hash to its owning shard.
func (c *Cache[K, V]) shardFor(hash uint64) policy.Shard[K, V] {
	return c.shards[util.ShardIndex(hash, len(c.shards))]
}

func (c *Cache[K, V]) now() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixMilli()
	}
	return time.Now().UnixMilli()
}
