// Package cache provides a fast, generic, sharded in-memory key/value
// cache with five interchangeable eviction policies (FIFO, LRU, SIEVE,
// S3-FIFO, W-TinyLFU), optional per-entry TTL, and lightweight metrics
// hooks.
//
// # Design
//
//   - Concurrency: the cache is split into shards, each owning one
//     eviction-policy instance and (unless Options.SingleThreaded) its
//     own sync.RWMutex. The default shard count is chosen from
//     runtime.GOMAXPROCS and rounded to a power of two, so routing is a
//     mask rather than a modulo.
//
//   - Storage: each policy owns its own hash index and intrusive
//     list(s); see package policy and internal/core for the shared
//     building blocks (Node, Pool, List, HashIndex).
//
//   - Policies: pick one with NewFIFO/NewLRU/NewSIEVE/NewS3FIFO/
//     NewTinyLFU; Options.Policy defaults to LRU.
//
//   - TTL: entries can carry a per-item deadline (Unix milliseconds).
//     Expiration is lazy, checked at access time; PutWithTTL requires
//     Options.TTLEnabled.
//
//   - GetOrLoad: coalesces concurrent loads for the same key using
//     golang.org/x/sync/singleflight. Returns ErrNoLoader if no Loader
//     is configured.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     NoopMetrics is the default; CounterMetrics is a minimal in-process
//     alternative, and metrics/prom adapts to Prometheus.
//
//   - Callbacks: Options.OnEvict(k, v, reason) runs for every eviction
//     under the owning shard's lock; keep it cheap.
//
// # Basic usage
//
//	c, err := cache.New[string, []byte](cache.Options[string, []byte]{
//	    CacheSize: 10_000,
//	    Policy:    cache.NewLRU[string, []byte](),
//	})
//	c.Put("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.Remove("a")
//
// # With TTL
//
//	c, _ := cache.New[string, string](cache.Options[string, string]{
//	    CacheSize:  1024,
//	    TTLEnabled: true,
//	})
//	c.PutWithTTL("tmp", "v", 200*time.Millisecond)
//	time.Sleep(300 * time.Millisecond)
//	_, ok := c.Get("tmp") // ok == false (expired)
//
// # With GetOrLoad (singleflight)
//
//	c, _ := cache.New[string, string](cache.Options[string, string]{
//	    CacheSize: 1024,
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        return "v:" + k, nil
//	    },
//	})
//	v, err := c.GetOrLoad(context.Background(), "key")
//
// # Choosing an alternative policy
//
//	c, _ := cache.New[string, string](cache.Options[string, string]{
//	    CacheSize: 50_000,
//	    Policy:    cache.NewS3FIFO[string, string](10),
//	})
//
// See package policy for the Shard/Factory interfaces used to
// implement or adapt eviction policies, and package internal/core for
// the Node/Pool/List/HashIndex these policies are built from.
package cache
