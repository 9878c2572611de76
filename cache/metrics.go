package cache

import "github.com/ivanbrykalov/polycache/internal/util"

// NoopMetrics is a Metrics implementation that does nothing; the default
// when Options.Metrics is nil.
type NoopMetrics struct{}

func (NoopMetrics) Hit()              {}
func (NoopMetrics) Miss()             {}
func (NoopMetrics) Evict(EvictReason) {}
func (NoopMetrics) Size(int)          {}

// CounterMetrics is a minimal in-process Metrics sink backed by
// cache-line-padded atomics, for callers who want hit/miss/eviction
// counts without pulling in the Prometheus adapter (metrics/prom).
// Counters are padded to avoid false sharing between the hit, miss, and
// eviction counters on highly concurrent caches.
type CounterMetrics struct {
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
	size   util.PaddedAtomicInt64
}

func (m *CounterMetrics) Hit()              { m.hits.Add(1) }
func (m *CounterMetrics) Miss()             { m.misses.Add(1) }
func (m *CounterMetrics) Evict(EvictReason) { m.evicts.Add(1) }
func (m *CounterMetrics) Size(entries int)  { m.size.Store(int64(entries)) }

// Hits returns the cumulative hit count.
func (m *CounterMetrics) Hits() int64 { return m.hits.Load() }

// Misses returns the cumulative miss count.
func (m *CounterMetrics) Misses() int64 { return m.misses.Load() }

// Evictions returns the cumulative eviction count across all reasons.
func (m *CounterMetrics) Evictions() uint64 { return m.evicts.Load() }

// LastSize returns the most recently reported resident entry count for
// the shard that last reported. Callers wanting a cache-wide total should
// use Cache.Count() instead; this reflects only the last Size callback.
func (m *CounterMetrics) LastSize() int64 { return m.size.Load() }
