// Package lru implements the classic move-to-front Least-Recently-Used
// eviction policy: a single list ordered by recency, get/put-on-existing
// promote to the tail (MRU), head evicted on overflow.
package lru

import (
	"github.com/ivanbrykalov/polycache/internal/core"
	"github.com/ivanbrykalov/polycache/policy"
)

type factory[K comparable, V any] struct{}

// New returns a Factory that builds per-shard LRU instances.
func New[K comparable, V any]() policy.Factory[K, V] { return factory[K, V]{} }

func (factory[K, V]) NewShard(capacity, poolSize int, hooks policy.ShardHooks[K, V]) policy.Shard[K, V] {
	return newShard[K, V](capacity, poolSize, hooks)
}

type shard[K comparable, V any] struct {
	mu    core.Locker
	cap   int
	pool  *core.Pool[K, V]
	index *core.Index[K, V]
	list  core.List[K, V] // head = LRU, tail = MRU
	hooks policy.ShardHooks[K, V]
}

func newShard[K comparable, V any](capacity, poolSize int, hooks policy.ShardHooks[K, V]) *shard[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	if poolSize < 1 {
		poolSize = capacity + 1
	}
	return &shard[K, V]{
		mu:    core.NewLocker(!hooks.SingleThreaded),
		cap:   capacity,
		pool:  core.NewPool[K, V](poolSize),
		index: core.NewIndex[K, V](capacity, hooks.MaxLoadPercent),
		hooks: hooks,
	}
}

func (s *shard[K, V]) Contains(key K, hash uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Contains(key, hash)
}

func (s *shard[K, V]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Len()
}

func (s *shard[K, V]) Get(key K, hash uint64) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.index.Get(key, hash)
	if !ok {
		s.hooks.Miss()
		var zero V
		return zero, false
	}
	if s.index.CheckTTL(n, hash, s.hooks.Now()) {
		s.list.Remove(n)
		s.release(n, policy.EvictTTL)
		s.hooks.Miss()
		var zero V
		return zero, false
	}
	s.list.MoveToBack(n)
	s.hooks.Hit()
	return n.Val, true
}

func (s *shard[K, V]) Put(key K, value V, ttlMs int64, hash uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, found := s.index.GetOrInsert(key, hash, func() *core.Node[K, V] {
		nn := s.pool.Acquire()
		nn.Hash = hash
		return nn
	})
	n.Key, n.Val, n.Expiry = key, value, ttlMs
	if found {
		s.list.MoveToBack(n)
		return
	}
	s.list.Append(n)
	s.enforceCapacity()
	s.hooks.Size(s.index.Len())
}

func (s *shard[K, V]) Remove(key K, hash uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.index.Remove(key, hash)
	if !ok {
		return false
	}
	s.list.Remove(n)
	s.pool.Release(n)
	s.hooks.Size(s.index.Len())
	return true
}

func (s *shard[K, V]) enforceCapacity() {
	for s.index.Len() > s.cap {
		n := s.list.PopFirst()
		if n == nil {
			break
		}
		s.index.Remove(n.Key, n.Hash)
		s.release(n, policy.EvictPolicy)
	}
}

func (s *shard[K, V]) release(n *core.Node[K, V], reason policy.EvictReason) {
	s.hooks.Evicted(n.Key, n.Val, reason)
	s.pool.Release(n)
}
