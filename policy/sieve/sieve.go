// Package sieve implements the SIEVE eviction policy: a single list
// with newcomers prepended at the head, a per-node visited bit set on
// hit, and a moving "hand" that scans
// backward (toward the head) looking for an unvisited victim, clearing
// visited bits as it passes them, wrapping from head to tail.
//
// See Zhang, Yang, et al., "SIEVE is Simpler than LRU" (NSDI'24).
package sieve

import (
	"github.com/ivanbrykalov/polycache/internal/core"
	"github.com/ivanbrykalov/polycache/policy"
)

type factory[K comparable, V any] struct{}

// New returns a Factory that builds per-shard SIEVE instances.
func New[K comparable, V any]() policy.Factory[K, V] { return factory[K, V]{} }

func (factory[K, V]) NewShard(capacity, poolSize int, hooks policy.ShardHooks[K, V]) policy.Shard[K, V] {
	return newShard[K, V](capacity, poolSize, hooks)
}

type shard[K comparable, V any] struct {
	mu    core.Locker
	cap   int
	pool  *core.Pool[K, V]
	index *core.Index[K, V]
	list  core.List[K, V] // head = newest insert, tail = oldest
	hand  *core.Node[K, V]
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
		s.unlinkAndRelease(n, policy.EvictTTL)
		s.hooks.Miss()
		var zero V
		return zero, false
	}
	n.Payload.Visited = true
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
		n.Payload.Visited = true
		return
	}

	n.Payload.Visited = false
	if s.index.Len() > s.cap {
		s.evictOne()
	}
	s.list.Prepend(n)
	s.hooks.Size(s.index.Len())
}

func (s *shard[K, V]) Remove(key K, hash uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.index.Remove(key, hash)
	if !ok {
		return false
	}
	if s.hand == n {
		s.hand = n.Prev
	}
	s.list.Remove(n)
	s.pool.Release(n)
	s.hooks.Size(s.index.Len())
	return true
}

// evictOne runs the clock scan: start at hand (or tail if unset), walk
// backward via Prev, clearing visited bits, wrapping from head to tail,
// until an unvisited node is found.
func (s *shard[K, V]) evictOne() {
	cur := s.hand
	if cur == nil {
		cur = s.list.Back()
	}
	for cur != nil {
		if !cur.Payload.Visited {
			s.hand = cur.Prev
			s.unlinkAndRelease(cur, policy.EvictPolicy)
			return
		}
		cur.Payload.Visited = false
		cur = cur.Prev
		if cur == nil {
			cur = s.list.Back()
		}
	}
}

func (s *shard[K, V]) unlinkAndRelease(n *core.Node[K, V], reason policy.EvictReason) {
	if s.hand == n {
		s.hand = n.Prev
	}
	s.list.Remove(n)
	s.index.Remove(n.Key, n.Hash)
	s.hooks.Evicted(n.Key, n.Val, reason)
	s.pool.Release(n)
}
