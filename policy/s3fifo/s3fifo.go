// Package s3fifo implements the S3-FIFO eviction policy: Small/Main/
// Ghost queues with frequency-bounded promotion.
//
// See Yang, Zhang, et al., "FIFO queues are all you need for cache
// eviction" (SOSP'23).
package s3fifo

import (
	"github.com/ivanbrykalov/polycache/internal/core"
	"github.com/ivanbrykalov/polycache/policy"
)

const defaultSmallPercent = 10

type factory[K comparable, V any] struct{ smallPercent int }

// New returns a Factory that builds per-shard S3-FIFO instances.
// smallSizePercent sizes the Small queue as a percentage of shard
// capacity (default 10); a non-positive value uses the default.
func New[K comparable, V any](smallSizePercent int) policy.Factory[K, V] {
	return factory[K, V]{smallPercent: smallSizePercent}
}

func (f factory[K, V]) NewShard(capacity, poolSize int, hooks policy.ShardHooks[K, V]) policy.Shard[K, V] {
	return newShard[K, V](capacity, poolSize, f.smallPercent, hooks)
}

type shard[K comparable, V any] struct {
	mu                          core.Locker
	smallCap, otherCap, maxSize int
	pool                        *core.Pool[K, V]
	index                       *core.Index[K, V]
	small, main, ghost          core.List[K, V]
	hooks                       policy.ShardHooks[K, V]
}

func newShard[K comparable, V any](capacity, poolSize, smallPercent int, hooks policy.ShardHooks[K, V]) *shard[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	if smallPercent <= 0 {
		smallPercent = defaultSmallPercent
	}
	smallCap := max(1, capacity*smallPercent/100)
	otherCap := max(1, (capacity-smallCap)/2)
	maxSize := smallCap + 2*otherCap
	if poolSize < 1 {
		poolSize = maxSize + 1
	}
	return &shard[K, V]{
		mu:       core.NewLocker(!hooks.SingleThreaded),
		smallCap: smallCap,
		otherCap: otherCap,
		maxSize:  maxSize,
		pool:     core.NewPool[K, V](poolSize),
		index:    core.NewIndex[K, V](maxSize, hooks.MaxLoadPercent),
		hooks:    hooks,
	}
}

func (s *shard[K, V]) Contains(key K, hash uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.index.Get(key, hash)
	return ok && n.Payload.Queue != core.QueueGhost
}

func (s *shard[K, V]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.small.Len() + s.main.Len()
}

// SegmentSizes implements policy.SegmentReporter.
func (s *shard[K, V]) SegmentSizes() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"small": s.small.Len(),
		"main":  s.main.Len(),
		"ghost": s.ghost.Len(),
	}
}

func (s *shard[K, V]) Get(key K, hash uint64) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.index.Get(key, hash)
	if !ok || n.Payload.Queue == core.QueueGhost {
		s.hooks.Miss()
		var zero V
		return zero, false
	}
	if s.index.CheckTTL(n, hash, s.hooks.Now()) {
		s.removeFromQueue(n)
		s.hooks.Evicted(n.Key, n.Val, policy.EvictTTL)
		s.pool.Release(n)
		s.hooks.Miss()
		var zero V
		return zero, false
	}
	if n.Payload.Freq < 3 {
		n.Payload.Freq++
	}
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
	wasGhost := found && n.Payload.Queue == core.QueueGhost
	n.Key, n.Val, n.Expiry = key, value, ttlMs

	switch {
	case found && !wasGhost:
		if n.Payload.Freq < 3 {
			n.Payload.Freq++
		}
	case wasGhost:
		s.ghost.Remove(n)
		n.Payload.Queue = core.QueueMain
		s.main.Append(n)
	default:
		n.Payload.Queue = core.QueueSmall
		n.Payload.Freq = 0
		s.evictUntilFits()
		s.small.Append(n)
	}
	s.hooks.Size(s.small.Len() + s.main.Len())
}

func (s *shard[K, V]) Remove(key K, hash uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.index.Get(key, hash)
	if !ok || n.Payload.Queue == core.QueueGhost {
		return false
	}
	s.index.Remove(key, hash)
	s.removeFromQueue(n)
	s.pool.Release(n)
	s.hooks.Size(s.small.Len() + s.main.Len())
	return true
}

func (s *shard[K, V]) removeFromQueue(n *core.Node[K, V]) {
	switch n.Payload.Queue {
	case core.QueueSmall:
		s.small.Remove(n)
	case core.QueueMain:
		s.main.Remove(n)
	case core.QueueGhost:
		s.ghost.Remove(n)
	case core.QueueNone:
	}
}

// evictUntilFits is the pre-insert loop: while the combined
// Small+Main+Ghost size is at the budget, evict one step at a time
// from Small (promoting warm entries to Main, ghosting the first cold
// one) or from Main (second-chance decrement, else evict).
func (s *shard[K, V]) evictUntilFits() {
	for s.small.Len()+s.main.Len()+s.ghost.Len() >= s.maxSize {
		if s.small.Len() >= s.smallCap {
			s.stepSmall()
		} else {
			s.stepMain()
		}
	}
}

func (s *shard[K, V]) stepSmall() {
	for {
		head := s.small.PopFirst()
		if head == nil {
			return
		}
		if head.Payload.Freq > 0 {
			head.Payload.Freq = 0
			head.Payload.Queue = core.QueueMain
			s.main.Append(head)
			continue
		}
		head.Payload.Queue = core.QueueGhost
		var zero V
		head.Val = zero
		if s.ghost.Len() >= s.otherCap {
			if g := s.ghost.PopFirst(); g != nil {
				s.index.Remove(g.Key, g.Hash)
				s.hooks.Evicted(g.Key, g.Val, policy.EvictPolicy)
				s.pool.Release(g)
			}
		}
		s.ghost.Append(head)
		return
	}
}

func (s *shard[K, V]) stepMain() {
	head := s.main.PopFirst()
	if head == nil {
		return
	}
	if head.Payload.Freq > 0 {
		head.Payload.Freq--
		s.main.Append(head)
		return
	}
	s.index.Remove(head.Key, head.Hash)
	s.hooks.Evicted(head.Key, head.Val, policy.EvictPolicy)
	s.pool.Release(head)
}
