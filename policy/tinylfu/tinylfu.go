// Package tinylfu implements the W-TinyLFU eviction policy: a small
// Window segment feeding a sketch-gated admission into a Main segment
// split into Probationary and Protected.
//
// See Einziger, Friedman, Manes, "TinyLFU: A Highly Efficient Cache
// Admission Policy" (ACM TOS 2017).
package tinylfu

import (
	"github.com/ivanbrykalov/polycache/internal/core"
	"github.com/ivanbrykalov/polycache/internal/sketch"
	"github.com/ivanbrykalov/polycache/policy"
)

const (
	defaultWindowPercent = 1
	defaultCMSDepth      = 3
)

type factory[K comparable, V any] struct {
	windowPercent int
	cmsDepth      int
}

// New returns a Factory that builds per-shard W-TinyLFU instances.
// windowSizePercent sizes the Window segment as a percentage of shard
// capacity (default 1); cmsDepth sizes the Count-Min Sketch (default
// 3). Non-positive values use their defaults.
func New[K comparable, V any](windowSizePercent, cmsDepth int) policy.Factory[K, V] {
	return factory[K, V]{windowPercent: windowSizePercent, cmsDepth: cmsDepth}
}

func (f factory[K, V]) NewShard(capacity, poolSize int, hooks policy.ShardHooks[K, V]) policy.Shard[K, V] {
	return newShard[K, V](capacity, poolSize, f.windowPercent, f.cmsDepth, hooks)
}

type shard[K comparable, V any] struct {
	mu                                           core.Locker
	windowSize, probationarySize, protectedSize  int
	pool                                         *core.Pool[K, V]
	index                                        *core.Index[K, V]
	window, probationary, protected              core.List[K, V]
	sketch                                       *sketch.CountMinSketch
	hooks                                        policy.ShardHooks[K, V]
}

func newShard[K comparable, V any](capacity, poolSize, windowPercent, cmsDepth int, hooks policy.ShardHooks[K, V]) *shard[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	if windowPercent <= 0 {
		windowPercent = defaultWindowPercent
	}
	if cmsDepth <= 0 {
		cmsDepth = defaultCMSDepth
	}
	windowSize := max(1, capacity*windowPercent/100)
	mainSize := max(2, capacity-windowSize)
	protectedSize := max(1, mainSize*8/10)
	probationarySize := mainSize - protectedSize
	if poolSize < 1 {
		poolSize = windowSize + probationarySize + protectedSize + 1
	}
	return &shard[K, V]{
		mu:               core.NewLocker(!hooks.SingleThreaded),
		windowSize:       windowSize,
		probationarySize: probationarySize,
		protectedSize:    protectedSize,
		pool:             core.NewPool[K, V](poolSize),
		index:            core.NewIndex[K, V](capacity, hooks.MaxLoadPercent),
		sketch:           sketch.New(capacity, cmsDepth, int64(capacity)*10),
		hooks:            hooks,
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

// SegmentSizes implements policy.SegmentReporter.
func (s *shard[K, V]) SegmentSizes() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"window":       s.window.Len(),
		"probationary": s.probationary.Len(),
		"protected":    s.protected.Len(),
	}
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
		s.removeFromRegion(n)
		s.hooks.Evicted(n.Key, n.Val, policy.EvictTTL)
		s.pool.Release(n)
		s.hooks.Miss()
		var zero V
		return zero, false
	}
	s.sketch.Increment(hash)
	s.promote(n)
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
	s.sketch.Increment(hash)

	if found {
		s.promote(n)
		s.hooks.Size(s.index.Len())
		return
	}

	n.Payload.Region = core.RegionWindow
	s.window.Append(n)
	if s.window.Len() > s.windowSize {
		candidate := s.window.PopFirst()
		if candidate != nil {
			s.tryAdmitToMain(candidate)
		}
	}
	s.hooks.Size(s.index.Len())
}

func (s *shard[K, V]) Remove(key K, hash uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.index.Remove(key, hash)
	if !ok {
		return false
	}
	s.removeFromRegion(n)
	s.pool.Release(n)
	s.hooks.Size(s.index.Len())
	return true
}

// promote runs the hit-update: Window entries move to the
// Window tail; a Probationary hit is promoted into Protected, demoting
// Protected's head back to Probationary if Protected is full; a
// Protected hit moves to the Protected tail.
func (s *shard[K, V]) promote(n *core.Node[K, V]) {
	switch n.Payload.Region {
	case core.RegionWindow:
		s.window.MoveToBack(n)
	case core.RegionProbationary:
		s.probationary.Remove(n)
		if s.protected.Len() >= s.protectedSize {
			if head := s.protected.PopFirst(); head != nil {
				head.Payload.Region = core.RegionProbationary
				s.probationary.Append(head)
			}
		}
		n.Payload.Region = core.RegionProtected
		s.protected.Append(n)
	case core.RegionProtected:
		s.protected.MoveToBack(n)
	case core.RegionNone:
	}
}

// tryAdmitToMain runs the admission test for a Window overflow
// candidate: if Probationary is full, the candidate is discarded when
// Probationary's head has a strictly higher sketch estimate; otherwise
// the head is evicted and the candidate admitted (ties admit it). candidate arrives
// already unlinked from Window.
func (s *shard[K, V]) tryAdmitToMain(candidate *core.Node[K, V]) {
	if s.probationary.Len() >= s.probationarySize {
		victim := s.probationary.Front()
		if victim != nil {
			if s.sketch.Estimate(victim.Hash) > s.sketch.Estimate(candidate.Hash) {
				s.evictNode(candidate, policy.EvictPolicy)
				return
			}
			s.probationary.Remove(victim)
			s.evictNode(victim, policy.EvictPolicy)
		}
	}
	candidate.Payload.Region = core.RegionProbationary
	s.probationary.Append(candidate)
}

func (s *shard[K, V]) removeFromRegion(n *core.Node[K, V]) {
	switch n.Payload.Region {
	case core.RegionWindow:
		s.window.Remove(n)
	case core.RegionProbationary:
		s.probationary.Remove(n)
	case core.RegionProtected:
		s.protected.Remove(n)
	case core.RegionNone:
	}
}

func (s *shard[K, V]) evictNode(n *core.Node[K, V], reason policy.EvictReason) {
	s.index.Remove(n.Key, n.Hash)
	s.hooks.Evicted(n.Key, n.Val, reason)
	s.pool.Release(n)
}
