package fifo

import (
	"testing"

	"github.com/ivanbrykalov/polycache/policy"
)

func newTestShard(capacity int) policy.Shard[int, string] {
	return New[int, string]().NewShard(capacity, 0, policy.ShardHooks[int, string]{})
}

// Insertion-order eviction: a cap-3 FIFO fed keys 1..5 must hold the most
// recently inserted three regardless of access pattern in between.
func TestFIFO_EvictsOldestOnOverflow(t *testing.T) {
	t.Parallel()

	s := newTestShard(3)
	for i := 1; i <= 5; i++ {
		s.Put(i, "v", 0, uint64(i))
	}

	for _, k := range []int{1, 2} {
		if s.Contains(k, uint64(k)) {
			t.Fatalf("key %d must be evicted", k)
		}
	}
	for _, k := range []int{3, 4, 5} {
		if _, ok := s.Get(k, uint64(k)); !ok {
			t.Fatalf("key %d must be present", k)
		}
	}
	if got := s.Count(); got != 3 {
		t.Fatalf("Count() = %d, want 3", got)
	}
}

// A Get on a FIFO entry must not change eviction order — the hallmark
// that distinguishes FIFO from LRU.
func TestFIFO_GetDoesNotReorder(t *testing.T) {
	t.Parallel()

	s := newTestShard(2)
	s.Put(1, "a", 0, 1)
	s.Put(2, "b", 0, 2)
	s.Get(1, 1) // would promote under LRU; must be a no-op here

	s.Put(3, "c", 0, 3) // overflow: must evict 1, the oldest insert, not 2

	if s.Contains(1, 1) {
		t.Fatal("FIFO must evict insertion-order-oldest even after a Get")
	}
	if !s.Contains(2, 2) {
		t.Fatal("key 2 must survive")
	}
}

func TestFIFO_RemoveAndContains(t *testing.T) {
	t.Parallel()

	s := newTestShard(4)
	s.Put(1, "a", 0, 1)

	if !s.Remove(1, 1) {
		t.Fatal("Remove on present key must return true")
	}
	if s.Remove(1, 1) {
		t.Fatal("Remove on absent key must return false")
	}
	if s.Contains(1, 1) {
		t.Fatal("removed key must be absent")
	}
}

func TestFIFO_TTLExpiresOnAccess(t *testing.T) {
	t.Parallel()

	var now int64 = 1000
	s := New[int, string]().NewShard(4, 0, policy.ShardHooks[int, string]{
		Clock: func() int64 { return now },
	})
	s.Put(1, "a", 1500, 1) // expires at t=1500

	if _, ok := s.Get(1, 1); !ok {
		t.Fatal("entry must be live before its deadline")
	}
	now = 1500
	if _, ok := s.Get(1, 1); ok {
		t.Fatal("entry must be expired at nowMs >= Expiry")
	}
	if s.Contains(1, 1) {
		t.Fatal("expired entry must not remain indexed after access")
	}
}
