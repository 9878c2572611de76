package core

import "github.com/ivanbrykalov/polycache/internal/util"

// slotState is the occupancy state of one HashIndex slot.
type slotState uint8

const (
	slotEmpty slotState = iota
	slotOccupied
	slotTombstone
)

type slot[K comparable, V any] struct {
	state slotState
	hash  uint64
	node  *Node[K, V]
}

// Index is an open-addressing hash table from key to *Node, keyed by a
// precomputed 64-bit hash supplied by the caller. Go's built-in map
// cannot be handed an externally computed hash or tombstone-aware
// deletion, so the table is linear-probed by hand.
//
// Index is not safe for concurrent use; callers hold the owning shard's
// lock.
type Index[K comparable, V any] struct {
	slots          []slot[K, V]
	mask           uint64
	live           int
	tombstones     int
	maxLoadPercent int
}

// NewIndex allocates an index sized for capacityHint live entries at the
// given max-load percentage (a non-positive or out-of-range value
// defaults to 60).
func NewIndex[K comparable, V any](capacityHint, maxLoadPercent int) *Index[K, V] {
	if maxLoadPercent <= 0 || maxLoadPercent > 100 {
		maxLoadPercent = 60
	}
	hint := capacityHint*2 + 1
	if hint < 8 {
		hint = 8
	}
	size := util.NextPow2(uint64(hint))
	return &Index[K, V]{
		slots:          make([]slot[K, V], size),
		mask:           size - 1,
		maxLoadPercent: maxLoadPercent,
	}
}

// Len returns the number of live (non-tombstone) entries.
func (idx *Index[K, V]) Len() int { return idx.live }

// Contains reports whether key (with precomputed hash) is indexed.
func (idx *Index[K, V]) Contains(key K, hash uint64) bool {
	_, ok := idx.Get(key, hash)
	return ok
}

// Get returns the node for key, if indexed.
func (idx *Index[K, V]) Get(key K, hash uint64) (*Node[K, V], bool) {
	mask := idx.mask
	i := hash & mask
	for {
		s := &idx.slots[i]
		switch s.state {
		case slotEmpty:
			return nil, false
		case slotOccupied:
			if s.hash == hash && s.node.Key == key {
				return s.node, true
			}
		case slotTombstone:
			// keep probing
		}
		i = (i + 1) & mask
	}
}

// GetOrInsert returns the existing node for key, or inserts a new node
// obtained from acquire and returns it with foundExisting=false. acquire
// is only invoked on a true miss, so a hit never allocates and never
// disturbs the caller's eviction bookkeeping.
func (idx *Index[K, V]) GetOrInsert(key K, hash uint64, acquire func() *Node[K, V]) (node *Node[K, V], foundExisting bool) {
	mask := idx.mask
	i := hash & mask
	insertAt := -1
	reusedTombstone := false
	for {
		s := &idx.slots[i]
		switch s.state {
		case slotOccupied:
			if s.hash == hash && s.node.Key == key {
				return s.node, true
			}
		case slotTombstone:
			if insertAt < 0 {
				insertAt = int(i)
				reusedTombstone = true
			}
		case slotEmpty:
			if insertAt < 0 {
				insertAt = int(i)
			}
			n := acquire()
			idx.slots[insertAt] = slot[K, V]{state: slotOccupied, hash: hash, node: n}
			idx.live++
			if reusedTombstone {
				idx.tombstones--
			}
			idx.maybeRehash()
			return n, false
		}
		i = (i + 1) & mask
	}
}

// Remove deletes key (with precomputed hash) from the index, marking its
// slot as a tombstone. Returns the removed node, if any.
func (idx *Index[K, V]) Remove(key K, hash uint64) (*Node[K, V], bool) {
	mask := idx.mask
	i := hash & mask
	for {
		s := &idx.slots[i]
		switch s.state {
		case slotEmpty:
			return nil, false
		case slotOccupied:
			if s.hash == hash && s.node.Key == key {
				n := s.node
				s.state = slotTombstone
				s.node = nil
				idx.live--
				idx.tombstones++
				idx.maybeRehash()
				return n, true
			}
		case slotTombstone:
			// keep probing
		}
		i = (i + 1) & mask
	}
}

// CheckTTL evicts n from the index if its expiry has passed (nowMs >=
// n.Expiry) and reports whether it did. A zero Expiry means "no TTL"
// and is never expired.
func (idx *Index[K, V]) CheckTTL(n *Node[K, V], hash uint64, nowMs int64) bool {
	if n.Expiry == 0 {
		return false
	}
	if nowMs >= n.Expiry {
		idx.Remove(n.Key, hash)
		return true
	}
	return false
}

// maybeRehash enforces the tombstone discipline: once tombstones reach
// (live*maxLoadPercent)/100 the table is rehashed in place to reclaim
// them. It also grows the table before it gets uncomfortably full,
// independent of tombstone pressure.
func (idx *Index[K, V]) maybeRehash() {
	size := uint64(len(idx.slots))
	if idx.tombstones > 0 && idx.tombstones >= (idx.live*idx.maxLoadPercent)/100 {
		idx.rehash(size)
		return
	}
	if uint64(idx.live+idx.tombstones)*4 >= size*3 {
		idx.rehash(size * 2)
	}
}

// rehash rebuilds the table at newSize, re-inserting every live entry
// and resetting the tombstone counter to zero.
func (idx *Index[K, V]) rehash(newSize uint64) {
	old := idx.slots
	idx.slots = make([]slot[K, V], newSize)
	idx.mask = newSize - 1
	idx.tombstones = 0
	idx.live = 0
	for i := range old {
		if old[i].state == slotOccupied {
			idx.insertNoProbe(old[i].node, old[i].hash)
		}
	}
}

// insertNoProbe inserts a known-absent node during rehash, where no key
// comparison is needed (every live entry is, by construction, unique).
func (idx *Index[K, V]) insertNoProbe(n *Node[K, V], hash uint64) {
	mask := idx.mask
	i := hash & mask
	for idx.slots[i].state == slotOccupied {
		i = (i + 1) & mask
	}
	idx.slots[i] = slot[K, V]{state: slotOccupied, hash: hash, node: n}
	idx.live++
}
