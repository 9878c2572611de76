// Package core implements the building blocks shared by every eviction
// policy: the intrusive Node, its Pool, the intrusive DoublyLinkedList,
// and the hash-indexed HashIndex. Policies (package policy/*) own one
// instance of each and layer admission/eviction decisions on top.
package core

// Region tags a node's W-TinyLFU segment.
type Region uint8

const (
	RegionNone Region = iota
	RegionWindow
	RegionProbationary
	RegionProtected
)

// Queue tags a node's S3-FIFO queue.
type Queue uint8

const (
	QueueNone Queue = iota
	QueueSmall
	QueueMain
	QueueGhost
)

// Payload holds the policy-specific metadata a Node carries. Only the
// fields relevant to the active policy are meaningful; unused fields sit
// at their zero value for the policies that don't touch them (FIFO/LRU
// touch none of them, SIEVE only Visited, S3-FIFO Queue+Freq, W-TinyLFU
// only Region).
type Payload struct {
	Region  Region
	Queue   Queue
	Freq    uint8
	Visited bool
}

// Node is the intrusive storage cell shared by every policy: key, value,
// list links, an optional TTL expiry (Unix milliseconds, 0 = none), the
// node's precomputed hash (so eviction never re-hashes a key), and one
// Payload slot for whichever policy owns the node.
//
// A Node is a member of at most one list at a time, and is reachable
// from the HashIndex if and only if it is linked into that list.
// Exported fields are accessed directly by policy packages
// within this module; Node carries no accessor methods because nothing
// outside this module is meant to reach into it.
type Node[K comparable, V any] struct {
	Key K
	Val V

	Prev *Node[K, V]
	Next *Node[K, V]

	Hash    uint64
	Expiry  int64 // Unix milliseconds; 0 = no TTL
	Payload Payload
}

// Reset clears a node back to its zero state before it is returned to a
// Pool, dropping any reference to the old key/value so the GC can
// reclaim them.
func (n *Node[K, V]) Reset() {
	var zeroK K
	var zeroV V
	n.Key = zeroK
	n.Val = zeroV
	n.Prev = nil
	n.Next = nil
	n.Hash = 0
	n.Expiry = 0
	n.Payload = Payload{}
}
