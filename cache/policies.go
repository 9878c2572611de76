package cache

import (
	"github.com/ivanbrykalov/polycache/policy/fifo"
	"github.com/ivanbrykalov/polycache/policy/lru"
	"github.com/ivanbrykalov/polycache/policy/s3fifo"
	"github.com/ivanbrykalov/polycache/policy/sieve"
	"github.com/ivanbrykalov/polycache/policy/tinylfu"
)

// NewFIFO selects the insertion-order FIFO eviction policy.
func NewFIFO[K comparable, V any]() Policy[K, V] { return fifo.New[K, V]() }

// NewLRU selects the recency-ordered LRU eviction policy.
func NewLRU[K comparable, V any]() Policy[K, V] { return lru.New[K, V]() }

// NewSIEVE selects the SIEVE visited-bit clock eviction policy.
func NewSIEVE[K comparable, V any]() Policy[K, V] { return sieve.New[K, V]() }

// NewS3FIFO selects the S3-FIFO small/main/ghost eviction policy.
// smallSizePercent sizes the Small queue as a percentage of shard
// capacity; <= 0 defaults to 10.
func NewS3FIFO[K comparable, V any](smallSizePercent int) Policy[K, V] {
	return s3fifo.New[K, V](smallSizePercent)
}

// NewTinyLFU selects the W-TinyLFU window/probationary/protected
// eviction policy with a Count-Min Sketch admission filter.
// windowSizePercent sizes the Window segment; <= 0 defaults to 1.
// cmsDepth sizes the sketch; <= 0 defaults to 3.
func NewTinyLFU[K comparable, V any](windowSizePercent, cmsDepth int) Policy[K, V] {
	return tinylfu.New[K, V](windowSizePercent, cmsDepth)
}
