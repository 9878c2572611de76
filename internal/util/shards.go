package util

import "runtime"

// ReasonableShardCount resolves a configured shard count to a power of
// two. requested <= 0 picks a practical default from CPU parallelism:
// nextPow2(2*GOMAXPROCS), clamped to [1..256]; requested > 0 is rounded
// up to the next power of two as-is, with no clamp.
func ReasonableShardCount(requested int) int {
	if requested > 0 {
		n := int(NextPow2(uint64(requested)))
		if n < 1 {
			n = 1
		}
		return n
	}
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	// 2×CPU, round up to power of two, then clamp to 256.
	n := int(NextPow2(uint64(p * 2)))
	if n < 1 {
		n = 1
	}
	if n > 256 {
		n = 256
	}
	return n
}

// ShardIndex maps a 64-bit hash to a shard index.
// Assumes shard count is a power of two for the fast mask path,
// but remains correct for arbitrary shard counts (uses modulo).
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	// Fast path if shard count is power of two.
	if IsPowerOfTwo(uint64(shards)) {
		return int(hash & uint64(shards-1))
	}
	return int(hash % uint64(shards))
}
