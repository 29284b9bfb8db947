package kvstore

import "math/rand"

// FindShardIndexByKeyIndex returns the shard holding the target-th key
// overall, counting across the whole KVS in shard order.
//
// Behavior:
//   - target is 1-based: target == 1 asks for the very first key in
//     shard 0 (or the first non-empty shard after it).
//   - Descends the Fenwick tree bit by bit rather than walking shards
//     one at a time, so the search is O(log numShards) instead of
//     O(numShards).
//   - A single-shard KVS always returns 0 without touching the tree.
//
// Parameters:
//   - target: a 1-based key rank; must be in [1, Size()]. Callers that
//     don't already know it's in range should go through
//     GetFirstNonEmptyShardIndex, GetNextNonEmptyShardIndex, or
//     GetFairRandomShardIndex instead of computing target directly.
//
// Returns the shard index owning that key rank.
func (k *KVS[E]) FindShardIndexByKeyIndex(target uint64) int {
	if k.numShards == 1 || k.Size() == 0 {
		return 0
	}
	result := 0
	for bit := 1 << uint(k.shardsBits); bit != 0; bit >>= 1 {
		current := result + bit
		if current > k.numShards {
			continue
		}
		if target > uint64(k.shardSizeIndex[current]) {
			target -= uint64(k.shardSizeIndex[current])
			result = current
		}
	}
	return result
}

// GetFirstNonEmptyShardIndex returns the lowest shard index holding at
// least one element, or -1 if the KVS is empty.
func (k *KVS[E]) GetFirstNonEmptyShardIndex() int {
	if k.Size() == 0 {
		return -1
	}
	return k.FindShardIndexByKeyIndex(1)
}

// GetNextNonEmptyShardIndex returns the lowest shard index strictly
// after idx holding at least one element, or -1 if idx was the last.
// Used by Scan to skip empty shards between cursor-driven passes
// instead of visiting every shard index in order.
func (k *KVS[E]) GetNextNonEmptyShardIndex(idx int) int {
	if k.numShards == 1 {
		return -1
	}
	next := k.cumulativeKeyCountRead(idx) + 1
	if next > k.Size() {
		return -1
	}
	return k.FindShardIndexByKeyIndex(next)
}

// GetFairRandomShardIndex returns a shard index chosen with probability
// proportional to its element count; guaranteed non-empty unless the
// whole KVS is empty, in which case it returns 0.
func (k *KVS[E]) GetFairRandomShardIndex() int {
	size := k.Size()
	if size == 0 {
		return 0
	}
	target := uint64(rand.Int63n(int64(size))) + 1
	return k.FindShardIndexByKeyIndex(target)
}
