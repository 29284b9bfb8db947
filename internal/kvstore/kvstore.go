package kvstore

import (
	"container/list"

	"github.com/valkey-io/valkey-sub003/internal/hashtable"
)

// Flags controls shard lifecycle policy: whether a shard's hash table is
// created eagerly or lazily, and whether it is released once it drains
// back to empty.
type Flags int

const (
	// AllocateOnDemand creates a shard's HT lazily on its first write
	// instead of up front at New.
	AllocateOnDemand Flags = 1 << iota
	// FreeEmpty releases a shard's HT as soon as its size returns to
	// zero, unless a safe iterator currently holds it paused.
	FreeEmpty
)

// KVS is a sharded array of hashtable.HT, addressed by shard index, with
// a Fenwick tree over per-shard live-key counts for O(log numShards)
// key-index lookups. Like HT, a KVS is not safe for concurrent use: a
// single owner at a time, possibly handed off via the IOQ between
// operations.
//
// Callers own the shard routing: every operation below takes a shard
// index rather than computing one from a key. A caller typically hashes
// the key, reduces it modulo NumShards, and passes the result as idx to
// Add/Find/Delete; a KVS created with a single shard can just pass 0
// everywhere and behaves like a plain HT with Fenwick-tree bookkeeping
// disabled.
type KVS[E any] struct {
	baseType *hashtable.Type[E]
	flags    Flags

	shardsBits int
	numShards  int
	shards     []*hashtable.HT[E]

	keyCount          uint64
	bucketCount       uint64
	nonEmptyShards    int
	allocatedShards   int
	overheadRehashing uint64

	// shardSizeIndex is the Fenwick tree, 1-based (index 0 unused), nil
	// when numShards == 1.
	shardSizeIndex []int64

	rehashing     *list.List
	rehashingNode []*list.Element

	resizeCursor int
}

// New creates a KVS of 1<<shardsBits shards.
//
// Behavior:
//   - shardsBits is clamped to [0, 16], keeping a shard index small
//     enough to pack alongside an in-shard scan cursor in a single
//     uint64 (see addShardIndexToCursor).
//   - Every shard's HT is created immediately unless flags includes
//     AllocateOnDemand, in which case a shard's HT is created on its
//     first write.
//   - A single-shard KVS (shardsBits == 0) skips the Fenwick tree
//     entirely; key-index lookups fall back to Size().
//
// Parameters:
//   - typ: the element type descriptor handed to every shard's HT;
//     RehashStarted/RehashCompleted are overridden per shard so the KVS
//     can track cumulative bucket counts (see shardType).
//   - shardsBits: log2 of the shard count.
//   - flags: AllocateOnDemand and/or FreeEmpty.
func New[E any](typ *hashtable.Type[E], shardsBits int, flags Flags) *KVS[E] {
	if shardsBits < 0 {
		shardsBits = 0
	}
	if shardsBits > 16 {
		shardsBits = 16
	}
	numShards := 1 << uint(shardsBits)

	k := &KVS[E]{
		baseType:      typ,
		flags:         flags,
		shardsBits:    shardsBits,
		numShards:     numShards,
		shards:        make([]*hashtable.HT[E], numShards),
		rehashing:     list.New(),
		rehashingNode: make([]*list.Element, numShards),
	}
	if numShards > 1 {
		k.shardSizeIndex = make([]int64, numShards+1)
	}
	if flags&AllocateOnDemand == 0 {
		for i := 0; i < numShards; i++ {
			k.createShardIfNeeded(i)
		}
	}
	return k
}

// NumShards returns 1<<shardsBits, the fixed shard count.
func (k *KVS[E]) NumShards() int { return k.numShards }

// NumAllocatedShards returns how many shards currently have a live HT.
func (k *KVS[E]) NumAllocatedShards() int { return k.allocatedShards }

// NumNonEmptyShards returns how many shards currently hold at least one
// element.
func (k *KVS[E]) NumNonEmptyShards() int { return k.nonEmptyShards }

// Size returns the total number of elements across every shard.
func (k *KVS[E]) Size() uint64 {
	if k.numShards != 1 {
		return k.keyCount
	}
	if k.shards[0] == nil {
		return 0
	}
	return uint64(k.shards[0].Len())
}

// Buckets returns the cumulative bucket count across every shard's HT.
func (k *KVS[E]) Buckets() uint64 {
	if k.numShards != 1 {
		return k.bucketCount
	}
	if k.shards[0] == nil {
		return 0
	}
	return uint64(k.shards[0].Buckets())
}

// OverheadRehashingBuckets returns the extra bucket count carried by
// shards currently mid-rehash (their soon-to-be-retired source table).
func (k *KVS[E]) OverheadRehashingBuckets() uint64 { return k.overheadRehashing }

// Shard returns the HT backing shard idx, or nil if it hasn't been
// allocated yet (only possible under AllocateOnDemand).
func (k *KVS[E]) Shard(idx int) *hashtable.HT[E] { return k.shards[idx] }

func (k *KVS[E]) shardType(idx int) *hashtable.Type[E] {
	t := *k.baseType
	t.RehashStarted = func() { k.onRehashStarted(idx) }
	t.RehashCompleted = func() { k.onRehashCompleted(idx) }
	return &t
}

// createShardIfNeeded returns shard idx's HT, creating it first if
// necessary.
func (k *KVS[E]) createShardIfNeeded(idx int) *hashtable.HT[E] {
	if k.shards[idx] != nil {
		return k.shards[idx]
	}
	h := hashtable.New(k.shardType(idx))
	k.shards[idx] = h
	k.allocatedShards++
	return h
}

// freeShardIfNeeded releases shard idx's HT if FreeEmpty is set, the
// shard is empty, and no safe iterator currently has it paused. Called
// after every operation that can reduce a shard to zero elements.
func (k *KVS[E]) freeShardIfNeeded(idx int) {
	if k.flags&FreeEmpty == 0 {
		return
	}
	h := k.shards[idx]
	if h == nil || h.Len() != 0 || h.IsRehashingPaused() {
		return
	}
	k.shards[idx] = nil
	k.allocatedShards--
}

func (k *KVS[E]) onRehashStarted(idx int) {
	if k.rehashingNode[idx] != nil {
		return
	}
	k.rehashingNode[idx] = k.rehashing.PushBack(idx)

	from, to := k.shards[idx].RehashingInfo()
	k.bucketCount += uint64(to)
	k.overheadRehashing += uint64(from)
}

func (k *KVS[E]) onRehashCompleted(idx int) {
	if node := k.rehashingNode[idx]; node != nil {
		k.rehashing.Remove(node)
		k.rehashingNode[idx] = nil
	}
	from, _ := k.shards[idx].RehashingInfo()
	k.bucketCount -= uint64(from)
	k.overheadRehashing -= uint64(from)
}

// cumulativeKeyCountAdd records a net change of delta elements in shard
// idx, updating the running totals and the Fenwick tree that backs
// FindShardIndexByKeyIndex's binary search over cumulative shard sizes.
func (k *KVS[E]) cumulativeKeyCountAdd(idx int, delta int64) {
	if delta == 0 {
		return
	}
	k.keyCount = uint64(int64(k.keyCount) + delta)

	size := 0
	if k.shards[idx] != nil {
		size = k.shards[idx].Len()
	}
	if delta < 0 && size == 0 {
		k.nonEmptyShards--
	} else if delta > 0 && int64(size) == delta {
		k.nonEmptyShards++
	}

	if k.numShards == 1 {
		return
	}
	for i := idx + 1; i <= k.numShards; i += i & (-i) {
		k.shardSizeIndex[i] += delta
	}
}

// cumulativeKeyCountRead returns the total element count in shards
// [0, idx], inclusive.
func (k *KVS[E]) cumulativeKeyCountRead(idx int) uint64 {
	if k.numShards == 1 {
		return k.Size()
	}
	var sum int64
	for i := idx + 1; i > 0; i -= i & (-i) {
		sum += k.shardSizeIndex[i]
	}
	return uint64(sum)
}

func addShardIndexToCursor(shardsBits, idx int, cursor uint64) uint64 {
	if shardsBits == 0 || idx < 0 {
		return cursor
	}
	return (cursor << uint(shardsBits)) | uint64(idx)
}

func getAndClearShardIndexFromCursor(shardsBits int, numShards int, cursor uint64) (idx int, rest uint64) {
	if shardsBits == 0 {
		return 0, cursor
	}
	idx = int(cursor & uint64(numShards-1))
	rest = cursor >> uint(shardsBits)
	return idx, rest
}
