package kvstore

import "github.com/valkey-io/valkey-sub003/internal/hashtable"

// Iterator walks every element of every shard exactly once, using a
// safe hashtable.Iterator per shard so rehashing is paused only while
// that shard is being visited.
type Iterator[E any] struct {
	kvs     *KVS[E]
	idx     int
	nextIdx int
	it      *hashtable.Iterator[E]
}

// NewIterator returns a cross-shard iterator positioned before the
// first non-empty shard.
func NewIterator[E any](k *KVS[E]) *Iterator[E] {
	return &Iterator[E]{kvs: k, idx: -1, nextIdx: k.GetFirstNonEmptyShardIndex()}
}

// Next advances to the next element, switching shards as needed, and
// reports whether one is available.
func (it *Iterator[E]) Next() bool {
	for {
		if it.it != nil && it.it.Next() {
			return true
		}
		if !it.advanceShard() {
			return false
		}
	}
}

func (it *Iterator[E]) advanceShard() bool {
	if it.it != nil {
		it.it.Close()
		it.it = nil
		it.kvs.freeShardIfNeeded(it.idx)
	}
	if it.nextIdx == -1 {
		return false
	}
	it.idx = it.nextIdx
	it.nextIdx = it.kvs.GetNextNonEmptyShardIndex(it.idx)
	h := it.kvs.shards[it.idx]
	if h == nil {
		return it.advanceShard()
	}
	it.it = hashtable.NewSafeIterator(h)
	return true
}

// CurrentShardIndex returns the shard index the iterator is currently
// positioned in. Only valid after a Next call that returned true.
func (it *Iterator[E]) CurrentShardIndex() int { return it.idx }

// Elem returns the element at the iterator's current position. Only
// valid immediately after a Next call that returned true.
func (it *Iterator[E]) Elem() E { return it.it.Elem() }

// Close releases the iterator, resuming rehashing on whichever shard it
// was last positioned in and freeing it if it's now empty.
func (it *Iterator[E]) Close() {
	if it.it != nil {
		it.it.Close()
		it.kvs.freeShardIfNeeded(it.idx)
		it.it = nil
	}
}
