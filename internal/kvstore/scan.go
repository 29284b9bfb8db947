package kvstore

import (
	"time"

	"github.com/valkey-io/valkey-sub003/internal/hashtable"
)

// Scan walks the whole keyspace in cursor-driven passes, exactly like
// HT.Scan but across shards: the returned cursor packs the shard index
// into its low shardsBits bits and the in-shard HT cursor into the
// high bits. Start with cursor 0 and keep calling until it returns 0.
//
// If onlyShard is non-negative, the walk is restricted to that single
// shard and the cursor never advances past it. skip, if non-nil, is
// consulted before scanning each shard and can veto it for this call
// (e.g. to defer scanning a shard mid-bulk-load).
func (k *KVS[E]) Scan(cursor uint64, onlyShard int, skip func(idx int) bool, flags hashtable.ScanFlags, fn func(E)) uint64 {
	idx, cur := getAndClearShardIndexFromCursor(k.shardsBits, k.numShards, cursor)

	if onlyShard >= 0 {
		if idx < onlyShard {
			idx = onlyShard
			cur = 0
		} else if idx > onlyShard {
			return 0
		}
	}

	h := k.shards[idx]
	var nextCursor uint64
	skipThis := h == nil || (skip != nil && skip(idx))
	if !skipThis {
		nextCursor = h.Scan(cur, flags, fn)
		k.freeShardIfNeeded(idx)
	}

	if nextCursor == 0 {
		if onlyShard >= 0 {
			return 0
		}
		idx = k.GetNextNonEmptyShardIndex(idx)
	}
	if idx == -1 {
		return 0
	}
	return addShardIndexToCursor(k.shardsBits, idx, nextCursor)
}

// Expand pre-sizes every shard (skipping unallocated ones, and any shard
// skip vetoes) to hold at least newSize elements. Every eligible shard
// is attempted; a shard that declines (see HT.Expand) is left as-is.
// Expand returns false if any attempted shard declined, unless tryOnly
// is set, in which case declines are ignored and it returns true.
func (k *KVS[E]) Expand(newSize int, tryOnly bool, skip func(idx int) bool) bool {
	ok := true
	for i := 0; i < k.numShards; i++ {
		h := k.shards[i]
		if h == nil || (skip != nil && skip(i)) {
			continue
		}
		if !h.Expand(newSize) && !tryOnly {
			ok = false
		}
	}
	return ok
}

// TryResizeShards advances a round-robin cursor over up to limit shards,
// shrinking a shard if its fill has dropped low enough, otherwise
// expanding it if its fill warrants it. Intended to be called
// periodically (e.g. from a cron-style background task) rather than
// all at once.
func (k *KVS[E]) TryResizeShards(limit int) {
	if limit > k.numShards {
		limit = k.numShards
	}
	for i := 0; i < limit; i++ {
		idx := k.resizeCursor
		if h := k.shards[idx]; h != nil {
			if !h.ShrinkIfNeeded() {
				h.ExpandIfNeeded()
			}
		}
		k.resizeCursor = (idx + 1) % k.numShards
	}
}

// IncrementallyRehash spends up to budget draining the shards currently
// mid-rehash, oldest-first, moving on to the next one once a shard
// finishes (which removes it from the list automatically via the
// RehashCompleted callback). Returns the number of rehash steps
// performed.
func (k *KVS[E]) IncrementallyRehash(budget time.Duration) int {
	if k.rehashing.Len() == 0 {
		return 0
	}
	start := time.Now()
	steps := 0
	for {
		front := k.rehashing.Front()
		if front == nil {
			break
		}
		idx := front.Value.(int)
		remaining := budget - time.Since(start)
		if remaining <= 0 {
			break
		}
		steps += k.shards[idx].RehashMicroseconds(remaining)
		if time.Since(start) >= budget {
			break
		}
	}
	return steps
}
