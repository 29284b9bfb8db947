package kvstore

import "github.com/valkey-io/valkey-sub003/internal/hashtable"

// ShardSize returns the element count of shard idx (0 if unallocated).
func (k *KVS[E]) ShardSize(idx int) int {
	if k.shards[idx] == nil {
		return 0
	}
	return k.shards[idx].Len()
}

// Find looks up key in shard idx.
//
// Returns the zero value and false if shard idx was never allocated
// (only possible under AllocateOnDemand) or has no element with a
// matching key; otherwise the stored element and true.
func (k *KVS[E]) Find(idx int, key []byte) (E, bool) {
	var zero E
	if k.shards[idx] == nil {
		return zero, false
	}
	return k.shards[idx].Find(key)
}

// Add inserts elem into shard idx, creating the shard's hash table on
// demand if it doesn't exist yet.
//
// Behavior:
//   - Does nothing and returns false if shard idx already has an
//     element whose key equals typ.ElementGetKey(elem).
//   - On a successful insert, updates the running element count and the
//     Fenwick tree (cumulativeKeyCountAdd) before returning.
//
// Returns true if elem was added, false if a matching key already
// existed.
func (k *KVS[E]) Add(idx int, elem E) bool {
	h := k.createShardIfNeeded(idx)
	added := h.Add(elem)
	if added {
		k.cumulativeKeyCountAdd(idx, 1)
	}
	return added
}

// AddOrFind inserts elem into shard idx, or if a matching key already
// exists there, returns that existing element without modifying the
// shard. Creates the shard's hash table on demand like Add.
func (k *KVS[E]) AddOrFind(idx int, elem E) (existing E, added bool) {
	h := k.createShardIfNeeded(idx)
	existing, added = h.AddOrFind(elem)
	if added {
		k.cumulativeKeyCountAdd(idx, 1)
	}
	return existing, added
}

// Replace inserts elem into shard idx, overwriting any element with the
// same key (invoking its destructor first, if one is set). Returns true
// if this was a fresh insert rather than an overwrite, in which case
// the running element count and Fenwick tree are updated the same way
// Add's are.
func (k *KVS[E]) Replace(idx int, elem E) bool {
	h := k.createShardIfNeeded(idx)
	fresh := h.Replace(elem)
	if fresh {
		k.cumulativeKeyCountAdd(idx, 1)
	}
	return fresh
}

// Pop removes and returns the element matching key from shard idx,
// without invoking its destructor (the caller takes ownership of the
// returned element instead).
//
// On a successful removal, also updates the running element count and,
// if FreeEmpty is set and the shard is now empty, releases the shard's
// hash table (freeShardIfNeeded).
func (k *KVS[E]) Pop(idx int, key []byte) (E, bool) {
	var zero E
	h := k.shards[idx]
	if h == nil {
		return zero, false
	}
	elem, ok := h.Pop(key)
	if ok {
		k.cumulativeKeyCountAdd(idx, -1)
		k.freeShardIfNeeded(idx)
	}
	return elem, ok
}

// Delete removes the element matching key from shard idx and invokes
// its destructor, if one is set.
func (k *KVS[E]) Delete(idx int, key []byte) bool {
	h := k.shards[idx]
	if h == nil {
		return false
	}
	ok := h.Delete(key)
	if ok {
		k.cumulativeKeyCountAdd(idx, -1)
		k.freeShardIfNeeded(idx)
	}
	return ok
}

// TwoPhasePopFindRef is the per-shard form of HT.TwoPhasePopFindRef.
// The shard must not be freed while a pop is outstanding, so callers
// must pair a true ok with a TwoPhasePopDelete before any other write to
// this shard.
func (k *KVS[E]) TwoPhasePopFindRef(idx int, key []byte) (elem E, pos hashtable.PopPosition, ok bool) {
	h := k.shards[idx]
	if h == nil {
		return elem, 0, false
	}
	return h.TwoPhasePopFindRef(key)
}

// TwoPhasePopDelete completes a two-phase pop started with
// TwoPhasePopFindRef on the same shard.
func (k *KVS[E]) TwoPhasePopDelete(idx int, pos hashtable.PopPosition) {
	h := k.shards[idx]
	h.TwoPhasePopDelete(pos)
	k.cumulativeKeyCountAdd(idx, -1)
	k.freeShardIfNeeded(idx)
}

// FindPositionForInsert is the per-shard form of
// HT.FindPositionForInsert, creating the shard on demand.
func (k *KVS[E]) FindPositionForInsert(idx int, key []byte) (existing E, ip hashtable.InsertPosition, ok bool) {
	h := k.createShardIfNeeded(idx)
	return h.FindPositionForInsert(key)
}

// InsertAtPosition completes a two-phase insert started with
// FindPositionForInsert on the same shard.
func (k *KVS[E]) InsertAtPosition(idx int, elem E, ip hashtable.InsertPosition) {
	k.shards[idx].InsertAtPosition(elem, ip)
	k.cumulativeKeyCountAdd(idx, 1)
}
