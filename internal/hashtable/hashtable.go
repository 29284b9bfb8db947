package hashtable

import (
	"github.com/valkey-io/valkey-sub003/internal/cursor"
	"github.com/valkey-io/valkey-sub003/internal/khash"
)

// HT is an open-addressing hash table with two table slots.
//
// Both slots exist so a table can rehash incrementally: tables[0] holds
// the table being migrated away from, tables[1] the one being migrated
// into, and rehashIdx tracks how far the migration has gotten. Outside
// a rehash, only tables[0] is populated and tables[1] is nil. HT itself
// is not safe for concurrent use; a single owner at a time is assumed
// throughout this package.
type HT[E any] struct {
	typ    *Type[E]
	tables [2]*table[E]
	used   [2]int

	// everfulls[i] counts buckets in tables[i] that have ever been fully
	// occupied; a probe must keep walking past such a bucket even after
	// later deletions free a slot inside it.
	everfulls [2]int

	// rehashIdx is the next tables[0] bucket to migrate into tables[1],
	// in cursor order. -1 means no rehash is in progress.
	rehashIdx int64

	pauseRehash int
}

// New creates an empty hash table for the given type descriptor. If
// typ.Hash is nil, a khash function with a freshly drawn seed is used;
// if typ.ElementGetKey is nil and E is []byte, the element is its own
// key. typ itself is not modified.
func New[E any](typ *Type[E]) *HT[E] {
	if typ.Hash == nil || typ.ElementGetKey == nil {
		t := *typ
		if t.Hash == nil {
			t.Hash = khash.New(khash.NewSeed())
		}
		var zero E
		if _, isBytes := any(zero).([]byte); t.ElementGetKey == nil && isBytes {
			t.ElementGetKey = func(e E) []byte { return any(e).([]byte) }
		}
		typ = &t
	}
	return &HT[E]{typ: typ, rehashIdx: -1}
}

// Len returns the number of elements currently stored.
func (h *HT[E]) Len() int { return h.used[0] + h.used[1] }

// Buckets returns the number of buckets across both table slots (one
// slot is empty except mid-rehash).
func (h *HT[E]) Buckets() int {
	n := 0
	if h.tables[0] != nil {
		n += len(h.tables[0].buckets)
	}
	if h.tables[1] != nil {
		n += len(h.tables[1].buckets)
	}
	return n
}

// IsRehashing reports whether an incremental rehash is in progress.
func (h *HT[E]) IsRehashing() bool { return h.rehashIdx >= 0 }

// PauseRehash suspends incremental rehashing; calls nest and must be
// balanced with ResumeRehash. Used by Scan and the two-phase pop pair to
// keep element locations stable across a sequence of operations.
func (h *HT[E]) PauseRehash() { h.pauseRehash++ }

// ResumeRehash undoes one PauseRehash call.
func (h *HT[E]) ResumeRehash() { h.pauseRehash-- }

// findLocation returns the table/bucket/slot of the element matching
// key.
//
// As a side effect, it advances an in-progress rehash by one step
// (rehashStepOnRead) whenever rehashing isn't paused and the resize
// policy is ResizeAllow; under that policy a table with sustained
// read-only traffic still finishes migrating eventually instead of
// stalling until the next write. ok is false if no match exists.
func (h *HT[E]) findLocation(hv uint64, key []byte) (tIdx int, idx uint64, pos int, ok bool) {
	if h.Len() == 0 {
		return 0, 0, 0, false
	}
	h.rehashStepOnRead()
	fp := fingerprintOf(hv)
	// Check the rehashing destination table first: it's newer and
	// usually has fewer ever-full buckets, so lookups there are cheaper.
	for table := 1; table >= 0; table-- {
		if h.used[table] == 0 {
			continue
		}
		t := h.tables[table]
		if t == nil {
			continue
		}
		mask := t.mask()
		bidx := hv & mask
		start := bidx
		for {
			b := &t.buckets[bidx]
			for p := 0; p < slotsPerBucket; p++ {
				if b.presence[p] && b.fingerprint[p] == fp {
					if h.typ.KeyCompare(h.typ.ElementGetKey(b.elems[p]), key) {
						return table, bidx, p, true
					}
				}
			}
			if !b.everFull {
				break
			}
			bidx = cursor.Next(bidx, mask)
			if bidx == start {
				// Probed the whole table; vanishingly rare.
				break
			}
		}
	}
	return 0, 0, 0, false
}

// Find returns the element stored under key, if any.
func (h *HT[E]) Find(key []byte) (E, bool) {
	var zero E
	hv := h.typ.Hash(key)
	tIdx, idx, pos, ok := h.findLocation(hv, key)
	if !ok {
		return zero, false
	}
	return h.tables[tIdx].buckets[idx].elems[pos], true
}

// Add inserts elem into the table.
//
// Behavior:
//   - Does nothing and returns false if an element with the same key
//     (per Type.ElementGetKey/KeyCompare) already exists.
//   - Otherwise inserts elem, possibly triggering a table expansion and
//     one incremental rehash step first.
//
// Returns true if elem was added, false if a matching key already
// existed and elem was discarded.
func (h *HT[E]) Add(elem E) bool {
	_, added := h.AddOrFind(elem)
	return added
}

// AddOrFind inserts elem, or if a matching key already exists, returns
// that existing element without modifying the table.
//
// This is Add plus a way to retrieve what was already there instead of
// silently discarding it; callers that don't need the existing element
// should prefer Add.
func (h *HT[E]) AddOrFind(elem E) (existing E, added bool) {
	key := h.typ.ElementGetKey(elem)
	hv := h.typ.Hash(key)
	tIdx, idx, pos, ok := h.findLocation(hv, key)
	if ok {
		return h.tables[tIdx].buckets[idx].elems[pos], false
	}
	h.insert(hv, elem)
	var zero E
	return zero, true
}

// Replace inserts elem, overwriting any element with the same key.
// Returns true if this was a fresh insert, false if an element was
// overwritten (its destructor, if any, is invoked first).
func (h *HT[E]) Replace(elem E) bool {
	key := h.typ.ElementGetKey(elem)
	hv := h.typ.Hash(key)
	tIdx, idx, pos, ok := h.findLocation(hv, key)
	if ok {
		b := &h.tables[tIdx].buckets[idx]
		if h.typ.ElementDestructor != nil {
			h.typ.ElementDestructor(b.elems[pos])
		}
		b.elems[pos] = elem
		return false
	}
	h.insert(hv, elem)
	return true
}

// Pop removes and returns the element matching key, without invoking its
// destructor; the caller takes ownership of the returned element and is
// responsible for releasing any resources it holds. Returns the zero
// value and false if no element matches key. A successful pop may
// shrink the table (shrinkIfNeeded) if it is now sparsely occupied.
func (h *HT[E]) Pop(key []byte) (E, bool) {
	var zero E
	hv := h.typ.Hash(key)
	tIdx, idx, pos, ok := h.findLocation(hv, key)
	if !ok {
		return zero, false
	}
	b := &h.tables[tIdx].buckets[idx]
	elem := b.elems[pos]
	b.presence[pos] = false
	b.elems[pos] = zero
	h.used[tIdx]--
	h.shrinkIfNeeded()
	return elem, true
}

// Delete removes the element matching key and invokes its destructor, if
// one is set. Returns true if an element was found and removed.
func (h *HT[E]) Delete(key []byte) bool {
	elem, ok := h.Pop(key)
	if ok && h.typ.ElementDestructor != nil {
		h.typ.ElementDestructor(elem)
	}
	return ok
}

// PopPosition is an opaque handle returned by TwoPhasePopFindRef and
// consumed by TwoPhasePopDelete. It is only valid until the next
// operation on h other than TwoPhasePopDelete itself.
type PopPosition uint64

// bitsWithinBucket is the number of bits PopPosition reserves for a slot
// index; slotsPerBucket=7 needs 3, one bit of headroom is kept.
const bitsWithinBucket = 4

// TwoPhasePopFindRef locates the element matching key and pauses
// rehashing so its location stays valid until TwoPhasePopDelete is
// called with the returned position.
//
// This split exists for callers that need to inspect or move an
// element before deciding to remove it (the KVS shard layer does this
// to update its own bookkeeping only after confirming the pop will
// succeed), without paying for a second lookup. ok is false if key has
// no match, in which case rehashing is not paused and the caller owes
// nothing.
func (h *HT[E]) TwoPhasePopFindRef(key []byte) (elem E, pos PopPosition, ok bool) {
	var zero E
	hv := h.typ.Hash(key)
	tIdx, idx, slot, found := h.findLocation(hv, key)
	if !found {
		return zero, 0, false
	}
	h.PauseRehash()
	encoded := idx
	encoded <<= bitsWithinBucket
	encoded |= uint64(slot)
	encoded <<= 1
	encoded |= uint64(tIdx)
	encoded++ // never return the zero position
	return h.tables[tIdx].buckets[idx].elems[slot], PopPosition(encoded), true
}

// TwoPhasePopDelete clears the element at pos (obtained from a prior
// TwoPhasePopFindRef) and resumes rehashing. Its destructor is not
// invoked.
func (h *HT[E]) TwoPhasePopDelete(pos PopPosition) {
	encoded := uint64(pos) - 1
	tIdx := int(encoded & 1)
	encoded >>= 1
	slot := int(encoded & ((1 << bitsWithinBucket) - 1))
	bucketIdx := encoded >> bitsWithinBucket

	b := &h.tables[tIdx].buckets[bucketIdx]
	var zero E
	b.presence[slot] = false
	b.elems[slot] = zero
	h.used[tIdx]--
	h.shrinkIfNeeded()
	h.ResumeRehash()
}

// InsertPosition is returned by FindPositionForInsert and consumed by
// InsertAtPosition. The table must not be touched by any other operation
// in between, since even a Find can advance a rehash and move elements.
type InsertPosition struct {
	tIdx int
	idx  uint64
	pos  int
	hv   uint64
}

// FindPositionForInsert is the first phase of a two-phase insert: it
// locates where an element with the given key would go, without
// requiring the caller to construct the element first. This matters
// when building the element is itself expensive or depends on knowing
// insertion actually happened (versus a key already existing), since
// the caller can bail out before doing that work. If ok is false, a
// matching element already exists and is returned as existing instead.
func (h *HT[E]) FindPositionForInsert(key []byte) (existing E, ip InsertPosition, ok bool) {
	var zero E
	hv := h.typ.Hash(key)
	tIdx, idx, pos, found := h.findLocation(hv, key)
	if found {
		return h.tables[tIdx].buckets[idx].elems[pos], InsertPosition{}, false
	}
	h.expandIfNeeded()
	h.rehashStepOnWrite()
	dstT := 0
	if h.IsRehashing() {
		dstT = 1
	}
	dstIdx, dstPos := h.findSlotForInsert(h.tables[dstT], hv)
	return zero, InsertPosition{tIdx: dstT, idx: dstIdx, pos: dstPos, hv: hv}, true
}

// InsertAtPosition completes a two-phase insert previously started with
// FindPositionForInsert.
func (h *HT[E]) InsertAtPosition(elem E, ip InsertPosition) {
	h.fillSlot(ip.tIdx, ip.idx, ip.pos, ip.hv, elem)
}

func (h *HT[E]) insert(hv uint64, elem E) {
	h.expandIfNeeded()
	h.rehashStepOnWrite()
	tIdx := 0
	if h.IsRehashing() {
		tIdx = 1
	}
	idx, pos := h.findSlotForInsert(h.tables[tIdx], hv)
	h.fillSlot(tIdx, idx, pos, hv, elem)
}
