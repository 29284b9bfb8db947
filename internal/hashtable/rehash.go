package hashtable

import (
	"github.com/aristanetworks/glog"

	"github.com/valkey-io/valkey-sub003/internal/cursor"
)

// findSlotForInsert returns the first empty slot reachable from hv's
// primary bucket by cursor probing. The caller must already know a free
// slot exists somewhere in t (expandIfNeeded is responsible for that).
func (h *HT[E]) findSlotForInsert(t *table[E], hv uint64) (uint64, int) {
	mask := t.mask()
	idx := hv & mask
	for {
		b := &t.buckets[idx]
		if pos, ok := b.emptySlot(); ok {
			return idx, pos
		}
		idx = cursor.Next(idx, mask)
	}
}

// fillSlotWithFingerprint writes elem into tables[tIdx][idx][pos] using an
// already-known fingerprint (used by rehashStep, which may be reusing a
// bucket's own index as a stand-in hash rather than recomputing it).
// Returns true if the bucket became full as a result.
func (h *HT[E]) fillSlotWithFingerprint(tIdx int, idx uint64, pos int, fp uint8, elem E) bool {
	b := &h.tables[tIdx].buckets[idx]
	b.presence[pos] = true
	b.fingerprint[pos] = fp
	b.elems[pos] = elem
	h.used[tIdx]++
	if !b.everFull && b.full() {
		b.everFull = true
		h.everfulls[tIdx]++
		return true
	}
	return false
}

func (h *HT[E]) fillSlot(tIdx int, idx uint64, pos int, hv uint64, elem E) {
	newlyFull := h.fillSlotWithFingerprint(tIdx, idx, pos, fingerprintOf(hv), elem)
	if newlyFull && tIdx == 0 {
		h.cleanUpTombstonesIfNeeded()
	}
}

// rehashStepOnRead advances one bucket of an in-progress rehash when read
// operations are allowed to do so (ResizeAllow only).
func (h *HT[E]) rehashStepOnRead() {
	if !h.IsRehashing() || h.pauseRehash > 0 {
		return
	}
	if GetResizePolicy() != ResizeAllow {
		return
	}
	h.rehashStep()
}

// rehashStepOnWrite advances one bucket of an in-progress rehash on
// writes when reads are not already doing so (ResizeAvoid only); this
// keeps a rehash progressing toward completion even while resize_policy
// holds off new expansions.
func (h *HT[E]) rehashStepOnWrite() {
	if !h.IsRehashing() || h.pauseRehash > 0 {
		return
	}
	if GetResizePolicy() != ResizeAvoid {
		return
	}
	h.rehashStep()
}

// rehashStep migrates every live element out of tables[0]'s bucket at
// rehashIdx into tables[1], then advances rehashIdx in cursor order.
func (h *HT[E]) rehashStep() {
	t0 := h.tables[0]
	mask0 := t0.mask()
	idx := uint64(h.rehashIdx)
	b := &t0.buckets[idx]

	for pos := 0; pos < slotsPerBucket; pos++ {
		if !b.presence[pos] {
			continue
		}
		elem := b.elems[pos]
		fp := b.fingerprint[pos]

		var hv uint64
		// When shrinking, the destination is smaller than the source; if
		// the bucket just behind this one was never probed into, this
		// element is still in its primary bucket, so its own index can
		// stand in for its hash and we skip recomputing it.
		if h.tables[1].exp < t0.exp && !t0.buckets[cursor.Prev(idx, mask0)].everFull {
			hv = idx
		} else {
			hv = h.typ.Hash(h.typ.ElementGetKey(elem))
		}

		dstIdx, dstPos := h.findSlotForInsert(h.tables[1], hv)
		h.fillSlotWithFingerprint(1, dstIdx, dstPos, fp, elem)
		h.used[0]--
	}
	b.presence = [slotsPerBucket]bool{}

	next := cursor.Next(idx, mask0)
	h.rehashIdx = int64(next)
	if next == 0 {
		h.completeRehash()
	}
}

// fastForwardRehash drains any in-progress rehash to completion; resize
// cannot start a new rehash on top of one already running.
func (h *HT[E]) fastForwardRehash() {
	for h.IsRehashing() {
		h.rehashStep()
	}
}

func (h *HT[E]) completeRehash() {
	if glog.V(2) {
		from, to := h.RehashingInfo()
		glog.Infof("hashtable: rehash complete, %d buckets -> %d buckets", from, to)
	}
	// The completed callback fires while tables[0]/tables[1] still hold
	// their pre-swap identities, so RehashingInfo remains valid from it.
	if h.typ.RehashCompleted != nil {
		h.typ.RehashCompleted()
	}
	h.tables[0] = h.tables[1]
	h.tables[1] = nil
	h.used[0] = h.used[1]
	h.used[1] = 0
	h.everfulls[0] = h.everfulls[1]
	h.everfulls[1] = 0
	h.rehashIdx = -1
}

// RehashingInfo returns the bucket counts of the source and destination
// tables of an in-progress rehash. Only valid while IsRehashing is true,
// including from within the RehashStarted/RehashCompleted callbacks.
func (h *HT[E]) RehashingInfo() (fromBuckets, toBuckets int) {
	from, to := 0, 0
	if h.tables[0] != nil {
		from = len(h.tables[0].buckets)
	}
	if h.tables[1] != nil {
		to = len(h.tables[1].buckets)
	}
	return from, to
}

// resize allocates a new table sized for minCapacity and begins
// migrating into it. Returns false if the resize was declined (same-size
// resize without enough tombstones to justify it, or the caller's
// ResizeAllowed veto).
func (h *HT[E]) resize(minCapacity int) bool {
	if minCapacity < 1 {
		minCapacity = 1
	}
	exp := bucketExpForCapacity(minCapacity)

	oldExp := -1
	if h.IsRehashing() {
		oldExp = h.tables[1].exp
	} else if h.tables[0] != nil {
		oldExp = h.tables[0].exp
	}

	if exp == oldExp {
		// The only reason to resize to the same size is to clear out
		// enough tombstones to keep probing cheap.
		if h.IsRehashing() {
			return false
		}
		oldNumBuckets := 0
		if h.tables[0] != nil {
			oldNumBuckets = len(h.tables[0].buckets)
		}
		if h.everfulls[0] < oldNumBuckets/2 {
			return false
		}
		if h.everfulls[0] != oldNumBuckets && h.everfulls[0] < 10 {
			return false
		}
	} else if h.typ.ResizeAllowed != nil {
		denom := 1
		if h.tables[0] != nil {
			denom = len(h.tables[0].buckets) * slotsPerBucket
		}
		fillPct := minCapacity * 100 / denom
		if fillPct < hardMaxFillPct && !h.typ.ResizeAllowed(minCapacity, fillPct) {
			return false
		}
	}

	h.fastForwardRehash()

	h.tables[1] = newTable[E](exp)
	h.used[1] = 0
	h.rehashIdx = 0
	if glog.V(2) {
		glog.Infof("hashtable: resizing from exp %d to %d (minCapacity=%d)", oldExp, exp, minCapacity)
	}
	if h.typ.RehashStarted != nil {
		h.typ.RehashStarted()
	}

	if h.tables[0] == nil || h.used[0] == 0 {
		h.completeRehash()
	}
	return true
}

// expandIfNeeded grows the table when the next insertion would push fill
// above the resize policy's max-fill threshold.
func (h *HT[E]) expandIfNeeded() bool {
	minCapacity := h.used[0] + h.used[1] + 1
	numBuckets := 0
	if h.IsRehashing() {
		numBuckets = len(h.tables[1].buckets)
	} else if h.tables[0] != nil {
		numBuckets = len(h.tables[0].buckets)
	}
	currentCapacity := numBuckets * slotsPerBucket
	maxFillPct := maxFillPctFor(GetResizePolicy())
	if minCapacity*100 <= currentCapacity*maxFillPct {
		return false
	}
	if GetResizePolicy() == ResizeForbid && minCapacity <= currentCapacity {
		return false
	}
	return h.resize(minCapacity)
}

// shrinkIfNeeded shrinks the table when fill drops below the resize
// policy's min-fill threshold. Never shrinks mid-rehash or under
// ResizeForbid.
func (h *HT[E]) shrinkIfNeeded() bool {
	if h.IsRehashing() || GetResizePolicy() == ResizeForbid {
		return false
	}
	numBuckets := 0
	if h.tables[0] != nil {
		numBuckets = len(h.tables[0].buckets)
	}
	currentCapacity := numBuckets * slotsPerBucket
	minFillPct := softMinFillPct
	if GetResizePolicy() == ResizeAvoid {
		minFillPct = hardMinFillPct
	}
	if h.used[0]*100 > currentCapacity*minFillPct {
		return false
	}
	return h.resize(h.used[0])
}

// cleanUpTombstonesIfNeeded resizes to the same capacity when probing has
// become expensive due to a high proportion of ever-full buckets, purely
// to clear their tombstones.
func (h *HT[E]) cleanUpTombstonesIfNeeded() bool {
	if h.IsRehashing() || GetResizePolicy() == ResizeForbid {
		return false
	}
	numBuckets := 0
	if h.tables[0] != nil {
		numBuckets = len(h.tables[0].buckets)
	}
	if h.everfulls[0]*100 >= numBuckets*softMaxFillPct {
		return h.resize(h.used[0])
	}
	return false
}

// ExpandIfNeeded is the exported form, for callers that suppressed
// automatic expansion under ResizeAvoid/ResizeForbid and now want to
// catch the table up after restoring ResizeAllow.
func (h *HT[E]) ExpandIfNeeded() bool { return h.expandIfNeeded() }

// ShrinkIfNeeded is the exported counterpart of ExpandIfNeeded for
// shrinking.
func (h *HT[E]) ShrinkIfNeeded() bool { return h.shrinkIfNeeded() }

// Expand resizes the table to hold at least minCapacity elements
// without waiting for the soft-fill threshold, for pre-sizing ahead of a
// known bulk load. Returns false if declined (minCapacity below the
// current element count, same-size resize without enough tombstones to
// be worthwhile, or the type's ResizeAllowed veto).
func (h *HT[E]) Expand(minCapacity int) bool {
	if minCapacity < h.Len() {
		return false
	}
	return h.resize(minCapacity)
}
