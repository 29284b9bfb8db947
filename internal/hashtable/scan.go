package hashtable

import "github.com/valkey-io/valkey-sub003/internal/cursor"

// ScanFlags tunes Scan's behavior.
type ScanFlags int

const (
	// ScanSingleStep selects fewer elements when the full-coverage
	// guarantee below isn't needed: the scan does not continue through
	// an entire probing chain, so elements can be missed if rehashing
	// happens between calls. With this flag each call advances the
	// cursor by exactly one step; without it, a call keeps advancing
	// while the buckets it visits are ever-full.
	ScanSingleStep ScanFlags = 1 << iota
)

// Scan is a stateless iterator driven by a cursor: start with cursor 0,
// pass the cursor Scan returns to the next call, and stop once it
// returns 0. The table may be mutated in any way between calls.
//
// Guarantees: an element present in the table for an entire full scan is
// emitted at least once (occasionally twice). An element inserted or
// deleted mid-scan may or may not be emitted.
func (h *HT[E]) Scan(cur uint64, flags ScanFlags, fn func(elem E)) uint64 {
	if h.Len() == 0 {
		return 0
	}
	h.PauseRehash()
	defer h.ResumeRehash()

	singleStep := flags&ScanSingleStep != 0

	mask0 := h.tables[0].mask()
	var mask1 uint64
	if h.tables[1] != nil {
		mask1 = h.tables[1].mask()
	}
	cur &= mask0 | mask1
	start := cur
	passedZero := false

	for {
		inProbeSequence := false

		if !h.IsRehashing() {
			t0 := h.tables[0]
			mask := t0.mask()
			b := &t0.buckets[cur&mask]
			emitBucket(b, fn)
			inProbeSequence = b.everFull
			cur = cursor.Next(cur, mask)
		} else {
			// Let small be the table with fewer buckets, big the other.
			small, big := 0, 1
			if h.tables[0].exp > h.tables[1].exp {
				small, big = 1, 0
			}
			maskSmall := h.tables[small].mask()
			maskBig := h.tables[big].mask()

			// Emit the small table's bucket at this cursor, unless it's
			// table 0 (the rehash source) and has already been migrated
			// past by rehashIdx.
			if small == 1 || !cursor.LessThan(cur, uint64(h.rehashIdx)) {
				b := &h.tables[small].buckets[cur&maskSmall]
				emitBucket(b, fn)
				inProbeSequence = inProbeSequence || b.everFull
			}

			// Walk every big-table index that is this cursor's
			// expansion under the bigger mask.
			for {
				b := &h.tables[big].buckets[cur&maskBig]
				emitBucket(b, fn)
				inProbeSequence = inProbeSequence || b.everFull
				cur = cursor.Next(cur, maskBig)
				if cur&(maskSmall^maskBig) == 0 || cur == start {
					break
				}
			}
		}

		if cur == 0 {
			passedZero = true
		}
		if !(inProbeSequence && !singleStep && cur != start) {
			break
		}
	}

	if passedZero {
		return 0
	}
	return cur
}

func emitBucket[E any](b *bucket[E], fn func(E)) {
	for pos := 0; pos < slotsPerBucket; pos++ {
		if b.presence[pos] {
			fn(b.elems[pos])
		}
	}
}
