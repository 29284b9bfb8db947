package hashtable

// Defrag is a no-op. The C original reallocates each bucket array through
// an allocator-aware defragmenter to fight heap fragmentation and rewrite
// moved pointers back into the table; a table's buckets here are already
// one contiguous slice with no per-element pointer chasing to fix up, so
// there is nothing for this package to do. Kept as a method so callers
// written against the original API still have something to call.
func (h *HT[E]) Defrag() {}
