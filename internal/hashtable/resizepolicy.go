package hashtable

import "sync/atomic"

// ResizePolicy is a process-wide resize knob: a single enum, rarely
// written, read on every expand/shrink decision across every HT in the
// process. Typical use is flipping to ResizeAvoid or ResizeForbid while
// a snapshot or background save is in flight, where growing a table
// would mean copy-on-write duplicating pages that were about to be
// written out anyway.
type ResizePolicy int32

const (
	// ResizeAllow permits free resize/rehash; a read may opportunistically
	// advance rehashing by one bucket.
	ResizeAllow ResizePolicy = iota
	// ResizeAvoid only resizes past the hard fill bound; rehashing only
	// advances on writes.
	ResizeAvoid
	// ResizeForbid never resizes a table that still has a free slot, so
	// inserts keep succeeding in place; only an insert into a completely
	// full table grows it.
	ResizeForbid
)

var globalResizePolicy atomic.Int32

// SetResizePolicy updates the process-wide policy.
func SetResizePolicy(p ResizePolicy) { globalResizePolicy.Store(int32(p)) }

// GetResizePolicy reads the process-wide policy (ResizeAllow by default).
func GetResizePolicy() ResizePolicy { return ResizePolicy(globalResizePolicy.Load()) }
