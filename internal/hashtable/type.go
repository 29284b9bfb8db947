package hashtable

// Type bundles the callbacks HT needs to stay generic over what it
// stores. E is the caller-owned element type; keys are always []byte,
// since every keyspace element this core stores (a KVS entry) is keyed
// by a byte string.
type Type[E any] struct {
	// Hash returns a keyed 64-bit hash of key. When nil, New uses an
	// internal/khash function instead.
	Hash func(key []byte) uint64

	// KeyCompare reports whether a and b are the same key.
	KeyCompare func(a, b []byte) bool

	// ElementGetKey extracts the key from an element. When nil and E is
	// []byte, New treats E itself as the key; for any other E it must
	// be set.
	ElementGetKey func(e E) []byte

	// ElementDestructor is called when an element is replaced or
	// deleted. Optional; Go's GC reclaims memory regardless, but a
	// caller may use this hook for external bookkeeping (e.g.
	// decrementing a byte-size counter).
	ElementDestructor func(e E)

	// ResizeAllowed, if set, can veto an otherwise-triggered resize to a
	// different bucket-table size (e.g. to cap memory growth under
	// backpressure). requestedCapacity is the element count the new
	// table must hold; fillPercent is what that would imply as a
	// percentage of the current table's capacity.
	ResizeAllowed func(requestedCapacity, fillPercent int) bool

	// RehashStarted/RehashCompleted are invoked when this table begins
	// or finishes an incremental rehash. A sharded store uses these to
	// track which of its shards currently have rehashing work
	// outstanding, so it can round-robin incremental steps across them
	// instead of polling every shard's IsRehashing on each tick.
	RehashStarted   func()
	RehashCompleted func()
}
