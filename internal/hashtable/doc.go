// Package hashtable implements HT: an open-addressing hash table with
// two table slots for incremental rehashing, cache-line-shaped buckets
// of 7 slots carrying an 8-bit fingerprint per occupied slot and a
// per-bucket "ever full" flag, a stateless cursor-driven scan that
// guarantees full-scan coverage across a concurrent resize, and a
// two-phase pop for in-place mutation under a paused rehash.
//
// This implementation targets 64-bit hosts only (7 slots per bucket).
// A narrower bucket shape tuned for 32-bit pointer width is out of
// scope, since this module has no 32-bit deployment target (see
// DESIGN.md).
//
// A Go struct's field layout is up to the compiler, so HT approximates
// "one bucket, one cache line" with a single bucket struct sized to
// hold 7 slots plus their presence bits and fingerprints, without
// asserting a literal byte size for the struct (see DESIGN.md's entry
// for this package).
package hashtable
