// Package cursor implements the reversed-bits cursor arithmetic shared by
// hashtable's incremental rehashing/probing and kvstore's cross-shard scan.
//
// Iterating a power-of-two address space in reversed-bit order keeps
// successive cursor values spread across the table, which is what lets a
// table grow mid-scan without requiring already-visited buckets to be
// revisited or skipped: a bucket that doubles only ever splits into two
// buckets whose reversed-bit cursors are adjacent to the original.
package cursor
