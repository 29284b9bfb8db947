// Package listpack implements LP: a single contiguous byte buffer
// storing a self-describing sequence of mixed small-integer and
// short-string entries, with O(1) append/prepend, reverse traversal via
// a per-entry backlen, and integrity validation for untrusted buffers.
//
// Layout:
//
//	[ total_bytes : u32 LE ] [ num_elements : u16 LE ] [ entry ]* [ 0xFF ]
//
// Each entry is <encoding+payload><backlen>, where encoding is chosen by
// the leading bits of its first byte (see encoding.go) and backlen is a
// variable-length (1-5 byte) big-endian base-128 encoding of the entry's
// forward length, letting Prev walk the buffer right to left without a
// separate index.
//
// Positions returned by this package (Pos) are byte offsets into the
// listpack's backing buffer. They are invalidated by any mutation that
// grows or shrinks the buffer at or before that offset. Do not retain
// one across an Insert/Replace/Delete call.
package listpack
