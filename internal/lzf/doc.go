// Package lzf is quicklist's node compression codec: it shrinks and
// restores the byte buffer backing an interior plain node's entries.
//
// Nothing outside this package or quicklist depends on the compressed
// bytes' on-disk layout; only round-trip correctness and the original
// length being recoverable matter. That makes the codec a role rather
// than a fixed wire format, so this package backs it with
// github.com/klauspost/compress/s2 instead of a hand-rolled
// byte-for-byte LZF implementation. See DESIGN.md's entry for this
// package for more on that choice.
package lzf
