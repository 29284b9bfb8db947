package quicklist

import (
	"github.com/aristanetworks/glog"

	"github.com/valkey-io/valkey-sub003/internal/listpack"
	"github.com/valkey-io/valkey-sub003/internal/lzf"
)

type container int

const (
	containerPacked container = iota
	containerPlain
)

// sizeLimitTable maps a negative fill value to the packed node's byte cap:
// -1 through -5 select 4 KiB, 8 KiB, 16 KiB, 32 KiB, and 64 KiB respectively.
var sizeLimitTable = map[int]int{-1: 4096, -2: 8192, -3: 16384, -4: 32768, -5: 65536}

// sizeSafetyLimit bounds a single packed node's byte size when fill is a
// positive (count-based) cap: a node is still allowed to grow by entry
// count up to fill, but never past this many bytes regardless, so a
// handful of unusually large entries can't blow a node up arbitrarily.
const sizeSafetyLimit = 8192

// node is one element of a quicklist's doubly linked list.
type node struct {
	prev, next *node

	kind container

	// lp/plain hold the node's live (decompressed) content. Exactly one
	// is populated (per kind) when compressed == nil.
	lp    *listpack.LP
	plain []byte

	// compressed holds the node's content while it is outside the hot
	// window. lp/plain are nil while this is set.
	compressed *lzf.Compressed

	// attemptedCompress records that a compression attempt was skipped
	// (too small, or the output would not be smaller). tryCompress does
	// not consult it: each refresh of the compression window tries again
	// on every uncompressed interior node, whatever its size.
	attemptedCompress bool

	// entryCount and rawLen are always accurate regardless of whether
	// the node is currently compressed, so node-sizing decisions never
	// require a decompress.
	entryCount int
	rawLen     int
}

func newPackedNode() *node {
	lp := listpack.New(0)
	return &node{kind: containerPacked, lp: lp, entryCount: 0, rawLen: len(lp.Bytes())}
}

func newPlainNode(value []byte) *node {
	buf := make([]byte, len(value))
	copy(buf, value)
	return &node{kind: containerPlain, plain: buf, entryCount: 1, rawLen: len(buf)}
}

// ensureRaw decompresses the node in place if it is currently compressed.
func (n *node) ensureRaw() {
	if n.compressed == nil {
		return
	}
	raw, err := lzf.Decompress(n.compressed)
	if err != nil {
		panic("quicklist: corrupt compressed node: " + err.Error())
	}
	switch n.kind {
	case containerPacked:
		n.lp = listpack.FromBytes(raw)
	case containerPlain:
		n.plain = raw
	}
	n.compressed = nil
}

// isCompressed reports whether the node is currently compressed.
func (n *node) isCompressed() bool { return n.compressed != nil }

// tryCompress attempts to compress the node's current raw bytes.
// Head and tail nodes are never compressed since they're the ones most
// likely to be touched again immediately; callers are responsible for
// only calling this on nodes that have fallen outside the hot window
// (see refreshCompressionWindow).
func (n *node) tryCompress() {
	if n.isCompressed() {
		return
	}
	raw := n.rawBytes()
	c, ok := lzf.Compress(raw)
	if !ok {
		n.attemptedCompress = true
		if glog.V(3) {
			glog.Infof("quicklist: skipped compressing %d-byte node, below the worthwhile threshold", len(raw))
		}
		return
	}
	if glog.V(3) {
		glog.Infof("quicklist: compressed node %d bytes -> %d bytes", len(raw), len(c.Data))
	}
	n.compressed = c
	n.lp = nil
	n.plain = nil
}

func (n *node) rawBytes() []byte {
	n.ensureRaw()
	switch n.kind {
	case containerPacked:
		return n.lp.Bytes()
	default:
		return n.plain
	}
}

func (n *node) refreshRawLen() {
	if n.kind == containerPacked {
		n.rawLen = len(n.lp.Bytes())
	} else {
		n.rawLen = len(n.plain)
	}
}

// allowedToGrow reports whether this packed node may still accept
// another entry under the configured fill policy: entry-count and
// safety-limit bounds when fill is non-negative, or the byte-size cap
// from sizeLimitTable when fill is negative.
func allowedToGrow(fill int, n *node) bool {
	if n.kind != containerPacked {
		return false
	}
	if fill >= 0 {
		return n.entryCount < fill && n.rawLen < sizeSafetyLimit
	}
	limit, ok := sizeLimitTable[fill]
	if !ok {
		limit = sizeLimitTable[-5]
	}
	return n.rawLen < limit
}

// tooBigForPacked reports whether a value of byteLen bytes must become
// its own plain node rather than be packed into a shared listpack node,
// under the same fill-policy bound allowedToGrow checks.
func tooBigForPacked(fill int, byteLen int) bool {
	if fill >= 0 {
		return byteLen > sizeSafetyLimit
	}
	limit, ok := sizeLimitTable[fill]
	if !ok {
		limit = sizeLimitTable[-5]
	}
	return byteLen > limit
}
