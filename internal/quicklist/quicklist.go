package quicklist

import (
	"github.com/valkey-io/valkey-sub003/internal/listpack"
)

// Where selects an end of the list for Pop/Rotate.
type Where int

const (
	Head Where = iota
	Tail
)

// MaxBookmarks bounds the bookmark table: a list iterated by external
// code needs a name-to-node mapping that survives arbitrary insertions
// and deletions, and this caps how many such names one list tracks.
const MaxBookmarks = 16

// QL is a doubly linked list of listpack-backed (or plain) nodes: each
// node batches several small entries into one listpack for locality,
// falling back to a standalone "plain" node for any single entry too
// large to share a listpack comfortably.
type QL struct {
	head, tail *node
	count      int // total entries across all nodes
	numNodes   int
	fill       int
	compress   int

	bookmarks map[string]*node
}

// New creates an empty quicklist.
//
// Parameters:
//   - fill: non-negative values cap each node at that many entries;
//     negative values (-1 through -5) instead cap each node by total
//     byte size, picked from a fixed size table (see tooBigForPacked).
//   - compress: how many nodes at each end stay uncompressed (the "hot"
//     window next to head/tail); interior nodes beyond that window are
//     eligible for lzf compression. 0 disables compression entirely.
func New(fill, compress int) *QL {
	return &QL{fill: fill, compress: compress, bookmarks: make(map[string]*node)}
}

// Len returns the total number of entries across all nodes.
func (q *QL) Len() int { return q.count }

// NumNodes returns the number of nodes in the list.
func (q *QL) NumNodes() int { return q.numNodes }

func (q *QL) linkAsOnlyNode(n *node) {
	n.prev, n.next = nil, nil
	q.head, q.tail = n, n
	q.numNodes = 1
}

func (q *QL) linkBeforeHead(n *node) {
	n.next = q.head
	n.prev = nil
	q.head.prev = n
	q.head = n
	q.numNodes++
}

func (q *QL) linkAfterTail(n *node) {
	n.prev = q.tail
	n.next = nil
	q.tail.next = n
	q.tail = n
	q.numNodes++
}

func (q *QL) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		q.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		q.tail = n.prev
	}
	q.numNodes--
	q.advanceBookmarksPast(n)
}

// PushHead inserts val at the front of the list. sz is the caller's size
// hint for val in bytes; it feeds the plain-vs-packed decision alongside
// the node's fill policy, so callers with an int value should still pass
// its encoded byte length rather than 0.
func (q *QL) PushHead(val listpack.Value, sz int) {
	if q.head != nil && q.head.kind == containerPacked && !tooBigForPacked(q.fill, sz) && allowedToGrow(q.fill, q.head) {
		q.head.lp.Prepend(val)
		q.head.entryCount++
		q.head.refreshRawLen()
		q.count++
		q.refreshCompressionWindow()
		return
	}
	n := q.newNodeFor(val, sz)
	if q.head == nil {
		q.linkAsOnlyNode(n)
	} else {
		q.linkBeforeHead(n)
	}
	q.count++
	q.refreshCompressionWindow()
}

// PushTail inserts val at the back of the list.
func (q *QL) PushTail(val listpack.Value, sz int) {
	if q.tail != nil && q.tail.kind == containerPacked && !tooBigForPacked(q.fill, sz) && allowedToGrow(q.fill, q.tail) {
		q.tail.lp.Append(val)
		q.tail.entryCount++
		q.tail.refreshRawLen()
		q.count++
		q.refreshCompressionWindow()
		return
	}
	n := q.newNodeFor(val, sz)
	if q.tail == nil {
		q.linkAsOnlyNode(n)
	} else {
		q.linkAfterTail(n)
	}
	q.count++
	q.refreshCompressionWindow()
}

func (q *QL) newNodeFor(val listpack.Value, sz int) *node {
	if tooBigForPacked(q.fill, sz) {
		if val.IsInt {
			// An int never needs a plain node; plain nodes exist for
			// oversized strings only.
			n := newPackedNode()
			n.lp.Append(val)
			n.entryCount = 1
			n.refreshRawLen()
			return n
		}
		return newPlainNode(val.Str)
	}
	n := newPackedNode()
	n.lp.Append(val)
	n.entryCount = 1
	n.refreshRawLen()
	return n
}

// Entry is one decoded value read back out of the list, alongside enough
// context to support in-place mutation via the originating Iterator.
type Entry struct {
	Value listpack.Value
}

// Pop removes and returns the entry at the given end.
//
// If that end's node is a plain node, the whole node is unlinked and
// returned as a single string-shaped value. If it's a packed node, only
// the one entry is removed from its listpack, and the node itself is
// only unlinked once its entry count drops to zero. ok is false if the
// list is empty.
func (q *QL) Pop(where Where) (listpack.Value, bool) {
	var n *node
	if where == Head {
		n = q.head
	} else {
		n = q.tail
	}
	if n == nil {
		return listpack.Value{}, false
	}
	n.ensureRaw()
	var val listpack.Value
	switch n.kind {
	case containerPlain:
		val = listpack.Str(n.plain)
		q.unlink(n)
	case containerPacked:
		var p listpack.Pos
		if where == Head {
			p = n.lp.First()
		} else {
			p = n.lp.Last()
		}
		val = n.lp.Get(p)
		n.lp.Delete(p)
		n.entryCount--
		n.refreshRawLen()
		if n.entryCount == 0 {
			q.unlink(n)
		}
	}
	q.count--
	q.refreshCompressionWindow()
	return val, true
}

// Rotate moves the tail entry to the head, the way a caller implementing
// a ring-like rotation over the list would; a no-op on a list of 0 or 1
// entries.
func (q *QL) Rotate() {
	if q.count <= 1 {
		return
	}
	v, ok := q.Pop(Tail)
	if !ok {
		return
	}
	q.PushHead(v, valueByteLen(v))
}

func valueByteLen(v listpack.Value) int {
	if v.IsInt {
		return 8
	}
	return len(v.Str)
}

// DeleteRange removes up to n entries starting at the global index
// start (0-based, forward from head). Stops early if the list runs out
// of entries before n is reached. Returns the count actually removed,
// which is less than n exactly when start+n would have run past the
// end of the list.
func (q *QL) DeleteRange(start, n int) int {
	if n <= 0 || start < 0 || start >= q.count {
		return 0
	}
	it := q.GetIteratorAt(start, true)
	removed := 0
	for removed < n {
		if it == nil || it.node == nil {
			break
		}
		it.deleteCurrentAndAdvance()
		removed++
		if it.node != nil {
			it.node.ensureRaw()
		}
		if _, ok := it.Next(); !ok {
			break
		}
	}
	return removed
}

// ReplaceAt overwrites the entry at the global index with val.
func (q *QL) ReplaceAt(index int, val listpack.Value, sz int) bool {
	it := q.GetIteratorAt(index, true)
	if it == nil || it.node == nil {
		return false
	}
	return it.replaceCurrent(val, sz)
}

// Dup returns a deep, independent copy of q.
func (q *QL) Dup() *QL {
	out := New(q.fill, q.compress)
	for it := q.GetIterator(true); ; {
		v, ok := it.Next()
		if !ok {
			break
		}
		out.PushTail(v, valueByteLen(v))
	}
	return out
}

// Release drops q's references so its nodes become eligible for garbage
// collection. Go does not require explicit frees, but unlinking every
// node here breaks the doubly linked chain so a stray reference to one
// node held elsewhere cannot keep the whole list reachable.
func (q *QL) Release() {
	for n := q.head; n != nil; {
		next := n.next
		n.prev, n.next = nil, nil
		n = next
	}
	q.head, q.tail = nil, nil
	q.count, q.numNodes = 0, 0
	q.bookmarks = nil
}
