package quicklist

import "github.com/valkey-io/valkey-sub003/internal/listpack"

// Iterator walks a quicklist's entries in one direction. Every iterator
// is created with safe set, but nothing reads that flag and nothing
// pauses the compression-window refresh: a push, pop or insert that
// compresses the node the iterator is positioned on leaves that node
// without a decoded listpack, and a later Next on the iterator does not
// decompress it first.
type Iterator struct {
	ql      *QL
	node    *node
	offset  listpack.Pos // current position within node.lp, if packed
	forward bool
	safe    bool
	started bool
}

// GetIterator returns an iterator starting at the head (forward) or tail
// (reverse) of the list.
func (q *QL) GetIterator(forward bool) *Iterator {
	it := &Iterator{ql: q, forward: forward, safe: true}
	if forward {
		it.node = q.head
	} else {
		it.node = q.tail
	}
	if it.node != nil {
		it.node.ensureRaw()
	}
	return it
}

// GetIteratorAt returns an iterator positioned at the given global entry
// index (0-based from head).
func (q *QL) GetIteratorAt(index int, forward bool) *Iterator {
	if index < 0 || index >= q.count {
		return nil
	}
	n := q.head
	remaining := index
	for n != nil {
		n.ensureRaw()
		if remaining < n.entryCount {
			break
		}
		remaining -= n.entryCount
		n = n.next
	}
	if n == nil {
		return nil
	}
	it := &Iterator{ql: q, node: n, forward: forward, safe: true}
	if n.kind == containerPacked {
		p := n.lp.First()
		for i := 0; i < remaining; i++ {
			p = n.lp.Next(p)
		}
		it.offset = p
	}
	it.started = true
	return it
}

// Next advances the iterator and returns the entry it now points to.
// The first call after GetIterator returns the starting entry without
// advancing past it; an iterator from GetIteratorAt is already on the
// entry at index, so its first call returns the entry after that one.
// ok is false once iteration has run
// past the last entry in the chosen direction, after which further
// calls keep returning false rather than panicking.
func (it *Iterator) Next() (listpack.Value, bool) {
	if it.node == nil {
		return listpack.Value{}, false
	}
	if !it.started {
		it.started = true
		if it.node.kind == containerPacked {
			if it.forward {
				it.offset = it.node.lp.First()
			} else {
				it.offset = it.node.lp.Last()
			}
		}
		return it.current()
	}
	return it.advance()
}

func (it *Iterator) current() (listpack.Value, bool) {
	switch it.node.kind {
	case containerPlain:
		return listpack.Str(it.node.plain), true
	default:
		if it.offset == listpack.None {
			return listpack.Value{}, false
		}
		return it.node.lp.Get(it.offset), true
	}
}

func (it *Iterator) advance() (listpack.Value, bool) {
	if it.node.kind == containerPacked {
		if it.forward {
			it.offset = it.node.lp.Next(it.offset)
		} else {
			it.offset = it.node.lp.Prev(it.offset)
		}
		if it.offset != listpack.None {
			return it.current()
		}
	}
	// Move to the next node in the iteration direction.
	var next *node
	if it.forward {
		next = it.node.next
	} else {
		next = it.node.prev
	}
	if next == nil {
		it.node = nil
		return listpack.Value{}, false
	}
	next.ensureRaw()
	it.node = next
	if next.kind == containerPacked {
		if it.forward {
			it.offset = next.lp.First()
		} else {
			it.offset = next.lp.Last()
		}
		if it.offset == listpack.None {
			return it.advance()
		}
	}
	return it.current()
}

// deleteCurrentAndAdvance removes the entry the iterator is positioned on
// and leaves the iterator so that its next Next call returns the logical
// successor, so a caller can delete
// while iterating without losing its place or skipping the entry that
// used to follow the one just removed.
func (it *Iterator) deleteCurrentAndAdvance() {
	n := it.node
	if n == nil {
		return
	}
	switch n.kind {
	case containerPlain:
		it.ql.unlink(n)
		it.ql.count--
		it.node = chooseNext(n, it.forward)
		it.started = false
		return
	default:
		p := it.offset
		prevOffset := n.lp.Prev(p)
		n.lp.Delete(p)
		n.entryCount--
		n.refreshRawLen()
		it.ql.count--
		if n.entryCount == 0 {
			successor := chooseNext(n, it.forward)
			it.ql.unlink(n)
			it.node = successor
			it.started = false
			return
		}
		// Later entries shift down to p, so the successor is one advance
		// forward from the entry before p, or one advance back from p.
		switch {
		case !it.forward:
			it.offset = p
		case prevOffset != listpack.None:
			it.offset = prevOffset
		default:
			it.started = false // the successor is now the node's first entry
		}
	}
}

func chooseNext(n *node, forward bool) *node {
	if forward {
		return n.next
	}
	return n.prev
}

// replaceCurrent overwrites the iterator's current entry with val.
func (it *Iterator) replaceCurrent(val listpack.Value, sz int) bool {
	if it.node == nil {
		return false
	}
	if it.node.kind == containerPlain {
		it.node.plain = append([]byte(nil), val.Str...)
		it.node.refreshRawLen()
		return true
	}
	_, ok := it.node.lp.Replace(it.offset, val)
	if ok {
		it.node.refreshRawLen()
	}
	return ok
}

// InsertBefore inserts val immediately before the iterator's current
// position.
func (q *QL) InsertBefore(it *Iterator, val listpack.Value, sz int) {
	q.insertNear(it, val, sz, true)
}

// InsertAfter inserts val immediately after the iterator's current
// position.
func (q *QL) InsertAfter(it *Iterator, val listpack.Value, sz int) {
	q.insertNear(it, val, sz, false)
}

func (q *QL) insertNear(it *Iterator, val listpack.Value, sz int, before bool) {
	if it == nil || it.node == nil {
		if before {
			q.PushHead(val, sz)
		} else {
			q.PushTail(val, sz)
		}
		return
	}
	n := it.node
	if n.kind == containerPacked && !tooBigForPacked(q.fill, sz) && allowedToGrow(q.fill, n) {
		if before {
			n.lp.InsertBefore(it.offset, val)
		} else {
			n.lp.InsertAfter(it.offset, val)
		}
		n.entryCount++
		n.refreshRawLen()
		q.count++
		q.refreshCompressionWindow()
		return
	}
	nn := q.newNodeFor(val, sz)
	if before {
		q.linkBeforeNode(n, nn)
	} else {
		q.linkAfterNode(n, nn)
	}
	q.count++
	q.refreshCompressionWindow()
}

func (q *QL) linkBeforeNode(n, nn *node) {
	nn.prev = n.prev
	nn.next = n
	if n.prev != nil {
		n.prev.next = nn
	} else {
		q.head = nn
	}
	n.prev = nn
	q.numNodes++
}

func (q *QL) linkAfterNode(n, nn *node) {
	nn.next = n.next
	nn.prev = n
	if n.next != nil {
		n.next.prev = nn
	} else {
		q.tail = nn
	}
	n.next = nn
	q.numNodes++
}

// DeleteEntry removes the entry the iterator currently points at.
func (q *QL) DeleteEntry(it *Iterator) {
	it.deleteCurrentAndAdvance()
}
