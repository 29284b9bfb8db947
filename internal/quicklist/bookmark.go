package quicklist

// BookmarkCreate records name as pointing at the node currently holding
// the entry at the given global index, so a caller can find its way
// back to roughly that position later even after other entries are
// inserted or removed elsewhere in the list. Returns false once the
// table already holds MaxBookmarks entries and name isn't already one
// of them, or if index doesn't resolve to a live node.
func (q *QL) BookmarkCreate(name string, index int) bool {
	if _, exists := q.bookmarks[name]; !exists && len(q.bookmarks) >= MaxBookmarks {
		return false
	}
	it := q.GetIteratorAt(index, true)
	if it == nil || it.node == nil {
		return false
	}
	q.bookmarks[name] = it.node
	return true
}

// BookmarkFind returns the global index of the entry at the start of the
// bookmarked node, or (-1, false) if the name is unknown.
func (q *QL) BookmarkFind(name string) (int, bool) {
	n, ok := q.bookmarks[name]
	if !ok {
		return -1, false
	}
	idx := 0
	for cur := q.head; cur != nil; cur = cur.next {
		if cur == n {
			return idx, true
		}
		idx += cur.entryCount
	}
	delete(q.bookmarks, name)
	return -1, false
}

// BookmarkDelete removes a single bookmark by name.
func (q *QL) BookmarkDelete(name string) bool {
	if _, ok := q.bookmarks[name]; !ok {
		return false
	}
	delete(q.bookmarks, name)
	return true
}

// BookmarkClear removes every bookmark.
func (q *QL) BookmarkClear() {
	q.bookmarks = make(map[string]*node)
}

// advanceBookmarksPast reassigns any bookmark pointing at n to n's
// successor, or removes it if n had none. Called whenever n is unlinked
// from the list, so a bookmark never ends up pointing at a node that is
// no longer reachable.
func (q *QL) advanceBookmarksPast(n *node) {
	for name, bn := range q.bookmarks {
		if bn != n {
			continue
		}
		if n.next != nil {
			q.bookmarks[name] = n.next
		} else {
			delete(q.bookmarks, name)
		}
	}
}
