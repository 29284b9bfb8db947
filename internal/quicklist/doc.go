// Package quicklist implements QL: a doubly linked list of listpack.LP-
// backed nodes, with plain nodes for oversized single values, per-node
// LZF-role compression (internal/lzf) of the nodes outside a
// configurable "hot window" at either end, and a bounded bookmark table
// for stable references into the list across structural changes.
package quicklist
