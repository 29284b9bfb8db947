// Package ioqueue implements a fixed-capacity single-producer/
// single-consumer ring buffer of (handler, data) job pairs, plus a
// worker pool that drains one such ring per worker goroutine with a
// busy-wait-then-park idle loop and a dynamically adjustable active
// worker count.
package ioqueue
