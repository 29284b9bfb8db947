package ioqueue

import "sync/atomic"

// cacheLineSize is the padding width used to keep the producer's head
// cursor and the consumer's tail cursor off each other's cache line, so
// the two threads don't fight over ownership of the same line.
const cacheLineSize = 64

// Job is an opaque (handler, data) pair transported from producer to
// consumer. The consumer calls Handler(Data); Data's ownership transfers
// for the duration of that call.
type Job struct {
	Handler func(data any)
	Data    any
}

// paddedCursor holds one atomic index padded out to its own cache line,
// so the producer's head and the consumer's tail never share a line
// and force each other's cores to re-fetch it on every update. Go's
// atomic package only offers sequentially-consistent loads/stores; this
// trades a little performance headroom a weaker memory order could buy
// for a package that needs no unsafe ordering reasoning to get right.
type paddedCursor struct {
	v atomic.Uint64
	_ [cacheLineSize - 8]byte
}

// Queue is a fixed-capacity single-producer/single-consumer ring buffer
// of Jobs. One goroutine pushes, a different single goroutine pops;
// using it from more than one goroutine on either side is undefined.
type Queue struct {
	ring []Job
	size uint64
	head paddedCursor // producer-owned
	tail paddedCursor // consumer-owned
}

// NewQueue returns an empty queue whose ring has capacity slots, so it
// holds at most capacity-1 jobs: one slot is always left unused so the
// ring can distinguish full from empty purely from the head/tail
// cursors, without a separate element count.
func NewQueue(capacity int) *Queue {
	if capacity < 2 {
		capacity = 2
	}
	return &Queue{ring: make([]Job, capacity), size: uint64(capacity)}
}

// IsFull reports whether the queue has no room for another job. Called
// by the producer; a false negative (reporting full when the consumer
// has just freed a slot) is tolerated and simply means the producer
// falls back to handling the job inline.
func (q *Queue) IsFull() bool {
	head := q.head.v.Load()
	tail := q.tail.v.Load()
	return (head+1)%q.size == tail
}

// Push writes handler/data into the next slot and publishes it to the
// consumer. The caller must have just observed IsFull returning false;
// Push does not itself check.
func (q *Queue) Push(handler func(data any), data any) {
	head := q.head.v.Load()
	next := (head + 1) % q.size
	q.ring[head] = Job{Handler: handler, Data: data}
	// The slot write must land before head advances, since the consumer
	// uses head's new value (via AvailableJobs) as its signal that the
	// slot is ready to read.
	q.head.v.Store(next)
}

// AvailableJobs returns the number of jobs ready for consumption. Called
// by the consumer only.
func (q *Queue) AvailableJobs() int {
	head := q.head.v.Load()
	tail := q.tail.v.Load()
	if head >= tail {
		return int(head - tail)
	}
	return int(q.size - (tail - head))
}

// IsEmpty reports whether the queue currently holds no jobs. Callable
// from either side.
func (q *Queue) IsEmpty() bool {
	return q.head.v.Load() == q.tail.v.Load()
}

// Peek returns the job at the front of the queue without removing it.
// The caller must have already confirmed the queue is non-empty.
func (q *Queue) Peek() Job {
	tail := q.tail.v.Load()
	return q.ring[tail]
}

// RemoveJob clears the front slot and advances tail, returning it to the
// producer. The caller must have already confirmed the queue is
// non-empty.
func (q *Queue) RemoveJob() {
	tail := q.tail.v.Load()
	q.ring[tail] = Job{}
	q.tail.v.Store((tail + 1) % q.size)
}
