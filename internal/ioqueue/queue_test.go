package ioqueue

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestQueueSPSCPreservesOrderAndCount is the data-structure core's
// scenario 6: a single producer pushes 1,000,000 sequentially numbered
// tokens into a queue of size 2048, spinning until a slot frees up
// whenever the queue reports full, while a single consumer drains
// it concurrently. Every token must be observed, in strictly increasing
// order, with none lost or duplicated, and IsFull must be observed true
// at least once during the run.
func TestQueueSPSCPreservesOrderAndCount(t *testing.T) {
	const n = 1_000_000
	q := NewQueue(2048)

	var observedFull atomic.Bool
	var received []int
	var mu sync.Mutex
	done := make(chan struct{})

	record := func(data any) {
		mu.Lock()
		received = append(received, data.(int))
		mu.Unlock()
	}

	go func() {
		defer close(done)
		for {
			avail := q.AvailableJobs()
			if avail == 0 {
				mu.Lock()
				got := len(received)
				mu.Unlock()
				if got == n {
					return
				}
				continue
			}
			for i := 0; i < avail; i++ {
				job := q.Peek()
				job.Handler(job.Data)
				q.RemoveJob()
			}
		}
	}()

	for i := 0; i < n; i++ {
		if q.IsFull() {
			observedFull.Store(true)
			for q.IsFull() {
			}
		}
		q.Push(record, i)
	}

	<-done

	require.True(t, observedFull.Load(), "queue of size 2048 against 1,000,000 pushes should fill at least once")
	require.Len(t, received, n)
	for i, v := range received {
		require.Equal(t, i, v, "token out of order at position %d", i)
	}
}

func TestQueueIsEmptyAndIsFullAtBoundaries(t *testing.T) {
	q := NewQueue(4) // 3 usable slots
	require.True(t, q.IsEmpty())
	require.False(t, q.IsFull())

	q.Push(func(any) {}, 1)
	q.Push(func(any) {}, 2)
	q.Push(func(any) {}, 3)
	require.True(t, q.IsFull())
	require.False(t, q.IsEmpty())
	require.Equal(t, 3, q.AvailableJobs())

	q.RemoveJob()
	require.False(t, q.IsFull())
	require.Equal(t, 2, q.AvailableJobs())
}

func TestQueuePeekDoesNotAdvance(t *testing.T) {
	q := NewQueue(4)
	q.Push(func(any) {}, "a")
	q.Push(func(any) {}, "b")

	require.Equal(t, "a", q.Peek().Data)
	require.Equal(t, "a", q.Peek().Data, "peek must be idempotent")
	q.RemoveJob()
	require.Equal(t, "b", q.Peek().Data)
}
