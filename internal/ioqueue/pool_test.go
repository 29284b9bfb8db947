package ioqueue

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolRunsJobsPushedToActiveWorker(t *testing.T) {
	p := NewWorkerPool(4, 64)
	defer p.Stop()
	p.Rescale(3, 1, false) // active count 3: workers 1 and 2 run, worker 3 stays parked

	var count atomic.Int64
	q := p.Queue(1)
	for i := 0; i < 100; i++ {
		for q.IsFull() {
			time.Sleep(time.Millisecond)
		}
		q.Push(func(any) { count.Add(1) }, i)
	}

	require.Eventually(t, func() bool { return count.Load() == 100 }, time.Second, time.Millisecond)
}

func TestRescaleActivatesAndDeactivates(t *testing.T) {
	p := NewWorkerPool(5, 64)
	defer p.Stop()
	require.Equal(t, 1, p.ActiveWorkers())

	got := p.Rescale(10, 0, false) // eventsPerWorker==0 => target numEvents+1, clamped to 5
	require.Equal(t, 5, got)

	got = p.Rescale(0, 1, false)
	require.Equal(t, 1, got, "idle queues must allow scaling back down to 1")
}

func TestRescaleIncreaseOnlyRefusesToShrink(t *testing.T) {
	p := NewWorkerPool(5, 64)
	defer p.Stop()
	p.Rescale(10, 0, false)
	require.Equal(t, 5, p.ActiveWorkers())

	got := p.Rescale(0, 1, true)
	require.Equal(t, 5, got, "increaseOnly must refuse to shrink")
}

func TestRescaleRefusesToShrinkWithPendingJobs(t *testing.T) {
	p := NewWorkerPool(3, 64)
	defer p.Stop()
	p.Rescale(10, 0, false)
	require.Equal(t, 3, p.ActiveWorkers())

	// Flood worker 2's queue so it can never be observed empty long
	// enough to deactivate within this check.
	q := p.Queue(2)
	q.Push(func(any) { time.Sleep(50 * time.Millisecond) }, 1)

	got := p.Rescale(0, 1, false)
	require.Equal(t, 3, got, "a non-empty candidate queue must block the whole shrink")
}

func TestDrainWaitsForQueuesToEmpty(t *testing.T) {
	p := NewWorkerPool(2, 64)
	defer p.Stop()
	p.Rescale(10, 0, false)

	var ran atomic.Bool
	q := p.Queue(1)
	q.Push(func(any) { time.Sleep(10 * time.Millisecond); ran.Store(true) }, nil)

	p.Drain()
	require.True(t, ran.Load())
}
