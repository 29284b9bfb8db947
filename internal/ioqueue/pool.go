package ioqueue

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// spinIterations bounds the busy-wait a worker performs before parking.
// A fixed iteration count rather than a wall-clock timeout keeps the
// spin/park transition deterministic across machines of different
// speeds.
const spinIterations = 1_000_000

// defaultQueueSize is the per-worker ring capacity used by NewWorkerPool when
// the caller doesn't override it.
const defaultQueueSize = 2048

// worker holds one goroutine's private queue plus the park/activate
// mutex. A worker is "active" when its mutex is unlocked; WorkerPool
// deactivates a worker by locking its mutex, which blocks the worker's
// own unlock-immediately call the next time it finds no jobs.
type worker struct {
	id     int
	queue  *Queue
	parkMu sync.Mutex
}

// WorkerPool supervises a fixed set of single-consumer worker goroutines,
// each draining its own Queue, with a dynamically adjustable number of
// *active* workers. Worker slot 0 is reserved and never started: it
// stands in for the caller's own thread of control, so callers submit
// jobs only to workers[1:].
type WorkerPool struct {
	workers []*worker
	active  int // 1..len(workers), counting the reserved workers[0]

	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewWorkerPool creates a pool of n worker slots (n-1 real workers plus
// the reserved index 0) with the given per-worker queue capacity, and
// starts every worker goroutine running.
//
// A freshly created pool reports ActiveWorkers() == 1 regardless of n:
// only the reserved slot counts at first, and every real worker starts
// parked. Callers raise the active count with Rescale once they know
// how much concurrency the incoming load actually needs; queueCapacity
// <= 0 falls back to defaultQueueSize.
func NewWorkerPool(n int, queueCapacity int) *WorkerPool {
	if n < 1 {
		n = 1
	}
	if queueCapacity <= 0 {
		queueCapacity = defaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	p := &WorkerPool{workers: make([]*worker, n), active: 1, group: g, cancel: cancel}
	for i := 1; i < n; i++ {
		w := &worker{id: i, queue: NewQueue(queueCapacity)}
		w.parkMu.Lock() // every worker above the active count starts deactivated
		p.workers[i] = w
	}
	// Every real worker starts parked; Rescale unlocks them in order as
	// the pool is asked to scale up.
	for i := 1; i < n; i++ {
		w := p.workers[i]
		g.Go(func() error { return w.run(ctx) })
	}
	return p
}

// Queue returns the ring buffer that feeds worker id. Callers push jobs
// onto it directly; id must be in [1, len(workers)).
func (p *WorkerPool) Queue(id int) *Queue { return p.workers[id].queue }

// ActiveWorkers reports how many worker slots are currently active,
// including the reserved slot 0.
func (p *WorkerPool) ActiveWorkers() int { return p.active }

// run is a worker goroutine's body: spin on the queue looking for jobs,
// park via parkMu once spinIterations finds nothing, and repeat until
// ctx is cancelled. It returns nil unconditionally since cancellation
// is an expected shutdown path, not an error.
func (w *worker) run(ctx context.Context) error {
	for {
		available := 0
		for j := 0; j < spinIterations; j++ {
			available = w.queue.AvailableJobs()
			if available > 0 {
				break
			}
			if ctx.Err() != nil {
				return nil
			}
		}

		if available == 0 {
			// Parked: this blocks until WorkerPool deactivates (acquires the
			// lock ahead of us, so we block here) or reactivates us (we
			// acquire immediately and loop back around to spin again).
			w.parkMu.Lock()
			w.parkMu.Unlock()
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		for j := 0; j < available; j++ {
			job := w.queue.Peek()
			job.Handler(job.Data)
			w.queue.RemoveJob()
		}
	}
}

// Rescale retargets the active worker count to fit the current event
// load.
//
// Behavior:
//   - When eventsPerWorker is 0, every event gets its own worker
//     (target = numEvents+1); this mode exists mainly for tests that
//     want one worker guaranteed per job.
//   - Otherwise target = numEvents/eventsPerWorker, clamped to
//     [1, len(workers)].
//   - If increaseOnly is set, Rescale never scales down.
//   - Otherwise workers are deactivated from the top down, and the pass
//     stops at the first one whose queue is not empty; workers already
//     deactivated in that pass stay deactivated.
//
// Returns the resulting active count.
func (p *WorkerPool) Rescale(numEvents, eventsPerWorker int, increaseOnly bool) int {
	total := len(p.workers)
	if total <= 1 {
		return p.active
	}

	target := numEvents + 1
	if eventsPerWorker != 0 {
		target = numEvents / eventsPerWorker
	}
	if target < 1 {
		target = 1
	}
	if target > total {
		target = total
	}
	if target == p.active {
		return p.active
	}

	if target < p.active {
		if increaseOnly {
			return p.active
		}
		toDeactivate := p.active - target
		for i := 0; i < toDeactivate; i++ {
			tid := p.active - 1
			if tid < 1 {
				break
			}
			w := p.workers[tid]
			if !w.queue.IsEmpty() {
				// Can't risk locking a worker mid-job; bail out of the
				// whole deactivation pass rather than leave a gap.
				return p.active
			}
			w.parkMu.Lock()
			p.active--
		}
		return p.active
	}

	toActivate := target - p.active
	for i := 0; i < toActivate; i++ {
		p.workers[p.active].parkMu.Unlock()
		p.active++
	}
	return p.active
}

// Drain blocks until every worker's queue, active or not, is empty. It is meant
// for a single caller that owns submission and wants to know that all
// previously pushed jobs have finished running before doing something
// else (reporting final counts, shutting down).
func (p *WorkerPool) Drain() {
	for _, w := range p.workers[1:] {
		if w == nil {
			continue
		}
		for !w.queue.IsEmpty() {
			// Busy-poll on the queue's own atomic load; there is no
			// separate completion signal to wait on.
		}
	}
}

// Stop cancels every worker's context and waits for them to exit,
// unparking any currently-deactivated worker first so it can observe
// the cancellation instead of blocking forever.
func (p *WorkerPool) Stop() error {
	// Active workers observe ctx.Err() on their own spin loop; only the
	// currently parked ones need an explicit unlock to wake up and exit.
	for i := p.active; i < len(p.workers); i++ {
		if w := p.workers[i]; w != nil {
			w.parkMu.Unlock()
		}
	}
	p.cancel()
	return p.group.Wait()
}
