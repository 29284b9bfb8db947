package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aristanetworks/glog"
	"github.com/google/uuid"
	atomicfile "github.com/natefinch/atomic"
	"github.com/urfave/cli/v2"

	"github.com/valkey-io/valkey-sub003/internal/ioqueue"
	"github.com/valkey-io/valkey-sub003/internal/metrics"
)

// newIOQCommand builds the "ioq" subcommand: spin up a worker pool,
// push --jobs no-op jobs across its active workers round-robin, drain
// the pool, and report how long the whole run took.
//
// Unlike "load" and "scan", this command has no KVS of its own; it
// reports a zero-valued metrics.KVStoreSource (noopStore below) so the
// same Collector wiring can still be exercised for the pool-only case.
func newIOQCommand(runID uuid.UUID) *cli.Command {
	return &cli.Command{
		Name:  "ioq",
		Usage: "drive the single-producer/single-consumer job queue end to end",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "jobs", Value: 1_000_000, Usage: "number of jobs to push"},
			&cli.IntFlag{Name: "workers", Value: 4, Usage: "number of real worker slots (excluding the reserved slot)"},
			&cli.IntFlag{Name: "queue-capacity", Usage: "override tunables' ioq_capacity"},
			metricsAddrFlag,
		},
		Action: func(c *cli.Context) error {
			tun, err := baseTunables(c)
			if err != nil {
				return err
			}
			capacity := tun.IOQCapacity
			if c.IsSet("queue-capacity") {
				capacity = c.Int("queue-capacity")
			}

			numWorkers := c.Int("workers")
			pool := ioqueue.NewWorkerPool(numWorkers+1, capacity)
			defer func() {
				if err := pool.Stop(); err != nil {
					glog.Errorf("ioq: pool shutdown: %v", err)
				}
			}()

			pool.Rescale(numWorkers+1, 1, false)

			col := metrics.NewCollector(runID.String(), noopStore{}, pool)
			stop := serveMetrics(c, col)
			defer stop()

			var processed atomic.Uint64
			n := c.Int("jobs")
			active := pool.ActiveWorkers()

			start := time.Now()
			for i := 0; i < n; i++ {
				id := 1
				if active > 1 {
					id = 1 + i%(active-1)
				}
				q := pool.Queue(id)
				for q.IsFull() {
					// Back-pressure: a real producer would do other work or
					// block on a channel; this benchmark just spins.
				}
				q.Push(func(data any) { processed.Add(1) }, nil)
			}
			pool.Drain()
			elapsed := time.Since(start)

			glog.Infof("ioq: processed %d/%d jobs across %d active workers in %s", processed.Load(), n, active, elapsed)

			summary := fmt.Sprintf(
				"run=%s jobs=%d processed=%d active_workers=%d elapsed=%s\n",
				runID, n, processed.Load(), active, elapsed,
			)

			path := filepath.Join(statsDir(c), fmt.Sprintf("kvcore-bench-ioq-%s.txt", runID))
			return atomicfile.WriteFile(path, strings.NewReader(summary))
		},
	}
}

// noopStore satisfies metrics.KVStoreSource for the ioq command, which
// has no KVS of its own to report on.
type noopStore struct{}

func (noopStore) Size() uint64                     { return 0 }
func (noopStore) Buckets() uint64                  { return 0 }
func (noopStore) NumNonEmptyShards() int           { return 0 }
func (noopStore) NumAllocatedShards() int          { return 0 }
func (noopStore) NumShards() int                   { return 0 }
func (noopStore) OverheadRehashingBuckets() uint64 { return 0 }
