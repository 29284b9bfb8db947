package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aristanetworks/glog"
	"github.com/google/uuid"
	atomicfile "github.com/natefinch/atomic"
	"github.com/urfave/cli/v2"

	"github.com/valkey-io/valkey-sub003/internal/hashtable"
	"github.com/valkey-io/valkey-sub003/internal/khash"
	"github.com/valkey-io/valkey-sub003/internal/kvstore"
	"github.com/valkey-io/valkey-sub003/internal/metrics"
)

// benchEntry is the element type every kvcore-bench subcommand stores
// in its KVS: a key and an equal-length value, so store.Size() and the
// byte count inserted can both be derived from the same loop without a
// separate value generator.
type benchEntry struct {
	key []byte
	val []byte
}

// newLoadCommand builds the "load" subcommand: insert --keys entries
// into a freshly built KVS, routing each key to a shard by its hash, and report how long it took
// alongside the resulting shard/rehash counters. It exists to exercise
// HT.Add/KVS.Add under a configurable shard count and resize policy,
// the same insert path a real workload would drive, without any of the
// read or scan traffic the other two subcommands add on top.
func newLoadCommand(runID uuid.UUID) *cli.Command {
	return &cli.Command{
		Name:  "load",
		Usage: "insert N keys and report rehash behavior",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "keys", Value: 100_000, Usage: "number of keys to insert"},
			&cli.IntFlag{Name: "shards-bits", Usage: "override tunables' shards_bits"},
			&cli.BoolFlag{Name: "allocate-on-demand", Usage: "override tunables' allocate_on_demand"},
			metricsAddrFlag,
		},
		Action: func(c *cli.Context) error {
			tun, err := baseTunables(c)
			if err != nil {
				return err
			}
			if c.IsSet("shards-bits") {
				tun.ShardsBits = c.Int("shards-bits")
			}
			if c.IsSet("allocate-on-demand") {
				tun.AllocateOnDemand = c.Bool("allocate-on-demand")
			}

			hash := khash.New(khash.NewSeed())
			typ := &hashtable.Type[benchEntry]{
				Hash:          hash,
				KeyCompare:    bytes.Equal,
				ElementGetKey: func(e benchEntry) []byte { return e.key },
			}
			flags := kvstore.Flags(0)
			if tun.AllocateOnDemand {
				flags |= kvstore.AllocateOnDemand
			}
			store := kvstore.New(typ, tun.ShardsBits, flags)

			col := metrics.NewCollector(runID.String(), store, nil)
			stop := serveMetrics(c, col)
			defer stop()

			n := c.Int("keys")
			start := time.Now()
			for i := 0; i < n; i++ {
				key := []byte(fmt.Sprintf("key-%09d", i))
				idx := int(hash(key) % uint64(store.NumShards()))
				store.Add(idx, benchEntry{key: key, val: key})
			}
			elapsed := time.Since(start)

			glog.Infof("load: inserted %d keys across %d shards in %s", n, store.NumShards(), elapsed)

			summary := fmt.Sprintf(
				"run=%s keys=%d shards=%d non_empty_shards=%d bucket_count=%d overhead_rehashing=%d elapsed=%s\n",
				runID, n, store.NumShards(), store.NumNonEmptyShards(), store.Buckets(),
				store.OverheadRehashingBuckets(), elapsed,
			)

			path := filepath.Join(statsDir(c), fmt.Sprintf("kvcore-bench-load-%s.txt", runID))
			return atomicfile.WriteFile(path, strings.NewReader(summary))
		},
	}
}
