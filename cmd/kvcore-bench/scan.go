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

// newScanCommand builds the "scan" subcommand: load --keys entries the
// same way "load" does, then drive KVS.Scan with cursor 0 repeatedly
// until it returns to 0, tallying which of the loaded keys were
// actually observed along the way.
//
// This exists to exercise Scan's full-coverage guarantee under
// concurrent mutation-free conditions: every key present for the whole
// scan should be seen at least once, so a nonzero "missed" count in the
// reported summary points at a coverage bug rather than an expected
// miss (nothing is inserted or deleted mid-scan here).
func newScanCommand(runID uuid.UUID) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "load N keys, then drive a full cursor scan and report coverage",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "keys", Value: 100_000, Usage: "number of keys to load before scanning"},
			&cli.IntFlag{Name: "shards-bits", Usage: "override tunables' shards_bits"},
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

			hash := khash.New(khash.NewSeed())
			typ := &hashtable.Type[benchEntry]{
				Hash:          hash,
				KeyCompare:    bytes.Equal,
				ElementGetKey: func(e benchEntry) []byte { return e.key },
			}
			store := kvstore.New(typ, tun.ShardsBits, kvstore.Flags(0))

			col := metrics.NewCollector(runID.String(), store, nil)
			stop := serveMetrics(c, col)
			defer stop()

			n := c.Int("keys")
			keys := make(map[string]bool, n)
			for i := 0; i < n; i++ {
				key := []byte(fmt.Sprintf("key-%09d", i))
				idx := int(hash(key) % uint64(store.NumShards()))
				store.Add(idx, benchEntry{key: key, val: key})
				keys[string(key)] = false
			}

			// Cursor 0 both starts and ends a scan; the loop always runs
			// at least once and stops the first time Scan hands back 0
			// again, per its documented iteration contract.
			start := time.Now()
			var cur uint64
			var passes int
			seen := 0
			for {
				cur = store.Scan(cur, -1, nil, 0, func(e benchEntry) {
					k := string(e.key)
					if _, ok := keys[k]; ok && !keys[k] {
						keys[k] = true
						seen++
					}
				})
				passes++
				if cur == 0 {
					break
				}
			}
			elapsed := time.Since(start)

			missed := 0
			for _, v := range keys {
				if !v {
					missed++
				}
			}

			glog.Infof("scan: covered %d/%d keys in %d Scan calls, %s", seen, n, passes, elapsed)

			summary := fmt.Sprintf(
				"run=%s keys=%d seen=%d missed=%d scan_calls=%d elapsed=%s\n",
				runID, n, seen, missed, passes, elapsed,
			)

			path := filepath.Join(statsDir(c), fmt.Sprintf("kvcore-bench-scan-%s.txt", runID))
			return atomicfile.WriteFile(path, strings.NewReader(summary))
		},
	}
}
