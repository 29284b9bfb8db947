package metrics

import (
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	size, buckets, overhead         uint64
	nonEmpty, allocated, totalShard int
}

func (f fakeStore) Size() uint64                    { return f.size }
func (f fakeStore) Buckets() uint64                 { return f.buckets }
func (f fakeStore) NumNonEmptyShards() int          { return f.nonEmpty }
func (f fakeStore) NumAllocatedShards() int         { return f.allocated }
func (f fakeStore) NumShards() int                  { return f.totalShard }
func (f fakeStore) OverheadRehashingBuckets() uint64 { return f.overhead }

func TestCollectorReportsStoreGauges(t *testing.T) {
	store := fakeStore{size: 42, buckets: 64, nonEmpty: 3, allocated: 4, totalShard: 8, overhead: 7}
	c := NewCollector("test-run", store, nil)

	require.NoError(t, testutil.CollectAndCompare(c, gaugeText("kvcore_key_count", "Total live elements across all shards.", 42), "kvcore_key_count"))
	require.NoError(t, testutil.CollectAndCompare(c, gaugeText("kvcore_bucket_count", "Cumulative bucket count across all shards.", 64), "kvcore_bucket_count"))
	require.NoError(t, testutil.CollectAndCompare(c, gaugeText("kvcore_non_empty_shards", "Number of shards holding at least one element.", 3), "kvcore_non_empty_shards"))
	require.NoError(t, testutil.CollectAndCompare(c, gaugeText("kvcore_allocated_shards", "Number of shards with a live hash table.", 4), "kvcore_allocated_shards"))
	require.NoError(t, testutil.CollectAndCompare(c, gaugeText("kvcore_total_shards", "Fixed shard count (1<<shards_bits).", 8), "kvcore_total_shards"))
	require.NoError(t, testutil.CollectAndCompare(c, gaugeText("kvcore_overhead_rehashing_buckets", "Extra buckets carried by shards currently mid-rehash.", 7), "kvcore_overhead_rehashing_buckets"))
}

// gaugeText renders one sample of the "test-run" collector in the text
// exposition format that testutil.CollectAndCompare parses.
func gaugeText(name, help string, v int) *strings.Reader {
	return strings.NewReader(fmt.Sprintf("# HELP %s %s\n# TYPE %s gauge\n%s{instance=\"test-run\"} %d\n",
		name, help, name, name, v))
}

func TestRegisterRejectsDuplicateRegistration(t *testing.T) {
	c := NewCollector("dup", fakeStore{}, nil)
	reg := prometheus.NewRegistry()
	require.NoError(t, c.Register(reg))
	require.Error(t, c.Register(reg))
}
