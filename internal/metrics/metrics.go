package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/valkey-io/valkey-sub003/internal/ioqueue"
)

// KVStoreSource is the subset of kvstore.KVS[E]'s method set the
// collector reads. Declared as an interface (rather than importing the
// generic KVS type directly) so a Collector doesn't need to be
// parameterized over the element type it happens to be watching.
type KVStoreSource interface {
	Size() uint64
	Buckets() uint64
	NumNonEmptyShards() int
	NumAllocatedShards() int
	NumShards() int
	OverheadRehashingBuckets() uint64
}

// Collector is a prometheus.Collector over one KVS instance and,
// optionally, the IOQ worker pool feeding it. Values are computed fresh
// on every Collect call (a pull, not a cache), the same pattern
// ocprometheus's collector uses for live device state.
type Collector struct {
	label string
	store KVStoreSource
	pool  *ioqueue.WorkerPool

	keyCount          *prometheus.Desc
	bucketCount       *prometheus.Desc
	nonEmptyShards    *prometheus.Desc
	allocatedShards   *prometheus.Desc
	totalShards       *prometheus.Desc
	overheadRehashing *prometheus.Desc
	ioqGap            *prometheus.Desc
	ioqActiveWorkers  *prometheus.Desc
}

// NewCollector builds a Collector labeled by instance (typically a run
// UUID or shard name). pool may be nil if the caller has no IOQ worker
// pool to report on.
func NewCollector(instance string, store KVStoreSource, pool *ioqueue.WorkerPool) *Collector {
	constLabels := prometheus.Labels{"instance": instance}
	return &Collector{
		label: instance,
		store: store,
		pool:  pool,
		keyCount: prometheus.NewDesc("kvcore_key_count", "Total live elements across all shards.",
			nil, constLabels),
		bucketCount: prometheus.NewDesc("kvcore_bucket_count", "Cumulative bucket count across all shards.",
			nil, constLabels),
		nonEmptyShards: prometheus.NewDesc("kvcore_non_empty_shards", "Number of shards holding at least one element.",
			nil, constLabels),
		allocatedShards: prometheus.NewDesc("kvcore_allocated_shards", "Number of shards with a live hash table.",
			nil, constLabels),
		totalShards: prometheus.NewDesc("kvcore_total_shards", "Fixed shard count (1<<shards_bits).",
			nil, constLabels),
		overheadRehashing: prometheus.NewDesc("kvcore_overhead_rehashing_buckets",
			"Extra buckets carried by shards currently mid-rehash.", nil, constLabels),
		ioqGap: prometheus.NewDesc("kvcore_ioq_available_jobs", "Jobs currently queued for an IOQ worker.",
			[]string{"worker"}, constLabels),
		ioqActiveWorkers: prometheus.NewDesc("kvcore_ioq_active_workers", "Number of currently active IOQ workers.",
			nil, constLabels),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keyCount
	ch <- c.bucketCount
	ch <- c.nonEmptyShards
	ch <- c.allocatedShards
	ch <- c.totalShards
	ch <- c.overheadRehashing
	ch <- c.ioqGap
	ch <- c.ioqActiveWorkers
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.keyCount, prometheus.GaugeValue, float64(c.store.Size()))
	ch <- prometheus.MustNewConstMetric(c.bucketCount, prometheus.GaugeValue, float64(c.store.Buckets()))
	ch <- prometheus.MustNewConstMetric(c.nonEmptyShards, prometheus.GaugeValue, float64(c.store.NumNonEmptyShards()))
	ch <- prometheus.MustNewConstMetric(c.allocatedShards, prometheus.GaugeValue, float64(c.store.NumAllocatedShards()))
	ch <- prometheus.MustNewConstMetric(c.totalShards, prometheus.GaugeValue, float64(c.store.NumShards()))
	ch <- prometheus.MustNewConstMetric(c.overheadRehashing, prometheus.GaugeValue, float64(c.store.OverheadRehashingBuckets()))

	if c.pool == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.ioqActiveWorkers, prometheus.GaugeValue, float64(c.pool.ActiveWorkers()))
	for id := 1; id < c.pool.ActiveWorkers(); id++ {
		q := c.pool.Queue(id)
		if q == nil {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.ioqGap, prometheus.GaugeValue, float64(q.AvailableJobs()),
			strconv.Itoa(id))
	}
}

// Register registers the collector with reg. Calling code decides the
// registry (prometheus.DefaultRegisterer in a long-running server, a
// fresh prometheus.NewRegistry() in a test or one-shot CLI run).
func (c *Collector) Register(reg prometheus.Registerer) error {
	return reg.Register(c)
}
