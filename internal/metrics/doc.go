// Package metrics exposes Prometheus collectors over the live internals
// of a hashtable.HT, a kvstore.KVS, and an ioqueue.WorkerPool: key and
// bucket counts, non-empty shard counts, rehashing overhead, and the
// IOQ producer/consumer cursor gap.
//
// Nothing here registers with prometheus.DefaultRegisterer at import
// time. A Collector is a plain value until the embedding binary calls
// Register on a prometheus.Registerer of its choosing.
package metrics
