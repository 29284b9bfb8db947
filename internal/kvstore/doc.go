// Package kvstore implements KVS: an array of up to 2^16 hashtable.HT
// shards, addressed by shard index, with a Fenwick (binary indexed) tree
// over per-shard live-key counts for O(log num_shards) "which shard
// holds the k-th key" lookups, a cross-shard cursor that packs the
// shard index into a scan cursor's low bits, a list of shards currently
// mid-rehash for round-robin incremental work, and on-demand shard
// allocation/release.
package kvstore
