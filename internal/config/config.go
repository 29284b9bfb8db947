package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/tailscale/hujson"
)

// Tunables are the process-level knobs this core exposes, named after
// the same vocabulary the data-structure operations use.
type Tunables struct {
	// ShardsBits sets num_shards = 1<<ShardsBits for a KVS (≤ 16).
	ShardsBits int `json:"shards_bits"`
	// AllocateOnDemand creates a KVS shard lazily on its first write.
	AllocateOnDemand bool `json:"allocate_on_demand"`
	// FreeEmpty releases a shard's hash table once it drains to zero.
	FreeEmpty bool `json:"free_empty"`

	// Fill bounds a quicklist node: non-negative is an entry-count cap,
	// negative selects a byte-size cap from the -1..-5 table.
	Fill int `json:"fill"`
	// Compress is the quicklist's uncompressed hot-window depth; 0
	// disables compression entirely.
	Compress int `json:"compress"`

	// IOQCapacity is the ring size of each IOQ worker's queue.
	IOQCapacity int `json:"ioq_capacity"`
	// IOQWorkers is the maximum number of IOQ workers the pool can
	// scale up to (including the reserved main slot).
	IOQWorkers int `json:"ioq_workers"`
	// EventsPerWorker feeds WorkerPool.Rescale's target formula; 0
	// offloads every event to its own worker.
	EventsPerWorker int `json:"events_per_worker"`
}

// Default returns the tunables a fresh process starts with absent any
// config file or CLI override.
func Default() Tunables {
	return Tunables{
		ShardsBits:       0,
		AllocateOnDemand: false,
		FreeEmpty:        false,
		Fill:             128,
		Compress:         0,
		IOQCapacity:      2048,
		IOQWorkers:       1,
		EventsPerWorker:  0,
	}
}

var (
	errShardsBitsRange = errors.New("shards_bits must be between 0 and 16")
	errIOQCapacity     = errors.New("ioq_capacity must be positive")
	errIOQWorkers      = errors.New("ioq_workers must be at least 1")
)

func (t Tunables) validate() error {
	if t.ShardsBits < 0 || t.ShardsBits > 16 {
		return fmt.Errorf("%w: got %d", errShardsBitsRange, t.ShardsBits)
	}
	if t.IOQCapacity <= 0 {
		return fmt.Errorf("%w: got %d", errIOQCapacity, t.IOQCapacity)
	}
	if t.IOQWorkers < 1 {
		return fmt.Errorf("%w: got %d", errIOQWorkers, t.IOQWorkers)
	}
	return nil
}

// LoadFile reads a JWCC (JSON with comments and trailing commas) config
// file and overlays it onto base. A missing file is not an error: base
// is returned unchanged.
func LoadFile(path string, base Tunables) (Tunables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return Tunables{}, fmt.Errorf("reading %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Tunables{}, fmt.Errorf("invalid JWCC in %s: %w", path, err)
	}

	cfg := base
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Tunables{}, fmt.Errorf("invalid config in %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Tunables{}, err
	}
	return cfg, nil
}

// RegisterFlags binds fs's flags to t's fields, so CLI overrides apply
// last after Default and LoadFile. Call fs.Parse after this, then read
// t's fields back.
func RegisterFlags(fs *flag.FlagSet, t *Tunables) {
	fs.IntVar(&t.ShardsBits, "shards-bits", t.ShardsBits, "log2 of the KVS shard count (0-16)")
	fs.BoolVar(&t.AllocateOnDemand, "allocate-on-demand", t.AllocateOnDemand, "create KVS shards lazily on first write")
	fs.BoolVar(&t.FreeEmpty, "free-empty", t.FreeEmpty, "release a KVS shard once it drains to zero")
	fs.IntVar(&t.Fill, "fill", t.Fill, "quicklist node fill: >=0 entry cap, <0 selects the byte-size table")
	fs.IntVar(&t.Compress, "compress", t.Compress, "quicklist uncompressed hot-window depth (0 disables)")
	fs.IntVar(&t.IOQCapacity, "ioq-capacity", t.IOQCapacity, "ring size of each IOQ worker's queue")
	fs.IntVar(&t.IOQWorkers, "ioq-workers", t.IOQWorkers, "maximum number of IOQ workers")
	fs.IntVar(&t.EventsPerWorker, "events-per-worker", t.EventsPerWorker, "events per IOQ worker (0 offloads every event)")
}

// Validate exposes the same validation LoadFile applies, for callers
// that build a Tunables purely from flags.
func Validate(t Tunables) error { return t.validate() }
