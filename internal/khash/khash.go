package khash

import (
	"crypto/rand"

	"github.com/cespare/xxhash/v2"
)

// Seed is the 16-byte keying material a Func is built from. Two Funcs
// built from the same Seed always agree; this is what lets every shard
// of a KVS share one hash function without re-deriving it per shard.
type Seed [16]byte

// NewSeed draws a random Seed from the system's entropy source. Callers
// generate one of these per process at startup and treat it as
// read-only afterward: reseeding mid-run would scatter keys across
// different buckets than the ones they were originally hashed into.
func NewSeed() Seed {
	var s Seed
	if _, err := rand.Read(s[:]); err != nil {
		// crypto/rand.Read on a supported platform does not fail; if the
		// platform's entropy source is unavailable there is nothing a
		// fallback seed would buy us, so surface the failure loudly.
		panic("khash: crypto/rand unavailable: " + err.Error())
	}
	return s
}

// Func is the hashtable.Type.Hash signature: a keyed hash over a key's
// byte representation.
type Func func(key []byte) uint64

// New returns the default keyed hash function for a given seed. Two Funcs
// built from the same seed agree on every key; Funcs built from different
// seeds are not expected to agree on anything, including bucket layout.
func New(seed Seed) Func {
	return func(key []byte) uint64 {
		d := xxhash.New()
		d.Write(seed[:])
		d.Write(key)
		return d.Sum64()
	}
}
