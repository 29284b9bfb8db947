// Package khash provides the keyed hash function hashtable uses by
// default: a 64-bit avalanching hash seeded per process so that bucket
// layout differs from one instance to the next and can't be predicted
// by an attacker who doesn't know the seed. Rather than hand-roll
// SipHash, it keys github.com/cespare/xxhash/v2 with the process seed,
// giving the same keyed-hash contract on top of an existing dependency.
package khash
