// Package config loads the process tunables that govern the in-memory
// core's shard count and shard lifecycle flags, quicklist fill and
// compression depth, and IOQ sizing.
// Defaults live in code; an optional commented JWCC (JSON with Comments)
// file overrides them, and CLI flags registered on a pflag.FlagSet take
// final precedence.
package config
