package config

import (
	"os"
	"path/filepath"
	"testing"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadFileOverlaysJWCCOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kvcore.jwcc")
	require.NoError(t, os.WriteFile(path, []byte(`{
  // shard count: 256 shards
  "shards_bits": 8,
  "free_empty": true, // trailing comma below is allowed by JWCC
}`), 0o644))

	got, err := LoadFile(path, Default())
	require.NoError(t, err)
	require.Equal(t, 8, got.ShardsBits)
	require.True(t, got.FreeEmpty)
	require.Equal(t, Default().Fill, got.Fill, "fields absent from the file keep the base value")
}

func TestLoadFileMissingReturnsBaseUnchanged(t *testing.T) {
	got, err := LoadFile(filepath.Join(t.TempDir(), "absent.jwcc"), Default())
	require.NoError(t, err)
	require.Equal(t, Default(), got)
}

func TestLoadFileRejectsOutOfRangeShardsBits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.jwcc")
	require.NoError(t, os.WriteFile(path, []byte(`{"shards_bits": 99}`), 0o644))

	_, err := LoadFile(path, Default())
	require.Error(t, err)
}

func TestRegisterFlagsOverridesBeatFileDefaults(t *testing.T) {
	tun := Default()
	fs := flag.NewFlagSet("kvcore-bench", flag.ContinueOnError)
	RegisterFlags(fs, &tun)

	require.NoError(t, fs.Parse([]string{"--shards-bits=4", "--allocate-on-demand"}))
	require.Equal(t, 4, tun.ShardsBits)
	require.True(t, tun.AllocateOnDemand)
	require.Equal(t, Default().Fill, tun.Fill, "unset flags keep their default")
}

func TestValidateCatchesNonPositiveIOQCapacity(t *testing.T) {
	tun := Default()
	tun.IOQCapacity = 0
	require.Error(t, Validate(tun))
}
