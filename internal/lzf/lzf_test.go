package lzf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	src := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog ", 20))
	c, ok := Compress(src)
	require.True(t, ok)
	require.Less(t, len(c.Data), len(src))

	out, err := Decompress(c)
	require.NoError(t, err)
	require.True(t, bytes.Equal(src, out))
}

func TestCompressSkipsSmallBuffers(t *testing.T) {
	_, ok := Compress([]byte("short"))
	require.False(t, ok)
}

func TestCompressSkipsIncompressibleData(t *testing.T) {
	// All 72 bytes differ, so s2 finds no match and its literal-only
	// output (length header, literal tag, 72 bytes) is longer than src.
	src := []byte("abcdefghijklmnopqrstuvwxyz0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ!@#$%^&*()")
	_, ok := Compress(src)
	require.False(t, ok)
}
