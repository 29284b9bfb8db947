package lzf

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

// MinCompressLen is the smallest entry buffer s2 is attempted on. Below
// this, framing overhead tends to dominate any savings; quicklist records
// the skip in its node's attemptedCompress flag.
const MinCompressLen = 48

// Compressed holds a node's entry buffer once compressed: the codec
// output plus the original length compression needs to allocate the
// right-sized destination buffer on the way back out.
type Compressed struct {
	Data    []byte
	OrigLen int
}

// Compress attempts to shrink src.
//
// Returns (nil, false) when src is below MinCompressLen or the codec
// output would not end up smaller than src. A node's caller treats
// either outcome the same way: it leaves the entry buffer uncompressed
// and records that the attempt was skipped.
func Compress(src []byte) (*Compressed, bool) {
	if len(src) < MinCompressLen {
		return nil, false
	}
	dst := s2.Encode(make([]byte, s2.MaxEncodedLen(len(src))), src)
	if len(dst) >= len(src) {
		return nil, false
	}
	return &Compressed{Data: dst, OrigLen: len(src)}, true
}

// Decompress restores the original bytes from a Compressed payload.
func Decompress(c *Compressed) ([]byte, error) {
	dst := make([]byte, 0, c.OrigLen)
	out, err := s2.Decode(dst, c.Data)
	if err != nil {
		return nil, fmt.Errorf("lzf: decompress: %w", err)
	}
	if len(out) != c.OrigLen {
		return nil, fmt.Errorf("lzf: decompressed length %d, want %d", len(out), c.OrigLen)
	}
	return out, nil
}
