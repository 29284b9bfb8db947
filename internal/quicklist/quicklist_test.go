package quicklist

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valkey-io/valkey-sub003/internal/listpack"
)

func TestPushPopRoundTrip(t *testing.T) {
	q := New(128, 0)
	for i := 0; i < 100; i++ {
		q.PushTail(listpack.Int(int64(i)), 8)
	}
	require.Equal(t, 100, q.Len())

	for i := 0; i < 100; i++ {
		v, ok := q.Pop(Head)
		require.True(t, ok)
		require.Equal(t, int64(i), v.Int)
	}
	_, ok := q.Pop(Head)
	require.False(t, ok)
}

func TestCompressBoundaryKeepsHeadAndTailRaw(t *testing.T) {
	q := New(4, 1) // small fill forces many nodes; compress depth 1
	for i := 0; i < 200; i++ {
		q.PushTail(listpack.Str([]byte(fmt.Sprintf("value-%03d", i))), 9)
	}
	require.Greater(t, q.NumNodes(), 2)

	require.False(t, q.head.isCompressed())
	require.False(t, q.tail.isCompressed())

	interior := 0
	compressedInterior := 0
	for n := q.head.next; n != q.tail; n = n.next {
		interior++
		if n.isCompressed() {
			compressedInterior++
		}
	}
	require.Greater(t, interior, 0)
	require.Equal(t, interior, compressedInterior, "every interior node should be compressed")
}

func TestPopDecompressesOnDemand(t *testing.T) {
	q := New(4, 1)
	for i := 0; i < 50; i++ {
		q.PushTail(listpack.Str([]byte(fmt.Sprintf("payload-%03d-xxxxxxxxxxxxxxxxxxxxxxxxxxxxx", i))), 40)
	}
	before := q.Len()
	v, ok := q.Pop(Head)
	require.True(t, ok)
	require.Equal(t, "payload-000-xxxxxxxxxxxxxxxxxxxxxxxxxxxxx", string(v.Str))
	require.Equal(t, before-1, q.Len())
}

func TestRotateMovesTailToHead(t *testing.T) {
	q := New(128, 0)
	q.PushTail(listpack.Int(1), 8)
	q.PushTail(listpack.Int(2), 8)
	q.PushTail(listpack.Int(3), 8)

	q.Rotate()

	v, _ := q.Pop(Head)
	require.Equal(t, int64(3), v.Int)
}

func TestIteratorDeleteContinuesCoherently(t *testing.T) {
	q := New(4, 0)
	for i := 0; i < 20; i++ {
		q.PushTail(listpack.Int(int64(i)), 8)
	}

	it := q.GetIterator(true)
	var kept []int64
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		if v.Int%2 == 0 {
			it.deleteCurrentAndAdvance()
			continue
		}
		kept = append(kept, v.Int)
	}

	require.Equal(t, 10, q.Len())
	require.Len(t, kept, 10)
	for _, v := range kept {
		require.Equal(t, int64(1), v%2)
	}
}

func TestBookmarks(t *testing.T) {
	q := New(4, 0)
	for i := 0; i < 30; i++ {
		q.PushTail(listpack.Int(int64(i)), 8)
	}
	require.True(t, q.BookmarkCreate("mark", 10))
	idx, ok := q.BookmarkFind("mark")
	require.True(t, ok)
	// fill 4 puts index 10 in the node holding indexes 8..11, and
	// BookmarkFind reports that node's first index.
	require.Equal(t, 8, idx)

	q.BookmarkClear()
	_, ok = q.BookmarkFind("mark")
	require.False(t, ok)
}

func TestPlainNodeForOversizedValue(t *testing.T) {
	q := New(-1, 0) // 4 KiB packed byte cap
	big := make([]byte, 5000)
	for i := range big {
		big[i] = byte('a' + i%26)
	}
	q.PushTail(listpack.Str(big), len(big))
	require.Equal(t, 1, q.NumNodes())
	require.Equal(t, containerPlain, q.tail.kind)

	v, ok := q.Pop(Tail)
	require.True(t, ok)
	require.Equal(t, big, v.Str)
}
