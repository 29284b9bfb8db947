package listpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertDeleteRoundTrip(t *testing.T) {
	lp := New(0)
	_, ok := lp.Append(Str([]byte("hello")))
	require.True(t, ok)
	lp.Append(Str([]byte("foo")))
	lp.Append(Str([]byte("quux")))
	lp.Append(Str([]byte("1024")))

	require.Equal(t, 4, lp.Length())

	p3 := lp.Seek(3)
	v := lp.Get(p3)
	require.True(t, v.IsInt)
	require.Equal(t, int64(1024), v.Int)

	require.True(t, lp.DeleteRange(0, 2))
	require.Equal(t, 2, lp.Length())

	first := lp.Get(lp.First())
	require.False(t, first.IsInt)
	require.Equal(t, "quux", string(first.Str))

	require.True(t, ValidateIntegrity(lp.Bytes(), len(lp.Bytes()), true, nil))
}

func TestIntegerShapedStringsStoreAsInt(t *testing.T) {
	lp := New(0)
	lp.Append(Str([]byte("42")))
	lp.Append(Str([]byte("-7")))
	lp.Append(Str([]byte("not-an-int")))

	v0 := lp.Get(lp.Seek(0))
	require.True(t, v0.IsInt)
	require.Equal(t, int64(42), v0.Int)

	v1 := lp.Get(lp.Seek(1))
	require.True(t, v1.IsInt)
	require.Equal(t, int64(-7), v1.Int)

	v2 := lp.Get(lp.Seek(2))
	require.False(t, v2.IsInt)
}

func TestParseIntegerStringRejectsNonCanonicalForms(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"0", true},
		{"-0", false},
		{"01", false},
		{"-01", false},
		{"", false},
		{"-", false},
		{"123", true},
		{"-123", true},
		{" 123", false},
		{"123 ", false},
		{"9223372036854775807", true},
		{"9223372036854775808", false},
		{"-9223372036854775808", true},
	}
	for _, c := range cases {
		_, ok := ParseIntegerString([]byte(c.in))
		require.Equal(t, c.ok, ok, "input %q", c.in)
	}
}

func TestEncodingChoosesShortestIntWidth(t *testing.T) {
	cases := []struct {
		v        int64
		wantLen  int
	}{
		{0, 1},
		{127, 1},
		{128, 2},
		{4095, 2},
		{4096, 3},
		{32767, 3},
		{32768, 4},
		{8388607, 4},
		{8388608, 5},
		{2147483647, 5},
		{2147483648, 9},
	}
	for _, c := range cases {
		require.Len(t, encodeValue(Int(c.v)), c.wantLen, "value %d", c.v)
	}
}

func TestReverseTraversalMatchesForward(t *testing.T) {
	lp := New(0)
	vals := []Value{Int(1), Str([]byte("two")), Int(3), Str([]byte("four")), Int(5)}
	for _, v := range vals {
		lp.Append(v)
	}

	var forward []Value
	for p := lp.First(); p != None; p = lp.Next(p) {
		forward = append(forward, lp.Get(p))
	}
	require.Len(t, forward, len(vals))

	var backward []Value
	for p := lp.Last(); p != None; p = lp.Prev(p) {
		backward = append(backward, lp.Get(p))
	}
	require.Len(t, backward, len(vals))
	for i := range forward {
		require.Equal(t, forward[i], backward[len(backward)-1-i])
	}
}

func TestFindWithSkip(t *testing.T) {
	lp := New(0)
	for i := 0; i < 10; i++ {
		lp.Append(Int(int64(i)))
	}
	// every other entry: 6 is the fourth entry compared (indexes 0, 2, 4, 6)
	p := lp.Find(lp.First(), Int(6), 1)
	require.NotEqual(t, None, p)
	require.Equal(t, Int(6), lp.Get(p))

	p = lp.Find(lp.First(), Int(999), 0)
	require.Equal(t, None, p)
}

func TestMerge(t *testing.T) {
	a := New(0)
	a.Append(Int(1))
	a.Append(Int(2))
	b := New(0)
	b.Append(Int(3))

	m := Merge(a, b)
	require.Equal(t, 3, m.Length())
	require.Equal(t, Int(1), m.Get(m.Seek(0)))
	require.Equal(t, Int(2), m.Get(m.Seek(1)))
	require.Equal(t, Int(3), m.Get(m.Seek(2)))
}

func TestValidateIntegrityRejectsCorruption(t *testing.T) {
	lp := New(0)
	lp.Append(Str([]byte("a")))
	lp.Append(Str([]byte("bb")))
	buf := lp.Bytes()

	require.True(t, ValidateIntegrity(buf, len(buf), true, nil))

	corrupt := make([]byte, len(buf))
	copy(corrupt, buf)
	corrupt[len(corrupt)-1] = 0x00 // clobber the EOF sentinel
	require.False(t, ValidateIntegrity(corrupt, len(corrupt), true, nil))

	corrupt2 := make([]byte, len(buf))
	copy(corrupt2, buf)
	corrupt2[0] = 0xFF // clobber total_bytes header
	require.False(t, ValidateIntegrity(corrupt2, len(corrupt2), true, nil))
}

func TestRandomPairsUniqueNeverRepeatsAndStaysInRange(t *testing.T) {
	lp := New(0)
	const n = 50
	for i := 0; i < n; i++ {
		lp.Append(Int(int64(i)))
		lp.Append(Int(int64(i * 100)))
	}

	pairs := lp.RandomPairsUnique(10, n)
	require.Len(t, pairs, 10)
	seen := map[int64]bool{}
	for _, p := range pairs {
		require.False(t, seen[p.Key.Int])
		seen[p.Key.Int] = true
		require.Equal(t, p.Key.Int*100, p.Val.Int)
	}
}

func TestBatchDelete(t *testing.T) {
	lp := New(0)
	for i := 0; i < 5; i++ {
		lp.Append(Int(int64(i)))
	}
	positions := []Pos{lp.Seek(1), lp.Seek(3)}
	require.True(t, lp.BatchDelete(positions))
	require.Equal(t, 3, lp.Length())

	var got []int64
	for p := lp.First(); p != None; p = lp.Next(p) {
		got = append(got, lp.Get(p).Int)
	}
	require.Equal(t, []int64{0, 2, 4}, got)
}
