package hashtable

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-sub003/internal/khash"
)

type testElem struct {
	key []byte
	val int
}

func newTestType() *Type[testElem] {
	hash := khash.New(khash.NewSeed())
	return &Type[testElem]{
		Hash:          hash,
		KeyCompare:    bytes.Equal,
		ElementGetKey: func(e testElem) []byte { return e.key },
	}
}

func keyFor(i int) []byte { return []byte(fmt.Sprintf("key-%06d", i)) }

func TestAddFindDeleteRoundTrip(t *testing.T) {
	h := New(newTestType())
	require.Equal(t, 0, h.Len())

	for i := 0; i < 50; i++ {
		require.True(t, h.Add(testElem{key: keyFor(i), val: i}))
	}
	require.Equal(t, 50, h.Len())

	for i := 0; i < 50; i++ {
		got, ok := h.Find(keyFor(i))
		require.True(t, ok)
		require.Equal(t, i, got.val)
	}

	require.False(t, h.Add(testElem{key: keyFor(0), val: 999}), "duplicate key must not be added")

	for i := 0; i < 25; i++ {
		require.True(t, h.Delete(keyFor(i)))
	}
	require.Equal(t, 25, h.Len())
	for i := 0; i < 25; i++ {
		_, ok := h.Find(keyFor(i))
		require.False(t, ok)
	}
	for i := 25; i < 50; i++ {
		_, ok := h.Find(keyFor(i))
		require.True(t, ok)
	}
}

func TestReplaceOverwritesAndReportsWhichHappened(t *testing.T) {
	h := New(newTestType())
	require.True(t, h.Replace(testElem{key: keyFor(1), val: 1}), "first write is a fresh insert")
	require.False(t, h.Replace(testElem{key: keyFor(1), val: 2}), "second write overwrites")

	got, ok := h.Find(keyFor(1))
	require.True(t, ok)
	require.Equal(t, 2, got.val)
	require.Equal(t, 1, h.Len())
}

func TestAddOrFindReturnsExistingWithoutModifying(t *testing.T) {
	h := New(newTestType())
	h.Add(testElem{key: keyFor(1), val: 1})

	existing, added := h.AddOrFind(testElem{key: keyFor(1), val: 2})
	require.False(t, added)
	require.Equal(t, 1, existing.val)

	got, _ := h.Find(keyFor(1))
	require.Equal(t, 1, got.val, "AddOrFind must not overwrite an existing element")
}

func TestTwoPhasePopMatchesFindThenDelete(t *testing.T) {
	h := New(newTestType())
	for i := 0; i < 20; i++ {
		h.Add(testElem{key: keyFor(i), val: i})
	}

	elem, pos, ok := h.TwoPhasePopFindRef(keyFor(7))
	require.True(t, ok)
	require.Equal(t, 7, elem.val)

	// The table is still internally consistent for lookups of other keys
	// while a two-phase pop is outstanding.
	other, ok := h.Find(keyFor(8))
	require.True(t, ok)
	require.Equal(t, 8, other.val)

	h.TwoPhasePopDelete(pos)
	require.Equal(t, 19, h.Len())
	_, ok = h.Find(keyFor(7))
	require.False(t, ok)
}

func TestFindPositionForInsertTwoPhaseInsert(t *testing.T) {
	h := New(newTestType())
	h.Add(testElem{key: keyFor(1), val: 1})

	existing, _, ok := h.FindPositionForInsert(keyFor(1))
	require.False(t, ok)
	require.Equal(t, 1, existing.val)

	_, ip, ok := h.FindPositionForInsert(keyFor(2))
	require.True(t, ok)
	h.InsertAtPosition(testElem{key: keyFor(2), val: 2}, ip)

	got, ok := h.Find(keyFor(2))
	require.True(t, ok)
	require.Equal(t, 2, got.val)
}

// TestRehashUnderLoad is scenario 2 from the data-structure core's test
// matrix: thousands of inserts driving repeated incremental rehashes
// under the default ResizeAllow policy, interleaved with reads that
// opportunistically step the rehash, followed by bulk deletion of every
// other key. Every element must remain findable exactly until it's
// deleted.
func TestRehashUnderLoad(t *testing.T) {
	const n = 10000
	h := New(newTestType())

	for i := 0; i < n; i++ {
		require.True(t, h.Add(testElem{key: keyFor(i), val: i}))
		if i%7 == 0 {
			// Opportunistic read-side rehash stepping.
			h.Find(keyFor(i / 2))
		}
	}
	require.Equal(t, n, h.Len())

	for i := 0; i < n; i++ {
		got, ok := h.Find(keyFor(i))
		require.True(t, ok, "key %d missing after bulk insert", i)
		require.Equal(t, i, got.val)
	}

	for i := 0; i < n; i += 2 {
		require.True(t, h.Delete(keyFor(i)))
	}
	require.Equal(t, n/2, h.Len())

	for i := 0; i < n; i++ {
		_, ok := h.Find(keyFor(i))
		if i%2 == 0 {
			require.False(t, ok)
		} else {
			require.True(t, ok)
		}
	}
}

func TestScanVisitsEveryStableElementAtLeastOnce(t *testing.T) {
	const n = 500
	h := New(newTestType())
	want := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		h.Add(testElem{key: keyFor(i), val: i})
		want[string(keyFor(i))] = true
	}

	seen := make(map[string]bool, n)
	cur := uint64(0)
	for {
		cur = h.Scan(cur, 0, func(e testElem) {
			seen[string(e.key)] = true
		})
		if cur == 0 {
			break
		}
	}
	require.Equal(t, want, seen)
}

func TestScanCoversElementsAcrossAConcurrentResize(t *testing.T) {
	const n = 2000
	h := New(newTestType())
	for i := 0; i < n; i++ {
		h.Add(testElem{key: keyFor(i), val: i})
	}

	seen := make(map[string]bool, n)
	cur := uint64(0)
	steps := 0
	for {
		cur = h.Scan(cur, 0, func(e testElem) {
			seen[string(e.key)] = true
		})
		steps++
		// Force the table to resize mid-scan by adding a burst of new
		// elements between scan calls.
		if steps == 1 {
			for i := n; i < n+n; i++ {
				h.Add(testElem{key: keyFor(i), val: i})
			}
		}
		if cur == 0 {
			break
		}
	}
	for i := 0; i < n; i++ {
		require.True(t, seen[string(keyFor(i))], "key %d present for the whole scan but never emitted", i)
	}
}

func TestSampleReturnsRequestedCountOfStoredElements(t *testing.T) {
	h := New(newTestType())
	for i := 0; i < 100; i++ {
		h.Add(testElem{key: keyFor(i), val: i})
	}
	samples := h.Sample(10)
	require.Len(t, samples, 10)
	for _, s := range samples {
		_, ok := h.Find(s.key)
		require.True(t, ok)
	}
}

func TestSampleCapsAtTableSize(t *testing.T) {
	h := New(newTestType())
	for i := 0; i < 3; i++ {
		h.Add(testElem{key: keyFor(i), val: i})
	}
	require.Len(t, h.Sample(100), 3)
}

func TestRandomElementOnEmptyTable(t *testing.T) {
	h := New(newTestType())
	_, ok := h.RandomElement()
	require.False(t, ok)
	_, ok = h.FairRandomElement()
	require.False(t, ok)
}

func TestResizePolicyForbidNeverShrinks(t *testing.T) {
	h := New(newTestType())
	for i := 0; i < 2000; i++ {
		h.Add(testElem{key: keyFor(i), val: i})
	}
	require.False(t, h.IsRehashing())
	capBefore := h.tables[0].capacity()

	old := GetResizePolicy()
	defer SetResizePolicy(old)
	SetResizePolicy(ResizeForbid)

	for i := 0; i < 1999; i++ {
		h.Delete(keyFor(i))
	}
	require.Equal(t, 1, h.Len())
	require.Equal(t, capBefore, h.tables[0].capacity(), "shrink must not happen under ResizeForbid")
}

func TestSafeIteratorVisitsEveryElementExactlyOnce(t *testing.T) {
	const n = 300
	h := New(newTestType())
	want := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		h.Add(testElem{key: keyFor(i), val: i})
		want[string(keyFor(i))] = true
	}

	it := NewSafeIterator(h)
	defer it.Close()
	seen := make(map[string]bool, n)
	for it.Next() {
		e := it.Elem()
		require.False(t, seen[string(e.key)], "safe iterator must not repeat an element")
		seen[string(e.key)] = true
	}
	require.Equal(t, want, seen)
}

func TestDeletePastTombstoneRemainsFindable(t *testing.T) {
	h := New(newTestType())
	// Fill one bucket's worth plus enough neighbors to force probing
	// (ever_full) on the primary bucket, then delete from the middle of
	// the chain and confirm later entries are still reachable.
	for i := 0; i < slotsPerBucket*3; i++ {
		h.Add(testElem{key: keyFor(i), val: i})
	}
	require.True(t, h.Delete(keyFor(1)))
	for i := 0; i < slotsPerBucket*3; i++ {
		if i == 1 {
			continue
		}
		_, ok := h.Find(keyFor(i))
		require.True(t, ok, "key %d lost after deleting an unrelated probed key", i)
	}
}
