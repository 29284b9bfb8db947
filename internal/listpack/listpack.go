package listpack

import (
	"bytes"
	"encoding/binary"
	"math/rand"
)

const (
	headerSize  = 6 // total_bytes(4) + num_elements(2)
	numEleUnknown = 0xFFFF
	maxBytes    = 1<<32 - 1
)

// Pos is a byte offset into a listpack's backing buffer. It is only
// valid until the next mutating call; see the package doc for the
// aliasing contract.
type Pos = int

// None is the sentinel Pos returned in place of an entry that does not
// exist (walked off either end, or a failed Find).
const None Pos = -1

// LP is a single contiguous byte buffer holding a self-describing
// sequence of entries, each tagged with a forward-readable encoding
// and a reverse-readable length so the buffer can be walked in either
// direction without an external index.
type LP struct {
	buf []byte
}

// New creates an empty listpack.
//
// capacity pre-sizes the backing buffer in bytes to avoid an early
// reallocation when the caller already has a rough idea how large the
// listpack will grow; it is a hint only, not a hard cap (the buffer
// still grows past it on demand).
func New(capacity int) *LP {
	c := capacity
	if c < headerSize+1 {
		c = headerSize + 1
	}
	buf := make([]byte, headerSize+1, c)
	buf[headerSize] = encodingEOF
	binary.LittleEndian.PutUint32(buf[0:4], uint32(headerSize+1))
	binary.LittleEndian.PutUint16(buf[4:6], 0)
	return &LP{buf: buf}
}

// FromBytes wraps an existing, already-validated listpack buffer without
// copying it. Callers that did not themselves produce buf must validate it
// first with ValidateIntegrity.
func FromBytes(buf []byte) *LP { return &LP{buf: buf} }

// Bytes returns the listpack's backing buffer directly, with no copy.
// The layout is durable: a caller may write it verbatim to disk or over
// the wire and later reconstruct an equivalent LP via FromBytes, after
// confirming it with ValidateIntegrity if the bytes came from outside
// the process.
func (l *LP) Bytes() []byte { return l.buf }

// Dup returns an independent copy of l.
func (l *LP) Dup() *LP {
	nb := make([]byte, len(l.buf))
	copy(nb, l.buf)
	return &LP{buf: nb}
}

// ShrinkToFit drops any excess backing-array capacity. Growing edits
// allocate exactly the new length, but shrinking edits (Delete,
// DeleteRange, a Replace with a shorter value) reslice the buffer in
// place and keep its old capacity, and New keeps whatever extra
// capacity its hint asked for; in those cases ShrinkToFit copies the
// entries into a buffer of exact length.
func (l *LP) ShrinkToFit() {
	if cap(l.buf) > len(l.buf) {
		nb := make([]byte, len(l.buf))
		copy(nb, l.buf)
		l.buf = nb
	}
}

func (l *LP) totalBytes() uint32    { return binary.LittleEndian.Uint32(l.buf[0:4]) }
func (l *LP) rawNumElements() uint16 { return binary.LittleEndian.Uint16(l.buf[4:6]) }
func (l *LP) setNumElements(v uint16) {
	binary.LittleEndian.PutUint16(l.buf[4:6], v)
}

func (l *LP) bumpCount(delta int) {
	n := l.rawNumElements()
	if n == numEleUnknown {
		return
	}
	nn := int(n) + delta
	if nn < 0 {
		nn = 0
	}
	if nn >= numEleUnknown {
		l.setNumElements(numEleUnknown)
		return
	}
	l.setNumElements(uint16(nn))
}

// Length returns the number of entries.
//
// The header tracks an exact count in a 16-bit field up to 65534
// entries; past that it switches to a sentinel meaning "too many to
// track inline," and Length falls back to a full forward scan to
// count them. Callers on a hot path with large listpacks should avoid
// relying on Length and instead track counts themselves where possible.
func (l *LP) Length() int {
	if n := l.rawNumElements(); n != numEleUnknown {
		return int(n)
	}
	count := 0
	for p := l.First(); p != None; p = l.Next(p) {
		count++
	}
	return count
}

// First returns the position of the first entry, or None if l is empty.
func (l *LP) First() Pos {
	if l.buf[headerSize] == encodingEOF {
		return None
	}
	return headerSize
}

// Last returns the position of the last entry, or None if l is empty.
func (l *LP) Last() Pos {
	eof := len(l.buf) - 1
	if eof == headerSize {
		return None
	}
	return l.Prev(eof)
}

// Next returns the entry following p, or None if p was the last entry.
func (l *LP) Next(p Pos) Pos {
	if p < 0 {
		return None
	}
	_, _, _, encLen := decode(l.buf, p)
	np := p + encLen + backlenSize(uint64(encLen))
	if l.buf[np] == encodingEOF {
		return None
	}
	return np
}

// Prev returns the entry preceding p (p may be an entry position or the
// EOF sentinel's offset, which is how Last is implemented), or None if p
// was the first entry.
func (l *LP) Prev(p Pos) Pos {
	if p <= headerSize {
		return None
	}
	lval, nbytes := readBacklenReverse(l.buf, p-1)
	return p - nbytes - int(lval)
}

// Seek returns the position of the entry at index, counting from the tail
// when index is negative (Seek(-1) == Last()).
func (l *LP) Seek(index int) Pos {
	if index >= 0 {
		p := l.First()
		for i := 0; i < index && p != None; i++ {
			p = l.Next(p)
		}
		return p
	}
	p := l.Last()
	for i := -1; i > index && p != None; i-- {
		p = l.Prev(p)
	}
	return p
}

// Get decodes the entry at p.
func (l *LP) Get(p Pos) Value {
	kind, ival, sval, _ := decode(l.buf, p)
	if kind == KindInt {
		return Int(ival)
	}
	return Str(sval)
}

// entryTotalLen is the byte span of the entry at p, encoding+payload plus
// its backlen.
func (l *LP) entryTotalLen(p Pos) int {
	_, _, _, encLen := decode(l.buf, p)
	return encLen + backlenSize(uint64(encLen))
}

// splice removes removeLen bytes at pos and writes insert in their
// place, growing the backing buffer before shifting when the result is
// larger and shrinking after shifting when it is smaller, so only one
// allocation ever happens per call. It reports false if the resulting
// buffer would exceed the 2^32-1 byte total-size cap, leaving l
// unmodified in that case.
func (l *LP) splice(pos, removeLen int, insert []byte) bool {
	oldTotal := len(l.buf)
	newTotal := oldTotal - removeLen + len(insert)
	if newTotal > maxBytes {
		return false
	}
	if newTotal > oldTotal {
		nb := make([]byte, newTotal)
		copy(nb, l.buf[:pos])
		copy(nb[pos:], insert)
		copy(nb[pos+len(insert):], l.buf[pos+removeLen:])
		l.buf = nb
	} else {
		copy(l.buf[pos+len(insert):newTotal], l.buf[pos+removeLen:oldTotal])
		copy(l.buf[pos:pos+len(insert)], insert)
		l.buf = l.buf[:newTotal]
	}
	binary.LittleEndian.PutUint32(l.buf[0:4], uint32(newTotal))
	return true
}

func encodedEntry(v Value) []byte {
	enc := encodeValue(v)
	return append(enc, writeBacklen(uint64(len(enc)))...)
}

// Append adds v after the last entry. It reports false only when doing
// so would push the buffer past the 2^32-1 byte total-size cap.
func (l *LP) Append(v Value) (Pos, bool) {
	pos := len(l.buf) - 1
	insert := encodedEntry(v)
	if !l.splice(pos, 0, insert) {
		return None, false
	}
	l.bumpCount(1)
	return pos, true
}

// Prepend adds v before the first entry.
func (l *LP) Prepend(v Value) (Pos, bool) {
	pos := headerSize
	insert := encodedEntry(v)
	if !l.splice(pos, 0, insert) {
		return None, false
	}
	l.bumpCount(1)
	return pos, true
}

// InsertBefore adds v immediately before the entry at p.
func (l *LP) InsertBefore(p Pos, v Value) (Pos, bool) {
	insert := encodedEntry(v)
	if !l.splice(p, 0, insert) {
		return None, false
	}
	l.bumpCount(1)
	return p, true
}

// InsertAfter adds v immediately after the entry at p.
func (l *LP) InsertAfter(p Pos, v Value) (Pos, bool) {
	next := l.Next(p)
	if next == None {
		next = len(l.buf) - 1
	}
	insert := encodedEntry(v)
	if !l.splice(next, 0, insert) {
		return None, false
	}
	l.bumpCount(1)
	return next, true
}

// Replace overwrites the entry at p with v in place.
func (l *LP) Replace(p Pos, v Value) (Pos, bool) {
	oldLen := l.entryTotalLen(p)
	insert := encodedEntry(v)
	if !l.splice(p, oldLen, insert) {
		return None, false
	}
	return p, true
}

// Delete removes the entry at p.
func (l *LP) Delete(p Pos) bool {
	oldLen := l.entryTotalLen(p)
	if !l.splice(p, oldLen, nil) {
		return false
	}
	l.bumpCount(-1)
	return true
}

// DeleteRange removes up to n entries starting at index.
func (l *LP) DeleteRange(index, n int) bool {
	if n <= 0 {
		return true
	}
	start := l.Seek(index)
	if start == None {
		return true
	}
	end := start
	removed := 0
	for removed < n {
		next := l.Next(end)
		removed++
		if next == None {
			end = len(l.buf) - 1 // EOF offset: delete through buffer end.
			break
		}
		end = next
	}
	if !l.splice(start, end-start, nil) {
		return false
	}
	l.bumpCount(-removed)
	return true
}

// BatchDelete removes the entries at the given positions, which must be
// sorted ascending. Deletion proceeds back-to-front so that removing a
// later entry never invalidates an earlier position still pending
// deletion.
func (l *LP) BatchDelete(sortedPositions []Pos) bool {
	for i := len(sortedPositions) - 1; i >= 0; i-- {
		if !l.Delete(sortedPositions[i]) {
			return false
		}
	}
	return true
}

// Merge concatenates a's entries followed by b's into a new listpack,
// leaving both inputs untouched.
func Merge(a, b *LP) *LP {
	aBody := a.buf[headerSize : len(a.buf)-1]
	bBody := b.buf[headerSize : len(b.buf)-1]
	total := headerSize + len(aBody) + len(bBody) + 1
	buf := make([]byte, total)
	copy(buf[headerSize:], aBody)
	copy(buf[headerSize+len(aBody):], bBody)
	buf[total-1] = encodingEOF
	binary.LittleEndian.PutUint32(buf[0:4], uint32(total))
	binary.LittleEndian.PutUint16(buf[4:6], combinedCount(a.rawNumElements(), b.rawNumElements()))
	return &LP{buf: buf}
}

func combinedCount(a, b uint16) uint16 {
	if a == numEleUnknown || b == numEleUnknown {
		return numEleUnknown
	}
	sum := int(a) + int(b)
	if sum >= numEleUnknown {
		return numEleUnknown
	}
	return uint16(sum)
}

// Find walks forward from p looking for an entry equal to key.
//
// skip controls how many candidates are skipped between comparisons:
// 0 compares every entry, 1 compares every other entry (useful when the
// listpack stores alternating key/value pairs and only keys should be
// tested), and so on. Returns None if no match turns up before the
// listpack ends.
func (l *LP) Find(p Pos, key Value, skip int) Pos {
	keyIsInt, keyInt := normalizeForCompare(key)
	cur := p
	for cur != None {
		kind, ival, sval, _ := decode(l.buf, cur)
		var match bool
		if keyIsInt {
			match = kind == KindInt && ival == keyInt
		} else {
			match = kind == KindStr && bytes.Equal(sval, key.Str)
		}
		if match {
			return cur
		}
		for i := 0; i <= skip && cur != None; i++ {
			cur = l.Next(cur)
		}
	}
	return None
}

// Compare reports whether the entry at p equals other, using numeric
// comparison when other parses as an integer and byte comparison
// otherwise. This mirrors how Find matches a search key, so a
// successful Find(..., other, ...) and Compare(p, other) on its result
// always agree.
func (l *LP) Compare(p Pos, other Value) bool {
	otherIsInt, otherInt := normalizeForCompare(other)
	kind, ival, sval, _ := decode(l.buf, p)
	if otherIsInt {
		return kind == KindInt && ival == otherInt
	}
	return kind == KindStr && bytes.Equal(sval, other.Str)
}

func normalizeForCompare(v Value) (isInt bool, ival int64) {
	if v.IsInt {
		return true, v.Int
	}
	if n, ok := ParseIntegerString(v.Str); ok {
		return true, n
	}
	return false, 0
}

// Pair is a (key, value) pair drawn from a listpack storing alternating
// key/value entries, as HT element payloads and QL-backed hashes do.
type Pair struct {
	Key, Val Value
}

// RandomPair draws one pair from an even-indexed position chosen
// uniformly among totalCount pairs.
func (l *LP) RandomPair(totalCount int) Pair {
	idx := rand.Intn(totalCount) * 2
	p := l.Seek(idx)
	k := l.Get(p)
	v := l.Get(l.Next(p))
	return Pair{k, v}
}

// RandomPairs draws count pair-indices i.i.d. (with repeats allowed),
// sorts them, walks the listpack once to materialize the values, then
// returns them in the original draw order.
func (l *LP) RandomPairs(count, totalCount int) []Pair {
	type draw = struct{ idx, order int }
	draws := make([]draw, count)
	for i := range draws {
		draws[i] = draw{rand.Intn(totalCount), i}
	}
	sortDraws(draws)

	result := make([]Pair, count)
	pos := l.First()
	cur := 0
	for _, d := range draws {
		for cur < d.idx {
			pos = l.Next(l.Next(pos))
			cur++
		}
		k := l.Get(pos)
		v := l.Get(l.Next(pos))
		result[d.order] = Pair{k, v}
	}
	return result
}

func sortDraws(draws []struct{ idx, order int }) {
	for i := 1; i < len(draws); i++ {
		for j := i; j > 0 && draws[j].idx < draws[j-1].idx; j-- {
			draws[j], draws[j-1] = draws[j-1], draws[j]
		}
	}
}

// NextRandomAccept implements one step of Vitter's reservoir-sampling
// decision: given r items still wanted out of a remaining candidates,
// it reports whether the current candidate should be accepted.
func NextRandomAccept(r, a int) bool {
	if r <= 0 {
		return false
	}
	if r >= a {
		return true
	}
	return rand.Float64() < float64(r)/float64(a)
}

// RandomPairsUnique draws up to count distinct pair-indices out of
// totalCount in a single forward pass using reservoir sampling
// (NextRandomAccept), so it never repeats a pair the way RandomPairs can.
func (l *LP) RandomPairsUnique(count, totalCount int) []Pair {
	result := make([]Pair, 0, count)
	r, a := count, totalCount
	pos := l.First()
	for a > 0 && r > 0 && pos != None {
		if NextRandomAccept(r, a) {
			k := l.Get(pos)
			v := l.Get(l.Next(pos))
			result = append(result, Pair{k, v})
			r--
		}
		pos = l.Next(l.Next(pos))
		a--
	}
	return result
}

// ValidateIntegrity checks that buf is a well-formed listpack of the
// given size.
//
// With deep set, it walks every entry confirming each forward encoded
// length agrees with its reverse backlen, invoking cb (if non-nil) once
// per entry; cb returning false aborts the walk early and ValidateIntegrity
// reports invalid. This is the only function in the package meant to be
// called on untrusted input: malformed lengths or a truncated buffer
// never cause a panic or an out-of-bounds read, and buf is never mutated
// even when validation fails partway through.
func ValidateIntegrity(buf []byte, size int, deep bool, cb func(pos, encLen int) bool) (valid bool) {
	defer func() {
		if recover() != nil {
			valid = false
		}
	}()
	if len(buf) != size || size < headerSize+1 {
		return false
	}
	if int(binary.LittleEndian.Uint32(buf[0:4])) != size {
		return false
	}
	if buf[size-1] != encodingEOF {
		return false
	}
	if !deep {
		return true
	}
	pos := headerSize
	count := 0
	for pos < size-1 {
		_, _, _, encLen := decode(buf, pos)
		if encLen <= 0 {
			return false
		}
		backlenLen := backlenSize(uint64(encLen))
		bpos := pos + encLen
		if bpos+backlenLen > size-1 {
			return false
		}
		gotLen, gotBytes := readBacklenReverse(buf, bpos+backlenLen-1)
		if gotBytes != backlenLen || int(gotLen) != encLen {
			return false
		}
		if cb != nil && !cb(pos, encLen) {
			return false
		}
		pos = bpos + backlenLen
		count++
	}
	if pos != size-1 {
		return false
	}
	ne := binary.LittleEndian.Uint16(buf[4:6])
	if ne != numEleUnknown && int(ne) != count {
		return false
	}
	return true
}
