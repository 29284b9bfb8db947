package hashtable

import "math/rand"

const (
	// weakRandomSampleSize is the sample window RandomElement draws
	// from: cheap, but biased toward elements in sparser buckets.
	weakRandomSampleSize = slotsPerBucket
	// fairRandomSampleSize is the sample window FairRandomElement draws
	// from: forty bucket's worth, expensive enough to flatten most of
	// that bias out.
	fairRandomSampleSize = slotsPerBucket * 40
)

// Sample collects up to count elements starting from a pseudo-random
// cursor, using single-step scans. It returns fewer than count only if
// the table itself holds fewer elements.
func (h *HT[E]) Sample(count int) []E {
	if h.Len() == 0 {
		return nil
	}
	if count > h.Len() {
		count = h.Len()
	}
	out := make([]E, 0, count)
	cur := rand.Uint64()
	for len(out) < count {
		cur = h.Scan(cur, ScanSingleStep, func(elem E) {
			if len(out) < count {
				out = append(out, elem)
			}
		})
	}
	h.rehashStepOnRead()
	return out
}

// RandomElement returns a pseudo-randomly chosen element. ok is false
// only if the table is empty. Cheaper than FairRandomElement, at the
// cost of some bias toward elements that happen to sit in less-crowded
// buckets.
func (h *HT[E]) RandomElement() (E, bool) {
	return h.randomFromSample(weakRandomSampleSize)
}

// FairRandomElement returns a pseudo-randomly chosen element drawn from a
// larger sample than RandomElement, trading some cost for a flatter
// distribution.
func (h *HT[E]) FairRandomElement() (E, bool) {
	return h.randomFromSample(fairRandomSampleSize)
}

func (h *HT[E]) randomFromSample(size int) (E, bool) {
	var zero E
	samples := h.Sample(size)
	if len(samples) == 0 {
		return zero, false
	}
	return samples[rand.Intn(len(samples))], true
}
