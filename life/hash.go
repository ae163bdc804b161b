package life

import "sync/atomic"

const (
	minHashOrder = 6
	maxHashOrder = 12
)

// SpatialHash is the indexed bucket table of spec.md §3: bucket[i] is an
// arena index (0 = empty), chained lock-free via the Cell Arena's next
// field. Grounded on the CAS-retry-loop shape of
// other_examples/AkiebNazir-kv-store__arena.go's Allocate, adapted from a
// single bump pointer to a chaining hash whose buckets are claimed with
// compare-and-swap instead of unconditionally advanced.
type SpatialHash struct {
	buckets []uint32
	order   uint32 // k; table has 2^(2k) buckets
	shift   uint32
	mask    uint32
}

// NewSpatialHash builds a hash table sized for order k, clamped to [6,12]
// per spec.md §3.
func NewSpatialHash(k uint32) *SpatialHash {
	if k < minHashOrder {
		k = minHashOrder
	}
	if k > maxHashOrder {
		k = maxHashOrder
	}
	size := uint32(1) << (2 * k)
	return &SpatialHash{
		buckets: make([]uint32, size),
		order:   k,
		shift:   shiftForOrder(k),
		mask:    size - 1,
	}
}

// shiftForOrder derives the bit shift (32-k)/2, so (x*x)>>shift keeps the
// upper 32-(32-k)/2 bits of the squared coordinate (20 bits for k=8), not
// a k-bit quantity; index masks the combined value down to 2k bits. This
// favours the middle bits of the square over the top bits (which saturate
// for points near 2^32) and the low bits (which alias badly for
// axis-aligned clusters). See DESIGN.md's
// Open Question note: the mixing function's exact bit window is not
// specified by spec.md beyond "middle bits", so any reasonable choice is
// conformant.
func shiftForOrder(k uint32) uint32 {
	return (32 - k) / 2
}

// OrderForPopulation picks k so that 2^(2k) is comfortably above the
// expected populated-cell count, clamped to [6,12].
func OrderForPopulation(expected int) uint32 {
	k := uint32(minHashOrder)
	for k < maxHashOrder {
		if uint64(1)<<(2*k) >= uint64(expected)*2 {
			break
		}
		k++
	}
	return k
}

// Resize rebuilds the bucket table for a new order; called between
// generations only, never mid-phase.
func (h *SpatialHash) Resize(k uint32) {
	if k < minHashOrder {
		k = minHashOrder
	}
	if k > maxHashOrder {
		k = maxHashOrder
	}
	size := uint32(1) << (2 * k)
	if uint32(len(h.buckets)) != size {
		h.buckets = make([]uint32, size)
	} else {
		h.Clear()
	}
	h.order = k
	h.shift = shiftForOrder(k)
	h.mask = size - 1
}

// Clear zeroes every bucket head, run once per generation.
func (h *SpatialHash) Clear() {
	for i := range h.buckets {
		h.buckets[i] = 0
	}
}

// index computes the bucket for a point per spec.md §3's mixing function:
// ((x*x) >> shift) XOR (((y*y) >> shift) << k).
func (h *SpatialHash) index(p Point) uint32 {
	xh := (p.X * p.X) >> h.shift
	yh := (p.Y * p.Y) >> h.shift
	return (xh ^ (yh << h.order)) & h.mask
}

// Order exposes k, e.g. for the status line's heap(order) field.
func (h *SpatialHash) Order() uint32 { return h.order }

// addCell implements spec.md §4.B's addCell(p, v) protocol: fold v into an
// existing entry for p if one exists in this generation, otherwise prepend
// a fresh arena record via CAS on the bucket head.
//
// cursor is the calling worker's own workerCursor; arena is the shared
// Cell Arena. The single-threaded fast path (no contention) falls out of
// the same code: the first CAS always succeeds when nothing else is
// racing the same bucket.
func (h *SpatialHash) addCell(arena *Arena, cursor *workerCursor, p Point, v uint32) {
	b := h.index(p)
	target := p.Pack()

	for {
		head := atomic.LoadUint32(&h.buckets[b])

		// Walk the existing chain looking for p.
		for walk := head; walk != 0; walk = arena.next(walk) {
			if arena.point(walk).Pack() == target {
				arena.addValue(walk, v)
				return
			}
		}

		// Miss: stage a new record at our own cursor slot (not yet
		// published) and try to splice it in at the head.
		idx := cursor.alloc()
		arena.set(idx, p, head, v)

		if atomic.CompareAndSwapUint32(&h.buckets[b], head, idx) {
			return
		}

		// Lost the race: rewind the cursor (the staged slot is unused by
		// anyone else, since only this worker ever writes it) and retry
		// the walk against the new head.
		cursor.cur = idx
	}
}
