package life

import "sync/atomic"

// arenaSlot is the Cell record of spec.md §3: a point, a chain link into
// the same arena (0 sentinel = end-of-chain), and the accumulated
// neighbour-contribution value (+10 self, +1 per neighbour).
//
// v is declared uint32 rather than the spec's u8: Go's sync/atomic has no
// 8-bit add, and the value never exceeds 18, so a uint32 costs nothing and
// keeps addValue a single AddUint32 instead of a CAS loop over a byte
// packed into a word.
type arenaSlot struct {
	p    Point
	next uint32
	v    uint32
}

// Arena is the growable, append-only-within-a-generation Cell store of
// spec.md §4.A. Index 0 is reserved as the chain sentinel; slot i is owned
// for writing by exactly one worker during a generation (the worker whose
// stride partition contains i), per invariant I2.
//
// Grounded on other_examples/AkiebNazir-kv-store__arena.go's lock-free
// bump-pointer Arena, generalized from one global CAS cursor to N
// independent per-worker strided cursors so no CAS is needed on the
// allocation path itself (contention lives in the hash's bucket CAS
// instead, per spec.md §4.B).
type Arena struct {
	slots []arenaSlot
}

// NewArena allocates an arena with room for at least capacity entries
// (plus the index-0 sentinel).
func NewArena(capacity int) *Arena {
	return &Arena{slots: make([]arenaSlot, capacity+1)}
}

// EnsureCapacity grows the arena if needed. Must only be called between
// generations (§4.A: "no reallocation occurs during a phase").
func (a *Arena) EnsureCapacity(capacity int) {
	need := capacity + 1
	if len(a.slots) >= need {
		return
	}
	a.slots = make([]arenaSlot, need)
}

// Cap returns the number of usable (non-sentinel) slots.
func (a *Arena) Cap() int {
	if len(a.slots) == 0 {
		return 0
	}
	return len(a.slots) - 1
}

// set writes a fresh Cell record at idx. Called once by the owning worker
// before the record is published via the hash's bucket CAS; the capacity
// check is the hard assertion spec.md §7 calls for ("never a recoverable
// condition").
func (a *Arena) set(idx uint32, p Point, next uint32, v uint32) {
	if int(idx) >= len(a.slots) {
		panic("sparselife: cell arena capacity exceeded — sizing contract violated by caller")
	}
	a.slots[idx] = arenaSlot{p: p, next: next, v: v}
}

// addValue atomically adds delta to the value field of an existing Cell.
// Monotonic ordering suffices per spec.md §4.B: the sum is only read after
// the whole-phase barrier, so no other ordering guarantee is needed.
func (a *Arena) addValue(idx uint32, delta uint32) {
	atomic.AddUint32(&a.slots[idx].v, delta)
}

func (a *Arena) point(idx uint32) Point  { return a.slots[idx].p }
func (a *Arena) next(idx uint32) uint32  { return a.slots[idx].next }
func (a *Arena) value(idx uint32) uint32 { return atomic.LoadUint32(&a.slots[idx].v) }

// workerCursor is a worker's thread-local bump pointer into its arena
// partition: worker id (0-based) owns indices {id+1, id+1+N, id+1+2N, ...},
// which keeps index 0 free for the sentinel regardless of worker count.
type workerCursor struct {
	id, n uint32
	cur   uint32
}

func newWorkerCursor(id, n uint32) *workerCursor {
	c := &workerCursor{id: id, n: n}
	c.reset()
	return c
}

// reset rewinds the cursor to the start of the worker's partition; called
// once per generation when the arena's logical length is reset.
func (c *workerCursor) reset() {
	c.cur = c.id + 1
}

// alloc returns the next free slot in this worker's partition and advances
// the cursor by N, per spec.md §4.A's stride rule.
func (c *workerCursor) alloc() uint32 {
	idx := c.cur
	c.cur += c.n
	return idx
}

// len reports the cursor's current value, which phase F uses (via
// cellsLen) to know exactly how much of this worker's partition holds
// valid entries for this generation.
func (c *workerCursor) len() uint32 {
	return c.cur
}
