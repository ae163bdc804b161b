package life

// AliveSet is one worker's ordered sequence of live Points (spec.md §3/§4.D).
// The union across workers is the live population; each set has exactly
// one writer (its owning worker) in both phases, so no locking is needed.
type AliveSet struct {
	points []Point
}

// NewAliveSet preallocates a set with the given capacity.
func NewAliveSet(capacity int) *AliveSet {
	return &AliveSet{points: make([]Point, 0, capacity)}
}

// Reserve grows the backing array to at least capacity, without touching
// existing entries. Must be called before phase F per spec.md §4.D, so
// Append never reallocates mid-phase.
func (a *AliveSet) Reserve(capacity int) {
	if cap(a.points) >= capacity {
		return
	}
	grown := make([]Point, len(a.points), capacity)
	copy(grown, a.points)
	a.points = grown
}

// Append adds a survivor or birth to the set (phase F).
func (a *AliveSet) Append(p Point) {
	a.points = append(a.points, p)
}

// SwapRemove removes the entry at i by swapping in the last element,
// preserving O(1) removal at the cost of order (phase E, for cells
// migrating into the arena from an active tile).
func (a *AliveSet) SwapRemove(i int) Point {
	p := a.points[i]
	last := len(a.points) - 1
	a.points[i] = a.points[last]
	a.points = a.points[:last]
	return p
}

func (a *AliveSet) Len() int        { return len(a.points) }
func (a *AliveSet) At(i int) Point  { return a.points[i] }
func (a *AliveSet) Points() []Point { return a.points }

// Reset truncates the set to empty without shrinking its backing array.
// The engine itself never calls it; its phases only Append and SwapRemove.
func (a *AliveSet) Reset() {
	a.points = a.points[:0]
}
