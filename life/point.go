package life

// Point is a world cell address. Coordinates wrap modulo 2^32 and are
// expected to sit near a configured origin so squaring-based hashing stays
// well distributed; the wraparound is Go's ordinary unsigned overflow, no
// explicit masking required.
type Point struct {
	X, Y uint32
}

// Pack folds the point into a single 64-bit word for cheap equality and
// use as a map/set key in tests.
func (p Point) Pack() uint64 {
	return uint64(p.X)<<32 | uint64(p.Y)
}

func (p Point) Equal(o Point) bool {
	return p.Pack() == o.Pack()
}

// neighborOffsets lists the eight Moore-neighborhood deltas. Declared as a
// package-level array rather than unrolled per spec.md's design note that a
// naive loop over eight offsets is semantically equivalent to the
// compile-time-unrolled original.
var neighborOffsets = [8][2]int32{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Neighbor returns the point offset by the given signed delta, wrapping
// modulo 2^32 in both axes.
func (p Point) Neighbor(dx, dy int32) Point {
	return Point{
		X: uint32(int32(p.X) + dx),
		Y: uint32(int32(p.Y) + dy),
	}
}

// EachNeighbor calls fn for each of the eight Moore neighbors of p, in a
// fixed order, wrapped modulo 2^32.
func (p Point) EachNeighbor(fn func(n Point)) {
	for _, d := range neighborOffsets {
		fn(p.Neighbor(d[0], d[1]))
	}
}
