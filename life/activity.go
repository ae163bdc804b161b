package life

// ActivityMap is the parallel boolean array of spec.md §3/§4.C: one bit
// per 4x4 (or other power-of-two) tile, indexed through the same mixing
// function as the Spatial Hash so tile collisions are benign
// over-approximations, never under-approximations (§5).
type ActivityMap struct {
	active []bool
	order  uint32
	shift  uint32
	mask   uint32
	tile   uint32 // StaticSize
}

// NewActivityMap builds an activity map matching a hash of the given
// order and the configured tile size.
func NewActivityMap(order, staticSize uint32) *ActivityMap {
	size := uint32(1) << (2 * order)
	return &ActivityMap{
		active: make([]bool, size),
		order:  order,
		shift:  shiftForOrder(order),
		mask:   size - 1,
		tile:   staticSize,
	}
}

// Resize rebuilds the map for a new order/tile size, zeroing all bits.
func (m *ActivityMap) Resize(order, staticSize uint32) {
	size := uint32(1) << (2 * order)
	if uint32(len(m.active)) != size {
		m.active = make([]bool, size)
	} else {
		m.Clear()
	}
	m.order = order
	m.shift = shiftForOrder(order)
	m.mask = size - 1
	m.tile = staticSize
}

// Clear zeroes every tile bit, run once per generation when the fresh
// newgrid map is prepared (§3 "Lifecycles").
func (m *ActivityMap) Clear() {
	for i := range m.active {
		m.active[i] = false
	}
}

func (m *ActivityMap) tileIndex(x, y uint32) uint32 {
	xh := (x * x) >> m.shift
	yh := (y * y) >> m.shift
	return (xh ^ (yh << m.order)) & m.mask
}

// IsActive reports whether the tile containing (x,y) is flagged active.
func (m *ActivityMap) IsActive(x, y uint32) bool {
	return m.active[m.tileIndex(x|m.tileMaskBits(), y|m.tileMaskBits())]
}

func (m *ActivityMap) tileMaskBits() uint32 {
	return m.tile - 1
}

// SetActive flags the tile containing p active, plus any neighbouring
// tile the point touches across a boundary: 3 neighbours from a corner,
// 1 from an edge, 0 from the interior, per spec.md §4.C.
func (m *ActivityMap) SetActive(p Point) {
	mask := m.tileMaskBits()
	tx, ty := p.X&mask, p.Y&mask

	m.setTile(p.X, p.Y)

	onLowX := tx == 0
	onHighX := tx == mask
	onLowY := ty == 0
	onHighY := ty == mask

	if onLowX {
		m.setTile(p.X-1, p.Y)
	}
	if onHighX {
		m.setTile(p.X+1, p.Y)
	}
	if onLowY {
		m.setTile(p.X, p.Y-1)
	}
	if onHighY {
		m.setTile(p.X, p.Y+1)
	}
	if onLowX && onLowY {
		m.setTile(p.X-1, p.Y-1)
	}
	if onLowX && onHighY {
		m.setTile(p.X-1, p.Y+1)
	}
	if onHighX && onLowY {
		m.setTile(p.X+1, p.Y-1)
	}
	if onHighX && onHighY {
		m.setTile(p.X+1, p.Y+1)
	}
}

func (m *ActivityMap) setTile(x, y uint32) {
	mask := m.tileMaskBits()
	m.active[m.tileIndex(x|mask, y|mask)] = true
}

// MarkAllActive flags every tile active. Used when a hash-order change
// (driven by a population swing) invalidates the bit positions of a
// previously built map: marking everything active is a safe
// over-approximation under §5's "collisions cause over-approximation,
// never under-approximation" rule.
func (m *ActivityMap) MarkAllActive() {
	for i := range m.active {
		m.active[i] = true
	}
}
