package life

import "sync/atomic"

// ScreenBuffer is one pre-allocated snapshot of the terminal's current
// dimensions (spec.md §4.I). Row 0 is reserved for the status line;
// phase E writes live-cell glyphs into the remaining rows.
type ScreenBuffer struct {
	Width, Height int
	Rows          [][]byte
}

// NewScreenBuffer allocates a blank (space-filled) buffer.
func NewScreenBuffer(width, height int) *ScreenBuffer {
	rows := make([][]byte, height)
	for y := range rows {
		row := make([]byte, width)
		for x := range row {
			row[x] = ' '
		}
		rows[y] = row
	}
	return &ScreenBuffer{Width: width, Height: height, Rows: rows}
}

// Clear blanks every cell, including the status row.
func (s *ScreenBuffer) Clear() {
	for _, row := range s.Rows {
		for x := range row {
			row[x] = ' '
		}
	}
}

// SetStatus writes the §6 status line into row 0.
func (s *ScreenBuffer) SetStatus(line string) {
	if s.Height == 0 {
		return
	}
	row := s.Rows[0]
	for x := range row {
		row[x] = ' '
	}
	copy(row, line)
}

// SetCell writes a glyph at (x,y), silently clipping out-of-range writes.
func (s *ScreenBuffer) SetCell(x, y int, glyph byte) {
	if y < 0 || y >= s.Height || x < 0 || x >= s.Width {
		return
	}
	s.Rows[y][x] = glyph
}

// DisplayHandoff alternates between two pre-allocated ScreenBuffers and
// hands the filled one to a dedicated renderer goroutine, per spec.md
// §4.I/§4.G's third gate. If the renderer is still busy, TrySwap is a
// no-op and the generation is skipped for display purposes — exactly the
// "display push error: logged and swallowed" tolerance of spec.md §7.
type DisplayHandoff struct {
	buffers [2]*ScreenBuffer
	current int
	pending chan *ScreenBuffer
	busy    atomic.Bool
}

// NewDisplayHandoff allocates both buffers at the given dimensions.
func NewDisplayHandoff(width, height int) *DisplayHandoff {
	return &DisplayHandoff{
		buffers: [2]*ScreenBuffer{NewScreenBuffer(width, height), NewScreenBuffer(width, height)},
		pending: make(chan *ScreenBuffer, 1),
	}
}

// Current returns the buffer phase E should be writing into this
// generation.
func (d *DisplayHandoff) Current() *ScreenBuffer {
	return d.buffers[d.current]
}

// TrySwap hands the current buffer to the renderer and switches to the
// alternate, if and only if the renderer is idle. Returns whether the
// hand-off happened.
func (d *DisplayHandoff) TrySwap() bool {
	if !d.busy.CompareAndSwap(false, true) {
		return false
	}
	select {
	case d.pending <- d.buffers[d.current]:
		d.current ^= 1
		return true
	default:
		d.busy.Store(false)
		return false
	}
}

// Pending is the renderer's receive side of the hand-off.
func (d *DisplayHandoff) Pending() <-chan *ScreenBuffer {
	return d.pending
}

// Done marks the renderer idle again, regardless of whether the push
// succeeded (§7: push errors are logged and swallowed by the renderer).
func (d *DisplayHandoff) Done() {
	d.busy.Store(false)
}

// ViewState is the terminal view window: a centre point and half-extents
// in each axis, plus the primary/alternate pair the `w` key swaps between
// (spec.md §6).
type ViewState struct {
	Center Point
	HalfW  uint32
	HalfH  uint32

	altCenter Point
}

// NewViewState centres a window of the given half-extents on center.
func NewViewState(center Point, halfW, halfH uint32) *ViewState {
	return &ViewState{Center: center, HalfW: halfW, HalfH: halfH, altCenter: center}
}

// ToScreen maps a world point into screen (column, row) coordinates if it
// falls inside the window, offsetting row by 1 to keep row 0 for status.
func (v *ViewState) ToScreen(p Point) (x, y int, ok bool) {
	dx := int32(p.X) - int32(v.Center.X)
	dy := int32(p.Y) - int32(v.Center.Y)
	if dx < -int32(v.HalfW) || dx > int32(v.HalfW) {
		return 0, 0, false
	}
	if dy < -int32(v.HalfH) || dy > int32(v.HalfH) {
		return 0, 0, false
	}
	return int(dx + int32(v.HalfW)), int(dy+int32(v.HalfH)) + 1, true
}

// Nudge moves the centre by the given signed delta (arrow-key control).
func (v *ViewState) Nudge(dx, dy int32) {
	v.Center = v.Center.Neighbor(dx, dy)
}

// SwapPrimaryAlternate exchanges the active centre with the stashed
// alternate, per the `w` key in spec.md §6.
func (v *ViewState) SwapPrimaryAlternate() {
	v.Center, v.altCenter = v.altCenter, v.Center
}
