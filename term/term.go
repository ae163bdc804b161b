// Package term renders a life.Engine's display hand-off to a terminal
// and translates keyboard events into view/autotrack adjustments.
package term

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/sandeepkv93/sparselife/life"
)

// Controller owns the tcell screen and the renderer goroutine that
// drains an engine's DisplayHandoff, independent of the engine's own
// worker pool — the renderer is the "dedicated thread" spec.md §4.I and
// §9 call for.
//
// Grounded on other_examples/serge-hulne-Non-Newtonian-cellular-automata__main.go,
// the pack's only tcell user: its screen-init/defer-Fini/PollEvent loop
// shape is kept, generalized from a fixed rows×cols grid redraw to
// draining a ScreenBuffer pushed by a producer instead of polling a
// shared grid directly.
type Controller struct {
	screen tcell.Screen
	engine *life.Engine
}

// New initializes a tcell screen on the current terminal; the screen is
// not resized to the engine's view window. Callers must call Close when
// done.
func New(e *life.Engine) (*Controller, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("term: creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("term: initializing screen: %w", err)
	}
	screen.Clear()

	return newWithScreen(screen, e), nil
}

// newWithScreen builds a Controller around an already-initialized
// screen, letting tests substitute a tcell.SimulationScreen for a real
// terminal.
func newWithScreen(screen tcell.Screen, e *life.Engine) *Controller {
	return &Controller{screen: screen, engine: e}
}

// Close tears down the terminal screen.
func (c *Controller) Close() {
	c.screen.Fini()
}

// Render drains buf (the engine's most recently handed-off
// ScreenBuffer) to the terminal, one glyph per cell plus the status
// row. It does not signal the hand-off's Done; RunRenderer does that
// after each Render.
func (c *Controller) Render(buf *life.ScreenBuffer) {
	for y, row := range buf.Rows {
		for x, glyph := range row {
			c.screen.SetContent(x, y, rune(glyph), nil, tcell.StyleDefault)
		}
	}
	c.screen.Show()
}

// RunRenderer drains the engine's display hand-off until stop is
// closed, rendering each buffer as it arrives. Intended to run in its
// own goroutine, overlapping with the engine's generation loop per
// spec.md §4.I.
func (c *Controller) RunRenderer(stop <-chan struct{}) {
	handoff := c.engine.Display()
	for {
		select {
		case <-stop:
			return
		case buf := <-handoff.Pending():
			c.Render(buf)
			handoff.Done()
		}
	}
}

const (
	viewNudge        = 5
	maxSensitivity   = 11
	minSensitivity   = 1
	minRate          = 1
	maxRate          = 16384
	minDampening     = 1
	maxDampening     = 64
)

// PollAndHandle reads one terminal event and applies it to the engine,
// per the keyboard control surface of spec.md §6. It returns quit=true
// when the event requests clean termination (`q` or ESC); input errors
// are treated as no-ops (§7).
func (c *Controller) PollAndHandle() (quit bool) {
	ev := c.screen.PollEvent()
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}

	view := c.engine.View()
	tracker := c.engine.Tracker()

	switch key.Key() {
	case tcell.KeyEscape:
		return true
	case tcell.KeyUp:
		view.Nudge(0, -viewNudge)
		tracker.Enabled = false
		return false
	case tcell.KeyDown:
		view.Nudge(0, viewNudge)
		tracker.Enabled = false
		return false
	case tcell.KeyLeft:
		view.Nudge(-viewNudge, 0)
		tracker.Enabled = false
		return false
	case tcell.KeyRight:
		view.Nudge(viewNudge, 0)
		tracker.Enabled = false
		return false
	}

	switch key.Rune() {
	case 'q':
		return true
	case 't':
		tracker.Enabled = !tracker.Enabled
	case 'T':
		tracker.Sensitivity = clamp(tracker.Sensitivity+1, minSensitivity, maxSensitivity)
	case '<':
		tracker.Rate = clamp(tracker.Rate/2, minRate, maxRate)
	case '>':
		tracker.Rate = clamp(tracker.Rate*2, minRate, maxRate)
	case '[':
		tracker.Dampening = clamp(tracker.Dampening/2, minDampening, maxDampening)
	case ']':
		tracker.Dampening = clamp(tracker.Dampening*2, minDampening, maxDampening)
	case '+':
		c.engine.DoubleDisplayStride()
	case '-':
		c.engine.HalveDisplayStride()
	case 'w':
		view.SwapPrimaryAlternate()
		tracker.SwapPrimaryAlternate()
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
