package life

import "math/bits"

// Autotrack is the weighted centre-of-activity accumulator of spec.md
// §4.H: four i32 accumulators gathered during phase F, consumed by the
// main thread once per generation to nudge the tracked centre (cbx, cby)
// toward the densest recent birth/death activity.
//
// The contribution formula is implemented bit-for-bit as spec.md §9
// prefers, for reproducibility: per DESIGN.md's Open Question decision,
// matching the formula exactly (not just its intent) keeps scenario S4's
// final tracked centre deterministic.
type Autotrack struct {
	Enabled     bool
	Sensitivity int // tg, clamped to [1, 11]; higher = tighter window
	Rate        int // display rate cap, gen/s, clamped to [1, 16384]
	Dampening   int // sRate, window-move dampening, clamped to [1, 64]

	CBX, CBY uint32 // tracked centre

	ix, dx, iy, dy int32 // per-generation accumulators, racy by design

	lastRecenterGen uint64

	altSensitivity int // `w` key's stashed alternate, paired with ViewState.altCenter
	altDampening   int
}

// NewAutotrack creates a tracker centred on (cbx, cby) with the given
// initial sensitivity.
func NewAutotrack(cbx, cby uint32, sensitivity int) *Autotrack {
	sensitivity = clampInt(sensitivity, 1, 11)
	return &Autotrack{
		Enabled:        true,
		Sensitivity:    sensitivity,
		Rate:           60,
		Dampening:      8,
		CBX:            cbx,
		CBY:            cby,
		altSensitivity: sensitivity,
		altDampening:   8,
	}
}

// SwapPrimaryAlternate exchanges the active sensitivity/dampening with the
// stashed alternate pair: the autotrack half of the `w` key in spec.md §6,
// paired with ViewState.SwapPrimaryAlternate which swaps the centre.
func (a *Autotrack) SwapPrimaryAlternate() {
	a.Sensitivity, a.altSensitivity = a.altSensitivity, a.Sensitivity
	a.Dampening, a.altDampening = a.altDampening, a.Dampening
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// windowBound is the "active neighbourhood" radius 2^(23-|tg|) events
// must fall within to register.
func (a *Autotrack) windowBound() uint32 {
	return SensitivityHalfWidth(a.Sensitivity)
}

// SensitivityHalfWidth computes 2^(23-|tg|), the half-width of the
// autotracking "active neighbourhood" for sensitivity tg, shared by the
// accumulator and the §6 status line.
func SensitivityHalfWidth(tg int) uint32 {
	if tg < 0 {
		tg = -tg
	}
	shift := 23 - tg
	if shift < 0 {
		shift = 0
	}
	if shift > 31 {
		shift = 31
	}
	return uint32(1) << uint32(shift)
}

// Contribute records one birth/death event at point q. Called from phase
// F workers; the accumulators are intentionally unsynchronized (spec.md
// §9: "racy but non-critical", advisory only — see §4.F, §5).
func (a *Autotrack) Contribute(q Point, birth bool) {
	if !a.Enabled {
		return
	}
	bound := a.windowBound()

	ddx := int32(q.X) - int32(a.CBX)
	if mag := abs32(ddx); mag > 0 && uint32(mag) < bound {
		w := int32(bits.LeadingZeros32(uint32(mag)))
		east := ddx > 0
		switch {
		case east && birth, !east && !birth:
			a.ix += w
		default:
			a.dx += w
		}
	}

	ddy := int32(q.Y) - int32(a.CBY)
	if mag := abs32(ddy); mag > 0 && uint32(mag) < bound {
		w := int32(bits.LeadingZeros32(uint32(mag)))
		north := ddy > 0
		switch {
		case north && birth, !north && !birth:
			a.iy += w
		default:
			a.dy += w
		}
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// incStep computes inc = max(clz(rate+1) - 16, 1): a slower rate cap
// yields a larger step, per spec.md §4.H.
func incStep(rate int) int32 {
	v := bits.LeadingZeros32(uint32(rate+1)) - 16
	if v < 1 {
		v = 1
	}
	return int32(v)
}

// Settle is the main-thread step after phase F's barrier: normalise the
// accumulators to magnitudes, shift the tracked centre by ±inc if the
// imbalance clears the threshold, then reset for the next generation.
func (a *Autotrack) Settle() {
	inc := incStep(a.Rate)

	if diff := a.ix - a.dx; abs32(diff) >= inc {
		if diff > 0 {
			a.CBX += uint32(inc)
		} else {
			a.CBX -= uint32(inc)
		}
	}
	if diff := a.iy - a.dy; abs32(diff) >= inc {
		if diff > 0 {
			a.CBY += uint32(inc)
		} else {
			a.CBY -= uint32(inc)
		}
	}

	a.ix, a.dx, a.iy, a.dy = 0, 0, 0, 0
}

// recenterPeriod returns how often (in generations) the view is allowed
// to recentre on the tracked point: sRate*rate/k, where k smoothly scales
// from 1 (slow rate) to 10 (fast rate).
func (a *Autotrack) recenterPeriod() uint64 {
	const maxRate = 16384
	k := 1 + 9*a.Rate/maxRate
	k = clampInt(k, 1, 10)
	period := uint64(a.Dampening) * uint64(a.Rate) / uint64(k)
	if period == 0 {
		period = 1
	}
	return period
}

// ShouldRecenter reports whether the view window, currently centred at
// viewCenter with the given half-window extent, should snap to the
// tracked centre this generation: the tracked centre has strayed beyond
// 2/3 of the half-window, and at least recenterPeriod generations have
// passed since the last recentre.
func (a *Autotrack) ShouldRecenter(gen uint64, viewCenter Point, halfWindow uint32) bool {
	if !a.Enabled {
		return false
	}
	if gen-a.lastRecenterGen < a.recenterPeriod() {
		return false
	}
	threshold := int64(halfWindow) * 2 / 3
	dx := int64(abs32(int32(a.CBX) - int32(viewCenter.X)))
	dy := int64(abs32(int32(a.CBY) - int32(viewCenter.Y)))
	if dx > threshold || dy > threshold {
		a.lastRecenterGen = gen
		return true
	}
	return false
}
