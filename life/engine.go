package life

import "math/bits"

// Engine bundles the process-wide state spec.md §9's design notes call
// out as ripe for consolidation (grid, newgrid, alive[], cells, view and
// tracking state) into a single value whose methods are the worker
// phases, with worker goroutines capturing a shared *Engine instead of
// closing over package-level globals.
type Engine struct {
	cfg Config

	hash       *SpatialHash
	arena      *Arena
	curActive  *ActivityMap // "grid": read-only during phase E
	nextActive *ActivityMap // "newgrid": write-only (set-true) during phase F

	alive   []*AliveSet
	cursors []*workerCursor

	cellsLen         []uint32
	staticPerWorker  []int
	birthsPerWorker  []uint64
	deathsPerWorker  []uint64
	chunkPlan        []chunkRef

	barrier *Barrier
	tracker *Autotrack
	view    *ViewState
	handoff *DisplayHandoff

	gen         uint64
	population  int
	staticCount int
	births      uint64
	deaths      uint64

	displayShift uint32

	genPerSecond int
	rateCapped   bool

	lastStatus string
	lastRows   []string
}

// NewEngine validates cfg and builds an Engine with its persistent worker
// pool started. Call Stop when done to release the worker goroutines.
func NewEngine(cfg Config, screenWidth, screenHeight int) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := int(cfg.Threads)
	initialCap := int(cfg.ChunkSize * cfg.NumChunks)

	e := &Engine{
		cfg:             cfg,
		alive:           make([]*AliveSet, n),
		cursors:         make([]*workerCursor, n),
		cellsLen:        make([]uint32, n),
		staticPerWorker: make([]int, n),
		birthsPerWorker: make([]uint64, n),
		deathsPerWorker: make([]uint64, n),
	}

	for i := 0; i < n; i++ {
		e.alive[i] = NewAliveSet(initialCap)
		e.cursors[i] = newWorkerCursor(uint32(i), uint32(n))
	}

	order := OrderForPopulation(initialCap)
	e.hash = NewSpatialHash(order)
	e.arena = NewArena(initialCap)
	e.curActive = NewActivityMap(order, cfg.StaticSize)
	e.nextActive = NewActivityMap(order, cfg.StaticSize)
	e.curActive.MarkAllActive() // gen 0: nothing is known stable yet

	center := Point{X: cfg.Origin, Y: cfg.Origin}
	e.tracker = NewAutotrack(center.X, center.Y, 6)
	e.view = NewViewState(center, uint32(screenWidth/2), uint32((screenHeight-1)/2))
	e.handoff = NewDisplayHandoff(screenWidth, screenHeight)

	e.displayShift = log2PowerOfTwo(cfg.DisplayStride)

	e.barrier = NewBarrier(n)
	e.barrier.Start(e.runWorker)

	return e, nil
}

func log2PowerOfTwo(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	return uint32(bits.Len32(v) - 1)
}

func (e *Engine) runWorker(id int, ph phase) {
	switch ph {
	case phaseAlive:
		e.processAlive(id)
	case phaseCells:
		e.processCells(id)
	}
}

// Threads reports the worker count N.
func (e *Engine) Threads() int { return int(e.cfg.Threads) }

// SeedAlive places a live point directly into worker workerID's alive
// set, bypassing the arena — used once at startup by the RLE decoder's
// round-robin distribution (spec.md §6).
func (e *Engine) SeedAlive(workerID int, p Point) {
	e.alive[workerID].Append(p)
}

// AliveSets exposes the per-worker alive sets for inspection (tests,
// snapshotting).
func (e *Engine) AliveSets() []*AliveSet { return e.alive }

// Generation returns the number of completed generations.
func (e *Engine) Generation() uint64 { return e.gen }

// Population returns the live cell count as of the last completed
// generation.
func (e *Engine) Population() int { return e.population }

// Births and Deaths report the most recently completed generation's
// counts. These are summed from per-worker accumulators on the main
// thread rather than kept as shared atomics — spec.md §4.F/§9 explicitly
// marks them advisory ("racy but non-critical... may be relaxed to
// per-worker accumulators summed on the main thread").
func (e *Engine) Births() uint64 { return e.births }
func (e *Engine) Deaths() uint64 { return e.deaths }

// View exposes the terminal view window for keyboard control handlers.
func (e *Engine) View() *ViewState { return e.view }

// Tracker exposes the autotracking accumulator for keyboard control
// handlers (sensitivity, rate, dampening adjustments).
func (e *Engine) Tracker() *Autotrack { return e.tracker }

// Display exposes the double-buffered hand-off for the renderer.
func (e *Engine) Display() *DisplayHandoff { return e.handoff }

// StatusLine returns the §6 one-line status string as of the most
// recently completed Step, for external collaborators (statusfeed) that
// mirror it without consuming the terminal's double-buffered hand-off.
func (e *Engine) StatusLine() string { return e.lastStatus }

// ScreenRows returns a snapshot of the current display buffer's rows,
// including the status row, as of the most recently completed Step — the
// "current display buffer" statusfeed mirrors to remote monitors
// alongside the status line.
func (e *Engine) ScreenRows() []string { return e.lastRows }

// DoubleDisplayStride doubles the display generation stride 2^s (the `+`
// key of spec.md §6), capped so the shift never exceeds 31 bits.
func (e *Engine) DoubleDisplayStride() {
	if e.displayShift >= 31 {
		return
	}
	e.displayShift++
	e.cfg.DisplayStride <<= 1
}

// HalveDisplayStride halves the display generation stride 2^s (the `-`
// key of spec.md §6), floored at 2^0 = 1 (every generation displayed).
func (e *Engine) HalveDisplayStride() {
	if e.displayShift == 0 {
		return
	}
	e.displayShift--
	e.cfg.DisplayStride >>= 1
}

// SetRateStats records the measured display rate for the status line.
// Wall-clock measurement lives outside the engine so the hot path stays
// free of time.Now() calls.
func (e *Engine) SetRateStats(genPerSecond int, capped bool) {
	e.genPerSecond = genPerSecond
	e.rateCapped = capped
}

// Stop releases the worker pool's goroutines.
func (e *Engine) Stop() {
	e.barrier.Stop()
}

// rotateHash implements the ROTATE_HASH state: choose this generation's
// hash order from the last known population, reuse the activity map when
// the order is unchanged (cheap clear + swap), or rebuild and
// conservatively mark everything active when it changes (§5's
// over-approximation rule covers the correctness gap a reorder would
// otherwise open).
func (e *Engine) rotateHash() {
	order := OrderForPopulation(e.population + 1)

	if order == e.hash.Order() {
		e.hash.Clear()
		e.curActive, e.nextActive = e.nextActive, e.curActive
		e.nextActive.Clear()
		return
	}

	e.hash.Resize(order)
	e.curActive.Resize(order, e.cfg.StaticSize)
	e.nextActive.Resize(order, e.cfg.StaticSize)
	e.curActive.MarkAllActive()

	// Every point now takes processAlive's active branch this generation
	// (§5's over-approximation), so the prior generation's static count no
	// longer describes anything sizeArena should subtract out.
	e.staticCount = 0
}

// sizeArena implements the SIZE_ARENA state: the arena is sized to
// (pop - static) * (8 + N) before phase E, per spec.md §3/§4.A, and every
// worker cursor is rewound to the start of its partition.
func (e *Engine) sizeArena() {
	n := int(e.cfg.Threads)
	nonStatic := e.population - e.staticCount
	if nonStatic < 0 {
		nonStatic = 0
	}
	needed := nonStatic * (8 + n)
	if needed < int(e.cfg.ChunkSize) {
		needed = int(e.cfg.ChunkSize)
	}
	e.arena.EnsureCapacity(needed)

	for _, c := range e.cursors {
		c.reset()
	}
}

// prepNewGrid implements the PREP_NEWGRID state: reserve alive-set
// capacity per spec.md §4.D so phase F's Append never reallocates, and
// build the deterministic chunk plan phase F will consume.
func (e *Engine) prepNewGrid() {
	n := int(e.cfg.Threads)
	cellsMax := e.arena.Cap()
	reserve := e.staticCount + cellsMax/(2*n)
	for _, a := range e.alive {
		a.Reserve(reserve)
	}
	e.buildChunkPlan()
}

// updateDisplay implements the UPDATE_STATS/DISPLAY state. It runs
// immediately after RELEASE_CELLS, overlapping with phase F's compute —
// phase E already finished filling the current screen buffer with this
// generation's live cells, so only the status line (built from the prior
// generation's finalized counts) and the hand-off to the renderer happen
// here.
func (e *Engine) updateDisplay() bool {
	screen := e.handoff.Current()
	e.lastStatus = FormatStatus(e.statusFields())
	screen.SetStatus(e.lastStatus)
	e.lastRows = snapshotRows(screen)

	if e.cfg.DisplayStride != 0 && e.gen%uint64(e.cfg.DisplayStride) != 0 {
		return false
	}
	return e.handoff.TrySwap()
}

// snapshotRows copies a ScreenBuffer's rows into independent strings, so
// callers outside the renderer's hand-off (statusfeed) can hold onto a
// generation's display content after the buffer itself is reused.
func snapshotRows(s *ScreenBuffer) []string {
	rows := make([]string, len(s.Rows))
	for i, row := range s.Rows {
		rows[i] = string(row)
	}
	return rows
}

func (e *Engine) statusFields() StatusFields {
	return StatusFields{
		Generation:   e.gen,
		DisplayShift: e.displayShift,
		Population:   e.population,
		Static:       e.staticCount,
		Births:       e.births,
		Deaths:       e.deaths,
		RateCapped:   e.rateCapped,
		GenPerSecond: e.genPerSecond,
		HashOrder:    e.hash.Order(),
		CellsMax:     e.arena.Cap(),
		Dampening:    e.tracker.Dampening,
		ViewX:        e.view.Center.X,
		ViewY:        e.view.Center.Y,
		Origin:       e.cfg.Origin,
		Sensitivity:  e.tracker.Sensitivity,
		Rate10k:      e.tracker.Rate * 10000 / 16384,
	}
}

// updateStatistics implements the statistics half of AWAIT_CELLS: sum the
// racy per-worker birth/death/static accumulators and the alive sets'
// lengths into the engine's reported counters.
func (e *Engine) updateStatistics() {
	var births, deaths uint64
	var static int
	for i := range e.birthsPerWorker {
		births += e.birthsPerWorker[i]
		deaths += e.deathsPerWorker[i]
		static += e.staticPerWorker[i]
	}
	e.births = births
	e.deaths = deaths
	e.staticCount = static

	pop := 0
	for _, a := range e.alive {
		pop += a.Len()
	}
	e.population = pop
}

// Step advances the engine by exactly one generation, implementing
// spec.md §4.I's state machine. pollInput, if non-nil, runs during the
// POLL_INPUT state, overlapped with phase E's compute on the worker pool.
func (e *Engine) Step(pollInput func()) {
	e.rotateHash()
	e.sizeArena()

	e.barrier.Release(phaseAlive)
	if pollInput != nil {
		pollInput()
	}
	e.barrier.Wait()

	e.prepNewGrid()

	e.barrier.Release(phaseCells)
	e.updateDisplay()
	e.barrier.Wait()

	e.updateStatistics()
	e.tracker.Settle()
	e.adjustTrack()

	e.gen++
}

// adjustTrack implements the ADJUST_TRACK state: snap the view window to
// the tracked centre once it has strayed far enough, per spec.md §4.H
// ("the view window recentres when the tracked centre strays beyond 2/3
// of the half-window"). The two axes share a single threshold, so the
// tighter of the window's half-extents governs when a recentre fires.
func (e *Engine) adjustTrack() {
	halfWindow := e.view.HalfW
	if e.view.HalfH < halfWindow {
		halfWindow = e.view.HalfH
	}
	if e.tracker.ShouldRecenter(e.gen, e.view.Center, halfWindow) {
		e.view.Center = Point{X: e.tracker.CBX, Y: e.tracker.CBY}
	}
}
