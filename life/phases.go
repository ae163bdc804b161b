package life

// processAlive implements spec.md §4.E's alive-expansion phase for
// worker t: walk alive[t], emitting self/neighbour contributions into the
// Spatial Hash for any point touching an active tile, and writing
// display glyphs for points inside the view window.
//
// Grounded on concurrentgameoflife.go's processRegion/applyChanges
// classify-then-apply shape, generalized from a dense mutex-protected
// grid scan to the sparse hash/arena protocol §4.E specifies.
func (e *Engine) processAlive(t int) {
	set := e.alive[t]
	cursor := e.cursors[t]
	screen := e.handoff.Current()
	view := e.view
	mask := e.cfg.tileMask()

	var static int

	i := 0
	for i < set.Len() {
		p := set.At(i)

		if x, y, ok := view.ToScreen(p); ok {
			screen.SetCell(x, y, '#')
		}

		if e.curActive.IsActive(p.X, p.Y) {
			// Active tile: migrate into the arena for resolution in
			// phase F. Self contributes +10, each neighbour in an
			// active tile contributes +1.
			set.SwapRemove(i)
			e.hash.addCell(e.arena, cursor, p, 10)
			p.EachNeighbor(func(n Point) {
				if e.curActive.IsActive(n.X, n.Y) {
					e.hash.addCell(e.arena, cursor, n, 1)
				}
			})
			// i is not advanced: SwapRemove moved a new entry into i.
			continue
		}

		// Inactive tile: a static cell, retained without insertion into
		// the arena (§3 "Static cell").
		static++
		onEdge := p.X&mask == 0 || p.X&mask == mask || p.Y&mask == 0 || p.Y&mask == mask
		if onEdge {
			p.EachNeighbor(func(n Point) {
				if e.curActive.IsActive(n.X, n.Y) {
					e.hash.addCell(e.arena, cursor, n, 1)
				}
			})
		}
		// Strictly interior static points emit nothing: they cannot
		// affect any tile that isn't already inactive (§4.E).
		i++
	}

	e.cellsLen[t] = cursor.len()
	e.staticPerWorker[t] = static
}

// chunkRef is one block of a partition's logical cells, used by the phase
// F round-robin chunk plan.
type chunkRef struct {
	partition int
	startK    int
	count     int
}

// partitionLogicalCount returns how many cells worker p actually wrote to
// the arena this generation (its arena indices are {p+1, p+1+N, ...}, so
// this is (cellsLen[p] - (p+1)) / N).
func (e *Engine) partitionLogicalCount(p int) int {
	n := uint32(e.cfg.Threads)
	base := uint32(p + 1)
	length := e.cellsLen[p]
	if length <= base {
		return 0
	}
	return int((length - base) / n)
}

// buildChunkPlan lays out phase F's round-robin chunk schedule: chunkSize
// blocks of each partition's logical cells, visited one round across all
// partitions before advancing to the next round, per spec.md §4.F. The
// plan is built once on the main goroutine (PREP_NEWGRID) and only read
// by workers during phase F, so no synchronization is needed on it.
func (e *Engine) buildChunkPlan() {
	n := int(e.cfg.Threads)
	chunkSize := int(e.cfg.ChunkSize)

	counts := make([]int, n)
	lengths := make([]int, n)
	maxChunks := 0
	for p := 0; p < n; p++ {
		l := e.partitionLogicalCount(p)
		lengths[p] = l
		c := (l + chunkSize - 1) / chunkSize
		counts[p] = c
		if c > maxChunks {
			maxChunks = c
		}
	}

	e.chunkPlan = e.chunkPlan[:0]
	for round := 0; round < maxChunks; round++ {
		for p := 0; p < n; p++ {
			if round >= counts[p] {
				continue
			}
			start := round * chunkSize
			count := chunkSize
			if start+count > lengths[p] {
				count = lengths[p] - start
			}
			e.chunkPlan = append(e.chunkPlan, chunkRef{partition: p, startK: start, count: count})
		}
	}
}

// processCells implements spec.md §4.F's cell-resolution phase for
// worker t: claim every chunkPlan entry at index ≡ t (mod N) — a
// deterministic partition of the plan given cellsLen and worker ids, per
// invariant I2/§5 ("no synchronization is needed on v") — and classify
// each Cell by its accumulated value.
//
// Grounded on workstealingscheduler.go's victim-rotation shape, adapted
// from runtime work-stealing to a compile-time-deterministic round robin
// since spec.md's determinism invariants (I2, scenario S6) rule out a
// racy claim order.
func (e *Engine) processCells(t int) {
	n := int(e.cfg.Threads)
	set := e.alive[t]

	var births, deaths uint64
	for idx := t; idx < len(e.chunkPlan); idx += n {
		ref := e.chunkPlan[idx]
		base := uint32(ref.partition + 1)
		stride := uint32(n)

		for k := ref.startK; k < ref.startK+ref.count; k++ {
			arenaIdx := base + uint32(k)*stride
			v := e.arena.value(arenaIdx)
			p := e.arena.point(arenaIdx)

			switch {
			case v == 3:
				// Birth.
				set.Append(p)
				e.nextActive.SetActive(p)
				e.tracker.Contribute(p, true)
				births++
			case v == 12 || v == 13:
				// Survival: prior live cell with 2 or 3 neighbours.
				// Quiescent — no tile is marked active.
				set.Append(p)
			case v == 10 || v == 11 || (v >= 14 && v <= 18):
				// Death: prior live cell with the wrong neighbour count.
				e.nextActive.SetActive(p)
				e.tracker.Contribute(p, false)
				deaths++
			default:
				// v in {1,2,4..9}: dead cell, insufficient or excess
				// neighbours. Dropped silently.
			}
		}
	}

	e.birthsPerWorker[t] = births
	e.deathsPerWorker[t] = deaths
}
