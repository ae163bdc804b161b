package life

import "fmt"

// StatusFields carries the values spec.md §6's one-line status string is
// built from.
type StatusFields struct {
	Generation    uint64
	DisplayShift  uint32 // s, such that the display stride is 2^s
	Population    int
	Static        int // live cells retained in inactive tiles (not reprocessed)
	Births        uint64
	Deaths        uint64
	RateCapped    bool // whether the configured rate cap is currently binding
	GenPerSecond  int
	HashOrder     uint32
	CellsMax      int
	Dampening     int // sRate
	ViewX, ViewY  uint32
	Origin        uint32
	Sensitivity   int // tg
	Rate10k       int
}

// FormatStatus renders the exact §6 status line: "generation
// {gen}({2^s}) population {pop}({pop-static}) births {b} deaths {d}
// rate{>|blank}{gen/s} heap({order}) {cellsMax} window({sRate})
// {xl-origin},{yl-origin} ±{2^(23-|tg|)} {rate10k}".
func FormatStatus(f StatusFields) string {
	rateChar := " "
	if f.RateCapped {
		rateChar = ">"
	}

	sensitivityHalf := SensitivityHalfWidth(f.Sensitivity)

	return fmt.Sprintf(
		"generation %d(%d) population %d(%d) births %d deaths %d rate%s%d heap(%d) %d window(%d) %d,%d ±%d %d",
		f.Generation, uint32(1)<<f.DisplayShift,
		f.Population, f.Population-f.Static,
		f.Births, f.Deaths,
		rateChar, f.GenPerSecond,
		f.HashOrder, f.CellsMax,
		f.Dampening,
		int32(f.ViewX)-int32(f.Origin), int32(f.ViewY)-int32(f.Origin),
		sensitivityHalf,
		f.Rate10k,
	)
}
